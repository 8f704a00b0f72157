package repository

import (
	"encoding/json"
	"fmt"

	"familyplan/internal/database"
	"familyplan/internal/models"
)

// FavoriteRepository handles database operations for favorite activities
type FavoriteRepository struct {
	db *database.DB
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *database.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Create stores a generated activity as a favorite. String lists are stored
// as JSON text so the schema stays portable across dialects.
func (r *FavoriteRepository) Create(fav *models.FavoriteActivity) (int64, error) {
	resources, err := json.Marshal(fav.Activity.RequiredResources)
	if err != nil {
		return 0, fmt.Errorf("failed to encode resources: %w", err)
	}
	areas, err := json.Marshal(fav.Activity.FocusAreas)
	if err != nil {
		return 0, fmt.Errorf("failed to encode focus areas: %w", err)
	}

	query := `
		INSERT INTO favorite_activities (family_id, user_id, title, description, instructions, environment, required_resources, focus_areas)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		fav.FamilyID, fav.UserID,
		fav.Activity.Title, fav.Activity.Description, fav.Activity.Instructions, fav.Activity.Environment,
		string(resources), string(areas),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create favorite: %w", err)
	}
	return id, nil
}

// ListByFamily retrieves all favorites of a family, newest first
func (r *FavoriteRepository) ListByFamily(familyID int64) ([]models.FavoriteActivity, error) {
	query := `
		SELECT id, family_id, user_id, title, COALESCE(description, ''), COALESCE(instructions, ''),
		       COALESCE(environment, ''), COALESCE(required_resources, '[]'), COALESCE(focus_areas, '[]'), created_at
		FROM favorite_activities
		WHERE family_id = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var favorites []models.FavoriteActivity
	for rows.Next() {
		var fav models.FavoriteActivity
		var resources, areas string
		if err := rows.Scan(
			&fav.ID, &fav.FamilyID, &fav.UserID,
			&fav.Activity.Title, &fav.Activity.Description, &fav.Activity.Instructions, &fav.Activity.Environment,
			&resources, &areas, &fav.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		if err := json.Unmarshal([]byte(resources), &fav.Activity.RequiredResources); err != nil {
			return nil, fmt.Errorf("failed to decode resources: %w", err)
		}
		if err := json.Unmarshal([]byte(areas), &fav.Activity.FocusAreas); err != nil {
			return nil, fmt.Errorf("failed to decode focus areas: %w", err)
		}
		favorites = append(favorites, fav)
	}
	return favorites, rows.Err()
}

// ListTitlesByFamily retrieves the favorite titles of a family, newest first.
// Fed back to the generation service as previous titles.
func (r *FavoriteRepository) ListTitlesByFamily(familyID int64) ([]string, error) {
	query := "SELECT title FROM favorite_activities WHERE family_id = ? ORDER BY created_at DESC"
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorite titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// Delete removes a favorite owned by the given family
func (r *FavoriteRepository) Delete(id, familyID int64) error {
	if _, err := r.db.Exec("DELETE FROM favorite_activities WHERE id = ? AND family_id = ?", id, familyID); err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}
