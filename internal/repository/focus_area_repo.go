package repository

import (
	"database/sql"
	"fmt"

	"familyplan/internal/database"
	"familyplan/internal/models"
)

// FocusAreaRepository handles database operations for focus areas
type FocusAreaRepository struct {
	db *database.DB
}

// NewFocusAreaRepository creates a new focus area repository
func NewFocusAreaRepository(db *database.DB) *FocusAreaRepository {
	return &FocusAreaRepository{db: db}
}

const focusAreaColumns = "id, family_id, member_id, title, COALESCE(description, ''), category, priority, created_at, updated_at"

func scanFocusArea(row rowScanner) (*models.FocusArea, error) {
	f := &models.FocusArea{}
	err := row.Scan(
		&f.ID,
		&f.FamilyID,
		&f.MemberID,
		&f.Title,
		&f.Description,
		&f.Category,
		&f.Priority,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Create inserts a focus area
func (r *FocusAreaRepository) Create(f *models.FocusArea) (int64, error) {
	query := `
		INSERT INTO focus_areas (family_id, member_id, title, description, category, priority)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, f.FamilyID, f.MemberID, f.Title, f.Description, f.Category, f.Priority)
	if err != nil {
		return 0, fmt.Errorf("failed to create focus area: %w", err)
	}
	return id, nil
}

// GetByID retrieves a focus area, nil when absent
func (r *FocusAreaRepository) GetByID(id int64) (*models.FocusArea, error) {
	query := "SELECT " + focusAreaColumns + " FROM focus_areas WHERE id = ?"
	f, err := scanFocusArea(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get focus area: %w", err)
	}
	return f, nil
}

// ListByFamily retrieves all focus areas of a family, highest priority first
func (r *FocusAreaRepository) ListByFamily(familyID int64) ([]models.FocusArea, error) {
	query := "SELECT " + focusAreaColumns + " FROM focus_areas WHERE family_id = ? ORDER BY priority DESC, created_at ASC"
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query focus areas: %w", err)
	}
	defer rows.Close()

	var areas []models.FocusArea
	for rows.Next() {
		f, err := scanFocusArea(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan focus area: %w", err)
		}
		areas = append(areas, *f)
	}
	return areas, rows.Err()
}

// Update replaces a focus area's editable fields
func (r *FocusAreaRepository) Update(f *models.FocusArea) error {
	query := `
		UPDATE focus_areas
		SET member_id = ?, title = ?, description = ?, category = ?, priority = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, f.MemberID, f.Title, f.Description, f.Category, f.Priority, f.ID); err != nil {
		return fmt.Errorf("failed to update focus area: %w", err)
	}
	return nil
}

// Delete removes a focus area
func (r *FocusAreaRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM focus_areas WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete focus area: %w", err)
	}
	return nil
}
