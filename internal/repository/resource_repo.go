package repository

import (
	"database/sql"
	"fmt"

	"familyplan/internal/database"
	"familyplan/internal/models"
)

// ResourceRepository handles database operations for family resources
type ResourceRepository struct {
	db *database.DB
}

// NewResourceRepository creates a new resource repository
func NewResourceRepository(db *database.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

const resourceColumns = "id, family_id, name, environment, active, created_at, updated_at"

func scanResource(row rowScanner) (*models.Resource, error) {
	res := &models.Resource{}
	err := row.Scan(
		&res.ID,
		&res.FamilyID,
		&res.Name,
		&res.Environment,
		&res.Active,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Create inserts a resource
func (r *ResourceRepository) Create(res *models.Resource) (int64, error) {
	query := "INSERT INTO resources (family_id, name, environment, active) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, res.FamilyID, res.Name, res.Environment, res.Active)
	if err != nil {
		return 0, fmt.Errorf("failed to create resource: %w", err)
	}
	return id, nil
}

// GetByID retrieves a resource, nil when absent
func (r *ResourceRepository) GetByID(id int64) (*models.Resource, error) {
	query := "SELECT " + resourceColumns + " FROM resources WHERE id = ?"
	res, err := scanResource(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return res, nil
}

// ListByFamily retrieves resources of a family. When activeOnly is set,
// inactive resources are filtered out (they are not offered to the generation
// service).
func (r *ResourceRepository) ListByFamily(familyID int64, activeOnly bool) ([]models.Resource, error) {
	query := "SELECT " + resourceColumns + " FROM resources WHERE family_id = ?"
	args := []interface{}{familyID}
	if activeOnly {
		query += " AND active = ?"
		args = append(args, true)
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, *res)
	}
	return resources, rows.Err()
}

// Update replaces a resource's editable fields
func (r *ResourceRepository) Update(res *models.Resource) error {
	query := `
		UPDATE resources
		SET name = ?, environment = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, res.Name, res.Environment, res.Active, res.ID); err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}
	return nil
}

// Delete removes a resource
func (r *ResourceRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM resources WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	return nil
}
