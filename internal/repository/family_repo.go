package repository

import (
	"database/sql"
	"fmt"
	"time"

	"familyplan/internal/database"
	"familyplan/internal/models"
)

// FamilyRepository handles database operations for families
type FamilyRepository struct {
	db *database.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// Insert creates a family row. It runs on the given querier so registration
// can create the family inside the registration transaction.
func (r *FamilyRepository) Insert(q database.Querier, name, inviteCode string) (*models.Family, error) {
	query := "INSERT INTO families (name, invite_code) VALUES (?, ?)"
	id, err := q.ExecReturningID(query, name, inviteCode)
	if err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	return &models.Family{
		ID:         id,
		Name:       name,
		InviteCode: inviteCode,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}, nil
}

// CodeExists reports whether any family already uses the invite code
func (r *FamilyRepository) CodeExists(q database.Querier, inviteCode string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM families WHERE UPPER(invite_code) = UPPER(?)"
	if err := q.QueryRow(query, inviteCode).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check invite code: %w", err)
	}
	return count > 0, nil
}

// GetByCode retrieves a family by invite code, matched case-insensitively.
// Returns nil when no family matches.
func (r *FamilyRepository) GetByCode(inviteCode string) (*models.Family, error) {
	query := `
		SELECT id, name, invite_code, created_at, updated_at
		FROM families
		WHERE UPPER(invite_code) = UPPER(?)
	`
	return r.scanFamily(r.db.QueryRow(query, inviteCode))
}

// GetByID retrieves a family by ID, nil when absent
func (r *FamilyRepository) GetByID(familyID int64) (*models.Family, error) {
	query := "SELECT id, name, invite_code, created_at, updated_at FROM families WHERE id = ?"
	return r.scanFamily(r.db.QueryRow(query, familyID))
}

func (r *FamilyRepository) scanFamily(row *sql.Row) (*models.Family, error) {
	family := &models.Family{}
	err := row.Scan(
		&family.ID,
		&family.Name,
		&family.InviteCode,
		&family.CreatedAt,
		&family.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return family, nil
}

// UpdateName updates a family's name
func (r *FamilyRepository) UpdateName(familyID int64, name string) error {
	query := "UPDATE families SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, name, familyID); err != nil {
		return fmt.Errorf("failed to update family: %w", err)
	}
	return nil
}

// Delete deletes a family; members, focus areas and resources cascade
func (r *FamilyRepository) Delete(familyID int64) error {
	if _, err := r.db.Exec("DELETE FROM families WHERE id = ?", familyID); err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	return nil
}
