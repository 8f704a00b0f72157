package repository

import (
	"database/sql"
	"fmt"

	"familyplan/internal/database"
	"familyplan/internal/models"
)

// MemberRepository handles database operations for family members
type MemberRepository struct {
	db *database.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = "id, family_id, user_id, name, role, date_of_birth, COALESCE(bio, ''), COALESCE(avatar_color, ''), created_at, updated_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(row rowScanner) (*models.FamilyMember, error) {
	m := &models.FamilyMember{}
	err := row.Scan(
		&m.ID,
		&m.FamilyID,
		&m.UserID,
		&m.Name,
		&m.Role,
		&m.DateOfBirth,
		&m.Bio,
		&m.AvatarColor,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Insert creates a member row. UserID nil inserts a headless member.
func (r *MemberRepository) Insert(q database.Querier, m *models.FamilyMember) (int64, error) {
	query := `
		INSERT INTO family_members (family_id, user_id, name, role, date_of_birth, bio, avatar_color)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(query, m.FamilyID, m.UserID, m.Name, m.Role, m.DateOfBirth, m.Bio, m.AvatarColor)
	if err != nil {
		return 0, fmt.Errorf("failed to create family member: %w", err)
	}
	return id, nil
}

// GetByID retrieves a member by ID, nil when absent
func (r *MemberRepository) GetByID(id int64) (*models.FamilyMember, error) {
	query := "SELECT " + memberColumns + " FROM family_members WHERE id = ?"
	m, err := scanMember(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family member: %w", err)
	}
	return m, nil
}

// GetByUserID retrieves the member record linked to a user, nil when the user
// has no member record yet
func (r *MemberRepository) GetByUserID(userID int64) (*models.FamilyMember, error) {
	query := "SELECT " + memberColumns + " FROM family_members WHERE user_id = ?"
	m, err := scanMember(r.db.QueryRow(query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by user: %w", err)
	}
	return m, nil
}

// UserHasMember reports whether a user is already linked to a member record.
// Runs on the querier so the registration transaction sees its own writes.
func (r *MemberRepository) UserHasMember(q database.Querier, userID int64) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM family_members WHERE user_id = ?"
	if err := q.QueryRow(query, userID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check member link: %w", err)
	}
	return count > 0, nil
}

// ListByFamily retrieves all members of a family
func (r *MemberRepository) ListByFamily(familyID int64) ([]models.FamilyMember, error) {
	query := "SELECT " + memberColumns + " FROM family_members WHERE family_id = ? ORDER BY created_at ASC"
	return r.list(query, familyID)
}

// ListClaimable retrieves the members of a family that a new registrant could
// claim: unclaimed, and not a child.
func (r *MemberRepository) ListClaimable(familyID int64) ([]models.FamilyMember, error) {
	query := "SELECT " + memberColumns + ` FROM family_members
		WHERE family_id = ? AND user_id IS NULL AND role != ?
		ORDER BY created_at ASC`
	return r.list(query, familyID, models.RoleChild)
}

// FindUnclaimedByName retrieves claimable members of a family whose name
// matches case-insensitively. Runs on the querier so the registration
// transaction gets a consistent read.
func (r *MemberRepository) FindUnclaimedByName(q database.Querier, familyID int64, name string) ([]models.FamilyMember, error) {
	query := "SELECT " + memberColumns + ` FROM family_members
		WHERE family_id = ? AND user_id IS NULL AND role != ? AND LOWER(name) = LOWER(?)
		ORDER BY created_at ASC`
	rows, err := q.Query(query, familyID, models.RoleChild, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	return collectMembers(rows)
}

func (r *MemberRepository) list(query string, args ...interface{}) ([]models.FamilyMember, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	return collectMembers(rows)
}

func collectMembers(rows *sql.Rows) ([]models.FamilyMember, error) {
	defer rows.Close()

	var members []models.FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// Claim atomically attaches a user to an unclaimed member of the given
// family. The WHERE clause re-validates family membership, unclaimed status
// and a claimable role at claim time, which closes the race between
// invite-code resolution and submission. Returns false when the member was
// already claimed, belongs to another family, is a child, or does not exist.
func (r *MemberRepository) Claim(q database.Querier, memberID, familyID, userID int64) (bool, error) {
	query := `
		UPDATE family_members
		SET user_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND family_id = ? AND user_id IS NULL AND role != ?
	`
	result, err := q.Exec(query, userID, memberID, familyID, models.RoleChild)
	if err != nil {
		return false, fmt.Errorf("failed to claim member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return rows == 1, nil
}

// UpdateProfileIfProvided overwrites name and date of birth only when the
// submission supplied a value. A stored date of birth is never cleared by a
// nil submission (COALESCE keeps the existing column value).
func (r *MemberRepository) UpdateProfileIfProvided(q database.Querier, memberID int64, name *string, dateOfBirth *string) error {
	query := `
		UPDATE family_members
		SET name = COALESCE(?, name),
		    date_of_birth = COALESCE(?, date_of_birth),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := q.Exec(query, name, dateOfBirth, memberID); err != nil {
		return fmt.Errorf("failed to update member profile: %w", err)
	}
	return nil
}

// Update replaces a member's editable profile fields
func (r *MemberRepository) Update(m *models.FamilyMember) error {
	query := `
		UPDATE family_members
		SET name = ?, role = ?, date_of_birth = ?, bio = ?, avatar_color = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, m.Name, m.Role, m.DateOfBirth, m.Bio, m.AvatarColor, m.ID); err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return nil
}

// Delete removes a member record
func (r *MemberRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM family_members WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return nil
}
