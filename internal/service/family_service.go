package service

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"familyplan/internal/database"
	"familyplan/internal/models"
	"familyplan/internal/repository"
	"familyplan/internal/validation"
)

var (
	// ErrNoFamily is returned when the user has not completed onboarding
	ErrNoFamily = errors.New("user has no family")
	// ErrNotGuardian is returned when a non-guardian attempts a management
	// operation
	ErrNotGuardian = errors.New("operation requires a guardian")
	// ErrNotFound is returned when the target record does not exist in the
	// caller's family
	ErrNotFound = errors.New("not found")
	// ErrMemberClaimed is returned when deleting a member that is linked to an
	// account
	ErrMemberClaimed = errors.New("member is linked to an account")
)

// FamilyService owns the family graph: members, focus areas and resources.
// Every operation is scoped to the calling user's own family; reads are open
// to all members, writes require a guardian role.
type FamilyService struct {
	db         *database.DB
	families   *repository.FamilyRepository
	members    *repository.MemberRepository
	focusAreas *repository.FocusAreaRepository
	resources  *repository.ResourceRepository
	log        *logrus.Logger
}

// NewFamilyService creates a new family service
func NewFamilyService(db *database.DB, families *repository.FamilyRepository, members *repository.MemberRepository, focusAreas *repository.FocusAreaRepository, resources *repository.ResourceRepository, log *logrus.Logger) *FamilyService {
	return &FamilyService{
		db:         db,
		families:   families,
		members:    members,
		focusAreas: focusAreas,
		resources:  resources,
		log:        log,
	}
}

// MemberForUser resolves the caller's own member record.
func (s *FamilyService) MemberForUser(userID int64) (*models.FamilyMember, error) {
	member, err := s.members.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNoFamily
	}
	return member, nil
}

func (s *FamilyService) requireGuardian(userID int64) (*models.FamilyMember, error) {
	member, err := s.MemberForUser(userID)
	if err != nil {
		return nil, err
	}
	if !member.Role.SelfClaimable() {
		return nil, ErrNotGuardian
	}
	return member, nil
}

// GetFamily retrieves the caller's family with all its members.
func (s *FamilyService) GetFamily(userID int64) (*models.FamilyWithMembers, error) {
	member, err := s.MemberForUser(userID)
	if err != nil {
		return nil, err
	}

	family, err := s.families.GetByID(member.FamilyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrNoFamily
	}

	members, err := s.members.ListByFamily(family.ID)
	if err != nil {
		return nil, err
	}

	return &models.FamilyWithMembers{Family: *family, Members: members}, nil
}

// UpdateFamilyName renames the caller's family.
func (s *FamilyService) UpdateFamilyName(userID int64, name string) error {
	member, err := s.requireGuardian(userID)
	if err != nil {
		return err
	}
	if err := validation.ValidateName("familyName", name); err != nil {
		return err
	}
	return s.families.UpdateName(member.FamilyID, strings.TrimSpace(name))
}

// InviteFamily retrieves the caller's family for invite sharing.
func (s *FamilyService) InviteFamily(userID int64) (*models.Family, error) {
	member, err := s.requireGuardian(userID)
	if err != nil {
		return nil, err
	}

	family, err := s.families.GetByID(member.FamilyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrNoFamily
	}
	return family, nil
}

// AddMember creates a headless member in the caller's family.
func (s *FamilyService) AddMember(userID int64, m *models.FamilyMember) (int64, error) {
	guardian, err := s.requireGuardian(userID)
	if err != nil {
		return 0, err
	}
	if err := validateMemberProfile(m); err != nil {
		return 0, err
	}

	m.FamilyID = guardian.FamilyID
	m.UserID = nil
	return s.members.Insert(s.db, m)
}

// UpdateMember edits a member profile in the caller's family.
func (s *FamilyService) UpdateMember(userID int64, m *models.FamilyMember) error {
	guardian, err := s.requireGuardian(userID)
	if err != nil {
		return err
	}

	existing, err := s.members.GetByID(m.ID)
	if err != nil {
		return err
	}
	if existing == nil || existing.FamilyID != guardian.FamilyID {
		return ErrNotFound
	}
	if err := validateMemberProfile(m); err != nil {
		return err
	}
	if existing.Claimed() && m.Role == models.RoleChild {
		return validation.ValidationError{Field: "role", Message: "a member with an account cannot have the child role"}
	}

	m.FamilyID = existing.FamilyID
	return s.members.Update(m)
}

// RemoveMember deletes a headless member from the caller's family. Members
// linked to an account cannot be removed this way.
func (s *FamilyService) RemoveMember(userID, memberID int64) error {
	guardian, err := s.requireGuardian(userID)
	if err != nil {
		return err
	}

	existing, err := s.members.GetByID(memberID)
	if err != nil {
		return err
	}
	if existing == nil || existing.FamilyID != guardian.FamilyID {
		return ErrNotFound
	}
	if existing.Claimed() {
		return ErrMemberClaimed
	}
	return s.members.Delete(memberID)
}

// ListFocusAreas retrieves the caller's family focus areas.
func (s *FamilyService) ListFocusAreas(userID int64) ([]models.FocusArea, error) {
	member, err := s.MemberForUser(userID)
	if err != nil {
		return nil, err
	}
	return s.focusAreas.ListByFamily(member.FamilyID)
}

// CreateFocusArea adds a focus area to the caller's family.
func (s *FamilyService) CreateFocusArea(userID int64, f *models.FocusArea) (int64, error) {
	guardian, err := s.requireGuardian(userID)
	if err != nil {
		return 0, err
	}
	if err := s.validateFocusArea(guardian.FamilyID, f); err != nil {
		return 0, err
	}

	f.FamilyID = guardian.FamilyID
	return s.focusAreas.Create(f)
}

// UpdateFocusArea edits a focus area in the caller's family.
func (s *FamilyService) UpdateFocusArea(userID int64, f *models.FocusArea) error {
	guardian, err := s.requireGuardian(userID)
	if err != nil {
		return err
	}

	existing, err := s.focusAreas.GetByID(f.ID)
	if err != nil {
		return err
	}
	if existing == nil || existing.FamilyID != guardian.FamilyID {
		return ErrNotFound
	}
	if err := s.validateFocusArea(guardian.FamilyID, f); err != nil {
		return err
	}

	f.FamilyID = existing.FamilyID
	return s.focusAreas.Update(f)
}

// DeleteFocusArea removes a focus area from the caller's family.
func (s *FamilyService) DeleteFocusArea(userID, focusAreaID int64) error {
	guardian, err := s.requireGuardian(userID)
	if err != nil {
		return err
	}

	existing, err := s.focusAreas.GetByID(focusAreaID)
	if err != nil {
		return err
	}
	if existing == nil || existing.FamilyID != guardian.FamilyID {
		return ErrNotFound
	}
	return s.focusAreas.Delete(focusAreaID)
}

// ListResources retrieves the caller's family resources.
func (s *FamilyService) ListResources(userID int64) ([]models.Resource, error) {
	member, err := s.MemberForUser(userID)
	if err != nil {
		return nil, err
	}
	return s.resources.ListByFamily(member.FamilyID, false)
}

// CreateResource adds a resource to the caller's family.
func (s *FamilyService) CreateResource(userID int64, res *models.Resource) (int64, error) {
	guardian, err := s.requireGuardian(userID)
	if err != nil {
		return 0, err
	}
	if err := validateResource(res); err != nil {
		return 0, err
	}

	res.FamilyID = guardian.FamilyID
	return s.resources.Create(res)
}

// UpdateResource edits a resource in the caller's family.
func (s *FamilyService) UpdateResource(userID int64, res *models.Resource) error {
	guardian, err := s.requireGuardian(userID)
	if err != nil {
		return err
	}

	existing, err := s.resources.GetByID(res.ID)
	if err != nil {
		return err
	}
	if existing == nil || existing.FamilyID != guardian.FamilyID {
		return ErrNotFound
	}
	if err := validateResource(res); err != nil {
		return err
	}

	res.FamilyID = existing.FamilyID
	return s.resources.Update(res)
}

// DeleteResource removes a resource from the caller's family.
func (s *FamilyService) DeleteResource(userID, resourceID int64) error {
	guardian, err := s.requireGuardian(userID)
	if err != nil {
		return err
	}

	existing, err := s.resources.GetByID(resourceID)
	if err != nil {
		return err
	}
	if existing == nil || existing.FamilyID != guardian.FamilyID {
		return ErrNotFound
	}
	return s.resources.Delete(resourceID)
}

// validateFocusArea checks the submitted fields and the member scope. A
// member-scoped focus area must point at a member of the same family.
func (s *FamilyService) validateFocusArea(familyID int64, f *models.FocusArea) error {
	if err := validation.ValidateName("title", f.Title); err != nil {
		return err
	}
	if err := validation.ValidateCategory(f.Category); err != nil {
		return err
	}
	if err := validation.ValidatePriority(f.Priority); err != nil {
		return err
	}
	if f.MemberID != nil {
		member, err := s.members.GetByID(*f.MemberID)
		if err != nil {
			return err
		}
		if member == nil || member.FamilyID != familyID {
			return validation.ValidationError{Field: "memberId", Message: "member is not in this family"}
		}
	}
	return nil
}

func validateMemberProfile(m *models.FamilyMember) error {
	if err := validation.ValidateName("name", m.Name); err != nil {
		return err
	}
	if err := validation.ValidateRole(m.Role); err != nil {
		return err
	}
	return validation.ValidateDate("dateOfBirth", m.DateOfBirth)
}

func validateResource(res *models.Resource) error {
	if err := validation.ValidateName("name", res.Name); err != nil {
		return err
	}
	return validation.ValidateEnvironment(res.Environment)
}
