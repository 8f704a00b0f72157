package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"familyplan/internal/database"
	"familyplan/internal/models"
	"familyplan/internal/repository"
	"familyplan/internal/security"
	"familyplan/internal/validation"
)

var (
	// ErrEmailTaken is returned when the submitted email already has an account
	ErrEmailTaken = errors.New("email already taken")
	// ErrInvalidInviteCode is returned when no family matches the invite code
	ErrInvalidInviteCode = errors.New("invalid invite code")
	// ErrInvalidMemberSelection is returned when the selected member cannot be
	// claimed: already claimed, not in the invited family, or not claimable
	ErrInvalidMemberSelection = errors.New("invalid member selection")
	// ErrAlreadyEnrolled is returned when the user is already linked to a
	// family member record
	ErrAlreadyEnrolled = errors.New("user already belongs to a family")
)

// GuardianProfile is the registrant's own member profile as submitted.
type GuardianProfile struct {
	Name        string            `json:"name"`
	Role        models.MemberRole `json:"role"`
	DateOfBirth *string           `json:"dateOfBirth,omitempty"`
}

// MemberProfile is an additional member entered during family creation. These
// members are stored headless, with no account attached.
type MemberProfile struct {
	Name        string            `json:"name"`
	Role        models.MemberRole `json:"role"`
	DateOfBirth *string           `json:"dateOfBirth,omitempty"`
}

// FamilySubmission is the family half of a registration: either a new family
// (no invite code) or a join of an existing one. FamilyMemberID optionally
// names an unclaimed member the registrant says they are.
type FamilySubmission struct {
	FamilyName        string          `json:"familyName"`
	PrimaryGuardian   GuardianProfile `json:"primaryGuardian"`
	AdditionalMembers []MemberProfile `json:"additionalMembers"`
	InviteCode        string          `json:"inviteCode,omitempty"`
	FamilyMemberID    *int64          `json:"familyMemberId,omitempty"`
}

// AccountSubmission is the credentials half of a registration.
type AccountSubmission struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegistrationSubmission is the full payload of a registration request.
type RegistrationSubmission struct {
	FamilyData  FamilySubmission  `json:"familyData"`
	AccountData AccountSubmission `json:"accountData"`
}

// RegistrationResult reports the rows a successful registration produced.
type RegistrationResult struct {
	UserID         int64
	FamilyID       int64
	FamilyMemberID int64
}

// InviteResolution is what an invite code resolves to: the family plus the
// members a registrant could claim as themselves.
type InviteResolution struct {
	Family          *models.Family        `json:"family"`
	EligibleMembers []models.FamilyMember `json:"eligibleMembers"`
}

// OnboardingService owns registration and family enrollment: account
// creation, invite code resolution, and the reconciliation that links each new
// account to exactly one family member record.
type OnboardingService struct {
	db       *database.DB
	users    *repository.UserRepository
	families *repository.FamilyRepository
	members  *repository.MemberRepository
	log      *logrus.Logger
}

// NewOnboardingService creates a new onboarding service
func NewOnboardingService(db *database.DB, users *repository.UserRepository, families *repository.FamilyRepository, members *repository.MemberRepository, log *logrus.Logger) *OnboardingService {
	return &OnboardingService{
		db:       db,
		users:    users,
		families: families,
		members:  members,
		log:      log,
	}
}

// ResolveInviteCode looks up a family by invite code and lists the members a
// registrant could claim: unclaimed and not a child. Read-only; the claimable
// set is re-validated at claim time, not reserved here.
func (s *OnboardingService) ResolveInviteCode(code string) (*InviteResolution, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidInviteCode
	}

	family, err := s.families.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrInvalidInviteCode
	}

	eligible, err := s.members.ListClaimable(family.ID)
	if err != nil {
		return nil, err
	}

	return &InviteResolution{Family: family, EligibleMembers: eligible}, nil
}

// CompleteRegistration creates the account and enrolls it in a family, all in
// one transaction. No invite code means a new family with a fresh invite code;
// an invite code means joining the matching family, claiming an existing
// unclaimed member where one fits and creating a fresh member otherwise.
func (s *OnboardingService) CompleteRegistration(sub RegistrationSubmission) (*RegistrationResult, error) {
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(sub.AccountData.Email))

	// Friendly pre-check; the UNIQUE constraint below catches the race.
	existing, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	plan, err := s.planEnrollment(sub.FamilyData)
	if err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(sub.AccountData.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin registration: %w", err)
	}
	defer tx.Rollback()

	user, err := s.users.Create(tx, email, hash, sub.FamilyData.PrimaryGuardian.Name)
	if err != nil {
		if tx.GetDialect().IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	familyID, memberID, err := s.enroll(tx, user.ID, sub.FamilyData, plan)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"family_id": familyID,
		"member_id": memberID,
	}).Info("registration completed")

	return &RegistrationResult{UserID: user.ID, FamilyID: familyID, FamilyMemberID: memberID}, nil
}

// CompleteOnboarding enrolls an already-existing account (an OAuth sign-in
// that has no family yet) using the same join-or-create reconciliation as
// registration.
func (s *OnboardingService) CompleteOnboarding(userID int64, familyData FamilySubmission) (*RegistrationResult, error) {
	if err := validateFamilyData(familyData); err != nil {
		return nil, err
	}

	plan, err := s.planEnrollment(familyData)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin onboarding: %w", err)
	}
	defer tx.Rollback()

	familyID, memberID, err := s.enroll(tx, userID, familyData, plan)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit onboarding: %w", err)
	}

	return &RegistrationResult{UserID: userID, FamilyID: familyID, FamilyMemberID: memberID}, nil
}

// enrollmentPlan is the decision of how a registrant enters a family. Exactly
// one variant applies per submission.
type enrollmentPlan interface {
	isEnrollmentPlan()
}

// claimMember attaches the registrant to the member they selected by ID.
type claimMember struct {
	family   *models.Family
	memberID int64
}

// joinFamily enters an existing family without a member selection; an
// unambiguous name match still claims, otherwise a fresh member is created.
type joinFamily struct {
	family *models.Family
}

// createFamily starts a new family with the registrant as its first member.
type createFamily struct{}

func (claimMember) isEnrollmentPlan()  {}
func (joinFamily) isEnrollmentPlan()   {}
func (createFamily) isEnrollmentPlan() {}

// planEnrollment decides the enrollment variant from the submission. Family
// lookup happens here, outside the write transaction; everything the lookup
// established is re-validated inside enroll at claim time.
func (s *OnboardingService) planEnrollment(familyData FamilySubmission) (enrollmentPlan, error) {
	code := strings.TrimSpace(familyData.InviteCode)
	if code == "" {
		return createFamily{}, nil
	}

	family, err := s.families.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrInvalidInviteCode
	}

	if familyData.FamilyMemberID != nil {
		return claimMember{family: family, memberID: *familyData.FamilyMemberID}, nil
	}
	return joinFamily{family: family}, nil
}

// enroll executes an enrollment plan on the transaction and returns the
// family and member the user ended up linked to.
func (s *OnboardingService) enroll(tx *database.Tx, userID int64, familyData FamilySubmission, plan enrollmentPlan) (int64, int64, error) {
	linked, err := s.members.UserHasMember(tx, userID)
	if err != nil {
		return 0, 0, err
	}
	if linked {
		return 0, 0, ErrAlreadyEnrolled
	}

	guardian := familyData.PrimaryGuardian

	switch p := plan.(type) {
	case claimMember:
		memberID, err := s.claimExisting(tx, p.family.ID, p.memberID, userID, guardian)
		if err != nil {
			return 0, 0, err
		}
		return p.family.ID, memberID, nil

	case joinFamily:
		memberID, err := s.joinByName(tx, p.family.ID, userID, guardian)
		if err != nil {
			return 0, 0, err
		}
		return p.family.ID, memberID, nil

	case createFamily:
		return s.createNewFamily(tx, userID, familyData)

	default:
		return 0, 0, fmt.Errorf("unknown enrollment plan %T", plan)
	}
}

// claimExisting attaches the user to the member they selected. The guarded
// update fails when the member was claimed since resolution, belongs to a
// different family, or is not claimable.
func (s *OnboardingService) claimExisting(tx *database.Tx, familyID, memberID, userID int64, guardian GuardianProfile) (int64, error) {
	claimed, err := s.members.Claim(tx, memberID, familyID, userID)
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, ErrInvalidMemberSelection
	}

	if err := s.applyProfile(tx, memberID, guardian); err != nil {
		return 0, err
	}
	return memberID, nil
}

// joinByName joins without a member selection. Exactly one unclaimed member
// with the same name means the registrant is that person; anything else means
// a fresh member record.
func (s *OnboardingService) joinByName(tx *database.Tx, familyID, userID int64, guardian GuardianProfile) (int64, error) {
	matches, err := s.members.FindUnclaimedByName(tx, familyID, guardian.Name)
	if err != nil {
		return 0, err
	}

	if len(matches) == 1 {
		claimed, err := s.members.Claim(tx, matches[0].ID, familyID, userID)
		if err != nil {
			return 0, err
		}
		if claimed {
			if err := s.applyProfile(tx, matches[0].ID, guardian); err != nil {
				return 0, err
			}
			return matches[0].ID, nil
		}
		// Claimed between the read and the update; fall through to a
		// fresh member.
	}

	return s.members.Insert(tx, &models.FamilyMember{
		FamilyID:    familyID,
		UserID:      &userID,
		Name:        guardian.Name,
		Role:        guardian.Role,
		DateOfBirth: guardian.DateOfBirth,
	})
}

// createNewFamily creates the family, its invite code, the registrant's
// member record and the headless records for everyone else listed.
func (s *OnboardingService) createNewFamily(tx *database.Tx, userID int64, familyData FamilySubmission) (int64, int64, error) {
	code, err := security.UniqueInviteCode(func(candidate string) (bool, error) {
		return s.families.CodeExists(tx, candidate)
	})
	if err != nil {
		return 0, 0, err
	}

	family, err := s.families.Insert(tx, strings.TrimSpace(familyData.FamilyName), code)
	if err != nil {
		return 0, 0, err
	}

	guardian := familyData.PrimaryGuardian
	memberID, err := s.members.Insert(tx, &models.FamilyMember{
		FamilyID:    family.ID,
		UserID:      &userID,
		Name:        guardian.Name,
		Role:        guardian.Role,
		DateOfBirth: guardian.DateOfBirth,
	})
	if err != nil {
		return 0, 0, err
	}

	for _, m := range familyData.AdditionalMembers {
		if _, err := s.members.Insert(tx, &models.FamilyMember{
			FamilyID:    family.ID,
			Name:        m.Name,
			Role:        m.Role,
			DateOfBirth: m.DateOfBirth,
		}); err != nil {
			return 0, 0, err
		}
	}

	return family.ID, memberID, nil
}

// applyProfile overlays the submitted guardian profile on a claimed member.
// Only supplied values overwrite; a nil date of birth never clears a stored
// one.
func (s *OnboardingService) applyProfile(tx *database.Tx, memberID int64, guardian GuardianProfile) error {
	var name *string
	if trimmed := strings.TrimSpace(guardian.Name); trimmed != "" {
		name = &trimmed
	}
	return s.members.UpdateProfileIfProvided(tx, memberID, name, guardian.DateOfBirth)
}

func validateSubmission(sub RegistrationSubmission) error {
	if err := validation.ValidateEmail(sub.AccountData.Email); err != nil {
		return err
	}
	if err := validation.ValidatePassword(sub.AccountData.Password); err != nil {
		return err
	}
	return validateFamilyData(sub.FamilyData)
}

func validateFamilyData(familyData FamilySubmission) error {
	joining := strings.TrimSpace(familyData.InviteCode) != ""

	if !joining {
		if err := validation.ValidateName("familyName", familyData.FamilyName); err != nil {
			return err
		}
	}

	guardian := familyData.PrimaryGuardian
	if err := validation.ValidateName("name", guardian.Name); err != nil {
		return err
	}
	if err := validation.ValidateGuardianRole(guardian.Role); err != nil {
		return err
	}
	if err := validation.ValidateDate("dateOfBirth", guardian.DateOfBirth); err != nil {
		return err
	}

	// Additional members only matter on the create path; a join drops them.
	if !joining {
		for _, m := range familyData.AdditionalMembers {
			if err := validation.ValidateName("name", m.Name); err != nil {
				return err
			}
			if err := validation.ValidateRole(m.Role); err != nil {
				return err
			}
			if err := validation.ValidateDate("dateOfBirth", m.DateOfBirth); err != nil {
				return err
			}
		}
	}

	return nil
}
