package service

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"familyplan/internal/database"
	"familyplan/internal/models"
	"familyplan/internal/repository"
	"familyplan/internal/security"
	"familyplan/internal/validation"
)

type onboardingFixture struct {
	svc      *OnboardingService
	db       *database.DB
	users    *repository.UserRepository
	families *repository.FamilyRepository
	members  *repository.MemberRepository
}

func newOnboardingFixture(t *testing.T) *onboardingFixture {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	users := repository.NewUserRepository(db)
	families := repository.NewFamilyRepository(db)
	members := repository.NewMemberRepository(db)

	return &onboardingFixture{
		svc:      NewOnboardingService(db, users, families, members, log),
		db:       db,
		users:    users,
		families: families,
		members:  members,
	}
}

func strptr(s string) *string { return &s }

func createFamilySubmission(email string) RegistrationSubmission {
	return RegistrationSubmission{
		FamilyData: FamilySubmission{
			FamilyName: "The Smiths",
			PrimaryGuardian: GuardianProfile{
				Name:        "Ann",
				Role:        models.RolePrimaryGuardian,
				DateOfBirth: strptr("1985-03-14"),
			},
			AdditionalMembers: []MemberProfile{
				{Name: "Bo", Role: models.RoleChild, DateOfBirth: strptr("2015-07-01")},
				{Name: "Sam", Role: models.RoleSecondaryGuardian},
			},
		},
		AccountData: AccountSubmission{
			Email:    email,
			Password: "correct-horse",
		},
	}
}

func (f *onboardingFixture) mustRegister(t *testing.T, sub RegistrationSubmission) *RegistrationResult {
	t.Helper()
	result, err := f.svc.CompleteRegistration(sub)
	if err != nil {
		t.Fatalf("CompleteRegistration() error = %v", err)
	}
	return result
}

func (f *onboardingFixture) inviteCode(t *testing.T, familyID int64) string {
	t.Helper()
	family, err := f.families.GetByID(familyID)
	if err != nil || family == nil {
		t.Fatalf("failed to load family %d: %v", familyID, err)
	}
	return family.InviteCode
}

func TestCompleteRegistrationCreatesFamily(t *testing.T) {
	f := newOnboardingFixture(t)

	result := f.mustRegister(t, createFamilySubmission("ann@example.com"))

	user, err := f.users.GetByID(result.UserID)
	if err != nil || user == nil {
		t.Fatalf("registered user not found: %v", err)
	}
	if user.Email != "ann@example.com" {
		t.Errorf("email = %q", user.Email)
	}

	code := f.inviteCode(t, result.FamilyID)
	if len(code) != security.InviteCodeLength {
		t.Errorf("invite code %q has length %d, want %d", code, len(code), security.InviteCodeLength)
	}
	if code != strings.ToUpper(code) {
		t.Errorf("invite code %q is not upper case", code)
	}

	members, err := f.members.ListByFamily(result.FamilyID)
	if err != nil {
		t.Fatalf("failed to list members: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("got %d members, want 3", len(members))
	}

	byName := map[string]models.FamilyMember{}
	for _, m := range members {
		byName[m.Name] = m
	}

	ann := byName["Ann"]
	if !ann.Claimed() || *ann.UserID != result.UserID {
		t.Error("registrant's member record should be linked to the new user")
	}
	if ann.ID != result.FamilyMemberID {
		t.Errorf("result member ID = %d, want %d", result.FamilyMemberID, ann.ID)
	}
	if ann.DateOfBirth == nil || *ann.DateOfBirth != "1985-03-14" {
		t.Errorf("date of birth did not round-trip: %v", ann.DateOfBirth)
	}

	for _, name := range []string{"Bo", "Sam"} {
		if byName[name].Claimed() {
			t.Errorf("additional member %s should be headless", name)
		}
	}
}

func TestCompleteRegistrationDuplicateEmail(t *testing.T) {
	f := newOnboardingFixture(t)

	f.mustRegister(t, createFamilySubmission("ann@example.com"))

	sub := createFamilySubmission("Ann@Example.com")
	if _, err := f.svc.CompleteRegistration(sub); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("second registration error = %v, want ErrEmailTaken", err)
	}
}

func TestCompleteRegistrationValidation(t *testing.T) {
	f := newOnboardingFixture(t)

	tests := []struct {
		name   string
		mutate func(*RegistrationSubmission)
	}{
		{"bad email", func(s *RegistrationSubmission) { s.AccountData.Email = "not-an-email" }},
		{"short password", func(s *RegistrationSubmission) { s.AccountData.Password = "short" }},
		{"missing family name", func(s *RegistrationSubmission) { s.FamilyData.FamilyName = "" }},
		{"child registrant", func(s *RegistrationSubmission) { s.FamilyData.PrimaryGuardian.Role = models.RoleChild }},
		{"bad date", func(s *RegistrationSubmission) { s.FamilyData.PrimaryGuardian.DateOfBirth = strptr("14/03/1985") }},
		{"bad additional role", func(s *RegistrationSubmission) { s.FamilyData.AdditionalMembers[0].Role = "parent" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := createFamilySubmission("valid@example.com")
			tt.mutate(&sub)

			_, err := f.svc.CompleteRegistration(sub)
			var ve validation.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestResolveInviteCode(t *testing.T) {
	f := newOnboardingFixture(t)

	result := f.mustRegister(t, createFamilySubmission("ann@example.com"))
	code := f.inviteCode(t, result.FamilyID)

	resolution, err := f.svc.ResolveInviteCode(code)
	if err != nil {
		t.Fatalf("ResolveInviteCode() error = %v", err)
	}
	if resolution.Family.ID != result.FamilyID {
		t.Errorf("family ID = %d, want %d", resolution.Family.ID, result.FamilyID)
	}

	// Ann is claimed and Bo is a child; only Sam is claimable.
	if len(resolution.EligibleMembers) != 1 || resolution.EligibleMembers[0].Name != "Sam" {
		t.Errorf("eligible members = %+v, want just Sam", resolution.EligibleMembers)
	}

	// Matching is case-insensitive, and resolving twice gives the same set.
	lower, err := f.svc.ResolveInviteCode(strings.ToLower(code))
	if err != nil {
		t.Fatalf("lower-case resolve error = %v", err)
	}
	if len(lower.EligibleMembers) != len(resolution.EligibleMembers) {
		t.Error("repeated resolution returned a different member set")
	}

	if _, err := f.svc.ResolveInviteCode("ZZZZZZ"); !errors.Is(err, ErrInvalidInviteCode) {
		t.Errorf("unknown code error = %v, want ErrInvalidInviteCode", err)
	}
	if _, err := f.svc.ResolveInviteCode(""); !errors.Is(err, ErrInvalidInviteCode) {
		t.Errorf("empty code error = %v, want ErrInvalidInviteCode", err)
	}
}

func TestJoinClaimsSelectedMember(t *testing.T) {
	f := newOnboardingFixture(t)

	first := f.mustRegister(t, createFamilySubmission("ann@example.com"))
	code := f.inviteCode(t, first.FamilyID)

	resolution, err := f.svc.ResolveInviteCode(code)
	if err != nil {
		t.Fatalf("ResolveInviteCode() error = %v", err)
	}
	samID := resolution.EligibleMembers[0].ID

	sub := RegistrationSubmission{
		FamilyData: FamilySubmission{
			PrimaryGuardian: GuardianProfile{
				Name:        "Samuel",
				Role:        models.RoleSecondaryGuardian,
				DateOfBirth: strptr("1987-11-02"),
			},
			InviteCode:     code,
			FamilyMemberID: &samID,
		},
		AccountData: AccountSubmission{Email: "sam@example.com", Password: "another-pass"},
	}

	result := f.mustRegister(t, sub)
	if result.FamilyID != first.FamilyID {
		t.Errorf("joined family %d, want %d", result.FamilyID, first.FamilyID)
	}
	if result.FamilyMemberID != samID {
		t.Errorf("claimed member %d, want %d", result.FamilyMemberID, samID)
	}

	member, err := f.members.GetByID(samID)
	if err != nil || member == nil {
		t.Fatalf("claimed member not found: %v", err)
	}
	if !member.Claimed() || *member.UserID != result.UserID {
		t.Error("member should be linked to the joining user")
	}
	if member.Name != "Samuel" {
		t.Errorf("name = %q, want the submitted name", member.Name)
	}
	if member.DateOfBirth == nil || *member.DateOfBirth != "1987-11-02" {
		t.Errorf("date of birth = %v", member.DateOfBirth)
	}
}

func TestJoinRejectsAlreadyClaimedMember(t *testing.T) {
	f := newOnboardingFixture(t)

	first := f.mustRegister(t, createFamilySubmission("ann@example.com"))
	code := f.inviteCode(t, first.FamilyID)

	// Ann's own record is claimed; selecting it must fail and the whole
	// registration must roll back.
	sub := RegistrationSubmission{
		FamilyData: FamilySubmission{
			PrimaryGuardian: GuardianProfile{Name: "Impostor", Role: models.RoleSecondaryGuardian},
			InviteCode:      code,
			FamilyMemberID:  &first.FamilyMemberID,
		},
		AccountData: AccountSubmission{Email: "impostor@example.com", Password: "sneaky-pass"},
	}

	if _, err := f.svc.CompleteRegistration(sub); !errors.Is(err, ErrInvalidMemberSelection) {
		t.Fatalf("error = %v, want ErrInvalidMemberSelection", err)
	}

	user, err := f.users.GetByEmail("impostor@example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if user != nil {
		t.Error("failed registration should not leave a user behind")
	}
}

func TestJoinRejectsMemberFromOtherFamily(t *testing.T) {
	f := newOnboardingFixture(t)

	first := f.mustRegister(t, createFamilySubmission("ann@example.com"))

	other := createFamilySubmission("zed@example.com")
	other.FamilyData.FamilyName = "The Others"
	second := f.mustRegister(t, other)
	otherCode := f.inviteCode(t, second.FamilyID)

	// Sam belongs to the first family; claiming it through the second
	// family's code must fail.
	resolution, err := f.svc.ResolveInviteCode(f.inviteCode(t, first.FamilyID))
	if err != nil {
		t.Fatalf("resolve error = %v", err)
	}
	foreignID := resolution.EligibleMembers[0].ID

	sub := RegistrationSubmission{
		FamilyData: FamilySubmission{
			PrimaryGuardian: GuardianProfile{Name: "Crosswise", Role: models.RoleOtherRelative},
			InviteCode:      otherCode,
			FamilyMemberID:  &foreignID,
		},
		AccountData: AccountSubmission{Email: "cross@example.com", Password: "crossed-pass"},
	}

	if _, err := f.svc.CompleteRegistration(sub); !errors.Is(err, ErrInvalidMemberSelection) {
		t.Errorf("error = %v, want ErrInvalidMemberSelection", err)
	}
}

func TestJoinClaimsUniqueNameMatch(t *testing.T) {
	f := newOnboardingFixture(t)

	first := f.mustRegister(t, createFamilySubmission("ann@example.com"))
	code := f.inviteCode(t, first.FamilyID)

	before, _ := f.members.ListByFamily(first.FamilyID)

	// "sam" matches the unclaimed Sam record case-insensitively.
	sub := RegistrationSubmission{
		FamilyData: FamilySubmission{
			PrimaryGuardian: GuardianProfile{Name: "sam", Role: models.RoleSecondaryGuardian},
			InviteCode:      code,
		},
		AccountData: AccountSubmission{Email: "sam@example.com", Password: "matched-pass"},
	}

	result := f.mustRegister(t, sub)

	after, err := f.members.ListByFamily(first.FamilyID)
	if err != nil {
		t.Fatalf("failed to list members: %v", err)
	}
	if len(after) != len(before) {
		t.Errorf("name match should claim, not create: %d -> %d members", len(before), len(after))
	}

	member, _ := f.members.GetByID(result.FamilyMemberID)
	if member == nil || !member.Claimed() {
		t.Fatal("matched member should be claimed")
	}
	// The stored profile was only overlaid with supplied values. No date of
	// birth was submitted, so none appears.
	if member.DateOfBirth != nil {
		t.Errorf("date of birth = %v, want nil", member.DateOfBirth)
	}
}

func TestJoinCreatesFreshMemberWithoutMatch(t *testing.T) {
	f := newOnboardingFixture(t)

	first := f.mustRegister(t, createFamilySubmission("ann@example.com"))
	code := f.inviteCode(t, first.FamilyID)

	before, _ := f.members.ListByFamily(first.FamilyID)

	sub := RegistrationSubmission{
		FamilyData: FamilySubmission{
			PrimaryGuardian: GuardianProfile{Name: "Grandpa Joe", Role: models.RoleOtherRelative},
			InviteCode:      code,
			// Ignored on a join; only the registrant enters.
			AdditionalMembers: []MemberProfile{{Name: "Extra", Role: models.RoleChild}},
		},
		AccountData: AccountSubmission{Email: "joe@example.com", Password: "fresh-member"},
	}

	result := f.mustRegister(t, sub)

	after, err := f.members.ListByFamily(first.FamilyID)
	if err != nil {
		t.Fatalf("failed to list members: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Errorf("members %d -> %d, want exactly one new record", len(before), len(after))
	}

	member, _ := f.members.GetByID(result.FamilyMemberID)
	if member == nil || member.Name != "Grandpa Joe" || !member.Claimed() {
		t.Errorf("fresh member = %+v", member)
	}
}

func TestJoinInvalidInviteCode(t *testing.T) {
	f := newOnboardingFixture(t)

	sub := RegistrationSubmission{
		FamilyData: FamilySubmission{
			PrimaryGuardian: GuardianProfile{Name: "Nobody", Role: models.RolePrimaryGuardian},
			InviteCode:      "NOPE99",
		},
		AccountData: AccountSubmission{Email: "nobody@example.com", Password: "wrong-code"},
	}

	if _, err := f.svc.CompleteRegistration(sub); !errors.Is(err, ErrInvalidInviteCode) {
		t.Errorf("error = %v, want ErrInvalidInviteCode", err)
	}
}

func TestCompleteOnboardingForOAuthUser(t *testing.T) {
	f := newOnboardingFixture(t)

	user, err := f.users.Create(f.db, "oauth@example.com", "", "Riley")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	result, err := f.svc.CompleteOnboarding(user.ID, FamilySubmission{
		FamilyName:      "The Rileys",
		PrimaryGuardian: GuardianProfile{Name: "Riley", Role: models.RolePrimaryGuardian},
	})
	if err != nil {
		t.Fatalf("CompleteOnboarding() error = %v", err)
	}

	member, err := f.members.GetByUserID(user.ID)
	if err != nil || member == nil {
		t.Fatalf("member not linked: %v", err)
	}
	if member.ID != result.FamilyMemberID || member.FamilyID != result.FamilyID {
		t.Errorf("result = %+v, member = %+v", result, member)
	}
}

func TestCompleteOnboardingRejectsEnrolledUser(t *testing.T) {
	f := newOnboardingFixture(t)

	first := f.mustRegister(t, createFamilySubmission("ann@example.com"))

	_, err := f.svc.CompleteOnboarding(first.UserID, FamilySubmission{
		FamilyName:      "Second Family",
		PrimaryGuardian: GuardianProfile{Name: "Ann", Role: models.RolePrimaryGuardian},
	})
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Errorf("error = %v, want ErrAlreadyEnrolled", err)
	}
}
