package service

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"familyplan/internal/database"
	"familyplan/internal/models"
	"familyplan/internal/repository"
)

type familyFixture struct {
	svc        *FamilyService
	onboarding *OnboardingService
	members    *repository.MemberRepository
}

func newFamilyFixture(t *testing.T) *familyFixture {
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
	focusAreas := repository.NewFocusAreaRepository(db)
	resources := repository.NewResourceRepository(db)

	return &familyFixture{
		svc:        NewFamilyService(db, families, members, focusAreas, resources, log),
		onboarding: NewOnboardingService(db, users, families, members, log),
		members:    members,
	}
}

// registerFamily registers a guardian and returns the new user and family IDs.
func (f *familyFixture) registerFamily(t *testing.T, email string) *RegistrationResult {
	t.Helper()
	result, err := f.onboarding.CompleteRegistration(createFamilySubmission(email))
	if err != nil {
		t.Fatalf("CompleteRegistration() error = %v", err)
	}
	return result
}

func TestGetFamily(t *testing.T) {
	f := newFamilyFixture(t)
	reg := f.registerFamily(t, "ann@example.com")

	family, err := f.svc.GetFamily(reg.UserID)
	if err != nil {
		t.Fatalf("GetFamily() error = %v", err)
	}
	if family.Family.ID != reg.FamilyID {
		t.Errorf("family ID = %d, want %d", family.Family.ID, reg.FamilyID)
	}
	if len(family.Members) != 3 {
		t.Errorf("members = %d, want 3", len(family.Members))
	}
}

func TestGetFamilyWithoutOnboarding(t *testing.T) {
	f := newFamilyFixture(t)

	if _, err := f.svc.GetFamily(999); !errors.Is(err, ErrNoFamily) {
		t.Errorf("error = %v, want ErrNoFamily", err)
	}
}

func TestMemberManagement(t *testing.T) {
	f := newFamilyFixture(t)
	reg := f.registerFamily(t, "ann@example.com")

	id, err := f.svc.AddMember(reg.UserID, &models.FamilyMember{
		Name:        "Grandma",
		Role:        models.RoleOtherRelative,
		DateOfBirth: strptr("1950-01-20"),
	})
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	added, _ := f.members.GetByID(id)
	if added == nil || added.FamilyID != reg.FamilyID || added.Claimed() {
		t.Errorf("added member = %+v, want headless member of family %d", added, reg.FamilyID)
	}

	if err := f.svc.UpdateMember(reg.UserID, &models.FamilyMember{
		ID:   id,
		Name: "Grandma Pat",
		Role: models.RoleOtherRelative,
	}); err != nil {
		t.Fatalf("UpdateMember() error = %v", err)
	}

	if err := f.svc.RemoveMember(reg.UserID, id); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}

	// The guardian's own record is claimed and cannot be removed.
	if err := f.svc.RemoveMember(reg.UserID, reg.FamilyMemberID); !errors.Is(err, ErrMemberClaimed) {
		t.Errorf("removing claimed member error = %v, want ErrMemberClaimed", err)
	}
}

func TestMemberScopingAcrossFamilies(t *testing.T) {
	f := newFamilyFixture(t)
	first := f.registerFamily(t, "ann@example.com")

	other := createFamilySubmission("zed@example.com")
	other.FamilyData.FamilyName = "The Others"
	second, err := f.onboarding.CompleteRegistration(other)
	if err != nil {
		t.Fatalf("second registration error = %v", err)
	}

	// The second guardian cannot edit the first family's members.
	err = f.svc.UpdateMember(second.UserID, &models.FamilyMember{
		ID:   first.FamilyMemberID,
		Name: "Hijacked",
		Role: models.RolePrimaryGuardian,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-family update error = %v, want ErrNotFound", err)
	}
}

func TestFocusAreaLifecycle(t *testing.T) {
	f := newFamilyFixture(t)
	reg := f.registerFamily(t, "ann@example.com")

	id, err := f.svc.CreateFocusArea(reg.UserID, &models.FocusArea{
		Title:    "Reading together",
		Category: models.CategoryEducational,
		Priority: 4,
	})
	if err != nil {
		t.Fatalf("CreateFocusArea() error = %v", err)
	}

	areas, err := f.svc.ListFocusAreas(reg.UserID)
	if err != nil || len(areas) != 1 {
		t.Fatalf("ListFocusAreas() = %v, %v", areas, err)
	}

	if err := f.svc.UpdateFocusArea(reg.UserID, &models.FocusArea{
		ID:       id,
		Title:    "Reading aloud",
		Category: models.CategoryEducational,
		Priority: 5,
	}); err != nil {
		t.Fatalf("UpdateFocusArea() error = %v", err)
	}

	if err := f.svc.DeleteFocusArea(reg.UserID, id); err != nil {
		t.Fatalf("DeleteFocusArea() error = %v", err)
	}

	// Member scope must stay inside the family.
	_, err = f.svc.CreateFocusArea(reg.UserID, &models.FocusArea{
		Title:    "Swimming",
		Category: models.CategoryPhysical,
		Priority: 3,
		MemberID: int64ptr(99999),
	})
	if err == nil {
		t.Error("expected error for member outside the family")
	}
}

func TestResourceLifecycle(t *testing.T) {
	f := newFamilyFixture(t)
	reg := f.registerFamily(t, "ann@example.com")

	id, err := f.svc.CreateResource(reg.UserID, &models.Resource{
		Name:        "Garden",
		Environment: models.EnvironmentOutdoor,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("CreateResource() error = %v", err)
	}

	if err := f.svc.UpdateResource(reg.UserID, &models.Resource{
		ID:          id,
		Name:        "Back garden",
		Environment: models.EnvironmentOutdoor,
		Active:      false,
	}); err != nil {
		t.Fatalf("UpdateResource() error = %v", err)
	}

	resources, err := f.svc.ListResources(reg.UserID)
	if err != nil || len(resources) != 1 {
		t.Fatalf("ListResources() = %v, %v", resources, err)
	}
	if resources[0].Active {
		t.Error("resource should be inactive after update")
	}

	if err := f.svc.DeleteResource(reg.UserID, id); err != nil {
		t.Fatalf("DeleteResource() error = %v", err)
	}
}

func int64ptr(v int64) *int64 { return &v }
