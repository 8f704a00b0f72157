package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"familyplan/internal/generation"
	"familyplan/internal/models"
	"familyplan/internal/repository"
	"familyplan/internal/validation"
)

// ActivityService builds generation requests from the family graph, calls the
// generation gateway and manages saved favorites.
type ActivityService struct {
	family     *FamilyService
	members    *repository.MemberRepository
	focusAreas *repository.FocusAreaRepository
	resources  *repository.ResourceRepository
	favorites  *repository.FavoriteRepository
	client     *generation.Client
	log        *logrus.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(family *FamilyService, members *repository.MemberRepository, focusAreas *repository.FocusAreaRepository, resources *repository.ResourceRepository, favorites *repository.FavoriteRepository, client *generation.Client, log *logrus.Logger) *ActivityService {
	return &ActivityService{
		family:     family,
		members:    members,
		focusAreas: focusAreas,
		resources:  resources,
		favorites:  favorites,
		client:     client,
		log:        log,
	}
}

// Generate asks the generation service for activity suggestions tailored to
// the caller's family. The prompt context carries every member, the family's
// focus areas, its active resources and previously saved titles so repeats
// are avoided.
func (s *ActivityService) Generate(ctx context.Context, userID int64, environment models.Environment) ([]models.Activity, error) {
	if err := validation.ValidateEnvironment(environment); err != nil {
		return nil, err
	}

	member, err := s.family.MemberForUser(userID)
	if err != nil {
		return nil, err
	}
	familyID := member.FamilyID

	members, err := s.members.ListByFamily(familyID)
	if err != nil {
		return nil, err
	}
	focusAreas, err := s.focusAreas.ListByFamily(familyID)
	if err != nil {
		return nil, err
	}
	resources, err := s.resources.ListByFamily(familyID, true)
	if err != nil {
		return nil, err
	}
	previousTitles, err := s.favorites.ListTitlesByFamily(familyID)
	if err != nil {
		return nil, err
	}

	req := generation.Request{
		Environment:    string(environment),
		PreviousTitles: previousTitles,
	}
	for _, m := range members {
		req.Members = append(req.Members, generation.MemberContext{
			Name:        m.Name,
			Role:        string(m.Role),
			DateOfBirth: m.DateOfBirth,
		})
	}
	for _, f := range focusAreas {
		req.FocusAreas = append(req.FocusAreas, generation.FocusAreaContext{
			Title:    f.Title,
			Category: string(f.Category),
			Priority: f.Priority,
		})
	}
	for _, r := range resources {
		if r.Environment == environment {
			req.Resources = append(req.Resources, r.Name)
		}
	}

	activities, err := s.client.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"family_id":   familyID,
		"environment": environment,
		"count":       len(activities),
	}).Info("activities generated")

	return activities, nil
}

// SaveFavorite keeps a generated activity.
func (s *ActivityService) SaveFavorite(userID int64, activity models.Activity) (int64, error) {
	member, err := s.family.MemberForUser(userID)
	if err != nil {
		return 0, err
	}
	if err := validation.ValidateName("title", activity.Title); err != nil {
		return 0, err
	}

	return s.favorites.Create(&models.FavoriteActivity{
		FamilyID: member.FamilyID,
		UserID:   userID,
		Activity: activity,
	})
}

// ListFavorites retrieves the caller's family favorites, newest first.
func (s *ActivityService) ListFavorites(userID int64) ([]models.FavoriteActivity, error) {
	member, err := s.family.MemberForUser(userID)
	if err != nil {
		return nil, err
	}
	return s.favorites.ListByFamily(member.FamilyID)
}

// DeleteFavorite removes a favorite from the caller's family.
func (s *ActivityService) DeleteFavorite(userID, favoriteID int64) error {
	member, err := s.family.MemberForUser(userID)
	if err != nil {
		return err
	}
	return s.favorites.Delete(favoriteID, member.FamilyID)
}
