package models

import "time"

// Activity is one suggestion returned by the generation service.
type Activity struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Instructions      string   `json:"instructions"`
	Environment       string   `json:"environment"`
	RequiredResources []string `json:"required_resources"`
	FocusAreas        []string `json:"focus_areas"`
}

// FavoriteActivity is a generated activity a user chose to keep.
type FavoriteActivity struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	UserID    int64     `json:"user_id"`
	Activity  Activity  `json:"activity"`
	CreatedAt time.Time `json:"created_at"`
}
