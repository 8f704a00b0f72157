package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateSendsSignedRequest(t *testing.T) {
	secret := "test-secret"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/activities" {
			t.Errorf("path = %s, want /v1/activities", r.URL.Path)
		}

		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			t.Fatalf("missing bearer token, got %q", auth)
		}
		raw := strings.TrimPrefix(auth, "Bearer ")
		token, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			t.Fatalf("bearer token did not verify: %v", err)
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Environment != "indoor" {
			t.Errorf("environment = %q, want indoor", req.Environment)
		}
		if len(req.Members) != 2 {
			t.Errorf("members = %d, want 2", len(req.Members))
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"activities": []map[string]interface{}{
				{
					"title":              "Build a blanket fort",
					"description":        "Turn the living room into a castle",
					"instructions":       "Gather blankets and chairs",
					"environment":        "indoor",
					"required_resources": []string{"blankets"},
					"focus_areas":        []string{"creative"},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, secret, 5*time.Second)
	activities, err := client.Generate(context.Background(), Request{
		Environment: "indoor",
		Members: []MemberContext{
			{Name: "Ann", Role: "primary_guardian"},
			{Name: "Bo", Role: "child"},
		},
		PreviousTitles: []string{"Backyard scavenger hunt"},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("got %d activities, want 1", len(activities))
	}
	if activities[0].Title != "Build a blanket fort" {
		t.Errorf("title = %q", activities[0].Title)
	}
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", 5*time.Second)
	_, err := client.Generate(context.Background(), Request{Environment: "outdoor"})
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "generation service unavailable") {
		t.Errorf("error = %v, want unavailable sentinel", err)
	}
}

func TestGenerateRejectedRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", 5*time.Second)
	_, err := client.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if strings.Contains(err.Error(), "unavailable") {
		t.Errorf("client errors should not map to unavailable, got %v", err)
	}
}
