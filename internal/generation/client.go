// Package generation is the HTTP client for the external activity generation
// service. The service wraps a language model; from here it is an opaque JSON
// API authenticated with a short-lived HS256 bearer token.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"familyplan/internal/models"
)

// ErrUnavailable is returned when the generation service cannot be reached or
// answers with a server error.
var ErrUnavailable = errors.New("generation service unavailable")

const tokenTTL = 2 * time.Minute

// MemberContext describes one family member for the generation prompt.
type MemberContext struct {
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
}

// FocusAreaContext describes one focus area for the generation prompt.
type FocusAreaContext struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Priority int    `json:"priority"`
}

// Request is the payload sent to the generation service.
type Request struct {
	Environment    string             `json:"environment"`
	Members        []MemberContext    `json:"members"`
	FocusAreas     []FocusAreaContext `json:"focusAreas"`
	Resources      []string           `json:"resources"`
	PreviousTitles []string           `json:"previousTitles"`
}

type response struct {
	Activities []models.Activity `json:"activities"`
}

// Client calls the generation service.
type Client struct {
	baseURL    string
	secret     []byte
	httpClient *http.Client
}

// NewClient creates a generation client. The secret signs the bearer token
// and must match the one the generation service verifies with.
func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		secret:     []byte(secret),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate requests activity suggestions for the given family context.
func (c *Client) Generate(ctx context.Context, genReq Request) ([]models.Activity, error) {
	body, err := json.Marshal(genReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/activities", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.mintToken()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Bounded read; error bodies should be small.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, detail)
		}
		return nil, fmt.Errorf("generation request rejected: status %d: %s", resp.StatusCode, detail)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}
	return parsed.Activities, nil
}

// mintToken signs a short-lived HS256 token identifying this backend.
func (c *Client) mintToken() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "familyplan-backend",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign gateway token: %w", err)
	}
	return signed, nil
}
