// Package kyc is the client for the identity-verification HTTP API. It is a
// separate collaborator from the ledger: submissions and review decisions go
// through REST, while the resulting status lands on the patient profile.
package kyc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	AuthBearer = "bearer"
	AuthAPIKey = "apikey"
)

// Submission is the identity-verification application form. Card is the
// scanned identity card image.
type Submission struct {
	NIKHash    string
	FullName   string
	NIK        string
	Address    string
	Gender     string
	PlaceBirth string
	DateBirth  string
	Marital    string
	CardName   string
	Card       io.Reader
}

// Record is a stored verification application.
type Record struct {
	User       string    `json:"user"`
	NIK        string    `json:"nik"`
	NIKHash    string    `json:"nikHash"`
	FullName   string    `json:"fullName"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// StatusReply is the answer to a status poll.
type StatusReply struct {
	NIK    string `json:"nik"`
	Status string `json:"status"`
}

// Decision is a reviewer's verdict on an application.
type Decision struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

type Client struct {
	baseURL  string
	authMode string
	token    string
	apiKey   string
	http     *http.Client
	logger   zerolog.Logger
}

func NewClient(baseURL, authMode, token, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		authMode: authMode,
		token:    token,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger.With().Str("component", "kyc").Logger(),
	}
}

func (c *Client) authorize(req *http.Request) {
	switch c.authMode {
	case AuthAPIKey:
		req.Header.Set("X-Api-Key", c.apiKey)
	default:
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// Submit uploads a verification application as a multipart form.
func (c *Client) Submit(ctx context.Context, s Submission) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"nikHash":    s.NIKHash,
		"fullName":   s.FullName,
		"nik":        s.NIK,
		"address":    s.Address,
		"gender":     s.Gender,
		"placeBirth": s.PlaceBirth,
		"dateBirth":  s.DateBirth,
		"marital":    s.Marital,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("kyc submit: write field %s: %w", name, err)
		}
	}
	if s.Card != nil {
		part, err := mw.CreateFormFile("card", s.CardName)
		if err != nil {
			return fmt.Errorf("kyc submit: create card part: %w", err)
		}
		if _, err := io.Copy(part, s.Card); err != nil {
			return fmt.Errorf("kyc submit: copy card: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("kyc submit: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/kyc", &buf)
	if err != nil {
		return fmt.Errorf("kyc submit: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("kyc submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("kyc submit: unexpected status %d", resp.StatusCode)
	}
	c.logger.Info().Str("nik_hash", s.NIKHash).Msg("kyc submission accepted")
	return nil
}

// Status polls the verification status for a NIK.
func (c *Client) Status(ctx context.Context, nik string) (*StatusReply, error) {
	var out StatusReply
	if err := c.getJSON(ctx, "/kyc/status/"+nik, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches the full application for a user.
func (c *Client) Get(ctx context.Context, user string) (*Record, error) {
	var out Record
	if err := c.getJSON(ctx, "/kyc/"+user, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Review records a verification decision for a user's application.
func (c *Client) Review(ctx context.Context, user string, d Decision) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("kyc review: encode decision: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/kyc/"+user, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("kyc review: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("kyc review: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kyc review: unexpected status %d", resp.StatusCode)
	}
	c.logger.Info().Str("user", user).Bool("verified", d.Verified).Msg("kyc decision recorded")
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("kyc GET %s: build request: %w", path, err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("kyc GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kyc GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("kyc GET %s: decode: %w", path, err)
	}
	return nil
}
