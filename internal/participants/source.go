// Package participants keeps the participant table in step with the
// hackathon registration system. Registrations and resume links are pulled
// from two JSON exports and replace the table wholesale on every run.
package participants

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/auburnhacks/sponsor-portal/internal/models"
)

// registration is one user record from the registration export
type registration struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Profile struct {
		Name           string `json:"name"`
		School         string `json:"school"`
		GraduationYear string `json:"graduationYear"`
	} `json:"profile"`
	Confirmation struct {
		Github  string `json:"github"`
		Twitter string `json:"twitter"`
		Major   string `json:"major"`
	} `json:"confirmation"`
}

// resume links an uploaded resume to a registration id
type resume struct {
	UserID string `json:"userid"`
	URL    string `json:"url"`
}

// HTTPSource reads the registration and resume exports over HTTP
type HTTPSource struct {
	RegistrationsURL string
	ResumesURL       string // optional
	Client           *http.Client
	Logger           zerolog.Logger
}

// NewHTTPSource creates a source with a bounded HTTP client
func NewHTTPSource(registrationsURL, resumesURL string, timeout time.Duration, log zerolog.Logger) *HTTPSource {
	return &HTTPSource{
		RegistrationsURL: registrationsURL,
		ResumesURL:       resumesURL,
		Client:           &http.Client{Timeout: timeout},
		Logger:           log,
	}
}

// Fetch returns the participants described by the exports. Registrations
// without a name or email are incomplete and left out.
func (s *HTTPSource) Fetch(ctx context.Context) ([]models.Participant, error) {
	var regs []registration
	if err := s.get(ctx, s.RegistrationsURL, &regs); err != nil {
		return nil, fmt.Errorf("failed to fetch registrations: %w", err)
	}

	resumes := map[string]string{}
	if s.ResumesURL != "" {
		var list []resume
		if err := s.get(ctx, s.ResumesURL, &list); err != nil {
			return nil, fmt.Errorf("failed to fetch resumes: %w", err)
		}
		for _, r := range list {
			if r.UserID != "" && r.URL != "" {
				resumes[r.UserID] = r.URL
			}
		}
	}

	seen := map[string]bool{}
	var out []models.Participant
	for _, r := range regs {
		email := strings.ToLower(strings.TrimSpace(r.Email))
		name := strings.TrimSpace(r.Profile.Name)
		if email == "" || name == "" || seen[email] {
			continue
		}
		seen[email] = true

		gradYear := 0
		if raw := strings.TrimSpace(r.Profile.GraduationYear); raw != "" {
			year, err := strconv.Atoi(raw)
			if err != nil {
				s.Logger.Warn().Str("email", email).Str("graduation_year", raw).Msg("Ignoring unparseable graduation year")
			} else {
				gradYear = year
			}
		}

		out = append(out, models.Participant{
			Name:       name,
			Email:      email,
			University: r.Profile.School,
			Major:      r.Confirmation.Major,
			GradYear:   gradYear,
			Github:     r.Confirmation.Github,
			Linkedin:   r.Confirmation.Twitter,
			Resume:     resumes[r.ID],
		})
	}

	return out, nil
}

func (s *HTTPSource) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", ulid.Make().String())

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}
