package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/auburnhacks/sponsor-portal/internal/session"
)

// Participant represents a hackathon attendee
type Participant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	University string `json:"university"`
	Major      string `json:"major"`
	GradYear   int    `json:"grad_year"`
	Github     string `json:"github"`
	Linkedin   string `json:"linkedin"`
	Resume     string `json:"resume"`
}

// ListParticipants returns every participant visible to token
func (c *Client) ListParticipants(ctx context.Context, token string) ([]Participant, error) {
	var resp struct {
		Participants []Participant `json:"participants"`
	}
	if err := c.do(ctx, http.MethodGet, "/participants", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Participants, nil
}

// SyncParticipants asks the Auth API to re-import participants now and
// returns how many it holds afterwards
func (c *Client) SyncParticipants(ctx context.Context, token string) (int, error) {
	var resp struct {
		Participants int `json:"participants"`
	}
	if err := c.do(ctx, http.MethodPost, "/participants/sync", token, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Participants, nil
}

// ListCompanies returns every company
func (c *Client) ListCompanies(ctx context.Context, token string) ([]session.Company, error) {
	var resp struct {
		Companies []session.Company `json:"companies"`
	}
	if err := c.do(ctx, http.MethodGet, "/companies", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Companies, nil
}

// CreateCompany creates a company
func (c *Client) CreateCompany(ctx context.Context, token, name, logo string) (*session.Company, error) {
	var resp struct {
		Company session.Company `json:"company"`
	}
	body := map[string]string{"name": name}
	if logo != "" {
		body["logo"] = logo
	}
	if err := c.do(ctx, http.MethodPost, "/company", token, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Company, nil
}

// NewSponsor is the account an admin creates for a company representative
type NewSponsor struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	ACL       string `json:"ACL"`
	CompanyID string `json:"-" validate:"required"`
}

// CreateSponsor creates a sponsor account
func (c *Client) CreateSponsor(ctx context.Context, token string, sp NewSponsor) (*session.Identity, error) {
	type companyRef struct {
		ID string `json:"id"`
	}
	body := map[string]any{
		"sponsor": struct {
			NewSponsor
			Company companyRef `json:"company"`
		}{sp, companyRef{ID: sp.CompanyID}},
	}

	var resp struct {
		Sponsor session.Identity `json:"sponsor"`
	}
	if err := c.do(ctx, http.MethodPost, "/sponsor", token, body, &resp); err != nil {
		return nil, err
	}
	resp.Sponsor.Role = session.RoleSponsor
	return &resp.Sponsor, nil
}

// NewAdmin is an admin account created by another admin
type NewAdmin struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	ACL      string `json:"ACL"`
}

// CreateAdmin creates an admin account
func (c *Client) CreateAdmin(ctx context.Context, token string, a NewAdmin) (*session.Identity, error) {
	var resp struct {
		Admin session.Identity `json:"admin"`
	}
	if err := c.do(ctx, http.MethodPost, "/admin", token, map[string]any{"admin": a}, &resp); err != nil {
		return nil, err
	}
	resp.Admin.Role = session.RoleAdmin
	return &resp.Admin, nil
}

// DeleteAdmin removes admin id. Sessions it holds stop validating.
func (c *Client) DeleteAdmin(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/"+url.PathEscape(id), token, nil, nil)
}

// ProfileUpdate changes the caller's own name or password. Empty fields
// are left unchanged.
type ProfileUpdate struct {
	Name     string `json:"name,omitempty" validate:"omitempty,max=120"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// UpdateAdmin updates the profile of admin id
func (c *Client) UpdateAdmin(ctx context.Context, token, id string, update ProfileUpdate) (*session.Identity, error) {
	var resp struct {
		Admin session.Identity `json:"admin"`
	}
	if err := c.do(ctx, http.MethodPut, "/admin/"+url.PathEscape(id), token, update, &resp); err != nil {
		return nil, err
	}
	resp.Admin.Role = session.RoleAdmin
	return &resp.Admin, nil
}

// UpdateSponsor updates the profile of sponsor id
func (c *Client) UpdateSponsor(ctx context.Context, token, id string, update ProfileUpdate) (*session.Identity, error) {
	var resp struct {
		Sponsor session.Identity `json:"sponsor"`
	}
	if err := c.do(ctx, http.MethodPut, "/sponsor/"+url.PathEscape(id), token, update, &resp); err != nil {
		return nil, err
	}
	resp.Sponsor.Role = session.RoleSponsor
	return &resp.Sponsor, nil
}
