package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auburnhacks/sponsor-portal/internal/auth"
	"github.com/auburnhacks/sponsor-portal/internal/config"
	"github.com/auburnhacks/sponsor-portal/internal/models"
)

const (
	adminEmail    = "root@auburnhacks.com"
	adminPassword = "correct-horse"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, configure func(*config.Config)) *Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			JWTSecret:      "test-secret",
			CORSOrigins:    []string{"http://localhost:4200"},
			BootstrapEmail: adminEmail,
			BootstrapPass:  adminPassword,
		},
		Database: config.DatabaseConfig{
			URL: filepath.Join(t.TempDir(), "sponsor.sqlite"),
		},
		Participants: config.ParticipantsConfig{
			Schedule: "@every 15m",
			Timeout:  5 * time.Second,
		},
	}
	if configure != nil {
		configure(cfg)
	}

	srv, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := srv.GetDB().DB(); err == nil {
			sqlDB.Close()
		}
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func loginAsAdmin(t *testing.T, srv *Server) AdminLoginResponse {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/admin/login", "", obj{"email": adminEmail, "password": adminPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AdminLoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

type obj = map[string]any

func createCompanyAndSponsor(t *testing.T, srv *Server, adminToken, acl string) (string, string) {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/company", adminToken, obj{"name": "Initech"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var company struct {
		Company CompanyDetail `json:"company"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &company))

	rec = doJSON(t, srv, http.MethodPost, "/sponsor", adminToken, obj{
		"sponsor": obj{
			"name":     "Peter",
			"email":    "peter@initech.com",
			"password": "tps-reports",
			"ACL":      acl,
			"company":  obj{"id": company.Company.ID},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sponsor struct {
		Sponsor SponsorDetail `json:"sponsor"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sponsor))

	return company.Company.ID, sponsor.Sponsor.ID
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"online"`)
}

func TestAdminLogin(t *testing.T) {
	srv := newTestServer(t)

	t.Run("valid credentials", func(t *testing.T) {
		resp := loginAsAdmin(t, srv)
		require.NotNil(t, resp.Admin)
		assert.Equal(t, adminEmail, resp.Admin.Email)
		assert.True(t, auth.HasAccess(resp.Admin.ACL, auth.CapAdmin))

		claims, err := auth.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.Admin.ID, claims.Subject)
		assert.Equal(t, auth.RoleAdmin, claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/admin/login", "", obj{"email": adminEmail, "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error"`)
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/admin/login", "", obj{"email": "who@example.com", "password": adminPassword})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/admin/login", "", obj{"email": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBootstrapAdminRunsOnce(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, srv.bootstrapAdmin())

	var count int64
	require.NoError(t, srv.GetDB().Model(&models.Admin{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSponsorLifecycle(t *testing.T) {
	srv := newTestServer(t)
	admin := loginAsAdmin(t, srv)
	companyID, sponsorID := createCompanyAndSponsor(t, srv, admin.Token, "")

	rec := doJSON(t, srv, http.MethodPost, "/sponsor/login", "", obj{
		"email":               "peter@initech.com",
		"password_plain_text": "tps-reports",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login SponsorLoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, sponsorID, login.Sponsor.ID)
	assert.Equal(t, auth.DefaultSponsorACL, login.Sponsor.ACL)
	require.NotNil(t, login.Sponsor.Company)
	assert.Equal(t, companyID, login.Sponsor.Company.ID)
	assert.Equal(t, "Initech", login.Sponsor.Company.Name)

	t.Run("sponsor reads own info", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/sponsor/"+sponsorID+"/info", login.Token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin reads sponsor info", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/sponsor/"+sponsorID+"/info", admin.Token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("sponsor cannot read another sponsor", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/sponsor/someone-else/info", login.Token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("sponsor cannot look up admins", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/admin/"+admin.Admin.ID, login.Token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("sponsor cannot create companies", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/company", login.Token, obj{"name": "Chotchkie's"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("participants need the capability", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/participants", login.Token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("sponsor updates own profile", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPut, "/sponsor/"+sponsorID, login.Token, obj{"name": "Peter Gibbons", "password": "no-more-tps"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "Peter Gibbons")

		rec = doJSON(t, srv, http.MethodPost, "/sponsor/login", "", obj{
			"email":               "peter@initech.com",
			"password_plain_text": "no-more-tps",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin cannot update a sponsor profile", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPut, "/sponsor/"+sponsorID, admin.Token, obj{"name": "Bill"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestCreateSponsorValidation(t *testing.T) {
	srv := newTestServer(t)
	admin := loginAsAdmin(t, srv)
	companyID, _ := createCompanyAndSponsor(t, srv, admin.Token, "read")

	t.Run("duplicate email", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/sponsor", admin.Token, obj{
			"sponsor": obj{
				"name":     "Peter",
				"email":    "peter@initech.com",
				"password": "tps-reports",
				"company":  obj{"id": companyID},
			},
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown company", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/sponsor", admin.Token, obj{
			"sponsor": obj{
				"name":     "Michael",
				"email":    "michael@initech.com",
				"password": "tps-reports",
				"company":  obj{"id": "missing"},
			},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short password", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/sponsor", admin.Token, obj{
			"sponsor": obj{
				"name":     "Samir",
				"email":    "samir@initech.com",
				"password": "short",
				"company":  obj{"id": companyID},
			},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListParticipants(t *testing.T) {
	srv := newTestServer(t)
	admin := loginAsAdmin(t, srv)
	_, _ = createCompanyAndSponsor(t, srv, admin.Token, "read,participants")

	require.NoError(t, srv.GetDB().Create(&models.Participant{
		Name:   "Ada",
		Email:  "ada@auburn.edu",
		Resume: "https://resumes.example.com/ada.pdf",
	}).Error)

	rec := doJSON(t, srv, http.MethodPost, "/sponsor/login", "", obj{
		"email":               "peter@initech.com",
		"password_plain_text": "tps-reports",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login SponsorLoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	var resp struct {
		Participants []models.Participant `json:"participants"`
	}

	rec = doJSON(t, srv, http.MethodGet, "/participants", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Participants, 1)
	assert.Equal(t, "Ada", resp.Participants[0].Name)
	assert.Empty(t, resp.Participants[0].Resume)

	rec = doJSON(t, srv, http.MethodGet, "/participants", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://resumes.example.com/ada.pdf", resp.Participants[0].Resume)
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/companies", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	t.Run("token for deleted account", func(t *testing.T) {
		token, err := auth.GenerateToken("01HZZZZZZZZZZZZZZZZZZZZZZZ", auth.RoleSponsor, "read")
		require.NoError(t, err)
		rec := doJSON(t, srv, http.MethodGet, "/companies", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAdminProfileUpdate(t *testing.T) {
	srv := newTestServer(t)
	admin := loginAsAdmin(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/admin/"+admin.Admin.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, "/admin/"+admin.Admin.ID, admin.Token, obj{"name": "Bob Slydell"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Bob Slydell")

	rec = doJSON(t, srv, http.MethodPut, "/admin/someone-else", admin.Token, obj{"name": "Bob Porter"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/admin/missing", admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminManagement(t *testing.T) {
	srv := newTestServer(t)
	root := loginAsAdmin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/admin", root.Token, obj{
		"admin": obj{"name": "Bill Lumbergh", "email": "bill@initech.com", "password": "yeah-if-you-could"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Admin AdminDetail `json:"admin"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, auth.DefaultAdminACL, created.Admin.ACL)

	t.Run("duplicate email", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/admin", root.Token, obj{
			"admin": obj{"name": "Bill", "email": "bill@initech.com", "password": "yeah-if-you-could"},
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("short password", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/admin", root.Token, obj{
			"admin": obj{"name": "Dom", "email": "dom@initech.com", "password": "short"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("sponsors cannot manage admins", func(t *testing.T) {
		_, _ = createCompanyAndSponsor(t, srv, root.Token, "")
		rec := doJSON(t, srv, http.MethodPost, "/sponsor/login", "", obj{
			"email":               "peter@initech.com",
			"password_plain_text": "tps-reports",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var login SponsorLoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

		rec = doJSON(t, srv, http.MethodPost, "/admin", login.Token, obj{
			"admin": obj{"name": "Peter", "email": "p2@initech.com", "password": "tps-reports"},
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = doJSON(t, srv, http.MethodDelete, "/admin/"+created.Admin.ID, login.Token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	rec = doJSON(t, srv, http.MethodPost, "/admin/login", "", obj{"email": "bill@initech.com", "password": "yeah-if-you-could"})
	require.Equal(t, http.StatusOK, rec.Code)
	var bill AdminLoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bill))

	rec = doJSON(t, srv, http.MethodDelete, "/admin/"+bill.Admin.ID, bill.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "admins cannot delete themselves")

	rec = doJSON(t, srv, http.MethodDelete, "/admin/"+bill.Admin.ID, root.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the deleted admin's token no longer resolves
	rec = doJSON(t, srv, http.MethodGet, "/admin/"+bill.Admin.ID, bill.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/admin/"+bill.Admin.ID, root.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParticipantSync(t *testing.T) {
	export := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users":
			json.NewEncoder(w).Encode([]obj{{
				"id":           "u1",
				"email":        "ada@auburn.edu",
				"profile":      obj{"name": "Ada", "school": "Auburn University", "graduationYear": "2027"},
				"confirmation": obj{"major": "Computer Science"},
			}})
		case "/resumes":
			json.NewEncoder(w).Encode([]obj{{"userid": "u1", "url": "https://resumes.example.com/ada.pdf"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(export.Close)

	srv := newTestServerWith(t, func(cfg *config.Config) {
		cfg.Participants.SourceURL = export.URL + "/users"
		cfg.Participants.ResumesURL = export.URL + "/resumes"
	})
	admin := loginAsAdmin(t, srv)

	var resp struct {
		Participants []models.Participant `json:"participants"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/participants", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Participants)

	_, _ = createCompanyAndSponsor(t, srv, admin.Token, "read,participants")
	rec = doJSON(t, srv, http.MethodPost, "/sponsor/login", "", obj{
		"email":               "peter@initech.com",
		"password_plain_text": "tps-reports",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var sponsor SponsorLoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sponsor))

	rec = doJSON(t, srv, http.MethodPost, "/participants/sync", sponsor.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/participants/sync", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"participants": 1}`, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/participants", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Participants, 1)
	assert.Equal(t, "Ada", resp.Participants[0].Name)
	assert.Equal(t, 2027, resp.Participants[0].GradYear)
	assert.Equal(t, "https://resumes.example.com/ada.pdf", resp.Participants[0].Resume)

	rec = doJSON(t, srv, http.MethodGet, "/participants/sync", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"participants":1`)
}

func TestParticipantSyncNotConfigured(t *testing.T) {
	srv := newTestServer(t)
	admin := loginAsAdmin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/participants/sync", admin.Token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestParticipantSyncConfigValidation(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{JWTSecret: "test-secret"},
		Database: config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "sponsor.sqlite")},
		Participants: config.ParticipantsConfig{
			SourceURL: "mongodb://quill",
			Schedule:  "@every 15m",
		},
	}
	_, err := New(cfg, zerolog.Nop(), "test")
	assert.ErrorContains(t, err, "invalid participant export URL")

	cfg.Database.URL = filepath.Join(t.TempDir(), "sponsor.sqlite")
	cfg.Participants.SourceURL = "https://register.example/users"
	cfg.Participants.Schedule = "whenever"
	_, err = New(cfg, zerolog.Nop(), "test")
	assert.ErrorContains(t, err, "invalid sync schedule")
}
