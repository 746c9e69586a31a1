package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auburnhacks/sponsor-portal/internal/auth"
	"github.com/auburnhacks/sponsor-portal/internal/cli/client"
	"github.com/auburnhacks/sponsor-portal/internal/cli/config"
	appconfig "github.com/auburnhacks/sponsor-portal/internal/config"
	"github.com/auburnhacks/sponsor-portal/internal/server"
	"github.com/auburnhacks/sponsor-portal/internal/session"
)

// startAuthAPI runs the real Auth API against a throwaway sqlite database
func startAuthAPI(t *testing.T) *client.Client {
	t.Helper()

	cfg := &appconfig.Config{
		Server: appconfig.ServerConfig{
			JWTSecret:      "integration-secret",
			BootstrapEmail: "root@auburnhacks.com",
			BootstrapPass:  "correct-horse",
		},
		Database: appconfig.DatabaseConfig{
			URL: filepath.Join(t.TempDir(), "sponsor.sqlite"),
		},
	}

	srv, err := server.New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		if sqlDB, err := srv.GetDB().DB(); err == nil {
			sqlDB.Close()
		}
	})

	return client.New(ts.URL)
}

func TestIntegration_AdminCreatesSponsorWhoLogsIn(t *testing.T) {
	t.Setenv("SPONSOR_EMAIL", "")
	t.Setenv("SPONSOR_PASSWORD", "")

	api := startAuthAPI(t)
	ctx := context.Background()
	srv := &config.Server{URL: "http://auth.test", Alias: "test"}

	var out bytes.Buffer
	adminStore := session.NewMemoryStore()
	adminOpts := []Option{WithServer(srv), WithStore(adminStore), WithAPI(api), WithOutput(&out)}

	require.NoError(t, runLogin(ctx, loginInput{Email: "root@auburnhacks.com", Password: "correct-horse", Admin: true}, adminOpts...))
	require.NoError(t, runValidate(ctx, adminOpts...))

	// the token the API minted is a real JWT this time
	out.Reset()
	require.NoError(t, runWhoami(true, adminOpts...))
	assert.Contains(t, out.String(), "iss:")
	assert.Contains(t, out.String(), auth.Issuer)

	require.NoError(t, runCompanyCreate(ctx, companyInput{Name: "Initech"}, adminOpts...))

	token, _, err := adminStore.Get(session.KeyToken)
	require.NoError(t, err)
	companies, err := api.ListCompanies(ctx, token)
	require.NoError(t, err)
	require.Len(t, companies, 1)

	require.NoError(t, runSponsorCreate(ctx, sponsorInput{
		Name:     "Peter",
		Email:    "peter@initech.com",
		Password: "tps-reports",
		Company:  companies[0].ID,
		ACL:      map[string]bool{auth.CapRead: true, auth.CapParticipants: true},
	}, adminOpts...))

	sponsorStore := session.NewMemoryStore()
	sponsorOpts := []Option{WithServer(srv), WithStore(sponsorStore), WithAPI(api), WithOutput(&out)}

	out.Reset()
	require.NoError(t, runLogin(ctx, loginInput{Email: "peter@initech.com", Password: "tps-reports"}, sponsorOpts...))
	assert.Contains(t, out.String(), "Company: Initech")

	require.NoError(t, runValidate(ctx, sponsorOpts...))

	out.Reset()
	require.NoError(t, runParticipantsList(ctx, sponsorOpts...))
	assert.Contains(t, out.String(), "No participants found")

	err = runCompanyCreate(ctx, companyInput{Name: "Chotchkie's"}, sponsorOpts...)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	require.NoError(t, runProfileUpdate(ctx, profileInput{Name: "Peter Gibbons"}, sponsorOpts...))

	// a second admin whose account is removed can no longer validate
	require.NoError(t, runAdminCreate(ctx, adminInput{Name: "Bill", Email: "bill@initech.com", Password: "yeah-if-you-could"}, adminOpts...))
	billStore := session.NewMemoryStore()
	billOpts := []Option{WithServer(srv), WithStore(billStore), WithAPI(api), WithOutput(&out)}
	require.NoError(t, runLogin(ctx, loginInput{Email: "bill@initech.com", Password: "yeah-if-you-could", Admin: true}, billOpts...))
	require.NoError(t, runValidate(ctx, billOpts...))

	billToken, _, err := billStore.Get(session.KeyToken)
	require.NoError(t, err)
	billClaims, err := auth.InspectToken(billToken)
	require.NoError(t, err)
	require.NoError(t, runAdminDelete(ctx, billClaims.Subject, adminOpts...))
	err = runValidate(ctx, billOpts...)
	assert.ErrorContains(t, err, "no longer accepts")

	require.NoError(t, runLogout(sponsorOpts...))
	err = runValidate(ctx, sponsorOpts...)
	assert.ErrorContains(t, err, "not authenticated")

	// a wrong password is rejected by the real API and leaves nothing behind
	err = runLogin(ctx, loginInput{Email: "peter@initech.com", Password: "wrong"}, sponsorOpts...)
	assert.ErrorIs(t, err, session.ErrAuth)
	_, ok, err := sponsorStore.Get(session.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}
