package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/auburnhacks/sponsor-portal/internal/auth"
	cliauth "github.com/auburnhacks/sponsor-portal/internal/cli/auth"
	"github.com/auburnhacks/sponsor-portal/internal/cli/client"
	"github.com/auburnhacks/sponsor-portal/internal/cli/config"
	"github.com/auburnhacks/sponsor-portal/internal/cli/serverselect"
	appconfig "github.com/auburnhacks/sponsor-portal/internal/config"
	"github.com/auburnhacks/sponsor-portal/internal/logger"
	"github.com/auburnhacks/sponsor-portal/internal/session"
)

// API is the part of the Auth API the commands use
type API interface {
	session.AuthAPI
	ListParticipants(ctx context.Context, token string) ([]client.Participant, error)
	SyncParticipants(ctx context.Context, token string) (int, error)
	ListCompanies(ctx context.Context, token string) ([]session.Company, error)
	CreateCompany(ctx context.Context, token, name, logo string) (*session.Company, error)
	CreateSponsor(ctx context.Context, token string, sp client.NewSponsor) (*session.Identity, error)
	CreateAdmin(ctx context.Context, token string, a client.NewAdmin) (*session.Identity, error)
	DeleteAdmin(ctx context.Context, token, id string) error
	UpdateAdmin(ctx context.Context, token, id string, update client.ProfileUpdate) (*session.Identity, error)
	UpdateSponsor(ctx context.Context, token, id string, update client.ProfileUpdate) (*session.Identity, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// options carries everything a command needs. Tests inject the pieces,
// production resolves them from configuration.
type options struct {
	server       *config.Server
	serverAlias  string
	store        session.Store
	api          API
	out          io.Writer
	clock        func() time.Time
	timeout      time.Duration
	readPassword func(prompt string) (string, error)
	openBrowser  func(url string) error
}

// Option configures a command run
type Option func(*options)

// WithServer skips server resolution
func WithServer(server *config.Server) Option {
	return func(o *options) { o.server = server }
}

// WithServerAlias selects a server from sponsor.yaml by alias
func WithServerAlias(alias string) Option {
	return func(o *options) { o.serverAlias = alias }
}

// WithStore sets the session store
func WithStore(store session.Store) Option {
	return func(o *options) { o.store = store }
}

// WithAPI sets the Auth API client
func WithAPI(api API) Option {
	return func(o *options) { o.api = api }
}

// WithOutput redirects command output
func WithOutput(out io.Writer) Option {
	return func(o *options) { o.out = out }
}

// WithClock replaces time.Now for session expiry
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithPasswordReader replaces the terminal password prompt
func WithPasswordReader(read func(prompt string) (string, error)) Option {
	return func(o *options) { o.readPassword = read }
}

// WithBrowser replaces the function that opens URLs
func WithBrowser(open func(url string) error) Option {
	return func(o *options) { o.openBrowser = open }
}

func newOptions(opts []Option) *options {
	o := &options{
		out:          os.Stdout,
		clock:        time.Now,
		readPassword: terminalPassword,
		openBrowser:  openBrowser,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// resolve fills in whatever was not injected from the environment,
// sponsor.yaml and the user's selected server
func (o *options) resolve() error {
	if o.server != nil && o.store != nil && o.api != nil {
		return nil
	}

	cfg, err := appconfig.Load()
	if err != nil {
		return err
	}
	if o.timeout == 0 {
		o.timeout = cfg.Client.Timeout
	}

	if o.server == nil {
		if cfg.Client.APIURL != "" {
			o.server = &config.Server{URL: cfg.Client.APIURL, Alias: "env"}
		} else {
			o.server, err = getSelectedServer(o.serverAlias)
			if err != nil {
				return err
			}
		}
	}
	if err := o.server.Validate(); err != nil {
		return err
	}

	if o.store == nil {
		o.store, err = cliauth.NewStore(cfg.Client.SessionStore, o.server.Key())
		if err != nil {
			return err
		}
	}

	if o.api == nil {
		o.api = client.New(o.server.URL,
			client.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
			client.WithLogger(logger.Component("client")),
		)
	}

	return nil
}

// manager resolves the environment and restores the persisted session
func (o *options) manager() (*session.Manager, error) {
	if err := o.resolve(); err != nil {
		return nil, err
	}

	m, err := session.Restore(o.store, o.api,
		session.WithClock(o.clock),
		session.WithTimeout(o.timeout),
		session.WithLogger(logger.Component("session")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return m, nil
}

// authenticated returns the current identity and token or explains why
// there is none
func authenticated(m *session.Manager) (session.Identity, string, error) {
	token, ok := m.Token()
	if !ok {
		if m.State() == session.StateExpired {
			return session.Identity{}, "", fmt.Errorf("session expired. Please run 'sponsor login' again")
		}
		return session.Identity{}, "", fmt.Errorf("not authenticated. Please run 'sponsor login' first")
	}
	id, ok := m.CurrentUser()
	if !ok {
		return session.Identity{}, "", fmt.Errorf("not authenticated. Please run 'sponsor login' first")
	}
	return id, token, nil
}

// requireCapability fails unless id may use capability. Admins may do
// everything.
func requireCapability(id session.Identity, capability string) error {
	if id.Role == session.RoleAdmin || id.Can(capability) {
		return nil
	}
	return fmt.Errorf("%w: your account lacks the %q capability", auth.ErrUnauthorized, capability)
}

func requireAdmin(id session.Identity) error {
	if id.Role != session.RoleAdmin {
		return fmt.Errorf("%w: admin account required", auth.ErrUnauthorized)
	}
	return nil
}

// describeError turns session and client errors into something to print
func describeError(action string, err error) error {
	switch {
	case errors.Is(err, session.ErrNetworkTimeout):
		return fmt.Errorf("%s: the Auth API did not answer in time: %w", action, err)
	case errors.Is(err, session.ErrNetwork):
		return fmt.Errorf("%s: could not reach the Auth API: %w", action, err)
	case client.IsStatus(err, http.StatusUnauthorized):
		return fmt.Errorf("%s: the Auth API rejected the session, run 'sponsor login' again: %w", action, err)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}

// getSelectedServer loads sponsor.yaml and returns the selected server
func getSelectedServer(alias string) (*config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'sponsor init <api-url>' to create a configuration file", err)
	}

	return serverselect.ResolveServer(cfg, alias)
}

func serverAliasFlag(cmd *cobra.Command) string {
	alias, _ := cmd.Flags().GetString("server")
	return alias
}

func terminalPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password is required in non-interactive mode")
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
