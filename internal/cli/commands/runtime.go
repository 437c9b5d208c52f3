package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/coldread-dev/coldread/internal/cli/client"
	"github.com/coldread-dev/coldread/internal/cli/config"
	"github.com/coldread-dev/coldread/internal/cli/contextselect"
	"github.com/coldread-dev/coldread/internal/cli/credstore"
	"github.com/coldread-dev/coldread/internal/cli/session"
)

// globalFlags are bound to the root command's persistent flags
type globalFlags struct {
	context string
	verbose bool
}

var globals globalFlags

var version = "dev"

// SetVersion records the build version for the User-Agent header
func SetVersion(v string) {
	version = v
}

// BindGlobalFlags registers the flags every command shares
func BindGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVar(&globals.context, "context", "", "Execution context: web or extension (or set COLDREAD_CONTEXT)")
	fs.BoolVarP(&globals.verbose, "verbose", "v", false, "Print diagnostic logs to stderr")
}

// runtime holds everything a command needs for one invocation
type runtime struct {
	cfg         *config.Config
	contextName contextselect.Name
	store       credstore.Store
	api         session.API
	manager     *session.Manager
	out         io.Writer
	log         zerolog.Logger
}

// Option overrides a runtime dependency, mainly for tests
type Option func(*runtime)

// WithAPIClient injects the backend client
func WithAPIClient(api session.API) Option {
	return func(r *runtime) {
		r.api = api
	}
}

// WithTokenStore injects the credential store
func WithTokenStore(store credstore.Store) Option {
	return func(r *runtime) {
		r.store = store
	}
}

// WithContext pins the execution context
func WithContext(name contextselect.Name) Option {
	return func(r *runtime) {
		r.contextName = name
	}
}

// WithConfig injects the project configuration
func WithConfig(cfg *config.Config) Option {
	return func(r *runtime) {
		r.cfg = cfg
	}
}

// WithOutput redirects human-readable output
func WithOutput(w io.Writer) Option {
	return func(r *runtime) {
		r.out = w
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}).Level(level).With().Timestamp().Logger()
}

// newRuntime resolves config, context, store and client, applying opts on top
func newRuntime(opts ...Option) (*runtime, error) {
	r := &runtime{
		out: os.Stdout,
		log: newLogger(globals.verbose),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.cfg == nil {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		r.cfg = cfg
	}

	if r.contextName == "" {
		name, err := contextselect.Resolve(globals.context)
		if err != nil {
			return nil, err
		}
		r.contextName = name
	}

	if r.store == nil {
		store, err := contextselect.OpenStore(r.contextName, r.log)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s credential store: %w", r.contextName, err)
		}
		r.store = store
	}

	if r.api == nil {
		api := client.New(r.cfg.APIURL, r.store)
		api.SetUserAgent(fmt.Sprintf("coldread-cli/%s (%s)", version, r.contextName))
		r.api = api
	}

	r.manager = session.NewManager(r.api, r.store, session.WithLogger(
		r.log.With().Str("context", string(r.contextName)).Logger(),
	))
	return r, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (r *runtime) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// userError converts an API failure into the message a user should see
func userError(action string, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) || client.IsTransport(err) {
		return fmt.Errorf("%s failed: %s", action, client.DisplayMessage(err))
	}
	return fmt.Errorf("%s failed: %w", action, err)
}
