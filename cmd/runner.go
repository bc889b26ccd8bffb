package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/melodymix/melodyctl/internal/guard"
	"github.com/melodymix/melodyctl/internal/notify"
	"github.com/melodymix/melodyctl/internal/repositories"
	"github.com/melodymix/melodyctl/internal/session"
	"github.com/melodymix/melodyctl/internal/shared"
	"github.com/melodymix/melodyctl/internal/stores"
	"github.com/urfave/cli/v3"

	apipkg "github.com/melodymix/melodyctl/internal/api"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	logger    *log.Logger
	output    io.Writer
	db        *sql.DB
	creds     *repositories.CredentialRepository
	api       *apipkg.Client
	session   *session.Manager
	playlists *stores.PlaylistStore
	likes     *stores.LikedSongs
	player    *stores.Player
	routes    *guard.Table
	nav       session.Navigator
	notifier  notify.Notifier
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	Logger      *log.Logger
	Output      io.Writer
	DB          *sql.DB
	Credentials *repositories.CredentialRepository
	API         *apipkg.Client
	Session     *session.Manager
	Playlists   *stores.PlaylistStore
	Likes       *stores.LikedSongs
	Player      *stores.Player
	Routes      *guard.Table
	Navigator   session.Navigator
	Notifier    notify.Notifier
}

// NewRunner creates a new Runner with the provided dependencies.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Routes == nil {
		opts.Routes = guard.NewTable(guard.DefaultRoutes())
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewLogNotifier(opts.Logger)
	}

	return &Runner{
		config:    opts.Config,
		logger:    opts.Logger,
		output:    opts.Output,
		db:        opts.DB,
		creds:     opts.Credentials,
		api:       opts.API,
		session:   opts.Session,
		playlists: opts.Playlists,
		likes:     opts.Likes,
		player:    opts.Player,
		routes:    opts.Routes,
		nav:       opts.Navigator,
		notifier:  opts.Notifier,
	}
}

// SetLogger swaps the Runner's logger, used when redirecting logs to a file.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, profileCommand, playlistsCommand, likesCommand, playCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// authorize resolves path against the route table and applies the guard.
// Denials emit the guard's notice and record the redirect before failing.
func (r *Runner) authorize(path string) error {
	route, ok := r.routes.Find(path)
	if !ok {
		return fmt.Errorf("%w: unknown route %s", shared.ErrInvalidArgument, path)
	}

	decision := guard.Evaluate(route, r.session)
	if decision.Allow {
		return nil
	}

	if decision.Notice != "" {
		switch decision.Severity {
		case notify.SeverityWarning:
			r.notifier.Warning(decision.Notice)
		default:
			r.notifier.Error(decision.Notice)
		}
	}
	if r.nav != nil {
		r.nav.Navigate(decision.RedirectTo)
	}

	return fmt.Errorf("%w: access to %s denied", shared.ErrForbidden, path)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
