package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/guardforce-backend/pkg/logger"
)

// DefaultDir is where new migrations are created on disk.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Source returns the migration set to run. An empty dir selects the set
// compiled into the binary.
func Source(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embedded, "migrations")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations dir: %w", err)
	}
	return os.DirFS(dir), nil
}

// Commands understood by Runner.Apply.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandRedo    = "redo"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// Runner applies goose migrations and logs one entry per version touched.
type Runner struct {
	provider *goose.Provider
	logg     *logger.Logger
}

// RunnerOptions overrides defaults. Dialect defaults to postgres.
type RunnerOptions struct {
	Dialect goose.Dialect
	Logger  *logger.Logger
}

func NewRunner(db *sql.DB, fsys fs.FS, opts RunnerOptions) (*Runner, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if fsys == nil {
		return nil, errors.New("migration source is required")
	}
	dialect := opts.Dialect
	if dialect == "" {
		dialect = goose.DialectPostgres
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider, logg: opts.Logger}, nil
}

// Apply runs command. target is only read by CommandVersion.
func (r *Runner) Apply(ctx context.Context, command, target string) error {
	switch command {
	case CommandUp:
		results, err := r.provider.Up(ctx)
		r.logResults(ctx, results...)
		return wrap(command, err)
	case CommandDown:
		result, err := r.provider.Down(ctx)
		r.logResults(ctx, result)
		return wrap(command, err)
	case CommandRedo:
		down, err := r.provider.Down(ctx)
		r.logResults(ctx, down)
		if err != nil {
			return wrap(command, err)
		}
		up, err := r.provider.UpByOne(ctx)
		r.logResults(ctx, up)
		return wrap(command, err)
	case CommandStatus:
		return r.logStatus(ctx)
	case CommandVersion:
		return r.migrateTo(ctx, target)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

// migrateTo moves the schema up or down until the database reports target.
func (r *Runner) migrateTo(ctx context.Context, target string) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	var results []*goose.MigrationResult
	switch {
	case current == version:
		return nil
	case current < version:
		results, err = r.provider.UpTo(ctx, version)
	default:
		results, err = r.provider.DownTo(ctx, version)
	}
	r.logResults(ctx, results...)
	return wrap(fmt.Sprintf("migrate to %d", version), err)
}

// Version reports the current schema version.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	return r.provider.GetDBVersion(ctx)
}

func (r *Runner) logResults(ctx context.Context, results ...*goose.MigrationResult) {
	if r.logg == nil {
		return
	}
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		entry := r.logg.WithFields(ctx, map[string]any{
			"version":     res.Source.Version,
			"direction":   res.Direction,
			"duration_ms": res.Duration.Milliseconds(),
		})
		if res.Error != nil {
			r.logg.Error(entry, "migration failed", res.Error)
			continue
		}
		r.logg.Info(entry, "migration applied")
	}
}

func (r *Runner) logStatus(ctx context.Context) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return wrap(CommandStatus, err)
	}
	if r.logg == nil {
		return nil
	}
	for _, st := range statuses {
		fields := map[string]any{
			"version": st.Source.Version,
			"state":   string(st.State),
		}
		if !st.AppliedAt.IsZero() {
			fields["applied_at"] = st.AppliedAt
		}
		r.logg.Info(r.logg.WithFields(ctx, fields), "migration status")
	}
	return nil
}

func wrap(op string, err error) error {
	if err == nil || errors.Is(err, goose.ErrNoNextVersion) {
		return nil
	}
	return fmt.Errorf("goose %s: %w", op, err)
}
