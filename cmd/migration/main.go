package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/riskibarqy/futboss/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/futboss/internal/platform/logging"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2

	seedTimeout = 30 * time.Second
)

var errUsage = errors.New("usage")

var defaultMigrationDirs = []string{"./db/migrations", "/app/db/migrations"}

// runner carries what a subcommand needs. migrator is nil for commands that
// talk to the database directly.
type runner struct {
	dbURL    string
	migrator *migrate.Migrate
	logger   *logging.Logger
	out      io.Writer
}

type command struct {
	usage       string
	needsSchema bool
	run         func(r *runner, args []string) error
}

var commands = map[string]command{
	"up":      {usage: "up", needsSchema: true, run: (*runner).up},
	"down":    {usage: "down [steps=1]", needsSchema: true, run: (*runner).down},
	"goto":    {usage: "goto <version>", needsSchema: true, run: (*runner).gotoVersion},
	"force":   {usage: "force <version>", needsSchema: true, run: (*runner).force},
	"version": {usage: "version", needsSchema: true, run: (*runner).version},
	"seed":    {usage: "seed", run: (*runner).seed},
}

var commandOrder = []string{"up", "down", "goto", "force", "version", "seed"}

func main() {
	os.Exit(execute(os.Args[1:]))
}

func execute(args []string) int {
	if len(args) == 0 {
		printUsage(os.Stderr)
		return exitUsage
	}
	name := strings.ToLower(strings.TrimSpace(args[0]))
	cmd, ok := commands[name]
	if !ok {
		printUsage(os.Stderr)
		return exitUsage
	}

	level, err := logging.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logging.LevelInfo
	}
	logger := logging.NewJSON(level).With("command", "migration", "subcommand", name)
	defer func() { _ = logger.Sync() }()

	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		logger.Error("DB_URL is required")
		return exitFail
	}

	r := &runner{
		dbURL:  withPreparedBinaryResult(dbURL, envBool("DB_DISABLE_PREPARED_BINARY_RESULT")),
		logger: logger,
		out:    os.Stdout,
	}
	if cmd.needsSchema {
		closeFn, err := r.openMigrator()
		if err != nil {
			logger.Error("open migrator", "error", err)
			return exitFail
		}
		defer closeFn()
	}

	if err := cmd.run(r, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
			return exitUsage
		}
		logger.Error("migration command failed", "error", err)
		return exitFail
	}
	return exitOK
}

func (r *runner) openMigrator() (func(), error) {
	dir, err := findMigrationsDir(os.Getenv("MIGRATIONS_DIR"))
	if err != nil {
		return nil, err
	}
	m, err := migrate.New("file://"+filepath.ToSlash(dir), r.dbURL)
	if err != nil {
		return nil, fmt.Errorf("create migrator from %s: %w", dir, err)
	}
	r.migrator = m
	return func() {
		srcErr, dbErr := m.Close()
		if err := errors.Join(srcErr, dbErr); err != nil {
			r.logger.Warn("close migrator", "error", err)
		}
	}, nil
}

func (r *runner) up(_ []string) error {
	return r.apply(r.migrator.Up(), "migrations applied")
}

func (r *runner) down(args []string) error {
	steps, err := parseSteps(args)
	if err != nil {
		return err
	}
	return r.apply(r.migrator.Steps(-steps), "migrations rolled back", "steps", steps)
}

func (r *runner) gotoVersion(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("goto needs a target version: %w", errUsage)
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	return r.apply(r.migrator.Migrate(target), "migrated", "version", target)
}

func (r *runner) force(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("force needs a version: %w", errUsage)
	}
	version, err := parseVersion(args[0])
	if err != nil {
		return err
	}
	if err := r.migrator.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	r.logger.Info("version forced", "version", version)
	return nil
}

func (r *runner) version(_ []string) error {
	version, dirty, err := r.migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		_, err = fmt.Fprintln(r.out, "version: none\ndirty: false")
		return err
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	}
	_, err = fmt.Fprintf(r.out, "version: %d\ndirty: %t\n", version, dirty)
	return err
}

func (r *runner) seed(_ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", r.dbURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if err := postgres.BootstrapSeed(ctx, db); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	r.logger.Info("catalog seeded")
	return nil
}

// apply treats ErrNoChange as success.
func (r *runner) apply(err error, msg string, args ...any) error {
	if errors.Is(err, migrate.ErrNoChange) {
		r.logger.Info("schema already current")
		return nil
	}
	if err != nil {
		return err
	}
	r.logger.Info(msg, args...)
	return nil
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps < 1 {
		return 0, fmt.Errorf("down steps must be at least 1, got %d", steps)
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("version must not be negative, got %d", v)
	}
	return v, nil
}

func parseTarget(raw string) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(v), nil
}

// findMigrationsDir returns the first existing directory, trying override
// before the defaults.
func findMigrationsDir(override string) (string, error) {
	candidates := append([]string{strings.TrimSpace(override)}, defaultMigrationDirs...)
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("no migrations directory found in MIGRATIONS_DIR or %s", strings.Join(defaultMigrationDirs, ", "))
}

// withPreparedBinaryResult sets disable_prepared_binary_result=yes on URL
// DSNs when enabled and the parameter is not already present.
func withPreparedBinaryResult(raw string, enabled bool) string {
	if !enabled {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	q := u.Query()
	if q.Has("disable_prepared_binary_result") {
		return raw
	}
	q.Set("disable_prepared_binary_result", "yes")
	u.RawQuery = q.Encode()
	return u.String()
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err == nil {
		return v
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "yes", "y", "on":
		return true
	}
	return false
}

func printUsage(w io.Writer) {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "usage: %s <command> [args]\n\ncommands:\n", name)
	for _, key := range commandOrder {
		fmt.Fprintf(w, "  %s %s\n", name, commands[key].usage)
	}
}
