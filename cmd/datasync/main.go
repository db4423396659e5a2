// Command datasync runs one data-sync stage against the configured storage
// and prints its summary as JSON. It is meant for cron jobs and manual
// backfills where going through the HTTP API is not convenient.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"

	"github.com/riskibarqy/futboss/internal/app"
	"github.com/riskibarqy/futboss/internal/config"
	"github.com/riskibarqy/futboss/internal/observability"
	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/usecase"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	if len(os.Args) < 2 {
		printUsage()
		return 2
	}
	cmd := strings.ToLower(strings.TrimSpace(os.Args[1]))
	if !validCommand(cmd) {
		printUsage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	logger := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.AppEnv, "command", "datasync")
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	telemetry, err := observability.Start(cfg, logger, observability.Options{})
	if err != nil {
		logger.Error("start observability", "error", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(flushCtx); err != nil {
			logger.Warn("stop observability", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("close app resources", "error", err)
		}
	}()

	out, failed, err := run(ctx, application.Sync, cmd)
	if err != nil {
		logger.Error("datasync failed", "command", cmd, "error", err)
		return 1
	}

	body, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		return 1
	}
	fmt.Println(string(body))

	if failed {
		return 1
	}
	return 0
}

func validCommand(cmd string) bool {
	switch cmd {
	case "all", "clubs", "players", "scores", "status", "summary", "check", "clear":
		return true
	default:
		return false
	}
}

// run dispatches a command and reports whether its outcome should fail the process.
func run(ctx context.Context, svc *usecase.DataSyncService, cmd string) (any, bool, error) {
	switch cmd {
	case "all":
		return syncResult(svc.SyncAll(ctx))
	case "clubs":
		return syncResult(svc.SyncClubs(ctx))
	case "players":
		return syncResult(svc.SyncPlayers(ctx))
	case "scores":
		return syncResult(svc.UpdatePlayerScores(ctx))
	case "status":
		return svc.Status(), false, nil
	case "summary":
		summary, err := svc.CatalogSummary(ctx)
		return summary, false, err
	case "check":
		check := svc.CheckProvider(ctx)
		return check, !check.Available, nil
	case "clear":
		purged, err := svc.ClearAll(ctx)
		return purged, false, err
	default:
		return nil, false, fmt.Errorf("unknown command %q", cmd)
	}
}

func syncResult(result usecase.SyncResult, err error) (any, bool, error) {
	if err != nil {
		return nil, true, err
	}
	return result, result.Status == usecase.SyncStatusFailed, nil
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <all|clubs|players|scores|status|summary|check|clear>\n", name)
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s all\n", name)
	fmt.Fprintf(os.Stderr, "  %s scores\n", name)
	fmt.Fprintf(os.Stderr, "  %s check\n", name)
}
