package observability

import (
	"strings"

	"github.com/uptrace/uptrace-go/uptrace"

	"github.com/riskibarqy/futboss/internal/config"
)

// startTracing installs the global OpenTelemetry providers through Uptrace.
// Shutdown flushes pending spans.
func (s *Stack) startTracing(cfg config.Config) error {
	switch {
	case !cfg.UptraceEnabled:
		s.logger.Info("uptrace disabled", "reason", "UPTRACE_ENABLED=false")
		return nil
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		s.logger.Info("uptrace disabled", "reason", "UPTRACE_DSN empty")
		return nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
	)
	s.add("uptrace", uptrace.Shutdown)

	s.logger.Info("uptrace enabled", "service_version", cfg.ServiceVersion)
	return nil
}
