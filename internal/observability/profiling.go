package observability

import (
	"context"
	"fmt"

	"github.com/grafana/pyroscope-go"

	"github.com/riskibarqy/futboss/internal/config"
	"github.com/riskibarqy/futboss/internal/platform/logging"
)

// Mutex and block profiles stay off; the data sync worker pool would
// dominate them.
var profileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseObjects,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// profilerLog routes the agent's printf-style output into the service logger.
// Debug output is dropped; the agent logs every upload at that level.
type profilerLog struct {
	logger *logging.Logger
}

func (l profilerLog) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l profilerLog) Debugf(string, ...any) {}

func (l profilerLog) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func profilerConfig(cfg config.Config, logger *logging.Logger) pyroscope.Config {
	return pyroscope.Config{
		Logger:            profilerLog{logger: logger.Component("pyroscope")},
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags: map[string]string{
			"env":     cfg.AppEnv,
			"service": cfg.ServiceName,
			"version": cfg.ServiceVersion,
		},
		ProfileTypes: profileTypes,
	}
}

func (s *Stack) startProfiling(cfg config.Config) error {
	if !cfg.PyroscopeEnabled {
		s.logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return nil
	}

	profiler, err := pyroscope.Start(profilerConfig(cfg, s.logger))
	if err != nil {
		return fmt.Errorf("start pyroscope: %w", err)
	}
	s.add("pyroscope", func(context.Context) error { return profiler.Stop() })

	s.logger.Info("pyroscope enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)
	return nil
}
