// Package observability wires tracing, continuous profiling and the pprof
// listener. Every component is off unless its config flag is set.
package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/futboss/internal/config"
	"github.com/riskibarqy/futboss/internal/platform/logging"
)

type Options struct {
	// Pprof starts the profiling listener. One-shot commands leave it off.
	Pprof bool
}

type component struct {
	name string
	stop func(ctx context.Context) error
}

// Stack holds the started components.
type Stack struct {
	logger     *logging.Logger
	components []component
}

func Start(cfg config.Config, logger *logging.Logger, opts Options) (*Stack, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Stack{logger: logger.Component("observability")}

	starters := []func(config.Config) error{s.startTracing, s.startProfiling}
	if opts.Pprof {
		starters = append(starters, s.startPprof)
	}
	for _, start := range starters {
		if err := start(cfg); err != nil {
			return nil, errors.Join(err, s.Shutdown(context.Background()))
		}
	}
	return s, nil
}

// Components lists started component names in start order.
func (s *Stack) Components() []string {
	out := make([]string, 0, len(s.components))
	for _, c := range s.components {
		out = append(out, c.name)
	}
	return out
}

// Shutdown stops components in reverse start order. Every component is
// stopped even when an earlier one fails.
func (s *Stack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error
	for i := len(s.components) - 1; i >= 0; i-- {
		c := s.components[i]
		if err := c.stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", c.name, err))
			continue
		}
		s.logger.Info("observability component stopped", "component_name", c.name)
	}
	s.components = nil
	return errors.Join(errs...)
}

func (s *Stack) add(name string, stop func(ctx context.Context) error) {
	s.components = append(s.components, component{name: name, stop: stop})
}
