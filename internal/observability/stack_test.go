package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/riskibarqy/futboss/internal/config"
	"github.com/riskibarqy/futboss/internal/platform/logging"
)

func TestStart_AllDisabled(t *testing.T) {
	stack, err := Start(config.Config{ServiceName: "futboss-api", AppEnv: config.EnvDev}, logging.NewNop(), Options{Pprof: true})
	require.NoError(t, err)
	assert.Empty(t, stack.Components())
	require.NoError(t, stack.Shutdown(context.Background()))
}

func TestStart_UptraceWithoutDSNStaysOff(t *testing.T) {
	stack, err := Start(config.Config{UptraceEnabled: true, ServiceName: "futboss-api"}, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, stack.Components())
}

func TestStart_PprofListener(t *testing.T) {
	stack, err := Start(config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}, logging.NewNop(), Options{Pprof: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"pprof"}, stack.Components())
	require.NoError(t, stack.Shutdown(context.Background()))
	assert.Empty(t, stack.Components())
}

func TestStart_PprofSkippedWhenNotRequested(t *testing.T) {
	stack, err := Start(config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}, logging.NewNop(), Options{})
	require.NoError(t, err)
	assert.Empty(t, stack.Components())
}

func TestStack_ShutdownReverseOrderJoinsErrors(t *testing.T) {
	var order []string
	stack := &Stack{logger: logging.NewNop()}
	stack.add("first", func(context.Context) error { order = append(order, "first"); return nil })
	stack.add("second", func(context.Context) error { order = append(order, "second"); return errors.New("flush timeout") })
	stack.add("third", func(context.Context) error { order = append(order, "third"); return nil })

	err := stack.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop second: flush timeout")
	assert.Equal(t, []string{"third", "second", "first"}, order)

	var nilStack *Stack
	assert.NoError(t, nilStack.Shutdown(context.Background()))
}

func TestPprofHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	pprofHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProfilerConfig(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := config.Config{
		AppEnv:           config.EnvStage,
		ServiceName:      "futboss-api",
		ServiceVersion:   "1.4.0",
		PyroscopeAppName: "futboss",
	}

	got := profilerConfig(cfg, logging.FromZap(zap.New(core)))

	assert.Equal(t, "futboss", got.ApplicationName)
	assert.Equal(t, map[string]string{"env": "stage", "service": "futboss-api", "version": "1.4.0"}, got.Tags)
	assert.NotContains(t, got.ProfileTypes, pyroscope.ProfileMutexCount)

	got.Logger.Debugf("upload %d", 1)
	got.Logger.Errorf("upload failed: %s", "timeout")
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "upload failed: timeout", entries[0].Message)
	assert.Equal(t, "pyroscope", entries[0].ContextMap()["component"])
}
