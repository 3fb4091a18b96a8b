package coroutine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
)

func TestResolveOptions_Defaults(t *testing.T) {
	o := resolveOptions(nil)
	assert.NotNil(t, o.logger)
	assert.Equal(t, tally.NoopScope, o.metricsScope)
}

func TestResolveOptions_Overrides(t *testing.T) {
	logger := zap.NewExample()
	scope := tally.NewTestScope("test", nil)
	o := resolveOptions([]SchedulerOption{
		WithLogger(logger),
		WithMetricsScope(scope),
	})
	assert.Same(t, logger, o.logger)
	assert.Equal(t, scope, o.metricsScope)
}
