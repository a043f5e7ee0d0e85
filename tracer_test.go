package tracebridge

import (
	"testing"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracerNoneBackend(t *testing.T) {
	tracer, err := NewTracer(Config{TracerBackend: TracerBackendNone}, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, opentracing.NoopTracer{}, tracer)
}

func TestNewTracerEmptyBackendIsNoop(t *testing.T) {
	tracer, err := NewTracer(Config{}, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, opentracing.NoopTracer{}, tracer)
}

func TestNewTracerUnknownBackend(t *testing.T) {
	_, err := NewTracer(Config{TracerBackend: "zipkin"}, logrus.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tracer backend")
}
