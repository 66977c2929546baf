package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracerWithoutSetup(t *testing.T) {
	ctx, span := Tracer("test").Start(context.Background(), "noop")
	defer span.End()
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsSampled())
}

func TestHostname(t *testing.T) {
	assert.NotEmpty(t, hostname())
}
