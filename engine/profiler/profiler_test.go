package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickReportsAfterInterval(t *testing.T) {
	var buf bytes.Buffer
	p := New(
		WithInterval(10*time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	assert.False(t, p.Tick())
	time.Sleep(15 * time.Millisecond)
	assert.True(t, p.Tick())
	assert.Contains(t, buf.String(), "fps=")

	// The counter resets after a report.
	assert.False(t, p.Tick())
}

func TestOptionsIgnoreInvalidValues(t *testing.T) {
	p := New(WithInterval(-1), WithLogger(nil))
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.logger)
}
