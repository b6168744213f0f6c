package logging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapter_Fields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLogger(&buf, "test")
	l.Info("evaluated",
		String("backend", "serial"),
		Int("layers", 3),
		Float64("max_energy_error", 1e-12),
		Duration("elapsed", 1500*time.Microsecond),
		Field{Key: "ok", Value: true},
		Field{Key: "grid", Value: []int{2, 3}},
	)

	out := buf.String()
	assert.Contains(t, out, `"component":"test"`)
	assert.Contains(t, out, `"backend":"serial"`)
	assert.Contains(t, out, `"layers":3`)
	assert.Contains(t, out, `"ok":true`)
	assert.Contains(t, out, `"grid":[2,3]`)
	assert.Contains(t, out, `"message":"evaluated"`)
}

func TestZerologAdapter_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))
	l.Debug("d")
	l.Warn("w", Err(errors.New("cause")))
	l.Error("e", errors.New("boom"))
	l.Printf("p %d", 7)

	out := buf.String()
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"error":"cause"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"message":"p 7"`)
}

// Setup mutates global state; not parallel. Parallel tests in this package
// resume after it returns, so every global it touches is restored.
func TestSetup(t *testing.T) {
	prevLevel, prevLogger, prevUnit := zerolog.GlobalLevel(), log.Logger, zerolog.DurationFieldUnit
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
		log.Logger = prevLogger
		zerolog.DurationFieldUnit = prevUnit
	})

	var buf bytes.Buffer
	require.NoError(t, Setup(Options{Level: "debug", JSON: true, Output: &buf}))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	NewDefaultLogger().Debug("hello")
	assert.Contains(t, buf.String(), `"message":"hello"`)

	buf.Reset()
	err := Setup(Options{Level: "chatty", NoColor: true, Output: &buf})
	assert.Error(t, err)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	NewDefaultLogger().Info("console")
	assert.Contains(t, buf.String(), "console")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestSetupRestoresGlobalLevel(t *testing.T) {
	t.Run("Mutate", TestSetup)

	var buf bytes.Buffer
	NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel)).Debug("after setup")
	assert.Contains(t, buf.String(), `"level":"debug"`)
}
