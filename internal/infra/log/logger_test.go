package log

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitWritesFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Init(dir))
	t.Cleanup(func() {
		Logger = zap.NewNop()
		consoleLogger = zap.NewNop()
	})

	LogInfo("checkin scheduled", zap.String("at", "09:00"))
	LogError("swap failed", zap.Error(errors.New("boom")), zap.Int64("duration_ms", 12))
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "INFO checkin scheduled")
	assert.Contains(t, lines[0], `{"at":"09:00"}`)
	assert.Contains(t, lines[1], "ERROR swap failed")
	assert.Contains(t, lines[1], `"error":"boom"`)
	assert.Contains(t, lines[1], `"duration_ms":12`)
}

func TestGenerateRequestID(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestDurationField(t *testing.T) {
	assert.Equal(t, int64(42), durationField([]zap.Field{zap.String("x", "y"), zap.Int64("duration_ms", 42)}))
	assert.Zero(t, durationField([]zap.Field{zap.Int("duration_ms", 42)}))
	assert.Zero(t, durationField(nil))
}

func TestConsoleShowsSuccessAndErrorOnly(t *testing.T) {
	fileCore, fileLogs := observer.New(zap.DebugLevel)
	consoleCore, consoleLogs := observer.New(zap.DebugLevel)
	restore := Replace(zap.New(fileCore), zap.New(consoleCore))
	defer restore()

	LogSuccess("Daily check-in succeeded", zap.Int64("duration_ms", 40))
	LogError("Auto swap failed: status 500")
	LogWarn("Retrying backend request")
	LogInfo("Trigger fired")

	assert.Equal(t, 4, fileLogs.Len())
	var console []string
	for _, e := range consoleLogs.All() {
		console = append(console, e.Message)
	}
	assert.Equal(t, []string{"✓ Daily check-in succeeded (40ms)", "✗ Auto swap failed: status 500"}, console)
}
