package logger

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture routes output to a buffer for the duration of the test.
func capture(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseOn)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestLevels_Verbose(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"debug", func() { Debug("chunked %s into %d", "slip.txt", 3) }, "[DEBUG] chunked slip.txt into 3\n"},
		{"info", func() { Info("ingested %d documents", 2) }, "[INFO] ingested 2 documents\n"},
		{"warn", func() { Warn("LLM unavailable") }, "[WARN] LLM unavailable\n"},
		{"error", func() { Error("ingest failed: %s", "disk full") }, "[ERROR] ingest failed: disk full\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLevels_QuietSuppressesAllButError(t *testing.T) {
	buf := capture(t, false)

	Debug("d")
	Info("i")
	Warn("w")
	Section("s")
	assert.Empty(t, buf.String())

	Error("e")
	assert.Equal(t, "[ERROR] e\n", buf.String())
}

func TestLiteralPercentInArgs(t *testing.T) {
	buf := capture(t, true)
	Info("question: %s", "growth of 12% p.a.")
	assert.Equal(t, "[INFO] question: growth of 12% p.a.\n", buf.String())
}

func TestSection(t *testing.T) {
	buf := capture(t, true)
	Section("Ingest")
	assert.Equal(t, "\n=== Ingest ===\n", buf.String())
}

func TestEnabled(t *testing.T) {
	capture(t, false)
	assert.False(t, Enabled(LevelDebug))
	assert.True(t, Enabled(LevelError))

	SetVerbose(true)
	assert.True(t, Enabled(LevelDebug))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "LEVEL(9)", Level(9).String())
}

func TestTimed(t *testing.T) {
	buf := capture(t, true)
	Timed("embed chunks")()
	assert.True(t, strings.HasPrefix(buf.String(), "[DEBUG] embed chunks took "))
}

func TestWriter(t *testing.T) {
	buf := capture(t, false)
	assert.Same(t, buf, Writer())
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(i%2 == 0)
			Debug("concurrent %d", i)
			_ = IsVerbose()
		}()
	}
	wg.Wait()
}
