package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()
	originalLevel := Level(currentLevel.Load())
	originalFormat, _ := currentFormat.Load().(string)

	reconfigure()

	return buf, func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		currentLevel.Store(int32(originalLevel))
		currentFormat.Store(originalFormat)
		reconfigure()
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")
		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		for _, s := range []string{"DEBUG", "INFO", "WARN", "ERROR", "debug message", "error message"} {
			assert.Contains(t, out, s)
		}
	})

	t.Run("WarnLevelFiltersDebugAndInfo", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("WARN")
		Debug("debug message")
		Info("info message")
		Warn("warn message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
	})

	t.Run("InvalidLevelIsIgnored", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")
		SetLevel("LOUD")
		Warn("still filtered")

		assert.Empty(t, buf.String())
	})
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, LevelWarn, l)

	_, ok = ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, "ERROR", LevelError.String())
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("json")
	Info("login accepted", KeySubject, "alice", KeyOutcome, "success")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "login accepted", entry["msg"])
	assert.Equal(t, "alice", entry[KeySubject])
	assert.Equal(t, "success", entry[KeyOutcome])
}

func TestTextFormat(t *testing.T) {
	t.Run("QuotesValuesWithSpaces", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("text")
		Info("listing failed", KeyError, "no such bucket")

		assert.Contains(t, buf.String(), `error="no such bucket"`)
	})

	t.Run("GroupsPrefixKeys", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("text")
		Info("object fetched", slog.Group("s3", Bucket("media"), Key("docs/a.txt")))

		out := buf.String()
		assert.Contains(t, out, "s3.bucket=media")
		assert.Contains(t, out, "s3.key=docs/a.txt")
	})

	t.Run("EmptyErrAttrIsDropped", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("text")
		Info("done", Err(nil))

		assert.NotContains(t, buf.String(), KeyError)
	})
}

func TestContextFields(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("DEBUG")
	SetFormat("json")

	lc := NewLogContext("req-1", "10.0.0.7").WithSubject("alice").WithRoute("GET /s3/list_objects")
	ctx := WithContext(context.Background(), lc)
	InfoCtx(ctx, "listed", Entries(2))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry[KeyRequestID])
	assert.Equal(t, "10.0.0.7", entry[KeyClientIP])
	assert.Equal(t, "alice", entry[KeySubject])
	assert.Equal(t, "GET /s3/list_objects", entry[KeyRoute])
	assert.EqualValues(t, 2, entry[KeyEntries])
}

func TestContextWithoutLogContext(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("text")
	WarnCtx(context.Background(), "no request", Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "no request")
	assert.Contains(t, out, "error=boom")
	assert.NotContains(t, out, KeyRequestID)
}

func TestLogContextCopies(t *testing.T) {
	base := NewLogContext("req-2", "127.0.0.1")
	withSubject := base.WithSubject("bob")

	assert.Empty(t, base.Subject)
	assert.Equal(t, "bob", withSubject.Subject)
	assert.Nil(t, (*LogContext)(nil).WithSubject("x"))
	assert.Zero(t, (*LogContext)(nil).DurationMs())
	assert.GreaterOrEqual(t, base.DurationMs(), 0.0)
}

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatehouse.log")
	_, cleanup := captureOutput()
	defer cleanup()

	require.NoError(t, Init(Config{Level: "INFO", Format: "text", Output: path}))
	Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "written to file"))
	assert.NotContains(t, string(data), "\033[")
}

func TestInitWithUnwritablePath(t *testing.T) {
	err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	require.Error(t, err)
}
