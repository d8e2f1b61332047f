package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewSlogLogger(slog.New(newSlogHandler(false, &buf, slog.LevelDebug))), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=dbg a=1",
		"level=INFO msg=inf b=2",
		"level=WARN msg=wrn c=3",
		"level=ERROR msg=err d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_WithAddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("device", "d-1", "op", "merge").Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	for _, want := range []string{"msg=hello", "device=d-1", "op=merge", "k=v"} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_RedactsSensitiveKeys(t *testing.T) {
	log, buf := newTestLogger(t)

	log.Info(context.Background(), "pair", "session_token", "abc123", "device", "d-1")
	log.With("Seed", "JBSWY3DPEHPK3PXP").Warn(context.Background(), "bad seed")

	out := buf.String()
	assert.NotContains(t, out, "abc123")
	assert.NotContains(t, out, "JBSWY3DPEHPK3PXP")
	assert.Contains(t, out, "session_token="+redacted)
	assert.Contains(t, out, "device=d-1")
}

func TestZerologLogger_RedactsSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("zerolog", "info", &buf)
	require.NoError(t, err)

	l.Info(context.Background(), "set", "pin", "1234", "ok", true)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, redacted, rec["pin"])
	assert.Equal(t, true, rec["ok"])
}

func TestRedactArgs_LeavesInputUntouched(t *testing.T) {
	in := []any{"secret", "x", "id", 1, "dangling"}
	out := redactArgs(in)

	assert.Equal(t, []any{"secret", redacted, "id", 1, "dangling"}, out)
	assert.Equal(t, "x", in[1])
}
