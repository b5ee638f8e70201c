package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(WARN, &buf, false)

	l.Debug("registry", "debug %d", 1)
	l.Info("registry", "info %d", 2)
	assert.Empty(t, buf.String())

	l.Warn("registry", "warn %d", 3)
	l.Error("registry", "error %d", 4)
	out := buf.String()
	assert.Contains(t, out, "[WARN] [registry] warn 3")
	assert.Contains(t, out, "[ERROR] [registry] error 4")
}

func TestLoggerSilent(t *testing.T) {
	var buf bytes.Buffer
	l := New(SILENT, &buf, false)
	l.Error("x", "boom")
	assert.Empty(t, buf.String())
}

func TestLoggerColor(t *testing.T) {
	var buf bytes.Buffer
	l := New(DEBUG, &buf, true)
	l.Info("", "hello")
	assert.Contains(t, buf.String(), levelColors[INFO]+"[INFO]"+resetColor+" hello")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(ERROR, &buf, false)
	l.SetLevel(DEBUG)
	assert.Equal(t, DEBUG, l.GetLevel())
	l.Debug("m", "now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"", INFO, false},
		{"warning", WARN, false},
		{"Error", ERROR, false},
		{"none", SILENT, false},
		{"loud", INFO, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGlobalInit(t *testing.T) {
	prev := Default()
	t.Cleanup(func() {
		defaultMu.Lock()
		defaultLogger = prev
		defaultMu.Unlock()
	})

	var buf bytes.Buffer
	Init(INFO, &buf, false)
	Info("server", "listening on %s", ":8080")
	Debug("server", "hidden")
	assert.Contains(t, buf.String(), "[INFO] [server] listening on :8080")
	assert.NotContains(t, buf.String(), "hidden")
}
