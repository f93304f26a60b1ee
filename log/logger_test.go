/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// captureOutput redirects stdout or stderr into a pipe while fn runs and returns everything written.
func captureOutput(t *testing.T, output Output, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	target := &os.Stdout
	if output == OutputStderr {
		target = &os.Stderr
	}
	orig := *target
	*target = w
	defer func() { *target = orig }()

	go func() {
		fn()
		_ = w.Close()
	}()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestLoggerToStd(t *testing.T) {
	tests := []struct {
		output Output
		level  Level
		msg    string
		err    error
	}{
		{output: OutputStdout, level: LevelInfo, msg: "request admitted"},
		{output: OutputStdout, level: LevelWarn, msg: "request rejected"},
		{output: OutputStdout, level: LevelError, msg: "limiter failed", err: errors.New("some error")},
		{output: OutputStderr, level: LevelInfo, msg: "request admitted"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.output)+"/"+string(tt.level), func(t *testing.T) {
			out := captureOutput(t, tt.output, func() {
				logger, closer := NewLogger(&Config{Output: tt.output, Format: FormatJSON, Level: LevelInfo})
				switch tt.level {
				case LevelInfo:
					logger.Info(tt.msg)
				case LevelWarn:
					logger.Warn(tt.msg)
				case LevelError:
					logger.Error(tt.msg, Error(tt.err))
				}
				closer()
			})

			var j map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(out), &j))
			require.Equal(t, string(tt.level), j["level"])
			require.Equal(t, tt.msg, j["msg"])
			if tt.err != nil {
				require.Equal(t, tt.err.Error(), j["error"])
			}
			require.Equal(t, os.Getpid(), int(j["pid"].(float64)))
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	out := captureOutput(t, OutputStdout, func() {
		logger, closer := NewLogger(&Config{Output: OutputStdout, Format: FormatJSON, Level: LevelWarn})
		logger.Debug("debug message")
		logger.Infof("info %s", "message")
		logger.Warnf("warn %d", 42)
		logger.With(String("key", "value")).Errorf("error %s", "message")
		logger.WithLevel(LevelError).Warn("suppressed warn")
		closer()
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"msg":"warn 42"`)
	require.Contains(t, lines[1], `"msg":"error message"`)
	require.Contains(t, lines[1], `"key":"value"`)
}

func TestTextFormat(t *testing.T) {
	out := captureOutput(t, OutputStderr, func() {
		logger, closer := NewLogger(&Config{Output: OutputStderr, NoColor: true, Format: FormatText, Level: LevelInfo})
		logger.AtLevel(LevelError, func(logFunc LogFunc) {
			logFunc("test", Error(errors.New("some error")))
		})
		closer()
	})

	require.Contains(t, out, `|ERRO|`)
	require.Contains(t, out, ` test `)
	require.Contains(t, out, `error="some error"`)
	require.Contains(t, out, fmt.Sprintf(`pid=%d`, os.Getpid()))
}

func TestFileOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Output = OutputFile
	cfg.File.Path = filepath.Join(dir, "limiter-{{pid}}.log")

	logger, closer := NewLogger(cfg)
	logger.Info("written to file", Duration("period", time.Second))
	closer()

	data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("limiter-%d.log", os.Getpid())))
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"written to file"`)
}

func TestDisabledLogger(t *testing.T) {
	out := captureOutput(t, OutputStdout, func() {
		logger := NewDisabledLogger()
		logger.Error("never written")
		logger.With(Int("n", 1)).Errorf("never %s", "written")
	})
	require.Empty(t, out)
}
