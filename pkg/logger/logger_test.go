package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConsoleAndCapture(t *testing.T) {
	var console bytes.Buffer
	l, err := New(Options{Level: zapcore.InfoLevel, Console: &console, Capture: true})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("[mesh] polygons built", zap.Int("polygons", 12))
	l.Warn("[banks] one-sided", zap.Int("segment", 3))

	out := console.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[mesh] polygons built")
	assert.Contains(t, out, `"polygons": 12`)

	html := l.HTML()
	assert.True(t, strings.HasPrefix(html, "<pre>"))
	assert.Contains(t, html, `<span style="color: green;">info</span>`)
	assert.Contains(t, html, `<span style="color: yellow;">warn</span>`)

	l.ClearLogs()
	assert.Equal(t, "<pre></pre>", l.HTML())
}

func TestJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	l, err := New(Options{Level: zapcore.DebugLevel, Console: &bytes.Buffer{}, JSONFile: path})
	require.NoError(t, err)

	l.With(zap.String("run", "abc")).Info("[topo] segments", zap.Int("n", 4))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "[topo] segments", entry["msg"])
	assert.Equal(t, "abc", entry["run"])
	assert.EqualValues(t, 4, entry["n"])
}

func TestHTMLWithoutCapture(t *testing.T) {
	l := Nop()
	l.Info("dropped")
	assert.Empty(t, l.HTML())
	assert.NoError(t, l.Close())
}

func TestAnsiToHTMLEscapes(t *testing.T) {
	got := ansiToHTML("a<b \033[31mred\033[0m & done")
	assert.Equal(t, `<pre>a&lt;b <span style="color: red;">red</span> &amp; done</pre>`, got)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
}
