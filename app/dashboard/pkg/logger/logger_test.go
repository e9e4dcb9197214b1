package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Time:    time.Date(2026, 1, 28, 12, 0, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "could not load saved_enrichments",
		Data:    logrus.Fields{"collection": "saved_enrichments", CallerKey: "pipeline.go:42", "attempt": 1},
	}

	out, err := (&CustomFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2026-01-28 12:00:00] [WARN] [pipeline.go:42] could not load saved_enrichments attempt=1 collection=saved_enrichments\n", string(out))
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dashboard.log")
	l, err := New("debug", path)
	require.NoError(t, err)

	l.Debug("hello")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBU] [logger_test.go:")
	assert.Contains(t, string(data), "hello")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l, err := New("verbose", "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestKratosLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetFormatter(&CustomFormatter{})
	l.SetOutput(&buf)
	l.SetLevel(logrus.InfoLevel)

	logger := log.With(NewKratosLogger(l), "service.name", "dashboard")
	h := log.NewHelper(logger)

	h.Debugf("dropped")
	h.Infof("loaded %d articles", 3)
	h.Errorw("msg", "delete failed", "kind", "article")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[INFO]")
	assert.Contains(t, lines[0], "loaded 3 articles service.name=dashboard")
	assert.Contains(t, lines[1], "[ERRO]")
	assert.Contains(t, lines[1], "delete failed kind=article service.name=dashboard")
}
