package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bimmerbailey/driftlog/internal/config"
	"github.com/bimmerbailey/driftlog/internal/timestamp"
	"github.com/spf13/viper"
)

var referenceLines = []string{
	"2024-01-01 10:00:00 service start",
	"2024-01-01 10:00:01 request served for alice",
	"2024-01-01 10:00:02 request served for bob",
	"2024-01-01 10:00:03 service stop",
}

var candidateLines = []string{
	"2024-01-01 10:00:00 service start",
	"2024-01-01 10:00:01 request served for alice",
	"2024-01-01 10:00:02 ERROR database unavailable",
	"2024-01-01 10:00:03 service stop",
}

// resetConfig gives each test the defaults initConfig would set.
func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	config.SetDefaults(viper.GetViper(), timestamp.DefaultLayouts)
	viper.Set("log_level", "error")
	t.Cleanup(viper.Reset)
}

func writeTempFile(t *testing.T, dir string, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLoadConfig_Invalid(t *testing.T) {
	resetConfig(t)
	viper.Set("format", "xml")

	if _, err := loadConfig(); err == nil {
		t.Error("loadConfig() should reject an unknown format")
	}
}

func TestErrorStrings(t *testing.T) {
	if got := errorStrings(nil); got != nil {
		t.Errorf("errorStrings(nil) = %v", got)
	}
	joined := errorStrings(joinErrors("a", "b"))
	if len(joined) != 2 || joined[0] != "a" || joined[1] != "b" {
		t.Errorf("errorStrings(joined) = %v", joined)
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	if !strings.HasPrefix(out.String(), "driftlog dev") {
		t.Errorf("version output = %q", out.String())
	}
}
