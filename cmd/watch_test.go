package cmd

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestWatchRerunsOnChange(t *testing.T) {
	resetConfig(t)

	dir := t.TempDir()
	ref := writeTempFile(t, dir, "ref.log", referenceLines)
	cand := writeTempFile(t, dir, "cand.log", referenceLines)

	out := &syncBuffer{}
	cmd := &cobra.Command{Use: "watch"}
	cmd.SetOut(out)
	cmd.Flags().String("debounce", "20ms", "")
	cmd.Flags().String("color", "never", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() { done <- runWatch(cmd, []string{ref, cand}) }()

	waitFor := func(what string, touch func()) {
		t.Helper()
		deadline := time.After(10 * time.Second)
		tick := time.NewTicker(100 * time.Millisecond)
		defer tick.Stop()
		for !strings.Contains(out.String(), what) {
			select {
			case err := <-done:
				t.Fatalf("runWatch() returned early: %v\n%s", err, out.String())
			case <-deadline:
				t.Fatalf("timed out waiting for %q:\n%s", what, out.String())
			case <-tick.C:
				if touch != nil {
					touch()
				}
			}
		}
	}

	waitFor("diff:", nil)

	// Rewrite until the watcher, set up after the first report, sees a change.
	waitFor("changed <==", func() {
		if err := os.WriteFile(cand, []byte(strings.Join(candidateLines, "\n")+"\n"), 0o600); err != nil {
			t.Errorf("WriteFile() error = %v", err)
		}
	})
	waitFor("ERROR database unavailable", nil)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runWatch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runWatch did not return after cancel")
	}
}

func TestWatchInvalidDebounce(t *testing.T) {
	resetConfig(t)

	cmd := &cobra.Command{Use: "watch"}
	cmd.Flags().String("debounce", "later", "")
	if err := runWatch(cmd, []string{"a.log", "b.log"}); err == nil {
		t.Error("runWatch() should reject an invalid --debounce")
	}
}
