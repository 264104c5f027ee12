package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func startWatcher(t *testing.T, w *Watcher) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("Run() returned early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watcher never became ready")
	}
	return cancel, done
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		if !ok {
			t.Fatal("events channel closed")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	if _, err := New(Options{}); err == nil {
		t.Error("New() with no paths should fail")
	}

	w, err := New(Options{Paths: []string{
		filepath.Join(dir, "a.log"),
		filepath.Join(dir, "b.log"),
	}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(w.dirs) != 1 {
		t.Errorf("dirs = %v, want one shared directory", w.dirs)
	}
	if w.opts.Debounce != DefaultDebounce {
		t.Errorf("Debounce = %v, want %v", w.opts.Debounce, DefaultDebounce)
	}
}

func TestWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.log")
	cand := filepath.Join(dir, "cand.log")
	writeFile(t, ref, "a\n")
	writeFile(t, cand, "a\n")

	w, err := New(Options{Paths: []string{ref, cand}, Debounce: 20 * time.Millisecond, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cancel, done := startWatcher(t, w)

	writeFile(t, cand, "a\nb\n")
	ev := nextEvent(t, w)
	if ev.Path != cand {
		t.Errorf("Event.Path = %q, want %q", ev.Path, cand)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, ok := <-w.Events(); ok {
		t.Error("events channel should be closed after Run returns")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.log")
	other := filepath.Join(dir, "other.log")
	writeFile(t, ref, "a\n")

	w, err := New(Options{Paths: []string{ref}, Debounce: 20 * time.Millisecond, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cancel, _ := startWatcher(t, w)
	defer cancel()

	writeFile(t, other, "noise\n")
	writeFile(t, ref, "a\nb\n")
	ev := nextEvent(t, w)
	if ev.Path != ref {
		t.Errorf("Event.Path = %q, want only %q", ev.Path, ref)
	}
}

func TestWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.log")
	writeFile(t, ref, "")

	w, err := New(Options{Paths: []string{ref}, Debounce: 200 * time.Millisecond, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cancel, _ := startWatcher(t, w)
	defer cancel()

	f, err := os.OpenFile(ref, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.WriteString("line\n"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	f.Close()

	if ev := nextEvent(t, w); ev.Path != ref {
		t.Errorf("Event.Path = %q", ev.Path)
	}

	select {
	case ev := <-w.Events():
		t.Errorf("burst produced a second event: %+v", ev)
	case <-time.After(400 * time.Millisecond):
	}
}
