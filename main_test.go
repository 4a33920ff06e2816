package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"
)

func TestRunOfflineToWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chord.wav")
	opts := options{
		wavPath:  path,
		notes:    "C4,E4,G4",
		duration: 250 * time.Millisecond,
		offline:  true,
	}
	if err := run(context.Background(), opts, strings.NewReader(""), io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if len(buf.Data) != 12000 {
		t.Fatalf("rendered %d samples, want 12000", len(buf.Data))
	}
}

func TestRunOfflineShorterThanOneSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blip.wav")
	opts := options{wavPath: path, duration: 10 * time.Microsecond, offline: true}
	r, w := io.Pipe()
	defer w.Close()
	done := make(chan error, 1)
	go func() { done <- run(context.Background(), opts, r, io.Discard) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("offline render of 10us never finished")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if len(buf.Data) != 1 {
		t.Fatalf("rendered %d samples, want 1", len(buf.Data))
	}
}

func TestRunStopsOnQuit(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		done <- run(context.Background(), options{}, strings.NewReader("on A4\nstatus\nquit\n"), io.Discard)
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop on quit")
	}
}

func TestRunDuration(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	start := time.Now()
	if err := run(context.Background(), options{duration: 50 * time.Millisecond}, r, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("run returned after %v", elapsed)
	}
}

func TestRunRejects(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		opts options
	}{
		{"unknown driver", options{driver: "alsa"}},
		{"wav on a device driver", options{driver: "oto", wavPath: filepath.Join(dir, "x.wav")}},
		{"offline on a device driver", options{driver: "portaudio", offline: true, duration: time.Second}},
		{"offline without duration", options{offline: true}},
		{"offline with negative duration", options{offline: true, duration: -time.Second}},
		{"bad hold note", options{notes: "A4,Q9"}},
		{"missing config", options{configFile: filepath.Join(dir, "none.toml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(context.Background(), tt.opts, strings.NewReader(""), io.Discard); err == nil {
				t.Fatalf("run(%+v) succeeded", tt.opts)
			}
		})
	}
}
