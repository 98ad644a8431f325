package status

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)
	p.Info("checking")
	p.Log("step")
	p.Log("")
	p.Errorf("failed: %d", 2)
	p.Framed("done!")

	want := "\033[34mchecking\033[0m\n" +
		"  • step\n" +
		"\n" +
		"\033[31mfailed: 2\033[0m\n" +
		"-----\n" +
		"\033[32mdone!\033[0m\n" +
		"-----\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output diff (-want +got):\n%s", diff)
	}
}

func TestPause(t *testing.T) {
	p := New(&bytes.Buffer{}, false)
	start := time.Now()
	if err := p.Pause(context.Background(), time.Hour); err != nil {
		t.Fatalf("Pause() without pacing: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Pause() slept with pacing disabled")
	}

	p.Pace = true
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Pause(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Pause() on cancelled context = %v, want %v", err, context.Canceled)
	}
	if err := p.Pause(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Pause() = %v", err)
	}
}
