package supervisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	logx "herald/pkg/logx"
)

func TestGoRecoversPanic(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), WithLogger(logx.Nop()))

	s.Go("boomer", func(ctx context.Context) error {
		panic("boom")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("Wait = %v", err)
	}
}

func TestCancelOnError(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), WithCancelOnError(true))

	s.Go("failing", func(ctx context.Context) error {
		return errors.New("nope")
	})
	s.Go("waiting", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err == nil {
		t.Fatal("expected first error from Wait")
	}
}

func TestContextCanceledIsCleanExit(t *testing.T) {
	t.Parallel()
	s := New(context.Background())

	s.Go("loop", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	s.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait = %v", err)
	}
}

func TestGoRestartStopsOnCleanExit(t *testing.T) {
	t.Parallel()
	s := New(context.Background())

	ran := make(chan struct{})
	s.GoRestart("once", func(ctx context.Context) error {
		close(ran)
		return nil
	})

	<-ran
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait = %v", err)
	}
}

func TestGoRestartRetriesAfterError(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), WithLogger(logx.Nop()))

	runs := make(chan int, 8)
	n := 0
	s.GoRestart("flaky", func(ctx context.Context) error {
		n++
		runs <- n
		if n < 2 {
			return errors.New("transient")
		}
		return nil
	})

	deadline := time.After(10 * time.Second)
	for want := 1; want <= 2; want++ {
		select {
		case got := <-runs:
			if got != want {
				t.Fatalf("run %d, want %d", got, want)
			}
		case <-deadline:
			t.Fatalf("run %d never happened", want)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait = %v", err)
	}
}

func TestStopCancelsAndWaits(t *testing.T) {
	t.Parallel()
	s := New(context.Background())

	stopped := make(chan struct{})
	s.Go("worker", func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop = %v", err)
	}
	select {
	case <-stopped:
	default:
		t.Fatal("Stop returned before the worker exited")
	}
}
