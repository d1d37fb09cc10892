package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/JaimeStill/roomset/internal/progress"
)

func TestCycleStartsAtFirstStage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := progress.Cycle(ctx, time.Hour)

	select {
	case tick := <-ticks:
		if tick.Index != 0 || tick.Stage.Title != "Analyzing Product" {
			t.Errorf("first tick: got %+v", tick)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial tick")
	}
}

func TestCycleAdvancesAndWraps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := progress.Cycle(ctx, 2*time.Millisecond)

	var indexes []int
	timeout := time.After(5 * time.Second)
	for len(indexes) < 6 {
		select {
		case tick := <-ticks:
			indexes = append(indexes, tick.Index)
		case <-timeout:
			t.Fatalf("only received %v", indexes)
		}
	}

	if indexes[0] != 0 {
		t.Errorf("first index: got %d, want 0", indexes[0])
	}
	for i, idx := range indexes {
		if idx < 0 || idx > 3 {
			t.Errorf("tick %d index out of range: %d", i, idx)
		}
	}
}

func TestCycleStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := progress.Cycle(ctx, time.Millisecond)
	<-ticks
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestAt(t *testing.T) {
	interval := 750 * time.Millisecond
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 0},
		{-time.Second, 0},
		{700 * time.Millisecond, 0},
		{750 * time.Millisecond, 1},
		{2 * time.Second, 2},
		{3 * time.Second, 0},
	}

	for _, tt := range tests {
		got := progress.At(tt.elapsed, interval)
		if got.Index != tt.want {
			t.Errorf("At(%v): index %d, want %d", tt.elapsed, got.Index, tt.want)
		}
	}

	if got := progress.At(time.Minute, 0); got.Index != 0 {
		t.Errorf("zero interval: index %d, want 0", got.Index)
	}
}
