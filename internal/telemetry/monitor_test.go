package telemetry

import (
	"context"
	"math"
	"testing"
	"time"

	"sentinelx/internal/config"
	"sentinelx/internal/model"
)

func testMonitorConfig() *config.Manager {
	cfg := config.DefaultConfig()
	cfg.Telemetry.BrakeThreshold = 4.0
	cfg.Telemetry.DebounceWindow = 50 * time.Millisecond
	cfg.Telemetry.RetriggerHoldoff = 200 * time.Millisecond
	cfg.Telemetry.Gravity = 9.81
	return config.NewStatic(cfg)
}

// sampleAt builds a sample whose dynamic magnitude equals g by loading the
// whole excess onto the vertical axis.
func sampleAt(g float64, pt *model.GeoPoint) model.SensorSample {
	return model.SensorSample{
		Timestamp: time.Now(),
		Az:        9.81 + g,
		Point:     pt,
	}
}

func startMonitor(t *testing.T, out chan model.BrakingEvent) (chan model.SensorSample, context.CancelFunc) {
	t.Helper()
	in := make(chan model.SensorSample, 32)
	mon := NewMonitor(testMonitorConfig(), ChannelSource(in), out, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go mon.Run(ctx)
	return in, cancel
}

func waitEvent(t *testing.T, out <-chan model.BrakingEvent, timeout time.Duration) model.BrakingEvent {
	t.Helper()
	select {
	case ev := <-out:
		return ev
	case <-time.After(timeout):
		t.Fatal("timed out waiting for event")
		return model.BrakingEvent{}
	}
}

func expectNoEvent(t *testing.T, out <-chan model.BrakingEvent, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-out:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(wait):
	}
}

func TestDecayingProfileYieldsSingleEventWithTruePeak(t *testing.T) {
	out := make(chan model.BrakingEvent, 4)
	in, cancel := startMonitor(t, out)
	defer cancel()

	pt := &model.GeoPoint{Lat: 28.4595, Lon: 77.0266}
	for _, g := range []float64{5.0, 7.2, 6.1, 3.0} {
		in <- sampleAt(g, pt)
		time.Sleep(10 * time.Millisecond)
	}

	ev := waitEvent(t, out, time.Second)
	if ev.State != model.StateConfirmed {
		t.Fatalf("state %v, want confirmed", ev.State)
	}
	if math.Abs(ev.Peak-7.2) > 1e-9 {
		t.Fatalf("peak %v, want 7.2", ev.Peak)
	}
	if ev.Point == nil || ev.Point.Lat != pt.Lat {
		t.Fatalf("expected location carried through, got %+v", ev.Point)
	}
	expectNoEvent(t, out, 150*time.Millisecond)
}

func TestSeparatedCrossingsYieldTwoEvents(t *testing.T) {
	out := make(chan model.BrakingEvent, 4)
	in, cancel := startMonitor(t, out)
	defer cancel()

	in <- sampleAt(6.0, nil)
	first := waitEvent(t, out, time.Second)
	if first.Peak != 6.0 {
		t.Fatalf("first peak %v", first.Peak)
	}

	// Outlast the retrigger holdoff before the next crossing.
	time.Sleep(250 * time.Millisecond)
	in <- sampleAt(5.0, nil)
	second := waitEvent(t, out, time.Second)
	if second.Peak != 5.0 {
		t.Fatalf("second peak %v", second.Peak)
	}
}

func TestCrossingInsideHoldoffIsSuppressed(t *testing.T) {
	out := make(chan model.BrakingEvent, 4)
	in, cancel := startMonitor(t, out)
	defer cancel()

	in <- sampleAt(6.0, nil)
	waitEvent(t, out, time.Second)

	// Immediately after confirmation, still inside the holdoff.
	in <- sampleAt(8.0, nil)
	expectNoEvent(t, out, 150*time.Millisecond)
}

func TestHoldoffRunsFromEventOnset(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Telemetry.BrakeThreshold = 4.0
	cfg.Telemetry.DebounceWindow = 100 * time.Millisecond
	cfg.Telemetry.RetriggerHoldoff = 150 * time.Millisecond
	out := make(chan model.BrakingEvent, 4)
	in := make(chan model.SensorSample, 32)
	mon := NewMonitor(config.NewStatic(cfg), ChannelSource(in), out, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mon.Run(ctx)

	in <- sampleAt(6.0, nil)
	first := waitEvent(t, out, time.Second)
	if first.Peak != 6.0 {
		t.Fatalf("first peak %v", first.Peak)
	}

	// The holdoff started at the first crossing, not at confirmation, so only
	// ~50ms of it remain once the window has expired.
	time.Sleep(100 * time.Millisecond)
	in <- sampleAt(5.0, nil)
	second := waitEvent(t, out, time.Second)
	if second.Peak != 5.0 {
		t.Fatalf("second peak %v", second.Peak)
	}
}

func TestMissingFixMarksLocationUnavailable(t *testing.T) {
	out := make(chan model.BrakingEvent, 4)
	in, cancel := startMonitor(t, out)
	defer cancel()

	in <- sampleAt(5.5, nil)
	ev := waitEvent(t, out, time.Second)
	if !ev.LocationUnavailable || ev.Point != nil {
		t.Fatalf("expected location-unavailable event, got %+v", ev)
	}
}

func TestLateFixUpgradesCandidate(t *testing.T) {
	out := make(chan model.BrakingEvent, 4)
	in, cancel := startMonitor(t, out)
	defer cancel()

	in <- sampleAt(5.0, nil)
	time.Sleep(10 * time.Millisecond)
	in <- sampleAt(6.0, &model.GeoPoint{Lat: 19.0760, Lon: 72.8777})

	ev := waitEvent(t, out, time.Second)
	if ev.LocationUnavailable || ev.Point == nil {
		t.Fatalf("expected fix from merged sample, got %+v", ev)
	}
	if ev.Peak != 6.0 {
		t.Fatalf("peak %v, want 6.0", ev.Peak)
	}
}

func TestInvalidFixSampleIgnored(t *testing.T) {
	out := make(chan model.BrakingEvent, 4)
	in, cancel := startMonitor(t, out)
	defer cancel()

	in <- sampleAt(9.0, &model.GeoPoint{Lat: math.NaN(), Lon: 77.0})
	expectNoEvent(t, out, 150*time.Millisecond)

	in <- sampleAt(5.0, &model.GeoPoint{Lat: 28.5, Lon: 77.0})
	ev := waitEvent(t, out, time.Second)
	if ev.Peak != 5.0 {
		t.Fatalf("peak %v, want 5.0 from the valid sample only", ev.Peak)
	}
}

func TestSubThresholdSamplesNeverTrigger(t *testing.T) {
	out := make(chan model.BrakingEvent, 4)
	in, cancel := startMonitor(t, out)
	defer cancel()

	for _, g := range []float64{0.1, 1.5, 3.9, 4.0} {
		in <- sampleAt(g, nil)
	}
	expectNoEvent(t, out, 150*time.Millisecond)
}

func TestStopFlushesConfirmedEvent(t *testing.T) {
	out := make(chan model.BrakingEvent) // no buffer, no reader yet
	in, cancel := startMonitor(t, out)

	in <- sampleAt(6.0, nil)
	// Let the debounce window expire so the event is confirmed and parked.
	time.Sleep(150 * time.Millisecond)

	cancel()
	ev := waitEvent(t, out, 2*time.Second)
	if ev.State != model.StateConfirmed || ev.Peak != 6.0 {
		t.Fatalf("flushed event %+v", ev)
	}
}

func TestStopDropsOpenCandidate(t *testing.T) {
	out := make(chan model.BrakingEvent, 4)
	in, cancel := startMonitor(t, out)

	in <- sampleAt(6.0, nil)
	// Cancel while the debounce window is still open.
	time.Sleep(10 * time.Millisecond)
	cancel()
	expectNoEvent(t, out, 150*time.Millisecond)
}
