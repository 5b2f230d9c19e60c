// Package telemetry turns a stream of accelerometer samples into confirmed
// braking events via a debounced detection state machine.
package telemetry

import (
	"context"
	"log/slog"
	"math"
	"time"

	"sentinelx/internal/config"
	"sentinelx/internal/model"
)

type phase int

const (
	phaseIdle phase = iota
	phaseMonitoring
)

// Monitor runs the sampling loop. It owns at most one candidate event at a
// time; confirmed events are handed off on the out channel without ever
// blocking the loop. The host drives Run on its own schedule and stops it via
// context cancellation, which halts between samples and flushes any confirmed
// event that has not been handed off yet. In-flight candidates are dropped on
// stop: better to lose a partially observed event than to invent one.
type Monitor struct {
	cfg    *config.Manager
	source SensorSource
	out    chan<- model.BrakingEvent
	logger *slog.Logger

	state          phase
	candidate      *model.BrakingEvent
	candidateStart time.Time
	deadline       time.Time
	holdoffUntil   time.Time
	pending        *model.BrakingEvent
}

func NewMonitor(cfg *config.Manager, source SensorSource, out chan<- model.BrakingEvent, logger *slog.Logger) *Monitor {
	return &Monitor{
		cfg:    cfg,
		source: source,
		out:    out,
		logger: logger,
		state:  phaseIdle,
	}
}

func (m *Monitor) Run(ctx context.Context) {
	for {
		var expiry <-chan time.Time
		var timer *time.Timer
		if m.candidate != nil {
			wait := time.Until(m.deadline)
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
			expiry = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			m.shutdown()
			return
		case s, ok := <-m.source.Samples():
			stopTimer(timer)
			if !ok {
				m.shutdown()
				return
			}
			m.handleSample(s)
		case <-expiry:
			m.confirm()
		}
	}
}

func (m *Monitor) handleSample(s model.SensorSample) {
	cfg := m.cfg.Get().Telemetry

	if m.state == phaseIdle {
		m.state = phaseMonitoring
		if m.logger != nil {
			m.logger.Info("telemetry monitoring started")
		}
	}

	if s.Point != nil && !validFix(*s.Point) {
		if m.logger != nil {
			m.logger.Warn("sample rejected", "err", model.ErrInvalidCoordinate,
				"lat", s.Point.Lat, "lon", s.Point.Lon)
		}
		return
	}

	m.retryPending()

	g := dynamicMagnitude(s, cfg.Gravity)

	if m.candidate != nil {
		// Inside the debounce window a higher peak is merged into the same
		// event and resets the window clock.
		if g > m.candidate.Peak {
			m.candidate.Peak = g
			if s.Point != nil {
				m.candidate.Point = s.Point
				m.candidate.LocationUnavailable = false
			}
			m.deadline = time.Now().Add(cfg.DebounceWindow)
		}
		return
	}

	if g <= cfg.BrakeThreshold {
		return
	}

	// The holdoff is anchored at the previous event's first crossing, so it
	// overlaps the debounce window instead of extending it past confirmation.
	if cfg.RetriggerHoldoff > 0 && time.Now().Before(m.holdoffUntil) {
		if m.logger != nil {
			m.logger.Debug("threshold crossing discarded inside retrigger holdoff", "g_dyn", g)
		}
		return
	}

	ev := &model.BrakingEvent{
		Onset: s.Timestamp,
		Peak:  g,
		State: model.StateCandidate,
	}
	if s.Point != nil {
		ev.Point = s.Point
	} else {
		ev.LocationUnavailable = true
	}
	m.candidate = ev
	m.candidateStart = time.Now()
	m.deadline = m.candidateStart.Add(cfg.DebounceWindow)
	if m.logger != nil {
		m.logger.Debug("braking candidate opened", "onset", ev.Onset, "g_dyn", g)
	}
}

func (m *Monitor) confirm() {
	if m.candidate == nil {
		return
	}
	ev := m.candidate
	m.candidate = nil
	ev.State = model.StateConfirmed
	m.holdoffUntil = m.candidateStart.Add(m.cfg.Get().Telemetry.RetriggerHoldoff)
	if m.logger != nil {
		m.logger.Info("braking event confirmed",
			"onset", ev.Onset,
			"peak_mps2", ev.Peak,
			"location_unavailable", ev.LocationUnavailable,
		)
	}
	m.emit(ev)
}

// emit hands a confirmed event off without blocking; if the pipeline is
// backed up the event is parked as pending and retried on the next sample.
func (m *Monitor) emit(ev *model.BrakingEvent) {
	select {
	case m.out <- *ev:
	default:
		if m.pending != nil {
			if m.logger != nil {
				m.logger.Warn("event channel full, dropping oldest pending event",
					"onset", m.pending.Onset)
			}
			m.pending.State = model.StateDiscarded
		}
		m.pending = ev
	}
}

func (m *Monitor) retryPending() {
	if m.pending == nil {
		return
	}
	select {
	case m.out <- *m.pending:
		m.pending = nil
	default:
	}
}

// shutdown flushes a confirmed-but-unreported event with a bounded wait and
// abandons any open candidate.
func (m *Monitor) shutdown() {
	if m.candidate != nil {
		if m.logger != nil {
			m.logger.Info("dropping in-flight candidate on stop", "onset", m.candidate.Onset)
		}
		m.candidate.State = model.StateDiscarded
		m.candidate = nil
	}
	if m.pending != nil {
		select {
		case m.out <- *m.pending:
			m.pending = nil
		case <-time.After(time.Second):
			if m.logger != nil {
				m.logger.Warn("could not flush confirmed event before stop", "onset", m.pending.Onset)
			}
		}
	}
	if m.logger != nil {
		m.logger.Info("telemetry monitor stopped")
	}
}

// dynamicMagnitude is the deceleration signal: the deviation of total
// acceleration from standard gravity.
func dynamicMagnitude(s model.SensorSample, gravity float64) float64 {
	total := math.Sqrt(s.Ax*s.Ax + s.Ay*s.Ay + s.Az*s.Az)
	return math.Abs(total - gravity)
}

func validFix(p model.GeoPoint) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
