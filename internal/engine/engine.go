// Package engine runs the report pipeline: confirmed braking events are
// routed, counted against the offender ledger, assembled, and handed to the
// dispatch transport.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sentinelx/internal/dispatch"
	"sentinelx/internal/jurisdiction"
	"sentinelx/internal/ledger"
	"sentinelx/internal/model"
	"sentinelx/internal/report"
)

// Enricher supplies the external capture context for a detected event: the
// observed plate and the opaque evidence reference produced by the capture
// module. The engine does not interpret either.
type Enricher func(model.BrakingEvent) report.Options

type Engine struct {
	logger     *slog.Logger
	router     *jurisdiction.Router
	ledger     *ledger.Ledger
	assembler  *report.Assembler
	reports    *report.Store
	dispatcher dispatch.Dispatcher
	enrich     Enricher
	dedupe     *dedupeCache
}

func New(router *jurisdiction.Router, led *ledger.Ledger, reports *report.Store, dispatcher dispatch.Dispatcher, enrich Enricher, logger *slog.Logger) *Engine {
	return &Engine{
		logger:     logger,
		router:     router,
		ledger:     led,
		assembler:  report.NewAssembler(),
		reports:    reports,
		dispatcher: dispatcher,
		enrich:     enrich,
		dedupe:     newDedupeCache(),
	}
}

// Start consumes confirmed events until the channel closes. Cancellation does
// not stop consumption on its own: the monitor flushes confirmed events after
// cancel, so the engine keeps draining until the producer side closes the
// channel. The returned channel closes once the goroutine has finished, so the
// host can hold the ledger and dispatcher open until then.
func (e *Engine) Start(ctx context.Context, in <-chan model.BrakingEvent) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev, ok := <-in:
				if !ok {
					return
				}
				e.HandleEvent(ctx, ev)
			case <-ctx.Done():
				e.drain(in)
				return
			}
		}
	}()
	return done
}

// drain consumes until the channel closes, under a fresh bounded context so
// post-cancellation events still reach the ledger and dispatcher.
func (e *Engine) drain(in <-chan model.BrakingEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev, ok := <-in:
			if !ok {
				return
			}
			e.HandleEvent(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

// HandleEvent processes one confirmed braking event end to end. Redelivered
// events are suppressed so at-least-once delivery maps to an exactly-once
// counted effect.
func (e *Engine) HandleEvent(ctx context.Context, ev model.BrakingEvent) *model.ViolationReport {
	if e.dedupe.seen(eventKey(ev), time.Now().UTC()) {
		if e.logger != nil {
			e.logger.Debug("duplicate event suppressed", "onset", ev.Onset, "peak_mps2", ev.Peak)
		}
		return nil
	}

	var opts report.Options
	if e.enrich != nil {
		opts = e.enrich(ev)
	}
	return e.process(ctx, model.ReportHarshBraking, ev, opts)
}

// SubmitManual assembles and dispatches a user-initiated capture report
// through the same routing, ledger, and dispatch path as detected events.
func (e *Engine) SubmitManual(ctx context.Context, point *model.GeoPoint, opts report.Options) *model.ViolationReport {
	ev := model.BrakingEvent{
		Onset:               time.Now().UTC(),
		Point:               point,
		LocationUnavailable: point == nil,
		State:               model.StateConfirmed,
	}
	return e.process(ctx, model.ReportManualCapture, ev, opts)
}

func (e *Engine) process(ctx context.Context, rt model.ReportType, ev model.BrakingEvent, opts report.Options) *model.ViolationReport {
	agencies, routeErr := e.router.Route(ev, opts.Plate)
	if errors.Is(routeErr, model.ErrNoJurisdiction) && e.logger != nil {
		e.logger.Warn("no jurisdiction determined, report flagged for manual routing",
			"plate", opts.Plate, "location_unavailable", ev.LocationUnavailable)
	}

	counted := false
	level := 0
	if strings.TrimSpace(opts.Plate) != "" {
		count, lvl, err := e.ledger.RecordAndEscalate(ctx, opts.Plate)
		if err != nil {
			if e.logger != nil {
				e.logger.Error("event reportable but uncounted", "err", err)
			}
		} else {
			counted = true
			level = lvl
			if e.logger != nil && lvl > 0 {
				e.logger.Info("repeat offender escalation", "violations", count, "level", lvl)
			}
		}
	}

	rep := e.assembler.Assemble(rt, ev, agencies, level, counted, opts)
	ev.State = model.StateReported

	if e.dispatcher != nil {
		if err := e.dispatcher.Publish(ctx, rep); err != nil && e.logger != nil {
			e.logger.Error("dispatch handoff failed", "err", err)
		}
	}
	if e.reports != nil {
		e.reports.Add(rep)
	}
	if e.logger != nil {
		e.logger.Info("report assembled",
			"type", rep.Type,
			"recipients", rep.Agencies.IDs(),
			"escalation", rep.Escalation,
			"counted", rep.Counted,
			"anonymous", rep.Anonymous,
		)
	}
	return &rep
}

func (e *Engine) Reset() {
	e.dedupe.reset()
	if e.reports != nil {
		e.reports.Clear()
	}
}
