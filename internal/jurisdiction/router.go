// Package jurisdiction combines location-based and registration-based
// authority lookups into a deduplicated recipient set.
package jurisdiction

import (
	"errors"
	"log/slog"

	"sentinelx/internal/geoindex"
	"sentinelx/internal/model"
	"sentinelx/internal/plates"
)

type Router struct {
	geo    *geoindex.Index
	reg    *plates.Registry
	logger *slog.Logger
}

func NewRouter(geo *geoindex.Index, reg *plates.Registry, logger *slog.Logger) *Router {
	return &Router{geo: geo, reg: reg, logger: logger}
}

// Route computes the agency set for an event and plate: the authority for the
// event's resolved region plus the plate's issuing authority, collapsed to one
// entry when both fall in the same state. An event without a usable fix
// contributes no location authority. When neither lookup produces an agency
// the set is empty and ErrNoJurisdiction is returned; the caller assembles the
// report anyway and flags it for manual routing.
func (r *Router) Route(ev model.BrakingEvent, plate string) (model.AgencySet, error) {
	set := make(model.AgencySet, 0, 2)

	label := r.resolveRegion(ev)
	if !label.IsUnknown() {
		if loc, ok := locationAgency(label); ok {
			set = append(set, loc)
		}
	}

	if code, ok := r.reg.Resolve(plate); ok {
		if reg, ok := registrationAgency(code); ok {
			if len(set) == 1 && set[0].StateCode == code {
				// Same-state case: one agency, the locality-targeted entry
				// wins, contacts merged.
				set[0].Endpoints = mergeEndpoints(set[0].Endpoints, reg.Endpoints)
			} else {
				set = append(set, reg)
			}
		}
	}

	if len(set) == 0 {
		return set, model.ErrNoJurisdiction
	}
	return set, nil
}

func (r *Router) resolveRegion(ev model.BrakingEvent) model.RegionLabel {
	if ev.LocationUnavailable || ev.Point == nil {
		return model.RegionLabel{}
	}
	label, err := r.geo.Nearest(*ev.Point)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCoordinate) && r.logger != nil {
			r.logger.Warn("event carries invalid coordinate, routing without location",
				"lat", ev.Point.Lat, "lon", ev.Point.Lon)
		}
		return model.RegionLabel{}
	}
	if label.IsUnknown() && r.logger != nil {
		r.logger.Debug("region unresolved, routing without location",
			"lat", ev.Point.Lat, "lon", ev.Point.Lon)
	}
	return label
}

func mergeEndpoints(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, e := range list {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}
