package model

import "time"

// GeoPoint is a WGS-84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SensorSample is one accelerometer reading with an optional GPS fix.
// Samples are consumed by the telemetry monitor and not retained beyond
// the active detection window.
type SensorSample struct {
	Timestamp time.Time `json:"timestamp"`
	Ax        float64   `json:"ax"`
	Ay        float64   `json:"ay"`
	Az        float64   `json:"az"`
	Point     *GeoPoint `json:"point,omitempty"`
}

type EventState string

const (
	StateCandidate EventState = "candidate"
	StateConfirmed EventState = "confirmed"
	StateReported  EventState = "reported"
	StateDiscarded EventState = "discarded"
)

// BrakingEvent is a detected harsh-braking maneuver. Peak holds the highest
// dynamic deceleration magnitude observed inside the debounce window, in m/s².
type BrakingEvent struct {
	Onset               time.Time  `json:"onset"`
	Peak                float64    `json:"peak_mps2"`
	Point               *GeoPoint  `json:"point,omitempty"`
	LocationUnavailable bool       `json:"location_unavailable,omitempty"`
	State               EventState `json:"state"`
}

// RegionLabel identifies the administrative region a coordinate resolved to.
// The zero value means the coordinate could not be resolved.
type RegionLabel struct {
	District  string `json:"district"`
	State     string `json:"state"`
	StateCode string `json:"state_code"`
}

func (l RegionLabel) IsUnknown() bool {
	return l.StateCode == ""
}

// Agency is one traffic-enforcement authority, with the contact endpoints the
// dispatch transport should deliver to.
type Agency struct {
	ID        string   `json:"id"`
	StateCode string   `json:"state_code"`
	Endpoints []string `json:"endpoints,omitempty"`
}

// AgencySet is the routing result: at most two distinct agencies, the
// location-based and the registration-based authority, deduplicated.
type AgencySet []Agency

func (s AgencySet) Contains(id string) bool {
	for _, a := range s {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (s AgencySet) IDs() []string {
	out := make([]string, 0, len(s))
	for _, a := range s {
		out = append(out, a.ID)
	}
	return out
}

// OffenderRecord is the durable per-plate violation counter. Plate identifiers
// are stored as one-way hashes.
type OffenderRecord struct {
	PlateHash  string    `json:"plate_hash"`
	Violations int64     `json:"violations"`
	LastSeen   time.Time `json:"last_seen"`
	Level      int       `json:"level"`
}

type ReportType string

const (
	ReportHarshBraking  ReportType = "harsh_braking"
	ReportManualCapture ReportType = "manual_capture"
)

// ViolationReport is the assembled record handed to the dispatch transport.
// The core does not own its post-dispatch lifecycle.
type ViolationReport struct {
	Type            ReportType `json:"type"`
	Timestamp       time.Time  `json:"timestamp"`
	Plate           string     `json:"plate,omitempty"`
	ViolationCode   string     `json:"violation_code,omitempty"`
	EvidenceRef     string     `json:"evidence_ref,omitempty"`
	Point           *GeoPoint  `json:"point,omitempty"`
	PeakMPS2        float64    `json:"peak_mps2,omitempty"`
	Agencies        AgencySet  `json:"agencies"`
	Undeliverable   bool       `json:"undeliverable,omitempty"`
	Escalation      int        `json:"escalation"`
	Counted         bool       `json:"counted"`
	Anonymous       bool       `json:"anonymous"`
	ReporterName    string     `json:"reporter_name,omitempty"`
	ReporterContact string     `json:"reporter_contact,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	Citation        string     `json:"citation"`
	Body            string     `json:"body,omitempty"`
}
