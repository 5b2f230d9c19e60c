// Package report assembles violation reports for handoff to the dispatch
// transport. It performs no I/O.
package report

import (
	"fmt"
	"strings"
	"time"

	"sentinelx/internal/model"
)

// GoodSamaritanCitation is embedded verbatim in every report. Anonymity is a
// policy the citation depends on, not a convenience flag.
const GoodSamaritanCitation = "This report is submitted under the protection of Section 134A of the Motor Vehicles Act, 1988, " +
	"and the Good Samaritan Guidelines notified by MoRTH. The reporter voluntarily provides this information " +
	"and shall not be compelled to be a witness or disclose personal identity."

// Options carries the per-report inputs supplied by the caller. Identity
// fields are included only when DiscloseIdentity is explicitly true; the
// default omits them regardless of what the caller filled in.
type Options struct {
	DiscloseIdentity bool
	ReporterName     string
	ReporterContact  string
	Plate            string
	ViolationCode    string
	EvidenceRef      string
	Notes            string
}

type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble builds the final report record. An empty agency set marks the
// report undeliverable-by-location for manual routing; it is never dropped.
func (a *Assembler) Assemble(rt model.ReportType, ev model.BrakingEvent, agencies model.AgencySet, escalation int, counted bool, opts Options) model.ViolationReport {
	r := model.ViolationReport{
		Type:          rt,
		Timestamp:     time.Now().UTC(),
		Plate:         strings.TrimSpace(opts.Plate),
		ViolationCode: opts.ViolationCode,
		EvidenceRef:   opts.EvidenceRef,
		Point:         ev.Point,
		PeakMPS2:      ev.Peak,
		Agencies:      agencies,
		Undeliverable: len(agencies) == 0,
		Escalation:    escalation,
		Counted:       counted,
		Anonymous:     !opts.DiscloseIdentity,
		Notes:         opts.Notes,
		Citation:      GoodSamaritanCitation,
	}
	if opts.DiscloseIdentity {
		r.ReporterName = strings.TrimSpace(opts.ReporterName)
		r.ReporterContact = strings.TrimSpace(opts.ReporterContact)
	}
	r.Body = Render(r)
	return r
}

// Render produces the plain-text report body delivered by the dispatch
// transport.
func Render(r model.ViolationReport) string {
	var b strings.Builder
	b.WriteString("SENTINEL-X — CIVIC ENFORCEMENT REPORT\n")
	fmt.Fprintf(&b, "Timestamp (UTC): %s\n\n", r.Timestamp.Format("2006-01-02 15:04:05"))

	b.WriteString("1) Violation\n")
	fmt.Fprintf(&b, "- Number Plate: %s\n", orNA(r.Plate, "UNKNOWN"))
	fmt.Fprintf(&b, "- Offense Code: %s\n", orNA(r.ViolationCode, "NOT SELECTED"))
	if v, ok := LookupViolation(r.ViolationCode); ok {
		fmt.Fprintf(&b, "- Section: %s\n", v.Section)
		fmt.Fprintf(&b, "- Penalty: %s\n", v.Penalty)
		if v.Notes != "" {
			fmt.Fprintf(&b, "- Includes/Notes: %s\n", v.Notes)
		}
	}
	if r.Type == model.ReportHarshBraking {
		fmt.Fprintf(&b, "- Detected Event: harsh braking, peak deceleration %.2f m/s^2\n", r.PeakMPS2)
	}

	b.WriteString("\n2) Location\n")
	if r.Point != nil {
		fmt.Fprintf(&b, "- GPS: %.6f, %.6f\n", r.Point.Lat, r.Point.Lon)
	} else {
		b.WriteString("- GPS: unavailable\n")
	}

	b.WriteString("\n3) Routing (One Nation, One Challan)\n")
	if len(r.Agencies) == 0 {
		b.WriteString("- Recipients: NONE (flagged for manual routing)\n")
	} else {
		fmt.Fprintf(&b, "- Recipients (deduped): %s\n", strings.Join(r.Agencies.IDs(), ", "))
	}
	fmt.Fprintf(&b, "- Repeat-Offender Escalation Level: %d\n", r.Escalation)

	b.WriteString("\n4) Notes (Reporter)\n")
	b.WriteString(orNA(r.Notes, "N/A") + "\n")

	b.WriteString("\n5) Reporter Identity\n")
	if r.Anonymous {
		b.WriteString("- Submitted Anonymously: YES\n")
	} else {
		b.WriteString("- Submitted Anonymously: NO\n")
		fmt.Fprintf(&b, "- Name: %s\n", orNA(r.ReporterName, "N/A"))
		fmt.Fprintf(&b, "- Contact: %s\n", orNA(r.ReporterContact, "N/A"))
	}

	b.WriteString("\n—\n")
	b.WriteString(r.Citation)
	b.WriteString("\n")
	return b.String()
}

func orNA(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
