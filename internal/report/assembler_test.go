package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"sentinelx/internal/model"
)

func confirmedEvent() model.BrakingEvent {
	return model.BrakingEvent{
		Onset: time.Now().Add(-2 * time.Second),
		Peak:  6.4,
		Point: &model.GeoPoint{Lat: 28.4595, Lon: 77.0266},
		State: model.StateConfirmed,
	}
}

func testAgencies() model.AgencySet {
	return model.AgencySet{
		{ID: "HR-Gurugram", StateCode: "HR", Endpoints: []string{"police@example.in"}},
		{ID: "DL-RegistrationAuthority", StateCode: "DL", Endpoints: []string{"rto@example.in"}},
	}
}

func TestAnonymityIsTheDefault(t *testing.T) {
	a := NewAssembler()
	// Identity fields filled in but disclosure not requested.
	r := a.Assemble(model.ReportHarshBraking, confirmedEvent(), testAgencies(), 0, true, Options{
		Plate:           "DL8CAF5030",
		ReporterName:    "A. Reporter",
		ReporterContact: "+91-9999999999",
	})
	if !r.Anonymous {
		t.Fatal("report must default to anonymous")
	}
	if r.ReporterName != "" || r.ReporterContact != "" {
		t.Fatalf("identity leaked into record: %q / %q", r.ReporterName, r.ReporterContact)
	}
	if strings.Contains(r.Body, "A. Reporter") || strings.Contains(r.Body, "9999999999") {
		t.Fatal("identity leaked into body")
	}
	if !strings.Contains(r.Body, "Submitted Anonymously: YES") {
		t.Fatal("body missing anonymity statement")
	}
}

func TestExplicitDisclosureIncludesIdentity(t *testing.T) {
	a := NewAssembler()
	r := a.Assemble(model.ReportHarshBraking, confirmedEvent(), testAgencies(), 0, true, Options{
		DiscloseIdentity: true,
		ReporterName:     "A. Reporter",
		ReporterContact:  "+91-9999999999",
	})
	if r.Anonymous {
		t.Fatal("disclosed report marked anonymous")
	}
	if !strings.Contains(r.Body, "Name: A. Reporter") {
		t.Fatal("body missing disclosed name")
	}
}

func TestCitationAlwaysPresent(t *testing.T) {
	a := NewAssembler()
	for _, opts := range []Options{{}, {DiscloseIdentity: true}} {
		r := a.Assemble(model.ReportHarshBraking, confirmedEvent(), nil, 0, false, opts)
		if r.Citation != GoodSamaritanCitation {
			t.Fatal("citation field altered")
		}
		if !strings.Contains(r.Body, "Section 134A of the Motor Vehicles Act, 1988") {
			t.Fatal("body missing legal citation")
		}
	}
}

func TestEmptyAgencySetMarksUndeliverable(t *testing.T) {
	a := NewAssembler()
	r := a.Assemble(model.ReportHarshBraking, confirmedEvent(), nil, 0, false, Options{})
	if !r.Undeliverable {
		t.Fatal("expected undeliverable flag")
	}
	if !strings.Contains(r.Body, "flagged for manual routing") {
		t.Fatal("body missing manual-routing marker")
	}
}

func TestManualCaptureRendersViolationDetails(t *testing.T) {
	a := NewAssembler()
	ev := model.BrakingEvent{Point: &model.GeoPoint{Lat: 19.0760, Lon: 72.8777}, State: model.StateConfirmed}
	r := a.Assemble(model.ReportManualCapture, ev, testAgencies(), 1, true, Options{
		Plate:         "MH12AB1234",
		ViolationCode: "DNG_184",
		Notes:         "Jumped red light at Linking Road.",
	})
	for _, want := range []string{
		"Offense Code: DNG_184",
		"Section 184",
		"Red Light Jumping",
		"Escalation Level: 1",
		"Jumped red light at Linking Road.",
	} {
		if !strings.Contains(r.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, r.Body)
		}
	}
	if strings.Contains(r.Body, "Detected Event: harsh braking") {
		t.Fatal("manual capture must not carry the detection line")
	}
}

func TestHarshBrakingRendersPeak(t *testing.T) {
	a := NewAssembler()
	r := a.Assemble(model.ReportHarshBraking, confirmedEvent(), testAgencies(), 0, true, Options{Plate: "DL8CAF5030"})
	if !strings.Contains(r.Body, "peak deceleration 6.40 m/s^2") {
		t.Fatalf("body missing peak line:\n%s", r.Body)
	}
	if !strings.Contains(r.Body, "GPS: 28.459500, 77.026600") {
		t.Fatalf("body missing location line:\n%s", r.Body)
	}
}

func TestLookupViolationTable(t *testing.T) {
	if len(ViolationCodes()) != 7 {
		t.Fatalf("expected 7 offense codes, got %d", len(ViolationCodes()))
	}
	v, ok := LookupViolation("EM_194E")
	if !ok || v.Penalty != "₹10,000" {
		t.Fatalf("unexpected entry: %+v ok=%v", v, ok)
	}
	if _, ok := LookupViolation("NOPE"); ok {
		t.Fatal("unknown code must not resolve")
	}
}

func TestStoreRingBounds(t *testing.T) {
	s := NewStore(5)
	for i := 0; i < 8; i++ {
		s.Add(model.ViolationReport{Plate: fmt.Sprintf("P%d", i)})
	}
	got := s.List(0)
	if len(got) != 5 {
		t.Fatalf("ring length %d, want 5", len(got))
	}
	if got[0].Plate != "P3" || got[4].Plate != "P7" {
		t.Fatalf("ring kept wrong window: %v ... %v", got[0].Plate, got[4].Plate)
	}
	if limited := s.List(2); len(limited) != 2 || limited[1].Plate != "P7" {
		t.Fatalf("limited list wrong: %+v", limited)
	}
}

func TestStoreSince(t *testing.T) {
	s := NewStore(10)
	cut := time.Now()
	s.Add(model.ViolationReport{Plate: "OLD", Timestamp: cut.Add(-time.Hour)})
	s.Add(model.ViolationReport{Plate: "NEW", Timestamp: cut.Add(time.Hour)})
	got := s.Since(cut)
	if len(got) != 1 || got[0].Plate != "NEW" {
		t.Fatalf("since filter wrong: %+v", got)
	}
}
