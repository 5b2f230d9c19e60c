package geoindex

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"sentinelx/internal/model"
)

func TestNearestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	regions := make([]Region, 0, 200)
	for i := 0; i < 200; i++ {
		regions = append(regions, Region{
			Label: model.RegionLabel{District: fmt.Sprintf("R%d", i), State: "S", StateCode: fmt.Sprintf("C%d", i)},
			Point: model.GeoPoint{
				Lat: 8 + rng.Float64()*24,  // roughly the subcontinent extent
				Lon: 68 + rng.Float64()*22,
			},
		})
	}
	ix := New(regions, 0)

	points := make(map[string]model.GeoPoint, len(regions))
	for _, r := range regions {
		points[r.Label.District] = r.Point
	}

	queries := make([]model.GeoPoint, 0, 500)
	for i := 0; i < 400; i++ {
		queries = append(queries, model.GeoPoint{
			Lat: 8 + rng.Float64()*24,
			Lon: 68 + rng.Float64()*22,
		})
	}
	// Queries coincident with existing centroids must resolve to them.
	for i := 0; i < 100; i++ {
		queries = append(queries, regions[rng.Intn(len(regions))].Point)
	}

	for _, q := range queries {
		got, err := ix.Nearest(q)
		if err != nil {
			t.Fatalf("nearest error: %v", err)
		}
		want := bruteDist2(ix, regions, q)
		gp, ok := points[got.District]
		if !ok {
			t.Fatalf("unknown label returned: %+v", got)
		}
		if d := flatDist2(ix, gp, q); math.Abs(d-want) > 1e-12 {
			t.Fatalf("query %+v: got distance %v, brute force %v", q, d, want)
		}
	}
}

func TestNearestBeyondMaxRadiusIsUnknown(t *testing.T) {
	ix := New(BuiltinRegions(), 75)
	// Deep in the Arabian Sea, far outside coverage.
	label, err := ix.Nearest(model.GeoPoint{Lat: 5.0, Lon: 65.0})
	if err != nil {
		t.Fatalf("nearest error: %v", err)
	}
	if !label.IsUnknown() {
		t.Fatalf("expected unknown label, got %+v", label)
	}
}

func TestNearestCoincidentCentroid(t *testing.T) {
	regions := BuiltinRegions()
	ix := New(regions, 75)
	label, err := ix.Nearest(model.GeoPoint{Lat: 28.4595, Lon: 77.0266})
	if err != nil {
		t.Fatalf("nearest error: %v", err)
	}
	if label.District != "Gurugram" || label.StateCode != "HR" {
		t.Fatalf("expected Gurugram/HR, got %+v", label)
	}
}

func TestNearestInvalidCoordinate(t *testing.T) {
	ix := New(BuiltinRegions(), 75)
	cases := []model.GeoPoint{
		{Lat: math.NaN(), Lon: 77.0},
		{Lat: 28.0, Lon: math.NaN()},
		{Lat: 95.0, Lon: 77.0},
		{Lat: 28.0, Lon: 181.0},
		{Lat: math.Inf(1), Lon: 0},
	}
	for _, p := range cases {
		if _, err := ix.Nearest(p); !errors.Is(err, model.ErrInvalidCoordinate) {
			t.Fatalf("point %+v: expected ErrInvalidCoordinate, got %v", p, err)
		}
	}
}

func TestEmptyDatasetResolvesUnknown(t *testing.T) {
	ix := New(nil, 75)
	label, err := ix.Nearest(model.GeoPoint{Lat: 28.6, Lon: 77.2})
	if err != nil {
		t.Fatalf("nearest error: %v", err)
	}
	if !label.IsUnknown() {
		t.Fatalf("expected unknown label for empty dataset, got %+v", label)
	}
}

func bruteDist2(ix *Index, regions []Region, q model.GeoPoint) float64 {
	best := math.Inf(1)
	for _, r := range regions {
		if d := flatDist2(ix, r.Point, q); d < best {
			best = d
		}
	}
	return best
}

func flatDist2(ix *Index, a, b model.GeoPoint) float64 {
	dx := (a.Lon - b.Lon) * ix.lonScale
	dy := a.Lat - b.Lat
	return dx*dx + dy*dy
}
