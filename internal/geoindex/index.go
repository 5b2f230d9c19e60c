package geoindex

import (
	"math"
	"sort"

	"sentinelx/internal/model"
)

// kmPerDegree is the meridional arc length of one degree, close enough for
// bounded regional extents.
const kmPerDegree = 111.0

// Region is one entry of the offline dataset: an administrative label with its
// centroid coordinate.
type Region struct {
	Label model.RegionLabel
	Point model.GeoPoint
}

type node struct {
	region      Region
	x, y        float64 // locally flattened coordinates, degrees
	left, right *node
}

// Index is an immutable spatial tree over region centroids. It is built once
// and safe for concurrent queries without locking.
type Index struct {
	root       *node
	lonScale   float64
	maxRadius2 float64 // squared, in flattened degrees
}

// New builds a balanced tree by recursively partitioning on alternating axes
// with median pivots. maxRadiusKM bounds how far a query may be from its
// nearest centroid before the result degrades to Unknown.
func New(regions []Region, maxRadiusKM float64) *Index {
	ix := &Index{lonScale: 1}
	if len(regions) == 0 {
		return ix
	}
	var meanLat float64
	for _, r := range regions {
		meanLat += r.Point.Lat
	}
	meanLat /= float64(len(regions))
	ix.lonScale = math.Cos(meanLat * math.Pi / 180)
	if maxRadiusKM > 0 {
		r := maxRadiusKM / kmPerDegree
		ix.maxRadius2 = r * r
	}

	nodes := make([]*node, 0, len(regions))
	for _, r := range regions {
		nodes = append(nodes, &node{
			region: r,
			x:      r.Point.Lon * ix.lonScale,
			y:      r.Point.Lat,
		})
	}
	ix.root = build(nodes, 0)
	return ix
}

func build(nodes []*node, depth int) *node {
	if len(nodes) == 0 {
		return nil
	}
	axis := depth % 2
	sort.SliceStable(nodes, func(i, j int) bool {
		return coord(nodes[i], axis) < coord(nodes[j], axis)
	})
	mid := len(nodes) / 2
	n := nodes[mid]
	n.left = build(nodes[:mid], depth+1)
	n.right = build(nodes[mid+1:], depth+1)
	return n
}

func coord(n *node, axis int) float64 {
	if axis == 0 {
		return n.y
	}
	return n.x
}

// Nearest resolves a coordinate to its closest region centroid. It returns the
// zero RegionLabel when the dataset is empty or the nearest centroid lies
// beyond the configured maximum radius, and ErrInvalidCoordinate for NaN or
// out-of-range input.
func (ix *Index) Nearest(p model.GeoPoint) (model.RegionLabel, error) {
	if !validCoordinate(p) {
		return model.RegionLabel{}, model.ErrInvalidCoordinate
	}
	if ix.root == nil {
		return model.RegionLabel{}, nil
	}
	qx := p.Lon * ix.lonScale
	qy := p.Lat
	best := &search{dist2: math.Inf(1)}
	nearest(ix.root, qx, qy, 0, best)
	if ix.maxRadius2 > 0 && best.dist2 > ix.maxRadius2 {
		return model.RegionLabel{}, nil
	}
	return best.node.region.Label, nil
}

type search struct {
	node  *node
	dist2 float64
}

// nearest visits the node itself, then the near subtree, then the far subtree
// when the splitting plane could still hide a closer centroid. Candidates are
// accepted only when strictly closer, so an equal-distance tie keeps the first
// node met in this order.
func nearest(n *node, qx, qy float64, depth int, best *search) {
	if n == nil {
		return
	}
	dx := n.x - qx
	dy := n.y - qy
	d2 := dx*dx + dy*dy
	if d2 < best.dist2 {
		best.node = n
		best.dist2 = d2
	}

	axis := depth % 2
	var planeDelta float64
	if axis == 0 {
		planeDelta = qy - n.y
	} else {
		planeDelta = qx - n.x
	}
	near, far := n.left, n.right
	if planeDelta >= 0 {
		near, far = n.right, n.left
	}
	nearest(near, qx, qy, depth+1, best)
	if planeDelta*planeDelta < best.dist2 {
		nearest(far, qx, qy, depth+1, best)
	}
}

func validCoordinate(p model.GeoPoint) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}
