package geometry

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/twpayne/go-geom"
)

// Distance returns the distance between a and b. Geodesic distances are
// great-circle meters between [lon, lat] coordinates; planar distances are
// Euclidean in the coordinate unit.
func Distance(a, b geom.Coord, metric Metric) float64 {
	if metric == MetricPlanar {
		return math.Hypot(b[0]-a[0], b[1]-a[1])
	}
	la := s2.LatLngFromDegrees(a[1], a[0])
	lb := s2.LatLngFromDegrees(b[1], b[0])
	return la.Distance(lb).Radians() * EarthRadius
}

// NearestAmong returns the index of, and distance to, the candidate closest
// to p. The candidate at index skip is ignored, which lets a point search its
// own collection without matching itself; pass -1 to consider every
// candidate. Ties resolve to the lowest index. It returns -1 when there is
// nothing to compare against.
func NearestAmong(p geom.Coord, candidates []geom.Coord, skip int, metric Metric) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i, c := range candidates {
		if i == skip {
			continue
		}
		if d := Distance(p, c, metric); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
