package nnindex

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"

	"github.com/sells-group/pointpattern/internal/geometry"
)

// SearchOptions tunes MeanNearestDistance.
type SearchOptions struct {
	Metric geometry.Metric
	// Workers is the number of goroutines; values below 2 search serially.
	Workers int
	// IndexThreshold enables a quadtree for planar searches of at least
	// this many points. Zero disables it.
	IndexThreshold int
}

// nearestFunc returns the distance from points[i] to its nearest other point.
type nearestFunc func(i int) float64

// MeanNearestDistance returns the arithmetic mean, over all points, of the
// distance to the nearest other point. A point is excluded from its own
// search by position, so duplicate coordinates are each other's zero-distance
// neighbours. Distances are in meters (geodesic) or coordinate units
// (planar).
//
// Per-point distances are summed in input order, so the result does not
// depend on Workers.
func MeanNearestDistance(ctx context.Context, points []geom.Coord, opts SearchOptions) (float64, error) {
	n := len(points)
	if n < 2 {
		return 0, eris.Wrapf(ErrInvalidInput, "need at least 2 points, got %d", n)
	}

	nearest, strategy, err := newNearestFunc(points, opts)
	if err != nil {
		return 0, err
	}

	zap.L().Debug("nnindex: nearest neighbour search",
		zap.Int("points", n),
		zap.String("strategy", strategy),
		zap.Int("workers", opts.Workers),
	)

	dists := make([]float64, n)
	if err := fill(ctx, dists, opts.Workers, nearest); err != nil {
		return 0, err
	}

	var sum float64
	for _, d := range dists {
		sum += d
	}
	return sum / float64(n), nil
}

func newNearestFunc(points []geom.Coord, opts SearchOptions) (nearestFunc, string, error) {
	if opts.Metric == geometry.MetricPlanar && opts.IndexThreshold > 0 && len(points) >= opts.IndexThreshold {
		fn, err := quadtreeNearest(points, opts.Metric)
		if err != nil {
			return nil, "", err
		}
		return fn, "quadtree", nil
	}
	return func(i int) float64 {
		_, d := geometry.NearestAmong(points[i], points, i, opts.Metric)
		return d
	}, "brute_force", nil
}

// fill computes dists[i] = nearest(i), splitting the index range into
// contiguous chunks when workers > 1.
func fill(ctx context.Context, dists []float64, workers int, nearest nearestFunc) error {
	n := len(dists)
	if workers < 2 {
		for i := range dists {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return eris.Wrap(err, "nnindex: nearest search")
				}
			}
			dists[i] = nearest(i)
		}
		return nil
	}

	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		lo, hi := start, min(start+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if (i-lo)%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				dists[i] = nearest(i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "nnindex: nearest search")
	}
	return nil
}

// indexedPoint is a quadtree entry that remembers its input position.
type indexedPoint struct {
	idx int
	pt  orb.Point
}

func (p indexedPoint) Point() orb.Point { return p.pt }

func quadtreeNearest(points []geom.Coord, metric geometry.Metric) (nearestFunc, error) {
	bound := orb.Bound{
		Min: orb.Point{points[0][0], points[0][1]},
		Max: orb.Point{points[0][0], points[0][1]},
	}
	for _, c := range points[1:] {
		bound = bound.Extend(orb.Point{c[0], c[1]})
	}

	qt := quadtree.New(bound)
	for i, c := range points {
		if err := qt.Add(indexedPoint{idx: i, pt: orb.Point{c[0], c[1]}}); err != nil {
			return nil, eris.Wrapf(err, "nnindex: index point %d", i)
		}
	}

	return func(i int) float64 {
		self := i
		found := qt.Matching(orb.Point{points[i][0], points[i][1]}, func(p orb.Pointer) bool {
			return p.(indexedPoint).idx != self
		})
		return geometry.Distance(points[i], points[found.(indexedPoint).idx], metric)
	}, nil
}
