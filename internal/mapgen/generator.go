// Package mapgen builds synthetic StreetNetwork instances for tests,
// benchmarks, and ad-hoc runs that have no real OSM source wired in. It
// adapts the teacher's random geometric graph, k-nearest-neighbor, and
// Delaunay triangulation generators to emit streetnet.Network values with
// length-weighted streets instead of a bare connection list.
package mapgen

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/fogleman/delaunay"
	"github.com/google/uuid"

	"github.com/streets4mpi/streets4mpi/internal/streetnet"
)

// RadiusMode controls how generously RandomGeometricGraph connects nodes.
type RadiusMode int

const (
	Sparse RadiusMode = iota
	Connected
)

// Algorithm selects which synthetic generator Config.Generate runs.
type Algorithm string

const (
	AlgoRGG      Algorithm = "rgg"
	AlgoKNN      Algorithm = "knn"
	AlgoDelaunay Algorithm = "delaunay"
)

// Config parameterizes a synthetic network build. Bounds are treated as
// longitude/latitude-scaled coordinates so the resulting network can be fed
// straight into the same code paths a real OSM-derived network would use.
type Config struct {
	Height    float64
	Width     float64
	Seed      int64
	Algorithm Algorithm
	N         int
	K         int
	MaxSpeed  int

	RadiusMode RadiusMode
}

// Generate dispatches to the configured algorithm.
func (cfg Config) Generate() (*streetnet.Network, error) {
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)))

	switch cfg.Algorithm {
	case AlgoRGG:
		return RandomGeometricGraph(cfg.N, cfg.Height, cfg.Width, cfg.RadiusMode, cfg.MaxSpeed, rng)
	case AlgoKNN:
		return KNNGraph(cfg.N, cfg.Height, cfg.Width, cfg.K, cfg.MaxSpeed, rng)
	case AlgoDelaunay:
		return DelaunayGraph(cfg.N, cfg.Height, cfg.Width, cfg.MaxSpeed, rng)
	default:
		return nil, fmt.Errorf("mapgen: unknown algorithm %q", cfg.Algorithm)
	}
}

type point struct {
	id  streetnet.NodeID
	lon float64
	lat float64
}

// RandomGeometricGraph places N points uniformly and connects every pair
// within a radius derived from OptimalRadius, widened or narrowed per mode.
func RandomGeometricGraph(n int, height, width float64, mode RadiusMode, maxSpeed int, rng *rand.Rand) (*streetnet.Network, error) {
	pts, err := generatePoints(n, height, width, rng)
	if err != nil {
		return nil, err
	}

	area := height * width
	r := OptimalRadius(n, area)
	switch mode {
	case Sparse:
		r *= 0.6
	case Connected:
		r *= 1.4
	}

	net := streetnet.New()
	if err := addNodes(net, pts); err != nil {
		return nil, err
	}

	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			d := distance(pts[i], pts[j])
			if d <= r {
				if err := addStreetIfAbsent(net, pts[i].id, pts[j].id, d, maxSpeed); err != nil {
					return nil, err
				}
			}
		}
	}

	return net, nil
}

// KNNGraph connects every point to its K nearest neighbors.
func KNNGraph(n int, height, width float64, k int, maxSpeed int, rng *rand.Rand) (*streetnet.Network, error) {
	pts, err := generatePoints(n, height, width, rng)
	if err != nil {
		return nil, err
	}

	net := streetnet.New()
	if err := addNodes(net, pts); err != nil {
		return nil, err
	}

	for i, cur := range pts {
		type neighborDist struct {
			idx  int
			dist float64
		}
		dists := make([]neighborDist, 0, len(pts)-1)
		for j, other := range pts {
			if i == j {
				continue
			}
			dists = append(dists, neighborDist{idx: j, dist: distance(cur, other)})
		}
		sort.Slice(dists, func(a, b int) bool { return dists[a].dist < dists[b].dist })

		limit := k
		if limit > len(dists) {
			limit = len(dists)
		}
		for x := 0; x < limit; x++ {
			other := pts[dists[x].idx]
			if err := addStreetIfAbsent(net, cur.id, other.id, dists[x].dist, maxSpeed); err != nil {
				return nil, err
			}
		}
	}

	return net, nil
}

// DelaunayGraph triangulates the point set and keeps every triangle edge.
func DelaunayGraph(n int, height, width float64, maxSpeed int, rng *rand.Rand) (*streetnet.Network, error) {
	pts, err := generatePoints(n, height, width, rng)
	if err != nil {
		return nil, err
	}

	dpoints := make([]delaunay.Point, len(pts))
	for i, p := range pts {
		dpoints[i] = delaunay.Point{X: p.lon, Y: p.lat}
	}

	tri, err := delaunay.Triangulate(dpoints)
	if err != nil {
		return nil, fmt.Errorf("mapgen: triangulation failed: %w", err)
	}

	net := streetnet.New()
	if err := addNodes(net, pts); err != nil {
		return nil, err
	}

	seen := make(map[[2]int]bool)
	addEdge := func(a, b int) error {
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		if seen[key] {
			return nil
		}
		seen[key] = true
		return addStreetIfAbsent(net, pts[a].id, pts[b].id, distance(pts[a], pts[b]), maxSpeed)
	}

	for i := 0; i+2 < len(tri.Triangles); i += 3 {
		a, b, c := tri.Triangles[i], tri.Triangles[i+1], tri.Triangles[i+2]
		if err := addEdge(a, b); err != nil {
			return nil, err
		}
		if err := addEdge(b, c); err != nil {
			return nil, err
		}
		if err := addEdge(c, a); err != nil {
			return nil, err
		}
	}

	return net, nil
}

// OptimalRadius computes the connectivity-threshold radius for a random
// geometric graph of N points over the given area (Penrose's formula).
func OptimalRadius(n int, area float64) float64 {
	if n <= 1 {
		return 0
	}
	d := math.Log(float64(n))
	return math.Sqrt((d * area) / (math.Pi * float64(n)))
}

func generatePoints(n int, height, width float64, rng *rand.Rand) ([]point, error) {
	pts := make([]point, n)
	for i := 0; i < n; i++ {
		pts[i] = point{
			id:  nodeIDFromUUID(uuid.New()),
			lon: rng.Float64() * width,
			lat: rng.Float64() * height,
		}
	}
	return pts, nil
}

// nodeIDFromUUID folds a freshly minted uuid down to a non-zero int64 so
// synthetic networks get opaque, collision-resistant node ids without the
// caller having to track a real OSM node-id space.
func nodeIDFromUUID(id uuid.UUID) streetnet.NodeID {
	v := int64(binary.BigEndian.Uint64(id[:8]))
	if v < 0 {
		v = -v
	}
	if v == 0 {
		v = 1
	}
	return streetnet.NodeID(v)
}

func addNodes(net *streetnet.Network, pts []point) error {
	for _, p := range pts {
		if err := net.AddNode(p.id, p.lon, p.lat); err != nil {
			return fmt.Errorf("mapgen: %w", err)
		}
	}
	return nil
}

func addStreetIfAbsent(net *streetnet.Network, a, b streetnet.NodeID, length float64, maxSpeed int) error {
	if net.HasStreet(a, b) || length <= 0 {
		return nil
	}
	_, err := net.AddStreet(a, b, length, maxSpeed)
	if err != nil {
		return fmt.Errorf("mapgen: %w", err)
	}
	return nil
}

func distance(a, b point) float64 {
	dx := a.lon - b.lon
	dy := a.lat - b.lat
	return math.Sqrt(dx*dx + dy*dy)
}
