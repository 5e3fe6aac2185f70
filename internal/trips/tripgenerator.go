// Package trips builds the origin-to-goals trip table by uniform
// independent sampling from candidate node sets, matching TripGenerator in
// the reference implementation.
package trips

import (
	"fmt"
	"math/rand/v2"

	"github.com/streets4mpi/streets4mpi/internal/simerrors"
	"github.com/streets4mpi/streets4mpi/internal/streetnet"
)

// Generate draws n samples, each an independent (origin, goal) pair chosen
// uniformly with replacement from origins and goals respectively, and groups
// goals under their origin in the order they were drawn. Either candidate
// set being empty is an ErrEmptyCandidateSet.
func Generate(n int, origins, goals []streetnet.NodeID, rng *rand.Rand) (map[streetnet.NodeID][]streetnet.NodeID, error) {
	if len(origins) == 0 || len(goals) == 0 {
		return nil, fmt.Errorf("origins=%d goals=%d: %w", len(origins), len(goals), simerrors.ErrEmptyCandidateSet)
	}

	trips := make(map[streetnet.NodeID][]streetnet.NodeID)
	for i := 0; i < n; i++ {
		origin := origins[rng.IntN(len(origins))]
		goal := goals[rng.IntN(len(goals))]
		trips[origin] = append(trips[origin], goal)
	}
	return trips, nil
}
