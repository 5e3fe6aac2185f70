package driver

import (
	"math/rand/v2"

	"github.com/streets4mpi/streets4mpi/internal/config"
	"github.com/streets4mpi/streets4mpi/internal/logging"
	"github.com/streets4mpi/streets4mpi/internal/simcore"
	"github.com/streets4mpi/streets4mpi/internal/streetnet"
	"github.com/streets4mpi/streets4mpi/internal/trips"
)

// worker is one of the Driver's W independent simulation shards. It owns its
// own StreetNetwork copy (never shared with any other worker) and its own
// Simulation built over a seeded slice of the resident population.
type worker struct {
	id  int
	sim *simcore.Simulation
}

// newWorker clones network, seeds a PRNG with baseSeed+37*id (per the
// per-worker seed rule), draws that worker's jam tolerance from the same
// seed, and generates its share of the trip table.
func newWorker(id int, network *streetnet.Network, origins, goals []streetnet.NodeID, tripsPerWorker int, cfg config.Config, model streetnet.SpeedModel, logger logging.Logger) (*worker, error) {
	seed := cfg.RandomSeed + 37*int64(id)
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))

	jamTolerance := rng.Float64()

	tripTable, err := trips.Generate(tripsPerWorker, origins, goals, rng)
	if err != nil {
		return nil, err
	}

	netCopy := network.Clone()
	sim := simcore.New(netCopy, tripTable, jamTolerance, cfg.TripVolume, model, logger)

	return &worker{id: id, sim: sim}, nil
}
