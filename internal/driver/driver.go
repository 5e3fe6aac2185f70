// Package driver implements the bulk-synchronous parallel coordination
// described in spec.md §4.5: W independent workers, each stepping its own
// Simulation, synchronized once per step at an elementwise-sum barrier.
package driver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/streets4mpi/streets4mpi/internal/config"
	"github.com/streets4mpi/streets4mpi/internal/logging"
	"github.com/streets4mpi/streets4mpi/internal/persistence"
	"github.com/streets4mpi/streets4mpi/internal/streetnet"
)

// Driver owns W workers and the shared persistence store. Every worker
// mutates its own StreetNetwork copy; the Driver never mutates a worker's
// network and only reads worker 0's network to persist it.
type Driver struct {
	workers []*worker
	cfg     config.Config
	store   persistence.Store
	logger  logging.Logger

	// Totals records the reduced per-edge load array from every step, in
	// order. Exists so callers (and the determinism test) can compare
	// aggregated totals across runs without threading a persistence.Store
	// through just for inspection.
	Totals [][]uint32
}

// New builds W workers over independent clones of network, each seeded per
// spec.md's base_seed + 37*worker_id rule and given number_of_residents/W
// trips drawn from origins/goals.
func New(cfg config.Config, network *streetnet.Network, origins, goals []streetnet.NodeID, model streetnet.SpeedModel, store persistence.Store, logger logging.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	tripsPerWorker := cfg.NumberOfResidents / cfg.Workers

	workers := make([]*worker, cfg.Workers)
	for w := 0; w < cfg.Workers; w++ {
		ww, err := newWorker(w, network, origins, goals, tripsPerWorker, cfg, model, logger)
		if err != nil {
			return nil, fmt.Errorf("driver: initializing worker %d: %w", w, err)
		}
		workers[w] = ww
	}

	return &Driver{workers: workers, cfg: cfg, store: store, logger: logger}, nil
}

// Run drives the simulation for cfg.MaxSimulationSteps steps: step, reduce,
// fold, and (on the configured cadence) road construction, matching the data
// flow in spec.md §2 and the state machine in §4.5.
func (d *Driver) Run(ctx context.Context) error {
	streetCount := 0
	if len(d.workers) > 0 {
		streetCount = len(d.workers[0].sim.TrafficLoad)
	}

	for step := 0; step < d.cfg.MaxSimulationSteps; step++ {
		if err := d.runPhase(ctx, func(w *worker) error {
			return w.sim.Step()
		}); err != nil {
			return fmt.Errorf("driver: step %d: %w", step, err)
		}

		total := make([]uint32, streetCount)
		for _, w := range d.workers {
			for i, load := range w.sim.TrafficLoad {
				if i < len(total) {
					total[i] += load
				}
			}
		}

		if err := d.runPhase(ctx, func(w *worker) error {
			w.sim.FoldTotal(total)
			return nil
		}); err != nil {
			return fmt.Errorf("driver: fold %d: %w", step, err)
		}
		d.Totals = append(d.Totals, total)

		if step > 0 && d.cfg.StepsBetweenStreetConstruction > 0 && step%d.cfg.StepsBetweenStreetConstruction == 0 {
			if err := d.runPhase(ctx, func(w *worker) error {
				return w.sim.RoadConstruction()
			}); err != nil {
				return fmt.Errorf("driver: road construction %d: %w", step, err)
			}
		}

		if d.cfg.PersistTrafficLoad && len(d.workers) > 0 && d.store != nil {
			if err := d.persist(step+1, total); err != nil {
				d.logger.Log("persist failed at step", step+1, ":", err)
			}
		}
	}

	return nil
}

// runPhase fans a phase function out across every worker concurrently and
// waits for all of them, per the BSP barrier described in spec.md §5: no
// worker may begin the next phase before every worker has finished this one.
// Every worker finishes the phase; the first worker error is then returned
// and Run stops without starting another phase (graph/weight errors are
// fatal). Workers do not observe the group's context, so a failing worker
// does not interrupt its peers mid-phase.
func (d *Driver) runPhase(ctx context.Context, fn func(*worker) error) error {
	g, _ := errgroup.WithContext(ctx)
	for _, w := range d.workers {
		w := w
		g.Go(func() error {
			return fn(w)
		})
	}
	return g.Wait()
}

func (d *Driver) persist(step int, total []uint32) error {
	loadPayload, err := persistence.EncodeArray(total)
	if err != nil {
		return err
	}
	if err := d.store.Write(persistence.TrafficLoadKey(step), loadPayload); err != nil {
		return err
	}

	netPayload, err := persistence.EncodeNetwork(d.workers[0].sim.Network)
	if err != nil {
		return err
	}
	return d.store.Write(persistence.StreetNetworkKey(step), netPayload)
}
