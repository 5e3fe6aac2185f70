// Command streets4mpi runs the traffic simulation engine to completion
// against a synthetic network (no OSM loader is wired in), writing periodic
// snapshots if configured to.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/streets4mpi/streets4mpi/internal/config"
	"github.com/streets4mpi/streets4mpi/internal/driver"
	"github.com/streets4mpi/streets4mpi/internal/logging"
	"github.com/streets4mpi/streets4mpi/internal/mapgen"
	"github.com/streets4mpi/streets4mpi/internal/persistence"
	"github.com/streets4mpi/streets4mpi/internal/streetnet"
)

func main() {
	cfg := config.Default()

	flag.Int64Var(&cfg.RandomSeed, "seed", cfg.RandomSeed, "base PRNG seed")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of parallel workers")
	flag.IntVar(&cfg.NumberOfResidents, "residents", cfg.NumberOfResidents, "total trip count, split evenly across workers")
	flag.IntVar(&cfg.MaxSimulationSteps, "steps", cfg.MaxSimulationSteps, "number of simulation steps to run")
	flag.BoolVar(&cfg.PersistTrafficLoad, "persist", cfg.PersistTrafficLoad, "write street_network_<n> and traffic_load_<n> snapshots")
	flag.StringVar(&cfg.Logging, "logging", cfg.Logging, "\"stdout\" or \"off\"")
	snapshotDir := flag.String("snapshot-dir", "snapshots", "directory for persisted snapshots")
	nodes := flag.Int("nodes", 200, "synthetic network node count (no OSM loader is wired in)")
	httpAddr := flag.String("http-addr", "", "if set, serve persisted snapshots over HTTP on this address after the run completes")
	flag.Parse()

	store, err := run(cfg, *snapshotDir, *nodes)
	if err != nil {
		log.Fatal(err)
	}

	if *httpAddr != "" && store != nil {
		api := &SnapshotAPI{Store: store}
		http.HandleFunc("/api/snapshots/traffic-load", api.GetTrafficLoad)
		http.HandleFunc("/api/snapshots/street-network", api.GetStreetNetwork)
		log.Fatal(http.ListenAndServe(*httpAddr, nil))
	}
}

func run(cfg config.Config, snapshotDir string, nodeCount int) (persistence.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("streets4mpi: %w", err)
	}

	logger := logging.FromConfigValue(cfg.Logging)

	genCfg := mapgen.Config{
		Height:    2000,
		Width:     2000,
		Seed:      cfg.RandomSeed,
		Algorithm: mapgen.AlgoDelaunay,
		N:         nodeCount,
		MaxSpeed:  50,
	}
	network, err := genCfg.Generate()
	if err != nil {
		return nil, fmt.Errorf("streets4mpi: generating synthetic network: %w", err)
	}

	ids := network.NodeIDs()
	origins, goals := ids, ids

	var model streetnet.SpeedModel
	if cfg.SpeedModel == config.SpeedModelPeriodic {
		model = streetnet.PeriodicSpeedModel{
			TrafficPeriodDurationHours: cfg.TrafficPeriodDuration,
			CarLength:                  cfg.CarLength,
			BrakingDeceleration:        cfg.BrakingDeceleration,
		}
	} else {
		model = streetnet.CongestionSpeedModel{
			CarLength:          cfg.CarLength,
			MinBrakingDistance: cfg.MinBrakingDistance,
			BrakingDeceleration: cfg.BrakingDeceleration,
		}
	}

	var store persistence.Store
	if cfg.PersistTrafficLoad {
		fileStore, err := persistence.NewFileStore(snapshotDir)
		if err != nil {
			return nil, fmt.Errorf("streets4mpi: opening snapshot directory: %w", err)
		}
		store = fileStore
	}

	d, err := driver.New(cfg, network, origins, goals, model, store, logger)
	if err != nil {
		return nil, fmt.Errorf("streets4mpi: %w", err)
	}

	if err := d.Run(context.Background()); err != nil {
		return nil, fmt.Errorf("streets4mpi: %w", err)
	}

	logger.Log("simulation complete:", cfg.MaxSimulationSteps, "steps,", cfg.Workers, "workers")
	return store, nil
}
