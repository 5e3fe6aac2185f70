package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/streets4mpi/streets4mpi/internal/persistence"
)

// SnapshotAPI exposes the snapshots a completed (or in-progress, for
// already-written steps) run has persisted through a Store. It serves the
// same purpose the teacher's SimulationAPI served for its in-memory vehicle
// engine, but over durable snapshots rather than live engine state, since
// the simulation core itself has no network-facing surface.
type SnapshotAPI struct {
	Store persistence.Store
}

func (api *SnapshotAPI) GetTrafficLoad(w http.ResponseWriter, r *http.Request) {
	step, err := stepParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := api.Store.Read(persistence.TrafficLoadKey(step))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	loads, err := persistence.DecodeArray(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{"step": step, "traffic_load": loads})
}

func (api *SnapshotAPI) GetStreetNetwork(w http.ResponseWriter, r *http.Request) {
	step, err := stepParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := api.Store.Read(persistence.StreetNetworkKey(step))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	network, err := persistence.DecodeNetwork(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"step":         step,
		"node_count":   len(network.NodeIDs()),
		"street_count": network.StreetCount(),
		"streets":      network.Streets(),
	})
}

func stepParam(r *http.Request) (int, error) {
	return strconv.Atoi(r.URL.Query().Get("step"))
}
