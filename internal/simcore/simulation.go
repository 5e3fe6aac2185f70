// Package simcore implements the per-step traffic simulation: shortest-path
// routing from each origin, route walk-back to accumulate load, and the
// road-construction policy that periodically rebalances speed limits.
package simcore

import (
	"math"
	"sort"

	"github.com/streets4mpi/streets4mpi/internal/logging"
	"github.com/streets4mpi/streets4mpi/internal/streetnet"
)

// Simulation holds one worker's street network, trip table, jam tolerance,
// and per-edge load arrays. A Simulation owns exactly one StreetNetwork and
// exactly one trip table; it is never shared across workers.
type Simulation struct {
	Network *streetnet.Network
	Trips   map[streetnet.NodeID][]streetnet.NodeID

	JamTolerance float64
	TripVolume   uint32
	SpeedModel   streetnet.SpeedModel

	StepCounter int

	// TrafficLoad is reset to zero during every Step, once the re-weighting
	// has read it, and rebuilt from that step's routing. CumulativeTrafficLoad accumulates across
	// steps until the next RoadConstruction, then is zeroed.
	TrafficLoad           []uint32
	CumulativeTrafficLoad []uint32

	Logger logging.Logger
}

// New constructs a Simulation over network with trips already assigned. The
// traffic load array is sized to the network's current street count and
// starts zeroed.
func New(network *streetnet.Network, tripTable map[streetnet.NodeID][]streetnet.NodeID, jamTolerance float64, tripVolume uint32, model streetnet.SpeedModel, logger logging.Logger) *Simulation {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Simulation{
		Network:      network,
		Trips:        tripTable,
		JamTolerance: jamTolerance,
		TripVolume:   tripVolume,
		SpeedModel:   model,
		TrafficLoad:  make([]uint32, network.StreetCount()),
		Logger:       logger,
	}
}

// Step re-weights every street from the traffic load of the previous step,
// resets the load, then re-routes every trip and accumulates new load.
func (s *Simulation) Step() error {
	s.StepCounter++
	s.Logger.Log("Preparing edges...")

	streets := s.Network.Streets()
	for _, st := range streets {
		load := uint32(0)
		if st.Index < len(s.TrafficLoad) {
			load = s.TrafficLoad[st.Index]
		}

		idealSpeed := s.SpeedModel.Speed(st.Length, st.MaxSpeed, 0)
		actualSpeed := s.SpeedModel.Speed(st.Length, st.MaxSpeed, load)
		perceivedSpeed := actualSpeed + (idealSpeed-actualSpeed)*s.JamTolerance

		drivingTime := st.Length / (perceivedSpeed * (1000.0 / 3600.0))
		if err := s.Network.SetDrivingTime(st.Index, drivingTime); err != nil {
			return err
		}
	}

	s.TrafficLoad = make([]uint32, s.Network.StreetCount())

	s.Logger.Log("Number of trips is", len(s.Trips))
	for origin, goals := range s.Trips {
		preds, err := s.Network.ShortestPathsFrom(origin)
		if err != nil {
			continue // origin not present in this worker's network copy
		}

		for _, goal := range goals {
			if _, reachable := preds[goal]; !reachable && goal != origin {
				continue
			}

			current := goal
			for current != origin {
				pred, ok := preds[current]
				if !ok {
					break
				}
				idx, ok := s.Network.GetStreetIndex(current, pred)
				if ok && idx < len(s.TrafficLoad) {
					s.TrafficLoad[idx] += s.TripVolume
				}
				current = pred
			}
		}
	}

	return nil
}

// FoldTotal is called by the driver once per step with the elementwise sum
// of every worker's TrafficLoad. The worker replaces its own load with the
// total (so the next re-weighting sees global congestion) and accumulates
// the total into CumulativeTrafficLoad, creating it zero-initialized on
// first use.
func (s *Simulation) FoldTotal(total []uint32) {
	s.TrafficLoad = append([]uint32(nil), total...)

	if s.CumulativeTrafficLoad == nil {
		s.CumulativeTrafficLoad = make([]uint32, len(total))
	}
	for i, v := range total {
		if i < len(s.CumulativeTrafficLoad) {
			s.CumulativeTrafficLoad[i] += v
		}
	}
}

// RoadConstruction ranks streets by cumulative load, lowers the speed limit
// of the bottom 15% by 20 km/h and raises that of the top 5% by 20 km/h,
// then zeros the cumulative load. Both
// cutoffs move toward each other and the loop terminates the moment they
// cross, so a saturated network (every candidate clamped to a no-op) cannot
// loop forever.
func (s *Simulation) RoadConstruction() error {
	n := len(s.CumulativeTrafficLoad)
	if n == 0 {
		return nil
	}

	rank := make([]int, n)
	for i := range rank {
		rank[i] = i
	}
	sort.SliceStable(rank, func(i, j int) bool {
		return s.CumulativeTrafficLoad[rank[i]] < s.CumulativeTrafficLoad[rank[j]]
	})

	decreaseCutoff := int(math.Floor(0.15 * float64(n)))
	increaseCutoff := int(math.Floor(0.95 * float64(n)))

	for i := 0; decreaseCutoff < increaseCutoff; i++ {
		if i >= n {
			break
		}
		if i <= decreaseCutoff {
			changed, err := s.Network.ChangeMaxSpeed(rank[i], -20)
			if err != nil {
				return err
			}
			if !changed {
				decreaseCutoff++
			}
		}

		j := n - i - 1
		if j >= increaseCutoff {
			changed, err := s.Network.ChangeMaxSpeed(rank[j], 20)
			if err != nil {
				return err
			}
			if !changed {
				increaseCutoff--
			}
		}

		if decreaseCutoff >= increaseCutoff {
			break
		}
	}

	s.CumulativeTrafficLoad = make([]uint32, n)
	return nil
}
