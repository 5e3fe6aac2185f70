package simcore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streets4mpi/streets4mpi/internal/simcore"
	"github.com/streets4mpi/streets4mpi/internal/streetnet"
)

func triangleNetwork(t *testing.T) *streetnet.Network {
	t.Helper()
	n := streetnet.New()
	require.NoError(t, n.AddNode(1, 0, 0))
	require.NoError(t, n.AddNode(2, 0, 0))
	require.NoError(t, n.AddNode(3, 0, 0))
	_, err := n.AddStreet(1, 2, 10, 50)
	require.NoError(t, err)
	_, err = n.AddStreet(2, 3, 100, 140)
	require.NoError(t, err)
	_, err = n.AddStreet(1, 3, 200, 50)
	require.NoError(t, err)
	return n
}

// TestStep_TriangleNoCongestion matches spec scenario 1: with jam_tolerance=1
// (routes as if roads were empty), 1->3 should use (1,2)+(2,3), not (1,3).
func TestStep_TriangleNoCongestion(t *testing.T) {
	n := triangleNetwork(t)
	sim := simcore.New(n, map[int64][]int64{1: {3}}, 1.0, 1, streetnet.DefaultCongestionSpeedModel(), nil)

	require.NoError(t, sim.Step())

	idx12, _ := n.GetStreetIndex(1, 2)
	idx23, _ := n.GetStreetIndex(2, 3)
	idx13, _ := n.GetStreetIndex(1, 3)

	assert.Equal(t, uint32(1), sim.TrafficLoad[idx12])
	assert.Equal(t, uint32(1), sim.TrafficLoad[idx23])
	assert.Equal(t, uint32(0), sim.TrafficLoad[idx13])
}

func TestStep_EmptyTripTableIsNoOp(t *testing.T) {
	n := triangleNetwork(t)
	sim := simcore.New(n, map[int64][]int64{}, 0.5, 1, streetnet.DefaultCongestionSpeedModel(), nil)

	require.NoError(t, sim.Step())

	for _, load := range sim.TrafficLoad {
		assert.Equal(t, uint32(0), load)
	}
}

func TestStep_UnreachableGoalIsSkippedNotError(t *testing.T) {
	n := streetnet.New()
	require.NoError(t, n.AddNode(1, 0, 0))
	require.NoError(t, n.AddNode(2, 0, 0)) // disconnected from 1

	sim := simcore.New(n, map[int64][]int64{1: {2}}, 1.0, 1, streetnet.DefaultCongestionSpeedModel(), nil)
	require.NoError(t, sim.Step())
	assert.Empty(t, sim.TrafficLoad, "no streets exist at all, array is just empty")
}

// TestStep_CongestionCanRerouteWhenJamIntolerant matches spec scenario 2:
// after heavy load, the alternative (1,3) edge can become faster once
// jam_tolerance=0 makes routing sensitive to actual congested speed.
func TestStep_CongestionCanRerouteWhenJamIntolerant(t *testing.T) {
	n := triangleNetwork(t)
	trips := make(map[int64][]int64)
	for i := 0; i < 100; i++ {
		trips[1] = append(trips[1], 3)
	}
	sim := simcore.New(n, trips, 0.0, 1, streetnet.DefaultCongestionSpeedModel(), nil)

	require.NoError(t, sim.Step())
	idx12, _ := n.GetStreetIndex(1, 2)
	idx23, _ := n.GetStreetIndex(2, 3)
	assert.Equal(t, uint32(100), sim.TrafficLoad[idx12])
	assert.Equal(t, uint32(100), sim.TrafficLoad[idx23])

	require.NoError(t, sim.Step())
	idx13, _ := n.GetStreetIndex(1, 3)
	total := sim.TrafficLoad[idx12] + sim.TrafficLoad[idx23] + sim.TrafficLoad[idx13]
	// All 100 identical trips still take a single (now possibly different)
	// shortest path each step: either the two-hop or the one-hop route.
	assert.Contains(t, []uint32{100, 200}, total)
}

func TestFoldTotal_ReplacesLoadAndAccumulates(t *testing.T) {
	n := triangleNetwork(t)
	sim := simcore.New(n, nil, 0.5, 1, streetnet.DefaultCongestionSpeedModel(), nil)

	total1 := []uint32{1, 2, 3}
	sim.FoldTotal(total1)
	assert.Equal(t, total1, sim.TrafficLoad)
	assert.Equal(t, total1, sim.CumulativeTrafficLoad)

	total2 := []uint32{4, 5, 6}
	sim.FoldTotal(total2)
	assert.Equal(t, total2, sim.TrafficLoad)
	assert.Equal(t, []uint32{5, 7, 9}, sim.CumulativeTrafficLoad)
}

// TestRoadConstruction_BottomAndTopPercentiles matches spec scenario 4: N=20
// streets, the 4 lowest-ranked (ranks 0..3, up to and including the bottom
// 15% cutoff) decreased and 1 in the top 5% increased, then cumulative load
// is zeroed.
func TestRoadConstruction_BottomAndTopPercentiles(t *testing.T) {
	n := streetnet.New()
	for i := int64(0); i < 21; i++ {
		require.NoError(t, n.AddNode(i, 0, 0))
	}
	for i := int64(0); i < 20; i++ {
		_, err := n.AddStreet(i, i+1, 100, 100)
		require.NoError(t, err)
	}

	sim := simcore.New(n, nil, 0.5, 1, streetnet.DefaultCongestionSpeedModel(), nil)
	cumulative := make([]uint32, 20)
	for i := range cumulative {
		cumulative[i] = uint32(i) // strictly increasing: rank == index
	}
	sim.CumulativeTrafficLoad = cumulative

	before := make([]int, 20)
	for i, s := range n.Streets() {
		before[i] = s.MaxSpeed
	}

	require.NoError(t, sim.RoadConstruction())

	after := n.Streets()
	decreased, increased := 0, 0
	for i := 0; i < 20; i++ {
		switch {
		case after[i].MaxSpeed < before[i]:
			decreased++
		case after[i].MaxSpeed > before[i]:
			increased++
		}
	}
	assert.Equal(t, 4, decreased, "bottom 15% of 20 streets: i <= floor(0.15*20)=3 covers ranks 0..3")
	assert.Equal(t, 1, increased, "top 5% of 20 streets: j >= floor(0.95*20)=19 covers only rank 19")

	for _, v := range sim.CumulativeTrafficLoad {
		assert.Equal(t, uint32(0), v)
	}
}

func TestRoadConstruction_EmptyCumulativeIsNoOp(t *testing.T) {
	n := triangleNetwork(t)
	sim := simcore.New(n, nil, 0.5, 1, streetnet.DefaultCongestionSpeedModel(), nil)
	assert.NoError(t, sim.RoadConstruction())
}
