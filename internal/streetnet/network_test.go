package streetnet_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streets4mpi/streets4mpi/internal/simerrors"
	"github.com/streets4mpi/streets4mpi/internal/streetnet"
)

func triangle(t *testing.T) *streetnet.Network {
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

func TestAddNode_DuplicateRejected(t *testing.T) {
	n := streetnet.New()
	require.NoError(t, n.AddNode(1, 0, 0))
	err := n.AddNode(1, 1, 1)
	assert.ErrorIs(t, err, simerrors.ErrDuplicateNode)
}

func TestAddStreet_RequiresEndpointsAndRejectsDuplicates(t *testing.T) {
	n := streetnet.New()
	require.NoError(t, n.AddNode(1, 0, 0))

	_, err := n.AddStreet(1, 2, 10, 50)
	assert.ErrorIs(t, err, simerrors.ErrPreconditionFailed)

	require.NoError(t, n.AddNode(2, 0, 0))
	_, err = n.AddStreet(1, 2, 10, 50)
	require.NoError(t, err)

	_, err = n.AddStreet(1, 2, 10, 50)
	assert.ErrorIs(t, err, simerrors.ErrPreconditionFailed)
	assert.True(t, n.HasStreet(2, 1), "street lookup must canonicalize (min,max)")
}

func TestStreetIndex_IsBijectionInInsertionOrder(t *testing.T) {
	n := triangle(t)
	assert.Equal(t, 3, n.StreetCount())

	idx, ok := n.GetStreetIndex(1, 2)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = n.GetStreetIndex(3, 2) // unordered lookup must canonicalize too
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	u, v, ok := n.GetStreetByIndex(2)
	require.True(t, ok)
	assert.Equal(t, streetnet.NodeID(1), u)
	assert.Equal(t, streetnet.NodeID(3), v)

	_, _, ok = n.GetStreetByIndex(99)
	assert.False(t, ok)
}

func TestAddStreet_InitialDrivingTimeFromLengthAndSpeed(t *testing.T) {
	n := streetnet.New()
	require.NoError(t, n.AddNode(1, 0, 0))
	require.NoError(t, n.AddNode(2, 0, 0))
	idx, err := n.AddStreet(1, 2, 100, 36) // 36 km/h = 10 m/s
	require.NoError(t, err)

	streets := n.Streets()
	assert.InDelta(t, 10.0, streets[idx].DrivingTime, 1e-9)
}

func TestSetDrivingTime_RejectsNonPositive(t *testing.T) {
	n := triangle(t)
	err := n.SetDrivingTime(0, 0)
	assert.ErrorIs(t, err, simerrors.ErrInvalidWeight)

	err = n.SetDrivingTime(0, -1)
	assert.ErrorIs(t, err, simerrors.ErrInvalidWeight)

	err = n.SetDrivingTime(99, 5)
	assert.ErrorIs(t, err, simerrors.ErrPreconditionFailed)

	require.NoError(t, n.SetDrivingTime(0, 5))
}

func TestChangeMaxSpeed_ClampsAndReportsNoOp(t *testing.T) {
	n := streetnet.New()
	require.NoError(t, n.AddNode(1, 0, 0))
	require.NoError(t, n.AddNode(2, 0, 0))
	idx, err := n.AddStreet(1, 2, 100, 10)
	require.NoError(t, err)

	changed, err := n.ChangeMaxSpeed(idx, -20)
	require.NoError(t, err)
	assert.True(t, changed)
	streets := n.Streets()
	assert.Equal(t, 1, streets[idx].MaxSpeed)

	changed, err = n.ChangeMaxSpeed(idx, -20)
	require.NoError(t, err)
	assert.False(t, changed, "already clamped at floor, delta must be a no-op")

	idx2, err := n.AddStreet(2, 3, 0, 0)
	_ = idx2
	assert.ErrorIs(t, err, simerrors.ErrPreconditionFailed) // node 3 doesn't exist
}

func TestChangeMaxSpeed_ClampsAtCeiling(t *testing.T) {
	n := streetnet.New()
	require.NoError(t, n.AddNode(1, 0, 0))
	require.NoError(t, n.AddNode(2, 0, 0))
	idx, err := n.AddStreet(1, 2, 100, 130)
	require.NoError(t, err)

	changed, err := n.ChangeMaxSpeed(idx, 20)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 140, n.Streets()[idx].MaxSpeed)

	changed, err = n.ChangeMaxSpeed(idx, 20)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestClone_IsIndependent(t *testing.T) {
	n := triangle(t)
	clone := n.Clone()

	require.NoError(t, clone.SetDrivingTime(0, 999))
	original := n.Streets()[0].DrivingTime
	assert.NotEqual(t, 999.0, original)

	changed, err := clone.ChangeMaxSpeed(0, 50)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, clone.Streets()[0].MaxSpeed, n.Streets()[0].MaxSpeed)
}

func TestStreets_OrderedByIndex(t *testing.T) {
	n := triangle(t)
	streets := n.Streets()
	for i, s := range streets {
		assert.Equal(t, i, s.Index)
	}
}

func TestErrorsAreWrapped(t *testing.T) {
	n := streetnet.New()
	err := n.AddNode(1, 0, 0)
	require.NoError(t, err)
	err = n.AddNode(1, 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerrors.ErrDuplicateNode))
}
