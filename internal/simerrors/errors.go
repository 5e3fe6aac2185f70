// Package simerrors defines the sentinel error kinds propagated by the
// simulation core, per the error handling design.
package simerrors

import "errors"

var (
	// ErrDuplicateNode is returned by AddNode when the node id already exists.
	ErrDuplicateNode = errors.New("streetnet: duplicate node")

	// ErrPreconditionFailed covers AddStreet with missing endpoints or a
	// duplicate edge, and setters addressing an unknown street.
	ErrPreconditionFailed = errors.New("streetnet: precondition failed")

	// ErrInvalidWeight is returned by SetDrivingTime for a non-positive time.
	ErrInvalidWeight = errors.New("streetnet: invalid driving time")

	// ErrEmptyCandidateSet is returned by trip generation when either the
	// origin or goal candidate set is empty.
	ErrEmptyCandidateSet = errors.New("trips: empty candidate set")

	// ErrInvalidConfiguration marks an unknown config key or an out-of-range
	// value, surfaced before the simulation starts.
	ErrInvalidConfiguration = errors.New("config: invalid configuration")

	// ErrSnapshotIO marks a persistence read/write failure. Worker 0 surfaces
	// it but the driver may continue running its peers.
	ErrSnapshotIO = errors.New("persistence: snapshot I/O error")
)
