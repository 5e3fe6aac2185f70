package persistence

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/streets4mpi/streets4mpi/internal/simerrors"
	"github.com/streets4mpi/streets4mpi/internal/streetnet"
)

// EncodeArray serializes a u32 array as raw little-endian words, then
// DEFLATE-compresses the result, per §4.4's array payload flavor.
func EncodeArray(values []uint32) ([]byte, error) {
	raw := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[4*i:], v)
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("array codec: %w: %v", simerrors.ErrSnapshotIO, err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("array codec: %w: %v", simerrors.ErrSnapshotIO, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("array codec: %w: %v", simerrors.ErrSnapshotIO, err)
	}
	return buf.Bytes(), nil
}

// DecodeArray reverses EncodeArray.
func DecodeArray(data []byte) ([]uint32, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("array codec: %w: %v", simerrors.ErrSnapshotIO, err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("array codec: truncated payload: %w", simerrors.ErrSnapshotIO)
	}

	values := make([]uint32, len(raw)/4)
	for i := range values {
		values[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return values, nil
}

// networkSnapshot is the object-payload wire format: enough to reconstruct
// every StreetNetwork invariant exactly (nodes with coordinates, edges with
// length/max_speed/driving_time, and the street_index assignment).
type networkSnapshot struct {
	Nodes   []nodeSnapshot
	Streets []streetSnapshot
}

type nodeSnapshot struct {
	ID       streetnet.NodeID
	Lon, Lat float64
}

type streetSnapshot struct {
	U, V        streetnet.NodeID
	Length      float64
	MaxSpeed    int
	DrivingTime float64
}

// EncodeNetwork serializes a StreetNetwork's nodes and streets. Object
// payloads are not compressed (only the array payload is, per §4.4).
func EncodeNetwork(n *streetnet.Network) ([]byte, error) {
	snap := networkSnapshot{}
	for _, id := range n.NodeIDs() {
		lon, lat, _ := n.NodeCoords(id)
		snap.Nodes = append(snap.Nodes, nodeSnapshot{ID: id, Lon: lon, Lat: lat})
	}
	for _, s := range n.Streets() {
		snap.Streets = append(snap.Streets, streetSnapshot{
			U: s.U, V: s.V, Length: s.Length, MaxSpeed: s.MaxSpeed, DrivingTime: s.DrivingTime,
		})
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, fmt.Errorf("network codec: %w: %v", simerrors.ErrSnapshotIO, err)
	}
	return buf.Bytes(), nil
}

// DecodeNetwork reconstructs a StreetNetwork from EncodeNetwork's output.
// Streets are replayed in their original street_index order so the
// reconstructed network's indices exactly match the persisted ones, then
// each street's driving_time is restored verbatim (AddStreet alone would
// recompute it from length and max_speed).
func DecodeNetwork(data []byte) (*streetnet.Network, error) {
	var snap networkSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("network codec: %w: %v", simerrors.ErrSnapshotIO, err)
	}

	n := streetnet.New()
	for _, node := range snap.Nodes {
		if err := n.AddNode(node.ID, node.Lon, node.Lat); err != nil {
			return nil, fmt.Errorf("network codec: %w: %v", simerrors.ErrSnapshotIO, err)
		}
	}
	for _, s := range snap.Streets {
		idx, err := n.AddStreet(s.U, s.V, s.Length, s.MaxSpeed)
		if err != nil {
			return nil, fmt.Errorf("network codec: %w: %v", simerrors.ErrSnapshotIO, err)
		}
		if err := n.SetDrivingTime(idx, s.DrivingTime); err != nil {
			return nil, fmt.Errorf("network codec: %w: %v", simerrors.ErrSnapshotIO, err)
		}
	}
	return n, nil
}
