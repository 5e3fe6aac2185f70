package streetnet

import (
	"container/heap"
	"fmt"

	"github.com/streets4mpi/streets4mpi/internal/simerrors"
)

// pqItem is one entry in the Dijkstra frontier: a candidate node at a given
// tentative distance. Ties on distance are broken by node id so that
// ShortestPathsFrom is deterministic regardless of heap internals.
type pqItem struct {
	nodeIdx int
	nodeID  NodeID
	dist    float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].nodeID < pq[j].nodeID
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)   { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// ShortestPathsFrom computes single-source shortest paths from source using
// the network's current driving_time weights. It returns a predecessor map:
// for every node reachable from source (other than source itself), the
// immediate predecessor on a minimum-weight path. source is never a key of
// the result. Ties between equal-weight candidates are broken by node id,
// keeping the result identical across workers holding identical networks.
func (n *Network) ShortestPathsFrom(source NodeID) (map[NodeID]NodeID, error) {
	srcIdx, ok := n.nodeIndex[source]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", source, simerrors.ErrPreconditionFailed)
	}

	const inf = 1<<63 - 1
	dist := make([]float64, len(n.nodes))
	pred := make([]int, len(n.nodes))
	visited := make([]bool, len(n.nodes))
	for i := range dist {
		dist[i] = inf
		pred[i] = -1
	}
	dist[srcIdx] = 0

	pq := &priorityQueue{{nodeIdx: srcIdx, nodeID: source, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.nodeIdx] {
			continue
		}
		visited[cur.nodeIdx] = true

		for _, nb := range n.adj[cur.nodeIdx] {
			if visited[nb.nodeIdx] {
				continue
			}
			weight := n.streets[nb.streetIdx].drivingTime
			nd := dist[cur.nodeIdx] + weight
			if nd < dist[nb.nodeIdx] {
				dist[nb.nodeIdx] = nd
				pred[nb.nodeIdx] = cur.nodeIdx
				heap.Push(pq, pqItem{nodeIdx: nb.nodeIdx, nodeID: n.nodes[nb.nodeIdx].ID, dist: nd})
			}
		}
	}

	result := make(map[NodeID]NodeID, len(n.nodes))
	for idx, node := range n.nodes {
		if idx == srcIdx || pred[idx] == -1 {
			continue
		}
		result[node.ID] = n.nodes[pred[idx]].ID
	}
	return result, nil
}
