package epa

import "container/heap"

// faceQueue is a min-heap of face indices ordered by the distance stored in the arena.
// Faces marked obsolete after being queued are skipped when popped.
type faceQueue struct {
	items []int
	faces *[]Face
}

func (q *faceQueue) Len() int { return len(q.items) }

func (q *faceQueue) Less(i, j int) bool {
	faces := *q.faces
	return faces[q.items[i]].Distance < faces[q.items[j]].Distance
}

func (q *faceQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *faceQueue) Push(x any) {
	q.items = append(q.items, x.(int))
}

func (q *faceQueue) Pop() any {
	n := len(q.items)
	item := q.items[n-1]
	q.items = q.items[:n-1]
	return item
}

func (q *faceQueue) reset(faces *[]Face) {
	q.items = q.items[:0]
	q.faces = faces
}

func (q *faceQueue) push(index int) {
	heap.Push(q, index)
}

// popLive returns the closest face that is still part of the polytope.
func (q *faceQueue) popLive() (int, bool) {
	for q.Len() > 0 {
		index := heap.Pop(q).(int)
		if !(*q.faces)[index].Obsolete {
			return index, true
		}
	}
	return -1, false
}
