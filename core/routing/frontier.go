package routing

import "github.com/kilianp07/ridedispatch/core/model"

type frontierItem struct {
	node model.NodeID
	dist float64
}

// frontier is a binary min-heap keyed by tentative distance. It may hold
// several entries for one node; superseded entries are skipped by the search.
type frontier []frontierItem

func (f frontier) Len() int           { return len(f) }
func (f frontier) Less(i, j int) bool { return f[i].dist < f[j].dist }
func (f frontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) {
	*f = append(*f, x.(frontierItem))
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}
