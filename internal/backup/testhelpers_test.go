package backup

import (
	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/particle"
	"github.com/jhsa24/randomwalk/internal/store"
)

// lineageFixture is a root that walks two steps and branches once.
func lineageFixture(x float64) *lineage.Store {
	s := lineage.NewStore()
	root := s.AddRoot(particle.New(particle.Point{X: x}, 0), 2)
	for range 2 {
		w := s.Walker(root)
		w.Move(1)
		w.Iteration++
		s.Record(root)
	}
	s.Kill(root)
	s.Branch(root, 0.5, 0.5, lineage.NoDeadline, lineage.NoDeadline)
	return s
}

func testCollection(name string) *store.Collection {
	return &store.Collection{
		Name:    name,
		Config:  "simulation:\n  steps: 2\n",
		Samples: []*lineage.Store{lineageFixture(0), lineageFixture(10)},
	}
}
