package planner

import (
	"sort"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/step"
	metroerrors "github.com/metropipe/metropipe/pkg/errors"
)

// BottomName is the synthetic no-prerequisite node every feasible artifact
// must trace back to through its required-input ancestry.
const BottomName = "⊥"

// Node is a vertex in the build graph: an artifact class name, or the
// bottom sentinel. Producer is the defined Step producing the artifact,
// nil for the sentinel and for external input files supplied by the user.
type Node struct {
	Name     string
	Producer *step.Instance
	Artifact artifact.Artifact
	In       []*Edge
	Out      []*Edge
}

// Edge is a directed input → output edge labeled by the Step that reads
// From and writes To. Optional edges do not constrain feasibility.
type Edge struct {
	From     *Node
	To       *Node
	Step     *step.Instance
	Optional bool
}

// Graph is the bipartite artifacts ↔ Steps structure the planner builds:
// nodes are artifacts plus the bottom sentinel, edges carry the Step.
type Graph struct {
	Nodes  map[string]*Node
	Bottom *Node
}

// NewGraph creates a graph holding only the bottom sentinel.
func NewGraph() *Graph {
	bottom := &Node{Name: BottomName}
	return &Graph{
		Nodes:  map[string]*Node{BottomName: bottom},
		Bottom: bottom,
	}
}

// Ensure returns the node for an artifact name, creating it on first use.
func (g *Graph) Ensure(name string) *Node {
	if node, ok := g.Nodes[name]; ok {
		return node
	}
	node := &Node{Name: name}
	g.Nodes[name] = node
	return node
}

// AddEdge connects from → to labeled with the Step and optional flag.
func (g *Graph) AddEdge(from, to *Node, inst *step.Instance, optional bool) {
	edge := &Edge{From: from, To: to, Step: inst, Optional: optional}
	from.Out = append(from.Out, edge)
	to.In = append(to.In, edge)
}

// TopologicalSort computes a lexicographic topological order of the node
// names, keyed by artifact class name, using Kahn's algorithm with a
// sorted ready queue so the order is stable across runs. The bottom
// sentinel is excluded from the returned order.
func (g *Graph) TopologicalSort() ([]string, error) {
	indegree := make(map[string]int, len(g.Nodes))
	for name := range g.Nodes {
		indegree[name] = 0
	}
	for _, node := range g.Nodes {
		for _, edge := range node.Out {
			indegree[edge.To.Name]++
		}
	}

	var queue []string
	for name, degree := range indegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var order []string
	processed := 0
	for len(queue) > 0 {
		sort.Strings(queue)
		name := queue[0]
		queue = queue[1:]
		processed++
		if name != BottomName {
			order = append(order, name)
		}
		for _, edge := range g.Nodes[name].Out {
			indegree[edge.To.Name]--
			if indegree[edge.To.Name] == 0 {
				queue = append(queue, edge.To.Name)
			}
		}
	}

	if processed != len(g.Nodes) {
		return nil, metroerrors.NewPlanningError("", "cycle detected in the build graph", nil)
	}
	return order, nil
}
