// Package planner combines the registered Step classes with the active
// Configuration: it instantiates the defined Steps, builds the bipartite
// artifact ↔ Step build graph, enforces feasibility from the bottom
// sentinel, computes a stable execution order, and consults the
// invalidation engine to decide which Steps must rerun.
package planner

import (
	"fmt"
	"sort"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/config"
	"github.com/metropipe/metropipe/internal/invalidation"
	"github.com/metropipe/metropipe/internal/logging"
	"github.com/metropipe/metropipe/internal/step"
	metroerrors "github.com/metropipe/metropipe/pkg/errors"
)

// Plan is the planner's result: the Step execution order, the directly
// outdated subset, its downward closure (the to-run set), and the orphaned
// artifacts slated for removal.
type Plan struct {
	Steps    []*step.Instance
	Outdated map[string]bool
	ToRun    map[string]bool
	Orphans  []artifact.Artifact
	Graph    *Graph
}

// Planner owns one planning pass over a class list and Configuration.
type Planner struct {
	classes []step.Class
	cfg     *config.Configuration
	inval   *invalidation.Engine
	log     *logging.Logger
}

// New creates a Planner. The class order is the user-supplied step
// ordering; the invalidation engine decides per-Step outdatedness.
func New(classes []step.Class, cfg *config.Configuration, inval *invalidation.Engine, log *logging.Logger) *Planner {
	return &Planner{classes: classes, cfg: cfg, inval: inval, log: log}
}

// Plan runs the full planning algorithm.
func (p *Planner) Plan() (*Plan, error) {
	defined, allOutputs, err := p.instantiate()
	if err != nil {
		return nil, err
	}

	producers, err := checkCollisions(defined)
	if err != nil {
		return nil, err
	}

	graph := p.buildGraph(defined)

	feasible, err := feasibleNodes(graph, producers)
	if err != nil {
		return nil, err
	}

	feasibleSteps := make(map[string]bool)
	for _, inst := range defined {
		ok := true
		for _, out := range inst.Outputs() {
			if !feasible[out.Class().Name] {
				ok = false
				break
			}
		}
		if ok {
			feasibleSteps[inst.Name()] = true
		} else if p.log != nil {
			p.log.Debug("dropping infeasible step", "step", inst.Name())
		}
	}

	orphans := findOrphans(p.cfg.MainDirectory(), allOutputs, defined, feasibleSteps)

	order, err := p.stepOrder(graph, feasible, feasibleSteps, defined)
	if err != nil {
		return nil, err
	}

	outdated := make(map[string]bool, len(order))
	for _, inst := range order {
		stale, err := p.inval.IsOutdated(inst)
		if err != nil {
			return nil, err
		}
		outdated[inst.Name()] = stale
	}

	toRun := closure(order, producers, outdated)

	return &Plan{
		Steps:    order,
		Outdated: outdated,
		ToRun:    toRun,
		Orphans:  orphans,
		Graph:    graph,
	}, nil
}

// instantiate binds every registered class against the Configuration in
// the user-supplied order and splits defined from undefined Steps. The
// output artifact classes of every class, defined or not, feed orphan
// detection.
func (p *Planner) instantiate() ([]*step.Instance, []artifact.Class, error) {
	var defined []*step.Instance
	var allOutputs []artifact.Class

	for _, class := range p.classes {
		inst, err := step.Instantiate(class, p.cfg)
		if err != nil {
			return nil, nil, err
		}
		for _, outClass := range class.OutputFiles() {
			allOutputs = append(allOutputs, outClass)
		}
		if class.IsDefined(inst) {
			defined = append(defined, inst)
		}
	}
	return defined, allOutputs, nil
}

// checkCollisions enforces the at-most-one-producer invariant and returns
// the artifact-name → producing-instance map.
func checkCollisions(defined []*step.Instance) (map[string]*step.Instance, error) {
	producers := make(map[string]*step.Instance)
	for _, inst := range defined {
		for _, out := range inst.Outputs() {
			name := out.Class().Name
			if other, taken := producers[name]; taken {
				return nil, metroerrors.NewPlanningError(name,
					fmt.Sprintf("artifact is produced by both %s and %s", other.Name(), inst.Name()), nil)
			}
			producers[name] = inst
		}
	}
	return producers, nil
}

// buildGraph assembles the bipartite graph: Steps with no required inputs
// anchor their outputs on the bottom sentinel; every required input adds a
// required edge, every present optional/conditional input an optional one.
func (p *Planner) buildGraph(defined []*step.Instance) *Graph {
	graph := NewGraph()

	for _, inst := range defined {
		required := inst.RequiredInputs()
		active := inst.ActiveInputs()

		for _, out := range inst.Outputs() {
			outNode := graph.Ensure(out.Class().Name)
			outNode.Producer = inst
			outNode.Artifact = out

			if len(required) == 0 {
				graph.AddEdge(graph.Bottom, outNode, inst, false)
			}
			for name, spec := range active {
				in, err := inst.Input(name)
				if err != nil {
					continue
				}
				inNode := graph.Ensure(in.Class().Name)
				if inNode.Artifact == nil {
					inNode.Artifact = in
				}
				_, isRequired := required[name]
				graph.AddEdge(inNode, outNode, inst, !isRequired || spec.Optional)
			}
		}
	}
	return graph
}

// feasibleNodes computes the feasible subset: an artifact is feasible iff
// every ancestor along required edges reduces to the bottom sentinel. A
// source artifact with no producer is feasible only when the user supplied
// the file on disk.
func feasibleNodes(graph *Graph, producers map[string]*step.Instance) (map[string]bool, error) {
	memo := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(node *Node) (bool, error)
	visit = func(node *Node) (bool, error) {
		if node == graph.Bottom {
			return true, nil
		}
		if done, ok := memo[node.Name]; ok {
			return done, nil
		}
		if visiting[node.Name] {
			return false, metroerrors.NewPlanningError(node.Name, "cycle detected in the build graph", nil)
		}
		visiting[node.Name] = true
		defer delete(visiting, node.Name)

		producer := producers[node.Name]
		if producer == nil {
			exists := node.Artifact != nil && node.Artifact.Exists()
			memo[node.Name] = exists
			return exists, nil
		}

		ok := true
		for _, edge := range node.In {
			if edge.Optional {
				continue
			}
			feasible, err := visit(edge.From)
			if err != nil {
				return false, err
			}
			if !feasible {
				ok = false
				break
			}
		}
		memo[node.Name] = ok
		return ok, nil
	}

	for _, node := range graph.Nodes {
		if _, err := visit(node); err != nil {
			return nil, err
		}
	}
	return memo, nil
}

// findOrphans flags artifacts referenced by any class, defined or not,
// that no feasible Step produces yet still exist on disk.
func findOrphans(root string, allOutputs []artifact.Class, defined []*step.Instance, feasibleSteps map[string]bool) []artifact.Artifact {
	produced := make(map[string]bool)
	for _, inst := range defined {
		if !feasibleSteps[inst.Name()] {
			continue
		}
		for _, out := range inst.Outputs() {
			produced[out.Class().Name] = true
		}
	}

	seen := make(map[string]bool)
	var orphans []artifact.Artifact
	for _, class := range allOutputs {
		if produced[class.Name] || seen[class.Name] {
			continue
		}
		seen[class.Name] = true
		bound := artifact.Bind(class, root)
		if bound.Exists() {
			orphans = append(orphans, bound)
		}
	}
	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].Class().Name < orphans[j].Class().Name
	})
	return orphans
}

// stepOrder derives the Step execution order from the lexicographic
// topological artifact order: walk the feasible artifacts in order and
// append each producer the first time it appears.
func (p *Planner) stepOrder(graph *Graph, feasible map[string]bool, feasibleSteps map[string]bool, defined []*step.Instance) ([]*step.Instance, error) {
	artifactOrder, err := graph.TopologicalSort()
	if err != nil {
		return nil, err
	}

	var order []*step.Instance
	appended := make(map[string]bool)
	for _, name := range artifactOrder {
		if !feasible[name] {
			continue
		}
		producer := graph.Nodes[name].Producer
		if producer == nil || appended[producer.Name()] || !feasibleSteps[producer.Name()] {
			continue
		}
		appended[producer.Name()] = true
		order = append(order, producer)
	}
	return order, nil
}

// closure computes the to-run set: the downward closure of the outdated
// Steps along the artifact edges, walked in execution order.
func closure(order []*step.Instance, producers map[string]*step.Instance, outdated map[string]bool) map[string]bool {
	toRun := make(map[string]bool, len(order))
	for _, inst := range order {
		if outdated[inst.Name()] {
			toRun[inst.Name()] = true
			continue
		}
		for name := range inst.ActiveInputs() {
			in, err := inst.Input(name)
			if err != nil {
				continue
			}
			producer := producers[in.Class().Name]
			if producer != nil && toRun[producer.Name()] {
				toRun[inst.Name()] = true
				break
			}
		}
	}
	return toRun
}
