package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/library"
)

// Loop levels.
const (
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// LoopWarning reports a feedback loop between components.
//
// Loops are not errors: latches, ring oscillators and registers fed back
// through logic are all loops. A loop in which every component has zero
// delay can never leave its timestamp and is reported as a warning; any
// other loop is reported as info.
type LoopWarning struct {
	Path    []string `json:"path"` // component names, first repeated at the end
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// componentGraph maps a component name to the components listening on the
// nets it drives.
type componentGraph map[string][]string

// AnalyzeLoops finds the feedback loops of a description.
//
// The algorithm:
//  1. Instantiate each component to learn which of its pins drive
//  2. Build the graph driver → listeners through shared nets
//  3. Find strongly connected components with Tarjan's algorithm
//  4. Report each SCC with more than one node, or with a self edge
//
// Components whose kind is unknown are skipped; Validate reports them.
func AnalyzeLoops(spec *circuit.Spec) []LoopWarning {
	graph, delays := buildComponentGraph(spec)

	warnings := []LoopWarning{}
	for _, scc := range tarjanSCC(graph, componentOrder(spec)) {
		if len(scc) > 1 || (len(scc) == 1 && slices.Contains(graph[scc[0]], scc[0])) {
			warnings = append(warnings, loopWarning(scc, graph, delays))
		}
	}
	return warnings
}

func componentOrder(spec *circuit.Spec) []string {
	names := make([]string, len(spec.Components))
	for i, c := range spec.Components {
		names[i] = c.Name
	}
	return names
}

func buildComponentGraph(spec *circuit.Spec) (componentGraph, map[string]uint64) {
	type endpoint struct{ comp, pin string }
	drivers := make(map[string][]endpoint)   // net -> pins driving it
	listeners := make(map[string][]endpoint) // net -> pins observing it
	delays := make(map[string]uint64)

	for _, cs := range spec.Components {
		comp, err := library.New(cs.Kind, cs.Params())
		if err != nil {
			continue
		}
		delays[cs.Name] = uint64(comp.PropagationDelay())
		for _, pin := range cs.PinNames() {
			p, ok := comp.Pins().Get(pin)
			if !ok {
				continue
			}
			net := cs.Pins[pin]
			ep := endpoint{cs.Name, pin}
			if p.Direction().Drives() {
				drivers[net] = append(drivers[net], ep)
			}
			if p.Direction().Listens() {
				listeners[net] = append(listeners[net], ep)
			}
		}
	}

	graph := make(componentGraph)
	for _, cs := range spec.Components {
		graph[cs.Name] = []string{}
	}
	for net, ds := range drivers {
		for _, d := range ds {
			for _, l := range listeners[net] {
				// A bidirectional pin hears its own contribution; that is
				// not a path through the component.
				if l == d {
					continue
				}
				if !slices.Contains(graph[d.comp], l.comp) {
					graph[d.comp] = append(graph[d.comp], l.comp)
				}
			}
		}
	}
	for name := range graph {
		slices.Sort(graph[name])
	}
	return graph, delays
}

// tarjanSCC returns the strongly connected components of graph, visiting
// roots in the given order so that the result is deterministic.
func tarjanSCC(graph componentGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func loopWarning(scc []string, graph componentGraph, delays map[string]uint64) LoopWarning {
	slices.Sort(scc)
	path := loopPath(scc, graph)

	level, kind := LevelInfo, "feedback loop"
	zero := true
	for _, name := range scc {
		if delays[name] != 0 {
			zero = false
			break
		}
	}
	if zero {
		level, kind = LevelWarning, "zero-delay loop"
	}
	return LoopWarning{
		Path:    path,
		Message: fmt.Sprintf("%s: %s", kind, strings.Join(path, " → ")),
		Level:   level,
	}
}

// loopPath walks from the first SCC member through other members until it
// returns to the start.
func loopPath(scc []string, graph componentGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	start := scc[0]
	path := []string{start}
	visited := map[string]bool{start: true}
	current := start
	for {
		next := ""
		for _, w := range graph[current] {
			if w == start && len(path) == len(scc) {
				return append(path, start)
			}
			if members[w] && !visited[w] {
				next = w
				break
			}
		}
		if next == "" {
			return append(path, start)
		}
		visited[next] = true
		path = append(path, next)
		current = next
	}
}
