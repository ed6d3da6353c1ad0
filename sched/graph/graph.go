// Package graph maintains the dependency DAG between jobs.
package graph

import (
	deperrors "github.com/droverco/drover/common/errors"
)

// Graph stores parent and child adjacency keyed by job id. Ids are the
// weak references between jobs; the graph never holds job records.
//
// All methods are safe for concurrent use only when externally serialized;
// the scheduler guards graph writes with its own lock, which also covers
// the read-status/decide-readiness window.
type Graph struct {
	parents  map[string]map[string]bool
	children map[string]map[string]bool
	known    map[string]bool
}

func New() *Graph {
	return &Graph{
		parents:  map[string]map[string]bool{},
		children: map[string]map[string]bool{},
		known:    map[string]bool{},
	}
}

// Add registers id with the given parent edges.
//
// Every parent must already be known: a forward reference is rejected with
// UNKNOWN_PARENT, since without a submission-order guarantee cycle
// detection over unsubmitted ids cannot terminate. A submission whose
// edges would close a cycle is rejected with CYCLE_DETECTED. Either
// rejection rolls the inserted edges back, leaving the graph unchanged.
func (g *Graph) Add(id string, parentIds []string) error {
	if g.known[id] {
		return deperrors.Errorf(deperrors.InvalidSpec, "job %s already in dependency graph", id)
	}
	for _, p := range parentIds {
		if !g.known[p] && p != id {
			return deperrors.Errorf(deperrors.UnknownParent, "job %s depends on unknown job %s", id, p)
		}
	}

	g.known[id] = true
	for _, p := range parentIds {
		g.edge(p, id)
	}

	if g.reaches(id, id, map[string]bool{}) {
		g.rollback(id, parentIds)
		return deperrors.Errorf(deperrors.CycleDetected, "job %s would introduce a dependency cycle", id)
	}
	return nil
}

func (g *Graph) edge(parent, child string) {
	if g.children[parent] == nil {
		g.children[parent] = map[string]bool{}
	}
	g.children[parent][child] = true
	if g.parents[child] == nil {
		g.parents[child] = map[string]bool{}
	}
	g.parents[child][parent] = true
}

// reaches is a DFS over forward (children) edges looking for target.
func (g *Graph) reaches(from, target string, visited map[string]bool) bool {
	for child := range g.children[from] {
		if child == target {
			return true
		}
		if visited[child] {
			continue
		}
		visited[child] = true
		if g.reaches(child, target, visited) {
			return true
		}
	}
	return false
}

func (g *Graph) rollback(id string, parentIds []string) {
	delete(g.known, id)
	delete(g.parents, id)
	for _, p := range parentIds {
		delete(g.children[p], id)
		if len(g.children[p]) == 0 {
			delete(g.children, p)
		}
	}
}

// Known reports whether id has been registered.
func (g *Graph) Known(id string) bool {
	return g.known[id]
}

// Parents returns a copy of id's parent set.
func (g *Graph) Parents(id string) []string {
	return keys(g.parents[id])
}

// Children returns a copy of id's child set.
func (g *Graph) Children(id string) []string {
	return keys(g.children[id])
}

// Remove drops id and all of its edges. The scheduler uses it to roll back
// a just-added id whose submission failed or turned out to be a duplicate;
// such an id has no dependents yet.
func (g *Graph) Remove(id string) {
	for p := range g.parents[id] {
		delete(g.children[p], id)
	}
	for c := range g.children[id] {
		delete(g.parents[c], id)
	}
	delete(g.parents, id)
	delete(g.children, id)
	delete(g.known, id)
}

func keys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
