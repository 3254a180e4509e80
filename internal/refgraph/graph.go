// SPDX-License-Identifier: MPL-2.0

// Package refgraph orders module references. An edge from A to B means A must be
// loaded before B; for manifests that is "B references A".
package refgraph

import (
	"fmt"
	"strings"
)

type (
	// CycleError reports nodes that could not be ordered because they lie on,
	// or depend on, a reference cycle.
	CycleError[K comparable] struct {
		Nodes []K
	}

	// Graph is a directed graph with deterministic, insertion-ordered output.
	Graph[K comparable] struct {
		edges map[K][]K
		nodes []K
		seen  map[K]bool
	}
)

func (e *CycleError[K]) Error() string {
	parts := make([]string, len(e.Nodes))
	for i, n := range e.Nodes {
		parts[i] = fmt.Sprint(n)
	}
	return "reference cycle among: " + strings.Join(parts, ", ")
}

// New creates an empty Graph.
func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		edges: make(map[K][]K),
		seen:  make(map[K]bool),
	}
}

// AddNode adds n. Adding an existing node is a no-op.
func (g *Graph[K]) AddNode(n K) {
	if g.seen[n] {
		return
	}
	g.seen[n] = true
	g.nodes = append(g.nodes, n)
}

// AddEdge adds from -> to, adding both nodes if needed.
func (g *Graph[K]) AddEdge(from, to K) {
	g.AddNode(from)
	g.AddNode(to)
	g.edges[from] = append(g.edges[from], to)
}

// Len returns the number of nodes.
func (g *Graph[K]) Len() int { return len(g.nodes) }

// Order returns the nodes in topological order (Kahn's algorithm). Nodes that are
// ready at the same time keep insertion order. When a cycle exists, Order returns
// the nodes it could order and a *CycleError listing the rest.
func (g *Graph[K]) Order() ([]K, error) {
	inDegree := make(map[K]int, len(g.nodes))
	for _, targets := range g.edges {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	var queue []K
	for _, n := range g.nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	ordered := make([]K, 0, len(g.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		ordered = append(ordered, n)
		for _, t := range g.edges[n] {
			inDegree[t]--
			if inDegree[t] == 0 {
				queue = append(queue, t)
			}
		}
	}

	if len(ordered) == len(g.nodes) {
		return ordered, nil
	}
	var stuck []K
	for _, n := range g.nodes {
		if inDegree[n] > 0 {
			stuck = append(stuck, n)
		}
	}
	return ordered, &CycleError[K]{Nodes: stuck}
}
