package memory

import (
	"context"
	"sort"
	"sync"

	"yoosprint/models"
)

// Graph is an adjacency-set dependency graph.
type Graph struct {
	mu      sync.RWMutex
	edges   map[string]map[string]bool
	project map[string]string
}

func NewGraph() *Graph {
	return &Graph{edges: make(map[string]map[string]bool), project: make(map[string]string)}
}

func (g *Graph) AddDependency(_ context.Context, projectID, from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.edges[from] == nil {
		g.edges[from] = make(map[string]bool)
	}
	g.edges[from][to] = true
	g.project[from] = projectID
	g.project[to] = projectID
	return nil
}

func (g *Graph) RemoveDependency(_ context.Context, from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.edges[from][to] {
		return models.ErrNotFound
	}
	delete(g.edges[from], to)
	return nil
}

func (g *Graph) DependenciesOf(_ context.Context, id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.edges[id]))
	for to := range g.edges[id] {
		out = append(out, to)
	}
	sort.Strings(out)
	return out, nil
}

func (g *Graph) HasPath(_ context.Context, from, to string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range g.edges[current] {
			if next == to {
				return true, nil
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false, nil
}

func (g *Graph) ProjectEdges(_ context.Context, projectID string) ([]models.DependencyEdge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := []models.DependencyEdge{}
	for from, targets := range g.edges {
		if g.project[from] != projectID {
			continue
		}
		for to := range targets {
			edges = append(edges, models.DependencyEdge{From: from, To: to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges, nil
}

func (g *Graph) RemoveNode(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.edges, id)
	delete(g.project, id)
	for _, targets := range g.edges {
		delete(targets, id)
	}
	return nil
}
