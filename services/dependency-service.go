package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/logging"
	"yoosprint/models"
)

type DependencyService struct {
	graph    DependencyGraph
	backlogs BacklogStore
}

func NewDependencyService(graph DependencyGraph, backlogs BacklogStore) *DependencyService {
	return &DependencyService{graph: graph, backlogs: backlogs}
}

// Dependencies lists the items an item waits on. Blocked is set while any
// of them is not completed.
type Dependencies struct {
	Items   []models.Backlog `json:"items"`
	Blocked bool             `json:"blocked"`
}

// Add records that item depends on dependsOn. Self edges, duplicates and
// edges that would close a cycle are refused.
func (s *DependencyService) Add(ctx context.Context, item, dependsOn primitive.ObjectID) error {
	if item == dependsOn {
		return conflict("an item cannot depend on itself")
	}
	from, err := s.backlogs.FindByID(ctx, item)
	if err != nil {
		return wrapLookup(err, "backlog item")
	}
	to, err := s.backlogs.FindByID(ctx, dependsOn)
	if err != nil {
		return wrapLookup(err, "dependency")
	}
	if from.Project != to.Project {
		return invalid("dependencies must belong to the same project")
	}

	existing, err := s.graph.DependenciesOf(ctx, item.Hex())
	if err != nil {
		return fmt.Errorf("failed to check existing dependencies: %w", err)
	}
	for _, id := range existing {
		if id == dependsOn.Hex() {
			return conflict("dependency already exists")
		}
	}

	cycle, err := s.graph.HasPath(ctx, dependsOn.Hex(), item.Hex())
	if err != nil {
		return fmt.Errorf("failed to check cycle: %w", err)
	}
	if cycle {
		return conflict("cannot add dependency: cycle detected")
	}

	if err := s.graph.AddDependency(ctx, from.Project.Hex(), item.Hex(), dependsOn.Hex()); err != nil {
		return fmt.Errorf("failed to add dependency: %w", err)
	}
	logging.Logger.Infof("Event ID: DEPENDENCY_ADDED, Description: %s now depends on %s", item.Hex(), dependsOn.Hex())
	return nil
}

func (s *DependencyService) Remove(ctx context.Context, item, dependsOn primitive.ObjectID) error {
	if err := s.graph.RemoveDependency(ctx, item.Hex(), dependsOn.Hex()); err != nil {
		return fmt.Errorf("failed to remove dependency: %w", wrapLookup(err, "dependency"))
	}
	return nil
}

func (s *DependencyService) List(ctx context.Context, item primitive.ObjectID) (*Dependencies, error) {
	if _, err := s.backlogs.FindByID(ctx, item); err != nil {
		return nil, wrapLookup(err, "backlog item")
	}
	ids, err := s.graph.DependenciesOf(ctx, item.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}

	deps := &Dependencies{Items: []models.Backlog{}}
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		b, err := s.backlogs.FindByID(ctx, oid)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if b.TaskStatus != models.TaskCompleted {
			deps.Blocked = true
		}
		deps.Items = append(deps.Items, *b)
	}
	return deps, nil
}

func (s *DependencyService) ProjectGraph(ctx context.Context, projectID primitive.ObjectID) ([]models.DependencyEdge, error) {
	edges, err := s.graph.ProjectEdges(ctx, projectID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to load dependency graph: %w", err)
	}
	if edges == nil {
		edges = []models.DependencyEdge{}
	}
	return edges, nil
}
