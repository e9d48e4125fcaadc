package repositories

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"yoosprint/models"
)

// DependencyGraph keeps backlog dependencies in Neo4j as
// (:Backlog)-[:DEPENDS_ON]->(:Backlog).
type DependencyGraph struct {
	driver neo4j.DriverWithContext
}

// ConnectNeo4j creates a driver and checks connectivity.
func ConnectNeo4j(ctx context.Context, uri, username, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach Neo4j: %w", err)
	}
	return driver, nil
}

func NewDependencyGraph(driver neo4j.DriverWithContext) *DependencyGraph {
	return &DependencyGraph{driver: driver}
}

func (g *DependencyGraph) write(ctx context.Context, query string, params map[string]any) (neo4j.ResultSummary, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	summary, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return nil, err
	}
	return summary.(neo4j.ResultSummary), nil
}

func (g *DependencyGraph) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*neo4j.Record), nil
}

func (g *DependencyGraph) AddDependency(ctx context.Context, projectID, from, to string) error {
	_, err := g.write(ctx, `
		MERGE (f:Backlog {id: $from})
		SET f.projectId = $projectId
		MERGE (t:Backlog {id: $to})
		SET t.projectId = $projectId
		MERGE (f)-[:DEPENDS_ON]->(t)
	`, map[string]any{"from": from, "to": to, "projectId": projectID})
	if err != nil {
		return fmt.Errorf("failed to create dependency relation: %w", err)
	}
	return nil
}

func (g *DependencyGraph) RemoveDependency(ctx context.Context, from, to string) error {
	summary, err := g.write(ctx, `
		MATCH (:Backlog {id: $from})-[r:DEPENDS_ON]->(:Backlog {id: $to})
		DELETE r
	`, map[string]any{"from": from, "to": to})
	if err != nil {
		return fmt.Errorf("failed to remove dependency relation: %w", err)
	}
	if summary.Counters().RelationshipsDeleted() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (g *DependencyGraph) DependenciesOf(ctx context.Context, id string) ([]string, error) {
	records, err := g.read(ctx, `
		MATCH (:Backlog {id: $id})-[:DEPENDS_ON]->(d:Backlog)
		RETURN d.id AS id
		ORDER BY id
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dependencies: %w", err)
	}
	ids := make([]string, 0, len(records))
	for _, record := range records {
		if v, ok := record.Get("id"); ok {
			if s, ok := v.(string); ok {
				ids = append(ids, s)
			}
		}
	}
	return ids, nil
}

func (g *DependencyGraph) HasPath(ctx context.Context, from, to string) (bool, error) {
	records, err := g.read(ctx, `
		MATCH (a:Backlog {id: $from}), (b:Backlog {id: $to})
		RETURN EXISTS { (a)-[:DEPENDS_ON*1..]->(b) } AS reachable
	`, map[string]any{"from": from, "to": to})
	if err != nil {
		return false, fmt.Errorf("cycle detection failed: %w", err)
	}
	if len(records) == 0 {
		return false, nil
	}
	reachable, _ := records[0].Values[0].(bool)
	return reachable, nil
}

func (g *DependencyGraph) ProjectEdges(ctx context.Context, projectID string) ([]models.DependencyEdge, error) {
	records, err := g.read(ctx, `
		MATCH (f:Backlog {projectId: $projectId})-[:DEPENDS_ON]->(t:Backlog)
		RETURN f.id AS fromId, t.id AS toId
		ORDER BY fromId, toId
	`, map[string]any{"projectId": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project graph: %w", err)
	}
	edges := make([]models.DependencyEdge, 0, len(records))
	for _, record := range records {
		from, _ := record.Values[0].(string)
		to, _ := record.Values[1].(string)
		edges = append(edges, models.DependencyEdge{From: from, To: to})
	}
	return edges, nil
}

func (g *DependencyGraph) RemoveNode(ctx context.Context, id string) error {
	_, err := g.write(ctx, `MATCH (n:Backlog {id: $id}) DETACH DELETE n`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("failed to remove backlog node: %w", err)
	}
	return nil
}
