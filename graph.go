package opsmem

import (
	"database/sql"
	"encoding/json"
	"strings"
)

func marshalProperties(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// parseProperties recovers stored node properties. Malformed JSON degrades
// to an empty map instead of failing the read.
func parseProperties(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var props map[string]any
	if err := json.Unmarshal([]byte(raw), &props); err != nil || props == nil {
		logger.Warn("malformed node properties", "raw", raw)
		return map[string]any{}
	}
	return props
}

// AddNode upserts a node by id. A second write with the same id replaces
// type, label, and properties wholesale; nothing is merged.
func (s *Store) AddNode(node *Node) error {
	props, err := marshalProperties(node.Properties)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(queryUpsertNode, node.ID, node.Type, node.Label, props)
	return err
}

// AddNodes upserts a batch of nodes in one transaction.
func (s *Store) AddNodes(nodes []*Node) error {
	if len(nodes) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(queryUpsertNode)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, node := range nodes {
		props, err := marshalProperties(node.Properties)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(node.ID, node.Type, node.Label, props); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AddEdge upserts a directed edge. Identity is (source, target,
// relationship); a rewrite replaces the weight, it never accumulates and
// never creates a parallel edge.
func (s *Store) AddEdge(source, target, relationship string, weight float64) error {
	_, err := s.db.Exec(queryUpsertEdge, source, target, relationship, weight)
	return err
}

// AddEdges upserts a batch of edges in one transaction.
func (s *Store) AddEdges(edges []*Edge) error {
	if len(edges) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(queryUpsertEdge)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, edge := range edges {
		if _, err := stmt.Exec(edge.Source, edge.Target, edge.Relationship, edge.Weight); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetNode returns the node with the given id, or nil when absent.
func (s *Store) GetNode(id string) (*Node, error) {
	var n Node
	var props string
	err := s.db.QueryRow(queryGetNode, id).Scan(&n.ID, &n.Type, &n.Label, &props)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	n.Properties = parseProperties(props)
	return &n, nil
}

func (s *Store) GetNodesByType(nodeType string) ([]*Node, error) {
	rows, err := s.db.Query(queryGetNodesByType, nodeType)
	if err != nil {
		return nil, err
	}

	defer rows.Close()
	return scanNodes(rows)
}

func scanNodes(rows *sql.Rows) ([]*Node, error) {
	var nodes []*Node
	for rows.Next() {
		var n Node
		var props string
		if err := rows.Scan(&n.ID, &n.Type, &n.Label, &props); err != nil {
			return nil, err
		}
		n.Properties = parseProperties(props)
		nodes = append(nodes, &n)
	}
	return nodes, rows.Err()
}

// GetNeighbors returns the one-hop adjacency of a node in both directions,
// each edge resolved to the neighboring node.
func (s *Store) GetNeighbors(id string) ([]*Neighbor, error) {
	var neighbors []*Neighbor

	for _, q := range []struct {
		query     string
		direction string
	}{
		{queryGetOutgoing, DirectionOutgoing},
		{queryGetIncoming, DirectionIncoming},
	} {
		rows, err := s.db.Query(q.query, id)
		if err != nil {
			return nil, err
		}

		for rows.Next() {
			var n Node
			var props, relationship string
			var weight float64
			if err := rows.Scan(&n.ID, &n.Type, &n.Label, &props, &relationship, &weight); err != nil {
				rows.Close()
				return nil, err
			}
			n.Properties = parseProperties(props)
			neighbors = append(neighbors, &Neighbor{Node: &n, Direction: q.direction})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return neighbors, nil
}

// TraverseBFS walks outgoing edges breadth-first from startID. Each node is
// reported once, at the depth it was first discovered; startID itself is
// excluded. Expansion stops past maxDepth, and emission stops as soon as
// maxNodes results exist, even mid-frontier. maxNodes <= 0 means unbounded.
func (s *Store) TraverseBFS(startID string, maxDepth, maxNodes int) ([]*TraversalNode, error) {
	type frontier struct {
		id    string
		depth int
	}

	visited := map[string]bool{startID: true}
	queue := []frontier{{id: startID, depth: 0}}
	var results []*TraversalNode

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= maxDepth {
			continue
		}

		rows, err := s.db.Query(queryGetOutgoingIDs, current.id)
		if err != nil {
			return nil, err
		}

		var targets []string
		for rows.Next() {
			var target string
			if err := rows.Scan(&target); err != nil {
				rows.Close()
				return nil, err
			}
			targets = append(targets, target)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		for _, target := range targets {
			if visited[target] {
				continue
			}
			visited[target] = true

			node, err := s.GetNode(target)
			if err != nil {
				return nil, err
			}
			if node == nil {
				continue
			}

			results = append(results, &TraversalNode{Node: node, Depth: current.depth + 1})
			if maxNodes > 0 && len(results) >= maxNodes {
				return results, nil
			}
			queue = append(queue, frontier{id: target, depth: current.depth + 1})
		}
	}

	return results, nil
}

// FindNodesByKeywords matches node labels against any of the keywords,
// case-insensitive substring OR-match. Lightweight fallback; graph content
// has no dedicated lexical index.
func (s *Store) FindNodesByKeywords(keywords []string) ([]*Node, error) {
	var terms []string
	for _, kw := range keywords {
		if strings.TrimSpace(kw) != "" {
			terms = append(terms, kw)
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}

	conditions := make([]string, len(terms))
	args := make([]interface{}, len(terms))
	for i, kw := range terms {
		conditions[i] = "lower(label) LIKE ?"
		args[i] = "%" + strings.ToLower(kw) + "%"
	}

	q := `SELECT id, node_type, label, properties FROM nodes WHERE ` + strings.Join(conditions, " OR ")
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()
	return scanNodes(rows)
}

// GetGraphStats counts nodes, edges, and nodes per type.
func (s *Store) GetGraphStats() (*GraphStats, error) {
	stats := &GraphStats{NodeTypes: map[string]int{}}

	if err := s.db.QueryRow(queryCountNodes).Scan(&stats.Nodes); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(queryCountEdges).Scan(&stats.Edges); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(queryNodeTypeCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var nodeType string
		var count int
		if err := rows.Scan(&nodeType, &count); err != nil {
			return nil, err
		}
		stats.NodeTypes[nodeType] = count
	}

	return stats, rows.Err()
}

// ClearGraph wipes all nodes and edges. Used by tests and resets.
func (s *Store) ClearGraph() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM edges`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM nodes`); err != nil {
		return err
	}

	return tx.Commit()
}
