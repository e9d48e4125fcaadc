package models

// DependencyEdge means backlog From cannot start until backlog To is done.
type DependencyEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}
