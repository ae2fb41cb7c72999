package api

// OperationInfo provides OpenAPI metadata for raw handlers that the
// framework cannot infer from types.
type OperationInfo struct {
	Summary     string
	Description string
	Tags        []string
	Status      int
	// Produces lists the response media type; defaults to application/json.
	Produces string
	// Hidden keeps the route out of the generated document.
	Hidden bool
}
