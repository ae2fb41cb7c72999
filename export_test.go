package api

// Test-only exports for internal functions.
var (
	ToggleSlash    = toggleSlash
	RetryAfter     = retryAfter
	ValidRequestID = validRequestID
	JSONFieldName  = jsonFieldName
	TagOptions     = tagOptions
	TagContains    = tagContains
	SemanticType   = semanticType
)
