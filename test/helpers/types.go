package helpers

// Common test request/response types used across all tests

// HealthResponse represents the health endpoint response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Services  map[string]string      `json:"services"`
	Details   map[string]interface{} `json:"details"`
}

// CopilotKitRequest is a pipeline request as sent by the browser planner
type CopilotKitRequest struct {
	Action   *Action   `json:"action,omitempty"`
	Messages []Message `json:"messages,omitempty"`
	Stream   bool      `json:"stream,omitempty"`
}

// Action carries structured action arguments
type Action struct {
	Name      string                 `json:"name,omitempty"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// Message represents a message in the conversation
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // Can be string or []ContentPart
}

// ContentPart represents one part of a multi-part message
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ErrorResponse represents the gateway error envelope
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
}

// ActionRequest is the body of an action callback
type ActionRequest struct {
	Topic string `json:"topic"`
}

// ActionResponse is the result of an action callback
type ActionResponse struct {
	Result string `json:"result"`
}

// MetricsResponse is the subset of /metrics the tests read
type MetricsResponse struct {
	TotalRequests    int64            `json:"total_requests"`
	StrategyCounts   map[string]int64 `json:"strategy_counts"`
	ErrorCodeCounts  map[string]int64 `json:"error_code_counts"`
	StatusCodeCounts map[string]int64 `json:"status_code_counts"`
}
