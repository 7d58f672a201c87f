package fixtures

import (
	"encoding/json"
	"fmt"

	"github.com/aashari/go-itinerary-gateway/test/helpers"
)

// TestAPIKey passes the gateway's format rules
const TestAPIKey = "sk-integration-0123456789abcdef"

// Common test request fixtures, one per credential location

// ActionArgumentsRequest carries the key in action.arguments.apiKey
func ActionArgumentsRequest(apiKey string) helpers.CopilotKitRequest {
	return helpers.CopilotKitRequest{
		Action: &helpers.Action{
			Name:      "planTrip",
			Arguments: map[string]interface{}{"apiKey": apiKey, "destination": "Lisbon"},
		},
		Messages: []helpers.Message{{Role: "user", Content: "Plan 3 days in Lisbon"}},
	}
}

// ActionFormDataRequest carries the key in action.arguments.formData.apiKey
func ActionFormDataRequest(apiKey string) helpers.CopilotKitRequest {
	return helpers.CopilotKitRequest{
		Action: &helpers.Action{
			Name: "planTrip",
			Arguments: map[string]interface{}{
				"formData": map[string]interface{}{"apiKey": apiKey, "days": 3},
			},
		},
		Messages: []helpers.Message{{Role: "user", Content: "Plan 3 days in Porto"}},
	}
}

// EmbeddedJSONRequest embeds {"apiKey": ...} in the last message text
func EmbeddedJSONRequest(apiKey string) helpers.CopilotKitRequest {
	embedded, _ := json.Marshal(map[string]string{"apiKey": apiKey, "destination": "Madrid"})
	return helpers.CopilotKitRequest{
		Messages: []helpers.Message{
			{Role: "system", Content: "You are a travel planner"},
			{Role: "user", Content: "Please plan my trip " + string(embedded)},
		},
	}
}

// EmbeddedFormDataRequest embeds {"formData": {"apiKey": ...}} in the last message text
func EmbeddedFormDataRequest(apiKey string) helpers.CopilotKitRequest {
	return helpers.CopilotKitRequest{
		Messages: []helpers.Message{
			{Role: "user", Content: fmt.Sprintf(`Trip form: {"formData": {"apiKey": "%s", "days": 2}}`, apiKey)},
		},
	}
}

// PatternRequest mentions "apiKey": "..." in free text
func PatternRequest(apiKey string) helpers.CopilotKitRequest {
	return helpers.CopilotKitRequest{
		Messages: []helpers.Message{
			{Role: "user", Content: fmt.Sprintf(`my settings are "apiKey": "%s" and I like museums`, apiKey)},
		},
	}
}

// NoCredentialRequest carries no key anywhere
func NoCredentialRequest(firstMessage string) helpers.CopilotKitRequest {
	return helpers.CopilotKitRequest{
		Messages: []helpers.Message{{Role: "user", Content: firstMessage}},
	}
}

// StreamingRequest asks the engine for a streamed answer
func StreamingRequest(apiKey string) helpers.CopilotKitRequest {
	request := ActionArgumentsRequest(apiKey)
	request.Stream = true
	return request
}
