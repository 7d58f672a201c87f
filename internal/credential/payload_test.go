package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadGetRepeatedKeys(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		path     string
		expected string
		exists   bool
	}{
		{"single key", `{"a":{"b":"one"}}`, "a.b", "one", true},
		{"last leaf wins", `{"a":{"b":"one","b":"two"}}`, "a.b", "two", true},
		{"last parent wins", `{"a":{"b":"one"},"a":{"c":"two"}}`, "a.b", "", false},
		{"last value may be null", `{"a":{"b":"one","b":null}}`, "a.b", "", true},
		{"path through a string", `{"a":"text"}`, "a.b", "", false},
		{"path through an array", `{"a":[{"b":"one"}]}`, "a.b", "", false},
		{"missing key", `{}`, "a", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustParse(t, tt.body).Get(tt.path)
			assert.Equal(t, tt.exists, result.Exists())
			assert.Equal(t, tt.expected, result.String())
		})
	}
}

func TestPayloadMessagesRepeatedKey(t *testing.T) {
	p := mustParse(t, `{"messages":[{"content":"stale"}],"messages":[{"content":"first"},{"content":"latest","content":"final"}]}`)

	require.Len(t, p.Messages(), 2)
	last, ok := p.LastMessageContent()
	require.True(t, ok)
	assert.Equal(t, "final", last)
	first, ok := p.FirstMessageContent()
	require.True(t, ok)
	assert.Equal(t, "first", first)
}

func TestPayloadBodyIsVerbatim(t *testing.T) {
	body := `{"apiKey":"sk-first-0123456","apiKey":"sk-second-0123456"}`
	p := mustParse(t, body)
	assert.Equal(t, body, string(p.Body()))
}
