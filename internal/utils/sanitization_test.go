package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskString(t *testing.T) {
	masker := NewSensitiveDataMasker()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "openai key inside text",
			input:    `please use {"apiKey":"sk-abcdefghijklmnopqrstuvwxyz0123456789"}`,
			expected: `please use {"apiKey":"sk-***MASKED***"}`,
		},
		{
			name:     "bearer token",
			input:    "Bearer abc.def-123",
			expected: "Bearer ***MASKED***",
		},
		{
			name:     "tavily key",
			input:    "key tvly-1234567890abcdef",
			expected: "key tvly-***MASKED***",
		},
		{
			name:     "short sk prefix untouched",
			input:    "sk-short",
			expected: "sk-short",
		},
		{
			name:     "plain text untouched",
			input:    "Plan a trip to Lisbon in May",
			expected: "Plan a trip to Lisbon in May",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, masker.MaskString(tt.input))
		})
	}
}

func TestSanitizeHeaders(t *testing.T) {
	headers := map[string][]string{
		"Authorization": {"Bearer sk-abcdefghijklmnop"},
		"Content-Type":  {"application/json"},
		"X-Api-Key":     {"whatever"},
	}

	masked := SanitizeHeaders(headers)
	assert.Equal(t, []string{MaskedValue}, masked["Authorization"])
	assert.Equal(t, []string{MaskedValue}, masked["X-Api-Key"])
	assert.Equal(t, []string{"application/json"}, masked["Content-Type"])
	assert.Nil(t, SanitizeHeaders(nil))
}

func TestCredentialHint(t *testing.T) {
	assert.Equal(t, "sk-...6789", CredentialHint("sk-abcdefghijklmnopqrstuvwxyz0123456789"))
	assert.Equal(t, "...wxyz", CredentialHint("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, MaskedValue, CredentialHint("sk-abc"))
}

func TestTruncatePreview(t *testing.T) {
	long := strings.Repeat("é", 300)

	preview := TruncatePreview(long, DiagnosticPreviewLimit)
	assert.Equal(t, DiagnosticPreviewLimit, len([]rune(preview)))

	assert.Equal(t, "hello", TruncatePreview("hello", DiagnosticPreviewLimit))
	assert.Equal(t, "", TruncatePreview("hello", 0))
	assert.Equal(t, "use sk-***MASKED***", TruncatePreview("use sk-abcdefghijklmnop", DiagnosticPreviewLimit))
}
