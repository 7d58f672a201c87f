package utils

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// MaskedValue replaces any value whose field name marks it as a secret
const MaskedValue = "***MASKED***"

// SensitiveDataMasker handles masking of sensitive information in logs and diagnostics
type SensitiveDataMasker struct {
	patterns   []SensitivePattern
	fieldNames []string
}

// SensitivePattern defines a pattern for detecting and masking sensitive data
type SensitivePattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// NewSensitiveDataMasker creates a new data masker with default patterns
func NewSensitiveDataMasker() *SensitiveDataMasker {
	return &SensitiveDataMasker{
		patterns: []SensitivePattern{
			{
				Name:        "Anthropic API Key",
				Regex:       regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{8,}`),
				Replacement: "sk-ant-***MASKED***",
			},
			{
				Name:        "OpenAI API Key",
				Regex:       regexp.MustCompile(`sk-[a-zA-Z0-9_-]{8,}`),
				Replacement: "sk-***MASKED***",
			},
			{
				Name:        "Tavily API Key",
				Regex:       regexp.MustCompile(`tvly-[a-zA-Z0-9_-]{8,}`),
				Replacement: "tvly-***MASKED***",
			},
			{
				Name:        "Bearer Token",
				Regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`),
				Replacement: "Bearer ***MASKED***",
			},
		},
		fieldNames: []string{
			"apikey", "api_key", "api-key",
			"authorization", "secret", "password", "token",
		},
	}
}

var defaultMasker = NewSensitiveDataMasker()

// MaskString applies regex patterns to mask sensitive substrings
func (m *SensitiveDataMasker) MaskString(s string) string {
	masked := s
	for _, pattern := range m.patterns {
		masked = pattern.Regex.ReplaceAllString(masked, pattern.Replacement)
	}
	return masked
}

// MaskHeaders masks sensitive headers (like Authorization)
func (m *SensitiveDataMasker) MaskHeaders(headers map[string][]string) map[string][]string {
	if headers == nil {
		return nil
	}

	maskedHeaders := make(map[string][]string, len(headers))
	for key, values := range headers {
		if m.isSensitiveField(key) {
			maskedHeaders[key] = []string{MaskedValue}
			continue
		}
		maskedHeaders[key] = lo.Map(values, func(value string, _ int) string {
			return m.MaskString(value)
		})
	}
	return maskedHeaders
}

// isSensitiveField checks if a field name indicates sensitive data
func (m *SensitiveDataMasker) isSensitiveField(fieldName string) bool {
	fieldLower := strings.ToLower(fieldName)
	return lo.ContainsBy(m.fieldNames, func(sensitive string) bool {
		return strings.Contains(fieldLower, sensitive)
	})
}

// SanitizeHeaders masks sensitive headers with the default masker
func SanitizeHeaders(headers map[string][]string) map[string][]string {
	return defaultMasker.MaskHeaders(headers)
}

// SanitizeString masks secrets inside free text with the default masker
func SanitizeString(s string) string {
	return defaultMasker.MaskString(s)
}

// CredentialHint returns a loggable hint for a secret: its prefix and last four characters.
func CredentialHint(secret string) string {
	runes := []rune(secret)
	if len(runes) <= 8 {
		return MaskedValue
	}
	prefix := ""
	if strings.HasPrefix(secret, CredentialPrefix) {
		prefix = CredentialPrefix
	}
	return prefix + "..." + string(runes[len(runes)-4:])
}

// TruncatePreview masks secrets in s and cuts it to at most limit runes.
func TruncatePreview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	masked := SanitizeString(s)
	if len([]rune(masked)) <= limit {
		return masked
	}
	return lo.Substring(masked, 0, uint(limit))
}
