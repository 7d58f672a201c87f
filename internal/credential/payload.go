package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedPayload is returned when the body is not a JSON object
var ErrMalformedPayload = errors.New("malformed request payload")

// Payload paths inspected by the structured strategies
const (
	pathActionArguments = "action.arguments"
	pathMessages        = "messages"
	keyAPIKey           = "apiKey"
	keyFormData         = "formData"
)

// Payload is a parsed inbound request body. The raw bytes are kept untouched
// so the body can be inspected here and still be forwarded verbatim.
type Payload struct {
	raw  []byte
	root gjson.Result
}

// ParsePayload validates body as a JSON object without consuming or altering it
func ParsePayload(body []byte) (*Payload, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top-level value is %s, expected object", ErrMalformedPayload, root.Type)
	}

	raw := make([]byte, len(body))
	copy(raw, body)
	return &Payload{raw: raw, root: root}, nil
}

// Body returns a fresh copy of the original bytes
func (p *Payload) Body() []byte {
	body := make([]byte, len(p.raw))
	copy(body, p.raw)
	return body
}

// Get looks up a dotted key path in the payload
func (p *Payload) Get(path string) gjson.Result {
	return lookup(p.root, path)
}

// Messages returns the ordered message records, or nil when absent
func (p *Payload) Messages() []gjson.Result {
	messages := lookup(p.root, pathMessages)
	if !messages.IsArray() {
		return nil
	}
	return messages.Array()
}

// LastMessageContent returns the free text of the last message
func (p *Payload) LastMessageContent() (string, bool) {
	messages := p.Messages()
	if len(messages) == 0 {
		return "", false
	}
	return messageText(messages[len(messages)-1])
}

// FirstMessageContent returns the free text of the first message
func (p *Payload) FirstMessageContent() (string, bool) {
	messages := p.Messages()
	if len(messages) == 0 {
		return "", false
	}
	return messageText(messages[0])
}

// messageText accepts plain string content as well as an array of text parts
func messageText(message gjson.Result) (string, bool) {
	content := lookup(message, "content")
	switch {
	case content.Type == gjson.String:
		return content.String(), true
	case content.IsArray():
		var parts []string
		content.ForEach(func(_, part gjson.Result) bool {
			if text := lookup(part, "text"); text.Type == gjson.String {
				parts = append(parts, text.String())
			}
			return true
		})
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, "\n"), true
	default:
		return "", false
	}
}

// nonEmptyString returns the value at path when it is a non-empty JSON string
func nonEmptyString(result gjson.Result, path string) (string, bool) {
	value := lookup(result, path)
	if value.Type != gjson.String || value.String() == "" {
		return "", false
	}
	return value.String(), true
}

// lookup resolves a dotted key path. When an object repeats a key the last
// occurrence wins, matching how JSON decoders on the engine side read it.
func lookup(result gjson.Result, path string) gjson.Result {
	current := result
	for _, key := range strings.Split(path, ".") {
		if !current.IsObject() {
			return gjson.Result{}
		}
		var found gjson.Result
		current.ForEach(func(k, v gjson.Result) bool {
			if k.String() == key {
				found = v
			}
			return true
		})
		current = found
	}
	return current
}
