package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aashari/go-itinerary-gateway/internal/utils"
	"github.com/samber/lo"
)

// maxResponseBytes caps how much of a provider response is read
const maxResponseBytes = 1 << 20

// Searcher answers a free-text research topic
type Searcher interface {
	Search(ctx context.Context, topic string) (string, error)
}

// TavilyClient calls the Tavily search API
type TavilyClient struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

// NewTavilyClient creates a client. baseURL is the API root, e.g. https://api.tavily.com
func NewTavilyClient(baseURL, apiKey string, maxResults int, httpClient *http.Client) *TavilyClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TavilyClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		maxResults: maxResults,
		httpClient: httpClient,
	}
}

type tavilyRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	Topic         string `json:"topic"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

// Search runs one query and renders the answer and sources as plain text
func (c *TavilyClient) Search(ctx context.Context, topic string) (string, error) {
	payload, err := json.Marshal(tavilyRequest{
		Query:         topic,
		SearchDepth:   "basic",
		Topic:         "news",
		IncludeAnswer: true,
		MaxResults:    c.maxResults,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set(utils.HeaderContentType, utils.ContentTypeJSON)
	req.Header.Set(utils.HeaderAuthorization, "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading search response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("search provider rejected the API key (401)")
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("search provider rate limit exceeded (429)")
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("search provider returned unexpected status %d", resp.StatusCode)
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing search response: %w", err)
	}

	return formatResults(topic, parsed), nil
}

func formatResults(topic string, resp tavilyResponse) string {
	var b strings.Builder

	if resp.Answer != "" {
		b.WriteString(resp.Answer)
	} else {
		fmt.Fprintf(&b, "No summary available for %q.", topic)
	}

	if len(resp.Results) == 0 {
		return b.String()
	}

	sources := lo.Map(resp.Results, func(r tavilyResult, _ int) string {
		return fmt.Sprintf("- %s (%s): %s", r.Title, r.URL, strings.TrimSpace(r.Content))
	})

	b.WriteString("\n\nSources:\n")
	b.WriteString(strings.Join(sources, "\n"))
	return b.String()
}
