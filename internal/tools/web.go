package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Responses are capped so a large page cannot blow the model context.
const maxWebContentLen = 100 * 1024

var (
	reScript     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reStyle      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reTag        = regexp.MustCompile(`<[^>]*>`)
	reSpaces     = regexp.MustCompile(`[ \t]+`)
	reBlankLines = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// WebGetTool fetches a page over HTTP and returns its visible text.
// It backs both the reasoning loop and scheduled web jobs.
type WebGetTool struct {
	client *http.Client
}

func NewWebGetTool() *WebGetTool {
	return &WebGetTool{client: &http.Client{Timeout: 30 * time.Second}}
}

func (t *WebGetTool) Name() string        { return "web_get" }
func (t *WebGetTool) Description() string { return "Fetch a URL and return its text content" }
func (t *WebGetTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "URL to fetch"}
		},
		"required": ["url"]
	}`)
}

func (t *WebGetTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid parameters: %w", err)
	}
	if p.URL == "" {
		return "", fmt.Errorf("url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "helmsman/0.1")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebContentLen))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return htmlToText(string(body)), nil
}

// htmlToText drops script/style blocks and tags, then normalizes
// whitespace so the model sees compact prose.
func htmlToText(html string) string {
	html = reScript.ReplaceAllString(html, "")
	html = reStyle.ReplaceAllString(html, "")
	text := reTag.ReplaceAllString(html, " ")
	text = reSpaces.ReplaceAllString(text, " ")
	text = reBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
