package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"greenspace-agent/internal/domain"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// generateRequest is the minimal request shape for the
// streamGenerateContent endpoint.
type generateRequest struct {
	SystemInstruction *content   `json:"systemInstruction,omitempty"`
	Contents          []content  `json:"contents"`
	Tools             []toolDecl `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type functionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type functionResponse struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

type toolDecl struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// streamChunk is the minimal shape of one SSE data event.
type streamChunk struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware
// context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("gemini: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused Gemini client for streaming generation with function
// calling.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the given model and API key. The default
// HTTP client allows 60s per call; streaming reads arrive incrementally well
// inside that window.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key must not be empty")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("gemini: model must not be empty")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		model:      strings.TrimSpace(model),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	return c, nil
}

func (c *Client) streamURL() string {
	return fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse",
		strings.TrimRight(c.baseURL, "/"), c.model)
}

// StreamChat performs one streaming model invocation. Text parts are
// forwarded to onDelta in arrival order as well as accumulated in the
// returned Turn; function-call parts are collected in declaration order.
func (c *Client) StreamChat(ctx context.Context, in domain.ModelRequest, onDelta func(string)) (domain.ModelTurn, error) {
	body, err := json.Marshal(buildGenerateRequest(in))
	if err != nil {
		return domain.ModelTurn{}, fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := c.streamURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.ModelTurn{}, fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ModelTurn{}, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return domain.ModelTurn{}, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	return readStream(res.Body, onDelta)
}

func buildGenerateRequest(in domain.ModelRequest) generateRequest {
	out := generateRequest{}
	if strings.TrimSpace(in.System) != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: in.System}}}
	}
	for _, m := range in.Messages {
		if c, ok := messageToContent(m); ok {
			out.Contents = append(out.Contents, c)
		}
	}
	if len(in.Tools) > 0 {
		decl := toolDecl{}
		for _, t := range in.Tools {
			decl.FunctionDeclarations = append(decl.FunctionDeclarations, functionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
		out.Tools = []toolDecl{decl}
	}
	return out
}

func messageToContent(m domain.ChatMessage) (content, bool) {
	switch m.Role {
	case domain.RoleUser:
		if strings.TrimSpace(m.Content) == "" {
			return content{}, false
		}
		return content{Role: "user", Parts: []part{{Text: m.Content}}}, true
	case domain.RoleAssistant:
		c := content{Role: "model"}
		if m.Content != "" {
			c.Parts = append(c.Parts, part{Text: m.Content})
		}
		for _, call := range m.Calls {
			c.Parts = append(c.Parts, part{FunctionCall: &functionCall{Name: call.Name, Args: call.Args}})
		}
		return c, len(c.Parts) > 0
	case domain.RoleTool:
		c := content{Role: "user"}
		for _, r := range m.Results {
			c.Parts = append(c.Parts, part{FunctionResponse: &functionResponse{Name: r.Name, Response: r.Payload}})
		}
		return c, len(c.Parts) > 0
	default:
		return content{}, false
	}
}

// readStream consumes server-sent events until EOF. Each data event carries
// one candidate chunk; text parts stream out, function calls accumulate.
func readStream(r io.Reader, onDelta func(string)) (domain.ModelTurn, error) {
	var turn domain.ModelTurn
	var text strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return domain.ModelTurn{}, fmt.Errorf("gemini: decode stream chunk: %w", err)
		}
		for _, cand := range chunk.Candidates {
			for _, p := range cand.Content.Parts {
				if p.Text != "" {
					text.WriteString(p.Text)
					if onDelta != nil {
						onDelta(p.Text)
					}
				}
				if p.FunctionCall != nil {
					turn.Calls = append(turn.Calls, domain.ToolInvocation{
						Name: p.FunctionCall.Name,
						Args: p.FunctionCall.Args,
					})
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.ModelTurn{}, fmt.Errorf("gemini: read stream: %w", err)
	}
	turn.Text = text.String()
	return turn, nil
}
