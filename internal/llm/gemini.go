package llm

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
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the Google AI Studio (Gemini) REST API.
type GeminiClient struct {
	apiKey       string
	defaultModel string
	baseURL      string
	httpClient   *http.Client
}

var _ Client = (*GeminiClient)(nil)

// GeminiOption configures the client.
type GeminiOption func(*GeminiClient)

// WithGeminiBaseURL sets a custom base URL.
func WithGeminiBaseURL(url string) GeminiOption {
	return func(c *GeminiClient) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithGeminiHTTPClient sets a custom HTTP client.
func WithGeminiHTTPClient(hc *http.Client) GeminiOption {
	return func(c *GeminiClient) { c.httpClient = hc }
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(apiKey, defaultModel string, opts ...GeminiOption) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.HasPrefix(apiKey, "your_api_k") {
		return nil, fmt.Errorf("%w: replace the placeholder with a real Gemini API key", ErrMissingAPIKey)
	}
	if len(apiKey) < 30 {
		return nil, fmt.Errorf("%w: Gemini API key appears to be invalid (too short)", ErrInvalidAPIKey)
	}
	if defaultModel == "" {
		defaultModel = "gemini-2.5-flash"
	}

	c := &GeminiClient{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		baseURL:      defaultGeminiBaseURL,
		httpClient:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Gemini API types.
type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Complete sends a completion request and waits for the full response.
func (c *GeminiClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	model := c.model(req)
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)

	httpResp, err := c.doRequest(ctx, url, c.buildRequest(req))
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if err := mapGeminiHTTPError(httpResp); err != nil {
		return nil, err
	}

	var resp geminiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty candidates in response", ErrUpstream)
	}

	var content strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}

	return &CompletionResponse{
		Content:      content.String(),
		Model:        model,
		TokensIn:     resp.UsageMetadata.PromptTokenCount,
		TokensOut:    resp.UsageMetadata.CandidatesTokenCount,
		FinishReason: strings.ToLower(resp.Candidates[0].FinishReason),
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

// CompleteStream sends a streaming completion request. Chunks are read
// from the SSE body and forwarded to the callback as they arrive.
func (c *GeminiClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	start := time.Now()
	model := c.model(req)
	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", c.baseURL, model, c.apiKey)

	httpResp, err := c.doRequest(ctx, url, c.buildRequest(req))
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if err := mapGeminiHTTPError(httpResp); err != nil {
		return nil, err
	}

	var content strings.Builder
	var tokensIn, tokensOut int
	var finishReason string
	index := 0

	reader := bufio.NewReader(httpResp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: read stream: %v", ErrUpstream, err)
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}

		var resp geminiResponse
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &resp); err != nil {
			continue
		}

		if len(resp.Candidates) > 0 {
			for _, part := range resp.Candidates[0].Content.Parts {
				if part.Text == "" {
					continue
				}
				content.WriteString(part.Text)
				if err := callback(part.Text, index); err != nil {
					return nil, err
				}
				index++
			}
			if resp.Candidates[0].FinishReason != "" {
				finishReason = strings.ToLower(resp.Candidates[0].FinishReason)
			}
		}
		if resp.UsageMetadata.TotalTokenCount > 0 {
			tokensIn = resp.UsageMetadata.PromptTokenCount
			tokensOut = resp.UsageMetadata.CandidatesTokenCount
		}
	}

	return &CompletionResponse{
		Content:      content.String(),
		Model:        model,
		TokensIn:     tokensIn,
		TokensOut:    tokensOut,
		FinishReason: finishReason,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

func (c *GeminiClient) model(req *CompletionRequest) string {
	if req.Model != "" {
		return strings.TrimPrefix(req.Model, "models/")
	}
	return c.defaultModel
}

func (c *GeminiClient) buildRequest(req *CompletionRequest) geminiRequest {
	var contents []geminiContent
	for _, m := range req.Messages {
		role := m.Role
		if role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	gr := geminiRequest{Contents: contents}

	if req.SystemInstruction != "" {
		gr.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.SystemInstruction}},
		}
	}

	if req.Temperature != 0 || req.MaxTokens != 0 {
		gc := &geminiGenerationConfig{}
		if req.Temperature != 0 {
			t := req.Temperature
			gc.Temperature = &t
		}
		if req.MaxTokens != 0 {
			mt := req.MaxTokens
			gc.MaxOutputTokens = &mt
		}
		gr.GenerationConfig = gc
	}

	return gr
}

func (c *GeminiClient) doRequest(ctx context.Context, url string, body geminiRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrUpstream, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrUpstream, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return resp, nil
}

func mapGeminiHTTPError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))

	// Bad keys surface as 400 INVALID_ARGUMENT with an API_KEY_INVALID
	// detail rather than a 401.
	if bytes.Contains(body, []byte("API_KEY_INVALID")) {
		return ErrInvalidAPIKey
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrInvalidAPIKey
	case http.StatusForbidden:
		return ErrPermissionDenied
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
