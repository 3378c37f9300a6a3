package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/trustlayer/trustgraph/internal/infrastructure/resilience"
)

// Client is the external summarization capability behind the analyzer's
// Summarizer port. Calls are rate limited and run under retry plus a circuit
// breaker; the analyzer falls back to its rule-based method on any error.
type Client struct {
	baseURL    string
	model      string
	embedModel string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	Timeout           time.Duration
	RequestsPerMinute int
	EmbedModel        string
	Executor          *resilience.Executor
}

func New(baseURL, model string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	var limiter *rate.Limiter
	if options.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(options.RequestsPerMinute)), 1)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		embedModel: options.EmbedModel,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		executor:   options.Executor,
	}
}

// Embed returns the embedding vector for text, used by the semantic matching
// stage when precomputed product embeddings are loaded.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.embedModel == "" {
		return nil, fmt.Errorf("embed model not configured")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embed rate limit: %w", err)
		}
	}

	request := map[string]any{
		"model":  c.embedModel,
		"prompt": text,
	}

	var response struct {
		Embedding []float64 `json:"embedding"`
	}
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/embeddings", request, &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Run(ctx, "ollama.embed", call, classifySummarizerError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return response.Embedding, nil
}

func (c *Client) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("summarize rate limit: %w", err)
		}
	}

	request := map[string]any{
		"model":  c.model,
		"prompt": buildSummaryPrompt(text, maxWords),
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", request, &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Run(ctx, "ollama.summarize", call, classifySummarizerError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func buildSummaryPrompt(text string, maxWords int) string {
	return fmt.Sprintf(
		"Summarize the following product feedback in at most %d words. "+
			"Keep the reviewer's verdict and the product qualities they mention. "+
			"Reply with the summary only.\n\n%s",
		maxWords, text,
	)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal summarize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create summarize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama summarize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode summarize response: %w", err)
	}
	return nil
}
