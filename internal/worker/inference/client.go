package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Result is the classification verdict for one audio file.
type Result struct {
	ModelUsed       string  `json:"model_used"`
	Prediction      string  `json:"prediction"`
	ProbabilityFake float64 `json:"probability_fake"`
	ProbabilityReal float64 `json:"probability_real"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// Config holds the inference service endpoint settings.
type Config struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// Client calls the inference HTTP service. The HTTP transport and the
// response schema are initialized lazily behind a once-guard so the worker
// process starts without paying for them; after Init the handle is an
// explicitly constructed dependency, not ambient state.
type Client struct {
	cfg    Config
	logger *slog.Logger

	initOnce sync.Once
	initErr  error
	http     *http.Client
	schema   *jsonschema.Schema
}

// NewClient creates an inference client. Init (or the first Infer) finishes
// construction.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{cfg: cfg, logger: logger}
}

// Init prepares the transport and compiles the response schema. Safe to
// call multiple times; only the first call does work.
func (c *Client) Init() error {
	c.initOnce.Do(func() {
		timeout := c.cfg.Timeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		c.http = &http.Client{Timeout: timeout}

		c.schema, c.initErr = compileResultSchema()
		if c.initErr == nil {
			c.logger.Info("Inference client initialized",
				slog.String("url", c.cfg.URL),
				slog.String("model", c.cfg.Model),
			)
		}
	})
	return c.initErr
}

// Infer sends the audio content to the inference service and returns its
// verdict along with the raw validated payload.
func (c *Client) Infer(ctx context.Context, content []byte, contentType string) (*Result, []byte, error) {
	if err := c.Init(); err != nil {
		return nil, nil, fmt.Errorf("inference client init: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(content))
	if err != nil {
		return nil, nil, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.cfg.Model != "" {
		req.Header.Set("X-Model", c.cfg.Model)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read inference response: %w", err)
	}

	c.logger.Debug("Inference response received",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(raw)),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode/100 != 2 {
		return nil, nil, fmt.Errorf("inference service returned status %d", resp.StatusCode)
	}

	if err := validateResult(c.schema, raw); err != nil {
		return nil, nil, fmt.Errorf("invalid inference payload: %w", err)
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, nil, fmt.Errorf("decode inference payload: %w", err)
	}

	return &result, raw, nil
}
