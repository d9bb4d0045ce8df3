package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Message is one turn of the running conversation sent to the endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds the endpoint knobs, resolved from the environment.
type Config struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
	NumPredict  int
}

// ConfigFromEnv resolves endpoint configuration. LLM_TIMEOUT_SECONDS bounds
// a single completion call; a timeout degrades to the caller's fallback
// rather than blocking the match.
func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL:     "http://localhost:11434",
		Model:       "gemma3:latest",
		Timeout:     90 * time.Second,
		Temperature: 0.7,
		NumPredict:  -1, // unlimited token generation
	}
	if v := strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LLM_MODEL")); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("LLM_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Timeout = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("LLM_TEMPERATURE")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Temperature = f
		}
	}
	return cfg
}

// Client talks to an Ollama-compatible chat endpoint. Calls are synchronous,
// non-streamed and bounded by the configured timeout; every failure mode
// (transport error, non-200, malformed body) comes back as an error the
// caller can degrade on.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *Client) Model() string { return c.cfg.Model }

// Chat requests a full completion for the given conversation.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	payload := map[string]any{
		"model":    c.cfg.Model,
		"messages": messages,
		"stream":   false,
		"options": map[string]any{
			"temperature": c.cfg.Temperature,
			"num_predict": c.cfg.NumPredict,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat endpoint http %d: %s", resp.StatusCode, truncate(buf.String(), 800))
	}

	var reply struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(buf.Bytes(), &reply); err != nil {
		return "", fmt.Errorf("malformed chat response: %w", err)
	}
	return reply.Message.Content, nil
}

// ListModels queries the endpoint's model catalog; on any failure it returns
// just the configured model so callers always have something to offer.
func (c *Client) ListModels(ctx context.Context) []string {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return []string{c.cfg.Model}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("model catalog unavailable")
		return []string{c.cfg.Model}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return []string{c.cfg.Model}
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil || len(tags.Models) == 0 {
		return []string{c.cfg.Model}
	}
	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names
}

// IsTimeout reports whether an error from Chat was a deadline rather than a
// hard endpoint failure.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
