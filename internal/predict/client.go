// Package predict talks to the external exoplanet classification service.
//
// The service is a separate process exposing POST /api/predict,
// GET /api/features and GET /api/health. Calls are never retried; a
// per-call timeout bounds requests that never answer.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/exoplorer/internal/config"
	"github.com/JonMunkholm/exoplorer/internal/logging"
)

// ErrDisabled is returned by every call when no service URL is configured.
var ErrDisabled = errors.New("prediction service disabled")

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prediction service returned %d", e.Status)
	}
	return fmt.Sprintf("prediction service returned %d: %s", e.Status, e.Message)
}

// Result is one classification.
type Result struct {
	Prediction    string             `json:"prediction"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Model         string             `json:"model,omitempty"`
	Accuracy      float64            `json:"accuracy,omitempty"`
	Warning       string             `json:"warning,omitempty"`
}

// Health is the service's self report.
type Health struct {
	Status        string  `json:"status"`
	ModelLoaded   bool    `json:"model_loaded"`
	ExoAvailable  bool    `json:"exo_available"`
	ModelAccuracy float64 `json:"model_accuracy"`
}

// Client calls the prediction service. The zero value is not usable; use New.
type Client struct {
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	concurrency int
}

// New builds a Client from cfg. An empty URL yields a disabled client.
func New(cfg config.PredictConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		http:        &http.Client{},
		timeout:     timeout,
		concurrency: concurrency,
	}
}

// Enabled reports whether a service URL is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Predict classifies one candidate. Values that parse as numbers are sent
// as JSON numbers, everything else as "".
func (c *Client) Predict(ctx context.Context, features map[string]string) (*Result, error) {
	payload := struct {
		Features map[string]any `json:"features"`
	}{Features: encodeFeatures(features)}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("prediction service: encode request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/api/predict", body)
	if err != nil {
		return nil, err
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("prediction service: decode response: %w", err)
	}
	return &res, nil
}

// Features returns the feature names the model expects.
func (c *Client) Features(ctx context.Context) ([]string, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/features", nil)
	if err != nil {
		return nil, err
	}

	list := gjson.GetBytes(raw, "features")
	if !list.IsArray() {
		return nil, errors.New("prediction service: features missing from response")
	}
	out := make([]string, 0, len(list.Array()))
	for _, v := range list.Array() {
		out = append(out, v.String())
	}
	return out, nil
}

// Health asks the service whether its model is loaded.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}
	var h Health
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("prediction service: decode health: %w", err)
	}
	return &h, nil
}

// RowResult is the outcome of one row in a batch. Exactly one of Result
// and Error is set.
type RowResult struct {
	Index  int     `json:"index"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// PredictRows classifies every row with at most limit calls in flight.
// A non-positive limit uses the configured concurrency. Per-row failures
// are recorded in the results; only a canceled ctx fails the batch.
func (c *Client) PredictRows(ctx context.Context, rows []map[string]string, limit int) ([]RowResult, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = c.concurrency
	}

	results := make([]RowResult, len(rows))
	var failed int
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := c.Predict(gctx, row)
			results[i] = RowResult{Index: i, Result: res}
			if err != nil {
				results[i].Error = err.Error()
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("batch prediction finished",
		"rows", len(rows), "failed", failed, "concurrency", limit)
	return results, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("prediction service: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("prediction service: read response: %w", err)
	}

	logging.FromContext(ctx).Debug("prediction service call",
		"method", method, "path", path, "status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: gjson.GetBytes(raw, "error").String(),
		}
	}
	return raw, nil
}

// encodeFeatures converts form strings to the service's JSON shape.
func encodeFeatures(features map[string]string) map[string]any {
	out := make(map[string]any, len(features))
	for name, v := range features {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			out[name] = ""
			continue
		}
		out[name] = f
	}
	return out
}
