package mlbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emiliopalmerini/mltrainer/internal/domain"
)

const (
	uploadPath   = "/api/upload"
	trainPath    = "/api/train"
	featuresPath = "/api/features"
	predictPath  = "/api/predict"

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 4 << 10
)

// ErrMalformedResponse is returned when a successful response lacks the
// field the caller needs.
var ErrMalformedResponse = errors.New("malformed backend response")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Code)
}

// Client talks to the ML backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new ML backend client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("ML backend URL not configured")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported backend URL scheme %q", u.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type uploadResponse struct {
	Columns []string `json:"columns"`
}

type trainRequest struct {
	TargetVariable string `json:"target_variable"`
}

type trainResponse struct {
	PredictionURL *string `json:"prediction_url"`
}

type featuresResponse struct {
	Features []string `json:"features"`
}

type predictResponse struct {
	Prediction any `json:"prediction"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// UploadDataset posts the file as multipart form field "file".
func (c *Client) UploadDataset(ctx context.Context, file *domain.File) ([]string, error) {
	if file == nil {
		return nil, domain.ErrNoFile
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	var resp uploadResponse
	if err := c.do(ctx, http.MethodPost, uploadPath, mw.FormDataContentType(), &body, &resp); err != nil {
		return nil, err
	}
	if resp.Columns == nil {
		return nil, fmt.Errorf("%w: missing columns", ErrMalformedResponse)
	}
	return resp.Columns, nil
}

// Train posts {"target_variable": ...}.
func (c *Client) Train(ctx context.Context, targetVariable string) (string, error) {
	payload, err := json.Marshal(trainRequest{TargetVariable: targetVariable})
	if err != nil {
		return "", fmt.Errorf("encoding train request: %w", err)
	}

	var resp trainResponse
	if err := c.do(ctx, http.MethodPost, trainPath, "application/json", bytes.NewReader(payload), &resp); err != nil {
		return "", err
	}
	if resp.PredictionURL == nil || *resp.PredictionURL == "" {
		return "", fmt.Errorf("%w: missing prediction_url", ErrMalformedResponse)
	}
	return *resp.PredictionURL, nil
}

// Features fetches the feature names of the trained model.
func (c *Client) Features(ctx context.Context) ([]string, error) {
	var resp featuresResponse
	if err := c.do(ctx, http.MethodGet, featuresPath, "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Features == nil {
		return nil, fmt.Errorf("%w: missing features", ErrMalformedResponse)
	}
	return resp.Features, nil
}

// Predict posts the feature-name to value mapping.
func (c *Client) Predict(ctx context.Context, inputs map[string]string) (*domain.Prediction, error) {
	if inputs == nil {
		inputs = map[string]string{}
	}
	payload, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("encoding predict request: %w", err)
	}

	var resp predictResponse
	if err := c.do(ctx, http.MethodPost, predictPath, "application/json", bytes.NewReader(payload), &resp); err != nil {
		return nil, err
	}
	if resp.Prediction == nil {
		return nil, fmt.Errorf("%w: missing prediction", ErrMalformedResponse)
	}
	return &domain.Prediction{Value: resp.Prediction}, nil
}

// Ping reports whether the backend answers HTTP at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+featuresPath, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding: %v", ErrMalformedResponse, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	se := &StatusError{Code: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return se
	}
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil {
		se.Message = er.Error
	}
	return se
}
