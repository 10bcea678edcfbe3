package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"model-trainer-service/internal/config"
	ports "model-trainer-service/internal/core/ports/output"
)

type detectorClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewDetectorClient creates the client for the external image classifier
// used to auto-label artifacts whose source could not supply a label.
func NewDetectorClient(cfg config.DetectorConfig) ports.DetectorClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &detectorClient{
		baseURL:    cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type detectResponse struct {
	AIProbability float64 `json:"ai_probability"`
	Model         string  `json:"model"`
}

func (c *detectorClient) Classify(ctx context.Context, image []byte) (*ports.Detection, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "sample.jpg")
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/detect", &body)
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("classify request: HTTP %d: %s", resp.StatusCode, payload)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode classify response: %w", err)
	}
	return &ports.Detection{AIProbability: out.AIProbability, Model: out.Model}, nil
}
