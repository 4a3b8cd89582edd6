// Package api is the typed HTTP client for the contract backend. Every call
// takes a context; callers cancel in-flight requests by cancelling it. No
// retries are performed anywhere, a failed request is reported once.
package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rb14v1/Contrackt/internal/domain"
)

// Client talks to the contract backend over JSON/HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client rooted at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// AlertsReminders polls the backend-computed alerts and reminders
func (c *Client) AlertsReminders(ctx context.Context) (*domain.AlertsRemindersResponse, error) {
	var out domain.AlertsRemindersResponse
	if err := c.getJSON(ctx, "/alerts-reminders/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Answer asks a question over the corpus, a category, or a scoped document set
func (c *Client) Answer(ctx context.Context, req domain.AnswerRequest) (*domain.AnswerResponse, error) {
	var out domain.AnswerResponse
	if err := c.postJSON(ctx, "/answer/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatWithDocument asks a follow-up question about a single document
func (c *Client) ChatWithDocument(ctx context.Context, query, s3URL string) (string, error) {
	var out domain.DocumentChatResponse
	err := c.postJSON(ctx, "/chat-with-document/", domain.DocumentChatRequest{
		Query: query,
		S3URL: s3URL,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Answer, nil
}

// SummarizeMultiple asks for a combined summary of the given documents. Older
// backend versions reply under "answer" instead of "summary".
func (c *Client) SummarizeMultiple(ctx context.Context, s3URLs []string) (string, error) {
	var out domain.SummarizeResponse
	if err := c.postJSON(ctx, "/summarize-multiple/", domain.SummarizeRequest{S3URLs: s3URLs}, &out); err != nil {
		return "", err
	}
	if out.Summary != "" {
		return out.Summary, nil
	}
	return out.Answer, nil
}

// Upload submits one contract file with its category tag as multipart form data
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader, category string) (*domain.UploadResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("contract_file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := writer.WriteField("contract_category", category); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, uploadError(resp)
	}

	var out domain.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &out, nil
}

// Contracts lists contracts for a category key
func (c *Client) Contracts(ctx context.Context, category string) ([]domain.Document, error) {
	var out domain.ContractListResponse
	if err := c.getJSON(ctx, "/contracts/"+category+"/", &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ContractsAlt lists contracts through the /api surface used by the selection
// dialog
func (c *Client) ContractsAlt(ctx context.Context, category string) ([]domain.Document, error) {
	var out domain.ContractListResponse
	if err := c.getJSON(ctx, "/api/contracts/"+category+"/", &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Categories lists the chat categories known to the backend
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out domain.CategoriesResponse
	if err := c.getJSON(ctx, "/chat/categories", &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// ChatStream sends a streaming chat request. onChunk is called for every
// content chunk as it arrives; the accumulated full response is returned once
// the stream reports done or ends.
func (c *Client) ChatStream(ctx context.Context, req domain.StreamRequest, onChunk func(chunk string)) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/stream", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("backend error: %d", resp.StatusCode)
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var frame domain.StreamFrame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			c.logger.Warn("skipping malformed stream frame", zap.Error(err))
			continue
		}

		if frame.Error != "" {
			return "", fmt.Errorf("stream error: %s", frame.Error)
		}
		if frame.Chunk != "" {
			full.WriteString(frame.Chunk)
			if onChunk != nil {
				onChunk(frame.Chunk)
			}
		}
		if frame.Done {
			if frame.FullResponse != "" {
				return frame.FullResponse, nil
			}
			return full.String(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return full.String(), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend error: %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// uploadError extracts the backend's failure detail for a rejected upload
func uploadError(resp *http.Response) error {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		if payload.Detail != "" {
			return fmt.Errorf("%s", payload.Detail)
		}
		if payload.Error != "" {
			return fmt.Errorf("%s", payload.Error)
		}
	}
	return fmt.Errorf("upload failed: %d", resp.StatusCode)
}
