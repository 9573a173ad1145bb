// Package openai is a thin REST client for the three upstream endpoints this
// service depends on: the Files API (upload), the Responses API (tool-forced
// generation inside a code-execution container), and the Container Files API
// (artifact download).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// PurposeUserData is the purpose tag for files uploaded as analysis input.
const PurposeUserData = "user_data"

type Client struct {
	baseURL         string
	apiKey          string
	httpClient      *http.Client
	downloadTimeout time.Duration
	log             zerolog.Logger
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(url), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithDownloadTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.downloadTimeout = d
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:         DefaultBaseURL,
		apiKey:          apiKey,
		httpClient:      &http.Client{Timeout: 15 * time.Minute},
		downloadTimeout: 3 * time.Minute,
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UploadError wraps a failure to push input bytes to the Files API. Not
// retried here; retry policy belongs to the caller.
type UploadError struct {
	StatusCode int
	Err        error
}

func (e *UploadError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("file upload failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("file upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// DownloadError identifies which container artifact failed to download.
type DownloadError struct {
	ContainerID string
	FileID      string
	StatusCode  int
	Err         error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s/%s failed: %v", e.ContainerID, e.FileID, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Errorf("%s: %s", resp.Status, parsed.Error.Message)
	}
	return errors.New(resp.Status)
}

type fileObject struct {
	ID string `json:"id"`
}

// UploadFile sends raw bytes to the Files API and returns the opaque file ID.
func (c *Client) UploadFile(ctx context.Context, filename string, data []byte, purpose string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", purpose); err != nil {
		return "", &UploadError{Err: err}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	if _, err := fw.Write(data); err != nil {
		return "", &UploadError{Err: err}
	}
	if err := mw.Close(); err != nil {
		return "", &UploadError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &UploadError{StatusCode: resp.StatusCode, Err: apiError(resp)}
	}

	var file fileObject
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return "", &UploadError{Err: fmt.Errorf("decode upload response: %w", err)}
	}
	if file.ID == "" {
		return "", &UploadError{Err: errors.New("upload response carries no file id")}
	}
	c.log.Debug().Str("file_id", file.ID).Int("bytes", len(data)).Msg("uploaded input file")
	return file.ID, nil
}

// CreateResponse submits a generation request. The request must carry the
// code_interpreter tool with a mandatory tool choice; this layer sends the
// payload as-is and decodes the response tolerantly.
func (c *Client) CreateResponse(ctx context.Context, req ResponseRequest) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode response request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation request: %w", apiError(resp))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}
	c.log.Debug().
		Str("response_id", out.ID).
		Dur("elapsed", time.Since(start)).
		Int("output_items", len(out.Output)).
		Msg("generation response received")
	return &out, nil
}

// DownloadContainerFile fetches one artifact's bytes from the Container Files
// API. The call is bounded by the client's download timeout, and reads at most
// maxBytes (0 means unlimited).
func (c *Client) DownloadContainerFile(ctx context.Context, containerID, fileID string, maxBytes int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/containers/%s/files/%s/content", c.baseURL, containerID, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &DownloadError{ContainerID: containerID, FileID: fileID, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &DownloadError{ContainerID: containerID, FileID: fileID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &DownloadError{ContainerID: containerID, FileID: fileID, StatusCode: resp.StatusCode, Err: apiError(resp)}
	}

	reader := io.Reader(resp.Body)
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &DownloadError{ContainerID: containerID, FileID: fileID, Err: err}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, &DownloadError{
			ContainerID: containerID,
			FileID:      fileID,
			Err:         fmt.Errorf("artifact exceeds the %d byte limit", maxBytes),
		}
	}
	return data, nil
}
