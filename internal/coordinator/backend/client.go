// Package backend implements the coordinator's Backend over the tax agent HTTP API.
package backend

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

	"go.uber.org/zap"

	"github.com/garyjia/ai-tax-agent/internal/coordinator"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// Endpoint paths of the backend service
const (
	PathPersonalInfo  = "/submit-personal-info"
	PathUpload        = "/upload"
	PathUploadedFiles = "/uploaded-files"
	PathCalculateTax  = "/calculate-tax"
	PathClearAll      = "/clear-all"
	PathTaxChat       = "/api/tax-chat"
)

const opComputeTax = "compute tax"

// maxErrorBody caps how much of a failed response is read
const maxErrorBody = 64 << 10

// Client talks to the backend service. Timeouts come from the caller's context.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ coordinator.Backend = (*Client)(nil)

// New creates a client for the service at baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type personalInfoRequest struct {
	FilingStatus      string `json:"filingStatus"`
	DependentChildren int    `json:"dependentChildren"`
	OtherDependents   int    `json:"otherDependents"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type fileResult struct {
	OriginalName string `json:"originalName"`
	StoredName   string `json:"storedName"`
	Status       string `json:"status"`
	Reason       string `json:"reason"`
	Error        string `json:"error"`
}

type uploadResponse struct {
	Files []fileResult `json:"files"`
}

type uploadedFilesResponse struct {
	Success bool                        `json:"success"`
	Files   []entity.UploadedFileRecord `json:"files"`
}

type taxResultResponse struct {
	Results *entity.TaxResult `json:"results"`
}

type chatRequest struct {
	Message     string               `json:"message"`
	ChatHistory []entity.ChatMessage `json:"chatHistory"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// CommitPersonalInfo replaces the personal info held by the service
func (c *Client) CommitPersonalInfo(ctx context.Context, info entity.PersonalInfo) error {
	const op = "commit personal info"
	req, err := c.newJSONRequest(ctx, http.MethodPost, PathPersonalInfo, personalInfoRequest{
		FilingStatus:      info.FilingStatus.String(),
		DependentChildren: info.DependentChildren,
		OtherDependents:   info.OtherDependents,
	})
	if err != nil {
		return &coordinator.RemoteError{Op: op, Err: err}
	}

	var resp okResponse
	if err := c.do(req, op, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return &coordinator.RemoteError{Op: op, StatusCode: http.StatusOK, Message: "personal information was not accepted"}
	}
	return nil
}

// UploadDocuments sends the files as one multipart batch. The service answers
// with one result per file in submission order.
func (c *Client) UploadDocuments(ctx context.Context, files []entity.DocumentRef) ([]entity.UploadOutcome, error) {
	const op = "upload documents"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.DisplayName)
		if err != nil {
			return nil, &coordinator.RemoteError{Op: op, Err: err}
		}
		if _, err := part.Write(f.Payload); err != nil {
			return nil, &coordinator.RemoteError{Op: op, Err: err}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, &coordinator.RemoteError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathUpload, &body)
	if err != nil {
		return nil, &coordinator.RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp uploadResponse
	if err := c.do(req, op, &resp); err != nil {
		return nil, err
	}

	outcomes := make([]entity.UploadOutcome, 0, len(resp.Files))
	for _, r := range resp.Files {
		outcomes = append(outcomes, toOutcome(r))
	}
	c.logger.Debug("Upload answered", zap.Int("files", len(files)), zap.Int("results", len(outcomes)))
	return outcomes, nil
}

// toOutcome decodes one wire result. An error field wins over any status.
func toOutcome(r fileResult) entity.UploadOutcome {
	if r.Error != "" {
		return entity.Errored(r.OriginalName, r.Error)
	}
	switch r.Status {
	case entity.DocumentStatusProcessed:
		return entity.Processed(r.OriginalName, r.StoredName)
	case entity.DocumentStatusSkipped:
		reason := r.Reason
		if reason == "" {
			reason = entity.SkipReasonAlreadyUploaded
		}
		return entity.Skipped(r.OriginalName, reason)
	default:
		return entity.Errored(r.OriginalName, fmt.Sprintf("Error processing %s: unrecognized status %q", r.OriginalName, r.Status))
	}
}

// ListUploadedFiles returns the registry listing
func (c *Client) ListUploadedFiles(ctx context.Context) ([]entity.UploadedFileRecord, error) {
	const op = "list uploaded files"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathUploadedFiles, nil)
	if err != nil {
		return nil, &coordinator.RemoteError{Op: op, Err: err}
	}

	var resp uploadedFilesResponse
	if err := c.do(req, op, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &coordinator.RemoteError{Op: op, StatusCode: http.StatusOK, Message: "listing reported failure"}
	}
	return resp.Files, nil
}

// ComputeTax runs a computation over the current registry
func (c *Client) ComputeTax(ctx context.Context) (*entity.TaxResult, error) {
	const op = opComputeTax
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathCalculateTax, nil)
	if err != nil {
		return nil, &coordinator.RemoteError{Op: op, Err: err}
	}

	var resp taxResultResponse
	if err := c.do(req, op, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return nil, &coordinator.RemoteError{Op: op, StatusCode: http.StatusOK, Message: "response has no results"}
	}
	return resp.Results, nil
}

// ClearAll deletes every document, the personal info and the artifact on the service
func (c *Client) ClearAll(ctx context.Context) error {
	const op = "clear all"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathClearAll, nil)
	if err != nil {
		return &coordinator.RemoteError{Op: op, Err: err}
	}
	var resp okResponse
	return c.do(req, op, &resp)
}

// FetchArtifact downloads the raw bytes published at path
func (c *Client) FetchArtifact(ctx context.Context, path string) ([]byte, error) {
	const op = "fetch artifact"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &coordinator.RemoteError{Op: op, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &coordinator.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(op, path, resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &coordinator.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return data, nil
}

// Ask sends a question to the tax advisor. The service answers every
// question, with a fallback reply when its model is unavailable.
func (c *Client) Ask(ctx context.Context, message string, history []entity.ChatMessage) (string, error) {
	const op = "ask advisor"
	req, err := c.newJSONRequest(ctx, http.MethodPost, PathTaxChat, chatRequest{Message: message, ChatHistory: history})
	if err != nil {
		return "", &coordinator.RemoteError{Op: op, Err: err}
	}
	var resp chatResponse
	if err := c.do(req, op, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out
func (c *Client) do(req *http.Request, op string, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed", zap.String("op", op), zap.Error(err))
		return &coordinator.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.classify(op, req.URL.Path, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &coordinator.RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    "malformed response",
			Err:        err,
		}
	}
	return nil
}

// classify maps a failed response onto the coordinator's error taxonomy
func (c *Client) classify(op, path string, resp *http.Response) error {
	var env envelope
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, &env); err != nil {
		env = envelope{}
	}
	msg := env.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	c.logger.Warn("Backend returned an error",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.String("message", msg))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &coordinator.NotFoundError{Resource: path}
	case resp.StatusCode == http.StatusPreconditionFailed && op == opComputeTax:
		return &coordinator.PreconditionError{Op: op, Err: coordinator.ErrEmptyRegistry}
	case resp.StatusCode == http.StatusPreconditionFailed:
		return &coordinator.PreconditionError{Op: op, Err: errors.New(msg)}
	}
	// rejected input is reported as remote: the request already reached the service
	return &coordinator.RemoteError{Op: op, StatusCode: resp.StatusCode, Code: env.Code, Message: msg}
}
