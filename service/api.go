package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/yisunguk/drawing-detector-sub003/config"
	"github.com/yisunguk/drawing-detector-sub003/model"
	"github.com/yisunguk/drawing-detector-sub003/pkg/apperr"
)

// TokenSource supplies a bearer credential for authenticated calls.
// Implementations must fail without making a network request when no
// valid session exists.
type TokenSource interface {
	Token() (string, error)
}

// ContractAPI is the client of the upstream contract parse/persistence
// service. Every call is bearer-authenticated except the contract list.
type ContractAPI struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

func NewContractAPI(cfg *config.APIConfig, tokens TokenSource) *ContractAPI {
	return &ContractAPI{
		baseURL: cfg.BaseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// DeviationRequest is the body of a create-deviation call.
type DeviationRequest struct {
	ArticleNo      int    `json:"article_no"`
	Subject        string `json:"subject"`
	InitialComment string `json:"initial_comment,omitempty"`
	AuthorRole     string `json:"author_role"`
	AuthorName     string `json:"author_name"`
}

// CommentRequest is the body of an add-comment call.
type CommentRequest struct {
	Author     string `json:"author"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
}

type contractListResponse struct {
	Contracts []model.ContractSummary `json:"contracts"`
}

type contractIDResponse struct {
	ContractID string `json:"contract_id"`
}

// ListContracts fetches the upstream contract list. Unauthenticated.
func (c *ContractAPI) ListContracts(ctx context.Context) ([]model.ContractSummary, error) {
	body, err := c.do(ctx, http.MethodGet, "/contracts/list", nil, "", false,
		"계약서 목록을 불러오지 못했습니다")
	if err != nil {
		return nil, err
	}

	var lr contractListResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, apperr.Network("계약서 목록 형식이 올바르지 않습니다", err)
	}
	return lr.Contracts, nil
}

// GetContract fetches the full detail of one contract. This is the
// authoritative read the session cache is rebuilt from after every
// mutation.
func (c *ContractAPI) GetContract(ctx context.Context, id string) (*model.Contract, error) {
	body, err := c.do(ctx, http.MethodGet, "/contracts/"+url.PathEscape(id), nil, "", true,
		"계약서 상세를 불러오지 못했습니다")
	if err != nil {
		return nil, err
	}

	var contract model.Contract
	if err := json.Unmarshal(body, &contract); err != nil {
		return nil, apperr.Network("계약서 상세 형식이 올바르지 않습니다", err)
	}
	return &contract, nil
}

// Upload submits a contract document for parsing and returns the new
// contract id.
func (c *ContractAPI) Upload(ctx context.Context, contractName, filename string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := mw.WriteField("contract_name", contractName); err != nil {
		return "", fmt.Errorf("failed to write contract_name field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/contracts/upload", &buf, mw.FormDataContentType(), true,
		"계약서 업로드에 실패했습니다")
	if err != nil {
		return "", err
	}
	return decodeContractID(body)
}

// ParseExisting asks the upstream service to parse a JSON document
// already present in storage and returns the new contract id.
func (c *ContractAPI) ParseExisting(ctx context.Context, jsonPath, contractName string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"json_path":     jsonPath,
		"contract_name": contractName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal parse request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/contracts/parse-existing", bytes.NewReader(payload), "application/json", true,
		"기존 문서 분석 요청에 실패했습니다")
	if err != nil {
		return "", err
	}
	return decodeContractID(body)
}

// DeleteContract removes a contract upstream.
func (c *ContractAPI) DeleteContract(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/contracts/"+url.PathEscape(id), nil, "", true,
		"계약서 삭제에 실패했습니다")
	return err
}

// CreateDeviation records a new deviation against an article and
// returns the created record as echoed by the server.
func (c *ContractAPI) CreateDeviation(ctx context.Context, contractID string, req DeviationRequest) (*model.Deviation, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deviation request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/contracts/"+url.PathEscape(contractID)+"/deviations",
		bytes.NewReader(payload), "application/json", true,
		"특이사항 등록에 실패했습니다")
	if err != nil {
		return nil, err
	}

	var dev model.Deviation
	if err := json.Unmarshal(body, &dev); err != nil {
		return nil, apperr.Network("특이사항 응답 형식이 올바르지 않습니다", err)
	}
	return &dev, nil
}

// AddComment appends a comment to a deviation's thread.
func (c *ContractAPI) AddComment(ctx context.Context, contractID, deviationID string, req CommentRequest) (*model.Comment, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comment request: %w", err)
	}

	path := fmt.Sprintf("/contracts/%s/deviations/%s/comments", url.PathEscape(contractID), url.PathEscape(deviationID))
	body, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json", true,
		"의견 등록에 실패했습니다")
	if err != nil {
		return nil, err
	}

	var comment model.Comment
	if err := json.Unmarshal(body, &comment); err != nil {
		return nil, apperr.Network("의견 응답 형식이 올바르지 않습니다", err)
	}
	return &comment, nil
}

// UpdateDeviationStatus sets a deviation's status upstream.
func (c *ContractAPI) UpdateDeviationStatus(ctx context.Context, contractID, deviationID, status string) error {
	payload, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return fmt.Errorf("failed to marshal status request: %w", err)
	}

	path := fmt.Sprintf("/contracts/%s/deviations/%s/status", url.PathEscape(contractID), url.PathEscape(deviationID))
	_, err = c.do(ctx, http.MethodPatch, path, bytes.NewReader(payload), "application/json", true,
		"상태 변경에 실패했습니다")
	return err
}

// do runs one request against the upstream service. For authenticated
// calls the token is resolved first, so a missing session fails before
// any network traffic.
func (c *ContractAPI) do(ctx context.Context, method, path string, body io.Reader, contentType string, authed bool, fallback string) ([]byte, error) {
	var token string
	if authed {
		var err error
		token, err = c.tokens.Token()
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Network(fallback, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Network(fallback, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := detailOrDefault(respBody, fallback)
		if resp.StatusCode == http.StatusNotFound {
			return nil, apperr.NotFound(msg)
		}
		return nil, apperr.Network(msg, fmt.Errorf("upstream returned %d", resp.StatusCode))
	}

	return respBody, nil
}

func decodeContractID(body []byte) (string, error) {
	var cr contractIDResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", apperr.Network("응답 형식이 올바르지 않습니다", err)
	}
	return cr.ContractID, nil
}

// detailOrDefault extracts the optional {detail} message of a non-2xx
// response, falling back to the per-endpoint generic message.
func detailOrDefault(body []byte, fallback string) string {
	var eb struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &eb); err == nil && eb.Detail != "" {
		return eb.Detail
	}
	return fallback
}
