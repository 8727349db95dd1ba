package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yisunguk/drawing-detector-sub003/config"
	"github.com/yisunguk/drawing-detector-sub003/model"
	"github.com/yisunguk/drawing-detector-sub003/pkg/apperr"
)

// Lister lists the children of one path in the document store.
type Lister interface {
	List(ctx context.Context, path string) ([]model.BrowseEntry, error)
}

// AzureLister queries the blob-listing service over HTTP.
// Unauthenticated by design.
type AzureLister struct {
	baseURL    string
	httpClient *http.Client
}

func NewAzureLister(cfg *config.AzureConfig) *AzureLister {
	return &AzureLister{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

func (l *AzureLister) List(ctx context.Context, path string) ([]model.BrowseEntry, error) {
	u := l.baseURL + "/azure/list?path=" + url.QueryEscape(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, apperr.IO("문서 목록을 불러오지 못했습니다", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.IO("문서 목록 응답을 읽지 못했습니다", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.IO("문서 목록을 불러오지 못했습니다", fmt.Errorf("listing service returned %d", resp.StatusCode))
	}

	var entries []model.BrowseEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, apperr.IO("문서 목록 형식이 올바르지 않습니다", err)
	}
	return entries, nil
}
