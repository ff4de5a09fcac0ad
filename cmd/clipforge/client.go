package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clipforge/internal/api"
)

// apiClient talks to the clipforge daemon's HTTP API.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(addr string) *apiClient {
	addr = strings.TrimSpace(addr)
	if addr != "" && !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &apiClient{
		base: strings.TrimRight(addr, "/"),
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	if c.base == "" {
		return fmt.Errorf("daemon address not configured (is clipforged running?)")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contact daemon at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) Health(ctx context.Context) (api.HealthResponse, error) {
	var resp api.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp)
	return resp, err
}

func (c *apiClient) Import(ctx context.Context, path string) (api.AssetResponse, error) {
	var resp api.AssetResponse
	err := c.do(ctx, http.MethodPost, "/api/assets", api.ImportRequest{Path: path}, &resp)
	return resp, err
}

func (c *apiClient) ListAssets(ctx context.Context, status string) ([]api.AssetResponse, error) {
	path := "/api/assets"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var resp api.AssetsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Assets, nil
}

func (c *apiClient) GetAsset(ctx context.Context, id string) (api.AssetDetailResponse, error) {
	var resp api.AssetDetailResponse
	err := c.do(ctx, http.MethodGet, "/api/assets/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

func (c *apiClient) Job(ctx context.Context, id string) (api.JobResponse, error) {
	var resp api.JobResponse
	err := c.do(ctx, http.MethodGet, "/api/assets/"+url.PathEscape(id)+"/job", nil, &resp)
	return resp, err
}

func (c *apiClient) Approve(ctx context.Context, id string) (api.AcceptedResponse, error) {
	var resp api.AcceptedResponse
	err := c.do(ctx, http.MethodPost, "/api/assets/"+url.PathEscape(id)+"/approve", nil, &resp)
	return resp, err
}

func (c *apiClient) Reject(ctx context.Context, id string) (api.AcceptedResponse, error) {
	var resp api.AcceptedResponse
	err := c.do(ctx, http.MethodPost, "/api/assets/"+url.PathEscape(id)+"/reject", nil, &resp)
	return resp, err
}

func (c *apiClient) Regenerate(ctx context.Context, id string) (api.AcceptedResponse, error) {
	var resp api.AcceptedResponse
	err := c.do(ctx, http.MethodPost, "/api/assets/"+url.PathEscape(id)+"/regenerate", nil, &resp)
	return resp, err
}

func (c *apiClient) Rescan(ctx context.Context, id string) (api.RescanResponse, error) {
	var resp api.RescanResponse
	err := c.do(ctx, http.MethodPost, "/api/assets/"+url.PathEscape(id)+"/rescan", nil, &resp)
	return resp, err
}

func (c *apiClient) Remove(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/assets/"+url.PathEscape(id), nil, nil)
}
