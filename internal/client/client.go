// Package client 地点服务 HTTP 客户端
package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/dto"
)

const (
	locationsPath = "/api/v1/locations"
	locationPath  = "/api/v1/locations/{id}"
	inventoryPath = "/api/v1/exports/inventory"
)

// envelope 服务端统一响应结构
type envelope[T any] struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    T                 `json:"data"`
	Details *dto.ErrorDetails `json:"details"`
}

// APIError 服务端返回的业务错误
type APIError struct {
	Status  int
	Code    int
	Message string
	Details *dto.ErrorDetails
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("HTTP %d [%d] %s", e.Status, e.Code, e.Message)
	if e.Details != nil && e.Details.Field != "" {
		msg += fmt.Sprintf(" (%s=%q)", e.Details.Field, e.Details.Value)
	}
	return msg
}

// Retryable 服务端是否标记该错误可重试
func (e *APIError) Retryable() bool {
	return e.Details != nil && e.Details.Retryable
}

// LocationClient 地点服务客户端
type LocationClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// New 创建客户端。读请求在服务端返回 503 时自动重试
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *LocationClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, _ error) bool {
			return r != nil && r.Request != nil &&
				r.Request.Method == http.MethodGet &&
				r.StatusCode() == http.StatusServiceUnavailable
		}).
		SetHeader("Accept", "application/json")

	return &LocationClient{httpClient: client, logger: logger}
}

// ── 地点接口 ──

// List 获取全部地点
func (c *LocationClient) List(ctx context.Context) ([]dto.LocationResponse, error) {
	data, err := execute[struct {
		List []dto.LocationResponse `json:"list"`
	}](c, c.httpClient.R().SetContext(ctx), http.MethodGet, locationsPath)
	if err != nil {
		return nil, err
	}
	return data.List, nil
}

// Get 获取单个地点
func (c *LocationClient) Get(ctx context.Context, id string) (*dto.LocationResponse, error) {
	return execute[*dto.LocationResponse](c, c.httpClient.R().SetContext(ctx).SetPathParam("id", id), http.MethodGet, locationPath)
}

// Create 创建地点
func (c *LocationClient) Create(ctx context.Context, req *dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	r := c.httpClient.R().SetContext(ctx).SetHeader("Content-Type", "application/json").SetBody(req)
	return execute[*dto.LocationResponse](c, r, http.MethodPost, locationsPath)
}

// Patch 局部更新地点
func (c *LocationClient) Patch(ctx context.Context, id string, req *dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	r := c.httpClient.R().SetContext(ctx).SetPathParam("id", id).SetHeader("Content-Type", "application/json").SetBody(req)
	return execute[*dto.LocationResponse](c, r, http.MethodPatch, locationPath)
}

// Delete 删除地点，返回被删除的地点
func (c *LocationClient) Delete(ctx context.Context, id string) (*dto.LocationResponse, error) {
	return execute[*dto.LocationResponse](c, c.httpClient.R().SetContext(ctx).SetPathParam("id", id), http.MethodDelete, locationPath)
}

// ExportInventory 下载设备清单写入 w，返回服务端建议的文件名
func (c *LocationClient) ExportInventory(ctx context.Context, w io.Writer) (string, error) {
	var fail envelope[struct{}]
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetError(&fail).
		Get(inventoryPath)
	if err != nil {
		return "", fmt.Errorf("下载设备清单失败: %w", err)
	}
	if resp.IsError() {
		return "", &APIError{Status: resp.StatusCode(), Code: fail.Code, Message: fail.Message, Details: fail.Details}
	}

	if _, err := w.Write(resp.Body()); err != nil {
		return "", fmt.Errorf("写入设备清单失败: %w", err)
	}

	filename := "inventory.xlsx"
	if _, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" {
			filename = name
		}
	}
	return filename, nil
}

// ── 内部辅助方法 ──

func execute[T any](c *LocationClient, req *resty.Request, method, path string) (T, error) {
	var (
		zero T
		ok   envelope[T]
		fail envelope[struct{}]
	)

	resp, err := req.SetResult(&ok).SetError(&fail).Execute(method, path)
	if err != nil {
		c.logger.Error("请求地点服务失败",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return zero, fmt.Errorf("请求 %s %s 失败: %w", method, path, err)
	}

	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Code: fail.Code, Message: fail.Message, Details: fail.Details}
		c.logger.Debug("地点服务返回错误",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", apiErr.Status),
			zap.Int("code", apiErr.Code),
		)
		return zero, apiErr
	}
	return ok.Data, nil
}
