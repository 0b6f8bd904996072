package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/dto"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/service"
	"github.com/TheLakshitha/LayoutIndex-Assessment/pkg/response"
)

// LocationHandler 地点模块 HTTP 处理器
type LocationHandler struct {
	locationSvc service.LocationService
}

// NewLocationHandler 创建 LocationHandler
func NewLocationHandler(locationSvc service.LocationService) *LocationHandler {
	return &LocationHandler{locationSvc: locationSvc}
}

// ListLocations 获取地点列表（按创建时间倒序）
// GET /api/v1/locations
func (h *LocationHandler) ListLocations(c *gin.Context) {
	locations, err := h.locationSvc.List(c.Request.Context())
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": locations})
}

// GetLocation 获取地点详情
// GET /api/v1/locations/:id
func (h *LocationHandler) GetLocation(c *gin.Context) {
	location, err := h.locationSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, location)
}

// CreateLocation 创建地点
// POST /api/v1/locations
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	var req dto.CreateLocationRequest
	if !MustBindJSON(c, &req) {
		return
	}

	location, err := h.locationSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, location)
}

// UpdateLocation 局部更新地点
// PATCH /api/v1/locations/:id
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	var req dto.UpdateLocationRequest
	if !MustBindJSON(c, &req) {
		return
	}

	location, err := h.locationSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, location)
}

// DeleteLocation 删除地点，返回被删除的地点
// DELETE /api/v1/locations/:id
func (h *LocationHandler) DeleteLocation(c *gin.Context) {
	location, err := h.locationSvc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, location)
}

// handleLocationError 统一处理地点模块业务错误
func (h *LocationHandler) handleLocationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidLocationID):
		response.ErrorWithDetails(c, http.StatusNotFound, 16002, "地点ID格式不正确", errorDetails("invalid_identifier", err))
	case errors.Is(err, service.ErrLocationNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, 16001, "地点不存在", errorDetails("not_found", err))
	case errors.Is(err, service.ErrLocationValidation):
		response.ErrorWithDetails(c, http.StatusBadRequest, 16003, "地点数据校验失败", errorDetails("validation", err))
	case errors.Is(err, service.ErrDuplicateSerialNumber):
		response.ErrorWithDetails(c, http.StatusBadRequest, 16004, "设备序列号已存在", errorDetails("duplicate_serial_number", err))
	case errors.Is(err, service.ErrLocationConflict):
		response.ErrorWithDetails(c, http.StatusConflict, 16005, "地点已被其他操作修改，请刷新后重试", errorDetails("conflict", err))
	case errors.Is(err, service.ErrStorageUnavailable):
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, 16006, "存储服务暂不可用", errorDetails("storage_unavailable", err))
	default:
		response.InternalError(c)
	}
}

func errorDetails(kind string, err error) *dto.ErrorDetails {
	details := &dto.ErrorDetails{Kind: kind, Retryable: service.Retryable(err)}
	var fe *service.FieldError
	if errors.As(err, &fe) {
		details.Field = fe.Field
		details.Value = fe.Value
		details.Reason = fe.Reason
	}
	return details
}
