package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/service"
	"github.com/TheLakshitha/LayoutIndex-Assessment/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportInventory 导出地点与设备清单
// GET /api/v1/exports/inventory
func (h *ExportHandler) ExportInventory(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportInventory(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStorageUnavailable):
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, 16006, "存储服务暂不可用", errorDetails("storage_unavailable", err))
	default:
		response.InternalError(c)
	}
}
