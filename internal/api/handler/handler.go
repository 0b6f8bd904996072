package handler

import "github.com/TheLakshitha/LayoutIndex-Assessment/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Location *LocationHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Location: NewLocationHandler(svc.Location),
		Export:   NewExportHandler(svc.Export),
	}
}
