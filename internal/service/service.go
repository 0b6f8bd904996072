package service

import (
	"go.uber.org/zap"

	"github.com/TheLakshitha/LayoutIndex-Assessment/config"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Location LocationService
	Export   ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	return &Service{
		Location: NewLocationService(&cfg.Location, repo, logger),
		Export:   NewExportService(repo, logger),
	}
}
