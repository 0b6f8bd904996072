package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TheLakshitha/LayoutIndex-Assessment/config"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/dto"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/model"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/repository"
	pkgerrors "github.com/TheLakshitha/LayoutIndex-Assessment/pkg/errors"
	"github.com/TheLakshitha/LayoutIndex-Assessment/pkg/metrics"
)

// 指标中的操作名
const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// 设备ID生成函数，测试中可替换
var newID = uuid.NewString

// LocationService 地点聚合业务接口
type LocationService interface {
	List(ctx context.Context) ([]dto.LocationResponse, error)
	GetByID(ctx context.Context, id string) (*dto.LocationResponse, error)
	Create(ctx context.Context, req *dto.CreateLocationRequest) (*dto.LocationResponse, error)
	// Update 局部更新：先追加设备，再移除设备，最后合并标量字段，一次写入
	Update(ctx context.Context, id string, req *dto.UpdateLocationRequest) (*dto.LocationResponse, error)
	// Delete 删除地点及其全部设备，返回被删除的聚合
	Delete(ctx context.Context, id string) (*dto.LocationResponse, error)
}

type locationService struct {
	repo   *repository.Repository
	cfg    config.LocationConfig
	logger *zap.Logger
}

// NewLocationService 创建 LocationService 实例
func NewLocationService(cfg *config.LocationConfig, repo *repository.Repository, logger *zap.Logger) LocationService {
	return &locationService{repo: repo, cfg: *cfg, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *locationService) List(ctx context.Context) ([]dto.LocationResponse, error) {
	locations, err := s.repo.Location.List(ctx)
	if err != nil {
		s.logger.Error("列出地点失败", zap.Error(err))
		return nil, ErrStorageUnavailable
	}

	result := make([]dto.LocationResponse, 0, len(locations))
	for i := range locations {
		result = append(result, *toLocationResponse(&locations[i]))
	}
	return result, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *locationService) GetByID(ctx context.Context, id string) (*dto.LocationResponse, error) {
	loc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toLocationResponse(loc), nil
}

// ────────────────────── Create ──────────────────────

func (s *locationService) Create(ctx context.Context, req *dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	loc, err := s.create(ctx, req)
	metrics.RecordMutation(opCreate, mutationResult(err))
	if err != nil {
		return nil, err
	}

	s.logger.Info("地点已创建",
		zap.String("id", loc.LocationID),
		zap.Int("devices", len(loc.Devices)),
	)
	return toLocationResponse(loc), nil
}

func (s *locationService) create(ctx context.Context, req *dto.CreateLocationRequest) (*model.Location, error) {
	if err := validateScalars(req.Name, req.Address, req.Phone); err != nil {
		return nil, err
	}
	if limit := s.cfg.MaxDevicesOnCreate; limit > 0 && len(req.Devices) > limit {
		return nil, validationError("devices", fmt.Sprint(len(req.Devices)), fmt.Sprintf("新建地点最多携带 %d 台设备", limit))
	}

	loc := &model.Location{
		LocationID: newID(),
		Name:       req.Name,
		Address:    req.Address,
		Phone:      req.Phone,
		Devices:    make(model.Devices, 0, len(req.Devices)),
	}

	seen := make(map[string]struct{}, len(req.Devices))
	for i, fields := range req.Devices {
		path := fmt.Sprintf("devices[%d]", i)
		device, err := buildDevice(fields, path)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[device.SerialNumber]; dup {
			return nil, duplicateSerialError(path+".serialNumber", device.SerialNumber)
		}
		seen[device.SerialNumber] = struct{}{}

		device.DeviceID = newDeviceID(loc)
		loc.Devices = append(loc.Devices, device)
	}

	if err := s.ensureSerialsFree(ctx, loc.LocationID, loc.Serials(), "devices"); err != nil {
		return nil, err
	}

	if err := s.repo.Location.Create(ctx, loc); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, s.locateDuplicate(ctx, loc)
		}
		s.logger.Error("创建地点失败", zap.Error(err))
		return nil, ErrStorageUnavailable
	}
	return loc, nil
}

// ═══════════════════════════════════════════════════════════
// Update：聚合更新引擎
// ═══════════════════════════════════════════════════════════
//
// 流程：
//  1. 加载当前聚合（ID 格式错误 / 不存在时直接返回）
//  2. 在副本上依次执行 devices.add → devices.remove → 标量合并
//  3. 合并后整体重新校验
//  4. 以加载时的版本号调用 Replace 写入
//
// 版本冲突时从头重新加载并重算，超过 conflict_retries 次后返回 ErrLocationConflict。
// 存储错误不重试。

func (s *locationService) Update(ctx context.Context, id string, req *dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	var (
		loc *model.Location
		err error
	)
	for attempt := 0; ; attempt++ {
		loc, err = s.applyUpdate(ctx, id, req)
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			break
		}
		if attempt >= s.cfg.ConflictRetries {
			s.logger.Warn("地点更新版本冲突，重试次数已用尽",
				zap.String("id", id),
				zap.Int("attempts", attempt+1),
			)
			err = ErrLocationConflict
			break
		}
		metrics.RecordConflictRetry(opUpdate)
	}

	metrics.RecordMutation(opUpdate, mutationResult(err))
	if err != nil {
		return nil, err
	}
	return toLocationResponse(loc), nil
}

// applyUpdate 执行一次“加载-计算-写入”，版本冲突时原样返回 ErrOptimisticLock
func (s *locationService) applyUpdate(ctx context.Context, id string, req *dto.UpdateLocationRequest) (*model.Location, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	changed, err := s.resolve(ctx, next, req)
	if err != nil {
		return nil, err
	}
	// 无实际变更时不写入，版本号保持不变
	if !changed {
		return current, nil
	}

	if err := s.repo.Location.Replace(ctx, next); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			return nil, err
		case errors.Is(err, pkgerrors.ErrNotFound):
			return nil, ErrLocationNotFound
		case errors.Is(err, pkgerrors.ErrDuplicateKey):
			serial := ""
			if req.Devices != nil && req.Devices.Add != nil {
				serial = req.Devices.Add.SerialNumber
			}
			return nil, duplicateSerialError("devices.add.serialNumber", serial)
		}
		s.logger.Error("更新地点失败", zap.String("id", id), zap.Error(err))
		return nil, ErrStorageUnavailable
	}
	return next, nil
}

// resolve 在内存副本上应用更新请求，返回聚合是否发生变化
func (s *locationService) resolve(ctx context.Context, loc *model.Location, req *dto.UpdateLocationRequest) (bool, error) {
	changed := false

	if req.Devices != nil && req.Devices.Add != nil {
		device, err := buildDevice(*req.Devices.Add, "devices.add")
		if err != nil {
			return false, err
		}
		for _, existing := range loc.Devices {
			if existing.SerialNumber == device.SerialNumber {
				return false, duplicateSerialError("devices.add.serialNumber", device.SerialNumber)
			}
		}
		if limit := s.cfg.MaxDevicesPerLocation; limit > 0 && len(loc.Devices)+1 > limit {
			return false, validationError("devices.add", device.SerialNumber, fmt.Sprintf("每个地点最多 %d 台设备", limit))
		}
		if err := s.ensureSerialsFree(ctx, loc.LocationID, []string{device.SerialNumber}, "devices.add.serialNumber"); err != nil {
			return false, err
		}

		device.DeviceID = newDeviceID(loc)
		loc.Devices = append(loc.Devices, device)
		changed = true
	}

	if req.Devices != nil && req.Devices.Remove != nil {
		if idx := loc.DeviceIndex(*req.Devices.Remove); idx >= 0 {
			loc.Devices = append(loc.Devices[:idx], loc.Devices[idx+1:]...)
			changed = true
		}
	}

	if req.HasScalarFields() {
		if req.Name != nil && *req.Name != loc.Name {
			loc.Name = *req.Name
			changed = true
		}
		if req.Address != nil && *req.Address != loc.Address {
			loc.Address = *req.Address
			changed = true
		}
		if req.Phone != nil && *req.Phone != loc.Phone {
			loc.Phone = *req.Phone
			changed = true
		}
	}

	if err := validateAggregate(loc); err != nil {
		return false, err
	}
	return changed, nil
}

// ────────────────────── Delete ──────────────────────

func (s *locationService) Delete(ctx context.Context, id string) (*dto.LocationResponse, error) {
	loc, err := s.delete(ctx, id)
	metrics.RecordMutation(opDelete, mutationResult(err))
	if err != nil {
		return nil, err
	}

	s.logger.Info("地点已删除", zap.String("id", id), zap.Int("devices", len(loc.Devices)))
	return toLocationResponse(loc), nil
}

func (s *locationService) delete(ctx context.Context, id string) (*model.Location, error) {
	if err := parseLocationID(id); err != nil {
		return nil, err
	}

	loc, err := s.repo.Location.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrLocationNotFound
		}
		s.logger.Error("删除地点失败", zap.String("id", id), zap.Error(err))
		return nil, ErrStorageUnavailable
	}
	return loc, nil
}

// ── 内部辅助方法 ──

func (s *locationService) load(ctx context.Context, id string) (*model.Location, error) {
	if err := parseLocationID(id); err != nil {
		return nil, err
	}

	loc, err := s.repo.Location.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrLocationNotFound
		}
		s.logger.Error("查询地点失败", zap.String("id", id), zap.Error(err))
		return nil, ErrStorageUnavailable
	}
	return loc, nil
}

// ensureSerialsFree 校验序列号未被其他地点占用
func (s *locationService) ensureSerialsFree(ctx context.Context, locationID string, serials []string, field string) error {
	if len(serials) == 0 {
		return nil
	}

	owners, err := s.repo.Location.FindSerialOwners(ctx, serials)
	if err != nil {
		s.logger.Error("查询序列号占用失败", zap.Error(err))
		return ErrStorageUnavailable
	}
	for _, serial := range serials {
		if owner, ok := owners[serial]; ok && owner != locationID {
			return duplicateSerialError(field, serial)
		}
	}
	return nil
}

// locateDuplicate 存储层唯一约束拦截到并发写入的重复序列号时，重新查询定位冲突的设备
func (s *locationService) locateDuplicate(ctx context.Context, loc *model.Location) error {
	owners, err := s.repo.Location.FindSerialOwners(ctx, loc.Serials())
	if err != nil {
		s.logger.Warn("定位重复序列号失败", zap.String("id", loc.LocationID), zap.Error(err))
		return duplicateSerialError("devices", "")
	}
	for i, d := range loc.Devices {
		if owner, ok := owners[d.SerialNumber]; ok && owner != loc.LocationID {
			return duplicateSerialError(fmt.Sprintf("devices[%d].serialNumber", i), d.SerialNumber)
		}
	}
	return duplicateSerialError("devices", "")
}

// parseLocationID 只接受小写带连字符的标准 UUID 形式，存储层按原样比较ID
func parseLocationID(id string) error {
	u, err := uuid.Parse(id)
	if err != nil {
		return &FieldError{Kind: ErrInvalidLocationID, Field: "id", Value: id, Reason: "必须为 UUID"}
	}
	if u.String() != id {
		return &FieldError{Kind: ErrInvalidLocationID, Field: "id", Value: id, Reason: "必须为小写带连字符的标准 UUID"}
	}
	return nil
}

// newDeviceID 生成在地点内唯一的设备ID
func newDeviceID(loc *model.Location) string {
	for {
		id := newID()
		if loc.DeviceIndex(id) < 0 {
			return id
		}
	}
}

func mutationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrLocationValidation):
		return "validation"
	case errors.Is(err, ErrDuplicateSerialNumber):
		return "duplicate"
	case errors.Is(err, ErrLocationNotFound), errors.Is(err, ErrInvalidLocationID):
		return "not_found"
	case errors.Is(err, ErrLocationConflict):
		return "conflict"
	default:
		return "storage_error"
	}
}

const timeLayout = "2006-01-02T15:04:05.000Z"

func toLocationResponse(loc *model.Location) *dto.LocationResponse {
	devices := make([]dto.DeviceResponse, 0, len(loc.Devices))
	for _, d := range loc.Devices {
		devices = append(devices, dto.DeviceResponse{
			ID:           d.DeviceID,
			SerialNumber: d.SerialNumber,
			Type:         string(d.Type),
			Image:        d.Image,
			Status:       string(d.Status),
		})
	}

	return &dto.LocationResponse{
		ID:        loc.LocationID,
		Name:      loc.Name,
		Address:   loc.Address,
		Phone:     loc.Phone,
		Devices:   devices,
		Version:   loc.Version,
		CreatedAt: loc.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt: loc.UpdatedAt.UTC().Format(timeLayout),
	}
}
