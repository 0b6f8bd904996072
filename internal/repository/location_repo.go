package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/model"
	pkgerrors "github.com/TheLakshitha/LayoutIndex-Assessment/pkg/errors"
)

// LocationRepository 地点聚合存储接口
//
// 错误约定：
//   - 记录不存在返回 pkgerrors.ErrNotFound
//   - 序列号与其他设备冲突返回 pkgerrors.ErrDuplicateKey
//   - Replace 版本不匹配返回 pkgerrors.ErrOptimisticLock
//   - 其余错误视为存储层不可用
type LocationRepository interface {
	List(ctx context.Context) ([]model.Location, error)
	GetByID(ctx context.Context, id string) (*model.Location, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, loc *model.Location) error
	// Replace 以 loc.Version 作为期望版本整体写入聚合，成功后 loc.Version 自增
	Replace(ctx context.Context, loc *model.Location) error
	Delete(ctx context.Context, id string) (*model.Location, error)
	// FindSerialOwners 返回已存在的序列号 → 所属地点ID
	FindSerialOwners(ctx context.Context, serials []string) (map[string]string, error)
}

// nowFunc 存储时间戳统一截断到毫秒，保证各存储实现读写往返一致
var nowFunc = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

type locationRepo struct {
	db *gorm.DB
}

// NewLocationRepo 创建 LocationRepository 实例
func NewLocationRepo(db *gorm.DB) LocationRepository {
	return &locationRepo{db: db}
}

func (r *locationRepo) List(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	err := r.db.WithContext(ctx).
		Order("created_at DESC, location_id DESC").
		Find(&locations).Error
	if err != nil {
		return nil, translateError(err)
	}
	for i := range locations {
		normalizeDevices(&locations[i])
	}
	return locations, nil
}

func (r *locationRepo) GetByID(ctx context.Context, id string) (*model.Location, error) {
	var loc model.Location
	err := r.db.WithContext(ctx).
		Where("location_id = ?", id).
		First(&loc).Error
	if err != nil {
		return nil, translateError(err)
	}
	normalizeDevices(&loc)
	return &loc, nil
}

func (r *locationRepo) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Location{}).
		Where("location_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *locationRepo) Create(ctx context.Context, loc *model.Location) error {
	now := nowFunc()
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = now
	}
	loc.UpdatedAt = loc.CreatedAt
	loc.Version = 1
	normalizeDevices(loc)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(loc).Error; err != nil {
			return err
		}
		return insertSerials(tx, loc)
	})
	return translateError(err)
}

func (r *locationRepo) Replace(ctx context.Context, loc *model.Location) error {
	oldVersion := loc.Version
	now := nowFunc()
	normalizeDevices(loc)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Location{}).
			Where("location_id = ? AND version = ?", loc.LocationID, oldVersion).
			Updates(map[string]interface{}{
				"name":       loc.Name,
				"address":    loc.Address,
				"phone":      loc.Phone,
				"devices":    loc.Devices,
				"version":    oldVersion + 1,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.Location{}).Where("location_id = ?", loc.LocationID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return pkgerrors.ErrNotFound
			}
			return pkgerrors.ErrOptimisticLock
		}

		// 重建该地点的序列号索引；与其他地点冲突时主键约束使整个事务回滚
		if err := tx.Where("location_id = ?", loc.LocationID).Delete(&model.DeviceSerial{}).Error; err != nil {
			return err
		}
		return insertSerials(tx, loc)
	})
	if err != nil {
		return translateError(err)
	}

	loc.Version = oldVersion + 1
	loc.UpdatedAt = now
	return nil
}

func (r *locationRepo) Delete(ctx context.Context, id string) (*model.Location, error) {
	var loc model.Location
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("location_id = ?", id).First(&loc).Error; err != nil {
			return err
		}
		if err := tx.Where("location_id = ?", id).Delete(&model.DeviceSerial{}).Error; err != nil {
			return err
		}
		result := tx.Where("location_id = ?", id).Delete(&model.Location{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	normalizeDevices(&loc)
	return &loc, nil
}

func (r *locationRepo) FindSerialOwners(ctx context.Context, serials []string) (map[string]string, error) {
	owners := make(map[string]string)
	if len(serials) == 0 {
		return owners, nil
	}

	var rows []model.DeviceSerial
	err := r.db.WithContext(ctx).
		Where("serial_number IN ?", serials).
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	for _, row := range rows {
		owners[row.SerialNumber] = row.LocationID
	}
	return owners, nil
}

// ── 内部辅助方法 ──

func insertSerials(tx *gorm.DB, loc *model.Location) error {
	if len(loc.Devices) == 0 {
		return nil
	}
	rows := make([]model.DeviceSerial, 0, len(loc.Devices))
	for _, d := range loc.Devices {
		rows = append(rows, model.DeviceSerial{
			SerialNumber: d.SerialNumber,
			LocationID:   loc.LocationID,
			DeviceID:     d.DeviceID,
		})
	}
	return tx.Create(&rows).Error
}

// normalizeDevices 空设备序列统一为 []，避免写入 JSON null
func normalizeDevices(loc *model.Location) {
	if loc.Devices == nil {
		loc.Devices = model.Devices{}
	}
}

// translateError 将 GORM 错误翻译为存储层哨兵错误
// 未开启 TranslateError 时按驱动原始错误兜底识别唯一约束冲突
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return pkgerrors.ErrDuplicateKey
	}
	return err
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
