package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/model"
	pkgerrors "github.com/TheLakshitha/LayoutIndex-Assessment/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库按连接隔离，固定单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Location{}, &model.DeviceSerial{}))
	return db
}

func newTestLocation(name string, serials ...string) *model.Location {
	loc := &model.Location{
		LocationID: uuid.NewString(),
		Name:       name,
		Address:    "1 Main",
		Phone:      "5551234567",
		Devices:    model.Devices{},
	}
	for _, s := range serials {
		loc.Devices = append(loc.Devices, model.Device{
			DeviceID:     uuid.NewString(),
			SerialNumber: s,
			Type:         model.DeviceTypePOS,
			Status:       model.DeviceStatusActive,
		})
	}
	return loc
}

func TestLocationRepo_CreateAndGetByID_RoundTrip(t *testing.T) {
	repo := NewLocationRepo(setupTestDB(t))
	ctx := context.Background()

	loc := newTestLocation("HQ", "AB123", "CD456", "EF789")
	loc.Devices[1].Image = "data:image/png;base64,AAAA"
	loc.Devices[2].Status = model.DeviceStatusInactive
	require.NoError(t, repo.Create(ctx, loc))

	assert.Equal(t, 1, loc.Version)
	assert.False(t, loc.CreatedAt.IsZero())
	assert.Equal(t, loc.CreatedAt, loc.UpdatedAt)

	got, err := repo.GetByID(ctx, loc.LocationID)
	require.NoError(t, err)

	assert.Equal(t, loc.Name, got.Name)
	assert.Equal(t, loc.Address, got.Address)
	assert.Equal(t, loc.Phone, got.Phone)
	assert.Equal(t, 1, got.Version)
	require.Len(t, got.Devices, 3)
	for i := range loc.Devices {
		assert.Equal(t, loc.Devices[i], got.Devices[i], "设备顺序与内容应保持一致")
	}
	assert.True(t, loc.CreatedAt.Equal(got.CreatedAt))
}

func TestLocationRepo_Create_EmptyDevicesStoredAsEmptyList(t *testing.T) {
	repo := NewLocationRepo(setupTestDB(t))
	ctx := context.Background()

	loc := newTestLocation("Empty")
	loc.Devices = nil
	require.NoError(t, repo.Create(ctx, loc))

	got, err := repo.GetByID(ctx, loc.LocationID)
	require.NoError(t, err)
	assert.NotNil(t, got.Devices)
	assert.Len(t, got.Devices, 0)
}

func TestLocationRepo_Create_DuplicateSerialAcrossLocations(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLocationRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestLocation("A", "AB123")))

	second := newTestLocation("B", "ZZ000", "AB123")
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, pkgerrors.ErrDuplicateKey)

	// 事务回滚：第二个地点及其序列号均未落库
	exists, err := repo.Exists(ctx, second.LocationID)
	require.NoError(t, err)
	assert.False(t, exists)

	owners, err := repo.FindSerialOwners(ctx, []string{"ZZ000"})
	require.NoError(t, err)
	assert.Empty(t, owners)
}

func TestLocationRepo_GetByID_NotFound(t *testing.T) {
	repo := NewLocationRepo(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestLocationRepo_List_NewestFirst(t *testing.T) {
	repo := NewLocationRepo(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"oldest", "middle", "newest"}
	for i, name := range names {
		loc := newTestLocation(name)
		loc.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(ctx, loc))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "newest", list[0].Name)
	assert.Equal(t, "middle", list[1].Name)
	assert.Equal(t, "oldest", list[2].Name)
}

func TestLocationRepo_Replace_Success(t *testing.T) {
	repo := NewLocationRepo(setupTestDB(t))
	ctx := context.Background()

	loc := newTestLocation("HQ", "AB123")
	require.NoError(t, repo.Create(ctx, loc))

	next := loc.Clone()
	next.Phone = "5559998888"
	next.Devices = model.Devices{{
		DeviceID:     uuid.NewString(),
		SerialNumber: "NEW01",
		Type:         model.DeviceTypeKiosk,
		Status:       model.DeviceStatusActive,
	}}
	require.NoError(t, repo.Replace(ctx, next))
	assert.Equal(t, 2, next.Version)

	got, err := repo.GetByID(ctx, loc.LocationID)
	require.NoError(t, err)
	assert.Equal(t, "5559998888", got.Phone)
	assert.Equal(t, 2, got.Version)
	require.Len(t, got.Devices, 1)
	assert.Equal(t, "NEW01", got.Devices[0].SerialNumber)

	// 被移除设备的序列号已释放
	owners, err := repo.FindSerialOwners(ctx, []string{"AB123", "NEW01"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"NEW01": loc.LocationID}, owners)
}

func TestLocationRepo_Replace_StaleVersion(t *testing.T) {
	repo := NewLocationRepo(setupTestDB(t))
	ctx := context.Background()

	loc := newTestLocation("HQ")
	require.NoError(t, repo.Create(ctx, loc))

	// 模拟并发：获取两份副本
	copy1, err := repo.GetByID(ctx, loc.LocationID)
	require.NoError(t, err)
	copy2, err := repo.GetByID(ctx, loc.LocationID)
	require.NoError(t, err)

	copy1.Name = "first"
	require.NoError(t, repo.Replace(ctx, copy1))

	copy2.Name = "second"
	err = repo.Replace(ctx, copy2)
	assert.ErrorIs(t, err, pkgerrors.ErrOptimisticLock)
	assert.Equal(t, 1, copy2.Version, "失败时不应修改调用方版本号")

	got, err := repo.GetByID(ctx, loc.LocationID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
}

func TestLocationRepo_Replace_NotFound(t *testing.T) {
	repo := NewLocationRepo(setupTestDB(t))

	err := repo.Replace(context.Background(), newTestLocation("ghost"))
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestLocationRepo_Replace_DuplicateSerialRollsBack(t *testing.T) {
	repo := NewLocationRepo(setupTestDB(t))
	ctx := context.Background()

	other := newTestLocation("Other", "AB123")
	require.NoError(t, repo.Create(ctx, other))
	target := newTestLocation("Target", "XY999")
	require.NoError(t, repo.Create(ctx, target))

	next := target.Clone()
	next.Name = "Renamed"
	next.Devices = append(next.Devices, model.Device{
		DeviceID:     uuid.NewString(),
		SerialNumber: "AB123",
		Type:         model.DeviceTypeKiosk,
		Status:       model.DeviceStatusActive,
	})
	err := repo.Replace(ctx, next)
	assert.ErrorIs(t, err, pkgerrors.ErrDuplicateKey)

	got, err := repo.GetByID(ctx, target.LocationID)
	require.NoError(t, err)
	assert.Equal(t, "Target", got.Name, "整体回滚，标量字段不可见")
	assert.Equal(t, 1, got.Version)
	require.Len(t, got.Devices, 1)

	owners, err := repo.FindSerialOwners(ctx, []string{"XY999", "AB123"})
	require.NoError(t, err)
	assert.Equal(t, target.LocationID, owners["XY999"])
	assert.Equal(t, other.LocationID, owners["AB123"])
}

func TestLocationRepo_Delete(t *testing.T) {
	repo := NewLocationRepo(setupTestDB(t))
	ctx := context.Background()

	loc := newTestLocation("HQ", "AB123")
	require.NoError(t, repo.Create(ctx, loc))

	deleted, err := repo.Delete(ctx, loc.LocationID)
	require.NoError(t, err)
	assert.Equal(t, loc.LocationID, deleted.LocationID)
	require.Len(t, deleted.Devices, 1)

	_, err = repo.GetByID(ctx, loc.LocationID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	// 删除后序列号可被复用
	require.NoError(t, repo.Create(ctx, newTestLocation("Reuse", "AB123")))

	_, err = repo.Delete(ctx, loc.LocationID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestLocationRepo_FindSerialOwners_Empty(t *testing.T) {
	repo := NewLocationRepo(setupTestDB(t))

	owners, err := repo.FindSerialOwners(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, owners)
}
