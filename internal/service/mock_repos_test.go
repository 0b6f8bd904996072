package service

import (
	"context"
	"sort"
	"time"

	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/model"
	pkgerrors "github.com/TheLakshitha/LayoutIndex-Assessment/pkg/errors"
)

// ── Mock LocationRepository ──
//
// 以 map 存储聚合，语义与真实存储一致：
//   - 读写均返回深拷贝
//   - Replace 检查版本号并维护全局序列号唯一
//   - 可注入错误与并发写入

type mockLocationRepo struct {
	locations map[string]*model.Location
	clock     time.Time

	listErr    error
	getErr     error
	createErr  error
	replaceErr error
	deleteErr  error
	findErr    error

	// beforeCreate / beforeReplace 在写入检查前调用，用于模拟并发写入
	beforeCreate  func(m *mockLocationRepo, loc *model.Location)
	beforeReplace func(m *mockLocationRepo, loc *model.Location)

	replaceCalls int
}

func newMockLocationRepo() *mockLocationRepo {
	return &mockLocationRepo{
		locations: make(map[string]*model.Location),
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockLocationRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *mockLocationRepo) List(_ context.Context) ([]model.Location, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]model.Location, 0, len(m.locations))
	for _, loc := range m.locations {
		result = append(result, *loc.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockLocationRepo) GetByID(_ context.Context, id string) (*model.Location, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if loc, ok := m.locations[id]; ok {
		return loc.Clone(), nil
	}
	return nil, pkgerrors.ErrNotFound
}

func (m *mockLocationRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.locations[id]
	return ok, nil
}

func (m *mockLocationRepo) Create(_ context.Context, loc *model.Location) error {
	if m.beforeCreate != nil {
		m.beforeCreate(m, loc)
	}
	if m.createErr != nil {
		return m.createErr
	}
	if m.serialTaken(loc) {
		return pkgerrors.ErrDuplicateKey
	}
	now := m.tick()
	loc.CreatedAt = now
	loc.UpdatedAt = now
	loc.Version = 1
	m.locations[loc.LocationID] = loc.Clone()
	return nil
}

func (m *mockLocationRepo) Replace(_ context.Context, loc *model.Location) error {
	m.replaceCalls++
	if m.beforeReplace != nil {
		m.beforeReplace(m, loc)
	}
	if m.replaceErr != nil {
		return m.replaceErr
	}
	current, ok := m.locations[loc.LocationID]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	if current.Version != loc.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if m.serialTaken(loc) {
		return pkgerrors.ErrDuplicateKey
	}
	loc.Version++
	loc.UpdatedAt = m.tick()
	m.locations[loc.LocationID] = loc.Clone()
	return nil
}

func (m *mockLocationRepo) Delete(_ context.Context, id string) (*model.Location, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	loc, ok := m.locations[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	delete(m.locations, id)
	return loc, nil
}

func (m *mockLocationRepo) FindSerialOwners(_ context.Context, serials []string) (map[string]string, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	wanted := make(map[string]struct{}, len(serials))
	for _, s := range serials {
		wanted[s] = struct{}{}
	}
	owners := make(map[string]string)
	for id, loc := range m.locations {
		for _, d := range loc.Devices {
			if _, ok := wanted[d.SerialNumber]; ok {
				owners[d.SerialNumber] = id
			}
		}
	}
	return owners, nil
}

// serialTaken 是否有其他地点占用了 loc 中的序列号
func (m *mockLocationRepo) serialTaken(loc *model.Location) bool {
	for id, other := range m.locations {
		if id == loc.LocationID {
			continue
		}
		for _, d := range other.Devices {
			for _, mine := range loc.Devices {
				if d.SerialNumber == mine.SerialNumber {
					return true
				}
			}
		}
	}
	return false
}

// allSerials 返回全库序列号计数
func (m *mockLocationRepo) allSerials() map[string]int {
	counts := make(map[string]int)
	for _, loc := range m.locations {
		for _, d := range loc.Devices {
			counts[d.SerialNumber]++
		}
	}
	return counts
}
