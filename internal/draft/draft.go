// Package draft 新建地点时的输入草稿。
//
// 逐字段录入并即时裁剪，某个字段输入不合法时锁定其他字段，直到该字段被修正。
// 这里只是录入体验上的约束，服务端会独立完成全部校验。
package draft

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/dto"
)

// 字段长度上限（按字符计）
const (
	MaxNameLen    = 35
	MaxAddressLen = 40
	MaxPhoneLen   = 10
	MaxSerialLen  = 5
	MaxDevices    = 3
)

var (
	ErrFieldLocked  = errors.New("字段已锁定，请先修正提示中的字段")
	ErrDeviceLimit  = fmt.Errorf("每个新地点最多添加 %d 台设备", MaxDevices)
	ErrDeviceIndex  = errors.New("设备序号不存在")
	ErrDraftInvalid = errors.New("草稿中存在未修正的字段")
	ErrSerialInUse  = errors.New("序列号已被使用")
)

// 提示信息
const (
	warnNameHasDigits = "名称只能包含字母"
	warnPhoneNotDigit = "电话只能包含数字"
)

// Field 草稿字段
type Field string

const (
	FieldName    Field = "name"
	FieldAddress Field = "address"
	FieldPhone   Field = "phone"
)

// Draft 新地点草稿
type Draft struct {
	name    string
	address string
	phone   string
	devices []dto.DeviceFields

	locked  map[Field]bool
	warning string
}

// New 创建空草稿
func New() *Draft {
	return &Draft{locked: make(map[Field]bool)}
}

// ── 标量字段 ──

// SetName 名称含数字时原样保留并锁定地址与电话，否则裁剪到 MaxNameLen
func (d *Draft) SetName(value string) error {
	if d.locked[FieldName] {
		return ErrFieldLocked
	}
	d.resetLocks()

	if strings.IndexFunc(value, unicode.IsDigit) >= 0 {
		d.name = value
		d.warning = warnNameHasDigits
		d.locked[FieldAddress] = true
		d.locked[FieldPhone] = true
		return nil
	}
	d.name = clip(value, MaxNameLen)
	return nil
}

// SetAddress 裁剪到 MaxAddressLen
func (d *Draft) SetAddress(value string) error {
	if d.locked[FieldAddress] {
		return ErrFieldLocked
	}
	d.resetLocks()
	d.address = clip(value, MaxAddressLen)
	return nil
}

// SetPhone 电话含非数字字符时原样保留并锁定名称与地址，否则裁剪到 MaxPhoneLen
func (d *Draft) SetPhone(value string) error {
	if d.locked[FieldPhone] {
		return ErrFieldLocked
	}
	d.resetLocks()

	if value != "" && !isDigits(value) {
		d.phone = value
		d.warning = warnPhoneNotDigit
		d.locked[FieldName] = true
		d.locked[FieldAddress] = true
		return nil
	}
	d.phone = clip(value, MaxPhoneLen)
	return nil
}

// Locked 字段当前是否被锁定
func (d *Draft) Locked(f Field) bool { return d.locked[f] }

// Warning 当前提示信息，无提示时为空
func (d *Draft) Warning() string { return d.warning }

func (d *Draft) resetLocks() {
	for k := range d.locked {
		delete(d.locked, k)
	}
	d.warning = ""
}

// ── 设备 ──

// AddDevice 追加设备，序列号裁剪到 MaxSerialLen，返回设备序号
func (d *Draft) AddDevice(fields dto.DeviceFields) (int, error) {
	if len(d.devices) >= MaxDevices {
		return -1, ErrDeviceLimit
	}
	fields.SerialNumber = clip(fields.SerialNumber, MaxSerialLen)
	d.devices = append(d.devices, fields)
	return len(d.devices) - 1, nil
}

// SetDevice 修改指定序号的设备
func (d *Draft) SetDevice(index int, fields dto.DeviceFields) error {
	if index < 0 || index >= len(d.devices) {
		return ErrDeviceIndex
	}
	fields.SerialNumber = clip(fields.SerialNumber, MaxSerialLen)
	d.devices[index] = fields
	return nil
}

// RemoveDevice 移除指定序号的设备
func (d *Draft) RemoveDevice(index int) error {
	if index < 0 || index >= len(d.devices) {
		return ErrDeviceIndex
	}
	d.devices = append(d.devices[:index], d.devices[index+1:]...)
	return nil
}

// Devices 返回设备副本
func (d *Draft) Devices() []dto.DeviceFields {
	out := make([]dto.DeviceFields, len(d.devices))
	copy(out, d.devices)
	return out
}

// CheckSerials 与已存在的序列号比对，返回第一个冲突
func (d *Draft) CheckSerials(existing []string) error {
	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s] = struct{}{}
	}
	for _, dev := range d.devices {
		if _, ok := taken[dev.SerialNumber]; ok {
			return fmt.Errorf("%w: %s", ErrSerialInUse, dev.SerialNumber)
		}
	}
	return nil
}

// Request 生成创建请求；存在未修正的字段时返回 ErrDraftInvalid
func (d *Draft) Request() (*dto.CreateLocationRequest, error) {
	if d.warning != "" {
		return nil, fmt.Errorf("%w: %s", ErrDraftInvalid, d.warning)
	}
	return &dto.CreateLocationRequest{
		Name:    d.name,
		Address: d.address,
		Phone:   d.phone,
		Devices: d.Devices(),
	}, nil
}

// ── 辅助函数 ──

func clip(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
