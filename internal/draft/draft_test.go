package draft

import (
	"errors"
	"strings"
	"testing"

	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/dto"
)

// ── 裁剪 ──

func TestDraft_ClipsFields(t *testing.T) {
	d := New()

	if err := d.SetName(strings.Repeat("a", 50)); err != nil {
		t.Fatalf("SetName 应成功: %v", err)
	}
	if err := d.SetAddress(strings.Repeat("b", 50)); err != nil {
		t.Fatalf("SetAddress 应成功: %v", err)
	}
	if err := d.SetPhone("555123456789"); err != nil {
		t.Fatalf("SetPhone 应成功: %v", err)
	}

	req, err := d.Request()
	if err != nil {
		t.Fatalf("Request 应成功: %v", err)
	}
	if len(req.Name) != MaxNameLen {
		t.Errorf("期望名称长度=%d，实际=%d", MaxNameLen, len(req.Name))
	}
	if len(req.Address) != MaxAddressLen {
		t.Errorf("期望地址长度=%d，实际=%d", MaxAddressLen, len(req.Address))
	}
	if req.Phone != "5551234567" {
		t.Errorf("期望电话=5551234567，实际=%s", req.Phone)
	}
}

func TestDraft_ClipCountsRunes(t *testing.T) {
	d := New()
	_ = d.SetAddress(strings.Repeat("路", 45))

	req, _ := d.Request()
	if n := len([]rune(req.Address)); n != MaxAddressLen {
		t.Errorf("期望按字符裁剪到 %d，实际=%d", MaxAddressLen, n)
	}
}

// ── 字段锁定 ──

func TestDraft_NameWithDigitsLocksOthers(t *testing.T) {
	d := New()

	if err := d.SetName("Store 42"); err != nil {
		t.Fatalf("SetName 应成功: %v", err)
	}
	if !d.Locked(FieldAddress) || !d.Locked(FieldPhone) {
		t.Error("名称含数字时应锁定地址与电话")
	}
	if d.Warning() == "" {
		t.Error("应给出提示信息")
	}
	if err := d.SetAddress("1 Main"); !errors.Is(err, ErrFieldLocked) {
		t.Errorf("期望 ErrFieldLocked，实际: %v", err)
	}
	if _, err := d.Request(); !errors.Is(err, ErrDraftInvalid) {
		t.Errorf("期望 ErrDraftInvalid，实际: %v", err)
	}

	// 修正名称后解锁
	if err := d.SetName("Store"); err != nil {
		t.Fatalf("SetName 应成功: %v", err)
	}
	if d.Locked(FieldAddress) || d.Warning() != "" {
		t.Error("修正后应解除锁定")
	}
	if err := d.SetAddress("1 Main"); err != nil {
		t.Errorf("解锁后 SetAddress 应成功: %v", err)
	}
}

func TestDraft_NonNumericPhoneLocksOthers(t *testing.T) {
	d := New()

	if err := d.SetPhone("555-1234"); err != nil {
		t.Fatalf("SetPhone 应成功: %v", err)
	}
	if !d.Locked(FieldName) || !d.Locked(FieldAddress) {
		t.Error("电话含非数字时应锁定名称与地址")
	}
	if d.Locked(FieldPhone) {
		t.Error("电话本身不应被锁定")
	}
	if err := d.SetName("HQ"); !errors.Is(err, ErrFieldLocked) {
		t.Errorf("期望 ErrFieldLocked，实际: %v", err)
	}

	if err := d.SetPhone("5551234"); err != nil {
		t.Fatalf("SetPhone 应成功: %v", err)
	}
	if err := d.SetName("HQ"); err != nil {
		t.Errorf("修正后 SetName 应成功: %v", err)
	}
}

func TestDraft_EmptyPhoneDoesNotLock(t *testing.T) {
	d := New()
	_ = d.SetPhone("")

	if d.Locked(FieldName) || d.Locked(FieldAddress) {
		t.Error("空电话不应锁定其他字段")
	}
}

// ── 设备 ──

func TestDraft_DeviceLimitAndSerialClip(t *testing.T) {
	d := New()

	for i := 0; i < MaxDevices; i++ {
		idx, err := d.AddDevice(dto.DeviceFields{SerialNumber: "ABCDEFG", Type: "pos"})
		if err != nil {
			t.Fatalf("第 %d 台设备应成功: %v", i+1, err)
		}
		if idx != i {
			t.Errorf("期望序号=%d，实际=%d", i, idx)
		}
	}
	if _, err := d.AddDevice(dto.DeviceFields{SerialNumber: "X", Type: "pos"}); !errors.Is(err, ErrDeviceLimit) {
		t.Errorf("期望 ErrDeviceLimit，实际: %v", err)
	}

	for _, dev := range d.Devices() {
		if dev.SerialNumber != "ABCDE" {
			t.Errorf("期望序列号裁剪为 ABCDE，实际=%s", dev.SerialNumber)
		}
	}
}

func TestDraft_SetAndRemoveDevice(t *testing.T) {
	d := New()
	_, _ = d.AddDevice(dto.DeviceFields{SerialNumber: "A1", Type: "pos"})
	_, _ = d.AddDevice(dto.DeviceFields{SerialNumber: "B2", Type: "kiosk"})

	if err := d.SetDevice(1, dto.DeviceFields{SerialNumber: "C3456789", Type: "signage", Status: "inactive"}); err != nil {
		t.Fatalf("SetDevice 应成功: %v", err)
	}
	if err := d.RemoveDevice(0); err != nil {
		t.Fatalf("RemoveDevice 应成功: %v", err)
	}

	devices := d.Devices()
	if len(devices) != 1 || devices[0].SerialNumber != "C3456" || devices[0].Status != "inactive" {
		t.Errorf("设备列表不正确: %+v", devices)
	}
	if err := d.RemoveDevice(5); !errors.Is(err, ErrDeviceIndex) {
		t.Errorf("期望 ErrDeviceIndex，实际: %v", err)
	}
	if err := d.SetDevice(-1, dto.DeviceFields{}); !errors.Is(err, ErrDeviceIndex) {
		t.Errorf("期望 ErrDeviceIndex，实际: %v", err)
	}
}

func TestDraft_CheckSerials(t *testing.T) {
	d := New()
	_, _ = d.AddDevice(dto.DeviceFields{SerialNumber: "A1", Type: "pos"})
	_, _ = d.AddDevice(dto.DeviceFields{SerialNumber: "B2", Type: "pos"})

	if err := d.CheckSerials([]string{"Z9"}); err != nil {
		t.Errorf("无冲突时应成功: %v", err)
	}
	err := d.CheckSerials([]string{"Z9", "B2"})
	if !errors.Is(err, ErrSerialInUse) || !strings.Contains(err.Error(), "B2") {
		t.Errorf("期望 B2 冲突，实际: %v", err)
	}
}

func TestDraft_DevicesReturnsCopy(t *testing.T) {
	d := New()
	_, _ = d.AddDevice(dto.DeviceFields{SerialNumber: "A1", Type: "pos"})

	devices := d.Devices()
	devices[0].SerialNumber = "ZZ"

	if d.Devices()[0].SerialNumber != "A1" {
		t.Error("Devices 应返回副本")
	}
}
