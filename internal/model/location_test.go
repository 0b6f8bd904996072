package model

import "testing"

func TestDeviceType_Valid(t *testing.T) {
	for _, v := range []DeviceType{DeviceTypePOS, DeviceTypeKiosk, DeviceTypeSignage} {
		if !v.Valid() {
			t.Errorf("%q 应为合法设备类型", v)
		}
	}
	for _, v := range []DeviceType{"", "POS", "printer"} {
		if v.Valid() {
			t.Errorf("%q 不应为合法设备类型", v)
		}
	}
}

func TestDeviceStatus_Valid(t *testing.T) {
	if !DeviceStatusActive.Valid() || !DeviceStatusInactive.Valid() {
		t.Error("active/inactive 应合法")
	}
	if DeviceStatus("broken").Valid() || DeviceStatus("").Valid() {
		t.Error("未知状态不应合法")
	}
}

func TestLocation_CloneIsDeep(t *testing.T) {
	orig := &Location{
		LocationID: "loc-1",
		Name:       "HQ",
		Devices:    Devices{{DeviceID: "d1", SerialNumber: "AB123", Type: DeviceTypePOS}},
	}

	cp := orig.Clone()
	cp.Name = "Branch"
	cp.Devices[0].SerialNumber = "ZZ999"
	cp.Devices = append(cp.Devices, Device{DeviceID: "d2"})

	if orig.Name != "HQ" {
		t.Errorf("原聚合名称被修改: %s", orig.Name)
	}
	if len(orig.Devices) != 1 || orig.Devices[0].SerialNumber != "AB123" {
		t.Errorf("原聚合设备被修改: %+v", orig.Devices)
	}
}

func TestLocation_DeviceIndexAndSerials(t *testing.T) {
	loc := &Location{Devices: Devices{
		{DeviceID: "d1", SerialNumber: "A1"},
		{DeviceID: "d2", SerialNumber: "B2"},
	}}

	if got := loc.DeviceIndex("d2"); got != 1 {
		t.Errorf("DeviceIndex(d2) = %d, want 1", got)
	}
	if got := loc.DeviceIndex("missing"); got != -1 {
		t.Errorf("DeviceIndex(missing) = %d, want -1", got)
	}
	if s := loc.Serials(); len(s) != 2 || s[0] != "A1" || s[1] != "B2" {
		t.Errorf("Serials() = %v", s)
	}
}
