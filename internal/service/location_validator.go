package service

import (
	"fmt"
	"strings"

	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/dto"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/model"
)

// ═══════════════════════════════════════════════════════════
// 聚合不变量校验
// ═══════════════════════════════════════════════════════════
//
// 服务端独立校验，不依赖客户端的输入裁剪：
//   - name/address/phone 去除空白后不能为空
//   - type 取值 pos/kiosk/signage，status 取值 active/inactive
//   - 同一批设备内序列号不能重复

func validateScalars(name, address, phone string) error {
	fields := []struct {
		field, value string
	}{
		{"name", name},
		{"address", address},
		{"phone", phone},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return validationError(f.field, f.value, "不能为空")
		}
	}
	return nil
}

// buildDevice 将请求字段转换为设备，未指定 status 时默认 active；设备ID由调用方分配
func buildDevice(fields dto.DeviceFields, path string) (model.Device, error) {
	if strings.TrimSpace(fields.SerialNumber) == "" {
		return model.Device{}, validationError(path+".serialNumber", fields.SerialNumber, "不能为空")
	}

	deviceType := model.DeviceType(fields.Type)
	if !deviceType.Valid() {
		return model.Device{}, validationError(path+".type", fields.Type, "取值必须为 pos/kiosk/signage")
	}

	status := model.DeviceStatus(fields.Status)
	if status == "" {
		status = model.DeviceStatusActive
	}
	if !status.Valid() {
		return model.Device{}, validationError(path+".status", fields.Status, "取值必须为 active/inactive")
	}

	return model.Device{
		SerialNumber: fields.SerialNumber,
		Type:         deviceType,
		Image:        fields.Image,
		Status:       status,
	}, nil
}

// validateAggregate 对合并后的完整聚合重新校验
func validateAggregate(loc *model.Location) error {
	if err := validateScalars(loc.Name, loc.Address, loc.Phone); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(loc.Devices))
	for i, d := range loc.Devices {
		path := fmt.Sprintf("devices[%d]", i)
		if strings.TrimSpace(d.SerialNumber) == "" {
			return validationError(path+".serialNumber", d.SerialNumber, "不能为空")
		}
		if !d.Type.Valid() {
			return validationError(path+".type", string(d.Type), "取值必须为 pos/kiosk/signage")
		}
		if !d.Status.Valid() {
			return validationError(path+".status", string(d.Status), "取值必须为 active/inactive")
		}
		if _, dup := seen[d.SerialNumber]; dup {
			return duplicateSerialError(path+".serialNumber", d.SerialNumber)
		}
		seen[d.SerialNumber] = struct{}{}
	}
	return nil
}
