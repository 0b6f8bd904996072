package model

import "gorm.io/datatypes"

// DeviceType 设备类型
type DeviceType string

const (
	DeviceTypePOS     DeviceType = "pos"
	DeviceTypeKiosk   DeviceType = "kiosk"
	DeviceTypeSignage DeviceType = "signage"
)

// Valid 是否为合法枚举值
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceTypePOS, DeviceTypeKiosk, DeviceTypeSignage:
		return true
	}
	return false
}

// DeviceStatus 设备状态
type DeviceStatus string

const (
	DeviceStatusActive   DeviceStatus = "active"
	DeviceStatusInactive DeviceStatus = "inactive"
)

// Valid 是否为合法枚举值
func (s DeviceStatus) Valid() bool {
	return s == DeviceStatusActive || s == DeviceStatusInactive
}

// Device 地点内嵌设备，不可独立寻址
type Device struct {
	DeviceID     string       `json:"id"              bson:"id"`
	SerialNumber string       `json:"serialNumber"    bson:"serialNumber"`
	Type         DeviceType   `json:"type"            bson:"type"`
	Image        string       `json:"image,omitempty" bson:"image,omitempty"` // 原样存储的编码图片
	Status       DeviceStatus `json:"status"          bson:"status"`
}

// Devices 设备序列，以 JSON 文档形式内嵌于 locations 行
type Devices = datatypes.JSONSlice[Device]

// DeviceSerial 设备序列号全局唯一索引 — 对应 device_serials
// 每次写入地点时在同一事务内重建该地点的索引行
type DeviceSerial struct {
	SerialNumber string `gorm:"type:varchar(100);primaryKey"`
	LocationID   string `gorm:"type:uuid;not null;index"`
	DeviceID     string `gorm:"type:uuid;not null"`
}

// TableName 指定表名
func (DeviceSerial) TableName() string { return "device_serials" }
