package model

// Location 地点聚合根 — 对应 locations
type Location struct {
	LocationID     string  `gorm:"type:uuid;primaryKey"         json:"id"      bson:"_id"`
	Name           string  `gorm:"type:varchar(200);not null"   json:"name"    bson:"name"`
	Address        string  `gorm:"type:varchar(400);not null"   json:"address" bson:"address"`
	Phone          string  `gorm:"type:varchar(40);not null"    json:"phone"   bson:"phone"`
	Devices        Devices `gorm:"not null"                     json:"devices" bson:"devices"`
	VersionedModel `bson:",inline"`
}

// TableName 指定表名
func (Location) TableName() string { return "locations" }

// Clone 深拷贝聚合，更新引擎在副本上完成全部计算
func (l *Location) Clone() *Location {
	cp := *l
	cp.Devices = make(Devices, len(l.Devices))
	copy(cp.Devices, l.Devices)
	return &cp
}

// DeviceIndex 返回设备下标，不存在时返回 -1
func (l *Location) DeviceIndex(deviceID string) int {
	for i := range l.Devices {
		if l.Devices[i].DeviceID == deviceID {
			return i
		}
	}
	return -1
}

// Serials 返回该地点全部设备序列号
func (l *Location) Serials() []string {
	serials := make([]string, 0, len(l.Devices))
	for _, d := range l.Devices {
		serials = append(serials, d.SerialNumber)
	}
	return serials
}
