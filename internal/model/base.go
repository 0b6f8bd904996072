package model

import "time"

// BaseModel 通用审计字段（由存储层维护，调用方不可写）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `gorm:"not null"       json:"updatedAt" bson:"updatedAt"`
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	BaseModel `bson:",inline"`
	Version   int `gorm:"not null;default:1" json:"version" bson:"version"`
}
