package repository

import (
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Location LocationRepository
}

// NewRepository 创建基于 PostgreSQL（GORM）的 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Location: NewLocationRepo(db),
	}
}

// NewMongoRepository 创建基于 MongoDB 文档存储的 Repository 聚合
func NewMongoRepository(db *mongo.Database) *Repository {
	return &Repository{
		Location: NewLocationMongoRepo(db),
	}
}
