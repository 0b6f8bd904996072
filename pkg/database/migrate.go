package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationsTable 地点库独立的迁移版本表，与同库其他服务互不干扰
const migrationsTable = "location_schema_migrations"

// RunMigrations 将 locations / device_serials 结构迁移到内嵌的最新版本。
// 迁移处于 dirty 状态时拒绝启动，需人工修复。
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	src, err := migrationSource()
	if err != nil {
		return err
	}
	target, err := latestVersion(src)
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		from = 0
	case err != nil:
		return fmt.Errorf("读取迁移版本失败: %w", err)
	case dirty:
		return fmt.Errorf("地点库迁移处于 dirty 状态 (version=%d)，请人工修复后重启", from)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	logger.Info("地点库迁移完成",
		zap.String("table", migrationsTable),
		zap.Uint("from_version", from),
		zap.Uint("to_version", target),
	)
	return nil
}

func migrationSource() (source.Driver, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("加载迁移文件失败: %w", err)
	}
	return src, nil
}

// latestVersion 返回内嵌迁移中的最高版本号
func latestVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("读取迁移文件失败: %w", err)
	}
	for {
		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			return version, nil
		}
		if err != nil {
			return 0, fmt.Errorf("读取迁移文件失败: %w", err)
		}
		version = next
	}
}
