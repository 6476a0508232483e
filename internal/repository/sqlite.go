package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// record строка таблицы records: один блоб на ключ
type record struct {
	Name      string `gorm:"primaryKey;column:name"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (record) TableName() string { return "records" }

// GormBlobs BlobStore поверх SQL через gorm
type GormBlobs struct {
	db *gorm.DB
}

var _ BlobStore = (*GormBlobs)(nil)

// OpenSQLite открывает файл SQLite и создаёт таблицу при необходимости
func OpenSQLite(path string) (*GormBlobs, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return NewGormBlobs(db)
}

func NewGormBlobs(db *gorm.DB) (*GormBlobs, error) {
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrate records: %w", err)
	}
	return &GormBlobs{db: db}, nil
}

func (g *GormBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	var r record
	err := g.db.WithContext(ctx).Where("name = ?", key).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.Value, nil
}

func (g *GormBlobs) Put(ctx context.Context, key string, value []byte) error {
	r := record{Name: key, Value: value, UpdatedAt: time.Now().UTC()}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&r).Error
}

func (g *GormBlobs) Delete(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).Where("name = ?", key).Delete(&record{}).Error
}

func (g *GormBlobs) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
