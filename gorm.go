package statex

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMStore persists entries through GORM. With the sqlite driver it is the
// on-device durable store: cached screen responses survive a process
// restart, so a relaunched app can render the last snapshot before any
// network call settles.
type GORMStore[T any] struct {
	db        *gorm.DB
	tableName string
	keyPrefix string
}

type storeRow struct {
	Key       string         `gorm:"not null;primaryKey;size:255"`
	Value     datatypes.JSON `gorm:"not null;type:json"`
	UpdatedAt time.Time      `gorm:"not null;index"`
}

// GORMStoreConfig holds configuration for GORMStore
type GORMStoreConfig struct {
	// DB is the GORM database connection
	DB *gorm.DB

	// TableName is the name of the store table
	TableName string

	// KeyPrefix is the prefix for all keys (optional)
	KeyPrefix string
}

// NewGORMStore creates a new GORM-backed store with configuration
func NewGORMStore[T any](config *GORMStoreConfig) *GORMStore[T] {
	if config.DB == nil {
		panic("DB is required")
	}
	if config.TableName == "" {
		panic("TableName is required")
	}

	return &GORMStore[T]{
		db:        config.DB,
		tableName: config.TableName,
		keyPrefix: config.KeyPrefix,
	}
}

func (g *GORMStore[T]) prefixedKey(key string) string {
	return g.keyPrefix + key
}

// Migrate creates or updates the store table schema
func (g *GORMStore[T]) Migrate(ctx context.Context) error {
	if err := g.db.WithContext(ctx).Table(g.tableName).AutoMigrate(&storeRow{}); err != nil {
		return errors.Wrap(err, "failed to migrate store table")
	}
	return nil
}

// Set stores a value
func (g *GORMStore[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value")
	}

	row := storeRow{
		Key:   g.prefixedKey(key),
		Value: data,
	}

	if err := g.db.WithContext(ctx).
		Table(g.tableName).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&row).Error; err != nil {
		return errors.Wrap(err, "failed to set store entry")
	}

	return nil
}

// Get retrieves a value
func (g *GORMStore[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T
	var row storeRow

	if err := g.db.WithContext(ctx).
		Table(g.tableName).
		Where("key = ?", g.prefixedKey(key)).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, &ErrEntryNotFound{}
		}
		return zero, errors.Wrap(err, "failed to get store entry")
	}

	var value T
	if err := json.Unmarshal(row.Value, &value); err != nil {
		return zero, errors.Wrap(err, "failed to unmarshal value")
	}

	return value, nil
}

// Del removes a value
func (g *GORMStore[T]) Del(ctx context.Context, key string) error {
	if err := g.db.WithContext(ctx).
		Table(g.tableName).
		Where("key = ?", g.prefixedKey(key)).
		Delete(nil).Error; err != nil {
		return errors.Wrap(err, "failed to delete store entry")
	}
	return nil
}
