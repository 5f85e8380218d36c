package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/gaurav-prasanna/sitetrans/core"
)

// lookupChunk bounds the size of IN (...) lists.
const lookupChunk = 500

// translationRow is the persisted form of a cache entry.
type translationRow struct {
	CacheKey       string    `gorm:"column:cache_key;primaryKey;size:64"`
	SourceText     string    `gorm:"column:source_text;not null"`
	SourceLang     string    `gorm:"column:source_lang;size:16;not null"`
	TargetLang     string    `gorm:"column:target_lang;size:16;not null"`
	TranslatedText string    `gorm:"column:translated_text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;index"`
}

func (translationRow) TableName() string { return "translations" }

// GormStore is a CacheStore on a SQL database. A DSN starting with
// postgres:// or postgresql:// selects PostgreSQL; anything else is a
// SQLite file path.
type GormStore struct {
	db *gorm.DB
}

// OpenStore opens (and migrates) the cache database at dsn.
func OpenStore(ctx context.Context, dsn, logLevel string) (*GormStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("cache DSN is required")
	}

	sqliteFile := !isPostgres(dsn)
	var dialector gorm.Dialector
	if sqliteFile {
		dialector = sqlite.Open(sqliteDSN(dsn))
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(logLevel)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get cache sql db: %w", err)
	}
	if sqliteFile {
		// One writer at a time; WAL lets readers proceed alongside it.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(8)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping cache database: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&translationRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate cache schema: %w", err)
	}

	return &GormStore{db: db}, nil
}

// GetMany returns the stored translations for the given keys. Missing keys
// are absent from the result.
func (s *GormStore) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	found := make(map[string]string, len(keys))
	for start := 0; start < len(keys); start += lookupChunk {
		end := min(start+lookupChunk, len(keys))

		var rows []translationRow
		err := s.db.WithContext(ctx).
			Select("cache_key", "translated_text").
			Where("cache_key IN ?", keys[start:end]).
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("query translations: %w", err)
		}
		for _, row := range rows {
			found[row.CacheKey] = row.TranslatedText
		}
	}
	return found, nil
}

// PutMany inserts entries. Existing keys keep their first stored value.
func (s *GormStore) PutMany(ctx context.Context, entries []core.CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]translationRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, translationRow{
			CacheKey:       e.Key,
			SourceText:     e.Text,
			SourceLang:     e.Src,
			TargetLang:     e.Dst,
			TranslatedText: e.Translation,
			CreatedAt:      e.CreatedAt,
		})
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 100).Error
	if err != nil {
		return fmt.Errorf("insert translations: %w", err)
	}
	return nil
}

// Clear deletes every entry and returns how many were removed.
func (s *GormStore) Clear(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&translationRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear translations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Stats reports the entry count and the oldest and newest insertion times.
func (s *GormStore) Stats(ctx context.Context) (core.CacheStats, error) {
	var stats core.CacheStats
	db := s.db.WithContext(ctx)
	if err := db.Model(&translationRow{}).Count(&stats.Entries).Error; err != nil {
		return stats, fmt.Errorf("count translations: %w", err)
	}
	if stats.Entries == 0 {
		return stats, nil
	}

	var oldest, newest translationRow
	if err := db.Order("created_at ASC").Limit(1).Find(&oldest).Error; err != nil {
		return stats, fmt.Errorf("query oldest translation: %w", err)
	}
	if err := db.Order("created_at DESC").Limit(1).Find(&newest).Error; err != nil {
		return stats, fmt.Errorf("query newest translation: %w", err)
	}
	stats.Oldest = &oldest.CreatedAt
	stats.Newest = &newest.CreatedAt
	return stats, nil
}

// Close releases the database handle.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isPostgres(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// sqliteDSN adds a busy timeout and WAL journaling unless the caller
// already passed pragmas.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func gormLogLevel(appLogLevel string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(appLogLevel)) {
	case "trace":
		return logger.Info
	case "debug", "warn", "warning":
		return logger.Warn
	case "silent", "disabled":
		return logger.Silent
	default:
		return logger.Error
	}
}
