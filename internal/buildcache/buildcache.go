// Package buildcache records prior generator runs in a small sqlite
// database so the driver (cmd/pegc) can skip regeneration when a
// grammar file's contents haven't changed since the last successful
// build. It repurposes the teacher's gorm+sqlite persistence stack for
// this incremental-build bookkeeping rather than its original
// model/service layer.
package buildcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Build is one recorded generation: the grammar source's hash, the
// output path it was written to, and bookkeeping about what was built.
type Build struct {
	GrammarHash string `gorm:"primaryKey"`
	OutputPath  string
	RuleCount   int
	HelperCount int
	GeneratedAt time.Time
}

// Cache wraps a gorm/sqlite handle over the build-record table.
type Cache struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the sqlite database at path. Pass
// ":memory:" for an ephemeral cache, mainly useful in tests.
func Open(path string) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("buildcache: opening %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Build{}); err != nil {
		return nil, fmt.Errorf("buildcache: migrating schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Hash returns the cache key for a grammar source's contents.
func Hash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the recorded build for a grammar hash, if any, and
// whether it is still valid for outputPath (a cached build against a
// different -o target is not reusable, since the driver would need to
// write the file anyway).
func (c *Cache) Lookup(hash, outputPath string) (*Build, bool) {
	var b Build
	if err := c.db.First(&b, "grammar_hash = ? AND output_path = ?", hash, outputPath).Error; err != nil {
		return nil, false
	}
	return &b, true
}

// Record upserts the build record for a successful generation.
func (c *Cache) Record(hash, outputPath string, ruleCount, helperCount int) error {
	b := Build{
		GrammarHash: hash,
		OutputPath:  outputPath,
		RuleCount:   ruleCount,
		HelperCount: helperCount,
		GeneratedAt: time.Now(),
	}
	return c.db.Save(&b).Error
}

// Close releases the underlying sqlite connection.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
