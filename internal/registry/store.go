// Package registry tracks which trained artifact is currently serving each
// tier group, and lazily loads artifact bundles from disk on first use.
package registry

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// cardRow is the GORM-mapped catalog row for one promoted artifact. It
// mirrors model.Card's fields flattened for SQL storage; the on-disk
// artifact bundle itself stays in the gob/JSON files registry.go reads.
type cardRow struct {
	ID             uint      `gorm:"primaryKey"`
	ArtifactID     string    `gorm:"uniqueIndex;size:128"`
	TierGroup      string    `gorm:"index;size:16"`
	ClassifierKind string    `gorm:"size:32"`
	CalibratorKind string    `gorm:"size:32"`
	FeatureVersion string    `gorm:"size:64"`
	SourcePatch    string    `gorm:"size:16"`
	TrainedAt      time.Time
	TrainRows      int
	ValidationRows int
	TestRows       int

	TestROCAUCRaw  float64
	TestLogLossRaw float64
	TestBrierRaw   float64
	TestECERaw     float64

	TestROCAUC  float64
	TestLogLoss float64
	TestBrier   float64
	TestECE     float64

	GateVerdict    string `gorm:"size:16"`
	PromotedFromID string `gorm:"size:128"`
	IsCurrent      bool   `gorm:"index"`
}

func (cardRow) TableName() string { return "model_cards" }

// Store is the catalog database: which artifact id is currently serving
// each tier group, plus every promoted artifact's card for audit/listing.
type Store struct {
	db *gorm.DB
}

// OpenStore opens (creating if necessary) the catalog database and ensures
// its schema, following the driver-switch-then-AutoMigrate connection
// setup in backend/cmd/server/main.go's connectDatabase.
func OpenStore(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("registry: unknown database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("registry: open database: %w", err)
	}
	if err := db.AutoMigrate(&cardRow{}); err != nil {
		return nil, fmt.Errorf("registry: migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordPromotion inserts a new card row and marks it the current artifact
// for its tier group, demoting whatever was current before it. Runs inside
// a transaction so a crash mid-promotion never leaves two "current" rows
// for the same tier group.
func (s *Store) RecordPromotion(row cardRow) error {
	row.IsCurrent = true
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&cardRow{}).
			Where("tier_group = ? AND is_current = ?", row.TierGroup, true).
			Update("is_current", false).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
}

// CurrentArtifactID returns the artifact id currently serving group, or
// ("", false) if no artifact has ever been promoted for it.
func (s *Store) CurrentArtifactID(tierGroup string) (string, bool) {
	var row cardRow
	err := s.db.Where("tier_group = ? AND is_current = ?", tierGroup, true).First(&row).Error
	if err != nil {
		return "", false
	}
	return row.ArtifactID, true
}

// AllCurrent returns every tier group's currently serving card.
func (s *Store) AllCurrent() ([]cardRow, error) {
	var rows []cardRow
	if err := s.db.Where("is_current = ?", true).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("registry: list current cards: %w", err)
	}
	return rows, nil
}

// History returns every card ever promoted for a tier group, most recent
// first, for audit and rollback tooling.
func (s *Store) History(tierGroup string) ([]cardRow, error) {
	var rows []cardRow
	if err := s.db.Where("tier_group = ?", tierGroup).Order("trained_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("registry: list card history: %w", err)
	}
	return rows, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
