package ledger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/parentrebuild/backend/internal/domain"
)

const sqlitePrefix = "sqlite://"

// submission is the persisted form of domain.FeedSubmission
type submission struct {
	ID               string `gorm:"primaryKey;size:36"`
	RunID            string `gorm:"index;not null;size:36"`
	Phase            string `gorm:"not null"`
	FeedID           string
	FeedType         string
	MessageCount     int
	Status           string
	ElapsedMillis    int64
	ResultDocumentID string
	Error            string `gorm:"type:text"`
	CreatedAt        time.Time
}

func (submission) TableName() string {
	return "feed_submissions"
}

func (s *submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// GormLedger stores feed submissions in Postgres, or SQLite for "sqlite://" URLs
type GormLedger struct {
	db *gorm.DB
}

// Open connects to databaseURL and migrates the submissions table
func Open(databaseURL string, debug bool) (*GormLedger, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, sqlitePrefix) {
		dialector = sqlite.Open(strings.TrimPrefix(databaseURL, sqlitePrefix))
	} else {
		dialector = postgres.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&submission{}); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}

	log.Printf("[LEDGER] Using %s ledger", dialector.Name())
	return &GormLedger{db: db}, nil
}

// Record persists one phase submission and fills in its ID and timestamp
func (l *GormLedger) Record(ctx context.Context, s *domain.FeedSubmission) error {
	row := toRow(s)
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	s.ID = row.ID
	s.CreatedAt = row.CreatedAt
	return nil
}

// ListRun returns the submissions of a run in the order they were recorded
func (l *GormLedger) ListRun(ctx context.Context, runID string) ([]domain.FeedSubmission, error) {
	var rows []submission
	err := l.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list run %s: %w", runID, err)
	}

	out := make([]domain.FeedSubmission, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

// Close releases the underlying connection pool
func (l *GormLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRow(s *domain.FeedSubmission) submission {
	return submission{
		ID:               s.ID,
		RunID:            s.RunID,
		Phase:            string(s.Phase),
		FeedID:           s.FeedID,
		FeedType:         s.FeedType,
		MessageCount:     s.MessageCount,
		Status:           string(s.Status),
		ElapsedMillis:    s.ElapsedMillis,
		ResultDocumentID: s.ResultDocumentID,
		Error:            s.Error,
		CreatedAt:        s.CreatedAt,
	}
}

func fromRow(r submission) domain.FeedSubmission {
	return domain.FeedSubmission{
		ID:               r.ID,
		RunID:            r.RunID,
		Phase:            domain.Phase(r.Phase),
		FeedID:           r.FeedID,
		FeedType:         r.FeedType,
		MessageCount:     r.MessageCount,
		Status:           domain.ProcessingStatus(r.Status),
		ElapsedMillis:    r.ElapsedMillis,
		ResultDocumentID: r.ResultDocumentID,
		Error:            r.Error,
		CreatedAt:        r.CreatedAt,
	}
}
