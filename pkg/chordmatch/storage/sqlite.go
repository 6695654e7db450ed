package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "chordmatch.sqlite3"
const errDBClientNil = "db client is nil"

// Rating bounds accepted by the store.
const (
	MinRating = 1
	MaxRating = 5
)

// ErrRatingOutOfRange is returned for values outside MinRating..MaxRating.
var ErrRatingOutOfRange = errors.New("rating out of range")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Rating is one append-only rating row.
type Rating struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	SongID    int    `gorm:"index:idx_rating_song;not null" json:"song_id"`
	Value     int    `gorm:"not null" json:"value"`
	CreatedAt time.Time
}

// Summary aggregates the ratings of one song. Average is nil when Count is
// zero.
type Summary struct {
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("CHORDMATCH_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY on inserts.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Rating{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RecordRating appends a rating for songID.
func (c *DBClient) RecordRating(ctx context.Context, songID, value int) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if value < MinRating || value > MaxRating {
		return fmt.Errorf("%w: %d", ErrRatingOutOfRange, value)
	}

	r := Rating{ID: uuid.NewString(), SongID: songID, Value: value}
	if err := c.DB.WithContext(ctx).Create(&r).Error; err != nil {
		return fmt.Errorf("inserting rating: %w", err)
	}
	return nil
}

type summaryRow struct {
	SongID  int
	Average float64
	Count   int
}

// Summary returns the average and count of songID's ratings.
func (c *DBClient) Summary(ctx context.Context, songID int) (Summary, error) {
	all, err := c.Summaries(ctx, []int{songID})
	if err != nil {
		return Summary{}, err
	}
	return all[songID], nil
}

// summaryBatchSize keeps each IN list far below SQLite's bound-parameter cap.
const summaryBatchSize = 500

// Summaries aggregates ratings for several songs, summaryBatchSize IDs per
// query. Songs without ratings map to a zero Summary.
func (c *DBClient) Summaries(ctx context.Context, songIDs []int) (map[int]Summary, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	out := make(map[int]Summary, len(songIDs))
	if len(songIDs) == 0 {
		return out, nil
	}
	for _, id := range songIDs {
		out[id] = Summary{}
	}

	for start := 0; start < len(songIDs); start += summaryBatchSize {
		end := min(start+summaryBatchSize, len(songIDs))

		var rows []summaryRow
		err := c.DB.WithContext(ctx).
			Model(&Rating{}).
			Select("song_id, AVG(value) AS average, COUNT(*) AS count").
			Where("song_id IN ?", songIDs[start:end]).
			Group("song_id").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("aggregating ratings: %w", err)
		}

		for _, r := range rows {
			avg := r.Average
			out[r.SongID] = Summary{Average: &avg, Count: r.Count}
		}
	}
	return out, nil
}

// CountRatings returns the total number of stored ratings.
func (c *DBClient) CountRatings(ctx context.Context) (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var n int64
	if err := c.DB.WithContext(ctx).Model(&Rating{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting ratings: %w", err)
	}
	return n, nil
}
