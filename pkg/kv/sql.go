package kv

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/campusmarket-client/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one row of kv_entries.
type Entry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:191"`
	Value     string    `gorm:"column:entry_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (Entry) TableName() string { return "kv_entries" }

// SQL stores entries in the kv_entries table through gorm.
type SQL struct {
	client *db.Client
	now    func() time.Time
}

func NewSQL(client *db.Client) *SQL {
	return &SQL{client: client, now: time.Now}
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var entry Entry
	err := s.client.DB().WithContext(ctx).Where("entry_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	return upsert(s.client.DB().WithContext(ctx), Entry{Key: key, Value: value, UpdatedAt: s.now().UTC()})
}

// SetMany upserts every entry in one transaction.
func (s *SQL) SetMany(ctx context.Context, entries map[string]string) error {
	now := s.now().UTC()
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		for key, value := range entries {
			if err := upsert(tx, Entry{Key: key, Value: value, UpdatedAt: now}); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsert(tx *gorm.DB, entry Entry) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).
		Create(&entry).
		Error
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	return s.client.DB().WithContext(ctx).Where("entry_key = ?", key).Delete(&Entry{}).Error
}

func (s *SQL) Close() error {
	return s.client.Close()
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
