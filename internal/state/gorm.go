package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserStateRecord is the durable row behind GormStore. Each logical table is
// a JSON column.
type UserStateRecord struct {
	UserID    string         `gorm:"primaryKey;size:128" json:"user_id"`
	Profile   datatypes.JSON `json:"profile"`
	Plans     datatypes.JSON `json:"plans"`
	Rules     string         `gorm:"type:text" json:"rules"`
	Progress  datatypes.JSON `json:"progress"`
	Wearables datatypes.JSON `json:"wearables"`
	Badges    datatypes.JSON `json:"badges"`
	Logs      datatypes.JSON `json:"logs"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (UserStateRecord) TableName() string {
	return "user_states"
}

// GormStore persists user state through GORM (Postgres in production,
// SQLite in tests). Writers for the same user are serialised in-process.
type GormStore struct {
	db    *gorm.DB
	locks sync.Map // user id -> *sync.Mutex
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the user_states table.
func (g *GormStore) Migrate() error {
	return g.db.AutoMigrate(&UserStateRecord{})
}

func (g *GormStore) lock(userID string) *sync.Mutex {
	mu, _ := g.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (g *GormStore) Get(ctx context.Context, userID string) (*UserState, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	var rec UserStateRecord
	err := g.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load user state: %w", err)
	}
	if rec.UserID == "" {
		return NewUserState(), nil
	}
	return decodeRecord(&rec)
}

func (g *GormStore) Update(ctx context.Context, userID string, fn func(*UserState) error) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	mu := g.lock(userID)
	mu.Lock()
	defer mu.Unlock()

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := UserStateRecord{UserID: userID}
		if err := tx.Where(UserStateRecord{UserID: userID}).Attrs(emptyRecord(userID)).FirstOrCreate(&rec).Error; err != nil {
			return fmt.Errorf("failed to load user state: %w", err)
		}
		st, err := decodeRecord(&rec)
		if err != nil {
			return err
		}
		if err := fn(st); err != nil {
			return err
		}
		updated, err := encodeRecord(userID, st)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{
			"profile":    updated.Profile,
			"plans":      updated.Plans,
			"rules":      updated.Rules,
			"progress":   updated.Progress,
			"wearables":  updated.Wearables,
			"badges":     updated.Badges,
			"logs":       updated.Logs,
			"updated_at": time.Now(),
		}
		if err := tx.Model(&UserStateRecord{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to save user state: %w", err)
		}
		return nil
	})
}

func emptyRecord(userID string) UserStateRecord {
	rec, _ := encodeRecord(userID, NewUserState())
	return *rec
}

func encodeRecord(userID string, st *UserState) (*UserStateRecord, error) {
	rec := &UserStateRecord{UserID: userID, Rules: st.Rules}
	fields := []struct {
		dst *datatypes.JSON
		src any
	}{
		{&rec.Profile, st.Profile},
		{&rec.Plans, st.Plans},
		{&rec.Progress, st.Progress},
		{&rec.Wearables, st.Wearables},
		{&rec.Badges, st.Badges},
		{&rec.Logs, st.Logs},
	}
	for _, f := range fields {
		raw, err := json.Marshal(f.src)
		if err != nil {
			return nil, fmt.Errorf("failed to encode user state: %w", err)
		}
		*f.dst = datatypes.JSON(raw)
	}
	return rec, nil
}

func decodeRecord(rec *UserStateRecord) (*UserState, error) {
	st := NewUserState()
	st.Rules = rec.Rules

	if len(rec.Profile) > 0 && string(rec.Profile) != "null" {
		var p Profile
		if err := json.Unmarshal(rec.Profile, &p); err != nil {
			return nil, fmt.Errorf("corrupt profile for %s: %w", rec.UserID, err)
		}
		st.Profile = &p
	}
	fields := []struct {
		raw datatypes.JSON
		dst any
	}{
		{rec.Plans, &st.Plans},
		{rec.Progress, &st.Progress},
		{rec.Wearables, &st.Wearables},
		{rec.Badges, &st.Badges},
		{rec.Logs, &st.Logs},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("corrupt user state for %s: %w", rec.UserID, err)
		}
	}
	// JSON null decodes to nil slices; keep the empty-container invariant.
	return st.Clone(), nil
}
