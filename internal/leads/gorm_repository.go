package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// leadRecord is the gorm mapping of the leads table.
type leadRecord struct {
	ID           string     `gorm:"column:id;type:varchar(36);primaryKey"`
	Name         string     `gorm:"column:name;not null"`
	Email        string     `gorm:"column:email;not null;index"`
	Project      string     `gorm:"column:project"`
	Message      string     `gorm:"column:message"`
	Source       string     `gorm:"column:source;not null;default:website"`
	Medium       string     `gorm:"column:medium"`
	Campaign     string     `gorm:"column:campaign"`
	Referrer     string     `gorm:"column:referrer"`
	LandingPage  string     `gorm:"column:landing_page"`
	UserAgent    string     `gorm:"column:user_agent"`
	IP           string     `gorm:"column:ip"`
	Status       string     `gorm:"column:status;not null;default:new;index"`
	NotifyStatus string     `gorm:"column:notify_status"`
	NotifiedAt   *time.Time `gorm:"column:notified_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;index"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (leadRecord) TableName() string {
	return "leads"
}

func recordFromLead(l *Lead) *leadRecord {
	return &leadRecord{
		ID:           l.ID,
		Name:         l.Name,
		Email:        l.Email,
		Project:      l.Project,
		Message:      l.Message,
		Source:       l.Source,
		Medium:       l.Medium,
		Campaign:     l.Campaign,
		Referrer:     l.Referrer,
		LandingPage:  l.LandingPage,
		UserAgent:    l.UserAgent,
		IP:           l.IP,
		Status:       string(l.Status),
		NotifyStatus: l.NotifyStatus,
		NotifiedAt:   l.NotifiedAt,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func (r *leadRecord) toLead() *Lead {
	return &Lead{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Project:      r.Project,
		Message:      r.Message,
		Source:       r.Source,
		Medium:       r.Medium,
		Campaign:     r.Campaign,
		Referrer:     r.Referrer,
		LandingPage:  r.LandingPage,
		UserAgent:    r.UserAgent,
		IP:           r.IP,
		Status:       Status(r.Status),
		NotifyStatus: r.NotifyStatus,
		NotifiedAt:   r.NotifiedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// GormRepository stores leads through gorm. It backs single-node
// deployments on SQLite.
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) a SQLite database in WAL mode and migrates
// the leads table.
func OpenSQLite(path string, verbose bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if verbose {
		logLevel = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(path+"?_journal_mode=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("leads: open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&leadRecord{}); err != nil {
		return nil, fmt.Errorf("leads: migrate sqlite: %w", err)
	}
	return db, nil
}

// NewGormRepository wraps an opened gorm handle.
func NewGormRepository(db *gorm.DB) *GormRepository {
	if db == nil {
		panic("leads: gorm db required")
	}
	return &GormRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new row.
func (r *GormRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lead := newLead(uuid.New().String(), req, r.now())
	if err := r.db.WithContext(ctx).Create(recordFromLead(lead)).Error; err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return lead, nil
}

// Update applies a partial update inside a transaction and returns the stored row.
func (r *GormRepository) Update(ctx context.Context, id string, patch LeadPatch) (*Lead, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	var updated leadRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, "id = ?", id).Error; err != nil {
			return err
		}
		lead := updated.toLead()
		patch.apply(lead, r.now())
		updated = *recordFromLead(lead)
		return tx.Save(&updated).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: update failed: %w", err)
	}
	return updated.toLead(), nil
}

// GetByID fetches a single lead.
func (r *GormRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	var rec leadRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return rec.toLead(), nil
}

// List returns leads newest first.
func (r *GormRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	filter = filter.normalized()

	q := r.db.WithContext(ctx).Model(&leadRecord{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	var recs []leadRecord
	if err := q.Order("created_at DESC").Order("id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	out := make([]*Lead, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toLead())
	}
	return out, nil
}
