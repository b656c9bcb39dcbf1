package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stableamm/core/events"
	"stableamm/core/types"
)

// ErrDriverRequired is returned by Open when no driver is configured.
var ErrDriverRequired = errors.New("eventlog: driver required")

// Record is one committed event row. Sequence orders rows in emission order.
type Record struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Sequence   uint64    `gorm:"uniqueIndex"`
	Type       string    `gorm:"index;size:64"`
	Pool       string    `gorm:"index;size:16"`
	Attributes string    `gorm:"type:text"`
	CreatedAt  time.Time
}

// TableName pins the table name independent of the struct name.
func (Record) TableName() string { return "stableamm_events" }

// Decoded returns the attribute map stored with the record.
func (r Record) Decoded() (map[string]string, error) {
	attrs := map[string]string{}
	if strings.TrimSpace(r.Attributes) == "" {
		return attrs, nil
	}
	if err := json.Unmarshal([]byte(r.Attributes), &attrs); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return attrs, nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type  string
	Pool  string
	After uint64
	Limit int
}

type payload interface {
	Event() *types.Event
}

// Sink appends every emitted event to a relational table. It satisfies
// events.Emitter; write failures are logged because Emit cannot fail.
type Sink struct {
	db     *gorm.DB
	logger *slog.Logger
	clock  func() time.Time

	mu  sync.Mutex
	seq uint64
}

var _ events.Emitter = (*Sink)(nil)

// Open connects to the database named by driver ("sqlite" or "postgres") and
// migrates the event table.
func Open(driver, dsn string, log *slog.Logger) (*Sink, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "":
		return nil, ErrDriverRequired
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("eventlog: unsupported driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("eventlog: open %s: %w", driver, err)
	}
	return New(db, log)
}

// New wraps an open gorm handle and migrates the event table.
func New(db *gorm.DB, log *slog.Logger) (*Sink, error) {
	if db == nil {
		return nil, fmt.Errorf("eventlog: database required")
	}
	if log == nil {
		log = slog.Default()
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("eventlog: migrate: %w", err)
	}
	var last Record
	res := db.Order("sequence desc").Limit(1).Find(&last)
	if res.Error != nil {
		return nil, fmt.Errorf("eventlog: load sequence: %w", res.Error)
	}
	return &Sink{db: db, logger: log, clock: time.Now, seq: last.Sequence}, nil
}

// Emit implements events.Emitter.
func (s *Sink) Emit(evt events.Event) {
	if err := s.Append(context.Background(), evt); err != nil {
		s.logger.Warn("event log append failed", slog.String("type", evt.EventType()), slog.Any("error", err))
	}
}

// Append stores evt and returns once the row is written.
func (s *Sink) Append(ctx context.Context, evt events.Event) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("eventlog: sink not configured")
	}
	if evt == nil {
		return nil
	}
	attrs := map[string]string{}
	if p, ok := evt.(payload); ok {
		if raw := p.Event(); raw != nil {
			attrs = raw.Attributes
		}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record := Record{
		ID:         uuid.New(),
		Sequence:   s.seq + 1,
		Type:       evt.EventType(),
		Pool:       attrs["pool"],
		Attributes: string(encoded),
		CreatedAt:  s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	s.seq = record.Sequence
	return nil
}

// List returns records matching filter in emission order.
func (s *Sink) List(ctx context.Context, filter Filter) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("eventlog: sink not configured")
	}
	query := s.db.WithContext(ctx).Model(&Record{}).Where("sequence > ?", filter.After)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Pool != "" {
		query = query.Where("pool = ?", filter.Pool)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	var out []Record
	if err := query.Order("sequence asc").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (s *Sink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
