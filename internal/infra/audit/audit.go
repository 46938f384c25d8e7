package audit

import (
	"context"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/zlomke76-del/solace-adapter/pkg/domain"
)

type Entry struct {
	ID        uint `gorm:"primaryKey"`
	RequestID string
	Decision  string
	Reason    string
	Service   string
	ActorID   string
	CreatedAt time.Time
}

func (Entry) TableName() string { return "gate_audit_log" }

type Sink struct {
	db *gorm.DB
}

func New(dsn string) (*Sink, error) {
	if dsn == "" {
		log.Printf("audit: AUDIT_POSTGRES_DSN not set; running in no-db mode")
		return &Sink{}, nil
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &Sink{db: db}, nil
}

func (s *Sink) Record(ctx context.Context, requestID string, result domain.GateResult, service, actorID string) {
	if s == nil || s.db == nil {
		return
	}
	entry := Entry{
		RequestID: requestID,
		Decision:  string(result.Decision),
		Reason:    result.Reason,
		Service:   service,
		ActorID:   actorID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("audit: failed to record gate decision: %v", err)
	}
}
