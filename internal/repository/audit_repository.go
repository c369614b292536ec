package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/tutorlane/service-scheduling/internal/domain/booking"
	"gorm.io/gorm"
)

// AuditModel is the GORM model for the booking_audit_log table.
type AuditModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null"`
	Actor     string    `gorm:"not null;size:30"`
	FromState string    `gorm:"not null;size:30"`
	ToState   string    `gorm:"not null;size:30"`
	Note      string    `gorm:"size:500"`
	At        time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (AuditModel) TableName() string {
	return "booking_audit_log"
}

// GormAuditLog is the GORM-based implementation of AuditLog.
type GormAuditLog struct {
	db *gorm.DB
}

// NewGormAuditLog creates a new GormAuditLog.
func NewGormAuditLog(db *gorm.DB) *GormAuditLog {
	return &GormAuditLog{db: db}
}

// Record persists a single audit entry.
func (r *GormAuditLog) Record(ctx context.Context, entry bookingDomain.AuditEntry) error {
	model := AuditModel{
		ID:        uuid.New(),
		BookingID: entry.BookingID,
		Actor:     entry.Actor,
		FromState: string(entry.FromState),
		ToState:   string(entry.ToState),
		Note:      entry.Note,
		At:        entry.At,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// FindByBookingID retrieves all audit entries for a booking, oldest first.
func (r *GormAuditLog) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]bookingDomain.AuditEntry, error) {
	var models []AuditModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find audit entries: %w", err)
	}

	entries := make([]bookingDomain.AuditEntry, len(models))
	for i, m := range models {
		entries[i] = bookingDomain.AuditEntry{
			BookingID: m.BookingID,
			Actor:     m.Actor,
			FromState: bookingDomain.BookingState(m.FromState),
			ToState:   bookingDomain.BookingState(m.ToState),
			Note:      m.Note,
			At:        m.At,
		}
	}
	return entries, nil
}
