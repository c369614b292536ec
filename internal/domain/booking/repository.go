package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// FindByCustomerID retrieves bookings belonging to a customer with pagination.
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByProviderID retrieves bookings for a provider with pagination.
	FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindOccupying retrieves a provider's bookings in occupying states
	// (confirmed, modified, completed) whose time intersects [from, to).
	FindOccupying(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]*Booking, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByState returns booking counts grouped by state (admin).
	CountByState(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}

// AuditEntry records one lifecycle change and who caused it. Automated
// corrections carry AuditActorSystem.
type AuditEntry struct {
	BookingID uuid.UUID
	Actor     string
	FromState BookingState
	ToState   BookingState
	Note      string
	At        time.Time
}

// AuditLog defines the persistence contract for lifecycle audit entries.
type AuditLog interface {
	// Record persists a single audit entry.
	Record(ctx context.Context, entry AuditEntry) error

	// FindByBookingID retrieves all audit entries for a booking, oldest first.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]AuditEntry, error)
}
