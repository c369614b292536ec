package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/tutorlane/service-scheduling/internal/domain/booking"
	"github.com/tutorlane/service-scheduling/internal/events"
	"github.com/tutorlane/service-scheduling/internal/pkg/domain"
	"github.com/tutorlane/service-scheduling/internal/pkg/kafka"
	"go.uber.org/zap"
)

// CreateBookingRequest holds the data needed to create a new booking draft.
type CreateBookingRequest struct {
	ProviderID uuid.UUID `json:"provider_id" binding:"required"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
	Notes      string    `json:"notes"`
}

// ModifyBookingRequest holds the new appointment time for a modification.
type ModifyBookingRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID            uuid.UUID  `json:"id"`
	BookingNumber string     `json:"booking_number"`
	ProviderID    uuid.UUID  `json:"provider_id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	State         string     `json:"state"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	Notes         string     `json:"notes,omitempty"`
	DeclineNote   string     `json:"decline_note,omitempty"`
	CancelNote    string     `json:"cancel_note,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
	DeclinedAt    *time.Time `json:"declined_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
// Every read path runs the booking through the lazy lifecycle corrections
// (pending expiry, elapsed completion) before the booking is returned or
// used.
type BookingService struct {
	repo         bookingDomain.BookingRepository
	audit        bookingDomain.AuditLog
	availability *AvailabilityService
	producer     *kafka.Producer
	logger       *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	audit bookingDomain.AuditLog,
	availability *AvailabilityService,
	producer *kafka.Producer,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:         repo,
		audit:        audit,
		availability: availability,
		producer:     producer,
		logger:       logger,
	}
}

// CreateBooking creates a new draft booking for the given customer.
func (s *BookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	bk, err := bookingDomain.NewBooking(req.ProviderID, customerID, req.StartTime, req.EndTime, req.Notes)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// SubmitBooking submits a customer's draft booking to the provider.
func (s *BookingService) SubmitBooking(ctx context.Context, customerID, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.loadCorrected(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.CustomerID() != customerID {
		return nil, domain.NewForbiddenError("booking does not belong to this customer")
	}

	from := bk.State()
	if err := bk.Submit(); err != nil {
		return nil, err
	}
	if err := s.persistTransition(ctx, bk, from, string(bookingDomain.StatePending), "customer", ""); err != nil {
		return nil, err
	}

	evt := events.BookingSubmittedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ProviderID:    bk.ProviderID(),
		CustomerID:    bk.CustomerID(),
		StartTime:     bk.StartTime(),
		EndTime:       bk.EndTime(),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingSubmitted, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmBooking confirms a pending booking after verifying, against a fresh
// availability computation, that the requested range is still sellable.
// Optimistic locking on the update makes sure that when two requests for
// overlapping time race, at most one confirmation commits.
func (s *BookingService) ConfirmBooking(ctx context.Context, providerID, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.loadCorrected(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.ProviderID() != providerID {
		return nil, domain.NewForbiddenError("booking does not belong to this provider")
	}

	// Recompute against fresh occupying data; a slot computed earlier is
	// stale the instant a conflicting booking commits.
	free, err := s.rangeIsSellable(ctx, bk.ProviderID(), bk.StartTime(), bk.EndTime())
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, domain.NewConflictError("requested time range is no longer available")
	}

	from := bk.State()
	if err := bk.Confirm(); err != nil {
		return nil, err
	}
	if err := s.persistTransition(ctx, bk, from, string(bookingDomain.StateConfirmed), "provider", ""); err != nil {
		return nil, err
	}

	evt := events.BookingConfirmedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ProviderID:    bk.ProviderID(),
		CustomerID:    bk.CustomerID(),
		StartTime:     bk.StartTime(),
		EndTime:       bk.EndTime(),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingConfirmed, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// DeclineBooking declines a pending booking.
func (s *BookingService) DeclineBooking(ctx context.Context, providerID, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.loadCorrected(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.ProviderID() != providerID {
		return nil, domain.NewForbiddenError("booking does not belong to this provider")
	}

	from := bk.State()
	if err := bk.Decline(reason); err != nil {
		return nil, err
	}
	if err := s.persistTransition(ctx, bk, from, string(bookingDomain.StateDeclined), "provider", reason); err != nil {
		return nil, err
	}

	evt := events.BookingDeclinedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ProviderID:    bk.ProviderID(),
		CustomerID:    bk.CustomerID(),
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingDeclined, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// ModifyBooking moves a confirmed (or already modified) booking to a new
// appointment time, verifying the new range against fresh availability.
func (s *BookingService) ModifyBooking(ctx context.Context, providerID, bookingID uuid.UUID, req ModifyBookingRequest) (*BookingDTO, error) {
	bk, err := s.loadCorrected(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.ProviderID() != providerID {
		return nil, domain.NewForbiddenError("booking does not belong to this provider")
	}

	free, err := s.rangeIsSellableExcluding(ctx, bk, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, domain.NewConflictError("requested time range is no longer available")
	}

	from := bk.State()
	if err := bk.Modify(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if err := s.persistTransition(ctx, bk, from, string(bookingDomain.StateModified), "provider", ""); err != nil {
		return nil, err
	}

	evt := events.BookingModifiedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ProviderID:    bk.ProviderID(),
		CustomerID:    bk.CustomerID(),
		StartTime:     bk.StartTime(),
		EndTime:       bk.EndTime(),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingModified, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a confirmed or modified booking. Either party may
// cancel.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.loadCorrected(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.CustomerID() != userID && bk.ProviderID() != userID {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	actor := "customer"
	if bk.ProviderID() == userID {
		actor = "provider"
	}

	from := bk.State()
	if err := bk.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.persistTransition(ctx, bk, from, string(bookingDomain.StateCancelled), actor, reason); err != nil {
		return nil, err
	}

	evt := events.BookingCancelledEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ProviderID:    bk.ProviderID(),
		CustomerID:    bk.CustomerID(),
		CancelledBy:   userID,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking by ID, with lifecycle corrections
// applied and persisted first.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.loadCorrected(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetCustomerBookings retrieves paginated bookings for a customer.
func (s *BookingService) GetCustomerBookings(ctx context.Context, customerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByCustomerID(ctx, customerID, page, limit)
	if err != nil {
		return nil, err
	}
	return s.correctedPage(ctx, bookings, total, page, limit)
}

// GetProviderBookings retrieves paginated bookings for a provider.
func (s *BookingService) GetProviderBookings(ctx context.Context, providerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, err
	}
	return s.correctedPage(ctx, bookings, total, page, limit)
}

// GetAuditTrail returns the lifecycle audit entries for a booking.
func (s *BookingService) GetAuditTrail(ctx context.Context, bookingID uuid.UUID) ([]bookingDomain.AuditEntry, error) {
	return s.audit.FindByBookingID(ctx, bookingID)
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByState       map[string]int64 `json:"by_state"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByState:       counts,
	}, nil
}

// --- Helpers ---

// loadCorrected loads a booking and applies the lazy lifecycle corrections:
// a pending booking past its expiry window is forced to declined, and a
// confirmed or modified booking whose time has fully passed becomes
// completed. Corrections are persisted (with a system audit entry) before
// the booking is returned.
func (s *BookingService) loadCorrected(ctx context.Context, bookingID uuid.UUID) (*bookingDomain.Booking, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.applyCorrections(ctx, bk); err != nil {
		return nil, err
	}
	return bk, nil
}

func (s *BookingService) applyCorrections(ctx context.Context, bk *bookingDomain.Booking) error {
	now := time.Now().UTC()

	if bk.Expire(now) {
		if err := s.persistTransition(ctx, bk, bookingDomain.StatePending, string(bookingDomain.StateDeclined), bookingDomain.AuditActorSystem, "booking request expired"); err != nil {
			return err
		}

		evt := events.BookingExpiredEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			ProviderID:    bk.ProviderID(),
			CustomerID:    bk.CustomerID(),
			Actor:         bookingDomain.AuditActorSystem,
			OccurredAt:    now,
		}
		s.publishEvent(ctx, events.TopicBookingEvents, events.BookingExpired, evt)
		return nil
	}

	if (bk.State() == bookingDomain.StateConfirmed || bk.State() == bookingDomain.StateModified) && !bk.EndTime().After(now) {
		from := bk.State()
		if err := bk.CompleteElapsed(now); err != nil {
			return err
		}
		return s.persistTransition(ctx, bk, from, string(bookingDomain.StateCompleted), bookingDomain.AuditActorSystem, "booking time elapsed")
	}

	return nil
}

// persistTransition updates the booking under optimistic locking and records
// the audit entry for the state change.
func (s *BookingService) persistTransition(ctx context.Context, bk *bookingDomain.Booking, from bookingDomain.BookingState, to, actor, note string) error {
	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return err
	}

	entry := bookingDomain.AuditEntry{
		BookingID: bk.ID(),
		Actor:     actor,
		FromState: from,
		ToState:   bookingDomain.BookingState(to),
		Note:      note,
		At:        time.Now().UTC(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		// An audit write failure must not hide a committed state change.
		s.logger.Error("failed to record audit entry",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
	}
	return nil
}

func (s *BookingService) correctedPage(ctx context.Context, bookings []*bookingDomain.Booking, total int64, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		if err := s.applyCorrections(ctx, bk); err != nil {
			return nil, err
		}
		dtos[i] = toBookingDTO(bk)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// rangeIsSellable reports whether [start, end) is fully covered by a single
// sellable slot computed from a fresh snapshot.
func (s *BookingService) rangeIsSellable(ctx context.Context, providerID uuid.UUID, start, end time.Time) (bool, error) {
	slots, err := s.availability.GetSellableSlots(ctx, providerID, start, end)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if !slot.Start.After(start) && !slot.End.Before(end) {
			return true, nil
		}
	}
	return false, nil
}

// rangeIsSellableExcluding is rangeIsSellable but ignores the booking's own
// current reservation, so a confirmed booking can be moved inside or around
// its existing range. The booking's own occupying range masks the slots it is
// moving into, so the parts of the requested range that fall inside it are
// checked separately.
func (s *BookingService) rangeIsSellableExcluding(ctx context.Context, bk *bookingDomain.Booking, start, end time.Time) (bool, error) {
	if !bk.Occupies() {
		return s.rangeIsSellable(ctx, bk.ProviderID(), start, end)
	}

	slots, err := s.availability.GetSellableSlots(ctx, bk.ProviderID(), start, end)
	if err != nil {
		return false, err
	}

	covered := func(from, until time.Time) bool {
		for _, slot := range slots {
			if !slot.Start.After(from) && !slot.End.Before(until) {
				return true
			}
		}
		return false
	}

	// The requested range minus the booking's own range must be sellable;
	// the part inside its own range is free to rebook by definition.
	for _, r := range subtractOwn(start, end, bk.StartTime(), bk.EndTime()) {
		if !covered(r.start, r.end) {
			return false, nil
		}
	}
	return true, nil
}

type instantRange struct{ start, end time.Time }

func subtractOwn(start, end, ownStart, ownEnd time.Time) []instantRange {
	if !start.Before(ownEnd) || !ownStart.Before(end) {
		return []instantRange{{start, end}}
	}
	var out []instantRange
	if start.Before(ownStart) {
		out = append(out, instantRange{start, ownStart})
	}
	if ownEnd.Before(end) {
		out = append(out, instantRange{ownEnd, end})
	}
	return out
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:            bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ProviderID:    bk.ProviderID(),
		CustomerID:    bk.CustomerID(),
		State:         string(bk.State()),
		StartTime:     bk.StartTime(),
		EndTime:       bk.EndTime(),
		Notes:         bk.Notes(),
		DeclineNote:   bk.DeclineNote(),
		CancelNote:    bk.CancelNote(),
		ConfirmedAt:   bk.ConfirmedAt(),
		DeclinedAt:    bk.DeclinedAt(),
		CancelledAt:   bk.CancelledAt(),
		CompletedAt:   bk.CompletedAt(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-scheduling", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
