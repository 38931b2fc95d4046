// Package circulation coordinates borrowing and returning on top of a backend.
//
// The backend owns atomicity. This layer adds what sits around each call: the due
// date, a guard against duplicate submissions, per-member rate limiting, tracing,
// metrics and the audit trail.
package circulation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrlokans/libraryhub/internal/backend"
	"github.com/mrlokans/libraryhub/internal/entities"
)

const (
	MsgInProgress  = "Request already in progress"
	MsgRateLimited = "Too many borrow requests, please wait a moment"

	DefaultLoanPeriod = 14 * 24 * time.Hour
)

// AuditRecorder receives the outcome of every circulation call.
type AuditRecorder interface {
	LogBorrow(userID, bookID uint, result entities.BorrowResult, err error)
	LogReturn(actorID, loanID uint, result entities.ReturnResult, err error)
}

type Config struct {
	LoanPeriod          time.Duration
	BorrowRatePerMinute float64 // 0 disables rate limiting
	BorrowBurst         int
}

type Service struct {
	store    backend.Backend
	recorder AuditRecorder
	period   time.Duration
	limiters *memberLimiters
	pending  *inflight
	now      func() time.Time

	tracer  trace.Tracer
	borrows metric.Int64Counter
	returns metric.Int64Counter
}

func NewService(store backend.Backend, recorder AuditRecorder, cfg Config) *Service {
	period := cfg.LoanPeriod
	if period <= 0 {
		period = DefaultLoanPeriod
	}

	meter := otel.Meter("libraryhub/circulation")
	borrows, _ := meter.Int64Counter("library.borrow.requests",
		metric.WithDescription("Borrow attempts by outcome"))
	returns, _ := meter.Int64Counter("library.return.requests",
		metric.WithDescription("Return attempts by outcome"))

	return &Service{
		store:    store,
		recorder: recorder,
		period:   period,
		limiters: newMemberLimiters(cfg.BorrowRatePerMinute, cfg.BorrowBurst),
		pending:  newInflight(),
		now:      time.Now,
		tracer:   otel.Tracer("libraryhub/circulation"),
		borrows:  borrows,
		returns:  returns,
	}
}

// DueDate returns the due date for a loan issued at issued.
func (s *Service) DueDate(issued time.Time) time.Time {
	return issued.Add(s.period)
}

// Borrow lends bookID to userID. Business rejections come back as an unsuccessful
// result; err is only set when the backend could not be reached or failed.
func (s *Service) Borrow(ctx context.Context, userID, bookID uint) (entities.BorrowResult, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.borrow",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.Int64("book.id", int64(bookID)),
		),
	)
	defer span.End()

	key := borrowKey(userID, bookID)
	if !s.pending.acquire(key) {
		s.count(ctx, s.borrows, "in_progress")
		return entities.RejectBorrow(MsgInProgress), nil
	}
	defer s.pending.release(key)

	now := s.now()
	if !s.limiters.Allow(userID, now) {
		s.count(ctx, s.borrows, "rate_limited")
		span.SetAttributes(attribute.Bool("rate.limited", true))
		return entities.RejectBorrow(MsgRateLimited), nil
	}

	result, err := s.store.Borrow(ctx, entities.BorrowRequest{
		BookID:  bookID,
		UserID:  userID,
		DueDate: s.DueDate(now),
	})
	if s.recorder != nil {
		s.recorder.LogBorrow(userID, bookID, result, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "borrow failed")
		s.count(ctx, s.borrows, "error")
		return entities.BorrowResult{}, err
	}

	span.SetAttributes(attribute.Bool("borrow.success", result.Success))
	if result.Success {
		span.SetAttributes(attribute.Int64("loan.id", int64(result.LoanID)))
		s.count(ctx, s.borrows, "success")
	} else {
		s.count(ctx, s.borrows, "rejected")
	}
	return result, nil
}

// Return closes loanID on behalf of actorID (the administrator processing it).
func (s *Service) Return(ctx context.Context, actorID, loanID uint) (entities.ReturnResult, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.return",
		trace.WithAttributes(
			attribute.Int64("actor.id", int64(actorID)),
			attribute.Int64("loan.id", int64(loanID)),
		),
	)
	defer span.End()

	key := returnKey(loanID)
	if !s.pending.acquire(key) {
		s.count(ctx, s.returns, "in_progress")
		return entities.RejectReturn(MsgInProgress), nil
	}
	defer s.pending.release(key)

	result, err := s.store.Return(ctx, loanID)
	if s.recorder != nil {
		s.recorder.LogReturn(actorID, loanID, result, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "return failed")
		s.count(ctx, s.returns, "error")
		return entities.ReturnResult{}, err
	}

	span.SetAttributes(
		attribute.Bool("return.success", result.Success),
		attribute.Float64("return.fine", result.Fine),
	)
	if result.Success {
		s.count(ctx, s.returns, "success")
	} else {
		s.count(ctx, s.returns, "rejected")
	}
	return result, nil
}

// InFlight reports whether a borrow for this member and book is being processed.
func (s *Service) InFlight(userID, bookID uint) bool {
	return s.pending.busy(borrowKey(userID, bookID))
}

func (s *Service) count(ctx context.Context, counter metric.Int64Counter, outcome string) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
