package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var ErrBusy = errors.New("notification backlog full")

// Async hands deliveries to background goroutines so request handlers never
// wait on SMTP or the broker. At most limit deliveries run at once; beyond
// that new ones are dropped with ErrBusy.
type Async struct {
	next    Notifier
	timeout time.Duration
	log     *zap.Logger
	slots   *semaphore.Weighted
	wg      sync.WaitGroup
}

func NewAsync(next Notifier, limit int, timeout time.Duration, log *zap.Logger) *Async {
	if limit < 1 {
		limit = 1
	}
	return &Async{
		next:    next,
		timeout: timeout,
		log:     log.With(zap.String("notifier", "async")),
		slots:   semaphore.NewWeighted(int64(limit)),
	}
}

func (a *Async) BookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error {
	return a.dispatch(ctx, TypeBookingConfirmed, func(ctx context.Context) error {
		return a.next.BookingConfirmed(ctx, ev)
	})
}

func (a *Async) ReviewPosted(ctx context.Context, ev ReviewPostedEvent) error {
	return a.dispatch(ctx, TypeReviewPosted, func(ctx context.Context) error {
		return a.next.ReviewPosted(ctx, ev)
	})
}

func (a *Async) OTPIssued(ctx context.Context, ev OTPIssuedEvent) error {
	return a.dispatch(ctx, TypeOTPIssued, func(ctx context.Context) error {
		return a.next.OTPIssued(ctx, ev)
	})
}

func (a *Async) dispatch(ctx context.Context, kind string, send func(context.Context) error) error {
	if !a.slots.TryAcquire(1) {
		return ErrBusy
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.slots.Release(1)

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := send(ctx); err != nil {
			a.log.Warn("Notification failed", zap.String("notification", kind), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until in-flight deliveries finish or ctx ends.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
