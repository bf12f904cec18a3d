package usecase

import (
	"context"
	"time"

	"cinebook/internal/data/repository"
	"cinebook/internal/notification"
	"cinebook/pkg/cache"
	"cinebook/pkg/omdb"
	"cinebook/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth      AuthService
	User      UserService
	Movie     MovieService
	Theatre   TheatreService
	Show      ShowService
	Booking   BookingService
	Review    ReviewService
	Analytics AnalyticsService
}

type options struct {
	metadata omdb.Provider
	cache    *cache.Cache
	notifier notification.Notifier
	now      func() time.Time
}

type Option func(*options)

// WithMetadata sets the external movie metadata source. Without it movies are
// served from local records only.
func WithMetadata(p omdb.Provider) Option {
	return func(o *options) { o.metadata = p }
}

func WithCache(c *cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

func WithNotifier(n notification.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func NewService(repo *repository.Repository, config *utils.Config, log *zap.Logger, opts ...Option) *Service {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = notification.NewMailNotifier(notification.NewLogMailer(log), config.App.Location(), log)
	}

	return &Service{
		Auth:      NewAuthService(repo, config, o.notifier, o.now, log),
		User:      NewUserService(repo, log),
		Movie:     NewMovieService(repo, o.metadata, o.now, log),
		Theatre:   NewTheatreService(repo, o.now, log),
		Show:      NewShowService(repo, config.App.Location(), o.now, log),
		Booking:   NewBookingService(repo, o.notifier, o.now, log),
		Review:    NewReviewService(repo, o.notifier, o.now, log),
		Analytics: NewAnalyticsService(repo, o.cache, log),
	}
}

const notifyTimeout = 10 * time.Second

// notify runs send detached from the request's cancellation and only logs a
// failure.
func notify(ctx context.Context, log *zap.Logger, kind string, send func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := send(ctx); err != nil {
		log.Warn("Notification failed", zap.String("notification", kind), zap.Error(err))
	}
}

func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return utils.NewValidationError(errs)
	}
	return nil
}
