package wire

import (
	"net/http"

	"cinebook/internal/adaptor"
	"cinebook/internal/data/repository"
	"cinebook/internal/usecase"
	"cinebook/pkg/middleware"
	"cinebook/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// guards are the route-level middlewares shared by every route table.
type guards struct {
	auth  func(http.Handler) http.Handler
	admin func(http.Handler) http.Handler
	limit func(http.Handler) http.Handler
}

// Wiring builds services, handlers and the router. rdb may be nil, which
// disables rate limiting.
func Wiring(repo *repository.Repository, config *utils.Config, rdb *redis.Client, logger *zap.Logger, opts ...usecase.Option) *App {
	service := usecase.NewService(repo, config, logger, opts...)
	handler := adaptor.NewHandler(service, logger)

	g := guards{
		auth:  middleware.AuthSession(config.JWT.Secret, repo.Session, logger),
		admin: middleware.Admin(repo.User, logger),
		limit: middleware.RateLimit(rdb, config.RateLimit, logger),
	}

	return &App{
		Router:  setupRouter(handler, g, config, logger),
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, g guards, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", map[string]string{"service": config.App.Name})
	})

	wireAuth(r, handler.Auth, g)
	wireUser(r, handler.User, g)
	wireMovie(r, handler.Movie, g)
	wireTheatre(r, handler.Theatre, g)
	wireShow(r, handler.Show, g)
	wireBooking(r, handler.Booking, g)
	wireReview(r, handler.Review, g)
	wireAnalytics(r, handler.Analytics, g)

	return r
}
