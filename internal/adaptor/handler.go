package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"cinebook/internal/dto/request"
	"cinebook/internal/usecase"
	"cinebook/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Auth      *AuthHandler
	User      *UserHandler
	Movie     *MovieHandler
	Theatre   *TheatreHandler
	Show      *ShowHandler
	Booking   *BookingHandler
	Review    *ReviewHandler
	Analytics *AnalyticsHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(service.Auth, log),
		User:      NewUserHandler(service.User, log),
		Movie:     NewMovieHandler(service.Movie, log),
		Theatre:   NewTheatreHandler(service.Theatre, log),
		Show:      NewShowHandler(service.Show, log),
		Booking:   NewBookingHandler(service.Booking, log),
		Review:    NewReviewHandler(service.Review, log),
		Analytics: NewAnalyticsHandler(service.Analytics, log),
	}
}

const maxBodyBytes = 1 << 20

// decodeJSON writes a 400 and returns false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// currentUser writes a 401 and returns false when the request is anonymous.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
	}
	return userID, ok
}

func pageFrom(r *http.Request) request.PaginatedRequest {
	return request.PaginationFromQuery(r.URL.Query())
}

// writeServiceError maps the error taxonomy to HTTP statuses. Unknown errors
// are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	msg, public := utils.PublicMessage(err)
	message := func(fallback string) string {
		if public {
			return msg
		}
		return fallback
	}

	switch {
	case errors.Is(err, utils.ErrValidation):
		var fields map[string]string
		var verr *utils.ValidationError
		if errors.As(err, &verr) {
			fields = verr.Fields
		}
		log.Debug(operation+" rejected", zap.Error(err))
		utils.ResponseBadRequest(w, message("Validation failed"), fields)

	case errors.Is(err, utils.ErrNotFound):
		log.Debug(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, message("Resource not found"))

	case errors.Is(err, utils.ErrSeatConflict):
		log.Info(operation+" failed - seat conflict", zap.Error(err))
		utils.ResponseConflict(w, message("One or more seats already booked"))

	case errors.Is(err, utils.ErrShowExpired):
		utils.ResponseBadRequest(w, message("Cannot book tickets for past shows"), nil)

	case errors.Is(err, utils.ErrDuplicate):
		log.Debug(operation+" failed - duplicate", zap.Error(err))
		utils.ResponseBadRequest(w, message("Already exists"), nil)

	case errors.Is(err, utils.ErrUnauthorized):
		log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, message("Unauthorized"))

	case errors.Is(err, utils.ErrForbidden):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, message("Forbidden"))

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
