package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"cinebook/internal/data/entity"
	"cinebook/internal/data/repository"
	"cinebook/internal/dto/request"
	"cinebook/internal/dto/response"
	"cinebook/internal/notification"
	"cinebook/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewService interface {
	CreateReview(ctx context.Context, userID uuid.UUID, movieRef string, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	GetMovieReviews(ctx context.Context, movieRef string, page request.PaginatedRequest) (*response.MovieReviewsResponse, error)
	ListUserReviews(ctx context.Context, userID uuid.UUID, page request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
	UpdateReview(ctx context.Context, userID uuid.UUID, isAdmin bool, reviewID string, req *request.UpdateReviewRequest) (*response.ReviewResponse, error)
	DeleteReview(ctx context.Context, userID uuid.UUID, isAdmin bool, reviewID string) error
	MarkHelpful(ctx context.Context, reviewID string) (*response.HelpfulResponse, error)

	// Admin
	ListAllReviews(ctx context.Context, page request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
}

type reviewService struct {
	repo     *repository.Repository
	notifier notification.Notifier
	now      func() time.Time
	log      *zap.Logger
}

func NewReviewService(repo *repository.Repository, notifier notification.Notifier, now func() time.Time, log *zap.Logger) ReviewService {
	return &reviewService{
		repo:     repo,
		notifier: notifier,
		now:      now,
		log:      log.With(zap.String("service", "review")),
	}
}

var errAlreadyReviewed = utils.NewError(utils.ErrDuplicate, "You have already reviewed this movie")

func (s *reviewService) CreateReview(ctx context.Context, userID uuid.UUID, movieRef string, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, utils.Invalid("comment", "This field is required")
	}

	movie, err := resolveMovie(ctx, s.repo.Movie, movieRef)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.NewError(utils.ErrUnauthorized, "User no longer exists")
	}

	// The unique constraint still decides a race between two creates.
	existing, err := s.repo.Review.FindByUserAndMovie(ctx, userID, movie.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errAlreadyReviewed
	}

	now := s.now()
	review := &entity.Review{
		BaseNoDelete: entity.NewBaseNoDelete(now),
		UserID:       userID,
		MovieID:      movie.ID,
		Rating:       req.Rating,
		Comment:      comment,
	}

	if err := s.repo.Review.Create(ctx, review); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, errAlreadyReviewed
		}
		return nil, err
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("movie_id", movie.ID.String()),
		zap.Int("rating", review.Rating),
	)

	label := movie.ExternalID
	if movie.Title != nil && *movie.Title != "" {
		label = *movie.Title
	}
	notify(ctx, s.log, notification.TypeReviewPosted, func(ctx context.Context) error {
		return s.notifier.ReviewPosted(ctx, notification.ReviewPostedEvent{
			Email:      user.Email,
			Username:   user.Username,
			MovieLabel: label,
			Rating:     review.Rating,
		})
	})

	resp := response.ReviewToResponse(review, user.Username)
	return &resp, nil
}

// withUsernames resolves each distinct author once.
func (s *reviewService) withUsernames(ctx context.Context, reviews []*entity.Review) []response.ReviewResponse {
	names := make(map[uuid.UUID]string)
	out := make([]response.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		name, ok := names[r.UserID]
		if !ok {
			if u, err := s.repo.User.FindByID(ctx, r.UserID); err == nil && u != nil {
				name = u.Username
			}
			names[r.UserID] = name
		}
		out = append(out, response.ReviewToResponse(r, name))
	}
	return out
}

func (s *reviewService) GetMovieReviews(ctx context.Context, movieRef string, page request.PaginatedRequest) (*response.MovieReviewsResponse, error) {
	movie, err := resolveMovie(ctx, s.repo.Movie, movieRef)
	if err != nil {
		return nil, err
	}

	reviews, err := s.repo.Review.FindByMovieID(ctx, movie.ID, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	avg, count, err := s.repo.Review.GetMovieReviewStats(ctx, movie.ID)
	if err != nil {
		return nil, err
	}

	return &response.MovieReviewsResponse{
		Stats: response.MovieReviewStats{
			AverageRating: avg,
			ReviewCount:   count,
		},
		Reviews: response.NewPaginatedResponse(s.withUsernames(ctx, reviews), page.Page, page.Limit(), count),
	}, nil
}

func (s *reviewService) ListUserReviews(ctx context.Context, userID uuid.UUID, page request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	reviews, err := s.repo.Review.FindByUserID(ctx, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Review.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return response.NewPaginatedResponse(s.withUsernames(ctx, reviews), page.Page, page.Limit(), total), nil
}

func (s *reviewService) ListAllReviews(ctx context.Context, page request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	reviews, err := s.repo.Review.FindAll(ctx, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Review.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	return response.NewPaginatedResponse(s.withUsernames(ctx, reviews), page.Page, page.Limit(), total), nil
}

// owned loads a review the caller may modify.
func (s *reviewService) owned(ctx context.Context, userID uuid.UUID, isAdmin bool, reviewID string) (*entity.Review, error) {
	id, err := parseID("review", reviewID)
	if err != nil {
		return nil, err
	}
	review, err := s.repo.Review.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, utils.NewError(utils.ErrNotFound, "Review not found")
	}
	if !isAdmin && review.UserID != userID {
		return nil, utils.NewError(utils.ErrForbidden, "You can only modify your own reviews")
	}
	return review, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, userID uuid.UUID, isAdmin bool, reviewID string, req *request.UpdateReviewRequest) (*response.ReviewResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	review, err := s.owned(ctx, userID, isAdmin, reviewID)
	if err != nil {
		return nil, err
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		comment := strings.TrimSpace(*req.Comment)
		if comment == "" {
			return nil, utils.Invalid("comment", "This field is required")
		}
		review.Comment = comment
	}
	review.UpdatedAt = s.now()

	if err := s.repo.Review.Update(ctx, review); err != nil {
		return nil, err
	}

	resp := s.withUsernames(ctx, []*entity.Review{review})[0]
	return &resp, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, userID uuid.UUID, isAdmin bool, reviewID string) error {
	review, err := s.owned(ctx, userID, isAdmin, reviewID)
	if err != nil {
		return err
	}
	if err := s.repo.Review.Delete(ctx, review.ID); err != nil {
		return err
	}
	s.log.Info("Review deleted", zap.String("review_id", review.ID.String()))
	return nil
}

func (s *reviewService) MarkHelpful(ctx context.Context, reviewID string) (*response.HelpfulResponse, error) {
	id, err := parseID("review", reviewID)
	if err != nil {
		return nil, err
	}
	helpful, err := s.repo.Review.IncrementHelpful(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.NewError(utils.ErrNotFound, "Review not found")
		}
		return nil, err
	}
	return &response.HelpfulResponse{ReviewID: id.String(), Helpful: helpful}, nil
}
