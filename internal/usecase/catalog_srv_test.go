package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"cinebook/internal/dto/request"
	"cinebook/pkg/omdb"
	"cinebook/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	byID map[string]*omdb.Metadata
	err  error
}

func (p stubProvider) Lookup(_ context.Context, externalID string) (*omdb.Metadata, error) {
	if p.err != nil {
		return nil, p.err
	}
	if md, ok := p.byID[externalID]; ok {
		return md, nil
	}
	return nil, utils.ErrNotFound
}

func strPtr(s string) *string { return &s }

func TestMovie_CreateAndDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Movie.CreateMovie(ctx, &request.MovieRequest{
		ExternalID:  "tt0111161",
		Title:       strPtr("The Shawshank Redemption"),
		Languages:   []string{"English"},
		PriceRange:  strPtr("200-400"),
		ReleaseDate: strPtr("1994-09-23"),
	})
	require.NoError(t, err)
	assert.Equal(t, "tt0111161", resp.ExternalID)

	_, err = f.svc.Movie.CreateMovie(ctx, &request.MovieRequest{ExternalID: "tt0111161"})
	assert.ErrorIs(t, err, utils.ErrDuplicate)
	msg, _ := utils.PublicMessage(err)
	assert.Equal(t, "Movie already exists", msg)

	_, err = f.svc.Movie.CreateMovie(ctx, &request.MovieRequest{ExternalID: "tt1", PriceRange: strPtr("400-200")})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.svc.Movie.CreateMovie(ctx, &request.MovieRequest{ExternalID: "0111161"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	list, err := f.svc.Movie.GetMovies(ctx, request.PaginatedRequest{Page: 1, PerPage: 10}, "English")
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Pagination.Total)

	list, err = f.svc.Movie.GetMovies(ctx, request.PaginatedRequest{Page: 1, PerPage: 10}, "Hindi")
	require.NoError(t, err)
	assert.Empty(t, list.Data)
}

func TestMovie_MetadataAttachment(t *testing.T) {
	provider := stubProvider{byID: map[string]*omdb.Metadata{
		"tt0816692": {ExternalID: "tt0816692", Title: "Interstellar", Director: "Christopher Nolan"},
	}}
	f := newFixture(t, WithMetadata(provider))
	ctx := context.Background()

	resp, err := f.svc.Movie.GetMovie(ctx, f.movie.ID.String())
	require.NoError(t, err)
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, "Christopher Nolan", resp.Metadata.Director)

	md, err := f.svc.Movie.LookupMetadata(ctx, "tt0816692")
	require.NoError(t, err)
	assert.Equal(t, "Interstellar", md.Title)

	_, err = f.svc.Movie.LookupMetadata(ctx, "tt9999999")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = f.svc.Movie.GetMovie(ctx, "tt9999999")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestMovie_ProviderFailureStillServesLocalRecord(t *testing.T) {
	f := newFixture(t, WithMetadata(stubProvider{err: errors.New("upstream timeout")}))

	resp, err := f.svc.Movie.GetMovie(context.Background(), f.movie.ExternalID)
	require.NoError(t, err)
	assert.Nil(t, resp.Metadata)
	assert.Equal(t, f.movie.ID.String(), resp.ID)
}

func TestMovie_UpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Movie.UpdateMovie(ctx, f.movie.ID.String(), &request.MovieUpdateRequest{Certificate: strPtr("UA")})
	require.NoError(t, err)
	require.NotNil(t, resp.Certificate)
	assert.Equal(t, "UA", *resp.Certificate)

	require.NoError(t, f.svc.Movie.DeleteMovie(ctx, f.movie.ID.String()))
	assert.ErrorIs(t, f.svc.Movie.DeleteMovie(ctx, f.movie.ID.String()), utils.ErrNotFound)
}

func TestTheatre_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Theatre.CreateTheatre(ctx, &request.TheatreRequest{
		Name:     " Nova ",
		Location: "Harbour",
		Screens:  []request.ScreenRequest{{ScreenNumber: 1, Capacity: 60}, {ScreenNumber: 2, Capacity: 120}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Nova", created.Name)
	assert.Len(t, created.Screens, 2)

	_, err = f.svc.Theatre.CreateTheatre(ctx, &request.TheatreRequest{
		Name:     "Twin",
		Location: "Harbour",
		Screens:  []request.ScreenRequest{{ScreenNumber: 1, Capacity: 60}, {ScreenNumber: 1, Capacity: 70}},
	})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.svc.Theatre.CreateTheatre(ctx, &request.TheatreRequest{
		Name:     "Huge",
		Location: "Harbour",
		Screens:  []request.ScreenRequest{{ScreenNumber: 1, Capacity: 400}},
	})
	assert.ErrorIs(t, err, utils.ErrValidation)

	updated, err := f.svc.Theatre.UpdateTheatre(ctx, created.ID, &request.TheatreRequest{
		Name:     "Nova",
		Location: "Harbour East",
		Screens:  []request.ScreenRequest{{ScreenNumber: 1, Capacity: 48}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Harbour East", updated.Location)

	list, err := f.svc.Theatre.ListTheatres(ctx, request.PaginatedRequest{Page: 1, PerPage: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Pagination.Total)
	assert.Equal(t, 2, list.Pagination.TotalPages)

	require.NoError(t, f.svc.Theatre.DeleteTheatre(ctx, created.ID))
	_, err = f.svc.Theatre.GetTheatre(ctx, created.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestReview_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Review.CreateReview(ctx, f.customer.ID, f.movie.ExternalID,
		&request.CreateReviewRequest{Rating: 4, Comment: "  Great score  "})
	require.NoError(t, err)
	assert.Equal(t, "Great score", created.Comment)
	assert.Equal(t, "ana", created.Username)
	f.notifier.AssertCalled(t, "ReviewPosted", anyCtx, reviewFor("Interstellar", 4))

	_, err = f.svc.Review.CreateReview(ctx, f.customer.ID, f.movie.ID.String(),
		&request.CreateReviewRequest{Rating: 2, Comment: "Changed my mind"})
	assert.ErrorIs(t, err, utils.ErrDuplicate)

	_, err = f.svc.Review.CreateReview(ctx, f.customer.ID, f.movie.ExternalID,
		&request.CreateReviewRequest{Rating: 6, Comment: "Off the scale"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	stranger := uuid.New()
	_, err = f.svc.Review.UpdateReview(ctx, stranger, false, created.ID, &request.UpdateReviewRequest{Rating: intPtr(1)})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	updated, err := f.svc.Review.UpdateReview(ctx, f.customer.ID, false, created.ID, &request.UpdateReviewRequest{Rating: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)

	helpful, err := f.svc.Review.MarkHelpful(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, helpful.Helpful)
	helpful, err = f.svc.Review.MarkHelpful(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, helpful.Helpful)

	_, err = f.svc.Review.MarkHelpful(ctx, uuid.NewString())
	assert.ErrorIs(t, err, utils.ErrNotFound)

	reviews, err := f.svc.Review.GetMovieReviews(ctx, f.movie.ExternalID, request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, reviews.Stats.ReviewCount)
	assert.Equal(t, 5.0, reviews.Stats.AverageRating)
	require.Len(t, reviews.Reviews.Data, 1)
	assert.Equal(t, "ana", reviews.Reviews.Data[0].Username)

	assert.ErrorIs(t, f.svc.Review.DeleteReview(ctx, stranger, false, created.ID), utils.ErrForbidden)
	require.NoError(t, f.svc.Review.DeleteReview(ctx, stranger, true, created.ID))

	mine, err := f.svc.Review.ListUserReviews(ctx, f.customer.ID, request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, mine.Data)
}

func intPtr(n int) *int { return &n }

func TestUpdateTheatre_KeepsBookedSeatsOnScreen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.theatre.ID.String()

	_, err := f.svc.Show.ReserveSeats(ctx, f.show.ID.String(), &request.ReserveSeatsRequest{Seats: []string{"G12"}})
	require.NoError(t, err)

	past := f.addShow(f.theatre, 2, fixtureNow.Add(-time.Hour))
	past.BookedSeats = []string{"B12"}

	screens := func(one, two int) []request.ScreenRequest {
		out := []request.ScreenRequest{}
		if one > 0 {
			out = append(out, request.ScreenRequest{ScreenNumber: 1, Capacity: one})
		}
		return append(out, request.ScreenRequest{ScreenNumber: 2, Capacity: two})
	}

	for _, tc := range []struct {
		name    string
		screens []request.ScreenRequest
		wantErr bool
	}{
		{"shrinking below a booked seat", screens(72, 24), true},
		{"dropping a booked screen", screens(0, 24), true},
		{"booked seat still on screen", screens(84, 24), false},
		{"only past shows booked", screens(84, 12), false},
		{"growing", screens(96, 12), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Theatre.UpdateTheatre(ctx, id, &request.TheatreRequest{
				Name:     "Orion",
				Location: "Downtown",
				Screens:  tc.screens,
			})
			if tc.wantErr {
				assert.ErrorIs(t, err, utils.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}

	stored, err := f.svc.Theatre.GetTheatre(ctx, id)
	require.NoError(t, err)
	assert.Len(t, stored.Screens, 2)
}
