// Package omdb fetches movie metadata from the OMDb API, keyed by IMDb id.
package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cinebook/pkg/utils"

	"go.uber.org/zap"
)

// Metadata is the externally sourced part of a movie.
type Metadata struct {
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	Year       string `json:"year,omitempty"`
	Rated      string `json:"rated,omitempty"`
	Released   string `json:"released,omitempty"`
	Runtime    string `json:"runtime,omitempty"`
	Genre      string `json:"genre,omitempty"`
	Director   string `json:"director,omitempty"`
	Actors     string `json:"actors,omitempty"`
	Plot       string `json:"plot,omitempty"`
	Language   string `json:"language,omitempty"`
	Poster     string `json:"poster,omitempty"`
	IMDBRating string `json:"imdb_rating,omitempty"`
}

type apiResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Poster     string `json:"Poster"`
	IMDBRating string `json:"imdbRating"`
	IMDBID     string `json:"imdbID"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(config utils.OMDbConfig, log *zap.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With(zap.String("client", "omdb")),
	}
}

// Lookup fetches full metadata for externalID. Unknown ids return utils.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, externalID string) (*Metadata, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse omdb base url: %w", err)
	}
	q := u.Query()
	q.Set("apikey", c.apiKey)
	q.Set("i", externalID)
	q.Set("plot", "full")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build omdb request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("OMDb request failed", zap.String("external_id", externalID), zap.Error(err))
		return nil, fmt.Errorf("omdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("omdb returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read omdb response: %w", err)
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode omdb response: %w", err)
	}
	if out.Response != "True" {
		return nil, fmt.Errorf("movie %s: %s: %w", externalID, out.Error, utils.ErrNotFound)
	}

	return &Metadata{
		ExternalID: out.IMDBID,
		Title:      out.Title,
		Year:       out.Year,
		Rated:      out.Rated,
		Released:   out.Released,
		Runtime:    out.Runtime,
		Genre:      out.Genre,
		Director:   out.Director,
		Actors:     out.Actors,
		Plot:       out.Plot,
		Language:   out.Language,
		Poster:     out.Poster,
		IMDBRating: out.IMDBRating,
	}, nil
}
