// Package catalog wraps the external movie-metadata API (TMDB-compatible).
// The catalog is assumed to be rate-limited and occasionally slow or
// failing; every call carries a timeout and callers treat failure as "no
// data" wherever a result is optional.  Only the first-time fetch of a
// movie that is about to be persisted surfaces the failure.
package catalog

import (
    "context"
    "fmt"
    "strconv"
    "sync"
    "time"

    "github.com/go-resty/resty/v2"

    "github.com/cinebook/cinebook/internal/model"
)

// Client is a thin HTTP client for the catalog API.  All requests are
// authenticated with the configured bearer token and bounded by a shared
// timeout.
type Client struct {
    http *resty.Client
}

// NewClient builds a catalog client for the given base URL and API token.
func NewClient(baseURL, apiKey string) *Client {
    return &Client{
        http: resty.New().
            SetBaseURL(baseURL).
            SetAuthToken(apiKey).
            SetTimeout(8 * time.Second),
    }
}

// MovieSummary is one entry of a paged catalog listing (now-playing,
// upcoming, search, discover).
type MovieSummary struct {
    ID           uint64  `json:"id"`
    Title        string  `json:"title"`
    Overview     string  `json:"overview"`
    PosterPath   string  `json:"poster_path"`
    BackdropPath string  `json:"backdrop_path"`
    ReleaseDate  string  `json:"release_date"`
    VoteAverage  float64 `json:"vote_average"`
}

// Video is a trailer or clip reference attached to a movie.
type Video struct {
    Key  string `json:"key"`
    Name string `json:"name"`
    Site string `json:"site"`
    Type string `json:"type"`
}

type page struct {
    Results []MovieSummary `json:"results"`
}

func (c *Client) list(ctx context.Context, path string, params map[string]string) ([]MovieSummary, error) {
    var out page
    req := c.http.R().SetContext(ctx).SetResult(&out)
    if len(params) > 0 {
        req.SetQueryParams(params)
    }
    resp, err := req.Get(path)
    if err != nil {
        return nil, err
    }
    if resp.IsError() {
        return nil, fmt.Errorf("catalog: %s returned %s", path, resp.Status())
    }
    return out.Results, nil
}

// NowPlaying returns the catalog's currently running movies.
func (c *Client) NowPlaying(ctx context.Context) ([]MovieSummary, error) {
    return c.list(ctx, "/movie/now_playing", nil)
}

// Upcoming returns the catalog's upcoming releases.
func (c *Client) Upcoming(ctx context.Context) ([]MovieSummary, error) {
    return c.list(ctx, "/movie/upcoming", nil)
}

// Search runs a free-text title search against the catalog.
func (c *Client) Search(ctx context.Context, query string) ([]MovieSummary, error) {
    return c.list(ctx, "/search/movie", map[string]string{"query": query})
}

// DiscoverByLanguage lists popular movies filtered by original language,
// sorted by popularity.
func (c *Client) DiscoverByLanguage(ctx context.Context, lang string) ([]MovieSummary, error) {
    return c.list(ctx, "/discover/movie", map[string]string{
        "with_original_language": lang,
        "sort_by":                "popularity.desc",
        "page":                   "1",
    })
}

// Videos returns the trailer/clip references for a movie.
func (c *Client) Videos(ctx context.Context, movieID uint64) ([]Video, error) {
    var out struct {
        Results []Video `json:"results"`
    }
    resp, err := c.http.R().
        SetContext(ctx).
        SetResult(&out).
        SetQueryParam("include_video_language", "en,null").
        Get("/movie/" + strconv.FormatUint(movieID, 10) + "/videos")
    if err != nil {
        return nil, err
    }
    if resp.IsError() {
        return nil, fmt.Errorf("catalog: videos returned %s", resp.Status())
    }
    return out.Results, nil
}

type movieDetails struct {
    ID           uint64        `json:"id"`
    Title        string        `json:"title"`
    Overview     string        `json:"overview"`
    PosterPath   string        `json:"poster_path"`
    BackdropPath string        `json:"backdrop_path"`
    Genres       []model.Genre `json:"genres"`
    ReleaseDate  string        `json:"release_date"`
    Runtime      uint32        `json:"runtime"`
    VoteAverage  float64       `json:"vote_average"`
}

type movieCredits struct {
    Cast []model.CastMember `json:"cast"`
}

// FetchMovie loads a movie's details and credits (concurrently, as the two
// endpoints are independent) and assembles the local Movie representation.
// Any failure aborts the whole fetch; the caller persists nothing.
func (c *Client) FetchMovie(ctx context.Context, movieID uint64) (*model.Movie, error) {
    id := strconv.FormatUint(movieID, 10)
    var (
        details movieDetails
        credits movieCredits
        detErr  error
        credErr error
        wg      sync.WaitGroup
    )
    wg.Add(2)
    go func() {
        defer wg.Done()
        resp, err := c.http.R().SetContext(ctx).SetResult(&details).Get("/movie/" + id)
        if err != nil {
            detErr = err
            return
        }
        if resp.IsError() {
            detErr = fmt.Errorf("catalog: details returned %s", resp.Status())
        }
    }()
    go func() {
        defer wg.Done()
        resp, err := c.http.R().SetContext(ctx).SetResult(&credits).Get("/movie/" + id + "/credits")
        if err != nil {
            credErr = err
            return
        }
        if resp.IsError() {
            credErr = fmt.Errorf("catalog: credits returned %s", resp.Status())
        }
    }()
    wg.Wait()
    if detErr != nil {
        return nil, detErr
    }
    if credErr != nil {
        return nil, credErr
    }
    m := &model.Movie{
        ID:             details.ID,
        Title:          details.Title,
        Overview:       details.Overview,
        PosterPath:     details.PosterPath,
        BackdropPath:   details.BackdropPath,
        Genres:         details.Genres,
        Casts:          credits.Cast,
        ReleaseDate:    details.ReleaseDate,
        RuntimeMinutes: details.Runtime,
        VoteAverage:    details.VoteAverage,
    }
    if m.Genres == nil {
        m.Genres = []model.Genre{}
    }
    if m.Casts == nil {
        m.Casts = []model.CastMember{}
    }
    return m, nil
}
