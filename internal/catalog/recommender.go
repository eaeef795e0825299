package catalog

import (
    "context"
    "fmt"
    "strconv"
    "time"

    "github.com/go-resty/resty/v2"
)

// Recommender calls the external recommendation service.  The service is
// strictly best-effort: callers fall back to now-playing or active-show
// lists when it is unreachable, slow or returns nothing.
type Recommender struct {
    http *resty.Client
}

// NewRecommender builds a recommender client.  An empty base URL yields a
// nil client, which Recommend treats as "service disabled".
func NewRecommender(baseURL string) *Recommender {
    if baseURL == "" {
        return nil
    }
    return &Recommender{
        http: resty.New().SetBaseURL(baseURL).SetTimeout(5 * time.Second),
    }
}

// Recommend submits the user's favorite movie IDs and returns the
// recommended movie IDs in ranked order.  IDs the service returns in a
// non-numeric form are skipped.
func (r *Recommender) Recommend(ctx context.Context, favoriteIDs []uint64) ([]uint64, error) {
    if r == nil {
        return nil, nil
    }
    idStrs := make([]string, len(favoriteIDs))
    for i, id := range favoriteIDs {
        idStrs[i] = strconv.FormatUint(id, 10)
    }
    var out struct {
        RecommendedMovieIDs []string `json:"recommendedMovieIds"`
    }
    resp, err := r.http.R().
        SetContext(ctx).
        SetBody(map[string]any{"userMovieIds": idStrs}).
        SetResult(&out).
        Post("/recommend")
    if err != nil {
        return nil, err
    }
    if resp.IsError() {
        return nil, fmt.Errorf("recommender: returned %s", resp.Status())
    }
    ids := make([]uint64, 0, len(out.RecommendedMovieIDs))
    for _, s := range out.RecommendedMovieIDs {
        if id, err := strconv.ParseUint(s, 10, 64); err == nil {
            ids = append(ids, id)
        }
    }
    return ids, nil
}
