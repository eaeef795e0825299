package catalog

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestRecommendRoundTrip(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, http.MethodPost, r.Method)
        require.Equal(t, "/recommend", r.URL.Path)

        var in struct {
            UserMovieIDs []string `json:"userMovieIds"`
        }
        require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
        assert.Equal(t, []string{"10", "20"}, in.UserMovieIDs)

        w.Header().Set("Content-Type", "application/json")
        _, _ = w.Write([]byte(`{"recommendedMovieIds":["30","not-a-number","40"]}`))
    }))
    defer srv.Close()

    r := NewRecommender(srv.URL)
    ids, err := r.Recommend(context.Background(), []uint64{10, 20})
    require.NoError(t, err)
    // Non-numeric IDs are skipped, ranking order is preserved.
    assert.Equal(t, []uint64{30, 40}, ids)
}

func TestRecommendDisabled(t *testing.T) {
    r := NewRecommender("")
    ids, err := r.Recommend(context.Background(), []uint64{1})
    require.NoError(t, err)
    assert.Nil(t, ids)
}

func TestRecommendServerError(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
        w.WriteHeader(http.StatusInternalServerError)
    }))
    defer srv.Close()

    r := NewRecommender(srv.URL)
    _, err := r.Recommend(context.Background(), []uint64{1})
    assert.Error(t, err)
}
