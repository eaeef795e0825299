package model

import "time"

// Genre is a single catalog genre entry.  The external catalog identifies
// genres by small numeric IDs; order is preserved as delivered.
type Genre struct {
    ID   int64  `json:"id"`
    Name string `json:"name"`
}

// CastMember is one credited cast entry for a movie.  Only the fields the
// front end renders are retained from the catalog credits payload.
type CastMember struct {
    Name        string `json:"name"`
    ProfilePath string `json:"profile_path"`
}

// Movie is the locally cached copy of an external catalog record.  The
// catalog identifier is reused as the primary key.  A movie is created
// lazily on first reference (show creation or favoriting) and is effectively
// write-once thereafter.
//
// Fields:
//  ID             – external catalog identifier, primary key.
//  Title          – display title.
//  Overview       – synopsis text.
//  PosterPath     – catalog-relative poster image path.
//  BackdropPath   – catalog-relative backdrop image path.
//  Genres         – ordered genre list, stored as JSON.
//  Casts          – ordered cast list, stored as JSON.
//  ReleaseDate    – release date as delivered by the catalog (YYYY-MM-DD).
//  RuntimeMinutes – runtime in minutes.
//  VoteAverage    – catalog rating average.
//  CreatedAt      – when the local copy was cached.
type Movie struct {
    ID             uint64       `json:"id"`
    Title          string       `json:"title"`
    Overview       string       `json:"overview"`
    PosterPath     string       `json:"poster_path"`
    BackdropPath   string       `json:"backdrop_path"`
    Genres         []Genre      `json:"genres"`
    Casts          []CastMember `json:"casts"`
    ReleaseDate    string       `json:"release_date"`
    RuntimeMinutes uint32       `json:"runtime_minutes"`
    VoteAverage    float64      `json:"vote_average"`
    CreatedAt      time.Time    `json:"created_at"`
}
