// Package gaana implements a metadata source for the Gaana music
// catalog. It translates free-text queries and catalog URLs into
// normalized album and track records via the catalog's search and
// detail endpoints.
package gaana

import (
	"encoding/json"
	"strings"
	"time"

	"gaanatag/pkg/text"
)

// SourceName identifies records produced by this metadata source.
const SourceName = "Gaana"

// AlbumInfo is a normalized album candidate for the tagging host.
//
// Year, Month and Day are either all set or all zero; a partial or
// missing release date leaves the whole triple at zero.
type AlbumInfo struct {
	Album        string       `json:"album"`
	AlbumID      string       `json:"album_id"`
	Seokey       string       `json:"seokey"`
	Artist       string       `json:"artist"`
	ArtistID     string       `json:"artist_id"`
	ArtistSeokey string       `json:"artist_seokey"`
	Year         int          `json:"year,omitempty"`
	Month        int          `json:"month,omitempty"`
	Day          int          `json:"day,omitempty"`
	Label        string       `json:"label,omitempty"`
	CoverArtURL  string       `json:"cover_art_url,omitempty"`
	PlayCount    int          `json:"play_count"`
	FavCount     int          `json:"fav_count"`
	Mediums      int          `json:"mediums"`
	Tracks       []*TrackInfo `json:"tracks"`
	DataSource   string       `json:"data_source"`
}

// TrackInfo is a normalized track candidate for the tagging host.
//
// Index, Medium and MediumTotal are assigned during album assembly and
// stay zero when the track is mapped standalone. Zero means "unknown"
// for Length and Popularity.
type TrackInfo struct {
	Title        string    `json:"title"`
	TrackID      string    `json:"track_id"`
	Seokey       string    `json:"seokey"`
	Artist       string    `json:"artist"`
	Album        string    `json:"album"`
	ArtistID     string    `json:"artist_id"`
	ArtistSeokey string    `json:"artist_seokey"`
	Genres       string    `json:"genres,omitempty"`
	Length       int       `json:"length,omitempty"`
	Popularity   int       `json:"popularity,omitempty"`
	FavCount     int       `json:"fav_count"`
	Index        int       `json:"index,omitempty"`
	Medium       int       `json:"medium,omitempty"`
	MediumTotal  int       `json:"medium_total,omitempty"`
	DataSource   string    `json:"data_source"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PlaylistSong is the simplified record produced by playlist import.
type PlaylistSong struct {
	Seokey string `json:"seokey"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// searchSummary is one element of a search endpoint response. Search
// results are summaries only; the seokey keys the follow-up detail fetch.
type searchSummary struct {
	Seokey string `json:"seokey"`
	Title  string `json:"title"`
}

// albumPayload is the first element of an album detail response.
type albumPayload struct {
	Title         string        `json:"title"`
	AlbumID       json.Number   `json:"album_id"`
	Seokey        string        `json:"seokey"`
	ReleaseDate   string        `json:"release_date"`
	Label         string        `json:"label"`
	Artists       string        `json:"artists"`
	ArtistSeokeys string        `json:"artist_seokeys"`
	ArtistIDs     string        `json:"artist_ids"`
	PlayCount     string        `json:"play_count"`
	FavoriteCount flexCount     `json:"favorite_count"`
	Images        artworkImages `json:"images"`
	Tracks        []songPayload `json:"tracks"`
}

type artworkImages struct {
	URLs struct {
		LargeArtwork string `json:"large_artwork"`
	} `json:"urls"`
}

// songPayload is the first element of a song detail response, and also
// the per-track element of an album payload and a playlist response.
type songPayload struct {
	Title         string      `json:"title"`
	TrackID       json.Number `json:"track_id"`
	Seokey        string      `json:"seokey"`
	Duration      string      `json:"duration"`
	Artists       string      `json:"artists"`
	Album         string      `json:"album"`
	ArtistIDs     string      `json:"artist_ids"`
	ArtistSeokeys string      `json:"artist_seokeys"`
	Genres        string      `json:"genres"`
	Popularity    string      `json:"popularity"`
	PlayCount     string      `json:"play_count"`
	FavoriteCount flexCount   `json:"favorite_count"`
	Medium        int         `json:"medium"`
}

// flexCount absorbs the catalog's habit of serving favorite counts
// either as a JSON number or as a human-readable string like "55K+".
type flexCount struct {
	intValue int
	isInt    bool
	raw      string
}

func (c *flexCount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*c = flexCount{}
		return nil
	}

	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*c = flexCount{raw: str}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	i, err := n.Int64()
	if err != nil {
		// Fractional numbers are not valid counts; fall back to 0.
		*c = flexCount{}
		return nil
	}
	*c = flexCount{intValue: int(i), isInt: true}
	return nil
}

// Count returns the integer value, parsing string forms through the
// human-readable count parser.
func (c flexCount) Count() int {
	if c.isInt {
		if c.intValue < 0 {
			return 0
		}
		return c.intValue
	}
	return text.ParseCount(c.raw)
}
