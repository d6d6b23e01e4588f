package gaana

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"gaanatag/internal/core"
	"gaanatag/pkg/text"
)

// Endpoint paths relative to the configured base URL. Search endpoints
// return arrays of summaries; detail endpoints return arrays whose
// first element is the full record.
const (
	songSearchPath      = "/songs/search?query="
	albumSearchPath     = "/albums/search?limit=5&query="
	artistSearchPath    = "/artists/search?query="
	songDetailsPath     = "/songs/info?seokey="
	albumDetailsPath    = "/albums/info?seokey="
	artistDetailsPath   = "/artists/info?seokey="
	playlistDetailsPath = "/playlists/info?seokey="
)

// Catalog URL markers used by the identifier resolvers. The seokey is
// the final path segment of a canonical catalog URL.
const (
	albumURLMarker    = "gaana.com/album/"
	songURLMarker     = "gaana.com/song/"
	playlistURLMarker = "/playlist/"
)

// Client is the catalog lookup adapter. Operations are pure functions
// of their inputs plus network calls; there is no shared mutable state,
// so a Client is safe for concurrent use.
type Client struct {
	config *core.GaanaConfig
	logger *zap.Logger
	http   *http.Client
}

func NewClient(config *core.GaanaConfig, logger *zap.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
		http:   &http.Client{Timeout: config.Timeout},
	}
}

// SourceWeight returns the configured weight the host's candidate
// scoring applies to records from this source.
func (c *Client) SourceWeight() float64 {
	return c.config.SourceWeight
}

// AlbumCandidates returns album candidates matching release and artist.
// When the release looks like a compilation the artist is left out of
// the query. Failures are logged and yield an empty result.
func (c *Client) AlbumCandidates(ctx context.Context, artist, release string, vaLikely bool) []*AlbumInfo {
	query := release
	if !vaLikely {
		query = release + " " + artist
	}

	albums, err := c.SearchAlbums(ctx, query)
	if err != nil {
		c.logger.Debug("album search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return albums
}

// TrackCandidates returns track candidates matching title and artist.
// Failures are logged and yield an empty result.
func (c *Client) TrackCandidates(ctx context.Context, artist, title string) []*TrackInfo {
	query := title + " " + artist

	tracks, err := c.SearchTracks(ctx, query)
	if err != nil {
		c.logger.Debug("track search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return tracks
}

// SearchAlbums searches the catalog for albums matching query and
// fetches the full record for every result. A failing detail fetch is
// skipped with a warning rather than sinking the whole search.
func (c *Client) SearchAlbums(ctx context.Context, query string) ([]*AlbumInfo, error) {
	query = text.NormalizeQuery(query)
	c.logger.Debug("searching for albums", zap.String("query", query))

	var summaries []searchSummary
	if err := c.getJSON(ctx, c.searchURL(albumSearchPath, query), &summaries); err != nil {
		return nil, fmt.Errorf("album search: %w", err)
	}

	albums := make([]*AlbumInfo, 0, len(summaries))
	for i, summary := range summaries {
		album, err := c.AlbumBySeokey(ctx, summary.Seokey)
		if err != nil {
			c.logger.Warn("skipping album result",
				zap.String("seokey", summary.Seokey), zap.Error(err))
			continue
		}
		albums = append(albums, album)
		c.logger.Debug("processed album",
			zap.Int("n", i+1), zap.Int("total", len(summaries)),
			zap.String("title", album.Album))
	}
	return albums, nil
}

// SearchTracks searches the catalog for songs matching query and
// fetches the full record for every result.
func (c *Client) SearchTracks(ctx context.Context, query string) ([]*TrackInfo, error) {
	query = text.NormalizeQuery(query)
	c.logger.Debug("searching for tracks", zap.String("query", query))

	var summaries []searchSummary
	if err := c.getJSON(ctx, c.searchURL(songSearchPath, query), &summaries); err != nil {
		return nil, fmt.Errorf("track search: %w", err)
	}

	tracks := make([]*TrackInfo, 0, len(summaries))
	for i, summary := range summaries {
		track, err := c.TrackBySeokey(ctx, summary.Seokey)
		if err != nil {
			c.logger.Warn("skipping track result",
				zap.String("seokey", summary.Seokey), zap.Error(err))
			continue
		}
		tracks = append(tracks, track)
		c.logger.Debug("processed track",
			zap.Int("n", i+1), zap.Int("total", len(summaries)),
			zap.String("title", track.Title))
	}
	return tracks, nil
}

// AlbumBySeokey fetches and maps the full album record for a seokey.
func (c *Client) AlbumBySeokey(ctx context.Context, seokey string) (*AlbumInfo, error) {
	var payload []albumPayload
	detailURL := c.config.BaseURL + albumDetailsPath + url.QueryEscape(seokey)
	if err := c.getJSON(ctx, detailURL, &payload); err != nil {
		return nil, fmt.Errorf("album details for %q: %w", seokey, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty album detail response for %q", seokey)
	}
	return c.albumFromPayload(ctx, &payload[0]), nil
}

// TrackBySeokey fetches and maps the full song record for a seokey.
func (c *Client) TrackBySeokey(ctx context.Context, seokey string) (*TrackInfo, error) {
	var payload []songPayload
	detailURL := c.config.BaseURL + songDetailsPath + url.QueryEscape(seokey)
	if err := c.getJSON(ctx, detailURL, &payload); err != nil {
		return nil, fmt.Errorf("song details for %q: %w", seokey, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty song detail response for %q", seokey)
	}
	return trackFromPayload(&payload[0]), nil
}

// AlbumForID resolves a canonical catalog album URL to an AlbumInfo.
// URLs without the album marker are rejected without a network call.
// Returns nil when the album cannot be resolved.
func (c *Client) AlbumForID(ctx context.Context, releaseID string) *AlbumInfo {
	if !strings.Contains(releaseID, albumURLMarker) {
		return nil
	}
	c.logger.Debug("resolving album identifier", zap.String("id", releaseID))

	album, err := c.AlbumBySeokey(ctx, lastPathSegment(releaseID))
	if err != nil {
		c.logger.Debug("album identifier lookup failed",
			zap.String("id", releaseID), zap.Error(err))
		return nil
	}
	return album
}

// TrackForID resolves a canonical catalog song URL to a TrackInfo.
// URLs without the song marker are rejected without a network call.
// Returns nil when the track cannot be resolved.
func (c *Client) TrackForID(ctx context.Context, trackID string) *TrackInfo {
	if !strings.Contains(trackID, songURLMarker) {
		return nil
	}
	c.logger.Debug("resolving track identifier", zap.String("id", trackID))

	track, err := c.TrackBySeokey(ctx, lastPathSegment(trackID))
	if err != nil {
		c.logger.Debug("track identifier lookup failed",
			zap.String("id", trackID), zap.Error(err))
		return nil
	}
	return track
}

// ImportPlaylist fetches a catalog playlist and returns its songs as
// simplified title/artist/album records. Failures are logged and yield
// an empty result.
func (c *Client) ImportPlaylist(ctx context.Context, playlistURL string) []PlaylistSong {
	if !strings.Contains(playlistURL, playlistURLMarker) {
		c.logger.Error("invalid playlist URL", zap.String("url", playlistURL))
		return nil
	}

	var payload []songPayload
	detailURL := c.config.BaseURL + playlistDetailsPath + url.QueryEscape(lastPathSegment(playlistURL))
	if err := c.getJSON(ctx, detailURL, &payload); err != nil {
		c.logger.Error("failed to fetch playlist",
			zap.String("url", playlistURL), zap.Error(err))
		return nil
	}

	songs := make([]PlaylistSong, 0, len(payload))
	for i := range payload {
		p := &payload[i]
		songs = append(songs, PlaylistSong{
			Seokey: p.Seokey,
			Title:  strings.TrimSpace(html.UnescapeString(p.Title)),
			Artist: strings.TrimSpace(p.Artists),
			Album:  strings.TrimSpace(html.UnescapeString(p.Album)),
		})
	}
	return songs
}

// searchURL builds a search endpoint URL with the query wrapped in
// quote characters, which the catalog treats as a phrase match.
func (c *Client) searchURL(path, query string) string {
	return c.config.BaseURL + path + url.QueryEscape(`"`+query+`"`)
}

// getJSON issues a GET request and decodes the JSON response into dest.
func (c *Client) getJSON(ctx context.Context, requestURL string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}

// lastPathSegment extracts the seokey from a canonical catalog URL.
func lastPathSegment(rawURL string) string {
	parts := strings.Split(rawURL, "/")
	return parts[len(parts)-1]
}
