package gaana

import (
	"context"
	"html"
	"strconv"
	"strings"
	"time"

	"gaanatag/pkg/text"
)

// albumFromPayload maps an album detail payload into an AlbumInfo,
// assigning track indices and per-medium totals along the way.
func (c *Client) albumFromPayload(ctx context.Context, p *albumPayload) *AlbumInfo {
	album := &AlbumInfo{
		Album:        html.UnescapeString(p.Title),
		AlbumID:      p.AlbumID.String(),
		Seokey:       p.Seokey,
		Artist:       p.Artists,
		ArtistID:     p.ArtistIDs,
		ArtistSeokey: p.ArtistSeokeys,
		Label:        p.Label,
		PlayCount:    text.ParseCount(p.PlayCount),
		FavCount:     p.FavoriteCount.Count(),
		DataSource:   SourceName,
	}

	album.Year, album.Month, album.Day = parseReleaseDate(p.ReleaseDate)

	if artURL := p.Images.URLs.LargeArtwork; c.isValidImageURL(ctx, artURL) {
		album.CoverArtURL = artURL
	}

	mediumTotals := make(map[int]int)
	for i := range p.Tracks {
		track := trackFromPayload(&p.Tracks[i])
		track.Index = i + 1
		if track.Medium < 1 {
			// The catalog rarely reports a medium; single disc assumed.
			track.Medium = 1
		}
		mediumTotals[track.Medium]++
		album.Tracks = append(album.Tracks, track)
	}

	for _, track := range album.Tracks {
		track.MediumTotal = mediumTotals[track.Medium]
		if track.Medium > album.Mediums {
			album.Mediums = track.Medium
		}
	}

	return album
}

// trackFromPayload maps a song payload into a TrackInfo. Index, Medium
// and MediumTotal are the album mapper's job; a standalone track keeps
// the payload's medium as-is.
func trackFromPayload(p *songPayload) *TrackInfo {
	track := &TrackInfo{
		Title:        html.UnescapeString(p.Title),
		TrackID:      p.TrackID.String(),
		Seokey:       p.Seokey,
		Artist:       p.Artists,
		Album:        html.UnescapeString(p.Album),
		ArtistID:     p.ArtistIDs,
		ArtistSeokey: p.ArtistSeokeys,
		Genres:       p.Genres,
		Medium:       p.Medium,
		Popularity:   parsePopularity(p.Popularity, p.PlayCount),
		FavCount:     p.FavoriteCount.Count(),
		DataSource:   SourceName,
		UpdatedAt:    time.Now(),
	}

	if d := strings.TrimSpace(p.Duration); d != "" {
		if secs, err := strconv.Atoi(d); err == nil && secs > 0 {
			track.Length = secs
		}
	}

	return track
}

// parseReleaseDate splits a "YYYY-MM-DD" date into its components.
// Anything other than exactly three numeric parts yields all zeros.
func parseReleaseDate(date string) (year, month, day int) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return 0, 0, 0
	}

	y, errY := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	d, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil {
		return 0, 0, 0
	}

	return y, m, d
}

// parsePopularity prefers the popularity field, whose integer part
// precedes a "~" separator, and falls back to the play count string.
func parsePopularity(popularity, playCount string) int {
	if popularity != "" {
		n, err := strconv.Atoi(strings.SplitN(popularity, "~", 2)[0])
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	if playCount != "" {
		return text.ParseCount(playCount)
	}
	return 0
}
