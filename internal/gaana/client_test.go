package gaana

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gaanatag/internal/core"
)

// fakeCatalog serves a minimal catalog API for client tests.
type fakeCatalog struct {
	server   *httptest.Server
	requests atomic.Int64

	albumSearchBody    string
	albumSearchStatus  int
	albumDetails       map[string]string
	songSearchBody     string
	songDetails        map[string]string
	playlistDetails    map[string]string
	lastSearchQuery    string
	failAlbumDetailFor string
}

func newFakeCatalog() *fakeCatalog {
	f := &fakeCatalog{
		albumSearchStatus: http.StatusOK,
		albumDetails:      map[string]string{},
		songDetails:       map[string]string{},
		playlistDetails:   map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/albums/search", func(w http.ResponseWriter, r *http.Request) {
		f.lastSearchQuery = r.URL.Query().Get("query")
		if f.albumSearchStatus != http.StatusOK {
			w.WriteHeader(f.albumSearchStatus)
			return
		}
		_, _ = w.Write([]byte(f.albumSearchBody))
	})
	mux.HandleFunc("/albums/info", func(w http.ResponseWriter, r *http.Request) {
		seokey := r.URL.Query().Get("seokey")
		if seokey == f.failAlbumDetailFor {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, ok := f.albumDetails[seokey]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/songs/search", func(w http.ResponseWriter, r *http.Request) {
		f.lastSearchQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(f.songSearchBody))
	})
	mux.HandleFunc("/songs/info", func(w http.ResponseWriter, r *http.Request) {
		body, ok := f.songDetails[r.URL.Query().Get("seokey")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/playlists/info", func(w http.ResponseWriter, r *http.Request) {
		body, ok := f.playlistDetails[r.URL.Query().Get("seokey")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/artwork.png", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(pngBytes())
	})
	mux.HandleFunc("/artwork.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not an image</html>"))
	})

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	return f
}

func (f *fakeCatalog) client() *Client {
	return NewClient(&core.GaanaConfig{
		BaseURL:      f.server.URL,
		SourceWeight: 0.5,
	}, zap.NewNop())
}

func pngBytes() []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	return buf.Bytes()
}

const testSongJSON = `[{
	"title": "Come Together", "track_id": 1, "seokey": "come-together",
	"duration": "259", "artists": "The Beatles", "album": "Abbey Road",
	"artist_ids": "456", "artist_seokeys": "the-beatles",
	"genres": "Rock", "popularity": "5000~89", "favorite_count": 1200
}]`

func TestSearchAlbums(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	f.albumSearchBody = `[{"seokey": "abbey-road", "title": "Abbey Road"}]`
	f.albumDetails["abbey-road"] = `[{
		"title": "Abbey &quot;Road&quot;",
		"album_id": 123,
		"seokey": "abbey-road",
		"release_date": "1969-09-26",
		"label": "Apple Records",
		"artists": "The Beatles",
		"artist_seokeys": "the-beatles",
		"artist_ids": "456",
		"play_count": "1.2M+",
		"favorite_count": "55K+",
		"images": {"urls": {"large_artwork": "` + f.server.URL + `/artwork.png"}},
		"tracks": [
			{"title": "Come Together", "track_id": 1, "seokey": "come-together",
			 "duration": "259", "artists": "The Beatles", "album": "Abbey Road",
			 "popularity": "5000~89", "favorite_count": 1200}
		]
	}]`

	albums, err := f.client().SearchAlbums(context.Background(), "Abbey Road (disc 1)!!")
	require.NoError(t, err)
	require.Len(t, albums, 1)

	album := albums[0]
	assert.Equal(t, `Abbey "Road"`, album.Album)
	assert.Equal(t, "123", album.AlbumID)
	assert.Equal(t, "abbey-road", album.Seokey)
	assert.Equal(t, "The Beatles", album.Artist)
	assert.Equal(t, 1969, album.Year)
	assert.Equal(t, 9, album.Month)
	assert.Equal(t, 26, album.Day)
	assert.Equal(t, "Apple Records", album.Label)
	assert.Equal(t, 1200000, album.PlayCount)
	assert.Equal(t, 55000, album.FavCount)
	assert.Equal(t, f.server.URL+"/artwork.png", album.CoverArtURL)
	assert.Equal(t, SourceName, album.DataSource)

	require.Len(t, album.Tracks, 1)
	track := album.Tracks[0]
	assert.Equal(t, "Come Together", track.Title)
	assert.Equal(t, 1, track.Index)
	assert.Equal(t, 1, track.Medium)
	assert.Equal(t, 1, track.MediumTotal)
	assert.Equal(t, 259, track.Length)
	assert.Equal(t, 5000, track.Popularity)
	assert.Equal(t, 1200, track.FavCount)

	// The query goes out normalized and wrapped in quote characters.
	assert.Equal(t, `"Abbey Road"`, f.lastSearchQuery)
}

func TestSearchAlbumsSkipsFailingDetail(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	f.albumSearchBody = `[{"seokey": "bad"}, {"seokey": "good"}]`
	f.failAlbumDetailFor = "bad"
	f.albumDetails["good"] = `[{"title": "Good Album", "seokey": "good",
		"images": {"urls": {"large_artwork": ""}}, "tracks": []}]`

	albums, err := f.client().SearchAlbums(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "Good Album", albums[0].Album)
}

func TestSearchAlbumsServerError(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	f.albumSearchStatus = http.StatusInternalServerError

	_, err := f.client().SearchAlbums(context.Background(), "anything")
	require.Error(t, err)
}

func TestAlbumCandidatesNeverPropagatesFailure(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	f.albumSearchStatus = http.StatusInternalServerError

	albums := f.client().AlbumCandidates(context.Background(), "The Beatles", "Abbey Road", false)
	assert.Empty(t, albums)
}

func TestSearchTracks(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	f.songSearchBody = `[{"seokey": "come-together", "title": "Come Together"}]`
	f.songDetails["come-together"] = testSongJSON

	tracks, err := f.client().SearchTracks(context.Background(), "Come Together The Beatles")
	require.NoError(t, err)
	require.Len(t, tracks, 1)

	track := tracks[0]
	assert.Equal(t, "Come Together", track.Title)
	assert.Equal(t, "1", track.TrackID)
	assert.Equal(t, "Rock", track.Genres)
	assert.Equal(t, 259, track.Length)
	assert.Zero(t, track.Index, "standalone track should have no album-context index")
}

func TestAlbumForID(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	f.albumDetails["abbey-road"] = `[{"title": "Abbey Road", "seokey": "abbey-road",
		"images": {"urls": {"large_artwork": ""}}, "tracks": []}]`

	album := f.client().AlbumForID(context.Background(), "https://gaana.com/album/abbey-road")
	require.NotNil(t, album)
	assert.Equal(t, "Abbey Road", album.Album)
}

func TestAlbumForIDWithoutMarker(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	album := f.client().AlbumForID(context.Background(), "https://example.com/release/42")
	assert.Nil(t, album)
	assert.Zero(t, f.requests.Load(), "identifier without marker must not hit the network")
}

func TestTrackForID(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	f.songDetails["come-together"] = testSongJSON

	track := f.client().TrackForID(context.Background(), "https://gaana.com/song/come-together")
	require.NotNil(t, track)
	assert.Equal(t, "Come Together", track.Title)
}

func TestTrackForIDWithoutMarker(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	track := f.client().TrackForID(context.Background(), "https://gaana.com/album/not-a-song")
	assert.Nil(t, track)
	assert.Zero(t, f.requests.Load())
}

func TestTrackForIDLookupFailure(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	track := f.client().TrackForID(context.Background(), "https://gaana.com/song/missing")
	assert.Nil(t, track)
}

func TestImportPlaylist(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	f.playlistDetails["summer-mix"] = `[
		{"title": " Come &quot;Together&quot; ", "seokey": "come-together",
		 "artists": " The Beatles ", "album": " Abbey Road "},
		{"title": "Something", "seokey": "something",
		 "artists": "The Beatles", "album": "Abbey Road"}
	]`

	songs := f.client().ImportPlaylist(context.Background(), "https://gaana.com/playlist/summer-mix")
	require.Len(t, songs, 2)
	assert.Equal(t, `Come "Together"`, songs[0].Title)
	assert.Equal(t, "The Beatles", songs[0].Artist)
	assert.Equal(t, "Abbey Road", songs[0].Album)
	assert.Equal(t, "come-together", songs[0].Seokey)
}

func TestImportPlaylistInvalidURL(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	songs := f.client().ImportPlaylist(context.Background(), "https://gaana.com/album/abbey-road")
	assert.Empty(t, songs)
	assert.Zero(t, f.requests.Load())
}

func TestImportPlaylistFetchFailure(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	songs := f.client().ImportPlaylist(context.Background(), "https://gaana.com/playlist/missing")
	assert.Empty(t, songs)
}

func TestIsValidImageURL(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	c := f.client()
	ctx := context.Background()

	assert.True(t, c.isValidImageURL(ctx, f.server.URL+"/artwork.png"))
	assert.False(t, c.isValidImageURL(ctx, f.server.URL+"/artwork.html"))
	assert.False(t, c.isValidImageURL(ctx, f.server.URL+"/no-such-artwork"))
	assert.False(t, c.isValidImageURL(ctx, ""))
}

func TestSourceWeight(t *testing.T) {
	f := newFakeCatalog()
	defer f.server.Close()

	assert.Equal(t, 0.5, f.client().SourceWeight())
}
