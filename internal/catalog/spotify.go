// Spotify implementation of [Catalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	pageLimit = 100
)

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	Tracks      albumTracksPage `json:"tracks"`
	URI         string          `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
	URI         string          `json:"uri"`
}

type playlistItem struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type playlistTracksPage struct {
	Items  []playlistItem `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

type albumTracksPage struct {
	Items  []SpotifyTrack `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

// SpotifyCatalog implements [Catalog] against the Spotify Web API using the
// client credentials grant. Resolving does not require user authorization.
type SpotifyCatalog struct {
	config     *clientcredentials.Config
	httpClient *http.Client
	baseURL    string
	retry      shared.RetryPolicy
}

// NewSpotifyCatalog creates a catalog client from application credentials.
func NewSpotifyCatalog(creds shared.SpotifyConfig) (*SpotifyCatalog, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	return &SpotifyCatalog{
		config: &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     spotifyTokenURL,
		},
		baseURL: spotifyBaseURL,
		retry:   shared.DefaultRetryPolicy(),
	}, nil
}

// Authenticate obtains an access token via the client credentials grant and
// installs a self-refreshing HTTP client.
func (s *SpotifyCatalog) Authenticate(ctx context.Context) error {
	if _, err := s.config.Token(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	s.httpClient = s.config.Client(ctx)
	return nil
}

// ResolveTrack resolves a track link or URI into a descriptor.
func (s *SpotifyCatalog) ResolveTrack(ctx context.Context, urlOrURI string) (models.TrackDescriptor, error) {
	kind, id, err := ParseResource(urlOrURI)
	if err != nil {
		return models.TrackDescriptor{}, err
	}
	if kind != "track" {
		return models.TrackDescriptor{}, fmt.Errorf("%w: expected a track link, got %s", shared.ErrInvalidInput, kind)
	}

	var track SpotifyTrack
	if err := s.doRequest(ctx, "/tracks/"+id, &track); err != nil {
		return models.TrackDescriptor{}, err
	}

	return descriptorFromTrack(track, track.Album), nil
}

// ResolveCollection resolves a playlist or album link into track descriptors.
func (s *SpotifyCatalog) ResolveCollection(ctx context.Context, urlOrURI string) ([]models.TrackDescriptor, error) {
	kind, id, err := ParseResource(urlOrURI)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "playlist":
		return s.playlistTracks(ctx, id)
	case "album":
		return s.albumTracks(ctx, id)
	case "track":
		desc, err := s.ResolveTrack(ctx, urlOrURI)
		if err != nil {
			return nil, err
		}
		return []models.TrackDescriptor{desc}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported resource %s", shared.ErrInvalidInput, kind)
	}
}

func (s *SpotifyCatalog) playlistTracks(ctx context.Context, id string) ([]models.TrackDescriptor, error) {
	var descriptors []models.TrackDescriptor
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", id, pageLimit, offset)

		var page playlistTracksPage
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track.ID == "" {
				continue
			}
			descriptors = append(descriptors, descriptorFromTrack(item.Track, item.Track.Album))
		}

		if page.Next == nil {
			break
		}
		offset += pageLimit
	}

	return descriptors, nil
}

func (s *SpotifyCatalog) albumTracks(ctx context.Context, id string) ([]models.TrackDescriptor, error) {
	var album SpotifyAlbum
	if err := s.doRequest(ctx, "/albums/"+id, &album); err != nil {
		return nil, err
	}

	var descriptors []models.TrackDescriptor
	for _, track := range album.Tracks.Items {
		descriptors = append(descriptors, descriptorFromTrack(track, album))
	}

	offset := len(album.Tracks.Items)
	next := album.Tracks.Next
	for next != nil {
		endpoint := fmt.Sprintf("/albums/%s/tracks?limit=%d&offset=%d", id, pageLimit, offset)

		var page albumTracksPage
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}
		for _, track := range page.Items {
			descriptors = append(descriptors, descriptorFromTrack(track, album))
		}

		offset += len(page.Items)
		next = page.Next
	}

	return descriptors, nil
}

// doRequest performs an authenticated GET against the Spotify API with retry
// on rate limiting and upstream failures.
func (s *SpotifyCatalog) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.httpClient == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	return s.retry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return shared.Retryable(fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if err := waitRetryAfter(ctx, resp.Header.Get("Retry-After")); err != nil {
				return err
			}
			return shared.Retryable(fmt.Errorf("%w: status %d", shared.ErrRateLimited, resp.StatusCode))
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: status %d for %s", shared.ErrTrackNotFound, resp.StatusCode, endpoint)
		case resp.StatusCode >= 500:
			return shared.Retryable(fmt.Errorf("%w: status %d", shared.ErrUpstreamUnavailable, resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	})
}

// waitRetryAfter honors the server's Retry-After hint, capped at 30 seconds.
func waitRetryAfter(ctx context.Context, header string) error {
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return nil
	}
	if secs > 30 {
		secs = 30
	}

	select {
	case <-time.After(time.Duration(secs) * time.Second):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func descriptorFromTrack(track SpotifyTrack, album SpotifyAlbum) models.TrackDescriptor {
	desc := models.TrackDescriptor{
		ID:          track.ID,
		Name:        track.Name,
		Album:       album.Name,
		ISRC:        track.ExternalIDs.ISRC,
		DurationMS:  track.DurationMS,
		ReleaseDate: album.ReleaseDate,
	}

	var names []string
	for _, artist := range track.Artists {
		names = append(names, artist.Name)
	}
	desc.Artist = strings.Join(names, ", ")

	if len(album.Images) > 0 {
		desc.AlbumArtURL = album.Images[0].URL
	}

	return desc
}

// ParseResource extracts the resource kind and id from a Spotify link or URI.
//
// Accepted forms:
//
//	spotify:track:4uLU6hMCjMI75M1A2tKUQC
//	https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc
//	https://open.spotify.com/intl-de/playlist/37i9dQZF1DXcBWIGoYBM5M
func ParseResource(urlOrURI string) (kind, id string, err error) {
	input := strings.TrimSpace(urlOrURI)
	if input == "" {
		return "", "", fmt.Errorf("%w: empty link", shared.ErrInvalidInput)
	}

	if strings.HasPrefix(input, "spotify:") {
		parts := strings.Split(input, ":")
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return "", "", fmt.Errorf("%w: malformed spotify URI %q", shared.ErrInvalidInput, input)
		}
		return parts[1], parts[2], nil
	}

	parsed, err := url.Parse(input)
	if err != nil || parsed.Host == "" {
		return "", "", fmt.Errorf("%w: not a spotify link or URI: %q", shared.ErrInvalidInput, input)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, segment := range segments {
		switch segment {
		case "track", "playlist", "album":
			if i+1 < len(segments) && segments[i+1] != "" {
				return segment, segments[i+1], nil
			}
		}
	}

	return "", "", fmt.Errorf("%w: no track, playlist, or album id in %q", shared.ErrInvalidInput, input)
}
