// package tag embeds ID3 metadata and cover art into downloaded artifacts.
package tag

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bogem/id3v2"
	"github.com/charmbracelet/log"
	"github.com/hazelync/trackdown/internal/models"
)

const artFetchTimeout = 20 * time.Second

// Tagger writes track metadata into an artifact's ID3 tag. Tagging is a
// best-effort enrichment step; callers log failures instead of failing the
// job that produced the artifact.
type Tagger struct {
	httpClient *http.Client
	logger     *log.Logger
}

// NewTagger creates a tagger that downloads cover art with the given client.
// A nil client falls back to http.DefaultClient.
func NewTagger(httpClient *http.Client, logger *log.Logger) *Tagger {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Tagger{httpClient: httpClient, logger: logger}
}

// Embed writes title, artist, album, and year frames plus cover art into the
// artifact at path. A failed art download skips the picture frame but still
// writes the text frames.
func (t *Tagger) Embed(ctx context.Context, path string, desc models.TrackDescriptor) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open artifact for tagging: %w", err)
	}
	defer tag.Close()

	tag.SetTitle(desc.Name)
	tag.SetArtist(desc.Artist)
	tag.SetAlbum(desc.Album)

	if year := releaseYear(desc.ReleaseDate); year != "" {
		tag.AddTextFrame("TYER", id3v2.EncodingUTF8, year)
	}

	if desc.AlbumArtURL != "" {
		if art, err := t.fetchArt(ctx, desc.AlbumArtURL); err != nil {
			t.logger.Warn("cover art download failed", "url", desc.AlbumArtURL, "error", err)
		} else {
			tag.DeleteFrames(tag.CommonID("Attached picture"))
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    "image/jpeg",
				PictureType: id3v2.PTFrontCover,
				Description: "Cover",
				Picture:     art,
			})
		}
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}
	return nil
}

func (t *Tagger) fetchArt(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, artFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// releaseYear extracts the year from a catalog release date, which may be a
// full date or just a year.
func releaseYear(releaseDate string) string {
	if len(releaseDate) >= 4 {
		return releaseDate[:4]
	}
	return ""
}
