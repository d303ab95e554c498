// package search locates and ranks audio source candidates for a track.
package search

import (
	"fmt"
	"strings"

	"github.com/hazelync/trackdown/internal/models"
)

// Queries builds the ordered query ladder for a descriptor, most specific
// first. The ladder broadens as it goes so that a strict artist+title search
// failing still leaves recall-oriented fallbacks. Output is deterministic
// and never exceeds nine entries.
func Queries(desc models.TrackDescriptor) []string {
	queries := []string{
		fmt.Sprintf("%s %s", desc.Artist, desc.Name),
		fmt.Sprintf("%s %s official audio", desc.Artist, desc.Name),
		fmt.Sprintf("%s %s", desc.Name, desc.Artist),
	}

	if desc.ISRC != "" {
		queries = append(queries, desc.ISRC)
	}

	queries = append(queries,
		fmt.Sprintf("%s %s lyrics", desc.Artist, desc.Name),
		fmt.Sprintf("%s audio", desc.Name),
	)

	if desc.Album != "" {
		queries = append(queries, fmt.Sprintf("%s %s", desc.Name, desc.Album))
	}

	queries = append(queries, fmt.Sprintf("%s full song", desc.Name))

	if first, ok := firstArtist(desc.Artist); ok {
		queries = append(queries, fmt.Sprintf("%s %s", first, desc.Name))
	}

	return queries
}

// firstArtist returns the first name of a comma-separated artist field,
// reporting whether the field actually held multiple names.
func firstArtist(artist string) (string, bool) {
	if !strings.Contains(artist, ",") {
		return "", false
	}
	first := strings.TrimSpace(strings.SplitN(artist, ",", 2)[0])
	if first == "" {
		return "", false
	}
	return first, true
}
