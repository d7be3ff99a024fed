package enrich

import (
	"context"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"mediadex/internal/tracks"
)

// Candidate kinds.
const (
	KindMovie = "movie"
	KindTV    = "tv"
)

// Candidate is a single search hit from a metadata service.
type Candidate struct {
	ID    int64
	Kind  string
	Title string
	Year  int
}

// Details is the enrichment payload for a chosen candidate.
type Details struct {
	ID       int64
	Title    string
	Year     int
	Genres   []string
	Cast     []string
	Director []string
	Writer   []string
}

// Lookup searches a metadata service and fetches candidate details.
type Lookup interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
	Details(ctx context.Context, candidate Candidate) (*Details, error)
}

// Choose picks the candidate to enrich from. A single candidate is used as is;
// with several, the first of the preferred kind wins.
func Choose(candidates []Candidate, preferred string) (Candidate, bool) {
	switch len(candidates) {
	case 0:
		return Candidate{}, false
	case 1:
		return candidates[0], true
	}
	for _, candidate := range candidates {
		if candidate.Kind == preferred {
			return candidate, true
		}
	}
	return Candidate{}, false
}

// Queries returns the lookup queries for a General track in priority order:
// movie_name, title, then the file name without extension and with dots
// turned into spaces. Duplicates and blanks are dropped.
func Queries(general tracks.Raw) []string {
	var out []string
	seen := make(map[string]struct{}, 3)
	add := func(value string) {
		value = normalizeQuery(value)
		if value == "" {
			return
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	if value, ok := general.String(tracks.KeyMovieName); ok {
		add(value)
	}
	if value, ok := general.String(tracks.KeyTitle); ok {
		add(value)
	}
	if value, ok := general.String(tracks.KeyFileName); ok {
		add(fileQuery(value, false))
	} else if value, ok := general.String(tracks.KeyCompleteName); ok {
		add(fileQuery(value, true))
	}
	return out
}

// fileQuery turns a file name into a search phrase. MediaInfo's file_name
// already lacks the extension; complete_name does not.
func fileQuery(name string, stripExt bool) string {
	base := filepath.Base(name)
	if stripExt {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.ReplaceAll(base, ".", " ")
}

func normalizeQuery(value string) string {
	value = norm.NFC.String(value)
	return strings.Join(strings.Fields(value), " ")
}
