package enrich

import (
	"regexp"
	"strconv"
)

var (
	episodeSxxExx = regexp.MustCompile(`(?i)\bS(\d{1,2})[ ._-]?E(\d{1,3})\b`)
	episodeNxNN   = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{2,3})\b`)
	seasonWord    = regexp.MustCompile(`(?i)\bseason[ ._-]*(\d{1,2})\b`)
	episodeWord   = regexp.MustCompile(`(?i)\bepisode[ ._-]*(\d{1,3})\b`)
)

// Episode is the season/episode marker parsed from a file name.
type Episode struct {
	Season  int
	Episode int
}

// ParseEpisode detects TV markers such as "S01E02", "1x02" or "Season 2".
func ParseEpisode(name string) (Episode, bool) {
	if match := episodeSxxExx.FindStringSubmatch(name); len(match) == 3 {
		return Episode{Season: atoi(match[1]), Episode: atoi(match[2])}, true
	}
	if match := episodeNxNN.FindStringSubmatch(name); len(match) == 3 {
		return Episode{Season: atoi(match[1]), Episode: atoi(match[2])}, true
	}
	if match := seasonWord.FindStringSubmatch(name); len(match) == 2 {
		ep := Episode{Season: atoi(match[1])}
		if word := episodeWord.FindStringSubmatch(name); len(word) == 2 {
			ep.Episode = atoi(word[1])
		}
		return ep, true
	}
	return Episode{}, false
}

func atoi(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
