package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"mediadex/internal/classify"
	"mediadex/internal/enrich"
	"mediadex/internal/logging"
	"mediadex/internal/records"
	"mediadex/internal/services"
	"mediadex/internal/tracks"
)

type songBuilder struct {
	tags   enrich.TagReader
	logger *slog.Logger
}

func (b *songBuilder) enrich(ctx context.Context, item *classify.Item, rec *records.Record, warn func(error)) {
	if title, ok := item.General().String(tracks.KeyTitle); ok {
		rec.Title = title
	}
	if b.tags == nil {
		return
	}

	tags, err := b.tags.Read(item.Path())
	switch {
	case errors.Is(err, enrich.ErrNoTag):
		return
	case err != nil:
		if !errors.Is(err, services.ErrTagContainer) {
			err = &services.TagContainerError{Path: item.Path(), Err: err}
		}
		warn(err)
		logging.WarnWithContext(logging.WithContext(ctx, b.logger), "tag read failed", "tag_container",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "re-tag or remux the file"),
			logging.String(logging.FieldImpact, "song indexed without tag metadata"),
		)
		return
	}

	applyTags(rec, tags)
}

func applyTags(rec *records.Record, tags *enrich.Tags) {
	if tags.Title != "" {
		rec.Title = tags.Title
	}
	if tags.Year > 0 {
		rec.Year = tags.Year
	}
	if tags.Genre != "" {
		rec.Genre = []string{tags.Genre}
	}
	song := rec.SongInfo
	song.Artist = tags.Artist
	song.Album = tags.Album
	song.AlbumArtist = tags.AlbumArtist
	song.Composer = tags.Composer
	song.TrackNumber = tags.Track
	song.TrackTotal = tags.TrackTotal
	song.DiscNumber = tags.Disc
	song.Arranger = tags.Arranger
	song.BPM = tags.BPM
	song.Compilation = tags.Compilation
	song.Conductor = tags.Conductor
	song.Mood = tags.Mood
	song.Performer = tags.Performer
	if tags.IDs != (records.IDInfo{}) {
		ids := tags.IDs
		song.IDInfo = &ids
	}
}
