package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mediadex/internal/classify"
	"mediadex/internal/enrich"
	"mediadex/internal/index"
	"mediadex/internal/logging"
	"mediadex/internal/records"
	"mediadex/internal/services"
	"mediadex/internal/tracks"
)

// builder is the per-kind specialization: it fills the kind payload of a
// record whose common fields are already set.
type builder interface {
	enrich(ctx context.Context, item *classify.Item, rec *records.Record, warn func(error))
}

// Reconciler reconciles classified items against the index.
type Reconciler struct {
	store  index.Store
	logger *slog.Logger
	song   builder
	screen builder
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLookup enables movie and show enrichment through lookup.
func WithLookup(lookup enrich.Lookup) Option {
	return func(r *Reconciler) {
		if lookup != nil {
			r.screen = &screenBuilder{lookup: lookup, logger: r.logger}
		}
	}
}

// WithTagReader enables embedded tag enrichment for songs.
func WithTagReader(reader enrich.TagReader) Option {
	return func(r *Reconciler) {
		if reader != nil {
			r.song = &songBuilder{tags: reader, logger: r.logger}
		}
	}
}

// New constructs a Reconciler over store. Without options no enrichment is
// performed.
func New(store index.Store, logger *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		logger: logging.NewComponentLogger(logger, "reconcile"),
	}
	r.song = &songBuilder{logger: r.logger}
	r.screen = &screenBuilder{logger: r.logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// KindFor maps an item's dex type onto a record kind. Movie-typed items whose
// file name carries a season marker become shows. ok is false for items that
// are not indexed.
func KindFor(item *classify.Item) (records.Kind, bool) {
	if !item.DexType().Indexable() {
		return "", false
	}
	if item.DexType() == classify.DexSong {
		return records.KindSong, true
	}
	if _, isEpisode := enrich.ParseEpisode(item.Filename()); isEpisode {
		return records.KindShow, true
	}
	return records.KindMovie, true
}

// Index resolves the stored entry for item and reconciles against it.
// Non-indexable items are skipped.
func (r *Reconciler) Index(ctx context.Context, item *classify.Item) (Result, error) {
	kind, ok := KindFor(item)
	logger := r.itemLogger(ctx, item)
	if !ok {
		logger.Info("item skipped",
			logging.Args(logging.DecisionAttrs("index", string(OutcomeSkipped), "dex type "+string(item.DexType())+" is not indexed")...)...,
		)
		return Result{Outcome: OutcomeSkipped}, nil
	}

	existing, err := r.Resolve(ctx, kind, item)
	if err != nil {
		result := Result{Outcome: OutcomeFailed, Kind: kind}
		if errors.Is(err, services.ErrDuplicateRecord) {
			result.Outcome = OutcomeConflict
		}
		logging.Diagnostic(ctx, logger, "resolve existing record", err)
		return result, err
	}
	return r.Reconcile(ctx, item, existing)
}

// Resolve returns the stored record of kind at the item's path: nil when there
// is none, a DuplicateRecordError when there are several.
func (r *Reconciler) Resolve(ctx context.Context, kind records.Kind, item *classify.Item) (*records.Record, error) {
	found, err := r.store.Query(ctx, kind, item.Dirname(), item.Filename())
	if err != nil {
		return nil, services.Storage("query", err)
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, &services.DuplicateRecordError{
			Kind:     string(kind),
			Dirname:  item.Dirname(),
			Filename: item.Filename(),
			Count:    len(found),
		}
	}
}

// Reconcile builds a record for item, enriches it and persists it unless it
// equals existing. A persist failure yields OutcomeFailed with a
// StorageUnavailableError.
func (r *Reconciler) Reconcile(ctx context.Context, item *classify.Item, existing *records.Record) (Result, error) {
	kind, ok := KindFor(item)
	if !ok {
		return Result{Outcome: OutcomeSkipped}, nil
	}
	logger := r.itemLogger(ctx, item)

	var warnings []error
	warn := func(err error) {
		warnings = append(warnings, err)
		if errors.Is(err, services.ErrFieldExtraction) {
			logging.Diagnostic(ctx, logger, "stream field skipped", err)
		}
	}

	rec := r.build(item, kind, warn)
	if kind == records.KindSong {
		r.song.enrich(ctx, item, rec, warn)
	} else {
		r.screen.enrich(ctx, item, rec, warn)
	}
	result := Result{Kind: kind, Record: rec, Warnings: warnings}

	if existing != nil {
		rec.ID = existing.ID
		if records.Equal(existing, rec) {
			result.Outcome = OutcomeUnchanged
			logger.Debug("record unchanged", logging.String("record_id", rec.ID))
			return result, nil
		}
	}

	if err := r.store.Save(ctx, rec); err != nil {
		err = services.Storage("save", err)
		result.Outcome = OutcomeFailed
		logging.Diagnostic(ctx, logger, "persist record", err)
		return result, err
	}

	result.Outcome = OutcomeInserted
	if existing != nil {
		result.Outcome = OutcomeUpdated
	}
	logger.Info(fmt.Sprintf("record %s", result.Outcome),
		logging.String("record_id", rec.ID),
		logging.Int("warnings", len(warnings)),
	)
	return result, nil
}

// build fills the fields every kind shares: path, size, streams and counts.
func (r *Reconciler) build(item *classify.Item, kind records.Kind, warn func(error)) *records.Record {
	rec := records.New(kind)
	rec.Dirname = item.Dirname()
	rec.Filename = item.Filename()
	if size, ok := item.Size(); ok {
		rec.Size = &size
	}

	extractor := tracks.Extractor{Issues: warn}
	rec.AudioStreams = tracks.Collect(extractor.Audio(item.Audio()))
	rec.VideoStreams = tracks.Collect(extractor.Video(item.Video()))
	rec.TextStreams = tracks.Collect(extractor.Text(item.Text()))
	rec.StreamCounts = tracks.Count(rec.AudioStreams, rec.VideoStreams, rec.TextStreams)
	return rec
}

func (r *Reconciler) itemLogger(ctx context.Context, item *classify.Item) *slog.Logger {
	logger := logging.WithContext(ctx, r.logger)
	if _, ok := services.PathFromContext(ctx); !ok {
		logger = logger.With(logging.String(logging.FieldPath, item.Path()))
	}
	return logger
}
