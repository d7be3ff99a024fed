package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"

	"mediadex/internal/records"
)

const (
	fieldSource   = "source_json"
	facetFilename = "filenames"
)

// pathMatchLimit bounds hits loaded for an exact path lookup. Totals are still
// reported so duplicate detection sees the real count.
const pathMatchLimit = 64

// BleveStore keeps one bleve index per partition.
type BleveStore struct {
	mu      sync.Mutex
	indexes map[records.Kind]bleve.Index
}

// OpenBleve opens or creates <dir>/<partition>.bleve for every kind.
func OpenBleve(dir string) (*BleveStore, error) {
	store := &BleveStore{indexes: make(map[records.Kind]bleve.Index)}
	for _, kind := range records.Kinds() {
		path := filepath.Join(dir, kind.Partition()+".bleve")
		var (
			idx bleve.Index
			err error
		)
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			idx, err = bleve.New(path, newMapping())
		} else {
			idx, err = bleve.Open(path)
		}
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("open %s index: %w", kind.Partition(), err)
		}
		store.indexes[kind] = idx
	}
	return store, nil
}

// OpenBleveMem builds in-memory indexes, used by tests and dry runs.
func OpenBleveMem() (*BleveStore, error) {
	store := &BleveStore{indexes: make(map[records.Kind]bleve.Index)}
	for _, kind := range records.Kinds() {
		idx, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("create %s index: %w", kind.Partition(), err)
		}
		store.indexes[kind] = idx
	}
	return store, nil
}

func newMapping() mapping.IndexMapping {
	keyword := bleve.NewKeywordFieldMapping()

	text := bleve.NewTextFieldMapping()

	source := bleve.NewTextFieldMapping()
	source.Index = false
	source.Store = true
	source.IncludeInAll = false
	source.IncludeTermVectors = false
	source.DocValues = false

	doc := bleve.NewDocumentMapping()
	for _, field := range []string{"kind", "dirname", "filename", "genre", "mood"} {
		doc.AddFieldMappingsAt(field, keyword)
	}
	for _, field := range []string{"title", "artist", "album", "album_artist", "composer", "arranger", "conductor", "performer", "cast", "director", "writer"} {
		doc.AddFieldMappingsAt(field, text)
	}
	doc.AddFieldMappingsAt("year", bleve.NewNumericFieldMapping())
	doc.AddFieldMappingsAt(fieldSource, source)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

func (s *BleveStore) index(kind records.Kind) (bleve.Index, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[kind]
	if !ok {
		return nil, fmt.Errorf("%s index is closed", kind.Partition())
	}
	return idx, nil
}

// document flattens rec into the indexed fields plus the stored source.
func document(rec *records.Record) (map[string]any, error) {
	data, err := records.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("flatten record: %w", err)
	}
	for _, nested := range []string{"audio_streams", "video_streams", "text_streams", "stream_counts", "id_info"} {
		delete(doc, nested)
	}
	doc[fieldSource] = string(data)
	return doc, nil
}

func termQuery(field, term string) *bleveQuery.TermQuery {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	return q
}

func pathQuery(filter Filter) bleveQuery.Query {
	conjuncts := []bleveQuery.Query{termQuery("filename", filter.Filename)}
	if filter.Dirname != "" {
		conjuncts = append(conjuncts, termQuery("dirname", filter.Dirname))
	}
	return bleve.NewConjunctionQuery(conjuncts...)
}

var pathOrder = []string{"dirname", "filename", "_id"}

func (s *BleveStore) run(ctx context.Context, kind records.Kind, q bleveQuery.Query, size int, order []string) ([]*records.Record, uint64, error) {
	idx, err := s.index(kind)
	if err != nil {
		return nil, 0, err
	}
	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	req.Fields = []string{fieldSource}
	if len(order) > 0 {
		req.SortBy(order)
	}
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("search %s: %w", kind.Partition(), err)
	}
	out := make([]*records.Record, 0, len(res.Hits))
	for _, hit := range res.Hits {
		source, ok := hit.Fields[fieldSource].(string)
		if !ok {
			return nil, 0, fmt.Errorf("document %s has no stored source", hit.ID)
		}
		rec, err := records.Unmarshal(hit.ID, []byte(source))
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, res.Total, nil
}

func (s *BleveStore) Query(ctx context.Context, kind records.Kind, dirname, filename string) ([]*records.Record, error) {
	recs, total, err := s.run(ctx, kind, pathQuery(Filter{Dirname: dirname, Filename: filename}), pathMatchLimit, pathOrder)
	if err != nil {
		return nil, err
	}
	if total > uint64(len(recs)) {
		return nil, fmt.Errorf("path %s/%s matched %d documents, more than %d loaded", dirname, filename, total, len(recs))
	}
	return recs, nil
}

func (s *BleveStore) FindByFilename(ctx context.Context, kind records.Kind, filename string) ([]*records.Record, error) {
	q := pathQuery(Filter{Filename: filename})
	recs, total, err := s.run(ctx, kind, q, pathMatchLimit, pathOrder)
	if err != nil || total <= uint64(len(recs)) {
		return recs, err
	}
	// Common names like track01.flac can exceed the first page.
	recs, _, err = s.run(ctx, kind, q, int(total), pathOrder)
	return recs, err
}

func (s *BleveStore) Save(ctx context.Context, rec *records.Record) error {
	if rec == nil {
		return errors.New("save: record is nil")
	}
	idx, err := s.index(rec.Kind)
	if err != nil {
		return err
	}
	doc, err := document(rec)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	if err := idx.Index(id, doc); err != nil {
		return fmt.Errorf("index %s: %w", rec.Path(), err)
	}
	rec.ID = id
	return nil
}

func (s *BleveStore) Delete(ctx context.Context, kind records.Kind, filter Filter) (int, error) {
	if filter.Filename == "" {
		return 0, errors.New("delete: filename is required")
	}
	idx, err := s.index(kind)
	if err != nil {
		return 0, err
	}
	count, err := idx.SearchInContext(ctx, bleve.NewSearchRequestOptions(pathQuery(filter), 0, 0, false))
	if err != nil {
		return 0, fmt.Errorf("search %s: %w", kind.Partition(), err)
	}
	if count.Total == 0 {
		return 0, nil
	}
	res, err := idx.SearchInContext(ctx, bleve.NewSearchRequestOptions(pathQuery(filter), int(count.Total), 0, false))
	if err != nil {
		return 0, fmt.Errorf("search %s: %w", kind.Partition(), err)
	}
	batch := idx.NewBatch()
	for _, hit := range res.Hits {
		batch.Delete(hit.ID)
	}
	if err := idx.Batch(batch); err != nil {
		return 0, fmt.Errorf("delete from %s: %w", kind.Partition(), err)
	}
	return len(res.Hits), nil
}

func (s *BleveStore) DistinctFilenames(ctx context.Context, kind records.Kind, limit int) ([]string, error) {
	idx, err := s.index(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), 0, 0, false)
	req.AddFacet(facetFilename, bleve.NewFacetRequest("filename", limit))
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("facet %s: %w", kind.Partition(), err)
	}
	facet, ok := res.Facets[facetFilename]
	if !ok || facet == nil || facet.Terms == nil {
		return nil, nil
	}
	terms := facet.Terms.Terms()
	names := make([]string, 0, len(terms))
	for _, term := range terms {
		names = append(names, term.Term)
	}
	return names, nil
}

func (s *BleveStore) Search(ctx context.Context, kind records.Kind, text string, limit int) ([]*records.Record, error) {
	var q bleveQuery.Query = bleve.NewMatchAllQuery()
	if text != "" {
		q = bleve.NewQueryStringQuery(text)
	}
	if limit <= 0 {
		limit = 50
	}
	recs, _, err := s.run(ctx, kind, q, limit, nil)
	return recs, err
}

func (s *BleveStore) Count(_ context.Context, kind records.Kind) (int, error) {
	idx, err := s.index(kind)
	if err != nil {
		return 0, err
	}
	n, err := idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", kind.Partition(), err)
	}
	return int(n), nil
}

func (s *BleveStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for kind, idx := range s.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s index: %w", kind.Partition(), err))
		}
		delete(s.indexes, kind)
	}
	return errors.Join(errs...)
}
