package catalog

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/gleamverse/readsync/internal/domain"
)

// searchIndex is an in-memory Bleve index over the catalog. The catalog
// is small and rebuilt wholesale on reload, so nothing is persisted.
type searchIndex struct {
	index bleve.Index
}

// bookDocument is the indexed shape of a book.
type bookDocument struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = false
	docMapping.AddFieldMappingsAt("title", titleField)

	authorField := bleve.NewTextFieldMapping()
	authorField.Analyzer = en.AnalyzerName
	authorField.Store = false
	docMapping.AddFieldMappingsAt("author", authorField)

	// Genre is an exact facet, not stemmed text.
	genreField := bleve.NewTextFieldMapping()
	genreField.Analyzer = keyword.Name
	genreField.Store = false
	docMapping.AddFieldMappingsAt("genre", genreField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func newSearchIndex(books []*domain.Book) (*searchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}

	batch := index.NewBatch()
	for _, b := range books {
		doc := bookDocument{
			Title:  b.Title,
			Author: b.Author,
			Genre:  b.Genre,
		}
		if err := batch.Index(b.ID, doc); err != nil {
			index.Close()
			return nil, err
		}
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return nil, err
	}

	return &searchIndex{index: index}, nil
}

// search returns up to limit book IDs ranked by relevance. An empty
// query matches nothing.
func (s *searchIndex) search(query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	// Match, fuzzy, and prefix queries combined so both typos and
	// partially typed words find results.
	titleMatch := bleve.NewMatchQuery(query)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	authorMatch := bleve.NewMatchQuery(query)
	authorMatch.SetField("author")
	authorMatch.SetBoost(2.0)

	anyMatch := bleve.NewMatchQuery(query)

	fuzzy := bleve.NewFuzzyQuery(query)
	fuzzy.SetFuzziness(1)

	disjunction := bleve.NewDisjunctionQuery(titleMatch, authorMatch, anyMatch, fuzzy)
	if len(query) >= 2 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(query))
		disjunction.AddQuery(prefix)
	}

	request := bleve.NewSearchRequestOptions(disjunction, limit, 0, false)
	result, err := s.index.Search(request)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func (s *searchIndex) close() {
	s.index.Close()
}
