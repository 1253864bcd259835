package concept

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFetcher struct {
	terms map[int]source.Term
	err   error
	calls int
}

func (f *fakeFetcher) FetchTerm(_ context.Context, _ string, id int) (source.Term, error) {
	f.calls++
	if f.err != nil {
		return source.Term{}, f.err
	}
	t, ok := f.terms[id]
	if !ok {
		return source.Term{}, domain.ErrNotFound
	}
	return t, nil
}

func term(id int, name string, parent int) source.Term {
	return source.Term{ID: id, Name: source.Text(name), Parent: parent}
}

func TestNewIndex_EmptyTermsHoldsOnlyRoots(t *testing.T) {
	t.Parallel()

	idx := NewIndex(nil, nil, newTestLogger())

	assert.Equal(t, 2, idx.Len())
	law := idx.Root(USPrincipalLawRootID)
	assert.Equal(t, USRootLabel, law.PreferredLabel)
	assert.Equal(t, domain.ConceptTypeLaw, law.Type)
	assert.Equal(t, domain.RelationPrincipalLaw, law.Relation)

	juris := idx.Root(USJurisdictionRootID)
	assert.Equal(t, domain.ConceptTypeLegalEntity, juris.Type)
	assert.Equal(t, domain.RelationJurisdiction, juris.Relation)
	assert.Empty(t, juris.SubconceptOfLabels)
}

// cached reads the index without triggering a backfill.
func cached(idx *Index, id int) (domain.Concept, bool) {
	c, ok := idx.concepts[id]
	return c, ok
}

func TestNewIndex_TypesAndRelationsPerTaxonomy(t *testing.T) {
	t.Parallel()

	terms := map[string][]source.Term{
		source.TaxonomyCaseCategory:      {term(1, "Environmental", 0)},
		source.TaxonomyEntity:            {term(2, "Federal", 0)},
		source.TaxonomyPrincipalLaw:      {term(3, "Clean Air Act", 0)},
		source.TaxonomyJurisdiction:      {term(4, "Germany", 0)},
		source.TaxonomyNonUsPrincipalLaw: {term(5, "Basic Law", 0)},
		source.TaxonomyNonUsCaseCategory: {term(6, "Human Rights", 0)},
	}
	idx := NewIndex(terms, nil, newTestLogger())

	tests := []struct {
		id       int
		typ      domain.ConceptType
		relation domain.Relation
		labels   []string
	}{
		{1, domain.ConceptTypeLegalCategory, domain.RelationCategory, []string{}},
		{2, domain.ConceptTypeLegalEntity, domain.RelationJurisdiction, []string{USRootLabel}},
		{3, domain.ConceptTypeLaw, domain.RelationPrincipalLaw, []string{USRootLabel}},
		{4, domain.ConceptTypeLegalEntity, domain.RelationJurisdiction, []string{}},
		{5, domain.ConceptTypeLaw, domain.RelationPrincipalLaw, []string{}},
		{6, domain.ConceptTypeLegalCategory, domain.RelationCategory, []string{}},
	}
	for _, tt := range tests {
		c, ok := cached(idx, tt.id)
		require.True(t, ok, "concept %d", tt.id)
		assert.Equal(t, tt.typ, c.Type, "concept %d type", tt.id)
		assert.Equal(t, tt.relation, c.Relation, "concept %d relation", tt.id)
		assert.Equal(t, tt.labels, c.SubconceptOfLabels, "concept %d labels", tt.id)
	}
}

func TestResolve_OneHopOnly(t *testing.T) {
	t.Parallel()

	terms := map[string][]source.Term{
		source.TaxonomyNonUsCaseCategory: {
			term(10, "Grandparent", 0),
			term(11, "Parent", 10),
			term(12, "Child", 11),
		},
	}
	idx := NewIndex(terms, nil, newTestLogger())

	child, ok := cached(idx, 12)
	require.True(t, ok)
	assert.Equal(t, []string{"Parent"}, child.SubconceptOfLabels)
}

func TestResolve_MissingParentGivesNoLabels(t *testing.T) {
	t.Parallel()

	terms := map[string][]source.Term{
		source.TaxonomyJurisdiction: {term(20, "Bavaria", 999)},
	}
	idx := NewIndex(terms, nil, newTestLogger())

	c, ok := cached(idx, 20)
	require.True(t, ok)
	assert.Empty(t, c.SubconceptOfLabels)
	assert.False(t, idx.IsTopLevel(20))
}

func TestResolveOrFetch(t *testing.T) {
	t.Parallel()

	base := map[string][]source.Term{
		source.TaxonomyCaseCategory: {term(1, "Environmental", 0)},
	}

	t.Run("cache hit does not fetch", func(t *testing.T) {
		t.Parallel()
		f := &fakeFetcher{}
		idx := NewIndex(base, f, newTestLogger())

		c, ok := idx.ResolveOrFetch(context.Background(), 1, source.TaxonomyCaseCategory)
		require.True(t, ok)
		assert.Equal(t, "Environmental", c.PreferredLabel)
		assert.Zero(t, f.calls)
	})

	t.Run("miss is fetched and cached", func(t *testing.T) {
		t.Parallel()
		f := &fakeFetcher{terms: map[int]source.Term{2: term(2, "Climate", 1)}}
		idx := NewIndex(base, f, newTestLogger())

		c, ok := idx.ResolveOrFetch(context.Background(), 2, source.TaxonomyCaseCategory)
		require.True(t, ok)
		assert.Equal(t, []string{"Environmental"}, c.SubconceptOfLabels)
		assert.Equal(t, domain.RelationCategory, c.Relation)

		_, ok = idx.ResolveOrFetch(context.Background(), 2, source.TaxonomyCaseCategory)
		require.True(t, ok)
		assert.Equal(t, 1, f.calls)
	})

	t.Run("fetch error drops the reference", func(t *testing.T) {
		t.Parallel()
		f := &fakeFetcher{err: errors.New("boom")}
		idx := NewIndex(base, f, newTestLogger())

		_, ok := idx.ResolveOrFetch(context.Background(), 3, source.TaxonomyCaseCategory)
		assert.False(t, ok)
		_, ok = cached(idx, 3)
		assert.False(t, ok)
	})

	t.Run("nil fetcher reports a miss", func(t *testing.T) {
		t.Parallel()
		idx := NewIndex(base, nil, newTestLogger())

		_, ok := idx.ResolveOrFetch(context.Background(), 3, source.TaxonomyCaseCategory)
		assert.False(t, ok)
	})
}

func TestIsTopLevel(t *testing.T) {
	t.Parallel()

	terms := map[string][]source.Term{
		source.TaxonomyPrincipalLaw: {term(1, "Clean Air Act", 0), term(2, "Section 202", 1)},
	}
	idx := NewIndex(terms, nil, newTestLogger())

	assert.True(t, idx.IsTopLevel(1))
	assert.False(t, idx.IsTopLevel(2))
	assert.False(t, idx.IsTopLevel(404))
}

func TestAll_SortedByInternalID(t *testing.T) {
	t.Parallel()

	terms := map[string][]source.Term{
		source.TaxonomyCaseCategory: {term(9, "B", 0), term(3, "A", 0)},
	}
	idx := NewIndex(terms, nil, newTestLogger())

	all := idx.All()
	require.Len(t, all, 4)
	assert.Equal(t, []int{-2, -1, 3, 9}, []int{all[0].InternalID, all[1].InternalID, all[2].InternalID, all[3].InternalID})
}
