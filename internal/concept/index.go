// Package concept builds the taxonomy concept index used to tag families.
//
// Terms of the six concept taxonomies are mapped to ConceptWithParent values
// and resolved by a single lookup of their parent: SubconceptOfLabels carries
// the immediate parent's label only, never the full ancestor chain.
// Concepts missing from the initial snapshot are backfilled one at a time
// through a Fetcher.
package concept

import (
	"context"
	"log/slog"
	"sort"

	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

// Synthetic root concepts anchoring top-level US terms.
const (
	USPrincipalLawRootID = -1
	USJurisdictionRootID = -2
	USRootLabel          = "United States"
)

var taxonomyTypes = map[string]domain.ConceptType{
	source.TaxonomyCaseCategory:      domain.ConceptTypeLegalCategory,
	source.TaxonomyEntity:            domain.ConceptTypeLegalEntity,
	source.TaxonomyPrincipalLaw:      domain.ConceptTypeLaw,
	source.TaxonomyJurisdiction:      domain.ConceptTypeLegalEntity,
	source.TaxonomyNonUsPrincipalLaw: domain.ConceptTypeLaw,
	source.TaxonomyNonUsCaseCategory: domain.ConceptTypeLegalCategory,
}

var taxonomyRelations = map[string]domain.Relation{
	source.TaxonomyCaseCategory:      domain.RelationCategory,
	source.TaxonomyEntity:            domain.RelationJurisdiction,
	source.TaxonomyPrincipalLaw:      domain.RelationPrincipalLaw,
	source.TaxonomyJurisdiction:      domain.RelationJurisdiction,
	source.TaxonomyNonUsPrincipalLaw: domain.RelationPrincipalLaw,
	source.TaxonomyNonUsCaseCategory: domain.RelationCategory,
}

// usRootFor maps the US taxonomies whose top-level terms hang under a
// synthetic root to that root's id.
var usRootFor = map[string]int{
	source.TaxonomyPrincipalLaw: USPrincipalLawRootID,
	source.TaxonomyEntity:       USJurisdictionRootID,
}

// Fetcher retrieves a single taxonomy term missing from the snapshot.
// It returns domain.ErrNotFound when the term does not exist upstream.
type Fetcher interface {
	FetchTerm(ctx context.Context, taxonomy string, id int) (source.Term, error)
}

// Index is the run-scoped concept cache. It is not safe for concurrent use:
// mapping is sequential and backfills mutate the index in place.
type Index struct {
	withParent map[int]domain.ConceptWithParent
	concepts   map[int]domain.Concept
	fetcher    Fetcher
	log        *slog.Logger
}

// NewIndex builds the index from terms keyed by taxonomy. fetcher may be nil,
// in which case misses are never backfilled.
func NewIndex(terms map[string][]source.Term, fetcher Fetcher, log *slog.Logger) *Index {
	idx := &Index{
		withParent: make(map[int]domain.ConceptWithParent),
		concepts:   make(map[int]domain.Concept),
		fetcher:    fetcher,
		log:        log.With(slog.String("component", "concept")),
	}

	for _, root := range roots() {
		idx.withParent[root.InternalID] = root
	}
	for _, taxonomy := range source.Taxonomies {
		for _, term := range terms[taxonomy] {
			idx.withParent[term.ID] = WithParent(term, taxonomy)
		}
	}
	for id, cwp := range idx.withParent {
		idx.concepts[id] = Resolve(cwp, idx.withParent)
	}

	return idx
}

func roots() []domain.ConceptWithParent {
	return []domain.ConceptWithParent{
		{
			InternalID:     USPrincipalLawRootID,
			ID:             USRootLabel,
			Type:           domain.ConceptTypeLaw,
			PreferredLabel: USRootLabel,
			Relation:       domain.RelationPrincipalLaw,
		},
		{
			InternalID:     USJurisdictionRootID,
			ID:             USRootLabel,
			Type:           domain.ConceptTypeLegalEntity,
			PreferredLabel: USRootLabel,
			Relation:       domain.RelationJurisdiction,
		},
	}
}

// WithParent maps a raw term of the given taxonomy. A parent of 0 means no
// parent, except for top-level US principal law and entity terms, which are
// anchored under their synthetic root.
func WithParent(term source.Term, taxonomy string) domain.ConceptWithParent {
	cwp := domain.ConceptWithParent{
		InternalID:     term.ID,
		ID:             term.Name.String(),
		Type:           taxonomyTypes[taxonomy],
		PreferredLabel: term.Name.String(),
		Relation:       taxonomyRelations[taxonomy],
	}
	switch {
	case term.Parent != 0:
		parent := term.Parent
		cwp.ParentID = &parent
	case usRootFor[taxonomy] != 0:
		parent := usRootFor[taxonomy]
		cwp.ParentID = &parent
	}
	return cwp
}

// Resolve looks up the immediate parent of cwp in table. The lookup is one
// hop: grandparents are never consulted.
func Resolve(cwp domain.ConceptWithParent, table map[int]domain.ConceptWithParent) domain.Concept {
	c := domain.Concept{
		InternalID:         cwp.InternalID,
		ID:                 cwp.ID,
		Type:               cwp.Type,
		PreferredLabel:     cwp.PreferredLabel,
		IDs:                []string{},
		SubconceptOfLabels: []string{},
		Relation:           cwp.Relation,
	}
	if cwp.ParentID == nil {
		return c
	}
	if parent, ok := table[*cwp.ParentID]; ok {
		c.SubconceptOfLabels = []string{parent.PreferredLabel}
	}
	return c
}

// ResolveOrFetch returns the concept for id, fetching and caching the term
// when it is missing. A failed fetch is logged and reported as a miss.
func (idx *Index) ResolveOrFetch(ctx context.Context, id int, taxonomy string) (domain.Concept, bool) {
	if c, ok := idx.concepts[id]; ok {
		return c, true
	}
	if idx.fetcher == nil {
		idx.log.Warn("concept not found", slog.Int("concept_id", id), slog.String("taxonomy", taxonomy))
		return domain.Concept{}, false
	}

	term, err := idx.fetcher.FetchTerm(ctx, taxonomy, id)
	if err != nil {
		idx.log.Warn("concept backfill failed",
			slog.Int("concept_id", id),
			slog.String("taxonomy", taxonomy),
			slog.String("error", err.Error()),
		)
		return domain.Concept{}, false
	}

	cwp := WithParent(term, taxonomy)
	idx.withParent[term.ID] = cwp
	c := Resolve(cwp, idx.withParent)
	idx.concepts[term.ID] = c

	idx.log.Debug("concept backfilled", slog.Int("concept_id", term.ID), slog.String("taxonomy", taxonomy))
	return c, true
}

// IsTopLevel reports whether the concept's raw term had no parent of its own,
// including terms anchored under a synthetic root.
func (idx *Index) IsTopLevel(id int) bool {
	cwp, ok := idx.withParent[id]
	if !ok || cwp.ParentID == nil {
		return ok
	}
	return *cwp.ParentID < 0
}

// Root returns one of the synthetic root concepts.
func (idx *Index) Root(id int) domain.Concept {
	return idx.concepts[id]
}

// RootFor returns the synthetic root id anchoring taxonomy, or 0.
func RootFor(taxonomy string) int {
	return usRootFor[taxonomy]
}

// Len returns the number of concepts, synthetic roots included.
func (idx *Index) Len() int { return len(idx.concepts) }

// All returns every concept ordered by internal id.
func (idx *Index) All() []domain.Concept {
	out := make([]domain.Concept, 0, len(idx.concepts))
	for _, c := range idx.concepts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InternalID < out[j].InternalID })
	return out
}
