// Package mapper transforms a decoded WordPress snapshot into the bulk-import
// schema: collections, families, documents and events.
//
// The stages run strictly in that order against one RunContext. Each stage
// reads what earlier stages recorded (bundle descriptions, skipped families,
// skipped documents), so they must not be reordered or run concurrently.
// Per-record problems become domain.Failure values on the RunContext; a stage
// missing an entire input dataset logs and returns an empty result.
package mapper

import (
	"context"
	"html"
	"log/slog"
	"time"

	"github.com/heartmarshall/litigation-mapper/internal/concept"
	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/jurisdiction"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

// Mapper holds the lookup tables shared by the stages of one run.
type Mapper struct {
	log      *slog.Logger
	concepts *concept.Index
	registry *jurisdiction.Registry
}

// New creates a Mapper.
func New(log *slog.Logger, concepts *concept.Index, registry *jurisdiction.Registry) *Mapper {
	return &Mapper{
		log:      log.With(slog.String("component", "mapper")),
		concepts: concepts,
		registry: registry,
	}
}

// Wrangle runs the four stages in order and returns their combined output.
func (m *Mapper) Wrangle(ctx context.Context, snap *source.Snapshot, rc *RunContext) domain.Output {
	var out domain.Output

	m.phase(rc, "collections", func() int {
		out.Collections = m.MapCollections(snap.Bundles, rc)
		return len(out.Collections)
	})
	m.phase(rc, "families", func() int {
		out.Families = m.MapFamilies(ctx, snap, rc)
		return len(out.Families)
	})
	m.phase(rc, "documents", func() int {
		out.Documents = m.MapDocuments(snap, rc)
		return len(out.Documents)
	})
	m.phase(rc, "events", func() int {
		out.Events = m.MapEvents(snap, rc)
		return len(out.Events)
	})

	m.log.Info("mapping completed",
		slog.Int("collections", len(out.Collections)),
		slog.Int("families", len(out.Families)),
		slog.Int("documents", len(out.Documents)),
		slog.Int("events", len(out.Events)),
		slog.Int("failures", len(rc.Failures)),
		slog.Int("skipped_families", len(rc.SkippedFamilies)),
		slog.Int("skipped_documents", len(rc.SkippedDocuments)),
	)

	return out
}

func (m *Mapper) phase(rc *RunContext, name string, run func() int) {
	m.log.Info("starting phase", slog.String("phase", name))
	start := time.Now()
	before := len(rc.Failures)

	mapped := run()

	m.log.Info("phase completed",
		slog.String("phase", name),
		slog.Int("mapped", mapped),
		slog.Int("failures", len(rc.Failures)-before),
		slog.Duration("duration", time.Since(start)),
	)
	if len(rc.Failures) > before {
		m.log.Warn("some records were skipped, check the log", slog.String("phase", name))
	}
}

// TransformCase maps a single case and the bundles it references. Dataset
// completeness checks are not applied.
func (m *Mapper) TransformCase(ctx context.Context, snap *source.Snapshot, c source.Case, rc *RunContext) domain.Output {
	out := domain.Output{
		Collections: []domain.Collection{},
		Families:    []domain.Family{},
		Documents:   []domain.Document{},
		Events:      []domain.Event{},
	}
	if bundles := referencedBundles(snap.Bundles, c); len(bundles) > 0 {
		out.Collections = m.MapCollections(bundles, rc)
	}

	id, ok := m.admitCase(c, 0, rc)
	if !ok {
		return out
	}

	resolver := jurisdiction.NewResolver(snap.Jurisdictions, m.registry)
	if fam, ok := m.mapFamily(ctx, c, id, resolver, bundlesByID(snap.Bundles), rc); ok {
		out.Families = append(out.Families, fam)
	}
	if rc.FamilySkipped(id) {
		return out
	}

	urls := mediaURLs(snap.Media)
	out.Documents = m.mapCaseDocuments(c, id, urls, rc)
	out.Events = m.mapCaseEvents(c, id, urls, rc)
	return out
}

// unescape decodes HTML entities WordPress leaves in rendered titles.
func unescape(s string) string {
	return html.UnescapeString(s)
}
