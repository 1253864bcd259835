package mapper

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/litigation-mapper/internal/concept"
	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/jurisdiction"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

// StatusPending is the status of US families without a dated outcome.
const StatusPending = "Status Pending"

// MapFamilies maps US and non-US cases to families. Every failed case is
// also added to rc.SkippedFamilies so later stages leave it out.
func (m *Mapper) MapFamilies(ctx context.Context, snap *source.Snapshot, rc *RunContext) []domain.Family {
	families := make([]domain.Family, 0, len(snap.UsCases)+len(snap.GlobalCases))

	if len(snap.GlobalCases) == 0 || len(snap.UsCases) == 0 {
		missing := "global"
		if len(snap.GlobalCases) > 0 {
			missing = "US"
		}
		m.log.Error("no cases found in the data, skipping family mapping", slog.String("dataset", missing))
		return families
	}
	if len(snap.Jurisdictions) == 0 {
		m.log.Error("no jurisdictions provided in the data, skipping family mapping")
		return families
	}

	resolver := jurisdiction.NewResolver(snap.Jurisdictions, m.registry)
	m.log.Debug("jurisdictions resolved", slog.Int("records", len(snap.Jurisdictions)), slog.Int("resolved", resolver.Len()))

	bundles := bundlesByID(snap.Bundles)
	for i, c := range snap.Cases() {
		// Indexes in failure reasons are positions within the case's own list.
		index := i
		if index >= len(snap.UsCases) {
			index -= len(snap.UsCases)
		}
		id, ok := m.admitCase(c, index, rc)
		if !ok {
			continue
		}
		if fam, ok := m.mapFamily(ctx, c, id, resolver, bundles, rc); ok {
			families = append(families, fam)
		}
	}

	return families
}

// admitCase validates the id and timestamp of a case and applies the
// incremental filter. Cases without modified_gmt fail and are skipped;
// unchanged cases are skipped silently.
func (m *Mapper) admitCase(c source.Case, index int, rc *RunContext) (int, bool) {
	if !c.CaseID().Valid {
		rc.FailAnonymous(domain.FailureKindCase, fmt.Sprintf("Does not contain a case id at index (%d).", index))
		return 0, false
	}
	id := c.CaseID().Value

	if c.ModifiedGMT().Blank() {
		rc.SkipFamily(id)
		rc.Fail(id, domain.FailureKindCase, "Does not contain a modified_gmt timestamp.")
		return 0, false
	}

	if rc.Incremental {
		modified, err := source.ParseModified(c.ModifiedGMT())
		if err != nil {
			rc.SkipFamily(id)
			rc.Fail(id, domain.FailureKindCase, fmt.Sprintf("Has an invalid modified_gmt timestamp (%s).", c.ModifiedGMT()))
			return 0, false
		}
		if !modified.After(rc.LastImportCutoff) {
			rc.SkipFamily(id)
			return 0, false
		}
	}

	return id, true
}

func (m *Mapper) mapFamily(
	ctx context.Context,
	c source.Case,
	id int,
	resolver *jurisdiction.Resolver,
	bundles map[int]*source.Bundle,
	rc *RunContext,
) (domain.Family, bool) {
	var (
		fam     domain.Family
		failure *domain.Failure
	)
	switch c := c.(type) {
	case *source.UsCase:
		fam, failure = m.mapUsFamily(ctx, c, id, resolver, bundles, rc)
	case *source.GlobalCase:
		fam, failure = m.mapGlobalFamily(ctx, c, id, resolver)
	default:
		f := domain.NewFailure(id, domain.FailureKindCase, fmt.Sprintf("Has an unsupported case type (%s)", c.Kind()))
		failure = &f
	}

	if failure != nil {
		rc.Failures = append(rc.Failures, *failure)
		rc.SkipFamily(id)
		return domain.Family{}, false
	}
	return fam, true
}

func (m *Mapper) mapUsFamily(
	ctx context.Context,
	c *source.UsCase,
	id int,
	resolver *jurisdiction.Resolver,
	bundles map[int]*source.Bundle,
	rc *RunContext,
) (domain.Family, *domain.Failure) {
	fail := func(reason string) (domain.Family, *domain.Failure) {
		f := domain.NewFailure(id, domain.FailureKindUsCase, reason)
		return domain.Family{}, &f
	}

	title := unescape(c.CaseTitle())
	refs := c.BundleIDs()
	state := strings.ToUpper(c.ACF.State.String())

	if verr := domain.RequireValues([]domain.KeyValue{
		{Key: "title", Value: title},
		{Key: "bundle_ids", Value: joinRefs(refs)},
		{Key: "ccl_state", Value: state},
	}); verr != nil {
		return fail(verr.MissingValuesReason())
	}

	bundleIDs := make([]int, 0, len(refs))
	for _, ref := range refs {
		if !ref.Valid {
			return fail("Does not have a valid case bundle")
		}
		if _, ok := rc.BundleDescriptions[ref.Value]; !ok {
			return fail("Does not have a valid case bundle")
		}
		bundleIDs = append(bundleIDs, ref.Value)
	}

	geographies := []string{jurisdiction.USAGeography}
	if state != jurisdiction.FederalStateCode {
		iso, ok := resolver.USStateISO(state)
		if !ok {
			return fail(fmt.Sprintf("Does not have a valid ccl state code (%s)", state))
		}
		geographies = append(geographies, iso)
	}

	docket := c.ACF.DocketNumber.String()
	if verr := domain.RequireValues([]domain.KeyValue{{Key: "docket_number", Value: docket}}); verr != nil {
		return fail(verr.MissingValuesReason())
	}

	// The summary comes from the first listed bundle only; upstream order
	// decides which one that is.
	summary := rc.BundleDescriptions[bundleIDs[0]]
	if source.Text(summary).Blank() {
		summary = " "
	}

	collections := make([]string, len(bundleIDs))
	for i, bid := range bundleIDs {
		collections[i] = domain.CollectionImportID(bid)
	}

	tagged := make([]source.Tagged, 0, len(bundleIDs)+1)
	for _, bid := range bundleIDs {
		if b, ok := bundles[bid]; ok {
			tagged = append(tagged, b)
		}
	}
	tagged = append(tagged, c)
	concepts := m.familyConcepts(ctx, tagged)

	return domain.Family{
		ImportID:    domain.FamilyImportID(id),
		Title:       title,
		Summary:     summary,
		Geographies: geographies,
		Metadata: domain.FamilyMetadata{
			OriginalCaseName:      []string{},
			ID:                    []string{strconv.Itoa(id)},
			Status:                []string{latestStatus(c.CaseDocuments())},
			CaseNumber:            []string{docket},
			CoreObject:            []string{},
			ConceptPreferredLabel: preferredLabels(concepts),
		},
		Category:    domain.FamilyCategory,
		Collections: collections,
		Concepts:    views(concepts),
	}, nil
}

func (m *Mapper) mapGlobalFamily(
	ctx context.Context,
	c *source.GlobalCase,
	id int,
	resolver *jurisdiction.Resolver,
) (domain.Family, *domain.Failure) {
	fail := func(reason string) (domain.Family, *domain.Failure) {
		f := domain.NewFailure(id, domain.FailureKindNonUsCase, reason)
		return domain.Family{}, &f
	}

	title := unescape(c.CaseTitle())
	summary := c.ACF.Summary.String()
	if verr := domain.RequireValues([]domain.KeyValue{
		{Key: "title", Value: title},
		{Key: "summary", Value: summary},
	}); verr != nil {
		return fail(verr.MissingValuesReason())
	}

	coreObject := c.ACF.CoreObject.String()
	status := c.ACF.Status.String()
	if verr := domain.RequireValues([]domain.KeyValue{
		{Key: "core_object", Value: coreObject},
		{Key: "status", Value: status},
	}); verr != nil {
		return fail(verr.MissingValuesReason())
	}

	concepts := m.familyConcepts(ctx, []source.Tagged{c})

	return domain.Family{
		ImportID:    domain.FamilyImportID(id),
		Title:       title,
		Summary:     summary,
		Geographies: resolver.ISOCodes(c.Jurisdiction, c.ACF.CaseCountry.String()),
		Metadata: domain.FamilyMetadata{
			OriginalCaseName:      optional(c.ACF.CaseName),
			ID:                    []string{strconv.Itoa(id)},
			Status:                []string{status},
			CaseNumber:            optional(c.ACF.ReporterInfo),
			CoreObject:            []string{coreObject},
			ConceptPreferredLabel: preferredLabels(concepts),
		},
		Category:    domain.FamilyCategory,
		Collections: []string{},
		Concepts:    views(concepts),
	}, nil
}

// familyConcepts collects the concepts of every tagged record in order,
// de-duplicated by internal id, followed by the synthetic US roots anchoring
// any top-level US principal law or entity concept among them.
func (m *Mapper) familyConcepts(ctx context.Context, tagged []source.Tagged) []domain.Concept {
	seen := make(map[int]struct{})
	var (
		out   []domain.Concept
		roots []int
	)
	for _, t := range tagged {
		for _, taxonomy := range source.Taxonomies {
			for _, cid := range t.TaxonomyIDs(taxonomy) {
				if _, dup := seen[cid]; dup {
					continue
				}
				c, ok := m.concepts.ResolveOrFetch(ctx, cid, taxonomy)
				if !ok {
					continue
				}
				seen[cid] = struct{}{}
				out = append(out, c)

				if root := concept.RootFor(taxonomy); root != 0 && m.concepts.IsTopLevel(cid) {
					roots = append(roots, root)
				}
			}
		}
	}

	for _, root := range []int{concept.USPrincipalLawRootID, concept.USJurisdictionRootID} {
		if _, dup := seen[root]; dup || !containsInt(roots, root) {
			continue
		}
		seen[root] = struct{}{}
		out = append(out, m.concepts.Root(root))
	}
	return out
}

// latestStatus returns the outcome of the document with the latest filing
// date. Undated documents sort earliest; the first document wins ties.
func latestStatus(docs []source.CaseDocument) string {
	if len(docs) == 0 {
		return StatusPending
	}

	var (
		latest   source.CaseDocument
		latestAt time.Time
	)
	for _, d := range docs {
		at, _ := source.ParseFilingDate(d.FilingDate())
		if latest == nil || at.After(latestAt) {
			latest, latestAt = d, at
		}
	}

	if outcome := latest.ActionTaken(); len(outcome) > 0 {
		return outcome[0]
	}
	return StatusPending
}

func joinRefs(refs []source.FlexInt) string {
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Raw != "" {
			parts = append(parts, r.Raw)
		}
	}
	return strings.Join(parts, ",")
}

func optional(t source.Text) []string {
	if t.Blank() {
		return []string{}
	}
	return []string{t.String()}
}

func preferredLabels(concepts []domain.Concept) []string {
	labels := make([]string, len(concepts))
	for i, c := range concepts {
		labels[i] = c.PreferredLabel
	}
	return labels
}

func views(concepts []domain.Concept) []domain.ConceptView {
	out := make([]domain.ConceptView, len(concepts))
	for i, c := range concepts {
		out[i] = c.View()
	}
	return out
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
