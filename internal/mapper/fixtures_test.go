package mapper

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/heartmarshall/litigation-mapper/internal/concept"
	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/jurisdiction"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

const testModified = "2025-03-01T10:00:00"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry() *jurisdiction.Registry {
	return jurisdiction.NewRegistry([]jurisdiction.Country{
		{
			Alpha2: "US", Alpha3: "USA",
			Names: []string{"United States", "United States of America"},
			Subdivisions: []jurisdiction.Subdivision{
				{Name: "California", Code: "US-CA"},
				{Name: "New York", Code: "US-NY"},
			},
		},
		{
			Alpha2: "BR", Alpha3: "BRA",
			Names: []string{"Brazil", "Federative Republic of Brazil"},
			Subdivisions: []jurisdiction.Subdivision{
				{Name: "Pará", Code: "BR-PA"},
			},
		},
		{Alpha2: "DE", Alpha3: "DEU", Names: []string{"Germany"}},
	})
}

func testTerms() map[string][]source.Term {
	return map[string][]source.Term{
		source.TaxonomyCaseCategory: {
			{ID: 11, Name: "Climate Damages", Parent: 0},
			{ID: 12, Name: "Public Nuisance", Parent: 11},
		},
		source.TaxonomyPrincipalLaw: {
			{ID: 21, Name: "Clean Air Act", Parent: 0},
			{ID: 22, Name: "Section 111", Parent: 21},
		},
		source.TaxonomyEntity: {
			{ID: 31, Name: "Federal Agency", Parent: 0},
		},
		source.TaxonomyJurisdiction: {
			{ID: 41, Name: "Brazil", Parent: 0},
			{ID: 42, Name: "Pará", Parent: 41},
		},
		source.TaxonomyNonUsPrincipalLaw: {
			{ID: 51, Name: "Constitution", Parent: 0},
		},
		source.TaxonomyNonUsCaseCategory: {
			{ID: 61, Name: "Human Rights", Parent: 0},
		},
	}
}

func testJurisdictions() []source.Jurisdiction {
	return []source.Jurisdiction{
		{ID: 41, Name: "Brazil", Parent: 0},
		{ID: 42, Name: "Pará", Parent: 41},
		{ID: 43, Name: "International", Parent: 0},
	}
}

// stubFetcher serves backfill requests from a fixed set of terms.
type stubFetcher struct {
	terms map[int]source.Term
	calls []int
}

func (f *stubFetcher) FetchTerm(_ context.Context, _ string, id int) (source.Term, error) {
	f.calls = append(f.calls, id)
	if t, ok := f.terms[id]; ok {
		return t, nil
	}
	return source.Term{}, domain.ErrNotFound
}

func newTestMapper(t *testing.T, fetcher concept.Fetcher) *Mapper {
	t.Helper()
	log := testLogger()
	return New(log, concept.NewIndex(testTerms(), fetcher, log), testRegistry())
}

func newTestContext() *RunContext {
	return NewRunContext(Options{Now: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)})
}

func rendered(s string) source.Rendered { return source.Rendered{Rendered: source.Text(s)} }

func ids(vs ...int) source.List[source.FlexInt] {
	out := make(source.List[source.FlexInt], len(vs))
	for i, v := range vs {
		out[i] = source.Int(v)
	}
	return out
}

func testBundle(id int) source.Bundle {
	return source.Bundle{
		ID:           source.Int(id),
		Title:        rendered("Youth Climate Suits &amp; Appeals"),
		Modified:     testModified,
		ACF:          source.BundleFields{CoreObject: "Suits brought by young plaintiffs."},
		CaseCategory: source.List[int]{11},
		PrincipalLaw: source.List[int]{21},
	}
}

func testUsCase(id int) source.UsCase {
	return source.UsCase{
		ID:       source.Int(id),
		Type:     "case",
		Modified: testModified,
		Title:    rendered("Juliana v. United States"),
		ACF: source.UsCaseFields{
			CaseBundle:          ids(10),
			State:               "CA",
			DocketNumber:        "6:15-cv-01517",
			FilingYearForAction: "2015",
			Documents: source.List[source.UsDocument]{
				{TypeName: "Complaint", Filed: "20150812", File: source.Int(200), Title: "First Amended Complaint", Summary: "Plaintiffs file.", Outcome: "Filed"},
				{TypeName: "Order", Filed: "20200117", File: source.Int(100), Summary: "Court dismissed.", Outcome: "Dismissed"},
			},
		},
		CaseCategory: source.List[int]{12},
		Entity:       source.List[int]{31},
		PrincipalLaw: source.List[int]{22},
	}
}

func testGlobalCase(id int) source.GlobalCase {
	return source.GlobalCase{
		ID:       source.Int(id),
		Type:     "non_us_case",
		Modified: testModified,
		Title:    rendered("Instituto Arayara v. Brazil"),
		ACF: source.GlobalCaseFields{
			CaseName:     "Instituto Internacional Arayara v. União",
			Summary:      "Challenge to coal plant licensing.",
			ReporterInfo: "",
			Status:       "Pending",
			CoreObject:   "Coal plant licence",
			CaseCountry:  "BR",
			Documents: source.List[source.GlobalDocument]{
				{TypeName: "Petition", Filed: "20210405", File: source.Int(300), Summary: "Initial petition."},
			},
		},
		Jurisdiction:      source.List[int]{42},
		NonUsPrincipalLaw: source.List[int]{51},
		NonUsCaseCategory: source.List[int]{61},
	}
}

func testMedia() []source.Media {
	return []source.Media{
		{ID: source.Int(100), SourceURL: "https://admin.climatecasechart.com/wp-content/uploads/order.pdf"},
		{ID: source.Int(200), SourceURL: "https://climatecasechart.com/wp-content/uploads/complaint.docx"},
		{ID: source.Int(300), SourceURL: "https://climatecasechart.com/wp-content/uploads/petition.pdf?v=2"},
	}
}

func testSnapshot() *source.Snapshot {
	return &source.Snapshot{
		Bundles:       []source.Bundle{testBundle(10)},
		UsCases:       []source.UsCase{testUsCase(1)},
		GlobalCases:   []source.GlobalCase{testGlobalCase(2)},
		Jurisdictions: testJurisdictions(),
		Media:         testMedia(),
		Terms:         testTerms(),
	}
}

func failureOf(id int, kind domain.FailureKind, reason string) domain.Failure {
	return domain.NewFailure(id, kind, reason)
}
