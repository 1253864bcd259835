package mapper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

// mapFamiliesFor runs the collection and family stages over snap.
func mapFamiliesFor(t *testing.T, snap *source.Snapshot, rc *RunContext) []domain.Family {
	t.Helper()
	m := newTestMapper(t, nil)
	m.MapCollections(snap.Bundles, rc)
	return m.MapFamilies(context.Background(), snap, rc)
}

func familyByID(t *testing.T, families []domain.Family, importID string) domain.Family {
	t.Helper()
	for _, f := range families {
		if f.ImportID == importID {
			return f
		}
	}
	require.Failf(t, "family not found", "import id %s", importID)
	return domain.Family{}
}

func TestMapFamilies_UsCase(t *testing.T) {
	t.Parallel()

	rc := newTestContext()
	families := mapFamiliesFor(t, testSnapshot(), rc)

	require.Len(t, families, 2)
	assert.Empty(t, rc.Failures)

	fam := familyByID(t, families, "Sabin.family.1.0")
	assert.Equal(t, "Juliana v. United States", fam.Title)
	assert.Equal(t, "Suits brought by young plaintiffs.", fam.Summary)
	assert.Equal(t, []string{"USA", "US-CA"}, fam.Geographies)
	assert.Equal(t, domain.FamilyCategory, fam.Category)
	assert.Equal(t, []string{"Sabin.collection.10.0"}, fam.Collections)
	assert.Equal(t, domain.FamilyMetadata{
		OriginalCaseName: []string{},
		ID:               []string{"1"},
		// The order filed in 2020 is the latest document.
		Status:     []string{"Dismissed"},
		CaseNumber: []string{"6:15-cv-01517"},
		CoreObject: []string{},
		ConceptPreferredLabel: []string{
			"Climate Damages", "Clean Air Act",
			"Public Nuisance", "Federal Agency", "Section 111",
			"United States", "United States",
		},
	}, fam.Metadata)

	require.Len(t, fam.Concepts, 7)
	assert.Equal(t, []string{"United States"}, fam.Concepts[1].SubconceptOfLabels)
	assert.Equal(t, []string{"Climate Damages"}, fam.Concepts[2].SubconceptOfLabels)
	assert.Equal(t, []string{"Clean Air Act"}, fam.Concepts[4].SubconceptOfLabels)
	assert.Equal(t, domain.ConceptTypeLaw, fam.Concepts[5].Type)
	assert.Equal(t, domain.ConceptTypeLegalEntity, fam.Concepts[6].Type)
}

func TestMapFamilies_GlobalCase(t *testing.T) {
	t.Parallel()

	rc := newTestContext()
	families := mapFamiliesFor(t, testSnapshot(), rc)

	fam := familyByID(t, families, "Sabin.family.2.0")
	assert.Equal(t, "Instituto Arayara v. Brazil", fam.Title)
	assert.Equal(t, "Challenge to coal plant licensing.", fam.Summary)
	assert.Equal(t, []string{"BR-PA"}, fam.Geographies)
	assert.Equal(t, []string{}, fam.Collections)
	assert.Equal(t, []string{"Instituto Internacional Arayara v. União"}, fam.Metadata.OriginalCaseName)
	assert.Equal(t, []string{}, fam.Metadata.CaseNumber)
	assert.Equal(t, []string{"Pending"}, fam.Metadata.Status)
	assert.Equal(t, []string{"Coal plant licence"}, fam.Metadata.CoreObject)
	assert.Equal(t, []string{"Pará", "Constitution", "Human Rights"}, fam.Metadata.ConceptPreferredLabel)
}

func TestMapFamilies_UsCaseFailures(t *testing.T) {
	t.Parallel()

	missing := testUsCase(3)
	missing.Title = rendered("")
	missing.ACF.CaseBundle = nil
	missing.ACF.State = ""

	badBundle := testUsCase(4)
	badBundle.ACF.CaseBundle = ids(10, 999)

	badState := testUsCase(5)
	badState.ACF.State = "zz"

	noDocket := testUsCase(6)
	noDocket.ACF.DocketNumber = " "

	snap := testSnapshot()
	snap.UsCases = append(snap.UsCases, missing, badBundle, badState, noDocket)

	rc := newTestContext()
	families := mapFamiliesFor(t, snap, rc)

	assert.Len(t, families, 2)
	assert.Equal(t, []domain.Failure{
		failureOf(3, domain.FailureKindUsCase, "Missing the following values: title, bundle_ids, ccl_state"),
		failureOf(4, domain.FailureKindUsCase, "Does not have a valid case bundle"),
		failureOf(5, domain.FailureKindUsCase, "Does not have a valid ccl state code (ZZ)"),
		failureOf(6, domain.FailureKindUsCase, "Missing the following values: docket_number"),
	}, rc.Failures)
	assert.Equal(t, []int{3, 4, 5, 6}, rc.SkippedFamilyIDs())
}

func TestMapFamilies_GlobalCaseFailures(t *testing.T) {
	t.Parallel()

	noSummary := testGlobalCase(7)
	noSummary.ACF.Summary = ""

	noStatus := testGlobalCase(8)
	noStatus.ACF.Status = ""
	noStatus.ACF.CoreObject = ""

	snap := testSnapshot()
	snap.GlobalCases = append(snap.GlobalCases, noSummary, noStatus)

	rc := newTestContext()
	families := mapFamiliesFor(t, snap, rc)

	assert.Len(t, families, 2)
	assert.Equal(t, []domain.Failure{
		failureOf(7, domain.FailureKindNonUsCase, "Missing the following values: summary"),
		failureOf(8, domain.FailureKindNonUsCase, "Missing the following values: core_object, status"),
	}, rc.Failures)
	assert.True(t, rc.FamilySkipped(7))
	assert.True(t, rc.FamilySkipped(8))
}

func TestMapFamilies_CaseIdentity(t *testing.T) {
	t.Parallel()

	noID := testGlobalCase(0)
	noID.ID = source.FlexInt{Raw: "12"}

	noModified := testGlobalCase(9)
	noModified.Modified = ""

	snap := testSnapshot()
	snap.GlobalCases = append(snap.GlobalCases, noID, noModified)

	rc := newTestContext()
	families := mapFamiliesFor(t, snap, rc)

	assert.Len(t, families, 2)
	assert.Equal(t, []domain.Failure{
		domain.NewAnonymousFailure(domain.FailureKindCase, "Does not contain a case id at index (1)."),
		failureOf(9, domain.FailureKindCase, "Does not contain a modified_gmt timestamp."),
	}, rc.Failures)
	assert.Equal(t, []int{9}, rc.SkippedFamilyIDs())
}

func TestMapFamilies_MissingIDIndexIsPerList(t *testing.T) {
	t.Parallel()

	usNoID := testUsCase(0)
	usNoID.ID = source.FlexInt{}

	globalNoID := testGlobalCase(0)
	globalNoID.ID = source.FlexInt{}

	snap := testSnapshot()
	snap.UsCases = append(snap.UsCases, testUsCase(3), usNoID)
	snap.GlobalCases = []source.GlobalCase{globalNoID, testGlobalCase(2)}

	rc := newTestContext()
	families := mapFamiliesFor(t, snap, rc)

	assert.Len(t, families, 3)
	assert.Equal(t, []domain.Failure{
		domain.NewAnonymousFailure(domain.FailureKindCase, "Does not contain a case id at index (2)."),
		domain.NewAnonymousFailure(domain.FailureKindCase, "Does not contain a case id at index (0)."),
	}, rc.Failures)
}

func TestMapFamilies_Incremental(t *testing.T) {
	t.Parallel()

	fresh := testGlobalCase(20)
	fresh.Modified = "2025-03-09T08:00:00"

	snap := testSnapshot()
	snap.GlobalCases = append(snap.GlobalCases, fresh)

	rc := NewRunContext(Options{Incremental: true, Cutoff: time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)})
	families := mapFamiliesFor(t, snap, rc)

	require.Len(t, families, 1)
	assert.Equal(t, "Sabin.family.20.0", families[0].ImportID)
	assert.Empty(t, rc.Failures)
	assert.Equal(t, []int{1, 2}, rc.SkippedFamilyIDs())
}

func TestMapFamilies_MissingDatasets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*source.Snapshot)
	}{
		{"no us cases", func(s *source.Snapshot) { s.UsCases = nil }},
		{"no global cases", func(s *source.Snapshot) { s.GlobalCases = nil }},
		{"no jurisdictions", func(s *source.Snapshot) { s.Jurisdictions = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := testSnapshot()
			tt.modify(snap)
			rc := newTestContext()

			families := mapFamiliesFor(t, snap, rc)

			assert.NotNil(t, families)
			assert.Empty(t, families)
			assert.Empty(t, rc.Failures)
		})
	}
}

func TestMapFamilies_SummaryUsesFirstBundle(t *testing.T) {
	t.Parallel()

	second := testBundle(11)
	second.ACF.CoreObject = "Second bundle."

	us := testUsCase(1)
	us.ACF.CaseBundle = ids(11, 10)

	snap := testSnapshot()
	snap.Bundles = append(snap.Bundles, second)
	snap.UsCases = []source.UsCase{us}

	rc := newTestContext()
	fam := familyByID(t, mapFamiliesFor(t, snap, rc), "Sabin.family.1.0")

	assert.Equal(t, "Second bundle.", fam.Summary)
	assert.Equal(t, []string{"Sabin.collection.11.0", "Sabin.collection.10.0"}, fam.Collections)
}

func TestMapFamilies_FederalState(t *testing.T) {
	t.Parallel()

	us := testUsCase(1)
	us.ACF.State = "XX"
	snap := testSnapshot()
	snap.UsCases = []source.UsCase{us}

	fam := familyByID(t, mapFamiliesFor(t, snap, newTestContext()), "Sabin.family.1.0")
	assert.Equal(t, []string{"USA"}, fam.Geographies)
}

func TestMapFamilies_BackfillsMissingConcept(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{terms: map[int]source.Term{
		52: {ID: 52, Name: "Environmental Code", Parent: 51},
	}}
	m := newTestMapper(t, fetcher)

	global := testGlobalCase(2)
	global.NonUsPrincipalLaw = source.List[int]{52, 404}
	snap := testSnapshot()
	snap.GlobalCases = []source.GlobalCase{global}

	rc := newTestContext()
	m.MapCollections(snap.Bundles, rc)
	fam := familyByID(t, m.MapFamilies(context.Background(), snap, rc), "Sabin.family.2.0")

	assert.Equal(t, []int{52, 404}, fetcher.calls)
	assert.Equal(t, []string{"Pará", "Environmental Code", "Human Rights"}, fam.Metadata.ConceptPreferredLabel)
	assert.Equal(t, []string{"Constitution"}, fam.Concepts[1].SubconceptOfLabels)
}

func TestLatestStatus(t *testing.T) {
	t.Parallel()

	doc := func(filed, outcome string) source.CaseDocument {
		return &source.UsDocument{Filed: source.Text(filed), Outcome: source.Text(outcome)}
	}

	tests := []struct {
		name string
		docs []source.CaseDocument
		want string
	}{
		{"no documents", nil, StatusPending},
		{"latest wins", []source.CaseDocument{doc("20200101", "A"), doc("20220101", "B"), doc("20210101", "C")}, "B"},
		{"first wins ties", []source.CaseDocument{doc("20200101", "A"), doc("20200101", "B")}, "A"},
		{"undated sorts earliest", []source.CaseDocument{doc("", "A"), doc("20200101", "B")}, "B"},
		{"blank outcome", []source.CaseDocument{doc("20200101", "")}, StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, latestStatus(tt.docs))
		})
	}
}
