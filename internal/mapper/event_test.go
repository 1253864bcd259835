package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

func TestMapEvents_UsCase(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	snap.GlobalCases[0].ACF.Documents = nil
	snap.GlobalCases[0].ACF.FilingYearForAction = "2019"

	m := newTestMapper(t, nil)
	rc := newTestContext()

	events := m.MapEvents(snap, rc)

	require.Len(t, events, 4)
	assert.Empty(t, rc.Failures)

	assert.Equal(t, domain.Event{
		ImportID:       "Sabin.event.1.n0000",
		FamilyImportID: "Sabin.family.1.0",
		EventTitle:     "Filing Year For Action",
		EventTypeValue: domain.EventTypeFilingYearForAction,
		Date:           "2015-01-01",
		Metadata: domain.EventMetadata{
			EventType:         []string{"Filing Year For Action"},
			Description:       []string{"Filing Year For Action"},
			DatetimeEventName: []string{"Filing Year For Action"},
			ActionTaken:       []string{},
		},
	}, events[0])

	assert.Equal(t, domain.Event{
		ImportID:               "Sabin.event.1.n0001",
		FamilyImportID:         "Sabin.family.1.0",
		FamilyDocumentImportID: strPtr("Sabin.document.1.100"),
		EventTitle:             "Order",
		EventTypeValue:         domain.EventTypeDecision,
		Date:                   "2020-01-17",
		Metadata: domain.EventMetadata{
			EventType:         []string{"Decision"},
			Description:       []string{"Court dismissed."},
			DatetimeEventName: []string{"Filing Year For Action"},
			ActionTaken:       []string{"Dismissed"},
		},
	}, events[1])

	assert.Equal(t, "Sabin.event.1.n0002", events[2].ImportID)
	assert.Equal(t, domain.EventTypeComplaint, events[2].EventTypeValue)
	assert.Equal(t, "2015-08-12", events[2].Date)

	// The non-US case without documents still gets its filing event.
	assert.Equal(t, "Sabin.event.2.n0000", events[3].ImportID)
	assert.Equal(t, "2019-01-01", events[3].Date)
}

func TestMapEvents_GlobalCaseFallsBackToEarliestDocument(t *testing.T) {
	t.Parallel()

	global := testGlobalCase(2)
	global.ACF.Documents = source.List[source.GlobalDocument]{
		{TypeName: "Decision", Filed: "20220301", File: source.Int(301), Summary: "Judgment."},
		{TypeName: "petition ", Filed: "20210405", File: source.Int(300)},
		{TypeName: "Decision", Filed: "not a date", File: source.Int(302)},
		{TypeName: "Letter", File: source.FlexInt{Raw: "n/a"}},
	}
	snap := testSnapshot()
	snap.GlobalCases = []source.GlobalCase{global}

	m := newTestMapper(t, nil)
	rc := newTestContext()
	rc.SkipFamily(1)

	events := m.MapEvents(snap, rc)

	require.Len(t, events, 4)
	assert.Equal(t, "2021-04-05", events[0].Date)

	// Documents without an integer id sort first and fall back to the
	// filing year.
	assert.Equal(t, "Letter", events[1].EventTitle)
	assert.Nil(t, events[1].FamilyDocumentImportID)
	assert.Equal(t, "2021-04-05", events[1].Date)

	assert.Equal(t, "Sabin.event.2.n0002", events[2].ImportID)
	assert.Equal(t, domain.EventTypePetition, events[2].EventTypeValue)
	assert.Equal(t, "petition ", events[2].EventTitle)
	assert.Equal(t, []string{}, events[2].Metadata.ActionTaken)

	assert.Equal(t, "Sabin.event.2.n0003", events[3].ImportID)
	assert.Equal(t, "2022-03-01", events[3].Date)

	assert.Equal(t, []domain.Failure{
		failureOf(2, domain.FailureKindEvent, "Event has invalid filing date: (not a date)"),
	}, rc.Failures)
}

func TestMapEvents_InvalidEventTypeKeepsSequence(t *testing.T) {
	t.Parallel()

	us := testUsCase(1)
	us.ACF.Documents = source.List[source.UsDocument]{
		{TypeName: "Smoke Signal", Filed: "20150101", File: source.Int(100)},
		{TypeName: "Complaint", Filed: "20150812", File: source.Int(200)},
	}
	snap := testSnapshot()
	snap.UsCases = []source.UsCase{us}

	m := newTestMapper(t, nil)
	rc := newTestContext()
	rc.SkipFamily(2)

	events := m.MapEvents(snap, rc)

	require.Len(t, events, 2)
	assert.Equal(t, "Sabin.event.1.n0001", events[1].ImportID)
	assert.Equal(t, strPtr("Sabin.document.1.200"), events[1].FamilyDocumentImportID)
	assert.Equal(t, []domain.Failure{
		failureOf(1, domain.FailureKindEvent, "Event has invalid event type: (Smoke Signal)"),
	}, rc.Failures)
}

func TestMapEvents_SkipsSkippedDocuments(t *testing.T) {
	t.Parallel()

	m := newTestMapper(t, nil)
	rc := newTestContext()
	rc.SkipDocument(100)
	rc.SkipFamily(2)

	events := m.MapEvents(testSnapshot(), rc)

	require.Len(t, events, 2)
	assert.Equal(t, strPtr("Sabin.document.1.200"), events[1].FamilyDocumentImportID)
	assert.Equal(t, "Sabin.event.1.n0001", events[1].ImportID)
}

func TestMapEvents_DuplicateFileIDYieldsOneEvent(t *testing.T) {
	t.Parallel()

	global := testGlobalCase(2)
	global.ACF.Documents = source.List[source.GlobalDocument]{
		{TypeName: "Petition", Filed: "20210405", File: source.Int(300)},
		{TypeName: "Decision", Filed: "20220301", File: source.Int(300)},
	}
	snap := testSnapshot()
	snap.GlobalCases = []source.GlobalCase{global}

	m := newTestMapper(t, nil)
	rc := newTestContext()
	rc.SkipFamily(1)

	events := m.MapEvents(snap, rc)

	require.Len(t, events, 2)
	assert.Equal(t, "Sabin.event.2.n0001", events[1].ImportID)
	assert.Equal(t, domain.EventTypePetition, events[1].EventTypeValue)
	assert.Equal(t, strPtr("Sabin.document.2.300"), events[1].FamilyDocumentImportID)
}

func TestMapEvents_UnmappedDocumentIsNotReferenced(t *testing.T) {
	t.Parallel()

	global := testGlobalCase(2)
	global.ACF.Documents = source.List[source.GlobalDocument]{
		{TypeName: "Petition", Filed: "20210405", File: source.Int(300)},
		{TypeName: "Decision", Filed: "20220301", File: source.Int(302)},
	}
	snap := testSnapshot()
	snap.GlobalCases = []source.GlobalCase{global}
	snap.Media = append(snap.Media, source.Media{ID: source.Int(302), SourceURL: "https://climatecasechart.com/data.csv"})

	m := newTestMapper(t, nil)
	rc := newTestContext()
	rc.SkipFamily(1)

	docs := m.MapDocuments(snap, rc)
	events := m.MapEvents(snap, rc)

	require.Len(t, docs, 1)
	require.Len(t, events, 3)
	assert.Equal(t, strPtr("Sabin.document.2.300"), events[1].FamilyDocumentImportID)

	// The unsupported file still dates the event but is not linked.
	assert.Equal(t, "Sabin.event.2.n0002", events[2].ImportID)
	assert.Equal(t, "2022-03-01", events[2].Date)
	assert.Nil(t, events[2].FamilyDocumentImportID)

	emitted := make(map[string]bool, len(docs))
	for _, d := range docs {
		emitted[d.ImportID] = true
	}
	for _, ev := range events {
		if ev.FamilyDocumentImportID != nil {
			assert.True(t, emitted[*ev.FamilyDocumentImportID], "event %s references %s", ev.ImportID, *ev.FamilyDocumentImportID)
		}
	}
}

func TestMapEvents_FilingYearFailures(t *testing.T) {
	t.Parallel()

	badYear := testGlobalCase(2)
	badYear.ACF.FilingYearForAction = "20xx"

	noDates := testGlobalCase(3)
	noDates.ACF.Documents = source.List[source.GlobalDocument]{{TypeName: "Decision", File: source.Int(300)}}

	snap := testSnapshot()
	snap.GlobalCases = []source.GlobalCase{badYear, noDates}

	m := newTestMapper(t, nil)
	rc := newTestContext()
	rc.SkipFamily(1)

	events := m.MapEvents(snap, rc)

	assert.Empty(t, events)
	assert.Equal(t, []domain.Failure{
		failureOf(2, domain.FailureKindEvent, "Event does not have valid filing year for action [20xx]"),
		failureOf(3, domain.FailureKindEvent, "Case does not have valid events to parse earliest filing dates []"),
	}, rc.Failures)
}

func TestMapEvents_MissingCases(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	snap.UsCases = nil

	events := newTestMapper(t, nil).MapEvents(snap, newTestContext())
	assert.NotNil(t, events)
	assert.Empty(t, events)
}
