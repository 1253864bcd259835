package mapper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

// EventDateLayout is the date format of emitted events.
const EventDateLayout = "2006-01-02"

// MapEvents emits, per non-skipped case, a default filing event followed by
// one event per mapped document. Sequence numbers count successful events
// only.
func (m *Mapper) MapEvents(snap *source.Snapshot, rc *RunContext) []domain.Event {
	events := make([]domain.Event, 0)

	if len(snap.GlobalCases) == 0 || len(snap.UsCases) == 0 {
		m.log.Error("no cases found in the data, skipping event mapping")
		return events
	}

	urls := mediaURLs(snap.Media)
	for _, c := range snap.Cases() {
		if !c.CaseID().Valid {
			continue
		}
		id := c.CaseID().Value
		if rc.FamilySkipped(id) {
			continue
		}
		events = append(events, m.mapCaseEvents(c, id, urls, rc)...)
	}

	return events
}

// mapCaseEvents maps the events of one case. A repeated file id yields a
// single event, and only documents the document stage emits are referenced.
func (m *Mapper) mapCaseEvents(c source.Case, caseID int, urls map[int]string, rc *RunContext) []domain.Event {
	filingYear, failure := resolveFilingYear(c, caseID)
	if failure != nil {
		rc.Failures = append(rc.Failures, *failure)
		return []domain.Event{}
	}

	familyID := domain.FamilyImportID(caseID)
	events := []domain.Event{defaultEvent(caseID, familyID, filingYear)}

	seen := make(map[int]struct{})
	for _, d := range sortDocuments(c.CaseDocuments()) {
		file := d.FileID()
		if file.Valid {
			if _, dup := seen[file.Value]; dup || rc.DocumentSkipped(file.Value) {
				continue
			}
			seen[file.Value] = struct{}{}
		}
		ev, failure := mapEvent(d, caseID, len(events), filingYear, c.Kind())
		if failure != nil {
			rc.Failures = append(rc.Failures, *failure)
			continue
		}
		if file.Valid && !documentMapped(file.Value, urls) {
			ev.FamilyDocumentImportID = nil
		}
		events = append(events, ev)
	}
	return events
}

// resolveFilingYear returns the case's filing year as YYYY-01-01, falling
// back to the earliest parseable document filing date.
func resolveFilingYear(c source.Case, caseID int) (string, *domain.Failure) {
	raw := c.FilingYearForAction()
	if !raw.Blank() {
		year, err := strconv.Atoi(strings.TrimSpace(raw.String()))
		if err != nil || year < 1 || year > 9999 {
			f := domain.NewFailure(caseID, domain.FailureKindEvent,
				fmt.Sprintf("Event does not have valid filing year for action [%s]", raw))
			return "", &f
		}
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).Format(EventDateLayout), nil
	}

	var earliest time.Time
	for _, d := range c.CaseDocuments() {
		at, ok := source.ParseFilingDate(d.FilingDate())
		if ok && (earliest.IsZero() || at.Before(earliest)) {
			earliest = at
		}
	}
	if earliest.IsZero() {
		f := domain.NewFailure(caseID, domain.FailureKindEvent,
			fmt.Sprintf("Case does not have valid events to parse earliest filing dates [%s]", raw))
		return "", &f
	}
	return earliest.Format(EventDateLayout), nil
}

func defaultEvent(caseID int, familyID, filingYear string) domain.Event {
	return domain.Event{
		ImportID:       domain.EventImportID(caseID, 0),
		FamilyImportID: familyID,
		EventTitle:     domain.FilingYearForAction,
		EventTypeValue: domain.EventTypeFilingYearForAction,
		Date:           filingYear,
		Metadata: domain.EventMetadata{
			EventType:         []string{domain.FilingYearForAction},
			Description:       []string{domain.FilingYearForAction},
			DatetimeEventName: []string{domain.FilingYearForAction},
			ActionTaken:       []string{},
		},
	}
}

func mapEvent(d source.CaseDocument, caseID, seq int, fallbackDate string, kind source.CaseKind) (domain.Event, *domain.Failure) {
	docType := d.DocumentType()
	eventType, ok := domain.ConsolidatedEventType(docType)
	if !ok {
		f := domain.NewFailure(caseID, domain.FailureKindEvent, fmt.Sprintf("Event has invalid event type: (%s)", docType))
		return domain.Event{}, &f
	}

	date := fallbackDate
	if raw := d.FilingDate(); strings.TrimSpace(raw) != "" {
		at, ok := source.ParseFilingDate(strings.TrimSpace(raw))
		if !ok {
			f := domain.NewFailure(caseID, domain.FailureKindEvent, fmt.Sprintf("Event has invalid filing date: (%s)", raw))
			return domain.Event{}, &f
		}
		date = at.Format(EventDateLayout)
	}

	var documentID *string
	if file := d.FileID(); file.Valid {
		id := domain.DocumentImportID(caseID, file.Value)
		documentID = &id
	}

	actionTaken := []string{}
	if kind == source.CaseKindUS {
		actionTaken = d.ActionTaken()
	}

	return domain.Event{
		ImportID:               domain.EventImportID(caseID, seq),
		FamilyImportID:         domain.FamilyImportID(caseID),
		FamilyDocumentImportID: documentID,
		EventTitle:             docType,
		EventTypeValue:         eventType,
		Date:                   date,
		Metadata: domain.EventMetadata{
			EventType:         []string{eventType.String()},
			Description:       []string{d.DocumentSummary()},
			DatetimeEventName: []string{domain.FilingYearForAction},
			ActionTaken:       actionTaken,
		},
	}, nil
}
