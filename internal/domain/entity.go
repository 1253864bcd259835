package domain

// FamilyCategory is the only category produced for litigation families.
const FamilyCategory = "Litigation"

// Collection groups related litigation cases (a "case bundle" upstream).
type Collection struct {
	ImportID    string     `json:"import_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Metadata    IDMetadata `json:"metadata"`
}

// IDMetadata carries the upstream identifier of a collection or document.
type IDMetadata struct {
	ID []string `json:"id"`
}

// Family is the normalized representation of one US or non-US case.
type Family struct {
	ImportID    string         `json:"import_id"`
	Title       string         `json:"title"`
	Summary     string         `json:"summary"`
	Geographies []string       `json:"geographies"`
	Metadata    FamilyMetadata `json:"metadata"`
	Category    string         `json:"category"`
	Collections []string       `json:"collections"`
	Concepts    []ConceptView  `json:"concepts"`
}

// FamilyMetadata holds per-family metadata. Every value is a list, as the
// bulk-import schema requires.
type FamilyMetadata struct {
	OriginalCaseName      []string `json:"original_case_name"`
	ID                    []string `json:"id"`
	Status                []string `json:"status"`
	CaseNumber            []string `json:"case_number"`
	CoreObject            []string `json:"core_object"`
	ConceptPreferredLabel []string `json:"concept_preferred_label"`
}

// Document is a single filing attached to a family. SourceURL and
// VariantName are nil for placeholder documents.
type Document struct {
	ImportID       string     `json:"import_id"`
	FamilyImportID string     `json:"family_import_id"`
	Metadata       IDMetadata `json:"metadata"`
	Title          string     `json:"title"`
	SourceURL      *string    `json:"source_url"`
	VariantName    *string    `json:"variant_name"`
}

// IsPlaceholder reports whether the document was synthesized for a family
// without qualifying documents.
func (d Document) IsPlaceholder() bool {
	return len(d.Metadata.ID) == 1 && d.Metadata.ID[0] == PlaceholderID
}

// Event is a dated step in a case's history.
type Event struct {
	ImportID               string        `json:"import_id"`
	FamilyImportID         string        `json:"family_import_id"`
	FamilyDocumentImportID *string       `json:"family_document_import_id"`
	EventTitle             string        `json:"event_title"`
	EventTypeValue         EventType     `json:"event_type_value"`
	Date                   string        `json:"date"`
	Metadata               EventMetadata `json:"metadata"`
}

// EventMetadata holds per-event metadata lists.
type EventMetadata struct {
	EventType         []string `json:"event_type"`
	Description       []string `json:"description"`
	DatetimeEventName []string `json:"datetime_event_name"`
	ActionTaken       []string `json:"action_taken"`
}

// Output is the full result of one mapping run.
type Output struct {
	Collections []Collection `json:"collections"`
	Families    []Family     `json:"families"`
	Documents   []Document   `json:"documents"`
	Events      []Event      `json:"events"`
}

// Counts returns the number of mapped entities per entity type.
func (o Output) Counts() map[string]int {
	return map[string]int{
		"collections": len(o.Collections),
		"families":    len(o.Families),
		"documents":   len(o.Documents),
		"events":      len(o.Events),
	}
}
