package source

import (
	"time"
)

// CaseKind distinguishes the two upstream case post types.
type CaseKind string

const (
	CaseKindUS     CaseKind = "case"
	CaseKindGlobal CaseKind = "non_us_case"
)

func (k CaseKind) String() string { return string(k) }

// IsValid reports whether k names a supported case post type.
func (k CaseKind) IsValid() bool {
	return k == CaseKindUS || k == CaseKindGlobal
}

// Taxonomy endpoints carrying concepts, in resolution order.
const (
	TaxonomyCaseCategory      = "case_category"
	TaxonomyEntity            = "entity"
	TaxonomyPrincipalLaw      = "principal_law"
	TaxonomyJurisdiction      = "jurisdiction"
	TaxonomyNonUsPrincipalLaw = "non_us_principal_law"
	TaxonomyNonUsCaseCategory = "non_us_case_category"
)

// Taxonomies lists every concept taxonomy, US ones first.
var Taxonomies = []string{
	TaxonomyCaseCategory,
	TaxonomyEntity,
	TaxonomyPrincipalLaw,
	TaxonomyJurisdiction,
	TaxonomyNonUsPrincipalLaw,
	TaxonomyNonUsCaseCategory,
}

// ModifiedLayout is the format of WordPress modified_gmt timestamps.
const ModifiedLayout = "2006-01-02T15:04:05"

// FilingDateLayout is the format of ACF document filing dates.
const FilingDateLayout = "20060102"

// Tagged is implemented by records that reference taxonomy terms.
type Tagged interface {
	TaxonomyIDs(taxonomy string) []int
}

// Case is the normalized view over US and non-US case records.
type Case interface {
	Tagged
	CaseID() FlexInt
	Kind() CaseKind
	CaseTitle() string
	ModifiedGMT() Text
	FilingYearForAction() Text
	CaseDocuments() []CaseDocument
}

// CaseDocument is the normalized view over a case's embedded documents.
type CaseDocument interface {
	FileID() FlexInt
	DocumentType() string
	FilingDate() string
	DocumentSummary() string
	// Headline is empty for non-US documents.
	Headline() string
	// ActionTaken is the outcome list carried into event metadata.
	ActionTaken() []string
}

// ParseModified parses a modified_gmt value as UTC.
func ParseModified(t Text) (time.Time, error) {
	return time.ParseInLocation(ModifiedLayout, string(t), time.UTC)
}

// ParseFilingDate parses a YYYYMMDD document filing date.
func ParseFilingDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(FilingDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ---------------------------------------------------------------------------
// Raw records
// ---------------------------------------------------------------------------

// Term is a taxonomy term. Jurisdictions are terms of the jurisdiction
// taxonomy. Parent is 0 for top-level terms.
type Term struct {
	ID       int    `json:"id"`
	Name     Text   `json:"name"`
	Parent   int    `json:"parent"`
	Taxonomy Text   `json:"taxonomy,omitempty"`
	Slug     string `json:"slug,omitempty"`
}

// Jurisdiction is a jurisdiction taxonomy term.
type Jurisdiction = Term

// Media is a WordPress media attachment.
type Media struct {
	ID        FlexInt `json:"id"`
	SourceURL Text    `json:"source_url"`
}

// Bundle is a case bundle, mapped to a Collection.
type Bundle struct {
	ID           FlexInt      `json:"id"`
	Title        Rendered     `json:"title"`
	Modified     Text         `json:"modified_gmt"`
	ACF          BundleFields `json:"acf"`
	CaseCategory List[int]    `json:"case_category"`
	PrincipalLaw List[int]    `json:"principal_law"`
	Entity       List[int]    `json:"entity"`
}

// BundleFields are the ACF fields of a case bundle.
type BundleFields struct {
	CoreObject Text `json:"ccl_core_object"`
}

func (b *Bundle) TaxonomyIDs(taxonomy string) []int {
	switch taxonomy {
	case TaxonomyCaseCategory:
		return b.CaseCategory
	case TaxonomyPrincipalLaw:
		return b.PrincipalLaw
	case TaxonomyEntity:
		return b.Entity
	}
	return nil
}

// UsCase is a US litigation case.
type UsCase struct {
	ID           FlexInt      `json:"id"`
	Type         Text         `json:"type"`
	Modified     Text         `json:"modified_gmt"`
	Title        Rendered     `json:"title"`
	ACF          UsCaseFields `json:"acf"`
	CaseCategory List[int]    `json:"case_category"`
	Entity       List[int]    `json:"entity"`
	PrincipalLaw List[int]    `json:"principal_law"`
}

// UsCaseFields are the ACF fields of a US case.
type UsCaseFields struct {
	CaseBundle          List[FlexInt]    `json:"ccl_case_bundle"`
	State               Text             `json:"ccl_state"`
	DocketNumber        Text             `json:"ccl_docket_number"`
	FilingYearForAction Text             `json:"ccl_filing_year_for_action"`
	Documents           List[UsDocument] `json:"ccl_case_documents"`
}

// UsDocument is a document embedded in a US case.
type UsDocument struct {
	TypeName Text    `json:"ccl_document_type"`
	Filed    Text    `json:"ccl_filing_date"`
	File     FlexInt `json:"ccl_file"`
	Title    Text    `json:"ccl_document_headline"`
	Summary  Text    `json:"ccl_document_summary"`
	Outcome  Text    `json:"ccl_outcome"`
}

func (c *UsCase) CaseID() FlexInt           { return c.ID }
func (c *UsCase) Kind() CaseKind            { return CaseKindUS }
func (c *UsCase) CaseTitle() string         { return c.Title.Rendered.String() }
func (c *UsCase) ModifiedGMT() Text         { return c.Modified }
func (c *UsCase) FilingYearForAction() Text { return c.ACF.FilingYearForAction }

func (c *UsCase) CaseDocuments() []CaseDocument {
	docs := make([]CaseDocument, len(c.ACF.Documents))
	for i := range c.ACF.Documents {
		docs[i] = &c.ACF.Documents[i]
	}
	return docs
}

func (c *UsCase) TaxonomyIDs(taxonomy string) []int {
	switch taxonomy {
	case TaxonomyCaseCategory:
		return c.CaseCategory
	case TaxonomyEntity:
		return c.Entity
	case TaxonomyPrincipalLaw:
		return c.PrincipalLaw
	}
	return nil
}

// BundleIDs returns the raw bundle references of the case.
func (c *UsCase) BundleIDs() []FlexInt { return c.ACF.CaseBundle }

func (d *UsDocument) FileID() FlexInt         { return d.File }
func (d *UsDocument) DocumentType() string    { return d.TypeName.String() }
func (d *UsDocument) FilingDate() string      { return d.Filed.String() }
func (d *UsDocument) DocumentSummary() string { return d.Summary.String() }
func (d *UsDocument) Headline() string        { return d.Title.String() }

func (d *UsDocument) ActionTaken() []string {
	if d.Outcome.Blank() {
		return []string{}
	}
	return []string{d.Outcome.String()}
}

// GlobalCase is a non-US litigation case.
type GlobalCase struct {
	ID                FlexInt          `json:"id"`
	Type              Text             `json:"type"`
	Modified          Text             `json:"modified_gmt"`
	Title             Rendered         `json:"title"`
	ACF               GlobalCaseFields `json:"acf"`
	Jurisdiction      List[int]        `json:"jurisdiction"`
	NonUsPrincipalLaw List[int]        `json:"non_us_principal_law"`
	NonUsCaseCategory List[int]        `json:"non_us_case_category"`
}

// GlobalCaseFields are the ACF fields of a non-US case.
type GlobalCaseFields struct {
	CaseName            Text                 `json:"ccl_nonus_case_name"`
	Summary             Text                 `json:"ccl_nonus_summary"`
	ReporterInfo        Text                 `json:"ccl_nonus_reporter_info"`
	Status              Text                 `json:"ccl_nonus_status"`
	CoreObject          Text                 `json:"ccl_nonus_core_object"`
	CaseCountry         Text                 `json:"ccl_nonus_case_country"`
	FilingYearForAction Text                 `json:"ccl_nonus_filing_year_for_action"`
	Documents           List[GlobalDocument] `json:"ccl_nonus_case_documents"`
}

// GlobalDocument is a document embedded in a non-US case.
type GlobalDocument struct {
	TypeName Text    `json:"ccl_nonus_document_type"`
	Filed    Text    `json:"ccl_nonus_filing_date"`
	File     FlexInt `json:"ccl_nonus_file"`
	Summary  Text    `json:"ccl_nonus_document_summary"`
}

func (c *GlobalCase) CaseID() FlexInt           { return c.ID }
func (c *GlobalCase) Kind() CaseKind            { return CaseKindGlobal }
func (c *GlobalCase) CaseTitle() string         { return c.Title.Rendered.String() }
func (c *GlobalCase) ModifiedGMT() Text         { return c.Modified }
func (c *GlobalCase) FilingYearForAction() Text { return c.ACF.FilingYearForAction }

func (c *GlobalCase) CaseDocuments() []CaseDocument {
	docs := make([]CaseDocument, len(c.ACF.Documents))
	for i := range c.ACF.Documents {
		docs[i] = &c.ACF.Documents[i]
	}
	return docs
}

func (c *GlobalCase) TaxonomyIDs(taxonomy string) []int {
	switch taxonomy {
	case TaxonomyJurisdiction:
		return c.Jurisdiction
	case TaxonomyNonUsPrincipalLaw:
		return c.NonUsPrincipalLaw
	case TaxonomyNonUsCaseCategory:
		return c.NonUsCaseCategory
	}
	return nil
}

func (d *GlobalDocument) FileID() FlexInt         { return d.File }
func (d *GlobalDocument) DocumentType() string    { return d.TypeName.String() }
func (d *GlobalDocument) FilingDate() string      { return d.Filed.String() }
func (d *GlobalDocument) DocumentSummary() string { return d.Summary.String() }
func (d *GlobalDocument) Headline() string        { return "" }
func (d *GlobalDocument) ActionTaken() []string   { return []string{} }
