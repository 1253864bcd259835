package domain

// ConceptType is the knowledge-graph type of a taxonomy entry.
type ConceptType string

const (
	ConceptTypeLaw                ConceptType = "law"
	ConceptTypeLegalCategory      ConceptType = "legal_category"
	ConceptTypeCountry            ConceptType = "country"
	ConceptTypeCountrySubdivision ConceptType = "country_subdivision"
	ConceptTypeLegalEntity        ConceptType = "legal_entity"
)

func (t ConceptType) String() string { return string(t) }

func (t ConceptType) IsValid() bool {
	switch t {
	case ConceptTypeLaw, ConceptTypeLegalCategory, ConceptTypeCountry,
		ConceptTypeCountrySubdivision, ConceptTypeLegalEntity:
		return true
	}
	return false
}

// Relation describes how a concept relates to the family that carries it.
type Relation string

const (
	RelationNone         Relation = ""
	RelationAuthor       Relation = "author"
	RelationJurisdiction Relation = "jurisdiction"
	RelationCategory     Relation = "category"
	RelationPrincipalLaw Relation = "principal_law"
)

func (r Relation) String() string { return string(r) }

// ConceptWithParent is the transient shape of a taxonomy term before its
// parent label has been looked up. ParentID is nil for top-level terms.
type ConceptWithParent struct {
	InternalID     int
	ID             string
	Type           ConceptType
	PreferredLabel string
	ParentID       *int
	Relation       Relation
}

// Concept is a resolved taxonomy entry. SubconceptOfLabels holds at most the
// immediate parent's label.
type Concept struct {
	InternalID         int
	ID                 string
	Type               ConceptType
	PreferredLabel     string
	IDs                []string
	SubconceptOfLabels []string
	Relation           Relation
}

// View returns the representation of the concept attached to a Family.
func (c Concept) View() ConceptView {
	ids := c.IDs
	if ids == nil {
		ids = []string{}
	}
	labels := c.SubconceptOfLabels
	if labels == nil {
		labels = []string{}
	}
	var relation *string
	if c.Relation != RelationNone {
		r := string(c.Relation)
		relation = &r
	}
	return ConceptView{
		ID:                 c.ID,
		IDs:                ids,
		Type:               c.Type,
		PreferredLabel:     c.PreferredLabel,
		Relation:           relation,
		SubconceptOfLabels: labels,
	}
}

// ConceptView is the serialized concept as it appears in family output and
// in the concept sync archive.
type ConceptView struct {
	ID                 string      `json:"id"`
	IDs                []string    `json:"ids"`
	Type               ConceptType `json:"type"`
	PreferredLabel     string      `json:"preferred_label"`
	Relation           *string     `json:"relation"`
	SubconceptOfLabels []string    `json:"subconcept_of_labels"`
}
