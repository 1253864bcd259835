package domain

import "fmt"

// ImportIDPrefix namespaces every import id produced by this mapper.
const ImportIDPrefix = "Sabin"

// PlaceholderID is the document id suffix used for synthesized documents.
const PlaceholderID = "placeholder"

// Import ids are pure functions of upstream ids so re-runs reproduce them.

func CollectionImportID(bundleID int) string {
	return fmt.Sprintf("%s.collection.%d.0", ImportIDPrefix, bundleID)
}

func FamilyImportID(caseID int) string {
	return fmt.Sprintf("%s.family.%d.0", ImportIDPrefix, caseID)
}

func DocumentImportID(caseID, fileID int) string {
	return fmt.Sprintf("%s.document.%d.%d", ImportIDPrefix, caseID, fileID)
}

func PlaceholderDocumentImportID(caseID int) string {
	return fmt.Sprintf("%s.document.%d.%s", ImportIDPrefix, caseID, PlaceholderID)
}

func EventImportID(caseID, seq int) string {
	return fmt.Sprintf("%s.event.%d.n%04d", ImportIDPrefix, caseID, seq)
}
