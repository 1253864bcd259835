package mapper

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

// VariantOriginalLanguage is the variant of every real document.
const VariantOriginalLanguage = "Original Language"

var supportedExtensions = map[string]struct{}{
	".pdf":  {},
	".html": {},
	".docx": {},
	".doc":  {},
}

// MapDocuments maps the embedded documents of every non-skipped case. Cases
// without documents get a single placeholder so each family keeps at least
// one document downstream.
func (m *Mapper) MapDocuments(snap *source.Snapshot, rc *RunContext) []domain.Document {
	documents := make([]domain.Document, 0)

	if len(snap.GlobalCases) == 0 || len(snap.UsCases) == 0 {
		m.log.Error("no cases found in the data, skipping document mapping")
		return documents
	}
	if len(snap.Media) == 0 {
		m.log.Error("no document media found in the data, skipping document mapping")
		return documents
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
		documents = append(documents, m.mapCaseDocuments(c, id, urls, rc)...)
	}

	return documents
}

// mediaURLs indexes media source URLs by media id, with the admin host
// prefix removed.
func mediaURLs(media []source.Media) map[int]string {
	urls := make(map[int]string, len(media))
	for _, md := range media {
		if !md.ID.Valid || md.SourceURL.Blank() {
			continue
		}
		urls[md.ID.Value] = strings.Replace(md.SourceURL.String(), "://admin.", "://", 1)
	}
	return urls
}

func (m *Mapper) mapCaseDocuments(c source.Case, caseID int, urls map[int]string, rc *RunContext) []domain.Document {
	docs := sortDocuments(c.CaseDocuments())
	if len(docs) == 0 {
		rc.Fail(caseID, domain.FailureKindDocument, "Case does not have any documents, events will still be mapped")
		return []domain.Document{placeholder(caseID)}
	}

	caseTitle := unescape(c.CaseTitle())
	out := make([]domain.Document, 0, len(docs))
	seen := make(map[int]struct{}, len(docs))
	for _, d := range docs {
		if file := d.FileID(); file.Valid {
			if _, dup := seen[file.Value]; dup {
				rc.Fail(file.Value, domain.FailureKindDocument,
					fmt.Sprintf("Duplicate document id (%d) in case (%d)", file.Value, caseID))
				continue
			}
			seen[file.Value] = struct{}{}
		}
		doc, failure := mapDocument(d, caseID, caseTitle, urls, rc)
		if failure != nil {
			rc.Failures = append(rc.Failures, *failure)
			continue
		}
		out = append(out, doc)
	}

	if len(out) == 0 {
		m.log.Debug("no document of the case could be mapped, using placeholder", slog.Int("case_id", caseID))
		out = append(out, placeholder(caseID))
	}
	return out
}

// mapDocument maps one embedded document. Documents without a source URL are
// also recorded as skipped so no event points at them.
func mapDocument(
	d source.CaseDocument,
	caseID int,
	caseTitle string,
	urls map[int]string,
	rc *RunContext,
) (domain.Document, *domain.Failure) {
	file := d.FileID()
	if !file.Valid {
		f := domain.NewAnonymousFailure(domain.FailureKindDocument,
			fmt.Sprintf("Document-id is missing. Case-id(%d)", caseID))
		return domain.Document{}, &f
	}
	fileID := file.Value

	sourceURL, ok := urls[fileID]
	if !ok {
		rc.SkipDocument(fileID)
		f := domain.NewFailure(fileID, domain.FailureKindDocument, "Missing a source url")
		return domain.Document{}, &f
	}

	if ext := extension(sourceURL); !isSupported(ext) {
		f := domain.NewFailure(fileID, domain.FailureKindDocument, fmt.Sprintf("Unsupported file type (%s)", ext))
		return domain.Document{}, &f
	}

	variant := VariantOriginalLanguage
	return domain.Document{
		ImportID:       domain.DocumentImportID(caseID, fileID),
		FamilyImportID: domain.FamilyImportID(caseID),
		Metadata:       domain.IDMetadata{ID: []string{strconv.Itoa(fileID)}},
		Title:          documentTitle(d, caseTitle),
		SourceURL:      &sourceURL,
		VariantName:    &variant,
	}, nil
}

// documentTitle prefers the document headline, falling back to
// "<case title> - <document type>".
func documentTitle(d source.CaseDocument, caseTitle string) string {
	if headline := d.Headline(); strings.TrimSpace(headline) != "" {
		return unescape(headline)
	}
	return fmt.Sprintf("%s - %s", caseTitle, unescape(d.DocumentType()))
}

func placeholder(caseID int) domain.Document {
	return domain.Document{
		ImportID:       domain.PlaceholderDocumentImportID(caseID),
		FamilyImportID: domain.FamilyImportID(caseID),
		Metadata:       domain.IDMetadata{ID: []string{domain.PlaceholderID}},
		Title:          "",
	}
}

// sortDocuments orders documents by file id. Documents without an integer id
// come first; ties keep their upstream order.
func sortDocuments(docs []source.CaseDocument) []source.CaseDocument {
	sorted := make([]source.CaseDocument, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].FileID(), sorted[j].FileID()
		if a.Valid != b.Valid {
			return !a.Valid
		}
		return a.Value < b.Value
	})
	return sorted
}

// extension returns the lower-cased extension of the URL path, ignoring any
// query string or fragment.
func extension(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}

func isSupported(ext string) bool {
	_, ok := supportedExtensions[ext]
	return ok
}

// documentMapped reports whether a document with the given file id is
// emitted by the document stage.
func documentMapped(fileID int, urls map[int]string) bool {
	u, ok := urls[fileID]
	return ok && isSupported(extension(u))
}
