package mapper

import (
	"sort"
	"time"

	"github.com/heartmarshall/litigation-mapper/internal/domain"
)

// DefaultLookback is how far back incremental runs look when no cutoff is
// supplied.
const DefaultLookback = 48 * time.Hour

// Options configures a RunContext.
type Options struct {
	Incremental bool
	Debug       bool
	// Cutoff is the incremental-update cutoff. Zero means now minus
	// DefaultLookback.
	Cutoff time.Time
	// Now overrides the clock; zero means time.Now.
	Now time.Time
}

// RunContext is the mutable state of one mapping run. It is created once per
// invocation, passed to every stage in order and never reset.
type RunContext struct {
	Failures           []domain.Failure
	SkippedFamilies    map[int]struct{}
	SkippedDocuments   map[int]struct{}
	BundleDescriptions map[int]string
	LastImportCutoff   time.Time
	Incremental        bool
	Debug              bool
}

// NewRunContext creates the context for a new run.
func NewRunContext(opts Options) *RunContext {
	cutoff := opts.Cutoff
	if cutoff.IsZero() {
		now := opts.Now
		if now.IsZero() {
			now = time.Now().UTC()
		}
		cutoff = now.Add(-DefaultLookback)
	}
	return &RunContext{
		SkippedFamilies:    make(map[int]struct{}),
		SkippedDocuments:   make(map[int]struct{}),
		BundleDescriptions: make(map[int]string),
		LastImportCutoff:   cutoff.UTC(),
		Incremental:        opts.Incremental,
		Debug:              opts.Debug,
	}
}

// Fail records a failure against a record with a known id.
func (rc *RunContext) Fail(id int, kind domain.FailureKind, reason string) {
	rc.Failures = append(rc.Failures, domain.NewFailure(id, kind, reason))
}

// FailAnonymous records a failure against a record without a usable id.
func (rc *RunContext) FailAnonymous(kind domain.FailureKind, reason string) {
	rc.Failures = append(rc.Failures, domain.NewAnonymousFailure(kind, reason))
}

func (rc *RunContext) SkipFamily(id int) { rc.SkippedFamilies[id] = struct{}{} }

func (rc *RunContext) FamilySkipped(id int) bool {
	_, ok := rc.SkippedFamilies[id]
	return ok
}

func (rc *RunContext) SkipDocument(id int) { rc.SkippedDocuments[id] = struct{}{} }

func (rc *RunContext) DocumentSkipped(id int) bool {
	_, ok := rc.SkippedDocuments[id]
	return ok
}

// SkippedFamilyIDs returns the skipped family ids in ascending order.
func (rc *RunContext) SkippedFamilyIDs() []int { return sortedKeys(rc.SkippedFamilies) }

// SkippedDocumentIDs returns the skipped document ids in ascending order.
func (rc *RunContext) SkippedDocumentIDs() []int { return sortedKeys(rc.SkippedDocuments) }

// FailureCounts tallies failures per kind.
func (rc *RunContext) FailureCounts() map[domain.FailureKind]int {
	counts := make(map[domain.FailureKind]int)
	for _, f := range rc.Failures {
		counts[f.Kind]++
	}
	return counts
}

func sortedKeys(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
