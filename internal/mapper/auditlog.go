package mapper

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/heartmarshall/litigation-mapper/internal/domain"
)

// WriteAuditLog writes the plain-text run report: every failure in the order
// it was recorded, then the skipped document and family ids and the totals.
func WriteAuditLog(w io.Writer, rc *RunContext) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Failures (%d)\n", len(rc.Failures))
	for _, f := range rc.Failures {
		fmt.Fprintf(bw, "  %s\n", f)
	}

	docs := rc.SkippedDocumentIDs()
	fmt.Fprintf(bw, "\nSkipped documents (%d)\n", len(docs))
	for _, id := range docs {
		fmt.Fprintf(bw, "  %d\n", id)
	}

	families := rc.SkippedFamilyIDs()
	fmt.Fprintf(bw, "\nSkipped families (%d)\n", len(families))
	for _, id := range families {
		fmt.Fprintf(bw, "  %d\n", id)
	}

	counts := rc.FailureCounts()
	kinds := make([]domain.FailureKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	fmt.Fprintf(bw, "\nTotals\n")
	for _, k := range kinds {
		fmt.Fprintf(bw, "  failures[%s]: %d\n", k, counts[k])
	}
	fmt.Fprintf(bw, "  failures: %d\n  skipped documents: %d\n  skipped families: %d\n",
		len(rc.Failures), len(docs), len(families))

	return bw.Flush()
}
