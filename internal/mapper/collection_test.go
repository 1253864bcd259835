package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

func TestMapCollections_MapsBundle(t *testing.T) {
	t.Parallel()

	m := newTestMapper(t, nil)
	rc := newTestContext()

	got := m.MapCollections([]source.Bundle{testBundle(10)}, rc)

	require.Len(t, got, 1)
	assert.Equal(t, domain.Collection{
		ImportID:    "Sabin.collection.10.0",
		Title:       "Youth Climate Suits & Appeals",
		Description: "Suits brought by young plaintiffs.",
		Metadata:    domain.IDMetadata{ID: []string{"10"}},
	}, got[0])
	assert.Equal(t, "Suits brought by young plaintiffs.", rc.BundleDescriptions[10])
	assert.Empty(t, rc.Failures)
}

func TestMapCollections_Failures(t *testing.T) {
	t.Parallel()

	noID := testBundle(0)
	noID.ID = source.FlexInt{Raw: "abc"}

	noTitle := testBundle(11)
	noTitle.Title = rendered("   ")

	noDescription := testBundle(12)
	noDescription.ACF.CoreObject = ""

	m := newTestMapper(t, nil)
	rc := newTestContext()

	got := m.MapCollections([]source.Bundle{noID, testBundle(10), noTitle, noDescription}, rc)

	require.Len(t, got, 1)
	assert.Equal(t, "Sabin.collection.10.0", got[0].ImportID)
	assert.Equal(t, []domain.Failure{
		domain.NewAnonymousFailure(domain.FailureKindBundle, "Does not contain a bundle id at index (0)"),
		failureOf(11, domain.FailureKindBundle, "Does not contain a title"),
		failureOf(12, domain.FailureKindBundle, "Does not contain a description"),
	}, rc.Failures)
	assert.NotContains(t, rc.BundleDescriptions, 11)
	assert.NotContains(t, rc.BundleDescriptions, 12)
}

func TestMapCollections_EmptyInput(t *testing.T) {
	t.Parallel()

	m := newTestMapper(t, nil)
	rc := newTestContext()

	got := m.MapCollections(nil, rc)

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, rc.Failures)
}

func TestMapCollections_Incremental(t *testing.T) {
	t.Parallel()

	stale := testBundle(10)
	stale.Modified = "2025-01-01T00:00:00"
	fresh := testBundle(11)
	fresh.Modified = "2025-03-09T12:00:00"
	unparseable := testBundle(12)
	unparseable.Modified = "yesterday"

	m := newTestMapper(t, nil)
	rc := NewRunContext(Options{Incremental: true, Cutoff: time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)})

	got := m.MapCollections([]source.Bundle{stale, fresh, unparseable}, rc)

	importIDs := make([]string, len(got))
	for i, c := range got {
		importIDs[i] = c.ImportID
	}
	assert.Equal(t, []string{"Sabin.collection.11.0", "Sabin.collection.12.0"}, importIDs)
	// Unchanged bundles stay available to US families.
	assert.Len(t, rc.BundleDescriptions, 3)
}
