package mapper

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

// MapCollections maps case bundles to collections and records every accepted
// bundle's description in rc.BundleDescriptions.
//
// In incremental mode bundles not modified since the cutoff are still
// recorded (US families need them) but not emitted.
func (m *Mapper) MapCollections(bundles []source.Bundle, rc *RunContext) []domain.Collection {
	collections := make([]domain.Collection, 0, len(bundles))
	if len(bundles) == 0 {
		m.log.Error("no case bundles found in the data, skipping collection mapping")
		return collections
	}

	for i := range bundles {
		b := &bundles[i]
		col, failure := mapCollection(b, i)
		if failure != nil {
			rc.Failures = append(rc.Failures, *failure)
			continue
		}

		rc.BundleDescriptions[b.ID.Value] = col.Description

		if rc.Incremental && !modifiedSince(b.Modified, rc) {
			continue
		}
		collections = append(collections, col)
	}

	if rc.Debug {
		m.log.Debug("collections mapped", slog.Int("count", len(collections)), slog.Int("bundles", len(rc.BundleDescriptions)))
	}
	return collections
}

func mapCollection(b *source.Bundle, index int) (domain.Collection, *domain.Failure) {
	if !b.ID.Valid {
		f := domain.NewAnonymousFailure(domain.FailureKindBundle,
			fmt.Sprintf("Does not contain a bundle id at index (%d)", index))
		return domain.Collection{}, &f
	}
	id := b.ID.Value

	title := unescape(b.Title.Rendered.String())
	if source.Text(title).Blank() {
		f := domain.NewFailure(id, domain.FailureKindBundle, "Does not contain a title")
		return domain.Collection{}, &f
	}

	description := unescape(b.ACF.CoreObject.String())
	if source.Text(description).Blank() {
		f := domain.NewFailure(id, domain.FailureKindBundle, "Does not contain a description")
		return domain.Collection{}, &f
	}

	return domain.Collection{
		ImportID:    domain.CollectionImportID(id),
		Title:       title,
		Description: description,
		Metadata:    domain.IDMetadata{ID: []string{strconv.Itoa(id)}},
	}, nil
}

// modifiedSince reports whether a record changed after the run cutoff.
// Unparseable timestamps count as modified.
func modifiedSince(modified source.Text, rc *RunContext) bool {
	t, err := source.ParseModified(modified)
	if err != nil {
		return true
	}
	return t.After(rc.LastImportCutoff)
}

func bundlesByID(bundles []source.Bundle) map[int]*source.Bundle {
	byID := make(map[int]*source.Bundle, len(bundles))
	for i := range bundles {
		if bundles[i].ID.Valid {
			byID[bundles[i].ID.Value] = &bundles[i]
		}
	}
	return byID
}

// referencedBundles returns the bundles a US case belongs to; other case
// kinds reference none.
func referencedBundles(bundles []source.Bundle, c source.Case) []source.Bundle {
	us, ok := c.(*source.UsCase)
	if !ok {
		return nil
	}
	wanted := make(map[int]struct{})
	for _, ref := range us.BundleIDs() {
		if ref.Valid {
			wanted[ref.Value] = struct{}{}
		}
	}
	var out []source.Bundle
	for _, b := range bundles {
		if _, ok := wanted[b.ID.Value]; ok && b.ID.Valid {
			out = append(out, b)
		}
	}
	return out
}
