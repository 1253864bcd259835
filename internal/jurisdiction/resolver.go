// Package jurisdiction resolves upstream jurisdiction terms to ISO 3166
// codes and computes family geographies.
package jurisdiction

import (
	"sort"
	"strings"

	"github.com/heartmarshall/litigation-mapper/internal/source"
)

// Geography sentinels understood by the import service.
const (
	InternationalGeography = "XAA"
	NoGeography            = "XAB"
	USAGeography           = "USA"
	// FederalStateCode marks US cases without a state.
	FederalStateCode = "XX"
)

// internationalNames are jurisdictions that stand for international or
// regional bodies rather than a country.
var internationalNames = map[string]struct{}{
	"international":         {},
	"european union":        {},
	"united nations":        {},
	"inter american system": {},
	"african union":         {},
	"council of europe":     {},
}

// IsInternational reports whether a jurisdiction name denotes an
// international body.
func IsInternational(name string) bool {
	_, ok := internationalNames[normalize(name)]
	return ok
}

// Entry is a resolved jurisdiction.
type Entry struct {
	Name          string
	ISO           string
	International bool
}

// Resolver holds the id → Entry table for one run.
type Resolver struct {
	registry *Registry
	table    map[int]Entry
}

// NewResolver builds the jurisdiction table. Top-level records resolve to a
// country alpha-3 code, nested records to an ISO 3166-2 subdivision of the
// country at the top of their parent chain. Records that match nothing are
// left out of the table.
func NewResolver(records []source.Jurisdiction, registry *Registry) *Resolver {
	r := &Resolver{registry: registry, table: make(map[int]Entry, len(records))}

	byID := make(map[int]source.Jurisdiction, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	for _, rec := range records {
		name := rec.Name.String()
		if IsInternational(name) {
			r.table[rec.ID] = Entry{Name: name, International: true}
			continue
		}

		if rec.Parent == 0 {
			if c, ok := registry.MatchCountry(name); ok {
				r.table[rec.ID] = Entry{Name: name, ISO: c.Alpha3}
			}
			continue
		}

		top, ok := topLevel(rec, byID)
		if !ok {
			continue
		}
		c, ok := registry.MatchCountry(top.Name.String())
		if !ok {
			continue
		}
		if sd, ok := registry.MatchSubdivision(c, name); ok {
			r.table[rec.ID] = Entry{Name: name, ISO: sd.Code}
		}
	}

	return r
}

// topLevel walks the parent chain of rec to its top-level ancestor.
func topLevel(rec source.Jurisdiction, byID map[int]source.Jurisdiction) (source.Jurisdiction, bool) {
	seen := map[int]struct{}{rec.ID: {}}
	cur := rec
	for cur.Parent != 0 {
		parent, ok := byID[cur.Parent]
		if !ok {
			return source.Jurisdiction{}, false
		}
		if _, loop := seen[parent.ID]; loop {
			return source.Jurisdiction{}, false
		}
		seen[parent.ID] = struct{}{}
		cur = parent
	}
	return cur, true
}

// Lookup returns the resolved entry for a jurisdiction id.
func (r *Resolver) Lookup(id int) (Entry, bool) {
	e, ok := r.table[id]
	return e, ok
}

// Len returns the number of resolved jurisdictions.
func (r *Resolver) Len() int { return len(r.table) }

// ISOCodes returns the sorted, de-duplicated geographies of a case. It never
// returns an empty list: resolved codes (plus XAA for international
// jurisdictions), else the case's raw country code as alpha-3, else XAB.
func (r *Resolver) ISOCodes(ids []int, countryCode string) []string {
	set := make(map[string]struct{})
	for _, id := range ids {
		e, ok := r.table[id]
		if !ok {
			continue
		}
		if e.International {
			set[InternationalGeography] = struct{}{}
			continue
		}
		set[e.ISO] = struct{}{}
	}

	if len(set) == 0 {
		if a3, ok := r.registry.AlphaThree(countryCode); ok {
			return []string{a3}
		}
		return []string{NoGeography}
	}

	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// USStateISO converts a two-letter US state code to its ISO 3166-2 code.
func (r *Resolver) USStateISO(state string) (string, bool) {
	state = strings.ToUpper(strings.TrimSpace(state))
	if len(state) != 2 {
		return "", false
	}
	sd, ok := r.registry.Subdivision("US", state)
	if !ok {
		return "", false
	}
	return sd.Code, true
}
