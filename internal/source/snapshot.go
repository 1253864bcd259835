package source

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/heartmarshall/litigation-mapper/internal/domain"
)

// WordPress endpoints a full snapshot is assembled from.
const (
	EndpointBundles       = "case_bundle"
	EndpointUsCases       = "case"
	EndpointGlobalCases   = "non_us_case"
	EndpointJurisdictions = "jurisdiction"
	EndpointMedia         = "media"
)

// Endpoints lists every endpoint of a snapshot: data endpoints first, then
// the concept taxonomies not already covered.
func Endpoints() []string {
	endpoints := []string{EndpointBundles, EndpointUsCases, EndpointGlobalCases, EndpointJurisdictions, EndpointMedia}
	for _, t := range Taxonomies {
		if t != EndpointJurisdictions {
			endpoints = append(endpoints, t)
		}
	}
	return endpoints
}

// Required top-level (flattened) keys per record shape.
var (
	bundleRequiredFields = []string{"id", "title", "modified_gmt", "ccl_core_object"}
	termRequiredFields   = []string{"id", "name", "parent"}
	mediaRequiredFields  = []string{"id", "source_url"}
)

// RawSnapshot is the undecoded payload of every endpoint, keyed by endpoint.
type RawSnapshot map[string][]json.RawMessage

// Snapshot is the decoded input of one mapping run.
type Snapshot struct {
	Bundles       []Bundle
	UsCases       []UsCase
	GlobalCases   []GlobalCase
	Jurisdictions []Jurisdiction
	Media         []Media
	// Terms holds the concept taxonomy terms keyed by taxonomy.
	Terms map[string][]Term
}

// Cases returns US cases followed by global cases through the Case view.
func (s *Snapshot) Cases() []Case {
	cases := make([]Case, 0, len(s.UsCases)+len(s.GlobalCases))
	for i := range s.UsCases {
		cases = append(cases, &s.UsCases[i])
	}
	for i := range s.GlobalCases {
		cases = append(cases, &s.GlobalCases[i])
	}
	return cases
}

// SchemaError reports records whose shape no longer matches what the mapper
// expects from the upstream API. It aborts the run.
type SchemaError struct {
	Endpoint string
	Index    int
	Required []string
	Present  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s[%d]: Required fields [%s] not present in data: [%s]",
		e.Endpoint, e.Index, strings.Join(e.Required, ", "), strings.Join(e.Present, ", "))
}

func (e *SchemaError) Unwrap() error { return domain.ErrSchema }

// Decode verifies the shape of every record and decodes the snapshot.
func Decode(raw RawSnapshot) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)

	if snap.Bundles, err = decodeAll[Bundle](raw, EndpointBundles, bundleRequiredFields); err != nil {
		return Snapshot{}, err
	}
	if snap.UsCases, err = decodeAll[UsCase](raw, EndpointUsCases, nil); err != nil {
		return Snapshot{}, err
	}
	if snap.GlobalCases, err = decodeAll[GlobalCase](raw, EndpointGlobalCases, nil); err != nil {
		return Snapshot{}, err
	}
	if snap.Jurisdictions, err = decodeAll[Jurisdiction](raw, EndpointJurisdictions, termRequiredFields); err != nil {
		return Snapshot{}, err
	}
	if snap.Media, err = decodeAll[Media](raw, EndpointMedia, mediaRequiredFields); err != nil {
		return Snapshot{}, err
	}

	snap.Terms = make(map[string][]Term, len(Taxonomies))
	for _, taxonomy := range Taxonomies {
		terms, err := decodeAll[Term](raw, taxonomy, termRequiredFields)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Terms[taxonomy] = terms
	}

	return snap, nil
}

// DecodeCase decodes a single case record fetched on its own.
func DecodeCase(kind CaseKind, data json.RawMessage) (Case, error) {
	switch kind {
	case CaseKindUS:
		var c UsCase
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("source: decode %s: %w", kind, err)
		}
		return &c, nil
	case CaseKindGlobal:
		var c GlobalCase
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("source: decode %s: %w", kind, err)
		}
		return &c, nil
	}
	return nil, fmt.Errorf("source: unknown case type %q: %w", kind, domain.ErrValidation)
}

// DecodeTerm decodes a single taxonomy term after checking its shape.
func DecodeTerm(taxonomy string, data json.RawMessage) (Term, error) {
	if err := verifyShape(taxonomy, 0, data, termRequiredFields); err != nil {
		return Term{}, err
	}
	var t Term
	if err := json.Unmarshal(data, &t); err != nil {
		return Term{}, fmt.Errorf("source: decode %s term: %w", taxonomy, err)
	}
	return t, nil
}

func decodeAll[T any](raw RawSnapshot, endpoint string, required []string) ([]T, error) {
	items := raw[endpoint]
	out := make([]T, 0, len(items))
	for i, item := range items {
		if err := verifyShape(endpoint, i, item, required); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("source: decode %s[%d]: %w", endpoint, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// verifyShape checks that every required key occurs somewhere in the record,
// at any nesting depth.
func verifyShape(endpoint string, index int, item json.RawMessage, required []string) error {
	var doc any
	if err := json.Unmarshal(item, &doc); err != nil {
		return fmt.Errorf("source: decode %s[%d]: %w", endpoint, index, err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return fmt.Errorf("source: %s[%d] is not an object: %w", endpoint, index, domain.ErrSchema)
	}
	if len(required) == 0 {
		return nil
	}

	present := make(map[string]struct{})
	collectKeys(doc, present)

	var missing []string
	for _, key := range required {
		if _, ok := present[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	keys := make([]string, 0, len(present))
	for k := range present {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &SchemaError{Endpoint: endpoint, Index: index, Required: missing, Present: keys}
}

func collectKeys(v any, into map[string]struct{}) {
	m, ok := v.(map[string]any)
	if !ok {
		return
	}
	for k, child := range m {
		into[k] = struct{}{}
		collectKeys(child, into)
	}
}
