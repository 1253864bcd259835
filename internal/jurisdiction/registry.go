package jurisdiction

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Country is one entry of the ISO 3166 reference dataset.
type Country struct {
	Alpha2       string
	Alpha3       string
	Names        []string
	Subdivisions []Subdivision
}

// Subdivision is an ISO 3166-2 subdivision. Code is the full code, e.g. "US-CA".
type Subdivision struct {
	Name string
	Code string
}

// Registry answers fuzzy country and subdivision lookups.
type Registry struct {
	countries []Country
	byAlpha2  map[string]int
	byAlpha3  map[string]int
	names     []nameEntry
}

type nameEntry struct {
	norm    string
	country int
}

// aliases covers upstream spellings the reference dataset does not carry.
var aliases = map[string]string{
	"england and wales":            "GBR",
	"uk":                           "GBR",
	"south korea":                  "KOR",
	"republic of korea":            "KOR",
	"north korea":                  "PRK",
	"russia":                       "RUS",
	"czech republic":               "CZE",
	"the netherlands":              "NLD",
	"democratic republic of congo": "COD",
	"ivory coast":                  "CIV",
}

// NewRegistry indexes countries for lookup.
func NewRegistry(countries []Country) *Registry {
	r := &Registry{
		countries: countries,
		byAlpha2:  make(map[string]int, len(countries)),
		byAlpha3:  make(map[string]int, len(countries)),
	}
	for i, c := range countries {
		r.byAlpha2[strings.ToUpper(c.Alpha2)] = i
		r.byAlpha3[strings.ToUpper(c.Alpha3)] = i
		for _, name := range c.Names {
			if n := normalize(name); n != "" {
				r.names = append(r.names, nameEntry{norm: n, country: i})
			}
		}
	}
	for alias, alpha3 := range aliases {
		if i, ok := r.byAlpha3[alpha3]; ok {
			r.names = append(r.names, nameEntry{norm: normalize(alias), country: i})
		}
	}
	sort.Slice(r.names, func(i, j int) bool {
		if len(r.names[i].norm) != len(r.names[j].norm) {
			return len(r.names[i].norm) < len(r.names[j].norm)
		}
		return r.names[i].norm < r.names[j].norm
	})
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(loadGountries())
})

// DefaultRegistry returns the registry backed by the bundled ISO dataset.
func DefaultRegistry() *Registry { return defaultRegistry() }

func loadGountries() []Country {
	query := gountries.New()
	all := query.FindAllCountries()

	countries := make([]Country, 0, len(all))
	for _, gc := range all {
		c := Country{
			Alpha2: gc.Alpha2,
			Alpha3: gc.Alpha3,
			Names:  []string{gc.Name.Common, gc.Name.Official},
		}
		for _, sd := range gc.SubDivisions() {
			code := sd.Code
			if !strings.Contains(code, "-") {
				code = gc.Alpha2 + "-" + code
			}
			c.Subdivisions = append(c.Subdivisions, Subdivision{Name: sd.Name, Code: strings.ToUpper(code)})
		}
		countries = append(countries, c)
	}
	sort.Slice(countries, func(i, j int) bool { return countries[i].Alpha3 < countries[j].Alpha3 })
	return countries
}

// MatchCountry finds the country best matching name: an exact normalized
// match, then a prefix match, then a substring match. Among candidates the
// shortest name wins.
func (r *Registry) MatchCountry(name string) (Country, bool) {
	q := normalize(name)
	if q == "" {
		return Country{}, false
	}
	if i, ok := r.matchName(q); ok {
		return r.countries[i], true
	}
	return Country{}, false
}

func (r *Registry) matchName(q string) (int, bool) {
	for _, e := range r.names {
		if e.norm == q {
			return e.country, true
		}
	}
	for _, e := range r.names {
		if strings.HasPrefix(e.norm, q) || strings.HasPrefix(q, e.norm+" ") {
			return e.country, true
		}
	}
	if len(q) < 4 {
		return 0, false
	}
	for _, e := range r.names {
		if strings.Contains(e.norm, q) {
			return e.country, true
		}
	}
	return 0, false
}

// MatchSubdivision finds the subdivision of c best matching name.
func (r *Registry) MatchSubdivision(c Country, name string) (Subdivision, bool) {
	q := normalize(name)
	if q == "" {
		return Subdivision{}, false
	}

	var prefix, contains *Subdivision
	for i := range c.Subdivisions {
		sd := &c.Subdivisions[i]
		n := normalize(sd.Name)
		switch {
		case n == q:
			return *sd, true
		case strings.HasPrefix(n, q) || strings.HasPrefix(q, n+" "):
			if prefix == nil || n < normalize(prefix.Name) {
				prefix = sd
			}
		case len(q) >= 4 && strings.Contains(n, q):
			if contains == nil || n < normalize(contains.Name) {
				contains = sd
			}
		}
	}
	if prefix != nil {
		return *prefix, true
	}
	if contains != nil {
		return *contains, true
	}
	return Subdivision{}, false
}

// Subdivision returns the subdivision with the given full ISO code.
func (r *Registry) Subdivision(alpha2, code string) (Subdivision, bool) {
	i, ok := r.byAlpha2[strings.ToUpper(alpha2)]
	if !ok {
		return Subdivision{}, false
	}
	want := strings.ToUpper(alpha2 + "-" + code)
	for _, sd := range r.countries[i].Subdivisions {
		if sd.Code == want {
			return sd, true
		}
	}
	return Subdivision{}, false
}

// AlphaThree converts an alpha-2 or alpha-3 code to alpha-3.
func (r *Registry) AlphaThree(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch len(code) {
	case 2:
		if i, ok := r.byAlpha2[code]; ok {
			return r.countries[i].Alpha3, true
		}
	case 3:
		if i, ok := r.byAlpha3[code]; ok {
			return r.countries[i].Alpha3, true
		}
	}
	return "", false
}

// normalize strips diacritics and punctuation, folds case and collapses
// whitespace.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	stripped = cases.Fold().String(stripped)

	var b strings.Builder
	space := false
	for _, r := range stripped {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}
