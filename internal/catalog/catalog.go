package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry is one item in the freshly fetched catalog. Immutable per run.
type Entry struct {
	URLName string `json:"url_name"`
	ID      string `json:"id"`
}

// Partition groups a catalog by classification. Unclassified entries are
// dropped; the sync pipeline only tracks the three recognized kinds.
type Partition struct {
	Parts  []Entry
	Sets   []Entry
	Relics []Entry
}

// PartitionEntries classifies every entry of the catalog.
func PartitionEntries(entries []Entry) Partition {
	var p Partition
	for _, e := range entries {
		switch Classify(e.URLName) {
		case KindPart:
			p.Parts = append(p.Parts, e)
		case KindSet:
			p.Sets = append(p.Sets, e)
		case KindRelic:
			p.Relics = append(p.Relics, e)
		}
	}
	return p
}

// Classified returns every recognized entry in classification order.
func (p Partition) Classified() []Entry {
	out := make([]Entry, 0, len(p.Parts)+len(p.Sets)+len(p.Relics))
	out = append(out, p.Parts...)
	out = append(out, p.Sets...)
	out = append(out, p.Relics...)
	return out
}

// Total is the number of recognized entries.
func (p Partition) Total() int {
	return len(p.Parts) + len(p.Sets) + len(p.Relics)
}

// SetBase strips the set suffix from a set url_name, yielding the family
// base used to resolve member parts ("titania_prime_set" -> "titania").
func SetBase(setName string) string {
	return strings.TrimSuffix(setName, setSuffix)
}

// MembersOf resolves the member parts of a set by base-name prefix match.
func (p Partition) MembersOf(setName string) []Entry {
	prefix := SetBase(setName) + "_"
	var members []Entry
	for _, e := range p.Parts {
		if strings.HasPrefix(e.URLName, prefix) {
			members = append(members, e)
		}
	}
	return members
}

// Index resolves the opaque composite source identifiers returned by the
// dropsources endpoint back to catalog entries. The upstream API returns a
// comma-separated identifier string rather than a direct name, so resolution
// is by identifier containment against the full catalog.
type Index struct {
	entries []Entry
}

// NewIndex builds an index over the full catalog.
func NewIndex(entries []Entry) *Index {
	return &Index{entries: entries}
}

// ResolveSource returns the url_names of every catalog entry whose ID occurs
// inside the composite identifier string. Names that themselves contain a
// comma are reduced to their first token. An unresolvable identifier yields
// an empty slice, never an error.
func (ix *Index) ResolveSource(compositeID string) []string {
	var names []string
	for _, e := range ix.entries {
		if e.ID != "" && strings.Contains(compositeID, e.ID) {
			name, _, _ := strings.Cut(e.URLName, ",")
			names = append(names, name)
		}
	}
	return names
}

var titleCaser = cases.Title(language.English)

// DisplayName converts a url_name into its human-readable form
// ("lith_a1_relic" -> "Lith A1 Relic").
func DisplayName(urlName string) string {
	return titleCaser.String(strings.ReplaceAll(urlName, "_", " "))
}
