package catalog

import "strings"

// Kind is the classification of a catalog entry, derived from its url_name.
type Kind int

const (
	KindUnclassified Kind = iota
	KindPart              // tradable component consumed to build a set
	KindSet               // tradable bundle of parts
	KindRelic             // container that drops one part from a weighted table
)

// String returns the human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindPart:
		return "part"
	case KindSet:
		return "set"
	case KindRelic:
		return "relic"
	default:
		return "unclassified"
	}
}

const (
	setSuffix       = "_prime_set"
	partInfix       = "prime_"
	partExclusion   = "kavasa_"
	relicSuffix     = "_relic"
	relicExclPrefix = "requiem_"
)

// Classify maps a url_name onto exactly one Kind. The rules preserve the
// upstream naming contracts verbatim; an entry may legitimately match none.
// Deterministic and total.
func Classify(name string) Kind {
	switch {
	case isSet(name):
		return KindSet
	case isPart(name):
		return KindPart
	case isRelic(name):
		return KindRelic
	default:
		return KindUnclassified
	}
}

// isSet: ends in "_prime_set" with a non-empty base name.
func isSet(name string) bool {
	return strings.HasSuffix(name, setSuffix) && len(name) > len(setSuffix)
}

// isPart: contains "prime_" somewhere after the first character, with a
// remainder that is non-empty and not exactly "set" (that is the set itself),
// and the text before the infix must not end in "kavasa_", the one cosmetic
// item family that carries the infix without being a tradable part.
func isPart(name string) bool {
	for i := 1; i+len(partInfix) <= len(name); i++ {
		if name[i:i+len(partInfix)] != partInfix {
			continue
		}
		rest := name[i+len(partInfix):]
		if rest == "" || rest == "set" {
			continue
		}
		if strings.HasSuffix(name[:i], partExclusion) {
			continue
		}
		return true
	}
	return false
}

// isRelic: ends in "_relic", has at least two characters before the suffix,
// does not start with 'r' and does not carry the excluded prefix. The leading
// character guard exists to reject a near-miss naming collision upstream.
func isRelic(name string) bool {
	if !strings.HasSuffix(name, relicSuffix) {
		return false
	}
	if len(name) < len(relicSuffix)+2 {
		return false
	}
	if name[0] == 'r' {
		return false
	}
	if strings.HasPrefix(name, relicExclPrefix) {
		return false
	}
	return true
}
