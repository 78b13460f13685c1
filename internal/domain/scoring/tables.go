package scoring

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// DefaultTablesVersion identifies the built-in heuristic tables.
const DefaultTablesVersion = "2024-01"

// Tables is the static, versioned heuristic data behind the organization and
// institution scorers. It is configuration, not learned state.
type Tables struct {
	Version string
	// Neighbors maps a target organization to organizations considered close to it.
	Neighbors map[string][]string
	// MajorEmployers is the set used for the cross-employer signal.
	MajorEmployers []string
	// InstitutionAliases maps a canonical institution name to its abbreviations
	// and alternate spellings.
	InstitutionAliases map[string][]string
}

// DefaultTables returns the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Version: DefaultTablesVersion,
		Neighbors: map[string][]string{
			"google":    {"youtube", "deepmind", "alphabet", "waymo", "verily"},
			"meta":      {"facebook", "instagram", "whatsapp", "oculus"},
			"microsoft": {"linkedin", "github", "xbox"},
			"amazon":    {"aws", "twitch", "audible"},
			"apple":     {"beats"},
			"netflix":   {},
			"nvidia":    {},
		},
		MajorEmployers: []string{"google", "meta", "apple", "amazon", "microsoft", "netflix"},
		InstitutionAliases: map[string][]string{
			"massachusetts institute of technology":   {"mit"},
			"carnegie mellon university":              {"cmu", "carnegie mellon"},
			"university of illinois urbana-champaign": {"uiuc"},
			"stanford university":                     {"stanford"},
			"university of california, berkeley":      {"uc berkeley", "ucb", "berkeley"},
			"university of california, los angeles":   {"ucla"},
			"california institute of technology":      {"caltech"},
			"georgia institute of technology":         {"georgia tech", "gatech"},
			"new york university":                     {"nyu"},
			"eth zurich":                              {"eth", "swiss federal institute of technology"},
		},
	}
}

// Validate reports malformed tables.
func (t Tables) Validate() error {
	for org := range t.Neighbors {
		if normalize(org) == "" {
			return fmt.Errorf("neighbors: empty organization key: %w", ErrInvalidTables)
		}
	}
	for name, aliases := range t.InstitutionAliases {
		if normalize(name) == "" {
			return fmt.Errorf("institution aliases: empty canonical name: %w", ErrInvalidTables)
		}
		if slices.ContainsFunc(aliases, func(a string) bool { return normalize(a) == "" }) {
			return fmt.Errorf("institution aliases for %q: empty alias: %w", name, ErrInvalidTables)
		}
	}
	return nil
}

// index is the normalized, lookup-friendly form of Tables.
type index struct {
	version   string
	neighbors map[string]map[string]struct{}
	major     map[string]struct{}
	// aliases holds one token phrase list per canonical institution.
	aliases [][][]string
}

func buildIndex(t Tables) index {
	idx := index{
		version:   t.Version,
		neighbors: make(map[string]map[string]struct{}, len(t.Neighbors)),
		major:     make(map[string]struct{}, len(t.MajorEmployers)),
		aliases:   make([][][]string, 0, len(t.InstitutionAliases)),
	}
	for org, ns := range t.Neighbors {
		set := make(map[string]struct{}, len(ns))
		for _, n := range ns {
			if n = normalize(n); n != "" {
				set[n] = struct{}{}
			}
		}
		idx.neighbors[normalize(org)] = set
	}
	for _, org := range t.MajorEmployers {
		if org = normalize(org); org != "" {
			idx.major[org] = struct{}{}
		}
	}

	names := make([]string, 0, len(t.InstitutionAliases))
	for name := range t.InstitutionAliases {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		forms := [][]string{tokens(name)}
		for _, a := range t.InstitutionAliases[name] {
			if tok := tokens(a); len(tok) > 0 {
				forms = append(forms, tok)
			}
		}
		idx.aliases = append(idx.aliases, forms)
	}
	return idx
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// tokens splits s into lowercase alphanumeric words.
func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsPhrase reports whether phrase occurs as a contiguous run of words in text.
func containsPhrase(text, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(text) {
		return false
	}
	for i := 0; i+len(phrase) <= len(text); i++ {
		if slices.Equal(text[i:i+len(phrase)], phrase) {
			return true
		}
	}
	return false
}
