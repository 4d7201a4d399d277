package classifier

import "strings"

// NoLicenseFound is the label the classifier emits for files without a
// recognisable license.
const NoLicenseFound = "No_license_found"

type labelSet []string

func (s labelSet) has(label string) bool {
	for _, l := range s {
		if l == label {
			return true
		}
	}
	return false
}

func (s labelSet) hasSubstring(sub string) bool {
	for _, l := range s {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

func (s labelSet) without(label string) labelSet {
	out := s[:0]
	for _, l := range s {
		if l != label {
			out = append(out, l)
		}
	}
	return out
}

func (s labelSet) renamed(from, to string) labelSet {
	for i, l := range s {
		if l == from {
			s[i] = to
		}
	}
	return s
}

// rule is one sanitizer step: when match holds, apply rewrites the labels.
type rule struct {
	name  string
	match func(labelSet) bool
	apply func(labelSet) labelSet
}

// rules run in declared order. Reordering them changes the output for
// label sets that several rules touch.
var rules = []rule{
	{
		name:  "mit-duplicate",
		match: func(s labelSet) bool { return s.has("MIT") && s.has("MIT-style") },
		apply: func(s labelSet) labelSet { return s.without("MIT-style") },
	},
	{
		name:  "mit-style",
		match: func(s labelSet) bool { return s.has("MIT-style") },
		apply: func(s labelSet) labelSet { return s.renamed("MIT-style", "MIT") },
	},
	{
		name: "public-domain-false-positive",
		match: func(s labelSet) bool {
			return s.has("Public-domain") &&
				(s.hasSubstring("Affero") || s.hasSubstring("GPL") || s.has("Ruby") || s.has("Artistic"))
		},
		apply: func(s labelSet) labelSet { return s.without("Public-domain") },
	},
	{
		name:  "redundant-fsf",
		match: func(s labelSet) bool { return s.hasSubstring("GPL") && s.has("FSF") },
		apply: func(s labelSet) labelSet { return s.without("FSF") },
	},
}

// Sanitize collapses overlapping classifier labels into canonical tags.
// Survivors keep their relative order and labels is not modified.
func Sanitize(labels []string) []string {
	s := make(labelSet, len(labels))
	copy(s, labels)
	for _, r := range rules {
		if r.match(s) {
			s = r.apply(s)
		}
	}
	return []string(s)
}
