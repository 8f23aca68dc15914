// Package tags holds the tag-set type used to classify bus messages and the
// matcher that decides whether a handler accepts a message.
package tags

import (
	"slices"
	"strings"
)

// Set is a normalised collection of tags: trimmed, without empty entries,
// deduplicated and sorted. Build it with New so the invariants hold.
type Set []string

// New builds a Set from the given tags.
func New(tags ...string) Set {
	if len(tags) == 0 {
		return nil
	}

	out := make(Set, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}

	slices.Sort(out)
	return slices.Compact(out)
}

// Empty reports whether the set carries no tags.
func (s Set) Empty() bool {
	return len(s) == 0
}

// Has reports whether tag is a member of the set.
func (s Set) Has(tag string) bool {
	_, found := slices.BinarySearch(s, tag)
	return found
}

// Contains reports whether every tag of other is also in s.
func (s Set) Contains(other Set) bool {
	for _, t := range other {
		if !s.Has(t) {
			return false
		}
	}
	return true
}

// Equal reports whether both sets hold the same tags.
func (s Set) Equal(other Set) bool {
	return slices.Equal(s, other)
}

func (s Set) String() string {
	return "{" + strings.Join(s, ",") + "}"
}

// Matches decides whether a handler requiring required accepts a message
// tagged with incoming.
//
// A handler without tags is the default handler: it only accepts untagged
// messages. Any other handler accepts a message when all of its tags are
// present; extra incoming tags are ignored.
func Matches(incoming, required Set) bool {
	if required.Empty() {
		return incoming.Empty()
	}
	return incoming.Contains(required)
}
