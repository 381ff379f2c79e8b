// Package search implements alphabetical grouping and the debounced live
// query pipeline over the contact cache.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/nexoft/phonebook/internal/store"
)

// FallbackKey buckets contacts whose full name has no resolvable first
// character.
const FallbackKey = '#'

// Group is one alphabetical bucket of contacts.
type Group struct {
	Key      rune
	Contacts []store.Contact
}

// GroupContacts sorts contacts by uppercased full name (ordinal comparison)
// and buckets them by the uppercased first character of the full name. Keys
// appear in first-appearance order after sorting, so the result is
// alphabetical with FallbackKey wherever its first contact sorts. Applied
// identically to the full list and to search results.
func GroupContacts(contacts []store.Contact) []Group {
	sorted := make([]store.Contact, len(contacts))
	copy(sorted, contacts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToUpper(sorted[i].FullName()) < strings.ToUpper(sorted[j].FullName())
	})

	var groups []Group
	index := make(map[rune]int)
	for _, c := range sorted {
		key := groupKey(c.FullName())
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Contacts = append(groups[i].Contacts, c)
	}
	return groups
}

// Flatten returns the contacts of all groups in iteration order.
func Flatten(groups []Group) []store.Contact {
	var contacts []store.Contact
	for _, g := range groups {
		contacts = append(contacts, g.Contacts...)
	}
	return contacts
}

func groupKey(fullName string) rune {
	for _, r := range fullName {
		if unicode.IsSpace(r) {
			continue
		}
		return unicode.ToUpper(r)
	}
	return FallbackKey
}
