package store

import (
	"strings"
	"unicode"
)

// Contact represents a cached directory contact.
//
// IsInDeviceContacts is local-only metadata: it is recomputed against the
// device address book by the reconciliation engine and is never a remote
// field. An empty ID means the contact has not been persisted remotely yet.
type Contact struct {
	ID                 string
	FirstName          string
	LastName           string
	PhoneNumber        string
	ProfileImageURL    string // empty = no avatar
	CreatedAt          string // opaque server-issued timestamp
	IsInDeviceContacts bool
}

// FullName returns "FirstName LastName".
func (c Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Initials returns the uppercased first letters of the first and last name.
// Missing parts contribute nothing.
func (c Contact) Initials() string {
	var b strings.Builder
	for _, name := range []string{c.FirstName, c.LastName} {
		for _, r := range name {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}

// SearchHistoryEntry is a committed search query. Query text is unique;
// re-committing the same text refreshes its timestamp.
type SearchHistoryEntry struct {
	Query     string
	Timestamp int64
}
