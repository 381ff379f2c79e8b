// Package device adapts the device-level address book. The reconciliation
// engine only ever asks two things of it: the set of numbers currently
// present, and the ability to add a new entry.
package device

// Book is the device address-book boundary. Implementations return ordinary
// errors; the engine treats any failure as "no device contacts found" or
// "save failed" and never lets it propagate up the caller chain.
type Book interface {
	// AllPhoneNumbers returns every phone number currently in the book,
	// in normalized form.
	AllPhoneNumbers() (map[string]struct{}, error)

	// Save creates a new entry with the given/family name and one
	// mobile-type number. It never updates or dedups existing entries.
	Save(firstName, lastName, phoneNumber string) error

	// Contains probes for a single number by normalized equality.
	Contains(phoneNumber string) (bool, error)
}
