package search

import (
	"reflect"
	"testing"

	"github.com/nexoft/phonebook/internal/store"
)

func contact(id, first, last string) store.Contact {
	return store.Contact{ID: id, FirstName: first, LastName: last}
}

func TestGroupContactsAlphabetical(t *testing.T) {
	contacts := []store.Contact{
		contact("3", "Grace", "Hopper"),
		contact("1", "Ada", "Lovelace"),
		contact("4", "Betty", "Holberton"),
		contact("2", "alan", "Turing"), // lowercase buckets with 'A'
	}

	groups := GroupContacts(contacts)
	wantKeys := []rune{'A', 'B', 'G'}
	if len(groups) != len(wantKeys) {
		t.Fatalf("got %d groups, want %d", len(groups), len(wantKeys))
	}
	for i, key := range wantKeys {
		if groups[i].Key != key {
			t.Errorf("group %d key = %q, want %q", i, groups[i].Key, key)
		}
	}

	a := groups[0].Contacts
	if len(a) != 2 || a[0].ID != "1" || a[1].ID != "2" {
		t.Errorf("group A = %v, want Ada then alan", a)
	}
}

func TestGroupFallbackKey(t *testing.T) {
	contacts := []store.Contact{
		contact("1", "", ""),
		contact("2", "Ada", "Lovelace"),
	}

	groups := GroupContacts(contacts)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	// The empty name sorts before everything, so the fallback bucket leads.
	if groups[0].Key != FallbackKey {
		t.Errorf("first key = %q, want %q", groups[0].Key, FallbackKey)
	}
	if groups[0].Contacts[0].ID != "1" {
		t.Errorf("fallback group holds %v", groups[0].Contacts)
	}
}

func TestGroupDigitKey(t *testing.T) {
	groups := GroupContacts([]store.Contact{contact("1", "112", "Acil")})
	if len(groups) != 1 || groups[0].Key != '1' {
		t.Errorf("groups = %v, want single group keyed '1'", groups)
	}
}

func TestGroupEmptyInput(t *testing.T) {
	if groups := GroupContacts(nil); len(groups) != 0 {
		t.Errorf("GroupContacts(nil) = %v, want empty", groups)
	}
}

func TestGroupIdempotent(t *testing.T) {
	contacts := []store.Contact{
		contact("3", "Grace", "Hopper"),
		contact("1", "Ada", "Lovelace"),
		contact("2", "", ""),
	}

	once := GroupContacts(contacts)
	twice := GroupContacts(Flatten(once))
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("regrouping changed the result:\nonce:  %v\ntwice: %v", once, twice)
	}
}

func TestGroupDoesNotMutateInput(t *testing.T) {
	contacts := []store.Contact{
		contact("2", "Grace", "Hopper"),
		contact("1", "Ada", "Lovelace"),
	}

	GroupContacts(contacts)
	if contacts[0].ID != "2" {
		t.Error("input slice reordered")
	}
}
