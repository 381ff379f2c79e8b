package device

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nexoft/phonebook/internal/phone"
)

// entry mirrors one raw address-book record as exported to the book file.
type entry struct {
	GivenName   string `json:"givenName"`
	FamilyName  string `json:"familyName"`
	PhoneNumber string `json:"phoneNumber"`
	NumberType  string `json:"numberType"`
}

// FileBook is a Book backed by a JSON file, the daemon-side stand-in for
// the OS contacts provider. A missing file reads as an empty book.
type FileBook struct {
	mu   sync.Mutex
	path string
}

// NewFileBook creates a file-backed address book at the given path.
func NewFileBook(path string) *FileBook {
	return &FileBook{path: path}
}

// AllPhoneNumbers returns the normalized set of every number in the book.
func (b *FileBook) AllPhoneNumbers() (map[string]struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.load()
	if err != nil {
		return nil, err
	}
	numbers := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		numbers[phone.Normalize(e.PhoneNumber)] = struct{}{}
	}
	return numbers, nil
}

// Save appends a new mobile-type entry. Duplicates are intentionally kept;
// dedup is not this layer's contract.
func (b *FileBook) Save(firstName, lastName, phoneNumber string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.load()
	if err != nil {
		return err
	}
	entries = append(entries, entry{
		GivenName:   firstName,
		FamilyName:  lastName,
		PhoneNumber: phoneNumber,
		NumberType:  "mobile",
	})
	return b.write(entries)
}

// Contains reports whether a number normalizing equal to phoneNumber is
// present in the book.
func (b *FileBook) Contains(phoneNumber string) (bool, error) {
	numbers, err := b.AllPhoneNumbers()
	if err != nil {
		return false, err
	}
	_, ok := numbers[phone.Normalize(phoneNumber)]
	return ok, nil
}

func (b *FileBook) load() ([]entry, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read device book: %w", err)
	}
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse device book: %w", err)
	}
	return entries, nil
}

func (b *FileBook) write(entries []entry) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0700); err != nil {
		return fmt.Errorf("create device book dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode device book: %w", err)
	}
	if err := os.WriteFile(b.path, data, 0600); err != nil {
		return fmt.Errorf("write device book: %w", err)
	}
	return nil
}
