package store

import (
	"database/sql"
	"fmt"
	"time"
)

const contactColumns = `id, first_name, last_name, phone_number, profile_image_url, created_at, is_in_device_contacts`

// ListContacts returns the full cached snapshot ordered by first name then
// last name. The ordering collation is SQLite BINARY (case-sensitive), the
// same order the grouping layer expects.
func (db *DB) ListContacts() ([]Contact, error) {
	rows, err := db.Query(`SELECT ` + contactColumns + ` FROM contacts ORDER BY first_name ASC, last_name ASC`)
	if err != nil {
		return nil, err
	}
	return scanContacts(rows)
}

// GetContact returns a contact by id, or nil if it is not cached.
func (db *DB) GetContact(id string) (*Contact, error) {
	var c Contact
	err := db.QueryRow(`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.PhoneNumber, &c.ProfileImageURL, &c.CreatedAt, &c.IsInDeviceContacts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertContact inserts or replaces a contact by id.
func (db *DB) UpsertContact(c *Contact) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO contacts (id, first_name, last_name, phone_number, profile_image_url, created_at, is_in_device_contacts, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone_number = excluded.phone_number,
			profile_image_url = excluded.profile_image_url,
			created_at = excluded.created_at,
			is_in_device_contacts = excluded.is_in_device_contacts,
			updated_at = excluded.updated_at`,
		c.ID, c.FirstName, c.LastName, c.PhoneNumber, c.ProfileImageURL, c.CreatedAt, c.IsInDeviceContacts, now)
	if err != nil {
		return err
	}
	db.notify(EventContactsChanged)
	return nil
}

// BulkUpsertContacts inserts or replaces multiple contacts in a single
// transaction. A single change event is published after commit.
func (db *DB) BulkUpsertContacts(contacts []Contact) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, c := range contacts {
		if _, err := tx.Exec(`
			INSERT INTO contacts (id, first_name, last_name, phone_number, profile_image_url, created_at, is_in_device_contacts, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				phone_number = excluded.phone_number,
				profile_image_url = excluded.profile_image_url,
				created_at = excluded.created_at,
				is_in_device_contacts = excluded.is_in_device_contacts,
				updated_at = excluded.updated_at`,
			c.ID, c.FirstName, c.LastName, c.PhoneNumber, c.ProfileImageURL, c.CreatedAt, c.IsInDeviceContacts, now); err != nil {
			return fmt.Errorf("upsert contact %q: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	db.notify(EventContactsChanged)
	return nil
}

// DeleteContact removes a contact by id.
func (db *DB) DeleteContact(id string) error {
	if _, err := db.Exec(`DELETE FROM contacts WHERE id = ?`, id); err != nil {
		return err
	}
	db.notify(EventContactsChanged)
	return nil
}

// DeleteAllContacts clears the cached snapshot.
func (db *DB) DeleteAllContacts() error {
	if _, err := db.Exec(`DELETE FROM contacts`); err != nil {
		return err
	}
	db.notify(EventContactsChanged)
	return nil
}

// SearchContacts matches the query case-insensitively against the full name
// ("first last") or the phone number, in the same order as ListContacts.
func (db *DB) SearchContacts(query string) ([]Contact, error) {
	rows, err := db.Query(`
		SELECT `+contactColumns+` FROM contacts
		WHERE LOWER(first_name || ' ' || last_name) LIKE '%' || LOWER(?) || '%'
		   OR LOWER(phone_number) LIKE '%' || LOWER(?) || '%'
		ORDER BY first_name ASC, last_name ASC`, query, query)
	if err != nil {
		return nil, err
	}
	return scanContacts(rows)
}

// SetDeviceFlag records whether the given phone number is currently present
// in the device address book. Keys on phone number, not id, because the flag
// is a statement about the number.
func (db *DB) SetDeviceFlag(phoneNumber string, inDevice bool) error {
	res, err := db.Exec(`UPDATE contacts SET is_in_device_contacts = ? WHERE phone_number = ?`, inDevice, phoneNumber)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		db.notify(EventContactsChanged)
	}
	return nil
}

// ContactCount returns the number of cached contacts.
func (db *DB) ContactCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&count)
	return count, err
}

func scanContacts(rows *sql.Rows) ([]Contact, error) {
	defer func() { _ = rows.Close() }()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.PhoneNumber, &c.ProfileImageURL, &c.CreatedAt, &c.IsInDeviceContacts); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
