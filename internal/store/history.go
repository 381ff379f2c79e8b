package store

import "time"

// RecentQueries returns the most recent distinct committed queries, newest
// first. The retention bound is enforced here at read time; limit <= 0 means
// the default of 10.
func (db *DB) RecentQueries(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(`SELECT DISTINCT query FROM search_history ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// InsertQuery records a committed search. Query text is the primary key, so
// re-inserting the same text supersedes the prior entry's timestamp.
func (db *DB) InsertQuery(query string) error {
	_, err := db.Exec(`
		INSERT INTO search_history (query, timestamp) VALUES (?, ?)
		ON CONFLICT(query) DO UPDATE SET timestamp = excluded.timestamp`,
		query, time.Now().UnixNano())
	if err != nil {
		return err
	}
	db.notify(EventHistoryChanged)
	return nil
}

// DeleteQuery removes a single history entry by its literal text.
func (db *DB) DeleteQuery(query string) error {
	if _, err := db.Exec(`DELETE FROM search_history WHERE query = ?`, query); err != nil {
		return err
	}
	db.notify(EventHistoryChanged)
	return nil
}

// ClearHistory removes every history entry.
func (db *DB) ClearHistory() error {
	if _, err := db.Exec(`DELETE FROM search_history`); err != nil {
		return err
	}
	db.notify(EventHistoryChanged)
	return nil
}
