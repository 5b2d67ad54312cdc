// Package archive snapshots the ledger into SQLite for offline
// analytics. The archive is derived, disposable state: it never feeds
// back into the simulation and can be rebuilt from the ledger at any
// time. The ledger file itself stays the single source of truth.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/twirvo/revival/internal/ledger"
)

//go:embed schema.sql
var schemaSQL string

// Archive is a SQLite snapshot of the ledger.
type Archive struct {
	db *sql.DB
}

// Open creates or opens the archive database at path and applies the
// schema. WAL mode allows reads while an import is running.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect archive: %w", err)
	}

	// Single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Import replays the ledger into the archive and returns the number of
// rows inserted. Records already present (by signature) are skipped, so
// re-importing a grown ledger only adds the tail. Runs in one
// transaction: a failed import leaves the archive unchanged.
func (a *Archive) Import(ctx context.Context, store *ledger.Store) (int, error) {
	records, err := store.Records()
	if err != nil {
		return 0, fmt.Errorf("import ledger: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("import ledger: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (tx_sig, wallet, protocol, type, text, timestamp, parent_post)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tx_sig) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("import ledger: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		var parent any
		if rec.ParentPost != "" {
			parent = rec.ParentPost
		}
		res, err := stmt.ExecContext(ctx,
			rec.TxSig, rec.Wallet, rec.Protocol, string(rec.Type), rec.Text, rec.Timestamp, parent)
		if err != nil {
			return 0, fmt.Errorf("import record %s: %w", rec.TxSig, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("import record %s: %w", rec.TxSig, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import ledger: %w", err)
	}
	return inserted, nil
}

// PosterCount is one entry of the top-posters leaderboard.
type PosterCount struct {
	Wallet   string `json:"wallet"`
	Username string `json:"username"`
	Posts    int    `json:"posts"`
}

// Stats summarizes the archived ledger.
type Stats struct {
	TotalRecords int            `json:"total_records"`
	Identities   int            `json:"identities"`
	ByType       map[string]int `json:"by_type"`
	TopPosters   []PosterCount  `json:"top_posters"`
}

// Stats aggregates the archive: record counts by type, distinct
// identities, and the limit most active posters. Usernames follow the
// index semantics: the wallet's first username_set record wins.
func (a *Archive) Stats(ctx context.Context, limit int) (Stats, error) {
	stats := Stats{ByType: map[string]int{}}

	rows, err := a.db.QueryContext(ctx, `
		SELECT type, COUNT(*) FROM records GROUP BY type ORDER BY type
	`)
	if err != nil {
		return stats, fmt.Errorf("archive stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return stats, fmt.Errorf("archive stats: %w", err)
		}
		stats.ByType[typ] = n
		stats.TotalRecords += n
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("archive stats: %w", err)
	}

	if err := a.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT wallet) FROM records WHERE type = ?
	`, string(ledger.TypeUsernameSet)).Scan(&stats.Identities); err != nil {
		return stats, fmt.Errorf("archive stats: %w", err)
	}

	posterRows, err := a.db.QueryContext(ctx, `
		SELECT r.wallet,
		       COALESCE((
		           SELECT u.text FROM records u
		           WHERE u.wallet = r.wallet AND u.type = ?
		           ORDER BY u.rowid LIMIT 1
		       ), '') AS username,
		       COUNT(*) AS posts
		FROM records r
		WHERE r.type IN (?, ?)
		GROUP BY r.wallet
		ORDER BY posts DESC, r.wallet ASC
		LIMIT ?
	`, string(ledger.TypeUsernameSet), string(ledger.TypePost), string(ledger.TypePostComment), limit)
	if err != nil {
		return stats, fmt.Errorf("archive stats: %w", err)
	}
	defer posterRows.Close()
	for posterRows.Next() {
		var pc PosterCount
		if err := posterRows.Scan(&pc.Wallet, &pc.Username, &pc.Posts); err != nil {
			return stats, fmt.Errorf("archive stats: %w", err)
		}
		stats.TopPosters = append(stats.TopPosters, pc)
	}
	if err := posterRows.Err(); err != nil {
		return stats, fmt.Errorf("archive stats: %w", err)
	}

	return stats, nil
}
