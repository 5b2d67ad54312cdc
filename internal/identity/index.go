// Package identity derives the simulated userbase from the ledger and
// mints the synthetic keys new identities are written under.
package identity

import (
	"fmt"

	"github.com/twirvo/revival/internal/ledger"
)

// Entry pairs a wallet with the display name its first username_set
// record established.
type Entry struct {
	Wallet   string `json:"wallet"`
	Username string `json:"username"`
}

// Rebuild replays the ledger and folds username_set records into the
// current userbase: exactly one entry per distinct wallet, first write
// wins, insertion order preserved from the replay. Later username_set
// records for a known wallet are ignored, which keeps a name immutable
// once minted.
//
// Rebuild runs once per cycle; cost is proportional to ledger size.
func Rebuild(store *ledger.Store) ([]Entry, error) {
	entries := []Entry{}
	seen := map[string]struct{}{}
	err := store.Scan(func(rec ledger.Record) bool {
		if rec.Type != ledger.TypeUsernameSet {
			return true
		}
		if _, ok := seen[rec.Wallet]; ok {
			return true
		}
		seen[rec.Wallet] = struct{}{}
		entries = append(entries, Entry{Wallet: rec.Wallet, Username: rec.Text})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("rebuild userbase: %w", err)
	}
	return entries, nil
}
