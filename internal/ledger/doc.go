// Package ledger provides the append-only record log that is the sole
// durable state of the simulation.
//
// The ledger is a single UTF-8 text file with one JSON object per line.
// Records are appended once and never mutated or deleted; every derived
// view (the userbase index, the reply-candidate pool, the archive) is
// rebuilt by replaying the file.
//
// # Corrupt-Line Tolerance
//
// Readers skip any line that does not parse as a record. Malformed lines
// never halt a traversal and are invisible to Count, Scan, and every
// derived view. This makes the file safe to edit, truncate, or pollute
// externally without crashing the operator.
//
// # Signatures
//
// Each record carries a tx_sig of the form "sim_<timestamp>_<ordinal>",
// where the ordinal is the record count at the moment of the write.
// Signatures are reference keys only; because timestamps are jittered,
// neither file order nor signature order matches wall-clock order.
package ledger
