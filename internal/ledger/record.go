package ledger

import "fmt"

// Protocol tags every record written by this simulation. Readers may use
// it to separate simulated activity from anything else sharing the file.
const Protocol = "twirvo_v1"

// RecordType identifies what a ledger record establishes.
type RecordType string

const (
	// TypeUsernameSet establishes an identity's display name.
	// First write wins per wallet; later duplicates are ignored by the index.
	TypeUsernameSet RecordType = "username_set"
	// TypeBioSet sets an identity's profile bio.
	TypeBioSet RecordType = "profile_bio_set"
	// TypeAvatarSet sets an identity's profile picture reference.
	TypeAvatarSet RecordType = "profile_picture_set"
	// TypePost is a top-level post.
	TypePost RecordType = "post"
	// TypePostComment is a reply to an existing post; ParentPost holds
	// the target's signature.
	TypePostComment RecordType = "post_comment"
)

// Record is one immutable ledger entry. Field order matches the wire
// format: one JSON object per line.
type Record struct {
	TxSig      string     `json:"tx_sig"`
	Wallet     string     `json:"wallet"`
	Protocol   string     `json:"protocol"`
	Type       RecordType `json:"type"`
	Text       string     `json:"text"`
	Timestamp  int64      `json:"timestamp"`
	ParentPost string     `json:"parent_post,omitempty"`
}

// Signature builds a record signature from a timestamp and the record's
// ordinal position at write time. Signatures are never reused: the
// ordinal grows with the ledger and the timestamp varies per write.
func Signature(timestamp int64, ordinal int) string {
	return fmt.Sprintf("sim_%d_%d", timestamp, ordinal)
}
