package ledger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "ledger.txt"))
}

func TestStore_AppendAndCount(t *testing.T) {
	s := tempStore(t)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n, "missing file reads as empty ledger")

	for i := 0; i < 3; i++ {
		rec := Record{
			TxSig:     Signature(int64(1000+i), i),
			Wallet:    "walletA",
			Protocol:  Protocol,
			Type:      TypePost,
			Text:      "hello",
			Timestamp: int64(1000 + i),
		}
		require.NoError(t, s.Append(rec))
	}

	n, err = s.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_CountIgnoresMalformedLines(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Append(Record{TxSig: "sim_1_0", Wallet: "w", Protocol: Protocol, Type: TypePost, Text: "a", Timestamp: 1}))

	// Pollute the file externally with junk between appends.
	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json at all\n{\"truncated\":\n\n42\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.Append(Record{TxSig: "sim_2_1", Wallet: "w", Protocol: Protocol, Type: TypePost, Text: "b", Timestamp: 2}))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n, "count matches successfully appended records regardless of injected junk")

	records, err := s.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "sim_1_0", records[0].TxSig)
	assert.Equal(t, "sim_2_1", records[1].TxSig)
}

func TestStore_CountIgnoresOversizedLines(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Append(Record{TxSig: "sim_1_0", Wallet: "w", Protocol: Protocol, Type: TypePost, Text: "a", Timestamp: 1}))

	// A single externally injected line past the scan bound. It must be
	// skipped like any other junk, not halt traversal.
	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write(append(bytes.Repeat([]byte{'x'}, 2<<20), '\n'))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.Append(Record{TxSig: "sim_2_1", Wallet: "w", Protocol: Protocol, Type: TypePost, Text: "b", Timestamp: 2}))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n, "count matches successfully appended records regardless of injected junk")

	records, err := s.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "sim_1_0", records[0].TxSig)
	assert.Equal(t, "sim_2_1", records[1].TxSig)
}

func TestStore_AppendRoundTrip(t *testing.T) {
	s := tempStore(t)

	want := Record{
		TxSig:      "sim_1723456789_7",
		Wallet:     "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		Protocol:   Protocol,
		Type:       TypePostComment,
		Text:       "love the neon glow of a confirmed tx",
		Timestamp:  1723456789,
		ParentPost: "sim_1723450000_2",
	}
	require.NoError(t, s.Append(want))

	records, err := s.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, want, records[0])
}

func TestStore_ScanIsRestartable(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Append(Record{TxSig: "sim_1_0", Wallet: "w", Protocol: Protocol, Type: TypePost, Text: "a", Timestamp: 1}))
	require.NoError(t, s.Append(Record{TxSig: "sim_2_1", Wallet: "w", Protocol: Protocol, Type: TypePost, Text: "b", Timestamp: 2}))

	for round := 0; round < 2; round++ {
		var sigs []string
		err := s.Scan(func(rec Record) bool {
			sigs = append(sigs, rec.TxSig)
			return true
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"sim_1_0", "sim_2_1"}, sigs)
	}
}

func TestStore_ScanStopsEarly(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Append(Record{TxSig: "sim_1_0", Wallet: "w", Protocol: Protocol, Type: TypePost, Text: "a", Timestamp: 1}))
	require.NoError(t, s.Append(Record{TxSig: "sim_2_1", Wallet: "w", Protocol: Protocol, Type: TypePost, Text: "b", Timestamp: 2}))

	seen := 0
	err := s.Scan(func(Record) bool {
		seen++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestStore_AppendCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "nested", "deeper", "ledger.txt"))

	require.NoError(t, s.Append(Record{TxSig: "sim_1_0", Wallet: "w", Protocol: Protocol, Type: TypePost, Text: "a", Timestamp: 1}))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_PostsFiltersTypeAndExclusions(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Append(Record{TxSig: "sim_1_0", Wallet: "w", Protocol: Protocol, Type: TypeUsernameSet, Text: "NeonWeaver", Timestamp: 1}))
	require.NoError(t, s.Append(Record{TxSig: "sim_2_1", Wallet: "w", Protocol: Protocol, Type: TypePost, Text: "first", Timestamp: 2}))
	require.NoError(t, s.Append(Record{TxSig: "sim_3_2", Wallet: "w", Protocol: Protocol, Type: TypePost, Text: "second", Timestamp: 3}))
	require.NoError(t, s.Append(Record{TxSig: "sim_4_3", Wallet: "w", Protocol: Protocol, Type: TypePostComment, Text: "reply", Timestamp: 4, ParentPost: "sim_2_1"}))

	posts, err := s.Posts(nil)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "sim_2_1", posts[0].TxSig)
	assert.Equal(t, "sim_3_2", posts[1].TxSig)

	posts, err = s.Posts(func(sig string) bool { return sig == "sim_2_1" })
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "sim_3_2", posts[0].TxSig)

	empty := Open(filepath.Join(t.TempDir(), "none.txt"))
	posts, err = empty.Posts(nil)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NotNil(t, posts)
}

func TestSignature(t *testing.T) {
	assert.Equal(t, "sim_1000_0", Signature(1000, 0))
	assert.Equal(t, "sim_-500_12", Signature(-500, 12), "jitter can push timestamps negative near epoch")
}
