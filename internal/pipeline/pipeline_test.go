package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twirvo/revival/internal/ledger"
	"github.com/twirvo/revival/internal/testutil"
)

// fakeWindow is a minimal RecencySet for pipeline tests; the real
// bounded window lives in the engine package.
type fakeWindow struct {
	items map[string]bool
}

func newFakeWindow() *fakeWindow { return &fakeWindow{items: map[string]bool{}} }

func (w *fakeWindow) Remember(item string)      { w.items[item] = true }
func (w *fakeWindow) Contains(item string) bool { return w.items[item] }

// zeroThenRandom forces the first draws to zero (reply mode, first
// pick), then hands off to a real PCG so later draws cannot loop.
type zeroThenRandom struct {
	zeros int
	tail  *rand.PCG
}

func (s *zeroThenRandom) Uint64() uint64 {
	if s.zeros > 0 {
		s.zeros--
		return 0
	}
	return s.tail.Uint64()
}

func newPipeline(text *testutil.ScriptedText, image *testutil.ScriptedImage, src rand.Source, dir string) *Pipeline {
	return New(text, image, rand.New(src), WithAvatarStorage(dir, "/pfp/"))
}

func emptyStore(t *testing.T) *ledger.Store {
	t.Helper()
	return ledger.Open(filepath.Join(t.TempDir(), "ledger.txt"))
}

func appendPost(t *testing.T, store *ledger.Store, sig, text string) {
	t.Helper()
	require.NoError(t, store.Append(ledger.Record{
		TxSig: sig, Wallet: "walletA", Protocol: ledger.Protocol,
		Type: ledger.TypePost, Text: text, Timestamp: 1000,
	}))
}

func TestMintName(t *testing.T) {
	text := &testutil.ScriptedText{Responses: []string{"Okay, here you go: NeonWeaverOfTheEternalChain"}}
	p := newPipeline(text, &testutil.ScriptedImage{}, rand.NewPCG(1, 2), t.TempDir())

	req := p.NewNameRequest("abcde")
	name, err := p.MintName(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "NeonWeaverOfThe", name, "truncated to 15 characters")
	assert.LessOrEqual(t, len(name), 15)

	prompts := text.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "'abc'", "prompt carries the seed prefix")
	assert.Contains(t, prompts[0], req.Base)
}

func TestMintName_RejectsFiller(t *testing.T) {
	text := &testutil.ScriptedText{Responses: []string{"ok!"}}
	p := newPipeline(text, &testutil.ScriptedImage{}, rand.NewPCG(1, 2), t.TempDir())

	_, err := p.MintName(context.Background(), p.NewNameRequest("abcde"))
	assert.ErrorIs(t, err, ErrUnusableHandle)
}

func TestMintName_BackendFailure(t *testing.T) {
	text := &testutil.ScriptedText{Err: errors.New("timeout")}
	p := newPipeline(text, &testutil.ScriptedImage{}, rand.NewPCG(1, 2), t.TempDir())

	req := p.NewNameRequest("qwxyz")
	_, err := p.MintName(context.Background(), req)
	require.Error(t, err)

	fallback := req.Fallback()
	assert.True(t, strings.HasPrefix(fallback, req.Base) || len(fallback) == 15,
		"fallback derives from the base handle")
	assert.True(t, strings.HasSuffix(fallback, "_qw") || len(fallback) == 15)
	assert.NotEmpty(t, fallback)
	assert.LessOrEqual(t, len(fallback), 15)
}

func TestMintBio(t *testing.T) {
	text := &testutil.ScriptedText{Responses: []string{"\"Resurrecting one repo at a time.\"\nextra narration"}}
	p := newPipeline(text, &testutil.ScriptedImage{}, rand.NewPCG(1, 2), t.TempDir())

	bio, err := p.MintBio(context.Background(), "NeonWeaver")
	require.NoError(t, err)
	assert.Equal(t, "Resurrecting one repo at a time.", bio)
	assert.Contains(t, text.Prompts()[0], "NeonWeaver")
}

func TestMintBio_TruncatesTo100(t *testing.T) {
	text := &testutil.ScriptedText{Responses: []string{strings.Repeat("b", 300)}}
	p := newPipeline(text, &testutil.ScriptedImage{}, rand.NewPCG(1, 2), t.TempDir())

	bio, err := p.MintBio(context.Background(), "n")
	require.NoError(t, err)
	assert.Len(t, []rune(bio), 100)
}

func TestMintAvatar(t *testing.T) {
	dir := t.TempDir()
	image := &testutil.ScriptedImage{Data: []byte{0x89, 'P', 'N', 'G'}}
	p := newPipeline(&testutil.ScriptedText{}, image, rand.NewPCG(1, 2), dir)

	now := time.Date(2024, 3, 15, 9, 8, 7, 0, time.UTC)
	ref, err := p.MintAvatar(context.Background(), "NeonWeaver", now)
	require.NoError(t, err)
	assert.Equal(t, "/pfp/pfp_NeonWeaver_090807.png", ref)

	data, err := os.ReadFile(filepath.Join(dir, "pfp_NeonWeaver_090807.png"))
	require.NoError(t, err)
	assert.Equal(t, image.Data, data)
}

func TestMintAvatar_FailureWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pfps")
	image := &testutil.ScriptedImage{Err: errors.New("render failed")}
	p := newPipeline(&testutil.ScriptedText{}, image, rand.NewPCG(1, 2), dir)

	_, err := p.MintAvatar(context.Background(), "NeonWeaver", time.Now())
	require.Error(t, err)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "no file persisted on failure")
	assert.Equal(t, "/pfp/"+DefaultAvatarFile, p.DefaultAvatarRef())
}

func TestMintContent_EmptyStoreAlwaysPosts(t *testing.T) {
	text := &testutil.ScriptedText{Responses: []string{"{Building in the open!}"}}
	// Force the reply draw to trigger: with no posts it must fall
	// through to post mode.
	src := &zeroThenRandom{zeros: 1, tail: rand.NewPCG(1, 2)}
	p := newPipeline(text, &testutil.ScriptedImage{}, src, t.TempDir())

	draft, err := p.MintContent(context.Background(), emptyStore(t), newFakeWindow())
	require.NoError(t, err)
	assert.Equal(t, ledger.TypePost, draft.Kind)
	assert.Equal(t, "Building in the open!", draft.Text)
	assert.Empty(t, draft.Parent)
}

func TestMintContent_ReplyMode(t *testing.T) {
	store := emptyStore(t)
	appendPost(t, store, "sim_1000_0", "just shipped a fix")

	text := &testutil.ScriptedText{Responses: []string{"{Huge! Let's keep building.}"}}
	src := &zeroThenRandom{zeros: 2, tail: rand.NewPCG(1, 2)}
	p := newPipeline(text, &testutil.ScriptedImage{}, src, t.TempDir())

	window := newFakeWindow()
	draft, err := p.MintContent(context.Background(), store, window)
	require.NoError(t, err)
	assert.Equal(t, ledger.TypePostComment, draft.Kind)
	assert.Equal(t, "Huge! Let's keep building.", draft.Text)
	assert.Equal(t, "sim_1000_0", draft.Parent)
	assert.True(t, window.Contains("sim_1000_0"), "target retired into the window before generation")
	assert.Contains(t, text.Prompts()[0], "just shipped a fix")
}

func TestMintContent_ExcludedTargetFallsThroughToPost(t *testing.T) {
	store := emptyStore(t)
	appendPost(t, store, "sim_1000_0", "already replied to")

	text := &testutil.ScriptedText{Responses: []string{"{Fresh post instead}"}}
	src := &zeroThenRandom{zeros: 1, tail: rand.NewPCG(1, 2)}
	p := newPipeline(text, &testutil.ScriptedImage{}, src, t.TempDir())

	window := newFakeWindow()
	window.Remember("sim_1000_0")

	draft, err := p.MintContent(context.Background(), store, window)
	require.NoError(t, err)
	assert.Equal(t, ledger.TypePost, draft.Kind)
	assert.Empty(t, draft.Parent)
}

func TestMintContent_TruncatesTo200(t *testing.T) {
	text := &testutil.ScriptedText{Responses: []string{"{" + strings.Repeat("x", 400) + "}"}}
	src := &zeroThenRandom{zeros: 0, tail: rand.NewPCG(1, 2)}
	p := newPipeline(text, &testutil.ScriptedImage{}, src, t.TempDir())

	draft, err := p.MintContent(context.Background(), emptyStore(t), newFakeWindow())
	require.NoError(t, err)
	assert.Len(t, []rune(draft.Text), 200)
	assert.NotEmpty(t, draft.Text)
}

func TestMintContent_BackendFailureReturnsError(t *testing.T) {
	text := &testutil.ScriptedText{Err: errors.New("unreachable")}
	p := newPipeline(text, &testutil.ScriptedImage{}, rand.NewPCG(1, 2), t.TempDir())

	_, err := p.MintContent(context.Background(), emptyStore(t), newFakeWindow())
	require.Error(t, err)

	// The caller substitutes the fixed filler; it satisfies the bounds.
	d := DefaultDraft()
	assert.Equal(t, ledger.TypePost, d.Kind)
	assert.NotEmpty(t, d.Text)
	assert.LessOrEqual(t, len([]rune(d.Text)), 200)
	assert.Empty(t, d.Parent)
}

func TestMintContent_EmptyBracesIsError(t *testing.T) {
	text := &testutil.ScriptedText{Responses: []string{"{}"}}
	src := &zeroThenRandom{zeros: 0, tail: rand.NewPCG(1, 2)}
	p := newPipeline(text, &testutil.ScriptedImage{}, src, t.TempDir())

	_, err := p.MintContent(context.Background(), emptyStore(t), newFakeWindow())
	assert.ErrorIs(t, err, ErrEmptyPayload)
}
