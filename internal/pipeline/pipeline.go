// Package pipeline produces identity attributes and content by calling
// the external generators.
//
// Every mint operation is one bounded attempt against an unreliable
// backend. Failures come back as plain errors together with an exported
// fallback (DefaultBio, DefaultDraft, NameRequest.Fallback, ...); the
// caller logs the reason and substitutes the fallback, so nothing past
// this boundary ever fails. Keeping the substitution in the caller keeps
// failure reasons inspectable instead of hiding them in a catch-all.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/twirvo/revival/internal/imagegen"
	"github.com/twirvo/revival/internal/ledger"
	"github.com/twirvo/revival/internal/textgen"
)

// replyProbability is the chance a content cycle attempts a reply to an
// existing post instead of a fresh post.
const replyProbability = 0.30

// Output bounds. Handles shorter than minHandleLen after cleaning are
// rejected as conversational filler.
const (
	maxHandleLen  = 15
	minHandleLen  = 4
	maxBioLen     = 100
	maxContentLen = 200
)

// Fixed fallback values.
const (
	// DefaultBio is the bio used when generation fails.
	DefaultBio = "Resurrecting utilities and building the future. ⚡"
	// DefaultAvatarFile is the pre-provisioned avatar served when
	// rendering fails. It is never written by this process.
	DefaultAvatarFile = "default_SH_SU_PFP.png"

	fillerPost = "Building a brighter future on-chain! ⚡"
)

// Default avatar storage convention: files land in avatarDir, the ledger
// references them by link prefix + filename.
const (
	defaultAvatarDir    = "public/simulated_user_pfps"
	defaultAvatarPrefix = "/simulated_user_pfps/"
)

// Prompt preambles. The models used here narrate freely unless told not
// to; the STRICT RULE framing is what keeps payloads machine-usable.
const (
	namePreamble = "STRICT RULE: Output ONLY the username. DO NOT provide thoughts. " +
		"DO NOT say 'Okay' or 'Here is'. DO NOT use 'Solana' as a prefix. Just the handle."
	bioPreamble = "STRICT RULE: Output ONLY the bio text. NO intro, NO conversational filler, " +
		"NO thought process."
	contentPreamble = "STRICT RULE: Respond ONLY with the post content inside curly brackets {}. " +
		"NO narration. NO side-talk."
)

// ErrUnusableHandle reports a name completion that cleaned down to
// conversational filler.
var ErrUnusableHandle = errors.New("unusable handle after cleaning")

// ErrEmptyPayload reports a content completion that extracted to nothing.
var ErrEmptyPayload = errors.New("empty payload after extraction")

// RecencySet is the membership view the pipeline needs of a recency
// window. Windows are owned by the scheduler and passed in by parameter.
type RecencySet interface {
	Remember(item string)
	Contains(item string) bool
}

// Draft is the content outcome of one cycle: a post or a reply, ready to
// be committed as a ledger record.
type Draft struct {
	Kind   ledger.RecordType
	Text   string
	Parent string // post_comment only: target signature
}

// DefaultDraft returns the fixed optimistic filler post used when
// content generation fails entirely.
func DefaultDraft() Draft {
	return Draft{Kind: ledger.TypePost, Text: fillerPost}
}

// Pipeline drives the external generators. One instance serves the whole
// process; it holds no per-cycle state.
type Pipeline struct {
	text    textgen.Client
	image   imagegen.Client
	catalog *Catalog
	rng     *rand.Rand

	avatarDir    string
	avatarPrefix string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCatalog replaces the stock creative material.
func WithCatalog(c *Catalog) Option {
	return func(p *Pipeline) { p.catalog = c }
}

// WithAvatarStorage overrides where avatar files are written and the
// link prefix recorded in the ledger.
func WithAvatarStorage(dir, prefix string) Option {
	return func(p *Pipeline) {
		p.avatarDir = dir
		p.avatarPrefix = prefix
	}
}

// New creates a pipeline over the given generator clients. rng is the
// pipeline's only randomness source; inject a seeded one for
// deterministic tests.
func New(text textgen.Client, image imagegen.Client, rng *rand.Rand, opts ...Option) *Pipeline {
	p := &Pipeline{
		text:         text,
		image:        image,
		catalog:      DefaultCatalog(),
		rng:          rng,
		avatarDir:    defaultAvatarDir,
		avatarPrefix: defaultAvatarPrefix,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NameRequest carries the inputs of one name mint: the random seed and
// the base handle the prompt is built around. The base doubles as the
// fallback, so a failed mint still yields a seed-derived name.
type NameRequest struct {
	Seed string
	Base string
}

// NewNameRequest draws a random base handle from the catalog for seed.
func (p *Pipeline) NewNameRequest(seed string) NameRequest {
	base := p.catalog.NamePrefixes[p.rng.IntN(len(p.catalog.NamePrefixes))] +
		p.catalog.NameSuffixes[p.rng.IntN(len(p.catalog.NameSuffixes))]
	return NameRequest{Seed: seed, Base: base}
}

// Fallback returns the deterministic seed-derived handle.
func (r NameRequest) Fallback() string {
	return truncate(r.Base+"_"+truncate(r.Seed, 2), maxHandleLen)
}

// MintName requests a short display name. The result contains only
// alphanumerics and underscores, is at least minHandleLen and at most
// maxHandleLen characters. Responses that clean down to less are
// rejected with ErrUnusableHandle.
func (p *Pipeline) MintName(ctx context.Context, req NameRequest) (string, error) {
	prompt := fmt.Sprintf(
		"%s Using seed '%s', generate ONE unique, short, optimistic hacker handle based on the idea '%s'.",
		namePreamble, truncate(req.Seed, 3), req.Base,
	)
	res, err := p.text.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("mint name: %w", err)
	}
	clean := cleanHandle(res)
	if len(clean) < minHandleLen {
		return "", fmt.Errorf("mint name %q: %w", clean, ErrUnusableHandle)
	}
	return truncate(clean, maxHandleLen), nil
}

// MintBio requests a one-sentence first-person bio for name, bounded to
// maxBioLen characters.
func (p *Pipeline) MintBio(ctx context.Context, name string) (string, error) {
	prompt := fmt.Sprintf(
		"%s Write an optimistic 1-sentence bio for %s (Solana hackathon dev). "+
			"Focus on resurrecting code. Max 80 characters.",
		bioPreamble, name,
	)
	res, err := p.text.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("mint bio: %w", err)
	}
	clean := cleanBio(res)
	if clean == "" {
		return "", fmt.Errorf("mint bio: %w", ErrEmptyPayload)
	}
	return truncate(clean, maxBioLen), nil
}

// MintAvatar renders a profile picture for name, writes it under the
// avatar directory, and returns the reference path recorded in the
// ledger. The file is written on success only; on failure nothing is
// persisted and the caller substitutes DefaultAvatarRef.
func (p *Pipeline) MintAvatar(ctx context.Context, name string, now time.Time) (string, error) {
	scene := p.catalog.Scenes[p.rng.IntN(len(p.catalog.Scenes))]
	prompt := fmt.Sprintf("%s, %s, %s", p.catalog.StylePrefix, scene, p.catalog.StyleSuffix)

	data, err := p.image.Render(ctx, prompt, p.catalog.NegativePrompt)
	if err != nil {
		return "", fmt.Errorf("mint avatar: %w", err)
	}

	if err := os.MkdirAll(p.avatarDir, 0o755); err != nil {
		return "", fmt.Errorf("mint avatar: %w", err)
	}
	filename := fmt.Sprintf("pfp_%s_%s.png", name, now.Format("150405"))
	if err := os.WriteFile(filepath.Join(p.avatarDir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("mint avatar: %w", err)
	}
	return p.avatarPrefix + filename, nil
}

// DefaultAvatarRef returns the reference path of the pre-provisioned
// fallback avatar.
func (p *Pipeline) DefaultAvatarRef() string {
	return p.avatarPrefix + DefaultAvatarFile
}

// MintContent decides between replying and posting and produces the
// cycle's draft.
//
// With probability replyProbability it attempts reply mode: draw a post
// from the ledger that is not in the reply-target window. No candidate,
// or a failed draw, falls through to post mode; reply mode never
// fabricates a parent. The chosen candidate enters the window before the
// generation call, so a failed generation still retires the target for a
// while.
//
// Generation failures are returned to the caller, which substitutes
// DefaultDraft.
func (p *Pipeline) MintContent(ctx context.Context, store *ledger.Store, replyTargets RecencySet) (Draft, error) {
	if p.rng.Float64() < replyProbability {
		candidate, ok := p.drawReplyTarget(store, replyTargets)
		if ok {
			replyTargets.Remember(candidate.TxSig)
			prompt := fmt.Sprintf(
				"%s Write a friendly, optimistic, short reply to: '%s'. "+
					"Focus on building together. MAX 150 CHARS. Wrap in {}.",
				contentPreamble, candidate.Text,
			)
			res, err := p.text.Generate(ctx, prompt)
			if err != nil {
				return Draft{}, fmt.Errorf("mint reply: %w", err)
			}
			text := truncate(extractPayload(res), maxContentLen)
			if text == "" {
				return Draft{}, fmt.Errorf("mint reply: %w", ErrEmptyPayload)
			}
			return Draft{Kind: ledger.TypePostComment, Text: text, Parent: candidate.TxSig}, nil
		}
	}

	topic := p.catalog.Topics[p.rng.IntN(len(p.catalog.Topics))]
	prompt := fmt.Sprintf(
		"%s %s Keep it gritty but EXTREMELY OPTIMISTIC. MAX 150 CHARS. Wrap in {}. No hashtags.",
		contentPreamble, topic,
	)
	res, err := p.text.Generate(ctx, prompt)
	if err != nil {
		return Draft{}, fmt.Errorf("mint post: %w", err)
	}
	text := truncate(extractPayload(res), maxContentLen)
	if text == "" {
		return Draft{}, fmt.Errorf("mint post: %w", ErrEmptyPayload)
	}
	return Draft{Kind: ledger.TypePost, Text: text}, nil
}

// drawReplyTarget picks a uniform random post not present in the
// reply-target window. A scan error is treated as "no candidate": the
// draw fails open into post mode rather than failing the cycle.
func (p *Pipeline) drawReplyTarget(store *ledger.Store, replyTargets RecencySet) (ledger.Record, bool) {
	posts, err := store.Posts(replyTargets.Contains)
	if err != nil || len(posts) == 0 {
		return ledger.Record{}, false
	}
	return posts[p.rng.IntN(len(posts))], true
}
