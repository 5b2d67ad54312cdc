package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/twirvo/revival/internal/identity"
	"github.com/twirvo/revival/internal/ledger"
	"github.com/twirvo/revival/internal/pipeline"
)

// reuseProbability is the chance a cycle reuses a known identity when
// one is available outside the recency window.
const reuseProbability = 0.45

// Recency window capacities. The identity window keeps the same actor
// from posting back-to-back; the reply-target window keeps the same post
// from collecting a pile of replies in a short span.
const (
	identityWindowCap = 10
	replyWindowCap    = 50
)

// Scheduler is the single-writer control loop. It owns the recency
// windows and is the only component that appends to the ledger.
type Scheduler struct {
	store  *ledger.Store
	pipe   *pipeline.Pipeline
	clock  TimeSource
	rng    *rand.Rand
	tokens CycleTokenGenerator
	logger *slog.Logger

	interval time.Duration

	identityWindow *Window
	replyWindow    *Window
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock replaces the wall-clock source.
func WithClock(clock TimeSource) SchedulerOption {
	return func(s *Scheduler) { s.clock = clock }
}

// WithTokenGenerator replaces the cycle token source.
func WithTokenGenerator(gen CycleTokenGenerator) SchedulerOption {
	return func(s *Scheduler) { s.tokens = gen }
}

// WithInterval sets the pause between cycles. Zero means back-to-back.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.interval = d }
}

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

// NewScheduler creates a scheduler over the given store and pipeline.
// rng is the scheduler's only randomness source; inject a seeded one for
// deterministic tests. The recency windows start empty: avoiding
// short-term repetition only matters within one running session, so they
// are deliberately not persisted.
func NewScheduler(store *ledger.Store, pipe *pipeline.Pipeline, rng *rand.Rand, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		store:          store,
		pipe:           pipe,
		clock:          SystemClock{},
		rng:            rng,
		tokens:         UUIDv7Generator{},
		logger:         slog.Default(),
		identityWindow: NewWindow(identityWindowCap),
		replyWindow:    NewWindow(replyWindowCap),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IdentityWindow exposes the identity recency window for inspection.
func (s *Scheduler) IdentityWindow() *Window { return s.identityWindow }

// ReplyWindow exposes the reply-target recency window for inspection.
func (s *Scheduler) ReplyWindow() *Window { return s.replyWindow }

// RunCycle executes one full cycle: select or mint an identity, generate
// content, and commit the records. Pipeline failures are absorbed here
// by their fallbacks; only ledger I/O errors make a cycle fail, and a
// failed append aborts the remaining writes of this cycle only.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	log := s.logger.With("cycle", s.tokens.Generate())

	userbase, err := identity.Rebuild(s.store)
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	available := make([]identity.Entry, 0, len(userbase))
	for _, e := range userbase {
		if !s.identityWindow.Contains(e.Wallet) {
			available = append(available, e)
		}
	}

	var wallet, username string
	if len(available) > 0 && s.rng.Float64() < reuseProbability {
		picked := available[s.rng.IntN(len(available))]
		wallet, username = picked.Wallet, picked.Username
		log.Info("reusing identity", "username", username, "wallet", wallet)
	} else {
		wallet, username, err = s.mintIdentity(ctx, log)
		if err != nil {
			return fmt.Errorf("run cycle: %w", err)
		}
	}
	s.identityWindow.Remember(wallet)

	draft, err := s.pipe.MintContent(ctx, s.store, s.replyWindow)
	if err != nil {
		log.Warn("content generation failed, using filler", "reason", err)
		draft = pipeline.DefaultDraft()
	}

	rec := ledger.Record{
		Wallet:     wallet,
		Protocol:   ledger.Protocol,
		Type:       draft.Kind,
		Text:       draft.Text,
		Timestamp:  JitteredTimestamp(s.clock, s.rng),
		ParentPost: draft.Parent,
	}
	if err := s.append(rec); err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}
	log.Info("committed content", "type", draft.Kind, "username", username, "parent", draft.Parent)
	return nil
}

// mintIdentity creates a fresh identity and writes its three profile
// records in strict order: username_set, profile_bio_set,
// profile_picture_set. The records share one jittered base timestamp
// offset by +0, +1, +2 logical ticks; each append recomputes its ordinal
// from the store at the moment of the write.
func (s *Scheduler) mintIdentity(ctx context.Context, log *slog.Logger) (wallet, username string, err error) {
	seed := identity.NewSeed(s.rng)
	req := s.pipe.NewNameRequest(seed)
	username, err = s.pipe.MintName(ctx, req)
	if err != nil {
		log.Warn("name generation failed, using fallback", "reason", err)
		username = req.Fallback()
	}
	wallet = identity.NewWallet(s.rng)
	base := JitteredTimestamp(s.clock, s.rng)

	if err := s.append(ledger.Record{
		Wallet: wallet, Protocol: ledger.Protocol,
		Type: ledger.TypeUsernameSet, Text: username, Timestamp: base,
	}); err != nil {
		return "", "", err
	}

	bio, err := s.pipe.MintBio(ctx, username)
	if err != nil {
		log.Warn("bio generation failed, using fallback", "reason", err)
		bio = pipeline.DefaultBio
	}
	if err := s.append(ledger.Record{
		Wallet: wallet, Protocol: ledger.Protocol,
		Type: ledger.TypeBioSet, Text: bio, Timestamp: base + 1,
	}); err != nil {
		return "", "", err
	}

	avatar, err := s.pipe.MintAvatar(ctx, username, s.clock.Now())
	if err != nil {
		log.Warn("avatar generation failed, using fallback", "reason", err)
		avatar = s.pipe.DefaultAvatarRef()
	}
	if err := s.append(ledger.Record{
		Wallet: wallet, Protocol: ledger.Protocol,
		Type: ledger.TypeAvatarSet, Text: avatar, Timestamp: base + 2,
	}); err != nil {
		return "", "", err
	}

	log.Info("minted identity", "username", username, "wallet", wallet)
	return wallet, username, nil
}

// append assigns the record's signature from its timestamp and the next
// ordinal, then writes it. Ordinals are read from the store at each
// write, never batched or pre-reserved.
func (s *Scheduler) append(rec ledger.Record) error {
	n, err := s.store.Count()
	if err != nil {
		return err
	}
	rec.TxSig = ledger.Signature(rec.Timestamp, n)
	return s.store.Append(rec)
}

// Run loops cycles until ctx is cancelled. A failed cycle is logged and
// the next one proceeds: the design goal is perpetual, low-maintenance
// operation even under flaky upstream services. Cancellation is only
// honored between cycles; an in-flight external call runs to its
// timeout.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("operator online", "ledger", s.store.Path(), "interval", s.interval)
	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("operator stopping: context cancelled")
			return err
		}
		if err := s.RunCycle(ctx); err != nil {
			s.logger.Error("cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.Info("operator stopping: context cancelled")
			return ctx.Err()
		case <-time.After(s.interval):
		}
	}
}
