package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/twirvo/revival/internal/config"
	"github.com/twirvo/revival/internal/engine"
	"github.com/twirvo/revival/internal/imagegen"
	"github.com/twirvo/revival/internal/ledger"
	"github.com/twirvo/revival/internal/pipeline"
	"github.com/twirvo/revival/internal/textgen"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the simulation loop",
		Long: `Start the revival operator: an unbounded loop that, once per cycle,
selects or mints an identity, generates a post or reply, and commits
the resulting records to the ledger.

The loop runs until interrupted. Generator failures are absorbed by
fallback content; only an unrecoverable ledger error fails a cycle,
and even that only skips to the next one.

Example:
  revival run
  revival run --config ./revival.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperator(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config (defaults apply when omitted)")

	return cmd
}

func runOperator(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	store := ledger.Open(cfg.LedgerPath)
	text := textgen.NewOllama(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Ollama.Timeout())
	image := imagegen.NewStableDiffusion(cfg.Image.URL, cfg.Image.Timeout())

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	pipe := pipeline.New(text, image, rng,
		pipeline.WithCatalog(cfg.BuildCatalog()),
		pipeline.WithAvatarStorage(cfg.AvatarDir, cfg.AvatarLinkPrefix),
	)
	sched := engine.NewScheduler(store, pipe, rng,
		engine.WithInterval(time.Duration(cfg.IntervalSeconds)*time.Second),
	)

	// Graceful shutdown between cycles on SIGINT/SIGTERM.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("operator starting", "ledger", cfg.LedgerPath, "model", cfg.Ollama.Model)
	fmt.Fprintln(cmd.OutOrStdout(), "Operator online. Committing to", cfg.LedgerPath)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "operator error", err)
	}

	slog.Info("operator stopped gracefully")
	return nil
}
