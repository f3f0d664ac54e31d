// Package main provides the CLI entrypoint for nihongo.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/thuan734655/all-tools-nihongo/internal/config"
	"github.com/thuan734655/all-tools-nihongo/internal/queue"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"
	"github.com/thuan734655/all-tools-nihongo/internal/store"
)

const (
	defaultXPCorrect   = 10
	defaultXPIncorrect = 2
	defaultCurveWindow = 10
	defaultLeechTop    = 10
)

var verbose bool

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "nihongo",
		Short:             "Spaced-repetition Japanese flashcards",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")

	rootCmd.AddCommand(newReviewCmd())
	rootCmd.AddCommand(newDueCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRemindCmd())

	return rootCmd
}

// setup loads a .env file from the working directory, if any, so NIHONGO_DB
// and NIHONGO_CONFIG can be set per project, and installs the logger.
func setup(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func openStore() (*store.Store, func(), error) {
	path := config.DefaultDBPath()
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	slog.Debug("opened db", "path", path)
	closeFn := func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	return st, closeFn, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# nihongo configuration
# Uncomment a value to enable it. CLI flags override config values.

[study]
# new-cards = %d              # New cards introduced per day
# reviews = %d               # Due reviews per day
# interleave = %d              # Reviews shown between two new cards
# lapse-interval-days = %.4f  # Interval after "again" (default 10 minutes)
# starting-ease = %.1f         # Ease factor of a new card
# lookahead-hours = 0.0       # Also review cards due within this many hours
# xp-correct = %d             # XP for a good or easy grade
# xp-incorrect = %d            # XP for an again or hard grade
# typed = false               # Type the answer instead of flipping

# Per-deck overrides use the same keys.
# [decks.n5]
# new-cards = 10
`,
		queue.DefaultNewCardCap,
		queue.DefaultReviewCap,
		queue.DefaultInterleaveRatio,
		srs.DefaultLapseIntervalDays,
		srs.DefaultEaseFactor,
		defaultXPCorrect,
		defaultXPIncorrect,
	)
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
