package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/thuan734655/all-tools-nihongo/internal/config"
	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/queue"
	"github.com/thuan734655/all-tools-nihongo/internal/session"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"
	"github.com/thuan734655/all-tools-nihongo/internal/stats"
	"github.com/thuan734655/all-tools-nihongo/internal/store"
	"github.com/thuan734655/all-tools-nihongo/internal/tui"
)

// studyFlags holds the queue flags shared by review and due.
type studyFlags struct {
	deck       string
	newCards   int
	reviews    int
	interleave int
	lookahead  float64
	typed      bool
	plain      bool
}

var (
	reviewFlags studyFlags
	dueFlags    studyFlags
)

func bindStudyFlags(cmd *cobra.Command, f *studyFlags) {
	cmd.Flags().StringVar(&f.deck, "deck", "", "deck name (default: all decks)")
	cmd.Flags().IntVar(&f.newCards, "new", queue.DefaultNewCardCap, "new cards per day")
	cmd.Flags().IntVar(&f.reviews, "reviews", queue.DefaultReviewCap, "due reviews per day")
	cmd.Flags().IntVar(&f.interleave, "interleave", queue.DefaultInterleaveRatio, "reviews shown between two new cards")
	cmd.Flags().Float64Var(&f.lookahead, "lookahead-hours", 0, "include cards due within this many hours")
}

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Study due and new cards",
		Args:  cobra.NoArgs,
		RunE:  runReviewCmd,
	}
	bindStudyFlags(cmd, &reviewFlags)
	cmd.Flags().BoolVar(&reviewFlags.typed, "typed", false, "type the answer instead of flipping the card")
	cmd.Flags().BoolVar(&reviewFlags.plain, "plain", false, "use line prompts even on a terminal")
	return cmd
}

func newDueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List the cards the next review would show",
		Args:  cobra.NoArgs,
		RunE:  runDueCmd,
	}
	bindStudyFlags(cmd, &dueFlags)
	return cmd
}

// resolveStudyConfig merges the config file under the command-line flags.
func resolveStudyConfig(cmd *cobra.Command, f *studyFlags) (model.StudyConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.StudyConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	study := fileCfg.ForDeck(f.deck)
	applyIntConfig(cmd, "new", &f.newCards, study.NewCards)
	applyIntConfig(cmd, "reviews", &f.reviews, study.Reviews)
	applyIntConfig(cmd, "interleave", &f.interleave, study.Interleave)
	applyFloatConfig(cmd, "lookahead-hours", &f.lookahead, study.LookaheadHours)
	if cmd.Flags().Lookup("typed") != nil {
		applyBoolConfig(cmd, "typed", &f.typed, study.Typed)
	}

	cfg := model.StudyConfig{
		Deck:        f.deck,
		NewCards:    f.newCards,
		Reviews:     f.reviews,
		Interleave:  f.interleave,
		Lookahead:   time.Duration(f.lookahead * float64(time.Hour)),
		XPCorrect:   defaultXPCorrect,
		XPIncorrect: defaultXPIncorrect,
		Typed:       f.typed,
	}
	// Zero in cfg means "use the policy default", so explicit values are
	// checked before they are copied.
	if v := study.LapseIntervalDays; v != nil {
		if !(*v > 0) {
			return model.StudyConfig{}, fmt.Errorf("lapse-interval-days must be > 0, got %v", *v)
		}
		cfg.LapseIntervalDays = *v
	}
	if v := study.StartingEase; v != nil {
		if !(*v >= srs.MinEaseFactor) {
			return model.StudyConfig{}, fmt.Errorf("starting-ease must be >= %.1f, got %v", srs.MinEaseFactor, *v)
		}
		cfg.StartingEase = *v
	}
	if study.XPCorrect != nil {
		cfg.XPCorrect = *study.XPCorrect
	}
	if study.XPIncorrect != nil {
		cfg.XPIncorrect = *study.XPIncorrect
	}
	if err := validateStudyConfig(cfg); err != nil {
		return model.StudyConfig{}, err
	}
	return cfg, nil
}

func validateStudyConfig(cfg model.StudyConfig) error {
	if cfg.NewCards < 0 {
		return fmt.Errorf("--new must be >= 0")
	}
	if cfg.Reviews < 0 {
		return fmt.Errorf("--reviews must be >= 0")
	}
	if cfg.Interleave < 0 {
		return fmt.Errorf("--interleave must be >= 0")
	}
	if cfg.Lookahead < 0 {
		return fmt.Errorf("--lookahead-hours must be >= 0")
	}
	if cfg.LapseIntervalDays < 0 {
		return fmt.Errorf("lapse-interval-days must be > 0")
	}
	if cfg.StartingEase != 0 && cfg.StartingEase < srs.MinEaseFactor {
		return fmt.Errorf("starting-ease must be >= %.1f", srs.MinEaseFactor)
	}
	if cfg.XPCorrect < 0 || cfg.XPIncorrect < 0 {
		return fmt.Errorf("xp values must be >= 0")
	}
	return nil
}

// studyPlan is a built queue together with what is needed to run it.
type studyPlan struct {
	policy    *srs.Policy
	schedules []srs.Schedule
	queue     queue.Queue
	items     map[string]model.Item

	// What is left of the daily caps before this queue.
	newLeft     int
	reviewsLeft int
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dailyBudget returns the caps minus the cards already studied on the local
// day of now.
func dailyBudget(ctx context.Context, st *store.Store, cfg model.StudyConfig, now time.Time) (newLeft, reviewsLeft int, err error) {
	from := startOfDay(now)
	news, reviews, err := st.CountStudied(ctx, cfg.Deck, from, from.AddDate(0, 0, 1))
	if err != nil {
		return 0, 0, err
	}
	return max(0, cfg.NewCards-news), max(0, cfg.Reviews-reviews), nil
}

func buildPlan(ctx context.Context, st *store.Store, cfg model.StudyConfig, now time.Time) (studyPlan, error) {
	policy, err := srs.NewPolicy(srs.PolicyConfig{
		LapseIntervalDays:  cfg.LapseIntervalDays,
		StartingEaseFactor: cfg.StartingEase,
	})
	if err != nil {
		return studyPlan{}, err
	}
	schedules, err := st.LoadSchedules(ctx, cfg.Deck, func(itemID string) srs.Schedule {
		return policy.NewSchedule(itemID, now)
	})
	if err != nil {
		return studyPlan{}, err
	}
	newLeft, reviewsLeft, err := dailyBudget(ctx, st, cfg, now)
	if err != nil {
		return studyPlan{}, err
	}
	q, err := queue.Build(schedules, now, queue.Options{
		NewCardCap:      newLeft,
		ReviewCap:       reviewsLeft,
		InterleaveRatio: cfg.Interleave,
		Lookahead:       cfg.Lookahead,
	})
	if err != nil {
		return studyPlan{}, err
	}
	list, err := st.ListItems(ctx, cfg.Deck)
	if err != nil {
		return studyPlan{}, err
	}
	items := make(map[string]model.Item, len(list))
	for _, it := range list {
		items[it.ID] = it
	}
	return studyPlan{
		policy:      policy,
		schedules:   schedules,
		queue:       q,
		items:       items,
		newLeft:     newLeft,
		reviewsLeft: reviewsLeft,
	}, nil
}

func runReviewCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveStudyConfig(cmd, &reviewFlags)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	plan, err := buildPlan(ctx, st, cfg, time.Now())
	if err != nil {
		return err
	}
	runner := session.New(plan.policy, plan.schedules,
		session.WithXP(session.FlatXP(cfg.XPCorrect, cfg.XPIncorrect)))
	if err := runner.Start(plan.queue); err != nil {
		if errors.Is(err, srs.ErrEmptyQueue) {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Nothing due today. Import cards or raise the daily caps.")
			return err
		}
		return err
	}
	reviews, news := plan.queue.Counts()
	slog.Debug("session started", "deck", cfg.Deck, "reviews", reviews, "new", news)

	review := &tui.Review{
		Runner: runner,
		Policy: plan.policy,
		Items:  plan.items,
		Saver:  st,
		Typed:  cfg.Typed,
		Now:    time.Now,
	}
	var runErr error
	if !reviewFlags.plain && isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		runErr = runTUI(ctx, review)
	} else {
		runErr = tui.RunLines(ctx, review, cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return recordSession(ctx, st, cfg.Deck, runner, runErr, cmd.OutOrStdout())
}

func runTUI(ctx context.Context, review *tui.Review) error {
	m := tui.NewModel(ctx, review)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return m.Err()
}

// recordSession stores what was graded even when the front-end stopped on an
// interrupt or an error, then returns that error. An interrupt is not one.
func recordSession(ctx context.Context, st *store.Store, deck string, runner *session.Runner, runErr error, w io.Writer) error {
	if errors.Is(runErr, context.Canceled) {
		logErrln("Interrupted.")
		runErr = nil
	}
	if err := finishSession(context.WithoutCancel(ctx), st, deck, runner, w); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// finishSession records the session, complete or not, and prints its summary.
func finishSession(ctx context.Context, st *store.Store, deck string, runner *session.Runner, w io.Writer) error {
	res, err := runner.Stats()
	if err != nil {
		return err
	}
	if res.Reviewed == 0 {
		_, err := fmt.Fprintln(w, "No cards reviewed.")
		return err
	}
	ended := res.EndedAt
	if ended.IsZero() {
		ended = time.Now()
	}
	rec := model.SessionRecord{
		Deck:      deck,
		StartedAt: res.StartedAt,
		EndedAt:   ended,
		Reviewed:  res.Reviewed,
		Correct:   res.Correct,
		XP:        res.XPEarned,
	}
	id, err := st.InsertSession(ctx, rec)
	if err != nil {
		return err
	}
	rec.ID = id
	slog.Debug("session saved", "id", id, "reviewed", rec.Reviewed)

	sessions, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		return err
	}
	return stats.RenderSummary(w, []model.SessionRecord{rec}, stats.Streak(sessions, time.Now()))
}

func runDueCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveStudyConfig(cmd, &dueFlags)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	now := time.Now()
	plan, err := buildPlan(cmd.Context(), st, cfg, now)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	reviews, news := plan.queue.Counts()
	if _, err := fmt.Fprintf(w, "Due: %d reviews, %d new\n", reviews, news); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Left today: %d reviews, %d new\n", plan.reviewsLeft, plan.newLeft); err != nil {
		return err
	}
	if len(plan.queue) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return stats.RenderQueue(w, plan.queue, plan.items, now)
}
