package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thuan734655/all-tools-nihongo/internal/deck"
	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/reminder"
	"github.com/thuan734655/all-tools-nihongo/internal/stats"
)

var (
	importDeck  string
	importSheet string

	statsDeck        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsLeeches     int

	remindDeck      string
	remindEvery     time.Duration
	remindStartHour int
	remindEndHour   int
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import cards from a tsv, csv or xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importDeck, "deck", "", "deck to import into")
	cmd.Flags().StringVar(&importSheet, "sheet", "", "xlsx worksheet (default: first sheet)")
	_ = cmd.MarkFlagRequired("deck")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	res, err := deck.Load(args[0], deck.Options{Deck: importDeck, Sheet: importSheet})
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := st.UpsertItems(cmd.Context(), res.Items)
	if err != nil {
		return err
	}
	if res.Skipped > 0 {
		logErrf("Skipped %d rows without a card or repeated in the file\n", res.Skipped)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d cards into %s\n", n, importDeck)
	return err
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsDeck, "deck", "", "deck filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().IntVar(&statsLeeches, "leeches", defaultLeechTop, "number of leeches to list (0 hides them)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}
	if statsLeeches < 0 {
		return fmt.Errorf("--leeches must be >= 0")
	}

	cfg := model.StatsConfig{
		Deck:        statsDeck,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Leeches:     statsLeeches,
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := stats.BuildReport(cmd.Context(), st, cfg, time.Now())
	if err != nil {
		return err
	}
	return stats.Render(cmd.OutOrStdout(), report, cfg.CurveWindow)
}

func newRemindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Print a reminder whenever cards are due, until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runRemindCmd,
	}
	cmd.Flags().StringVar(&remindDeck, "deck", "", "deck filter")
	cmd.Flags().DurationVar(&remindEvery, "every", time.Hour, "check interval")
	cmd.Flags().IntVar(&remindStartHour, "start-hour", 0, "first hour reminders are sent (0-23)")
	cmd.Flags().IntVar(&remindEndHour, "end-hour", 0, "last hour reminders are sent (0-23)")
	return cmd
}

func runRemindCmd(cmd *cobra.Command, _ []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	sched, err := reminder.New(st, reminder.WriterNotifier{W: cmd.OutOrStdout()}, reminder.Options{
		Deck:      remindDeck,
		Every:     remindEvery,
		StartHour: remindStartHour,
		EndHour:   remindEndHour,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logErrln("Watching for due cards. Press Ctrl+C to stop.")
	return sched.Run(ctx)
}
