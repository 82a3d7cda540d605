package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/triage-bridge/internal/findings"
	"github.com/scan-io-git/triage-bridge/internal/triage"
)

type RejectOptions struct {
	Choice string
}

var allRejectOptions RejectOptions

var execExampleReject = `  # Reject finding #42
  triage-bridge reject 42

  # Create a suppression rule for finding #42 and open it in the browser without prompting
  triage-bridge reject-forever 42 --choice view`

var rejectCmd = &cobra.Command{
	Use:     "reject ID",
	Short:   "Reject a finding",
	Example: execExampleReject,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTriage(cmd, args[0], func(e *triage.Engine, f findings.Finding) *triage.Task {
			return e.Reject(f)
		}, false)
	},
}

var rejectForeverCmd = &cobra.Command{
	Use:     "reject-forever ID [--choice view|ok]",
	Short:   "Suppress a finding with a rule unless an active rule already matches it",
	Example: execExampleReject,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTriage(cmd, args[0], func(e *triage.Engine, f findings.Finding) *triage.Task {
			return e.RejectForever(f)
		}, true)
	},
}

// runTriage fetches the finding, starts the action and waits for its outcome to
// be reconciled. When the action published a refresh the new status is printed.
func runTriage(cmd *cobra.Command, arg string, action func(*triage.Engine, findings.Finding) *triage.Task, needsLocation bool) error {
	id, err := parseFindingID(arg)
	if err != nil {
		return err
	}
	dialogOpts, err := choiceOptions(allRejectOptions.Choice)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s := newSession(ctx, AppConfig, cmd.Name(), cmd.InOrStdin(), cmd.OutOrStdout(), dialogOpts...)
	defer s.Close()

	f, err := s.client.GetFinding(ctx, id)
	if err != nil {
		return err
	}
	if needsLocation && !f.HasFilePath() {
		return fmt.Errorf("finding %d has no source location, only code findings can be rejected forever", id)
	}

	task := action(s.engine, *f)
	select {
	case <-task.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.refresher.Published() {
		return printStatus(ctx, cmd, s, id)
	}
	return nil
}

func printStatus(ctx context.Context, cmd *cobra.Command, s *session, id int64) error {
	f, err := s.client.GetFinding(ctx, id)
	if err != nil {
		s.logger.Warn("failed to refresh finding", "finding_id", id, "error", err)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Finding #%d is %s\n", f.ID, f.TriageStatus)
	return nil
}

func init() {
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(rejectForeverCmd)

	rejectForeverCmd.Flags().StringVar(&allRejectOptions.Choice, "choice", "", "answer the outcome dialog without prompting: view or ok")
}
