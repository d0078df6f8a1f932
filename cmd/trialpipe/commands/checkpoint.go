package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/trialpipe/trialpipe/pkg/checkpoint"
	"github.com/trialpipe/trialpipe/pkg/config"
)

// ErrCleanupCancelled is returned when the operator refuses the cleanup
// confirmation.
var ErrCleanupCancelled = errors.New("cleanup cancelled")

// NewCheckpointCommand creates the checkpoint command group.
func NewCheckpointCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect and manage collection checkpoints",
	}

	cmd.AddCommand(newCheckpointStatusCommand())
	cmd.AddCommand(newCheckpointCleanCommand())

	return cmd
}

// buildStore constructs a checkpoint store from the loaded config.
func buildStore(cfg *config.Config, opts ...checkpoint.Option) *checkpoint.Store {
	if cfg.Checkpoint.Compress {
		opts = append(opts, checkpoint.WithCodec(checkpoint.NewLZ4Codec(checkpoint.NewGobCodec())))
	}

	opts = append(opts, checkpoint.WithInterval(cfg.Checkpoint.Interval))

	return checkpoint.NewStore(cfg.Checkpoint.Root, opts...)
}

func newCheckpointStatusCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest checkpoint for every phase",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, _, err := loadEnvironment(configPath)
			if err != nil {
				return err
			}

			return runCheckpointStatus(buildStore(cfg))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")

	return cmd
}

func runCheckpointStatus(store *checkpoint.Store) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Phase", "Unit", "Cursor", "Records", "Captured"})

	for _, phase := range checkpoint.Phases() {
		snapshot, err := store.LoadLatest(phase)
		if err != nil {
			return fmt.Errorf("load %s: %w", phase, err)
		}

		if snapshot == nil {
			t.AppendRow(table.Row{phase, phase.Unit(), "-", "-", "-"})

			continue
		}

		t.AppendRow(table.Row{
			phase,
			phase.Unit(),
			snapshot.Cursor,
			humanize.Comma(int64(snapshot.Payload.Len())),
			snapshot.CapturedAt.Format(time.RFC3339),
		})
	}

	t.SetStyle(table.StyleLight)
	t.Render()

	return nil
}

func newCheckpointCleanCommand() *cobra.Command {
	var (
		configPath string
		phaseName  string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete checkpoints (all phases, or one with --phase)",
		Long: `Clean deletes checkpoint files so the next run starts fresh.

Deletion asks for confirmation on the terminal unless --yes is given.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := loadEnvironment(configPath)
			if err != nil {
				return err
			}

			store := buildStore(cfg, checkpoint.WithLogger(logger), checkpoint.WithConfirm(stdinConfirm))

			var done bool

			if phaseName != "" {
				done, err = store.CleanupPhase(checkpoint.Phase(phaseName), !yes)
			} else {
				done, err = store.Cleanup(!yes)
			}

			if err != nil {
				return err
			}

			if !done {
				return ErrCleanupCancelled
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().StringVar(&phaseName, "phase", "", "delete only this phase's checkpoints")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// stdinConfirm prompts on stdout and accepts only a literal "yes" reply.
func stdinConfirm(prompt string) bool {
	fmt.Fprint(os.Stdout, prompt)

	reader := bufio.NewReader(os.Stdin)

	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(line), "yes")
}
