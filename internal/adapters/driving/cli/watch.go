package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui"
	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/refshelf/internal/connectors/filesystem"
	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/services"
	"github.com/custodia-labs/refshelf/internal/logger"
)

var (
	watchNoTUI       bool
	watchInitialScan bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and ingest new files",
	Long: `Watches the directory (default: the watched directory from config) and its
subdirectories. Every new PDF, image or text file is queued once its writes
settle and processed by a single worker in arrival order.

On a terminal a live dashboard is shown; otherwise one line is printed per
file. Press q or Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoTUI, "no-tui", false, "print one line per file instead of the dashboard")
	watchCmd.Flags().BoolVar(&watchInitialScan, "scan", false, "queue files already in the directory before watching")
	rootCmd.AddCommand(watchCmd)
}

// pipelineHooks observe a running pipeline. Either may be nil.
type pipelineHooks struct {
	queued    func(path string)
	processed func(result domain.ProcessResult)
}

// runPipeline couples a directory watcher to the single ingestion worker and
// blocks until ctx is cancelled or the watcher fails.
func runPipeline(ctx context.Context, root string, initialScan bool, hooks pipelineHooks) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create watch root: %w", err)
	}

	w := filesystem.New(root, watchSettle)
	defer w.Close()

	events, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	queue := services.NewQueue()
	worker := services.NewWorker(queue, ingestor, root, hooks.processed)
	worker.Start(ctx)
	defer worker.Stop()

	enqueue := func(path string) error {
		if hooks.queued != nil {
			hooks.queued(path)
		}
		return queue.Enqueue(path)
	}

	if initialScan {
		existing, err := services.CollectFiles(root)
		if err != nil {
			return err
		}
		for _, p := range existing {
			if err := enqueue(p); err != nil {
				return err
			}
		}
	}

	for path := range events {
		if err := enqueue(path); err != nil {
			return err
		}
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireIngestor(); err != nil {
		return err
	}

	root := watchRoot
	if len(args) > 0 {
		root = args[0]
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := uuid.NewString()
	logger.Info("watching %s (session %s)", root, session)

	if !watchNoTUI && term.IsTerminal(int(os.Stdout.Fd())) {
		return watchWithDashboard(ctx, root, session)
	}

	err := runPipeline(ctx, root, watchInitialScan, pipelineHooks{
		processed: func(r domain.ProcessResult) {
			printResult(cmd, r)
		},
	})
	if err != nil {
		return err
	}
	logger.Info("stopped watching %s (session %s)", root, session)
	return nil
}

func watchWithDashboard(ctx context.Context, root, session string) error {
	restore, err := redirectLogs()
	if err != nil {
		return err
	}
	defer restore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(
		tui.NewApp(tui.Config{Root: root, SessionID: session}),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	done := make(chan error, 1)
	go func() {
		err := runPipeline(ctx, root, watchInitialScan, pipelineHooks{
			queued:    func(p string) { prog.Send(messages.FileQueued{Path: p}) },
			processed: func(r domain.ProcessResult) { prog.Send(messages.FileProcessed{Result: r}) },
		})
		if err != nil {
			prog.Send(messages.WatchFailed{Err: err})
		} else {
			prog.Send(messages.WatchStopped{})
		}
		done <- err
	}()

	_, runErr := prog.Run()
	cancel()
	pipeErr := <-done

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", runErr)
	}
	return pipeErr
}

// redirectLogs sends log output to the configured log file while the
// dashboard owns the terminal.
func redirectLogs() (func(), error) {
	prev := logger.Output()
	if logFile == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(f)
	return func() {
		logger.SetOutput(prev)
		f.Close()
	}, nil
}

func printResult(cmd *cobra.Command, r domain.ProcessResult) {
	switch r.Status {
	case domain.StatusStored:
		cmd.Printf("[stored]    %s [%s]\n", r.FinalPath, domain.JoinTags(r.Tags))
	case domain.StatusDuplicate:
		cmd.Printf("[duplicate] %s\n", r.Path)
	default:
		cmd.Printf("[%s] %s: %s\n", r.Status, r.Path, r.Reason)
	}
}
