package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/skiptrace-cli/internal/batch"
	"github.com/sells-group/skiptrace-cli/internal/browser"
	"github.com/sells-group/skiptrace-cli/internal/browser/webclient"
	"github.com/sells-group/skiptrace-cli/internal/model"
	"github.com/sells-group/skiptrace-cli/internal/session"
	"github.com/sells-group/skiptrace-cli/internal/store"
)

var (
	runInput      string
	runOutput     string
	runBatchSize  int
	runMaxRecords int
	runBackend    string
	runVisible    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the record store and write phone numbers back",
	Long:  "Builds the work list from the input file, processes it in paced batches, and checkpoints results to the output file. Per-record failures are recorded in the status column and do not fail the command.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		inputPath := runInput
		if inputPath == "" {
			found, err := store.FindInput(".")
			if err != nil {
				return eris.Wrap(err, "resolve input")
			}
			inputPath = found
		}

		table, err := store.Load(inputPath)
		if err != nil {
			return eris.Wrap(err, "load input")
		}
		store.EnsureResultColumns(table)

		outputPath := runOutput
		if outputPath == "" {
			outputPath = store.DefaultOutputPath(inputPath, time.Now())
		}

		maxRecords := runMaxRecords
		if maxRecords == 0 {
			maxRecords = cfg.Batch.MaxRecords
		}
		items := store.BuildWorkList(table, maxRecords)
		if len(items) == 0 {
			zap.L().Info("nothing to do, all person records already traced",
				zap.String("input", inputPath),
			)
			return nil
		}

		backendName := runBackend
		if backendName == "" {
			backendName = cfg.Session.Backend
		}
		backend, err := browser.ParseBackend(backendName)
		if err != nil {
			return err
		}
		if runVisible {
			zap.L().Warn("visible mode has no effect with the in-process engine")
		}

		zap.L().Info("run configured",
			zap.String("input", inputPath),
			zap.String("output", outputPath),
			zap.Int("work_items", len(items)),
			zap.String("backend", string(backend)),
		)

		sleeper := newSleeper(cfg.Pacing)
		engine, err := newEngine(cfg, sleeper)
		if err != nil {
			return err
		}

		driver := &webclient.Driver{Timeout: time.Duration(cfg.Session.PageTimeoutSecs) * time.Second}
		mgr := session.NewManager(driver, newIdentityPool(cfg.Session), time.Duration(cfg.Session.CooldownSecs)*time.Second)

		// The journal is observability only; a broken journal must not
		// stop a run.
		var recorder batch.Recorder = batch.NopRecorder{}
		runID := "local"
		journaled := false
		j, err := openJournal(ctx, cfg.Journal)
		if err != nil {
			zap.L().Warn("journal unavailable, run history will not be recorded", zap.Error(err))
		} else {
			defer j.Close() //nolint:errcheck
			run, err := j.CreateRun(ctx, inputPath)
			if err != nil {
				zap.L().Warn("journal create run failed", zap.Error(err))
			} else {
				recorder = j
				runID = run.ID
				journaled = true
			}
		}

		batchSize := runBatchSize
		if batchSize == 0 {
			batchSize = cfg.Batch.Size
		}
		orch := batch.New(engine, mgr, sleeper, &batch.FileStore{Table: table, Path: outputPath}, recorder, batch.Config{
			BatchSize:       batchSize,
			CheckpointEvery: cfg.Batch.CheckpointEvery,
			Backend:         backend,
		})

		counters, runErr := orch.Run(ctx, runID, items)

		status := model.RunStatusComplete
		if runErr != nil {
			status = model.RunStatusFailed
		}
		if journaled {
			if err := j.FinishRun(ctx, runID, status, counters); err != nil {
				zap.L().Warn("journal finish run failed", zap.Error(err))
			}
		}

		zap.L().Info("run finished",
			zap.String("status", string(status)),
			zap.Int("processed", counters.Processed),
			zap.Int("succeeded", counters.Succeeded),
			zap.Int("failed", counters.Failed),
			zap.Int("sessions", counters.SessionsOpened),
			zap.Int("backend_switches", counters.BackendSwitches),
		)

		if runErr != nil {
			return eris.Wrap(runErr, "run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Output   string            `json:"output"`
			Counters model.RunCounters `json:"counters"`
		}{Output: outputPath, Counters: counters})
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "input CSV/XLSX path (default: newest file with address columns in the working directory)")
	runCmd.Flags().StringVar(&runOutput, "output", "", "output path (default: timestamped name next to the input)")
	runCmd.Flags().IntVar(&runBatchSize, "batch-size", 0, "records per batch (default from config)")
	runCmd.Flags().IntVar(&runMaxRecords, "max-records", 0, "cap on work items, 0 = all")
	runCmd.Flags().StringVar(&runBackend, "backend", "", "starting backend: chromium or firefox (default from config)")
	runCmd.Flags().BoolVar(&runVisible, "visible", false, "show the automation window where the engine supports one")
	rootCmd.AddCommand(runCmd)
}
