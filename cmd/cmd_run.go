// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"runtime"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/kmeanslab/dataset"
	"github.com/jcodagnone/kmeanslab/kmeans"
	"github.com/jcodagnone/kmeanslab/report"
	"github.com/jcodagnone/kmeanslab/spatial"
	"github.com/jcodagnone/kmeanslab/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type runOptions struct {
	Input         string
	N             int
	Width         float64
	Height        float64
	K             int
	Strategy      string
	Seed          int64
	Trials        int
	MaxIterations int
	Workers       int
	JSON          bool
}

var runOpts = &runOptions{}

var errManualRun = errors.New("manual centroids need the interactive server, see 'kmeanslab serve'")

func (o *runOptions) config() (kmeans.Config, error) {
	strategy, err := kmeans.ParseStrategy(o.Strategy)
	if err != nil {
		return kmeans.Config{}, err
	}

	if strategy == kmeans.StrategyManual {
		return kmeans.Config{}, errManualRun
	}

	if o.Trials < 1 {
		return kmeans.Config{}, fmt.Errorf("trials must be positive, got %d", o.Trials)
	}

	return kmeans.Config{
		K:             o.K,
		Strategy:      strategy,
		MaxIterations: o.MaxIterations,
		Workers:       o.Workers,
	}, nil
}

// loadPoints reads --input through an in-memory DuckDB, or generates a
// uniform dataset from --seed when no file was given.
func (o *runOptions) loadPoints(ctx context.Context) ([]spatial.Point, error) {
	if o.Input == "" {
		rng := rand.New(rand.NewSource(o.Seed)) //nolint:gosec // not security sensitive

		return dataset.Generate(o.N, spatial.Bounds{Width: o.Width, Height: o.Height}, rng)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return dataset.LoadCSV(ctx, db, o.Input)
}

// trial is one seeded run to convergence over the shared points.
type trial struct {
	Seed     int64           `json:"seed"`
	Result   kmeans.Result   `json:"result"`
	Inertia  float64         `json:"inertia"`
	Snapshot kmeans.Snapshot `json:"-"`
}

func runTrial(ctx context.Context, points []spatial.Point, cfg kmeans.Config, seed int64) (trial, error) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // not security sensitive

	engine, err := kmeans.NewEngine(cfg, rng)
	if err != nil {
		return trial{}, err
	}

	state := kmeans.NewState(points)

	result, err := engine.RunToConvergence(ctx, state)
	if err != nil && !kmeans.IsNonConvergence(err) {
		return trial{}, fmt.Errorf("trial seed %d: %w", seed, err)
	}

	if err != nil {
		log.Printf("⚠️  trial seed %d: %v", seed, err)
	}

	snap := state.Snapshot()

	return trial{
		Seed:     seed,
		Result:   result,
		Inertia:  kmeans.Inertia(snap.Points, snap.Centroids, snap.Assignment),
		Snapshot: snap,
	}, nil
}

// runTrials runs trials concurrently, seeding trial i with seed+i, and returns
// the one with the lowest inertia; ties keep the earliest trial. done is
// called after each finished trial.
func runTrials(ctx context.Context, points []spatial.Point, cfg kmeans.Config, seed int64, n int,
	done func(),
) (trial, error) {
	trials := make([]trial, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i := range trials {
		g.Go(func() error {
			t, err := runTrial(ctx, points, cfg, seed+int64(i))
			if err != nil {
				return err
			}

			trials[i] = t

			if done != nil {
				done()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return trial{}, err
	}

	best := trials[0]
	for _, t := range trials[1:] {
		if t.Inertia < best.Inertia {
			best = t
		}
	}

	return best, nil
}

// execute loads the points and runs every trial, drawing a progress bar when
// stderr is a terminal.
func (o *runOptions) execute(ctx context.Context) (trial, error) {
	cfg, err := o.config()
	if err != nil {
		return trial{}, err
	}

	points, err := o.loadPoints(ctx)
	if err != nil {
		return trial{}, fmt.Errorf("loading points: %w", err)
	}

	var bar *progressbar.ProgressBar
	if o.Trials > 1 && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(o.Trials,
			progressbar.OptionSetDescription(fmt.Sprintf("Clustering %d points", len(points))),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	best, err := runTrials(ctx, points, cfg, o.Seed, o.Trials, func() {
		if bar != nil {
			_ = bar.Add(1)
		}
	})
	if err != nil {
		return trial{}, err
	}

	if bar != nil {
		_ = bar.Finish()
	}

	return best, nil
}

type runReport struct {
	Points    int                     `json:"points"`
	K         int                     `json:"k"`
	Strategy  kmeans.Strategy         `json:"strategy"`
	Trials    int                     `json:"trials"`
	Best      trial                   `json:"best"`
	Centroids []spatial.Point         `json:"centroids"`
	Clusters  []report.ClusterSummary `json:"clusters"`
}

func newRunReport(best trial, trials int) runReport {
	return runReport{
		Points:    len(best.Snapshot.Points),
		K:         best.Snapshot.K,
		Strategy:  best.Snapshot.Strategy,
		Trials:    trials,
		Best:      best,
		Centroids: best.Snapshot.Centroids,
		Clusters:  report.SummarizeSnapshot(best.Snapshot),
	}
}

func writeJSON(w io.Writer, r runReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(r)
}

func writeTable(w io.Writer, r runReport) {
	status := "✅ converged"
	if !r.Best.Result.Converged {
		status = "⚠️  iteration cap reached"
	}

	fmt.Fprintf(w, "%s after %s iterations: %s points, k=%d, %s, best of %d (seed %d)\n",
		status, textutils.FormatInt(int64(r.Best.Result.Iterations)), textutils.FormatInt(int64(r.Points)),
		r.K, r.Strategy, r.Trials, r.Best.Seed)

	a, b, c := strings.Repeat("─", 3), strings.Repeat("─", 8), strings.Repeat("─", 12)
	fmt.Fprintf(w, "╭─%3s─┬─%8s─┬─%12s─┬─%12s─┬─%12s─┬─%12s─╮\n", a, b, c, c, c, c)
	fmt.Fprintf(w, "│ %3s │ %8s │ %12s │ %12s │ %12s │ %12s │\n", "#", "Size", "X", "Y", "Mean dist", "SSE")
	fmt.Fprintf(w, "├─%3s─┼─%8s─┼─%12s─┼─%12s─┼─%12s─┼─%12s─┤\n", a, b, c, c, c, c)

	for _, s := range r.Clusters {
		fmt.Fprintf(w, "│ %3d │ %8s │ %12s │ %12s │ %12s │ %12s │\n",
			s.Index,
			textutils.FormatInt(int64(s.Size)),
			textutils.FormatFloat(s.Centroid.X, 2),
			textutils.FormatFloat(s.Centroid.Y, 2),
			textutils.FormatFloat(s.MeanDistance, 2),
			textutils.FormatFloat(s.SSE, 1),
		)
	}

	fmt.Fprintf(w, "╰─%3s─┴─%8s─┴─%12s─┴─%12s─┴─%12s─┴─%12s─╯\n", a, b, c, c, c, c)
	fmt.Fprintf(w, "Inertia: %s\n", textutils.FormatFloat(r.Best.Inertia, 2))
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Cluster a dataset to convergence and print the clusters",
	Long: `Runs k-means to convergence without a browser. Points come from a CSV file
with x and y columns, or are generated uniformly when --input is not given.
With --trials the run is repeated with consecutive seeds and the clustering
with the lowest inertia is kept.

$ kmeanslab run -k 4 --strategy kmeans++ --trials 10
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		best, err := runOpts.execute(cmd.Context())
		if err != nil {
			return err
		}

		r := newRunReport(best, runOpts.Trials)
		if runOpts.JSON {
			return writeJSON(cmd.OutOrStdout(), r)
		}

		writeTable(cmd.OutOrStdout(), r)

		return nil
	},
}

func addRunFlags(cmd *cobra.Command, o *runOptions) {
	cmd.Flags().StringVar(&o.Input, "input", "", "CSV file with x and y columns")
	cmd.Flags().IntVarP(&o.N, "points", "n", dataset.DefaultSize, "number of generated points")
	cmd.Flags().Float64Var(&o.Width, "width", dataset.DefaultBounds.Width, "width of the generated area")
	cmd.Flags().Float64Var(&o.Height, "height", dataset.DefaultBounds.Height, "height of the generated area")
	cmd.Flags().IntVarP(&o.K, "clusters", "k", 3, "number of clusters")
	cmd.Flags().StringVar(&o.Strategy, "strategy", "random", "initialization strategy (random, farthest, kmeans++)")
	cmd.Flags().Int64Var(&o.Seed, "seed", 1, "seed of the dataset and of the first trial")
	cmd.Flags().IntVar(&o.Trials, "trials", 1, "number of seeded runs, the lowest inertia wins")
	cmd.Flags().IntVar(&o.MaxIterations, "max-iterations", kmeans.DefaultMaxIterations, "iteration cap of each run")
	cmd.Flags().IntVar(&o.Workers, "workers", 1, "goroutines used by the assignment step")
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd, runOpts)
	runCmd.Flags().BoolVar(&runOpts.JSON, "json", false, "print the result as JSON")
}
