// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/csv"
	"io"
	"math/rand"
	"strconv"

	"github.com/jcodagnone/kmeanslab/dataset"
	"github.com/jcodagnone/kmeanslab/spatial"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugDatasetOpts = &runOptions{}

// writeDatasetCSV writes points with the x,y header that 'run --input' reads.
func writeDatasetCSV(w io.Writer, points []spatial.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y"}); err != nil {
		return err
	}

	for _, p := range points {
		if err := cw.Write([]string{
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

var debugDatasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Print a generated dataset as CSV",
	Long: `Generates the same uniform points the server and 'run' use and prints them
as CSV, ready to be edited and fed back with 'run --input'.

$ kmeanslab debug dataset -n 5 --seed 7 > points.csv
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		o := debugDatasetOpts
		rng := rand.New(rand.NewSource(o.Seed)) //nolint:gosec // not security sensitive

		points, err := dataset.Generate(o.N, spatial.Bounds{Width: o.Width, Height: o.Height}, rng)
		if err != nil {
			return err
		}

		return writeDatasetCSV(cmd.OutOrStdout(), points)
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugDatasetCmd)

	debugDatasetCmd.Flags().IntVarP(&debugDatasetOpts.N, "points", "n", dataset.DefaultSize, "number of points")
	debugDatasetCmd.Flags().Float64Var(&debugDatasetOpts.Width, "width", dataset.DefaultBounds.Width, "width of the area")
	debugDatasetCmd.Flags().Float64Var(&debugDatasetOpts.Height, "height", dataset.DefaultBounds.Height,
		"height of the area")
	debugDatasetCmd.Flags().Int64Var(&debugDatasetOpts.Seed, "seed", 1, "random seed")
}
