// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jcodagnone/kmeanslab/kmeans"
	"github.com/jcodagnone/kmeanslab/report"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

var (
	chartOpts   = &runOptions{}
	chartOutput string
)

// chartRenderer picks the renderer from the output extension.
func chartRenderer(path string) (func(io.Writer, kmeans.Snapshot) error, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".html", ".htm":
		return report.RenderHTML, nil
	case ".png":
		return func(w io.Writer, snap kmeans.Snapshot) error {
			return report.RenderPNG(w, snap, 8*vg.Inch, 6*vg.Inch)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported chart format %q, use .html or .png", ext)
	}
}

func writeChart(path string, snap kmeans.Snapshot) error {
	render, err := chartRenderer(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart: %w", err)
	}

	if err := render(f, snap); err != nil {
		f.Close()

		return fmt.Errorf("rendering chart: %w", err)
	}

	return f.Close()
}

var chartCmd = &cobra.Command{
	Use:   "chart --output <file.html|file.png>",
	Short: "Cluster a dataset and write a scatter chart",
	Long: `Runs the same clustering as 'run' and writes the best clustering as an
interactive HTML page or a PNG image, depending on the --output extension.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := chartRenderer(chartOutput); err != nil {
			return err
		}

		best, err := chartOpts.execute(cmd.Context())
		if err != nil {
			return err
		}

		if err := writeChart(chartOutput, best.Snapshot); err != nil {
			return err
		}

		log.Printf("📊 Chart written to %s (inertia %.2f)", chartOutput, best.Inertia)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	addRunFlags(chartCmd, chartOpts)
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "", "chart file, .html or .png")
	_ = chartCmd.MarkFlagRequired("output")
}
