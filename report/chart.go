// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"image/color"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jcodagnone/kmeanslab/kmeans"
	"github.com/jcodagnone/kmeanslab/spatial"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

func title(snap kmeans.Snapshot) (string, string) {
	subtitle := fmt.Sprintf("strategy=%s k=%d points=%d iterations=%d phase=%s",
		snap.Strategy, snap.K, len(snap.Points), snap.Iterations, snap.Phase)
	if snap.Converged {
		subtitle += " converged"
	}

	return "K-Means Clustering", subtitle
}

// groupPoints splits points by cluster. Index -1 collects unassigned points.
func groupPoints(snap kmeans.Snapshot) map[int][]spatial.Point {
	groups := make(map[int][]spatial.Point)

	for i, p := range snap.Points {
		cluster := -1
		if snap.Assignment != nil {
			cluster = snap.Assignment[i]
		}

		groups[cluster] = append(groups[cluster], p)
	}

	return groups
}

func scatterData(points []spatial.Point) []opts.ScatterData {
	data := make([]opts.ScatterData, 0, len(points))
	for _, p := range points {
		data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
	}

	return data
}

// RenderHTML writes an interactive scatter chart of the snapshot: one series
// per cluster colored by hue, plus the centroids in red.
func RenderHTML(w io.Writer, snap kmeans.Snapshot) error {
	t, subtitle := title(snap)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: t, Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: t, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y", NameLocation: "middle", NameGap: 30}),
	)

	groups := groupPoints(snap)
	k := len(snap.Centroids)

	if unassigned, ok := groups[-1]; ok {
		scatter.AddSeries("points", scatterData(unassigned),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: UnassignedColor}))
	}

	for j := range k {
		scatter.AddSeries(fmt.Sprintf("cluster %d", j), scatterData(groups[j]),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: Color(j, k)}))
	}

	if k > 0 {
		scatter.AddSeries("centroids", scatterData(snap.Centroids),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: CentroidColor}))
	}

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("rendering html chart: %w", err)
	}

	return nil
}

func xys(points []spatial.Point) plotter.XYs {
	out := make(plotter.XYs, len(points))
	for i, p := range points {
		out[i] = plotter.XY{X: p.X, Y: p.Y}
	}

	return out
}

// RenderPNG writes a static PNG scatter chart of the snapshot with the same
// colors as RenderHTML.
func RenderPNG(w io.Writer, snap kmeans.Snapshot, width, height vg.Length) error {
	t, subtitle := title(snap)

	p := plot.New()
	p.Title.Text = t + "\n" + subtitle
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	groups := groupPoints(snap)
	k := len(snap.Centroids)

	add := func(points []spatial.Point, c color.Color, radius vg.Length, shape draw.GlyphDrawer) error {
		if len(points) == 0 {
			return nil
		}

		s, err := plotter.NewScatter(xys(points))
		if err != nil {
			return fmt.Errorf("building scatter: %w", err)
		}

		s.GlyphStyle.Color = c
		s.GlyphStyle.Radius = radius
		s.GlyphStyle.Shape = shape
		p.Add(s)

		return nil
	}

	if err := add(groups[-1], color.Black, vg.Points(2), draw.CircleGlyph{}); err != nil {
		return err
	}

	for j := range k {
		if err := add(groups[j], RGBA(j, k), vg.Points(2), draw.CircleGlyph{}); err != nil {
			return err
		}
	}

	if err := add(snap.Centroids, color.RGBA{R: 255, A: 255}, vg.Points(5), draw.CrossGlyph{}); err != nil {
		return err
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("rendering png chart: %w", err)
	}

	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing png chart: %w", err)
	}

	return nil
}
