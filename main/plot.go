package main

import (
	"sort"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/enzoref/regions"
)

var plotColors = []string{"r", "b", "g", "m", "c", "k"}

// regionSeries is the x extent of one named region over time.
type regionSeries struct {
	t, left, right []float64
}

func (rs regionSeries) add(t float64, reg *regions.Region) regionSeries {
	rs.t = append(rs.t, t)
	rs.left = append(rs.left, reg.Box.Left[0])
	rs.right = append(rs.right, reg.Box.Right[0])
	return rs
}

// plotRegions plots the x edges of every region against time.
func plotRegions(fname string, series map[string]regionSeries) {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	plt.Figure()
	for i, name := range names {
		rs := series[name]
		c := plt.C(plotColors[i%len(plotColors)])
		plt.Plot(rs.t, rs.left, c, plt.LW(2))
		plt.Plot(rs.t, rs.right, c, plt.LW(2))
	}
	plt.Title("Region x extents")
	plt.XLabel("Code time", plt.FontSize(16))
	plt.YLabel(`$x$`, plt.FontSize(16))
	plt.YLim(0, 1)
	plt.SaveFig(fname)
	plt.Execute()
}

// plotTube plots the density and pressure of a shock tube.
func plotTube(fname string, xs, rho, p []float64) {
	plt.Figure()
	plt.Plot(xs, rho, "k", plt.LW(2))
	plt.Plot(xs, p, "r", plt.LW(2))
	plt.Title(`Shock tube: $\rho$ (black), $P$ (red)`)
	plt.XLabel(`$x$`, plt.FontSize(16))
	plt.XLim(0, 1)
	plt.SaveFig(fname)
	plt.Execute()
}
