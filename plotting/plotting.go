// Package plotting renders meshes and functions to image files.
package plotting

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/notargets/hp1d/fekete"
	"github.com/notargets/hp1d/lobatto"
	"github.com/notargets/hp1d/mesh"
)

// Mesh draws every element of m as an outline whose height is the
// element's polynomial order and saves the plot to path (format chosen
// by extension).
func Mesh(m mesh.Mesh1D, path string) error {
	p := plot.New()
	p.Title.Text = "hp mesh"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "order"
	for e := range m.Elements() {
		h := float64(e.Order)
		line, err := plotter.NewLine(plotter.XYs{
			{X: e.Left, Y: 0}, {X: e.Left, Y: h},
			{X: e.Right, Y: h}, {X: e.Right, Y: 0},
		})
		if err != nil {
			return err
		}
		p.Add(line)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// Function draws f with samples points per element plus markers at the
// mapped Lobatto nodes and saves the plot to path.
func Function(f *fekete.Function, samples int, path string) error {
	p := plot.New()
	p.X.Label.Text = "x"
	p.Y.Label.Text = "f(x)"

	var nodes plotter.XYs
	for e := range f.Mesh().Elements() {
		pts := make(plotter.XYs, 0, samples+1)
		for i := 0; i <= samples; i++ {
			x := e.Left + (e.Right-e.Left)*float64(i)/float64(samples)
			pts = append(pts, plotter.XY{X: x, Y: f.Eval(x)})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		p.Add(line)

		for _, r := range lobatto.Points(e.Order) {
			x := lobatto.XPhys(r, e.Left, e.Right)
			nodes = append(nodes, plotter.XY{X: x, Y: f.Eval(x)})
		}
	}

	scatter, err := plotter.NewScatter(nodes)
	if err != nil {
		return err
	}
	p.Add(scatter)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
