package lookup

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/higgsanim/internal/resonance"
)

type gridPoint struct {
	ma, tanb, value float64
}

// row is one tan β line of a grid, linear in m_A.
type row struct {
	tanb   float64
	ma     []float64
	values []float64
	pl     *interp.PiecewiseLinear
}

func (r *row) at(ma float64) (float64, bool) {
	lo, hi := r.ma[0], r.ma[len(r.ma)-1]
	if ma < lo || ma > hi {
		return 0, false
	}
	if r.pl == nil {
		return r.values[0], true
	}
	return r.pl.Predict(ma), true
}

// Grid is a dataset tabulated on (m_A, tan β). Values are linear in m_A along
// each tan β row and linear in tan β between rows.
type Grid struct {
	Name string
	rows []row
}

// points must be sorted by tanb, then ma.
func newGrid(name string, points []gridPoint) (*Grid, error) {
	g := &Grid{Name: name}
	for _, p := range points {
		if n := len(g.rows); n == 0 || g.rows[n-1].tanb != p.tanb {
			g.rows = append(g.rows, row{tanb: p.tanb})
		}
		r := &g.rows[len(g.rows)-1]
		r.ma = append(r.ma, p.ma)
		r.values = append(r.values, p.value)
	}
	for i := range g.rows {
		r := &g.rows[i]
		if len(r.ma) < 2 {
			continue
		}
		r.pl = &interp.PiecewiseLinear{}
		if err := r.pl.Fit(r.ma, r.values); err != nil {
			return nil, resonance.Configf("dataset %q at tan β %g: %v", name, r.tanb, err)
		}
	}
	return g, nil
}

// At interpolates the grid. Points outside it are a configuration error.
func (g *Grid) At(ma, tanb float64) (float64, error) {
	if math.IsNaN(ma) || math.IsNaN(tanb) {
		return 0, resonance.Configf("dataset %q: NaN coordinate", g.Name)
	}
	i := sort.Search(len(g.rows), func(i int) bool { return g.rows[i].tanb >= tanb })
	if i == len(g.rows) || (g.rows[i].tanb != tanb && i == 0) {
		return 0, resonance.Configf("dataset %q: tan β %g outside [%g, %g]",
			g.Name, tanb, g.rows[0].tanb, g.rows[len(g.rows)-1].tanb)
	}

	upper, ok := g.rows[i].at(ma)
	if !ok {
		return 0, g.outside(ma, tanb)
	}
	if g.rows[i].tanb == tanb {
		return upper, nil
	}
	lower, ok := g.rows[i-1].at(ma)
	if !ok {
		return 0, g.outside(ma, tanb)
	}
	t0, t1 := g.rows[i-1].tanb, g.rows[i].tanb
	f := (tanb - t0) / (t1 - t0)
	return lower + f*(upper-lower), nil
}

// Series interpolates the grid along a scan at fixed tan β.
func (g *Grid) Series(scan resonance.ScanAxis, tanb float64) ([]float64, error) {
	out := make([]float64, len(scan))
	for i, ma := range scan {
		v, err := g.At(ma, tanb)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (g *Grid) outside(ma, tanb float64) error {
	return resonance.Configf("dataset %q: m_A %g at tan β %g is outside the grid", g.Name, ma, tanb)
}
