package lookup

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/higgsanim/internal/resonance"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "grid.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// plane fills dataset with value = a + b*ma + c*tanb, which bilinear
// interpolation reproduces exactly.
func plane(dataset string, a, b, c float64) []Entry {
	var out []Entry
	for _, tanb := range []float64{5, 10, 20} {
		for _, ma := range []float64{100, 200, 300, 400} {
			out = append(out, Entry{Dataset: dataset, MA: ma, TanBeta: tanb, Value: a + b*ma + c*tanb})
		}
	}
	return out
}

func TestOpen_Migrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	v, err = s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
}

func TestValue_Bilinear(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, plane("m_H", 3, 0.5, -2)))

	tests := []struct {
		ma, tanb float64
	}{
		{100, 5},
		{150, 5},
		{250, 7.5},
		{400, 20},
		{333, 12.5},
	}
	for _, tt := range tests {
		v, err := s.Value(ctx, "m_H", tt.ma, tt.tanb)
		require.NoError(t, err)
		assert.InDelta(t, 3+0.5*tt.ma-2*tt.tanb, v, 1e-9, "ma=%g tanb=%g", tt.ma, tt.tanb)
	}
}

func TestValue_Outside(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, plane("m_H", 0, 1, 0)))

	for _, q := range [][2]float64{{50, 10}, {450, 10}, {200, 2}, {200, 25}} {
		_, err := s.Value(ctx, "m_H", q[0], q[1])
		assert.True(t, errors.Is(err, resonance.ErrConfiguration), "ma=%g tanb=%g: %v", q[0], q[1], err)
	}

	_, err := s.Value(ctx, "m_X", 200, 10)
	assert.ErrorIs(t, err, resonance.ErrConfiguration)
}

func TestImport(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	csv := `dataset,ma,tanb,value
# widths
width_h, 100, 10, 0.004
width_h, 200, 10, 0.006
width_h, 100, 20, 0.005
width_h, 200, 20, 0.007
`
	n, err := s.Import(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	sets, err := s.Datasets(ctx)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, DatasetInfo{Name: "width_h", Points: 4, MAMin: 100, MAMax: 200, TanBetaMin: 10, TanBetaMax: 20}, sets[0])

	v, err := s.Value(ctx, "width_h", 150, 15)
	require.NoError(t, err)
	assert.InDelta(t, 0.0055, v, 1e-12)

	// re-import replaces rather than duplicates
	_, err = s.Import(ctx, strings.NewReader("width_h,100,10,0.01\n"))
	require.NoError(t, err)
	sets, err = s.Datasets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, sets[0].Points)
}

func TestImport_Malformed(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	for _, in := range []string{"m_h,abc,10,1\n", "m_h,1,2\n", ",1,2,3\n"} {
		_, err := s.Import(ctx, strings.NewReader(in))
		assert.ErrorIs(t, err, resonance.ErrConfiguration, in)
	}
}

func TestBuildDataset(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	var entries []Entry
	entries = append(entries, plane("m_H", 5, 1, 0)...)
	entries = append(entries, plane("width_H", 0.1, 0.001, 0)...)
	entries = append(entries, plane("xs_gg_H", 2, -0.004, 0)...)
	entries = append(entries, plane("width_A", 0.2, 0.001, 0)...)
	entries = append(entries, plane("xs_gg_A", 1, 0, 0.01)...)
	entries = append(entries, plane("br_A_tautau", 0.1, 0, 0)...)
	entries = append(entries, plane("br_H_tautau", 0.12, 0, 0)...)
	require.NoError(t, s.Put(ctx, entries))

	scan := resonance.Linspace(150, 350, 5)
	ds, err := s.BuildDataset(ctx, Request{
		Particles: []string{"H", "A"},
		Mode:      "gg",
		Channel:   "tautau",
		Scan:      scan,
		TanBeta:   10,
		Summed:    []string{"A"},
	})
	require.NoError(t, err)
	require.NoError(t, ds.Validate())
	require.Len(t, ds.Particles, 2)

	H, A := ds.Particles[0], ds.Particles[1]
	assert.False(t, H.Summed)
	assert.True(t, A.Summed)
	assert.Equal(t, []float64(scan), A.Mass)
	assert.InDelta(t, 5+250, H.Mass[2], 1e-9)
	assert.InDelta(t, 1.1, A.CrossSection[0], 1e-9)
	require.True(t, A.HasBranching())
	assert.InDelta(t, 0.1, A.BR(3), 1e-12)
}

func TestBuildDataset_Missing(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, plane("width_A", 0.2, 0, 0)))

	req := Request{Particles: []string{"A"}, Mode: "bb", Scan: resonance.Linspace(150, 350, 3), TanBeta: 10}
	_, err := s.BuildDataset(ctx, req)
	assert.ErrorIs(t, err, resonance.ErrConfiguration)
	assert.Contains(t, err.Error(), "xs_bb_A")

	_, err = s.BuildDataset(ctx, Request{Mode: "bb"})
	assert.ErrorIs(t, err, resonance.ErrEmptyDataset)
}
