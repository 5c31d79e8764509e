package fit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memsim/memmap"
)

// holes builds a free list from (index, start, size) triples.
func holes(specs ...[3]int64) []memmap.Candidate {
	out := make([]memmap.Candidate, 0, len(specs))
	for _, s := range specs {
		out = append(out, memmap.Candidate{
			Index: int(s[0]),
			Block: memmap.Block{Start: s[1], End: s[1] + s[2]},
		})
	}
	return out
}

// TestSelect_StrategyExample covers holes of 100@0, 500@200 and 200@900
// with a 150 byte request.
func TestSelect_StrategyExample(t *testing.T) {
	free := holes([3]int64{0, 0, 100}, [3]int64{2, 200, 500}, [3]int64{4, 900, 200})

	tests := []struct {
		strategy Strategy
		want     int
	}{
		{First, 2},
		{Best, 4},
		{Worst, 2},
	}
	for _, tt := range tests {
		t.Run(tt.strategy.Name(), func(t *testing.T) {
			got, err := Select(150, tt.strategy, free)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect_TiesPickLowestAddress(t *testing.T) {
	free := holes([3]int64{1, 100, 300}, [3]int64{3, 500, 200}, [3]int64{5, 800, 300}, [3]int64{7, 1200, 200})

	got, err := Select(200, Best, free)
	require.NoError(t, err)
	assert.Equal(t, 3, got, "best-fit tie between 200@500 and 200@1200")

	got, err = Select(200, Worst, free)
	require.NoError(t, err)
	assert.Equal(t, 1, got, "worst-fit tie between 300@100 and 300@800")
}

func TestSelect_ExactFitQualifies(t *testing.T) {
	free := holes([3]int64{0, 0, 99}, [3]int64{2, 150, 100})

	for _, s := range []Strategy{First, Best, Worst} {
		got, err := Select(100, s, free)
		require.NoError(t, err, s.Name())
		assert.Equal(t, 2, got, s.Name())
	}
}

func TestSelect_NoFit(t *testing.T) {
	free := holes([3]int64{0, 0, 100}, [3]int64{2, 200, 50})

	for _, s := range []Strategy{First, Best, Worst} {
		_, err := Select(101, s, free)
		require.ErrorIs(t, err, ErrNoFit, s.Name())
	}

	_, err := Select(1, First, nil)
	require.ErrorIs(t, err, ErrNoFit)
}

func TestSelect_InvalidStrategy(t *testing.T) {
	_, err := Select(1, Strategy(0), holes([3]int64{0, 0, 10}))
	require.ErrorIs(t, err, ErrUnknownStrategy)

	_, err = Select(1, Strategy(9), holes([3]int64{0, 0, 10}))
	require.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{in: "F", want: First},
		{in: "b", want: Best},
		{in: " W ", want: Worst},
		{in: "first", want: First},
		{in: "BEST", want: Best},
		{in: "worst", want: Worst},
		{in: "", wantErr: true},
		{in: "X", wantErr: true},
		{in: "FB", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownStrategy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStrategy_Strings(t *testing.T) {
	assert.Equal(t, "F", First.String())
	assert.Equal(t, "B", Best.String())
	assert.Equal(t, "W", Worst.String())
	assert.Equal(t, "Strategy(7)", Strategy(7).String())
	assert.Equal(t, "best-fit", Best.Name())
	assert.False(t, Strategy(0).Valid())
}
