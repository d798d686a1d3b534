package floorplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscretizeCellSize(t *testing.T) {
	b := NewBlock(25, 25, 0, 30, 14, 30, 14, "a", TypeHard, false, false)
	term := NewTerminal(35, 99, "t")

	blocks, terms, cw, ch, err := Discretize([]*Block{b}, []*Terminal{term}, 10, 10, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, 10.0, cw)
	assert.Equal(t, 10.0, ch)
	require.Len(t, blocks, 1)
	require.Len(t, terms, 1)

	// 2.5 rounds half to even.
	assert.Equal(t, 2, b.GridX)
	assert.Equal(t, 2, b.GridY)
	assert.Equal(t, 3, b.GridW)
	assert.Equal(t, 1, b.GridH)
	assert.Equal(t, 4, term.GridX) // 3.5 -> 4
	assert.Equal(t, 10, term.GridY)
}

func TestDiscretizeMinimumSizes(t *testing.T) {
	tiny := NewBlock(0, 0, 0, 0.1, 0.1, 0.1, 0.1, "tiny", TypeHard, false, false)
	virt := NewBlock(0, 0, 0, 50, 50, 50, 50, "v", TypeVirtual, false, true)

	_, _, _, _, err := Discretize([]*Block{tiny, virt}, nil, 4, 4, 40, 40)
	require.NoError(t, err)
	assert.Equal(t, 1, tiny.GridW)
	assert.Equal(t, 1, tiny.GridH)
	assert.Equal(t, 1, virt.GridW)
	assert.Equal(t, 1, virt.GridH)
}

func TestDiscretizePreservesOrder(t *testing.T) {
	blocks := []*Block{
		NewBlock(0, 0, 0, 1, 1, 1, 1, "c", TypeHard, false, false),
		NewBlock(0, 0, 0, 1, 1, 1, 1, "a", TypeHard, false, false),
		NewBlock(0, 0, 0, 1, 1, 1, 1, "b", TypeHard, false, false),
	}
	out, _, _, _, err := Discretize(blocks, nil, 2, 2, 2, 2)
	require.NoError(t, err)
	for i := range blocks {
		assert.Same(t, blocks[i], out[i])
	}
}

func TestDiscretizeRejectsBadGrid(t *testing.T) {
	tests := []struct {
		name   string
		gx, gy int
		w, h   float64
	}{
		{"zero grid x", 0, 10, 10, 10},
		{"negative grid y", 10, -1, 10, 10},
		{"zero outline", 10, 10, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, _, err := Discretize(nil, nil, tt.gx, tt.gy, tt.w, tt.h)
			assert.Error(t, err)
		})
	}
}
