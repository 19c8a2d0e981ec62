package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigator(t *testing.T) {
	n := NewNavigator(3, 0)
	assert.Equal(t, 3, n.PageCount())
	assert.Equal(t, 0, n.CurrentPage())
	assert.False(t, n.HasPrev())

	assert.Equal(t, 0, n.Prev())
	assert.Equal(t, 1, n.Next())
	assert.Equal(t, 2, n.Next())
	assert.Equal(t, 2, n.Next())
	assert.False(t, n.HasNext())
	assert.Equal(t, 1, n.Prev())
	assert.True(t, n.HasNext())
	assert.True(t, n.HasPrev())
}

func TestNavigator_ClampsStart(t *testing.T) {
	assert.Equal(t, 4, NewNavigator(5, 99).CurrentPage())
	assert.Equal(t, 0, NewNavigator(5, -3).CurrentPage())

	empty := NewNavigator(0, 2)
	assert.Equal(t, 0, empty.CurrentPage())
	assert.Equal(t, 0, empty.Next())
	assert.False(t, empty.HasNext())
}

func TestDimensions(t *testing.T) {
	w, h := Dimensions("landscape")
	assert.Equal(t, 700, w)
	assert.Equal(t, 500, h)

	w, h = Dimensions("portrait")
	assert.Equal(t, 500, w)
	assert.Equal(t, 700, h)

	w, h = Dimensions("")
	assert.Equal(t, 500, w)
	assert.Equal(t, 700, h)
}
