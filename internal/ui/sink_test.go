package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type text string

func (t text) Render() string { return string(t) }

func TestHandleUpdateThenSeal(t *testing.T) {
	rec := NewRecorder()
	h := NewFactory(rec.Publish).New(text("loading"))

	require.NoError(t, h.Update(text("a")))
	require.NoError(t, h.Update(text("ab")))
	require.NoError(t, h.Seal(text("abc")))

	assert.True(t, h.Sealed())
	assert.Equal(t, text("abc"), h.Current())

	evs := rec.Events()
	require.Len(t, evs, 4)
	assert.Equal(t, "loading", evs[0].Rendered)
	assert.Equal(t, "ab", evs[2].Rendered)
	assert.False(t, evs[2].Sealed)
	assert.True(t, evs[3].Sealed)
	assert.Equal(t, "abc", evs[3].Rendered)
}

func TestSealTwiceIsRejected(t *testing.T) {
	rec := NewRecorder()
	h := NewFactory(rec.Publish).New(nil)

	require.NoError(t, h.Seal(text("final")))
	err := h.Seal(text("other"))
	assert.ErrorIs(t, err, ErrSealed)
	assert.Equal(t, text("final"), h.Current())
	assert.Len(t, rec.Events(), 1)
}

func TestUpdateAfterSeal(t *testing.T) {
	h := NewFactory(nil).New(text("x"))
	require.NoError(t, h.Seal(nil))
	assert.ErrorIs(t, h.Update(text("y")), ErrSealed)
	assert.Equal(t, text("x"), h.Current())
}

func TestSealNilKeepsContent(t *testing.T) {
	rec := NewRecorder()
	h := NewFactory(rec.Publish).New(text("streamed"))
	require.NoError(t, h.Seal(nil))

	regions := rec.Regions()
	require.Len(t, regions, 1)
	assert.True(t, regions[0].Sealed)
	assert.Equal(t, "streamed", regions[0].Rendered)
}

func TestRecorderRegionOrder(t *testing.T) {
	rec := NewRecorder()
	f := NewFactory(rec.Publish)
	a := f.New(text("a"))
	b := f.New(text("b"))
	require.NoError(t, b.Seal(text("b!")))
	require.NoError(t, a.Seal(text("a!")))

	regions := rec.Regions()
	require.Len(t, regions, 2)
	assert.Equal(t, a.ID(), regions[0].Region)
	assert.Equal(t, "a!", regions[0].Rendered)
	assert.Equal(t, "b!", regions[1].Rendered)
}
