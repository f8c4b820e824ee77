package ink

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"FadingInk/internal/smooth"
	"FadingInk/internal/state"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagonal() state.Curve {
	return smooth.FromSegment(state.Segment{
		Color:  state.Red,
		Points: []state.Point{{X: 1, Y: 1}, {X: 3, Y: 3}, {X: 5, Y: 5}},
	}, smooth.DefaultBlockSize)
}

func alphaAt(img image.Image, x, y int) uint32 {
	_, _, _, a := img.At(x, y).RGBA()
	return a
}

func TestBufferCommitBeforeResizePanics(t *testing.T) {
	b := NewBuffer(nil)
	assert.PanicsWithValue(t, ErrNotAllocated, func() {
		b.Commit(diagonal(), state.NewPaint(state.Red, 20, 20))
	})
	assert.Nil(t, b.Image())
}

func TestBufferResizeRejectsEmpty(t *testing.T) {
	b := NewBuffer(nil)
	assert.Error(t, b.Resize(0, 10))
	assert.Error(t, b.Resize(10, -1))
	w, h := b.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestBufferCommitRasterizes(t *testing.T) {
	b := NewBuffer(nil)
	require.NoError(t, b.Resize(100, 100))
	v := b.Version()

	b.Commit(diagonal(), state.NewPaint(state.Red, 20, 20))
	assert.Greater(t, b.Version(), v)

	img := b.Image()
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
	assert.NotZero(t, alphaAt(img, 24, 24))
	assert.Zero(t, alphaAt(img, 95, 2))
}

func TestBufferCommitEmptyCurveIsNoop(t *testing.T) {
	b := NewBuffer(nil)
	require.NoError(t, b.Resize(10, 10))
	v := b.Version()
	b.Commit(state.Curve{}, state.NewPaint(state.Red, 20, 20))
	assert.Equal(t, v, b.Version())
}

func TestBufferResizeDiscardsContent(t *testing.T) {
	b := NewBuffer(nil)
	require.NoError(t, b.Resize(100, 100))
	b.Commit(diagonal(), state.NewPaint(state.Red, 20, 0))
	require.NotZero(t, alphaAt(b.Image(), 24, 24))

	require.NoError(t, b.Resize(120, 80))
	w, h := b.Size()
	assert.Equal(t, 120, w)
	assert.Equal(t, 80, h)
	assert.Zero(t, alphaAt(b.Image(), 24, 24))
}

func TestBufferResizeAndCommitDoNotOverlap(t *testing.T) {
	b := NewBuffer(nil)
	require.NoError(t, b.Resize(64, 64))
	paint := state.NewPaint(state.Red, 20, 8)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 200 {
			assert.NoError(t, b.Resize(32+i%64, 48+i%32))
		}
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			assert.NotPanics(t, func() { b.Commit(diagonal(), paint) })
		}
	}()
	wg.Wait()

	w, h := b.Size()
	assert.Positive(t, w)
	assert.Positive(t, h)
	img := b.Image()
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, w, h), img.Bounds())
}

func TestShadowAreaClipsToBuffer(t *testing.T) {
	r, ok := shadowArea(diagonal(), state.NewPaint(state.Red, 20, 20), 50, 50)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 50, 50), r)

	_, ok = shadowArea(state.Curve{}, state.NewPaint(state.Red, 20, 20), 50, 50)
	assert.False(t, ok)
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

// paintLive paints only the live strokes onto a transparent image.
func paintLive(r *Renderer, width, height int) image.Image {
	dc := gg.NewContext(width, height)
	defer dc.Close()
	r.Paint(dc)
	return dc.Image()
}

func TestRendererIdlesWithoutFadingStrokes(t *testing.T) {
	reg := state.NewRegistry()
	inv := &countingInvalidator{}
	r := NewRenderer(reg, inv, nil)

	rec := state.NewStrokeRecord(state.NewPaint(state.Red, 20, 20))
	rec.SetCurve(diagonal())
	reg.Append(rec)
	reg.Append(state.NewStrokeRecord(state.NewPaint(state.Red, 20, 20))) // no curve yet

	img := paintLive(r, 64, 64)
	assert.Equal(t, 0, inv.n)
	assert.NotZero(t, alphaAt(img, 24, 24))

	reg.MarkFadeEligible(rec)
	paintLive(r, 64, 64)
	assert.Equal(t, 1, inv.n)

	reg.Remove(rec)
	img = paintLive(r, 64, 64)
	assert.Equal(t, 1, inv.n)
	assert.Zero(t, alphaAt(img, 24, 24))
}

func TestRendererPaintsFadedOpacity(t *testing.T) {
	reg := state.NewRegistry()
	r := NewRenderer(reg, nil, nil)
	rec := state.NewStrokeRecord(state.NewPaint(state.Red, 20, 0))
	rec.SetCurve(diagonal())
	reg.Append(rec)

	full := alphaAt(paintLive(r, 64, 64), 24, 24)
	rec.Fade(200)
	faded := alphaAt(paintLive(r, 64, 64), 24, 24)
	assert.Less(t, faded, full)
	assert.NotZero(t, faded)
}

func TestRendererComposeLayers(t *testing.T) {
	buf := NewBuffer(nil)
	require.NoError(t, buf.Resize(64, 64))
	buf.Commit(diagonal(), state.NewPaint(state.Red, 20, 0))

	reg := state.NewRegistry()
	r := NewRenderer(reg, nil, nil)
	img := r.Compose(state.Background, buf, 64, 64)
	require.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())

	bg := color.NRGBAModel.Convert(img.At(63, 0)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}, bg)

	ink := color.NRGBAModel.Convert(img.At(24, 24)).(color.NRGBA)
	assert.Greater(t, ink.R, ink.G)
	assert.Equal(t, uint8(0xFF), ink.A)

	assert.Empty(t, r.Compose(state.Background, buf, 0, 10).Bounds())
}

func TestComposeReusesInkUntilBufferChanges(t *testing.T) {
	buf := NewBuffer(nil)
	r := NewRenderer(state.NewRegistry(), nil, nil)

	// nothing to draw before the first resize
	r.Compose(state.Background, buf, 64, 64)
	r.Compose(state.Background, buf, 64, 64)
	assert.Equal(t, 1, r.inkUploads)

	require.NoError(t, buf.Resize(64, 64))
	r.Compose(state.Background, buf, 64, 64)
	r.Compose(state.Background, buf, 64, 64)
	assert.Equal(t, 2, r.inkUploads)

	buf.Commit(diagonal(), state.NewPaint(state.Red, 20, 0))
	img := r.Compose(state.Background, buf, 64, 64)
	assert.Equal(t, 3, r.inkUploads)
	r.Compose(state.Background, buf, 64, 64)
	assert.Equal(t, 3, r.inkUploads)

	ink := color.NRGBAModel.Convert(img.At(24, 24)).(color.NRGBA)
	assert.Greater(t, ink.R, ink.G)
}
