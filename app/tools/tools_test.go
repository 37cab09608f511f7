package tools

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPixels(t *testing.T) {
	bounds := image.Rect(0, 0, 1920, 1080)

	// A 960x540 view shows the image at half size with no letterbox.
	r := toPixels(fyne.NewSize(960, 540), bounds, fyne.NewPos(10.25, 20.25), fyne.NewPos(60.25, 70.25))
	assert.Equal(t, image.Rect(20, 40, 120, 140), r)

	// Dragging backwards gives the same rectangle.
	r = toPixels(fyne.NewSize(960, 540), bounds, fyne.NewPos(60.25, 70.25), fyne.NewPos(10.25, 20.25))
	assert.Equal(t, image.Rect(20, 40, 120, 140), r)

	// A taller view letterboxes the image vertically; the bar is clipped.
	r = toPixels(fyne.NewSize(960, 740), bounds, fyne.NewPos(0.25, 0.25), fyne.NewPos(50.25, 150.25))
	assert.Equal(t, image.Rect(0, 0, 100, 100), r)

	assert.True(t, toPixels(fyne.NewSize(960, 740), bounds, fyne.NewPos(0, 0), fyne.NewPos(50, 90)).Empty())
	assert.True(t, toPixels(fyne.Size{}, bounds, fyne.NewPos(0, 0), fyne.NewPos(5, 5)).Empty())
}

func TestTemplateKey(t *testing.T) {
	key, err := templateKey(`picture\fanhui_1.png`)
	require.NoError(t, err)
	assert.Equal(t, "picture/fanhui_1.png", key)

	for _, bad := range []string{"", "../x.png", "/abs.png", "picture/x.jpg"} {
		_, err := templateKey(bad)
		assert.ErrorIs(t, err, ErrBadTemplatePath, bad)
	}
}

func TestSaveTemplateAndNextName(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	assert.Equal(t, "template_1.png", nextName(filepath.Join(dir, "picture"), "template"))

	key, err := SaveTemplate(dir, "picture/template_1.png", img)
	require.NoError(t, err)
	assert.Equal(t, "picture/template_1.png", key)
	_, err = os.Stat(filepath.Join(dir, "picture", "template_1.png"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "picture", "template_7.png"), nil, 0o644))
	assert.Equal(t, "template_8.png", nextName(filepath.Join(dir, "picture"), "template"))
}
