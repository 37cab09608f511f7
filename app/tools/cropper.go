package tools

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// CropperWidget shows a screenshot and lets the user drag out the region to
// keep as a template.
type CropperWidget struct {
	widget.BaseWidget

	img        image.Image
	startPos   fyne.Position
	currentPos fyne.Position
	dragging   bool

	raster    *canvas.Image
	selection *canvas.Rectangle

	// OnSelected receives the selection in image pixels.
	OnSelected func(rect image.Rectangle)
}

// NewCropperWidget creates a cropper over img.
func NewCropperWidget(img image.Image, onSelected func(image.Rectangle)) *CropperWidget {
	c := &CropperWidget{img: img, OnSelected: onSelected}
	c.ExtendBaseWidget(c)

	c.raster = canvas.NewImageFromImage(img)
	c.raster.ScaleMode = canvas.ImageScalePixels // Templates must keep exact pixels
	c.raster.FillMode = canvas.ImageFillContain

	c.selection = canvas.NewRectangle(color.RGBA{R: 255, A: 60})
	c.selection.StrokeColor = color.RGBA{R: 255, A: 255}
	c.selection.StrokeWidth = 2
	c.selection.Hide()
	return c
}

func (c *CropperWidget) CreateRenderer() fyne.WidgetRenderer {
	return &cropperRenderer{cropper: c, objects: []fyne.CanvasObject{c.raster, c.selection}}
}

func (c *CropperWidget) Dragged(e *fyne.DragEvent) {
	if !c.dragging {
		c.dragging = true
		c.startPos = e.Position.Subtract(e.Dragged)
		c.selection.Show()
	}
	c.currentPos = e.Position
	c.Refresh()
}

func (c *CropperWidget) DragEnd() {
	c.dragging = false
	c.Refresh()
	if c.OnSelected == nil {
		return
	}
	if r := toPixels(c.Size(), c.img.Bounds(), c.startPos, c.currentPos); !r.Empty() {
		c.OnSelected(r)
	}
}

// Tapped clears the selection.
func (c *CropperWidget) Tapped(e *fyne.PointEvent) {
	c.startPos = e.Position
	c.currentPos = e.Position
	c.selection.Hide()
	c.Refresh()
}

func (c *CropperWidget) Cursor() desktop.Cursor {
	return desktop.CrosshairCursor
}

// fitContain returns where an image of the given bounds is drawn inside view
// when scaled to fit while keeping its aspect ratio.
func fitContain(view fyne.Size, bounds image.Rectangle) (fyne.Position, fyne.Size) {
	if view.Width == 0 || view.Height == 0 || bounds.Empty() {
		return fyne.Position{}, fyne.Size{}
	}
	aspect := float32(bounds.Dx()) / float32(bounds.Dy())
	if view.Width/view.Height > aspect {
		w := view.Height * aspect
		return fyne.NewPos((view.Width-w)/2, 0), fyne.NewSize(w, view.Height)
	}
	h := view.Width / aspect
	return fyne.NewPos(0, (view.Height-h)/2), fyne.NewSize(view.Width, h)
}

// toPixels maps a selection between two view positions to image pixels,
// clipped to the drawn image.
func toPixels(view fyne.Size, bounds image.Rectangle, a, b fyne.Position) image.Rectangle {
	off, size := fitContain(view, bounds)
	if size.Width == 0 || size.Height == 0 {
		return image.Rectangle{}
	}

	x0 := max(min(a.X, b.X), off.X)
	y0 := max(min(a.Y, b.Y), off.Y)
	x1 := min(max(a.X, b.X), off.X+size.Width)
	y1 := min(max(a.Y, b.Y), off.Y+size.Height)
	if x1 <= x0 || y1 <= y0 {
		return image.Rectangle{}
	}

	sx := float32(bounds.Dx()) / size.Width
	sy := float32(bounds.Dy()) / size.Height
	r := image.Rect(
		bounds.Min.X+int((x0-off.X)*sx),
		bounds.Min.Y+int((y0-off.Y)*sy),
		bounds.Min.X+int((x1-off.X)*sx),
		bounds.Min.Y+int((y1-off.Y)*sy),
	)
	return r.Intersect(bounds)
}

type cropperRenderer struct {
	cropper *CropperWidget
	objects []fyne.CanvasObject
}

func (r *cropperRenderer) Layout(s fyne.Size) {
	r.objects[0].Resize(s)
	r.objects[0].Move(fyne.NewPos(0, 0))
	r.placeSelection()
}

func (r *cropperRenderer) placeSelection() {
	c := r.cropper
	minX, minY := min(c.startPos.X, c.currentPos.X), min(c.startPos.Y, c.currentPos.Y)
	maxX, maxY := max(c.startPos.X, c.currentPos.X), max(c.startPos.Y, c.currentPos.Y)
	r.objects[1].Move(fyne.NewPos(minX, minY))
	r.objects[1].Resize(fyne.NewSize(maxX-minX, maxY-minY))
}

func (r *cropperRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *cropperRenderer) Refresh() {
	r.placeSelection()
	canvas.Refresh(r.cropper)
}

func (r *cropperRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *cropperRenderer) Destroy() {}
