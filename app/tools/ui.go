// Package tools holds the template authoring panel: capture a display, crop
// a region and save it as a template route files can refer to.
package tools

import (
	"fmt"
	"image"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/kbinani/screenshot"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// templateDirs are the asset folders route files draw templates from.
var templateDirs = []string{"picture", "map"}

// NewToolsPanel creates the template authoring panel.
func NewToolsPanel(win fyne.Window, assetsDir string) fyne.CanvasObject {
	selectedDisplay := 0

	var displayOptions []string
	for i := 0; i < screenshot.NumActiveDisplays(); i++ {
		bounds := screenshot.GetDisplayBounds(i)
		displayOptions = append(displayOptions, fmt.Sprintf("Display %d (%dx%d)", i, bounds.Dx(), bounds.Dy()))
	}
	if len(displayOptions) == 0 {
		displayOptions = []string{"Display 0 (Default)"}
	}
	displaySelect := widget.NewSelect(displayOptions, func(selected string) {
		var id int
		if _, err := fmt.Sscanf(selected, "Display %d", &id); err == nil {
			selectedDisplay = id
		}
	})
	displaySelect.SetSelected(displayOptions[0])

	infoLabel := widget.NewLabel("1. Pick the display\n2. Capture and drag out the target\n3. Save it and paste the key into the route file")
	infoLabel.Alignment = fyne.TextAlignCenter

	cropBtn := widget.NewButton("Capture & Crop", func() {
		img, err := screenshot.CaptureRect(screenshot.GetDisplayBounds(selectedDisplay))
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		showCropperWindow(assetsDir, img)
	})
	cropBtn.Importance = widget.HighImportance

	openDirBtn := widget.NewButton("Open Assets", func() {
		if err := openDir(assetsDir); err != nil {
			dialog.ShowError(err, win)
		}
	})

	return container.NewVBox(
		widget.NewLabel("Screen:"),
		displaySelect,
		widget.NewSeparator(),
		infoLabel,
		cropBtn,
		widget.NewSeparator(),
		openDirBtn,
	)
}

func openDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", abs)
	case "windows":
		cmd = exec.Command("explorer", abs)
	default:
		cmd = exec.Command("xdg-open", abs)
	}
	return cmd.Start()
}

func showCropperWindow(assetsDir string, full *image.RGBA) {
	w := fyne.CurrentApp().NewWindow("Crop Template")
	w.Resize(fyne.NewSize(800, 600))

	lbl := widget.NewLabel("Drag over the image to select the target")
	lbl.Alignment = fyne.TextAlignCenter
	saveBtn := widget.NewButton("Save Selection", nil)
	saveBtn.Disable()

	var selection image.Rectangle
	cropper := NewCropperWidget(full, func(r image.Rectangle) {
		selection = r
		lbl.SetText(fmt.Sprintf("Selected %dx%d at (%d, %d)", r.Dx(), r.Dy(), r.Min.X, r.Min.Y))
		saveBtn.Enable()
	})
	saveBtn.OnTapped = func() {
		if selection.Empty() {
			return
		}
		showSaveForm(w, assetsDir, full.SubImage(selection))
	}

	w.SetContent(container.NewBorder(nil, container.NewVBox(lbl, saveBtn), nil, nil, cropper))
	w.Show()
}

func showSaveForm(win fyne.Window, assetsDir string, img image.Image) {
	preview := canvas.NewImageFromImage(img)
	preview.FillMode = canvas.ImageFillContain
	preview.SetMinSize(fyne.NewSize(100, 100))

	nameEntry := widget.NewEntry()
	dirSelect := widget.NewSelect(templateDirs, func(dir string) {
		nameEntry.SetText(dir + "/" + nextName(filepath.Join(assetsDir, dir), "template"))
	})
	dirSelect.SetSelected(templateDirs[0])

	content := container.NewVBox(
		container.NewCenter(preview),
		widget.NewLabel("Folder:"),
		dirSelect,
		widget.NewLabel("Template path:"),
		nameEntry,
	)
	dialog.ShowCustomConfirm("Save Template", "Save", "Cancel", content, func(confirm bool) {
		if !confirm {
			return
		}
		key, err := SaveTemplate(assetsDir, nameEntry.Text, img)
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		win.Clipboard().SetContent(key)
		dialog.ShowInformation("Saved", fmt.Sprintf("Saved %s\nThe key is on the clipboard.", key), win)
	}, win)
}
