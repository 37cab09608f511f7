package runner

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kbinani/screenshot"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/widget"

	"github.com/ConserveLee/route-idle/internal/config"
	"github.com/ConserveLee/route-idle/internal/interrupt"
	"github.com/ConserveLee/route-idle/internal/logger"
)

// overrides maps the function keys to operator overrides.
var overrides = []struct {
	key    fyne.KeyName
	signal interrupt.Signal
	label  string
}{
	{fyne.KeyF7, interrupt.Soft, "F7 Soft"},
	{fyne.KeyF8, interrupt.Pause, "F8 Pause/Resume"},
	{fyne.KeyF9, interrupt.RestartTeleport, "F9 Re-teleport"},
	{fyne.KeyF10, interrupt.Restart, "F10 Restart"},
}

// NewRoutePanel creates the route runner panel. The function keys are bound
// on the window canvas, so they work while the window has focus.
func NewRoutePanel(win fyne.Window, settings config.Settings) fyne.CanvasObject {
	// --- Data Binding ---
	logData := binding.NewStringList()
	statusData := binding.NewString()
	_ = statusData.Set("Status: Ready")

	appLogger := logger.NewAppLogger(logData)
	log := logger.New(io.MultiWriter(os.Stderr, appLogger), logger.ParseLevel(settings.LogLevel))

	status := func(msg string) {
		fyne.Do(func() { _ = statusData.Set(msg) })
	}
	bot := New(settings, log, status)

	// 1. Screen Selector
	displayOptions := displayNames()
	displaySelect := widget.NewSelect(displayOptions, func(selected string) {
		var id int
		if _, err := fmt.Sscanf(selected, "Display %d", &id); err != nil {
			id = 0
		}
		bot.SetDisplayID(id)
		log.Info("switched display", "display", id)
	})
	if settings.Display >= 0 && settings.Display < len(displayOptions) {
		displaySelect.SetSelected(displayOptions[settings.Display])
	}

	// 2. Session options
	startEntry := widget.NewEntry()
	startEntry.SetPlaceHolder("1-1_1")
	midCheck := widget.NewCheck("Start in the middle (wrap around)", nil)
	devCheck := widget.NewCheck("Dev mode (F9/F10 restart the route)", nil)

	// 3. Status & Logs
	statusLabel := widget.NewLabelWithData(statusData)
	statusLabel.TextStyle = fyne.TextStyle{Bold: true}

	logList := widget.NewListWithData(
		logData,
		func() fyne.CanvasObject { return widget.NewLabel("Log entry template") },
		func(i binding.DataItem, o fyne.CanvasObject) { o.(*widget.Label).Bind(i.(binding.String)) },
	)
	logData.AddListener(binding.NewDataListener(func() {
		list, _ := logData.Get()
		if len(list) > 0 {
			logList.ScrollToBottom()
		}
	}))

	// 4. Buttons
	startBtn := widget.NewButton("Start", nil)
	stopBtn := widget.NewButton("Stop", nil)
	stopBtn.Disable()

	setIdle := func(idle bool) {
		if idle {
			startBtn.Enable()
			stopBtn.Disable()
			displaySelect.Enable()
			return
		}
		startBtn.Disable()
		stopBtn.Enable()
		displaySelect.Disable()
	}
	bot.statusFunc = func(msg string) {
		status(msg)
		if msg != "Status: Running" {
			fyne.Do(func() { setIdle(true) })
		}
	}

	startBtn.OnTapped = func() {
		id := strings.TrimSpace(startEntry.Text)
		if id == "" {
			id = startEntry.PlaceHolder
		}
		setIdle(false)
		if err := bot.Start(id, midCheck.Checked, devCheck.Checked); err != nil {
			_ = statusData.Set(fmt.Sprintf("Status: %v", err))
			setIdle(!bot.Running())
		}
	}
	stopBtn.OnTapped = func() {
		stopBtn.Disable()
		go bot.Stop()
	}

	overrideBtns := container.NewHBox()
	for _, o := range overrides {
		sig := o.signal
		overrideBtns.Add(widget.NewButton(o.label, func() { bot.Signal(sig) }))
	}
	win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		for _, o := range overrides {
			if ev.Name == o.key {
				log.Info("override key", "key", string(o.key), "signal", o.signal)
				bot.Signal(o.signal)
				return
			}
		}
	})

	// --- Layout ---
	controls := container.NewVBox(
		widget.NewLabel("Route runner"),
		container.NewHBox(widget.NewLabel("Screen:"), displaySelect),
		container.NewBorder(nil, nil, widget.NewLabel("Start route:"), nil, startEntry),
		midCheck,
		devCheck,
		statusLabel,
		container.NewHBox(startBtn, stopBtn),
		overrideBtns,
		widget.NewSeparator(),
		widget.NewLabel("Log:"),
	)

	return container.NewBorder(controls, nil, nil, nil, logList)
}

func displayNames() []string {
	n := screenshot.NumActiveDisplays()
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		names = append(names, fmt.Sprintf("Display %d (%dx%d)", i, bounds.Dx(), bounds.Dy()))
	}
	if len(names) == 0 {
		names = []string{"Display 0 (Default)"}
	}
	return names
}
