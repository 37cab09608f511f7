package main

import (
	"log/slog"
	"os"

	"github.com/ConserveLee/route-idle/app/runner"
	"github.com/ConserveLee/route-idle/app/tools"
	"github.com/ConserveLee/route-idle/internal/config"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
)

func main() {
	settings, err := config.LoadSettings(".env")
	if err != nil {
		slog.Error("settings", "error", err)
		os.Exit(1)
	}

	myApp := app.New()
	myWindow := myApp.NewWindow("Route Idle")
	myWindow.Resize(fyne.NewSize(520, 680))

	tabs := container.NewAppTabs(
		container.NewTabItem("Routes", runner.NewRoutePanel(myWindow, settings)),
		container.NewTabItem("Templates", tools.NewToolsPanel(myWindow, settings.AssetsDir)),
	)
	tabs.SetTabLocation(container.TabLocationTop)

	myWindow.SetContent(tabs)
	myWindow.ShowAndRun()
}
