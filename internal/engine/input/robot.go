package input

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/ConserveLee/route-idle/internal/engine"
	"github.com/go-vgo/robotgo"
)

// Robot dispatches synthetic input through robotgo.
// Coordinates are display-local; the display offset is added here.
type Robot struct {
	log *slog.Logger

	mu             sync.Mutex
	displayOffsetX int
	displayOffsetY int
}

var _ engine.Dispatcher = (*Robot)(nil)

// NewRobot creates a dispatcher for the main display
func NewRobot(log *slog.Logger) *Robot {
	return &Robot{log: log}
}

// SetDisplayID records the global offset of the selected display
func (r *Robot) SetDisplayID(id int) {
	x, y, _, _ := robotgo.GetDisplayBounds(id)
	r.mu.Lock()
	r.displayOffsetX = x
	r.displayOffsetY = y
	r.mu.Unlock()
	r.log.Info(fmt.Sprintf("Display %d Offset set to (%d, %d)", id, x, y))
}

func (r *Robot) global(x, y int) (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return x + r.displayOffsetX, y + r.displayOffsetY
}

func (r *Robot) PressKey(key string) error {
	if err := robotgo.KeyTap(key); err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	return nil
}

func (r *Robot) HoldKey(key string) error {
	if err := robotgo.KeyToggle(key, "down"); err != nil {
		return fmt.Errorf("hold %s: %w", key, err)
	}
	return nil
}

func (r *Robot) ReleaseKey(key string) error {
	if err := robotgo.KeyToggle(key, "up"); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// Click moves to p and clicks count times
func (r *Robot) Click(p image.Point, count int, interval time.Duration) {
	globalX, globalY := r.global(p.X, p.Y)
	r.log.Debug(fmt.Sprintf("Clicking Center(%d, %d) [Global: %d, %d] x%d", p.X, p.Y, globalX, globalY, count))

	robotgo.Move(globalX, globalY)
	for i := 0; i < count; i++ {
		if i > 0 {
			time.Sleep(interval)
		}
		robotgo.Click("left")
	}
}

// Drag presses the left button at (x0, y0) and releases it at (x1, y1)
func (r *Robot) Drag(x0, y0, x1, y1 int) {
	gx0, gy0 := r.global(x0, y0)
	gx1, gy1 := r.global(x1, y1)

	robotgo.Move(gx0, gy0)
	robotgo.Toggle("left")
	time.Sleep(50 * time.Millisecond)
	robotgo.MoveSmooth(gx1, gy1)
	time.Sleep(50 * time.Millisecond)
	robotgo.Toggle("left", "up")
	// Let the map stop scrolling before the next probe
	time.Sleep(300 * time.Millisecond)
}

func (r *Robot) Move(dx, dy int) {
	robotgo.MoveRelative(dx, dy)
}

func (r *Robot) Scroll(n int) {
	robotgo.Scroll(0, n)
}

func (r *Robot) Sleep(d time.Duration) {
	time.Sleep(d)
}
