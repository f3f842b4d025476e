package ui

import (
	"sync"
	"time"
)

const toastDuration = 4 * time.Second

// ToastLevel distinguishes success from error toasts.
type ToastLevel int

const (
	ToastSuccess ToastLevel = iota
	ToastError
)

// Toasts implements store.Notifier as a transient one-line notification.
// The UI renders Current() into the toast bar; each new toast resets the
// clear timer.
type Toasts struct {
	mu     sync.Mutex
	text   string
	level  ToastLevel
	timer  *time.Timer
	redraw func()
}

func NewToasts() *Toasts {
	return &Toasts{}
}

// SetRedraw registers the hook invoked whenever the toast content changes.
func (t *Toasts) SetRedraw(fn func()) {
	t.mu.Lock()
	t.redraw = fn
	t.mu.Unlock()
}

// Success shows a success toast.
func (t *Toasts) Success(msg string) {
	t.show(msg, ToastSuccess)
}

// Error shows an error toast.
func (t *Toasts) Error(msg string) {
	t.show(msg, ToastError)
}

// Current returns the toast being displayed; empty text means none.
func (t *Toasts) Current() (string, ToastLevel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text, t.level
}

func (t *Toasts) show(msg string, level ToastLevel) {
	t.mu.Lock()
	t.text = msg
	t.level = level
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(toastDuration, t.clear)
	redraw := t.redraw
	t.mu.Unlock()

	if redraw != nil {
		redraw()
	}
}

func (t *Toasts) clear() {
	t.mu.Lock()
	t.text = ""
	redraw := t.redraw
	t.mu.Unlock()

	if redraw != nil {
		redraw()
	}
}
