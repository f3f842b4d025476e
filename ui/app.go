package ui

import (
	"context"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"chatctl/internal/api"
	"chatctl/internal/attach"
	"chatctl/internal/store"
)

const requestTimeout = 15 * time.Second

// App is the main application. It renders from the injected stores and
// dispatches user intents into them; all store calls run off the UI
// goroutine and redraws come back through the stores' change hooks.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	session   *store.SessionStore
	conv      *store.ConversationStore
	toasts    *Toasts
	serverURL string
	log       zerolog.Logger

	contactsList *tview.List
	navBar       *tview.TextView
	mainToast    *tview.TextView
	chatView     *tview.TextView
	messageInput *tview.InputField
	attachLine   *tview.TextView
	chatToast    *tview.TextView

	mu         sync.RWMutex
	contacts   []api.User // snapshot backing contactsList indexes
	attachment *attach.Attachment
	preview    *attach.Preview
	menuOpen   bool
}

// NewApp creates the application around explicitly constructed stores.
func NewApp(session *store.SessionStore, conv *store.ConversationStore, toasts *Toasts, serverURL string, logger zerolog.Logger) *App {
	return &App{
		session:   session,
		conv:      conv,
		toasts:    toasts,
		serverURL: serverURL,
		log:       logger.With().Str("component", "ui").Logger(),
	}
}

// Run starts the application, probing for an existing session first.
func (a *App) Run() error {
	a.app = tview.NewApplication()
	a.pages = tview.NewPages()

	background := tview.NewBox()
	background.SetBackgroundColor(tcell.NewRGBColor(64, 64, 64))
	a.pages.AddPage("background", background, true, true)

	a.session.OnChange(func() {
		a.app.QueueUpdateDraw(a.refresh)
	})
	a.conv.OnChange(func() {
		a.app.QueueUpdateDraw(a.refresh)
	})
	a.toasts.SetRedraw(func() {
		a.app.QueueUpdateDraw(a.updateToastBars)
	})

	a.showSplash()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		a.session.CheckSession(ctx)
		a.app.QueueUpdateDraw(func() {
			a.pages.RemovePage("splash")
			if a.session.Identity() != nil {
				a.showMainScreen()
			} else {
				a.showAuthPage()
			}
		})
	}()

	return a.app.SetRoot(a.pages, true).EnableMouse(false).Run()
}

func (a *App) showSplash() {
	splash := tview.NewTextView()
	splash.SetBackgroundColor(ColorBg)
	splash.SetTextColor(ColorFg)
	splash.SetTextAlign(tview.AlignCenter)
	splash.SetText("\n\nChecking session...")
	a.pages.AddPage("splash", splash, true, true)
}

// refresh re-renders every live widget from store state. Widgets belonging
// to pages that are not built yet are nil and skipped.
func (a *App) refresh() {
	a.updateContactsList()
	a.updateNavBar()
	a.refreshChatView()
	a.updateAttachLine()
	a.updateToastBars()
}

func (a *App) updateToastBars() {
	text, level := a.toasts.Current()
	rendered := ""
	if text != "" {
		if level == ToastError {
			rendered = "[red] ✗ " + tview.Escape(text) + "[-]"
		} else {
			rendered = "[green] ✓ " + tview.Escape(text) + "[-]"
		}
	}
	if a.mainToast != nil {
		a.mainToast.SetText(rendered)
	}
	if a.chatToast != nil {
		a.chatToast.SetText(rendered)
	}
}

// newToastView builds a one-line toast bar for a page.
func newToastView() *tview.TextView {
	toast := tview.NewTextView()
	toast.SetBackgroundColor(ColorBg)
	toast.SetTextColor(ColorFg)
	toast.SetDynamicColors(true)
	toast.SetTextAlign(tview.AlignCenter)
	return toast
}

// ctx returns a request-scoped context for a store call.
func (a *App) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// quit exits the application
func (a *App) quit() {
	a.session.Dispose()
	a.app.Stop()
}
