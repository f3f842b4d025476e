package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func (a *App) showHelp() {
	helpText := `
 [yellow]Contacts Screen[-]
 ───────────────────────────────────────────────────────────────
   [white]F1[-]       Show this help
   [white]F2[-]       Open / close menu
   [white]F3[-]       Edit profile
   [white]F5[-]       Refresh contact list
   [white]F9[-]       Log out
   [white]F10/Esc[-]  Quit application
   [white]Enter[-]    Open conversation with contact
   [white]↑ ↓[-]      Navigate contacts

 [yellow]Conversation Screen[-]
 ───────────────────────────────────────────────────────────────
   [white]Enter[-]    Send message
   [white]F2[-]       Attach an image (max 5 MB)
   [white]F4[-]       Drop the pending attachment
   [white]F5[-]       Refresh history
   [white]Tab[-]      Switch between input and scroll mode
   [white]Esc[-]      Back to contacts (from input mode)

 [yellow]Scroll Mode (after pressing Tab)[-]
 ───────────────────────────────────────────────────────────────
   [white]↑ ↓[-]      Scroll one line
   [white]PgUp/Dn[-]  Scroll page (10 lines)
   [white]Home[-]     Scroll to beginning
   [white]End[-]      Scroll to end
   [white]Tab/Esc[-]  Return to input mode

 [yellow]Status Icons[-]
 ───────────────────────────────────────────────────────────────
   [green]●[-] online   Contact has a live session
   [gray]○[-] offline  Contact is not connected

 [yellow]Notes[-]
 ───────────────────────────────────────────────────────────────
   Messages from the selected contact arrive live over the push
   channel; other screens refresh on next open.
   Attachments are sent as binary uploads, never re-encoded.
`

	helpView := tview.NewTextView()
	helpView.SetText(helpText)
	helpView.SetBackgroundColor(ColorBg)
	helpView.SetTextColor(ColorFg)
	helpView.SetDynamicColors(true)
	helpView.SetBorder(true)
	helpView.SetBorderColor(ColorBorder)
	helpView.SetTitle(" Help ")
	helpView.SetTitleColor(ColorTitle)
	helpView.SetScrollable(true)

	helpView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc, tcell.KeyF1, tcell.KeyF10:
			a.pages.RemovePage("help")
			if a.contactsList != nil {
				a.app.SetFocus(a.contactsList)
			}
			return nil
		}
		return event
	})

	a.pages.AddPage("help", helpView, true, true)
	a.app.SetFocus(helpView)
}
