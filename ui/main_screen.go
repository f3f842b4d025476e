package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func (a *App) showMainScreen() {
	a.pages.RemovePage("background")

	mainPage := a.createMainPage()
	a.pages.AddPage("main", mainPage, true, true)
	a.pages.SwitchToPage("main")

	a.updateNavBar()
	a.updateContactsList()

	go func() {
		ctx, cancel := a.ctx()
		defer cancel()
		a.conv.LoadContacts(ctx)
	}()

	a.app.SetFocus(a.contactsList)
}

func (a *App) createMainPage() tview.Primitive {
	// Navigation bar on top; identity-scoped entries render only while an
	// identity is present.
	a.navBar = tview.NewTextView()
	a.navBar.SetBackgroundColor(ColorBgBar)
	a.navBar.SetTextColor(ColorTitle)
	a.navBar.SetDynamicColors(true)

	// Contacts list
	a.contactsList = tview.NewList()
	a.contactsList.SetBorder(true)
	a.contactsList.SetBorderColor(ColorBorder)
	a.contactsList.SetBackgroundColor(ColorBg)
	a.contactsList.SetTitle(" Contacts ")
	a.contactsList.SetTitleColor(ColorTitle)
	a.contactsList.SetMainTextColor(ColorFg)
	a.contactsList.SetMainTextStyle(tcell.StyleDefault.Foreground(ColorFg).Background(ColorBg))
	a.contactsList.SetSelectedTextColor(ColorTitle)
	a.contactsList.SetSelectedBackgroundColor(ColorBgBar)
	a.contactsList.SetHighlightFullLine(true)
	a.contactsList.ShowSecondaryText(false)

	a.contactsList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		a.mu.RLock()
		if index >= len(a.contacts) {
			a.mu.RUnlock()
			return
		}
		contact := a.contacts[index]
		a.mu.RUnlock()
		a.openChat(contact)
	})

	a.mainToast = newToastView()

	statusBar := tview.NewTextView()
	statusBar.SetBackgroundColor(ColorBgBar)
	statusBar.SetTextColor(ColorTitle)
	statusBar.SetTextAlign(tview.AlignCenter)
	statusBar.SetText(" F1:Help | F2:Menu | F3:Profile | F5:Refresh | F9:Logout | F10:Quit ")

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.navBar, 1, 0, false).
		AddItem(a.contactsList, 0, 1, true).
		AddItem(a.mainToast, 1, 0, false).
		AddItem(statusBar, 1, 0, false)
	mainFlex.SetBackgroundColor(ColorBg)

	mainFlex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			a.showHelp()
			return nil
		case tcell.KeyF2:
			a.toggleMenu()
			return nil
		case tcell.KeyF3:
			a.showProfileDialog()
			return nil
		case tcell.KeyF5:
			go func() {
				ctx, cancel := a.ctx()
				defer cancel()
				a.conv.LoadContacts(ctx)
			}()
			return nil
		case tcell.KeyF9:
			a.logOut()
			return nil
		case tcell.KeyF10:
			a.quit()
			return nil
		case tcell.KeyEsc:
			a.quit()
			return nil
		}
		return event
	})

	return mainFlex
}

func (a *App) updateNavBar() {
	if a.navBar == nil {
		return
	}
	user := a.session.Identity()
	if user == nil {
		a.navBar.SetText(" chatctl ")
		return
	}
	a.navBar.SetText(fmt.Sprintf(" chatctl │ %s │ %s ", tview.Escape(user.FullName), a.serverURL))
}

func (a *App) updateContactsList() {
	if a.contactsList == nil {
		return
	}

	contacts := a.conv.Contacts()
	a.mu.Lock()
	a.contacts = contacts
	a.mu.Unlock()

	if a.conv.LoadingContacts() {
		a.contactsList.SetTitle(" Contacts (loading...) ")
	} else {
		a.contactsList.SetTitle(fmt.Sprintf(" Contacts (%d) ", len(contacts)))
	}

	currentIdx := a.contactsList.GetCurrentItem()
	a.contactsList.Clear()

	for _, contact := range contacts {
		name := contact.FullName
		if name == "" {
			name = contact.ID
		}
		var mainText string
		if a.session.IsOnline(contact.ID) {
			mainText = fmt.Sprintf("[green]●[white] %s", tview.Escape(name))
		} else {
			mainText = fmt.Sprintf("[gray]○[white] %s", tview.Escape(name))
		}
		a.contactsList.AddItem(mainText, "", 0, nil)
	}

	if currentIdx >= 0 && currentIdx < a.contactsList.GetItemCount() {
		a.contactsList.SetCurrentItem(currentIdx)
	}
}

// logOut clears local state and returns to the auth page regardless of the
// server call's outcome.
func (a *App) logOut() {
	go func() {
		ctx, cancel := a.ctx()
		defer cancel()
		a.conv.Select(ctx, nil)
		a.session.LogOut(ctx)
		a.app.QueueUpdateDraw(func() {
			a.closeChatWidgets()
			a.pages.RemovePage("chat")
			a.pages.RemovePage("menu")
			a.pages.RemovePage("main")
			a.contactsList = nil
			a.navBar = nil
			a.mainToast = nil
			a.showAuthPage()
		})
	}()
}
