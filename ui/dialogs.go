package ui

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"chatctl/internal/api"
	"chatctl/internal/attach"
)

// toggleMenu opens or closes the navigation menu.
func (a *App) toggleMenu() {
	a.mu.Lock()
	open := a.menuOpen
	a.menuOpen = !open
	a.mu.Unlock()

	if open {
		a.pages.RemovePage("menu")
		if a.contactsList != nil {
			a.app.SetFocus(a.contactsList)
		}
		return
	}

	menu := tview.NewList()
	menu.SetBorder(true)
	menu.SetBorderColor(ColorBorder)
	menu.SetBackgroundColor(ColorBg)
	menu.SetTitle(" Menu ")
	menu.SetTitleColor(ColorTitle)
	menu.SetMainTextColor(ColorFg)
	menu.SetSelectedTextColor(ColorTitle)
	menu.SetSelectedBackgroundColor(ColorBgBar)
	menu.ShowSecondaryText(false)

	menu.AddItem("Profile", "", 'p', func() {
		a.closeMenu()
		a.showProfileDialog()
	})
	menu.AddItem("Help", "", 'h', func() {
		a.closeMenu()
		a.showHelp()
	})
	menu.AddItem("Log out", "", 'q', func() {
		a.closeMenu()
		a.logOut()
	})
	menu.AddItem("Close", "", 0, a.closeMenu)

	menu.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || event.Key() == tcell.KeyF2 {
			a.closeMenu()
			return nil
		}
		return event
	})

	modal := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 1, 0, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(menu, 30, 0, true).
			AddItem(nil, 0, 1, false), 8, 0, true).
		AddItem(nil, 0, 1, false)

	a.pages.AddPage("menu", modal, true, true)
	a.app.SetFocus(menu)
}

func (a *App) closeMenu() {
	a.mu.Lock()
	a.menuOpen = false
	a.mu.Unlock()
	a.pages.RemovePage("menu")
	if a.contactsList != nil {
		a.app.SetFocus(a.contactsList)
	}
}

func (a *App) showProfileDialog() {
	user := a.session.Identity()
	if user == nil {
		return
	}

	form := tview.NewForm()
	form.SetBackgroundColor(ColorBg)
	form.SetFieldBackgroundColor(ColorBgField)
	form.SetFieldTextColor(ColorFg)
	form.SetLabelColor(ColorHighlight)
	form.SetButtonBackgroundColor(ColorBgBar)
	form.SetButtonTextColor(ColorTitle)
	form.SetBorder(true)
	form.SetBorderColor(ColorBorder)
	form.SetTitle(" Profile ")
	form.SetTitleColor(ColorTitle)

	var nameField *tview.InputField
	var statusLabel *tview.TextView

	statusLabel = tview.NewTextView()
	statusLabel.SetBackgroundColor(ColorBg)
	statusLabel.SetTextColor(tcell.ColorRed)
	statusLabel.SetDynamicColors(true)

	emailView := tview.NewTextView()
	emailView.SetBackgroundColor(ColorBg)
	emailView.SetTextColor(ColorOffline)
	emailView.SetText(" " + user.Email)

	nameField = tview.NewInputField()
	nameField.SetLabel("Full name: ")
	nameField.SetFieldWidth(30)
	nameField.SetText(user.FullName)

	form.AddFormItem(nameField)

	form.AddButton("Save", func() {
		name := nameField.GetText()
		if name == "" {
			statusLabel.SetText("Full name is required")
			return
		}
		statusLabel.SetText("Saving...")
		go func() {
			ctx, cancel := a.ctx()
			defer cancel()
			err := a.session.UpdateProfile(ctx, api.ProfileUpdate{FullName: &name})
			a.app.QueueUpdateDraw(func() {
				if err != nil {
					statusLabel.SetText(fmt.Sprintf("[red]%s[-]", tview.Escape(err.Error())))
					return
				}
				a.closeDialog()
			})
		}()
	})

	form.AddButton("Cancel", a.closeDialog)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
				AddItem(form, 9, 0, true).
				AddItem(emailView, 1, 0, false).
				AddItem(statusLabel, 1, 0, false), 50, 0, true).
			AddItem(nil, 0, 1, false), 11, 0, true).
		AddItem(nil, 0, 1, false)
	flex.SetBackgroundColor(ColorBg)

	a.pages.AddPage("dialog", flex, true, true)
	a.app.SetFocus(form)
}

// showAttachDialog collects an image path, validates it through the attach
// package and decodes the preview off the UI goroutine.
func (a *App) showAttachDialog() {
	form := tview.NewForm()
	form.SetBackgroundColor(ColorBg)
	form.SetFieldBackgroundColor(ColorBgField)
	form.SetFieldTextColor(ColorFg)
	form.SetLabelColor(ColorHighlight)
	form.SetButtonBackgroundColor(ColorBgBar)
	form.SetButtonTextColor(ColorTitle)
	form.SetBorder(true)
	form.SetBorderColor(ColorBorder)
	form.SetTitle(" Attach Image ")
	form.SetTitleColor(ColorTitle)

	var pathField *tview.InputField
	var statusLabel *tview.TextView

	statusLabel = tview.NewTextView()
	statusLabel.SetBackgroundColor(ColorBg)
	statusLabel.SetTextColor(tcell.ColorRed)
	statusLabel.SetDynamicColors(true)

	pathField = tview.NewInputField()
	pathField.SetLabel("Path: ")
	pathField.SetFieldWidth(40)

	form.AddFormItem(pathField)

	form.AddButton("Attach", func() {
		path := pathField.GetText()
		if path == "" {
			statusLabel.SetText("Path is required")
			return
		}
		statusLabel.SetText("Loading...")
		go a.loadAttachment(path, statusLabel)
	})

	form.AddButton("Cancel", func() {
		a.closeDialog()
		if a.messageInput != nil {
			a.app.SetFocus(a.messageInput)
		}
	})

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(form, 60, 0, true).
			AddItem(nil, 0, 1, false), 9, 0, true).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(statusLabel, 60, 0, false).
			AddItem(nil, 0, 1, false), 1, 0, false).
		AddItem(nil, 0, 1, false)
	flex.SetBackgroundColor(ColorBg)

	a.pages.AddPage("dialog", flex, true, true)
	a.app.SetFocus(form)
}

func (a *App) loadAttachment(path string, statusLabel *tview.TextView) {
	att, err := attach.Load(path)
	if err != nil {
		msg := "Failed to read attachment"
		if errors.Is(err, attach.ErrNotImage) {
			msg = "Attachment must be an image"
		} else if errors.Is(err, attach.ErrTooLarge) {
			msg = "Attachment exceeds the 5 MB limit"
		}
		a.toasts.Error(msg)
		a.app.QueueUpdateDraw(func() {
			statusLabel.SetText(fmt.Sprintf("[red]%s[-]", msg))
		})
		return
	}

	// Preview decode is display-only; the send path uses the raw bytes.
	preview, err := att.Preview()
	if err != nil {
		a.log.Debug().Err(err).Str("path", path).Msg("preview decode failed")
	}

	a.mu.Lock()
	a.attachment = att
	a.preview = preview
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		a.closeDialog()
		a.updateAttachLine()
		if a.messageInput != nil {
			a.app.SetFocus(a.messageInput)
		}
	})
}

func (a *App) closeDialog() {
	a.pages.RemovePage("dialog")
	if a.contactsList != nil && a.chatView == nil {
		a.app.SetFocus(a.contactsList)
	}
}
