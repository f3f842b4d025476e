package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"chatctl/internal/api"
)

func (a *App) showAuthPage() {
	// Form container
	form := tview.NewForm()
	form.SetBackgroundColor(ColorBg)
	form.SetFieldBackgroundColor(ColorBgField)
	form.SetFieldTextColor(ColorFg)
	form.SetLabelColor(ColorHighlight)
	form.SetButtonBackgroundColor(ColorBgBar)
	form.SetButtonTextColor(ColorTitle)
	form.SetBorder(true)
	form.SetBorderColor(ColorBorder)
	form.SetTitle(" Sign In ")
	form.SetTitleColor(ColorTitle)

	var emailField, nameField, passwordField *tview.InputField
	var statusText *tview.TextView

	statusText = tview.NewTextView()
	statusText.SetBackgroundColor(ColorBg)
	statusText.SetTextColor(tcell.ColorRed)
	statusText.SetTextAlign(tview.AlignCenter)
	statusText.SetDynamicColors(true)

	emailField = tview.NewInputField()
	emailField.SetLabel("Email: ")
	emailField.SetFieldWidth(30)
	emailField.SetBackgroundColor(ColorBg)

	nameField = tview.NewInputField()
	nameField.SetLabel("Full name: ")
	nameField.SetFieldWidth(30)
	nameField.SetBackgroundColor(ColorBg)

	passwordField = tview.NewInputField()
	passwordField.SetLabel("Password: ")
	passwordField.SetFieldWidth(30)
	passwordField.SetMaskCharacter('*')
	passwordField.SetBackgroundColor(ColorBg)

	form.AddFormItem(emailField)
	form.AddFormItem(nameField)
	form.AddFormItem(passwordField)

	form.AddButton("Sign In", func() {
		email := emailField.GetText()
		password := passwordField.GetText()
		if email == "" || password == "" {
			statusText.SetText("[red]Please enter email and password[-]")
			return
		}
		a.doSignIn(email, password, statusText)
	})

	// Sign Up needs the full name as well
	form.AddButton("Sign Up", func() {
		email := emailField.GetText()
		name := nameField.GetText()
		password := passwordField.GetText()
		if email == "" || name == "" || password == "" {
			statusText.SetText("[red]Please enter email, full name and password[-]")
			return
		}
		a.doSignUp(email, name, password, statusText)
	})

	form.AddButton("Quit", func() {
		a.app.Stop()
	})

	formFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(statusText, 1, 0, false)

	width := 54
	height := 14

	modal := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(formFlex, width, 0, true).
			AddItem(nil, 0, 1, false), height, 0, true).
		AddItem(nil, 0, 1, false)

	a.pages.AddPage("auth", modal, true, true)
	a.app.SetFocus(form)
}

func (a *App) doSignIn(email, password string, statusText *tview.TextView) {
	statusText.SetText("Signing in...")

	go func() {
		ctx, cancel := a.ctx()
		defer cancel()
		err := a.session.SignIn(ctx, api.SignInRequest{Email: email, Password: password})
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				statusText.SetText(fmt.Sprintf("[red]%s[-]", tview.Escape(err.Error())))
				return
			}
			a.enterMainScreen()
		})
	}()
}

func (a *App) doSignUp(email, name, password string, statusText *tview.TextView) {
	statusText.SetText("Creating account...")

	go func() {
		ctx, cancel := a.ctx()
		defer cancel()
		err := a.session.SignUp(ctx, api.SignUpRequest{Email: email, FullName: name, Password: password})
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				statusText.SetText(fmt.Sprintf("[red]%s[-]", tview.Escape(err.Error())))
				return
			}
			a.enterMainScreen()
		})
	}()
}

// enterMainScreen swaps the auth page for the main screen.
func (a *App) enterMainScreen() {
	a.pages.RemovePage("auth")
	a.showMainScreen()
}
