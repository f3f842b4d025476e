package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"chatctl/internal/api"
)

func (a *App) openChat(contact api.User) {
	chatPage := a.createChatPage(contact)
	a.pages.AddPage("chat", chatPage, true, true)
	a.pages.SwitchToPage("chat")

	go func() {
		ctx, cancel := a.ctx()
		defer cancel()
		a.conv.Select(ctx, &contact)
	}()
}

func (a *App) chatTitle(contact api.User) string {
	status := "○ offline"
	if a.session.IsOnline(contact.ID) {
		status = "● online"
	}
	name := contact.FullName
	if name == "" {
		name = contact.ID
	}
	if a.conv.LoadingHistory() {
		return fmt.Sprintf(" %s ─ %s ─ loading... ", name, status)
	}
	return fmt.Sprintf(" %s ─ %s ", name, status)
}

func (a *App) createChatPage(contact api.User) tview.Primitive {
	// Chat history view
	a.chatView = tview.NewTextView()
	a.chatView.SetBorder(true)
	a.chatView.SetBorderColor(ColorBorder)
	a.chatView.SetBackgroundColor(ColorBg)
	a.chatView.SetTitle(a.chatTitle(contact))
	a.chatView.SetTitleColor(ColorTitle)
	a.chatView.SetTextColor(ColorFg)
	a.chatView.SetDynamicColors(true)
	a.chatView.SetScrollable(true)
	a.chatView.ScrollToEnd()

	// Attachment state line above the input
	a.attachLine = tview.NewTextView()
	a.attachLine.SetBackgroundColor(ColorBg)
	a.attachLine.SetTextColor(ColorFg)
	a.attachLine.SetDynamicColors(true)

	// Message input
	a.messageInput = tview.NewInputField()
	a.messageInput.SetLabel("> ")
	a.messageInput.SetFieldWidth(0)
	a.messageInput.SetBackgroundColor(ColorBg)
	a.messageInput.SetFieldBackgroundColor(ColorBgField)
	a.messageInput.SetFieldTextColor(ColorFg)
	a.messageInput.SetLabelColor(ColorHighlight)
	a.messageInput.SetBorder(true)
	a.messageInput.SetBorderColor(ColorBorder)
	a.messageInput.SetTitle(" Message ")
	a.messageInput.SetTitleColor(ColorTitle)

	a.messageInput.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			a.submitMessage()
		}
	})

	a.chatToast = newToastView()

	chatStatus := tview.NewTextView()
	chatStatus.SetBackgroundColor(ColorBgBar)
	chatStatus.SetTextColor(ColorTitle)
	chatStatus.SetTextAlign(tview.AlignCenter)
	chatStatus.SetText(" Enter:Send | F2:Attach | F4:Drop attach | F5:Refresh | Tab:Scroll | Esc:Back ")

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.chatView, 0, 1, false).
		AddItem(a.attachLine, 1, 0, false).
		AddItem(a.messageInput, 3, 0, true).
		AddItem(a.chatToast, 1, 0, false).
		AddItem(chatStatus, 1, 0, false)
	mainFlex.SetBackgroundColor(ColorBg)

	// Track focus on chat view for scrolling
	chatViewFocused := false

	mainFlex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc:
			if chatViewFocused {
				chatViewFocused = false
				a.app.SetFocus(a.messageInput)
				return nil
			}
			a.closeChat()
			return nil
		case tcell.KeyTab:
			chatViewFocused = !chatViewFocused
			if chatViewFocused {
				a.app.SetFocus(a.chatView)
			} else {
				a.app.SetFocus(a.messageInput)
			}
			return nil
		case tcell.KeyF2:
			a.showAttachDialog()
			return nil
		case tcell.KeyF4:
			a.clearAttachment()
			a.updateAttachLine()
			return nil
		case tcell.KeyF5:
			go func() {
				ctx, cancel := a.ctx()
				defer cancel()
				a.conv.LoadHistory(ctx, contact.ID)
			}()
			return nil
		case tcell.KeyPgUp:
			row, col := a.chatView.GetScrollOffset()
			a.chatView.ScrollTo(row-10, col)
			return nil
		case tcell.KeyPgDn:
			row, col := a.chatView.GetScrollOffset()
			a.chatView.ScrollTo(row+10, col)
			return nil
		case tcell.KeyUp:
			if chatViewFocused {
				row, col := a.chatView.GetScrollOffset()
				a.chatView.ScrollTo(row-1, col)
				return nil
			}
		case tcell.KeyDown:
			if chatViewFocused {
				row, col := a.chatView.GetScrollOffset()
				a.chatView.ScrollTo(row+1, col)
				return nil
			}
		case tcell.KeyHome:
			if chatViewFocused {
				a.chatView.ScrollToBeginning()
				return nil
			}
		case tcell.KeyEnd:
			if chatViewFocused {
				a.chatView.ScrollToEnd()
				return nil
			}
		}
		return event
	})

	return mainFlex
}

func (a *App) refreshChatView() {
	if a.chatView == nil {
		return
	}

	selected := a.conv.Selected()
	if selected == nil {
		return
	}
	a.chatView.SetTitle(a.chatTitle(*selected))

	identity := a.session.Identity()
	myID := ""
	if identity != nil {
		myID = identity.ID
	}

	messages := a.conv.Messages()

	_, _, width, _ := a.chatView.GetInnerRect()
	if width < 10 {
		width = 80
	}

	a.chatView.Clear()
	var sb strings.Builder
	var lastDate string

	for _, msg := range messages {
		msgDate := msg.CreatedAt.Local().Format("2006-01-02")

		// Date separator when the day changes
		if msgDate != lastDate {
			dateLabel := formatDateSeparator(msg.CreatedAt)
			padding := (width - len(dateLabel)) / 2
			if padding < 0 {
				padding = 0
			}
			sb.WriteString(fmt.Sprintf("[gray]%s%s[-]\n", strings.Repeat(" ", padding), dateLabel))
			lastDate = msgDate
		}

		timeStr := msg.CreatedAt.Local().Format("15:04:05")

		text := tview.Escape(msg.Text)
		if msg.Image != "" {
			marker := fmt.Sprintf("[aqua][image: %s][-]", tview.Escape(msg.Image))
			if text != "" {
				text = text + " " + marker
			} else {
				text = marker
			}
		}

		// Outgoing = white, Incoming = yellow
		if msg.SenderID == myID {
			sb.WriteString(fmt.Sprintf("[gray]%s[-] [white]→ %s[-]\n", timeStr, text))
		} else {
			sb.WriteString(fmt.Sprintf("[gray]%s[-] [yellow]← %s[-]\n", timeStr, text))
		}
	}

	a.chatView.SetText(sb.String())
	a.chatView.ScrollToEnd()
}

// submitMessage dispatches the draft into the conversation store. The input
// and attachment are cleared only when the send succeeds, so a failed send
// leaves the draft intact for retry.
func (a *App) submitMessage() {
	if a.conv.Sending() {
		return
	}

	text := a.messageInput.GetText()
	a.mu.RLock()
	att := a.attachment
	a.mu.RUnlock()

	go func() {
		ctx, cancel := a.ctx()
		defer cancel()
		if err := a.conv.Send(ctx, text, att); err != nil {
			return
		}
		a.app.QueueUpdateDraw(func() {
			if a.messageInput != nil {
				a.messageInput.SetText("")
			}
			a.clearAttachment()
			a.updateAttachLine()
		})
	}()
}

func (a *App) updateAttachLine() {
	if a.attachLine == nil {
		return
	}

	a.mu.RLock()
	att := a.attachment
	preview := a.preview
	a.mu.RUnlock()

	if att == nil {
		a.attachLine.SetText("")
		return
	}
	if preview != nil {
		a.attachLine.SetText(fmt.Sprintf(" [aqua]📎 %s[-] [gray](%s, %s)[-]",
			tview.Escape(att.Name), preview.String(), formatSize(att.Size())))
		return
	}
	a.attachLine.SetText(fmt.Sprintf(" [aqua]📎 %s[-] [gray](%s)[-]",
		tview.Escape(att.Name), formatSize(att.Size())))
}

func (a *App) clearAttachment() {
	a.mu.Lock()
	a.attachment = nil
	a.preview = nil
	a.mu.Unlock()
}

func (a *App) closeChat() {
	go func() {
		ctx, cancel := a.ctx()
		defer cancel()
		a.conv.Select(ctx, nil)
	}()
	a.clearAttachment()
	a.closeChatWidgets()
	a.pages.RemovePage("chat")
	a.pages.SwitchToPage("main")
	if a.contactsList != nil {
		a.app.SetFocus(a.contactsList)
	}
}

func (a *App) closeChatWidgets() {
	a.chatView = nil
	a.messageInput = nil
	a.attachLine = nil
	a.chatToast = nil
}
