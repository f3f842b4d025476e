package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"chatctl/internal/api"
	"chatctl/internal/attach"
	"chatctl/internal/push"
)

// ConversationStore holds the contact list, the active contact and the
// message history with it. History loads are guarded against out-of-order
// completion: a fetch issued for a superseded selection is discarded.
type ConversationStore struct {
	api     *api.Client
	session *SessionStore
	notify  Notifier
	log     zerolog.Logger

	mu              sync.RWMutex
	contacts        []api.User
	selected        *api.User
	messages        []api.Message
	loadingContacts bool
	loadingHistory  bool
	sending         bool
	loadSeq         uint64
	sub             push.Subscription

	listeners []func()
}

// NewConversationStore creates a conversation store bound to the session's
// push channel for live delivery.
func NewConversationStore(client *api.Client, session *SessionStore, notify Notifier, logger zerolog.Logger) *ConversationStore {
	return &ConversationStore{
		api:     client,
		session: session,
		notify:  notify,
		log:     logger.With().Str("component", "conversation").Logger(),
	}
}

// OnChange registers a hook invoked after every state commit.
func (s *ConversationStore) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *ConversationStore) changed() {
	s.mu.RLock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// LoadContacts fetches the contact list. On failure the previous list is
// left untouched.
func (s *ConversationStore) LoadContacts(ctx context.Context) {
	s.mu.Lock()
	s.loadingContacts = true
	s.mu.Unlock()
	s.changed()

	users, err := s.api.Contacts(ctx)

	s.mu.Lock()
	s.loadingContacts = false
	if err == nil {
		s.contacts = users
	}
	s.mu.Unlock()

	if err != nil {
		s.notify.Error(errMessage(err, "Failed to load contacts"))
	}
	s.changed()
}

// Select sets the active contact. The message list is cleared synchronously
// so stale history is never shown against the new selection, the push
// subscription is rebound, and a history load is issued for a non-nil
// contact.
func (s *ConversationStore) Select(ctx context.Context, contact *api.User) {
	s.mu.Lock()
	s.selected = contact
	s.messages = nil
	s.loadingHistory = false
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	s.rebind()
	s.changed()

	if contact != nil {
		s.loadHistory(ctx, contact.ID, seq)
	}
}

// LoadHistory refetches history for the given contact, typically the
// current selection (manual refresh).
func (s *ConversationStore) LoadHistory(ctx context.Context, contactID string) {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()
	s.loadHistory(ctx, contactID, seq)
}

// loadHistory commits the fetched history only when seq is still the latest
// issued load and the selection still matches the request. A stale
// completion leaves both the list and the loading flag to the fetch that
// superseded it.
func (s *ConversationStore) loadHistory(ctx context.Context, contactID string, seq uint64) {
	s.mu.Lock()
	s.loadingHistory = true
	s.mu.Unlock()
	s.changed()

	messages, err := s.api.History(ctx, contactID)

	s.mu.Lock()
	if seq != s.loadSeq || s.selected == nil || s.selected.ID != contactID {
		s.mu.Unlock()
		s.log.Debug().Str("contact", contactID).Uint64("seq", seq).Msg("discarded stale history")
		return
	}
	s.loadingHistory = false
	if err == nil {
		s.messages = messages
	}
	s.mu.Unlock()

	if err != nil {
		s.notify.Error(errMessage(err, "Failed to load messages"))
	}
	s.changed()
}

// Send validates and posts a message to the selected contact. The appended
// message is the server's canonical object, which is also emitted over the
// push channel so the recipient's live session sees it without polling. The
// error return lets the composer keep its draft on failure.
func (s *ConversationStore) Send(ctx context.Context, text string, att *attach.Attachment) error {
	s.mu.RLock()
	selected := s.selected
	s.mu.RUnlock()

	if selected == nil {
		s.notify.Error("No recipient selected")
		return ErrNoRecipient
	}

	text = strings.TrimSpace(text)
	if text == "" && att == nil {
		s.notify.Error("Nothing to send")
		return ErrEmptyMessage
	}

	s.mu.Lock()
	s.sending = true
	s.mu.Unlock()
	s.changed()
	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
		s.changed()
	}()

	var image []byte
	var imageName string
	if att != nil {
		image = att.Data
		imageName = att.Name
	}

	msg, err := s.api.SendMessage(ctx, selected.ID, text, image, imageName)
	if err != nil {
		s.notify.Error(errMessage(err, "Failed to send message"))
		return err
	}

	s.mu.Lock()
	if s.selected != nil && s.selected.ID == selected.ID {
		s.messages = append(s.messages, *msg)
	}
	s.mu.Unlock()

	if ch := s.session.Channel(); ch != nil {
		if err := ch.Emit(push.EventSendMessage, msg); err != nil {
			s.log.Debug().Err(err).Msg("push emit failed")
		}
	}
	return nil
}

// Bind subscribes to live message delivery. The previous token, if any, is
// revoked first so handlers never pile up across selection changes.
func (s *ConversationStore) Bind() {
	ch := s.session.Channel()

	s.mu.Lock()
	s.sub.Cancel()
	s.sub = push.Subscription{}
	if ch != nil {
		s.sub = ch.On(push.EventNewMessage, s.handleIncoming)
	}
	s.mu.Unlock()
}

// Unbind revokes the live delivery subscription.
func (s *ConversationStore) Unbind() {
	s.mu.Lock()
	s.sub.Cancel()
	s.sub = push.Subscription{}
	s.mu.Unlock()
}

// rebind is called on every selection change per the subscription-token
// policy; the handler itself reads the selection at delivery time, so a
// handler bound while contact A was active can never append against B.
func (s *ConversationStore) rebind() {
	s.mu.RLock()
	selected := s.selected
	s.mu.RUnlock()
	if selected == nil {
		s.Unbind()
		return
	}
	s.Bind()
}

// handleIncoming appends a pushed message iff it involves the currently
// selected contact as sender or receiver.
func (s *ConversationStore) handleIncoming(data json.RawMessage) {
	var msg api.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Debug().Err(err).Msg("malformed message event")
		return
	}

	s.mu.Lock()
	selected := s.selected
	if selected == nil || (msg.SenderID != selected.ID && msg.ReceiverID != selected.ID) {
		s.mu.Unlock()
		return
	}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.changed()
}

// Contacts returns the loaded contact list.
func (s *ConversationStore) Contacts() []api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contacts := make([]api.User, len(s.contacts))
	copy(contacts, s.contacts)
	return contacts
}

// Selected returns the active contact, or nil.
func (s *ConversationStore) Selected() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	contact := *s.selected
	return &contact
}

// Messages returns the history with the active contact.
func (s *ConversationStore) Messages() []api.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := make([]api.Message, len(s.messages))
	copy(messages, s.messages)
	return messages
}

func (s *ConversationStore) LoadingContacts() bool { return s.rflag(&s.loadingContacts) }
func (s *ConversationStore) LoadingHistory() bool  { return s.rflag(&s.loadingHistory) }
func (s *ConversationStore) Sending() bool         { return s.rflag(&s.sending) }

func (s *ConversationStore) rflag(p *bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *p
}
