package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/locale"
)

const (
	defaultEventBuffer = 128
	commandBuffer      = 32
)

// MessengerConfig wires a Messenger to its collaborators.
type MessengerConfig struct {
	Service      MessagingService
	Images       ImageEncoder
	Self         Identity
	Phrases      locale.Phrases
	Logger       *zerolog.Logger
	Clock        func() time.Time
	RecallWindow time.Duration
	NoticeTTL    time.Duration
	EventBuffer  int
}

// Messenger owns the session list and the active thread of one signed-in user.
// All state changes happen on the Run goroutine; network calls run aside and
// post their completions back to it.
type Messenger struct {
	service  MessagingService
	images   ImageEncoder
	self     Identity
	policy   RecallPolicy
	previews Previewer
	phrases  locale.Phrases
	log      *zerolog.Logger
	now      func() time.Time

	sessions      *SessionStore
	thread        *MessageThread
	notifications *NotificationAggregator
	notices       *noticeBoard

	commands    chan *Command
	completions chan func()
	done        chan struct{}
	// Events is the outbound feed for the view; slow readers lose events.
	Events chan *Event

	ctx       context.Context
	wg        sync.WaitGroup
	threadGen uint64
	listGen   uint64
	sending   map[string]struct{}
	recalling map[int64]struct{}
}

// NewMessenger constructs a messenger; call Run to start it.
func NewMessenger(cfg MessengerConfig) *Messenger {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	phrases := cfg.Phrases
	if phrases.Tag == "" {
		phrases = locale.English
	}
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}

	policy := NewRecallPolicy(cfg.Self.UserID)
	if cfg.RecallWindow > 0 {
		policy.Window = cfg.RecallWindow
	}

	sessions := NewSessionStore()
	return &Messenger{
		service:       cfg.Service,
		images:        cfg.Images,
		self:          cfg.Self,
		policy:        policy,
		previews:      Previewer{Self: cfg.Self.UserID, Phrases: phrases},
		phrases:       phrases,
		log:           logger,
		now:           clock,
		sessions:      sessions,
		thread:        NewMessageThread(),
		notifications: NewNotificationAggregator(sessions, phrases),
		notices:       newNoticeBoard(cfg.NoticeTTL),
		commands:      make(chan *Command, commandBuffer),
		completions:   make(chan func(), commandBuffer),
		done:          make(chan struct{}),
		Events:        make(chan *Event, buffer),
		sending:       make(map[string]struct{}),
		recalling:     make(map[int64]struct{}),
	}
}

// Identity returns the signed-in user.
func (m *Messenger) Identity() Identity {
	return m.self
}

// Policy returns the recall policy applied locally.
func (m *Messenger) Policy() RecallPolicy {
	return m.policy
}

// Run processes commands and completions until ctx is done.
func (m *Messenger) Run(ctx context.Context) {
	m.ctx = ctx
	defer close(m.done)

	m.log.Debug().Int64("user_id", m.self.UserID).Msg("messenger started")
	for {
		select {
		case <-ctx.Done():
			m.notices.stopAll()
			m.wg.Wait()
			m.log.Debug().Msg("messenger stopped")
			return
		case cmd := <-m.commands:
			if cmd != nil {
				m.handleCommand(cmd)
			}
		case fn := <-m.completions:
			fn()
		}
	}
}

// Submit queues a command for the loop.
func (m *Messenger) Submit(cmd *Command) error {
	select {
	case <-m.done:
		return ErrStopped
	default:
	}
	select {
	case m.commands <- cmd:
		return nil
	case <-m.done:
		return ErrStopped
	}
}

// Snapshot returns a consistent copy of the state.
func (m *Messenger) Snapshot(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	if err := m.Submit(&Command{Kind: CommandSnapshot, Reply: reply}); err != nil {
		return State{}, err
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-m.done:
		return State{}, ErrStopped
	}
}

// LoadSessions refreshes the list and activates preferredID if it is present (0 for none).
func (m *Messenger) LoadSessions(preferredID int64) error {
	return m.Submit(&Command{Kind: CommandLoadSessions, SessionID: preferredID})
}

// Select switches to session id.
func (m *Messenger) Select(id int64) error {
	return m.Submit(&Command{Kind: CommandSelectSession, SessionID: id})
}

// SendText sends text in the active session; key identifies the draft.
func (m *Messenger) SendText(key, text string) error {
	return m.Submit(&Command{Kind: CommandSendText, Draft: Draft{Key: key, Type: MessageTypeText, Content: text}})
}

// SendImage sends the image at path in the active session.
func (m *Messenger) SendImage(key, path string) error {
	return m.Submit(&Command{Kind: CommandSendImage, Draft: Draft{Key: key, Type: MessageTypeImage}, ImagePath: path})
}

// Recall unsends message id in the active session.
func (m *Messenger) Recall(id int64) error {
	return m.Submit(&Command{Kind: CommandRecall, MessageID: id})
}

// MarkAllRead clears every unread count.
func (m *Messenger) MarkAllRead() error {
	return m.Submit(&Command{Kind: CommandMarkAllRead})
}

// OpenNotifications marks everything read when the feed has unread entries.
func (m *Messenger) OpenNotifications() error {
	return m.Submit(&Command{Kind: CommandOpenNotifications})
}

// StartChat opens the conversation about a listing.
func (m *Messenger) StartChat(listingID int64) error {
	return m.Submit(&Command{Kind: CommandStartChat, ListingID: listingID})
}

// Deliver applies a message pushed by the service.
func (m *Messenger) Deliver(msg Message) error {
	return m.Submit(&Command{Kind: CommandDeliverMessage, Message: msg})
}

// DeliverRecall applies a recall pushed by the service.
func (m *Messenger) DeliverRecall(msg Message) error {
	return m.Submit(&Command{Kind: CommandDeliverRecall, Message: msg})
}

func (m *Messenger) handleCommand(cmd *Command) {
	switch cmd.Kind {
	case CommandLoadSessions:
		m.loadSessions(cmd.SessionID, true)
	case CommandSelectSession:
		m.activate(cmd.SessionID, false)
	case CommandSendText, CommandSendImage:
		m.send(cmd.Kind, cmd.Draft, cmd.ImagePath)
	case CommandRecall:
		m.recall(cmd.MessageID)
	case CommandMarkAllRead:
		m.markAllRead()
	case CommandOpenNotifications:
		if m.notifications.ShouldMarkRead() {
			m.markAllRead()
		}
	case CommandStartChat:
		m.startChat(cmd.ListingID)
	case CommandDeliverMessage:
		m.deliverMessage(cmd.Message)
	case CommandDeliverRecall:
		m.deliverRecall(cmd.Message)
	case CommandSnapshot:
		if cmd.Reply != nil {
			select {
			case cmd.Reply <- m.state():
			default:
			}
		}
	default:
		m.fail(cmd.Kind, 0, coreError(ErrCodeBadRequest, "unknown command"))
	}
}

func (m *Messenger) loadSessions(preferredID int64, reloadThread bool) {
	m.listGen++
	gen := m.listGen
	m.async(func(ctx context.Context) func() {
		list, err := m.service.ListSessions(ctx)
		return func() {
			if gen != m.listGen {
				m.log.Debug().Uint64("generation", gen).Msg("discarding superseded session list")
				return
			}
			if err != nil {
				m.fail(CommandLoadSessions, 0, err)
				return
			}
			for i := range list {
				list[i] = m.previews.Normalize(list[i])
			}

			target, ok := m.sessions.Replace(list, preferredID)
			m.emit(&Event{
				Kind:        EventSessionsLoaded,
				Sessions:    m.sessions.List(),
				UnreadTotal: m.notifications.UnreadTotal(),
			})
			if !ok {
				m.threadGen++
				m.thread.Reset(0)
				return
			}
			m.activate(target.ID, reloadThread)
		}
	})
}

// activate selects id and loads its thread. A load is skipped when id was
// already active unless force is set.
func (m *Messenger) activate(id int64, force bool) {
	changed, err := m.sessions.Select(id)
	if err != nil {
		m.fail(CommandSelectSession, id, preconditionError(ErrCodeSessionNotFound, err))
		return
	}
	if !changed && !force {
		return
	}

	m.threadGen++
	gen := m.threadGen
	// A refresh of the owning session keeps local entries, pending sends included.
	if m.thread.SessionID() != id {
		m.thread.Reset(id)
		sess, _ := m.sessions.Get(id)
		m.emit(&Event{Kind: EventSessionSelected, SessionID: id, Session: sess})
	}

	m.async(func(ctx context.Context) func() {
		msgs, err := m.service.ListMessages(ctx, id)
		return func() {
			if gen != m.threadGen || m.thread.SessionID() != id {
				m.log.Debug().Int64("session_id", id).Uint64("generation", gen).Msg("discarding stale thread load")
				return
			}
			if err != nil {
				m.fail(CommandSelectSession, id, err)
				return
			}

			m.thread.Load(id, msgs)
			if s, ok := m.sessions.Get(id); ok && s.UnreadCount > 0 {
				m.sessions.ClearUnread(id)
				m.emitUnread()
			}
			m.emit(&Event{Kind: EventThreadLoaded, SessionID: id, Messages: publicMessages(m.thread.Messages())})
		}
	})
}

func (m *Messenger) send(op CommandKind, draft Draft, imagePath string) {
	active, ok := m.sessions.Active()
	if !ok {
		m.fail(op, 0, preconditionError(ErrCodeNoActiveSession, ErrNoActiveSession))
		return
	}
	sessionID := active.ID

	if op == CommandSendImage {
		draft.Type = MessageTypeImage
		if strings.TrimSpace(imagePath) == "" {
			m.fail(op, sessionID, preconditionError(ErrCodeEmptyContent, ErrEmptyContent))
			return
		}
	} else {
		draft.Type = MessageTypeText
		if strings.TrimSpace(draft.Content) == "" {
			m.fail(op, sessionID, preconditionError(ErrCodeEmptyContent, ErrEmptyContent))
			return
		}
	}

	key := draft.Key
	if key == "" {
		key = string(draft.Type) + ":" + draft.Content + imagePath
	}
	if _, busy := m.sending[key]; busy {
		m.fail(op, sessionID, preconditionError(ErrCodeSendInProgress, ErrSendInProgress))
		return
	}

	if op == CommandSendImage {
		if m.images == nil {
			m.fail(op, sessionID, coreError(ErrCodeImageUnreadable, "image sending is not configured"))
			return
		}
		content, err := m.images.Encode(imagePath)
		if err != nil {
			m.fail(op, sessionID, &CoreError{Code: ErrCodeImageUnreadable, Kind: KindPrecondition, Message: err.Error(), Err: err})
			return
		}
		draft.Content = content
	}

	msg := m.thread.AppendOptimistic(draft, m.self.UserID, m.now())
	m.sending[key] = struct{}{}
	m.emit(&Event{Kind: EventMessageAppended, SessionID: sessionID, Index: m.thread.Len() - 1, Message: publicMessage(msg)})

	tempID := msg.TempID
	kind, content := draft.Type, draft.Content
	m.async(func(ctx context.Context) func() {
		auth, err := m.service.SendMessage(ctx, sessionID, kind, content)
		return func() {
			delete(m.sending, key)
			owned := m.thread.SessionID() == sessionID

			if err != nil {
				if owned {
					if idx, ok := m.thread.MarkFailed(tempID); ok {
						failed, _ := m.thread.FindTemp(tempID)
						m.emit(&Event{Kind: EventMessageFailed, SessionID: sessionID, Index: idx, Message: publicMessage(failed)})
					}
				}
				m.fail(op, sessionID, err)
				return
			}

			auth.SessionID = sessionID
			if auth.CreatedAt.IsZero() {
				auth.CreatedAt = m.now()
			}
			if owned {
				if idx, ok := m.thread.Reconcile(tempID, auth); ok {
					m.emit(&Event{Kind: EventMessageReconciled, SessionID: sessionID, Index: idx, Message: publicMessage(auth)})
				} else if idx, ok := m.thread.AppendIncoming(auth); ok {
					m.emit(&Event{Kind: EventMessageReceived, SessionID: sessionID, Index: idx, Message: auth})
				}
			}
			m.patchPreview(sessionID, m.previews.Preview(auth), auth.CreatedAt)
		}
	})
}

func (m *Messenger) recall(id int64) {
	active, ok := m.sessions.Active()
	if !ok {
		m.fail(CommandRecall, 0, preconditionError(ErrCodeNoActiveSession, ErrNoActiveSession))
		return
	}
	sessionID := active.ID
	msg, ok := m.thread.Find(id)
	if !ok {
		m.fail(CommandRecall, sessionID, preconditionError(ErrCodeMessageNotFound, ErrMessageNotFound))
		return
	}
	if _, busy := m.recalling[id]; busy {
		m.fail(CommandRecall, sessionID, preconditionError(ErrCodeRecallPending, ErrRecallPending))
		return
	}
	if !m.policy.Recallable(msg, m.now()) {
		m.fail(CommandRecall, sessionID, preconditionError(ErrCodeNotRecallable, ErrNotRecallable))
		return
	}

	m.recalling[id] = struct{}{}
	wasLast := m.thread.IsLast(id)
	m.async(func(ctx context.Context) func() {
		record, err := m.service.RecallMessage(ctx, sessionID, id)
		return func() {
			delete(m.recalling, id)
			if err != nil {
				m.fail(CommandRecall, sessionID, err)
				return
			}

			isLast := wasLast
			if m.thread.SessionID() == sessionID {
				isLast = m.thread.IsLast(id)
				if idx, ok := m.thread.ApplyRecall(id, record); ok {
					recalled, _ := m.thread.Find(id)
					m.emit(&Event{Kind: EventMessageRecalled, SessionID: sessionID, Index: idx, Message: recalled})
				}
			}
			if isLast {
				m.patchPreview(sessionID, m.phrases.RecalledBySelf, time.Time{})
			}
		}
	})
}

func (m *Messenger) markAllRead() {
	m.sessions.MarkAllRead()
	m.emitUnread()

	m.async(func(ctx context.Context) func() {
		if err := m.service.MarkAllRead(ctx); err != nil {
			return func() { m.fail(CommandMarkAllRead, 0, err) }
		}
		return func() { m.notify(NoticeInfo, m.phrases.AllRead) }
	})
}

func (m *Messenger) startChat(listingID int64) {
	if listingID <= 0 {
		m.fail(CommandStartChat, 0, coreError(ErrCodeBadRequest, "listing id is required"))
		return
	}
	m.async(func(ctx context.Context) func() {
		sess, err := m.service.StartChat(ctx, listingID)
		return func() {
			if err != nil {
				m.fail(CommandStartChat, 0, err)
				return
			}
			sess = m.previews.Normalize(sess)
			m.sessions.Upsert(sess)
			m.emit(&Event{Kind: EventSessionsLoaded, Sessions: m.sessions.List(), UnreadTotal: m.notifications.UnreadTotal()})
			m.activate(sess.ID, false)
		}
	})
}

func (m *Messenger) deliverMessage(msg Message) {
	if msg.ID == 0 || msg.SessionID == 0 || !msg.Type.Valid() {
		m.log.Debug().Int64("message_id", msg.ID).Msg("ignoring malformed pushed message")
		return
	}
	if _, ok := m.sessions.Get(msg.SessionID); !ok {
		m.loadSessions(m.sessions.ActiveID(), false)
		return
	}

	if m.thread.SessionID() == msg.SessionID {
		idx, ok := m.thread.AppendIncoming(msg)
		if !ok {
			return
		}
		m.emit(&Event{Kind: EventMessageReceived, SessionID: msg.SessionID, Index: idx, Message: publicMessage(msg)})
	} else if msg.SenderID != m.self.UserID {
		m.sessions.IncrementUnread(msg.SessionID)
		m.emitUnread()
	}
	m.patchPreview(msg.SessionID, m.previews.Preview(msg), msg.CreatedAt)
}

func (m *Messenger) deliverRecall(record Message) {
	sess, ok := m.sessions.Get(record.SessionID)
	if !ok || record.ID == 0 {
		return
	}

	var isLast bool
	if m.thread.SessionID() == record.SessionID {
		isLast = m.thread.IsLast(record.ID)
		if idx, ok := m.thread.ApplyRecall(record.ID, record); ok {
			recalled, _ := m.thread.Find(record.ID)
			m.emit(&Event{Kind: EventMessageRecalled, SessionID: record.SessionID, Index: idx, Message: recalled})
		}
	} else {
		isLast = !record.CreatedAt.IsZero() && sess.LastTime.Equal(record.CreatedAt)
	}
	if isLast {
		m.patchPreview(record.SessionID, m.phrases.RecallPhrase(record.SenderID, m.self.UserID), time.Time{})
	}
}

func (m *Messenger) patchPreview(id int64, preview string, at time.Time) {
	if !m.sessions.PatchPreview(id, preview, at) {
		return
	}
	sess, _ := m.sessions.Get(id)
	m.emit(&Event{Kind: EventPreviewPatched, SessionID: id, Session: sess})
}

func (m *Messenger) state() State {
	return State{
		Self:          m.self,
		Sessions:      m.sessions.List(),
		ActiveID:      m.sessions.ActiveID(),
		Messages:      publicMessages(m.thread.Messages()),
		ThreadLoaded:  m.thread.Loaded(),
		UnreadTotal:   m.notifications.UnreadTotal(),
		Feed:          m.notifications.Feed(),
		Notices:       m.notices.list(),
		SendsInFlight: len(m.sending),
	}
}

// async runs work off the loop; the closure it returns is applied on the loop.
func (m *Messenger) async(work func(ctx context.Context) func()) {
	ctx := m.ctx
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if done := work(ctx); done != nil {
			m.post(ctx, done)
		}
	}()
}

func (m *Messenger) post(ctx context.Context, fn func()) {
	select {
	case m.completions <- fn:
	case <-ctx.Done():
	}
}

func (m *Messenger) fail(op CommandKind, sessionID int64, err error) {
	ce := AsCoreError(op.String(), err)
	m.log.Warn().
		Str("op", op.String()).
		Str("code", ce.Code).
		Str("kind", ce.Kind.String()).
		Int64("session_id", sessionID).
		Msg(ce.Message)
	m.emit(&Event{Kind: EventError, Op: op, SessionID: sessionID, Error: ce})
	m.notify(NoticeError, ce.Message)
}

func (m *Messenger) notify(level NoticeLevel, text string) {
	ctx := m.ctx
	n := m.notices.add(level, text, m.now(), func(id string) {
		m.post(ctx, func() {
			if m.notices.remove(id) {
				m.emit(&Event{Kind: EventNoticeExpired, Notice: &Notice{ID: id}})
			}
		})
	})
	m.emit(&Event{Kind: EventNotice, Notice: &n})
}

func (m *Messenger) emitUnread() {
	m.emit(&Event{Kind: EventUnreadChanged, Sessions: m.sessions.List(), UnreadTotal: m.notifications.UnreadTotal()})
}

func (m *Messenger) emit(ev *Event) {
	select {
	case m.Events <- ev:
	default:
		m.log.Warn().Str("event", ev.Kind.String()).Msg("event dropped: slow consumer")
	}
}

func publicMessage(msg Message) Message {
	msg.TempID = ""
	return msg
}

func publicMessages(msgs []Message) []Message {
	for i := range msgs {
		msgs[i].TempID = ""
	}
	return msgs
}
