package core

// EventKind is a notification the messenger emits to its view.
type EventKind int

const (
	// EventSessionsLoaded carries a replaced or extended session list.
	EventSessionsLoaded EventKind = iota
	// EventSessionSelected announces a switch; the thread is empty until EventThreadLoaded.
	EventSessionSelected
	// EventThreadLoaded delivers the authoritative messages of the active session.
	EventThreadLoaded
	// EventMessageAppended is an optimistic message entering the thread.
	EventMessageAppended
	// EventMessageReconciled replaces the pending entry at Index with its server record.
	EventMessageReconciled
	// EventMessageFailed flags the pending entry at Index as unsent.
	EventMessageFailed
	// EventMessageRecalled replaces the entry at Index with its recalled form.
	EventMessageRecalled
	// EventMessageReceived is a pushed message added to the active thread.
	EventMessageReceived
	// EventPreviewPatched carries a session whose preview changed.
	EventPreviewPatched
	// EventUnreadChanged carries the new unread total.
	EventUnreadChanged
	// EventNotice shows a transient notice.
	EventNotice
	// EventNoticeExpired hides a notice.
	EventNoticeExpired
	// EventError notifies about a failed action.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventSessionsLoaded:
		return "sessions_loaded"
	case EventSessionSelected:
		return "session_selected"
	case EventThreadLoaded:
		return "thread_loaded"
	case EventMessageAppended:
		return "message_appended"
	case EventMessageReconciled:
		return "message_reconciled"
	case EventMessageFailed:
		return "message_failed"
	case EventMessageRecalled:
		return "message_recalled"
	case EventMessageReceived:
		return "message_received"
	case EventPreviewPatched:
		return "preview_patched"
	case EventUnreadChanged:
		return "unread_changed"
	case EventNotice:
		return "notice"
	case EventNoticeExpired:
		return "notice_expired"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event describes what changed in the messenger state.
// Messages carried by events never expose temp ids.
type Event struct {
	Kind        EventKind
	SessionID   int64
	Index       int
	Message     Message
	Messages    []Message
	Sessions    []Session
	Session     Session
	UnreadTotal int
	Notice      *Notice
	Error       *CoreError
	Op          CommandKind
}

// State is a consistent copy of everything the view renders.
type State struct {
	Self          Identity
	Sessions      []Session
	ActiveID      int64
	Messages      []Message
	ThreadLoaded  bool
	UnreadTotal   int
	Feed          []FeedEntry
	Notices       []Notice
	SendsInFlight int
}
