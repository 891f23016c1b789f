package core

// CommandKind describes what the user or the push feed asks the messenger to do.
type CommandKind int

const (
	// CommandLoadSessions fetches the session list and activates SessionID if present.
	CommandLoadSessions CommandKind = iota
	// CommandSelectSession switches the active session.
	CommandSelectSession
	// CommandSendText sends Draft as a text message.
	CommandSendText
	// CommandSendImage encodes ImagePath and sends it as an image message.
	CommandSendImage
	// CommandRecall unsends MessageID in the active session.
	CommandRecall
	// CommandMarkAllRead zeroes every unread count.
	CommandMarkAllRead
	// CommandOpenNotifications marks everything read if anything is unread.
	CommandOpenNotifications
	// CommandStartChat opens or creates the conversation about ListingID.
	CommandStartChat
	// CommandDeliverMessage applies a message pushed by the service.
	CommandDeliverMessage
	// CommandDeliverRecall applies a recall pushed by the service.
	CommandDeliverRecall
	// CommandSnapshot replies with a copy of the current state.
	CommandSnapshot
)

func (k CommandKind) String() string {
	switch k {
	case CommandLoadSessions:
		return "load_sessions"
	case CommandSelectSession:
		return "select_session"
	case CommandSendText:
		return "send_text"
	case CommandSendImage:
		return "send_image"
	case CommandRecall:
		return "recall"
	case CommandMarkAllRead:
		return "mark_all_read"
	case CommandOpenNotifications:
		return "open_notifications"
	case CommandStartChat:
		return "start_chat"
	case CommandDeliverMessage:
		return "deliver_message"
	case CommandDeliverRecall:
		return "deliver_recall"
	case CommandSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// Command represents an action requested of the messenger.
type Command struct {
	Kind      CommandKind
	SessionID int64
	MessageID int64
	ListingID int64
	Draft     Draft
	ImagePath string
	Message   Message
	Reply     chan State // CommandSnapshot only; must be buffered
}
