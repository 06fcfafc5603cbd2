package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one visible line of the transcript.
type ConversationTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// TopicKind is the subject a resolved intent was about.
type TopicKind string

const (
	TopicNone      TopicKind = ""
	TopicInventory TopicKind = "inventory"
	TopicDelays    TopicKind = "delays"
	TopicRoutes    TopicKind = "routes"
	TopicDrivers   TopicKind = "drivers"
	TopicRegion    TopicKind = "region"
)

// Topic is the last subject discussed. Region is set only for TopicRegion.
type Topic struct {
	Kind   TopicKind `json:"kind"`
	Region string    `json:"region,omitempty"`
}

// IsZero reports whether no topic has been resolved yet.
func (t Topic) IsZero() bool {
	return t.Kind == TopicNone
}

// ConversationContext is the only cross-turn memory of the engine.
type ConversationContext struct {
	LastTopic Topic `json:"lastTopic"`
}

// SessionState is everything the engine remembers about one conversation.
// The caller owns its lifecycle: create once, pass to every Ask, discard at
// session end.
type SessionState struct {
	ID         string              `json:"id"`
	Context    ConversationContext `json:"context"`
	Transcript []ConversationTurn  `json:"transcript"`
}

// NewSessionState returns an empty session with the given id.
func NewSessionState(id string) *SessionState {
	return &SessionState{ID: id}
}

// Append adds a turn to the transcript.
func (s *SessionState) Append(role Role, text string) {
	s.Transcript = append(s.Transcript, ConversationTurn{Role: role, Text: text})
}
