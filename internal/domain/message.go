package domain

// Message is a single conversation turn embedded into the message memory index.
type Message struct {
	ID             string
	ConversationID string
	UserID         string
	Role           string // user, assistant, system
	Text           string
	Intent         string
	Extra          map[string]string
}

// MessageHit is a query-time hit against the message memory.
type MessageHit struct {
	ID    string
	Score float64
	Text  string
	Tags  map[string]string
}
