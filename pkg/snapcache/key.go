package snapcache

// Key is a composite cache key. UserID and ConversationID scope the
// local key; either may be empty.
type Key struct {
	UserID         string
	ConversationID string
	Local          string
}

// String renders the canonical composite key string.
func (k Key) String() string {
	return k.UserID + "|" + k.ConversationID + "|" + k.Local
}

// PersonaKey builds a key for a persona snapshot.
func PersonaKey(userID, personaID string) Key {
	return Key{UserID: userID, Local: "persona:" + personaID}
}

// ConversationKey builds a key for a conversation snapshot.
func ConversationKey(userID, conversationID string) Key {
	return Key{UserID: userID, ConversationID: conversationID, Local: "conversation:" + conversationID}
}
