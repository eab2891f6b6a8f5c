package model

// Post is one timeline entry as displayed to a viewer.
// Revealed starts out as the inverse of Flagged (or true for the viewer's
// own posts when that option is on) and only ever moves hidden -> shown.
type Post struct {
	ID         string
	AuthorID   string
	AuthorName string
	Content    string
	Flagged    bool  // server-computed may_hate signal
	CreatedAt  int64 // epoch seconds
	Revealed   bool
}

// User is the authenticated account as returned by /user/get.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Draft is the post being composed. It is cleared after a successful
// submission and preserved unchanged when a confirmation is cancelled.
// Never persisted.
type Draft struct {
	Content             string
	PendingConfirmation bool
}

// Notice is a user-facing dialog: a transport error, the unauthenticated
// warning, or the moderation confirmation. At most one notice is active at a
// time; setting a new one replaces any prior unacknowledged notice.
type Notice struct {
	Title        string
	Message      string
	ConfirmLabel string
	DismissLabel string
	CanConfirm   bool
}

// ActivityEvent is a locally recorded action, kept in the sqlite store for
// the history views.
type ActivityEvent struct {
	Timestamp int64  `json:"ts"`   // epoch seconds
	Type      string `json:"type"` // seen, post, flagged, reveal
	PostID    string `json:"post_id,omitempty"`
	AuthorID  string `json:"author_id,omitempty"`
	Flagged   bool   `json:"flagged,omitempty"`
}
