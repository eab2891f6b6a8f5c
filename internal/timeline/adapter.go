package timeline

import "hidehate/internal/model"

// Record is the wire shape of one timeline entry, as returned by GET /fetch
// and POST /post.
type Record struct {
	PostDocID string `json:"post_doc_id"`
	UserID    string `json:"user_id"`
	Content   string `json:"content"`
	MayHate   bool   `json:"may_hate"`
	CreateAt  int64  `json:"create_at"`
	Name      string `json:"name"`
}

// Adapter maps wire records into view models, computing each post's initial
// visibility. Server order is authoritative and preserved.
//
// RevealOwnPosts forces a viewer's own flagged posts visible at mapping
// time. The two frontends this client descends from disagreed on that, so
// it stays an explicit option instead of a silent pick.
type Adapter struct {
	RevealOwnPosts bool
}

// Adapt converts records in order. viewerID may be empty (unauthenticated).
func (a Adapter) Adapt(records []Record, viewerID string) []model.Post {
	out := make([]model.Post, 0, len(records))
	for _, r := range records {
		revealed := !r.MayHate
		if a.RevealOwnPosts && viewerID != "" && r.UserID == viewerID {
			revealed = true
		}
		out = append(out, model.Post{
			ID:         r.PostDocID,
			AuthorID:   r.UserID,
			AuthorName: r.Name,
			Content:    r.Content,
			Flagged:    r.MayHate,
			CreatedAt:  r.CreateAt,
			Revealed:   revealed,
		})
	}
	return out
}
