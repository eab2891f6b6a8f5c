package timeline

import (
	"iter"

	"hidehate/internal/model"
)

// Preference is the session-wide visibility toggle: when ShowSensitive is
// on, flagged content renders regardless of per-post reveal state.
type Preference struct {
	ShowSensitive bool
}

// Store holds the current ordered timeline. All operations run on the one
// command goroutine; the store does no locking of its own.
type Store struct {
	revealOwnPosts bool
	items          []model.Post
}

func NewStore(revealOwnPosts bool) *Store {
	return &Store{revealOwnPosts: revealOwnPosts}
}

// ReplaceAll discards the previous collection wholesale. There is no diffing
// or reconciliation by id: a reveal on a post absent from the new set is
// simply lost. That matches the source behavior and stays that way.
func (s *Store) ReplaceAll(items []model.Post) {
	s.items = append([]model.Post(nil), items...)
}

// Reveal marks the post with the given id as shown and reports whether
// anything changed. Unknown ids are a no-op, not an error, and revealing an
// already revealed post changes nothing. The transition is one-way.
func (s *Store) Reveal(id string) bool {
	for i := range s.items {
		if s.items[i].ID == id {
			if s.items[i].Revealed {
				return false
			}
			s.items[i].Revealed = true
			return true
		}
	}
	return false
}

func (s *Store) Len() int { return len(s.items) }

// Items returns a copy of the posts in server order.
func (s *Store) Items() []model.Post {
	return append([]model.Post(nil), s.items...)
}

// Visible reports whether the post's content should render for viewerID
// under pref. The stored Revealed flag is the manual per-post override, the
// preference the session-wide one; each only ever widens what the other
// already exposes.
func (s *Store) Visible(p model.Post, pref Preference, viewerID string) bool {
	if p.Revealed || pref.ShowSensitive {
		return true
	}
	return s.revealOwnPosts && viewerID != "" && p.AuthorID == viewerID
}

// List yields the posts in order together with the read-time visibility
// decision for each. The sequence is finite and restartable; visibility is
// computed at iteration time, so flipping the preference needs no store
// mutation.
func (s *Store) List(pref Preference, viewerID string) iter.Seq2[model.Post, bool] {
	return func(yield func(model.Post, bool) bool) {
		for _, p := range s.items {
			if !yield(p, s.Visible(p, pref, viewerID)) {
				return
			}
		}
	}
}
