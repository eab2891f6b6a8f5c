package app

import (
	"context"
	"errors"
	"time"

	"hidehate/internal/apiclient"
	"hidehate/internal/auth"
	"hidehate/internal/errorroute"
	"hidehate/internal/logging"
	"hidehate/internal/metrics"
	"hidehate/internal/model"
	"hidehate/internal/postflow"
	"hidehate/internal/timeline"
)

// API is the slice of the hide-hate API the session drives.
type API interface {
	FetchTimelines(ctx context.Context) ([]timeline.Record, error)
	GetUser(ctx context.Context) (model.User, error)
	CreatePost(ctx context.Context, content string, acceptMayHate bool) (apiclient.PostResponse, error)
}

const (
	unauthTitle   = "login error"
	unauthMessage = "You are not signed in. Some features are unavailable."
)

// Session is the whole of the client's mutable state: the current user, the
// timeline store, the draft, the sensitivity preference, and the active
// notice. Everything runs on one goroutine; mutations happen synchronously
// after each completed call, and the last response to resolve wins when it
// replaces the store. Overlapping calls are neither deduplicated nor
// cancelled.
type Session struct {
	api      API
	provider auth.Provider
	router   errorroute.Router
	adapter  timeline.Adapter

	store *timeline.Store
	draft *model.Draft
	flow  *postflow.Flow
	pref  timeline.Preference

	user     *model.User
	notice   *model.Notice
	redirect string

	unsubscribe func()
}

func NewSession(api API, provider auth.Provider, router errorroute.Router, adapter timeline.Adapter) *Session {
	s := &Session{
		api:      api,
		provider: provider,
		router:   router,
		adapter:  adapter,
		store:    timeline.NewStore(adapter.RevealOwnPosts),
		draft:    &model.Draft{},
	}
	s.flow = postflow.New(api, s.store, adapter, s.draft)
	if provider != nil {
		s.unsubscribe = provider.Subscribe(s.onAuthChange)
	}
	return s
}

// Close releases the auth subscription.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Session) onAuthChange() {
	if s.provider == nil {
		return
	}
	if _, ok := s.provider.CurrentToken(); !ok {
		s.user = nil
	}
}

// Init resolves the user, then fetches the timeline. Without a token the
// user call is skipped and a dismissible unauthenticated notice is set; the
// timeline still loads.
func (s *Session) Init(ctx context.Context) {
	if s.token() == "" {
		s.SetNotice(&model.Notice{
			Title:        unauthTitle,
			Message:      unauthMessage,
			DismissLabel: errorroute.DismissLabel,
		})
	} else {
		u, err := s.api.GetUser(ctx)
		if err != nil {
			s.routeError(err)
		} else {
			s.user = &u
		}
	}
	s.Refresh(ctx)
}

// Refresh fetches and adapts the timeline, replacing the store wholesale.
func (s *Session) Refresh(ctx context.Context) {
	start := time.Now()
	recs, err := s.api.FetchTimelines(ctx)
	if err != nil {
		s.routeError(err)
		return
	}
	metrics.ObserveFetchDuration(start)
	s.store.ReplaceAll(s.adapter.Adapt(recs, s.viewerID()))
}

// SetDraft replaces the draft text while composing.
func (s *Session) SetDraft(content string) { s.draft.Content = content }

// SubmitDraft runs the draft through the post flow. When the server holds
// the post for confirmation, the confirmation dialog becomes the active
// notice and true is returned; call ConfirmPending or CancelPending next.
// A submit rejected by the flow itself (empty draft, confirmation still
// open) is not a transport failure: it is logged and the active notice,
// including an open confirmation dialog, stays put.
func (s *Session) SubmitDraft(ctx context.Context) bool {
	notice, err := s.flow.Submit(ctx, s.viewerID())
	if err != nil {
		if errors.Is(err, postflow.ErrNotIdle) || errors.Is(err, postflow.ErrEmptyDraft) {
			logging.Warn("submit_rejected", map[string]any{"err": err.Error()})
			return s.draft.PendingConfirmation
		}
		s.routeError(err)
		return false
	}
	if notice != nil {
		s.SetNotice(notice)
		return true
	}
	return false
}

// ConfirmPending resubmits the held content with the explicit go-ahead.
func (s *Session) ConfirmPending(ctx context.Context) {
	if err := s.flow.Confirm(ctx, s.viewerID()); err != nil {
		if errors.Is(err, postflow.ErrNoPending) {
			logging.Warn("confirm_rejected", map[string]any{"err": err.Error()})
			return
		}
		s.DismissNotice()
		s.routeError(err)
		return
	}
	s.DismissNotice()
}

// CancelPending closes the confirmation; the draft keeps its text.
func (s *Session) CancelPending() {
	s.DismissNotice()
	s.flow.Cancel()
}

// Reveal shows one hidden post. Unknown ids are a no-op.
func (s *Session) Reveal(id string) {
	if s.store.Reveal(id) {
		metrics.Reveals.Inc()
	}
}

func (s *Session) SetShowSensitive(v bool) { s.pref.ShowSensitive = v }

func (s *Session) Preference() timeline.Preference { return s.pref }

// SetNotice makes n the active notice, replacing any prior unacknowledged
// one.
func (s *Session) SetNotice(n *model.Notice) { s.notice = n }

func (s *Session) DismissNotice() { s.notice = nil }

func (s *Session) ActiveNotice() *model.Notice { return s.notice }

// Redirect returns the navigation target produced by a 404, if any.
func (s *Session) Redirect() string { return s.redirect }

func (s *Session) Store() *timeline.Store { return s.store }

func (s *Session) Draft() *model.Draft { return s.draft }

func (s *Session) User() *model.User { return s.user }

func (s *Session) viewerID() string {
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

func (s *Session) token() string {
	if s.provider == nil {
		return ""
	}
	tok, ok := s.provider.CurrentToken()
	if !ok {
		return ""
	}
	return tok
}

// routeError applies the error router's decision: a 404 navigates away
// silently, everything else surfaces as the active notice. The session
// stays interactive either way.
func (s *Session) routeError(err error) {
	out := s.router.FromError(err)
	if out.Redirect != "" {
		s.redirect = out.Redirect
		logging.Info("redirect", map[string]any{"target": out.Redirect})
		return
	}
	logging.Warn("server_error", map[string]any{"error": err.Error()})
	s.SetNotice(out.Notice)
}
