package postflow

import (
	"context"
	"errors"

	"hidehate/internal/apiclient"
	"hidehate/internal/metrics"
	"hidehate/internal/model"
	"hidehate/internal/timeline"
)

// Client is the create-post operation the flow drives.
type Client interface {
	CreatePost(ctx context.Context, content string, acceptMayHate bool) (apiclient.PostResponse, error)
}

// State of a single submission attempt.
type State int

const (
	Idle State = iota
	Submitting
	AwaitingUserDecision
	ConfirmedSubmitting
)

const (
	ConfirmTitle   = "content confirmation"
	ConfirmMessage = "Your post may be considered hate speech. Post it anyway?"
	ConfirmLabel   = "Post"
	CancelLabel    = "Cancel"
)

var (
	ErrEmptyDraft = errors.New("postflow: empty draft")
	ErrNotIdle    = errors.New("postflow: submission already in progress")
	ErrNoPending  = errors.New("postflow: no confirmation pending")
)

// Flow runs submissions through the moderation handshake: submit with
// acceptRisk=false, and when the server flags the content without returning
// a timeline, hold the draft until the user confirms or cancels. All calls
// happen on the one command goroutine.
type Flow struct {
	client  Client
	store   *timeline.Store
	adapter timeline.Adapter
	draft   *model.Draft
	state   State

	// held is the exact text the server flagged, captured at submit time.
	// Confirm resends this, not the live draft, so edits made while the
	// dialog is open never go out pre-accepted.
	held string
}

func New(client Client, store *timeline.Store, adapter timeline.Adapter, draft *model.Draft) *Flow {
	return &Flow{client: client, store: store, adapter: adapter, draft: draft}
}

func (f *Flow) State() State { return f.state }

// Submit sends the draft with acceptRisk=false. A nil notice means the post
// was accepted: the returned timeline replaced the store and the draft was
// cleared. A non-nil notice is the confirmation dialog; the store and draft
// are untouched until Confirm or Cancel.
func (f *Flow) Submit(ctx context.Context, viewerID string) (*model.Notice, error) {
	if f.state != Idle {
		return nil, ErrNotIdle
	}
	if f.draft.Content == "" {
		return nil, ErrEmptyDraft
	}
	f.state = Submitting
	resp, err := f.client.CreatePost(ctx, f.draft.Content, false)
	if err != nil {
		f.state = Idle
		return nil, err
	}
	// Confirmation is triggered strictly by "flagged AND empty timeline".
	// A flagged response that still returned posts was already published;
	// the flag is informational there.
	if resp.MayHate && len(resp.Timelines) == 0 {
		metrics.PostsFlagged.Inc()
		f.state = AwaitingUserDecision
		f.held = f.draft.Content
		f.draft.PendingConfirmation = true
		return &model.Notice{
			Title:        ConfirmTitle,
			Message:      ConfirmMessage,
			ConfirmLabel: ConfirmLabel,
			DismissLabel: CancelLabel,
			CanConfirm:   true,
		}, nil
	}
	f.accept(resp, viewerID)
	return nil, nil
}

// Confirm resubmits the held content with acceptRisk=true. On a response
// with posts, the store is replaced and the draft cleared. A confirmed
// response that still comes back empty leaves the draft in place, matching
// the source behavior.
func (f *Flow) Confirm(ctx context.Context, viewerID string) error {
	if f.state != AwaitingUserDecision {
		return ErrNoPending
	}
	f.state = ConfirmedSubmitting
	resp, err := f.client.CreatePost(ctx, f.held, true)
	f.held = ""
	if err != nil {
		// back to Idle with the draft text intact; resubmitting stays a
		// user decision
		f.state = Idle
		f.draft.PendingConfirmation = false
		return err
	}
	if len(resp.Timelines) > 0 {
		f.accept(resp, viewerID)
	} else {
		f.state = Idle
		f.draft.PendingConfirmation = false
	}
	return nil
}

// Cancel closes the confirmation without resubmitting. The draft keeps its
// text so the user can edit instead.
func (f *Flow) Cancel() {
	if f.state != AwaitingUserDecision {
		return
	}
	f.held = ""
	f.draft.PendingConfirmation = false
	f.state = Idle
}

func (f *Flow) accept(resp apiclient.PostResponse, viewerID string) {
	f.store.ReplaceAll(f.adapter.Adapt(resp.Timelines, viewerID))
	f.draft.Content = ""
	f.draft.PendingConfirmation = false
	f.state = Idle
	metrics.PostsSubmitted.Inc()
}
