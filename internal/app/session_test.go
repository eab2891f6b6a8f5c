package app

import (
	"context"
	"strings"
	"testing"

	"hidehate/internal/apiclient"
	"hidehate/internal/errorroute"
	"hidehate/internal/model"
	"hidehate/internal/timeline"
)

type fakeAPI struct {
	records   []timeline.Record
	fetchErr  error
	user      model.User
	userErr   error
	postResps []apiclient.PostResponse
	postErr   error
	postCalls int
	postSent  []string
}

func (f *fakeAPI) FetchTimelines(ctx context.Context) ([]timeline.Record, error) {
	return f.records, f.fetchErr
}

func (f *fakeAPI) GetUser(ctx context.Context) (model.User, error) {
	return f.user, f.userErr
}

func (f *fakeAPI) CreatePost(ctx context.Context, content string, acceptMayHate bool) (apiclient.PostResponse, error) {
	f.postCalls++
	f.postSent = append(f.postSent, content)
	if f.postErr != nil {
		return apiclient.PostResponse{}, f.postErr
	}
	resp := f.postResps[0]
	if len(f.postResps) > 1 {
		f.postResps = f.postResps[1:]
	}
	return resp, nil
}

type fakeProvider struct {
	token     string
	listeners []func()
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) error { return nil }
func (p *fakeProvider) CurrentToken() (string, bool)                             { return p.token, p.token != "" }
func (p *fakeProvider) SignOut() {
	p.token = ""
	for _, fn := range p.listeners {
		fn()
	}
}
func (p *fakeProvider) Subscribe(fn func()) func() {
	p.listeners = append(p.listeners, fn)
	return func() {}
}

func newSession(api *fakeAPI, provider *fakeProvider) *Session {
	return NewSession(api, provider, errorroute.Router{NotFoundURL: "/404"}, timeline.Adapter{RevealOwnPosts: true})
}

func TestInitWithoutTokenSetsUnauthenticatedNotice(t *testing.T) {
	api := &fakeAPI{records: []timeline.Record{{PostDocID: "p1"}}}
	s := newSession(api, &fakeProvider{})
	s.Init(context.Background())

	if s.User() != nil {
		t.Fatal("no user expected")
	}
	n := s.ActiveNotice()
	if n == nil || n.Title != "login error" {
		t.Fatalf("notice: %+v", n)
	}
	// the timeline still loads for unauthenticated viewers
	if s.Store().Len() != 1 {
		t.Fatalf("store: %d", s.Store().Len())
	}
}

func TestInitWithTokenLoadsUser(t *testing.T) {
	api := &fakeAPI{user: model.User{ID: "u1", Name: "alice"}}
	s := newSession(api, &fakeProvider{token: "tok"})
	s.Init(context.Background())

	if s.User() == nil || s.User().ID != "u1" {
		t.Fatalf("user: %+v", s.User())
	}
	if s.ActiveNotice() != nil {
		t.Fatalf("unexpected notice: %+v", s.ActiveNotice())
	}
}

func TestRefreshAdaptsForViewer(t *testing.T) {
	api := &fakeAPI{
		user:    model.User{ID: "u1"},
		records: []timeline.Record{{PostDocID: "mine", UserID: "u1", MayHate: true}},
	}
	s := newSession(api, &fakeProvider{token: "tok"})
	s.Init(context.Background())

	if !s.Store().Items()[0].Revealed {
		t.Fatal("viewer's own flagged post should arrive revealed")
	}
}

func TestSubmitFlaggedSetsConfirmationNotice(t *testing.T) {
	api := &fakeAPI{postResps: []apiclient.PostResponse{
		{MayHate: true},
		{MayHate: true, Timelines: []timeline.Record{{PostDocID: "a"}, {PostDocID: "b"}}},
	}}
	s := newSession(api, &fakeProvider{token: "tok"})
	s.SetDraft("risky")

	if !s.SubmitDraft(context.Background()) {
		t.Fatal("expected a pending confirmation")
	}
	n := s.ActiveNotice()
	if n == nil || !n.CanConfirm {
		t.Fatalf("notice: %+v", n)
	}
	if s.Draft().Content != "risky" {
		t.Fatal("draft must be preserved while pending")
	}

	s.ConfirmPending(context.Background())
	if s.ActiveNotice() != nil {
		t.Fatal("confirmation dialog should be gone")
	}
	if s.Store().Len() != 2 || s.Draft().Content != "" {
		t.Fatalf("store=%d draft=%q", s.Store().Len(), s.Draft().Content)
	}
	if api.postCalls != 2 {
		t.Fatalf("calls: %d", api.postCalls)
	}
}

func TestEditWhilePendingDoesNotReachConfirm(t *testing.T) {
	api := &fakeAPI{postResps: []apiclient.PostResponse{
		{MayHate: true},
		{MayHate: true, Timelines: []timeline.Record{{PostDocID: "a"}}},
	}}
	s := newSession(api, &fakeProvider{token: "tok"})
	s.SetDraft("risky")
	if !s.SubmitDraft(context.Background()) {
		t.Fatal("expected a pending confirmation")
	}

	// typing a new post while the dialog is open must neither submit it nor
	// dismiss the dialog
	s.SetDraft("never screened")
	if !s.SubmitDraft(context.Background()) {
		t.Fatal("confirmation should still be pending")
	}
	if api.postCalls != 1 {
		t.Fatalf("calls: %d", api.postCalls)
	}
	n := s.ActiveNotice()
	if n == nil || !n.CanConfirm {
		t.Fatalf("dialog lost: %+v", n)
	}

	// the go-ahead covers only the text the server actually flagged
	s.ConfirmPending(context.Background())
	if got := api.postSent[1]; got != "risky" {
		t.Fatalf("confirmed content: %q", got)
	}
	if api.postCalls != 2 {
		t.Fatalf("calls: %d", api.postCalls)
	}
}

func TestCancelPendingKeepsDraft(t *testing.T) {
	api := &fakeAPI{postResps: []apiclient.PostResponse{{MayHate: true}}}
	s := newSession(api, &fakeProvider{token: "tok"})
	s.SetDraft("risky")
	s.SubmitDraft(context.Background())

	s.CancelPending()
	if s.ActiveNotice() != nil {
		t.Fatal("dialog should close")
	}
	if s.Draft().Content != "risky" || s.Draft().PendingConfirmation {
		t.Fatalf("draft: %+v", s.Draft())
	}
	if api.postCalls != 1 {
		t.Fatal("cancel must not resubmit")
	}
}

func TestRouteErrorRedirectsOn404(t *testing.T) {
	api := &fakeAPI{fetchErr: &apiclient.APIError{Status: 404, StatusText: "Not Found", Msg: "no such page"}}
	s := newSession(api, &fakeProvider{})
	s.Refresh(context.Background())

	if s.ActiveNotice() != nil {
		t.Fatal("404 must not create a notice")
	}
	if !strings.Contains(s.Redirect(), "status=404") {
		t.Fatalf("redirect: %q", s.Redirect())
	}
}

func TestRouteErrorNotifiesAndReplacesPrior(t *testing.T) {
	api := &fakeAPI{fetchErr: &apiclient.APIError{Status: 500, StatusText: "Internal Server Error", Msg: "db down"}}
	s := newSession(api, &fakeProvider{})
	s.SetNotice(&model.Notice{Title: "stale"})
	s.Refresh(context.Background())

	n := s.ActiveNotice()
	if n == nil || n.Title != "500 Internal Server Error" || n.Message != "db down" {
		t.Fatalf("notice: %+v", n)
	}
}

func TestSignOutClearsUser(t *testing.T) {
	api := &fakeAPI{user: model.User{ID: "u1"}}
	p := &fakeProvider{token: "tok"}
	s := newSession(api, p)
	s.Init(context.Background())
	if s.User() == nil {
		t.Fatal("user expected after init")
	}
	p.SignOut()
	if s.User() != nil {
		t.Fatal("user should be cleared on sign-out")
	}
}

func TestRevealCountsOnce(t *testing.T) {
	api := &fakeAPI{records: []timeline.Record{{PostDocID: "p1", MayHate: true}}}
	s := newSession(api, &fakeProvider{})
	s.Refresh(context.Background())
	s.Reveal("p1")
	s.Reveal("p1")
	if !s.Store().Items()[0].Revealed {
		t.Fatal("post should be revealed")
	}
}
