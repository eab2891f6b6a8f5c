package errorroute

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"hidehate/internal/apiclient"
	"hidehate/internal/model"
)

const (
	unknownStatus     = "unknown"
	defaultStatusText = "Server Error"
	fallbackMessage   = "An unknown error occurred."

	// DismissLabel is the single action on transport-error notices.
	DismissLabel = "Close"
)

// Outcome of classifying a failed server call: exactly one field is set.
// Redirect means navigate to the not-found view and show nothing; Notice
// means surface a dismissible dialog.
type Outcome struct {
	Redirect string
	Notice   *model.Notice
}

// Router turns transport failures into outcomes. The moderation flag on
// /post is not a transport failure and never passes through here.
type Router struct {
	// NotFoundURL is the not-found view target, e.g. "/404".
	NotFoundURL string
}

// Classify routes by status. 404 redirects to the not-found view carrying
// status, status text, and message as query parameters; everything else,
// including status 0 for a network failure with no response, becomes a
// notice titled "{status} {statusText}".
func (r Router) Classify(status int, statusText, bodyMsg string) Outcome {
	if statusText == "" {
		statusText = defaultStatusText
	}
	msg := bodyMsg
	if msg == "" {
		msg = fallbackMessage
	}
	if status == http.StatusNotFound {
		q := url.Values{}
		q.Set("status", strconv.Itoa(status))
		q.Set("statusText", statusText)
		q.Set("msg", msg)
		return Outcome{Redirect: r.NotFoundURL + "?" + q.Encode()}
	}
	title := unknownStatus
	if status > 0 {
		title = strconv.Itoa(status)
	}
	return Outcome{Notice: &model.Notice{
		Title:        title + " " + statusText,
		Message:      msg,
		DismissLabel: DismissLabel,
	}}
}

// FromError classifies any error from a server call. Typed API errors keep
// their status and server message; everything else (timeouts, connection
// failures) takes the no-status branch.
func (r Router) FromError(err error) Outcome {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return r.Classify(apiErr.Status, apiErr.StatusText, apiErr.Msg)
	}
	return r.Classify(0, "", "")
}
