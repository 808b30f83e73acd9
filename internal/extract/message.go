package extract

import (
	"errors"
	"fmt"
)

// MessageGetArticleText asks the page side for its best-available text.
const MessageGetArticleText = "GET_ARTICLE_TEXT"

// ErrUnknownRequest is returned for message types the page side does not handle.
var ErrUnknownRequest = errors.New("unknown page request")

// Request is a message sent to the page side. It carries no payload.
type Request struct {
	Type string `json:"type"`
}

// Response answers MessageGetArticleText.
type Response struct {
	Text string `json:"text"`
}

// Respond answers req for page p using the default chain.
func Respond(req Request, p Page) (Response, error) {
	if req.Type != MessageGetArticleText {
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownRequest, req.Type)
	}
	return Response{Text: Text(p)}, nil
}
