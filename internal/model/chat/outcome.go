package chat

import "fmt"

// Fixed bot replies for requests that did not produce a usable answer.
const (
	InvalidResponseText = "Sorry, I received an invalid response. Please try again."
	NoResponseText      = "Error: No response from the server. Please check your connection."
	UnexpectedErrorText = "Sorry, an unexpected error occurred. Please try again."
)

// OutcomeKind enumerates every way a reply request can settle.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeEmptyReply
	OutcomeServerError
	OutcomeNetworkError
	OutcomeLocalError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmptyReply:
		return "empty_reply"
	case OutcomeServerError:
		return "server_error"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeLocalError:
		return "local_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the normalized result of one reply request. Err is kept for logging
// only and never shown to the user.
type Outcome struct {
	Kind       OutcomeKind
	Reply      string
	StatusText string
	Err        error
}

func Success(reply string) Outcome { return Outcome{Kind: OutcomeSuccess, Reply: reply} }

func EmptyReply(err error) Outcome { return Outcome{Kind: OutcomeEmptyReply, Err: err} }

func ServerError(statusText string) Outcome {
	return Outcome{Kind: OutcomeServerError, StatusText: statusText}
}

func NetworkError(err error) Outcome { return Outcome{Kind: OutcomeNetworkError, Err: err} }

func LocalError(err error) Outcome { return Outcome{Kind: OutcomeLocalError, Err: err} }

// BotText maps the outcome to the text of the bot message appended to the log.
func (o Outcome) BotText() string {
	switch o.Kind {
	case OutcomeSuccess:
		if o.Reply == "" {
			return InvalidResponseText
		}
		return o.Reply
	case OutcomeEmptyReply:
		return InvalidResponseText
	case OutcomeServerError:
		return "Error: " + o.StatusText
	case OutcomeNetworkError:
		return NoResponseText
	default:
		return UnexpectedErrorText
	}
}
