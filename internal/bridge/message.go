package bridge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies what a message from the rendered surface asks the host to do.
type Kind int

const (
	KindReject Kind = iota + 1
	KindRejectForever
	KindOpenExternal
)

// Wire prefixes of the synthetic action links and of the external-open message.
const (
	PrefixReject        = "reject-finding:"
	PrefixRejectForever = "reject-finding-forever:"
	PrefixOpenExternal  = "open-external:"
)

var (
	// ErrUnknownMessage is returned for payloads without a known prefix.
	ErrUnknownMessage = errors.New("unknown bridge message")
	// ErrMalformedMessage is returned when a known prefix carries an unusable argument.
	ErrMalformedMessage = errors.New("malformed bridge message")
)

func (k Kind) String() string {
	switch k {
	case KindReject:
		return "reject"
	case KindRejectForever:
		return "reject_forever"
	case KindOpenExternal:
		return "open_external"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) prefix() string {
	switch k {
	case KindReject:
		return PrefixReject
	case KindRejectForever:
		return PrefixRejectForever
	case KindOpenExternal:
		return PrefixOpenExternal
	default:
		return ""
	}
}

// IsAction reports whether the kind targets a finding.
func (k Kind) IsAction() bool {
	return k == KindReject || k == KindRejectForever
}

// Message is a decoded user intent.
type Message struct {
	Kind Kind
	// FindingID is set for action kinds only.
	FindingID int64
	// URL is set for KindOpenExternal only.
	URL string
}

// ActionMessage builds an action intent for a finding.
func ActionMessage(kind Kind, findingID int64) Message {
	return Message{Kind: kind, FindingID: findingID}
}

// OpenExternalMessage builds an external-open intent.
func OpenExternalMessage(url string) Message {
	return Message{Kind: KindOpenExternal, URL: url}
}

// Encode returns the wire form, e.g. "reject-finding:42".
func (m Message) Encode() string {
	if m.Kind == KindOpenExternal {
		return PrefixOpenExternal + m.URL
	}
	return m.Kind.prefix() + strconv.FormatInt(m.FindingID, 10)
}

// ActionHref is the non-navigable link target of an action control.
func ActionHref(kind Kind, findingID int64) string {
	return ActionMessage(kind, findingID).Encode()
}

// Decode parses a payload forwarded by the rendered surface.
func Decode(raw string) (Message, error) {
	switch {
	case strings.HasPrefix(raw, PrefixRejectForever):
		return decodeAction(KindRejectForever, strings.TrimPrefix(raw, PrefixRejectForever))
	case strings.HasPrefix(raw, PrefixReject):
		return decodeAction(KindReject, strings.TrimPrefix(raw, PrefixReject))
	case strings.HasPrefix(raw, PrefixOpenExternal):
		url := strings.TrimPrefix(raw, PrefixOpenExternal)
		if strings.TrimSpace(url) == "" {
			return Message{}, fmt.Errorf("%w: empty url", ErrMalformedMessage)
		}
		return OpenExternalMessage(url), nil
	default:
		return Message{}, ErrUnknownMessage
	}
}

// decodeAction accepts only an unsigned decimal id directly after the prefix.
func decodeAction(kind Kind, arg string) (Message, error) {
	if arg == "" || strings.IndexFunc(arg, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return Message{}, fmt.Errorf("%w: finding id %q is not a decimal number", ErrMalformedMessage, arg)
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return Message{}, fmt.Errorf("%w: finding id %q: %v", ErrMalformedMessage, arg, err)
	}
	return ActionMessage(kind, id), nil
}
