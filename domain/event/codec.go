package event

import (
	"chat-hub/errors"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeInbound parses a client frame.
// Anything that is not a single known tag with a well-formed body is ErrDecode.
func DecodeInbound(data []byte) (Inbound, error) {
	kind, body, err := untag(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindCreateChat:
		var evt CreateChat
		if err := decodeBody(body, &evt); err != nil {
			return nil, err
		}
		return evt, nil
	case KindSendMessage:
		var evt SendMessage
		if err := decodeBody(body, &evt); err != nil {
			return nil, err
		}
		return evt, nil
	case KindJoinChat:
		var evt JoinChat
		if err := decodeBody(body, &evt); err != nil {
			return nil, err
		}
		return evt, nil
	default:
		return nil, fmt.Errorf("%w: unknown event %q", errors.ErrDecode, kind)
	}
}

// EncodeInbound is used by clients.
func EncodeInbound(evt Inbound) ([]byte, error) {
	return tag(evt.Kind(), evt)
}

// EncodeOutbound serializes a server event with the same tagging scheme as inbound frames.
func EncodeOutbound(evt Outbound) ([]byte, error) {
	switch e := evt.(type) {
	case ChatCreated:
		return tag(e.Kind(), e.Chat)
	case MessageSent:
		return tag(e.Kind(), e.Message)
	case ChatJoined:
		return tag(e.Kind(), e)
	default:
		return nil, fmt.Errorf("%w: cannot encode %T", errors.ErrInvalidEvent, evt)
	}
}

// DecodeOutbound parses a server frame. It is the client side of EncodeOutbound.
func DecodeOutbound(data []byte) (Outbound, error) {
	kind, body, err := untag(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindChatCreated:
		var evt ChatCreated
		if err := decodeBody(body, &evt.Chat); err != nil {
			return nil, err
		}
		return evt, nil
	case KindMessageSent:
		var evt MessageSent
		if err := decodeBody(body, &evt.Message); err != nil {
			return nil, err
		}
		return evt, nil
	case KindChatJoined:
		var evt ChatJoined
		if err := decodeBody(body, &evt); err != nil {
			return nil, err
		}
		return evt, nil
	default:
		return nil, fmt.Errorf("%w: unknown event %q", errors.ErrDecode, kind)
	}
}

// Validate checks the business constraints of an inbound event.
func Validate(evt Inbound) error {
	if err := validate.Struct(evt); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidEvent, err)
	}
	return nil
}

func tag(kind Kind, body any) ([]byte, error) {
	return json.Marshal(map[Kind]any{kind: body})
}

func untag(data []byte) (Kind, json.RawMessage, error) {
	var envelope map[Kind]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", nil, fmt.Errorf("%w: %v", errors.ErrDecode, err)
	}
	if len(envelope) != 1 {
		return "", nil, fmt.Errorf("%w: expected exactly one event tag, got %d", errors.ErrDecode, len(envelope))
	}
	for kind, body := range envelope {
		return kind, body, nil
	}
	return "", nil, errors.ErrDecode
}

func decodeBody(body json.RawMessage, target any) error {
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrDecode, err)
	}
	return nil
}
