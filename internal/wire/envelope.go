package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType marks a message whose type tag is not part of the
// protocol. Callers drop these silently to stay forward compatible.
var ErrUnknownType = errors.New("unknown message type")

const (
	typeJoin   = "join"
	typeLeave  = "leave"
	typeState  = "state"
	typeMove   = "move"
	typeAvatar = "avatar"
	typeVoice  = "voice"
	typeObject = "object"
	typeChat   = "chat"
)

type envelope struct {
	Type    string          `json:"type"`
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps a message in a tagged envelope. The sender id is
// carried alongside the payload so receivers can suppress their own
// echoes on transports without loopback filtering.
func Encode(from string, m Message) ([]byte, error) {
	var tag string
	switch m.(type) {
	case Join:
		tag = typeJoin
	case Leave:
		tag = typeLeave
	case State:
		tag = typeState
	case Move:
		tag = typeMove
	case Avatar:
		tag = typeAvatar
	case Voice:
		tag = typeVoice
	case Object:
		tag = typeObject
	case Chat:
		tag = typeChat
	default:
		return nil, fmt.Errorf("unencodable message %T", m)
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshalling payload: %w", err)
	}

	return json.Marshal(envelope{Type: tag, From: from, Payload: payload})
}

// Decode unwraps an envelope into its message variant. Unrecognized
// payload fields are ignored; an unrecognized type tag yields
// ErrUnknownType.
func Decode(data []byte) (string, Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("unmarshalling envelope: %w", err)
	}

	var (
		m   Message
		err error
	)
	switch env.Type {
	case typeJoin:
		var v Join
		err = json.Unmarshal(env.Payload, &v)
		m = v
	case typeLeave:
		var v Leave
		err = json.Unmarshal(env.Payload, &v)
		m = v
	case typeState:
		var v State
		err = json.Unmarshal(env.Payload, &v)
		m = v
	case typeMove:
		var v Move
		err = json.Unmarshal(env.Payload, &v)
		m = v
	case typeAvatar:
		var v Avatar
		err = json.Unmarshal(env.Payload, &v)
		m = v
	case typeVoice:
		var v Voice
		err = json.Unmarshal(env.Payload, &v)
		m = v
	case typeObject:
		var v Object
		err = json.Unmarshal(env.Payload, &v)
		m = v
	case typeChat:
		var v Chat
		err = json.Unmarshal(env.Payload, &v)
		m = v
	default:
		return env.From, nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err != nil {
		return env.From, nil, fmt.Errorf("unmarshalling %s payload: %w", env.Type, err)
	}

	return env.From, m, nil
}
