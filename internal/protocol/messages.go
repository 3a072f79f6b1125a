// Package protocol defines the client/server message schema and its
// externally-tagged JSON encoding.
package protocol

import (
	"encoding/json"
	"fmt"

	"logicgrid/core"
)

// Action names the variant of a Message, matching the wire tag exactly.
type Action string

const (
	ActionNothing             Action = "BothNothing"
	ActionResponse            Action = "BothResponse"
	ActionRequestPlaceBlocks  Action = "BothRequestPlaceBlocks"
	ActionRequestUpdateBlocks Action = "BothRequestUpdateBlocks"
	ActionRequestRemoveBlocks Action = "BothRequestRemoveBlocks"
	ActionClientJoin          Action = "ClientRequestJoin"
	ActionClientLeave         Action = "ClientRequestLeave"
	ActionServerKick          Action = "ServerRequestKick"
	ActionServerMetadata      Action = "ServerResponseMetadata"
)

// PlaceBlock is one entry of a BothRequestPlaceBlocks batch. ID is set by the
// server when echoing assigned ids back to clients; it is absent/zero on a
// client's initial placement request.
type PlaceBlock struct {
	ID       *uint32    `json:"id,omitempty"`
	Position [3]int32   `json:"position"`
	Rotation core.Orient `json:"rotation"`
	Data     core.Block `json:"data"`
}

// UpdateBlock is one entry of a BothRequestUpdateBlocks batch. At least one
// of Position/Rotation or Data must be set.
type UpdateBlock struct {
	ID       uint32       `json:"id"`
	Position *[3]int32    `json:"position,omitempty"`
	Rotation *core.Orient `json:"rotation,omitempty"`
	Data     *core.Block  `json:"data,omitempty"`
}

// RemoveBlock is one entry of a BothRequestRemoveBlocks batch.
type RemoveBlock struct {
	ID uint32 `json:"id"`
}

// Response is the payload of BothResponse.
type Response struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Client describes a joined session's self-reported identity and pose.
type Client struct {
	Name      string     `json:"name"`
	Position  [3]float32 `json:"position"`
	Direction [3]float32 `json:"direction"`
}

// Metadata is the payload of ServerResponseMetadata.
type Metadata struct {
	Ticks   uint32   `json:"ticks"`
	Clients []Client `json:"clients"`
}

// Message is a single Protocol frame. Exactly one of the typed fields below
// is populated, selected by Action; the rest are zero. Message hand-rolls its
// own JSON codec so the wire tag is the bare action name (field "action")
// alongside a "data" payload.
type Message struct {
	Action Action

	PlaceBlocks  []PlaceBlock
	UpdateBlocks []UpdateBlock
	RemoveBlocks []RemoveBlock
	Response     Response
	Join         Client
	Metadata     Metadata
}

// ResponseOK builds a BothResponse{ok:true} message.
func ResponseOK() Message {
	return Message{Action: ActionResponse, Response: Response{OK: true}}
}

// ResponseError builds a BothResponse{ok:false,message} message.
func ResponseError(message string) Message {
	return Message{Action: ActionResponse, Response: Response{OK: false, Message: message}}
}

// RequestPlaceBlocks builds a BothRequestPlaceBlocks message.
func RequestPlaceBlocks(blocks []PlaceBlock) Message {
	return Message{Action: ActionRequestPlaceBlocks, PlaceBlocks: blocks}
}

// RequestUpdateBlocks builds a BothRequestUpdateBlocks message.
func RequestUpdateBlocks(blocks []UpdateBlock) Message {
	return Message{Action: ActionRequestUpdateBlocks, UpdateBlocks: blocks}
}

// RequestRemoveBlocks builds a BothRequestRemoveBlocks message.
func RequestRemoveBlocks(ids []RemoveBlock) Message {
	return Message{Action: ActionRequestRemoveBlocks, RemoveBlocks: ids}
}

// RequestJoin builds a ClientRequestJoin message.
func RequestJoin(c Client) Message {
	return Message{Action: ActionClientJoin, Join: c}
}

// RequestLeave builds a ClientRequestLeave message.
func RequestLeave() Message { return Message{Action: ActionClientLeave} }

// RequestKick builds a ServerRequestKick message.
func RequestKick() Message { return Message{Action: ActionServerKick} }

// ResponseMetadata builds a ServerResponseMetadata message.
func ResponseMetadata(m Metadata) Message {
	return Message{Action: ActionServerMetadata, Metadata: m}
}

func (m Message) MarshalJSON() ([]byte, error) {
	var data any
	switch m.Action {
	case ActionNothing, ActionClientLeave, ActionServerKick:
		data = nil
	case ActionResponse:
		data = m.Response
	case ActionRequestPlaceBlocks:
		data = m.PlaceBlocks
	case ActionRequestUpdateBlocks:
		data = m.UpdateBlocks
	case ActionRequestRemoveBlocks:
		data = m.RemoveBlocks
	case ActionClientJoin:
		data = m.Join
	case ActionServerMetadata:
		data = m.Metadata
	default:
		return nil, fmt.Errorf("protocol: unknown action %q", m.Action)
	}

	type envelope struct {
		Action Action `json:"action"`
		Data   any    `json:"data,omitempty"`
	}
	return json.Marshal(envelope{Action: m.Action, Data: data})
}

func (m *Message) UnmarshalJSON(raw []byte) error {
	var env struct {
		Action Action          `json:"action"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}

	out := Message{Action: env.Action}
	switch env.Action {
	case ActionNothing, ActionClientLeave, ActionServerKick:
		// no payload
	case ActionResponse:
		if err := json.Unmarshal(env.Data, &out.Response); err != nil {
			return err
		}
	case ActionRequestPlaceBlocks:
		if err := json.Unmarshal(env.Data, &out.PlaceBlocks); err != nil {
			return err
		}
	case ActionRequestUpdateBlocks:
		if err := json.Unmarshal(env.Data, &out.UpdateBlocks); err != nil {
			return err
		}
	case ActionRequestRemoveBlocks:
		if err := json.Unmarshal(env.Data, &out.RemoveBlocks); err != nil {
			return err
		}
	case ActionClientJoin:
		if err := json.Unmarshal(env.Data, &out.Join); err != nil {
			return err
		}
	case ActionServerMetadata:
		if err := json.Unmarshal(env.Data, &out.Metadata); err != nil {
			return err
		}
	default:
		return fmt.Errorf("protocol: unknown action %q", env.Action)
	}

	*m = out
	return nil
}
