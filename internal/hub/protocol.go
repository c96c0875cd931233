package hub

import (
	"encoding/json"
	"fmt"

	"github.com/kr37t1k/live2d-hub/internal/model"
)

// Command is the closed set of inbound message kinds. Decoding an
// envelope yields exactly one of the variants below, so the dispatcher
// can match exhaustively instead of switching on raw type strings.
type Command interface{ isCommand() }

type SetParameterCommand struct {
	ID    string
	Value float64
}

type SetExpressionCommand struct {
	Expression string
	Active     bool
}

type PlayMotionCommand struct {
	Group    string
	Index    int
	Priority model.Priority
	// DurationSeconds carries a real motion length when the client has
	// one; zero means use the nominal default.
	DurationSeconds float64
}

type LipSyncCommand struct {
	Level float64
}

type EyeTrackingCommand struct {
	X float64
	Y float64
}

type HeadRotationCommand struct {
	X float64
	Y float64
	Z float64
}

type GetStateCommand struct{}

type ResetStateCommand struct{}

type GetClientsCountCommand struct{}

func (SetParameterCommand) isCommand()    {}
func (SetExpressionCommand) isCommand()   {}
func (PlayMotionCommand) isCommand()      {}
func (LipSyncCommand) isCommand()         {}
func (EyeTrackingCommand) isCommand()     {}
func (HeadRotationCommand) isCommand()    {}
func (GetStateCommand) isCommand()        {}
func (ResetStateCommand) isCommand()      {}
func (GetClientsCountCommand) isCommand() {}

// envelope is the raw inbound message shape: {"type": ..., ...fields}.
// Pointer fields distinguish absent from zero so defaults from the
// protocol table can be applied.
type envelope struct {
	Type       string   `json:"type"`
	ID         *string  `json:"id"`
	Value      *float64 `json:"value"`
	Expression *string  `json:"expression"`
	Active     *bool    `json:"active"`
	Group      *string  `json:"group"`
	Index      *int     `json:"index"`
	Priority   *int     `json:"priority"`
	Duration   *float64 `json:"duration"`
	Level      *float64 `json:"level"`
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Z          *float64 `json:"z"`
}

// DecodeCommand parses an inbound message into one of the Command
// variants. Undecodable JSON, unknown types, and missing required
// fields all yield an error; the hub answers those with an error reply
// to the originating connection only.
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch env.Type {
	case "set_parameter":
		if env.ID == nil {
			return nil, fmt.Errorf("set_parameter requires id")
		}
		if env.Value == nil {
			return nil, fmt.Errorf("set_parameter requires value")
		}
		return SetParameterCommand{ID: *env.ID, Value: *env.Value}, nil

	case "set_expression":
		if env.Expression == nil {
			return nil, fmt.Errorf("set_expression requires expression")
		}
		active := true
		if env.Active != nil {
			active = *env.Active
		}
		return SetExpressionCommand{Expression: *env.Expression, Active: active}, nil

	case "play_motion":
		if env.Group == nil {
			return nil, fmt.Errorf("play_motion requires group")
		}
		cmd := PlayMotionCommand{Group: *env.Group, Priority: model.PriorityNormal}
		if env.Index != nil {
			cmd.Index = *env.Index
		}
		if env.Priority != nil {
			p := model.Priority(*env.Priority)
			if !p.Valid() {
				return nil, fmt.Errorf("play_motion priority out of range: %d", *env.Priority)
			}
			cmd.Priority = p
		}
		if env.Duration != nil {
			cmd.DurationSeconds = *env.Duration
		}
		return cmd, nil

	case "lip_sync":
		cmd := LipSyncCommand{}
		if env.Level != nil {
			cmd.Level = *env.Level
		}
		return cmd, nil

	case "eye_tracking":
		cmd := EyeTrackingCommand{}
		if env.X != nil {
			cmd.X = *env.X
		}
		if env.Y != nil {
			cmd.Y = *env.Y
		}
		return cmd, nil

	case "head_rotation":
		if env.X == nil || env.Y == nil {
			return nil, fmt.Errorf("head_rotation requires x and y")
		}
		cmd := HeadRotationCommand{X: *env.X, Y: *env.Y}
		if env.Z != nil {
			cmd.Z = *env.Z
		}
		return cmd, nil

	case "get_state":
		return GetStateCommand{}, nil

	case "reset_state":
		return ResetStateCommand{}, nil

	case "get_clients_count":
		return GetClientsCountCommand{}, nil

	case "":
		return nil, fmt.Errorf("missing message type")

	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
}
