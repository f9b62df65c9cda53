package http

import (
	"encoding/json"

	"github.com/speechroom/speechroom-server/internal/core"
	"github.com/speechroom/speechroom-server/internal/proto"
)

func inboundToCommand(connID string, inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoinGameRoom:
		var join proto.JoinGameRoomData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, badRequest("invalid join data")
		}
		if join.StudentID == "" || join.TherapistID == "" {
			return nil, badRequest("studentId and therapistId are required")
		}
		return &core.Command{
			Kind:        core.CommandJoinRoom,
			ConnID:      connID,
			StudentID:   join.StudentID,
			TherapistID: join.TherapistID,
			Room:        join.Room,
		}, nil
	case proto.InboundTypeGameUpdate:
		var update proto.GameUpdateData
		if err := json.Unmarshal(inbound.Data, &update); err != nil {
			return nil, badRequest("invalid update data")
		}
		if update.StudentID == "" || update.TherapistID == "" {
			return nil, badRequest("studentId and therapistId are required")
		}
		var patch core.Patch
		if len(update.GameData) > 0 {
			if err := json.Unmarshal(update.GameData, &patch); err != nil {
				return nil, badRequest(err.Error())
			}
		}
		return &core.Command{
			Kind:        core.CommandUpdateState,
			ConnID:      connID,
			StudentID:   update.StudentID,
			TherapistID: update.TherapistID,
			Patch:       patch,
		}, nil
	case proto.InboundTypeGameAction:
		var action proto.GameActionData
		if err := json.Unmarshal(inbound.Data, &action); err != nil {
			return nil, badRequest("invalid action data")
		}
		if action.StudentID == "" || action.TherapistID == "" {
			return nil, badRequest("studentId and therapistId are required")
		}
		return &core.Command{
			Kind:        core.CommandRelayAction,
			ConnID:      connID,
			StudentID:   action.StudentID,
			TherapistID: action.TherapistID,
			Action:      action.Action,
			Data:        action.Data,
		}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventStateUpdate:
		return proto.Outbound{
			Type: proto.OutboundTypeGameStateUpdate,
			Data: event.State,
		}
	case core.EventAction:
		if event.Action == nil {
			break
		}
		return proto.Outbound{
			Type: proto.OutboundTypeGameAction,
			Data: proto.GameActionRelay{
				Action: event.Action.Action,
				Data:   event.Action.Data,
				From:   event.Action.From,
			},
		}
	case core.EventError:
		if event.Error == nil {
			break
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	}
	return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown event"}}
}
