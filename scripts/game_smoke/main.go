package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/speechroom/speechroom-server/internal/log"
	"github.com/speechroom/speechroom-server/internal/proto"
)

var logger = log.New("info", "console")

func main() {
	if err := run(); err != nil {
		logger.Error().Err(err).Msg("game_smoke failed")
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:5000/ws", "WebSocket address")
	studentID := flag.String("student", "student-1", "student id")
	therapistID := flag.String("therapist", "therapist-1", "therapist id")
	word := flag.String("word", "cat", "current word to publish")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	therapist, err := dialAndJoin(ctx, *addr, *studentID, *therapistID)
	if err != nil {
		return fmt.Errorf("therapist: %w", err)
	}
	defer therapist.Close(websocket.StatusNormalClosure, "bye")

	student, err := dialAndJoin(ctx, *addr, *studentID, *therapistID)
	if err != nil {
		return fmt.Errorf("student: %w", err)
	}
	defer student.Close(websocket.StatusNormalClosure, "bye")

	gameData, err := json.Marshal(map[string]any{"score": 10, "currentWord": *word, "currentPlayer": "student"})
	if err != nil {
		return fmt.Errorf("marshal game data: %w", err)
	}
	if err := send(ctx, therapist, proto.InboundTypeGameUpdate, proto.GameUpdateData{
		StudentID:   *studentID,
		TherapistID: *therapistID,
		GameData:    gameData,
	}); err != nil {
		return err
	}

	out, err := receive(ctx, student)
	if err != nil {
		return err
	}
	if out.Type != proto.OutboundTypeGameStateUpdate {
		return fmt.Errorf("expected %s, got %s", proto.OutboundTypeGameStateUpdate, out.Type)
	}
	logger.Info().RawJSON("state", out.Data).Msg("student received merged state")

	if err := send(ctx, student, proto.InboundTypeGameAction, proto.GameActionData{
		Action:      "answer",
		Data:        json.RawMessage(`{"correct":true}`),
		StudentID:   *studentID,
		TherapistID: *therapistID,
	}); err != nil {
		return err
	}

	out, err = receive(ctx, therapist)
	if err != nil {
		return err
	}
	logger.Info().Str("type", out.Type).RawJSON("data", out.Data).Msg("therapist received action")
	return nil
}

type outbound struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func dialAndJoin(ctx context.Context, addr, studentID, therapistID string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	if err := send(ctx, conn, proto.InboundTypeJoinGameRoom, proto.JoinGameRoomData{
		StudentID:   studentID,
		TherapistID: therapistID,
	}); err != nil {
		conn.CloseNow()
		return nil, err
	}

	out, err := receive(ctx, conn)
	if err != nil {
		conn.CloseNow()
		return nil, err
	}
	logger.Info().Str("type", out.Type).RawJSON("state", out.Data).Msg("joined game room")
	return conn, nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func receive(ctx context.Context, conn *websocket.Conn) (outbound, error) {
	var out outbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		return out, fmt.Errorf("read: %w", err)
	}
	if out.Error != nil {
		return out, fmt.Errorf("server error %s: %s", out.Error.Code, out.Error.Msg)
	}
	return out, nil
}
