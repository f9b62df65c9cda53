package http

import (
	"context"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/speechroom/speechroom-server/internal/core"
	"github.com/speechroom/speechroom-server/internal/proto"
)

func TestGameRoomEndToEnd(t *testing.T) {
	env := newTestEnv(t, testOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	therapist := env.dial(t, ctx)
	student := env.dial(t, ctx)

	ids := proto.JoinGameRoomData{StudentID: "s1", TherapistID: "t1"}

	send(t, ctx, therapist, proto.InboundTypeJoinGameRoom, ids)
	state := readState(t, ctx, therapist)
	if state["score"] != float64(0) || state["currentPlayer"] != "therapist" || state["currentWord"] != "" {
		t.Fatalf("unexpected initial state: %v", state)
	}

	send(t, ctx, student, proto.InboundTypeJoinGameRoom, proto.JoinGameRoomData{StudentID: "s1", TherapistID: "t1", Room: "game-s1-t1"})
	readState(t, ctx, student)
	env.waitRooms(t, 1)

	send(t, ctx, therapist, proto.InboundTypeGameUpdate, map[string]any{
		"studentId":   "s1",
		"therapistId": "t1",
		"gameData":    map[string]any{"score": 10, "currentWord": "cat", "round": 2},
	})

	state = readState(t, ctx, student)
	if state["score"] != float64(10) || state["currentWord"] != "cat" || state["currentPlayer"] != "therapist" || state["round"] != float64(2) {
		t.Fatalf("unexpected merged state: %v", state)
	}

	send(t, ctx, student, proto.InboundTypeGameAction, map[string]any{
		"studentId":   "s1",
		"therapistId": "t1",
		"action":      "flip-card",
		"data":        map[string]any{"index": 3},
	})

	out := read(t, ctx, therapist)
	if out.Type != proto.OutboundTypeGameAction {
		t.Fatalf("expected game-action, got %+v", out)
	}

	therapist.Close(websocket.StatusNormalClosure, "done")
	student.Close(websocket.StatusNormalClosure, "done")
	env.waitRooms(t, 0)
}

func TestSenderDoesNotReceiveOwnUpdate(t *testing.T) {
	env := newTestEnv(t, testOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := env.dial(t, ctx)
	b := env.dial(t, ctx)
	ids := proto.JoinGameRoomData{StudentID: "s2", TherapistID: "t2"}
	send(t, ctx, a, proto.InboundTypeJoinGameRoom, ids)
	readState(t, ctx, a)
	send(t, ctx, b, proto.InboundTypeJoinGameRoom, ids)
	readState(t, ctx, b)

	send(t, ctx, a, proto.InboundTypeGameUpdate, map[string]any{
		"studentId": "s2", "therapistId": "t2",
		"gameData": map[string]any{"currentPlayer": "student"},
	})
	if got := readState(t, ctx, b); got["currentPlayer"] != "student" {
		t.Fatalf("unexpected state: %v", got)
	}

	// The next frame A sees must be the reply to its own unknown message, not its update.
	send(t, ctx, a, "ping", map[string]any{})
	readError(t, ctx, a, core.ErrCodeInvalidMessage)
}

func TestProtocolErrorsKeepConnectionOpen(t *testing.T) {
	env := newTestEnv(t, testOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := env.dial(t, ctx)

	send(t, ctx, conn, "chat", map[string]any{})
	readError(t, ctx, conn, core.ErrCodeInvalidMessage)

	send(t, ctx, conn, proto.InboundTypeJoinGameRoom, map[string]any{"studentId": "s1"})
	readError(t, ctx, conn, core.ErrCodeBadRequest)

	send(t, ctx, conn, proto.InboundTypeJoinGameRoom, proto.JoinGameRoomData{StudentID: "s1", TherapistID: "t1", Room: "game-x-y"})
	readError(t, ctx, conn, core.ErrCodeRoomMismatch)

	send(t, ctx, conn, proto.InboundTypeGameUpdate, map[string]any{
		"studentId": "s1", "therapistId": "t1",
		"gameData": map[string]any{"score": "ten"},
	})
	readError(t, ctx, conn, core.ErrCodeBadRequest)

	send(t, ctx, conn, proto.InboundTypeJoinGameRoom, proto.JoinGameRoomData{StudentID: "s1", TherapistID: "t1"})
	readState(t, ctx, conn)
}

func TestUpdateForMissingRoomDoesNotCreateIt(t *testing.T) {
	env := newTestEnv(t, testOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := env.dial(t, ctx)
	send(t, ctx, conn, proto.InboundTypeGameUpdate, map[string]any{
		"studentId": "ghost", "therapistId": "t1",
		"gameData": map[string]any{"score": 1},
	})
	send(t, ctx, conn, proto.InboundTypeGameAction, map[string]any{
		"studentId": "ghost", "therapistId": "t1", "action": "noop",
	})

	// Commands from one connection are processed in order, so once the join
	// reply arrives the earlier commands have been handled.
	send(t, ctx, conn, proto.InboundTypeJoinGameRoom, proto.JoinGameRoomData{StudentID: "s9", TherapistID: "t9"})
	readState(t, ctx, conn)
	env.waitRooms(t, 1)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, testOptions{rateLimit: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := env.dial(t, ctx)
	ids := proto.JoinGameRoomData{StudentID: "s1", TherapistID: "t1"}

	send(t, ctx, conn, proto.InboundTypeJoinGameRoom, ids)
	readState(t, ctx, conn)
	send(t, ctx, conn, proto.InboundTypeJoinGameRoom, ids)
	readState(t, ctx, conn)

	send(t, ctx, conn, proto.InboundTypeJoinGameRoom, ids)
	readError(t, ctx, conn, core.ErrCodeRateLimited)
}

func TestMalformedEnvelopeClosesConnection(t *testing.T) {
	env := newTestEnv(t, testOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := env.dial(t, ctx)
	if err := conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, _, err := conn.Read(ctx)
	if err == nil {
		t.Fatalf("expected connection to be closed")
	}
	switch status := websocket.CloseStatus(err); status {
	case websocket.StatusInvalidFramePayloadData, websocket.StatusProtocolError:
	default:
		t.Fatalf("unexpected close status %v (err %v)", status, err)
	}
}

func TestJoinReplyThroughServerHandler(t *testing.T) {
	env := newTestEnv(t, testOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := env.dial(t, ctx)
	send(t, ctx, conn, proto.InboundTypeJoinGameRoom, proto.JoinGameRoomData{StudentID: "S", TherapistID: "T"})

	out := read(t, ctx, conn)
	if out.Type != proto.OutboundTypeGameStateUpdate {
		t.Fatalf("first frame after join = %+v, want %s", out, proto.OutboundTypeGameStateUpdate)
	}
	env.waitRooms(t, 1)
}
