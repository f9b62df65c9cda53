package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/speechroom/speechroom-server/internal/auth"
	"github.com/speechroom/speechroom-server/internal/config"
	"github.com/speechroom/speechroom-server/internal/core"
	"github.com/speechroom/speechroom-server/internal/proto"
	"github.com/speechroom/speechroom-server/internal/service/progress"
	"github.com/speechroom/speechroom-server/internal/store/sqlite"
	"github.com/speechroom/speechroom-server/internal/video"
)

type testEnv struct {
	ts       *httptest.Server
	hub      *core.Hub
	auth     *auth.Service
	progress *progress.Service
}

type testOptions struct {
	devMode   bool
	rateLimit int
	video     video.Engine
}

func newTestEnv(t *testing.T, opts testOptions) *testEnv {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.Nop()

	hub := core.NewHub(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}, opts.devMode)
	progressService := progress.New(st, st)

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.WSRateLimit = opts.rateLimit
	cfg.AllowedOrigins = []string{"*"}

	server := NewServer(hub, authService, progressService, opts.video, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, hub: hub, auth: authService, progress: progressService}
}

func (e *testEnv) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// waitRooms polls the hub until it reports want rooms.
func (e *testEnv) waitRooms(t *testing.T, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		stats, err := e.hub.Stats(context.Background())
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats.Rooms == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("rooms = %d, want %d", stats.Rooms, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type testOutbound struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) testOutbound {
	t.Helper()

	var out testOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

func readState(t *testing.T, ctx context.Context, conn *websocket.Conn) map[string]any {
	t.Helper()

	out := read(t, ctx, conn)
	if out.Type != proto.OutboundTypeGameStateUpdate {
		t.Fatalf("expected %s, got %s (error %+v)", proto.OutboundTypeGameStateUpdate, out.Type, out.Error)
	}
	var state map[string]any
	if err := json.Unmarshal(out.Data, &state); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	return state
}

func readError(t *testing.T, ctx context.Context, conn *websocket.Conn, code string) {
	t.Helper()

	out := read(t, ctx, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != code {
		t.Fatalf("expected error %s, got %+v", code, out)
	}
}
