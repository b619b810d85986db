package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/registry"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

const readTimeout = 2 * time.Second

type event map[string]any

func (that event) Type() string {
	value, _ := that["type"].(string)
	return value
}

func newTestServer(t *testing.T) (*httptest.Server, *registry.Registry) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(logger)
	manager := usecase.NewGameManager(logger, reg, nil, 20)

	server := New(logger, manager, config.WebSocket{
		SendBuffer:     64,
		PingPeriod:     time.Second,
		PongWait:       2 * time.Second,
		WriteWait:      time.Second,
		MaxMessageSize: 4096,
	})

	ctx, cancel := context.WithCancel(context.Background())
	ts := httptest.NewServer(server.Handler(ctx))
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return ts, reg
}

// dial connects and consumes the connection_established greeting.
func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.Equal(t, room.EventConnectionEstablished, read(t, conn).Type())

	return conn
}

func send(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func read(t *testing.T, conn *websocket.Conn) event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var result event
	require.NoError(t, json.Unmarshal(data, &result))

	return result
}

// readUntil skips events until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) event {
	t.Helper()

	for {
		if ev := read(t, conn); ev.Type() == eventType {
			return ev
		}
	}
}

func move(t *testing.T, conn *websocket.Conn, row, col int) {
	t.Helper()

	data, err := json.Marshal(map[string]any{"type": actionMakeMove, "row": row, "col": col})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// openRoom creates a room with the first connection and seats the second in it.
func openRoom(t *testing.T, first, second *websocket.Conn) string {
	t.Helper()

	send(t, first, `{"type":"create_room","playerName":"Alice"}`)
	created := read(t, first)
	require.Equal(t, room.EventRoomCreated, created.Type())
	roomID, _ := created["roomId"].(string)
	require.Len(t, roomID, 8)
	assert.Equal(t, string(room.PhaseWaiting), created["gameState"])

	send(t, second, `{"type":"join_room","roomId":"`+strings.ToLower(roomID)+`","playerName":"Bob"}`)
	joined := read(t, second)
	require.Equal(t, room.EventRoomJoined, joined.Type())
	assert.EqualValues(t, 2, joined["playerNumber"])
	assert.Equal(t, string(room.PhasePlaying), joined["gameState"])

	readUntil(t, first, room.EventGameStart)
	readUntil(t, second, room.EventGameStart)

	return roomID
}

func TestServer_FullGame(t *testing.T) {
	// Given: two connected players in one room
	ts, _ := newTestServer(t)
	first, second := dial(t, ts), dial(t, ts)
	openRoom(t, first, second)

	// When: seat one builds a horizontal five while seat two plays the row below
	for col := 0; col < 4; col++ {
		move(t, first, 7, col)
		readUntil(t, first, room.EventMove)
		readUntil(t, second, room.EventMove)

		move(t, second, 8, col)
		readUntil(t, first, room.EventMove)
		readUntil(t, second, room.EventMove)
	}
	move(t, first, 7, 4)

	// Then: the winning move arrives as game_over for seat one
	for _, conn := range []*websocket.Conn{first, second} {
		over := read(t, conn)
		require.Equal(t, room.EventGameOver, over.Type())
		assert.EqualValues(t, 1, over["winner"])
	}

	// When: seat two asks for another round
	send(t, second, `{"type":"reset_game"}`)

	// Then: both see the reset
	assert.Equal(t, room.EventGameReset, read(t, first).Type())
	assert.Equal(t, room.EventGameReset, read(t, second).Type())
}

func TestServer_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		message string
	}{
		{name: "Not JSON", payload: `{oops`, message: "malformed message"},
		{name: "Missing type", payload: `{"row":1}`, message: "malformed message"},
		{name: "Unknown type", payload: `{"type":"fly"}`, message: "unknown message type"},
		{name: "Join without room id", payload: `{"type":"join_room"}`, message: "malformed message"},
		{name: "Join unknown room", payload: `{"type":"join_room","roomId":"ZZZZ9999"}`, message: "room not found"},
		{name: "Move without a room", payload: `{"type":"make_move","row":1,"col":1}`, message: "you are not in a room"},
		{name: "Move without coordinates", payload: `{"type":"make_move","row":1}`, message: "malformed message"},
	}

	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			send(t, conn, tc.payload)

			reply := read(t, conn)

			assert.Equal(t, room.EventError, reply.Type())
			assert.Equal(t, tc.message, reply["message"])
		})
	}
}

func TestServer_ErrorsGoOnlyToRequester(t *testing.T) {
	// Given: a game where seat one is to move
	ts, _ := newTestServer(t)
	first, second := dial(t, ts), dial(t, ts)
	openRoom(t, first, second)

	// When: seat two moves out of turn and then chats
	move(t, second, 0, 0)
	send(t, second, `{"type":"send_message","message":"oops"}`)

	// Then: only seat two sees the error, and seat one's next event is the chat
	reply := read(t, second)
	assert.Equal(t, room.EventError, reply.Type())
	assert.Equal(t, "it's not your turn", reply["message"])

	chat := read(t, first)
	assert.Equal(t, room.EventChatMessage, chat.Type())
	assert.Equal(t, "oops", chat["message"])
}

func TestServer_Disconnect(t *testing.T) {
	// Given: two players in a room
	ts, reg := newTestServer(t)
	first, second := dial(t, ts), dial(t, ts)
	roomID := openRoom(t, first, second)

	// When: seat two drops its connection
	require.NoError(t, second.Close())

	// Then: seat one is told and the room stays open for a new opponent
	left := readUntil(t, first, room.EventPlayerLeft)
	assert.EqualValues(t, 1, left["playersCount"])

	_, ok := reg.FindRoom(roomID)
	assert.True(t, ok)

	// When: seat one leaves as well
	require.NoError(t, first.Close())

	// Then: the room is removed
	assert.Eventually(t, func() bool {
		_, found := reg.FindRoom(roomID)
		return !found
	}, readTimeout, 10*time.Millisecond)
}

func TestServer_OversizedMessageKeepsSession(t *testing.T) {
	// Given: two players in a game
	ts, reg := newTestServer(t)
	first, second := dial(t, ts), dial(t, ts)
	roomID := openRoom(t, first, second)

	// When: seat two sends a chat larger than the message size limit, then a normal one
	data, err := json.Marshal(map[string]any{"type": actionSendMessage, "message": strings.Repeat("x", 5000)})
	require.NoError(t, err)
	require.NoError(t, second.WriteMessage(websocket.TextMessage, data))
	send(t, second, `{"type":"send_message","message":"still here"}`)

	// Then: only seat two gets an error and both stay seated
	reply := read(t, second)
	assert.Equal(t, room.EventError, reply.Type())
	assert.Equal(t, "malformed message", reply["message"])

	chat := read(t, first)
	require.Equal(t, room.EventChatMessage, chat.Type())
	assert.Equal(t, "still here", chat["message"])

	found, ok := reg.FindRoom(roomID)
	require.True(t, ok)
	assert.Equal(t, 2, found.PlayerCount())
}

func TestServer_BinaryFrameIsRejected(t *testing.T) {
	// Given: a connected client
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	// When: it sends a binary frame followed by a text envelope
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte(`{oops`)))
	send(t, conn, `{"type":"fly"}`)

	// Then: each frame gets its own error reply in order
	first := read(t, conn)
	assert.Equal(t, room.EventError, first.Type())
	assert.Equal(t, "malformed message", first["message"])

	second := read(t, conn)
	assert.Equal(t, room.EventError, second.Type())
	assert.Equal(t, "unknown message type", second["message"])
}
