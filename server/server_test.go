package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zucenko/ghostdelve/client"
	"github.com/zucenko/ghostdelve/model"
	"github.com/zucenko/ghostdelve/server"
)

type testServer struct {
	URL    string
	Health string
}

func testConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Width, cfg.Height = 40, 20
	cfg.TurnTimeout = 0
	cfg.Seed = 11
	return cfg
}

func startServer(t *testing.T, cfg server.Config) testServer {
	t.Helper()
	gs := server.NewGameServer(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	go gs.Loop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/play", gs.HandleHttpCall())
	mux.HandleFunc("/healthz", gs.HandleHealth())
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return testServer{
		URL:    "ws" + strings.TrimPrefix(srv.URL, "http") + "/play",
		Health: srv.URL + "/healthz",
	}
}

func dial(t *testing.T, url string) *client.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := client.Dial(ctx, url)
	require.NoError(t, err)
	c.ReadTimeout = 5 * time.Second
	t.Cleanup(func() { c.Close() })
	return c
}

func next[T model.Message](t *testing.T, c *client.Client) T {
	t.Helper()
	msg, err := c.Next()
	require.NoError(t, err)
	m, ok := msg.(T)
	require.True(t, ok, "got %T", msg)
	return m
}

// startGame seats ann and bob and returns them after their first boards.
func startGame(t *testing.T, ts testServer) (ann, bob *client.Client, annBoard, bobBoard *model.Board) {
	t.Helper()
	ann = dial(t, ts.URL)
	require.NoError(t, ann.Join("ann", model.Color{255, 0, 0}))
	next[model.Roster](t, ann)

	bob = dial(t, ts.URL)
	require.NoError(t, bob.Join("bob", model.Color{0, 0, 255}))
	next[model.Roster](t, ann)
	next[model.Roster](t, bob)

	return ann, bob, next[*model.Board](t, ann), next[*model.Board](t, bob)
}

func TestLobbyAndRounds(t *testing.T) {
	ts := startServer(t, testConfig())

	ann := dial(t, ts.URL)
	assert.Equal(t, 2, ann.Players)
	require.NoError(t, ann.Join("ann", model.Color{255, 0, 0}))
	roster := next[model.Roster](t, ann)
	assert.Equal(t, []model.PlayerInfo{{Name: "ann", Color: model.Color{255, 0, 0}}}, roster.Players)

	bob := dial(t, ts.URL)
	require.NoError(t, bob.Join("bob", model.Color{0, 0, 255}))
	roster = next[model.Roster](t, bob)
	assert.Equal(t, []string{"ann", "bob"}, []string{roster.Players[0].Name, roster.Players[1].Name})
	assert.Equal(t, roster, next[model.Roster](t, ann))

	for _, c := range []*client.Client{ann, bob} {
		b := next[*model.Board](t, c)
		assert.Equal(t, 40, b.Width)
		assert.Equal(t, 20, b.Height)
		assert.False(t, b.GameOver)
		assert.NotEmpty(t, b.Pieces(c.Name, false))
		assert.GreaterOrEqual(t, b.Count(model.SPAWN), 1)
	}

	// nobody moves; the next round still comes
	require.NoError(t, ann.SubmitTurn(model.NewPlayerTurn("")))
	require.NoError(t, bob.SubmitTurn(model.NewPlayerTurn("")))
	next[*model.Board](t, ann)
	next[*model.Board](t, bob)
}

// freeStep finds a piece of name with an empty floor tile next to it.
func freeStep(t *testing.T, b *model.Board, name string) (number int, from, to model.Position) {
	t.Helper()
	for _, p := range b.Pieces(name, false) {
		for _, n := range b.Neighbors(p.Position) {
			tile := b.Tile(n)
			if tile.Type == model.FLOOR && len(tile.Pieces) == 0 {
				return p.Number, p.Position, n
			}
		}
	}
	require.FailNow(t, "no free floor next to the pieces of "+name)
	return 0, from, to
}

func TestRoundAppliesMoves(t *testing.T) {
	ts := startServer(t, testConfig())
	ann, bob, annBoard, _ := startGame(t, ts)

	number, from, to := freeStep(t, annBoard, "ann")

	turn := model.NewPlayerTurn("someone else")
	turn.AddMove(number, from, to)
	require.NoError(t, ann.SubmitTurn(turn))
	require.NoError(t, bob.SubmitTurn(model.NewPlayerTurn("")))

	after := next[*model.Board](t, ann)
	assert.NotNil(t, after.FindPiece("ann", number, to, false))
	assert.Nil(t, after.FindPiece("ann", number, from, true), "ghosts are cleared between rounds")
	next[*model.Board](t, bob)
}

func TestRejectEmptyName(t *testing.T) {
	ts := startServer(t, testConfig())
	c := dial(t, ts.URL)
	require.NoError(t, c.Join("   ", model.Color{}))
	msg, err := c.Next()
	assert.ErrorIs(t, err, client.ErrRejected)
	assert.Equal(t, model.Rejected{Reason: server.REJECT_NO_NAME}, msg)
}

func TestRejectTakenName(t *testing.T) {
	ts := startServer(t, testConfig())
	ann := dial(t, ts.URL)
	require.NoError(t, ann.Join("ann", model.Color{}))
	next[model.Roster](t, ann)

	other := dial(t, ts.URL)
	require.NoError(t, other.Join("ann", model.Color{}))
	msg, err := other.Next()
	assert.ErrorIs(t, err, client.ErrRejected)
	assert.Equal(t, model.Rejected{Reason: server.REJECT_TAKEN}, msg)

	// the seat is still open for someone else
	bob := dial(t, ts.URL)
	require.NoError(t, bob.Join("bob", model.Color{}))
	assert.Len(t, next[model.Roster](t, bob).Players, 2)
}

func TestTurnBeforeJoin(t *testing.T) {
	ts := startServer(t, testConfig())
	c := dial(t, ts.URL)
	require.NoError(t, c.SubmitTurn(model.NewPlayerTurn("ann")))
	msg, err := c.Next()
	assert.ErrorIs(t, err, client.ErrRejected)
	assert.Equal(t, model.Rejected{Reason: server.REJECT_NO_JOIN}, msg)
}

func TestMalformedTurnIsSkipped(t *testing.T) {
	ts := startServer(t, testConfig())
	ann, bob, _, _ := startGame(t, ts)

	bad := `{"class":"PlayerTurn","player_name":"ann","pieces_actions":{"1":[{"class":"Action","action_type":"FLY","args":[]}]}}`
	require.NoError(t, ann.Conn.WriteMessage(websocket.TextMessage, []byte(bad)))

	errMsg := next[model.Error](t, ann)
	assert.Equal(t, model.Error{Player: "ann", Text: server.MALFORMED_TURN}, errMsg)
	assert.Equal(t, errMsg, next[model.Error](t, bob))

	// the skipped turn already counts for ann this round
	require.NoError(t, bob.SubmitTurn(model.NewPlayerTurn("")))
	next[*model.Board](t, ann)
	next[*model.Board](t, bob)
}

func TestForfeitWhenOpponentLeaves(t *testing.T) {
	ts := startServer(t, testConfig())
	ann, bob, _, _ := startGame(t, ts)

	require.NoError(t, bob.Close())

	final := next[*model.Board](t, ann)
	assert.True(t, final.GameOver)
	res := next[model.Result](t, ann)
	assert.Equal(t, "ann", res.Winner)
	assert.Equal(t, "Player ann has won, everybody else left.", res.Text)

	_, err := ann.Next()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestTurnDeadline(t *testing.T) {
	cfg := testConfig()
	cfg.TurnTimeout = 100 * time.Millisecond
	ts := startServer(t, cfg)
	ann, bob, _, _ := startGame(t, ts)

	require.NoError(t, ann.SubmitTurn(model.NewPlayerTurn("")))
	assert.Equal(t, 2, next[*model.Board](t, ann).Round)
	assert.Equal(t, 2, next[*model.Board](t, bob).Round)
}

func TestLateTurnIsNotCarriedOver(t *testing.T) {
	cfg := testConfig()
	cfg.TurnTimeout = 200 * time.Millisecond
	ts := startServer(t, cfg)
	ann, bob, _, bobBoard := startGame(t, ts)
	require.Equal(t, 1, bobBoard.Round)

	// bob misses the first deadline
	require.NoError(t, ann.SubmitTurn(model.NewPlayerTurn("")))
	next[*model.Board](t, ann)
	require.Equal(t, 2, next[*model.Board](t, bob).Round)

	// the round 1 move from bob shows up late and must not count for round 2
	number, from, to := freeStep(t, bobBoard, "bob")
	late := model.NewPlayerTurn("bob")
	late.Round = 1
	late.AddMove(number, from, to)
	require.NoError(t, bob.SubmitTurn(late))
	require.NoError(t, bob.SubmitTurn(model.NewPlayerTurn("")))
	require.NoError(t, ann.SubmitTurn(model.NewPlayerTurn("")))

	after := next[*model.Board](t, bob)
	assert.Equal(t, 3, after.Round)
	assert.NotNil(t, after.FindPiece("bob", number, from, false))
	assert.Nil(t, after.FindPiece("bob", number, to, false))
	next[*model.Board](t, ann)
}

func TestFullLobbyOpensNewGame(t *testing.T) {
	ts := startServer(t, testConfig())
	startGame(t, ts)

	late := dial(t, ts.URL)
	assert.Equal(t, 2, late.Players)

	resp, err := http.Get(ts.Health)
	require.NoError(t, err)
	defer resp.Body.Close()
	var st server.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 2, st.Games)
	assert.Equal(t, 3, st.Players)
	assert.Equal(t, map[string]int{"ACTIVE": 1, "LOBBY": 1}, st.States)
}

func TestNoCapacityForAnotherGame(t *testing.T) {
	cfg := testConfig()
	cfg.MaxGames = 1
	ts := startServer(t, cfg)
	startGame(t, ts)

	conn, resp, err := websocket.DefaultDialer.Dial(ts.URL, nil)
	if conn != nil {
		conn.Close()
	}
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
