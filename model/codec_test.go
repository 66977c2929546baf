package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBoard() *Board {
	b := NewBoard(3, 2, FLOOR)
	b.Tile(Position{0, 0}).Type = WALL
	b.Tile(Position{2, 1}).Type = EXIT
	b.AddPiece(&Piece{Number: 1, Position: Position{1, 0}, Owner: "ann", Color: Color{255, 0, 0}})
	b.AddPiece(&Piece{Number: 1, Position: Position{1, 1}, Owner: "ann", Ghost: true, Color: Color{255, 0, 0}})
	b.GameOver = true
	b.Round = 4
	return b
}

func TestBoardRoundTrip(t *testing.T) {
	b := sampleBoard()
	data, err := json.Marshal(b)
	require.NoError(t, err)

	msg, err := Decode(data)
	require.NoError(t, err)
	got, ok := msg.(*Board)
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestBoardWireShape(t *testing.T) {
	data, err := json.Marshal(sampleBoard())
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Board", raw["class"])
	assert.Equal(t, true, raw["gameover"])
	assert.EqualValues(t, 3, raw["width"])
	assert.EqualValues(t, 4, raw["round"])

	rows := raw["tiles"].([]interface{})
	require.Len(t, rows, 2)
	tile := rows[0].([]interface{})[1].(map[string]interface{})
	assert.Equal(t, "Tile", tile["class"])
	assert.Equal(t, "FLOOR", tile["type"])
	piece := tile["pieces"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Piece", piece["class"])
	assert.Equal(t, []interface{}{1.0, 0.0}, piece["position"])
	assert.Equal(t, false, piece["is_ghost"])
	assert.Equal(t, "ann", piece["owner"])
}

func TestPlayerTurnRoundTrip(t *testing.T) {
	turn := NewPlayerTurn("bob")
	turn.Round = 2
	turn.AddMove(2, Position{4, 4}, Position{5, 4})
	turn.AddBreak(2, Position{4, 4}, Position{4, 3})
	turn.AddMove(1, Position{0, 1}, Position{0, 2})

	data, err := json.Marshal(turn)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"round":2`)
	assert.Contains(t, string(data), `"action_type":"MOVE"`)
	assert.Contains(t, string(data), `"args":[[4,4],[5,4]]`)

	msg, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, turn, msg)
}

func TestEmptyTurnDecodesWithActions(t *testing.T) {
	msg, err := Decode([]byte(`{"class":"PlayerTurn","player_name":"x"}`))
	require.NoError(t, err)
	turn := msg.(*PlayerTurn)
	assert.NotNil(t, turn.PiecesActions)
	assert.Equal(t, 0, turn.Len())
}

func TestDecodeEnvelopes(t *testing.T) {
	for _, m := range []Message{
		Join{Name: "ann", Color: Color{1, 2, 3}},
		Prompt{Text: "hi", Players: 2},
		Rejected{Reason: "full"},
		Roster{Players: []PlayerInfo{{Name: "ann"}, {Name: "bob", Color: Color{9, 9, 9}}}},
		Result{Winner: "ann", Text: "done"},
		Error{Player: "bob", Text: "bad"},
	} {
		t.Run(m.Class(), func(t *testing.T) {
			data, err := json.Marshal(m)
			require.NoError(t, err)
			assert.Contains(t, string(data), `"class":"`+m.Class()+`"`)
			assert.Contains(t, string(data), `"version":1`)

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}
}

func TestEmptyRosterIsAList(t *testing.T) {
	data, err := json.Marshal(Roster{})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"players":[]`)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  error
	}{
		{"not json", `nope`, ErrMalformed},
		{"no class", `{"text":"x"}`, ErrUnknownClass},
		{"unknown class", `{"class":"Teleport"}`, ErrUnknownClass},
		{"future version", `{"class":"Prompt","version":2}`, ErrSchemaVersion},
		{"short position", `{"class":"PlayerTurn","player_name":"a","pieces_actions":{"1":[{"class":"Action","action_type":"MOVE","args":[[1],[1,2]]}]}}`, ErrMalformed},
		{"bad action", `{"class":"PlayerTurn","player_name":"a","pieces_actions":{"1":[{"class":"Action","action_type":"FLY","args":[[1,1],[1,2]]}]}}`, ErrMalformed},
		{"missing args", `{"class":"PlayerTurn","player_name":"a","pieces_actions":{"1":[{"class":"Action","action_type":"MOVE","args":[[1,1]]}]}}`, ErrMalformed},
		{"wrong nested class", `{"class":"PlayerTurn","player_name":"a","pieces_actions":{"1":[{"class":"Piece","action_type":"MOVE","args":[[1,1],[1,2]]}]}}`, ErrUnknownClass},
		{"ragged board", `{"class":"Board","width":2,"height":1,"tiles":[[{"class":"Tile","type":"FLOOR","pieces":[]}]]}`, ErrMalformed},
		{"bad tile type", `{"class":"Board","width":1,"height":1,"tiles":[[{"class":"Tile","type":"LAVA","pieces":[]}]]}`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
