// Package client speaks the game protocol from the player's side.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/zucenko/ghostdelve/model"
)

var ErrRejected = errors.New("rejected by server")

// Client is one player's connection. It is not safe for concurrent use.
type Client struct {
	Conn *websocket.Conn
	// Players is the lobby size announced in the prompt.
	Players int
	Name    string
	// Round is taken from the last board received.
	Round int
	// ReadTimeout bounds every Next call when positive.
	ReadTimeout time.Duration
}

// Dial connects and waits for the lobby prompt.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{Conn: conn}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}
	msg, err := c.Next()
	conn.SetReadDeadline(time.Time{})
	if err != nil {
		conn.Close()
		return nil, err
	}
	prompt, ok := msg.(model.Prompt)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("%w: expected prompt, got %s", model.ErrUnknownClass, msg.Class())
	}
	c.Players = prompt.Players
	log.WithFields(log.Fields{"url": url, "players": prompt.Players}).Debug("connected")
	return c, nil
}

// Join answers the prompt. The server replies with a roster or a rejection,
// both read through Next.
func (c *Client) Join(name string, color model.Color) error {
	c.Name = name
	return c.send(model.Join{Name: name, Color: color})
}

// SubmitTurn sends this round's actions. PlayerName and Round are filled in
// from the connection when left empty.
func (c *Client) SubmitTurn(t *model.PlayerTurn) error {
	if t.PlayerName == "" {
		t.PlayerName = c.Name
	}
	if t.Round == 0 {
		t.Round = c.Round
	}
	return c.send(t)
}

func (c *Client) send(m model.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// Next blocks for the next server message. A rejection is returned together
// with an error wrapping ErrRejected.
func (c *Client) Next() (model.Message, error) {
	if c.ReadTimeout > 0 {
		c.Conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
	}
	_, data, err := c.Conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	msg, err := model.Decode(data)
	if err != nil {
		return nil, err
	}
	switch m := msg.(type) {
	case model.Rejected:
		return msg, fmt.Errorf("%w: %s", ErrRejected, m.Reason)
	case *model.Board:
		c.Round = m.Round
	}
	return msg, nil
}

// Close says goodbye and hangs up.
func (c *Client) Close() error {
	c.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.Conn.Close()
}
