package server

import (
	"context"
	"errors"

	cws "github.com/coder/websocket"
)

// wsMaxMessage bounds a single inbound JSON-RPC message.
const wsMaxMessage = 1 << 20

var errBinaryFrame = errors.New("websocket: binary frames are not JSON-RPC")

// wsChannel carries one JSON-RPC message per websocket text frame.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

func newWSChannel(ctx context.Context, conn *cws.Conn) *wsChannel {
	conn.SetReadLimit(wsMaxMessage)
	return &wsChannel{conn: conn, ctx: ctx}
}

func (c *wsChannel) Send(msg []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, msg)
}

func (c *wsChannel) Recv() ([]byte, error) {
	typ, msg, err := c.conn.Read(c.ctx)
	if err != nil {
		return nil, err
	}
	if typ != cws.MessageText {
		c.conn.Close(cws.StatusUnsupportedData, "text frames only")
		return nil, errBinaryFrame
	}
	return msg, nil
}

func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}
