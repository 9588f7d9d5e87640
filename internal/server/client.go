package server

import (
	"log"
	"time"

	"github.com/gorilla/websocket"

	"crossyarena/server/internal/playerid"
	"crossyarena/server/internal/protocol"
)

// Client is one connected socket attached to exactly one Match, carrying
// its own clock offset once the handshake completes. Its ReadPump/WritePump
// pair follows the teacher's network.go shape directly: one goroutine reads
// and dispatches, one drains a send channel and writes each queued message
// to the wire as its own frame.
type Client struct {
	SocketId string
	PlayerId playerid.PlayerId
	Conn     *websocket.Conn
	Send     chan []byte
	Match    *Match

	clientOffsetUs uint32
	helloReceived  bool
}

// NewClient wires a freshly-upgraded connection to its match under a
// reserved player id.
func NewClient(socketId string, id playerid.PlayerId, conn *websocket.Conn, match *Match) *Client {
	return &Client{
		SocketId: socketId,
		PlayerId: id,
		Conn:     conn,
		Send:     make(chan []byte, WriteChannelSize),
		Match:    match,
	}
}

// ReadPump decodes binary frames off the socket and dispatches them into
// the match's mutex-guarded inbox. It reaches Match state only through the
// Enqueue* calls and, during the handshake, AttachClient and ListenerCount,
// so it never competes with the tick loop for a lock held longer than a
// slice append or a slot update.
func (c *Client) ReadPump() {
	defer func() {
		c.Match.EnqueueDrop(c.PlayerId)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("client %s: websocket error: %v", c.SocketId, err)
			}
			break
		}
		c.handleFrame(frame)
	}
}

func (c *Client) handleFrame(frame []byte) {
	kind, dec, err := protocol.Decode(frame)
	if err != nil {
		log.Printf("client %s: %v", c.SocketId, err)
		return
	}

	switch kind {
	case protocol.KindClientHello:
		var hello protocol.ClientHello
		if err := dec.Decode(&hello); err != nil {
			log.Printf("client %s: malformed ClientHello: %v", c.SocketId, err)
			return
		}
		c.handleHello(hello)

	case protocol.KindClientTick:
		var tick protocol.ClientTick
		if err := dec.Decode(&tick); err != nil {
			log.Printf("client %s: malformed ClientTick: %v", c.SocketId, err)
			return
		}
		c.handleTick(tick)

	case protocol.KindTimeRequestPacket:
		var probe protocol.TimeRequestPacket
		if err := dec.Decode(&probe); err != nil {
			log.Printf("client %s: malformed TimeRequestPacket: %v", c.SocketId, err)
			return
		}
		c.Match.EnqueueProbe(c.SocketId, probe.ClientSendTimeUs)

	case protocol.KindClientDrop:
		c.Match.EnqueueDrop(c.PlayerId)

	default:
		log.Printf("client %s: unexpected message kind %s from a client", c.SocketId, kind)
	}
}

// handleHello establishes this connection's clock offset against the
// server's own clock, per spec: client-stamped times are thereafter
// interpreted as client.time_us + client_offset_us.
func (c *Client) handleHello(hello protocol.ClientHello) {
	now := uint32(time.Now().UnixMicro())
	c.clientOffsetUs = now - StaticLagUs
	c.helloReceived = true

	c.SendDirect(protocol.KindHelloResponse, protocol.HelloResponse{
		ServerVersion: protocol.ServerVersion,
		PlayerCount:   uint8(c.Match.ListenerCount()),
		Seed:          c.Match.Seed,
		PlayerId:      uint8(c.PlayerId),
	})

	c.Match.AttachClient(c.PlayerId, c)
}

func (c *Client) handleTick(tick protocol.ClientTick) {
	if !c.helloReceived {
		log.Printf("client %s: ClientTick before ClientHello, ignoring", c.SocketId)
		return
	}
	c.Match.EnqueueTick(c.PlayerId, tick.TimeUs+c.clientOffsetUs, tick.Input, tick.LobbyReady)
}

// WritePump drains the match's broadcast channel for this client's player
// id and this client's own direct-send channel, writing each message to the
// wire as a separate binary frame.
func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	fan := c.Match.OutputFor(c.PlayerId)

	for {
		select {
		case direct, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.BinaryMessage, direct); err != nil {
				return
			}

		case tick, ok := <-fan:
			if !ok {
				return
			}
			frame, err := protocol.Encode(protocol.KindServerTick, tick)
			if err != nil {
				log.Printf("client %s: %v", c.SocketId, err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendDirect encodes and queues a message addressed only to this client,
// bypassing the match-wide broadcast fan (handshake responses, GoodBye,
// and latency-probe echoes never belong on the shared tick channel).
func (c *Client) SendDirect(kind protocol.Kind, payload any) {
	frame, err := protocol.Encode(kind, payload)
	if err != nil {
		log.Printf("client %s: %v", c.SocketId, err)
		return
	}
	select {
	case c.Send <- frame:
	default:
		log.Printf("client %s: send channel full, dropping a direct message", c.SocketId)
	}
}

// Close shuts down the client's send channel, letting WritePump unwind.
func (c *Client) Close() {
	close(c.Send)
}
