package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is a Remote backed by a Server over websocket.
type Client struct {
	conn   *websocket.Conn
	owner  string
	logger *slog.Logger

	writeMu sync.Mutex

	mu            sync.Mutex
	seq           uint64
	pending       map[uint64]chan Frame
	nextSub       int
	subs          map[int]func([]SwimmerRecord)
	playerSubs    map[int]func([]PlayerRecord)
	subscribed    bool
	playersJoined bool
	closed        bool
	closeCalled   bool
	done          chan struct{}
}

// Dial connects to the server at rawURL as owner.
func Dial(ctx context.Context, rawURL, owner string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing store url: %w", err)
	}
	q := u.Query()
	q.Set("owner", owner)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing store: %w", err)
	}

	c := &Client{
		conn:       conn,
		owner:      owner,
		logger:     logger.With("component", "store_client"),
		pending:    make(map[uint64]chan Frame),
		subs:       make(map[int]func([]SwimmerRecord)),
		playerSubs: make(map[int]func([]PlayerRecord)),
		done:       make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close closes the connection. Outstanding calls fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closeCalled {
		c.mu.Unlock()
		return nil
	}
	c.closeCalled = true
	c.closed = true
	c.mu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer c.failPending()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.logger.Error("read_failed", "error", err)
			}
			return
		}
		f, err := DecodeFrame(payload)
		if err != nil {
			c.logger.Warn("malformed_frame", "error", err)
			continue
		}

		switch f.Kind {
		case FrameReply:
			c.mu.Lock()
			ch, ok := c.pending[f.Seq]
			delete(c.pending, f.Seq)
			c.mu.Unlock()
			if ok {
				ch <- f
			}
		case FrameSwimmers:
			for _, fn := range c.swimmerHandlers() {
				fn(f.Swimmers)
			}
		case FramePlayers:
			recs := markCurrentUser(f.Players, c.owner)
			for _, fn := range c.playerHandlers() {
				fn(recs)
			}
		}
	}
}

func (c *Client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for seq, ch := range c.pending {
		close(ch)
		delete(c.pending, seq)
	}
}

func (c *Client) swimmerHandlers() []func([]SwimmerRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]func([]SwimmerRecord), 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}

func (c *Client) playerHandlers() []func([]PlayerRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]func([]PlayerRecord), 0, len(c.playerSubs))
	for _, fn := range c.playerSubs {
		out = append(out, fn)
	}
	return out
}

func (c *Client) write(f Frame) error {
	data, err := EncodeFrame(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// call sends a request and waits for its reply.
func (c *Client) call(ctx context.Context, req Frame) (Frame, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Frame{}, ErrClosed
	}
	c.seq++
	req.Seq = c.seq
	ch := make(chan Frame, 1)
	c.pending[req.Seq] = ch
	c.mu.Unlock()

	if err := c.write(req); err != nil {
		c.mu.Lock()
		delete(c.pending, req.Seq)
		c.mu.Unlock()
		return Frame{}, err
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, req.Seq)
		c.mu.Unlock()
		return Frame{}, ctx.Err()
	case reply, ok := <-ch:
		if !ok {
			return Frame{}, ErrClosed
		}
		return reply, frameError(reply)
	}
}

// Subscribe implements Remote.
func (c *Client) Subscribe(onChange func([]SwimmerRecord)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = onChange
	first := !c.subscribed
	c.subscribed = true
	c.mu.Unlock()

	if first {
		if err := c.write(Frame{Kind: FrameSubscribe}); err != nil {
			c.logger.Error("subscribe_failed", "error", err)
		}
	}
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// SubscribePlayers implements PlayerFeed.
func (c *Client) SubscribePlayers(onChange func([]PlayerRecord)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.playerSubs[id] = onChange
	first := !c.playersJoined
	c.playersJoined = true
	c.mu.Unlock()

	if first {
		if err := c.write(Frame{Kind: FrameSubscribePlayers}); err != nil {
			c.logger.Error("subscribe_players_failed", "error", err)
		}
	}
	return func() {
		c.mu.Lock()
		delete(c.playerSubs, id)
		c.mu.Unlock()
	}
}

// ReadAll implements Remote.
func (c *Client) ReadAll(ctx context.Context) ([]SwimmerRecord, error) {
	reply, err := c.call(ctx, Frame{Kind: FrameReadAll})
	if err != nil {
		return nil, fmt.Errorf("read all: %w", err)
	}
	return reply.Swimmers, nil
}

// RemoveByID implements Remote.
func (c *Client) RemoveByID(ctx context.Context, id string) error {
	if _, err := c.call(ctx, Frame{Kind: FrameRemove, ID: id}); err != nil {
		return fmt.Errorf("remove %q: %w", id, err)
	}
	return nil
}

// WritePlayerPosition implements Remote.
func (c *Client) WritePlayerPosition(ctx context.Context, x, y float64) error {
	if _, err := c.call(ctx, Frame{Kind: FrameWritePosition, X: x, Y: y}); err != nil {
		return fmt.Errorf("write position: %w", err)
	}
	return nil
}

// ReadUserAggregate implements Remote.
func (c *Client) ReadUserAggregate(ctx context.Context) (UserAggregate, error) {
	reply, err := c.call(ctx, Frame{Kind: FrameReadUser})
	if err != nil {
		return UserAggregate{}, fmt.Errorf("read user: %w", err)
	}
	if reply.User == nil {
		return UserAggregate{}, fmt.Errorf("read user: %w", ErrNotFound)
	}
	return *reply.User, nil
}
