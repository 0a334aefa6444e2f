package sqlclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/engine"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/record"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/sql/executor"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/server/reldbwire"
)

// Client is a simple synchronous client. Send/recv are locked so callers
// may share one Client; requests serialize.
type Client struct {
	conn net.Conn
	mu   sync.Mutex
	id   atomic.Uint64

	// Optional per-request timeout (0 = no timeout).
	rwTimeout time.Duration
}

func Dial(addr string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	c, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: c}, nil
}

func DialContext(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: c}, nil
}

// SetRWTimeout sets a per-request read/write deadline so a call cannot hang
// forever on a dead server.
func (c *Client) SetRWTimeout(d time.Duration) {
	if c == nil {
		return
	}
	c.rwTimeout = d
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Exec runs one statement remotely.
func (c *Client) Exec(sql string) (*executor.Result, error) {
	return c.ExecContext(context.Background(), sql)
}

func (c *Client) ExecContext(ctx context.Context, sql string) (*executor.Result, error) {
	resp, err := c.roundTrip(ctx, reldbwire.Request{Op: reldbwire.OpQuery, SQL: sql})
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Tables lists the server's table names.
func (c *Client) Tables(ctx context.Context) ([]string, error) {
	resp, err := c.roundTrip(ctx, reldbwire.Request{Op: reldbwire.OpTables})
	if err != nil {
		return nil, err
	}
	return resp.Tables, nil
}

// Schema describes one table's columns.
func (c *Client) Schema(ctx context.Context, tableName string) ([]record.Column, error) {
	resp, err := c.roundTrip(ctx, reldbwire.Request{Op: reldbwire.OpSchema, Table: tableName})
	if err != nil {
		return nil, err
	}
	return resp.Schema, nil
}

// Stats fetches database-wide statistics.
func (c *Client) Stats(ctx context.Context) (*engine.Stats, error) {
	resp, err := c.roundTrip(ctx, reldbwire.Request{Op: reldbwire.OpStats})
	if err != nil {
		return nil, err
	}
	return resp.Stats, nil
}

func (c *Client) roundTrip(ctx context.Context, req reldbwire.Request) (*reldbwire.Response, error) {
	if c == nil || c.conn == nil {
		return nil, fmt.Errorf("sqlclient: nil client")
	}

	req.ID = c.id.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.applyDeadline(ctx); err != nil {
		return nil, err
	}
	defer func() {
		// Clear deadline after request so idle connection doesn't expire.
		_ = c.conn.SetDeadline(time.Time{})
	}()

	if err := reldbwire.WriteFrame(c.conn, req); err != nil {
		return nil, err
	}

	var resp reldbwire.Response
	if err := reldbwire.ReadFrame(c.conn, &resp); err != nil {
		return nil, err
	}

	if resp.ID != req.ID {
		return nil, fmt.Errorf("sqlclient: response id mismatch: got=%d want=%d", resp.ID, req.ID)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return &resp, nil
}

func (c *Client) applyDeadline(ctx context.Context) error {
	// Prefer context deadline if present; otherwise use rwTimeout.
	if dl, ok := ctx.Deadline(); ok {
		return c.conn.SetDeadline(dl)
	}
	if c.rwTimeout > 0 {
		return c.conn.SetDeadline(time.Now().Add(c.rwTimeout))
	}
	return nil
}
