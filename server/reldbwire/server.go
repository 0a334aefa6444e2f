package reldbwire

import (
	"context"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/engine"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/sql/executor"
)

type ServerConfig struct {
	Addr string
	DB   *engine.Database
}

// Run serves the wire protocol until SIGINT/SIGTERM. All connections share
// one Database; the engine mutex serializes statements across them.
func Run(sc ServerConfig) error {
	ln, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer func() { _ = ln.Close() }()

	log.Printf("reldb tcp server listening on %s (db=%s)", sc.Addr, sc.DB.Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	ex := executor.New(sc.DB)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			log.Printf("accept: %v", err)
			continue
		}
		go handleConn(ctx, conn, sc.DB, ex)
	}
}

func handleConn(ctx context.Context, conn net.Conn, db *engine.Database, ex *executor.Executor) {
	defer func() { _ = conn.Close() }()

	// No global deadline; clients may idle between requests.
	_ = conn.SetDeadline(time.Time{})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var req Request
		if err := ReadFrame(conn, &req); err != nil {
			// Client closed or bad frame.
			return
		}

		resp := handleRequest(db, ex, req)
		_ = WriteFrame(conn, resp)
	}
}

func handleRequest(db *engine.Database, ex *executor.Executor, req Request) Response {
	resp := Response{ID: req.ID}

	op := req.Op
	if op == "" {
		op = OpQuery
	}

	switch op {
	case OpQuery:
		res, err := ex.Execute(req.SQL)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Result = res

	case OpTables:
		db.Lock()
		resp.Tables = db.ListTables()
		db.Unlock()

	case OpSchema:
		db.Lock()
		schema, err := db.Describe(req.Table)
		db.Unlock()
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Schema = schema.Cols

	case OpStats:
		db.Lock()
		stats := db.Stats()
		db.Unlock()
		resp.Stats = &stats

	default:
		resp.Error = fmt.Sprintf("reldbwire: unknown op %q", req.Op)
	}
	return resp
}
