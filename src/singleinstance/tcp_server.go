package singleinstance

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"strings"
	"time"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"

	getRequest          = "GET"
	getClipboardRequest = "GET CLIPBOARD"
	successStatus       = "SUCCESS\n"
	errorStatus         = "ERROR\n"
)

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	ports    PortRange
	lis      net.Listener
	incoming chan *tcpConn
	port     int
}

func newTcpServer(r PortRange) Server {
	return &tcpServer{ports: r.normalize(), incoming: make(chan *tcpConn, 8)}
}

// Start binds ONLY the start port of the configured range. If occupied, fail.
func (s *tcpServer) Start(ctx context.Context) error {
	if s.lis != nil {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", residentHost, s.ports.Start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("singleinstance: failed to bind %s: %v", addr, err)
		return err
	}
	s.lis = lis
	s.port = s.ports.Start
	log.Printf("singleinstance: listening on %s", addr)
	go s.acceptLoop(ctx)
	return nil
}

// Port returns the bound port (0 if not started).
func (s *tcpServer) Port() int { return s.port }

func (s *tcpServer) acceptLoop(ctx context.Context) {
	for {
		c, err := s.lis.Accept()
		if err != nil {
			return
		}
		remote := c.RemoteAddr().String()
		_ = c.SetDeadline(time.Now().Add(3 * time.Second))
		br := bufio.NewReader(c)
		line, _ := br.ReadString('\n')
		bw := bufio.NewWriter(c)
		if line == pingRequest {
			log.Printf("singleinstance: PING from %s -> PONG", remote)
			_, _ = bw.WriteString(pongResponse)
			_ = bw.Flush()
			_ = c.Close()
			continue
		}
		req, ok := parseRequest(line)
		if !ok {
			log.Printf("singleinstance: bad request %q from %s", strings.TrimSpace(line), remote)
			_ = c.Close()
			continue
		}
		_ = c.SetDeadline(time.Time{})
		log.Printf("singleinstance: request from %s clipboard=%v", remote, req.ToClipboard)
		select {
		case s.incoming <- &tcpConn{c: c, r: req, w: bw}:
		case <-ctx.Done():
			_ = c.Close()
			return
		}
	}
}

func parseRequest(line string) (Request, bool) {
	switch strings.TrimSpace(line) {
	case getRequest:
		return Request{}, true
	case getClipboardRequest:
		return Request{ToClipboard: true}, true
	default:
		return Request{}, false
	}
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	if s.lis != nil {
		_ = s.lis.Close()
		s.lis = nil
	}
	return nil
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondSuccess(r Response) error {
	return tc.respond(successStatus, r)
}

func (tc *tcpConn) RespondError(kind, msg string) error {
	return tc.respond(errorStatus, Response{ErrorKind: kind, Error: msg})
}

func (tc *tcpConn) respond(status string, r Response) error {
	if _, err := tc.w.WriteString(status); err != nil {
		return err
	}
	if err := json.NewEncoder(tc.w).Encode(r); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
