package singleinstance

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"
)

type tcpClient struct {
	ports PortRange
}

func newTcpClient(r PortRange) Client { return &tcpClient{ports: r.normalize()} }

func (c *tcpClient) TryGet(ctx context.Context, req Request) (bool, Response, error) {
	deadline := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			deadline = d
		}
	}
	// scan configured range for resident using PING then request
	for port := c.ports.Start; port <= c.ports.End; port++ {
		addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
		if !ping(addr, 300*time.Millisecond) {
			continue
		}
		resp, err := c.get(addr, req, deadline)
		return true, resp, err
	}
	return false, Response{}, nil
}

func (c *tcpClient) get(addr string, req Request, deadline time.Duration) (Response, error) {
	conn, err := net.DialTimeout("tcp", addr, deadline)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(deadline))

	line := getRequest
	if req.ToClipboard {
		line = getClipboardRequest
	}
	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(line + "\n"); err != nil {
		return Response{}, err
	}
	if err := w.Flush(); err != nil {
		return Response{}, err
	}

	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.NewDecoder(br).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("decode resident response: %w", err)
	}
	switch status {
	case successStatus:
		return resp, nil
	case errorStatus:
		return Response{}, &RemoteError{Kind: resp.ErrorKind, Message: resp.Error}
	default:
		return Response{}, fmt.Errorf("unexpected resident status %q", status)
	}
}
