// Package client 一个最小的 RESP 客户端，请求和回复一问一答
package client

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/chengsir22/hades/redis/resp"
)

var ErrClosed = errors.New("client: closed")

type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	r      *resp.Reader
	w      *resp.Writer
	closed bool

	Timeout time.Duration // 单次请求的读写超时，0 表示不超时
}

// Dial 连接 addr，timeout 同时作为之后每次请求的超时
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	c := NewClient(conn)
	c.Timeout = timeout
	return c, nil
}

// NewClient 在已经建立的连接上创建客户端
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		r:    resp.NewReader(conn, nil),
		w:    resp.NewWriter(conn),
	}
}

// Do 发送一条命令并等待回复，错误回复作为 resp.Error 返回而不是 error
func (c *Client) Do(args ...string) (resp.Frame, error) {
	elems := make([]resp.Frame, len(args))
	for i, a := range args {
		elems[i] = resp.NewBulkString(a)
	}
	return c.DoFrame(resp.NewArray(elems...))
}

// DoFrame 发送任意 Frame 并等待一个回复
func (c *Client) DoFrame(req resp.Frame) (resp.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.Timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
			return nil, err
		}
	}
	if err := c.w.WriteFrame(req); err != nil {
		return nil, err
	}
	if err := c.w.Flush(); err != nil {
		return nil, err
	}
	return c.r.ReadFrame()
}

// Pipeline 发送所有请求，按顺序读回同样数量的回复。
// 写和读同时进行，请求很多时两端的 socket 缓冲区也不会互相卡住。
func (c *Client) Pipeline(reqs ...resp.Frame) ([]resp.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.Timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
			return nil, err
		}
	}

	werr := make(chan error, 1)
	go func() {
		for _, req := range reqs {
			if err := c.w.WriteFrame(req); err != nil {
				werr <- err
				return
			}
		}
		werr <- c.w.Flush()
	}()

	replies := make([]resp.Frame, 0, len(reqs))
	for range reqs {
		f, err := c.r.ReadFrame()
		if err != nil {
			// 连接已经不可用，关掉它让还在写的 goroutine 退出
			c.closed = true
			_ = c.conn.Close()
			<-werr
			return replies, err
		}
		replies = append(replies, f)
	}
	return replies, <-werr
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
