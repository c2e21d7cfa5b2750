// Package server 监听 TCP 端口，为每个客户端连接运行一个请求循环
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/chengsir22/hades/lib/logger"
	"github.com/chengsir22/hades/lib/metrics"
	"github.com/chengsir22/hades/redis/command"
	"github.com/chengsir22/hades/redis/resp"
	"github.com/chengsir22/hades/settings"
)

// ErrServerClosed Close 之后 Serve 返回的错误
var ErrServerClosed = errors.New("hades: server closed")

var errMaxClients = resp.Error("ERR max number of clients reached")

type Handler struct {
	cfg     *settings.AppConfig
	backend command.Backend
	metrics *metrics.Metrics
	dec     *resp.Decoder

	mu     sync.Mutex
	ln     net.Listener
	conns  map[*conn]struct{}
	closed bool
	wg     conc.WaitGroup
	ready  chan struct{} // 开始监听后关闭
}

// MakeHandler cfg 为 nil 时使用 settings.Conf，m 为 nil 时不记录指标
func MakeHandler(cfg *settings.AppConfig, b command.Backend, m *metrics.Metrics) *Handler {
	if cfg == nil {
		cfg = settings.Conf
	}
	return &Handler{
		cfg:     cfg,
		backend: b,
		metrics: m,
		dec:     decoderFrom(cfg.ProtoConfig),
		conns:   make(map[*conn]struct{}),
		ready:   make(chan struct{}),
	}
}

func decoderFrom(conf *settings.ProtoConfig) *resp.Decoder {
	dec := resp.DefaultDecoder()
	if conf == nil {
		return dec
	}
	if conf.MaxBulkLen > 0 {
		dec.MaxBulkLen = conf.MaxBulkLen
	}
	if conf.MaxArrayLen > 0 {
		dec.MaxArrayLen = conf.MaxArrayLen
	}
	if conf.MaxLineLen > 0 {
		dec.MaxLineLen = conf.MaxLineLen
	}
	if conf.MaxDepth > 0 {
		dec.MaxDepth = conf.MaxDepth
	}
	return dec
}

// Handle 监听配置的地址直到 ctx 结束，正常关闭时返回 nil
func (h *Handler) Handle(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = h.Close() })
	defer stop()

	err := h.ListenAndServe()
	if errors.Is(err, ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe 监听配置的地址
func (h *Handler) ListenAndServe() error {
	ln, err := net.Listen("tcp", h.cfg.Addr())
	if err != nil {
		return err
	}
	return h.Serve(ln)
}

// Serve 在 ln 上接受连接，直到 Close 或者 ln 出错。Serve 返回时 ln 已经关闭
func (h *Handler) Serve(ln net.Listener) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	if h.ln != nil {
		h.mu.Unlock()
		_ = ln.Close()
		return errors.New("hades: server already serving")
	}
	h.ln = ln
	close(h.ready)
	h.mu.Unlock()
	defer ln.Close()

	logger.Infof("hades server running on %s, ready to accept connections.", ln.Addr())

	var backoff time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if h.isClosed() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			// 例如文件描述符耗尽，退避之后重试
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff = min(backoff*2, time.Second)
			}
			logger.Warnf("accept error: %v; retrying in %v", err, backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0
		h.accept(nc)
	}
}

// Addr 监听地址，Serve 之前返回 nil
func (h *Handler) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln == nil {
		return nil
	}
	return h.ln.Addr()
}

// Ready 开始监听之后关闭
func (h *Handler) Ready() <-chan struct{} {
	return h.ready
}

func (h *Handler) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Handler) accept(nc net.Conn) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = nc.Close()
		return
	}
	if h.cfg.MaxClients > 0 && len(h.conns) >= h.cfg.MaxClients {
		h.mu.Unlock()
		h.reject(nc)
		return
	}
	c := newConn(nc, h.dec)
	h.conns[c] = struct{}{}
	h.wg.Go(func() { h.serveConn(c) })
	h.mu.Unlock()

	h.metrics.ConnOpened()
	logger.Debugf("client %s connected", nc.RemoteAddr())
}

func (h *Handler) reject(nc net.Conn) {
	h.metrics.ConnRejected()
	logger.Warnf("client %s rejected: max number of clients reached", nc.RemoteAddr())
	_ = nc.SetWriteDeadline(time.Now().Add(time.Second))
	_, _ = nc.Write(resp.Encode(errMaxClients))
	_ = nc.Close()
}

func (h *Handler) release(c *conn) {
	_ = c.Close()
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	h.metrics.ConnClosed()
}

// Close 关闭监听和所有连接，等待所有连接的 goroutine 退出
func (h *Handler) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	var err error
	if h.ln != nil {
		err = h.ln.Close()
	}
	for c := range h.conns {
		_ = c.Close()
	}
	h.mu.Unlock()

	h.wg.Wait()
	logger.Info("hades server closed")
	return err
}
