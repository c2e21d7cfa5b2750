package server

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/chengsir22/hades/lib/logger"
	"github.com/chengsir22/hades/redis/command"
	"github.com/chengsir22/hades/redis/resp"
)

type conn struct {
	nc net.Conn
	r  *resp.Reader
	w  *resp.Writer

	closeOnce sync.Once
	closeErr  error
}

func newConn(nc net.Conn, dec *resp.Decoder) *conn {
	return &conn{
		nc: nc,
		r:  resp.NewReader(nc, dec),
		w:  resp.NewWriter(nc),
	}
}

func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.nc.Close()
	})
	return c.closeErr
}

func (c *conn) writeReply(f resp.Frame) error {
	if err := c.w.WriteFrame(f); err != nil {
		return err
	}
	return c.w.Flush()
}

// serveConn 读取请求，执行，回复，直到连接关闭
func (h *Handler) serveConn(c *conn) {
	defer h.release(c)
	remote := c.nc.RemoteAddr()

	for {
		if h.cfg.IdleTimeout > 0 {
			_ = c.nc.SetReadDeadline(time.Now().Add(h.cfg.IdleTimeout))
		}
		f, err := c.r.ReadFrame()
		if err != nil {
			h.readFailed(remote, err)
			return
		}

		cmd, reply := h.dispatch(f)

		if h.cfg.WriteTimeout > 0 {
			_ = c.nc.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
		}
		if err := c.writeReply(reply); err != nil {
			logger.Debugf("client %s write error: %v", remote, err)
			return
		}
		if _, ok := cmd.(command.Quit); ok {
			logger.Debugf("client %s quit", remote)
			return
		}
	}
}

// dispatch 转换并执行一个请求，转换失败的命令返回 nil
func (h *Handler) dispatch(f resp.Frame) (command.Command, resp.Frame) {
	cmd, err := command.FromFrame(f)
	if err != nil {
		h.metrics.ObserveCommand("invalid", true, 0)
		return nil, resp.Error(err.Error())
	}
	start := time.Now()
	reply := command.Execute(cmd, h.backend)
	_, failed := reply.(resp.Error)
	h.metrics.ObserveCommand(cmd.Name(), failed, time.Since(start))
	return cmd, reply
}

func (h *Handler) readFailed(remote net.Addr, err error) {
	var (
		protoErr *resp.ProtocolError
		netErr   net.Error
	)
	switch {
	case errors.Is(err, io.EOF):
		logger.Debugf("client %s disconnected", remote)
	case errors.As(err, &protoErr):
		h.metrics.ProtocolError()
		logger.Warnf("client %s protocol error: %v", remote, err)
	case errors.Is(err, net.ErrClosed):
		logger.Debugf("client %s closed by server", remote)
	case errors.As(err, &netErr) && netErr.Timeout():
		logger.Infof("client %s idle timeout", remote)
	default:
		logger.Debugf("client %s read error: %v", remote, err)
	}
}
