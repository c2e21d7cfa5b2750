package resp

import (
	"bufio"
	"errors"
	"io"
)

const (
	defaultReadSize = 16 * 1024
	maxEmptyReads   = 100
	maxScratch      = 1024 * 1024
)

// Reader 从字节流中按 Frame 读取，负责半包的缓冲
type Reader struct {
	rd  io.Reader
	dec *Decoder
	buf []byte
	r   int // buf[r:w] 为还没有消费的数据
	w   int

	scan scanState // buf[r:] 开头未完成 Frame 的检查进度
}

// NewReader dec 为 nil 时使用默认限制
func NewReader(rd io.Reader, dec *Decoder) *Reader {
	if dec == nil {
		dec = DefaultDecoder()
	}
	return &Reader{
		rd:  rd,
		dec: dec,
		buf: make([]byte, defaultReadSize),
	}
}

// Buffered 已经读入但还没有被消费的字节数
func (r *Reader) Buffered() int {
	return r.w - r.r
}

// ReadFrame 读取下一个完整的 Frame。在两个 Frame 之间遇到流结束返回 io.EOF，
// 在 Frame 中间结束返回 io.ErrUnexpectedEOF，格式错误返回 *ProtocolError。
func (r *Reader) ReadFrame() (Frame, error) {
	for {
		if r.w > r.r {
			// 先增量检查到 Frame 结尾，收齐之后只构造一次
			end, err := r.dec.scan(r.buf[r.r:r.w], &r.scan)
			if err == nil {
				r.scan.reset()
				f, n, err := r.dec.Decode(r.buf[r.r : r.r+end])
				if err != nil {
					return nil, err
				}
				r.r += n
				if r.r == r.w {
					r.r, r.w = 0, 0
				}
				return f, nil
			}
			if !errors.Is(err, ErrIncomplete) {
				r.scan.reset()
				return nil, err
			}
		}
		if err := r.fill(); err != nil {
			if errors.Is(err, io.EOF) && r.w > r.r {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}

// fill 至少读入一个字节
func (r *Reader) fill() error {
	if r.r > 0 {
		copy(r.buf, r.buf[r.r:r.w])
		r.w -= r.r
		r.r = 0
	}
	if r.w == len(r.buf) {
		grown := make([]byte, len(r.buf)*2)
		copy(grown, r.buf[:r.w])
		r.buf = grown
	}
	for i := 0; i < maxEmptyReads; i++ {
		n, err := r.rd.Read(r.buf[r.w:])
		if n < 0 {
			return errors.New("resp: reader returned negative count")
		}
		r.w += n
		if n > 0 {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return io.ErrNoProgress
}

// Writer 缓冲写出 Frame
type Writer struct {
	bw      *bufio.Writer
	scratch []byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// WriteFrame 编码 f 写入缓冲区，需要 Flush 才会真正写出
func (w *Writer) WriteFrame(f Frame) error {
	w.scratch = AppendFrame(w.scratch[:0], f)
	_, err := w.bw.Write(w.scratch)
	if cap(w.scratch) > maxScratch {
		w.scratch = nil
	}
	return err
}

func (w *Writer) Flush() error {
	return w.bw.Flush()
}
