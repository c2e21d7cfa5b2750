package resp

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_ReadFrame(t *testing.T) {
	var stream []byte
	for _, f := range sampleFrames() {
		stream = AppendFrame(stream, f)
	}

	r := NewReader(iotest.OneByteReader(bytes.NewReader(stream)), nil)
	for _, want := range sampleFrames() {
		got, err := r.ReadFrame()
		require.NoError(t, err)
		assert.True(t, Equal(want, got), "want %#v got %#v", want, got)
	}
	_, err := r.ReadFrame()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, r.Buffered())
}

func TestReader_LargeBulkGrowsBuffer(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 3*defaultReadSize+7)
	stream := Encode(NewArray(NewBulkString("SET"), NewBulkString("k"), NewBulk(payload)))

	r := NewReader(bytes.NewReader(stream), nil)
	f, err := r.ReadFrame()
	require.NoError(t, err)
	arr := f.(Array)
	require.Len(t, arr.Elems, 3)
	assert.Equal(t, payload, arr.Elems[2].(BulkString).Data)
}

// chunkReader 每次最多返回 size 个字节，模拟一个 Frame 分成很多次到达
type chunkReader struct {
	data []byte
	size int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p[:min(len(p), c.size)], c.data)
	c.data = c.data[n:]
	return n, nil
}

func TestReader_LargeArrayInChunks(t *testing.T) {
	const n = 200000
	var sb strings.Builder
	sb.WriteString("*200000\r\n")
	for i := 0; i < n; i++ {
		sb.WriteString("$1\r\na\r\n")
	}

	start := time.Now()
	r := NewReader(&chunkReader{data: []byte(sb.String()), size: 1460}, nil)
	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Len(t, f.(Array).Elems, n)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestReader_ChunkedMatchesDecode(t *testing.T) {
	var stream []byte
	for _, f := range sampleFrames() {
		stream = AppendFrame(stream, f)
	}
	for _, size := range []int{1, 2, 3, 7, 64} {
		r := NewReader(&chunkReader{data: stream, size: size}, nil)
		for _, want := range sampleFrames() {
			got, err := r.ReadFrame()
			require.NoError(t, err)
			assert.True(t, Equal(want, got), "size %d: want %#v got %#v", size, want, got)
		}
		_, err := r.ReadFrame()
		assert.Equal(t, io.EOF, err)
	}
}

func TestReader_ChunkedMalformed(t *testing.T) {
	dec := &Decoder{MaxBulkLen: 16, MaxArrayLen: 4, MaxLineLen: 32, MaxDepth: 2}
	tests := []struct {
		input string
		limit bool
	}{
		{"*2\r\n$1\r\na\r\n!\r\n", false},
		{"*1\r\n$3\r\nabcde", false},
		{"*1\r\n:007\r\n", false},
		{"*1\r\n$17\r\n", true},
		{"*5\r\n", true},
		{"*1\r\n*1\r\n*1\r\n:1\r\n", true},
		{"*1\r\n+" + strings.Repeat("a", 40), true},
	}
	for _, tt := range tests {
		r := NewReader(iotest.OneByteReader(strings.NewReader(tt.input)), dec)
		_, err := r.ReadFrame()
		assert.ErrorIs(t, err, ErrProtocol, tt.input)
		assert.Equal(t, tt.limit, errors.Is(err, ErrLimitExceeded), tt.input)

		_, _, decErr := dec.Decode([]byte(tt.input))
		assert.Equal(t, errors.Is(decErr, ErrLimitExceeded), errors.Is(err, ErrLimitExceeded), tt.input)
	}
}

func TestDecoder_ScanResumes(t *testing.T) {
	dec := DefaultDecoder()
	frame := Encode(NewArray(NewBulkString("MSET"), NewArray(Integer(1), NullBulk()), NewBulkString("v")))

	var st scanState
	for i := 1; i < len(frame); i++ {
		_, err := dec.scan(frame[:i], &st)
		require.ErrorIs(t, err, ErrIncomplete)
		assert.LessOrEqual(t, st.pos, i)
	}
	end, err := dec.scan(frame, &st)
	require.NoError(t, err)
	assert.Equal(t, len(frame), end)
	assert.Empty(t, st.pending)
}

func TestReader_UnexpectedEOF(t *testing.T) {
	r := NewReader(strings.NewReader("*2\r\n$3\r\nGET\r\n"), nil)
	_, err := r.ReadFrame()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReader_ProtocolError(t *testing.T) {
	r := NewReader(strings.NewReader("+OK\r\n$999999999999\r\n"), nil)
	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, SimpleString("OK"), f)

	_, err = r.ReadFrame()
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestReader_TransportError(t *testing.T) {
	boom := errors.New("boom")
	r := NewReader(iotest.ErrReader(boom), nil)
	_, err := r.ReadFrame()
	assert.ErrorIs(t, err, boom)
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, nil }

func TestReader_NoProgress(t *testing.T) {
	r := NewReader(emptyReader{}, nil)
	_, err := r.ReadFrame()
	assert.ErrorIs(t, err, io.ErrNoProgress)
}

func TestWriter_WriteFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteFrame(OK()))
	require.NoError(t, w.WriteFrame(Integer(3)))
	assert.Equal(t, 0, buf.Len())
	require.NoError(t, w.Flush())
	assert.Equal(t, "+OK\r\n:3\r\n", buf.String())
}
