package resp

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/redcon"
)

func sampleFrames() []Frame {
	return []Frame{
		SimpleString("OK"),
		SimpleString(""),
		Error("ERR unknown command 'foobar'"),
		Integer(0),
		Integer(-42),
		Integer(9223372036854775807),
		Integer(-9223372036854775808),
		NewBulkString("hello"),
		NewBulkString(""),
		NewBulk([]byte("bin\r\nary\x00data")),
		NullBulk(),
		NewArray(),
		NullArray(),
		Null{},
		NewArray(NewBulkString("SET"), NewBulkString("k"), NewBulkString("v")),
		NewArray(
			Integer(1),
			NewArray(SimpleString("nested"), NullBulk(), NewArray()),
			NullArray(),
			Error("ERR x"),
		),
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  string
	}{
		{"simple", SimpleString("OK"), "+OK\r\n"},
		{"error", Error("ERR bad"), "-ERR bad\r\n"},
		{"integer", Integer(-7), ":-7\r\n"},
		{"bulk", NewBulkString("hello"), "$5\r\nhello\r\n"},
		{"empty bulk", NewBulkString(""), "$0\r\n\r\n"},
		{"null bulk", NullBulk(), "$-1\r\n"},
		{"empty array", NewArray(), "*0\r\n"},
		{"null array", NullArray(), "*-1\r\n"},
		{"null", Null{}, "_\r\n"},
		{"nil frame", nil, "$-1\r\n"},
		{"array", NewArray(NewBulkString("GET"), NewBulkString("k")), "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"},
		{"nested", NewArray(Integer(1), NewArray(SimpleString("a"))), "*2\r\n:1\r\n*1\r\n+a\r\n"},
		{"newline stripped", SimpleString("a\r\nb"), "+a  b\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Encode(tt.frame)))
		})
	}
}

func TestAppendFrame_KeepsPrefix(t *testing.T) {
	out := AppendFrame([]byte("prefix"), Integer(1))
	assert.Equal(t, "prefix:1\r\n", string(out))
}

func TestRoundTrip(t *testing.T) {
	for _, f := range sampleFrames() {
		enc := Encode(f)
		got, n, err := Decode(enc)
		require.NoError(t, err, "%q", enc)
		assert.Equal(t, len(enc), n, "%q", enc)
		assert.True(t, Equal(f, got), "%q decoded to %#v", enc, got)
		assert.Equal(t, enc, Encode(got), "re-encode must be byte identical")
	}
}

// redcon 作为独立实现校验编码结果的边界
func TestEncode_RedconAgrees(t *testing.T) {
	for _, f := range sampleFrames() {
		if _, ok := f.(Null); ok {
			continue
		}
		enc := Encode(f)
		n, r := redcon.ReadNextRESP(enc)
		assert.Equal(t, len(enc), n, "%q", enc)
		assert.Equal(t, redcon.Type(enc[0]), r.Type)
	}
}

func TestDecode_ByteAtATime(t *testing.T) {
	for _, f := range sampleFrames() {
		enc := Encode(f)
		for i := 0; i < len(enc); i++ {
			got, n, err := Decode(enc[:i])
			require.ErrorIs(t, err, ErrIncomplete, "%q at %d", enc, i)
			assert.Nil(t, got)
			assert.Equal(t, 0, n)
		}
		got, n, err := Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, len(enc), n)
		assert.True(t, Equal(f, got))
	}
}

func TestDecode_StopsAtFrameBoundary(t *testing.T) {
	buf := []byte("+OK\r\n:12\r\n$3\r\nabc\r\n")
	f, n, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, SimpleString("OK"), f)
	assert.Equal(t, 5, n)

	buf = buf[n:]
	f, n, err = Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, Integer(12), f)
	assert.Equal(t, 5, n)

	buf = buf[n:]
	f, n, err = Decode(buf)
	require.NoError(t, err)
	assert.True(t, Equal(NewBulkString("abc"), f))
	assert.Equal(t, len(buf), n)
}

func TestDecode_DoesNotAliasInput(t *testing.T) {
	buf := []byte("$5\r\nhello\r\n")
	f, _, err := Decode(buf)
	require.NoError(t, err)
	copy(buf, "XXXXXXXXXXX")
	assert.Equal(t, []byte("hello"), f.(BulkString).Data)
}

func TestDecode_CanonicalIntegers(t *testing.T) {
	for _, in := range []string{":0\r\n", ":-1\r\n", ":10\r\n", "$0\r\n\r\n", "$-1\r\n", "*0\r\n", "*-1\r\n"} {
		f, n, err := Decode([]byte(in))
		require.NoError(t, err, in)
		assert.Equal(t, len(in), n)
		assert.Equal(t, in, string(Encode(f)), "re-encoding must give the same bytes")
	}

	for _, in := range []string{":+5\r\n", ":007\r\n", ":-0\r\n", ":-\r\n", "$03\r\nabc\r\n", "$-01\r\n", "*01\r\n:1\r\n", "*+1\r\n:1\r\n"} {
		_, n, err := Decode([]byte(in))
		assert.ErrorIs(t, err, ErrProtocol, in)
		assert.Equal(t, 0, n)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit bool
	}{
		{"unknown type", "?what\r\n", false},
		{"inline command", "PING\r\n", false},
		{"bare LF", "+OK\n", false},
		{"CR inside line", "+O\rK\r\n", false},
		{"non numeric integer", ":abc\r\n", false},
		{"empty integer", ":\r\n", false},
		{"integer overflow", ":99999999999999999999\r\n", false},
		{"non numeric bulk len", "$x\r\nabc\r\n", false},
		{"empty bulk len", "$\r\n", false},
		{"plus bulk len", "$+3\r\nabc\r\n", false},
		{"negative bulk len", "$-2\r\n", false},
		{"bad bulk terminator", "$3\r\nabcde", false},
		{"bulk too large", "$536870913\r\n", true},
		{"non numeric array len", "*x\r\n", false},
		{"negative array len", "*-5\r\n", false},
		{"array too large", "*1048577\r\n", true},
		{"bad element", "*2\r\n$1\r\na\r\n!\r\n", false},
		{"null with payload", "_x\r\n", false},
		{"line too long", "+" + strings.Repeat("a", DefaultMaxLineLen+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, n, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrIncomplete))
			assert.ErrorIs(t, err, ErrProtocol)
			var pe *ProtocolError
			assert.True(t, errors.As(err, &pe))
			if tt.limit {
				assert.ErrorIs(t, err, ErrLimitExceeded)
			}
			assert.Nil(t, f)
			assert.Equal(t, 0, n)
		})
	}
}

func TestDecoder_CustomLimits(t *testing.T) {
	d := &Decoder{MaxBulkLen: 4, MaxArrayLen: 2, MaxLineLen: 16, MaxDepth: 2}

	_, _, err := d.Decode([]byte("$4\r\nabcd\r\n"))
	assert.NoError(t, err)
	_, _, err = d.Decode([]byte("$5\r\n"))
	assert.ErrorIs(t, err, ErrLimitExceeded)

	_, _, err = d.Decode([]byte("*3\r\n"))
	assert.ErrorIs(t, err, ErrLimitExceeded)

	_, _, err = d.Decode([]byte("*1\r\n*1\r\n:1\r\n"))
	assert.NoError(t, err)
	_, _, err = d.Decode([]byte("*1\r\n*1\r\n*1\r\n:1\r\n"))
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestDecode_DeepNestingRejected(t *testing.T) {
	input := strings.Repeat("*1\r\n", 10000) + ":1\r\n"
	_, _, err := Decode([]byte(input))
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestDecode_Empty(t *testing.T) {
	_, n, err := Decode(nil)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, 0, n)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(BulkString{Data: nil}, BulkString{Data: []byte{}}))
	assert.True(t, Equal(NullBulk(), BulkString{Null: true, Data: []byte("ignored")}))
	assert.False(t, Equal(NullBulk(), NewBulkString("")))
	assert.False(t, Equal(SimpleString("x"), Error("x")))
	assert.False(t, Equal(NewArray(), NullArray()))
	assert.False(t, Equal(NewArray(Integer(1)), NewArray(Integer(2))))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, Null{}))
}

func TestProtocolError_Message(t *testing.T) {
	_, _, err := Decode([]byte("$-2\r\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resp: protocol error at offset 0")
	assert.Contains(t, err.Error(), "invalid bulk length")
}
