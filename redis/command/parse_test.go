package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chengsir22/hades/backend"
	"github.com/chengsir22/hades/redis/resp"
)

func req(args ...string) resp.Frame {
	elems := make([]resp.Frame, len(args))
	for i, a := range args {
		elems[i] = resp.NewBulkString(a)
	}
	return resp.NewArray(elems...)
}

func TestFromFrame_WrongKind(t *testing.T) {
	frames := []resp.Frame{
		resp.SimpleString("GET"),
		resp.Integer(1),
		resp.NewBulkString("GET"),
		resp.NullArray(),
		resp.Null{},
		resp.NewArray(resp.NewBulkString("GET"), resp.Integer(1)),
		resp.NewArray(resp.NewBulkString("GET"), resp.NullBulk()),
		resp.NewArray(resp.NewArray(resp.NewBulkString("GET"))),
	}
	for _, f := range frames {
		_, err := FromFrame(f)
		assert.Equal(t, ErrWrongFrameKind, err, "%#v", f)
	}

	_, err := FromFrame(resp.NewArray())
	assert.Equal(t, ErrEmptyCommand, err)
}

func TestFromFrame_Basic(t *testing.T) {
	tests := []struct {
		in   resp.Frame
		want Command
	}{
		{req("PING"), Ping{}},
		{req("ping", "hi"), Ping{Message: []byte("hi"), HasMessage: true}},
		{req("EcHo", "x"), Echo{Message: []byte("x")}},
		{req("GET", "k"), Get{Key: []byte("k")}},
		{req("SET", "k", "v"), Set{Key: []byte("k"), Value: []byte("v")}},
		{req("DEL", "a", "b"), Del{Keys: [][]byte{[]byte("a"), []byte("b")}}},
		{req("EXISTS", "a"), Exists{Keys: [][]byte{[]byte("a")}}},
		{req("EXPIRE", "k", "10"), Expire{Key: []byte("k"), TTL: 10 * time.Second}},
		{req("PEXPIRE", "k", "-5"), Expire{Key: []byte("k"), TTL: -5 * time.Millisecond}},
		{req("TTL", "k"), TTL{Key: []byte("k")}},
		{req("PTTL", "k"), TTL{Key: []byte("k"), Millis: true}},
		{req("PERSIST", "k"), Persist{Key: []byte("k")}},
		{req("INCR", "k"), IncrBy{Key: []byte("k"), Delta: 1}},
		{req("DECR", "k"), IncrBy{Key: []byte("k"), Delta: -1}},
		{req("INCRBY", "k", "-7"), IncrBy{Key: []byte("k"), Delta: -7}},
		{req("DECRBY", "k", "7"), IncrBy{Key: []byte("k"), Delta: -7}},
		{req("APPEND", "k", "v"), Append{Key: []byte("k"), Value: []byte("v")}},
		{req("STRLEN", "k"), StrLen{Key: []byte("k")}},
		{req("MGET", "a", "b"), MGet{Keys: [][]byte{[]byte("a"), []byte("b")}}},
		{req("MSET", "a", "1", "b", "2"), MSet{Pairs: []backend.KV{
			{Key: []byte("a"), Value: []byte("1")},
			{Key: []byte("b"), Value: []byte("2")},
		}}},
		{req("KEYS", "h*"), Keys{Pattern: "h*"}},
		{req("DBSIZE"), DBSize{}},
		{req("FLUSHDB"), FlushDB{}},
		{req("flushdb", "async"), FlushDB{}},
		{req("QUIT"), Quit{}},
	}
	for _, tt := range tests {
		got, err := FromFrame(tt.in)
		require.NoError(t, err, "%#v", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFromFrame_Unknown(t *testing.T) {
	got, err := FromFrame(req("FooBar", "a", "b"))
	require.NoError(t, err)
	u, ok := got.(Unknown)
	require.True(t, ok)
	assert.Equal(t, "FooBar", u.Cmd)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, u.Args)
	assert.Equal(t, "unknown", u.Name())
}

func TestFromFrame_WrongArgs(t *testing.T) {
	tests := []struct {
		in   resp.Frame
		name string
	}{
		{req("GET"), "get"},
		{req("GET", "a", "b"), "get"},
		{req("SET", "k"), "set"},
		{req("PING", "a", "b"), "ping"},
		{req("ECHO"), "echo"},
		{req("DEL"), "del"},
		{req("EXPIRE", "k"), "expire"},
		{req("INCR"), "incr"},
		{req("INCRBY", "k"), "incrby"},
		{req("MSET", "a"), "mset"},
		{req("MSET", "a", "1", "b"), "mset"},
		{req("MGET"), "mget"},
		{req("DBSIZE", "x"), "dbsize"},
	}
	for _, tt := range tests {
		_, err := FromFrame(tt.in)
		require.Error(t, err)
		assert.Equal(t, "ERR wrong number of arguments for '"+tt.name+"' command", err.Error())
	}
}

func TestFromFrame_SetOptions(t *testing.T) {
	got, err := FromFrame(req("set", "k", "v", "ex", "10", "nx", "get"))
	require.NoError(t, err)
	assert.Equal(t, Set{
		Key:       []byte("k"),
		Value:     []byte("v"),
		TTL:       10 * time.Second,
		Condition: backend.IfNotExists,
		ReturnOld: true,
	}, got)

	got, err = FromFrame(req("SET", "k", "v", "PX", "1500", "XX"))
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, got.(Set).TTL)
	assert.Equal(t, backend.IfExists, got.(Set).Condition)

	got, err = FromFrame(req("SET", "k", "v", "KEEPTTL"))
	require.NoError(t, err)
	assert.True(t, got.(Set).KeepTTL)

	syntax := [][]string{
		{"SET", "k", "v", "NX", "XX"},
		{"SET", "k", "v", "EX", "1", "PX", "1"},
		{"SET", "k", "v", "EX", "1", "KEEPTTL"},
		{"SET", "k", "v", "KEEPTTL", "EX", "1"},
		{"SET", "k", "v", "EX"},
		{"SET", "k", "v", "BOGUS"},
	}
	for _, args := range syntax {
		_, err := FromFrame(req(args...))
		assert.Equal(t, ErrSyntax, err, "%v", args)
	}

	_, err = FromFrame(req("SET", "k", "v", "EX", "abc"))
	assert.Equal(t, ErrNotInteger, err)
	_, err = FromFrame(req("SET", "k", "v", "EX", "0"))
	assert.EqualError(t, err, "ERR invalid expire time in 'set' command")
	_, err = FromFrame(req("SET", "k", "v", "PX", "-1"))
	assert.EqualError(t, err, "ERR invalid expire time in 'set' command")
	_, err = FromFrame(req("SET", "k", "v", "EX", "9223372036854775807"))
	assert.EqualError(t, err, "ERR invalid expire time in 'set' command")
}

func TestFromFrame_Integers(t *testing.T) {
	for _, bad := range []string{"", "+1", "1.5", "abc", "99999999999999999999"} {
		_, err := FromFrame(req("INCRBY", "k", bad))
		assert.Equal(t, ErrNotInteger, err, bad)
	}
	_, err := FromFrame(req("DECRBY", "k", "-9223372036854775808"))
	assert.EqualError(t, err, "ERR decrement would overflow")

	got, err := FromFrame(req("INCRBY", "k", "-9223372036854775808"))
	require.NoError(t, err)
	assert.Equal(t, int64(-9223372036854775808), got.(IncrBy).Delta)
}

func TestFromFrame_NameIsLowercase(t *testing.T) {
	f := req("GET", "k")
	got, err := FromFrame(f)
	require.NoError(t, err)
	assert.Equal(t, "get", got.Name())
}
