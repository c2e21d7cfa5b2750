// Package command 把请求 Frame 转换成强类型的命令，并在 Backend 上执行。
//
// 转换失败和执行失败都是客户端可见的 *Error，只会变成一个错误回复，
// 不会导致连接关闭。
package command

import (
	"time"

	"github.com/chengsir22/hades/backend"
)

// Command 一个已经校验过参数个数和类型的命令
type Command interface {
	// Name 小写的命令名，未知命令返回 "unknown"
	Name() string
	command()
}

// Ping PING [message]
type Ping struct {
	Message    []byte
	HasMessage bool
}

// Echo ECHO message
type Echo struct {
	Message []byte
}

// Get GET key
type Get struct {
	Key []byte
}

// Set SET key value [EX seconds|PX milliseconds|KEEPTTL] [NX|XX] [GET]
type Set struct {
	Key       []byte
	Value     []byte
	TTL       time.Duration
	KeepTTL   bool
	Condition backend.Condition
	ReturnOld bool
}

// Del DEL key [key ...]
type Del struct {
	Keys [][]byte
}

// Exists EXISTS key [key ...]
type Exists struct {
	Keys [][]byte
}

// Expire EXPIRE key seconds / PEXPIRE key milliseconds
type Expire struct {
	Key []byte
	TTL time.Duration
}

// TTL TTL key / PTTL key
type TTL struct {
	Key    []byte
	Millis bool
}

// Persist PERSIST key
type Persist struct {
	Key []byte
}

// IncrBy INCR / DECR / INCRBY / DECRBY
type IncrBy struct {
	Key   []byte
	Delta int64
}

// Append APPEND key value
type Append struct {
	Key   []byte
	Value []byte
}

// StrLen STRLEN key
type StrLen struct {
	Key []byte
}

// MGet MGET key [key ...]
type MGet struct {
	Keys [][]byte
}

// MSet MSET key value [key value ...]
type MSet struct {
	Pairs []backend.KV
}

// Keys KEYS pattern
type Keys struct {
	Pattern string
}

// DBSize DBSIZE
type DBSize struct{}

// FlushDB FLUSHDB
type FlushDB struct{}

// Quit QUIT，回复之后连接关闭
type Quit struct{}

// Unknown 不支持的命令，执行时返回错误
type Unknown struct {
	Cmd  string
	Args [][]byte
}

func (Ping) Name() string    { return "ping" }
func (Echo) Name() string    { return "echo" }
func (Get) Name() string     { return "get" }
func (Set) Name() string     { return "set" }
func (Del) Name() string     { return "del" }
func (Exists) Name() string  { return "exists" }
func (Expire) Name() string  { return "expire" }
func (TTL) Name() string     { return "ttl" }
func (Persist) Name() string { return "persist" }
func (IncrBy) Name() string  { return "incrby" }
func (Append) Name() string  { return "append" }
func (StrLen) Name() string  { return "strlen" }
func (MGet) Name() string    { return "mget" }
func (MSet) Name() string    { return "mset" }
func (Keys) Name() string    { return "keys" }
func (DBSize) Name() string  { return "dbsize" }
func (FlushDB) Name() string { return "flushdb" }
func (Quit) Name() string    { return "quit" }
func (Unknown) Name() string { return "unknown" }

func (Ping) command()    {}
func (Echo) command()    {}
func (Get) command()     {}
func (Set) command()     {}
func (Del) command()     {}
func (Exists) command()  {}
func (Expire) command()  {}
func (TTL) command()     {}
func (Persist) command() {}
func (IncrBy) command()  {}
func (Append) command()  {}
func (StrLen) command()  {}
func (MGet) command()    {}
func (MSet) command()    {}
func (Keys) command()    {}
func (DBSize) command()  {}
func (FlushDB) command() {}
func (Quit) command()    {}
func (Unknown) command() {}
