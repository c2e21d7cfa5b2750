package command

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/chengsir22/hades/backend"
	"github.com/chengsir22/hades/redis/resp"
)

type parseFunc func(name string, args [][]byte) (Command, error)

var supportedCommands map[string]parseFunc

func init() {
	supportedCommands = map[string]parseFunc{
		"ping":    parsePing,
		"echo":    parseEcho,
		"get":     parseGet,
		"set":     parseSet,
		"del":     parseDel,
		"exists":  parseExists,
		"expire":  parseExpire,
		"pexpire": parseExpire,
		"ttl":     parseTTL,
		"pttl":    parseTTL,
		"persist": parsePersist,
		"incr":    parseIncrBy,
		"decr":    parseIncrBy,
		"incrby":  parseIncrBy,
		"decrby":  parseIncrBy,
		"append":  parseAppend,
		"strlen":  parseStrLen,
		"mget":    parseMGet,
		"mset":    parseMSet,
		"keys":    parseKeys,
		"dbsize":  parseDBSize,
		"flushdb": parseFlushDB,
		"quit":    parseQuit,
	}
}

// FromFrame 把请求 Frame 转换成 Command。只有元素全部是非空 bulk string 的
// 非空数组才是合法的命令，命令名大小写不敏感。
func FromFrame(f resp.Frame) (Command, error) {
	arr, ok := f.(resp.Array)
	if !ok || arr.Null {
		return nil, ErrWrongFrameKind
	}
	if len(arr.Elems) == 0 {
		return nil, ErrEmptyCommand
	}
	args := make([][]byte, len(arr.Elems))
	for i, e := range arr.Elems {
		bulk, ok := e.(resp.BulkString)
		if !ok || bulk.Null {
			return nil, ErrWrongFrameKind
		}
		args[i] = bulk.Data
	}

	name := strings.ToLower(string(args[0]))
	parse, ok := supportedCommands[name]
	if !ok {
		return Unknown{Cmd: string(args[0]), Args: args[1:]}, nil
	}
	return parse(name, args[1:])
}

func parsePing(name string, args [][]byte) (Command, error) {
	switch len(args) {
	case 0:
		return Ping{}, nil
	case 1:
		return Ping{Message: args[0], HasMessage: true}, nil
	default:
		return nil, errWrongArgs(name)
	}
}

func parseEcho(name string, args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, errWrongArgs(name)
	}
	return Echo{Message: args[0]}, nil
}

func parseGet(name string, args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, errWrongArgs(name)
	}
	return Get{Key: args[0]}, nil
}

func parseSet(name string, args [][]byte) (Command, error) {
	if len(args) < 2 {
		return nil, errWrongArgs(name)
	}
	cmd := Set{Key: args[0], Value: args[1]}
	hasTTL := false
	for i := 2; i < len(args); i++ {
		switch opt := strings.ToUpper(string(args[i])); opt {
		case "NX", "XX":
			cond := backend.IfNotExists
			if opt == "XX" {
				cond = backend.IfExists
			}
			if cmd.Condition != backend.Always && cmd.Condition != cond {
				return nil, ErrSyntax
			}
			cmd.Condition = cond
		case "EX", "PX":
			if hasTTL || cmd.KeepTTL || i+1 >= len(args) {
				return nil, ErrSyntax
			}
			i++
			ttl, err := parseTTLArg(args[i], opt == "PX", name)
			if err != nil {
				return nil, err
			}
			if ttl <= 0 {
				return nil, errInvalidExpire(name)
			}
			cmd.TTL, hasTTL = ttl, true
		case "KEEPTTL":
			if hasTTL {
				return nil, ErrSyntax
			}
			cmd.KeepTTL = true
		case "GET":
			cmd.ReturnOld = true
		default:
			return nil, ErrSyntax
		}
	}
	return cmd, nil
}

func parseDel(name string, args [][]byte) (Command, error) {
	if len(args) < 1 {
		return nil, errWrongArgs(name)
	}
	return Del{Keys: args}, nil
}

func parseExists(name string, args [][]byte) (Command, error) {
	if len(args) < 1 {
		return nil, errWrongArgs(name)
	}
	return Exists{Keys: args}, nil
}

func parseExpire(name string, args [][]byte) (Command, error) {
	if len(args) != 2 {
		return nil, errWrongArgs(name)
	}
	ttl, err := parseTTLArg(args[1], name == "pexpire", name)
	if err != nil {
		return nil, err
	}
	return Expire{Key: args[0], TTL: ttl}, nil
}

func parseTTL(name string, args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, errWrongArgs(name)
	}
	return TTL{Key: args[0], Millis: name == "pttl"}, nil
}

func parsePersist(name string, args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, errWrongArgs(name)
	}
	return Persist{Key: args[0]}, nil
}

func parseIncrBy(name string, args [][]byte) (Command, error) {
	switch name {
	case "incr", "decr":
		if len(args) != 1 {
			return nil, errWrongArgs(name)
		}
		delta := int64(1)
		if name == "decr" {
			delta = -1
		}
		return IncrBy{Key: args[0], Delta: delta}, nil
	default:
		if len(args) != 2 {
			return nil, errWrongArgs(name)
		}
		delta, err := parseInt(args[1])
		if err != nil {
			return nil, err
		}
		if name == "decrby" {
			if delta == math.MinInt64 {
				return nil, errorf("ERR decrement would overflow")
			}
			delta = -delta
		}
		return IncrBy{Key: args[0], Delta: delta}, nil
	}
}

func parseAppend(name string, args [][]byte) (Command, error) {
	if len(args) != 2 {
		return nil, errWrongArgs(name)
	}
	return Append{Key: args[0], Value: args[1]}, nil
}

func parseStrLen(name string, args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, errWrongArgs(name)
	}
	return StrLen{Key: args[0]}, nil
}

func parseMGet(name string, args [][]byte) (Command, error) {
	if len(args) < 1 {
		return nil, errWrongArgs(name)
	}
	return MGet{Keys: args}, nil
}

func parseMSet(name string, args [][]byte) (Command, error) {
	if len(args) < 2 || len(args)%2 != 0 {
		return nil, errWrongArgs(name)
	}
	pairs := make([]backend.KV, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, backend.KV{Key: args[i], Value: args[i+1]})
	}
	return MSet{Pairs: pairs}, nil
}

func parseKeys(name string, args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, errWrongArgs(name)
	}
	return Keys{Pattern: string(args[0])}, nil
}

func parseDBSize(name string, args [][]byte) (Command, error) {
	if len(args) != 0 {
		return nil, errWrongArgs(name)
	}
	return DBSize{}, nil
}

func parseFlushDB(name string, args [][]byte) (Command, error) {
	switch len(args) {
	case 0:
		return FlushDB{}, nil
	case 1:
		// 存储本身是同步清空的，ASYNC/SYNC 只做语法兼容
		mode := bytes.ToUpper(args[0])
		if string(mode) != "ASYNC" && string(mode) != "SYNC" {
			return nil, ErrSyntax
		}
		return FlushDB{}, nil
	default:
		return nil, ErrSyntax
	}
}

func parseQuit(string, [][]byte) (Command, error) {
	return Quit{}, nil
}

// parseInt 严格的十进制 int64
func parseInt(b []byte) (int64, error) {
	if len(b) == 0 || b[0] == '+' {
		return 0, ErrNotInteger
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}

// parseTTLArg 把秒或毫秒参数转换为 time.Duration，溢出视为非法的过期时间
func parseTTLArg(b []byte, millis bool, name string) (time.Duration, error) {
	n, err := parseInt(b)
	if err != nil {
		return 0, err
	}
	unit := time.Second
	if millis {
		unit = time.Millisecond
	}
	if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
		return 0, errInvalidExpire(name)
	}
	return time.Duration(n) * unit, nil
}
