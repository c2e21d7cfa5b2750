package resp

// scanState 一个还没有收完的 Frame 已经检查到的位置。
// 每次收到新数据只需要从 pos 继续，已经检查过的元素不会再走一遍。
type scanState struct {
	pos     int   // 下一个待检查元素的起点，相对 Frame 开头
	pending []int // 每一层数组还差的元素个数
}

func (st *scanState) reset() {
	st.pos = 0
	st.pending = st.pending[:0]
}

// scan 从 st 记录的位置继续检查 buf，返回完整 Frame 的长度。
// 只做校验不构造 Frame，错误和 Decode 一致；数据不够时返回 ErrIncomplete，
// st 停在未完成的元素开头。
func (d *Decoder) scan(buf []byte, st *scanState) (int, error) {
	for {
		n, next, err := d.scanOne(buf, st.pos, len(st.pending))
		if err != nil {
			return 0, err
		}
		st.pos = next
		if n > 0 {
			st.pending = append(st.pending, n)
			continue
		}
		// 一个元素结束，逐层向上结算已经收满的数组
		for len(st.pending) > 0 {
			top := len(st.pending) - 1
			st.pending[top]--
			if st.pending[top] > 0 {
				break
			}
			st.pending = st.pending[:top]
		}
		if len(st.pending) == 0 {
			return st.pos, nil
		}
	}
}

// scanOne 检查 pos 处的一个元素。非空数组只检查头部，返回它的元素个数；
// 其他元素整个检查完，返回 0。
func (d *Decoder) scanOne(buf []byte, pos, depth int) (int, int, error) {
	if pos >= len(buf) {
		return 0, 0, ErrIncomplete
	}
	typ := buf[pos]
	switch typ {
	case TypeSimpleString, TypeError, TypeInteger, TypeBulkString, TypeArray, TypeNull:
	default:
		return 0, 0, protoErr(pos, "unexpected type byte %q", typ)
	}

	line, next, err := d.readLine(buf, pos+1)
	if err != nil {
		return 0, 0, err
	}

	switch typ {
	case TypeInteger:
		if _, err := parseInteger(line); err != nil {
			return 0, 0, protoErr(pos, "invalid integer %q", line)
		}
	case TypeNull:
		if len(line) != 0 {
			return 0, 0, protoErr(pos, "invalid null %q", line)
		}
	case TypeBulkString:
		n, err := parseLen(line)
		if err != nil {
			return 0, 0, protoErr(pos, "invalid bulk length %q", line)
		}
		if n == -1 {
			return 0, next, nil
		}
		if n > d.MaxBulkLen {
			return 0, 0, limitErr(pos, "bulk length %d exceeds limit %d", n, d.MaxBulkLen)
		}
		if len(buf)-next < n+2 {
			return 0, 0, ErrIncomplete
		}
		if buf[next+n] != '\r' || buf[next+n+1] != '\n' {
			return 0, 0, protoErr(next+n, "invalid bulk terminator")
		}
		return 0, next + n + 2, nil
	case TypeArray:
		n, err := parseLen(line)
		if err != nil {
			return 0, 0, protoErr(pos, "invalid array length %q", line)
		}
		if n == -1 {
			return 0, next, nil
		}
		if n > d.MaxArrayLen {
			return 0, 0, limitErr(pos, "array length %d exceeds limit %d", n, d.MaxArrayLen)
		}
		if depth+1 > d.MaxDepth {
			return 0, 0, limitErr(pos, "nesting depth exceeds limit %d", d.MaxDepth)
		}
		return n, next, nil
	}
	return 0, next, nil
}
