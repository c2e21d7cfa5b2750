package backend

import (
	"strings"

	"github.com/tidwall/match"
)

// matchPattern KEYS 的 glob 匹配：* ? [abc] [^a-z] 以及 \ 转义。
// 只有 * 和 ? 的 pattern 直接交给 tidwall/match。
func matchPattern(key, pattern string) bool {
	if !strings.ContainsAny(pattern, `[\`) {
		return match.Match(key, pattern)
	}
	return globMatch(pattern, key)
}

func globMatch(pattern, s string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if globMatch(pattern[1:], s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
		case '[':
			if len(s) == 0 {
				return false
			}
			ok, rest := matchClass(pattern[1:], s[0])
			if !ok {
				return false
			}
			pattern, s = rest, s[1:]
			continue
		case '\\':
			if len(pattern) >= 2 {
				pattern = pattern[1:]
			}
			fallthrough
		default:
			if len(s) == 0 || s[0] != pattern[0] {
				return false
			}
		}
		pattern, s = pattern[1:], s[1:]
	}
	return len(s) == 0
}

// matchClass p 是 '[' 之后的部分，返回 c 是否在字符集中以及 ']' 之后的 pattern。
// 没有闭合的 ']' 时字符集到 pattern 结尾为止。
func matchClass(p string, c byte) (bool, string) {
	negate := false
	if len(p) > 0 && p[0] == '^' {
		negate, p = true, p[1:]
	}
	matched := false
	for len(p) > 0 {
		switch {
		case p[0] == ']':
			return matched != negate, p[1:]
		case p[0] == '\\' && len(p) >= 2:
			if p[1] == c {
				matched = true
			}
			p = p[2:]
		case len(p) >= 3 && p[1] == '-':
			lo, hi := p[0], p[2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				matched = true
			}
			p = p[3:]
		default:
			if p[0] == c {
				matched = true
			}
			p = p[1:]
		}
	}
	return matched != negate, p
}
