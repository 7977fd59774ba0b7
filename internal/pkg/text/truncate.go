// Package text 提供日志与错误信息里的短文本处理。
package text

import "unicode/utf8"

// Truncate 按字符（rune）截断，超出部分以 "..." 表示，不会切断多字节字符。
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
