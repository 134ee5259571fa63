package notification

import "unicode/utf8"

const truncatedNote = "\n\n*消息过长已截断*"

// Truncate 按字符数截断, 超长时在末尾加提示, 结果不超过 limit 个字符
func Truncate(body string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(body) <= limit {
		return body
	}
	runes := []rune(body)
	keep := limit - utf8.RuneCountInString(truncatedNote)
	if keep <= 0 {
		return string(runes[:limit])
	}
	return string(runes[:keep]) + truncatedNote
}
