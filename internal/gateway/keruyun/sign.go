package keruyun

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

const bodySeparator = "body"

// Sign 计算开放平台请求签名：
// 按 key 排序拼接 key+value，追加 "body"、请求体 JSON 和 token，取 SHA-256 小写十六进制。
// body 必须与实际发送的字节完全一致。
func Sign(params map[string]string, body []byte, token string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	b.WriteString(bodySeparator)
	b.Write(body)
	b.WriteString(token)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// CanonicalBody 以固定字段顺序序列化请求体（结构体字段顺序即 key 顺序），不做 HTML 转义。
func CanonicalBody(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
