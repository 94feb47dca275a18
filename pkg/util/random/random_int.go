package random

import (
	"crypto/rand"
	"math/big"
	"time"
)

// RandomIndex 返回 [0, n) 内的安全随机数，n <= 0 时返回 0
// 用于从昵称词表中挑词、生成昵称数字后缀
func RandomIndex(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return int(time.Now().UnixNano() % int64(n)) // fallback
	}
	return int(v.Int64())
}

// GetNowAndLenRandomString 生成带日期前缀的随机字符串（用于群组、成员 ID）
// 格式: YYMMDD + 字母数字混合
// 示例: 241230AbCdE1234567
func GetNowAndLenRandomString(length int) string {
	result := make([]byte, length)
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for i := range result {
		result[i] = charset[RandomIndex(len(charset))]
	}
	return time.Now().Format("060102") + string(result)
}
