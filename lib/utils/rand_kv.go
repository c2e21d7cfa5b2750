package utils

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	randStr = rand.New(rand.NewSource(time.Now().Unix()))
	randMu  sync.Mutex
	letters = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
)

// GetTestKey 获取测试使用的 key
func GetTestKey(i int) []byte {
	return []byte(fmt.Sprintf("hades-key-%09d", i))
}

// RandomValue 生成随机 value，用于测试
func RandomValue(n int) []byte {
	b := make([]byte, n)
	randMu.Lock()
	for i := range b {
		b[i] = letters[randStr.Intn(len(letters))]
	}
	randMu.Unlock()
	return []byte("hades-value-" + string(b))
}
