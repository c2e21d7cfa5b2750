package backend

import (
	"context"
	"time"
)

const (
	sweepSample    = 20 // 每轮每个分片抽样的 key 数
	sweepThreshold = 5  // 抽样中过期的超过这个数就继续清理这个分片
	sweepMaxRounds = 16 // 单个分片每次最多清理的轮数
)

func (b *Backend) sweepLoop(ctx context.Context, interval time.Duration) {
	defer close(b.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.SweepExpired()
		}
	}
}

// SweepExpired 主动清理一轮过期 key，返回删除的数量
func (b *Backend) SweepExpired() int {
	total := 0
	for _, s := range b.shards {
		for round := 0; round < sweepMaxRounds; round++ {
			checked, removed := s.sweep(b.now(), sweepSample)
			total += removed
			if checked < sweepSample || removed <= sweepThreshold {
				break
			}
		}
	}
	return total
}
