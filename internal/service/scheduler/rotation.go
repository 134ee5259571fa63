package scheduler

import (
	"github.com/KNICEX/volume-radar/internal/entity"
	"github.com/KNICEX/volume-radar/internal/service/exchange"
)

// SelectBatch 从 cursor.LastIndex 开始取 min(batchSize, N) 个合约, 到末尾后回到开头.
// 返回推进后的游标, N = 0 时游标不变.
func SelectBatch(cursor entity.ScanCursor, universe []exchange.Instrument, batchSize int) ([]exchange.Instrument, entity.ScanCursor) {
	n := len(universe)
	if n == 0 || batchSize <= 0 {
		return nil, cursor
	}
	// 列表变短后旧的下标可能越界
	start := normalizeIndex(cursor.LastIndex, n)
	size := min(batchSize, n)

	batch := make([]exchange.Instrument, size)
	for i := 0; i < size; i++ {
		batch[i] = universe[(start+i)%n]
	}
	next := cursor
	next.LastIndex = (start + size) % n
	return batch, next
}

func normalizeIndex(idx, n int) int {
	return ((idx % n) + n) % n
}
