package scheduler

import (
	"sort"

	"github.com/samber/lo"
)

// Allocate 按权重把 budget 分给各个数据源, 余数按最大余数法分配 (相同余数时靠前的优先),
// 每个数据源不超过自己的容量, 分不完的部分继续分给还有余量的数据源.
// 权重 <= 0 的数据源不参与分配.
func Allocate(budget int, weights []int, capacities []int) []int {
	alloc := make([]int, len(weights))
	remaining := budget
	for remaining > 0 {
		open := lo.Filter(lo.Range(len(weights)), func(i int, _ int) bool {
			return weights[i] > 0 && i < len(capacities) && alloc[i] < capacities[i]
		})
		if len(open) == 0 {
			break
		}
		shares := split(remaining, lo.Map(open, func(i int, _ int) int {
			return weights[i]
		}))
		given := 0
		for k, i := range open {
			add := min(shares[k], capacities[i]-alloc[i])
			alloc[i] += add
			given += add
		}
		remaining -= given
		if given == 0 {
			break
		}
	}
	return alloc
}

// split 最大余数法, 结果之和等于 total
func split(total int, weights []int) []int {
	sum := lo.Sum(weights)
	shares := make([]int, len(weights))
	if sum <= 0 {
		return shares
	}
	rems := make([]int, len(weights))
	given := 0
	for i, w := range weights {
		shares[i] = total * w / sum
		rems[i] = total * w % sum
		given += shares[i]
	}
	order := lo.Range(len(weights))
	sort.SliceStable(order, func(a, b int) bool {
		return rems[order[a]] > rems[order[b]]
	})
	for k := 0; given < total; k++ {
		shares[order[k%len(order)]]++
		given++
	}
	return shares
}
