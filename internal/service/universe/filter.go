package universe

import (
	"sort"
	"strings"

	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/samber/lo"
)

// Filter 只保留可交易的永续合约
type Filter struct {
	Quote   string
	Exclude []string // 不扫描的 base, 例如已下架的币
}

// Apply 过滤后按 ID 字典序排序, 同样的输入总是得到同样的顺序
func (f Filter) Apply(list []exchange.Instrument) []exchange.Instrument {
	excluded := lo.SliceToMap(f.Exclude, func(item string) (string, struct{}) {
		return strings.ToUpper(item), struct{}{}
	})
	res := lo.Filter(list, func(item exchange.Instrument, index int) bool {
		if !item.Live || item.Dated {
			return false
		}
		if f.Quote != "" && !strings.EqualFold(item.Quote, f.Quote) {
			return false
		}
		_, ok := excluded[strings.ToUpper(item.Base)]
		return !ok
	})
	res = lo.UniqBy(res, func(item exchange.Instrument) string {
		return item.ID
	})
	sort.Slice(res, func(i, j int) bool {
		return res[i].ID < res[j].ID
	})
	return res
}
