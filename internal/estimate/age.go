package estimate

import "math"

// ageBand：全国概算年龄三带（总务省口径的粗分），share 总和为 1.0
// 约束：区间相邻不重叠覆盖 [0,99]；进程级常量，不随请求变化
type ageBand struct {
	from, to int
	share    float64
}

var ageBands = []ageBand{
	{0, 14, 0.127},
	{15, 64, 0.589},
	{65, 99, 0.284},
}

// clampAge：年龄钳制到 [0,99]
func clampAge(a int) int {
	if a < 0 {
		return 0
	}
	if a > 99 {
		return 99
	}
	return a
}

// AgeShare：计算 [minAge,maxAge] 占全体的份额
// 背景：带内按均匀分布近似（这是明示的近似而不是精确人口模型）；
// 区间倒置时交换两端
func AgeShare(minAge, maxAge int) float64 {
	lo := clampAge(minAge)
	hi := clampAge(maxAge)
	if hi < lo {
		lo, hi = hi, lo
	}
	var total float64
	for _, b := range ageBands {
		l := lo
		if b.from > l {
			l = b.from
		}
		r := hi
		if b.to < r {
			r = b.to
		}
		if r >= l {
			total += b.share * float64(r-l+1) / float64(b.to-b.from+1)
		}
	}
	return math.Max(0, math.Min(1, total))
}

// MaleInRange：按份额折算区间内男性人口
// 约束：male>0 而四舍五入结果为 0 时置 1，避免已知有人口却对外呈现硬零
func MaleInRange(male int64, share float64) int64 {
	n := int64(math.Round(float64(male) * share))
	if male > 0 && n <= 0 {
		return 1
	}
	if n < 0 {
		return 0
	}
	return n
}
