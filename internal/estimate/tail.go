package estimate

import "math"

// 偏差值分布参数：均值 50、标准差 10
const (
	hensachiMean  = 50.0
	hensachiSigma = 10.0
)

// stdNormCDF：标准正态 CDF 的 Abramowitz–Stegun 26.2.23 有理式近似
// 约束：多项式在 |z| 上求值，z<0 时用对称性取 poly 本身
func stdNormCDF(z float64) float64 {
	t := 1 / (1 + 0.2316419*math.Abs(z))
	d := math.Exp(-0.5*z*z) / math.Sqrt(2*math.Pi)
	poly := d * ((((1.330274429*t-1.821255978)*t+1.781477937)*t-0.356563782)*t + 0.319381530) * t
	if z < 0 {
		return poly
	}
	return 1 - poly
}

// UpperTail：偏差值 → 上尾概率（“人群前百分之几”）
// 约束：对 h 严格单调递减；数值边界再钳制一次 [0,1]
func UpperTail(h float64) float64 {
	z := (h - hensachiMean) / hensachiSigma
	p := 1 - stdNormCDF(z)
	return math.Max(0, math.Min(1, p))
}
