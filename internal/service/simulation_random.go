package service

import (
	"math/rand/v2"
	"time"
)

// Random 模拟用随机源
// 同一种子产生相同序列，便于回归测试复现
type Random struct {
	r *rand.Rand
}

// NewRandom 创建随机源；seed 为 0 时按当前时间取种
func NewRandom(seed uint64) *Random {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Random{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Chance 以 pct（0-100）的概率返回 true
func (r *Random) Chance(pct float64) bool {
	return r.r.Float64()*100 < pct
}

// Int 返回 [min, max] 内的整数；max < min 时返回 min
func (r *Random) Int(min, max int) int {
	if max < min {
		return min
	}
	return r.r.IntN(max-min+1) + min
}

// Float 返回 [min, max) 内的浮点数
func (r *Random) Float(min, max float64) float64 {
	return r.r.Float64()*(max-min) + min
}

// Pick 随机取一个元素，items 不能为空
func Pick[T any](r *Random, items []T) T {
	if len(items) == 0 {
		panic("Pick: 不能从空切片中取值")
	}
	return items[r.r.IntN(len(items))]
}

// PickN 不放回地随机取 n 个元素，不修改 items
func PickN[T any](r *Random, items []T, n int) []T {
	if n > len(items) {
		n = len(items)
	}
	if n <= 0 {
		return []T{}
	}
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	for i := 0; i < n; i++ {
		j := i + r.r.IntN(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n]
}
