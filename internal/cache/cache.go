// 包 cache：进程内 TTL 备忘缓存，读取时惰性驱逐过期项
package cache

import (
	"sync"
	"time"
)

type entry struct {
	at   time.Time
	data any
}

// TTL：按键记忆结果；过期只在读取路径上惰性清除，不做后台扫描
// 背景：时间源可注入，测试用假时钟推进即可验证过期语义
// 约束：容量不设上限（部署侧由前置 Redis 层兜底热键）；多协程访问需互斥
type TTL struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	m   map[string]entry
}

func New(ttl time.Duration) *TTL {
	return NewWithClock(ttl, time.Now)
}

func NewWithClock(ttl time.Duration, now func() time.Time) *TTL {
	return &TTL{ttl: ttl, now: now, m: make(map[string]entry)}
}

// Get：命中且未过期返回数据；过期项当场删除并按未命中处理
func (c *TTL) Get(k string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[k]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.at) > c.ttl {
		delete(c.m, k)
		return nil, false
	}
	return e.data, true
}

// Set：无条件覆盖写入（并发未命中各自回填时后写胜出，容许的竞态）
func (c *TTL) Set(k string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[k] = entry{at: c.now(), data: v}
}

// Len：当前键数（测试与诊断用）
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
