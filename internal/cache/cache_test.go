package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TTLSuite struct {
	suite.Suite
	now   time.Time
	cache *TTL
}

func (s *TTLSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.cache = NewWithClock(6*time.Hour, func() time.Time { return s.now })
}

func TestTTLSuite(t *testing.T) {
	suite.Run(t, new(TTLSuite))
}

func (s *TTLSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func (s *TTLSuite) TestHitWithinTTL() {
	s.cache.Set("k", "v")
	s.advance(6 * time.Hour) // 恰好等于 TTL 仍视为有效
	v, ok := s.cache.Get("k")
	s.Require().True(ok)
	s.Equal("v", v)
}

func (s *TTLSuite) TestLazyEvictionAfterTTL() {
	s.cache.Set("k", "v")
	s.advance(6*time.Hour + time.Second)
	_, ok := s.cache.Get("k")
	s.False(ok)
	// 过期项在读取路径上被当场删除
	s.Equal(0, s.cache.Len())
}

func (s *TTLSuite) TestMissOnAbsentKey() {
	_, ok := s.cache.Get("nope")
	s.False(ok)
}

func (s *TTLSuite) TestOverwriteRefreshesClock() {
	s.cache.Set("k", "v1")
	s.advance(5 * time.Hour)
	s.cache.Set("k", "v2")
	s.advance(5 * time.Hour)
	v, ok := s.cache.Get("k")
	s.Require().True(ok)
	s.Equal("v2", v)
}

func (s *TTLSuite) TestExpiryDoesNotTouchOtherKeys() {
	s.cache.Set("old", 1)
	s.advance(5 * time.Hour)
	s.cache.Set("new", 2)
	s.advance(2 * time.Hour)
	_, okOld := s.cache.Get("old")
	v, okNew := s.cache.Get("new")
	s.False(okOld)
	s.Require().True(okNew)
	s.Equal(2, v)
}
