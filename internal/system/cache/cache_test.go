/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type InMemoryCacheTestSuite struct {
	suite.Suite
	clock time.Time
	cache *InMemoryCache[string]
}

func TestInMemoryCacheTestSuite(t *testing.T) {
	suite.Run(t, new(InMemoryCacheTestSuite))
}

func (suite *InMemoryCacheTestSuite) SetupTest() {
	suite.clock = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.cache = NewInMemoryCache[string](true, 2, time.Minute)
	suite.cache.now = func() time.Time { return suite.clock }
}

func (suite *InMemoryCacheTestSuite) TestSetAndGet() {
	key := CacheKey{Key: "dag@hash"}
	assert.NoError(suite.T(), suite.cache.Set(key, "value"))

	value, ok := suite.cache.Get(key)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "value", value)

	_, ok = suite.cache.Get(CacheKey{Key: "missing"})
	assert.False(suite.T(), ok)

	stats := suite.cache.GetStats()
	assert.Equal(suite.T(), int64(1), stats.HitCount)
	assert.Equal(suite.T(), int64(1), stats.MissCount)
	assert.InDelta(suite.T(), 0.5, stats.HitRate, 1e-9)
	assert.Equal(suite.T(), 1, stats.Size)
	assert.Equal(suite.T(), 2, stats.MaxSize)
}

func (suite *InMemoryCacheTestSuite) TestEvictsLeastRecentlyUsed() {
	a, b, c := CacheKey{Key: "a"}, CacheKey{Key: "b"}, CacheKey{Key: "c"}
	_ = suite.cache.Set(a, "a")
	_ = suite.cache.Set(b, "b")
	_, _ = suite.cache.Get(a)
	_ = suite.cache.Set(c, "c")

	_, ok := suite.cache.Get(b)
	assert.False(suite.T(), ok)
	_, ok = suite.cache.Get(a)
	assert.True(suite.T(), ok)
	_, ok = suite.cache.Get(c)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), int64(1), suite.cache.GetStats().EvictCount)
}

func (suite *InMemoryCacheTestSuite) TestExpiry() {
	key := CacheKey{Key: "a"}
	_ = suite.cache.Set(key, "a")
	_ = suite.cache.Set(CacheKey{Key: "b"}, "b")

	suite.clock = suite.clock.Add(2 * time.Minute)
	_, ok := suite.cache.Get(key)
	assert.False(suite.T(), ok)

	suite.cache.CleanupExpired()
	assert.Equal(suite.T(), 0, suite.cache.GetStats().Size)
}

func (suite *InMemoryCacheTestSuite) TestDeleteAndClear() {
	_ = suite.cache.Set(CacheKey{Key: "a"}, "a")
	_ = suite.cache.Set(CacheKey{Key: "b"}, "b")

	assert.NoError(suite.T(), suite.cache.Delete(CacheKey{Key: "a"}))
	_, ok := suite.cache.Get(CacheKey{Key: "a"})
	assert.False(suite.T(), ok)

	assert.NoError(suite.T(), suite.cache.Clear())
	assert.Equal(suite.T(), CacheStat{Enabled: true, MaxSize: 2}, suite.cache.GetStats())
}

func (suite *InMemoryCacheTestSuite) TestDisabledCache() {
	disabled := NewInMemoryCache[string](false, 2, time.Minute)
	assert.False(suite.T(), disabled.IsEnabled())
	assert.NoError(suite.T(), disabled.Set(CacheKey{Key: "a"}, "a"))
	_, ok := disabled.Get(CacheKey{Key: "a"})
	assert.False(suite.T(), ok)
	assert.Equal(suite.T(), CacheStat{Enabled: false}, disabled.GetStats())
	disabled.CleanupExpired()
}
