// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

package common

import (
	"errors"

	lru "github.com/hashicorp/golang-lru"

	"github.com/iotaledger/wallet.go/log"
)

// CacheScale lets callers shrink the configured cache size uniformly, the
// same knob the teacher exposes for memory-constrained nodes.
var CacheScale = 100

var logger = log.NewModuleLogger(log.Common)

// Cache is a small façade over hashicorp/golang-lru, narrowed from the
// teacher's common.Cache to the single backing (LRU) this module needs:
// a bounded lookup cache. The Reconciler uses one, keyed by MessageID, to
// hold confirmed messages it has already fetched.
type Cache interface {
	Add(key interface{}, value interface{}) (evicted bool)
	Get(key interface{}) (value interface{}, ok bool)
	Contains(key interface{}) bool
	Remove(key interface{})
	Purge()
	Len() int
}

type lruCache struct {
	lru *lru.Cache
}

func (c *lruCache) Add(key, value interface{}) (evicted bool) { return c.lru.Add(key, value) }
func (c *lruCache) Get(key interface{}) (interface{}, bool)    { return c.lru.Get(key) }
func (c *lruCache) Contains(key interface{}) bool              { return c.lru.Contains(key) }
func (c *lruCache) Remove(key interface{})                     { c.lru.Remove(key) }
func (c *lruCache) Purge()                                     { c.lru.Purge() }
func (c *lruCache) Len() int                                   { return c.lru.Len() }

// NewLRUCache builds a Cache sized by size*CacheScale/100, mirroring the
// teacher's LRUConfig.newCache scaling behavior.
func NewLRUCache(size int) (Cache, error) {
	scaled := size * CacheScale / 100
	if scaled < 1 {
		logger.Error("non-positive cache size", "requested", size, "scale", CacheScale)
		return nil, errors.New("common: cache size must be positive after scaling")
	}
	inner, err := lru.New(scaled)
	if err != nil {
		return nil, err
	}
	return &lruCache{lru: inner}, nil
}
