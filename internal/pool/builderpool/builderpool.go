// Copyright (c) 2019 The Gnet Authors. All rights reserved.
// Copyright (c) 2016 Aliaksandr Valialkin, VertaMedia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Use of this source code is governed by a MIT license that can be found
// at https://github.com/valyala/bytebufferpool/blob/master/LICENSE

// Package builderpool 实现了 builder.Builder 的对象池，用于降低编码过程中的分配压力。
//
// 编码一次对象图会为每个对象分配一个 Builder，池中按 chunk 槽位数量自动校准
// 新建 Builder 的默认容量与可回收的最大容量。
package builderpool

import (
	"math/bits"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/lk2023060901/objpack-go/pkg/buffer/builder"
)

const (
	minBitSize = 2 // 2**2=4 个 chunk 槽位
	steps      = 16

	minSize = 1 << minBitSize

	calibrateCallsThreshold = 42000
	maxPercentile           = 0.95
)

// Pool 表示 Builder 的对象池。
type Pool struct {
	calls       [steps]uint64
	calibrating uint64

	defaultSize uint64
	maxSize     uint64

	pool sync.Pool
}

var builtinPool Pool

// Get 从默认池中获取一个空的 Builder。
func Get() *builder.Builder { return builtinPool.Get() }

// Get 从指定 Pool 中获取一个空的 Builder。
func (p *Pool) Get() *builder.Builder {
	v := p.pool.Get()
	if v != nil {
		return v.(*builder.Builder)
	}
	return builder.New(int(atomic.LoadUint64(&p.defaultSize)))
}

// Put 将 Builder 归还到默认池中。
//
// 注意：归还后的 Builder 不允许再被访问。
func Put(b *builder.Builder) { builtinPool.Put(b) }

// Put 将通过 Get 获取的 Builder 归还到 Pool 中。
func (p *Pool) Put(b *builder.Builder) {
	idx := index(b.Cap())

	if atomic.AddUint64(&p.calls[idx], 1) > calibrateCallsThreshold {
		p.calibrate()
	}

	maxSize := int(atomic.LoadUint64(&p.maxSize))
	if maxSize == 0 || b.Cap() <= maxSize {
		b.Reset()
		p.pool.Put(b)
	}
}

func (p *Pool) calibrate() {
	if !atomic.CompareAndSwapUint64(&p.calibrating, 0, 1) {
		return
	}

	a := make(callSizes, 0, steps)
	var callsSum uint64
	for i := uint64(0); i < steps; i++ {
		calls := atomic.SwapUint64(&p.calls[i], 0)
		callsSum += calls
		a = append(a, callSize{
			calls: calls,
			size:  minSize << i,
		})
	}
	sort.Sort(a)

	defaultSize := a[0].size
	maxSize := defaultSize

	maxSum := uint64(float64(callsSum) * maxPercentile)
	callsSum = 0
	for i := 0; i < steps; i++ {
		if callsSum > maxSum {
			break
		}
		callsSum += a[i].calls
		if a[i].size > maxSize {
			maxSize = a[i].size
		}
	}

	atomic.StoreUint64(&p.defaultSize, defaultSize)
	atomic.StoreUint64(&p.maxSize, maxSize)

	atomic.StoreUint64(&p.calibrating, 0)
}

type callSize struct {
	calls uint64
	size  uint64
}

type callSizes []callSize

func (ci callSizes) Len() int           { return len(ci) }
func (ci callSizes) Less(i, j int) bool { return ci[i].calls > ci[j].calls }
func (ci callSizes) Swap(i, j int)      { ci[i], ci[j] = ci[j], ci[i] }

func index(n int) int {
	n--
	n >>= minBitSize
	idx := 0
	if n > 0 {
		idx = bits.Len(uint(n))
	}
	if idx >= steps {
		idx = steps - 1
	}
	return idx
}
