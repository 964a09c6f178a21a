// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// objpackNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	objpackNamespace = "objpack"

	codecSubsystem = "codec"
	batchSubsystem = "batch"

	// 以下为当前使用的通用标签名。
	opLabelName     = "op"
	statusLabelName = "status"
	typeLabelName   = "type"
)

const (
	OpEncode = "encode"
	OpDecode = "decode"

	SuccessLabel = "success"
	FailLabel    = "fail"
)

var (
	// buckets 为耗时直方图的桶划分，单位为毫秒。
	// 实际桶分布为：
	// [0.01 0.02 0.04 ... 327.68 655.36 1310.72]
	buckets = prometheus.ExponentialBuckets(0.01, 2, 18)

	// sizeBuckets 为字节流大小的桶划分，单位为字节。
	sizeBuckets = prometheus.ExponentialBuckets(16, 4, 12)

	CodecOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: objpackNamespace,
			Subsystem: codecSubsystem,
			Name:      "ops_total",
			Help:      "number of encode/decode calls by result",
		}, []string{opLabelName, statusLabelName})

	CodecLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: objpackNamespace,
			Subsystem: codecSubsystem,
			Name:      "latency_ms",
			Help:      "latency of encode/decode calls in milliseconds",
			Buckets:   buckets,
		}, []string{opLabelName})

	CodecStreamBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: objpackNamespace,
			Subsystem: codecSubsystem,
			Name:      "stream_bytes",
			Help:      "size of produced or consumed streams in bytes",
			Buckets:   sizeBuckets,
		}, []string{opLabelName})

	// CodecSharedRefs 统计编码时命中身份表、以指针复用已有记录的次数。
	CodecSharedRefs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: objpackNamespace,
			Subsystem: codecSubsystem,
			Name:      "shared_refs_total",
			Help:      "number of references encoded as pointers to an already reserved record",
		})

	CodecUnsupportedValues = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: objpackNamespace,
			Subsystem: codecSubsystem,
			Name:      "unsupported_values_total",
			Help:      "number of values encoded with the unsupported tag",
		}, []string{typeLabelName})

	BatchPendingFiles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: objpackNamespace,
		Subsystem: batchSubsystem,
		Name:      "pending_files",
		Help:      "当前批量任务中尚未处理完成的文件数量",
	})

	BatchProcessedFiles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: objpackNamespace,
		Subsystem: batchSubsystem,
		Name:      "processed_files_total",
		Help:      "批量任务已处理的文件数量",
	}, []string{statusLabelName})

	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标。
func Register(r prometheus.Registerer) {
	r.MustRegister(CodecOpsTotal)
	r.MustRegister(CodecLatency)
	r.MustRegister(CodecStreamBytes)
	r.MustRegister(CodecSharedRefs)
	r.MustRegister(CodecUnsupportedValues)
	r.MustRegister(BatchPendingFiles)
	r.MustRegister(BatchProcessedFiles)
	metricRegisterer = r
}

// Status 将错误映射为 status 标签值。
func Status(err error) string {
	if err != nil {
		return FailLabel
	}
	return SuccessLabel
}
