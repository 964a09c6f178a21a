// Package hardware 提供宿主机资源信息的查询。
package hardware

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"

	"github.com/lk2023060901/objpack-go/pkg/log"
)

// GetCPUNum 返回逻辑 CPU 数量，查询失败时退回 runtime.NumCPU。
func GetCPUNum() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		log.Warn("failed to get cpu counts", zap.Error(err))
		return runtime.NumCPU()
	}
	return n
}

