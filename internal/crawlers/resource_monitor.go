package crawlers

import (
	"fmt"
	"runtime"

	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	// StaticWorkerMemory 静态模式单个worker预估内存(一个HTML文档加解析树)
	StaticWorkerMemory int64 = 16 * 1024 * 1024
	// DynamicWorkerMemory 动态模式单个标签页预估内存
	DynamicWorkerMemory int64 = 100 * 1024 * 1024

	// defaultWorkerCap 与线程池默认值一致: min(32, CPU数+4)
	defaultWorkerCap   = 32
	defaultWorkerExtra = 4
)

// ResourceMonitor 系统资源监控器
// 职责: 读取CPU核数和可用内存,计算并发worker数量
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// 采样函数,测试时可替换
	cpuCount        func() (int, error)
	availableMemory func() (uint64, error)
}

// ResourceMonitorConfig 资源监控器配置
type ResourceMonitorConfig struct {
	SafetyReserveMemory int64 // 安全保留内存(字节)
	WorkerMemoryUsage   int64 // 单个worker平均内存消耗(字节)
	MaxWorkersLimit     int   // 绝对最大并发数, 0表示不限制
}

// MemoryStatus 内存状态信息
type MemoryStatus struct {
	AvailableMemory int64  // 扣除保留后的可用内存(字节)
	SafetyReserve   int64  // 安全保留内存(字节)
	MemoryPressure  string // 内存压力等级
}

// ResourceConfigForMode 按获取模式生成监控配置
func ResourceConfigForMode(mode models.CrawlMode, maxWorkersLimit int) ResourceMonitorConfig {
	config := ResourceMonitorConfig{
		SafetyReserveMemory: 512 * 1024 * 1024,
		WorkerMemoryUsage:   StaticWorkerMemory,
		MaxWorkersLimit:     maxWorkersLimit,
	}
	if mode == models.ModeDynamic {
		config.SafetyReserveMemory = 1024 * 1024 * 1024
		config.WorkerMemoryUsage = DynamicWorkerMemory
	}
	return config
}

// NewResourceMonitor 创建资源监控器实例
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	if config.WorkerMemoryUsage <= 0 {
		config.WorkerMemoryUsage = StaticWorkerMemory
	}

	return &ResourceMonitor{
		config: config,
		cpuCount: func() (int, error) {
			return cpu.Counts(true)
		},
		availableMemory: func() (uint64, error) {
			vmStat, err := mem.VirtualMemory()
			if err != nil {
				return 0, err
			}
			return vmStat.Available, nil
		},
	}
}

// RecommendWorkers 计算建议的并发worker数
// min(32, CPU数+4), 再受可用内存和MaxWorkersLimit约束, 至少为1
func (rm *ResourceMonitor) RecommendWorkers() int {
	cpus, err := rm.cpuCount()
	if err != nil || cpus < 1 {
		log.Warn().Err(err).Msg("获取CPU核数失败,使用runtime.NumCPU")
		cpus = runtime.NumCPU()
	}

	workers := cpus + defaultWorkerExtra
	if workers > defaultWorkerCap {
		workers = defaultWorkerCap
	}

	byMemory := -1
	if status, err := rm.memoryStatus(); err != nil {
		log.Warn().Err(err).Msg("获取系统内存失败,仅按CPU计算并发数")
	} else {
		byMemory = int(status.AvailableMemory / rm.config.WorkerMemoryUsage)
		if byMemory < workers {
			workers = byMemory
		}
	}

	if rm.config.MaxWorkersLimit > 0 && workers > rm.config.MaxWorkersLimit {
		workers = rm.config.MaxWorkersLimit
	}
	if workers < 1 {
		workers = 1
	}

	log.Debug().Msgf("并发数计算: CPU=%d, 内存上限=%d, 最大限制=%d, 结果=%d",
		cpus, byMemory, rm.config.MaxWorkersLimit, workers)
	return workers
}

// CheckResourceAvailability 检查当前资源是否允许再启动一个worker
// 返回canCreate(是否允许创建)和reason(不允许时的原因)
func (rm *ResourceMonitor) CheckResourceAvailability() (canCreate bool, reason string) {
	status, err := rm.memoryStatus()
	if err != nil {
		// 无法采样时不阻止创建
		return true, ""
	}
	if status.AvailableMemory < rm.config.WorkerMemoryUsage {
		availableMemoryMB := status.AvailableMemory / (1024 * 1024)
		log.Warn().Msgf("可用内存不足(当前%dMB),worker创建受限", availableMemoryMB)
		return false, fmt.Sprintf("内存不足(当前%dMB)", availableMemoryMB)
	}
	return true, ""
}

// GetMemoryStatus 获取当前内存状态
func (rm *ResourceMonitor) GetMemoryStatus() (MemoryStatus, error) {
	return rm.memoryStatus()
}

func (rm *ResourceMonitor) memoryStatus() (MemoryStatus, error) {
	available, err := rm.availableMemory()
	if err != nil {
		return MemoryStatus{}, err
	}

	usable := int64(available) - rm.config.SafetyReserveMemory
	if usable < 0 {
		usable = 0
	}

	var pressure string
	usableMB := usable / (1024 * 1024)
	switch {
	case usableMB < 200:
		pressure = "emergency"
	case usableMB < 300:
		pressure = "critical"
	case usableMB < 500:
		pressure = "warning"
	default:
		pressure = "normal"
	}

	return MemoryStatus{
		AvailableMemory: usable,
		SafetyReserve:   rm.config.SafetyReserveMemory,
		MemoryPressure:  pressure,
	}, nil
}
