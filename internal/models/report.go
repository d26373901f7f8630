package models

import (
	"encoding/json"
	"time"
)

// CrawlReport 爬取报告
type CrawlReport struct {
	// 运行信息
	RunID      string    `json:"run_id"`
	ListingURL string    `json:"listing_url"`
	Mode       CrawlMode `json:"mode"`
	Policy     string    `json:"policy"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats   CrawlStats `json:"stats"`
	Workers int        `json:"workers"`

	// 失败列表
	FailedURLs []FailedURLInfo `json:"failed_urls"`

	// 输出路径
	CheckpointFile string `json:"checkpoint_file"`
	ExportFile     string `json:"export_file,omitempty"`

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// FailedURLInfo 失败URL信息
type FailedURLInfo struct {
	URL      string `json:"url"`
	ErrorMsg string `json:"error_msg"`
}

// FailedURLsFromState 收集失败的条目
func FailedURLsFromState(state *CrawlState) []FailedURLInfo {
	failed := make([]FailedURLInfo, 0)
	for _, e := range state.Entries() {
		if e.Status == EntryFailed {
			failed = append(failed, FailedURLInfo{URL: e.URL, ErrorMsg: e.Error})
		}
	}
	return failed
}

// ToJSON 序列化为JSON
func (r *CrawlReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
