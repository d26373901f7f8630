package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// CrawlMode 页面获取模式
type CrawlMode string

const (
	ModeStatic  CrawlMode = "static"  // HTTP直接获取(Colly)
	ModeDynamic CrawlMode = "dynamic" // 无头浏览器渲染(go-rod)
)

const (
	// DefaultListingURL 默认列表页
	DefaultListingURL = "https://www.amocrm.ru/partners/"

	// DefaultListingSelector 列表页容器选择器
	DefaultListingSelector = "div.partners-list__container"

	// DefaultDetailSelector 详情页联系人容器选择器
	DefaultDetailSelector = "div.partners-detail__contacts"

	// DefaultCheckpointEvery 每完成多少个URL写一次检查点
	DefaultCheckpointEvery = 100
)

// CrawlStats 爬取统计
type CrawlStats struct {
	TotalURLs   int     `json:"total_urls"`   // 列表页中的URL数
	DoneURLs    int     `json:"done_urls"`    // 成功解析的URL数
	FailedURLs  int     `json:"failed_urls"`  // 失败的URL数
	PendingURLs int     `json:"pending_urls"` // 尚未完成的URL数
	Duration    float64 `json:"duration"`     // 总耗时(秒)
}

// CrawlConfig 爬取配置
type CrawlConfig struct {
	ListingURL      string            `mapstructure:"listing_url" json:"listing_url"`           // 列表页URL
	ListingSelector string            `mapstructure:"listing_selector" json:"listing_selector"` // 列表容器选择器
	DetailSelector  string            `mapstructure:"detail_selector" json:"detail_selector"`   // 联系人容器选择器
	MaxWorkers      int               `mapstructure:"max_workers" json:"max_workers"`           // 并发数, 0 表示按系统资源自动计算
	MaxWorkersLimit int               `mapstructure:"max_workers_limit" json:"max_workers_limit"`
	CheckpointEvery int               `mapstructure:"checkpoint_every" json:"checkpoint_every"` // 检查点间隔 (默认:100)
	RequestTimeout  int               `mapstructure:"request_timeout" json:"request_timeout"`   // 单页超时(秒) (默认:30)
	Mode            CrawlMode         `mapstructure:"mode" json:"mode"`                         // static|dynamic
	Headless        bool              `mapstructure:"headless" json:"headless"`                 // 动态模式无头浏览器
	Headers         map[string]string `mapstructure:"headers" json:"-"`                         // 自定义请求头
}

// DefaultCrawlConfig 默认爬取配置
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		ListingURL:      DefaultListingURL,
		ListingSelector: DefaultListingSelector,
		DetailSelector:  DefaultDetailSelector,
		MaxWorkers:      0,
		MaxWorkersLimit: 64,
		CheckpointEvery: DefaultCheckpointEvery,
		RequestTimeout:  30,
		Mode:            ModeStatic,
		Headless:        true,
	}
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if err := ValidateURL(c.ListingURL); err != nil {
		return fmt.Errorf("列表页URL无效: %w", err)
	}
	if strings.TrimSpace(c.ListingSelector) == "" {
		return fmt.Errorf("列表容器选择器不能为空")
	}
	if strings.TrimSpace(c.DetailSelector) == "" {
		return fmt.Errorf("联系人容器选择器不能为空")
	}
	if c.MaxWorkers < 0 || c.MaxWorkers > 256 {
		return fmt.Errorf("并发数必须在0-256之间 (0表示自动)")
	}
	if c.CheckpointEvery < 1 {
		return fmt.Errorf("检查点间隔必须大于0")
	}
	if c.RequestTimeout < 1 || c.RequestTimeout > 600 {
		return fmt.Errorf("超时时间必须在1-600秒之间")
	}
	if c.Mode != ModeStatic && c.Mode != ModeDynamic {
		return fmt.Errorf("无效的获取模式: %s (有效值: static, dynamic)", c.Mode)
	}
	return nil
}

// Timeout 单页超时
func (c *CrawlConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// RunInfo 一次爬取运行的标识,在开始时确定,之后所有检查点共用
type RunInfo struct {
	ID         string    `json:"run_id"`
	ListingURL string    `json:"listing_url"`
	Policy     string    `json:"policy"`
	StartedAt  time.Time `json:"started_at"`
}

// NewRunInfo 创建运行标识
func NewRunInfo(listingURL string, policy string) RunInfo {
	return RunInfo{
		ID:         generateID(),
		ListingURL: listingURL,
		Policy:     policy,
		StartedAt:  time.Now(),
	}
}

// CheckpointFilename 检查点文件名,由运行开始时间决定
func (r RunInfo) CheckpointFilename() string {
	return CheckpointFilename(r.StartedAt)
}

// ResolveURL 将href解析为相对于base的绝对URL
func ResolveURL(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("无效的链接 %q: %w", href, err)
	}
	if base == nil {
		if !ref.IsAbs() {
			return "", fmt.Errorf("缺少基准URL,无法解析相对链接: %s", href)
		}
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}
