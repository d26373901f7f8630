package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"github.com/schollz/progressbar/v3"
)

const (
	// ReportFile 主报告文件名
	ReportFile = "crawl_report.json"
	// FailedURLsFile 失败URL列表文件名
	FailedURLsFile = "failed_urls.json"
)

// Reporter 报告生成器
type Reporter struct {
	reportDir string
}

// NewReporter 创建报告生成器
func NewReporter(reportDir string) *Reporter {
	return &Reporter{reportDir: reportDir}
}

// GenerateReport 写入爬取报告和失败URL列表
func (r *Reporter) GenerateReport(report *models.CrawlReport) error {
	if err := os.MkdirAll(r.reportDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	failed := report.FailedURLs
	if failed == nil {
		failed = []models.FailedURLInfo{}
	}

	if err := r.saveJSONReport(ReportFile, report); err != nil {
		return err
	}
	if err := r.saveJSONReport(FailedURLsFile, failed); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", r.reportDir)
	return nil
}

func (r *Reporter) saveJSONReport(filename string, data interface{}) error {
	path := filepath.Join(r.reportDir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
