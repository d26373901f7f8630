package main

import (
	"fmt"
	"os"

	"github.com/RecoveryAshes/ContactCrawl/internal/classifier"
	"github.com/RecoveryAshes/ContactCrawl/internal/models"
)

// ValidateFlags 验证命令行标志
// 0 表示未指定,由配置文件或自动计算决定
func ValidateFlags(
	listingURL string,
	urlsFile string,
	resumePath string,
	maxWorkers int,
	checkpointEvery int,
	mode string,
) error {
	if listingURL != "" {
		if err := models.ValidateURL(listingURL); err != nil {
			return fmt.Errorf("无效的列表页URL: %w", err)
		}
	}

	if urlsFile != "" && resumePath != "" {
		return fmt.Errorf("--urls-file 与 --resume 不能同时使用")
	}
	if urlsFile != "" && listingURL != "" {
		return fmt.Errorf("--urls-file 与 --url 不能同时使用")
	}

	if resumePath != "" {
		if _, err := os.Stat(resumePath); err != nil {
			return fmt.Errorf("检查点文件不可用: %w", err)
		}
	}

	if maxWorkers < 0 || maxWorkers > 256 {
		return fmt.Errorf("并发数必须在0-256之间,当前值: %d", maxWorkers)
	}

	if checkpointEvery < 0 {
		return fmt.Errorf("检查点间隔不能为负数,当前值: %d", checkpointEvery)
	}

	switch models.CrawlMode(mode) {
	case "", models.ModeStatic, models.ModeDynamic:
	default:
		return fmt.Errorf("无效的获取模式: %s (有效值: static, dynamic)", mode)
	}

	return nil
}

// ResumePolicy 决定恢复时使用的分类策略
// 未显式指定 --policy 时沿用检查点记录的策略; 显式指定且不一致时拒绝恢复
func ResumePolicy(checkpointPolicy string, configured classifier.Policy, explicit bool) (classifier.Policy, error) {
	if checkpointPolicy == "" {
		return configured, nil
	}
	if explicit && classifier.Policy(checkpointPolicy) != configured {
		return "", fmt.Errorf("检查点使用分类策略 %s, 不能用 --policy %s 恢复", checkpointPolicy, configured)
	}
	return classifier.Policy(checkpointPolicy), nil
}
