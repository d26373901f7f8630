package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/RecoveryAshes/ContactCrawl/internal/crawlers"
	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "检查运行环境 (浏览器、内存、输出目录)",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("==============================================")
		fmt.Println("  ContactCrawl 环境检查")
		fmt.Println("==============================================")

		allOK := true

		fmt.Printf("✅ Go运行时: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

		// 动态模式需要Chromium, 找不到时rod会在首次启动时自动下载
		if bin, ok := launcher.LookPath(); ok {
			fmt.Printf("✅ 浏览器: %s\n", bin)
		} else if appConfig.Crawl.Mode == models.ModeDynamic {
			fmt.Println("⚠️  未找到本地Chromium, 动态模式首次启动时将自动下载")
		} else {
			fmt.Println("➖ 未找到本地Chromium (静态模式不需要)")
		}

		for _, mode := range []models.CrawlMode{models.ModeStatic, models.ModeDynamic} {
			monitor := crawlers.NewResourceMonitor(crawlers.ResourceConfigForMode(mode, appConfig.Crawl.MaxWorkersLimit))
			status, err := monitor.GetMemoryStatus()
			if err != nil {
				fmt.Printf("⚠️  [%s] 无法读取内存信息: %v\n", mode, err)
				continue
			}
			fmt.Printf("✅ [%s] 可用内存 %dMB (%s), 推荐并发数 %d\n",
				mode, status.AvailableMemory/(1024*1024), status.MemoryPressure, monitor.RecommendWorkers())
		}

		for _, dir := range []string{appConfig.CheckpointDir(), appConfig.ReportDir(), appConfig.Logging.LogDir} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				fmt.Printf("❌ 目录不可写: %s (%v)\n", dir, err)
				allOK = false
				continue
			}
			fmt.Printf("✅ %s/\n", dir)
		}

		fmt.Println("==============================================")
		if !allOK {
			return fmt.Errorf("环境检查未通过,请解决上述问题")
		}
		fmt.Println("✅ 环境检查通过")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
