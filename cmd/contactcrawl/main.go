package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RecoveryAshes/ContactCrawl/internal/classifier"
	"github.com/RecoveryAshes/ContactCrawl/internal/core"
	"github.com/RecoveryAshes/ContactCrawl/internal/crawlers"
	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"github.com/RecoveryAshes/ContactCrawl/internal/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string
	appConfig  *core.Config

	// HTTP头部参数
	headers        []string
	validateConfig bool

	// 爬取参数
	listingURL      string
	urlsFile        string
	resumePath      string
	maxWorkers      int
	checkpointEvery int
	mode            string
	policy          string
	headless        bool
	outputDir       string
	csvFile         string
	noExport        bool

	// 导出参数
	exportInput  string
	exportCSV    string
	exportRegion string
)

var rootCmd = &cobra.Command{
	Use:   "contactcrawl",
	Short: "合作伙伴目录联系人爬取工具",
	Long: `ContactCrawl - 从目录型列表页爬取合作伙伴联系人

抓取列表页中的每个详情页,把联系人区域中的片段分为
网站、邮箱、城市和电话四类,定期写检查点,完成后导出CSV。

示例:
  # 使用默认列表页 (amoCRM 合作伙伴目录)
  contactcrawl

  # 指定并发数和检查点间隔
  contactcrawl -u https://www.amocrm.ru/partners/ --threads 16 --checkpoint-every 50

  # 从检查点恢复
  contactcrawl --resume output/checkpoints/dump-1700000000.json

  # 从检查点导出CSV
  contactcrawl export -i output/checkpoints/dump-1700000000.json --csv contacts.csv

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig = config

		logConfig := config.GetLogConfig()
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose && logLevel == "" {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}
		return nil
	},
	RunE: runCrawl,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "从检查点导出CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		csvPath := exportCSV
		if csvPath == "" {
			csvPath = appConfig.Export.CSVFile
		}
		region := exportRegion
		if region == "" {
			region = appConfig.Export.PhoneRegion
		}

		n, err := core.ExportCheckpoint(exportInput, csvPath, utils.NewPhoneNormalizer(region))
		if err != nil {
			return err
		}
		fmt.Printf("✅ 已导出 %d 个联系人: %s\n", n, csvPath)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ContactCrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func runCrawl(cmd *cobra.Command, args []string) error {
	if err := ValidateFlags(listingURL, urlsFile, resumePath, maxWorkers, checkpointEvery, mode); err != nil {
		return err
	}

	appConfig.MergeCLIFlags(listingURL, maxWorkers, checkpointEvery, mode, policy, outputDir, logLevel)
	if cmd.Flags().Changed("headless") {
		appConfig.Crawl.Headless = headless
	}
	if cmd.Flags().Changed("csv") {
		appConfig.Export.CSVFile = csvFile
	}
	if noExport {
		appConfig.Export.Enabled = false
	}

	headerManager, err := core.NewHeaderManager(appConfig.Crawl.Headers, headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}

	if validateConfig {
		return printValidation(headerManager)
	}

	if err := appConfig.Validate(); err != nil {
		return err
	}
	// 头部在爬取开始前验证,避免每个请求都失败
	if _, err := headerManager.GetHeaders(); err != nil {
		return err
	}

	// 恢复时先读检查点,分类策略以检查点为准
	var (
		resumeCheckpoint *models.Checkpoint
		resumeState      *models.CrawlState
	)
	if resumePath != "" {
		resumeCheckpoint, resumeState, err = core.LoadCheckpoint(resumePath)
		if err != nil {
			return err
		}
		resumePolicy, policyErr := ResumePolicy(resumeCheckpoint.Policy, appConfig.Classify.Policy, cmd.Flags().Changed("policy"))
		if policyErr != nil {
			return policyErr
		}
		appConfig.Classify.Policy = resumePolicy
	}

	c, err := classifier.New(appConfig.Classify)
	if err != nil {
		return err
	}

	// Ctrl+C 取消爬取,已完成的结果写入最终检查点
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	crawlConfig := appConfig.GetCrawlConfig()
	workers := core.ResolveWorkers(crawlConfig)

	fetcher, closeFetcher, err := newFetcher(crawlConfig, workers, headerManager)
	if err != nil {
		return err
	}
	defer closeFetcher()

	store := core.NewFileCheckpointStore(appConfig.CheckpointDir())
	progress := &progressObserver{}
	crawler := core.NewCrawler(crawlConfig, fetcher, classifier.NewBuilder(c),
		core.WithWorkers(workers),
		core.WithCheckpointStore(store),
		core.WithObserver(progress),
	)

	utils.Infof("获取模式: %s, 分类策略: %s, 并发数: %d", crawlConfig.Mode, c.Policy(), workers)

	startTime := time.Now()
	var state *models.CrawlState

	switch {
	case resumeCheckpoint != nil:
		state, err = crawler.Resume(ctx, resumeState, resumeCheckpoint.Run())
	case urlsFile != "":
		urls, readErr := utils.ReadURLsFromFile(urlsFile)
		if readErr != nil {
			return readErr
		}
		state, err = crawler.Crawl(ctx, urlsFile, urls)
	default:
		state, err = crawler.Run(ctx, crawlConfig.ListingURL)
	}
	progress.finish()

	if state == nil {
		return fmt.Errorf("爬取失败: %w", err)
	}

	cancelled := errors.Is(err, context.Canceled)
	if err != nil && !cancelled {
		utils.Errorf("爬取过程出现错误: %v", err)
	}

	run := crawler.RunInfo()
	stats := state.Stats()
	stats.Duration = time.Since(startTime).Seconds()

	report := &models.CrawlReport{
		RunID:          run.ID,
		ListingURL:     run.ListingURL,
		Mode:           crawlConfig.Mode,
		Policy:         run.Policy,
		StartTime:      startTime,
		EndTime:        time.Now(),
		Duration:       stats.Duration,
		Stats:          stats,
		Workers:        crawler.Workers(),
		FailedURLs:     models.FailedURLsFromState(state),
		CheckpointFile: store.Path(run),
		Config:         crawlConfig,
	}

	if appConfig.Export.Enabled && !cancelled {
		exporter := core.NewCSVExporter(utils.NewPhoneNormalizer(appConfig.Export.PhoneRegion))
		if _, exportErr := exporter.ExportState(state, appConfig.Export.CSVFile); exportErr != nil {
			utils.Errorf("导出CSV失败: %v", exportErr)
		} else {
			report.ExportFile = appConfig.Export.CSVFile
		}
	}

	if reportErr := utils.NewReporter(appConfig.ReportDir()).GenerateReport(report); reportErr != nil {
		utils.Warnf("生成报告失败: %v", reportErr)
	}

	printSummary(report)

	if cancelled {
		utils.Warnf("爬取已中断, 恢复命令: contactcrawl --resume %s", report.CheckpointFile)
		return nil
	}
	if err != nil {
		return err
	}
	utils.Info("✨ 爬取任务完成!")
	return nil
}

// newFetcher 按模式创建页面获取器, 返回的关闭函数总是非nil
func newFetcher(config models.CrawlConfig, workers int, headerProvider models.HeaderProvider) (crawlers.Fetcher, func(), error) {
	if config.Mode == models.ModeDynamic {
		fetcher, err := crawlers.NewDynamicFetcher(config, workers, headerProvider)
		if err != nil {
			return nil, nil, err
		}
		return fetcher, func() {
			if err := fetcher.Close(); err != nil {
				utils.Warnf("%v", err)
			}
		}, nil
	}
	return crawlers.NewStaticFetcher(config, workers, headerProvider), func() {}, nil
}

func printValidation(headerManager *core.HeaderManager) error {
	utils.Info("🔍 验证配置...")
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}
	if err := headerManager.Validate(); err != nil {
		return fmt.Errorf("HTTP头部验证失败: %w", err)
	}

	safeHeaders := headerManager.GetSafeHeaders()
	utils.Info("✅ 配置验证通过!")
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for name, value := range safeHeaders {
		utils.Infof("  %s: %s", name, value)
	}
	return nil
}

func printSummary(report *models.CrawlReport) {
	fmt.Println("\n==================================================")
	fmt.Println("📊 爬取统计")
	fmt.Println("==================================================")
	fmt.Printf("🔗 URL总数: %d\n", report.Stats.TotalURLs)
	fmt.Printf("✅ 成功: %d\n", report.Stats.DoneURLs)
	fmt.Printf("❌ 失败: %d\n", report.Stats.FailedURLs)
	fmt.Printf("⏸️  未完成: %d\n", report.Stats.PendingURLs)
	fmt.Printf("💾 检查点: %s\n", report.CheckpointFile)
	if report.ExportFile != "" {
		fmt.Printf("📄 CSV: %s\n", report.ExportFile)
	}
	fmt.Printf("⏱️  总耗时: %.2f秒\n", report.Duration)
	fmt.Println("==================================================")
}

// progressObserver 用进度条显示详情页处理进度
// 总数在第一个结果到达时才确定
type progressObserver struct {
	bar *progressbar.ProgressBar
}

func (p *progressObserver) OnResult(done, total int, r core.Result) {
	if p.bar == nil {
		p.bar = utils.NewProgressBar(total, "爬取详情页")
	}
	_ = p.bar.Set(done)
}

func (p *progressObserver) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.Flags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件和HTTP头部后退出")

	// 爬取参数
	rootCmd.Flags().StringVarP(&listingURL, "url", "u", "", "列表页URL (默认使用配置文件中的crawl.listing_url)")
	rootCmd.Flags().StringVarP(&urlsFile, "urls-file", "f", "", "直接爬取文件中的详情页URL,不抓取列表页")
	rootCmd.Flags().StringVar(&resumePath, "resume", "", "从检查点文件恢复")
	rootCmd.Flags().IntVar(&maxWorkers, "threads", 0, "并发数 (0表示按CPU和内存自动计算)")
	rootCmd.Flags().IntVar(&checkpointEvery, "checkpoint-every", 0, "每完成多少个URL写一次检查点 (默认100)")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", "", "获取模式 (static|dynamic)")
	rootCmd.Flags().StringVar(&policy, "policy", "", "分类策略 (dot-shape|alphabet)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "动态模式使用无头浏览器")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出目录 (检查点和报告)")
	rootCmd.Flags().StringVar(&csvFile, "csv", core.DefaultCSVFile, "完成后导出的CSV文件")
	rootCmd.Flags().BoolVar(&noExport, "no-export", false, "完成后不导出CSV")

	// 导出参数
	exportCmd.Flags().StringVarP(&exportInput, "input", "i", "", "检查点文件 (必需)")
	exportCmd.Flags().StringVar(&exportCSV, "csv", "", "导出文件 (默认使用配置文件中的export.csv_file)")
	exportCmd.Flags().StringVar(&exportRegion, "region", "", "电话号码默认地区 (如 RU)")
	_ = exportCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
