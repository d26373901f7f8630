package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/ContactCrawl/internal/classifier"
	"github.com/RecoveryAshes/ContactCrawl/internal/crawlers"
	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"github.com/RecoveryAshes/ContactCrawl/internal/utils"
	"golang.org/x/sync/errgroup"
)

// ErrPolicyMismatch 恢复时分类策略与检查点记录的不一致
var ErrPolicyMismatch = errors.New("分类策略与检查点不一致")

// Result 单个详情页的处理结果
type Result struct {
	URL     string
	Contact models.Contact
	Err     error // *models.DetailFetchError 或 *models.DetailParseError
}

// Observer 每收到一个结果调用一次,done从1开始单调递增
// 只在收集协程中调用,实现不需要加锁
type Observer interface {
	OnResult(done, total int, r Result)
}

// ObserverFunc 函数适配器
type ObserverFunc func(done, total int, r Result)

// OnResult 实现Observer接口
func (f ObserverFunc) OnResult(done, total int, r Result) {
	f(done, total, r)
}

// Crawler 爬取协调器: 列表页 → 详情页并发抓取 → 分类 → 检查点
// 同一个Crawler不能并发执行多次爬取
type Crawler struct {
	config  models.CrawlConfig
	fetcher crawlers.Fetcher
	listing *crawlers.ListingExtractor
	detail  *crawlers.DetailExtractor
	builder *classifier.Builder

	store    CheckpointStore
	observer Observer
	workers  int

	run models.RunInfo
}

// Option Crawler可选配置
type Option func(*Crawler)

// WithCheckpointStore 设置检查点存储
func WithCheckpointStore(store CheckpointStore) Option {
	return func(c *Crawler) {
		c.store = store
	}
}

// WithObserver 设置结果观察者
func WithObserver(observer Observer) Option {
	return func(c *Crawler) {
		c.observer = observer
	}
}

// WithWorkers 覆盖并发数
func WithWorkers(workers int) Option {
	return func(c *Crawler) {
		if workers > 0 {
			c.workers = workers
		}
	}
}

// NewCrawler 创建爬取协调器
func NewCrawler(config models.CrawlConfig, fetcher crawlers.Fetcher, builder *classifier.Builder, opts ...Option) *Crawler {
	if builder == nil {
		builder = classifier.NewBuilder(nil)
	}

	c := &Crawler{
		config:  config,
		fetcher: fetcher,
		listing: crawlers.NewListingExtractor(config.ListingSelector),
		detail:  crawlers.NewDetailExtractor(config.DetailSelector),
		builder: builder,
		workers: ResolveWorkers(config),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveWorkers 计算并发数: 配置值优先,为0时按CPU和可用内存推荐
func ResolveWorkers(config models.CrawlConfig) int {
	if config.MaxWorkers > 0 {
		return config.MaxWorkers
	}
	monitor := crawlers.NewResourceMonitor(crawlers.ResourceConfigForMode(config.Mode, config.MaxWorkersLimit))
	return monitor.RecommendWorkers()
}

// Workers 返回实际并发数
func (c *Crawler) Workers() int {
	return c.workers
}

// RunInfo 返回最近一次爬取的运行信息
func (c *Crawler) RunInfo() models.RunInfo {
	return c.run
}

// Run 抓取列表页并爬取其中所有详情页
// 列表页失败返回*models.ListingFetchError,不会派发任何任务
// 取消ctx时返回已收集的状态和ctx.Err()
func (c *Crawler) Run(ctx context.Context, listingURL string) (*models.CrawlState, error) {
	utils.Infof("🚀 开始爬取列表页: %s", listingURL)

	doc, err := c.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return nil, &models.ListingFetchError{URL: listingURL, Cause: err}
	}

	urls := c.listing.Extract(doc)
	utils.Infof("列表页共找到 %d 个详情页链接", len(urls))

	return c.Crawl(ctx, listingURL, urls)
}

// Crawl 爬取给定的详情页URL列表, source仅用于记录
func (c *Crawler) Crawl(ctx context.Context, source string, urls []string) (*models.CrawlState, error) {
	state := models.NewCrawlState(urls)
	if state.Len() < len(urls) {
		utils.Debugf("忽略 %d 个重复链接", len(urls)-state.Len())
	}

	c.run = models.NewRunInfo(source, string(c.builder.Classifier().Policy()))
	utils.SetRun(c.run.ID, c.run.Policy)
	return state, c.dispatch(ctx, state)
}

// Resume 从检查点状态继续, 只处理pending和failed的条目
// 检查点继续写入原来的文件
// 分类策略必须与检查点一致,否则同一份状态会混入两种策略的结果
func (c *Crawler) Resume(ctx context.Context, state *models.CrawlState, run models.RunInfo) (*models.CrawlState, error) {
	if current := string(c.builder.Classifier().Policy()); run.Policy != "" && run.Policy != current {
		return nil, fmt.Errorf("%w: 检查点为 %s, 当前为 %s", ErrPolicyMismatch, run.Policy, current)
	}
	c.run = run
	utils.SetRun(run.ID, run.Policy)
	utils.Infof("♻️  恢复爬取: %s (run %s)", run.ListingURL, run.ID)
	return state, c.dispatch(ctx, state)
}

// dispatch 以有界并发处理所有未完成的URL
// 工作协程只发送结果,状态只由当前协程修改
func (c *Crawler) dispatch(ctx context.Context, state *models.CrawlState) error {
	startTime := time.Now()
	pending := state.Pending()
	total := state.Len()
	done := total - len(pending)

	utils.Infof("待处理 %d/%d 个URL, 并发数 %d", len(pending), total, c.workers)

	results := make(chan Result, len(pending))

	go func() {
		defer close(results)

		// 单个任务失败不影响其他任务,因此不使用errgroup.WithContext
		g := new(errgroup.Group)
		g.SetLimit(c.workers)

		for _, pageURL := range pending {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				r := c.process(ctx, pageURL)
				if r.Err != nil && ctx.Err() != nil {
					// 被取消的任务保持pending,恢复时重新处理
					return nil
				}
				results <- r
				return nil
			})
		}
		_ = g.Wait()
	}()

	every := c.config.CheckpointEvery
	if every < 1 {
		every = models.DefaultCheckpointEvery
	}
	sinceCheckpoint := 0

	for r := range results {
		if r.Err != nil {
			if err := state.Fail(r.URL, r.Err); err != nil {
				utils.Errorf("记录失败状态出错: %v", err)
			}
			utils.URLFailure(r.URL, r.Err)
		} else if err := state.Resolve(r.Contact); err != nil {
			utils.Errorf("记录结果出错: %v", err)
		}

		done++
		utils.Debugf("完成 %d/%d: %s", done, total, r.Contact)
		if c.observer != nil {
			c.observer.OnResult(done, total, r)
		}

		sinceCheckpoint++
		if sinceCheckpoint >= every {
			c.saveCheckpoint(state)
			sinceCheckpoint = 0
		}
	}

	saveErr := c.saveCheckpoint(state)

	stats := state.Stats()
	utils.Infof("爬取结束: 成功 %d, 失败 %d, 未完成 %d, 耗时 %.2f秒",
		stats.DoneURLs, stats.FailedURLs, stats.PendingURLs, time.Since(startTime).Seconds())

	if err := ctx.Err(); err != nil {
		utils.Warnf("⚠️  爬取被中断,进度已保存,可使用 --resume 继续")
		return err
	}
	return saveErr
}

// process 抓取并解析单个详情页, panic被转换为解析错误
func (c *Crawler) process(ctx context.Context, pageURL string) (result Result) {
	result.URL = pageURL
	defer func() {
		if r := recover(); r != nil {
			result.Err = &models.DetailParseError{URL: pageURL, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	doc, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		var parseErr *models.ParseError
		if errors.As(err, &parseErr) {
			result.Err = &models.DetailParseError{URL: pageURL, Cause: err}
		} else {
			result.Err = &models.DetailFetchError{URL: pageURL, Cause: err}
		}
		return result
	}

	result.Contact = c.builder.Build(pageURL, c.detail.Extract(doc))
	return result
}

// saveCheckpoint 写检查点,失败只记录日志,爬取继续
func (c *Crawler) saveCheckpoint(state *models.CrawlState) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Save(models.NewCheckpoint(c.run, state)); err != nil {
		utils.Errorf("%v", err)
		return err
	}
	return nil
}
