package crawlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"github.com/RecoveryAshes/ContactCrawl/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DynamicFetcher 动态页面获取器(使用Rod)
// 页面在无头浏览器中渲染后再交给提取器,适用于联系人由脚本写入的站点
type DynamicFetcher struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	pagePool *PagePool
	timeout  time.Duration

	// HTTP头部提供者
	headerProvider models.HeaderProvider
}

// NewDynamicFetcher 启动浏览器并创建标签页池
func NewDynamicFetcher(config models.CrawlConfig, workers int, headerProvider models.HeaderProvider) (*DynamicFetcher, error) {
	l := launcher.New().Headless(config.Headless)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}
	utils.Debugf("浏览器已启动: %s", controlURL)

	monitor := NewResourceMonitor(ResourceConfigForMode(models.ModeDynamic, config.MaxWorkersLimit))

	df := &DynamicFetcher{
		browser:        browser,
		launcher:       l,
		timeout:        config.Timeout(),
		headerProvider: headerProvider,
	}
	df.pagePool = NewPagePool(browser, workers, monitor, df.setupTab)
	return df, nil
}

// Fetch 在标签页中打开页面,等待加载完成后取渲染后的HTML
func (df *DynamicFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	page, err := df.pagePool.AcquirePage(ctx)
	if err != nil {
		return nil, &models.FetchError{URL: pageURL, Cause: err}
	}

	broken := false
	defer func() {
		df.pagePool.ReleasePage(page, broken)
	}()

	p := page.Context(ctx).Timeout(df.timeout)

	// 记录主文档的响应状态码
	status := 0
	waitResponse := p.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument && e.Response != nil {
			status = e.Response.Status
			return true
		}
		return false
	})

	if err := p.Navigate(pageURL); err != nil {
		broken = true
		return nil, &models.FetchError{URL: pageURL, Cause: err}
	}
	waitResponse()

	if status != 0 && (status < 200 || status >= 300) {
		return nil, &models.FetchError{
			URL:        pageURL,
			StatusCode: status,
			Cause:      fmt.Errorf("%s", http.StatusText(status)),
		}
	}

	if err := p.WaitLoad(); err != nil {
		broken = true
		return nil, &models.FetchError{URL: pageURL, Cause: fmt.Errorf("等待页面加载失败: %w", err)}
	}

	content, err := p.HTML()
	if err != nil {
		broken = true
		return nil, &models.ParseError{URL: pageURL, Cause: err}
	}

	finalURL, err := url.Parse(pageURL)
	if info, infoErr := p.Info(); infoErr == nil && info.URL != "" {
		if parsed, parseErr := url.Parse(info.URL); parseErr == nil {
			finalURL, err = parsed, nil
		}
	}
	if err != nil {
		return nil, &models.ParseError{URL: pageURL, Cause: err}
	}

	return newDocument(finalURL, pageURL, []byte(content))
}

// setupTab 新标签页创建时设置一次请求头,之后的导航都会带上
func (df *DynamicFetcher) setupTab(page *rod.Page) error {
	if df.headerProvider == nil {
		return nil
	}
	headers, err := df.headerProvider.GetHeaders()
	if err != nil {
		return err
	}

	dict := make([]string, 0, len(headers)*2)
	for name, values := range headers {
		if len(values) > 0 {
			dict = append(dict, name, values[0])
		}
	}
	if len(dict) == 0 {
		return nil
	}
	_, err = page.SetExtraHeaders(dict)
	return err
}

// Close 关闭标签页池和浏览器
func (df *DynamicFetcher) Close() error {
	if err := df.pagePool.Close(); err != nil {
		utils.Warnf("关闭标签页池失败: %v", err)
	}
	err := df.browser.Close()
	df.launcher.Kill()
	if err != nil {
		return fmt.Errorf("关闭浏览器失败: %w", err)
	}
	utils.Debugf("浏览器已关闭")
	return nil
}
