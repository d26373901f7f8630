package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"github.com/RecoveryAshes/ContactCrawl/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
)

// StaticFetcher 静态页面获取器(使用Colly)
// 每次Fetch克隆一个collector,共享HTTP客户端和连接池,回调互不干扰
type StaticFetcher struct {
	collector *colly.Collector
	timeout   time.Duration

	// HTTP头部提供者
	headerProvider models.HeaderProvider
}

// NewStaticFetcher 创建静态获取器
// workers 用于设置每个主机的空闲连接数,与并发数一致
func NewStaticFetcher(config models.CrawlConfig, workers int, headerProvider models.HeaderProvider) *StaticFetcher {
	timeout := config.Timeout()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if workers > transport.MaxIdleConnsPerHost {
		transport.MaxIdleConnsPerHost = workers
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}

	// 同一个URL在恢复时可能再次获取,必须允许重复访问
	// 非2xx响应也交给OnResponse,由Fetch统一转换为FetchError
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	c.SetClient(httpClient)

	utils.Debugf("静态获取器: 超时=%v, 每主机空闲连接=%d", timeout, transport.MaxIdleConnsPerHost)

	return &StaticFetcher{
		collector:      c,
		timeout:        timeout,
		headerProvider: headerProvider,
	}
}

// Fetch 获取页面并解析为文档
func (sf *StaticFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, sf.timeout)
	defer cancel()

	c := sf.collector.Clone()
	c.Context = ctx

	var response *colly.Response

	c.OnRequest(func(r *colly.Request) {
		sf.applyHeaders(r)
		utils.Debugf("访问: %s", r.URL.String())
	})

	c.OnResponse(func(r *colly.Response) {
		response = r
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, &models.FetchError{URL: pageURL, Cause: err}
	}
	if response == nil {
		return nil, &models.FetchError{URL: pageURL, Cause: fmt.Errorf("未收到响应")}
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &models.FetchError{
			URL:        pageURL,
			StatusCode: response.StatusCode,
			Cause:      fmt.Errorf("%s", http.StatusText(response.StatusCode)),
		}
	}

	body := response.Body
	if response.Headers != nil {
		contentEncoding := response.Headers.Get("Content-Encoding")
		decompressed, err := decompressResponse(contentEncoding, body)
		if err != nil {
			return nil, &models.ParseError{URL: pageURL, Cause: err}
		}
		if len(decompressed) != len(body) {
			utils.Debugf("成功解压响应 [%s] (编码=%s): 原始=%d bytes, 解压后=%d bytes",
				pageURL, contentEncoding, len(body), len(decompressed))
		}
		body = decompressed
	}

	return newDocument(response.Request.URL, pageURL, body)
}

// applyHeaders 应用自定义HTTP头部
func (sf *StaticFetcher) applyHeaders(r *colly.Request) {
	if sf.headerProvider == nil {
		return
	}
	headers, err := sf.headerProvider.GetHeaders()
	if err != nil {
		utils.Warnf("获取HTTP头部失败: %v", err)
		return
	}
	for name, values := range headers {
		if len(values) > 0 {
			r.Headers.Set(name, values[0])
		}
	}
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
// gzip通常已由Colly解压,只有仍带gzip魔数时才处理
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip", "x-gzip":
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, nil
		}
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		// 大多数服务器发送zlib封装的deflate,少数发送裸deflate
		var reader io.ReadCloser
		if isZlibHeader(body) {
			zr, err := zlib.NewReader(bytes.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("deflate解压失败: %w", err)
			}
			reader = zr
		} else {
			reader = flate.NewReader(bytes.NewReader(body))
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "", "identity":
		return body, nil

	default:
		// 未知编码,仍然返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}

func isZlibHeader(body []byte) bool {
	if len(body) < 2 {
		return false
	}
	cmf, flg := body[0], body[1]
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}
