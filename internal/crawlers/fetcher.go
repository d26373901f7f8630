package crawlers

import (
	"bytes"
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/ContactCrawl/internal/models"
)

// Fetcher 页面获取器: URL -> 可遍历的文档树
// 返回的文档的Url字段为最终响应地址,用于解析相对链接
// 实现不在内部重试; 网络或HTTP错误返回*models.FetchError
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// Closer 需要释放资源的获取器(例如浏览器)
type Closer interface {
	Close() error
}

// newDocument 把HTML字节解析成goquery文档
func newDocument(pageURL *url.URL, rawURL string, body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &models.ParseError{URL: rawURL, Cause: err}
	}
	doc.Url = pageURL
	return doc, nil
}
