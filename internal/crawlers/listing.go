package crawlers

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"github.com/RecoveryAshes/ContactCrawl/internal/utils"
)

// ListingExtractor 从列表页提取详情页URL
type ListingExtractor struct {
	selector string
}

// NewListingExtractor 创建列表页提取器, selector为空时使用默认容器选择器
func NewListingExtractor(selector string) *ListingExtractor {
	if selector == "" {
		selector = models.DefaultListingSelector
	}
	return &ListingExtractor{selector: selector}
}

// Extract 按文档顺序返回容器直接子元素的href(绝对URL)
// 容器不存在时返回空列表; 没有href的子元素是装饰性的,直接跳过; 不去重
func (le *ListingExtractor) Extract(doc *goquery.Document) []string {
	urls := make([]string, 0)

	container := doc.Find(le.selector).First()
	if container.Length() == 0 {
		utils.Warnf("列表页中未找到容器: %s", le.selector)
		return urls
	}

	container.Children().Each(func(_ int, child *goquery.Selection) {
		href, ok := child.Attr("href")
		if !ok {
			return
		}
		absURL, err := models.ResolveURL(doc.Url, href)
		if err != nil {
			utils.Warnf("跳过无效链接: %v", err)
			return
		}
		urls = append(urls, absURL)
	})

	return urls
}
