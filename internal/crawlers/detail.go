package crawlers

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"golang.org/x/net/html"
)

// detailLineTags 联系人容器中被视为一行的直接子元素
const detailLineTags = "p, a, span"

// LineStrategy 从一行节点中取文本, nil表示该策略不适用
type LineStrategy func(line *goquery.Selection) *string

// DefaultLineStrategies 按从深到浅的顺序尝试:
// span>a>span, span>span, a, 节点本身
// 各层都是"第一个后代",不要求直接子元素
func DefaultLineStrategies() []LineStrategy {
	return []LineStrategy{
		descendantPath("span", "a", "span"),
		descendantPath("span", "span"),
		descendantPath("a"),
		descendantPath(),
	}
}

// DetailExtractor 从详情页提取原始片段序列
type DetailExtractor struct {
	selector   string
	strategies []LineStrategy
}

// NewDetailExtractor 创建详情页提取器, selector为空时使用默认容器选择器
func NewDetailExtractor(selector string) *DetailExtractor {
	if selector == "" {
		selector = models.DefaultDetailSelector
	}
	return &DetailExtractor{
		selector:   selector,
		strategies: DefaultLineStrategies(),
	}
}

// Extract 返回每一行的文本,顺序与文档一致
// 容器不存在时返回空序列,这不是错误: 有些详情页本来就没有联系方式
func (de *DetailExtractor) Extract(doc *goquery.Document) []*string {
	fragments := make([]*string, 0)

	container := doc.Find(de.selector).First()
	if container.Length() == 0 {
		return fragments
	}

	container.Children().Filter(detailLineTags).Each(func(_ int, line *goquery.Selection) {
		fragments = append(fragments, de.extractLine(line))
	})

	return fragments
}

// extractLine 依次尝试各策略,第一个非nil结果生效
func (de *DetailExtractor) extractLine(line *goquery.Selection) *string {
	for _, strategy := range de.strategies {
		if text := strategy(line); text != nil {
			return text
		}
	}
	return nil
}

// descendantPath 沿着逐层"第一个后代"查找,再取该节点的单一文本
func descendantPath(tags ...string) LineStrategy {
	return func(line *goquery.Selection) *string {
		current := line
		for _, tag := range tags {
			current = current.Find(tag).First()
			if current.Length() == 0 {
				return nil
			}
		}
		return nodeString(current.Get(0))
	}
}

// nodeString 节点的唯一文本:
// 唯一子节点是文本时返回该文本; 唯一子节点是元素时递归; 其他情况返回nil
func nodeString(n *html.Node) *string {
	if n == nil {
		return nil
	}
	child := n.FirstChild
	if child == nil || child.NextSibling != nil {
		return nil
	}

	switch child.Type {
	case html.TextNode:
		text := child.Data
		return &text
	case html.ElementNode:
		return nodeString(child)
	default:
		return nil
	}
}
