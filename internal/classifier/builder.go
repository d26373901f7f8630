package classifier

import (
	"github.com/RecoveryAshes/ContactCrawl/internal/models"
)

// Builder 把详情页片段序列折叠成Contact
type Builder struct {
	classifier *Classifier
}

// NewBuilder 创建构建器, c 为nil时使用默认分类器
func NewBuilder(c *Classifier) *Builder {
	if c == nil {
		c = Default()
	}
	return &Builder{classifier: c}
}

// Classifier 返回构建器使用的分类器
func (b *Builder) Classifier() *Classifier {
	return b.classifier
}

// Build 构建联系人记录,不会失败
// nil片段和预处理后为空的片段被跳过,其余按文档顺序追加到对应分组
func (b *Builder) Build(sourceURL string, fragments []*string) models.Contact {
	contact := models.NewContact(sourceURL)

	for _, raw := range fragments {
		if raw == nil {
			continue
		}
		fragment := Preprocess(*raw)
		if fragment == "" {
			continue
		}

		switch b.classifier.Classify(fragment) {
		case KindWebsite:
			contact.Websites = append(contact.Websites, fragment)
		case KindEmail:
			contact.Emails = append(contact.Emails, fragment)
		case KindPhone:
			contact.Phones = append(contact.Phones, fragment)
		default:
			contact.Cities = append(contact.Cities, fragment)
		}
	}

	return contact
}
