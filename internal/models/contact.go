package models

import (
	"fmt"
	"strings"
)

// Contact 单个详情页的联系人记录
// 四个分组按源文档中出现的顺序追加,不去重
type Contact struct {
	URL      string   `json:"url"`      // 详情页URL(唯一键)
	Websites []string `json:"websites"` // 网站
	Emails   []string `json:"emails"`   // 邮箱
	Cities   []string `json:"cities"`   // 城市/地址
	Phones   []string `json:"phones"`   // 电话(原始文本,导出时再规范化)
}

// NewContact 创建空联系人,所有分组初始化为空切片
func NewContact(url string) Contact {
	return Contact{
		URL:      url,
		Websites: []string{},
		Emails:   []string{},
		Cities:   []string{},
		Phones:   []string{},
	}
}

// FieldCount 返回已分类的片段总数
func (c Contact) FieldCount() int {
	return len(c.Websites) + len(c.Emails) + len(c.Cities) + len(c.Phones)
}

// Clone 深拷贝,快照不与状态共享底层数组
func (c Contact) Clone() Contact {
	return Contact{
		URL:      c.URL,
		Websites: append([]string{}, c.Websites...),
		Emails:   append([]string{}, c.Emails...),
		Cities:   append([]string{}, c.Cities...),
		Phones:   append([]string{}, c.Phones...),
	}
}

// String 用于进度日志
func (c Contact) String() string {
	return fmt.Sprintf("Contact(url=%s, websites=[%s], emails=[%s], cities=[%s], phones=[%s])",
		c.URL,
		strings.Join(c.Websites, ", "),
		strings.Join(c.Emails, ", "),
		strings.Join(c.Cities, ", "),
		strings.Join(c.Phones, ", "),
	)
}
