package utils

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion 没有国际前缀的号码按俄罗斯解析
const DefaultPhoneRegion = "RU"

// PhoneNormalizer 电话号码规范化
type PhoneNormalizer struct {
	region string
}

// NewPhoneNormalizer 创建规范化器, region为空时使用默认地区
func NewPhoneNormalizer(region string) *PhoneNormalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultPhoneRegion
	}
	return &PhoneNormalizer{region: region}
}

// Region 返回解析地区
func (n *PhoneNormalizer) Region() string {
	return n.region
}

// Normalize 转换为国际格式(如 "+7 495 123-45-67")
// 无法解析或号码无效时原样返回
func (n *PhoneNormalizer) Normalize(raw string) string {
	num, err := phonenumbers.Parse(raw, n.region)
	if err != nil {
		return raw
	}
	if !phonenumbers.IsPossibleNumber(num) || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
