package classifier

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Kind 联系人字段类型
type Kind string

const (
	KindWebsite Kind = "website"
	KindEmail   Kind = "email"
	KindCity    Kind = "city"
	KindPhone   Kind = "phone"
)

// Policy 分类策略名称
// 两种策略只在第4步和兜底分组上不同
type Policy string

const (
	// PolicyDotShape 单个无空格且含点的片段视为网站,其余归入城市
	PolicyDotShape Policy = "dot-shape"
	// PolicyAlphabet 含足够多西里尔字母的片段视为城市,其余归入网站
	PolicyAlphabet Policy = "alphabet"
)

const (
	phoneAlphabet = "0123456789+()"

	DefaultCityPrefix      = "г."
	DefaultPhoneThreshold  = 3
	DefaultLetterThreshold = 3
)

var (
	emailPattern   = regexp.MustCompile(`^.+@.+\..+$`)
	websitePattern = regexp.MustCompile(`^[^ ]+\.[^ ]+$`)
	fragmentNoise  = strings.NewReplacer("\r\n", "", "</a>", "")
)

// Config 分类器配置
type Config struct {
	Policy          Policy   `mapstructure:"policy" json:"policy"`
	CityPrefixes    []string `mapstructure:"city_prefixes" json:"city_prefixes"`
	PhoneThreshold  int      `mapstructure:"phone_threshold" json:"phone_threshold"`
	LetterThreshold int      `mapstructure:"letter_threshold" json:"letter_threshold"`
}

// DefaultConfig 默认分类配置
func DefaultConfig() Config {
	return Config{
		Policy:          PolicyDotShape,
		CityPrefixes:    []string{DefaultCityPrefix},
		PhoneThreshold:  DefaultPhoneThreshold,
		LetterThreshold: DefaultLetterThreshold,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	switch c.Policy {
	case PolicyDotShape, PolicyAlphabet:
	default:
		return fmt.Errorf("未知的分类策略: %q (有效值: %s, %s)", c.Policy, PolicyDotShape, PolicyAlphabet)
	}
	if c.PhoneThreshold < 0 {
		return fmt.Errorf("电话阈值不能为负数")
	}
	if c.LetterThreshold < 0 {
		return fmt.Errorf("字母阈值不能为负数")
	}
	for _, p := range c.CityPrefixes {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("城市前缀不能为空")
		}
	}
	return nil
}

// Classifier 字段分类器,创建后只读,可被多个goroutine共享
type Classifier struct {
	policy          Policy
	cityPrefixes    []string
	phoneThreshold  int
	letterThreshold int
}

// New 按配置创建分类器
func New(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{
		policy:          cfg.Policy,
		cityPrefixes:    append([]string{}, cfg.CityPrefixes...),
		phoneThreshold:  cfg.PhoneThreshold,
		letterThreshold: cfg.LetterThreshold,
	}, nil
}

// Default 使用默认配置(dot-shape策略)的分类器
func Default() *Classifier {
	c, _ := New(DefaultConfig())
	return c
}

// Policy 当前策略名称
func (c *Classifier) Policy() Policy {
	return c.policy
}

// Preprocess 去除换行和残留的</a>,再去掉首尾空白
// 返回空字符串时调用方应丢弃该片段
func Preprocess(raw string) string {
	return strings.TrimSpace(fragmentNoise.Replace(raw))
}

// Classify 对预处理后的非空片段分类,按顺序第一个命中的规则生效
func (c *Classifier) Classify(fragment string) Kind {
	if c.hasCityPrefix(fragment) {
		return KindCity
	}
	if emailPattern.MatchString(fragment) {
		return KindEmail
	}
	if countDistinct(strings.ToLower(fragment), isPhoneRune) > c.phoneThreshold {
		return KindPhone
	}

	switch c.policy {
	case PolicyAlphabet:
		if countDistinct(strings.ToLower(fragment), isCyrillicLetter) > c.letterThreshold {
			return KindCity
		}
		return KindWebsite
	default:
		if websitePattern.MatchString(fragment) {
			return KindWebsite
		}
		return KindCity
	}
}

func (c *Classifier) hasCityPrefix(fragment string) bool {
	for _, p := range c.cityPrefixes {
		if strings.HasPrefix(fragment, p) {
			return true
		}
	}
	return false
}

// countDistinct 统计满足条件的不同字符个数
func countDistinct(s string, match func(rune) bool) int {
	seen := make(map[rune]struct{})
	for _, r := range s {
		if match(r) {
			seen[r] = struct{}{}
		}
	}
	return len(seen)
}

func isPhoneRune(r rune) bool {
	return strings.ContainsRune(phoneAlphabet, r)
}

func isCyrillicLetter(r rune) bool {
	return unicode.IsLetter(r) && unicode.Is(unicode.Cyrillic, r)
}
