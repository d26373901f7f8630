package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/ContactCrawl/internal/classifier"
	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"github.com/RecoveryAshes/ContactCrawl/internal/utils"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Crawl    models.CrawlConfig `mapstructure:"crawl"`
	Classify classifier.Config  `mapstructure:"classify"`
	Export   ExportConfig       `mapstructure:"export"`
	Logging  LoggingConfig      `mapstructure:"logging"`
	Output   OutputConfig       `mapstructure:"output"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	CSVFile     string `mapstructure:"csv_file"`
	PhoneRegion string `mapstructure:"phone_region"`
	Enabled     bool   `mapstructure:"enabled"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".contactcrawl"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 环境变量覆盖配置文件, 如 CONTACTCRAWL_CRAWL_MAX_WORKERS
	v.SetEnvPrefix("CONTACTCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
		utils.Debugf("未找到配置文件,使用默认配置")
	} else {
		utils.Debugf("已加载配置文件: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: fmt.Errorf("解析配置文件失败: %w", err)}
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	crawl := models.DefaultCrawlConfig()
	v.SetDefault("crawl.listing_url", crawl.ListingURL)
	v.SetDefault("crawl.listing_selector", crawl.ListingSelector)
	v.SetDefault("crawl.detail_selector", crawl.DetailSelector)
	v.SetDefault("crawl.max_workers", crawl.MaxWorkers)
	v.SetDefault("crawl.max_workers_limit", crawl.MaxWorkersLimit)
	v.SetDefault("crawl.checkpoint_every", crawl.CheckpointEvery)
	v.SetDefault("crawl.request_timeout", crawl.RequestTimeout)
	v.SetDefault("crawl.mode", string(crawl.Mode))
	v.SetDefault("crawl.headless", crawl.Headless)

	// 分类配置默认值
	classify := classifier.DefaultConfig()
	v.SetDefault("classify.policy", string(classify.Policy))
	v.SetDefault("classify.city_prefixes", classify.CityPrefixes)
	v.SetDefault("classify.phone_threshold", classify.PhoneThreshold)
	v.SetDefault("classify.letter_threshold", classify.LetterThreshold)

	// 导出配置默认值
	v.SetDefault("export.csv_file", DefaultCSVFile)
	v.SetDefault("export.phone_region", utils.DefaultPhoneRegion)
	v.SetDefault("export.enabled", true)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.Crawl.Validate(); err != nil {
		return fmt.Errorf("crawl配置无效: %w", err)
	}
	if err := c.Classify.Validate(); err != nil {
		return fmt.Errorf("classify配置无效: %w", err)
	}
	if strings.TrimSpace(c.Export.PhoneRegion) == "" {
		return fmt.Errorf("export.phone_region不能为空")
	}
	if strings.TrimSpace(c.Output.BaseDir) == "" {
		return fmt.Errorf("output.base_dir不能为空")
	}
	return nil
}

// GetCrawlConfig 从配置中提取爬取配置
func (c *Config) GetCrawlConfig() models.CrawlConfig {
	return c.Crawl
}

// GetLogConfig 转换为日志系统配置
func (c *Config) GetLogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}

// CheckpointDir 检查点目录
func (c *Config) CheckpointDir() string {
	return filepath.Join(c.Output.BaseDir, "checkpoints")
}

// ReportDir 报告目录
func (c *Config) ReportDir() string {
	return filepath.Join(c.Output.BaseDir, "reports")
}

// MergeCLIFlags 合并命令行参数到配置
// 空字符串和非正数表示未指定,保留配置文件中的值
func (c *Config) MergeCLIFlags(
	listingURL string,
	maxWorkers int,
	checkpointEvery int,
	mode string,
	policy string,
	outputDir string,
	logLevel string,
) {
	// 命令行参数优先于配置文件
	if listingURL != "" {
		c.Crawl.ListingURL = listingURL
	}
	if maxWorkers > 0 {
		c.Crawl.MaxWorkers = maxWorkers
	}
	if checkpointEvery > 0 {
		c.Crawl.CheckpointEvery = checkpointEvery
	}
	if mode != "" {
		c.Crawl.Mode = models.CrawlMode(mode)
	}
	if policy != "" {
		c.Classify.Policy = classifier.Policy(policy)
	}
	if outputDir != "" {
		c.Output.BaseDir = outputDir
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
}
