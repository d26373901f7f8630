package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/ContactCrawl/internal/classifier"
	"github.com/RecoveryAshes/ContactCrawl/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
crawl:
  max_workers: 12
classify:
  policy: dot-shape
`)
	t.Setenv("CONTACTCRAWL_CRAWL_MAX_WORKERS", "24")
	t.Setenv("CONTACTCRAWL_CLASSIFY_POLICY", "alphabet")
	t.Setenv("CONTACTCRAWL_EXPORT_PHONE_REGION", "KZ")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.Crawl.MaxWorkers != 24 {
		t.Errorf("MaxWorkers = %d, 环境变量应覆盖配置文件", config.Crawl.MaxWorkers)
	}
	if config.Classify.Policy != classifier.PolicyAlphabet {
		t.Errorf("Policy = %s", config.Classify.Policy)
	}
	if config.Export.PhoneRegion != "KZ" {
		t.Errorf("PhoneRegion = %s", config.Export.PhoneRegion)
	}
	// 未设置环境变量的字段保持配置文件或默认值
	if config.Crawl.ListingURL != models.DefaultListingURL {
		t.Errorf("ListingURL = %s", config.Crawl.ListingURL)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
crawl:
  max_workers: 12
  checkpoint_every: 50
  mode: dynamic
  headers:
    X-Partner: amo
classify:
  policy: alphabet
export:
  phone_region: kz
output:
  base_dir: /tmp/contacts
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Crawl.MaxWorkers != 12 || config.Crawl.CheckpointEvery != 50 {
		t.Errorf("crawl = %+v", config.Crawl)
	}
	if config.Crawl.Mode != models.ModeDynamic {
		t.Errorf("Mode = %s", config.Crawl.Mode)
	}
	if config.Crawl.Headers["x-partner"] != "amo" {
		t.Errorf("Headers = %v", config.Crawl.Headers)
	}
	if config.Classify.Policy != classifier.PolicyAlphabet {
		t.Errorf("Policy = %s", config.Classify.Policy)
	}
	// 未配置的字段使用默认值
	if config.Crawl.ListingURL != models.DefaultListingURL {
		t.Errorf("ListingURL = %s", config.Crawl.ListingURL)
	}
	if config.Classify.PhoneThreshold != classifier.DefaultPhoneThreshold {
		t.Errorf("PhoneThreshold = %d", config.Classify.PhoneThreshold)
	}
	if config.Export.CSVFile != DefaultCSVFile {
		t.Errorf("CSVFile = %s", config.Export.CSVFile)
	}
	if config.CheckpointDir() != filepath.Join("/tmp/contacts", "checkpoints") {
		t.Errorf("CheckpointDir() = %s", config.CheckpointDir())
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"文件不存在", filepath.Join(t.TempDir(), "missing.yaml")},
		{"YAML格式错误", writeConfig(t, "crawl: [unclosed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path)
			var configErr *models.ConfigError
			if !errors.As(err, &configErr) {
				t.Errorf("期望ConfigError, got %v", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "{}"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"默认配置", func(c *Config) {}, false},
		{"未知策略", func(c *Config) { c.Classify.Policy = "vowels" }, true},
		{"未知模式", func(c *Config) { c.Crawl.Mode = "all" }, true},
		{"空电话地区", func(c *Config) { c.Export.PhoneRegion = "" }, true},
		{"空输出目录", func(c *Config) { c.Output.BaseDir = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *config
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_MergeCLIFlags(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "crawl:\n  max_workers: 4\n"))
	if err != nil {
		t.Fatal(err)
	}

	config.MergeCLIFlags("https://example.com/partners/", 0, 10, "", "alphabet", "", "debug")

	if config.Crawl.ListingURL != "https://example.com/partners/" {
		t.Errorf("ListingURL = %s", config.Crawl.ListingURL)
	}
	if config.Crawl.MaxWorkers != 4 {
		t.Errorf("未指定的参数不应覆盖配置: MaxWorkers = %d", config.Crawl.MaxWorkers)
	}
	if config.Crawl.CheckpointEvery != 10 || config.Classify.Policy != classifier.PolicyAlphabet {
		t.Errorf("命令行参数未生效: %+v %+v", config.Crawl, config.Classify)
	}
	if config.Crawl.Mode != models.ModeStatic || config.Output.BaseDir != "output" {
		t.Errorf("默认值被意外修改: %s %s", config.Crawl.Mode, config.Output.BaseDir)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s", config.Logging.Level)
	}
}
