package core

import (
	"errors"
	"testing"

	"github.com/RecoveryAshes/ContactCrawl/internal/models"
)

func TestHeaderManager_GetMergedHeaders(t *testing.T) {
	tests := []struct {
		name          string
		configHeaders map[string]string
		cliHeaders    []string
		header        string
		want          string
	}{
		{"默认User-Agent", nil, nil, "User-Agent", DefaultUserAgent},
		{"配置覆盖默认", map[string]string{"user-agent": "ConfigBot/1.0"}, nil, "User-Agent", "ConfigBot/1.0"},
		{"命令行覆盖配置", map[string]string{"user-agent": "ConfigBot/1.0"}, []string{"User-Agent: CliBot/2.0"}, "User-Agent", "CliBot/2.0"},
		{"配置新增头部", map[string]string{"x-partner": "amo"}, nil, "X-Partner", "amo"},
		{"命令行新增头部", nil, []string{"Cookie: session=abc"}, "Cookie", "session=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hm, err := NewHeaderManager(tt.configHeaders, tt.cliHeaders)
			if err != nil {
				t.Fatalf("创建HeaderManager失败: %v", err)
			}
			if got := hm.GetMergedHeaders().Get(tt.header); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestHeaderManager_GetSafeHeaders(t *testing.T) {
	hm, err := NewHeaderManager(nil, []string{
		"User-Agent: CustomBot/1.0",
		"Authorization: Bearer secret-token-12345",
		"X-API-Key: api-key-67890",
	})
	if err != nil {
		t.Fatalf("创建HeaderManager失败: %v", err)
	}

	safe := hm.GetSafeHeaders()
	if safe["User-Agent"] != "CustomBot/1.0" {
		t.Error("普通头部不应该被脱敏")
	}
	if safe["Authorization"] != "Bearer ***" {
		t.Errorf("Authorization = %q", safe["Authorization"])
	}
	if safe["X-Api-Key"] != "api-***7890" {
		t.Errorf("X-Api-Key = %q", safe["X-Api-Key"])
	}
}

func TestHeaderManager_GetHeaders(t *testing.T) {
	t.Run("格式错误的命令行参数", func(t *testing.T) {
		if _, err := NewHeaderManager(nil, []string{"InvalidFormat"}); err == nil {
			t.Error("期望返回错误, 但成功了")
		}
	})

	t.Run("禁止头部返回验证错误", func(t *testing.T) {
		hm, err := NewHeaderManager(nil, []string{"Host: example.com"})
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		_, err = hm.GetHeaders()
		var validationErr *models.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("期望ValidationError, 得到 %v", err)
		}
		// 错误会被缓存
		if _, err := hm.GetHeaders(); err == nil {
			t.Error("第二次调用也应该返回错误")
		}
	})

	t.Run("返回副本", func(t *testing.T) {
		hm, err := NewHeaderManager(nil, []string{"X-Custom: test-value"})
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		first, err := hm.GetHeaders()
		if err != nil {
			t.Fatalf("GetHeaders失败: %v", err)
		}
		first.Set("X-Custom", "changed")

		second, _ := hm.GetHeaders()
		if second.Get("X-Custom") != "test-value" {
			t.Errorf("修改返回值影响了后续调用: %q", second.Get("X-Custom"))
		}
	})
}
