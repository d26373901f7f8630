package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLogConfig(t *testing.T, level string) LogConfig {
	t.Helper()
	return LogConfig{
		Level:      level,
		LogDir:     t.TempDir(),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   false,
		Console:    &bytes.Buffer{},
	}
}

func readLog(t *testing.T, dir, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	return string(content)
}

func TestInitLogger(t *testing.T) {
	config := newTestLogConfig(t, "debug")
	config.LogDir = filepath.Join(config.LogDir, "nested", "logs")

	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	if _, err := os.Stat(config.LogDir); os.IsNotExist(err) {
		t.Errorf("日志目录未创建: %s", config.LogDir)
	}

	Info("测试信息日志")
	Warn("测试警告日志")
	Debug("测试调试日志")

	content := readLog(t, config.LogDir, MainLogFile)
	for _, msg := range []string{"测试信息日志", "测试警告日志", "测试调试日志"} {
		if !strings.Contains(content, msg) {
			t.Errorf("主日志缺少 %q", msg)
		}
	}
}

func TestLogLevels(t *testing.T) {
	config := newTestLogConfig(t, "info")
	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	Infof("格式化信息日志: %s", "测试")
	Warnf("格式化警告日志: %d", 123)
	Debugf("格式化调试日志: %v", true)

	content := readLog(t, config.LogDir, MainLogFile)
	if !strings.Contains(content, "格式化信息日志: 测试") {
		t.Error("info日志未写入")
	}
	if !strings.Contains(content, "格式化警告日志: 123") {
		t.Error("warn日志未写入")
	}
	if strings.Contains(content, "格式化调试日志") {
		t.Error("info级别下不应写入debug日志")
	}
}

func TestErrorLogOnlyErrors(t *testing.T) {
	config := newTestLogConfig(t, "debug")
	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	Warn("只是警告")
	Errorf("真正的错误: %s", "磁盘已满")

	content := readLog(t, config.LogDir, ErrorLogFile)
	if strings.Contains(content, "只是警告") {
		t.Error("错误日志不应包含warn级别")
	}
	if !strings.Contains(content, "真正的错误: 磁盘已满") {
		t.Error("错误日志缺少error级别")
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != "info" {
		t.Errorf("默认日志级别错误: 期望 'info', 得到 '%s'", config.Level)
	}
	if config.LogDir != "logs" {
		t.Errorf("默认日志目录错误: 期望 'logs', 得到 '%s'", config.LogDir)
	}
	if config.MaxSize != 10 || config.MaxBackups != 3 || config.MaxAge != 28 {
		t.Errorf("默认轮转参数错误: %+v", config)
	}
	if !config.Compress {
		t.Error("默认应该启用压缩")
	}
}

func TestChineseLogOutput(t *testing.T) {
	config := newTestLogConfig(t, "info")
	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	chineseMsg := "这是一条中文日志消息 г. Москва"
	Info(chineseMsg)

	if content := readLog(t, config.LogDir, MainLogFile); !strings.Contains(content, chineseMsg) {
		t.Errorf("非ASCII日志未正确写入: %s", content)
	}
}

func TestSetRunAndURLFailure(t *testing.T) {
	console := &bytes.Buffer{}
	config := newTestLogConfig(t, "info")
	config.Console = console
	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	SetRun("run-42", "alphabet")
	URLFailure("https://www.amocrm.ru/partners/a/", errors.New("timeout"))

	content := readLog(t, config.LogDir, MainLogFile)
	for _, want := range []string{
		`"run_id":"run-42"`,
		`"policy":"alphabet"`,
		`"url":"https://www.amocrm.ru/partners/a/"`,
		`"error":"timeout"`,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("主日志缺少 %s: %s", want, content)
		}
	}

	if strings.Contains(console.String(), "run-42") {
		t.Error("控制台输出不应包含run_id")
	}
	if !strings.Contains(console.String(), "timeout") {
		t.Error("控制台输出缺少失败原因")
	}

	// 重新设置运行时替换而不是叠加字段
	SetRun("run-43", "dot-shape")
	Info("第二次运行")
	content = readLog(t, config.LogDir, MainLogFile)
	last := content[strings.LastIndex(content, `{"level"`):]
	if strings.Contains(last, "run-42") || !strings.Contains(last, `"run_id":"run-43"`) {
		t.Errorf("SetRun应替换运行信息: %s", last)
	}
}
