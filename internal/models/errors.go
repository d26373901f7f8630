package models

import (
	"errors"
	"fmt"
)

// FetchError 页面获取失败(网络错误或非2xx响应)
type FetchError struct {
	URL        string
	StatusCode int // 0 表示未收到响应
	Cause      error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("获取页面失败 [%s] (HTTP %d): %v", e.URL, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("获取页面失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ParseError 响应内容无法解析为HTML文档
type ParseError struct {
	URL   string
	Cause error
}

// Error 实现error接口
func (e *ParseError) Error() string {
	return fmt.Sprintf("解析页面失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ListingFetchError 列表页获取失败
// 致命错误: 没有可爬取的URL,整个任务中止
type ListingFetchError struct {
	URL   string
	Cause error
}

// Error 实现error接口
func (e *ListingFetchError) Error() string {
	return fmt.Sprintf("列表页获取失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ListingFetchError) Unwrap() error {
	return e.Cause
}

// DetailFetchError 详情页获取失败(单任务,非致命)
type DetailFetchError struct {
	URL   string
	Cause error
}

// Error 实现error接口
func (e *DetailFetchError) Error() string {
	return fmt.Sprintf("详情页获取失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *DetailFetchError) Unwrap() error {
	return e.Cause
}

// DetailParseError 详情页解析失败(单任务,非致命)
type DetailParseError struct {
	URL   string
	Cause error
}

// Error 实现error接口
func (e *DetailParseError) Error() string {
	return fmt.Sprintf("详情页解析失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *DetailParseError) Unwrap() error {
	return e.Cause
}

// IsFatal 判断错误是否需要中止整个爬取任务
func IsFatal(err error) bool {
	var listingErr *ListingFetchError
	return errors.As(err, &listingErr)
}

// ValidationError 头部验证错误
type ValidationError struct {
	// Field 出错的字段 ("name" 或 "value")
	Field string

	// HeaderName 头部名称
	HeaderName string

	// Reason 错误原因
	Reason string

	// Suggestion 修复建议 (可选)
	Suggestion string
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
type ConfigError struct {
	// FilePath 配置文件路径
	FilePath string

	// Cause 底层错误 (如viper.ConfigParseError)
	Cause error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
