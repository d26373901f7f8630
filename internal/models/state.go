package models

import (
	"fmt"
	"sync"
)

// EntryStatus 单个URL的处理状态
type EntryStatus string

const (
	EntryPending EntryStatus = "pending" // 未完成
	EntryDone    EntryStatus = "done"    // 已解析
	EntryFailed  EntryStatus = "failed"  // 获取或解析失败,可在恢复时重试
)

// StateEntry CrawlState中的一项
type StateEntry struct {
	URL     string      `json:"url"`
	Status  EntryStatus `json:"status"`
	Contact *Contact    `json:"contact,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CrawlState 一次爬取的URL -> Contact映射
// 键集合及顺序在创建时按列表页顺序确定,之后不会因完成顺序而改变
type CrawlState struct {
	order   []string
	entries map[string]*StateEntry
	mu      sync.RWMutex
}

// NewCrawlState 以列表页顺序创建状态,所有URL初始为pending
// 重复的URL只保留第一次出现的位置
func NewCrawlState(urls []string) *CrawlState {
	s := &CrawlState{
		order:   make([]string, 0, len(urls)),
		entries: make(map[string]*StateEntry, len(urls)),
	}
	for _, u := range urls {
		if _, exists := s.entries[u]; exists {
			continue
		}
		s.order = append(s.order, u)
		s.entries[u] = &StateEntry{URL: u, Status: EntryPending}
	}
	return s
}

// newCrawlStateFromEntries 从检查点条目重建状态
func newCrawlStateFromEntries(entries []StateEntry) (*CrawlState, error) {
	s := &CrawlState{
		order:   make([]string, 0, len(entries)),
		entries: make(map[string]*StateEntry, len(entries)),
	}
	for i, e := range entries {
		if e.URL == "" {
			return nil, fmt.Errorf("第%d项缺少URL", i+1)
		}
		if _, exists := s.entries[e.URL]; exists {
			return nil, fmt.Errorf("重复的URL: %s", e.URL)
		}
		switch e.Status {
		case EntryPending, EntryFailed:
		case EntryDone:
			if e.Contact == nil {
				return nil, fmt.Errorf("已完成的URL缺少联系人数据: %s", e.URL)
			}
		default:
			return nil, fmt.Errorf("未知状态 %q: %s", e.Status, e.URL)
		}
		entry := copyEntry(e)
		s.order = append(s.order, e.URL)
		s.entries[e.URL] = &entry
	}
	return s, nil
}

// Resolve 记录某个URL的解析结果
func (s *CrawlState) Resolve(contact Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[contact.URL]
	if !ok {
		return fmt.Errorf("URL不在本次爬取范围内: %s", contact.URL)
	}
	c := contact.Clone()
	entry.Status = EntryDone
	entry.Contact = &c
	entry.Error = ""
	return nil
}

// Fail 记录某个URL失败,已完成的条目不会被覆盖
func (s *CrawlState) Fail(url string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[url]
	if !ok {
		return fmt.Errorf("URL不在本次爬取范围内: %s", url)
	}
	if entry.Status == EntryDone {
		return nil
	}
	entry.Status = EntryFailed
	if cause != nil {
		entry.Error = cause.Error()
	}
	return nil
}

// Get 获取单个条目的副本
func (s *CrawlState) Get(url string) (StateEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[url]
	if !ok {
		return StateEntry{}, false
	}
	return copyEntry(*entry), true
}

// Len URL总数
func (s *CrawlState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// URLs 按列表页顺序返回所有URL
func (s *CrawlState) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.order...)
}

// Pending 返回尚未完成(pending或failed)的URL,保持顺序
func (s *CrawlState) Pending() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]string, 0)
	for _, u := range s.order {
		if s.entries[u].Status != EntryDone {
			pending = append(pending, u)
		}
	}
	return pending
}

// Entries 按顺序返回全部条目的快照
func (s *CrawlState) Entries() []StateEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]StateEntry, 0, len(s.order))
	for _, u := range s.order {
		result = append(result, copyEntry(*s.entries[u]))
	}
	return result
}

// Contacts 按顺序返回已完成的联系人,未完成的条目被排除
func (s *CrawlState) Contacts() []Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contacts := make([]Contact, 0, len(s.order))
	for _, u := range s.order {
		entry := s.entries[u]
		if entry.Status == EntryDone && entry.Contact != nil {
			contacts = append(contacts, entry.Contact.Clone())
		}
	}
	return contacts
}

// Stats 统计各状态数量
func (s *CrawlState) Stats() CrawlStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := CrawlStats{TotalURLs: len(s.order)}
	for _, u := range s.order {
		switch s.entries[u].Status {
		case EntryDone:
			stats.DoneURLs++
		case EntryFailed:
			stats.FailedURLs++
		default:
			stats.PendingURLs++
		}
	}
	return stats
}

// IsTerminal 所有URL都已完成或失败
func (s *CrawlState) IsTerminal() bool {
	return s.Stats().PendingURLs == 0
}

func copyEntry(e StateEntry) StateEntry {
	out := e
	if e.Contact != nil {
		c := e.Contact.Clone()
		out.Contact = &c
	}
	return out
}
