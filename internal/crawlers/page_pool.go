package crawlers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// ErrPoolClosed 标签页池已关闭
var ErrPoolClosed = errors.New("标签页池已关闭")

// PagePool 渲染用的标签页池
// 标签页按需创建,同时存在的数量不超过maxSize(等于worker数);
// 出错的标签页销毁后腾出名额,等待中的worker会重建一个新的
type PagePool struct {
	idle  chan *rod.Page
	freed chan struct{}
	done  chan struct{}

	open     func() (*rod.Page, error)
	closeTab func(*rod.Page) error
	monitor  *ResourceMonitor

	mu      sync.Mutex
	live    int
	maxSize int
	closed  bool
}

// NewPagePool 创建标签页池, setup在每个新标签页上执行一次(例如设置请求头)
func NewPagePool(browser *rod.Browser, maxSize int, monitor *ResourceMonitor, setup func(*rod.Page) error) *PagePool {
	open := func() (*rod.Page, error) {
		page, err := browser.Page(proto.TargetCreateTarget{})
		if err != nil {
			return nil, fmt.Errorf("创建标签页失败(浏览器可能已崩溃): %w", err)
		}
		if setup != nil {
			if err := setup(page); err != nil {
				_ = page.Close()
				return nil, fmt.Errorf("初始化标签页失败: %w", err)
			}
		}
		return page, nil
	}
	return newPagePool(maxSize, monitor, open, func(p *rod.Page) error { return p.Close() })
}

func newPagePool(maxSize int, monitor *ResourceMonitor, open func() (*rod.Page, error), closeTab func(*rod.Page) error) *PagePool {
	if maxSize < 1 {
		maxSize = 1
	}
	return &PagePool{
		idle:     make(chan *rod.Page, maxSize),
		freed:    make(chan struct{}, maxSize),
		done:     make(chan struct{}),
		open:     open,
		closeTab: closeTab,
		monitor:  monitor,
		maxSize:  maxSize,
	}
}

// AcquirePage 取一个标签页: 优先复用空闲的,其次新建,都不行就等待
func (pp *PagePool) AcquirePage(ctx context.Context) (*rod.Page, error) {
	select {
	case page := <-pp.idle:
		return page, nil
	default:
	}

	page, ok, err := pp.tryOpen(true)
	if err != nil || ok {
		return page, err
	}
	return pp.wait(ctx)
}

func (pp *PagePool) wait(ctx context.Context) (*rod.Page, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-pp.done:
			return nil, ErrPoolClosed
		case page := <-pp.idle:
			return page, nil
		case <-pp.freed:
			// 腾出的名额直接重建,不再检查资源
			page, ok, err := pp.tryOpen(false)
			if err != nil || ok {
				return page, err
			}
		}
	}
}

// tryOpen 有名额时新建标签页; ok=false表示需要等待
// 第一个标签页总是允许创建,之后按需检查系统资源
func (pp *PagePool) tryOpen(checkResources bool) (*rod.Page, bool, error) {
	pp.mu.Lock()
	if pp.closed {
		pp.mu.Unlock()
		return nil, false, ErrPoolClosed
	}
	if pp.live >= pp.maxSize {
		pp.mu.Unlock()
		return nil, false, nil
	}
	if checkResources && pp.live > 0 && pp.monitor != nil {
		if ok, reason := pp.monitor.CheckResourceAvailability(); !ok {
			pp.mu.Unlock()
			log.Debug().Msgf("暂不创建新标签页(%s),等待空闲标签页", reason)
			return nil, false, nil
		}
	}
	pp.live++
	live := pp.live
	pp.mu.Unlock()

	page, err := pp.open()
	if err != nil {
		pp.mu.Lock()
		pp.live--
		pp.mu.Unlock()
		log.Error().Err(err).Msg("创建标签页失败")
		return nil, false, err
	}

	log.Debug().Int("tabs", live).Int("max", pp.maxSize).Msg("新建标签页")
	return page, true, nil
}

// ReleasePage 归还标签页
// 导航出错的标签页(broken=true)状态不可信,直接销毁
func (pp *PagePool) ReleasePage(page *rod.Page, broken bool) {
	if page == nil {
		return
	}

	pp.mu.Lock()
	if !pp.closed && !broken {
		// live不超过maxSize,idle不会满
		select {
		case pp.idle <- page:
			pp.mu.Unlock()
			return
		default:
		}
	}
	pp.live--
	pp.mu.Unlock()

	pp.destroy(page)
	select {
	case pp.freed <- struct{}{}:
	default:
	}
}

func (pp *PagePool) destroy(page *rod.Page) {
	if err := pp.closeTab(page); err != nil {
		log.Warn().Err(err).Msg("关闭标签页失败")
	}
}

// CurrentSize 当前存在的标签页数(空闲+使用中)
func (pp *PagePool) CurrentSize() int {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	return pp.live
}

// MaxSize 允许的最大标签页数
func (pp *PagePool) MaxSize() int {
	return pp.maxSize
}

// Close 关闭空闲标签页; 使用中的标签页在归还时关闭
func (pp *PagePool) Close() error {
	pp.mu.Lock()
	if pp.closed {
		pp.mu.Unlock()
		return nil
	}
	pp.closed = true
	close(pp.done)

	var idle []*rod.Page
	for {
		select {
		case page := <-pp.idle:
			idle = append(idle, page)
			continue
		default:
		}
		break
	}
	pp.live -= len(idle)
	pp.mu.Unlock()

	for _, page := range idle {
		pp.destroy(page)
	}
	log.Debug().Int("closed_tabs", len(idle)).Msg("标签页池已关闭")
	return nil
}
