package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CheckpointVersion 检查点格式版本
const CheckpointVersion = 1

// Checkpoint 检查点
type Checkpoint struct {
	Version int `json:"version"`

	// 运行信息
	RunID      string `json:"run_id"`      // 运行ID
	ListingURL string `json:"listing_url"` // 列表页URL
	Policy     string `json:"policy"`      // 分类策略名称

	// 时间戳
	CreatedAt time.Time `json:"created_at"` // 爬取开始时间
	UpdatedAt time.Time `json:"updated_at"` // 最后更新时间

	// 统计信息
	Stats CrawlStats `json:"stats"`

	// 进度: 按列表页顺序的URL -> Contact
	Entries []StateEntry `json:"entries"`
}

// NewCheckpoint 从当前状态生成检查点快照
func NewCheckpoint(run RunInfo, state *CrawlState) *Checkpoint {
	return &Checkpoint{
		Version:    CheckpointVersion,
		RunID:      run.ID,
		ListingURL: run.ListingURL,
		Policy:     run.Policy,
		CreatedAt:  run.StartedAt,
		UpdatedAt:  time.Now(),
		Stats:      state.Stats(),
		Entries:    state.Entries(),
	}
}

// CheckpointFilename 生成检查点文件名
func CheckpointFilename(startedAt time.Time) string {
	return fmt.Sprintf("dump-%d.json", startedAt.Unix())
}

// Run 还原运行信息,用于恢复后继续写同一个检查点
func (c *Checkpoint) Run() RunInfo {
	return RunInfo{
		ID:         c.RunID,
		ListingURL: c.ListingURL,
		Policy:     c.Policy,
		StartedAt:  c.CreatedAt,
	}
}

// State 还原CrawlState
func (c *Checkpoint) State() (*CrawlState, error) {
	state, err := newCrawlStateFromEntries(c.Entries)
	if err != nil {
		return nil, fmt.Errorf("检查点数据无效: %w", err)
	}
	return state, nil
}

// ToJSON 序列化为JSON
func (c *Checkpoint) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// FromJSON 从JSON反序列化
func (c *Checkpoint) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}
	if c.Version != CheckpointVersion {
		return fmt.Errorf("不支持的检查点版本: %d (当前版本: %d)", c.Version, CheckpointVersion)
	}
	return nil
}

// SaveToFile 保存到文件
// 先写临时文件再重命名,中途崩溃不会留下半个检查点
func (c *Checkpoint) SaveToFile(path string) error {
	data, err := c.ToJSON()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// LoadCheckpointFromFile 从文件加载
func LoadCheckpointFromFile(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cp Checkpoint
	if err := cp.FromJSON(data); err != nil {
		return nil, fmt.Errorf("解析检查点失败 [%s]: %w", path, err)
	}

	return &cp, nil
}
