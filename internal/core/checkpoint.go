package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"github.com/RecoveryAshes/ContactCrawl/internal/utils"
)

// CheckpointStore 检查点持久化
type CheckpointStore interface {
	Save(cp *models.Checkpoint) error
}

// FileCheckpointStore 把检查点写到目录下的 dump-<开始时间>.json
// 同一次运行的所有检查点覆盖同一个文件
type FileCheckpointStore struct {
	dir string
}

// NewFileCheckpointStore 创建文件检查点存储
func NewFileCheckpointStore(dir string) *FileCheckpointStore {
	return &FileCheckpointStore{dir: dir}
}

// Path 返回某次运行的检查点文件路径
func (s *FileCheckpointStore) Path(run models.RunInfo) string {
	return filepath.Join(s.dir, run.CheckpointFilename())
}

// Save 原子写入检查点
func (s *FileCheckpointStore) Save(cp *models.Checkpoint) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("创建检查点目录失败: %w", err)
	}

	path := s.Path(cp.Run())
	if err := cp.SaveToFile(path); err != nil {
		return fmt.Errorf("保存检查点失败 [%s]: %w", path, err)
	}

	utils.Debugf("💾 检查点已保存: %s (完成 %d/%d)", path, cp.Stats.DoneURLs, cp.Stats.TotalURLs)
	return nil
}

// LoadCheckpoint 读取检查点并还原状态
func LoadCheckpoint(path string) (*models.Checkpoint, *models.CrawlState, error) {
	cp, err := models.LoadCheckpointFromFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("加载检查点失败: %w", err)
	}

	state, err := cp.State()
	if err != nil {
		return nil, nil, fmt.Errorf("加载检查点失败 [%s]: %w", path, err)
	}

	stats := state.Stats()
	utils.Infof("📂 已加载检查点: %s (完成 %d, 失败 %d, 待处理 %d)",
		path, stats.DoneURLs, stats.FailedURLs, stats.PendingURLs)
	return cp, state, nil
}
