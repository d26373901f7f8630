package core

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"github.com/RecoveryAshes/ContactCrawl/internal/utils"
)

// DefaultCSVFile 默认导出文件名
const DefaultCSVFile = "amocrm-partner-contacts.csv"

// PhoneNormalizer 电话号码规范化
type PhoneNormalizer interface {
	Normalize(raw string) string
}

// CSVExporter 把联系人导出为CSV
// 每行: url, 网站..., 邮箱..., 城市..., 电话...
// 每个分组按所有联系人中该分组的最大长度用空串补齐,保证列对齐
type CSVExporter struct {
	normalizer PhoneNormalizer
}

// NewCSVExporter 创建导出器, normalizer为nil时电话原样输出
func NewCSVExporter(normalizer PhoneNormalizer) *CSVExporter {
	return &CSVExporter{normalizer: normalizer}
}

type groupWidths struct {
	websites, emails, cities, phones int
}

func measure(contacts []models.Contact) groupWidths {
	var w groupWidths
	for _, c := range contacts {
		w.websites = max(w.websites, len(c.Websites))
		w.emails = max(w.emails, len(c.Emails))
		w.cities = max(w.cities, len(c.Cities))
		w.phones = max(w.phones, len(c.Phones))
	}
	return w
}

// Rows 生成CSV行,顺序与输入一致
func (e *CSVExporter) Rows(contacts []models.Contact) [][]string {
	widths := measure(contacts)
	rows := make([][]string, 0, len(contacts))

	for _, c := range contacts {
		phones := make([]string, len(c.Phones))
		for i, p := range c.Phones {
			if e.normalizer != nil {
				p = e.normalizer.Normalize(p)
			}
			phones[i] = p
		}

		row := make([]string, 0, 1+widths.websites+widths.emails+widths.cities+widths.phones)
		row = append(row, c.URL)
		row = appendPadded(row, c.Websites, widths.websites)
		row = appendPadded(row, c.Emails, widths.emails)
		row = appendPadded(row, c.Cities, widths.cities)
		row = appendPadded(row, phones, widths.phones)
		rows = append(rows, row)
	}
	return rows
}

func appendPadded(row []string, values []string, width int) []string {
	row = append(row, values...)
	for i := len(values); i < width; i++ {
		row = append(row, "")
	}
	return row
}

// Write 写CSV; 没有联系人时不写任何内容
func (e *CSVExporter) Write(w io.Writer, contacts []models.Contact) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(e.Rows(contacts)); err != nil {
		return fmt.Errorf("写入CSV失败: %w", err)
	}
	return nil
}

// ExportState 导出状态中已完成的联系人, 返回导出的行数
// pending和failed的条目不导出
func (e *CSVExporter) ExportState(state *models.CrawlState, path string) (int, error) {
	contacts := state.Contacts()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("创建导出目录失败: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("创建导出文件失败: %w", err)
	}

	buf := bufio.NewWriter(file)
	if err := e.Write(buf, contacts); err != nil {
		file.Close()
		return 0, err
	}
	if err := buf.Flush(); err != nil {
		file.Close()
		return 0, fmt.Errorf("写入CSV失败: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("关闭导出文件失败: %w", err)
	}

	if skipped := state.Len() - len(contacts); skipped > 0 {
		utils.Warnf("%d 个URL未完成或失败,未导出", skipped)
	}
	utils.Infof("📄 已导出 %d 个联系人: %s", len(contacts), path)
	return len(contacts), nil
}

// ExportCheckpoint 从检查点文件导出CSV
func ExportCheckpoint(checkpointPath, csvPath string, normalizer PhoneNormalizer) (int, error) {
	_, state, err := LoadCheckpoint(checkpointPath)
	if err != nil {
		return 0, err
	}
	return NewCSVExporter(normalizer).ExportState(state, csvPath)
}
