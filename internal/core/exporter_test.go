package core

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/RecoveryAshes/ContactCrawl/internal/models"
	"github.com/RecoveryAshes/ContactCrawl/internal/utils"
)

func sampleContacts() []models.Contact {
	a := models.NewContact("https://www.amocrm.ru/partners/a/")
	a.Websites = []string{"a.ru"}
	a.Emails = []string{"info@a.ru", "sales@a.ru"}
	a.Phones = []string{"8 (495) 123-45-67"}

	b := models.NewContact("https://www.amocrm.ru/partners/b/")
	b.Emails = []string{"b@b.ru"}
	b.Cities = []string{"г. Казань"}

	return []models.Contact{a, b}
}

func TestCSVExporter_Rows(t *testing.T) {
	tests := []struct {
		name       string
		normalizer PhoneNormalizer
		want       [][]string
	}{
		{
			name:       "按分组最大宽度补齐并规范化电话",
			normalizer: utils.NewPhoneNormalizer("RU"),
			want: [][]string{
				{"https://www.amocrm.ru/partners/a/", "a.ru", "info@a.ru", "sales@a.ru", "", "+7 495 123-45-67"},
				{"https://www.amocrm.ru/partners/b/", "", "b@b.ru", "", "г. Казань", ""},
			},
		},
		{
			name:       "不规范化电话",
			normalizer: nil,
			want: [][]string{
				{"https://www.amocrm.ru/partners/a/", "a.ru", "info@a.ru", "sales@a.ru", "", "8 (495) 123-45-67"},
				{"https://www.amocrm.ru/partners/b/", "", "b@b.ru", "", "г. Казань", ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCSVExporter(tt.normalizer).Rows(sampleContacts())
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Rows() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestCSVExporter_Write(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(utils.NewPhoneNormalizer("")).Write(&buf, sampleContacts()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := "https://www.amocrm.ru/partners/a/,a.ru,info@a.ru,sales@a.ru,,+7 495 123-45-67\n" +
		"https://www.amocrm.ru/partners/b/,,b@b.ru,,г. Казань,\n"
	if buf.String() != want {
		t.Errorf("Write() =\n%s\nwant\n%s", buf.String(), want)
	}

	buf.Reset()
	if err := NewCSVExporter(nil).Write(&buf, nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("没有联系人时应为空文件, got %q", buf.String())
	}
}

func TestCSVExporter_ExportState(t *testing.T) {
	contacts := sampleContacts()
	failed := "https://www.amocrm.ru/partners/failed/"
	pending := "https://www.amocrm.ru/partners/pending/"

	state := models.NewCrawlState([]string{contacts[0].URL, failed, pending, contacts[1].URL})
	for _, c := range contacts {
		if err := state.Resolve(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := state.Fail(failed, errors.New("HTTP 500")); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "export", DefaultCSVFile)
	exporter := NewCSVExporter(utils.NewPhoneNormalizer("RU"))

	n, err := exporter.ExportState(state, path)
	if err != nil {
		t.Fatalf("ExportState() error = %v", err)
	}
	if n != 2 {
		t.Errorf("导出行数 = %d, 未完成和失败的条目不应导出", n)
	}

	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// 重复导出结果完全一致
	if _, err := exporter.ExportState(state, path); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(path)
	if !bytes.Equal(first, second) {
		t.Error("重复导出的内容不一致")
	}
}

func TestExportCheckpoint(t *testing.T) {
	dir := t.TempDir()
	contacts := sampleContacts()

	state := models.NewCrawlState([]string{contacts[0].URL, contacts[1].URL})
	for _, c := range contacts {
		state.Resolve(c)
	}

	run := models.NewRunInfo(models.DefaultListingURL, "dot-shape")
	run.StartedAt = time.Unix(1700000000, 0)
	store := NewFileCheckpointStore(filepath.Join(dir, "checkpoints"))
	if err := store.Save(models.NewCheckpoint(run, state)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cpPath := store.Path(run)
	if filepath.Base(cpPath) != "dump-1700000000.json" {
		t.Errorf("检查点文件名 = %s", filepath.Base(cpPath))
	}

	csvPath := filepath.Join(dir, "out.csv")
	n, err := ExportCheckpoint(cpPath, csvPath, utils.NewPhoneNormalizer("RU"))
	if err != nil {
		t.Fatalf("ExportCheckpoint() error = %v", err)
	}
	if n != 2 {
		t.Errorf("导出行数 = %d", n)
	}

	var want bytes.Buffer
	NewCSVExporter(utils.NewPhoneNormalizer("RU")).Write(&want, contacts)
	got, _ := os.ReadFile(csvPath)
	if !bytes.Equal(got, want.Bytes()) {
		t.Errorf("从检查点导出的内容 =\n%s\nwant\n%s", got, want.String())
	}

	if _, err := ExportCheckpoint(filepath.Join(dir, "missing.json"), csvPath, nil); err == nil {
		t.Error("检查点不存在时应返回错误")
	}
}

func TestFileCheckpointStore_LoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	state := models.NewCrawlState([]string{"https://x.ru/1", "https://x.ru/2"})
	c := models.NewContact("https://x.ru/1")
	c.Phones = []string{"+7 999 000-00-00"}
	state.Resolve(c)
	state.Fail("https://x.ru/2", errors.New("timeout"))

	run := models.NewRunInfo("https://x.ru/", "alphabet")
	store := NewFileCheckpointStore(dir)
	if err := store.Save(models.NewCheckpoint(run, state)); err != nil {
		t.Fatal(err)
	}

	cp, loaded, err := LoadCheckpoint(store.Path(run))
	if err != nil {
		t.Fatalf("LoadCheckpoint() error = %v", err)
	}
	if cp.Run().ID != run.ID || cp.Run().Policy != "alphabet" {
		t.Errorf("运行信息 = %+v", cp.Run())
	}
	if !reflect.DeepEqual(loaded.Entries(), state.Entries()) {
		t.Errorf("条目 = %+v\nwant %+v", loaded.Entries(), state.Entries())
	}
}
