package crawlers

import (
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDocument(t *testing.T, rawURL string, content string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("解析HTML失败: %v", err)
	}
	if rawURL != "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			t.Fatal(err)
		}
		doc.Url = u
	}
	return doc
}

// deref 把片段转换为可比较的形式, nil 记为 "<nil>"
func deref(fragments []*string) []string {
	out := make([]string, len(fragments))
	for i, f := range fragments {
		if f == nil {
			out[i] = "<nil>"
		} else {
			out[i] = *f
		}
	}
	return out
}

func TestListingExtractor_Extract(t *testing.T) {
	page := `<html><body>
<div class="partners-list__container">
  <a href="/partners/one/">One</a>
  <div class="partners-list__banner">广告</div>
  <a href="/partners/two/">Two</a>
  text node
  <a href="https://other.example/three">Three</a>
  <a href="/partners/one/">重复</a>
</div>
<div class="partners-list__container"><a href="/partners/second-container/">x</a></div>
</body></html>`

	doc := mustDocument(t, "https://www.amocrm.ru/partners/", page)
	got := NewListingExtractor("").Extract(doc)

	want := []string{
		"https://www.amocrm.ru/partners/one/",
		"https://www.amocrm.ru/partners/two/",
		"https://other.example/three",
		"https://www.amocrm.ru/partners/one/",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestListingExtractor_MissingContainer(t *testing.T) {
	doc := mustDocument(t, "https://www.amocrm.ru/partners/", `<html><body><p>维护中</p></body></html>`)

	got := NewListingExtractor("").Extract(doc)
	if got == nil || len(got) != 0 {
		t.Errorf("容器不存在时应返回空列表, got %#v", got)
	}
}

func TestDetailExtractor_Extract(t *testing.T) {
	page := `<html><body>
<div class="partners-detail__contacts">
  <p><span><a href="http://site.ru"><span>site.ru</span></a></span></p>
  <p><span><span>+7 (495) 123-45-67</span></span></p>
  <a href="mailto:info@site.ru"> info@site.ru </a>
  <span>г. Москва</span>
  <p>text <b>bold</b></p>
  <div>不是行元素</div>
  <p><a href="#">Some</a></p>
  <p><span>x<b>y</b></span><a href="#">link</a></p>
  <p><b><i>nested</i></b></p>
</div>
</body></html>`

	doc := mustDocument(t, "https://www.amocrm.ru/partners/x/", page)
	got := deref(NewDetailExtractor("").Extract(doc))

	want := []string{
		"site.ru",
		"+7 (495) 123-45-67",
		" info@site.ru ",
		"г. Москва",
		"<nil>",
		"Some",
		"link",
		"nested",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() =\n %q\nwant\n %q", got, want)
	}
}

func TestDetailExtractor_MissingContainer(t *testing.T) {
	doc := mustDocument(t, "", `<html><body><div class="partners-detail__info">x</div></body></html>`)

	got := NewDetailExtractor("").Extract(doc)
	if got == nil || len(got) != 0 {
		t.Errorf("容器不存在时应返回空序列, got %#v", got)
	}
}

func TestDetailExtractor_CustomSelector(t *testing.T) {
	doc := mustDocument(t, "", `<html><body><section id="contacts"><span>a@b.co</span></section></body></html>`)

	got := deref(NewDetailExtractor("#contacts").Extract(doc))
	if !reflect.DeepEqual(got, []string{"a@b.co"}) {
		t.Errorf("Extract() = %q", got)
	}
}

func TestNodeString(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"单一文本", `<span>abc</span>`, "abc"},
		{"单一子元素递归", `<span><b><i>abc</i></b></span>`, "abc"},
		{"多个子节点", `<span>a<b>b</b></span>`, "<nil>"},
		{"没有子节点", `<span></span>`, "<nil>"},
		{"只有注释", `<span><!-- c --></span>`, "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDocument(t, "", "<html><body>"+tt.html+"</body></html>")
			got := deref([]*string{nodeString(doc.Find("body > span").Get(0))})
			if got[0] != tt.want {
				t.Errorf("nodeString() = %q, want %q", got[0], tt.want)
			}
		})
	}
}
