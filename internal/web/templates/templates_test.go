package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestIndex(t *testing.T) {
	var buf bytes.Buffer
	err := Index(IndexData{
		Kinds:         []Option{{Value: "official", Label: "公假单", Selected: true}, {Value: "evening", Label: "抵晚自习请假单"}},
		Organization:  "团委 <办公室>",
		SignatureDate: "xx年xx月xx日",
		MaxFileSizeMB: 10,
		Order:         []string{"经济与管理学院", "法学院"},
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	html := buf.String()

	for _, want := range []string{
		"<!doctype html>",
		`<option value="official" selected>公假单</option>`,
		`<option value="evening">抵晚自习请假单</option>`,
		"团委 &lt;办公室&gt;",
		`placeholder="xx年xx月xx日"`,
		"不超过 10 MB",
		"<li>法学院</li>",
		`id="column-fields"`,
		"order.push(f)",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, "团委 <办公室>") {
		t.Error("organization not escaped")
	}
}

func TestErrorAlert(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		want    []string
		notWant string
	}{
		{"with action", "请重新上传", []string{"<strong>文件过大</strong>", "<p>请重新上传</p>", "错误代码：FILE001"}, ""},
		{"without action", "", []string{"<strong>文件过大</strong>", "错误代码：FILE001"}, "<p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := ErrorAlert("文件过大", tt.action, "FILE001").Render(context.Background(), &buf); err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("alert missing %q in %s", w, buf.String())
				}
			}
			if tt.notWant != "" && strings.Contains(buf.String(), tt.notWant) {
				t.Errorf("alert should not contain %q", tt.notWant)
			}
		})
	}
}

func TestErrorPage(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorPage("文件过大", "", "FILE001").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	if !strings.HasPrefix(html, "<!doctype html>") || !strings.Contains(html, `<a href="/">`) {
		t.Errorf("unexpected page: %s", html)
	}
}
