package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"
)

func TestResolveTag(t *testing.T) {
	tests := []struct {
		name   string
		target string
		accept string
		want   language.Tag
	}{
		{name: "fallback", target: "/", want: language.English},
		{name: "accept language", target: "/", accept: "zh-CN,zh;q=0.9", want: language.SimplifiedChinese},
		{name: "query wins", target: "/?lang=en", accept: "zh-CN", want: language.English},
		{name: "bad query falls through", target: "/?lang=!!", accept: "zh", want: language.SimplifiedChinese},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			if got := ResolveTag(req, language.English); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestText(t *testing.T) {
	if got := Text(language.English, KeySeatTaken); got != "That seat is taken." {
		t.Errorf("Unexpected English text: %q", got)
	}
	if got := Text(language.SimplifiedChinese, KeySeatTaken); got != "该座位已被占用。" {
		t.Errorf("Unexpected Chinese text: %q", got)
	}
}

func TestEveryKeyTranslated(t *testing.T) {
	for key := range translations {
		for _, tag := range Supported() {
			if got := Text(tag, key); got == key || got == "" {
				t.Errorf("Key %q has no %v translation", key, tag)
			}
		}
	}
}
