//go:build !integration

package i18n

import (
	"strings"
	"testing"
)

func TestTranslator(t *testing.T) {
	contentBytes := []byte("greeting: привет\nchecking: \"проверяю @%s\"")

	translator, err := newTranslatorFromBytes(contentBytes)
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "привет" {
			t.Errorf("wanted 'привет', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted the key back, got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("checking", "charli"); got != "проверяю @charli" {
			t.Errorf("wanted 'проверяю @charli', got '%s'", got)
		}
	})
}

func TestBundle(t *testing.T) {
	bundle, err := NewBundle(LocalesFS, "ru", "en")
	if err != nil {
		t.Fatalf("NewBundle failed: %v", err)
	}

	t.Run("should load every embedded locale", func(t *testing.T) {
		langs := bundle.Languages()
		if len(langs) != 2 || langs[0] != "en" || langs[1] != "ru" {
			t.Errorf("languages = %v, want [en ru]", langs)
		}
	})

	t.Run("should pick the requested language", func(t *testing.T) {
		got := bundle.Pick("en").T("status.available")
		if !strings.Contains(got, "Available") {
			t.Errorf("english label missing, got '%s'", got)
		}
	})

	t.Run("should fall back to the default language", func(t *testing.T) {
		got := bundle.Pick("de").T("status.available")
		if !strings.Contains(got, "Доступен") {
			t.Errorf("fallback label missing, got '%s'", got)
		}
	})

	t.Run("should resolve the same keys in all locales", func(t *testing.T) {
		keys := []string{
			"start", "checking", "checking_bulk", "bulk_complete",
			"status.taken", "emoji.error", "detail.invalid_format",
			"report.title", "report.section.available",
		}
		for _, lang := range bundle.Languages() {
			tr := bundle.Pick(lang)
			for _, key := range keys {
				if tr.T(key) == key {
					t.Errorf("locale %s misses key %s", lang, key)
				}
			}
		}
	})
}
