package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator resolves message keys for a single language.
type Translator struct {
	translations map[string]string
}

func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", fmt.Sprintf("%s.yaml", langCode))
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("read translation file %s: %w", filePath, err)
	}
	return newTranslatorFromBytes(data)
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

// T resolves key, formatting args with fmt.Sprintf. Unknown keys come back
// as the key itself so a missing translation is visible in the chat instead
// of silently dropping the message.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Bundle holds one Translator per supported language.
type Bundle struct {
	defaultLang string
	translators map[string]*Translator
}

func NewBundle(fsys fs.FS, defaultLang string, langs ...string) (*Bundle, error) {
	b := &Bundle{
		defaultLang: defaultLang,
		translators: make(map[string]*Translator),
	}
	for _, lang := range append([]string{defaultLang}, langs...) {
		if _, ok := b.translators[lang]; ok {
			continue
		}
		tr, err := NewTranslator(fsys, lang)
		if err != nil {
			return nil, err
		}
		b.translators[lang] = tr
	}
	return b, nil
}

// Pick returns the translator for lang, falling back to the default language.
func (b *Bundle) Pick(lang string) *Translator {
	if tr, ok := b.translators[lang]; ok {
		return tr
	}
	return b.translators[b.defaultLang]
}

// Supported reports whether lang has its own translator.
func (b *Bundle) Supported(lang string) bool {
	_, ok := b.translators[lang]
	return ok
}

func (b *Bundle) Default() string { return b.defaultLang }

// Languages lists the loaded language codes in stable order.
func (b *Bundle) Languages() []string {
	langs := make([]string, 0, len(b.translators))
	for lang := range b.translators {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
