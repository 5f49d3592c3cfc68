package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLang is used when a user's language has no locale file.
const DefaultLang = "uz"

type Translator struct {
	translations map[string]string
}

func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", langCode+".yaml")
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	return newTranslatorFromBytes(data)
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

func (t *Translator) lookup(key string) (string, bool) {
	v, ok := t.translations[key]
	return v, ok
}

// T returns the formatted string for key, or key itself when missing.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.lookup(key)
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Bundle resolves strings per language and falls back to DefaultLang.
type Bundle struct {
	langs map[string]*Translator
}

// NewBundle loads every *.yaml under locales/ in fsys. DefaultLang must be present.
func NewBundle(fsys fs.FS) (*Bundle, error) {
	entries, err := fs.ReadDir(fsys, "locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	b := &Bundle{langs: make(map[string]*Translator)}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		lang := strings.TrimSuffix(name, ".yaml")
		tr, err := NewTranslator(fsys, lang)
		if err != nil {
			return nil, err
		}
		b.langs[lang] = tr
	}
	if _, ok := b.langs[DefaultLang]; !ok {
		return nil, fmt.Errorf("locale %q is missing", DefaultLang)
	}
	return b, nil
}

// MustDefault loads the embedded locales and panics on a broken build.
func MustDefault() *Bundle {
	b, err := NewBundle(LocalesFS)
	if err != nil {
		panic(err)
	}
	return b
}

// T translates key for lang. Region suffixes are ignored ("en-US" reads "en").
func (b *Bundle) T(lang, key string, args ...interface{}) string {
	lang = strings.ToLower(lang)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if tr, ok := b.langs[lang]; ok {
		if _, found := tr.lookup(key); found {
			return tr.T(key, args...)
		}
	}
	return b.langs[DefaultLang].T(key, args...)
}

// Has reports whether a locale file exists for lang.
func (b *Bundle) Has(lang string) bool {
	_, ok := b.langs[strings.ToLower(lang)]
	return ok
}
