// Package i18n holds the localized texts and FAQ entries shown by the bot.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	apperrors "github.com/Proton-105/cryptoassist-bot/internal/errors"
)

//go:embed locales/*.yaml
var embedded embed.FS

// ErrMissingKey is returned by Lookup when a key is undefined for a language.
var ErrMissingKey = errors.New("i18n: missing key")

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	T(key string, args ...any) string
	Lang() domain.Language
}

// FAQEntry is a localized question with its answer.
type FAQEntry struct {
	ID       string `yaml:"-"`
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type localeFile struct {
	Messages map[string]any      `yaml:"messages"`
	FAQ      map[string]FAQEntry `yaml:"faq"`
}

// Catalog stores every loaded language. It is immutable after Load.
type Catalog struct {
	messages map[domain.Language]map[string]string
	faq      map[domain.Language][]FAQEntry
	fallback domain.Language
	log      *slog.Logger
}

// Load reads the catalogs compiled into the binary.
func Load(fallback domain.Language, log *slog.Logger) (*Catalog, error) {
	return LoadFS(embedded, "locales", fallback, log)
}

// LoadFS reads every YAML file in dir of fsys.
func LoadFS(fsys fs.FS, dir string, fallback domain.Language, log *slog.Logger) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read dir %s: %w", dir, err)
	}

	c := &Catalog{
		messages: make(map[domain.Language]map[string]string),
		faq:      make(map[domain.Language][]FAQEntry),
		fallback: fallback,
		log:      log,
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		if err := c.parseFile(fsys, path.Join(dir, entry.Name())); err != nil {
			return nil, err
		}
	}

	if len(c.messages) == 0 {
		return nil, fmt.Errorf("i18n: no yaml files found in %s", dir)
	}

	if _, ok := c.messages[fallback]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", fallback)
	}

	return c, nil
}

// Text renders key for lang, substituting args into the template.
// A key missing in lang is taken from the fallback language, then the key itself is returned.
func (c *Catalog) Text(lang domain.Language, key string, args ...any) string {
	value, err := c.Lookup(lang, key)
	if err != nil {
		if c.log != nil {
			c.log.Warn("translation missing", slog.String("lang", lang.String()), slog.String("key", key))
		}

		value, err = c.Lookup(c.fallback, key)
		if err != nil {
			return key
		}
	}

	if len(args) == 0 {
		return value
	}

	return fmt.Sprintf(value, args...)
}

// Lookup returns the raw template for key without any fallback.
func (c *Catalog) Lookup(lang domain.Language, key string) (string, error) {
	if c == nil {
		return "", ErrMissingKey
	}

	if value, ok := c.messages[lang][strings.TrimSpace(key)]; ok {
		return value, nil
	}

	return "", fmt.Errorf("%w: %s/%s", ErrMissingKey, lang, key)
}

// FAQ returns the entries for lang ordered by id, falling back to the default language.
func (c *Catalog) FAQ(lang domain.Language) []FAQEntry {
	if c == nil {
		return nil
	}

	entries, ok := c.faq[lang]
	if !ok {
		entries = c.faq[c.fallback]
	}

	out := make([]FAQEntry, len(entries))
	copy(out, entries)
	return out
}

// FAQEntry finds a single entry. Unknown ids are lookup misses.
func (c *Catalog) FAQEntry(lang domain.Language, id string) (FAQEntry, error) {
	for _, entry := range c.FAQ(lang) {
		if entry.ID == id {
			return entry, nil
		}
	}

	return FAQEntry{}, apperrors.NewLookupMiss("faq "+id, KeyFAQNotFound)
}

// Languages returns all loaded languages in sorted order.
func (c *Catalog) Languages() []domain.Language {
	if c == nil {
		return nil
	}

	languages := make([]domain.Language, 0, len(c.messages))
	for lang := range c.messages {
		languages = append(languages, lang)
	}
	sort.Slice(languages, func(i, j int) bool { return languages[i] < languages[j] })
	return languages
}

// Translator binds the catalog to one language.
func (c *Catalog) Translator(lang domain.Language) Translator {
	if c == nil {
		return translator{lang: lang}
	}

	if _, ok := c.messages[lang]; !ok {
		lang = c.fallback
	}

	return translator{catalog: c, lang: lang}
}

type translator struct {
	catalog *Catalog
	lang    domain.Language
}

func (t translator) Lang() domain.Language {
	return t.lang
}

func (t translator) T(key string, args ...any) string {
	if t.catalog == nil {
		return key
	}

	return t.catalog.Text(t.lang, key, args...)
}

func (c *Catalog) parseFile(fsys fs.FS, name string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("i18n: read file %s: %w", name, err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return nil
	}

	var raw map[string]localeFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("i18n: parse file %s: %w", name, err)
	}

	for code, file := range raw {
		lang := domain.Language(strings.ToLower(strings.TrimSpace(code)))
		if lang == "" {
			continue
		}

		if c.messages[lang] == nil {
			c.messages[lang] = make(map[string]string)
		}
		flatten("", file.Messages, c.messages[lang])

		for id, entry := range file.FAQ {
			entry.ID = id
			c.faq[lang] = append(c.faq[lang], entry)
		}
		sort.Slice(c.faq[lang], func(i, j int) bool { return c.faq[lang][i].ID < c.faq[lang][j].ID })
	}

	return nil
}

func isYAML(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for key, value := range in {
		if key == "" {
			continue
		}

		nextKey := key
		if prefix != "" {
			nextKey = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			out[nextKey] = v
		case map[string]any:
			flatten(nextKey, v, out)
		}
	}
}
