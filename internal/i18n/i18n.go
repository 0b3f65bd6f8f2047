// Package i18n localizes the texts shown on the lock surface. Translations
// are YAML files embedded into the binary; English is the fallback.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// UI message IDs. Error texts use the IDs declared by package unlock.
const (
	MsgLockTitle                = "LockTitle"
	MsgSecretLabel              = "SecretLabel"
	MsgStatusAwaitingInput      = "StatusAwaitingInput"
	MsgStatusVerifyingSecret    = "StatusVerifyingSecret"
	MsgStatusVerifyingBiometric = "StatusVerifyingBiometric"
	MsgStatusUnlocked           = "StatusUnlocked"
	MsgHelpKeys                 = "HelpKeys"
	MsgHelpPrompt               = "HelpPrompt"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// NewBundle parses every embedded locale file.
func NewBundle() (*goi18n.Bundle, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile(path.Join("locales", f.Name()))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", f.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, f.Name()); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", f.Name(), err)
		}
	}
	return bundle, nil
}

// Localizer translates message IDs into one language.
type Localizer struct {
	l *goi18n.Localizer
}

// New returns a Localizer for the preferred languages langs (BCP 47 tags or
// Accept-Language strings), falling back to English.
func New(langs ...string) (*Localizer, error) {
	bundle, err := NewBundle()
	if err != nil {
		return nil, err
	}
	return &Localizer{l: goi18n.NewLocalizer(bundle, langs...)}, nil
}

// Localize renders id with data. Unknown IDs come back unchanged.
func (lz *Localizer) Localize(id string, data map[string]any) string {
	msg, err := lz.l.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return msg
}

// T renders id without template data.
func (lz *Localizer) T(id string) string {
	return lz.Localize(id, nil)
}
