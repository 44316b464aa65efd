// Package i18n translates user-facing messages.
package i18n

import (
	"embed"
	"encoding/json"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// LocaleFiles are the message files loaded from the embedded filesystem
var LocaleFiles = []string{
	"locales/en-us.json",
	"locales/ko-kr.json",
}

var (
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
)

// Init loads the embedded message files and selects lang. Missing files are
// skipped; the first load error is returned after every file was tried.
func Init(localeFS embed.FS, lang string) error {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	var firstErr error
	for _, f := range LocaleFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, f); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	localizer = i18n.NewLocalizer(bundle, lang)
	return firstErr
}

// T translates a message by its ID with optional template data and plural
// count. Unknown IDs, and every ID before Init, come back unchanged.
func T(messageID string, templateData map[string]any, pluralCount ...int) string {
	if localizer == nil {
		return messageID
	}

	config := &i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: templateData,
	}
	if len(pluralCount) > 0 {
		config.PluralCount = pluralCount[0]
	}

	msg, err := localizer.Localize(config)
	if err != nil {
		return messageID
	}
	return msg
}

// SetLocale changes the current locale
func SetLocale(lang string) {
	if bundle == nil {
		return
	}
	localizer = i18n.NewLocalizer(bundle, lang)
}
