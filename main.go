package main

import (
	"embed"
	"strings"

	"github.com/danisty/LethalManager/cmd"
	"github.com/danisty/LethalManager/internal/config"
	"github.com/danisty/LethalManager/internal/i18n"
	"github.com/jeandeaual/go-locale"
	"github.com/rs/zerolog/log"
)

//go:embed locales/*.json
var localeFS embed.FS

const fallbackLocale = "en-US"

func main() {
	lang := resolveLocale(config.GetLocale())
	if err := i18n.Init(localeFS, lang); err != nil {
		log.Warn().Err(err).Str("locale", lang).Msg("Failed to load translations")
	}

	cmd.RegisterAliases()
	cmd.Execute()
}

// resolveLocale turns the configured locale into a BCP 47 tag. "auto" asks
// the operating system; POSIX forms such as "ko_KR.UTF-8" are accepted too.
func resolveLocale(configured string) string {
	if configured == "" || configured == "auto" {
		detected, err := locale.GetLocale()
		if err != nil || detected == "" {
			return fallbackLocale
		}
		configured = detected
	}

	if i := strings.IndexAny(configured, ".@"); i >= 0 {
		configured = configured[:i]
	}
	configured = strings.ReplaceAll(configured, "_", "-")
	if configured == "" || configured == "C" || configured == "POSIX" {
		return fallbackLocale
	}
	return configured
}
