package cmd

import (
	"context"
	"os"
	"sync"

	"github.com/danisty/LethalManager/internal/catalog"
	"github.com/danisty/LethalManager/internal/config"
	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/fetch"
	"github.com/danisty/LethalManager/internal/i18n"
	"github.com/danisty/LethalManager/internal/installer"
	"github.com/danisty/LethalManager/internal/profile"
	"github.com/danisty/LethalManager/internal/search"
	"github.com/danisty/LethalManager/internal/tui"
	"github.com/mattn/go-isatty"
)

// application holds the components shared by every command
type application struct {
	cfg       *config.Config
	client    *fetch.HTTPClient
	index     *catalog.Index
	engine    *search.Engine
	profiles  *profile.Manager
	downloads *fetch.Cache
	installer *installer.Installer
}

var (
	app     *application
	appOnce sync.Once
)

// getApp builds the application on first use, after flags and config are
// known.
func getApp() *application {
	appOnce.Do(func() {
		cfg := config.Get()
		client := fetch.NewClient()
		index := catalog.NewIndex(cfg.Catalog.URL, config.CatalogCachePath(), client)
		profiles := profile.NewManager(config.ProfilesDir(), index)
		downloads := fetch.NewCache(config.DownloadsDir(), client)

		app = &application{
			cfg:       cfg,
			client:    client,
			index:     index,
			engine:    search.NewEngine(index),
			profiles:  profiles,
			downloads: downloads,
			installer: installer.New(index, downloads, profiles),
		}
	})
	return app
}

// loadCatalog makes sure a catalog snapshot is available
func (a *application) loadCatalog(ctx context.Context) error {
	if a.index.Snapshot().Len() > 0 {
		return nil
	}
	_, err := a.index.Load(ctx, a.cfg.MaxAgeDuration())
	return err
}

// progress returns the install progress renderer for the current stdout
func progress() installer.ProgressFunc {
	if isTerminal() {
		return tui.NewProgressPrinter(os.Stdout).Print
	}
	return tui.LinePrinter(os.Stdout)
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// confirm asks before destructive actions. --yes skips the question, which
// is required when there is no terminal to ask on.
func confirm(yes bool, prompt string, details ...string) (bool, error) {
	if yes {
		return true, nil
	}
	if !isTerminal() {
		return false, errors.New(errors.ErrInvalidInput, i18n.T("ConfirmNeedsYes", nil))
	}
	return tui.RunConfirm(prompt, details...)
}
