package browser

import (
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/loadwire/loadwire/config"
)

// Launcher returns a LaunchFunc that spawns a headless Chromium process
// per call. A fresh launcher is built each time since launchers are
// single-use.
func Launcher(cfg config.BrowserConfig) LaunchFunc {
	return func() (*rod.Browser, error) {
		l := launcher.New().
			Headless(cfg.Headless).
			NoSandbox(cfg.NoSandbox)

		if cfg.BrowserBin != "" {
			l = l.Bin(cfg.BrowserBin)
		}
		if cfg.DefaultProxy != "" {
			l = l.Proxy(cfg.DefaultProxy)
		}

		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
		l.Set(flags.Flag("disable-background-networking"))
		l.Set(flags.Flag("disable-background-timer-throttling"))
		l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
		l.Set(flags.Flag("disable-component-update"))
		l.Set(flags.Flag("disable-default-apps"))
		l.Set(flags.Flag("disable-dev-shm-usage"))
		l.Set(flags.Flag("disable-extensions"))
		l.Set(flags.Flag("disable-renderer-backgrounding"))
		l.Set(flags.Flag("disable-sync"))
		l.Set(flags.Flag("mute-audio"))
		l.Set(flags.Flag("no-first-run"))
		l.Set(flags.Flag("window-size"), "1920,1080")

		controlURL, err := l.Launch()
		if err != nil {
			return nil, err
		}

		b := rod.New().ControlURL(controlURL)
		if err := b.Connect(); err != nil {
			return nil, err
		}
		return b, nil
	}
}

// OpenPage is the default NewPageFunc: it creates a blank page within the
// probe timeout, then lifts the timeout so the page outlives the probe.
func OpenPage(b *rod.Browser, timeout time.Duration) (*rod.Page, error) {
	page, err := b.Timeout(timeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	return page.CancelTimeout(), nil
}
