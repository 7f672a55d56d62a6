package extractor

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/stupside/storyfetch/internal/app"
)

//go:embed js/stealth_navigator.js
var stealthNavigatorJS string

// buildStealthJS fills the navigator overrides from a fingerprint.
func buildStealthJS(fp *fingerprint) string {
	languages, _ := json.Marshal(fp.Languages)

	r := strings.NewReplacer(
		"__LANGUAGES__", string(languages),
		"__DEVICE_MEMORY__", fmt.Sprintf("%d", fp.DeviceMemory),
		"__PLATFORM__", fp.NavigatorPlatform,
	)
	return r.Replace(stealthNavigatorJS)
}

// allocatorOpts returns chromedp exec-allocator options for a hidden browser
// that does not advertise automation.
func allocatorOpts(cfg app.BrowserConfig, fp *fingerprint) []chromedp.ExecAllocatorOption {
	var headlessVal string
	if cfg.Headless {
		headlessVal = "new"
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		chromedp.Flag("headless", headlessVal),
		chromedp.Flag("no-sandbox", cfg.NoSandbox),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("ignore-certificate-errors", cfg.Insecure),

		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),

		chromedp.WindowSize(fp.Width, fp.Height),
		chromedp.UserAgent(fp.UserAgent),
	}

	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}

	return opts
}

// injectScripts installs scripts that run before any page JS on every new
// document: the navigator overrides and the media mute guard.
func injectScripts(fp *fingerprint) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		for _, js := range []string{buildStealthJS(fp), muteMediaJS} {
			if _, err := page.AddScriptToEvaluateOnNewDocument(js).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// injectCDPStealth applies the CDP-level overrides that JS injection cannot cover.
func injectCDPStealth(fp *fingerprint) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if err := emulation.SetAutomationOverride(false).Do(ctx); err != nil {
			return err
		}

		if err := emulation.SetFocusEmulationEnabled(true).Do(ctx); err != nil {
			return err
		}

		if err := emulation.SetTimezoneOverride(fp.TimezoneID).Do(ctx); err != nil {
			return err
		}

		if err := emulation.SetLocaleOverride().WithLocale(fp.Languages[0]).Do(ctx); err != nil {
			return err
		}

		ua := emulation.SetUserAgentOverride(fp.UserAgent)
		ua.AcceptLanguage = fp.AcceptLanguage
		ua.Platform = fp.NavigatorPlatform
		ua.UserAgentMetadata = &emulation.UserAgentMetadata{
			Brands:          brandVersions(fp.Brands),
			FullVersionList: brandVersions(fp.FullVersionList),
			Platform:        fp.Platform,
			PlatformVersion: fp.PlatformVersion,
			Architecture:    "x86",
			Bitness:         "64",
		}
		return ua.Do(ctx)
	}
}

func brandVersions(pairs [][2]string) []*emulation.UserAgentBrandVersion {
	out := make([]*emulation.UserAgentBrandVersion, len(pairs))
	for i, b := range pairs {
		out[i] = &emulation.UserAgentBrandVersion{Brand: b[0], Version: b[1]}
	}
	return out
}
