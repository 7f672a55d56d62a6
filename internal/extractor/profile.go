package extractor

import (
	"fmt"
	"math/rand/v2"
)

// fingerprint is the browser identity presented by one session. The UA,
// client hints, platform and locale are drawn together so they agree with
// each other. It is unrelated to the Instagram profile being walked.
type fingerprint struct {
	UserAgent         string
	Brands            [][2]string // [brand, majorVersion]
	FullVersionList   [][2]string // [brand, fullVersion]
	Platform          string      // Client Hints platform
	PlatformVersion   string
	NavigatorPlatform string
	AcceptLanguage    string
	Languages         []string
	TimezoneID        string
	DeviceMemory      int
	Width             int
	Height            int
}

type platformPreset struct {
	uaOS              string
	navigatorPlatform string
	chPlatform        string
	chPlatformVersion string
}

var platformPresets = []platformPreset{
	{"Windows NT 10.0; Win64; x64", "Win32", "Windows", "10.0.0"},
	{"Windows NT 10.0; Win64; x64", "Win32", "Windows", "15.0.0"},
	{"Macintosh; Intel Mac OS X 10_15_7", "MacIntel", "macOS", "14.5.0"},
}

type localePreset struct {
	timezoneID     string
	acceptLanguage string
	languages      []string
}

var localePresets = []localePreset{
	{"America/New_York", "en-US,en;q=0.9", []string{"en-US", "en"}},
	{"America/Los_Angeles", "en-US,en;q=0.9", []string{"en-US", "en"}},
	{"Europe/London", "en-GB,en;q=0.9,en-US;q=0.8", []string{"en-GB", "en", "en-US"}},
}

// Desktop viewports only: the mirrors switch to a mobile layout below ~1200px,
// which moves the popup arrows.
var viewportPresets = [][2]int{
	{1920, 1080},
	{1536, 864},
	{1680, 1050},
	{1440, 900},
}

var chromeMajors = []string{"131", "132", "133"}
var deviceMemories = []int{4, 8, 16}
var greaseBrands = []string{`Not A(Brand`, `Not/A)Brand`, `Not_A Brand`}

// newFingerprint draws a random, internally consistent browser identity.
func newFingerprint() *fingerprint {
	plat := platformPresets[rand.IntN(len(platformPresets))]
	loc := localePresets[rand.IntN(len(localePresets))]
	vp := viewportPresets[rand.IntN(len(viewportPresets))]
	major := chromeMajors[rand.IntN(len(chromeMajors))]
	full := major + ".0.0.0"
	grease := greaseBrands[rand.IntN(len(greaseBrands))]

	return &fingerprint{
		UserAgent: fmt.Sprintf(
			"Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
			plat.uaOS, full,
		),
		Brands: [][2]string{
			{grease, "8"},
			{"Chromium", major},
			{"Google Chrome", major},
		},
		FullVersionList: [][2]string{
			{grease, "8.0.0.0"},
			{"Chromium", full},
			{"Google Chrome", full},
		},
		Platform:          plat.chPlatform,
		PlatformVersion:   plat.chPlatformVersion,
		NavigatorPlatform: plat.navigatorPlatform,
		AcceptLanguage:    loc.acceptLanguage,
		Languages:         loc.languages,
		TimezoneID:        loc.timezoneID,
		DeviceMemory:      deviceMemories[rand.IntN(len(deviceMemories))],
		Width:             vp[0],
		Height:            vp[1],
	}
}
