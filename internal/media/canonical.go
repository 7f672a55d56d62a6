package media

import "strings"

// variantSuffixes are the numbered CDN variants a mirror may serve the same
// story under: /img.php, /img2.php ... /img6.php and the video equivalents.
var variantSuffixes = []string{"", "2", "3", "4", "5", "6"}

var (
	imageTokens   []string
	videoTokens   []string
	canonicalizer *strings.Replacer
)

func init() {
	pairs := make([]string, 0, 4*len(variantSuffixes))
	for _, s := range variantSuffixes {
		img := "/img" + s + ".php"
		vid := "/video" + s + ".php"
		imageTokens = append(imageTokens, img)
		videoTokens = append(videoTokens, vid)
		pairs = append(pairs, img, "/media"+s+".php", vid, "/media"+s+".php")
	}
	canonicalizer = strings.NewReplacer(pairs...)
}

// CanonicalKey maps a media URL to the identity of the story asset behind it.
// Image and video representations of one story (and their numbered variants)
// collapse to the same key. Any string is accepted and treated as opaque text.
func CanonicalKey(rawURL string) string {
	return canonicalizer.Replace(rawURL)
}

// HasImageToken reports whether the URL carries an /img{n}.php path token.
func HasImageToken(rawURL string) bool {
	return containsAny(rawURL, imageTokens)
}

// HasVideoToken reports whether the URL carries a /video{n}.php path token.
func HasVideoToken(rawURL string) bool {
	return containsAny(rawURL, videoTokens)
}

// VideoVariants returns the URLs worth probing for a video rendition of an
// image story: the same-suffix video token first, then the plain /video.php.
// It returns nil when the URL has no image token.
func VideoVariants(rawURL string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(u string) {
		if u == rawURL {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	for i, img := range imageTokens {
		if !strings.Contains(rawURL, img) {
			continue
		}
		add(strings.Replace(rawURL, img, videoTokens[i], 1))
		add(strings.Replace(rawURL, img, videoTokens[0], 1))
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
