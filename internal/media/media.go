package media

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	WebP = "image/webp"
	MP4  = "video/mp4"
	WebM = "video/webm"
	MOV  = "video/quicktime"
)

// Item is a story candidate: a media URL and whether it is believed to be a video.
type Item struct {
	URL     string `json:"url"`
	IsVideo bool   `json:"video"`
}

var extensionMap = map[string]string{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".png":  PNG,
	".webp": WebP,
	".mp4":  MP4,
	".webm": WebM,
	".mov":  MOV,
}

var contentTypeExtensions = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	WebP: ".webp",
	MP4:  ".mp4",
	WebM: ".webm",
	MOV:  ".mov",
}

// DetectFromExtension returns a content type based on the URL's file extension,
// or empty string if unrecognized.
func DetectFromExtension(u *url.URL) string {
	ext := strings.ToLower(path.Ext(u.Path))
	return extensionMap[ext]
}

// IsVideoContentType reports whether a Content-Type header value names a video.
func IsVideoContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(ct))
	}
	return strings.HasPrefix(mt, "video/")
}

// IsVideoFilename reports whether a file name ends in a known video extension.
func IsVideoFilename(name string) bool {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(name)))
	return strings.HasPrefix(extensionMap[ext], "video/")
}

// ExtensionFor picks a file extension for a downloaded asset. The response
// content type wins; the URL path is consulted next; ".jpg" is the default
// for images and ".mp4" for anything served as video.
func ExtensionFor(contentType, rawURL string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := contentTypeExtensions[mt]; ok {
			return ext
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if ct := DetectFromExtension(u); ct != "" {
			return contentTypeExtensions[ct]
		}
	}
	if IsVideoContentType(contentType) || HasVideoToken(rawURL) {
		return ".mp4"
	}
	return ".jpg"
}
