package domain

import "strings"

// Platform represents the source platform for downloads
type Platform string

const (
	PlatformYouTube     Platform = "youtube"
	PlatformTikTok      Platform = "tiktok"
	PlatformInstagram   Platform = "instagram"
	PlatformTwitterX    Platform = "twitter"
	PlatformFacebook    Platform = "facebook"
	PlatformVimeo       Platform = "vimeo"
	PlatformUnsupported Platform = "unsupported"
)

// platformDomains is checked in order; the first substring hit wins.
var platformDomains = []struct {
	substr   string
	platform Platform
}{
	{"youtube.com", PlatformYouTube},
	{"youtu.be", PlatformYouTube},
	{"tiktok.com", PlatformTikTok},
	{"instagram.com", PlatformInstagram},
	{"twitter.com", PlatformTwitterX},
	{"x.com", PlatformTwitterX},
	{"facebook.com", PlatformFacebook},
	{"vimeo.com", PlatformVimeo},
}

var platformNames = map[Platform]string{
	PlatformYouTube:   "YouTube",
	PlatformTikTok:    "TikTok",
	PlatformInstagram: "Instagram",
	PlatformTwitterX:  "Twitter/X",
	PlatformFacebook:  "Facebook",
	PlatformVimeo:     "Vimeo",
}

// DetectPlatform classifies a URL by case-sensitive substring match.
// No parsing or canonicalisation is done: this is a cost gate, not a security check.
func DetectPlatform(url string) Platform {
	for _, d := range platformDomains {
		if strings.Contains(url, d.substr) {
			return d.platform
		}
	}
	return PlatformUnsupported
}

// ValidatePlatform checks if a platform is one we fetch from
func ValidatePlatform(platform Platform) bool {
	_, ok := platformNames[platform]
	return ok
}

// DisplayName returns the human readable platform name
func (p Platform) DisplayName() string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return "Unknown"
}

// PlaceholderTitle is the title reported when metadata cannot be probed
func (p Platform) PlaceholderTitle() string {
	return p.DisplayName() + " Video"
}
