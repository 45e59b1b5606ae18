package jobpost

import (
	"net/url"
	"strings"
)

// Platform is a known applicant tracking system hosting job postings
type Platform string

const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformKariyer    Platform = "kariyer"
	PlatformLinkedIn   Platform = "linkedin"
	PlatformUnknown    Platform = "unknown"
)

var platformHosts = []struct {
	suffix   string
	platform Platform
}{
	{"greenhouse.io", PlatformGreenhouse},
	{"lever.co", PlatformLever},
	{"myworkdayjobs.com", PlatformWorkday},
	{"workday.com", PlatformWorkday},
	{"kariyer.net", PlatformKariyer},
	{"linkedin.com", PlatformLinkedIn},
}

// DetectPlatform identifies the posting platform from the URL host
func DetectPlatform(u *url.URL) Platform {
	if u == nil {
		return PlatformUnknown
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range platformHosts {
		if host == p.suffix || strings.HasSuffix(host, "."+p.suffix) {
			return p.platform
		}
	}
	return PlatformUnknown
}

var genericContent = []string{
	".job-description",
	"#job-description",
	".job-details",
	".posting-content",
	"[data-testid='job-description']",
	"main",
	"article",
	"#content",
}

// ContentSelectors lists the description containers to try, most specific first
func ContentSelectors(p Platform) []string {
	switch p {
	case PlatformGreenhouse:
		return append([]string{".job__description", "#content"}, genericContent...)
	case PlatformLever:
		return append([]string{".posting-page", ".section-wrapper.page-full-width"}, genericContent...)
	case PlatformWorkday:
		return append([]string{"[data-automation-id='jobPostingDescription']"}, genericContent...)
	case PlatformKariyer:
		return append([]string{".job-detail-content", ".job-detail"}, genericContent...)
	case PlatformLinkedIn:
		return append([]string{".show-more-less-html__markup", ".description__text"}, genericContent...)
	default:
		return genericContent
	}
}

// NoiseSelectors lists elements removed before text extraction
func NoiseSelectors(p Platform) []string {
	common := []string{
		"form",
		".application-form",
		".apply-button-container",
		".eeo-statement",
		".voluntary-disclosure",
		".social-share",
		".cookie-consent",
	}
	switch p {
	case PlatformGreenhouse:
		return append(common, ".application--wrapper", "#usa_self_id_section")
	case PlatformLever:
		return append(common, ".posting-apply", ".apply-section")
	case PlatformWorkday:
		return append(common, "[data-automation-id='applyButton']")
	case PlatformLinkedIn:
		return append(common, ".sign-in-modal", ".similar-jobs")
	default:
		return common
	}
}
