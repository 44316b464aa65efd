package catalog

import (
	"strings"
	"time"
)

// BootstrapPackage is the full name of the plugin-loader package. Its archive
// is laid out differently from regular mods and it is hidden from search.
const BootstrapPackage = "BepInEx-BepInExPack"

// Package is one entry of the Thunderstore package listing
type Package struct {
	Categories     []string  `json:"categories"`
	DateCreated    time.Time `json:"date_created"`
	DateUpdated    time.Time `json:"date_updated"`
	FullName       string    `json:"full_name"`
	HasNSFWContent bool      `json:"has_nsfw_content"`
	IsDeprecated   bool      `json:"is_deprecated"`
	IsPinned       bool      `json:"is_pinned"`
	Name           string    `json:"name"`
	Owner          string    `json:"owner"`
	PackageURL     string    `json:"package_url"`
	RatingScore    int       `json:"rating_score"`
	UUID4          string    `json:"uuid4"`
	Versions       []Version `json:"versions"` // newest first
}

// Version is a single published release of a package
type Version struct {
	DateCreated   time.Time `json:"date_created"`
	Dependencies  []string  `json:"dependencies"` // "Owner-Name-x.y.z" references
	Description   string    `json:"description"`
	DownloadURL   string    `json:"download_url"`
	Downloads     int64     `json:"downloads"`
	FileSize      int64     `json:"file_size"`
	FullName      string    `json:"full_name"` // "Owner-Name-x.y.z"
	Icon          string    `json:"icon"`
	IsActive      bool      `json:"is_active"`
	Name          string    `json:"name"`
	UUID4         string    `json:"uuid4"`
	VersionNumber string    `json:"version_number"`
	WebsiteURL    string    `json:"website_url"`
}

// Latest returns the newest version of the package
func (p *Package) Latest() (Version, bool) {
	if len(p.Versions) == 0 {
		return Version{}, false
	}
	return p.Versions[0], true
}

// HasCategory reports whether the package carries the given label
func (p *Package) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// PackageName returns the owning package's full name ("Owner-Name")
func (v Version) PackageName() string {
	return strings.TrimSuffix(v.FullName, "-"+v.VersionNumber)
}
