package profile

// Profile is an isolated installation root with its own mods
type Profile struct {
	Name   string `json:"name"`
	Icon   string `json:"icon,omitempty"`
	Folder string `json:"folder"`
}

// Summary is a profile together with its installed mod count
type Summary struct {
	Profile
	Mods int
}

// Icon is image data for a new profile
type Icon struct {
	Data []byte
	Ext  string // without the dot, e.g. "png"
}

// InstalledMod is one mod found in a profile's plugins folder
type InstalledMod struct {
	Name          string   `yaml:"name"`
	FullName      string   `yaml:"full_name"`
	Description   string   `yaml:"description"`
	Author        string   `yaml:"author"`
	VersionNumber string   `yaml:"version_number"`
	Dependencies  []string `yaml:"dependencies"`
	Folder        string   `yaml:"folder"`
	Icon          string   `yaml:"icon,omitempty"`
	Enabled       bool     `yaml:"enabled"`
}

// Manifest is the manifest.json shipped inside every mod archive
type Manifest struct {
	Name          string   `json:"name"`
	VersionNumber string   `json:"version_number"`
	WebsiteURL    string   `json:"website_url"`
	Description   string   `json:"description"`
	Dependencies  []string `json:"dependencies"`
}
