package entity

import "strings"

// tabSpawningExtensions lists extension names known to open extra tabs
// (welcome pages, donation prompts) while a page is being crawled.
var tabSpawningExtensions = []string{"adblock", "adblockplus", "ublock", "disconnect", "ghostery"}

// Profile identifies one browser configuration. A profile maps to a single
// underlying browser, so two sessions never run on the same profile at once.
type Profile struct {
	Name          string `yaml:"name" json:"name"`
	ID            string `yaml:"id" json:"id,omitempty"`
	Endpoint      string `yaml:"endpoint" json:"endpoint,omitempty"`
	UserDataDir   string `yaml:"user_data_dir" json:"user_data_dir,omitempty"`
	ExtensionPath string `yaml:"extension_path" json:"extension_path,omitempty"`
	Extension     string `yaml:"extension" json:"extension,omitempty"`
	MonitorTabs   bool   `yaml:"monitor_tabs" json:"monitor_tabs,omitempty"`
	UserAgent     string `yaml:"user_agent" json:"user_agent,omitempty"`
	Proxy         string `yaml:"proxy" json:"proxy,omitempty"`
}

// RequiresTabMonitoring reports whether extra tabs must be closed
// continuously while this profile is in use.
func (p Profile) RequiresTabMonitoring() bool {
	if p.MonitorTabs {
		return true
	}
	ext := strings.ToLower(p.Extension)
	if ext == "" {
		ext = strings.ToLower(p.Name)
	}
	for _, name := range tabSpawningExtensions {
		if strings.Contains(ext, name) {
			return true
		}
	}
	return false
}
