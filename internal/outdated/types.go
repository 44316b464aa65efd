package outdated

// UpdateInfo describes one installed mod against the catalog
type UpdateInfo struct {
	Name      string // Full name, "Owner-Name"
	Current   string // Installed version
	Latest    string // Newest catalog version, empty when the catalog lacks the mod
	HasUpdate bool
}

// Result is the outcome of an update check
type Result struct {
	Mods   []UpdateInfo
	Errors []error // Non-fatal errors during check
}

// TotalUpdates returns the number of mods with a newer catalog version
func (r *Result) TotalUpdates() int {
	count := 0
	for _, m := range r.Mods {
		if m.HasUpdate {
			count++
		}
	}
	return count
}

// Updates returns only the mods with a newer catalog version
func (r *Result) Updates() []UpdateInfo {
	var updates []UpdateInfo
	for _, m := range r.Mods {
		if m.HasUpdate {
			updates = append(updates, m)
		}
	}
	return updates
}
