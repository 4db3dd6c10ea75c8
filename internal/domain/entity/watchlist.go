package entity

// WatchList is the operator-edited configuration read at the start of every
// cycle. It is passed to the cycle by value so a reload never affects a cycle
// already in flight.
type WatchList struct {
	Sources           []SourceConfig      `json:"sources" yaml:"sources"`
	Targets           []PersistenceTarget `json:"targets" yaml:"targets"`
	DownloadRules     []DownloadRule      `json:"download_rules" yaml:"download_rules"`
	ExcludedNicknames []string            `json:"excluded_nicknames" yaml:"excluded_nicknames"`
}

// RulesFor returns the download rules that apply to entries of tag, in order.
func (w WatchList) RulesFor(tag SourceTag) []DownloadRule {
	var rules []DownloadRule
	for _, r := range w.DownloadRules {
		if r.Kind == "" || r.Kind.Tag() == tag {
			rules = append(rules, r)
		}
	}
	return rules
}
