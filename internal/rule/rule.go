/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package rule

// Action is the verdict keyword of a Suricata signature.
type Action string

const (
	ActionAlert  Action = "alert"
	ActionDrop   Action = "drop"
	ActionReject Action = "reject"
	ActionPass   Action = "pass"
)

var Actions = []string{"alert", "drop", "reject", "pass"}

// ParseAction normalizes an action keyword. Anything outside the four
// browsable verdicts falls back to alert, matching how upstream rule
// sets treat exotic keywords.
func ParseAction(s string) Action {
	switch Action(s) {
	case ActionAlert, ActionDrop, ActionReject, ActionPass:
		return Action(s)
	default:
		return ActionAlert
	}
}

// Rule is one parsed Suricata signature. Raw is the authoritative rule
// text; every other field is derived from it during parsing.
type Rule struct {
	SID       int    `json:"sid"`
	Action    Action `json:"action"`
	Protocol  string `json:"protocol"`
	SrcIP     string `json:"src_ip"`
	SrcPort   string `json:"src_port"`
	Direction string `json:"direction"`
	DstIP     string `json:"dst_ip"`
	DstPort   string `json:"dst_port"`

	Msg        string            `json:"msg"`
	Classtype  string            `json:"classtype,omitempty"`
	Priority   int               `json:"priority,omitempty"`
	Rev        int               `json:"rev,omitempty"`
	References []string          `json:"references,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`

	Raw string `json:"raw"`

	// Tags are lowercased message words used by the standard search bar.
	Tags []string `json:"tags,omitempty"`

	Source     string `json:"source,omitempty"`
	SourceFile string `json:"source_file,omitempty"`

	// Enabled is false for signatures that are commented out in the
	// source file.
	Enabled bool `json:"enabled"`

	// Category is the message prefix of ET-style rules, e.g. MALWARE
	// for "ET MALWARE ...".
	Category string `json:"category,omitempty"`
}

// MetadataValue returns the value for a metadata key, or the empty
// string if the key is absent.
func (r *Rule) MetadataValue(key string) string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata[key]
}
