/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package rule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/gonids"
)

// ErrSkip marks lines that are not signatures at all: blanks and plain
// comments. Callers iterate over rule files and silently drop these.
var ErrSkip = errors.New("not a rule line")

var (
	categoryRe = regexp.MustCompile(`(?i)^(?:ET(?:PRO)?\s+)?([A-Z][A-Z_\s]+?)(?:\s|:)`)
	tagWordRe  = regexp.MustCompile(`[A-Za-z0-9_]+`)
	priorityRe = regexp.MustCompile(`priority:\s*(\d+)\s*;`)
	classRe    = regexp.MustCompile(`classtype:\s*([^;]+);`)
)

var actionKeywords = []string{"alert", "drop", "reject", "pass"}

// ParseLine parses one line of a Suricata rule file into a Rule.
// Commented-out signatures parse as disabled rules; comment lines that
// do not hold a signature return ErrSkip.
func ParseLine(line, source, sourceFile string) (*Rule, error) {
	text := strings.TrimSpace(line)
	if text == "" {
		return nil, ErrSkip
	}

	enabled := true
	if strings.HasPrefix(text, "#") {
		stripped := strings.TrimSpace(strings.TrimLeft(text, "# "))
		if !startsWithAction(stripped) {
			return nil, ErrSkip
		}
		text = stripped
		enabled = false
	}

	parsed, err := gonids.ParseRule(text)
	if err != nil {
		return nil, fmt.Errorf("parse rule: %w", err)
	}

	r := &Rule{
		SID:        parsed.SID,
		Action:     ParseAction(strings.ToLower(parsed.Action)),
		Protocol:   strings.ToLower(parsed.Protocol),
		SrcIP:      joinNetworkPart(parsed.Source.Nets),
		SrcPort:    joinNetworkPart(parsed.Source.Ports),
		DstIP:      joinNetworkPart(parsed.Destination.Nets),
		DstPort:    joinNetworkPart(parsed.Destination.Ports),
		Direction:  "->",
		Msg:        parsed.Description,
		Rev:        parsed.Revision,
		Raw:        text,
		Source:     source,
		SourceFile: sourceFile,
		Enabled:    enabled && !parsed.Disabled,
		Metadata:   map[string]string{},
	}
	if parsed.Bidirectional {
		r.Direction = "<>"
	}

	for _, ref := range parsed.References {
		r.References = append(r.References, ref.Type+","+ref.Value)
	}
	for _, meta := range parsed.Metas {
		r.Metadata[meta.Key] = meta.Value
	}

	// classtype and priority are scanned from the raw text; gonids keeps
	// them in its generic option list.
	if m := classRe.FindStringSubmatch(text); m != nil {
		r.Classtype = strings.TrimSpace(m[1])
	}
	if m := priorityRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			r.Priority = n
		}
	}

	r.Tags = extractTags(r.Msg)
	r.Category = ExtractCategory(r.Msg)

	return r, nil
}

func startsWithAction(text string) bool {
	for _, kw := range actionKeywords {
		if strings.HasPrefix(text, kw+" ") {
			return true
		}
	}
	return false
}

func joinNetworkPart(parts []string) string {
	switch len(parts) {
	case 0:
		return "any"
	case 1:
		return parts[0]
	default:
		return "[" + strings.Join(parts, ",") + "]"
	}
}

// extractTags pulls lowercased message words longer than three
// characters for the standard search haystack.
func extractTags(msg string) []string {
	if msg == "" {
		return nil
	}
	var tags []string
	for _, word := range tagWordRe.FindAllString(msg, -1) {
		if len(word) > 3 {
			tags = append(tags, strings.ToLower(word))
		}
	}
	return tags
}

// ExtractCategory derives the category from an ET-style message prefix,
// e.g. "ET MALWARE Win32 ..." yields MALWARE, "ETPRO WEB_SERVER ..."
// yields WEB_SERVER.
func ExtractCategory(msg string) string {
	if msg == "" {
		return ""
	}
	m := categoryRe.FindStringSubmatch(msg)
	if m == nil {
		return ""
	}
	category := strings.ToUpper(strings.TrimSpace(m[1]))
	return strings.ReplaceAll(category, " ", "_")
}
