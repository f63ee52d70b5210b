/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package record emits audit events to the configured sinks: snapshot
// loads and reloads, transform lifecycle changes and dry runs. Events
// carry a fixed attribute vocabulary so downstream sinks can label on
// them.
package record

import (
	"fmt"
	"log/slog"

	"github.com/suriview/suriview/internal/rule"
	"github.com/suriview/suriview/internal/transform"
)

// Load records a completed snapshot load or reload.
func Load(generation uint64, rules []rule.Rule, sources int, logger *slog.Logger) {
	enabled := 0
	for i := range rules {
		if rules[i].Enabled {
			enabled++
		}
	}

	event := "LOAD"
	if generation > 1 {
		event = "RELOAD"
	}

	msg := fmt.Sprintf("%s completed with %d rules from %d sources", event, len(rules), sources)
	logger.Info(msg,
		slog.String("type", event),
		slog.Uint64("generation", generation),
		slog.Int("rules", len(rules)),
		slog.Int("enabled", enabled),
		slog.Int("disabled", len(rules)-enabled),
		slog.Int("sources", sources),
	)
}

// Transform records a transform lifecycle event: created, updated,
// deleted, enabled or disabled.
func Transform(event string, t *transform.Transform, logger *slog.Logger) {
	msg := fmt.Sprintf("transform %s %s", t.ID, event)
	logger.Info(msg,
		slog.String("type", "TRANSFORM"),
		slog.String("event", event),
		slog.String("transform", t.ID),
		slog.String("name", t.Name),
		slog.Bool("enabled", t.Enabled),
		slog.Int("actions", len(t.Actions)),
	)
}

// DryRun records a transform preview against the current snapshot.
func DryRun(t *transform.Transform, matched, total int, logger *slog.Logger) {
	msg := fmt.Sprintf("transform %s dry run matched %d of %d rules", t.ID, matched, total)
	logger.Info(msg,
		slog.String("type", "DRYRUN"),
		slog.String("transform", t.ID),
		slog.String("name", t.Name),
		slog.Int("matched", matched),
		slog.Int("rules", total),
	)
}
