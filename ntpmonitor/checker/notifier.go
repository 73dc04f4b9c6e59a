/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package checker

import (
	"sync"
	"time"
)

// event constants
const (
	EventSource     = "ntp.monitor"
	EventTagPPS     = "pps.change"
	EventTypePPS    = "valid.pps.changed"
	EventTagStats   = "ntpstats"
	EventTypeStats  = "ntp.stats"
	EventLevelPPS   = 5
	EventLevelStats = 6
	// StatsFieldPrefix prefixes values carried by ntpstats events
	StatsFieldPrefix = "fields."
)

// Event is a record published on the event channel
type Event struct {
	Tag       string
	Timestamp int64 // ms since epoch
	Source    string
	Type      string
	Message   string
	Subject   string
	Level     int
	Fields    map[string]any
}

// Dotted returns event as a flat map with dotted keys
func (e *Event) Dotted() map[string]any {
	m := map[string]any{
		"tag":           e.Tag,
		"timestamp":     e.Timestamp,
		"event.source":  e.Source,
		"event.type":    e.Type,
		"event.message": e.Message,
		"event.level":   e.Level,
	}
	if e.Subject != "" {
		m["event.subject"] = e.Subject
	}
	for k, v := range e.Fields {
		m[k] = v
	}
	return m
}

// ChangeNotifier remembers PPS lock state of the previous cycle
// and reports when it flips
type ChangeNotifier struct {
	sync.Mutex
	previous *bool
	now      func() time.Time
}

// NewChangeNotifier returns ChangeNotifier with no baseline
func NewChangeNotifier() *ChangeNotifier {
	return &ChangeNotifier{now: time.Now}
}

// Observe compares validPPS with the previous observation. It returns nil on
// the very first call and when nothing changed.
func (n *ChangeNotifier) Observe(validPPS bool) *Event {
	n.Lock()
	defer n.Unlock()
	var ev *Event
	if n.previous != nil && *n.previous != validPPS {
		ev = newPPSEvent(n.now(), validPPS)
	}
	n.previous = &validPPS
	return ev
}

// Reset forgets the baseline
func (n *ChangeNotifier) Reset() {
	n.Lock()
	n.previous = nil
	n.Unlock()
}

func newPPSEvent(ts time.Time, locked bool) *Event {
	subject := "NTP now NOT locked to PPS"
	if locked {
		subject = "NTP now locked to PPS"
	}
	return &Event{
		Tag:       EventTagPPS,
		Timestamp: ts.UnixMilli(),
		Source:    EventSource,
		Type:      EventTypePPS,
		Message:   subject + ", noted at " + ts.UTC().Format(time.RFC3339),
		Subject:   subject,
		Level:     EventLevelPPS,
		Fields:    map[string]any{FieldPrefix + "validPPS": locked},
	}
}

// NewStatsEvent summarizes valid result for the event channel
func NewStatsEvent(r *MonitorResult) *Event {
	if r == nil || !r.Valid {
		return nil
	}
	fields := map[string]any{
		StatsFieldPrefix + "validPPS":       r.ValidPPS,
		StatsFieldPrefix + "validTime":      r.Fix.ValidTime,
		StatsFieldPrefix + "timeAccuracy":   r.Fix.TimeAccuracy,
		StatsFieldPrefix + "satellitesUsed": r.Fix.SatellitesUsed,
	}
	if r.System != nil {
		r.System.addDiscipline(fields, StatsFieldPrefix)
	}
	return &Event{
		Tag:       EventTagStats,
		Timestamp: r.Timestamp.UnixMilli(),
		Source:    EventSource,
		Type:      EventTypeStats,
		Message:   "ntp statistics",
		Level:     EventLevelStats,
		Fields:    fields,
	}
}
