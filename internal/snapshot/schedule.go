package snapshot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParseTimeOfDay parses a 24-hour "HH:MM" trigger time.
func ParseTimeOfDay(value string) (hour, minute int, err error) {
	hh, mm, found := strings.Cut(value, ":")
	if !found {
		return 0, 0, fmt.Errorf("trigger time %q must be in HH:MM form", value)
	}
	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("trigger time %q has invalid hour", value)
	}
	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("trigger time %q has invalid minute", value)
	}
	return hour, minute, nil
}

// ComputeTarget resolves the source's trigger time against now: today's date
// combined with the trigger hour/minute (seconds zeroed), rolled forward one
// day when that instant is already past. The result is stored on the source
// and returned. Recomputing with a later now starts from scratch, so the
// invariant Target >= now always holds for the now that was passed in.
func (s *ScheduledSource) ComputeTarget(now time.Time) time.Time {
	now = now.UTC()
	target := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, s.Minute, 0, 0, time.UTC)
	if target.Before(now) {
		target = target.Add(24 * time.Hour)
	}
	s.Target = target
	return target
}

// DisplayForm is the canonical short label for a scheduled source, used for
// filenames and logs: the trigger time with the colon removed, a dash, and
// the source name.
func (s *ScheduledSource) DisplayForm() string {
	return fmt.Sprintf("%02d%02d-%s", s.Hour, s.Minute, s.Name)
}

// Expand turns definitions into one ScheduledSource per (definition, trigger
// time) pair, preserving enumeration order. Targets are not yet computed.
func Expand(defs []SourceDefinition) ([]ScheduledSource, error) {
	var out []ScheduledSource
	for _, def := range defs {
		for _, tod := range def.Times {
			hour, minute, err := ParseTimeOfDay(tod)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", def.Name, err)
			}
			out = append(out, ScheduledSource{
				Name:   def.Name,
				URL:    def.URL,
				Crop:   def.Crop,
				Hour:   hour,
				Minute: minute,
			})
		}
	}
	return out, nil
}

// OrderSchedule sorts the sources ascending by target instant. The sort is
// stable, so sources with equal targets keep their enumeration order.
func OrderSchedule(items []ScheduledSource) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Target.Before(items[j].Target)
	})
}
