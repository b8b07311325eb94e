package battle

import (
	"fmt"
	"sort"
	"strings"
)

// SimLogEntry is one recorded battle event.
type SimLogEntry struct {
	Tick     int
	Unit     string  // label e.g. "A3", "D12", or "--" for global events
	Side     string  // side id, or "--"
	Category string  // config, command, combat, projectile, ability, transit, buff, outcome
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] A3   combat     kill             fighter by D7
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-10s %-16s %s",
		e.Tick, e.Unit, e.Category, e.Key, e.Value)
}

// SimLog collects structured events during a battle. It is the event stream
// a presentation layer or test reads; it is unbounded and machine-readable.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, per-shot fire/hit/miss and
// projectile entries are also recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry. A nil log discards it.
func (sl *SimLog) Add(tick int, unit, side, category, key, value string, numVal float64) {
	if sl == nil {
		return
	}
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Unit:     unit,
		Side:     side,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, unit, side, category, key, value string, numVal float64) {
	if sl == nil || !sl.verbose {
		return
	}
	sl.Add(tick, unit, side, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// match reports whether e has the category and key (empty matches any) and
// a value containing substr.
func (e SimLogEntry) match(category, key, substr string) bool {
	return (category == "" || e.Category == category) &&
		(key == "" || e.Key == key) &&
		strings.Contains(e.Value, substr)
}

// Filter returns entries matching category and key. Empty strings match any.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.match(category, key, "") {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory counts entries matching category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	n := 0
	for _, e := range sl.entries {
		if e.match(category, key, "") {
			n++
		}
	}
	return n
}

// LastOf returns the most recent entry matching category and key.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	for i := len(sl.entries) - 1; i >= 0; i-- {
		if sl.entries[i].match(category, key, "") {
			return sl.entries[i], true
		}
	}
	return SimLogEntry{}, false
}

// HasEntry reports whether any entry matches category, key and a value
// containing valueSubstr.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if e.match(category, key, valueSubstr) {
			return true
		}
	}
	return false
}

// Format renders the whole log, one entry per line.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		fmt.Fprintln(&sb, e.String())
	}
	return sb.String()
}

// Summary returns a short human-readable summary of the battlefield.
func (sl *SimLog) Summary(tick int, units []*Unit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", tick)

	type tally struct {
		count int
		hp    float64
	}
	bySide := map[string]map[string]*tally{}
	for _, u := range units {
		if !u.Alive() {
			continue
		}
		side := string(u.Side)
		if bySide[side] == nil {
			bySide[side] = map[string]*tally{}
		}
		t := bySide[side][u.ArchetypeID]
		if t == nil {
			t = &tally{}
			bySide[side][u.ArchetypeID] = t
		}
		t.count++
		t.hp += u.HP
	}
	sides := make([]string, 0, len(bySide))
	for s := range bySide {
		sides = append(sides, s)
	}
	sort.Strings(sides)
	for _, s := range sides {
		types := make([]string, 0, len(bySide[s]))
		for id := range bySide[s] {
			types = append(types, id)
		}
		sort.Strings(types)
		fmt.Fprintf(&sb, "%s: ", s)
		for _, id := range types {
			t := bySide[s][id]
			fmt.Fprintf(&sb, "%s×%d (%.0fhp)  ", id, t.count, t.hp)
		}
		sb.WriteByte('\n')
	}
	if len(sides) == 0 {
		sb.WriteString("No units alive\n")
	}
	fmt.Fprintf(&sb, "Kills: %d  Casts: %d  Rejected commands: %d\n",
		sl.CountCategory("combat", "kill"), sl.CountCategory("ability", "cast"),
		sl.CountCategory("command", "rejected"))
	return sb.String()
}
