// Package report turns finished battles into run records, persists them as
// msgpack and aggregates them across runs.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Garsondee/battle-resolver/internal/battle"
)

// Stats are event counts gathered from a battle's log. Shot, hit and miss
// counts are only populated when the log was verbose.
type Stats struct {
	Kills         map[string]int `msgpack:"kills" yaml:"kills"` // by side of the fallen unit
	FirstKillTick int            `msgpack:"first_kill_tick" yaml:"first_kill_tick"`
	SquadLosses   int            `msgpack:"squad_losses" yaml:"squad_losses"`
	Casts         int            `msgpack:"casts" yaml:"casts"`
	Summons       int            `msgpack:"summons" yaml:"summons"`
	BuffsApplied  int            `msgpack:"buffs_applied" yaml:"buffs_applied"`
	Transits      int            `msgpack:"transits" yaml:"transits"`
	Shots         int            `msgpack:"shots" yaml:"shots"`
	Hits          int            `msgpack:"hits" yaml:"hits"`
	Misses        int            `msgpack:"misses" yaml:"misses"`
	Blocked       int            `msgpack:"blocked" yaml:"blocked"`
	DamageDealt   float64        `msgpack:"damage_dealt" yaml:"damage_dealt"`
}

// Record is one run of a scenario.
type Record struct {
	Scenario string        `msgpack:"scenario"`
	Run      int           `msgpack:"run"`
	Seed     int64         `msgpack:"seed"`
	Result   battle.Result `msgpack:"result"`
	Stats    Stats         `msgpack:"stats"`
}

// Collect scans a battle log for the events a report counts.
func Collect(log *battle.SimLog) Stats {
	s := Stats{Kills: map[string]int{}, FirstKillTick: -1}
	for _, e := range log.Entries() {
		switch e.Category {
		case "combat":
			switch e.Key {
			case "kill":
				s.Kills[e.Side]++
				if s.FirstKillTick < 0 {
					s.FirstKillTick = e.Tick
				}
			case "squad_loss":
				s.SquadLosses++
			case "fire":
				s.Shots++
			case "hit":
				s.Hits++
				s.DamageDealt += e.NumVal
			case "miss":
				s.Misses++
			}
		case "ability":
			switch e.Key {
			case "cast":
				s.Casts++
			case "summon":
				s.Summons++
			}
		case "buff":
			if e.Key == "applied" {
				s.BuffsApplied++
			}
		case "transit":
			if e.Key == "start" {
				s.Transits++
			}
		case "projectile":
			if e.Key == "obstacle" {
				s.Blocked++
			}
		}
	}
	return s
}

// Write encodes records as a single msgpack array.
func Write(w io.Writer, recs []Record) error {
	bw := bufio.NewWriter(w)
	if err := msgpack.NewEncoder(bw).Encode(recs); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return bw.Flush()
}

// Read decodes records written by Write.
func Read(r io.Reader) ([]Record, error) {
	var recs []Record
	if err := msgpack.NewDecoder(bufio.NewReader(r)).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return recs, nil
}

// WriteFile writes records to path, replacing any existing file.
func WriteFile(path string, recs []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := Write(f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads records from path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Format renders one run as a few key=value lines.
func Format(rec Record) string {
	var b strings.Builder
	res := rec.Result
	fmt.Fprintf(&b, "--- Run %d (seed=%d) ---\n", rec.Run, rec.Seed)
	fmt.Fprintf(&b, "outcome=%s winner=%s tick=%d reason=%s\n",
		res.Outcome, orNone(string(res.WinningSideID)), res.Tick, res.Reason)
	fmt.Fprintf(&b, "survivors: attackers=%d [%s] defenders=%d [%s]\n",
		len(res.SurvivingAttackers), survivorList(res.SurvivingAttackers),
		len(res.SurvivingDefenders), survivorList(res.SurvivingDefenders))
	s := rec.Stats
	fmt.Fprintf(&b, "events: kills=%s first_kill=%d squad_losses=%d casts=%d summons=%d buffs=%d transits=%d\n",
		countList(s.Kills), s.FirstKillTick, s.SquadLosses, s.Casts, s.Summons, s.BuffsApplied, s.Transits)
	if s.Shots > 0 {
		fmt.Fprintf(&b, "fire: shots=%d hits=%d misses=%d blocked=%d damage=%.1f\n",
			s.Shots, s.Hits, s.Misses, s.Blocked, s.DamageDealt)
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// survivorList groups survivors by type, e.g. "fighter×2 frigate×1".
func survivorList(ss []battle.Survivor) string {
	counts := map[string]int{}
	for _, s := range ss {
		counts[s.Type]++
	}
	if len(counts) == 0 {
		return "none"
	}
	keys := sortedKeys(counts)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s×%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}

func countList(m map[string]int) string {
	if len(m) == 0 {
		return "none"
	}
	keys := sortedKeys(m)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s:%d", k, m[k])
	}
	return strings.Join(parts, ",")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
