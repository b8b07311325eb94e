package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Garsondee/battle-resolver/internal/battle"
)

// Aggregate summarises many runs of one scenario.
type Aggregate struct {
	Scenario       string             `yaml:"scenario"`
	Runs           int                `yaml:"runs"`
	Outcomes       map[string]int     `yaml:"outcomes"`
	Winners        map[string]int     `yaml:"winners"`
	Stalemates     int                `yaml:"stalemates"`
	AvgTick        float64            `yaml:"avg_tick"`
	AvgFirstKill   float64            `yaml:"avg_first_kill"` // over runs with a kill; -1 when none
	AvgSurvivors   map[string]float64 `yaml:"avg_survivors"`  // "attackers" / "defenders"
	AvgKills       map[string]float64 `yaml:"avg_kills"`      // by side of the fallen
	AvgCasts       float64            `yaml:"avg_casts"`
	SurvivorTypes  map[string]int     `yaml:"survivor_types"` // across all runs
	HitRate        float64            `yaml:"hit_rate"`       // verbose runs only; -1 when unknown
	TotalDamage    float64            `yaml:"total_damage"`
	BlockedByCover int                `yaml:"blocked_by_cover"`
}

// Summarize folds records into an Aggregate.
func Summarize(scenario string, recs []Record) Aggregate {
	a := Aggregate{
		Scenario:      scenario,
		Runs:          len(recs),
		Outcomes:      map[string]int{},
		Winners:       map[string]int{},
		AvgSurvivors:  map[string]float64{},
		AvgKills:      map[string]float64{},
		SurvivorTypes: map[string]int{},
		AvgFirstKill:  -1,
		HitRate:       -1,
	}
	if len(recs) == 0 {
		return a
	}
	var ticks, casts, attackers, defenders, firstKill, killRuns, hits, resolved int
	kills := map[string]int{}
	for _, r := range recs {
		res := r.Result
		a.Outcomes[res.Outcome.String()]++
		if res.WinningSideID != "" {
			a.Winners[string(res.WinningSideID)]++
		}
		if stalemate, _ := DetectStalemate(r); stalemate {
			a.Stalemates++
		}
		ticks += res.Tick
		attackers += len(res.SurvivingAttackers)
		defenders += len(res.SurvivingDefenders)
		for _, s := range append(append([]battle.Survivor{}, res.SurvivingAttackers...), res.SurvivingDefenders...) {
			a.SurvivorTypes[s.Type]++
		}
		casts += r.Stats.Casts
		for side, n := range r.Stats.Kills {
			kills[side] += n
		}
		if r.Stats.FirstKillTick >= 0 {
			firstKill += r.Stats.FirstKillTick
			killRuns++
		}
		hits += r.Stats.Hits
		resolved += r.Stats.Hits + r.Stats.Misses
		a.TotalDamage += r.Stats.DamageDealt
		a.BlockedByCover += r.Stats.Blocked
	}
	n := float64(len(recs))
	a.AvgTick = float64(ticks) / n
	a.AvgCasts = float64(casts) / n
	a.AvgSurvivors["attackers"] = float64(attackers) / n
	a.AvgSurvivors["defenders"] = float64(defenders) / n
	for side, k := range kills {
		a.AvgKills[side] = float64(k) / n
	}
	if killRuns > 0 {
		a.AvgFirstKill = float64(firstKill) / float64(killRuns)
	}
	if resolved > 0 {
		a.HitRate = float64(hits) / float64(resolved)
	}
	return a
}

// DetectStalemate reports whether a run ended on the tick limit with both
// sides largely intact.
func DetectStalemate(r Record) (bool, string) {
	res := r.Result
	if res.Reason != battle.ReasonTickLimit {
		return false, "resolved_by_" + res.Reason
	}
	attackers, defenders := len(res.SurvivingAttackers), len(res.SurvivingDefenders)
	if attackers == 0 || defenders == 0 {
		return false, "one_side_eliminated"
	}
	killed := 0
	for _, n := range r.Stats.Kills {
		killed += n
	}
	if killed > (attackers+defenders)/2 {
		return false, fmt.Sprintf("decisive_attrition killed=%d", killed)
	}
	return true, fmt.Sprintf("high_mutual_survival attackers=%d defenders=%d killed=%d", attackers, defenders, killed)
}

// TeamSurvival returns the surviving unit counts and hit-point totals per side.
func TeamSurvival(res battle.Result) (attackers, defenders int, attackerHP, defenderHP float64) {
	for _, s := range res.SurvivingAttackers {
		attackerHP += s.HP
	}
	for _, s := range res.SurvivingDefenders {
		defenderHP += s.HP
	}
	return len(res.SurvivingAttackers), len(res.SurvivingDefenders), attackerHP, defenderHP
}

// Format renders the aggregate in the same key=value style as Format.
func (a Aggregate) Format() string {
	var b strings.Builder
	fmt.Fprintln(&b, "=== Aggregate ===")
	fmt.Fprintf(&b, "scenario=%s runs=%d stalemates=%d\n", a.Scenario, a.Runs, a.Stalemates)
	fmt.Fprintf(&b, "outcomes: %s\n", countList(a.Outcomes))
	fmt.Fprintf(&b, "winners: %s\n", countList(a.Winners))
	fmt.Fprintf(&b, "avg_tick=%.1f avg_first_kill=%s avg_casts=%.1f\n", a.AvgTick, tickString(a.AvgFirstKill), a.AvgCasts)
	fmt.Fprintf(&b, "avg_survivors: attackers=%.1f defenders=%.1f\n", a.AvgSurvivors["attackers"], a.AvgSurvivors["defenders"])
	fmt.Fprintf(&b, "avg_kills: %s\n", floatList(a.AvgKills))
	fmt.Fprintf(&b, "survivor_types: %s\n", countList(a.SurvivorTypes))
	if a.HitRate >= 0 {
		fmt.Fprintf(&b, "hit_rate=%.1f%% damage=%.1f blocked_by_cover=%d\n", a.HitRate*100, a.TotalDamage, a.BlockedByCover)
	}
	return b.String()
}

// WriteYAML writes the aggregate as a YAML document.
func (a Aggregate) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode aggregate: %w", err)
	}
	return enc.Close()
}

func tickString(v float64) string {
	if v < 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}

func floatList(m map[string]float64) string {
	if len(m) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s:%.1f", k, m[k])
	}
	return strings.Join(parts, ",")
}
