// Package score computes displayed scores, rankings and team progress from
// raw participant counters. The engine holds no state beyond tuning
// constants: identical inputs always produce identical outputs, and every
// function degrades to a safe zero value instead of failing, because the
// results back a live display.
package score

import (
	"math"
	"sort"

	"github.com/coldcall/arena/internal/domain/model"
)

// Default engine tuning constants.
const (
	defaultColdCallAverage = 40 // assumed calls-per-meeting before any data
	defaultBlendWeight     = 2  // weight of the cold average in the low-sample blend
	maxConfidencePercent   = 99
	percentScale           = 100
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithColdCallAverage sets the assumed calls-per-meeting used by the
// conversion forecast before any meeting has been booked.
func WithColdCallAverage(avg int) Option {
	return func(e *Engine) {
		if avg > 0 {
			e.coldCallAverage = avg
		}
	}
}

// WithBlendWeight sets how strongly the cold-call average is weighted against
// the observed rate while the sample is small.
func WithBlendWeight(w int) Option {
	return func(e *Engine) {
		if w >= 0 {
			e.blendWeight = w
		}
	}
}

// Engine computes scores from participant counters.
type Engine struct {
	coldCallAverage int
	blendWeight     int
}

// NewEngine creates an engine with the given tuning options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		coldCallAverage: defaultColdCallAverage,
		blendWeight:     defaultBlendWeight,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score returns the displayed score: realized meeting revenue plus an
// in-flight credit for the current streak. The credit grows by
// unitValue/callGoal per streak call and is capped strictly below one full
// unit, so an unconverted streak can never outscore an actual meeting.
func (e *Engine) Score(p model.Participant) float64 {
	goal := p.CallGoal
	if goal < 1 {
		goal = 1
	}
	wpa := p.UnitValue / goal
	advance := float64(p.Streak) * wpa
	if advance >= p.UnitValue {
		advance = p.UnitValue - 1
	}
	if advance < 0 {
		advance = 0
	}
	return float64(p.Meetings)*p.UnitValue + advance
}

// KPIs are the per-participant conversion rates. Rates are fractions; the
// display layer multiplies by 100.
type KPIs struct {
	RealValuePerCall float64 `json:"real_value_per_call"`
	DeciderRate      float64 `json:"decider_rate"`
	MeetingRate      float64 `json:"meeting_rate"`
}

// KPIs derives conversion rates from the counters. MeetingRate divides by
// deciders (close rate), not by calls. Zero denominators yield 0.
func (e *Engine) KPIs(p model.Participant) KPIs {
	var k KPIs
	if p.Calls > 0 {
		k.RealValuePerCall = float64(p.Meetings) * p.UnitValue / float64(p.Calls)
		k.DeciderRate = float64(p.Deciders) / float64(p.Calls)
	}
	if p.Deciders > 0 {
		k.MeetingRate = float64(p.Meetings) / float64(p.Deciders)
	}
	return k
}

// Ranked pairs a participant with its computed score and 1-based rank.
type Ranked struct {
	Participant model.Participant `json:"participant"`
	Score       float64           `json:"score"`
	Rank        int               `json:"rank"`
}

// Rank orders participants by score descending. The sort is stable: equal
// scores keep their roster order, which is the documented tie behavior.
func (e *Engine) Rank(ps []model.Participant) []Ranked {
	ranked := make([]Ranked, len(ps))
	for i, p := range ps {
		ranked[i] = Ranked{Participant: p, Score: e.Score(p)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Leader returns the top-ranked participant, but only when its score is
// strictly positive. A board where everyone sits at zero has no leader.
func (e *Engine) Leader(ranked []Ranked) (Ranked, bool) {
	if len(ranked) == 0 || ranked[0].Score <= 0 {
		return Ranked{}, false
	}
	return ranked[0], true
}

// Rival roles.
const (
	RoleDefending = "defending"
	RoleChasing   = "chasing"
)

// Nemesis describes who a participant is racing against and by how much.
type Nemesis struct {
	Role      string  `json:"role"`
	RivalName string  `json:"rival_name"`
	Gap       float64 `json:"gap"`
}

// Nemesis computes the rivalry for one participant out of a ranked list.
// The top entry defends its lead over second place; everyone else chases
// the entry directly above. The gap is never negative by construction.
func (e *Engine) Nemesis(ranked []Ranked, participantID int) Nemesis {
	for i, r := range ranked {
		if r.Participant.ID != participantID {
			continue
		}
		if i == 0 {
			n := Nemesis{Role: RoleDefending}
			if len(ranked) > 1 {
				n.RivalName = ranked[1].Participant.DisplayName()
				n.Gap = r.Score - ranked[1].Score
			}
			return n
		}
		above := ranked[i-1]
		return Nemesis{
			Role:      RoleChasing,
			RivalName: above.Participant.DisplayName(),
			Gap:       above.Score - r.Score,
		}
	}
	return Nemesis{}
}

// TeamProgress is the roster-wide total against the configured target.
type TeamProgress struct {
	Total   float64 `json:"total"`
	Percent float64 `json:"percent"`
}

// TeamProgress sums every participant's score and clamps the percentage to
// [0, 100]. A target <= 0 never divides: progress is 0 for an empty total
// and 100 otherwise.
func (e *Engine) TeamProgress(ps []model.Participant, target float64) TeamProgress {
	var total float64
	for _, p := range ps {
		total += e.Score(p)
	}
	tp := TeamProgress{Total: total}
	if target <= 0 {
		if total > 0 {
			tp.Percent = percentScale
		}
		return tp
	}
	tp.Percent = math.Min(total/target*percentScale, percentScale)
	if tp.Percent < 0 {
		tp.Percent = 0
	}
	return tp
}

// Forecast is the advisory next-conversion estimate.
type Forecast struct {
	EstimatedCallsPerMeeting int     `json:"estimated_calls_per_meeting"`
	CallsRemaining           int     `json:"calls_remaining"`
	Confidence               float64 `json:"confidence"`
}

// PredictConversion estimates how many more calls the current streak needs
// before it converts. Before the first meeting the configured cold-call
// average stands in for the observed rate; afterwards the two are blended
// with the cold average weighted at blendWeight meetings, converging on
// ceil(calls/meetings) as the sample grows. CallsRemaining may go negative,
// which the display reads as "overdue". Confidence grows monotonically with
// the streak and is capped at 99.
func (e *Engine) PredictConversion(p model.Participant) Forecast {
	estimate := e.coldCallAverage
	if p.Meetings > 0 {
		observed := float64(p.Calls) / float64(p.Meetings)
		blended := (observed*float64(p.Meetings) + float64(e.coldCallAverage)*float64(e.blendWeight)) /
			float64(p.Meetings+e.blendWeight)
		estimate = int(math.Ceil(blended))
	}
	if estimate < 1 {
		estimate = 1
	}
	f := Forecast{
		EstimatedCallsPerMeeting: estimate,
		CallsRemaining:           estimate - p.Streak,
	}
	f.Confidence = math.Min(float64(p.Streak)/float64(estimate)*percentScale, maxConfidencePercent)
	return f
}
