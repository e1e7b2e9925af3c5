// Package evaluation measures realized forecast accuracy from predictions
// that have received operator feedback. Unlike the dispersion proxy attached
// to each prediction, these numbers are actual backtested errors.
package evaluation

import (
	"math"

	"maitred/internal/database"
)

// Summary aggregates forecast error over a set of outcomes.
type Summary struct {
	Samples int     `json:"samples"`
	MAPE    float64 `json:"mape"`
	MAE     float64 `json:"mae"`
	Bias    float64 `json:"bias"`
}

// Report is the full accuracy report: an overall summary plus per-service
// and per-provenance breakdowns.
type Report struct {
	Overall       Summary            `json:"overall"`
	ByServiceType map[string]Summary `json:"by_service_type"`
	BySource      map[string]Summary `json:"by_source"`
}

// Evaluate computes the accuracy report for a set of outcomes. Outcomes with
// non-positive actual covers are skipped; a percentage error against zero is
// undefined.
func Evaluate(outcomes []database.ForecastOutcome) Report {
	report := Report{
		ByServiceType: make(map[string]Summary),
		BySource:      make(map[string]Summary),
	}

	var overall accumulator
	byService := make(map[string]*accumulator)
	bySource := make(map[string]*accumulator)

	for _, o := range outcomes {
		if o.ActualCovers <= 0 {
			continue
		}
		overall.add(o)

		if byService[o.ServiceType] == nil {
			byService[o.ServiceType] = &accumulator{}
		}
		byService[o.ServiceType].add(o)

		source := o.PatternSource
		if source == "" {
			source = "unknown"
		}
		if bySource[source] == nil {
			bySource[source] = &accumulator{}
		}
		bySource[source].add(o)
	}

	report.Overall = overall.summary()
	for st, acc := range byService {
		report.ByServiceType[st] = acc.summary()
	}
	for src, acc := range bySource {
		report.BySource[src] = acc.summary()
	}
	return report
}

type accumulator struct {
	n         int
	absPctSum float64
	absErrSum float64
	signedSum float64
}

func (a *accumulator) add(o database.ForecastOutcome) {
	err := float64(o.PredictedCovers - o.ActualCovers)
	a.n++
	a.absPctSum += math.Abs(err) / float64(o.ActualCovers) * 100
	a.absErrSum += math.Abs(err)
	a.signedSum += err
}

func (a *accumulator) summary() Summary {
	if a.n == 0 {
		return Summary{}
	}
	return Summary{
		Samples: a.n,
		MAPE:    round1(a.absPctSum / float64(a.n)),
		MAE:     round1(a.absErrSum / float64(a.n)),
		Bias:    round1(a.signedSum / float64(a.n)),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
