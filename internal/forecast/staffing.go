package forecast

import (
	"fmt"
	"math"

	"maitred/internal/models"
)

// Covers-per-staff ratios and the usual baseline headcounts. The ratios are
// a fixed policy: one server handles about 18 covers a service, a host seats
// about 75, a kitchen member plates about 50. Headcounts are monotonic in
// covers by construction (rounded linear functions with a floor of 1).
const (
	coversPerServer  = 18
	coversPerHost    = 75
	coversPerKitchen = 50

	usualServers = 7
	usualHosts   = 2
	usualKitchen = 3
)

// StaffRecommender maps predicted covers to per-role headcounts. Pure
// function of the predicted covers; no historical staffing data is used.
type StaffRecommender struct{}

// NewStaffRecommender returns a StaffRecommender.
func NewStaffRecommender() *StaffRecommender {
	return &StaffRecommender{}
}

// Recommend derives the staffing plan for the predicted covers.
func (s *StaffRecommender) Recommend(predictedCovers int, restaurantID string) models.StaffRecommendation {
	servers := headcount(predictedCovers, coversPerServer)
	hosts := headcount(predictedCovers, coversPerHost)
	kitchen := headcount(predictedCovers, coversPerKitchen)

	total := servers + hosts + kitchen
	coversPerStaff := math.Round(float64(predictedCovers)/float64(total)*10) / 10

	rec := models.StaffRecommendation{
		Servers:        models.StaffDelta{Recommended: servers, Usual: usualServers, Delta: servers - usualServers},
		Hosts:          models.StaffDelta{Recommended: hosts, Usual: usualHosts, Delta: hosts - usualHosts},
		Kitchen:        models.StaffDelta{Recommended: kitchen, Usual: usualKitchen, Delta: kitchen - usualKitchen},
		CoversPerStaff: coversPerStaff,
	}
	rec.Rationale = rationale(predictedCovers, rec)
	return rec
}

func headcount(covers, perStaff int) int {
	n := int(math.Round(float64(covers) / float64(perStaff)))
	if n < 1 {
		n = 1
	}
	return n
}

func rationale(covers int, rec models.StaffRecommendation) string {
	switch {
	case rec.Servers.Delta > 0:
		return fmt.Sprintf("Above average demand (%d covers). Add %d server(s) for smooth service.", covers, rec.Servers.Delta)
	case rec.Servers.Delta < 0:
		return fmt.Sprintf("Below average demand (%d covers). %d fewer server(s) needed.", covers, -rec.Servers.Delta)
	default:
		return fmt.Sprintf("Typical demand (%d covers). Usual staffing holds.", covers)
	}
}
