package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/trezcool/carline/core/history"
)

// TopN is the size of the daily and monthly early-arrival rankings.
const TopN = 5

type (
	// Bucket aggregates history records.
	// Every record counts as an event; wait totals only use records with a valid wait
	// and first-arrival/last-pickup only use same-day records.
	Bucket struct {
		TotalEvents      int        `json:"total_events"`
		TotalWaitSeconds int        `json:"total_wait_seconds"`
		ValidWaitCount   int        `json:"valid_wait_count"`
		FirstArrival     *time.Time `json:"first_arrival,omitempty"`
		LastPickup       *time.Time `json:"last_pickup,omitempty"`
	}

	DailyMetrics struct {
		ByCampus map[string]*Bucket `json:"by_campus"`
		Global   Bucket             `json:"global"`
	}

	CarArrival struct {
		CarNumber        int       `json:"car_number"`
		Appearances      int       `json:"appearances"`
		EarliestQueuedAt time.Time `json:"earliest_queued_at"`
	}
)

func (b *Bucket) Add(rec history.Record, loc *time.Location) {
	b.TotalEvents++

	if rec.HasValidWait() {
		b.TotalWaitSeconds += rec.WaitSeconds
		b.ValidWaitCount++
	}

	if rec.IsSameDay(loc) {
		if b.FirstArrival == nil || rec.QueuedAt.Before(*b.FirstArrival) {
			t := rec.QueuedAt
			b.FirstArrival = &t
		}
		if b.LastPickup == nil || rec.CompletedAt.After(*b.LastPickup) {
			t := rec.CompletedAt
			b.LastPickup = &t
		}
	}
}

// AverageWaitSeconds is 0 when no record has a valid wait.
func (b Bucket) AverageWaitSeconds() float64 {
	if b.ValidWaitCount == 0 {
		return 0
	}
	return float64(b.TotalWaitSeconds) / float64(b.ValidWaitCount)
}

// RoundedAverageWait returns the average wait rounded to whole seconds.
func (b Bucket) RoundedAverageWait() int {
	return int(math.Round(b.AverageWaitSeconds()))
}

// Daily buckets records by campus and globally.
func Daily(records []history.Record, loc *time.Location) DailyMetrics {
	dm := DailyMetrics{ByCampus: make(map[string]*Bucket)}
	for _, rec := range records {
		b, ok := dm.ByCampus[rec.CampusID]
		if !ok {
			b = new(Bucket)
			dm.ByCampus[rec.CampusID] = b
		}
		b.Add(rec, loc)
		dm.Global.Add(rec, loc)
	}
	return dm
}

// TopArrivals ranks the cars that most often appeared among the TopN earliest same-day arrivals of a day.
// A car counts once per day, so a day's TopN slots go to its TopN earliest distinct cars.
// Ties are broken by the earliest queued instant. Records are expected to cover one campus and month.
func TopArrivals(records []history.Record, loc *time.Location) []CarArrival {
	byDay := make(map[string][]history.Record)
	for _, rec := range records {
		if !rec.IsSameDay(loc) {
			continue
		}
		day := history.DateLabel(rec.QueuedAt, loc)
		byDay[day] = append(byDay[day], rec)
	}

	tally := make(map[int]*CarArrival)
	for _, recs := range byDay {
		sort.Slice(recs, func(i, j int) bool { return recs[i].QueuedAt.Before(recs[j].QueuedAt) })

		seen := make(map[int]bool, TopN)
		for _, rec := range recs {
			if len(seen) == TopN {
				break
			}
			if seen[rec.CarNumber] {
				continue
			}
			seen[rec.CarNumber] = true

			ca, ok := tally[rec.CarNumber]
			if !ok {
				ca = &CarArrival{CarNumber: rec.CarNumber, EarliestQueuedAt: rec.QueuedAt}
				tally[rec.CarNumber] = ca
			}
			ca.Appearances++
			if rec.QueuedAt.Before(ca.EarliestQueuedAt) {
				ca.EarliestQueuedAt = rec.QueuedAt
			}
		}
	}

	ranking := make([]CarArrival, 0, len(tally))
	for _, ca := range tally {
		ranking = append(ranking, *ca)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Appearances != ranking[j].Appearances {
			return ranking[i].Appearances > ranking[j].Appearances
		}
		if !ranking[i].EarliestQueuedAt.Equal(ranking[j].EarliestQueuedAt) {
			return ranking[i].EarliestQueuedAt.Before(ranking[j].EarliestQueuedAt)
		}
		return ranking[i].CarNumber < ranking[j].CarNumber
	})
	if len(ranking) > TopN {
		ranking = ranking[:TopN]
	}
	return ranking
}
