// Package metrics derives consumption and cost statistics from the fuel
// records of one vehicle. Every function is pure: inputs are never modified
// and identical inputs give identical outputs.
package metrics

import (
	"cmp"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/ukydev/fuel-tracker/internal/models"
)

// Direction is the date order of a record list.
type Direction int

const (
	// Ascending is oldest first.
	Ascending Direction = iota
	// Descending is most recent first.
	Descending
)

type options struct {
	window    int
	direction Direction
}

// Option configures Sorted and Chart.
type Option func(*options)

// WithWindow keeps only the n most recent records. n <= 0 keeps all.
func WithWindow(n int) Option {
	return func(o *options) { o.window = n }
}

// WithDirection sets the output order of Sorted. Chart is always chronological.
func WithDirection(d Direction) Option {
	return func(o *options) { o.direction = d }
}

func apply(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Summary holds the aggregate statistics of a record set.
type Summary struct {
	RecordCount int `json:"recordCount"`
	// TotalSpent is the sum of total prices.
	TotalSpent float64 `json:"totalSpent"`
	// TotalFuel is the sum of refill amounts in liters.
	TotalFuel float64 `json:"totalFuel"`
	// AverageConsumption is the mean of the reported L/100km figures.
	AverageConsumption float64 `json:"averageConsumption"`
	// TotalDistance is the latest minus the earliest odometer reading. It is
	// negative when the odometer went backwards; see OdometerRegression.
	TotalDistance float64 `json:"totalDistance"`
	// TotalEstimatedDistance sums the post-refill range estimates of every record.
	TotalEstimatedDistance float64 `json:"totalEstimatedDistance"`
	// Efficiency is TotalDistance / TotalEstimatedDistance * 100.
	Efficiency float64 `json:"efficiency"`
	// OdometerRegression is set when a later record has a lower odometer
	// reading than the one before it.
	OdometerRegression bool `json:"odometerRegression"`
}

// ChartPoint is one sample of the consumption chart.
type ChartPoint struct {
	Date        models.Date `json:"date"`
	Consumption float64     `json:"consumption"`
	Price       float64     `json:"price"`
	Range       float64     `json:"range"`
}

// Summarize computes the aggregate statistics of records.
func Summarize(records []models.FuelRecord) Summary {
	s := Summary{RecordCount: len(records)}
	if len(records) == 0 {
		return s
	}

	var consumption float64
	for _, r := range records {
		s.TotalSpent += r.TotalPrice
		s.TotalFuel += r.RefillAmount
		s.TotalEstimatedDistance += r.EstimatedDistanceKm
		consumption += r.AvgConsumption
	}
	s.AverageConsumption = consumption / float64(len(records))

	chrono := Sorted(records)
	if len(chrono) > 1 {
		s.TotalDistance = chrono[len(chrono)-1].Odometer - chrono[0].Odometer
	}
	for i := 1; i < len(chrono); i++ {
		if chrono[i].Odometer < chrono[i-1].Odometer {
			s.OdometerRegression = true
			break
		}
	}

	if s.TotalEstimatedDistance > 0 {
		s.Efficiency = s.TotalDistance / s.TotalEstimatedDistance * 100
	}
	return s
}

// Sorted returns a copy of records ordered by date. Records with equal dates
// keep their relative order. By default the order is ascending.
func Sorted(records []models.FuelRecord, opts ...Option) []models.FuelRecord {
	o := apply(opts)

	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b models.FuelRecord) int {
		return a.Date.Compare(b.Date)
	})
	if o.window > 0 && len(out) > o.window {
		out = out[len(out)-o.window:]
	}
	if o.direction == Descending {
		reverseStable(out)
	}
	return out
}

// reverseStable turns an ascending, stable slice into a descending one in
// which records of equal date still appear in insertion order.
func reverseStable(records []models.FuelRecord) {
	slices.Reverse(records)
	for i := 0; i < len(records); {
		j := i + 1
		for j < len(records) && records[j].Date.Equal(records[i].Date) {
			j++
		}
		slices.Reverse(records[i:j])
		i = j
	}
}

// Recent returns the n most recent records, most recent first.
func Recent(records []models.FuelRecord, n int) []models.FuelRecord {
	return Sorted(records, WithDirection(Descending), WithWindow(n))
}

// Chart returns the chart series in chronological order. The sequence is
// finite and can be ranged over any number of times.
func Chart(records []models.FuelRecord, opts ...Option) iter.Seq[ChartPoint] {
	o := apply(opts)
	chrono := Sorted(records, WithWindow(o.window))
	return func(yield func(ChartPoint) bool) {
		for _, r := range chrono {
			p := ChartPoint{
				Date:        r.Date,
				Consumption: r.AvgConsumption,
				Price:       r.PricePerLiter,
				Range:       r.EstimatedDistanceKm,
			}
			if !yield(p) {
				return
			}
		}
	}
}

// SearchDateLayout is the date format matched by Filter.
const SearchDateLayout = "Jan 2, 2006"

// Filter returns the records matching query, most recent first. A record
// matches when its date (as "Jan 2, 2006", case-insensitive), odometer,
// average consumption or total price contains query.
func Filter(records []models.FuelRecord, query string) []models.FuelRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	matched := make([]models.FuelRecord, 0, len(records))
	for _, r := range records {
		if q == "" ||
			strings.Contains(strings.ToLower(r.Date.Format(SearchDateLayout)), q) ||
			strings.Contains(formatNumber(r.Odometer), q) ||
			strings.Contains(formatNumber(r.AvgConsumption), q) ||
			strings.Contains(formatNumber(r.TotalPrice), q) {
			matched = append(matched, r)
		}
	}
	return Sorted(matched, WithDirection(Descending))
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// LatestOdometer returns the odometer of the most recent record, or 0.
func LatestOdometer(records []models.FuelRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	latest := slices.MaxFunc(records, func(a, b models.FuelRecord) int {
		return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.Odometer, b.Odometer))
	})
	return latest.Odometer
}
