package domain

import (
	"math"
	"strconv"
	"time"
)

// StandardAnnualKm is the reference annual mileage used to derive a
// vehicle's total contracted distance from its duration.
const StandardAnnualKm = 80000

// EstimatedTotalKm derives the total contracted distance for a
// duration in months: round(months/12 × 80000), returned as an integer
// string. Empty, non-numeric or non-positive durations yield "".
//
// This is a one-way push: the caller overwrites the total-distance
// field with the result whenever duration changes, and never the other
// way around.
func EstimatedTotalKm(durationMonths string) string {
	months, err := strconv.Atoi(durationMonths)
	if err != nil || months <= 0 {
		return ""
	}
	km := math.Round(float64(months) / 12 * StandardAnnualKm)
	return strconv.Itoa(int(km))
}

// StartDateLayout is the wire format for requested start dates.
const StartDateLayout = "2006-01-02"

// ParseStartDate parses a YYYY-MM-DD start date.
func ParseStartDate(s string) (time.Time, error) {
	return time.Parse(StartDateLayout, s)
}

// ContractEndDate advances a start date by the contract duration using
// calendar month arithmetic, not fixed 30-day periods.
func ContractEndDate(start time.Time, durationMonths int) time.Time {
	return start.AddDate(0, durationMonths, 0)
}
