package model

import "fmt"

// Period is a supported lookback window for historical data.
type Period string

const (
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period3y  Period = "3y"
	Period5y  Period = "5y"
	Period10y Period = "10y"
	PeriodMax Period = "max"
)

// Periods lists all supported lookback windows.
var Periods = []Period{Period1y, Period2y, Period3y, Period5y, Period10y, PeriodMax}

// ParsePeriod validates and returns the period for the given string.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if !p.Valid() {
		return "", fmt.Errorf("unsupported period %q", s)
	}
	return p, nil
}

// Valid reports whether the period is one of the supported lookback windows.
func (p Period) Valid() bool {
	switch p {
	case Period1y, Period2y, Period3y, Period5y, Period10y, PeriodMax:
		return true
	}
	return false
}

// Years returns the number of lookback years, or 0 for PeriodMax.
func (p Period) Years() int {
	switch p {
	case Period1y:
		return 1
	case Period2y:
		return 2
	case Period3y:
		return 3
	case Period5y:
		return 5
	case Period10y:
		return 10
	}
	return 0
}

func (p Period) String() string { return string(p) }
