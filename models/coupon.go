package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CouponSchedule restricts when a coupon may be redeemed. Empty ValidDays
// means every day; empty times mean the whole day.
type CouponSchedule struct {
	ValidDays map[string]bool `json:"valid_days"`
	BeginTime string          `json:"begin_time"`
	EndTime   string          `json:"end_time"`
}

// ActiveAt reports whether the schedule allows redemption at t. A window whose
// end lies before its begin runs over midnight.
func (s CouponSchedule) ActiveAt(t time.Time) bool {
	if len(s.ValidDays) > 0 && !s.ValidDays[strings.ToLower(t.Weekday().String())] {
		return false
	}

	begin, okBegin := parseClock(s.BeginTime)
	end, okEnd := parseClock(s.EndTime)
	if !okBegin || !okEnd {
		return true
	}

	now := t.Hour()*60 + t.Minute()
	if begin <= end {
		return now >= begin && now <= end
	}
	return now >= begin || now <= end
}

// Days returns the valid weekdays in calendar order, for display.
func (s CouponSchedule) Days() []string {
	order := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	days := make([]string, 0, len(order))
	for _, d := range order {
		if len(s.ValidDays) == 0 || s.ValidDays[d] {
			days = append(days, d)
		}
	}
	return days
}

func parseClock(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if parsed, err := time.Parse(layout, v); err == nil {
			return parsed.Hour()*60 + parsed.Minute(), true
		}
	}
	return 0, false
}

// CouponApplication is a validated coupon. DiscountRatio is in [0, 1].
type CouponApplication struct {
	Code          string          `json:"code"`
	DiscountRatio decimal.Decimal `json:"discount_ratio"`
	Schedule      *CouponSchedule `json:"schedule,omitempty"`
}

// Percentage is the ratio expressed for display, e.g. 0.1 -> 10.
func (c CouponApplication) Percentage() decimal.Decimal {
	return c.DiscountRatio.Mul(decimal.NewFromInt(100))
}
