package models

import (
	"time"

	"vcdemo/pkg/validation"
)

// FormatDate renders the UTC calendar day of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(validation.ISODateLayout)
}

// ParseDate parses a YYYY-MM-DD string as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(validation.ISODateLayout, s)
}
