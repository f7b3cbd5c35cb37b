package models

import "time"

// MinimumAge is the admission threshold in whole years. Records below it
// are rejected on every write.
const MinimumAge = 18

// AgeAt returns whole elapsed calendar years between birth and now. It is
// calendar subtraction, not day counting, so someone born 2006-03-02 is 17
// on 2024-03-01 and 18 on 2024-03-02.
func AgeAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// EligibleAt reports whether a record with the given birth date may be
// admitted at time now. A missing birth date counts as age 0 and is
// rejected.
func EligibleAt(birth *time.Time, now time.Time) bool {
	if birth == nil {
		return false
	}
	return AgeAt(*birth, now) >= MinimumAge
}
