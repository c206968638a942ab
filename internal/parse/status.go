package parse

import (
	"strconv"
	"strings"

	"livebets/livematch/internal/entity"
)

// Known match-state vocabulary. Upstream wording changes without notice, so
// anything missing here falls back to NotStarted.
var statusSynonyms = map[string]entity.Status{
	"not started": entity.NotStarted,
	"notstarted":  entity.NotStarted,
	"ns":          entity.NotStarted,
	"scheduled":   entity.NotStarted,
	"upcoming":    entity.NotStarted,
	"prematch":    entity.NotStarted,
	"pre-match":   entity.NotStarted,

	"1st half":   entity.FirstHalf,
	"first half": entity.FirstHalf,
	"firsthalf":  entity.FirstHalf,
	"1h":         entity.FirstHalf,
	"h1":         entity.FirstHalf,
	"1st":        entity.FirstHalf,

	"ht":        entity.HalfTime,
	"half time": entity.HalfTime,
	"halftime":  entity.HalfTime,
	"half-time": entity.HalfTime,
	"break":     entity.HalfTime,
	"interval":  entity.HalfTime,

	"2nd half":    entity.SecondHalf,
	"second half": entity.SecondHalf,
	"secondhalf":  entity.SecondHalf,
	"2h":          entity.SecondHalf,
	"h2":          entity.SecondHalf,
	"2nd":         entity.SecondHalf,

	"ft":               entity.FullTime,
	"full time":        entity.FullTime,
	"fulltime":         entity.FullTime,
	"full-time":        entity.FullTime,
	"ended":            entity.FullTime,
	"end":              entity.FullTime,
	"finished":         entity.FullTime,
	"aet":              entity.FullTime,
	"after extra time": entity.FullTime,
	"ap":               entity.FullTime,
	"after penalties":  entity.FullTime,
}

// ParseStatus maps free-text match state to the closed status set.
func ParseStatus(text string) entity.Status {
	key := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if status, ok := statusSynonyms[key]; ok {
		return status
	}
	return entity.NotStarted
}

// maxClockMinutes bounds the minutes ParseClock accepts, per part and in
// total; larger values are treated as malformed.
const maxClockMinutes = 1_000_000

// ParseClock turns "mm:ss" elapsed text into seconds. Added time written as
// "45+2:10" is folded into the minutes. Anything malformed is 0.
func ParseClock(text string) int {
	minutesText, secondsText, ok := strings.Cut(strings.TrimSpace(text), ":")
	if !ok {
		return 0
	}

	minutes := 0
	for _, part := range strings.Split(minutesText, "+") {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value < 0 || value > maxClockMinutes {
			return 0
		}
		minutes += value
		if minutes > maxClockMinutes {
			return 0
		}
	}

	seconds, err := strconv.Atoi(strings.TrimSpace(secondsText))
	if err != nil || seconds < 0 || seconds > 59 {
		return 0
	}

	return minutes*60 + seconds
}

// deriveClock is the only place Status and PlayedSeconds are computed; both
// always come from the same pair of raw fields.
func deriveClock(statusText, timeText string) (entity.Status, int) {
	status := ParseStatus(statusText)
	if status == entity.NotStarted {
		return status, 0
	}
	return status, ParseClock(timeText)
}
