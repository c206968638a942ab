package parse

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"livebets/livematch/internal/entity"
)

var (
	// ErrMissingID is the only failure of Transform: a record without an id
	// cannot be tracked and must be skipped by the caller.
	ErrMissingID = errors.New("match record has no id")

	// ErrPredictionsNotLoaded marks a prediction payload whose shape is not
	// usable yet. It is not fatal; the next fetch retries.
	ErrPredictionsNotLoaded = errors.New("prediction data not loaded")
)

// Transform converts a raw wire record of either shape into a canonical
// match. Missing optional fields are replaced with zero values one by one.
func Transform(raw *entity.RawMatch) (*entity.Match, error) {
	if raw == nil {
		return nil, ErrMissingID
	}
	if raw.IsPrediction() {
		return transformPrediction(raw)
	}
	return transformLive(raw)
}

func transformLive(raw *entity.RawMatch) (*entity.Match, error) {
	id := firstString(raw.EventID, raw.ID)
	if id == "" {
		return nil, ErrMissingID
	}

	match := entity.NewMatch(id)
	match.Source = entity.SourceLive
	match.HomeTeam = &entity.Team{ID: strings.TrimSpace(raw.HomeTeamID.Value), Name: strings.TrimSpace(raw.HomeTeamName.Value)}
	match.AwayTeam = &entity.Team{ID: strings.TrimSpace(raw.AwayTeamID.Value), Name: strings.TrimSpace(raw.AwayTeamName.Value)}

	fillCommon(match, raw, firstText(raw.MatchStatus.Value, raw.Status), firstText(raw.PlayedSeconds.Value, raw.MatchTime))
	match.Score = formatScore(firstText(raw.SetScore.Value, raw.Score))
	match.Markets = markets(raw.Markets)
	match.MatchSituation = situation(raw.MatchSituation)
	match.MatchDetails = details(raw.MatchDetails)

	return match, nil
}

func transformPrediction(raw *entity.RawMatch) (*entity.Match, error) {
	id := firstString(raw.ID, raw.EventID)
	if id == "" {
		return nil, ErrMissingID
	}

	match := entity.NewMatch(id)
	match.Source = entity.SourcePrediction
	match.HomeTeam = team(raw.HomeTeam, true)
	match.AwayTeam = team(raw.AwayTeam, false)

	fillCommon(match, raw, raw.Status, raw.MatchTime)
	match.Score = formatScore(raw.Score)
	match.Markets = markets(raw.Markets)
	match.MatchSituation = situation(raw.MatchSituation)
	match.MatchDetails = details(raw.MatchDetails)
	match.Prediction = prediction(raw)

	return match, nil
}

func fillCommon(match *entity.Match, raw *entity.RawMatch, statusText, timeText string) {
	match.TournamentName = firstText(raw.TournamentName, raw.League)
	match.Status, match.PlayedSeconds = deriveClock(statusText, timeText)
	match.MatchTime = strings.TrimSpace(timeText)
	match.CreatedAt = formatCreatedAt(raw.CreatedAt)
}

// team resolves every statistic as venue-specific value, then generic value,
// then zero.
func team(raw *entity.RawTeam, home bool) *entity.Team {
	t := entity.NewTeam()
	if raw == nil {
		return t
	}

	t.ID = strings.TrimSpace(raw.ID.Value)
	t.Name = strings.TrimSpace(raw.Name)
	t.Position = count(raw.Position)
	t.Form = strings.ToUpper(strings.TrimSpace(raw.Form))
	t.Points = count(raw.Points)
	t.Played = count(raw.Played)
	t.GoalsScored = firstOf(raw.GoalsScored)
	t.GoalsConceded = firstOf(raw.GoalsConceded)
	t.AvgHomeGoals = firstOf(raw.AvgHomeGoals, raw.AvgGoalsScored)
	t.AvgAwayGoals = firstOf(raw.AvgAwayGoals, raw.AvgGoalsScored)
	t.AvgTotalGoals = firstOf(raw.AvgTotalGoals)
	t.CleanSheetRate = firstOf(raw.CleanSheetRate)
	t.FailedToScore = firstOf(raw.FailedToScore)
	t.Over15Rate = firstOf(raw.Over15Rate)

	if home {
		t.CleanSheets = firstOf(raw.HomeCleanSheets, raw.CleanSheets)
		t.BTTSRate = firstOf(raw.HomeBTTSRate, raw.BTTSRate)
		t.Over25Rate = firstOf(raw.HomeOver25Rate, raw.Over25Rate)
		t.WinRate = firstOf(raw.HomeWinRate, raw.WinRate)
	} else {
		t.CleanSheets = firstOf(raw.AwayCleanSheets, raw.CleanSheets)
		t.BTTSRate = firstOf(raw.AwayBTTSRate, raw.BTTSRate)
		t.Over25Rate = firstOf(raw.AwayOver25Rate, raw.Over25Rate)
		t.WinRate = firstOf(raw.AwayWinRate, raw.WinRate)
	}

	return t
}

func prediction(raw *entity.RawMatch) *entity.Prediction {
	p := entity.NewPrediction()

	p.Date = strings.TrimSpace(raw.Date)
	p.Time = strings.TrimSpace(raw.Time)
	p.Venue = strings.TrimSpace(raw.Venue)
	p.PositionGap = int(math.Round(firstOf(raw.PositionGap)))
	p.Favorite = favorite(raw.Favorite)
	p.ConfidenceScore = clamp(firstOf(raw.ConfidenceScore), 0, 100)
	p.ExpectedGoals = firstOf(raw.ExpectedGoals)
	p.DefensiveStrength = firstOf(raw.DefensiveStrength)

	if h2h := raw.HeadToHead; h2h != nil {
		p.HeadToHead.Matches = count(h2h.Matches)
		p.HeadToHead.HomeWins = count(h2h.HomeWins)
		p.HeadToHead.AwayWins = count(h2h.AwayWins)
		p.HeadToHead.Draws = count(h2h.Draws)
		p.HeadToHead.HomeGoals = count(h2h.HomeGoals)
		p.HeadToHead.AwayGoals = count(h2h.AwayGoals)
		p.HeadToHead.AvgGoals = firstOf(h2h.AvgGoals)
		for _, result := range h2h.Recent {
			p.HeadToHead.Recent = append(p.HeadToHead.Recent, entity.H2HResult{
				Date:     strings.TrimSpace(result.Date),
				HomeTeam: strings.TrimSpace(result.HomeTeam),
				AwayTeam: strings.TrimSpace(result.AwayTeam),
				Score:    formatScore(result.Score),
			})
		}
	}

	if odds := raw.Odds; odds != nil {
		*p.Odds = entity.PredictionOdds{
			Home:    firstOf(odds.Home),
			Draw:    firstOf(odds.Draw),
			Away:    firstOf(odds.Away),
			Over15:  firstOf(odds.Over15),
			Over25:  firstOf(odds.Over25),
			BTTSYes: firstOf(odds.BTTSYes),
			BTTSNo:  firstOf(odds.BTTSNo),
		}
	}

	if corners := raw.CornerStats; corners != nil {
		*p.CornerStats = entity.CornerStats{
			HomeAvg:    firstOf(corners.HomeAvg),
			AwayAvg:    firstOf(corners.AwayAvg),
			TotalAvg:   firstOf(corners.TotalAvg),
			Over85Rate: firstOf(corners.Over85Rate),
			Over95Rate: firstOf(corners.Over95Rate),
		}
	}

	if patterns := raw.ScoringPatterns; patterns != nil {
		*p.ScoringPatterns = entity.ScoringPatterns{
			FirstHalfGoalsRate:  firstOf(patterns.FirstHalfGoalsRate),
			SecondHalfGoalsRate: firstOf(patterns.SecondHalfGoalsRate),
			HomeScoresFirstRate: firstOf(patterns.HomeScoresFirstRate),
			AwayScoresFirstRate: firstOf(patterns.AwayScoresFirstRate),
			LateGoalsRate:       firstOf(patterns.LateGoalsRate),
		}
	}

	if dist := raw.GoalDistribution; dist != nil {
		*p.GoalDistribution = entity.GoalDistribution{
			Min0To15:  firstOf(dist.Min0To15),
			Min16To30: firstOf(dist.Min16To30),
			Min31To45: firstOf(dist.Min31To45),
			Min46To60: firstOf(dist.Min46To60),
			Min61To75: firstOf(dist.Min61To75),
			Min76To90: firstOf(dist.Min76To90),
		}
	}

	for _, reason := range raw.ReasonsForPrediction {
		if reason = strings.TrimSpace(reason); reason != "" {
			p.ReasonsForPrediction = append(p.ReasonsForPrediction, reason)
		}
	}

	return p
}

func markets(raw []entity.RawMarket) []entity.Market {
	result := make([]entity.Market, 0, len(raw))
	for _, market := range raw {
		outcomes := make([]entity.Outcome, 0, len(market.Outcomes))
		for _, outcome := range market.Outcomes {
			outcomes = append(outcomes, entity.Outcome{
				ID:              strings.TrimSpace(outcome.ID.Value),
				Description:     strings.TrimSpace(outcome.Description),
				Odds:            firstOf(outcome.Odds),
				StakePercentage: clamp(firstOf(outcome.StakePercentage), 0, 100),
			})
		}

		result = append(result, entity.Market{
			ID:               strings.TrimSpace(market.ID.Value),
			Description:      strings.TrimSpace(market.Description),
			Specifier:        strings.TrimSpace(market.Specifier),
			Favourite:        strings.TrimSpace(market.Favourite.Value),
			ProfitPercentage: firstOf(market.ProfitPercentage),
			Margin:           firstOf(market.Margin),
			Outcomes:         outcomes,
		})
	}
	return result
}

func situation(raw *entity.RawSituation) *entity.MatchSituation {
	if raw == nil {
		return &entity.MatchSituation{}
	}
	return &entity.MatchSituation{
		HomeAttacks:          count(raw.HomeAttacks),
		AwayAttacks:          count(raw.AwayAttacks),
		HomeDangerousAttacks: count(raw.HomeDangerousAttacks),
		AwayDangerousAttacks: count(raw.AwayDangerousAttacks),
		HomeSafe:             count(raw.HomeSafe),
		AwaySafe:             count(raw.AwaySafe),
	}
}

func details(raw *entity.RawDetails) *entity.MatchDetails {
	if raw == nil {
		return &entity.MatchDetails{}
	}
	return &entity.MatchDetails{
		HomeCorners:       count(raw.HomeCorners),
		AwayCorners:       count(raw.AwayCorners),
		HomeYellowCards:   count(raw.HomeYellowCards),
		AwayYellowCards:   count(raw.AwayYellowCards),
		HomeRedCards:      count(raw.HomeRedCards),
		AwayRedCards:      count(raw.AwayRedCards),
		HomeShotsOnTarget: count(raw.HomeShotsOnTarget),
		AwayShotsOnTarget: count(raw.AwayShotsOnTarget),
		HomePossession:    clamp(firstOf(raw.HomePossession), 0, 100),
		AwayPossession:    clamp(firstOf(raw.AwayPossession), 0, 100),
	}
}

// formatScore accepts "1:0", "1-0" or "1 - 0" and returns "1-0". Anything
// else is an empty score.
func formatScore(text string) string {
	text = strings.TrimSpace(text)
	sep := strings.IndexAny(text, ":-")
	if sep < 0 {
		return ""
	}
	home, errHome := strconv.Atoi(strings.TrimSpace(text[:sep]))
	away, errAway := strconv.Atoi(strings.TrimSpace(text[sep+1:]))
	if errHome != nil || errAway != nil || home < 0 || away < 0 {
		return ""
	}
	return strconv.Itoa(home) + "-" + strconv.Itoa(away)
}

// formatCreatedAt accepts RFC 3339 text or a unix timestamp in seconds or
// milliseconds and returns RFC 3339 in UTC, or "" when unparseable.
func formatCreatedAt(raw entity.FlexString) string {
	text := strings.TrimSpace(raw.Value)
	if !raw.Valid || text == "" {
		return ""
	}

	if unix, err := strconv.ParseInt(text, 10, 64); err == nil {
		if unix > 1e12 {
			return time.UnixMilli(unix).UTC().Format(time.RFC3339)
		}
		return time.Unix(unix, 0).UTC().Format(time.RFC3339)
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed.UTC().Format(time.RFC3339)
		}
	}
	return ""
}

func favorite(raw *string) string {
	if raw == nil {
		return ""
	}
	switch value := strings.ToLower(strings.TrimSpace(*raw)); value {
	case "home", "away":
		return value
	default:
		return ""
	}
}

func firstString(values ...entity.FlexString) string {
	for _, value := range values {
		if value.Present() {
			return strings.TrimSpace(value.Value)
		}
	}
	return ""
}

func firstText(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

// firstOf returns the first present, finite value, or 0.
func firstOf(values ...entity.FlexFloat) float64 {
	for _, value := range values {
		if value.Valid && !math.IsNaN(value.Value) && !math.IsInf(value.Value, 0) {
			return value.Value
		}
	}
	return 0
}

func count(value entity.FlexFloat) int {
	n := int(math.Round(firstOf(value)))
	if n < 0 {
		return 0
	}
	return n
}

func clamp(value, low, high float64) float64 {
	return math.Max(low, math.Min(high, value))
}
