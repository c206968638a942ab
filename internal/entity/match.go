package entity

// RawMatch is one record as it comes off the wire. It is the union of the
// live snapshot shape and the upcoming/prediction shape: the live feed fills
// the flat team fields, the prediction source fills the nested team objects.
type RawMatch struct {
	// Live shape
	EventID        FlexString    `json:"eventId"`
	HomeTeamID     FlexString    `json:"homeTeamId"`
	HomeTeamName   FlexString    `json:"homeTeamName"`
	AwayTeamID     FlexString    `json:"awayTeamId"`
	AwayTeamName   FlexString    `json:"awayTeamName"`
	MatchStatus    FlexString    `json:"matchStatus"`
	PlayedSeconds  FlexString    `json:"playedSeconds"`
	SetScore       FlexString    `json:"setScore"`
	Markets        []RawMarket   `json:"markets"`
	MatchSituation *RawSituation `json:"matchSituation"`
	MatchDetails   *RawDetails   `json:"matchDetails"`

	// Prediction shape
	ID                   FlexString           `json:"id"`
	HomeTeam             *RawTeam             `json:"homeTeam"`
	AwayTeam             *RawTeam             `json:"awayTeam"`
	Date                 string               `json:"date"`
	Time                 string               `json:"time"`
	Venue                string               `json:"venue"`
	PositionGap          FlexFloat            `json:"positionGap"`
	Favorite             *string              `json:"favorite"`
	ConfidenceScore      FlexFloat            `json:"confidenceScore"`
	ExpectedGoals        FlexFloat            `json:"expectedGoals"`
	DefensiveStrength    FlexFloat            `json:"defensiveStrength"`
	HeadToHead           *RawHeadToHead       `json:"headToHead"`
	Odds                 *RawOdds             `json:"odds"`
	CornerStats          *RawCornerStats      `json:"cornerStats"`
	ScoringPatterns      *RawScoringPatterns  `json:"scoringPatterns"`
	GoalDistribution     *RawGoalDistribution `json:"goalDistribution"`
	ReasonsForPrediction []string             `json:"reasonsForPrediction"`

	// Shared
	TournamentName string     `json:"tournamentName"`
	League         string     `json:"league"`
	Status         string     `json:"status"`
	MatchTime      string     `json:"matchTime"`
	Score          string     `json:"score"`
	CreatedAt      FlexString `json:"createdAt"`
}

// IsPrediction reports whether the record has the upcoming/prediction shape.
func (r *RawMatch) IsPrediction() bool {
	return r.HomeTeam != nil || r.AwayTeam != nil
}

type RawTeam struct {
	ID             FlexString `json:"id"`
	Name           string     `json:"name"`
	Position       FlexFloat  `json:"position"`
	Form           string     `json:"form"`
	Points         FlexFloat  `json:"points"`
	Played         FlexFloat  `json:"played"`
	GoalsScored    FlexFloat  `json:"goalsScored"`
	GoalsConceded  FlexFloat  `json:"goalsConceded"`
	AvgHomeGoals   FlexFloat  `json:"avgHomeGoals"`
	AvgAwayGoals   FlexFloat  `json:"avgAwayGoals"`
	AvgGoalsScored FlexFloat  `json:"avgGoalsScored"`
	AvgTotalGoals  FlexFloat  `json:"avgTotalGoals"`

	CleanSheets     FlexFloat `json:"cleanSheets"`
	HomeCleanSheets FlexFloat `json:"homeCleanSheets"`
	AwayCleanSheets FlexFloat `json:"awayCleanSheets"`
	CleanSheetRate  FlexFloat `json:"cleanSheetRate"`
	FailedToScore   FlexFloat `json:"failedToScore"`

	BTTSRate     FlexFloat `json:"bttsRate"`
	HomeBTTSRate FlexFloat `json:"homeBttsRate"`
	AwayBTTSRate FlexFloat `json:"awayBttsRate"`

	Over15Rate     FlexFloat `json:"over15Rate"`
	Over25Rate     FlexFloat `json:"over25Rate"`
	HomeOver25Rate FlexFloat `json:"homeOver25Rate"`
	AwayOver25Rate FlexFloat `json:"awayOver25Rate"`

	WinRate     FlexFloat `json:"winRate"`
	HomeWinRate FlexFloat `json:"homeWinRate"`
	AwayWinRate FlexFloat `json:"awayWinRate"`
}

type RawSituation struct {
	HomeAttacks          FlexFloat `json:"homeAttacks"`
	AwayAttacks          FlexFloat `json:"awayAttacks"`
	HomeDangerousAttacks FlexFloat `json:"homeDangerousAttacks"`
	AwayDangerousAttacks FlexFloat `json:"awayDangerousAttacks"`
	HomeSafe             FlexFloat `json:"homeSafe"`
	AwaySafe             FlexFloat `json:"awaySafe"`
}

type RawDetails struct {
	HomeCorners       FlexFloat `json:"homeCorners"`
	AwayCorners       FlexFloat `json:"awayCorners"`
	HomeYellowCards   FlexFloat `json:"homeYellowCards"`
	AwayYellowCards   FlexFloat `json:"awayYellowCards"`
	HomeRedCards      FlexFloat `json:"homeRedCards"`
	AwayRedCards      FlexFloat `json:"awayRedCards"`
	HomeShotsOnTarget FlexFloat `json:"homeShotsOnTarget"`
	AwayShotsOnTarget FlexFloat `json:"awayShotsOnTarget"`
	HomePossession    FlexFloat `json:"homePossession"`
	AwayPossession    FlexFloat `json:"awayPossession"`
}

type RawHeadToHead struct {
	Matches   FlexFloat      `json:"matches"`
	HomeWins  FlexFloat      `json:"homeWins"`
	AwayWins  FlexFloat      `json:"awayWins"`
	Draws     FlexFloat      `json:"draws"`
	HomeGoals FlexFloat      `json:"homeGoals"`
	AwayGoals FlexFloat      `json:"awayGoals"`
	AvgGoals  FlexFloat      `json:"avgGoals"`
	Recent    []RawH2HResult `json:"recentMatches"`
}

type RawH2HResult struct {
	Date     string `json:"date"`
	HomeTeam string `json:"homeTeam"`
	AwayTeam string `json:"awayTeam"`
	Score    string `json:"score"`
}

type RawOdds struct {
	Home    FlexFloat `json:"home"`
	Draw    FlexFloat `json:"draw"`
	Away    FlexFloat `json:"away"`
	Over15  FlexFloat `json:"over15"`
	Over25  FlexFloat `json:"over25"`
	BTTSYes FlexFloat `json:"bttsYes"`
	BTTSNo  FlexFloat `json:"bttsNo"`
}

type RawCornerStats struct {
	HomeAvg    FlexFloat `json:"homeAvg"`
	AwayAvg    FlexFloat `json:"awayAvg"`
	TotalAvg   FlexFloat `json:"totalAvg"`
	Over85Rate FlexFloat `json:"over85Rate"`
	Over95Rate FlexFloat `json:"over95Rate"`
}

type RawScoringPatterns struct {
	FirstHalfGoalsRate  FlexFloat `json:"firstHalfGoalsRate"`
	SecondHalfGoalsRate FlexFloat `json:"secondHalfGoalsRate"`
	HomeScoresFirstRate FlexFloat `json:"homeScoresFirstRate"`
	AwayScoresFirstRate FlexFloat `json:"awayScoresFirstRate"`
	LateGoalsRate       FlexFloat `json:"lateGoalsRate"`
}

type RawGoalDistribution struct {
	Min0To15  FlexFloat `json:"0-15"`
	Min16To30 FlexFloat `json:"16-30"`
	Min31To45 FlexFloat `json:"31-45"`
	Min46To60 FlexFloat `json:"46-60"`
	Min61To75 FlexFloat `json:"61-75"`
	Min76To90 FlexFloat `json:"76-90"`
}

// PredictionPayload is the body of the prediction endpoint and of the
// pushed prediction-data event.
type PredictionPayload struct {
	UpcomingMatches RawMatches         `json:"upcomingMatches"`
	Metadata        PredictionMetadata `json:"metadata"`
}

type PredictionMetadata struct {
	Total      FlexFloat      `json:"total"`
	Date       string         `json:"date"`
	LeagueData map[string]any `json:"leagueData"`
}
