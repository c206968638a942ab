package entity

// Status is the closed set of match states shown to the UI.
type Status int

const (
	NotStarted Status = iota
	FirstHalf
	HalfTime
	SecondHalf
	FullTime
)

var statusNames = [...]string{
	NotStarted: "NotStarted",
	FirstHalf:  "FirstHalf",
	HalfTime:   "HalfTime",
	SecondHalf: "SecondHalf",
	FullTime:   "FullTime",
}

func (s Status) String() string {
	if s < NotStarted || s > FullTime {
		return statusNames[NotStarted]
	}
	return statusNames[s]
}

func (s Status) Valid() bool {
	return s >= NotStarted && s <= FullTime
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Source string

const (
	SourceLive       Source = "live"
	SourcePrediction Source = "prediction"
)

// Match is the canonical representation of one fixture, whichever upstream
// shape it came from. Transform always returns it fully populated: teams,
// situation, details and every prediction block are non-nil.
type Match struct {
	ID             string          `json:"id"`
	HomeTeam       *Team           `json:"homeTeam"`
	AwayTeam       *Team           `json:"awayTeam"`
	TournamentName string          `json:"tournamentName"`
	Status         Status          `json:"status"`
	PlayedSeconds  int             `json:"playedSeconds"`
	Score          string          `json:"score"`
	Markets        []Market        `json:"markets"`
	MatchSituation *MatchSituation `json:"matchSituation"`
	MatchDetails   *MatchDetails   `json:"matchDetails"`
	CreatedAt      string          `json:"createdAt"`
	MatchTime      string          `json:"matchTime"`
	Source         Source          `json:"source"`
	Prediction     *Prediction     `json:"prediction"`
}

// Team is comparable with ==; the merger relies on that.
type Team struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Position      int     `json:"position"`
	Form          string  `json:"form"`
	Points        int     `json:"points"`
	Played        int     `json:"played"`
	GoalsScored   float64 `json:"goalsScored"`
	GoalsConceded float64 `json:"goalsConceded"`
	AvgHomeGoals  float64 `json:"avgHomeGoals"`
	AvgAwayGoals  float64 `json:"avgAwayGoals"`
	AvgTotalGoals float64 `json:"avgTotalGoals"`

	CleanSheets    float64 `json:"cleanSheets"`
	CleanSheetRate float64 `json:"cleanSheetRate"`
	FailedToScore  float64 `json:"failedToScore"`
	BTTSRate       float64 `json:"bttsRate"`
	Over15Rate     float64 `json:"over15Rate"`
	Over25Rate     float64 `json:"over25Rate"`
	WinRate        float64 `json:"winRate"`
}

type MatchSituation struct {
	HomeAttacks          int `json:"homeAttacks"`
	AwayAttacks          int `json:"awayAttacks"`
	HomeDangerousAttacks int `json:"homeDangerousAttacks"`
	AwayDangerousAttacks int `json:"awayDangerousAttacks"`
	HomeSafe             int `json:"homeSafe"`
	AwaySafe             int `json:"awaySafe"`
}

type MatchDetails struct {
	HomeCorners       int     `json:"homeCorners"`
	AwayCorners       int     `json:"awayCorners"`
	HomeYellowCards   int     `json:"homeYellowCards"`
	AwayYellowCards   int     `json:"awayYellowCards"`
	HomeRedCards      int     `json:"homeRedCards"`
	AwayRedCards      int     `json:"awayRedCards"`
	HomeShotsOnTarget int     `json:"homeShotsOnTarget"`
	AwayShotsOnTarget int     `json:"awayShotsOnTarget"`
	HomePossession    float64 `json:"homePossession"`
	AwayPossession    float64 `json:"awayPossession"`
}

// Prediction holds the fields only the prediction shape carries.
type Prediction struct {
	Date                 string            `json:"date"`
	Time                 string            `json:"time"`
	Venue                string            `json:"venue"`
	PositionGap          int               `json:"positionGap"`
	Favorite             string            `json:"favorite"`
	ConfidenceScore      float64           `json:"confidenceScore"`
	ExpectedGoals        float64           `json:"expectedGoals"`
	DefensiveStrength    float64           `json:"defensiveStrength"`
	HeadToHead           *HeadToHead       `json:"headToHead"`
	Odds                 *PredictionOdds   `json:"odds"`
	CornerStats          *CornerStats      `json:"cornerStats"`
	ScoringPatterns      *ScoringPatterns  `json:"scoringPatterns"`
	GoalDistribution     *GoalDistribution `json:"goalDistribution"`
	ReasonsForPrediction []string          `json:"reasonsForPrediction"`
}

type HeadToHead struct {
	Matches   int         `json:"matches"`
	HomeWins  int         `json:"homeWins"`
	AwayWins  int         `json:"awayWins"`
	Draws     int         `json:"draws"`
	HomeGoals int         `json:"homeGoals"`
	AwayGoals int         `json:"awayGoals"`
	AvgGoals  float64     `json:"avgGoals"`
	Recent    []H2HResult `json:"recentMatches"`
}

type H2HResult struct {
	Date     string `json:"date"`
	HomeTeam string `json:"homeTeam"`
	AwayTeam string `json:"awayTeam"`
	Score    string `json:"score"`
}

type CornerStats struct {
	HomeAvg    float64 `json:"homeAvg"`
	AwayAvg    float64 `json:"awayAvg"`
	TotalAvg   float64 `json:"totalAvg"`
	Over85Rate float64 `json:"over85Rate"`
	Over95Rate float64 `json:"over95Rate"`
}

type ScoringPatterns struct {
	FirstHalfGoalsRate  float64 `json:"firstHalfGoalsRate"`
	SecondHalfGoalsRate float64 `json:"secondHalfGoalsRate"`
	HomeScoresFirstRate float64 `json:"homeScoresFirstRate"`
	AwayScoresFirstRate float64 `json:"awayScoresFirstRate"`
	LateGoalsRate       float64 `json:"lateGoalsRate"`
}

// GoalDistribution is the share of goals per 15 minute bucket.
type GoalDistribution struct {
	Min0To15  float64 `json:"0-15"`
	Min16To30 float64 `json:"16-30"`
	Min31To45 float64 `json:"31-45"`
	Min46To60 float64 `json:"46-60"`
	Min61To75 float64 `json:"61-75"`
	Min76To90 float64 `json:"76-90"`
}
