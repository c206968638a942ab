package entity

// NewMatch is the single place that decides what an empty match looks like.
// Every nested structure is allocated so consumers never nil-check.
func NewMatch(id string) *Match {
	return &Match{
		ID:             id,
		HomeTeam:       NewTeam(),
		AwayTeam:       NewTeam(),
		Status:         NotStarted,
		Markets:        []Market{},
		MatchSituation: &MatchSituation{},
		MatchDetails:   &MatchDetails{},
		Source:         SourceLive,
		Prediction:     NewPrediction(),
	}
}

func NewTeam() *Team {
	return &Team{}
}

func NewPrediction() *Prediction {
	return &Prediction{
		HeadToHead:           &HeadToHead{Recent: []H2HResult{}},
		Odds:                 &PredictionOdds{},
		CornerStats:          &CornerStats{},
		ScoringPatterns:      &ScoringPatterns{},
		GoalDistribution:     &GoalDistribution{},
		ReasonsForPrediction: []string{},
	}
}
