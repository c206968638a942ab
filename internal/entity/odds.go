package entity

type RawMarket struct {
	ID               FlexString   `json:"id"`
	Description      string       `json:"desc"`
	Specifier        string       `json:"specifier"`
	Favourite        FlexString   `json:"favourite"`
	ProfitPercentage FlexFloat    `json:"profitPercentage"`
	Margin           FlexFloat    `json:"margin"`
	Outcomes         []RawOutcome `json:"outcomes"`
}

type RawOutcome struct {
	ID              FlexString `json:"id"`
	Description     string     `json:"desc"`
	Odds            FlexFloat  `json:"odds"`
	StakePercentage FlexFloat  `json:"stakePercentage"`
}

type Market struct {
	ID               string    `json:"id"`
	Description      string    `json:"description"`
	Specifier        string    `json:"specifier"`
	Favourite        string    `json:"favourite"`
	ProfitPercentage float64   `json:"profitPercentage"`
	Margin           float64   `json:"margin"`
	Outcomes         []Outcome `json:"outcomes"`
}

type Outcome struct {
	ID              string  `json:"id"`
	Description     string  `json:"description"`
	Odds            float64 `json:"odds"`
	StakePercentage float64 `json:"stakePercentage"`
	// IsChanged is set by the merger for the one cycle following an odds move.
	IsChanged bool `json:"isChanged"`
}

// PredictionOdds are the pre-match prices attached to a prediction record.
type PredictionOdds struct {
	Home    float64 `json:"home"`
	Draw    float64 `json:"draw"`
	Away    float64 `json:"away"`
	Over15  float64 `json:"over15"`
	Over25  float64 `json:"over25"`
	BTTSYes float64 `json:"bttsYes"`
	BTTSNo  float64 `json:"bttsNo"`
}
