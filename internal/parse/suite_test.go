package parse

import (
	"os"
	"path"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"livebets/livematch/internal/entity"
)

const (
	jsonPath = "testdata"
)

func getFile(t *testing.T, fileName string) []byte {
	t.Helper()

	body, err := os.ReadFile(path.Join(jsonPath, fileName))
	require.NoErrorf(t, err, "read %s", fileName)
	return body
}

func getLiveRecords(t *testing.T, fileName string) []entity.RawMatch {
	t.Helper()

	var records []entity.RawMatch
	require.NoErrorf(t, sonic.Unmarshal(getFile(t, fileName), &records), "unmarshal %s", fileName)
	return records
}

func getPredictionPayload(t *testing.T, fileName string) *entity.PredictionPayload {
	t.Helper()

	var payload entity.PredictionPayload
	require.NoErrorf(t, sonic.Unmarshal(getFile(t, fileName), &payload), "unmarshal %s", fileName)
	return &payload
}

// requireComplete checks that no nested structure was left nil.
func requireComplete(t *testing.T, match *entity.Match) {
	t.Helper()

	require.NotNil(t, match.HomeTeam)
	require.NotNil(t, match.AwayTeam)
	require.NotNil(t, match.Markets)
	require.NotNil(t, match.MatchSituation)
	require.NotNil(t, match.MatchDetails)
	require.NotNil(t, match.Prediction)
	require.NotNil(t, match.Prediction.HeadToHead)
	require.NotNil(t, match.Prediction.HeadToHead.Recent)
	require.NotNil(t, match.Prediction.Odds)
	require.NotNil(t, match.Prediction.CornerStats)
	require.NotNil(t, match.Prediction.ScoringPatterns)
	require.NotNil(t, match.Prediction.GoalDistribution)
	require.NotNil(t, match.Prediction.ReasonsForPrediction)
	require.GreaterOrEqual(t, match.PlayedSeconds, 0)
	require.True(t, match.Status.Valid())
}
