package parse

import (
	"github.com/cockroachdb/errors"

	"livebets/livematch/internal/entity"
)

// Snapshot transforms one feed tick. Records without an id are skipped and
// counted; the rest keep feed order, a repeated id keeps its first position
// and the last value.
func Snapshot(raws []entity.RawMatch) (*entity.Snapshot, int) {
	snapshot := entity.NewSnapshot(len(raws))
	skipped := 0

	for i := range raws {
		match, err := Transform(&raws[i])
		if err != nil {
			skipped++
			continue
		}
		snapshot.Put(match)
	}

	return snapshot, skipped
}

// Predictions validates a prediction payload and transforms its records.
// A payload that is missing, empty or whose first record has no id or team
// names is reported as ErrPredictionsNotLoaded.
func Predictions(payload *entity.PredictionPayload) ([]*entity.Match, error) {
	if payload == nil || len(payload.UpcomingMatches) == 0 {
		return nil, errors.Wrap(ErrPredictionsNotLoaded, "no upcoming matches")
	}

	first := payload.UpcomingMatches[0]
	if !first.ID.Present() || first.HomeTeam == nil || first.AwayTeam == nil ||
		first.HomeTeam.Name == "" || first.AwayTeam.Name == "" {
		return nil, errors.Wrap(ErrPredictionsNotLoaded, "first record lacks id or team names")
	}

	predictions := make([]*entity.Match, 0, len(payload.UpcomingMatches))
	for i := range payload.UpcomingMatches {
		match, err := Transform(&payload.UpcomingMatches[i])
		if err != nil {
			continue
		}
		predictions = append(predictions, match)
	}

	return predictions, nil
}
