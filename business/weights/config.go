package weights

import (
	"context"

	"adaptiveCreative/domain"
)

type Config struct {
	// ridge constant added to the score energy so low-variance scorers
	// cannot blow the coefficient up
	RidgeLambda float64

	// largest change of a learned weight allowed in one run
	MaxStep float64

	MinLearned float64
	MaxLearned float64
}

func DefaultConfig() Config {
	return Config{
		RidgeLambda: 1.0,
		MaxStep:     0.15,
		MinLearned:  0.1,
		MaxLearned:  2.0,
	}
}

// ---- Repository interfaces ----

type StateRepository interface {
	ListWeightStates(ctx context.Context, brandID string) ([]domain.ScorerWeightState, error)
	SaveWeightStates(ctx context.Context, states []domain.ScorerWeightState) error
}

type ObservationRepository interface {
	// ListRewardedObservations returns observations whose reward is filled.
	ListRewardedObservations(ctx context.Context, brandID string) ([]domain.ScorerObservation, error)
}
