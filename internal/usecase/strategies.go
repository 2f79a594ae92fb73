package usecase

import (
	"context"

	"TraderGenie/internal/domain/models"
	domainrepo "TraderGenie/internal/domain/repository"
	"TraderGenie/pkg/logger"
)

// StrategyService is the management surface over the strategy catalog.
type StrategyService struct {
	repo domainrepo.StrategyRepository
	log  *logger.Logger
}

func NewStrategyService(repo domainrepo.StrategyRepository, log *logger.Logger) *StrategyService {
	if log == nil {
		log = logger.Nop()
	}
	return &StrategyService{repo: repo, log: log}
}

func (s *StrategyService) List(ctx context.Context, activeOnly bool) ([]models.Strategy, error) {
	if activeOnly {
		return s.repo.ListActive(ctx)
	}
	return s.repo.List(ctx)
}

func (s *StrategyService) Get(ctx context.Context, id string) (models.Strategy, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a user strategy. Definitions produced by the strategy
// generator arrive here too, flagged AIGenerated by the caller.
func (s *StrategyService) Create(ctx context.Context, st models.Strategy) (models.Strategy, error) {
	st.IsBuiltin = false
	created, err := s.repo.Create(ctx, st)
	if err != nil {
		return models.Strategy{}, err
	}
	s.log.Info("strategy created",
		logger.String("strategy_id", created.ID),
		logger.String("type", string(created.Type)),
		logger.Int("conditions", len(created.EntryRules.Conditions)),
	)
	return created, nil
}

func (s *StrategyService) Toggle(ctx context.Context, id string, active bool) (models.Strategy, error) {
	st, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return models.Strategy{}, err
	}
	s.log.Info("strategy toggled", logger.String("strategy_id", id), logger.Bool("active", active))
	return st, nil
}

func (s *StrategyService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("strategy deleted", logger.String("strategy_id", id))
	return nil
}
