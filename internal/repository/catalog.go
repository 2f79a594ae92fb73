package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"TraderGenie/internal/domain/models"
	domainrepo "TraderGenie/internal/domain/repository"
	"TraderGenie/internal/engine"
)

// Catalog unifies built-in and user strategies behind one repository.
// Built-ins are listed first, then user strategies by id.
type Catalog struct {
	builtins *BuiltinStore
	users    UserStrategyStore
	now      func() time.Time
}

var _ domainrepo.StrategyRepository = (*Catalog)(nil)

func NewCatalog(builtins *BuiltinStore, users UserStrategyStore) *Catalog {
	return &Catalog{builtins: builtins, users: users, now: time.Now}
}

func (c *Catalog) List(ctx context.Context) ([]models.Strategy, error) {
	out := c.builtins.List(ctx)
	users, err := c.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return append(out, users...), nil
}

func (c *Catalog) ListActive(ctx context.Context) ([]models.Strategy, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, s := range all {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (models.Strategy, error) {
	if s, ok := c.builtins.Get(ctx, id); ok {
		return s, nil
	}
	return c.users.Get(ctx, id)
}

func (c *Catalog) SetActive(ctx context.Context, id string, active bool) (models.Strategy, error) {
	if s, ok := c.builtins.SetActive(ctx, id, active); ok {
		return s, nil
	}
	return c.users.SetActive(ctx, id, active)
}

// Create validates and stores a user strategy. An empty id gets a generated
// one; ids of built-ins are reserved.
func (c *Catalog) Create(ctx context.Context, s models.Strategy) (models.Strategy, error) {
	s.ID = strings.TrimSpace(s.ID)
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if c.builtins.Has(s.ID) {
		return models.Strategy{}, fmt.Errorf("%w: %s is a built-in", domainrepo.ErrStrategyIDTaken, s.ID)
	}
	if err := ValidateStrategy(s); err != nil {
		return models.Strategy{}, err
	}

	s.IsBuiltin = false
	s.Timeframes = domainrepo.NormalizeTimeframes(s.Timeframes)
	s.CreatedAt = c.now().UTC()

	if err := c.users.Create(ctx, s); err != nil {
		return models.Strategy{}, err
	}
	return s, nil
}

func (c *Catalog) Delete(ctx context.Context, id string) error {
	if c.builtins.Has(id) {
		return domainrepo.ErrBuiltinImmutable
	}
	return c.users.Delete(ctx, id)
}

// ValidateStrategy checks the shape of an incoming strategy definition.
func ValidateStrategy(s models.Strategy) error {
	if !s.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", domainrepo.ErrInvalidStrategy, s.Type)
	}
	if err := engine.ValidateRuleSet(s.EntryRules); err != nil {
		return fmt.Errorf("%w: entry_rules: %w", domainrepo.ErrInvalidStrategy, err)
	}
	if s.ExitRules != nil {
		if err := engine.ValidateRuleSet(*s.ExitRules); err != nil {
			return fmt.Errorf("%w: exit_rules: %w", domainrepo.ErrInvalidStrategy, err)
		}
	}
	if s.RiskParams.RewardRatio <= 0 {
		return fmt.Errorf("%w: reward_ratio must be positive", domainrepo.ErrInvalidStrategy)
	}
	f := s.Filters
	if f.MinMarketCap > 0 && f.MaxMarketCap > 0 && f.MinMarketCap > f.MaxMarketCap {
		return fmt.Errorf("%w: min_market_cap exceeds max_market_cap", domainrepo.ErrInvalidStrategy)
	}
	return nil
}
