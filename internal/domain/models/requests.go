package models

// ScanRequest is the input of one scanner run. Nil MinConfidence or Limit
// falls back to the configured defaults.
type ScanRequest struct {
	StrategyIDs   []string `json:"strategy_ids" validate:"omitempty,dive,required"`
	MinConfidence *int     `json:"min_confidence" validate:"omitempty,gte=0,lte=100"`
	Limit         *int     `json:"limit" validate:"omitempty,gte=1,lte=500"`
}

type HistoryRequest struct {
	AssetID string `query:"coin_id"`
	Limit   int    `query:"limit" default:"20" validate:"gte=1,lte=500"`
}

type PricesRequest struct {
	IDs        string `query:"ids" default:"bitcoin,ethereum,solana,dogecoin,cardano,ripple,polkadot,avalanche-2,chainlink,polygon"`
	VsCurrency string `query:"vs_currency" default:"usd" validate:"alpha,max=8"`
}

type TopCoinsRequest struct {
	Limit      int    `query:"limit" default:"20" validate:"gte=1,lte=250"`
	VsCurrency string `query:"vs_currency" default:"usd" validate:"alpha,max=8"`
}

type CoinRequest struct {
	ID         string `param:"coin_id" validate:"required,max=128,excludesall=/?#"`
	VsCurrency string `query:"vs_currency" default:"usd" validate:"alpha,max=8"`
}

type GlobalRequest struct {
	VsCurrency string `query:"vs_currency" default:"usd" validate:"alpha,max=8"`
}

type StrategyIDRequest struct {
	ID string `param:"id" validate:"required"`
}

type ToggleStrategyRequest struct {
	ID     string `param:"id" validate:"required"`
	Active *bool  `json:"active" validate:"required"`
}

type ListStrategiesRequest struct {
	ActiveOnly bool `query:"active"`
}

// CreateStrategyRequest is the intake shape for user and generated
// strategies. An empty ID is assigned by the catalog.
type CreateStrategyRequest struct {
	ID          string       `json:"id" validate:"omitempty,max=64"`
	Name        string       `json:"name" validate:"required,max=128"`
	Description string       `json:"description" validate:"max=1024"`
	Type        StrategyType `json:"type" validate:"required,oneof=trend reversal breakout meme_short custom"`
	Timeframes  []string     `json:"timeframes"`
	EntryRules  RuleSet      `json:"entry_rules"`
	ExitRules   *RuleSet     `json:"exit_rules"`
	RiskParams  RiskParams   `json:"risk_params"`
	Filters     Filters      `json:"filters"`
	IsActive    *bool        `json:"is_active"`
	AIGenerated bool         `json:"ai_generated"`
}

// Strategy converts the request. Strategies are active unless the request
// says otherwise.
func (r CreateStrategyRequest) Strategy() Strategy {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return Strategy{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		Timeframes:  r.Timeframes,
		EntryRules:  r.EntryRules,
		ExitRules:   r.ExitRules,
		RiskParams:  r.RiskParams,
		Filters:     r.Filters,
		IsActive:    active,
		AIGenerated: r.AIGenerated,
	}
}
