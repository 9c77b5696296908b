package service

import (
	"context"

	"mine_economy/internal/domain"
	"mine_economy/internal/logger"
	"mine_economy/internal/metrics"
	"mine_economy/internal/repository"
	"mine_economy/internal/reward"

	"github.com/jonboulle/clockwork"
)

// CaseService sells loot cases for gold.
type CaseService struct {
	store   repository.Store
	clock   clockwork.Clock
	src     reward.Source
	catalog *reward.Catalog
}

func NewCaseService(store repository.Store, clock clockwork.Clock, src reward.Source, catalog *reward.Catalog) *CaseService {
	return &CaseService{store: store, clock: clock, src: src, catalog: catalog}
}

// ListCases returns the catalog, cheapest first.
func (s *CaseService) ListCases() []reward.Case {
	return s.catalog.List()
}

// CaseResult reports an opened case.
type CaseResult struct {
	CaseID string `json:"case_id"`
	Cost   int64  `json:"cost"`
	Reward int64  `json:"reward"`
	Gold   int64  `json:"gold"`
}

// OpenCase charges the case cost and pays one draw from its table. The debit
// is applied first, so an unaffordable case pays nothing.
func (s *CaseService) OpenCase(ctx context.Context, userID int64, caseID string) (*CaseResult, error) {
	cs, err := s.catalog.Lookup(caseID)
	if err != nil {
		return nil, err
	}
	won, err := reward.Draw(s.src, cs.Rewards)
	if err != nil {
		return nil, err
	}

	res := &CaseResult{CaseID: cs.ID, Cost: cs.Cost, Reward: won}
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		now := s.clock.Now()
		meta := map[string]interface{}{"case": cs.ID}
		if _, err := apply(ctx, tx, now, delta{UserID: userID, Field: domain.FieldGold, Amount: -cs.Cost, Type: domain.TxCaseCost, Meta: meta}); err != nil {
			return err
		}
		res.Gold, err = apply(ctx, tx, now, delta{UserID: userID, Field: domain.FieldGold, Amount: won, Type: domain.TxCaseReward, Meta: meta})
		return err
	})
	if err != nil {
		logFailure("open case failed", err, "user_id", userID, "case", caseID)
		return nil, err
	}
	metrics.CasesOpened.WithLabelValues(cs.ID).Inc()
	logger.Debug("case opened", "user_id", userID, "case", cs.ID, "reward", won)
	return res, nil
}
