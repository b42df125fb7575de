package service

import (
	"context"

	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/ledger"
)

// Balance is an account balance in e8s and in ICP.
type Balance struct {
	Principal string `json:"principal"`
	E8s       uint64 `json:"e8s"`
	ICP       string `json:"icp"`
}

// WalletService reads ledger balances.
type WalletService struct {
	canisters *Canisters
}

// NewWalletService creates a new WalletService.
func NewWalletService(canisters *Canisters) *WalletService {
	return &WalletService{canisters: canisters}
}

// Balance returns the caller's default-account balance.
func (s *WalletService) Balance(ctx context.Context, sess *auth.Session) (Balance, error) {
	e8s, err := s.canisters.Ledger(sess.Token).BalanceOf(ctx, ledger.NewAccount(sess.Principal))
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		Principal: sess.Principal.String(),
		E8s:       e8s,
		ICP:       ledger.FormatICP(e8s),
	}, nil
}
