package service

import (
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/canister"
	"github.com/stemsi/surveychain/internal/config"
	"github.com/stemsi/surveychain/internal/ledger"
)

// Canisters hands out canister clients bound to a caller's identity token.
type Canisters struct {
	agent     *canister.Agent
	backendID string
	ledgerID  string
}

// NewCanisters creates a client factory over the shared agent.
func NewCanisters(agent *canister.Agent, cfg *config.Config) *Canisters {
	return &Canisters{
		agent:     agent,
		backendID: cfg.BackendCanisterID,
		ledgerID:  cfg.LedgerCanisterID,
	}
}

// Backend returns the survey backend bound to token.
func (c *Canisters) Backend(token string) *canister.Backend {
	return c.agent.Backend(c.backendID, token)
}

// Ledger returns the ICP ledger bound to token.
func (c *Canisters) Ledger(token string) *ledger.Client {
	return ledger.NewClient(c.agent, c.ledgerID, token)
}

// Users adapts the backend to the auth manager's profile loader.
func (c *Canisters) Users(token string) auth.UserLoader {
	return c.Backend(token)
}
