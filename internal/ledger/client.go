package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stemsi/surveychain/internal/canister"
)

// Ledger method names.
const (
	MethodBalanceOf    = "icrc1_balance_of"
	MethodTransferFrom = "icrc2_transfer_from"
)

// Blob is candid blob data, encoded as an array of byte values.
type Blob []byte

func (b Blob) MarshalJSON() ([]byte, error) {
	values := make([]uint16, len(b))
	for i, v := range b {
		values[i] = uint16(v)
	}
	return json.Marshal(values)
}

func (b *Blob) UnmarshalJSON(data []byte) error {
	var values []uint16
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("decode blob: %w", err)
	}
	out := make(Blob, len(values))
	for i, v := range values {
		if v > 0xff {
			return fmt.Errorf("decode blob: byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// Account is an ICRC-1 account. Optional subaccounts follow the candid opt
// convention of zero or one element.
type Account struct {
	Owner      Principal `json:"owner"`
	Subaccount []Blob    `json:"subaccount"`
}

// NewAccount returns the default-subaccount account of owner.
func NewAccount(owner Principal) Account {
	return Account{Owner: owner, Subaccount: []Blob{}}
}

// TransferFromArgs is the icrc2_transfer_from request.
type TransferFromArgs struct {
	From              Account  `json:"from"`
	To                Account  `json:"to"`
	Amount            uint64   `json:"amount"`
	Fee               []uint64 `json:"fee"`
	SpenderSubaccount []Blob   `json:"spender_subaccount"`
	Memo              []Blob   `json:"memo"`
	CreatedAtTime     []uint64 `json:"created_at_time"`
}

// RewardPoolTransfer builds the publish payment: half of the reward pool moved
// from the creator to the treasury, tagged with the form id memo.
func RewardPoolTransfer(creator, treasury Principal, formID string, maxRewardPool uint64) TransferFromArgs {
	return TransferFromArgs{
		From:              NewAccount(creator),
		To:                NewAccount(treasury),
		Amount:            maxRewardPool / 2,
		Fee:               []uint64{},
		SpenderSubaccount: []Blob{},
		Memo:              []Blob{MemoFromFormID(formID)},
		CreatedAtTime:     []uint64{},
	}
}

// transferReply is the ledger's Result: exactly one of "Ok" or "Err".
type transferReply struct {
	Ok  *uint64
	Err json.RawMessage
}

func (r *transferReply) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode transfer result: %w", err)
	}
	okRaw, hasOk := m["Ok"]
	errRaw, hasErr := m["Err"]
	if hasOk == hasErr || len(m) != 1 {
		return fmt.Errorf("decode transfer result: want exactly one of Ok/Err, got %d keys", len(m))
	}
	if hasErr {
		*r = transferReply{Err: errRaw}
		return nil
	}
	var block *uint64
	if err := json.Unmarshal(okRaw, &block); err != nil {
		return fmt.Errorf("decode Ok variant: %w", err)
	}
	if block == nil {
		return fmt.Errorf("decode transfer result: Ok carries no block index")
	}
	*r = transferReply{Ok: block}
	return nil
}

// Client talks to the ledger canister on behalf of one identity.
type Client struct {
	agent      *canister.Agent
	canisterID string
	token      string
}

// NewClient binds the agent to the ledger canister and the caller's identity token.
func NewClient(agent *canister.Agent, canisterID, token string) *Client {
	return &Client{agent: agent, canisterID: canisterID, token: token}
}

// BalanceOf returns the e8s balance of account.
func (c *Client) BalanceOf(ctx context.Context, account Account) (uint64, error) {
	var balance uint64
	if err := c.agent.Call(ctx, c.token, c.canisterID, MethodBalanceOf, []any{account}, &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// TransferFrom executes an approved transfer and returns its block index.
// Ledger rejections come back as *TransferError.
func (c *Client) TransferFrom(ctx context.Context, args TransferFromArgs) (uint64, error) {
	var reply transferReply
	if err := c.agent.Call(ctx, c.token, c.canisterID, MethodTransferFrom, []any{args}, &reply); err != nil {
		return 0, err
	}
	if reply.Ok != nil {
		return *reply.Ok, nil
	}
	if len(reply.Err) == 0 {
		return 0, &canister.TransportError{Method: MethodTransferFrom, Err: fmt.Errorf("reply has neither Ok nor Err")}
	}
	return 0, decodeTransferError(reply.Err)
}
