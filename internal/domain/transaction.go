package domain

import "time"

// TxType labels a journal entry.
type TxType string

const (
	TxAdjust      TxType = "adjust"
	TxMine        TxType = "mine"
	TxWork        TxType = "work"
	TxProfit      TxType = "profit"
	TxDaily       TxType = "daily"
	TxVoice       TxType = "voice"
	TxMessage     TxType = "message"
	TxGearUpgrade TxType = "gear_upgrade"
	TxCaseCost    TxType = "case_cost"
	TxCaseReward  TxType = "case_reward"
	TxTransferOut TxType = "transfer_out"
	TxTransferIn  TxType = "transfer_in"
	TxWagerLost   TxType = "wager_lost"
	TxWagerWon    TxType = "wager_won"
	TxGrant       TxType = "grant"
	TxSell        TxType = "sell"
	TxQuest       TxType = "quest"
)

// Transaction is one applied delta, written in the same unit as the delta itself.
type Transaction struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Type      TxType                 `db:"type" json:"type"`
	Field     Field                  `db:"field" json:"field"`
	Amount    int64                  `db:"amount" json:"amount"`
	Meta      map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}
