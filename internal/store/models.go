package store

import (
	"encoding/json"
	"time"
)

const (
	TxKindDeposit  = "deposit"
	TxKindWithdraw = "withdraw"
	TxKindBet      = "bet"
	TxKindWin      = "win"
)

const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Balance      int64     `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
}

type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Kind        string    `json:"kind"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	ExternalRef string    `json:"external_ref,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Event struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UID       string          `json:"uid,omitempty"`
	Props     json.RawMessage `json:"props,omitempty"`
	IP        string          `json:"ip,omitempty"`
	UA        string          `json:"ua,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
