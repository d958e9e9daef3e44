package models

import (
	"time"
)

// Match links a claim to an identification that scored above the acceptance
// threshold. The (claim, identification) pair is unique: re-detecting an
// existing pair is a no-op, never a duplicate row.
type Match struct {
	ID               string    `json:"id" db:"id"`
	ClaimID          string    `json:"claim_id" db:"claim_id"`
	IdentificationID string    `json:"identification_id" db:"identification_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// ConfirmClaimRequest names the (claim, identification) pair a user asserts
// is theirs. The pair must already exist as a Match row.
type ConfirmClaimRequest struct {
	ClaimID          string `json:"claim_id" validate:"required,uuid4"`
	IdentificationID string `json:"identification_id" validate:"required,uuid4"`
}
