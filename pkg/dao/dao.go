package dao

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrUnknownProposal   = errors.New("unknown proposal")
	ErrAlreadyExecuted   = errors.New("proposal already executed")
	ErrDoubleVote        = errors.New("identity already voted on proposal")
	ErrNullifierReused   = errors.New("nullifier already used")
	ErrInvalidAuth       = errors.New("invalid hybrid vote authentication")
	ErrInvalidProof      = errors.New("invalid eligibility proof")
	ErrUnauthorized      = errors.New("caller is not authorized")
	ErrForbidden         = errors.New("caller is forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ExecutePermissionID gates calls to the executor's batched execution.
var ExecutePermissionID = crypto.Keccak256Hash([]byte("EXECUTE_PERMISSION"))

// ExecutionError reports the first failing action of a batch. The batch is
// all-or-nothing: when an ExecutionError is returned, no action was applied.
type ExecutionError struct {
	Index int
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed at action %d: %s", e.Index, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusExecuted ProposalStatus = "executed"
)

// Action is a single external call: transfer value to target and invoke it
// with payload. A proposal's actions execute in order as one atomic unit.
type Action struct {
	Target  common.Address `json:"target"`
	Value   *big.Int       `json:"value"`
	Payload []byte         `json:"payload"`
}

type Proposal struct {
	ID        uint64         `json:"id"`
	Actions   []Action       `json:"actions"`
	Status    ProposalStatus `json:"status"`
	Tally     uint64         `json:"tally"`
	CreatedAt uint64         `json:"created_at"`
}

// jsonAction is the wire form of an Action, hex-encoded for the API.
type jsonAction struct {
	Target  common.Address `json:"target"`
	Value   *hexutil.Big   `json:"value"`
	Payload hexutil.Bytes  `json:"payload"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	v := a.Value
	if v == nil {
		v = common.Big0
	}

	return json.Marshal(jsonAction{
		Target:  a.Target,
		Value:   (*hexutil.Big)(v),
		Payload: a.Payload,
	})
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var ja jsonAction
	if err := json.Unmarshal(b, &ja); err != nil {
		return err
	}

	a.Target = ja.Target
	a.Value = (*big.Int)(ja.Value)
	if a.Value == nil {
		a.Value = new(big.Int)
	}
	a.Payload = ja.Payload

	return nil
}

const AnonymousVoter = "anonymous"

type EventKind string

const (
	EventKindVoteCast          EventKind = "vote_cast"
	EventKindProposalExecuted  EventKind = "proposal_executed"
	EventKindPermissionGranted EventKind = "permission_granted"
)

// Event is an outbound notification emitted by the core. Events are
// observability only, they are never consulted to make decisions.
type Event struct {
	Kind       EventKind      `json:"kind"`
	ProposalID uint64         `json:"proposal_id,omitempty"`
	Voter      string         `json:"voter,omitempty"`
	Resource   common.Address `json:"resource,omitempty"`
	Actor      common.Address `json:"actor,omitempty"`
	Permission common.Hash    `json:"permission,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`

	RetryCount int `json:"-"`
}

func NewVoteCastEvent(proposalID uint64, voter string) Event {
	return Event{
		Kind:       EventKindVoteCast,
		ProposalID: proposalID,
		Voter:      voter,
		CreatedAt:  time.Now().UTC(),
	}
}

func NewProposalExecutedEvent(proposalID uint64) Event {
	return Event{
		Kind:       EventKindProposalExecuted,
		ProposalID: proposalID,
		CreatedAt:  time.Now().UTC(),
	}
}

func NewPermissionGrantedEvent(resource, actor common.Address, kind common.Hash) Event {
	return Event{
		Kind:       EventKindPermissionGranted,
		Resource:   resource,
		Actor:      actor,
		Permission: kind,
		CreatedAt:  time.Now().UTC(),
	}
}

// Emitter receives events emitted by the core components.
type Emitter interface {
	Emit(Event)
}

// WebhookMessager sends operational messages to an external channel.
type WebhookMessager interface {
	Notify(message string) error
	NotifyWarning(errorMessage error) error
	NotifyError(errorMessage error) error
}
