package engine

import (
	"context"
	"encoding/hex"
	"log"
	"math/big"
	"sync"

	"github.com/bitdao/governor/internal/services/verifiers"
	"github.com/bitdao/governor/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Executor runs an approved proposal's actions as one atomic unit.
type Executor interface {
	Execute(ctx context.Context, caller, resource common.Address, actions []dao.Action) ([][]byte, error)
}

// Journal persists accepted state transitions. The in-memory engine state is
// authoritative; the journal exists so a restarted node can restore it.
type Journal interface {
	SaveProposal(p *dao.Proposal) error
	CommitVote(proposalID uint64, voter *common.Address, nullifier []byte, tally uint64, executed bool) error
}

type Config struct {
	// Address identifies this engine instance. It is bound into every vote
	// message and proof, so votes cannot be replayed against another
	// deployment.
	Address common.Address

	// Resource is the address the engine must hold the execute permission on.
	Resource common.Address

	// Quorum is the number of accepted votes that triggers execution.
	Quorum uint64
}

type proposalState struct {
	mu sync.Mutex

	proposal   *dao.Proposal
	votes      map[common.Address]struct{}
	nullifiers map[string]struct{}
}

// Engine is the proposal lifecycle state machine. All mutations to a single
// proposal are serialized behind its lock; different proposals proceed in
// parallel.
type Engine struct {
	cfg Config

	sigVerifier   verifiers.SignatureVerifier
	proofVerifier verifiers.ProofVerifier
	executor      Executor
	journal       Journal
	emitter       dao.Emitter

	mu        sync.RWMutex
	proposals map[uint64]*proposalState
	nextID    uint64
	seq       uint64
}

func New(cfg Config, sv verifiers.SignatureVerifier, pv verifiers.ProofVerifier, ex Executor, journal Journal, emitter dao.Emitter) *Engine {
	if cfg.Quorum == 0 {
		cfg.Quorum = 1
	}

	return &Engine{
		cfg:           cfg,
		sigVerifier:   sv,
		proofVerifier: pv,
		executor:      ex,
		journal:       journal,
		emitter:       emitter,
		proposals:     map[uint64]*proposalState{},
	}
}

func (e *Engine) Address() common.Address {
	return e.cfg.Address
}

// VoteMessage is the canonical message a hybrid voter signs with the
// secondary scheme: keccak256 of the packed proposal id, voter address and
// engine address, mirroring solidityPacked(uint256, address, address).
func VoteMessage(proposalID uint64, voter, engine common.Address) []byte {
	buf := make([]byte, 32+20+20)
	new(big.Int).SetUint64(proposalID).FillBytes(buf[:32])
	copy(buf[32:52], voter.Bytes())
	copy(buf[52:72], engine.Bytes())

	return crypto.Keccak256(buf)
}

// ZKPublicInputs binds an anonymous vote's proof to a proposal and engine
// instance.
func ZKPublicInputs(proposalID uint64, engine common.Address) []byte {
	buf := make([]byte, 32+20)
	new(big.Int).SetUint64(proposalID).FillBytes(buf[:32])
	copy(buf[32:52], engine.Bytes())

	return buf
}

// CreateProposal stores a new pending proposal and returns its id. Any caller
// may propose.
func (e *Engine) CreateProposal(actions []dao.Action) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++

	p := &dao.Proposal{
		ID:        e.nextID,
		Actions:   append([]dao.Action(nil), actions...),
		Status:    dao.ProposalStatusPending,
		CreatedAt: e.seq,
	}

	if e.journal != nil {
		if err := e.journal.SaveProposal(p); err != nil {
			e.seq--
			return 0, err
		}
	}

	e.proposals[p.ID] = &proposalState{
		proposal:   p,
		votes:      map[common.Address]struct{}{},
		nullifiers: map[string]struct{}{},
	}
	e.nextID++

	return p.ID, nil
}

// GetProposal returns a copy of the proposal.
func (e *Engine) GetProposal(id uint64) (*dao.Proposal, error) {
	ps, err := e.state(id)
	if err != nil {
		return nil, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	p := *ps.proposal
	p.Actions = append([]dao.Action(nil), ps.proposal.Actions...)

	return &p, nil
}

// GetProposals returns copies of all proposals in id order.
func (e *Engine) GetProposals() []*dao.Proposal {
	e.mu.RLock()
	ids := make([]uint64, 0, len(e.proposals))
	for id := range e.proposals {
		ids = append(ids, id)
	}
	e.mu.RUnlock()

	props := make([]*dao.Proposal, 0, len(ids))
	for id := uint64(0); id < uint64(len(ids)); id++ {
		p, err := e.GetProposal(id)
		if err != nil {
			continue
		}
		props = append(props, p)
	}

	return props
}

func (e *Engine) state(id uint64) (*proposalState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ps, ok := e.proposals[id]
	if !ok {
		return nil, dao.ErrUnknownProposal
	}

	return ps, nil
}

// CastVoteHybrid accepts a vote authenticated by both the transport-verified
// primary identity and a secondary post-classical signature over the
// canonical vote message. A missing or invalid secondary signature rejects
// the whole vote: holding only the weaker factor never counts.
func (e *Engine) CastVoteHybrid(ctx context.Context, proposalID uint64, voter common.Address, publicKey, signature []byte) error {
	ps, err := e.state(proposalID)
	if err != nil {
		return err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.proposal.Status == dao.ProposalStatusExecuted {
		return dao.ErrAlreadyExecuted
	}

	if _, ok := ps.votes[voter]; ok {
		return dao.ErrDoubleVote
	}

	if len(publicKey) == 0 || len(signature) == 0 {
		return dao.ErrInvalidAuth
	}

	message := VoteMessage(proposalID, voter, e.cfg.Address)
	if !e.sigVerifier.VerifySecondarySignature(message, publicKey, signature) {
		return dao.ErrInvalidAuth
	}

	if err := e.acceptVote(ctx, ps, &voter, nil); err != nil {
		return err
	}

	e.emit(dao.NewVoteCastEvent(proposalID, voter.Hex()))
	if ps.proposal.Status == dao.ProposalStatusExecuted {
		e.emit(dao.NewProposalExecutedEvent(proposalID))
	}

	return nil
}

// CastVoteZK accepts an anonymous vote gated by an eligibility proof and a
// one-time nullifier. Nullifiers are scoped per proposal: the same credential
// may vote once on each proposal but never twice on one.
func (e *Engine) CastVoteZK(ctx context.Context, proposalID uint64, proof, nullifier []byte) error {
	ps, err := e.state(proposalID)
	if err != nil {
		return err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.proposal.Status == dao.ProposalStatusExecuted {
		return dao.ErrAlreadyExecuted
	}

	if len(nullifier) == 0 {
		return dao.ErrInvalidProof
	}

	key := hex.EncodeToString(nullifier)
	if _, ok := ps.nullifiers[key]; ok {
		return dao.ErrNullifierReused
	}

	publicInputs := ZKPublicInputs(proposalID, e.cfg.Address)
	if !e.proofVerifier.VerifyProof(proof, publicInputs) {
		return dao.ErrInvalidProof
	}

	if err := e.acceptVote(ctx, ps, nil, nullifier); err != nil {
		return err
	}

	e.emit(dao.NewVoteCastEvent(proposalID, dao.AnonymousVoter))
	if ps.proposal.Status == dao.ProposalStatusExecuted {
		e.emit(dao.NewProposalExecutedEvent(proposalID))
	}

	return nil
}

// acceptVote records a validated vote and, when the tally reaches quorum,
// executes the proposal within the same operation. Execution failure aborts
// the triggering vote entirely: nothing is recorded and the proposal stays
// pending. Caller holds ps.mu.
func (e *Engine) acceptVote(ctx context.Context, ps *proposalState, voter *common.Address, nullifier []byte) error {
	p := ps.proposal

	tally := p.Tally + 1
	executed := false

	if tally >= e.cfg.Quorum {
		if _, err := e.executor.Execute(ctx, e.cfg.Address, e.cfg.Resource, p.Actions); err != nil {
			return err
		}
		executed = true
	}

	if e.journal != nil {
		if err := e.journal.CommitVote(p.ID, voter, nullifier, tally, executed); err != nil {
			if !executed {
				return err
			}
			// external effects are already applied and cannot be undone;
			// the in-memory state stays authoritative
			log.Default().Printf("journal write failed for executed proposal %d: %s\n", p.ID, err)
		}
	}

	p.Tally = tally
	if executed {
		p.Status = dao.ProposalStatusExecuted
	}

	if voter != nil {
		ps.votes[*voter] = struct{}{}
	}
	if nullifier != nil {
		ps.nullifiers[hex.EncodeToString(nullifier)] = struct{}{}
	}

	e.mu.Lock()
	e.seq++
	e.mu.Unlock()

	return nil
}

func (e *Engine) emit(ev dao.Event) {
	if e.emitter != nil {
		e.emitter.Emit(ev)
	}
}

// RestoreProposal reinstates a persisted proposal and its accepted votes.
// Used once at startup, before the engine serves requests.
func (e *Engine) RestoreProposal(p dao.Proposal, voters []common.Address, nullifiers [][]byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ps := &proposalState{
		proposal:   &p,
		votes:      map[common.Address]struct{}{},
		nullifiers: map[string]struct{}{},
	}

	for _, v := range voters {
		ps.votes[v] = struct{}{}
	}
	for _, n := range nullifiers {
		ps.nullifiers[hex.EncodeToString(n)] = struct{}{}
	}

	e.proposals[p.ID] = ps

	if p.ID >= e.nextID {
		e.nextID = p.ID + 1
	}
	if p.CreatedAt > e.seq {
		e.seq = p.CreatedAt
	}
}
