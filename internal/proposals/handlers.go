package proposals

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	com "github.com/bitdao/governor/internal/common"
	"github.com/bitdao/governor/internal/services/engine"
	"github.com/bitdao/governor/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
)

type Service struct {
	engine *engine.Engine
}

func NewService(e *engine.Engine) *Service {
	return &Service{
		engine: e,
	}
}

type createRequest struct {
	Actions []dao.Action `json:"actions"`
}

type createResponse struct {
	ProposalID uint64 `json:"proposal_id"`
}

type hybridVoteRequest struct {
	PublicKey hexutil.Bytes `json:"public_key"`
	Signature hexutil.Bytes `json:"signature"`
}

type zkVoteRequest struct {
	Proof     hexutil.Bytes `json:"proof"`
	Nullifier hexutil.Bytes `json:"nullifier"`
}

// statusForError maps the governance error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	var execErr *dao.ExecutionError

	switch {
	case errors.Is(err, dao.ErrUnknownProposal):
		return http.StatusNotFound
	case errors.Is(err, dao.ErrAlreadyExecuted),
		errors.Is(err, dao.ErrDoubleVote),
		errors.Is(err, dao.ErrNullifierReused):
		return http.StatusConflict
	case errors.Is(err, dao.ErrInvalidAuth),
		errors.Is(err, dao.ErrInvalidProof):
		return http.StatusUnauthorized
	case errors.Is(err, dao.ErrUnauthorized),
		errors.Is(err, dao.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &execErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func proposalID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "proposal_id"), 10, 64)
}

// Create stores a new proposal. Any caller may propose.
func (s *Service) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(req.Actions) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	id, err := s.engine.CreateProposal(req.Actions)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	err = com.Body(w, createResponse{ProposalID: id}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// Get returns a single proposal with its current tally and status.
func (s *Service) Get(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p, err := s.engine.GetProposal(id)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	err = com.Body(w, p, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// List returns all proposals in id order.
func (s *Service) List(w http.ResponseWriter, r *http.Request) {
	props := s.engine.GetProposals()

	err := com.BodyMultiple(w, props, &com.Pagination{Total: len(props)})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// CastHybrid accepts a hybrid vote. The primary factor was already verified
// by the signature middleware; the voter identity comes from the request
// context, never from the body.
func (s *Service) CastHybrid(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	addr, ok := dao.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	voter := common.HexToAddress(addr)

	var req hybridVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	err = s.engine.CastVoteHybrid(r.Context(), id, voter, req.PublicKey, req.Signature)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	p, err := s.engine.GetProposal(id)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	err = com.Body(w, p, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// CastZK accepts an anonymous vote. No identity is attached to the request;
// the nullifier is the only double-vote defense.
func (s *Service) CastZK(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var req zkVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	err = s.engine.CastVoteZK(r.Context(), id, req.Proof, req.Nullifier)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	p, err := s.engine.GetProposal(id)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	err = com.Body(w, p, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
