package treasury

import (
	"encoding/json"
	"net/http"

	com "github.com/bitdao/governor/internal/common"
	"github.com/bitdao/governor/internal/services/vault"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
)

type Service struct {
	vault *vault.Vault
}

func NewService(v *vault.Vault) *Service {
	return &Service{
		vault: v,
	}
}

type balanceResponse struct {
	Address common.Address `json:"address"`
	Balance *hexutil.Big   `json:"balance"`
}

type depositRequest struct {
	Amount *hexutil.Big `json:"amount"`
}

// Balance returns the vault's current holdings.
func (s *Service) Balance(w http.ResponseWriter, r *http.Request) {
	err := com.Body(w, balanceResponse{
		Address: s.vault.Address(),
		Balance: (*hexutil.Big)(s.vault.Balance()),
	}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// Credit returns the total transferred out to an address.
func (s *Service) Credit(w http.ResponseWriter, r *http.Request) {
	addr := common.HexToAddress(chi.URLParam(r, "addr"))

	err := com.Body(w, balanceResponse{
		Address: addr,
		Balance: (*hexutil.Big)(s.vault.CreditOf(addr)),
	}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// Deposit credits the vault. Deposits are unconditional.
func (s *Service) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Amount == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := s.vault.Deposit(req.Amount.ToInt()); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err := com.Body(w, balanceResponse{
		Address: s.vault.Address(),
		Balance: (*hexutil.Big)(s.vault.Balance()),
	}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
