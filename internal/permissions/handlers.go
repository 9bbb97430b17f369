package permissions

import (
	"encoding/json"
	"errors"
	"net/http"

	com "github.com/bitdao/governor/internal/common"
	"github.com/bitdao/governor/internal/services/registry"
	"github.com/bitdao/governor/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
)

// Service exposes the permission registry's administrative surface. The API
// key middleware authenticates the caller as the configured administrator
// account; the registry still enforces per-resource administration on top.
type Service struct {
	registry *registry.Registry
	admin    common.Address
}

func NewService(reg *registry.Registry, admin common.Address) *Service {
	return &Service{
		registry: reg,
		admin:    admin,
	}
}

type permissionRequest struct {
	Resource common.Address `json:"resource"`
	Actor    common.Address `json:"actor"`
	Kind     common.Hash    `json:"kind"`
}

type grantedResponse struct {
	Resource common.Address `json:"resource"`
	Actor    common.Address `json:"actor"`
	Kind     common.Hash    `json:"kind"`
	Granted  bool           `json:"granted"`
}

func decode(r *http.Request) (*permissionRequest, error) {
	var req permissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	defer r.Body.Close()

	// the execute permission is the common case
	if req.Kind == (common.Hash{}) {
		req.Kind = dao.ExecutePermissionID
	}

	return &req, nil
}

func (s *Service) Grant(w http.ResponseWriter, r *http.Request) {
	req, err := decode(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err = s.registry.Grant(s.admin, req.Resource, req.Actor, req.Kind)
	if err != nil {
		if errors.Is(err, dao.ErrUnauthorized) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	err = com.Body(w, grantedResponse{req.Resource, req.Actor, req.Kind, true}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) Revoke(w http.ResponseWriter, r *http.Request) {
	req, err := decode(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err = s.registry.Revoke(s.admin, req.Resource, req.Actor, req.Kind)
	if err != nil {
		if errors.Is(err, dao.ErrUnauthorized) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	err = com.Body(w, grantedResponse{req.Resource, req.Actor, req.Kind, false}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// IsGranted is a pure lookup; it needs no authentication.
func (s *Service) IsGranted(w http.ResponseWriter, r *http.Request) {
	resource := common.HexToAddress(chi.URLParam(r, "resource"))
	actor := common.HexToAddress(chi.URLParam(r, "actor"))
	kind := common.HexToHash(chi.URLParam(r, "kind"))

	granted := s.registry.IsGranted(resource, actor, kind)

	err := com.Body(w, grantedResponse{resource, actor, kind, granted}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
