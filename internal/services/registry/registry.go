package registry

import (
	"sync"

	"github.com/bitdao/governor/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

type entryKey struct {
	resource common.Address
	actor    common.Address
	kind     common.Hash
}

// Store persists permission entries so grants survive a restart.
type Store interface {
	SavePermission(resource, actor common.Address, kind common.Hash, granted bool) error
}

// Registry is the generic access-control table mapping
// (resource, actor, permission kind) to granted/denied. Absence of an entry
// means not granted. A resource administers its own permissions unless an
// administrator was delegated for it.
type Registry struct {
	mu      sync.RWMutex
	entries map[entryKey]bool
	admins  map[common.Address]common.Address

	store   Store
	emitter dao.Emitter
}

func New(store Store, emitter dao.Emitter) *Registry {
	return &Registry{
		entries: map[entryKey]bool{},
		admins:  map[common.Address]common.Address{},
		store:   store,
		emitter: emitter,
	}
}

// Administrator returns the address allowed to grant and revoke permissions
// on resource.
func (r *Registry) Administrator(resource common.Address) common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.administrator(resource)
}

func (r *Registry) administrator(resource common.Address) common.Address {
	if admin, ok := r.admins[resource]; ok {
		return admin
	}

	return resource
}

// Delegate hands administration of resource to admin. Only the current
// administrator may delegate.
func (r *Registry) Delegate(caller, resource, admin common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.administrator(resource) {
		return dao.ErrUnauthorized
	}

	r.admins[resource] = admin

	return nil
}

// Grant sets the (resource, actor, kind) entry. Idempotent.
func (r *Registry) Grant(caller, resource, actor common.Address, kind common.Hash) error {
	r.mu.Lock()

	if caller != r.administrator(resource) {
		r.mu.Unlock()
		return dao.ErrUnauthorized
	}

	r.entries[entryKey{resource, actor, kind}] = true
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SavePermission(resource, actor, kind, true); err != nil {
			return err
		}
	}

	if r.emitter != nil {
		r.emitter.Emit(dao.NewPermissionGrantedEvent(resource, actor, kind))
	}

	return nil
}

// Revoke clears the (resource, actor, kind) entry. Idempotent.
func (r *Registry) Revoke(caller, resource, actor common.Address, kind common.Hash) error {
	r.mu.Lock()

	if caller != r.administrator(resource) {
		r.mu.Unlock()
		return dao.ErrUnauthorized
	}

	delete(r.entries, entryKey{resource, actor, kind})
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SavePermission(resource, actor, kind, false); err != nil {
			return err
		}
	}

	return nil
}

// IsGranted reports whether actor holds kind on resource. Pure lookup.
func (r *Registry) IsGranted(resource, actor common.Address, kind common.Hash) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.entries[entryKey{resource, actor, kind}]
}

// Restore loads a persisted entry without an administrator check. Used when
// replaying the journal at startup.
func (r *Registry) Restore(resource, actor common.Address, kind common.Hash, granted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if granted {
		r.entries[entryKey{resource, actor, kind}] = true
		return
	}

	delete(r.entries, entryKey{resource, actor, kind})
}
