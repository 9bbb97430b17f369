package registry

import (
	"errors"
	"testing"

	"github.com/bitdao/governor/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

var (
	resource = common.HexToAddress("0x1000000000000000000000000000000000000001")
	actor    = common.HexToAddress("0x2000000000000000000000000000000000000002")
	stranger = common.HexToAddress("0x3000000000000000000000000000000000000003")
	admin    = common.HexToAddress("0x4000000000000000000000000000000000000004")
)

type captureEmitter struct {
	events []dao.Event
}

func (e *captureEmitter) Emit(ev dao.Event) {
	e.events = append(e.events, ev)
}

func TestSelfAdministration(t *testing.T) {
	r := New(nil, nil)

	// a resource administers itself by default
	if err := r.Grant(resource, resource, actor, dao.ExecutePermissionID); err != nil {
		t.Fatal(err)
	}

	if !r.IsGranted(resource, actor, dao.ExecutePermissionID) {
		t.Fatal("expected grant to take effect")
	}

	// absence of an entry means not granted
	if r.IsGranted(resource, stranger, dao.ExecutePermissionID) {
		t.Fatal("expected no implicit grant")
	}
}

func TestUnauthorizedGrantAndRevoke(t *testing.T) {
	r := New(nil, nil)

	err := r.Grant(stranger, resource, actor, dao.ExecutePermissionID)
	if !errors.Is(err, dao.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if err := r.Grant(resource, resource, actor, dao.ExecutePermissionID); err != nil {
		t.Fatal(err)
	}

	err = r.Revoke(stranger, resource, actor, dao.ExecutePermissionID)
	if !errors.Is(err, dao.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if !r.IsGranted(resource, actor, dao.ExecutePermissionID) {
		t.Fatal("unauthorized revoke must not clear the entry")
	}
}

func TestRevoke(t *testing.T) {
	r := New(nil, nil)

	if err := r.Grant(resource, resource, actor, dao.ExecutePermissionID); err != nil {
		t.Fatal(err)
	}
	if err := r.Revoke(resource, resource, actor, dao.ExecutePermissionID); err != nil {
		t.Fatal(err)
	}

	if r.IsGranted(resource, actor, dao.ExecutePermissionID) {
		t.Fatal("expected entry to be revoked")
	}

	// revoke is idempotent
	if err := r.Revoke(resource, resource, actor, dao.ExecutePermissionID); err != nil {
		t.Fatal(err)
	}
}

func TestDelegation(t *testing.T) {
	r := New(nil, nil)

	if err := r.Delegate(resource, resource, admin); err != nil {
		t.Fatal(err)
	}

	// the resource itself lost administration
	err := r.Grant(resource, resource, actor, dao.ExecutePermissionID)
	if !errors.Is(err, dao.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if err := r.Grant(admin, resource, actor, dao.ExecutePermissionID); err != nil {
		t.Fatal(err)
	}

	err = r.Delegate(stranger, resource, stranger)
	if !errors.Is(err, dao.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGrantEmitsEvent(t *testing.T) {
	emitter := &captureEmitter{}
	r := New(nil, emitter)

	if err := r.Grant(resource, resource, actor, dao.ExecutePermissionID); err != nil {
		t.Fatal(err)
	}

	if len(emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(emitter.events))
	}

	ev := emitter.events[0]
	if ev.Kind != dao.EventKindPermissionGranted || ev.Resource != resource || ev.Actor != actor {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestRestore(t *testing.T) {
	r := New(nil, nil)

	r.Restore(resource, actor, dao.ExecutePermissionID, true)
	if !r.IsGranted(resource, actor, dao.ExecutePermissionID) {
		t.Fatal("expected restored grant")
	}

	r.Restore(resource, actor, dao.ExecutePermissionID, false)
	if r.IsGranted(resource, actor, dao.ExecutePermissionID) {
		t.Fatal("expected restored revoke")
	}
}
