package db

import (
	"math/big"
	"testing"

	com "github.com/bitdao/governor/internal/common"
	"github.com/bitdao/governor/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

var (
	voterAddr = common.HexToAddress("0x5000000000000000000000000000000000000005")
	vaultAddr = common.HexToAddress("0x4000000000000000000000000000000000000004")
	recipient = common.HexToAddress("0x6000000000000000000000000000000000000006")
)

func testDB(t *testing.T) *DB {
	t.Helper()

	d, err := NewDB(t.TempDir(), "test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	return d
}

func testProposal(id uint64) *dao.Proposal {
	return &dao.Proposal{
		ID: id,
		Actions: []dao.Action{{
			Target:  vaultAddr,
			Value:   big.NewInt(0),
			Payload: com.PackWithdraw(recipient, big.NewInt(100)),
		}},
		Status:    dao.ProposalStatusPending,
		CreatedAt: id + 1,
	}
}

func TestProposalRoundTrip(t *testing.T) {
	d := testDB(t)

	if err := d.SaveProposal(testProposal(0)); err != nil {
		t.Fatal(err)
	}
	if err := d.SaveProposal(testProposal(1)); err != nil {
		t.Fatal(err)
	}

	proposals, err := d.ProposalDB.GetProposals()
	if err != nil {
		t.Fatal(err)
	}

	if len(proposals) != 2 {
		t.Fatalf("expected 2 proposals, got %d", len(proposals))
	}

	p := proposals[0]
	if p.ID != 0 || p.Status != dao.ProposalStatusPending || p.Tally != 0 {
		t.Fatalf("unexpected proposal: %+v", p)
	}

	recovered, amount, err := com.ParseWithdraw(p.Actions[0].Payload)
	if err != nil {
		t.Fatal(err)
	}
	if recovered != recipient || amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatal("action payload must round-trip through the journal")
	}
}

func TestCommitVote(t *testing.T) {
	d := testDB(t)

	if err := d.SaveProposal(testProposal(0)); err != nil {
		t.Fatal(err)
	}

	voter := voterAddr
	if err := d.CommitVote(0, &voter, nil, 1, false); err != nil {
		t.Fatal(err)
	}

	if err := d.CommitVote(0, nil, []byte("null_1"), 2, true); err != nil {
		t.Fatal(err)
	}

	proposals, err := d.ProposalDB.GetProposals()
	if err != nil {
		t.Fatal(err)
	}
	if proposals[0].Tally != 2 || proposals[0].Status != dao.ProposalStatusExecuted {
		t.Fatalf("unexpected proposal after votes: %+v", proposals[0])
	}

	voters, err := d.VoteDB.GetVoters(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(voters) != 1 || voters[0] != voterAddr {
		t.Fatalf("unexpected voters: %v", voters)
	}

	nullifiers, err := d.VoteDB.GetNullifiers(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(nullifiers) != 1 || string(nullifiers[0]) != "null_1" {
		t.Fatalf("unexpected nullifiers: %v", nullifiers)
	}
}

func TestCommitVoteUniqueness(t *testing.T) {
	d := testDB(t)

	if err := d.SaveProposal(testProposal(0)); err != nil {
		t.Fatal(err)
	}

	voter := voterAddr
	if err := d.CommitVote(0, &voter, nil, 1, false); err != nil {
		t.Fatal(err)
	}

	// the engine prevents this; the journal's constraint is the last line
	if err := d.CommitVote(0, &voter, nil, 2, false); err == nil {
		t.Fatal("expected duplicate vote row to be rejected")
	}

	if err := d.CommitVote(0, nil, []byte("null_1"), 2, false); err != nil {
		t.Fatal(err)
	}
	if err := d.CommitVote(0, nil, []byte("null_1"), 3, false); err == nil {
		t.Fatal("expected duplicate nullifier row to be rejected")
	}

	// the failed commits must not have bumped the tally
	proposals, err := d.ProposalDB.GetProposals()
	if err != nil {
		t.Fatal(err)
	}
	if proposals[0].Tally != 2 {
		t.Fatalf("expected tally 2, got %d", proposals[0].Tally)
	}
}

func TestPermissionUpsert(t *testing.T) {
	d := testDB(t)

	resource := common.HexToAddress("0x1000000000000000000000000000000000000001")
	actor := common.HexToAddress("0x2000000000000000000000000000000000000002")

	if err := d.SavePermission(resource, actor, dao.ExecutePermissionID, true); err != nil {
		t.Fatal(err)
	}

	entries, err := d.PermissionDB.GetPermissions()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].Granted {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	if err := d.SavePermission(resource, actor, dao.ExecutePermissionID, false); err != nil {
		t.Fatal(err)
	}

	entries, err = d.PermissionDB.GetPermissions()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Granted {
		t.Fatalf("expected revoked entry, got: %+v", entries)
	}

	if entries[0].Kind != dao.ExecutePermissionID {
		t.Fatal("permission kind must round-trip")
	}
}
