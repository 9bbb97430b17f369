package db

import (
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type VoteDB struct {
	p *DB
}

func (vdb *VoteDB) ensureExists() error {
	_, err := vdb.p.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s(
		proposal_id integer NOT NULL,
		voter varchar(42) NOT NULL,
		UNIQUE (proposal_id, voter)
	);
	`, vdb.p.votesTableName()))
	if err != nil {
		return err
	}

	_, err = vdb.p.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s(
		proposal_id integer NOT NULL,
		nullifier text NOT NULL,
		UNIQUE (proposal_id, nullifier)
	);
	`, vdb.p.nullifiersTableName()))

	return err
}

func (vdb *VoteDB) addVote(tx *sql.Tx, proposalID uint64, voter common.Address) error {
	_, err := tx.Exec(fmt.Sprintf(`
	INSERT INTO %s (proposal_id, voter)
	VALUES ($1, $2)
	`, vdb.p.votesTableName()), proposalID, voter.Hex())

	return err
}

func (vdb *VoteDB) addNullifier(tx *sql.Tx, proposalID uint64, nullifier []byte) error {
	_, err := tx.Exec(fmt.Sprintf(`
	INSERT INTO %s (proposal_id, nullifier)
	VALUES ($1, $2)
	`, vdb.p.nullifiersTableName()), proposalID, hex.EncodeToString(nullifier))

	return err
}

// GetVoters returns the identities that cast a hybrid vote on the proposal.
func (vdb *VoteDB) GetVoters(proposalID uint64) ([]common.Address, error) {
	rows, err := vdb.p.db.Query(fmt.Sprintf(`
	SELECT voter FROM %s WHERE proposal_id = $1
	`, vdb.p.votesTableName()), proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	voters := []common.Address{}
	for rows.Next() {
		var voter string
		if err = rows.Scan(&voter); err != nil {
			return nil, err
		}

		voters = append(voters, common.HexToAddress(voter))
	}

	return voters, rows.Err()
}

// GetNullifiers returns the nullifiers spent on the proposal.
func (vdb *VoteDB) GetNullifiers(proposalID uint64) ([][]byte, error) {
	rows, err := vdb.p.db.Query(fmt.Sprintf(`
	SELECT nullifier FROM %s WHERE proposal_id = $1
	`, vdb.p.nullifiersTableName()), proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nullifiers := [][]byte{}
	for rows.Next() {
		var encoded string
		if err = rows.Scan(&encoded); err != nil {
			return nil, err
		}

		nullifier, err := hex.DecodeString(encoded)
		if err != nil {
			return nil, err
		}

		nullifiers = append(nullifiers, nullifier)
	}

	return nullifiers, rows.Err()
}
