package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/bitdao/governor/pkg/dao"
)

type ProposalDB struct {
	p *DB
}

func (pdb *ProposalDB) ensureExists() error {
	_, err := pdb.p.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s(
		id integer NOT NULL,
		actions text NOT NULL,
		status text NOT NULL,
		tally integer NOT NULL DEFAULT 0,
		created_at integer NOT NULL,
		UNIQUE (id)
	);
	`, pdb.p.proposalsTableName()))

	return err
}

func (pdb *ProposalDB) add(db *sql.DB, p *dao.Proposal) error {
	actions, err := json.Marshal(p.Actions)
	if err != nil {
		return err
	}

	_, err = db.Exec(fmt.Sprintf(`
	INSERT INTO %s (id, actions, status, tally, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`, pdb.p.proposalsTableName()), p.ID, string(actions), string(p.Status), p.Tally, p.CreatedAt)

	return err
}

func (pdb *ProposalDB) setTallyAndStatus(tx *sql.Tx, id uint64, tally uint64, status dao.ProposalStatus) error {
	_, err := tx.Exec(fmt.Sprintf(`
	UPDATE %s SET tally = $1, status = $2 WHERE id = $3
	`, pdb.p.proposalsTableName()), tally, string(status), id)

	return err
}

// GetProposals returns all journaled proposals in id order.
func (pdb *ProposalDB) GetProposals() ([]dao.Proposal, error) {
	rows, err := pdb.p.db.Query(fmt.Sprintf(`
	SELECT id, actions, status, tally, created_at
	FROM %s
	ORDER BY id ASC
	`, pdb.p.proposalsTableName()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proposals := []dao.Proposal{}
	for rows.Next() {
		var p dao.Proposal
		var actions string
		var status string

		err = rows.Scan(&p.ID, &actions, &status, &p.Tally, &p.CreatedAt)
		if err != nil {
			return nil, err
		}

		if err = json.Unmarshal([]byte(actions), &p.Actions); err != nil {
			return nil, err
		}
		p.Status = dao.ProposalStatus(status)

		proposals = append(proposals, p)
	}

	return proposals, rows.Err()
}
