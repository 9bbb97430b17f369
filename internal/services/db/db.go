package db

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/bitdao/governor/internal/storage"
	"github.com/bitdao/governor/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	dbBaseFolder   = "data"
	dbConfigString = "cache=private&_journal=WAL&mode=rwc&_txlock=immediate&_busy_timeout=10000"
)

// DB is the durable journal of accepted governance state: proposals, vote
// records, spent nullifiers and permission entries. The engine's in-memory
// state is authoritative at runtime; the journal restores it after a restart.
type DB struct {
	suffix string
	mu     sync.Mutex
	db     *sql.DB

	ProposalDB   *ProposalDB
	VoteDB       *VoteDB
	PermissionDB *PermissionDB
}

// NewDB instantiates a sqlite-backed journal under basePath. The suffix keeps
// several engine instances apart in one database file.
func NewDB(basePath, suffix string) (*DB, error) {
	folderPath := fmt.Sprintf("%s/%s", basePath, dbBaseFolder)
	path := fmt.Sprintf("%s/governor.db", folderPath)

	if !storage.Exists(folderPath) {
		err := storage.CreateDir(folderPath)
		if err != nil {
			return nil, err
		}
	}

	sqldb, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, dbConfigString))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = sqldb.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqldb.SetMaxOpenConns(1)

	return newDB(sqldb, suffix)
}

// NewPostgresDB instantiates a postgres-backed journal.
func NewPostgresDB(username, password, name, host, suffix string) (*DB, error) {
	connStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=5432 sslmode=disable", username, password, name, host)
	sqldb, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = sqldb.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newDB(sqldb, suffix)
}

func newDB(sqldb *sql.DB, suffix string) (*DB, error) {
	d := &DB{
		suffix: suffix,
		db:     sqldb,
	}
	d.ProposalDB = &ProposalDB{p: d}
	d.VoteDB = &VoteDB{p: d}
	d.PermissionDB = &PermissionDB{p: d}

	if err := d.ProposalDB.ensureExists(); err != nil {
		return nil, err
	}
	if err := d.VoteDB.ensureExists(); err != nil {
		return nil, err
	}
	if err := d.PermissionDB.ensureExists(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) proposalsTableName() string {
	return fmt.Sprintf("t_proposals_%s", d.suffix)
}

func (d *DB) votesTableName() string {
	return fmt.Sprintf("t_votes_%s", d.suffix)
}

func (d *DB) nullifiersTableName() string {
	return fmt.Sprintf("t_nullifiers_%s", d.suffix)
}

func (d *DB) permissionsTableName() string {
	return fmt.Sprintf("t_permissions_%s", d.suffix)
}

// SaveProposal journals a newly created proposal.
func (d *DB) SaveProposal(p *dao.Proposal) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.ProposalDB.add(d.db, p)
}

// CommitVote journals an accepted vote together with the tally and status it
// produced, in a single transaction. Exactly one of voter and nullifier is
// set, matching the two vote paths.
func (d *DB) CommitVote(proposalID uint64, voter *common.Address, nullifier []byte, tally uint64, executed bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}

	if voter != nil {
		if err := d.VoteDB.addVote(tx, proposalID, *voter); err != nil {
			tx.Rollback()
			return err
		}
	}

	if nullifier != nil {
		if err := d.VoteDB.addNullifier(tx, proposalID, nullifier); err != nil {
			tx.Rollback()
			return err
		}
	}

	status := dao.ProposalStatusPending
	if executed {
		status = dao.ProposalStatusExecuted
	}

	if err := d.ProposalDB.setTallyAndStatus(tx, proposalID, tally, status); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// SavePermission journals a grant or revoke.
func (d *DB) SavePermission(resource, actor common.Address, kind common.Hash, granted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.PermissionDB.save(d.db, resource, actor, kind, granted)
}
