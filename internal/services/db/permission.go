package db

import (
	"database/sql"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type PermissionDB struct {
	p *DB
}

// PermissionEntry is a journaled (resource, actor, kind) grant state.
type PermissionEntry struct {
	Resource common.Address
	Actor    common.Address
	Kind     common.Hash
	Granted  bool
}

func (pdb *PermissionDB) ensureExists() error {
	_, err := pdb.p.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s(
		resource varchar(42) NOT NULL,
		actor varchar(42) NOT NULL,
		kind varchar(66) NOT NULL,
		granted integer NOT NULL,
		UNIQUE (resource, actor, kind)
	);
	`, pdb.p.permissionsTableName()))

	return err
}

func (pdb *PermissionDB) save(db *sql.DB, resource, actor common.Address, kind common.Hash, granted bool) error {
	grantedInt := 0
	if granted {
		grantedInt = 1
	}

	_, err := db.Exec(fmt.Sprintf(`
	INSERT INTO %s (resource, actor, kind, granted)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (resource, actor, kind) DO UPDATE SET granted = $4
	`, pdb.p.permissionsTableName()), resource.Hex(), actor.Hex(), kind.Hex(), grantedInt)

	return err
}

// GetPermissions returns all journaled permission entries.
func (pdb *PermissionDB) GetPermissions() ([]PermissionEntry, error) {
	rows, err := pdb.p.db.Query(fmt.Sprintf(`
	SELECT resource, actor, kind, granted FROM %s
	`, pdb.p.permissionsTableName()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []PermissionEntry{}
	for rows.Next() {
		var resource, actor, kind string
		var granted int

		if err = rows.Scan(&resource, &actor, &kind, &granted); err != nil {
			return nil, err
		}

		entries = append(entries, PermissionEntry{
			Resource: common.HexToAddress(resource),
			Actor:    common.HexToAddress(actor),
			Kind:     common.HexToHash(kind),
			Granted:  granted != 0,
		})
	}

	return entries, rows.Err()
}
