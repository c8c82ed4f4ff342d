package postgres

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"
	"github.com/wallkanda/exchange-svc/internal/data"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const blockTable = "last_blocks"
const contractCol = "contract"

type blocks struct {
	db       *pgdb.DB
	contract string
}

// NewBlocks returns the last processed block of the given exchange contract.
func NewBlocks(db *pgdb.DB, contract common.Address) data.Blocks {
	return blocks{db: db, contract: contract.Hex()}
}

func (q blocks) Set(id uint64) error {
	stmt := squirrel.Insert(blockTable).
		Columns("id", contractCol).
		Values(id, q.contract).
		Suffix("ON CONFLICT (" + contractCol + ") DO UPDATE SET id = EXCLUDED.id")
	err := q.db.Exec(stmt)
	return errors.Wrap(err, "failed to upsert last block")
}

func (q blocks) Get() (*uint64, error) {
	var result struct {
		ID uint64 `db:"id"`
	}
	stmt := squirrel.Select("id").From(blockTable).Where(squirrel.Eq{contractCol: q.contract})

	if err := q.db.Get(&result, stmt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to select last block")
	}

	return &result.ID, nil
}
