package postgres

import (
	"database/sql"
	"math/big"

	"github.com/Masterminds/squirrel"
	"github.com/fatih/structs"
	"github.com/wallkanda/exchange-svc/internal/data"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	fillsTable        = "order_fills"
	recordedLogsTable = "recorded_logs"
)

type fillRow struct {
	Schema   int16  `structs:"schema" db:"schema"`
	Exchange string `structs:"exchange" db:"exchange"`
	Maker    string `structs:"maker" db:"maker"`
	Nonce    string `structs:"order_nonce" db:"order_nonce"`
	// numeric columns are carried as decimal strings
	Filled string `structs:"filled" db:"filled"`
	Closed bool   `structs:"closed" db:"closed"`
}

type fills struct {
	db *pgdb.DB
}

func NewFills(db *pgdb.DB) data.Fills {
	return fills{db: db}
}

func keyEq(k types.OrderKey) squirrel.Eq {
	return squirrel.Eq{
		"schema":      int16(k.Schema),
		"exchange":    k.Exchange.Hex(),
		"maker":       k.Maker.Hex(),
		"order_nonce": k.Nonce.String(),
	}
}

func newRow(k types.OrderKey, filled *big.Int, closed bool) fillRow {
	return fillRow{
		Schema:   int16(k.Schema),
		Exchange: k.Exchange.Hex(),
		Maker:    k.Maker.Hex(),
		Nonce:    k.Nonce.String(),
		Filled:   filled.String(),
		Closed:   closed,
	}
}

func (q fills) Get(key types.OrderKey) (*data.Fill, error) {
	return get(q.db, squirrel.Select("*").From(fillsTable).Where(keyEq(key)), key)
}

func (q fills) Settle(key types.OrderKey, quantity, capacity *big.Int, apply func(*big.Int) error) (*data.Fill, error) {
	var result *data.Fill
	// rejection is kept apart so the caller sees it as is, not wrapped by the
	// transaction helper
	var rejection error

	db := q.db.Clone()
	err := db.Transaction(func() error {
		// the row must exist for FOR UPDATE to lock the first fill of an order
		err := db.Exec(squirrel.Insert(fillsTable).SetMap(structs.Map(newRow(key, new(big.Int), false))).
			Suffix("ON CONFLICT (schema, exchange, maker, order_nonce) DO NOTHING"))
		if err != nil {
			return errors.Wrap(err, "failed to insert order fill")
		}

		current, err := get(db, squirrel.Select("*").From(fillsTable).Where(keyEq(key)).Suffix("FOR UPDATE"), key)
		if err != nil {
			return err
		}

		if current == nil {
			return errors.New("order fill vanished inside transaction")
		}
		if current.Closed {
			rejection = data.ErrFillClosed
			return rejection
		}

		filled := new(big.Int).Add(current.Filled, quantity)
		if filled.Cmp(capacity) > 0 {
			rejection = data.ErrFillExceeded
			return rejection
		}
		if err = apply(filled); err != nil {
			rejection = err
			return rejection
		}

		result = &data.Fill{Key: key, Filled: filled, Closed: filled.Cmp(capacity) == 0}
		return db.Exec(squirrel.Update(fillsTable).
			SetMap(map[string]interface{}{"filled": filled.String(), "closed": result.Closed}).
			Where(keyEq(key)))
	})
	if rejection != nil {
		return nil, rejection
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to settle order fill", logan.F{"order": key.String()})
	}
	return result, nil
}

func (q fills) Record(key types.OrderKey, quantity *big.Int, log data.LogID) error {
	db := q.db.Clone()
	err := db.Transaction(func() error {
		var inserted []int64
		err := db.Select(&inserted, squirrel.Insert(recordedLogsTable).
			SetMap(map[string]interface{}{"tx_hash": log.TxHash.Hex(), "log_index": int64(log.Index)}).
			Suffix("ON CONFLICT (tx_hash, log_index) DO NOTHING RETURNING log_index"))
		if err != nil {
			return errors.Wrap(err, "failed to insert recorded log")
		}
		if len(inserted) == 0 {
			return nil
		}
		return upsert(db, newRow(key, quantity, false), "filled = "+fillsTable+".filled + EXCLUDED.filled")
	})
	return errors.Wrap(err, "failed to record order fill", logan.F{
		"order":   key.String(),
		"tx_hash": log.TxHash.Hex(),
	})
}

func (q fills) Close(key types.OrderKey) error {
	err := upsert(q.db, newRow(key, new(big.Int), true), "closed = true")
	return errors.Wrap(err, "failed to close order", logan.F{"order": key.String()})
}

func get(db *pgdb.DB, stmt squirrel.SelectBuilder, key types.OrderKey) (*data.Fill, error) {
	var row fillRow
	if err := db.Get(&row, stmt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to select order fill")
	}

	filled, ok := new(big.Int).SetString(row.Filled, 10)
	if !ok {
		return nil, errors.From(errors.New("malformed filled quantity"), logan.F{"filled": row.Filled})
	}
	return &data.Fill{Key: key, Filled: filled, Closed: row.Closed}, nil
}

func upsert(db *pgdb.DB, row fillRow, onConflict string) error {
	stmt := squirrel.Insert(fillsTable).SetMap(structs.Map(row)).
		Suffix("ON CONFLICT (schema, exchange, maker, order_nonce) DO UPDATE SET " + onConflict)
	return db.Exec(stmt)
}
