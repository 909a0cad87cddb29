package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nhussaini/BlookBankManagementAPI/internal/domain"
	"github.com/nhussaini/BlookBankManagementAPI/internal/storage/retry"
)

const unitColumns = `id, hospital, date, blood_type, expiry, location, donator`

// InventoryRepository is the Postgres-backed Inventory Store: the
// durable ledger of blood units available for normal or emergency use.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// FindClosestExpiry returns the unit at (location, bloodType) with the
// soonest expiry, ties broken by lowest id, or nil when none matches.
func (r *InventoryRepository) FindClosestExpiry(ctx context.Context, location string, bloodType domain.BloodType) (*domain.BloodUnit, error) {
	const query = `
SELECT ` + unitColumns + `
FROM blood_units
WHERE location = $1 AND blood_type = $2
ORDER BY expiry, id
LIMIT 1`

	var unit domain.BloodUnit
	err := retry.Do(ctx, func(ctx context.Context) error {
		return permanentNoRows(scanUnit(r.queryRow(ctx, query, location, bloodType), &unit))
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find closest expiry: %w", err)
	}
	return &unit, nil
}

func (r *InventoryRepository) FindByID(ctx context.Context, id int64) (*domain.BloodUnit, error) {
	const query = `SELECT ` + unitColumns + ` FROM blood_units WHERE id = $1`

	var unit domain.BloodUnit
	err := retry.Do(ctx, func(ctx context.Context) error {
		return permanentNoRows(scanUnit(r.queryRow(ctx, query, id), &unit))
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find unit by id: %w", err)
	}
	return &unit, nil
}

// FindMatching returns a unit whose business fields equal the given
// allocation's, under an id other than its origin id. Used by
// reconciliation to detect a Cancel that crashed after its insert.
func (r *InventoryRepository) FindMatching(ctx context.Context, alloc domain.Allocation) (*domain.BloodUnit, error) {
	const query = `
SELECT ` + unitColumns + `
FROM blood_units
WHERE hospital = $1 AND date = $2 AND blood_type = $3
  AND expiry = $4 AND location = $5 AND donator = $6
  AND id <> $7
ORDER BY id
LIMIT 1`

	var unit domain.BloodUnit
	err := retry.Do(ctx, func(ctx context.Context) error {
		return permanentNoRows(scanUnit(r.queryRow(ctx, query,
			alloc.Hospital, alloc.DonatedAt, alloc.BloodType,
			alloc.Expiry, alloc.Location, alloc.Donator,
			alloc.OriginInventoryID,
		), &unit))
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find matching unit: %w", err)
	}
	return &unit, nil
}

func (r *InventoryRepository) ListByHospital(ctx context.Context, hospital string) ([]domain.BloodUnit, error) {
	const query = `SELECT ` + unitColumns + ` FROM blood_units WHERE hospital = $1 ORDER BY id`
	return r.list(ctx, query, hospital)
}

func (r *InventoryRepository) ListByBloodType(ctx context.Context, bloodType domain.BloodType) ([]domain.BloodUnit, error) {
	const query = `SELECT ` + unitColumns + ` FROM blood_units WHERE blood_type = $1 ORDER BY id`
	return r.list(ctx, query, bloodType)
}

func (r *InventoryRepository) ListDonatedSince(ctx context.Context, since time.Time) ([]domain.BloodUnit, error) {
	const query = `SELECT ` + unitColumns + ` FROM blood_units WHERE date >= $1 ORDER BY id`
	return r.list(ctx, query, since)
}

// CountByBloodType returns the number of stored units per blood type.
// Types with no units are absent from the map.
func (r *InventoryRepository) CountByBloodType(ctx context.Context) (map[domain.BloodType]int, error) {
	const query = `SELECT blood_type, COUNT(*) FROM blood_units GROUP BY blood_type`

	counts := make(map[domain.BloodType]int)
	err := retry.Do(ctx, func(ctx context.Context) error {
		rows, err := r.query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		clear(counts)
		for rows.Next() {
			var bt domain.BloodType
			var n int
			if err := rows.Scan(&bt, &n); err != nil {
				return err
			}
			counts[bt] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("count by blood type: %w", err)
	}
	return counts, nil
}

// NextID draws a fresh unit id from the shared sequence. Ids are never
// reused, so a retired id stays retired.
func (r *InventoryRepository) NextID(ctx context.Context) (int64, error) {
	const query = `SELECT nextval('blood_unit_ids')`

	var id int64
	err := retry.Do(ctx, func(ctx context.Context) error {
		return r.queryRow(ctx, query).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("next unit id: %w", err)
	}
	return id, nil
}

func (r *InventoryRepository) Insert(ctx context.Context, unit domain.BloodUnit) error {
	const stmt = `
INSERT INTO blood_units (id, hospital, date, blood_type, expiry, location, donator)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	err := retry.Do(ctx, func(ctx context.Context) error {
		_, err := r.exec(ctx, stmt,
			unit.ID,
			unit.Hospital,
			unit.DonatedAt,
			unit.BloodType,
			unit.Expiry,
			unit.Location,
			unit.Donator,
		)
		if isUniqueViolation(err) {
			return domain.ErrDuplicateID
		}
		return err
	})
	if err != nil {
		if err == domain.ErrDuplicateID {
			return err
		}
		return fmt.Errorf("insert unit: %w", err)
	}
	return nil
}

// DeleteByID removes a unit and reports whether a row was deleted.
func (r *InventoryRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	const stmt = `DELETE FROM blood_units WHERE id = $1`

	var deleted bool
	err := retry.Do(ctx, func(ctx context.Context) error {
		tag, err := r.exec(ctx, stmt, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete unit: %w", err)
	}
	return deleted, nil
}

// UpdateField sets a single whitelisted column and returns the updated
// unit, or nil when the id does not exist.
func (r *InventoryRepository) UpdateField(ctx context.Context, id int64, field string, value any) (*domain.BloodUnit, error) {
	column, ok := updatableColumns[field]
	if !ok {
		return nil, domain.ErrFieldNotUpdatable
	}
	stmt := fmt.Sprintf(
		`UPDATE blood_units SET %s = $1 WHERE id = $2 RETURNING `+unitColumns, column)

	var unit domain.BloodUnit
	err := retry.Do(ctx, func(ctx context.Context) error {
		return permanentNoRows(scanUnit(r.queryRow(ctx, stmt, value, id), &unit))
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("update unit field: %w", err)
	}
	return &unit, nil
}

// DeleteExpired removes every unit with expiry before the cutoff and
// returns the deleted rows.
func (r *InventoryRepository) DeleteExpired(ctx context.Context, cutoff time.Time) ([]domain.BloodUnit, error) {
	const stmt = `DELETE FROM blood_units WHERE expiry < $1 RETURNING ` + unitColumns

	var units []domain.BloodUnit
	err := retry.Do(ctx, func(ctx context.Context) error {
		rows, err := r.query(ctx, stmt, cutoff)
		if err != nil {
			return err
		}
		defer rows.Close()

		units = units[:0]
		for rows.Next() {
			var unit domain.BloodUnit
			if err := scanUnitRow(rows, &unit); err != nil {
				return err
			}
			units = append(units, unit)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("delete expired units: %w", err)
	}
	return units, nil
}

var updatableColumns = map[string]string{
	"hospital":   "hospital",
	"date":       "date",
	"blood_type": "blood_type",
	"expiry":     "expiry",
	"location":   "location",
	"donator":    "donator",
}

func (r *InventoryRepository) list(ctx context.Context, query string, args ...any) ([]domain.BloodUnit, error) {
	var units []domain.BloodUnit
	err := retry.Do(ctx, func(ctx context.Context) error {
		rows, err := r.query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		units = units[:0]
		for rows.Next() {
			var unit domain.BloodUnit
			if err := scanUnitRow(rows, &unit); err != nil {
				return err
			}
			units = append(units, unit)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return units, nil
}

func permanentNoRows(err error) error {
	if err == pgx.ErrNoRows {
		return retry.Permanent(err)
	}
	return err
}

func scanUnit(row pgx.Row, unit *domain.BloodUnit) error {
	return row.Scan(
		&unit.ID,
		&unit.Hospital,
		&unit.DonatedAt,
		&unit.BloodType,
		&unit.Expiry,
		&unit.Location,
		&unit.Donator,
	)
}

func scanUnitRow(rows pgx.Rows, unit *domain.BloodUnit) error {
	return rows.Scan(
		&unit.ID,
		&unit.Hospital,
		&unit.DonatedAt,
		&unit.BloodType,
		&unit.Expiry,
		&unit.Location,
		&unit.Donator,
	)
}

func (r *InventoryRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *InventoryRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *InventoryRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
