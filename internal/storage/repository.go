// Package storage persists the account ledger in SQLite. All money values
// are stored as integer cents; operation dates are milliseconds since the
// Unix epoch, matching the wire format.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"comptes/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and applies
// pending migrations.
func Open(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Ping reports whether the database is reachable; the readiness probe
// uses it.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Accounts. The final balance is derived at read time: starting balance
// plus the signed sum of every operation on the account.

const accountSelect = `
SELECT a.id, a.name, a.bank_name, a.number, a.starting_balance_cents,
       a.starting_balance_cents
           + COALESCE(SUM(COALESCE(o.credit_cents, 0) - COALESCE(o.charge_cents, 0)), 0)
FROM accounts a
LEFT JOIN bank_operations o ON o.account_id = a.id`

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, bank_name, number, starting_balance_cents)
		 VALUES (?, ?, ?, ?)`,
		a.Name, a.BankName, a.Number, a.StartingBalance.Cents)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account insert id: %w", err)
	}
	return r.GetAccount(ctx, id)
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, accountSelect+` WHERE a.id = ? GROUP BY a.id`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, accountSelect+` GROUP BY a.id ORDER BY a.name, a.id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, id int64, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, bank_name = ?, number = ?, starting_balance_cents = ?
		 WHERE id = ?`,
		a.Name, a.BankName, a.Number, a.StartingBalance.Cents, id)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Account{}, fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	return r.GetAccount(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(s rowScanner) (core.Account, error) {
	var a core.Account
	err := s.Scan(&a.ID, &a.Name, &a.BankName, &a.Number,
		&a.StartingBalance.Cents, &a.FinalBalance.Cents)
	return a, err
}

// Third parties.

func (r *SQLiteRepository) CreateThirdParty(ctx context.Context, tp core.ThirdParty) (core.ThirdParty, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO third_parties (name) VALUES (?)`, tp.Name)
	if err != nil {
		return core.ThirdParty{}, fmt.Errorf("insert third party %q: %w", tp.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.ThirdParty{}, fmt.Errorf("third party insert id: %w", err)
	}
	tp.ID = id
	return tp, nil
}

func (r *SQLiteRepository) ListThirdParties(ctx context.Context) ([]core.ThirdParty, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM third_parties ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list third parties: %w", err)
	}
	defer rows.Close()

	var out []core.ThirdParty
	for rows.Next() {
		var tp core.ThirdParty
		if err := rows.Scan(&tp.ID, &tp.Name); err != nil {
			return nil, fmt.Errorf("scan third party: %w", err)
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}

// Categories. Every read returns the category with its sub-category list
// attached, assembled from a single left join.

const categorySelect = `
SELECT c.id, c.name, c.type, s.id, s.name
FROM categories c
LEFT JOIN sub_categories s ON s.category_id = c.id`

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, type) VALUES (?, ?)`, c.Name, string(c.Type))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category %q: %w", c.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	return r.GetCategory(ctx, id)
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	cats, err := r.queryCategories(ctx, categorySelect+` WHERE c.id = ? ORDER BY s.name, s.id`, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	if len(cats) == 0 {
		return core.Category{}, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return cats[0], nil
}

func (r *SQLiteRepository) ListCategoriesByType(ctx context.Context, t core.OperationType) ([]core.Category, error) {
	cats, err := r.queryCategories(ctx,
		categorySelect+` WHERE c.type = ? ORDER BY c.name, c.id, s.name, s.id`, string(t))
	if err != nil {
		return nil, fmt.Errorf("list %s categories: %w", t, err)
	}
	return cats, nil
}

// UpdateCategoryName renames a category. The type is immutable; renaming
// is the only supported category update.
func (r *SQLiteRepository) UpdateCategoryName(ctx context.Context, id int64, name string) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("rename category %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Category{}, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return r.GetCategory(ctx, id)
}

func (r *SQLiteRepository) queryCategories(ctx context.Context, query string, args ...any) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			id      int64
			name    string
			typ     string
			subID   sql.NullInt64
			subName sql.NullString
		)
		if err := rows.Scan(&id, &name, &typ, &subID, &subName); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].ID != id {
			out = append(out, core.Category{ID: id, Name: name, Type: core.OperationType(typ)})
		}
		if subID.Valid {
			cat := &out[len(out)-1]
			cat.SubCategories = append(cat.SubCategories, core.SubCategory{
				ID:         subID.Int64,
				Name:       subName.String,
				CategoryID: id,
			})
		}
	}
	return out, rows.Err()
}

// Sub-categories.

func (r *SQLiteRepository) CreateSubCategory(ctx context.Context, categoryID int64, sc core.SubCategory) (core.SubCategory, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sub_categories (category_id, name) VALUES (?, ?)`,
		categoryID, sc.Name)
	if err != nil {
		return core.SubCategory{}, fmt.Errorf("insert sub-category %q: %w", sc.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.SubCategory{}, fmt.Errorf("sub-category insert id: %w", err)
	}
	sc.ID = id
	sc.CategoryID = categoryID
	return sc, nil
}

// UpdateSubCategory renames the sub-category; when move is set it also
// re-parents it to sc.CategoryID. categoryID names the current owner, so a
// stale request against a moved sub-category misses and reports not found.
func (r *SQLiteRepository) UpdateSubCategory(ctx context.Context, categoryID, subCategoryID int64, sc core.SubCategory, move bool) (core.SubCategory, error) {
	target := categoryID
	if move {
		target = sc.CategoryID
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE sub_categories SET name = ?, category_id = ?
		 WHERE id = ? AND category_id = ?`,
		sc.Name, target, subCategoryID, categoryID)
	if err != nil {
		return core.SubCategory{}, fmt.Errorf("update sub-category %d: %w", subCategoryID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.SubCategory{}, fmt.Errorf("sub-category %d in category %d: %w",
			subCategoryID, categoryID, ErrNotFound)
	}
	sc.ID = subCategoryID
	sc.CategoryID = target
	return sc, nil
}

// Bank operations. Reads join the referenced entities so callers get a
// fully populated operation in one query, in ascending
// (operation_date, id) order.

const operationSelect = `
SELECT o.id, o.account_id, o.bank_note_num, o.operation_date, o.balance_state,
       o.charge_cents, o.credit_cents, o.notes,
       t.id, t.name,
       c.id, c.name, c.type,
       s.id, s.name, s.category_id
FROM bank_operations o
JOIN third_parties t ON t.id = o.third_party_id
JOIN categories c ON c.id = o.category_id
LEFT JOIN sub_categories s ON s.id = o.sub_category_id`

func (r *SQLiteRepository) GetOperation(ctx context.Context, id int64) (core.BankOperation, error) {
	row := r.db.QueryRowContext(ctx, operationSelect+` WHERE o.id = ?`, id)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BankOperation{}, fmt.Errorf("operation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.BankOperation{}, fmt.Errorf("get operation %d: %w", id, err)
	}
	return op, nil
}

func (r *SQLiteRepository) ListOperations(ctx context.Context, accountID int64) ([]core.BankOperation, error) {
	return r.queryOperations(ctx,
		operationSelect+` WHERE o.account_id = ? ORDER BY o.operation_date, o.id`,
		accountID)
}

// ListOperationsByCategory returns every operation referencing the
// category, across accounts, for the category analysis chart.
func (r *SQLiteRepository) ListOperationsByCategory(ctx context.Context, categoryID int64) ([]core.BankOperation, error) {
	return r.queryOperations(ctx,
		operationSelect+` WHERE o.category_id = ? ORDER BY o.operation_date, o.id`,
		categoryID)
}

func (r *SQLiteRepository) CreateOperation(ctx context.Context, op core.BankOperation) (core.BankOperation, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bank_operations
		 (account_id, bank_note_num, operation_date, balance_state,
		  third_party_id, charge_cents, credit_cents, category_id, sub_category_id, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.AccountID, op.BankNoteNum, op.OperationDate, string(op.BalanceState),
		op.ThirdParty.ID, centsOrNull(op.Charge), centsOrNull(op.Credit),
		op.Category.ID, subIDOrNull(op.SubCategory), op.Notes)
	if err != nil {
		return core.BankOperation{}, fmt.Errorf("insert operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.BankOperation{}, fmt.Errorf("operation insert id: %w", err)
	}
	return r.GetOperation(ctx, id)
}

func (r *SQLiteRepository) UpdateOperation(ctx context.Context, id int64, op core.BankOperation) (core.BankOperation, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bank_operations
		 SET bank_note_num = ?, operation_date = ?, balance_state = ?,
		     third_party_id = ?, charge_cents = ?, credit_cents = ?,
		     category_id = ?, sub_category_id = ?, notes = ?
		 WHERE id = ? AND account_id = ?`,
		op.BankNoteNum, op.OperationDate, string(op.BalanceState),
		op.ThirdParty.ID, centsOrNull(op.Charge), centsOrNull(op.Credit),
		op.Category.ID, subIDOrNull(op.SubCategory), op.Notes,
		id, op.AccountID)
	if err != nil {
		return core.BankOperation{}, fmt.Errorf("update operation %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.BankOperation{}, fmt.Errorf("operation %d on account %d: %w",
			id, op.AccountID, ErrNotFound)
	}
	return r.GetOperation(ctx, id)
}

func (r *SQLiteRepository) queryOperations(ctx context.Context, query string, args ...any) ([]core.BankOperation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var out []core.BankOperation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

func scanOperation(s rowScanner) (core.BankOperation, error) {
	var (
		op           core.BankOperation
		balanceState string
		charge       sql.NullInt64
		credit       sql.NullInt64
		catType      string
		subID        sql.NullInt64
		subName      sql.NullString
		subCatID     sql.NullInt64
	)
	err := s.Scan(&op.ID, &op.AccountID, &op.BankNoteNum, &op.OperationDate, &balanceState,
		&charge, &credit, &op.Notes,
		&op.ThirdParty.ID, &op.ThirdParty.Name,
		&op.Category.ID, &op.Category.Name, &catType,
		&subID, &subName, &subCatID)
	if err != nil {
		return core.BankOperation{}, err
	}

	op.BalanceState = core.BalanceState(balanceState)
	op.Category.Type = core.OperationType(catType)
	if charge.Valid {
		op.Charge = &core.Money{Cents: charge.Int64}
	}
	if credit.Valid {
		op.Credit = &core.Money{Cents: credit.Int64}
	}
	if subID.Valid {
		op.SubCategory = &core.SubCategory{
			ID:         subID.Int64,
			Name:       subName.String,
			CategoryID: subCatID.Int64,
		}
	}
	return op, nil
}

func centsOrNull(m *core.Money) any {
	if m == nil {
		return nil
	}
	return m.Cents
}

func subIDOrNull(sc *core.SubCategory) any {
	if sc == nil {
		return nil
	}
	return sc.ID
}
