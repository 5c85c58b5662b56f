package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"basket/internal/shopping/models"
	id "basket/pkg/domain"
	"basket/pkg/platform/sentinel"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Postgres persists lists and items in three tables: shopping_lists,
// list_members (ordered by a sequence column) and shopping_items, which
// carries a unique index on (list_id, name). Aggregate mutations lock the
// parent list row FOR UPDATE so validate-then-apply is atomic.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateList(ctx context.Context, list *models.ShoppingList) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO shopping_lists (id, name, last_interaction) VALUES ($1, $2, $3)`,
			list.ID.String(), list.Name, list.LastInteraction,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert list: %w", err)
		}
		return s.replaceMembers(ctx, tx, list.ID, list.Members)
	})
}

func (s *Postgres) FindList(ctx context.Context, listID id.ListID) (*models.ShoppingList, error) {
	return s.findList(ctx, s.db, listID, false)
}

func (s *Postgres) Lists(ctx context.Context) ([]*models.ShoppingList, error) {
	return s.queryLists(ctx, listSelect+` GROUP BY l.id ORDER BY l.last_interaction DESC, l.id ASC`)
}

func (s *Postgres) ListsForMember(ctx context.Context, userID id.UserID) ([]*models.ShoppingList, error) {
	return s.queryLists(ctx, listSelect+`
		WHERE EXISTS (SELECT 1 FROM list_members x WHERE x.list_id = l.id AND x.user_id = $1)
		GROUP BY l.id ORDER BY l.last_interaction DESC, l.id ASC`,
		userID.String(),
	)
}

func (s *Postgres) ExecuteList(ctx context.Context, listID id.ListID,
	validate func(*models.ShoppingList) error,
	apply func(*models.ShoppingList) error,
) (*models.ShoppingList, error) {
	var out *models.ShoppingList
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		list, err := s.findList(ctx, tx, listID, true)
		if err != nil {
			return err
		}
		if validate != nil {
			if err := validate(list); err != nil {
				return err
			}
		}
		if err := apply(list); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE shopping_lists SET name = $2, last_interaction = $3 WHERE id = $1`,
			listID.String(), list.Name, list.LastInteraction,
		); err != nil {
			return fmt.Errorf("update list: %w", err)
		}
		if err := s.replaceMembers(ctx, tx, listID, list.Members); err != nil {
			return err
		}
		out = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) DeleteList(ctx context.Context, listID id.ListID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE id = $1`, listID.String())
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) CreateItemIfNameAvailable(ctx context.Context, item *models.ShoppingItem) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO shopping_items (id, list_id, name, purchased, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			item.ID.String(), item.ListID.String(), item.Name, item.Purchased, item.CreatedAt,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				switch pqErr.Code {
				case uniqueViolation:
					return sentinel.ErrAlreadyUsed
				case foreignKeyViolation:
					return sentinel.ErrNotFound
				}
			}
			return fmt.Errorf("insert item: %w", err)
		}
		return s.touchList(ctx, tx, item.ListID, item.CreatedAt)
	})
}

func (s *Postgres) FindItem(ctx context.Context, listID id.ListID, itemID id.ItemID) (*models.ShoppingItem, error) {
	return s.findItem(ctx, s.db, listID, itemID, false)
}

func (s *Postgres) ItemsForList(ctx context.Context, listID id.ListID) ([]*models.ShoppingItem, error) {
	if _, err := s.findList(ctx, s.db, listID, false); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		itemSelect+` WHERE list_id = $1 ORDER BY created_at ASC, id ASC`,
		listID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *Postgres) ExecuteItem(ctx context.Context, listID id.ListID, itemID id.ItemID, touchedAt time.Time,
	validate func(*models.ShoppingItem) error,
	apply func(*models.ShoppingItem) error,
) (*models.ShoppingItem, error) {
	var out *models.ShoppingItem
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		// Lock the parent so concurrent renames serialize against the
		// per-list name uniqueness check.
		if err := s.lockList(ctx, tx, listID); err != nil {
			return err
		}
		item, err := s.findItem(ctx, tx, listID, itemID, true)
		if err != nil {
			return err
		}
		if validate != nil {
			if err := validate(item); err != nil {
				return err
			}
		}
		if err := apply(item); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE shopping_items SET name = $2, purchased = $3 WHERE id = $1`,
			itemID.String(), item.Name, item.Purchased,
		); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return sentinel.ErrAlreadyUsed
			}
			return fmt.Errorf("update item: %w", err)
		}
		if err := s.touchList(ctx, tx, listID, touchedAt); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) DeleteItem(ctx context.Context, listID id.ListID, itemID id.ItemID, touchedAt time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM shopping_items WHERE id = $1 AND list_id = $2`,
			itemID.String(), listID.String(),
		)
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return sentinel.ErrNotFound
		}
		return s.touchList(ctx, tx, listID, touchedAt)
	})
}

func (s *Postgres) SearchItems(ctx context.Context, term string, userID id.UserID, admin bool) ([]*models.ShoppingItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.id, i.list_id, i.name, i.purchased, i.created_at
		 FROM shopping_items i
		 JOIN shopping_lists l ON l.id = i.list_id
		 WHERE i.name ILIKE '%' || $1 || '%' ESCAPE '\'
		   AND ($3 OR EXISTS (SELECT 1 FROM list_members m WHERE m.list_id = l.id AND m.user_id = $2))
		 ORDER BY l.last_interaction DESC, l.id ASC, i.created_at ASC, i.id ASC`,
		escapeLike(term), userID.String(), admin,
	)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

const listSelect = `
	SELECT l.id, l.name, l.last_interaction,
	       COALESCE(array_agg(m.user_id::text ORDER BY m.seq) FILTER (WHERE m.user_id IS NOT NULL), '{}')
	FROM shopping_lists l
	LEFT JOIN list_members m ON m.list_id = l.id`

const itemSelect = `SELECT id, list_id, name, purchased, created_at FROM shopping_items`

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) findList(ctx context.Context, q querier, listID id.ListID, forUpdate bool) (*models.ShoppingList, error) {
	query := listSelect + ` WHERE l.id = $1 GROUP BY l.id`
	if forUpdate {
		// Aggregates cannot combine with FOR UPDATE; lock first.
		if tx, ok := q.(*sql.Tx); ok {
			if err := s.lockList(ctx, tx, listID); err != nil {
				return nil, err
			}
		}
	}
	row := q.QueryRowContext(ctx, query, listID.String())
	return scanList(row)
}

func (s *Postgres) lockList(ctx context.Context, tx *sql.Tx, listID id.ListID) error {
	var locked string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM shopping_lists WHERE id = $1 FOR UPDATE`, listID.String(),
	).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock list: %w", err)
	}
	return nil
}

func (s *Postgres) queryLists(ctx context.Context, query string, args ...any) ([]*models.ShoppingList, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()

	var out []*models.ShoppingList
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, list)
	}
	return out, rows.Err()
}

func (s *Postgres) findItem(ctx context.Context, q querier, listID id.ListID, itemID id.ItemID, forUpdate bool) (*models.ShoppingItem, error) {
	query := itemSelect + ` WHERE id = $1 AND list_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var (
		item      models.ShoppingItem
		rawID     string
		rawListID string
	)
	err := q.QueryRowContext(ctx, query, itemID.String(), listID.String()).
		Scan(&rawID, &rawListID, &item.Name, &item.Purchased, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan item: %w", err)
	}
	if item.ID, err = id.ParseItemID(rawID); err != nil {
		return nil, err
	}
	if item.ListID, err = id.ParseListID(rawListID); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Postgres) replaceMembers(ctx context.Context, tx *sql.Tx, listID id.ListID, members []id.UserID) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM list_members WHERE list_id = $1`, listID.String(),
	); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	for _, userID := range members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO list_members (list_id, user_id) VALUES ($1, $2)`,
			listID.String(), userID.String(),
		); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}
	return nil
}

// touchList advances last_interaction without ever rewinding it.
func (s *Postgres) touchList(ctx context.Context, tx *sql.Tx, listID id.ListID, touchedAt time.Time) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE shopping_lists SET last_interaction = GREATEST(last_interaction, $2) WHERE id = $1`,
		listID.String(), touchedAt,
	); err != nil {
		return fmt.Errorf("touch list: %w", err)
	}
	return nil
}

func (s *Postgres) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanList(row rowScanner) (*models.ShoppingList, error) {
	var (
		list    models.ShoppingList
		rawID   string
		rawMems pq.StringArray
	)
	err := row.Scan(&rawID, &list.Name, &list.LastInteraction, &rawMems)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan list: %w", err)
	}
	if list.ID, err = id.ParseListID(rawID); err != nil {
		return nil, err
	}
	list.Members = make([]id.UserID, 0, len(rawMems))
	for _, raw := range rawMems {
		userID, err := id.ParseUserID(raw)
		if err != nil {
			return nil, err
		}
		list.Members = append(list.Members, userID)
	}
	return &list, nil
}

func scanItems(rows *sql.Rows) ([]*models.ShoppingItem, error) {
	var out []*models.ShoppingItem
	for rows.Next() {
		var (
			item      models.ShoppingItem
			rawID     string
			rawListID string
		)
		if err := rows.Scan(&rawID, &rawListID, &item.Name, &item.Purchased, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		var err error
		if item.ID, err = id.ParseItemID(rawID); err != nil {
			return nil, err
		}
		if item.ListID, err = id.ParseListID(rawListID); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, rows.Err()
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
