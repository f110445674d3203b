package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore/kverror"
)

var jsonapi = jsoniter.ConfigCompatibleWithStandardLibrary

type store struct {
	db       *sql.DB
	table    string // quoted
	attempts uint
}

func (s *store) Get(ctx context.Context, pk, sk string) (kvstore.Item, error) {
	if pk == "" || sk == "" {
		return nil, kverror.ErrInvalidItem
	}
	var item kvstore.Item
	err := s.withRetry(ctx, func() error {
		var attrs pgtype.JSONB
		row := s.db.QueryRowContext(ctx,
			`SELECT attrs FROM `+s.table+` WHERE pk = $1 AND sk = $2`, pk, sk)
		if err := row.Scan(&attrs); err != nil {
			if err == sql.ErrNoRows {
				item = nil
				return nil
			}
			return err
		}
		it, err := decodeItem(pk, sk, attrs.Bytes)
		if err != nil {
			return err
		}
		item = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *store) Query(ctx context.Context, q kvstore.Query) ([]kvstore.Item, error) {
	if q.HashKey == "" {
		return nil, kverror.ErrInvalidQuery
	}
	var hashCol, rangeCol string
	switch q.Index {
	case kvstore.IndexPrimary:
		hashCol, rangeCol = "pk", "sk"
	case kvstore.IndexForward:
		hashCol, rangeCol = "sk", "pk"
	default:
		return nil, kverror.ErrInvalidQuery
	}

	query := `SELECT pk, sk, attrs FROM ` + s.table + ` WHERE ` + hashCol + ` = $1`
	args := []any{q.HashKey}
	if q.RangePrefix != "" {
		args = append(args, likePrefix(q.RangePrefix))
		query += ` AND ` + rangeCol + ` LIKE $` + strconv.Itoa(len(args))
	}
	for _, c := range q.Filter {
		clause, cargs, err := condClause(c, len(args))
		if err != nil {
			return nil, err
		}
		args = append(args, cargs...)
		query += ` AND ` + clause
	}
	query += ` ORDER BY ` + rangeCol

	var items []kvstore.Item
	err := s.withRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		items = nil
		for rows.Next() {
			var pk, sk string
			var attrs pgtype.JSONB
			if err := rows.Scan(&pk, &sk, &attrs); err != nil {
				return err
			}
			it, err := decodeItem(pk, sk, attrs.Bytes)
			if err != nil {
				return err
			}
			items = append(items, it)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *store) Put(ctx context.Context, item kvstore.Item) error {
	pk, sk := item.PK(), item.SK()
	if pk == "" || sk == "" {
		return kverror.ErrInvalidItem
	}
	attrs, err := encodeAttrs(item)
	if err != nil {
		return err
	}
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO `+s.table+` (pk, sk, attrs) VALUES ($1, $2, $3)
			 ON CONFLICT (pk, sk) DO UPDATE SET attrs = EXCLUDED.attrs`,
			pk, sk, attrs)
		return err
	})
}

// Update applies the delta read-modify-write under a row lock, creating the
// item when absent. The jsonb document is edited attribute by attribute so
// concurrent updates to different attributes of the same item cannot lose
// each other's writes.
func (s *store) Update(ctx context.Context, pk, sk string, delta kvstore.Delta) (kvstore.Item, error) {
	if pk == "" || sk == "" {
		return nil, kverror.ErrInvalidItem
	}
	var item kvstore.Item
	err := s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
		if err != nil {
			return err
		}
		defer tx.Rollback()

		attrs := []byte(`{}`)
		var stored pgtype.JSONB
		row := tx.QueryRowContext(ctx,
			`SELECT attrs FROM `+s.table+` WHERE pk = $1 AND sk = $2 FOR UPDATE`, pk, sk)
		if err := row.Scan(&stored); err != nil {
			if err != sql.ErrNoRows {
				return err
			}
		} else {
			attrs = stored.Bytes
		}

		attrs, err = applyDelta(attrs, delta)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+s.table+` (pk, sk, attrs) VALUES ($1, $2, $3)
			 ON CONFLICT (pk, sk) DO UPDATE SET attrs = EXCLUDED.attrs`,
			pk, sk, attrs); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		it, err := decodeItem(pk, sk, attrs)
		if err != nil {
			return err
		}
		item = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *store) Delete(ctx context.Context, pk, sk string) error {
	if pk == "" || sk == "" {
		return kverror.ErrInvalidItem
	}
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM `+s.table+` WHERE pk = $1 AND sk = $2`, pk, sk)
		return err
	})
}

func (s *store) BatchDelete(ctx context.Context, keys []kvstore.Key) error {
	if len(keys) == 0 {
		return nil
	}
	var sb strings.Builder
	args := make([]any, 0, len(keys)*2)
	for i, k := range keys {
		if k.PK == "" || k.SK == "" {
			return kverror.ErrInvalidItem
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($" + strconv.Itoa(i*2+1) + ", $" + strconv.Itoa(i*2+2) + ")")
		args = append(args, k.PK, k.SK)
	}
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM `+s.table+` WHERE (pk, sk) IN (`+sb.String()+`)`, args...)
		return err
	})
}

// withRetry runs fn, retrying transient backend failures with backoff. The
// retry policy lives here: callers above the adapter never retry.
func (s *store) withRetry(ctx context.Context, fn func() error) error {
	err := retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
	if err == nil {
		return nil
	}
	var appErr interface{ StatusCode() int }
	if errors.As(err, &appErr) {
		return err
	}
	log.Ctx(ctx).Error().Err(err).Msg("store call failed")
	return kverror.ErrStoreUnavailable.Err(err)
}

// isTransient reports whether the error is worth retrying: connection-class
// and shutdown-class backend errors, serialization failures, and pooled
// connections that died under us.
func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"): // connection exception
			return true
		case strings.HasPrefix(pgErr.Code, "57"): // operator intervention
			return true
		case pgErr.Code == "40001" || pgErr.Code == "40P01": // serialization, deadlock
			return true
		}
	}
	return false
}

func condClause(c kvstore.Cond, argOffset int) (string, []any, error) {
	n := func(i int) string { return "$" + strconv.Itoa(argOffset+i) }
	switch c.Op {
	case kvstore.OpEqual:
		return `attrs->>` + n(1) + ` = ` + n(2), []any{c.Attr, c.Value}, nil
	case kvstore.OpNotEqual:
		return `attrs->>` + n(1) + ` IS DISTINCT FROM ` + n(2), []any{c.Attr, c.Value}, nil
	case kvstore.OpBeginsWith:
		return `attrs->>` + n(1) + ` LIKE ` + n(2), []any{c.Attr, likePrefix(c.Value)}, nil
	case kvstore.OpExists:
		return `attrs ? ` + n(1), []any{c.Attr}, nil
	case kvstore.OpNotExists:
		return `NOT (attrs ? ` + n(1) + `)`, []any{c.Attr}, nil
	}
	return "", nil, kverror.ErrInvalidQuery.Msg("unknown filter operator: " + string(c.Op))
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

func encodeAttrs(item kvstore.Item) ([]byte, error) {
	attrs := make(map[string]any, len(item))
	for k, v := range item {
		if k == kvstore.AttrPK || k == kvstore.AttrSK {
			continue
		}
		attrs[k] = v
	}
	b, err := jsonapi.Marshal(attrs)
	if err != nil {
		return nil, kverror.ErrInvalidItem.Err(err)
	}
	return b, nil
}

func decodeItem(pk, sk string, attrs []byte) (kvstore.Item, error) {
	it := kvstore.Item{}
	if len(attrs) > 0 {
		if err := jsonapi.Unmarshal(attrs, &it); err != nil {
			return nil, kverror.ErrInvalidItem.Err(err)
		}
	}
	it[kvstore.AttrPK] = pk
	it[kvstore.AttrSK] = sk
	return it, nil
}

func applyDelta(attrs []byte, delta kvstore.Delta) ([]byte, error) {
	var err error
	for k, v := range delta.Set {
		if k == kvstore.AttrPK || k == kvstore.AttrSK {
			continue
		}
		if attrs, err = sjson.SetBytes(attrs, k, v); err != nil {
			return nil, kverror.ErrInvalidItem.Err(err)
		}
	}
	for _, k := range delta.Remove {
		if attrs, err = sjson.DeleteBytes(attrs, k); err != nil {
			return nil, kverror.ErrInvalidItem.Err(err)
		}
	}
	for attr, members := range delta.AddToSet {
		list := stringList(attrs, attr)
		for _, m := range members {
			if !stringIn(list, m) {
				list = append(list, m)
			}
		}
		if attrs, err = sjson.SetBytes(attrs, attr, list); err != nil {
			return nil, kverror.ErrInvalidItem.Err(err)
		}
	}
	for attr, members := range delta.RemoveFromSet {
		var kept []string
		for _, v := range stringList(attrs, attr) {
			if !stringIn(members, v) {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			attrs, err = sjson.DeleteBytes(attrs, attr)
		} else {
			attrs, err = sjson.SetBytes(attrs, attr, kept)
		}
		if err != nil {
			return nil, kverror.ErrInvalidItem.Err(err)
		}
	}
	return attrs, nil
}

func stringList(attrs []byte, attr string) []string {
	var out []string
	for _, v := range gjson.GetBytes(attrs, attr).Array() {
		out = append(out, v.String())
	}
	return out
}

func stringIn(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
