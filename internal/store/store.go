// 包 store: 提供与 PostgreSQL 的数据访问层，包含人工地域覆盖与统计读写
package store

import (
	"context"
	"database/sql"

	"ikemen-api/internal/logger"

	_ "github.com/lib/pq"
)

// Store: 数据库访问入口，持有连接池并提供覆盖/统计接口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	return &Store{db: db}, nil
}

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Override: 人工维护的地域人口覆盖行
// 背景：外部知识源数据滞后或错误时，运营可按规范名直接钉住一条快照；
// 查询链路在访问外部源之前先查这里
type Override struct {
	Name    string
	Pref    string
	Male    int64
	Total   int64
	AreaKm2 *float64
}

// LookupOverride: 按规范名取覆盖行；未命中返回 (nil, nil)
func (s *Store) LookupOverride(ctx context.Context, name string) (*Override, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, pref, male, total, area_km2 FROM _region_overrides WHERE name=$1`, name)
	var o Override
	var area sql.NullFloat64
	if err := row.Scan(&o.Name, &o.Pref, &o.Male, &o.Total, &area); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if area.Valid {
		o.AreaKm2 = &area.Float64
	}
	return &o, nil
}

// UpsertOverride: 写入或更新覆盖行
func (s *Store) UpsertOverride(ctx context.Context, o Override) error {
	var area sql.NullFloat64
	if o.AreaKm2 != nil {
		area = sql.NullFloat64{Float64: *o.AreaKm2, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO _region_overrides(name, pref, male, total, area_km2)
        VALUES($1,$2,$3,$4,$5)
        ON CONFLICT (name) DO UPDATE SET pref=EXCLUDED.pref, male=EXCLUDED.male, total=EXCLUDED.total, area_km2=EXCLUDED.area_km2, updated_at=now()`,
		o.Name, o.Pref, o.Male, o.Total, area)
	return err
}

// DeleteOverride: 删除覆盖行
func (s *Store) DeleteOverride(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM _region_overrides WHERE name=$1`, name)
	return err
}

// ListOverrides: 按更新时间倒序列出覆盖行
func (s *Store) ListOverrides(ctx context.Context, limit int) ([]Override, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, pref, male, total, area_km2 FROM _region_overrides ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Override
	for rows.Next() {
		var o Override
		var area sql.NullFloat64
		if err := rows.Scan(&o.Name, &o.Pref, &o.Male, &o.Total, &area); err != nil {
			return nil, err
		}
		if area.Valid {
			o.AreaKm2 = &area.Float64
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// IncrStats: 请求落地后递增总计与当日计数；失败不影响主链路
func (s *Store) IncrStats(ctx context.Context) error {
	_, _ = s.db.ExecContext(ctx, "UPDATE _estimate_stats_total SET total_queries=total_queries+1 WHERE id=1")
	_, _ = s.db.ExecContext(ctx, "INSERT INTO _estimate_stats_daily(day, queries) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET queries=_estimate_stats_daily.queries+1")
	logger.L().Debug("stats_incr")
	return nil
}

// Totals: 统计返回结构，包含累计与当日查询次数
type Totals struct {
	Total int64
	Today int64
}

// GetTotals: 读取累计与当日查询次数，用于接口返回
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx, "SELECT total_queries FROM _estimate_stats_total WHERE id=1")
	_ = row.Scan(&t.Total)
	row2 := s.db.QueryRowContext(ctx, "SELECT queries FROM _estimate_stats_daily WHERE day=current_date")
	_ = row2.Scan(&t.Today)
	return &t, nil
}
