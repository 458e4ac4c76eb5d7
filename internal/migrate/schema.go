package migrate

import (
	"database/sql"

	"ikemen-api/internal/logger"
)

// 背景：首次运行自动创建所需表与索引，保障覆盖写入与统计读写
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _region_overrides (
            name TEXT PRIMARY KEY,
            pref TEXT NOT NULL DEFAULT '',
            male BIGINT NOT NULL DEFAULT 0,
            total BIGINT NOT NULL DEFAULT 0,
            area_km2 DOUBLE PRECISION,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_region_overrides_updated ON _region_overrides(updated_at DESC)`,
		`CREATE TABLE IF NOT EXISTS _estimate_stats_total (
            id INT PRIMARY KEY,
            total_queries BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS _estimate_stats_daily (
            day DATE PRIMARY KEY,
            queries BIGINT NOT NULL DEFAULT 0
        )`,
		`INSERT INTO _estimate_stats_total(id, total_queries)
         VALUES(1, 0)
         ON CONFLICT (id) DO NOTHING`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
