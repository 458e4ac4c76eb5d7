// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"ikemen-api/internal/api"
	"ikemen-api/internal/cache"
	"ikemen-api/internal/estat"
	"ikemen-api/internal/estimate"
	"ikemen-api/internal/logger"
	"ikemen-api/internal/metrics"
	"ikemen-api/internal/middleware"
	"ikemen-api/internal/migrate"
	"ikemen-api/internal/store"
	"ikemen-api/internal/utils"
	"ikemen-api/internal/wikidata"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")

	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/api"
	}
	l.Debug("config_api_base", "base", apiBase)

	// 数据库可选：覆盖库与统计不可用时主链路照常工作
	var st *store.Store
	if os.Getenv("PG_DISABLE") != "true" {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
		} else if err := db.Ping(); err != nil {
			l.Error("db_ping_error", "err", err)
			_ = db.Close()
		} else {
			l.Info("db_ping_ok")
			if err := migrate.EnsureSchema(db); err != nil {
				l.Error("schema_error", "err", err)
				_ = db.Close()
			} else {
				st = store.AttachDB(db)
				defer db.Close()
			}
		}
	} else {
		l.Info("db_disabled")
	}

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		if err := rc.Ping(context.Background()).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	}

	ttl := 6 * time.Hour
	if v := os.Getenv("CACHE_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = time.Duration(n) * time.Hour
		}
	}
	l.Debug("config_cache_ttl", "ttl", ttl.String())

	wd := wikidata.NewFromEnv()
	svc := estimate.NewService(wd, cache.New(ttl), ttl, rc, st)

	es := estat.New(os.Getenv("ESTAT_APP_ID"), nil)

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(svc, st, es)
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler}

	if os.Getenv("TLS_ENABLE") == "true" {
		certPath := os.Getenv("TLS_CERT_PATH")
		keyPath := os.Getenv("TLS_KEY_PATH")
		if certPath == "" {
			certPath = filepath.Join("data", "certs", "server.crt")
		}
		if keyPath == "" {
			keyPath = filepath.Join("data", "certs", "server.key")
		}
		_ = utils.EnsureSelfSignedCert(certPath, keyPath, "ikemen-api.local")
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		_ = s.ListenAndServeTLS(certPath, keyPath)
		return
	}
	l.Info("listening", "addr", addr)
	_ = s.ListenAndServe()
}
