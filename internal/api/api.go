// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"ikemen-api/internal/estimate"
	"ikemen-api/internal/metrics"
	"ikemen-api/internal/store"
	"ikemen-api/internal/version"
)

// 查询参数缺省值：年龄区间沿用产品口径 18–35
const (
	defaultMinAge = 18
	defaultMaxAge = 35
)

// setCORS：放开跨域（前端独立部署）；预检直接 204
func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// intParam：整数查询参数，缺失或非法时回退缺省值
func intParam(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// floatParamPtr：可空浮点查询参数；缺失或非法返回 nil
func floatParamPtr(r *http.Request, name string) *float64 {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// BuildRoutes：构建并返回 API 路由
// 背景：独立 ServeMux 便于在主入口挂载到 /api 前缀；estat 代理作为
// 外部协作方单独构造后传入，避免 api 包持有上游密钥
func BuildRoutes(svc *estimate.Service, st *store.Store, estatProxy http.Handler) *http.ServeMux {
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/estimate", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
			return
		}
		region := r.URL.Query().Get("region")
		if region == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "region required"})
			return
		}
		minAge := intParam(r, "minAge", defaultMinAge)
		maxAge := intParam(r, "maxAge", defaultMaxAge)
		hensachi := floatParamPtr(r, "hensachi")

		t0 := time.Now()
		res := svc.Estimate(r.Context(), region, minAge, maxAge, hensachi)
		metrics.RequestDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
		writeJSON(w, http.StatusOK, res)
	})

	apiMux.HandleFunc("/regions", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
			return
		}
		q := r.URL.Query().Get("q")
		if q == "" {
			q = r.URL.Query().Get("keyword")
		}
		writeJSON(w, http.StatusOK, svc.SuggestRegions(r.Context(), q))
	})

	apiMux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		var total, today int64
		if st != nil {
			if t, err := st.GetTotals(r.Context()); err == nil && t != nil {
				total, today = t.Total, t.Today
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"total": total, "today": today})
	})

	apiMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "commit": version.Commit})
	})

	if estatProxy != nil {
		apiMux.Handle("/estat/proxy", estatProxy)
	}

	return apiMux
}
