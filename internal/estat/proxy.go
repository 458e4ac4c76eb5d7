// 包 estat：政府统计 e-Stat API 的透传代理
// 背景：前端不能持有 appId，由服务端在转发时附加；仅允许 /rest/ 路径
package estat

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ikemen-api/internal/logger"
	"ikemen-api/internal/metrics"
)

const upstreamHost = "https://api.e-stat.go.jp"

// Proxy：透传处理器；appId 缺失时统一返回 503
type Proxy struct {
	appID string
	host  string
	hc    *http.Client
}

func New(appID string, hc *http.Client) *Proxy {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Proxy{appID: appID, host: upstreamHost, hc: hc}
}

// parseParamsList：解析 "k:v,k2:v2" 形式的参数串
// 约束：空段与缺冒号段跳过；不报错，尽力解析
func parseParamsList(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		i := strings.Index(pair, ":")
		if i <= 0 {
			continue
		}
		k := strings.TrimSpace(pair[:i])
		v := strings.TrimSpace(pair[i+1:])
		if k != "" {
			out[k] = v
		}
	}
	return out
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, `{"error":"Method Not Allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	if p.appID == "" {
		http.Error(w, `{"error":"ESTAT_APP_ID is not set"}`, http.StatusServiceUnavailable)
		return
	}
	path := r.URL.Query().Get("path")
	if !strings.HasPrefix(path, "/rest/") {
		http.Error(w, `{"error":"Invalid path. Must start with /rest/..."}`, http.StatusBadRequest)
		return
	}

	// 参数合并：params 清单 < 余下查询参数 < 服务端 appId
	final := parseParamsList(r.URL.Query().Get("params"))
	for k, vs := range r.URL.Query() {
		if k == "path" || k == "params" {
			continue
		}
		if len(vs) > 0 {
			final[k] = vs[0]
		}
	}
	final["appId"] = p.appID

	u, err := url.Parse(p.host + path)
	if err != nil {
		http.Error(w, `{"error":"bad path"}`, http.StatusBadRequest)
		return
	}
	qs := u.Query()
	for k, v := range final {
		qs.Set(k, v)
	}
	u.RawQuery = qs.Encode()

	metrics.EstatRequestsTotal.Inc()
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		metrics.EstatFailTotal.Inc()
		http.Error(w, `{"error":"Failed to reach e-Stat"}`, http.StatusBadGateway)
		return
	}
	resp, err := p.hc.Do(req)
	if err != nil {
		metrics.EstatFailTotal.Inc()
		logger.L().Error("estat_upstream_error", "err", err)
		http.Error(w, `{"error":"Failed to reach e-Stat"}`, http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.EstatFailTotal.Inc()
		http.Error(w, `{"error":"Failed to reach e-Stat"}`, http.StatusBadGateway)
		return
	}

	ct := resp.Header.Get("content-type")
	w.Header().Set("x-upstream-status", strconv.Itoa(resp.StatusCode))
	w.Header().Set("cache-control", "no-store")
	trimmed := strings.TrimSpace(string(body))
	if strings.Contains(ct, "json") || strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		w.Header().Set("content-type", "application/json; charset=utf-8")
	} else if ct != "" {
		w.Header().Set("content-type", ct)
	} else {
		w.Header().Set("content-type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}
