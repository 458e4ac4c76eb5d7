// 包 wikidata：对 Wikidata 查询服务（WDQS）的受限访问：带超时、重试与退避
package wikidata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"ikemen-api/internal/logger"
	"ikemen-api/internal/metrics"
	"ikemen-api/internal/normalize"
)

const (
	defaultEndpoint = "https://query.wikidata.org/sparql"
	defaultTimeout  = 5 * time.Second
	defaultRetries  = 2
	defaultUA       = "ikemen-api/1.0 (contact: example@example.com)"
	backoffStep     = 300 * time.Millisecond
)

// Client：WDQS 客户端
// 背景：外部源不可控，所有失败（传输/状态码/解码）在这里吸收：
// 等待后重试，重试耗尽返回“不可用”哨兵而不是错误；上层把哨兵当未命中降级
// 约束：sleep 可注入，测试时替换为记录器避免真实等待
type Client struct {
	endpoint string
	hc       *http.Client
	retries  int
	ua       string
	limit    int
	sleep    func(time.Duration)
}

func New(endpoint string, hc *http.Client, retries int, ua string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	if retries < 0 {
		retries = 0
	}
	if ua == "" {
		ua = defaultUA
	}
	return &Client{endpoint: endpoint, hc: hc, retries: retries, ua: ua, limit: DefaultLimit, sleep: time.Sleep}
}

// NewFromEnv：按环境变量构造客户端（WDQS_ENDPOINT / WDQS_TIMEOUT_MS / WDQS_RETRIES / USER_AGENT）
func NewFromEnv() *Client {
	timeout := defaultTimeout
	if v := os.Getenv("WDQS_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Millisecond
		}
	}
	retries := defaultRetries
	if v := os.Getenv("WDQS_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			retries = n
		}
	}
	hc := &http.Client{Timeout: timeout}
	return New(os.Getenv("WDQS_ENDPOINT"), hc, retries, os.Getenv("USER_AGENT"))
}

// WithSleep：替换退避等待函数（测试用）
func (c *Client) WithSleep(f func(time.Duration)) *Client {
	c.sleep = f
	return c
}

// Query：执行一条 SPARQL
// 返回：成功返回 (rows, true)，rows 可为空；重试耗尽返回 (nil, false)
// 约束：不向上抛错；退避为线性增长（300ms × 第几次）
func (c *Client) Query(ctx context.Context, sparql string) ([]Row, bool) {
	for i := 0; i <= c.retries; i++ {
		if i > 0 {
			metrics.WDQSRetriesTotal.Inc()
			c.sleep(backoffStep * time.Duration(i))
		}
		rows, err := c.once(ctx, sparql)
		if err == nil {
			metrics.WDQSSuccessTotal.Inc()
			return rows, true
		}
		metrics.WDQSFailTotal.Inc()
		logger.L().Warn("wdqs_attempt_error", "attempt", i, "err", err)
	}
	metrics.WDQSUnavailableTotal.Inc()
	logger.L().Error("wdqs_unavailable", "retries", c.retries)
	return nil, false
}

// Search：按规范化请求取候选行
// 背景：空别名集合直接短路为空结果，避免向外部源发无意义请求
func (c *Client) Search(ctx context.Context, q normalize.Query) ([]Row, bool) {
	if len(q.Variants) == 0 {
		return []Row{}, true
	}
	return c.Query(ctx, BuildQuery(q, c.limit))
}

func (c *Client) once(ctx context.Context, sparql string) ([]Row, error) {
	u := c.endpoint + "?format=json&query=" + url.QueryEscape(sparql)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", c.ua)

	t0 := time.Now()
	metrics.WDQSRequestsTotal.Inc()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ms := float64(time.Since(t0).Milliseconds())
	metrics.WDQSDurationMs.Observe(ms)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New("wdqs status " + strconv.Itoa(resp.StatusCode))
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(env.Results.Bindings))
	for _, b := range env.Results.Bindings {
		rows = append(rows, b.toRow())
	}
	logger.L().Debug("wdqs_resp", "rows", len(rows), "duration_ms", ms)
	return rows, nil
}
