package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/IvanBrykalov/freshcache/cache"
	"github.com/IvanBrykalov/freshcache/internal/logger"
	"github.com/IvanBrykalov/freshcache/policy"
)

func newTestServer(t *testing.T) (cache.Cache[string], http.Handler) {
	t.Helper()
	c := cache.New[string](cache.Options[string]{
		Policies: policy.Default(),
		Logger:   logger.Discard(),
	})
	t.Cleanup(func() { _ = c.Close() })
	return c, NewRouter(NewHandler(c, logger.Discard()))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestStats(t *testing.T) {
	c, h := newTestServer(t)
	c.SmartSet("fuel:tx", "3.41", policy.FuelPrices)
	c.SmartSet("fuel:ca", "4.90", policy.FuelPrices)

	rr := do(t, h, http.MethodGet, "/cache/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var st cache.Stats
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.TotalKeys != 2 || st.FreshKeys != 2 || st.ByCategory[policy.FuelPrices].Count != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestInvalidate(t *testing.T) {
	c, h := newTestServer(t)
	c.SmartSet("fuel:tx", "3.41", policy.FuelPrices)
	c.SmartSet("fuel:ca", "4.90", policy.FuelPrices)
	c.SmartSet("erg:1203", "guide 128", policy.HazmatERG)

	rr := do(t, h, http.MethodPost, "/cache/invalidate/pattern/tx", "")
	var out map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	if rr.Code != http.StatusOK || out["removed"] != float64(1) {
		t.Fatalf("pattern: code=%d body=%s", rr.Code, rr.Body)
	}

	rr = do(t, h, http.MethodPost, "/cache/invalidate/category/"+policy.HazmatERG, "")
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	if out["removed"] != float64(1) {
		t.Fatalf("category: body=%s", rr.Body)
	}

	rr = do(t, h, http.MethodPost, "/cache/clear", "")
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	if out["removed"] != float64(1) || c.Len() != 0 {
		t.Fatalf("clear: body=%s len=%d", rr.Body, c.Len())
	}

}

func TestRouter_WrongMethod(t *testing.T) {
	_, h := newTestServer(t)
	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/cache/clear"},
		{http.MethodGet, "/cache/invalidate/pattern/fuel"},
		{http.MethodGet, "/cache/refresh/" + policy.FuelPrices},
		{http.MethodPost, "/cache/stats"},
		{http.MethodDelete, "/cache/enabled"},
	}
	for _, tt := range tests {
		if rr := do(t, h, tt.method, tt.path, ""); rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tt.method, tt.path, rr.Code)
		}
	}
	if rr := do(t, h, http.MethodGet, "/cache/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path: expected 404, got %d", rr.Code)
	}
}

func TestRefresh(t *testing.T) {
	c, h := newTestServer(t)
	c.RegisterCallback(policy.FuelPrices, func(context.Context) error {
		c.SmartSet("fuel:national", "3.60", policy.FuelPrices)
		return nil
	})
	c.RegisterCallback(policy.MarketRates, func(context.Context) error {
		return errors.New("rate feed down")
	})

	if rr := do(t, h, http.MethodPost, "/cache/refresh/"+policy.FuelPrices, ""); rr.Code != http.StatusOK {
		t.Fatalf("refresh ok: expected 200, got %d", rr.Code)
	}
	if _, ok := c.Get("fuel:national"); !ok {
		t.Fatal("refresh did not repopulate")
	}
	if rr := do(t, h, http.MethodPost, "/cache/refresh/"+policy.MarketRates, ""); rr.Code != http.StatusBadGateway {
		t.Fatalf("refresh failed: expected 502, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/cache/refresh/NOPE", ""); rr.Code != http.StatusBadGateway {
		t.Fatalf("refresh unregistered: expected 502, got %d", rr.Code)
	}

	rr := do(t, h, http.MethodPost, "/cache/refresh", "")
	var out struct {
		Results map[string]bool `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Results[policy.FuelPrices] || out.Results[policy.MarketRates] || len(out.Results) != 2 {
		t.Fatalf("unexpected results: %+v", out.Results)
	}
}

func TestEnabled(t *testing.T) {
	c, h := newTestServer(t)

	if rr := do(t, h, http.MethodPut, "/cache/enabled", `{"enabled": false}`); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if c.Enabled() {
		t.Fatal("cache still enabled")
	}
	c.SmartSet("k", "v", policy.FuelPrices)
	if _, ok := c.SmartGet("k", policy.FuelPrices); ok {
		t.Fatal("disabled cache served a read")
	}

	if rr := do(t, h, http.MethodPut, "/cache/enabled", `{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing field: expected 400, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPut, "/cache/enabled", `not json`); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad body: expected 400, got %d", rr.Code)
	}

	do(t, h, http.MethodPut, "/cache/enabled", `{"enabled": true}`)
	rr := do(t, h, http.MethodGet, "/cache/enabled", "")
	if !strings.Contains(rr.Body.String(), `"enabled":true`) {
		t.Fatalf("unexpected body: %s", rr.Body)
	}
}
