package routes

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"coversdk/core/products"
	"coversdk/gateway/middleware"
	"coversdk/sdk/cover"
	"coversdk/sdk/pricing"
)

const regressionReserves = `{"tokenReserveA":"142858457219554100789497","tokenReserveB":"328817222320643252285179","baseReserve":"5000000000000000000000","budget":0}`

type stubQuotes struct {
	resp cover.Response
	err  error
	got  cover.Request
}

func (s *stubQuotes) Quote(_ context.Context, req cover.Request) (cover.Response, error) {
	s.got = req
	return s.resp, s.err
}

type stubCapacity struct {
	capacity *pricing.Capacity
	err      error
	period   uint32
}

func (s *stubCapacity) GetCapacity(_ context.Context, productID, period uint32) (*pricing.Capacity, error) {
	s.period = period
	if s.err != nil {
		return nil, s.err
	}
	out := *s.capacity
	out.ProductID = productID
	return &out, nil
}

func newTestRouter(t *testing.T, quotes *stubQuotes, capacity *stubCapacity) http.Handler {
	t.Helper()
	if quotes == nil {
		quotes = &stubQuotes{}
	}
	if capacity == nil {
		capacity = &stubCapacity{capacity: &pricing.Capacity{}}
	}
	router, err := New(Config{
		Quotes:   quotes,
		Capacity: capacity,
		Catalog:  products.MustDefault(),
	})
	require.NoError(t, err)
	return router
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func decode(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out), res.Body.String())
	return out
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	_, err = New(Config{Quotes: &stubQuotes{}, Capacity: &stubCapacity{}})
	require.Error(t, err)
}

func TestHealthzAndUnknownRoute(t *testing.T) {
	router := newTestRouter(t, nil, nil)
	res := do(t, router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "ok", res.Body.String())
	require.NotEmpty(t, res.Header().Get(middleware.HeaderRequestID))

	res = do(t, router, http.MethodGet, "/v1/unknown", "")
	require.Equal(t, http.StatusNotFound, res.Code)
	res = do(t, router, http.MethodGet, "/v1/quote", "")
	require.Equal(t, http.StatusMethodNotAllowed, res.Code)
}

func TestQuoteStatuses(t *testing.T) {
	success := cover.Response{Result: &cover.PurchaseInstruction{DisplayInfo: cover.DisplayInfo{PremiumInAsset: "42"}}}
	cases := map[string]struct {
		stub   stubQuotes
		status int
	}{
		"success":    {stubQuotes{resp: success}, http.StatusOK},
		"validation": {stubQuotes{resp: cover.Response{Error: &cover.Error{Message: "Invalid coverPeriod"}}}, http.StatusBadRequest},
		"upstream":   {stubQuotes{resp: cover.Response{Error: &cover.Error{Message: cover.SomethingWentWrong}}}, http.StatusBadGateway},
		"fault":      {stubQuotes{err: errors.New("division by zero")}, http.StatusInternalServerError},
	}
	body := `{"productId":1,"coverAmount":"100","coverPeriod":30,"coverAsset":0,"coverBuyerAddress":"0x586b9b2F8010b284A0197f392156f1A7Eb5e86e9","slippage":"0.01","ipfsCidOrContent":{"walletAddress":"0x1"}}`
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			stub := tc.stub
			res := do(t, newTestRouter(t, &stub, nil), http.MethodPost, "/v1/quote", body)
			require.Equal(t, tc.status, res.Code)
			require.Equal(t, int64(1), stub.got.ProductID)
			require.Equal(t, "0.01", stub.got.Slippage.String())
			require.False(t, stub.got.IPFSCidOrContent.IsZero())
			out := decode(t, res)
			if tc.status == http.StatusOK {
				require.Contains(t, out, "result")
			} else {
				require.Contains(t, out, "error")
			}
		})
	}
}

func errorMessage(t *testing.T, res *httptest.ResponseRecorder) string {
	t.Helper()
	var out cover.Response
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out), res.Body.String())
	require.Nil(t, out.Result)
	require.NotNil(t, out.Error, res.Body.String())
	return out.Error.Message
}

func TestQuoteRejectsMalformedBodies(t *testing.T) {
	router := newTestRouter(t, nil, nil)
	for _, body := range []string{"", "{", `{"bogus":1}`, `[1]`, `{} {}`} {
		res := do(t, router, http.MethodPost, "/v1/quote", body)
		require.Equal(t, http.StatusBadRequest, res.Code, body)
		require.NotEmpty(t, errorMessage(t, res), body)
	}
}

type idlePricing struct{}

func (idlePricing) GetQuote(context.Context, pricing.QuoteParams) (*pricing.QuoteResponse, error) {
	return nil, errors.New("unexpected quote call")
}

func (idlePricing) GetCapacity(context.Context, uint32, uint32) (*pricing.Capacity, error) {
	return nil, errors.New("unexpected capacity call")
}

func TestQuoteMistypedFieldsUseValidationMessages(t *testing.T) {
	orchestrator, err := cover.New(products.MustDefault(), idlePricing{}, nil)
	require.NoError(t, err)
	router, err := New(Config{Quotes: orchestrator, Capacity: &stubCapacity{}, Catalog: products.MustDefault()})
	require.NoError(t, err)

	const rest = `"coverPeriod":30,"coverAsset":0,"coverBuyerAddress":"0x586b9b2F8010b284A0197f392156f1A7Eb5e86e9"`
	cases := []struct{ body, want string }{
		{`{"productId":1.5,"coverAmount":"100",` + rest + `}`, "Invalid productId: must be a positive integer"},
		{`{"productId":"one","coverAmount":"100",` + rest + `}`, "Invalid productId: must be a positive integer"},
		{`{"productId":1,"coverAmount":100,` + rest + `}`, "Invalid coverAmount: must be a positive integer string"},
		{`{"productId":1,"coverAmount":"100","slippage":"abc",` + rest + `}`, "Invalid slippage: must be a number between 0 and 1"},
		{`{"productId":1.5,"coverAmount":100,"slippage":"abc",` + rest + `}`, "Invalid productId: must be a positive integer"},
	}
	for _, tc := range cases {
		res := do(t, router, http.MethodPost, "/v1/quote", tc.body)
		require.Equal(t, http.StatusBadRequest, res.Code, tc.body)
		msg := errorMessage(t, res)
		require.Equal(t, tc.want, msg, tc.body)
		require.NotContains(t, msg, "Go struct")
	}
}

func TestCapacity(t *testing.T) {
	capacity := &stubCapacity{capacity: &pricing.Capacity{
		AvailableCapacity: []pricing.AssetAmount{{AssetID: 0, Amount: pricing.NewAmount(big.NewInt(5000))}},
	}}
	router := newTestRouter(t, nil, capacity)

	res := do(t, router, http.MethodGet, "/v1/capacity/7", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, uint32(30), capacity.period)
	out := decode(t, res)
	require.EqualValues(t, 7, out["productId"])

	res = do(t, router, http.MethodGet, "/v1/capacity/7?period=90", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, uint32(90), capacity.period)

	require.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/v1/capacity/7?period=400", "").Code)
	require.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/v1/capacity/abc", "").Code)
	require.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/v1/capacity/9999", "").Code)
}

func TestCapacityUpstreamErrors(t *testing.T) {
	router := newTestRouter(t, nil, &stubCapacity{err: &pricing.APIError{Status: http.StatusBadRequest, Message: "Product not found"}})
	res := do(t, router, http.MethodGet, "/v1/capacity/1", "")
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Equal(t, "Product not found", decode(t, res)["error"])

	router = newTestRouter(t, nil, &stubCapacity{err: errors.New("connection refused")})
	res = do(t, router, http.MethodGet, "/v1/capacity/1", "")
	require.Equal(t, http.StatusBadGateway, res.Code)
	require.Equal(t, cover.SomethingWentWrong, decode(t, res)["error"])
}

func TestSwapDirections(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	res := do(t, router, http.MethodPost, "/v1/swap/exact-base-in", `{"amount":"1000000000000000000","reserves":`+regressionReserves+`}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.Equal(t, "28565978248261167925", decode(t, res)["result"])

	res = do(t, router, http.MethodPost, "/v1/swap/exact-token-in", `{"amount":1000000000000000000,"reserves":`+regressionReserves+`}`)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "15205969926825736", decode(t, res)["result"])

	res = do(t, router, http.MethodPost, "/v1/swap/exact-base-in", `{"amount":"0","reserves":`+regressionReserves+`}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Equal(t, "base in value must be greater than 0", decode(t, res)["error"])

	res = do(t, router, http.MethodPost, "/v1/swap/base-out", `{"amount":"-5","policy":"lenient","reserves":`+regressionReserves+`}`)
	require.Equal(t, http.StatusOK, res.Code)
	out := decode(t, res)
	require.Equal(t, "0", out["result"])
	require.Equal(t, "lenient", out["policy"])

	res = do(t, router, http.MethodPost, "/v1/swap/token-out", `{"amount":"1","policy":"fuzzy","reserves":`+regressionReserves+`}`)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = do(t, router, http.MethodPost, "/v1/swap/sideways", `{"amount":"1","reserves":`+regressionReserves+`}`)
	require.Equal(t, http.StatusNotFound, res.Code)

	res = do(t, router, http.MethodPost, "/v1/swap/exact-token-out", `{"amount":"1","reserves":{"tokenReserveA":"-1","tokenReserveB":"1","baseReserve":"1"}}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestSpotPriceAndImpact(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	res := do(t, router, http.MethodPost, "/v1/swap/spot-price", `{"reserves":`+regressionReserves+`}`)
	require.Equal(t, http.StatusOK, res.Code)
	out := decode(t, res)
	require.Equal(t, "34999677984171963", out["spotPriceA"])
	require.Equal(t, "15206016171270656", out["spotPriceB"])

	res = do(t, router, http.MethodPost, "/v1/swap/price-impact", `{"side":"a","amount":"1000000000000000000","reserves":`+regressionReserves+`}`)
	require.Equal(t, http.StatusOK, res.Code)
	out = decode(t, res)
	require.Equal(t, "200", out["impact"])
	require.EqualValues(t, 1_000_000, out["scale"])

	res = do(t, router, http.MethodPost, "/v1/swap/price-impact", `{"side":"B","amount":"1000000000000000000","reserves":`+regressionReserves+`}`)
	require.Equal(t, http.StatusOK, res.Code)
	out = decode(t, res)
	require.Equal(t, "1", out["impact"])
	require.EqualValues(t, 10_000, out["scale"])

	res = do(t, router, http.MethodPost, "/v1/swap/price-impact", `{"side":"C","amount":"1","reserves":`+regressionReserves+`}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestPremium(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	res := do(t, router, http.MethodPost, "/v1/premium", `{"premium":"1000000000000000000","annualPrice":250,"slippage":"0.01"}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	out := decode(t, res)
	require.Equal(t, "1188235294117647058", out["maxPremiumInAsset"])
	require.EqualValues(t, 1500, out["commissionRatio"])
	require.EqualValues(t, 100, out["slippageRatio"])
	require.Equal(t, "2.96", out["yearlyCostPerc"])

	res = do(t, router, http.MethodPost, "/v1/premium", `{"premium":"1000","productId":14}`)
	require.Equal(t, http.StatusOK, res.Code)
	out = decode(t, res)
	require.Equal(t, "1000", out["maxPremiumInAsset"])
	require.EqualValues(t, 0, out["commissionRatio"])

	require.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/v1/premium", `{"premium":"1","productId":9999}`).Code)
	require.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/v1/premium", `{"premium":"1","commissionRatio":10000}`).Code)
	require.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/v1/premium", `{"premium":"-1"}`).Code)
	require.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/v1/premium", `{"premium":"1","slippage":"2"}`).Code)
}

func TestRateLimitGroups(t *testing.T) {
	limiter := middleware.NewRateLimiter(map[string]middleware.RateLimit{
		"calc": {RatePerSecond: 0.001, Burst: 1},
	}, nil)
	router, err := New(Config{
		Quotes:      &stubQuotes{},
		Capacity:    &stubCapacity{capacity: &pricing.Capacity{}},
		Catalog:     products.MustDefault(),
		RateLimiter: limiter,
		RateGroups:  []RouteGroup{{Prefix: "/v1/swap", RateLimitKey: "calc"}},
	})
	require.NoError(t, err)

	body := `{"reserves":` + regressionReserves + `}`
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/v1/swap/spot-price", body).Code)
	require.Equal(t, http.StatusTooManyRequests, do(t, router, http.MethodPost, "/v1/swap/spot-price", body).Code)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/healthz", "").Code)
	require.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/v1/premium", `{}`).Code)
}

func TestProductRoutes(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	res := do(t, router, http.MethodGet, "/v1/products/7", "")
	require.Equal(t, http.StatusOK, res.Code)
	out := decode(t, res)
	require.Equal(t, "ETH Slashing", out["productTypeName"])
	require.Equal(t, "coverValidators", out["requiredContent"])
	require.Equal(t, "staking", out["category"])
	require.EqualValues(t, 1500, out["commission"].(map[string]any)["ratio"])

	res = do(t, router, http.MethodGet, "/v1/products/14", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.EqualValues(t, 0, decode(t, res)["commission"].(map[string]any)["ratio"])

	require.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/v1/products/9999", "").Code)
	require.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/v1/products/abc", "").Code)

	res = do(t, router, http.MethodGet, "/v1/product-types/0/products", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, decode(t, res)["products"], 4)

	res = do(t, router, http.MethodGet, "/v1/product-types/3/products", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Empty(t, decode(t, res)["products"], "private products stay unlisted")

	require.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/v1/product-types/99/products", "").Code)
}
