package realtrade

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/parcel-risk/internal/fetcher"
	"github.com/sells-group/parcel-risk/internal/model"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC) }

type recorded struct {
	path  string
	query url.Values
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.path = r.URL.Path
		rec.query = r.URL.Query()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	hc := fetcher.NewClient(fetcher.Options{Timeout: 2 * time.Second, RateLimit: 100})
	return NewClient(hc, "test-key", WithBaseURL(srv.URL+"/"), WithClock(fixedNow)), rec
}

const saleBody = `<?xml version="1.0" encoding="UTF-8"?>
<response>
  <header><resultCode>000</resultCode><resultMsg>OK</resultMsg></header>
  <body><items>
    <item><dealAmount>    82,500</dealAmount><excluUseAr>84.97</excluUseAr></item>
    <item><dealAmount>120,000</dealAmount><excluUseAr>114.8</excluUseAr></item>
    <item><dealAmount>-</dealAmount><excluUseAr>59.9</excluUseAr></item>
    <item><dealAmount>0</dealAmount><excluUseAr>59.9</excluUseAr></item>
    <item><dealAmount>50,000</dealAmount><excluUseAr></excluUseAr></item>
  </items></body>
</response>`

func TestFetch_ApartmentSale(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(saleBody))
	})

	got := c.Fetch(context.Background(), "1168010100", model.DealSale, model.PropertyApartment)
	require.NoError(t, got.Err)
	require.Len(t, got.Transactions, 2)

	assert.Equal(t, int64(825_000_000), got.Transactions[0].Price)
	assert.InDelta(t, 84.97, got.Transactions[0].AreaSqm, 1e-9)
	assert.Equal(t, model.DealSale, got.Transactions[0].DealType)
	assert.Equal(t, int64(1_200_000_000), got.Transactions[1].Price)

	assert.Equal(t, "/RTMSDataSvcAptTrade/getRTMSDataSvcAptTrade", rec.path)
	assert.Equal(t, "11680", rec.query.Get("LAWD_CD"))
	assert.Equal(t, "202603", rec.query.Get("DEAL_YMD"))
	assert.Equal(t, "10", rec.query.Get("numOfRows"))
	assert.Equal(t, "1", rec.query.Get("pageNo"))
	assert.Equal(t, "test-key", rec.query.Get("serviceKey"))
}

func TestFetch_LeaseUsesDeposit(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<response><header><resultCode>00</resultCode></header><body><items>
			<item><deposit>35,000</deposit><monthlyRent>0</monthlyRent><excluUseAr>59.5</excluUseAr></item>
		</items></body></response>`))
	})

	got := c.Fetch(context.Background(), "1168010100", model.DealLease, model.PropertyRowhouse)
	require.NoError(t, got.Err)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, int64(350_000_000), got.Transactions[0].Price)
	assert.Equal(t, model.DealLease, got.Transactions[0].DealType)
	assert.Equal(t, "/RTMSDataSvcRHRent/getRTMSDataSvcRHRent", rec.path)
}

func TestFetch_DetachedFallsBackToTotalFloorArea(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<response><header><resultCode>00</resultCode></header><body><items>
			<item><dealAmount>95,000</dealAmount><totalFloorAr>132.2</totalFloorAr></item>
		</items></body></response>`))
	})

	got := c.Fetch(context.Background(), "1168010100", model.DealSale, model.PropertyDetached)
	require.NoError(t, got.Err)
	require.Len(t, got.Transactions, 1)
	assert.InDelta(t, 132.2, got.Transactions[0].AreaSqm, 1e-9)
}

func TestFetch_BadExclusiveAreaSkipsRow(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<response><header><resultCode>00</resultCode></header><body><items>
			<item><dealAmount>95,000</dealAmount><excluUseAr>0</excluUseAr><totalFloorAr>132.2</totalFloorAr></item>
			<item><dealAmount>95,000</dealAmount><excluUseAr>abc</excluUseAr><totalFloorAr>132.2</totalFloorAr></item>
			<item><dealAmount>95,000</dealAmount><excluUseAr>-3</excluUseAr><totalFloorAr>132.2</totalFloorAr></item>
		</items></body></response>`))
	})

	got := c.Fetch(context.Background(), "1168010100", model.DealSale, model.PropertyDetached)
	require.NoError(t, got.Err)
	assert.Empty(t, got.Transactions)
}

func TestFetch_TimeoutDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(saleBody))
	}))
	t.Cleanup(srv.Close)
	hc := fetcher.NewClient(fetcher.Options{Timeout: 50 * time.Millisecond, RateLimit: 100})
	c := NewClient(hc, "test-key", WithBaseURL(srv.URL+"/"), WithClock(fixedNow))

	got := c.Fetch(context.Background(), "1168010100", model.DealSale, model.PropertyApartment)
	assert.Empty(t, got.Transactions)
	assert.True(t, got.Degraded())
	assert.NotContains(t, got.Err.Error(), "test-key")
}

func TestFetch_ServerErrorDegrades(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	got := c.Fetch(context.Background(), "1168010100", model.DealSale, model.PropertyApartment)
	assert.Empty(t, got.Transactions)
	assert.Error(t, got.Err)
	assert.True(t, got.Degraded())
}

func TestFetch_ResultCodeDegrades(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<response><header><resultCode>22</resultCode><resultMsg>LIMITED NUMBER OF SERVICE REQUESTS EXCEEDS ERROR.</resultMsg></header></response>`))
	})

	got := c.Fetch(context.Background(), "1168010100", model.DealSale, model.PropertyOfficetel)
	assert.Empty(t, got.Transactions)
	require.Error(t, got.Err)
	assert.Contains(t, got.Err.Error(), "22")
}

func TestFetch_MalformedDegrades(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not xml`))
	})

	got := c.Fetch(context.Background(), "1168010100", model.DealSale, model.PropertyApartment)
	assert.Empty(t, got.Transactions)
	assert.Error(t, got.Err)
}

func TestFetch_UnknownCombination(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
	})

	got := c.Fetch(context.Background(), "1168010100", model.DealSale, model.PropertyType("FACTORY"))
	assert.Empty(t, got.Transactions)
	assert.NoError(t, got.Err)
	assert.False(t, called)
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "/RTMSDataSvcOffiRent/getRTMSDataSvcOffiRent", Endpoint(model.DealMonthly, model.PropertyOfficetel))
	assert.Equal(t, "/RTMSDataSvcSHTrade/getRTMSDataSvcSHTrade", Endpoint(model.DealSale, model.PropertyDetached))
	assert.Equal(t, "", Endpoint(model.DealSale, model.PropertyType("LAND")))
}

func TestParseAmount(t *testing.T) {
	v, ok := parseAmount(" 1,234,000 ")
	assert.True(t, ok)
	assert.Equal(t, int64(1234000), v)

	_, ok = parseAmount("")
	assert.False(t, ok)
	_, ok = parseAmount("abc")
	assert.False(t, ok)
}
