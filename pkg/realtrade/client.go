// Package realtrade queries the real-transaction price services (실거래가)
// for recent comparable deals in a municipality.
package realtrade

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-risk/internal/fetcher"
	"github.com/sells-group/parcel-risk/internal/model"
	"github.com/sells-group/parcel-risk/pkg/datagokr"
)

// DefaultBaseURL is the root under which the per-category services live.
const DefaultBaseURL = "https://apis.data.go.kr/1613000"

// maxRows is the number of comparables requested per lookup.
const maxRows = 10

// Amounts are reported in units of 10,000 won.
const wonPerUnit = 10000

type endpointKey struct {
	property model.PropertyType
	sale     bool
}

// endpoints maps a property category and sale/rent to a service path.
var endpoints = map[endpointKey]string{
	{model.PropertyApartment, true}:  "/RTMSDataSvcAptTrade/getRTMSDataSvcAptTrade",
	{model.PropertyApartment, false}: "/RTMSDataSvcAptRent/getRTMSDataSvcAptRent",
	{model.PropertyRowhouse, true}:   "/RTMSDataSvcRHTrade/getRTMSDataSvcRHTrade",
	{model.PropertyRowhouse, false}:  "/RTMSDataSvcRHRent/getRTMSDataSvcRHRent",
	{model.PropertyDetached, true}:   "/RTMSDataSvcSHTrade/getRTMSDataSvcSHTrade",
	{model.PropertyDetached, false}:  "/RTMSDataSvcSHRent/getRTMSDataSvcSHRent",
	{model.PropertyOfficetel, true}:  "/RTMSDataSvcOffiTrade/getRTMSDataSvcOffiTrade",
	{model.PropertyOfficetel, false}: "/RTMSDataSvcOffiRent/getRTMSDataSvcOffiRent",
}

// Endpoint returns the service path for the combination, or "" when none
// exists.
func Endpoint(deal model.DealType, property model.PropertyType) string {
	return endpoints[endpointKey{property: property, sale: deal.IsSale()}]
}

// Client fetches comparable transactions.
type Client struct {
	http       datagokr.Getter
	serviceKey string
	baseURL    string
	now        func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the service root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithClock overrides the clock used to pick the deal month.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a transaction registry client.
func NewClient(http datagokr.Getter, serviceKey string, opts ...Option) *Client {
	c := &Client{
		http:       http,
		serviceKey: serviceKey,
		baseURL:    DefaultBaseURL,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type response struct {
	datagokr.Header
	Items []item `xml:"body>items>item"`
}

type item struct {
	DealAmount   string `xml:"dealAmount"`
	Deposit      string `xml:"deposit"`
	MonthlyRent  string `xml:"monthlyRent"`
	ExclusiveAr  string `xml:"excluUseAr"`
	TotalFloorAr string `xml:"totalFloorAr"`
}

// Fetch returns up to ten transactions of the current month in the
// municipality containing districtCode. It never fails: any error yields an
// empty list with Err set, and an unsupported deal/property combination
// yields an empty list with no error.
func (c *Client) Fetch(ctx context.Context, districtCode string, deal model.DealType, property model.PropertyType) model.Comparables {
	path := Endpoint(deal, property)
	if path == "" {
		zap.L().Debug("realtrade: no service for combination",
			zap.String("deal", string(deal)),
			zap.String("property", string(property)),
		)
		return model.Comparables{}
	}

	lawd := model.MunicipalPrefix(districtCode)
	month := c.now().Format("200601")
	log := zap.L().With(
		zap.String("lawd_cd", lawd),
		zap.String("deal_ymd", month),
		zap.String("service", path),
	)

	q := datagokr.Query(c.serviceKey)
	q.Set("LAWD_CD", lawd)
	q.Set("DEAL_YMD", month)
	q.Set("numOfRows", strconv.Itoa(maxRows))
	q.Set("pageNo", "1")

	body, err := c.http.Get(ctx, c.baseURL+path, q)
	if err != nil {
		log.Warn("realtrade: request failed", zap.Error(err))
		return model.Comparables{Err: eris.Wrap(err, "realtrade: request")}
	}

	var resp response
	if err := fetcher.DecodeXML(body, &resp); err != nil {
		log.Warn("realtrade: malformed response", zap.Error(err))
		return model.Comparables{Err: eris.Wrap(err, "realtrade: decode")}
	}

	if code, msg := resp.Result(); !isSuccess(code) {
		log.Warn("realtrade: api error", zap.String("code", code), zap.String("msg", msg))
		return model.Comparables{Err: eris.Errorf("realtrade: api error %s: %s", code, msg)}
	}

	txs := make([]model.ComparableTransaction, 0, len(resp.Items))
	for _, it := range resp.Items {
		tx, ok := toTransaction(it, deal)
		if !ok {
			continue
		}
		txs = append(txs, tx)
	}
	log.Debug("realtrade: fetched", zap.Int("items", len(resp.Items)), zap.Int("usable", len(txs)))
	return model.Comparables{Transactions: txs}
}

// isSuccess accepts the zero-padded "000" some of the newer trade services
// report alongside the portal-wide "00".
func isSuccess(code string) bool {
	return code == datagokr.SuccessCode || code == "000"
}

func toTransaction(it item, deal model.DealType) (model.ComparableTransaction, bool) {
	raw := it.Deposit
	if deal.IsSale() {
		raw = it.DealAmount
	}
	amount, ok := parseAmount(raw)
	if !ok || amount <= 0 {
		return model.ComparableTransaction{}, false
	}

	// Detached-house rows carry no exclusive area; only then is the total
	// floor area used.
	rawArea := it.ExclusiveAr
	if strings.TrimSpace(rawArea) == "" {
		rawArea = it.TotalFloorAr
	}
	area, ok := parseArea(rawArea)
	if !ok {
		return model.ComparableTransaction{}, false
	}

	return model.ComparableTransaction{
		Price:    amount * wonPerUnit,
		AreaSqm:  area,
		DealType: deal,
	}, true
}

// parseAmount parses "82,500"-style amounts.
func parseAmount(s string) (int64, bool) {
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseArea(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
