// Package buildingledger queries the national building register (건축물대장)
// title-information service for the facts used in risk scoring.
package buildingledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/parcel-risk/internal/fetcher"
	"github.com/sells-group/parcel-risk/internal/model"
	"github.com/sells-group/parcel-risk/internal/resilience"
	"github.com/sells-group/parcel-risk/pkg/datagokr"
)

// DefaultURL is the building register title-information endpoint.
const DefaultURL = "https://apis.data.go.kr/1613000/BldRgstHubService/getBrTitleInfo"

// seismicCodeYear is the first approval year under mandatory seismic design.
const seismicCodeYear = 1988

// Client fetches building facts for a parcel.
type Client struct {
	http       datagokr.Getter
	serviceKey string
	baseURL    string
	now        func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithClock overrides the clock used to compute building age.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a building register client.
func NewClient(http datagokr.Getter, serviceKey string, opts ...Option) *Client {
	c := &Client{
		http:       http,
		serviceKey: serviceKey,
		baseURL:    DefaultURL,
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
	ViolationYN    string `xml:"vlRatEstbYn"`
	UseApprovalDay string `xml:"useAprDay"`
	MainPurpose    string `xml:"mainPurpsCdNm"`
}

// Fetch looks up the building on the given lot. districtCode is the 10-digit
// legal district code; lot numbers may be given with or without padding.
// Every failure, including transport errors, is a
// *model.BuildingInfoNotFoundError.
func (c *Client) Fetch(ctx context.Context, districtCode, lotMain, lotSub string) (model.BuildingFacts, error) {
	if len(districtCode) != 10 {
		return model.BuildingFacts{}, &model.BuildingInfoNotFoundError{
			Message: fmt.Sprintf("district code must be 10 digits, got %q", districtCode),
		}
	}

	q := datagokr.Query(c.serviceKey)
	q.Set("sigunguCd", districtCode[:5])
	q.Set("bjdongCd", districtCode[5:])
	q.Set("bun", padLot(lotMain))
	q.Set("ji", padLot(lotSub))
	q.Set("numOfRows", "1")
	q.Set("pageNo", "1")

	log := zap.L().With(
		zap.String("sigungu", districtCode[:5]),
		zap.String("bjdong", districtCode[5:]),
		zap.String("bun", q.Get("bun")),
		zap.String("ji", q.Get("ji")),
	)

	body, err := c.http.Get(ctx, c.baseURL, q)
	if err != nil {
		log.Warn("buildingledger: request failed", zap.Error(err))
		return model.BuildingFacts{}, &model.BuildingInfoNotFoundError{
			Message:   "request failed",
			Transient: resilience.IsTransient(err),
			Err:       err,
		}
	}

	var resp response
	if err := fetcher.DecodeXML(body, &resp); err != nil {
		return model.BuildingFacts{}, &model.BuildingInfoNotFoundError{
			Message: "malformed response",
			Err:     err,
		}
	}

	code, msg := resp.Result()
	if code != datagokr.SuccessCode {
		log.Info("buildingledger: api error", zap.String("code", code), zap.String("msg", msg))
		return model.BuildingFacts{}, &model.BuildingInfoNotFoundError{Code: code, Message: msg}
	}
	if len(resp.Items) == 0 {
		return model.BuildingFacts{}, &model.BuildingInfoNotFoundError{Code: code, Message: "no building on lot"}
	}

	facts := c.toFacts(resp.Items[0])
	log.Debug("buildingledger: fetched",
		zap.Bool("violation", facts.IsViolation),
		zap.Int("age", facts.BuildingAgeYears),
		zap.String("use", facts.PrimaryUse),
	)
	return facts, nil
}

func (c *Client) toFacts(it item) model.BuildingFacts {
	facts := model.BuildingFacts{
		IsViolation: strings.EqualFold(strings.TrimSpace(it.ViolationYN), "Y"),
		PrimaryUse:  strings.TrimSpace(it.MainPurpose),
	}
	if year, ok := approvalYear(it.UseApprovalDay); ok {
		facts.HasSeismicDesign = year >= seismicCodeYear
		if age := c.now().Year() - year; age > 0 {
			facts.BuildingAgeYears = age
		}
	}
	return facts
}

// approvalYear reads the year from a YYYYMMDD approval date.
func approvalYear(day string) (int, bool) {
	day = strings.TrimSpace(day)
	if len(day) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(day[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// padLot zero-pads a lot number to four digits.
func padLot(lot string) string {
	lot = strings.TrimSpace(lot)
	if lot == "" {
		lot = "0"
	}
	if len(lot) >= 4 {
		return lot
	}
	return strings.Repeat("0", 4-len(lot)) + lot
}
