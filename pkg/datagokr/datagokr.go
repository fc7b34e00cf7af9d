// Package datagokr holds the response envelope and request conventions
// shared by the public data portal (apis.data.go.kr) XML services.
package datagokr

import (
	"context"
	"net/url"
	"strings"
)

// SuccessCode is the resultCode of a successful call.
const SuccessCode = "00"

// Getter issues a GET and returns the response body. *fetcher.Client
// implements it.
type Getter interface {
	Get(ctx context.Context, rawURL string, query url.Values) ([]byte, error)
}

// Header is the status portion of a response. Service-level results arrive
// under <header>; gateway rejections (bad key, quota exceeded) arrive as an
// <OpenAPI_ServiceResponse> with a <cmmMsgHeader> instead.
type Header struct {
	ResultCode  string `xml:"header>resultCode"`
	ResultMsg   string `xml:"header>resultMsg"`
	GatewayErr  string `xml:"cmmMsgHeader>errMsg"`
	GatewayMsg  string `xml:"cmmMsgHeader>returnAuthMsg"`
	GatewayCode string `xml:"cmmMsgHeader>returnReasonCode"`
}

// Result returns the effective result code and message.
func (h Header) Result() (code, msg string) {
	if h.GatewayCode != "" {
		msg = strings.TrimSpace(h.GatewayMsg)
		if msg == "" {
			msg = strings.TrimSpace(h.GatewayErr)
		}
		return strings.TrimSpace(h.GatewayCode), msg
	}
	return strings.TrimSpace(h.ResultCode), strings.TrimSpace(h.ResultMsg)
}

// Query starts a query with the service key. Portal keys are issued in both
// raw and percent-encoded form; an encoded key is decoded so it is not
// encoded twice.
func Query(serviceKey string) url.Values {
	key := serviceKey
	if strings.Contains(key, "%") {
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
	}
	return url.Values{"serviceKey": {key}}
}
