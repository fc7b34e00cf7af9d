package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/parcel-risk/internal/analysis"
	"github.com/sells-group/parcel-risk/internal/model"
	"github.com/sells-group/parcel-risk/internal/store"
)

const maxRequestBytes = 64 << 10

type handler struct {
	svc     Analyses
	history History
}

type riskRequest struct {
	Address string `json:"address"`
}

type parcelRequest struct {
	PNU string `json:"pnu"`
}

type priceRequest struct {
	Address      string  `json:"address"`
	DealType     string  `json:"deal_type"`
	PropertyType string  `json:"property_type"`
	Price        int64   `json:"price"`
	Area         float64 `json:"area"`
}

func (p priceRequest) toAnalysis() (analysis.PriceRequest, error) {
	deal, err := model.ParseDealType(p.DealType)
	if err != nil {
		return analysis.PriceRequest{}, err
	}
	property, err := model.ParsePropertyType(p.PropertyType)
	if err != nil {
		return analysis.PriceRequest{}, err
	}
	return analysis.PriceRequest{
		Address:      p.Address,
		DealType:     deal,
		PropertyType: property,
		Price:        p.Price,
		AreaSqm:      p.Area,
	}, nil
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Transient bool   `json:"transient,omitempty"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Ping(r.Context()); err != nil {
		zap.L().Warn("api: health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) risk(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.svc.Risk(r.Context(), req.Address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) riskByParcel(w http.ResponseWriter, r *http.Request) {
	var req parcelRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.svc.RiskByParcel(r.Context(), strings.TrimSpace(req.PNU))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) price(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePrice(w, r)
	if !ok {
		return
	}
	result, err := h.svc.Price(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) report(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePrice(w, r)
	if !ok {
		return
	}
	result, err := h.svc.Report(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) riskHistory(w http.ResponseWriter, r *http.Request) {
	filter, ok := listFilter(w, r)
	if !ok {
		return
	}
	rows, err := h.history.ListRisk(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []model.RiskHistory{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handler) priceHistory(w http.ResponseWriter, r *http.Request) {
	filter, ok := listFilter(w, r)
	if !ok {
		return
	}
	rows, err := h.history.ListPrice(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []model.PriceHistory{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

func decodePrice(w http.ResponseWriter, r *http.Request) (analysis.PriceRequest, bool) {
	var body priceRequest
	if !decode(w, r, &body) {
		return analysis.PriceRequest{}, false
	}
	req, err := body.toAnalysis()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return analysis.PriceRequest{}, false
	}
	return req, true
}

func listFilter(w http.ResponseWriter, r *http.Request) (store.ListFilter, bool) {
	q := r.URL.Query()
	filter := store.ListFilter{Address: strings.TrimSpace(q.Get("address"))}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: name + " must be a non-negative integer"})
			return store.ListFilter{}, false
		}
		*dst = n
	}
	return filter, true
}

// writeError maps domain errors to status codes. Anything unrecognized is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		invalidAddr *model.InvalidAddressError
		badParcel   *model.ParcelIDLengthError
		notFound    *model.BuildingInfoNotFoundError
	)
	switch {
	case errors.As(err, &invalidAddr), errors.As(err, &badParcel), errors.Is(err, model.ErrInvalidDealInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusBadGateway, errorBody{
			Error:     "building registry lookup failed",
			Code:      notFound.Code,
			Transient: notFound.Transient,
		})
	default:
		zap.L().Error("api: request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}
