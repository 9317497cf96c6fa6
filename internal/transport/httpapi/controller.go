package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/avolkov/stockpad/internal/converter/httpConverter"
	"github.com/avolkov/stockpad/internal/model"
	"github.com/avolkov/stockpad/internal/model/httpModel"
	"github.com/avolkov/stockpad/internal/service"
	"github.com/avolkov/stockpad/utils"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

//go:embed templates/index.html
var templatesFS embed.FS

type WatchlistService interface {
	AddTicker(ctx context.Context, symbol string) (model.Row, error)
	GetWatchlist(ctx context.Context, query model.WatchlistQuery) ([]model.Row, model.WatchlistSummary, error)
	RefreshAll(ctx context.Context) ([]model.Row, model.WatchlistSummary, error)
	EditField(ctx context.Context, ticker, field, raw string) error
	RemoveTicker(ctx context.Context, ticker string) error
	ExportCSV(ctx context.Context) ([]byte, error)
	ExportXLSX(ctx context.Context) ([]byte, error)
}

type Controller struct {
	watchlistService WatchlistService
	indexTemplate    *template.Template
}

func NewController(watchlistService WatchlistService) *Controller {
	return &Controller{
		watchlistService: watchlistService,
		indexTemplate:    template.Must(template.ParseFS(templatesFS, "templates/index.html")),
	}
}

func (ctrl *Controller) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ctrl.indexTemplate.Execute(w, nil); err != nil {
		rqID := utils.GetRequestIDFromCtx(r.Context())
		slog.Error("can't render index page", slog.String("rqID", rqID), slog.String("err", err.Error()))
	}
}

func (ctrl *Controller) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	query, err := parseWatchlistQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, httpModel.ErrorResponse{Error: "change bounds must be numbers"})
		return
	}

	rows, summary, err := ctrl.watchlistService.GetWatchlist(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, httpConverter.ConvertWatchlist(rows, summary))
}

// parseWatchlistQuery reads the filter and sort parameters of the list
// endpoint. Unknown sort keys and directions pass through here, the
// service rejects them.
func parseWatchlistQuery(r *http.Request) (model.WatchlistQuery, error) {
	qs := r.URL.Query()
	query := model.WatchlistQuery{
		TickerContains: qs.Get("ticker"),
		Industry:       qs.Get("industry"),
		Sentiment:      qs.Get("sentiment"),
		Direction:      model.Direction(qs.Get("direction")),
		SortKey:        qs.Get("sort"),
		SortDesc:       qs.Get("order") == "desc",
	}

	if raw := qs.Get("chg_min"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return model.WatchlistQuery{}, err
		}
		query.ChangeMin = &d
	}
	if raw := qs.Get("chg_max"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return model.WatchlistQuery{}, err
		}
		query.ChangeMax = &d
	}

	return query, nil
}

func (ctrl *Controller) AddTicker(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticker string `json:"ticker"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, httpModel.ErrorResponse{Error: "invalid request body"})
		return
	}

	row, err := ctrl.watchlistService.AddTicker(r.Context(), req.Ticker)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, httpConverter.ConvertRow(row))
}

func (ctrl *Controller) EditField(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, httpModel.ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := ctrl.watchlistService.EditField(r.Context(), ticker, req.Field, req.Value); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (ctrl *Controller) RemoveTicker(w http.ResponseWriter, r *http.Request) {
	if err := ctrl.watchlistService.RemoveTicker(r.Context(), mux.Vars(r)["ticker"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ctrl *Controller) RefreshAll(w http.ResponseWriter, r *http.Request) {
	rows, summary, err := ctrl.watchlistService.RefreshAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, httpConverter.ConvertWatchlist(rows, summary))
}

func (ctrl *Controller) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var (
		fileBytes   []byte
		err         error
		contentType string
		ext         string
	)

	switch format {
	case "csv":
		fileBytes, err = ctrl.watchlistService.ExportCSV(r.Context())
		contentType = "text/csv"
		ext = ".csv"
	case "xlsx":
		fileBytes, err = ctrl.watchlistService.ExportXLSX(r.Context())
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		ext = ".xlsx"
	default:
		writeJSON(w, http.StatusBadRequest, httpModel.ErrorResponse{Error: "unknown export format"})
		return
	}

	if err != nil {
		writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("stockpad_%s%s", time.Now().Format("20060102_1504"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(fileBytes)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	rqID := utils.GetRequestIDFromCtx(r.Context())

	switch {
	case errors.Is(err, service.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, httpModel.ErrorResponse{Error: "ticker is already on your watchlist"})
	case errors.Is(err, service.ErrInvalidTicker):
		writeJSON(w, http.StatusBadRequest, httpModel.ErrorResponse{Error: "ticker must be 1-12 characters: A-Z, digits, dot or dash"})
	case errors.Is(err, service.ErrInvalidField):
		writeJSON(w, http.StatusBadRequest, httpModel.ErrorResponse{Error: "field value rejected"})
	case errors.Is(err, service.ErrInvalidQuery):
		writeJSON(w, http.StatusBadRequest, httpModel.ErrorResponse{Error: "unknown sort or filter parameter"})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, httpModel.ErrorResponse{Error: "ticker not found"})
	case errors.Is(err, service.ErrQuoteUnavailable):
		writeJSON(w, http.StatusBadGateway, httpModel.ErrorResponse{Error: "quote provider unavailable, try again"})
	case errors.Is(err, service.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, httpModel.ErrorResponse{Error: "storage unavailable, try again"})
	default:
		slog.Error("unhandled error in http controller", slog.String("rqID", rqID), slog.String("err", err.Error()))
		writeJSON(w, http.StatusInternalServerError, httpModel.ErrorResponse{Error: "internal error"})
	}
}
