package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/balance"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/chain"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/orchestrator"
)

const maxRequestBytes = 1 << 20

// Handler serves the scanner REST API.
type Handler struct {
	scans   ScanService
	heights HeightSource
	balance BalanceChecker
	keys    KeyReader
	logger  *zap.Logger
}

// NewHandler builds the API handler. balance and keys may be nil when
// the corresponding backends are not configured.
func NewHandler(scans ScanService, heights HeightSource, balance BalanceChecker, keys KeyReader, logger *zap.Logger) *Handler {
	return &Handler{
		scans:   scans,
		heights: heights,
		balance: balance,
		keys:    keys,
		logger:  logger,
	}
}

// Router returns the route table for the API.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/scan/start", h.startScan)
	mux.HandleFunc("GET /api/scan/progress/{id}", h.scanProgress)
	mux.HandleFunc("GET /api/scan/results/{id}", h.scanResults)
	mux.HandleFunc("POST /api/scan/stop/{id}", h.stopScan)
	mux.HandleFunc("GET /api/scan/list", h.listScans)
	mux.HandleFunc("GET /api/scan/export/{id}", h.exportScan)
	mux.HandleFunc("GET /api/blockchain/current-height", h.currentHeight)
	mux.HandleFunc("POST /api/balance/check", h.checkBalance)
	mux.HandleFunc("GET /api/performance/config", h.performanceConfig)
	mux.HandleFunc("POST /api/performance/config", h.updatePerformanceConfig)
	mux.HandleFunc("GET /health", h.health)
	return mux
}

type startScanRequest struct {
	StartBlock   uint64   `json:"start_block"`
	EndBlock     uint64   `json:"end_block"`
	AddressTypes []string `json:"address_types"`
}

func (h *Handler) startScan(w http.ResponseWriter, r *http.Request) {
	var req startScanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	types := make([]model.AddressType, 0, len(req.AddressTypes))
	for _, raw := range req.AddressTypes {
		at, ok := model.ParseAddressType(raw)
		if !ok {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown address type %q", raw))
			return
		}
		types = append(types, at)
	}

	job, err := h.scans.StartScan(req.StartBlock, req.EndBlock, types)
	if err != nil {
		if errors.Is(err, orchestrator.ErrInvalidRange) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.internalError(w, "start scan", err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, job)
}

func (h *Handler) scanProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.scans.Progress(r.PathValue("id"))
	if err != nil {
		h.scanError(w, "scan progress", err)
		return
	}
	h.writeJSON(w, http.StatusOK, progress)
}

type scanResultsResponse struct {
	ScanID string                `json:"scan_id"`
	Keys   []*model.RecoveredKey `json:"keys"`
}

func (h *Handler) scanResults(w http.ResponseWriter, r *http.Request) {
	scanID := r.PathValue("id")
	keys, err := h.scans.Results(scanID)
	if err != nil {
		h.scanError(w, "scan results", err)
		return
	}
	if keys == nil {
		keys = []*model.RecoveredKey{}
	}
	h.writeJSON(w, http.StatusOK, scanResultsResponse{ScanID: scanID, Keys: keys})
}

func (h *Handler) stopScan(w http.ResponseWriter, r *http.Request) {
	scanID := r.PathValue("id")
	if err := h.scans.StopScan(r.Context(), scanID); err != nil {
		h.scanError(w, "stop scan", err)
		return
	}
	progress, err := h.scans.Progress(scanID)
	if err != nil {
		h.scanError(w, "stop scan progress", err)
		return
	}
	h.writeJSON(w, http.StatusOK, progress)
}

type listScansResponse struct {
	Scans []model.ScanProgress `json:"scans"`
}

func (h *Handler) listScans(w http.ResponseWriter, _ *http.Request) {
	scans := h.scans.List()
	if scans == nil {
		scans = []model.ScanProgress{}
	}
	h.writeJSON(w, http.StatusOK, listScansResponse{Scans: scans})
}

type exportResponse struct {
	Scan model.ScanJob        `json:"scan"`
	Keys []model.RecoveredKey `json:"keys"`
}

// exportScan renders a finished scan as a downloadable JSON document.
// Scans the orchestrator no longer knows about are looked up in the
// persistent store when one is configured.
func (h *Handler) exportScan(w http.ResponseWriter, r *http.Request) {
	scanID := r.PathValue("id")

	job, err := h.scans.Job(scanID)
	switch {
	case err == nil:
		results, resErr := h.scans.Results(scanID)
		if resErr != nil {
			h.scanError(w, "export scan", resErr)
			return
		}
		keys := make([]model.RecoveredKey, 0, len(results))
		for _, key := range results {
			keys = append(keys, *key)
		}
		h.writeExport(w, scanID, exportResponse{Scan: job, Keys: keys})

	case errors.Is(err, orchestrator.ErrScanNotFound) && h.keys != nil:
		keys, readErr := h.keys.RecoveredKeysByScan(r.Context(), scanID)
		if readErr != nil {
			h.internalError(w, "export scan from store", readErr)
			return
		}
		if len(keys) == 0 {
			h.writeError(w, http.StatusNotFound, fmt.Sprintf("scan %s not found", scanID))
			return
		}
		h.writeExport(w, scanID, exportResponse{Scan: model.ScanJob{ID: scanID}, Keys: keys})

	default:
		h.scanError(w, "export scan", err)
	}
}

func (h *Handler) writeExport(w http.ResponseWriter, scanID string, resp exportResponse) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=scan-%s.json", scanID))
	h.writeJSON(w, http.StatusOK, resp)
}

type currentHeightResponse struct {
	Height uint64 `json:"height"`
}

func (h *Handler) currentHeight(w http.ResponseWriter, r *http.Request) {
	height, err := h.heights.CurrentHeight(r.Context())
	if err != nil {
		h.upstreamError(w, "current height", err)
		return
	}
	h.writeJSON(w, http.StatusOK, currentHeightResponse{Height: height})
}

const maxBalanceAddresses = 50

type balanceRequest struct {
	Address   string   `json:"address,omitempty"`
	Addresses []string `json:"addresses,omitempty"`
}

type balanceResult struct {
	Address string                  `json:"address"`
	Balance *balance.AddressBalance `json:"balance,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

type balanceResponse struct {
	Balances []balanceResult `json:"balances"`
}

// checkBalance accepts a single address or a list and reports each one
// independently, so one bad address does not fail the batch. Upstream
// outages still fail the request as a whole.
func (h *Handler) checkBalance(w http.ResponseWriter, r *http.Request) {
	if h.balance == nil {
		h.writeError(w, http.StatusNotImplemented, "balance checking is not configured")
		return
	}

	var req balanceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	addresses := req.Addresses
	if req.Address != "" {
		addresses = append([]string{req.Address}, addresses...)
	}
	if len(addresses) == 0 {
		h.writeError(w, http.StatusBadRequest, "address is required")
		return
	}
	if len(addresses) > maxBalanceAddresses {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d addresses per request", maxBalanceAddresses))
		return
	}

	results := make([]balanceResult, 0, len(addresses))
	for _, addr := range addresses {
		got, err := h.balance.Check(r.Context(), addr)
		switch {
		case err == nil:
			results = append(results, balanceResult{Address: addr, Balance: &got})
		case errors.Is(err, chain.ErrSourceThrottled), errors.Is(err, chain.ErrSourceUnavailable):
			h.upstreamError(w, "check balance", err)
			return
		default:
			results = append(results, balanceResult{Address: addr, Error: err.Error()})
		}
	}
	h.writeJSON(w, http.StatusOK, balanceResponse{Balances: results})
}

type performanceConfig struct {
	BlockWorkers   int    `json:"block_workers"`
	TxWorkers      int    `json:"tx_workers"`
	MaxRangeBlocks uint64 `json:"max_range_blocks"`
}

func (h *Handler) performanceConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := h.scans.Config()
	h.writeJSON(w, http.StatusOK, performanceConfig{
		BlockWorkers:   cfg.BlockWorkers,
		TxWorkers:      cfg.TxWorkers,
		MaxRangeBlocks: cfg.MaxRangeBlocks,
	})
}

// updatePerformanceConfig tunes worker counts and the range limit at
// runtime; omitted or zero fields keep their current value.
func (h *Handler) updatePerformanceConfig(w http.ResponseWriter, r *http.Request) {
	var req performanceConfig
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.BlockWorkers < 0 || req.TxWorkers < 0 {
		h.writeError(w, http.StatusBadRequest, "worker counts must not be negative")
		return
	}

	applied := h.scans.UpdateConfig(req.BlockWorkers, req.TxWorkers, req.MaxRangeBlocks)
	h.writeJSON(w, http.StatusOK, performanceConfig{
		BlockWorkers:   applied.BlockWorkers,
		TxWorkers:      applied.TxWorkers,
		MaxRangeBlocks: applied.MaxRangeBlocks,
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) scanError(w http.ResponseWriter, operation string, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrScanNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orchestrator.ErrScanRunning):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.internalError(w, operation, err)
	}
}

func (h *Handler) upstreamError(w http.ResponseWriter, operation string, err error) {
	h.logger.Warn("upstream failure", zap.String("operation", operation), zap.Error(err))
	h.writeError(w, http.StatusBadGateway, err.Error())
}

func (h *Handler) internalError(w http.ResponseWriter, operation string, err error) {
	h.logger.Error("request failed", zap.String("operation", operation), zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, "internal error")
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
