package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/zap"

	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/track"
)

// WalletHandler serves read-only wallet state as JSON.
type WalletHandler struct {
	wallet WalletAPI
	logger *zap.Logger
}

// NewWalletHandler returns a WalletHandler instance.
func NewWalletHandler(wallet WalletAPI, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{wallet: wallet, logger: logger}
}

// Register mounts the handler routes on mux.
func (h *WalletHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/balance", h.Balance)
	mux.HandleFunc("GET /v1/transactions", h.Transactions)
	mux.HandleFunc("GET /v1/transactions/{txid}", h.Transaction)
	mux.HandleFunc("GET /v1/tip", h.Tip)
}

type balanceResponse struct {
	Spendable int64 `json:"spendable"`
	Pending   int64 `json:"pending"`
	Immature  int64 `json:"immature"`
	Total     int64 `json:"total"`
}

// Balance reports the current balance breakdown.
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance := h.wallet.Balance()
	h.writeJSON(w, http.StatusOK, balanceResponse{
		Spendable: int64(balance.Spendable),
		Pending:   int64(balance.Pending),
		Immature:  int64(balance.Immature),
		Total:     int64(balance.Total()),
	})
}

type transactionSummaryResponse struct {
	TxID          string `json:"txid"`
	Amount        int64  `json:"amount"`
	Fee           *int64 `json:"fee,omitempty"`
	Confirmations int64  `json:"confirmations"`
	Status        string `json:"status"`
}

// Transactions lists every tracked transaction in observation order.
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	summaries := h.wallet.ListTransactions()
	resp := make([]transactionSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		item := transactionSummaryResponse{
			TxID:          s.TxID.String(),
			Amount:        int64(s.Amount),
			Confirmations: s.Confirmations,
			Status:        s.Status.String(),
		}
		if s.FeeKnown {
			fee := int64(s.Fee)
			item.Fee = &fee
		}
		resp = append(resp, item)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type transactionResponse struct {
	TxID          string `json:"txid"`
	Status        string `json:"status"`
	Confirmations int64  `json:"confirmations"`
	BlockHash     string `json:"block_hash,omitempty"`
	BlockHeight   uint64 `json:"block_height,omitempty"`
	Coinbase      bool   `json:"coinbase,omitempty"`
}

// Transaction reports the tracked state of a single transaction.
func (h *WalletHandler) Transaction(w http.ResponseWriter, r *http.Request) {
	txid, err := chainhash.NewHashFromStr(r.PathValue("txid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid txid")
		return
	}

	rec, err := h.wallet.Get(*txid)
	if err != nil {
		if errors.Is(err, track.ErrUnknownTransaction) {
			h.writeError(w, http.StatusNotFound, "transaction not tracked")
			return
		}
		h.logger.Error("get transaction", zap.String("txid", txid.String()), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	confirmations, err := h.wallet.Confirmations(*txid)
	if err != nil {
		h.logger.Error("confirmations", zap.String("txid", txid.String()), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := transactionResponse{
		TxID:          rec.TxID.String(),
		Status:        rec.Status.String(),
		Confirmations: confirmations,
		Coinbase:      rec.Coinbase,
	}
	if rec.Mined != nil {
		resp.BlockHash = rec.Mined.Hash.String()
		resp.BlockHeight = rec.Mined.Height
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type tipResponse struct {
	Hash   string `json:"hash,omitempty"`
	Height uint64 `json:"height"`
	Synced bool   `json:"synced"`
}

// Tip reports the tracker's view of the chain tip.
func (h *WalletHandler) Tip(w http.ResponseWriter, r *http.Request) {
	tip, ok := h.wallet.Tip()
	resp := tipResponse{Synced: ok}
	if ok {
		resp.Hash = tip.Hash.String()
		resp.Height = tip.Height
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *WalletHandler) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, errorResponse{Error: msg})
}

func (h *WalletHandler) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}
