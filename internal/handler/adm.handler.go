package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
	"github.com/Silver7Surfer/adminbackend/internal/middleware"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/accounts"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/games"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/withdrawals"
	"github.com/Silver7Surfer/adminbackend/pkg/response"
	"github.com/Silver7Surfer/adminbackend/pkg/xerrors"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AdminHandler struct {
	accounts    *accounts.Service
	games       *games.Service
	withdrawals *withdrawals.Service
	logger      *zap.Logger
}

func NewAdminHandler(a *accounts.Service, g *games.Service, w *withdrawals.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		accounts:    a,
		games:       g,
		withdrawals: w,
		logger:      logger,
	}
}

// userIDParam reads and validates the route's userId. User ids are
// UUIDs; rejecting malformed ones here keeps garbage out of the
// repositories.
func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "userId")
	if uuid.Validate(id) != nil {
		response.Error(w, http.StatusBadRequest, "invalid user id")
		return "", false
	}
	return id, true
}

// --- users ---

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	users, err := h.accounts.ListUsers(r.Context(), admin)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	user, err := h.accounts.GetUser(r.Context(), admin, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	user, err := h.accounts.UpdateUser(r.Context(), admin, userID, domain.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if err := h.accounts.DeleteUser(r.Context(), admin, userID); err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// --- wallets ---

func (h *AdminHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	wallets, err := h.accounts.ListWallets(r.Context(), admin)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"wallets": wallets})
}

func (h *AdminHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	wallet, err := h.accounts.GetWallet(r.Context(), admin, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"wallet": wallet})
}

type updateBalanceRequest struct {
	TotalBalanceUSD decimal.Decimal `json:"totalBalanceUSD"`
}

func (h *AdminHandler) UpdateWalletBalance(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TotalBalanceUSD.IsNegative() {
		response.Error(w, http.StatusBadRequest, "balance cannot be negative")
		return
	}

	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	wallet, err := h.accounts.UpdateWalletBalance(r.Context(), admin, userID, req.TotalBalanceUSD)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"wallet": wallet})
}

// --- game profiles ---

func (h *AdminHandler) ListGameProfiles(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profiles, err := h.games.ListGameProfiles(r.Context(), admin)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles})
}

func (h *AdminHandler) GameStatistics(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.games.GameStatistics(r.Context(), admin)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"statistics": stats})
}

func (h *AdminHandler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	pending, err := h.games.PendingRequests(r.Context(), admin)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, pending)
}

type assignGameIDRequest struct {
	UserID       string  `json:"userId"`
	GameName     string  `json:"gameName"`
	GameID       string  `json:"gameId"`
	GamePassword *string `json:"gamePassword"`
}

func (h *AdminHandler) AssignGameID(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req assignGameIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.GameName == "" || req.GameID == "" {
		response.Error(w, http.StatusBadRequest, "userId, gameName and gameId are required")
		return
	}
	if uuid.Validate(req.UserID) != nil {
		response.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	profile, err := h.games.AssignGameID(r.Context(), admin, req.UserID, req.GameName, req.GameID, req.GamePassword)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "game id assigned",
		"profile": profile,
	})
}

type creditActionRequest struct {
	UserID   string `json:"userId"`
	GameName string `json:"gameName"`
}

func (r creditActionRequest) validate() error {
	if r.UserID == "" || r.GameName == "" {
		return xerrors.ErrInvalidInput
	}
	if uuid.Validate(r.UserID) != nil {
		return xerrors.ErrInvalidInput
	}
	return nil
}

func (h *AdminHandler) ApproveCredit(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req creditActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		response.Error(w, http.StatusBadRequest, "userId and gameName are required")
		return
	}

	profile, tx, err := h.games.ApproveCredit(r.Context(), admin, req.UserID, req.GameName)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message":     "credit approved",
		"profile":     profile,
		"transaction": tx,
	})
}

func (h *AdminHandler) DisapproveCredit(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req creditActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		response.Error(w, http.StatusBadRequest, "userId and gameName are required")
		return
	}

	profile, refunded, err := h.games.DisapproveCredit(r.Context(), admin, req.UserID, req.GameName)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message":        "credit disapproved",
		"profile":        profile,
		"refundedAmount": refunded,
	})
}

func (h *AdminHandler) ApproveRedeem(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req creditActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		response.Error(w, http.StatusBadRequest, "userId and gameName are required")
		return
	}

	profile, tx, err := h.games.ApproveRedeem(r.Context(), admin, req.UserID, req.GameName)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message":     "redeem approved",
		"profile":     profile,
		"transaction": tx,
	})
}

func (h *AdminHandler) DisapproveRedeem(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req creditActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		response.Error(w, http.StatusBadRequest, "userId and gameName are required")
		return
	}

	profile, err := h.games.DisapproveRedeem(r.Context(), admin, req.UserID, req.GameName)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "redeem disapproved",
		"profile": profile,
	})
}

// --- withdrawals ---

func (h *AdminHandler) PendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	pending, err := h.withdrawals.PendingWithdrawals(r.Context(), admin)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"pendingWithdrawals": pending})
}

type withdrawalActionRequest struct {
	UserID       string  `json:"userId"`
	WithdrawalID string  `json:"withdrawalId"`
	TxHash       *string `json:"txHash"`
}

func (h *AdminHandler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req withdrawalActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.WithdrawalID == "" {
		response.Error(w, http.StatusBadRequest, "userId and withdrawalId are required")
		return
	}
	if uuid.Validate(req.UserID) != nil {
		response.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.withdrawals.Approve(r.Context(), admin, req.UserID, req.WithdrawalID, req.TxHash); err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "withdrawal approved"})
}

func (h *AdminHandler) DisapproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req withdrawalActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.WithdrawalID == "" {
		response.Error(w, http.StatusBadRequest, "userId and withdrawalId are required")
		return
	}
	if uuid.Validate(req.UserID) != nil {
		response.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	refunded, err := h.withdrawals.Disapprove(r.Context(), admin, req.UserID, req.WithdrawalID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message":        "withdrawal disapproved",
		"refundedAmount": refunded,
	})
}

func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps domain errors onto HTTP statuses. An active-profile
// conflict carries the existing game id back so the operator can see
// what is already assigned.
func (h *AdminHandler) writeError(w http.ResponseWriter, err error) {
	var activeErr *xerrors.ProfileActiveError
	if errors.As(err, &activeErr) {
		response.ErrorWithData(w, http.StatusConflict, activeErr.Error(),
			map[string]string{"existingGameId": activeErr.ExistingGameID})
		return
	}

	switch {
	case errors.Is(err, xerrors.ErrInvalidInput), errors.Is(err, xerrors.ErrInvalidRequest),
		errors.Is(err, xerrors.ErrNoChanges):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, xerrors.ErrForbidden):
		response.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, xerrors.ErrUserNotFound), errors.Is(err, xerrors.ErrWalletNotFound),
		errors.Is(err, xerrors.ErrProfileNotFound), errors.Is(err, xerrors.ErrGameProfileNotFound),
		errors.Is(err, xerrors.ErrWithdrawalNotFound), errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, xerrors.ErrNoPendingCredit), errors.Is(err, xerrors.ErrNoPendingRedeem):
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
