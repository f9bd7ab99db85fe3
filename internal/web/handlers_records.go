package web

// handlers_records.go holds the CRUD handlers for the manually managed
// collections: agents, shops, inventory, and the two transaction kinds.
// Reads go straight to the store; mutations pass through the service so
// they are audited. On PUT the URL parameter identifies the record; a
// key carried in the body is ignored.

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
	"github.com/belisarialeskovac-maker/opsdash/internal/importer/targets"
	"github.com/belisarialeskovac-maker/opsdash/internal/store"
)

// agentRequest is the JSON body for creating or updating an agent.
type agentRequest struct {
	Name   string `json:"name" validate:"required"`
	Phone  string `json:"phone"`
	Status string `json:"status" validate:"omitempty,oneof=Active Inactive"`
}

// shopRequest is the JSON body for creating or updating a shop. An
// empty status defaults to the first entry of ShopStatuses.
type shopRequest struct {
	ShopID           string `json:"shopId" validate:"required"`
	ClientName       string `json:"clientName" validate:"required"`
	Agent            string `json:"agent" validate:"required"`
	KYCCompletedDate string `json:"kycCompletedDate" validate:"required,datetime=2006-01-02"`
	Status           string `json:"status" validate:"omitempty,oneof=Active Inactive Pending"`
}

// inventoryRequest is the JSON body for creating or updating a device.
type inventoryRequest struct {
	IMEI            string `json:"imei" validate:"required"`
	Agent           string `json:"agent" validate:"required"`
	Model           string `json:"model" validate:"required"`
	Color           string `json:"color"`
	AppleIDUsername string `json:"appleIdUsername"`
	AppleIDPassword string `json:"appleIdPassword"`
	Remarks         string `json:"remarks"`
}

// transactionRequest is the JSON body for creating or updating a
// deposit or withdrawal.
type transactionRequest struct {
	ShopID  string  `json:"shopId" validate:"required"`
	Agent   string  `json:"agent" validate:"required"`
	Date    string  `json:"date" validate:"required,datetime=2006-01-02"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Payment string  `json:"payment" validate:"required,oneof='Cash' 'Bank Transfer' 'Cheque'"`
}

// --- Agents ---

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	opts := parseListOptions(r)
	agents, total, err := s.service.Store().ListAgents(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, newListResponse(agents, total, opts))
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	a, err := s.service.Store().GetAgent(r.Context(), name)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, a)
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := decodeValid(r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	err := s.service.CreateAgent(ctx, store.Agent{
		Name:   req.Name,
		Phone:  req.Phone,
		Status: req.Status,
	})
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}

	a, err := s.service.Store().GetAgent(r.Context(), req.Name)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, a)
}

func (s *Server) handleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req agentRequest
	if err := decodeValid(r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		req.Status = store.AgentStatuses[0]
	}

	ctx := WithRequestMetadata(r.Context(), r)
	err := s.service.UpdateAgent(ctx, store.Agent{
		Name:   name,
		Phone:  req.Phone,
		Status: req.Status,
	})
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}

	a, err := s.service.Store().GetAgent(r.Context(), name)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, a)
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.DeleteAgent(ctx, name); err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

// --- Shops ---

func (s *Server) handleListShops(w http.ResponseWriter, r *http.Request) {
	opts := parseListOptions(r)
	q := r.URL.Query()
	shops, total, err := s.service.Store().ListShops(r.Context(), opts, q.Get("status"), q.Get("agent"))
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, newListResponse(shops, total, opts))
}

func (s *Server) handleGetShop(w http.ResponseWriter, r *http.Request) {
	shopID := chi.URLParam(r, "shopID")
	sh, err := s.service.Store().GetShop(r.Context(), shopID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, sh)
}

func (s *Server) handleCreateShop(w http.ResponseWriter, r *http.Request) {
	var req shopRequest
	if err := decodeValid(r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	sh, err := req.toShop(req.ShopID)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.CreateShop(ctx, sh); err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}

	stored, err := s.service.Store().GetShop(r.Context(), sh.ShopID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, stored)
}

func (s *Server) handleUpdateShop(w http.ResponseWriter, r *http.Request) {
	shopID := chi.URLParam(r, "shopID")

	var req shopRequest
	if err := decodeValid(r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	sh, err := req.toShop(shopID)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.UpdateShop(ctx, sh); err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}

	stored, err := s.service.Store().GetShop(r.Context(), shopID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, stored)
}

func (s *Server) handleDeleteShop(w http.ResponseWriter, r *http.Request) {
	shopID := chi.URLParam(r, "shopID")

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.DeleteShop(ctx, shopID); err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

// toShop builds the store record, with the given ID taking precedence
// over the body's.
func (req shopRequest) toShop(shopID string) (store.Shop, error) {
	kyc, err := time.Parse(importer.DateOnly, req.KYCCompletedDate)
	if err != nil {
		return store.Shop{}, err
	}
	status := req.Status
	if status == "" {
		status = targets.ShopStatuses[0]
	}
	return store.Shop{
		ShopID:           shopID,
		ClientName:       req.ClientName,
		Agent:            req.Agent,
		KYCCompletedDate: kyc,
		Status:           status,
	}, nil
}

// --- Inventory ---

func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	opts := parseListOptions(r)
	items, total, err := s.service.Store().ListInventory(r.Context(), opts, r.URL.Query().Get("agent"))
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, newListResponse(items, total, opts))
}

func (s *Server) handleGetInventoryItem(w http.ResponseWriter, r *http.Request) {
	imei := targets.NormalizeIMEI(chi.URLParam(r, "imei"))
	it, err := s.service.Store().GetInventoryItem(r.Context(), imei)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, it)
}

func (s *Server) handleCreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := decodeValid(r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	it := req.toItem(targets.NormalizeIMEI(req.IMEI))

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.CreateInventoryItem(ctx, it); err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}

	stored, err := s.service.Store().GetInventoryItem(r.Context(), it.IMEI)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, stored)
}

func (s *Server) handleUpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	imei := targets.NormalizeIMEI(chi.URLParam(r, "imei"))

	var req inventoryRequest
	if err := decodeValid(r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	it := req.toItem(imei)

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.UpdateInventoryItem(ctx, it); err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}

	stored, err := s.service.Store().GetInventoryItem(r.Context(), imei)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, stored)
}

func (s *Server) handleDeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	imei := targets.NormalizeIMEI(chi.URLParam(r, "imei"))

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.DeleteInventoryItem(ctx, imei); err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (req inventoryRequest) toItem(imei string) store.InventoryItem {
	return store.InventoryItem{
		IMEI:            imei,
		Agent:           req.Agent,
		Model:           req.Model,
		Color:           req.Color,
		AppleIDUsername: req.AppleIDUsername,
		AppleIDPassword: req.AppleIDPassword,
		Remarks:         req.Remarks,
	}
}

// --- Transactions ---

func (s *Server) handleListTransactions(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := parseListOptions(r)
		q := r.URL.Query()
		txs, total, err := s.service.Store().ListTransactions(r.Context(), kind, opts,
			q.Get("shopId"), q.Get("agent"), q.Get("from"), q.Get("to"))
		if err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		writeJSON(w, newListResponse(txs, total, opts))
	}
}

func (s *Server) handleGetTransaction(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		tr, err := s.service.Store().GetTransaction(r.Context(), kind, id)
		if err != nil {
			s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
			return
		}
		writeJSON(w, tr)
	}
}

func (s *Server) handleCreateTransaction(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transactionRequest
		if err := decodeValid(r, &req); err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		tr, err := req.toTransaction("")
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}

		ctx := WithRequestMetadata(r.Context(), r)
		id, err := s.service.CreateTransaction(ctx, kind, tr)
		if err != nil {
			s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
			return
		}

		stored, err := s.service.Store().GetTransaction(r.Context(), kind, id)
		if err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		writeJSON(w, stored)
	}
}

func (s *Server) handleUpdateTransaction(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req transactionRequest
		if err := decodeValid(r, &req); err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		tr, err := req.toTransaction(id)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}

		ctx := WithRequestMetadata(r.Context(), r)
		if err := s.service.UpdateTransaction(ctx, kind, tr); err != nil {
			s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
			return
		}

		stored, err := s.service.Store().GetTransaction(r.Context(), kind, id)
		if err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		writeJSON(w, stored)
	}
}

func (s *Server) handleDeleteTransaction(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		ctx := WithRequestMetadata(r.Context(), r)
		if err := s.service.DeleteTransaction(ctx, kind, id); err != nil {
			s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
			return
		}
		writeJSON(w, map[string]string{"status": "deleted"})
	}
}

func (req transactionRequest) toTransaction(id string) (store.Transaction, error) {
	date, err := time.Parse(importer.DateOnly, req.Date)
	if err != nil {
		return store.Transaction{}, err
	}
	return store.Transaction{
		ID:      id,
		ShopID:  req.ShopID,
		Agent:   req.Agent,
		Date:    date,
		Amount:  req.Amount,
		Payment: req.Payment,
	}, nil
}

// --- Exports ---

func (s *Server) handleExportCollection(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequestMetadata(r.Context(), r)
		content, filename, err := s.service.ExportRecords(ctx, collection)
		if err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		serveCSV(w, content, filename)
	}
}
