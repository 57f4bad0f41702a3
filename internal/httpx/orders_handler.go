package httpx

import (
	"errors"
	"github.com/ariefcatur/go-inventory-ledger/internal/ledger"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/ariefcatur/go-inventory-ledger/internal/redisx"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"net/http"
	"strings"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type OrdersHandler struct {
	Ledger *ledger.Ledger
	Cache  *redisx.OrderCache
	Idem   *redisx.Idempotency
	Log    *zap.Logger
}

type CustomerReq struct {
	Name         string `json:"name" validate:"max=255"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	AccountLast5 string `json:"account_last5" validate:"omitempty,len=5,numeric"`
	Shipping     string `json:"shipping" validate:"omitempty,max=64"`
}

type PlaceOrderReq struct {
	ProductID string      `json:"product_id" validate:"required"`
	Quantity  int         `json:"quantity" validate:"required,gt=0"`
	Status    string      `json:"status" validate:"omitempty,max=64"`
	Customer  CustomerReq `json:"customer"`
}

type ReviseQuantityReq struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type ChangeStatusReq struct {
	Status string `json:"status" validate:"required,max=64"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Post("/orders", h.placeOrder)
	r.Get("/orders/export.csv", h.exportOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Patch("/orders/{id}", h.updateOrder)
	r.Put("/orders/{id}/quantity", h.reviseQuantity)
	r.Put("/orders/{id}/status", h.changeStatus)
	r.Delete("/orders/{id}", h.cancelOrder)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	// Idempotency-Key: request ulang dengan key sama dapat order yang sama
	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	existing, owner, err := h.Idem.Reserve(ctx, key)
	switch {
	case errors.Is(err, redisx.ErrInFlight):
		writeJSON(w, http.StatusConflict, errorResp{Error: err.Error()})
		return
	case err != nil:
		h.Log.Warn("idempotency unavailable", zap.String("key", key), zap.Error(err))
		key = ""
	case !owner:
		o, err := h.Ledger.GetOrder(ctx, existing)
		if err != nil {
			writeError(w, h.Log, err)
			return
		}
		w.Header().Set("Idempotent-Replayed", "true")
		writeJSON(w, http.StatusOK, o)
		return
	}

	o, err := h.Ledger.PlaceOrder(ctx, orders.PlaceOrderInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Status:    orders.Status(req.Status),
		Customer: orders.Customer{
			Name:         req.Customer.Name,
			Phone:        req.Customer.Phone,
			AccountLast5: req.Customer.AccountLast5,
			Shipping:     req.Customer.Shipping,
		},
	})
	if err != nil {
		if rerr := h.Idem.Release(ctx, key); rerr != nil {
			h.Log.Warn("release idempotency key", zap.String("key", key), zap.Error(rerr))
		}
		writeError(w, h.Log, err)
		return
	}
	if err := h.Idem.Complete(ctx, key, o.ID); err != nil {
		h.Log.Warn("store idempotency key", zap.String("key", key), zap.Error(err))
	}
	h.cacheSet(r, o)
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := requestContext(r)
	defer cancel()

	// 1) coba cache
	if o, ok, err := h.Cache.Get(ctx, orderID); err != nil {
		h.Log.Warn("order cache get", zap.String("order_id", orderID), zap.Error(err))
	} else if ok {
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, o)
		return
	}

	// 2) fallback store
	o, err := h.Ledger.GetOrder(ctx, orderID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.cacheSet(r, o)
	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	f, s, err := parseListQuery(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	list, err := h.Ledger.ListOrders(ctx, f, s)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var patch orders.OrderPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	o, err := h.Ledger.UpdateOrder(ctx, chi.URLParam(r, "id"), patch)
	h.respondMutation(w, r, o, err)
}

func (h *OrdersHandler) reviseQuantity(w http.ResponseWriter, r *http.Request) {
	var req ReviseQuantityReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	o, err := h.Ledger.ReviseOrderQuantity(ctx, chi.URLParam(r, "id"), req.Quantity)
	h.respondMutation(w, r, o, err)
}

func (h *OrdersHandler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var req ChangeStatusReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	o, err := h.Ledger.ChangeOrderStatus(ctx, chi.URLParam(r, "id"), req.Status)
	h.respondMutation(w, r, o, err)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := h.Ledger.CancelOrder(ctx, orderID); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Cache.Tombstone(r.Context(), orderID); err != nil {
		h.Log.Warn("order cache tombstone", zap.String("order_id", orderID), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) respondMutation(w http.ResponseWriter, r *http.Request, o *orders.Order, err error) {
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	// cache the fresh copy; an older read in flight cannot overwrite a newer version
	h.cacheSet(r, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cacheSet(r *http.Request, o *orders.Order) {
	if _, err := h.Cache.Set(r.Context(), o); err != nil {
		h.Log.Warn("order cache set", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func parseListQuery(r *http.Request) (orders.OrderFilter, orders.OrderSort, error) {
	q := r.URL.Query()
	f := orders.OrderFilter{ProductID: strings.TrimSpace(q.Get("product_id"))}
	if raw := q.Get("status"); raw != "" {
		st, err := orders.ParseStatus(raw)
		if err != nil {
			return f, orders.DefaultOrderSort, err
		}
		f.Status = st
	}
	s, err := orders.ParseOrderSort(q.Get("sort"), q.Get("order"))
	return f, s, err
}
