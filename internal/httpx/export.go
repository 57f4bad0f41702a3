package httpx

import (
	"encoding/csv"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"go.uber.org/zap"
	"net/http"
	"strconv"
	"time"
)

var orderCSVHeader = []string{
	"id", "product_id", "quantity", "unit_price", "total", "status",
	"name", "phone", "account_last5", "shipping", "created_at",
}

func orderCSVRecord(o orders.Order) []string {
	return []string{
		o.ID,
		o.ProductID,
		strconv.Itoa(o.Quantity),
		o.UnitPrice.StringFixed(2),
		o.Total.StringFixed(2),
		string(o.Status),
		o.Customer.Name,
		o.Customer.Phone,
		o.Customer.AccountLast5,
		o.Customer.Shipping,
		o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// exportOrders accepts the same query as GET /orders.
func (h *OrdersHandler) exportOrders(w http.ResponseWriter, r *http.Request) {
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

	rows := make([][]string, 0, len(list))
	for _, o := range list {
		rows = append(rows, orderCSVRecord(o))
	}
	writeCSV(w, h.Log, "orders.csv", orderCSVHeader, rows)
}

var productCSVHeader = []string{"id", "name", "price", "stock", "created_at", "updated_at"}

func productCSVRecord(p orders.Product) []string {
	return []string{
		p.ID,
		p.Name,
		p.Price.StringFixed(2),
		strconv.Itoa(p.Stock),
		p.CreatedAt.UTC().Format(time.RFC3339),
		p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// exportProducts writes the catalogue in the same order as GET /products.
func (h *ProductsHandler) exportProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	ps, err := h.Ledger.ListProducts(ctx)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, productCSVRecord(p))
	}
	writeCSV(w, h.Log, "products.csv", productCSVHeader, rows)
}

func writeCSV(w http.ResponseWriter, log *zap.Logger, filename string, header []string, rows [][]string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(header)
	for _, row := range rows {
		_ = cw.Write(row)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Warn("csv export", zap.String("file", filename), zap.Error(err))
	}
}
