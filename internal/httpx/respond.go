package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-inventory-ledger/internal/ledger"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json field names instead of Go ones
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResp struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads exactly one JSON value, rejecting unknown fields, then runs
// struct validation on dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json: %v", orders.ErrInvalidArgument, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: invalid json: trailing data", orders.ErrInvalidArgument)
	}
	if reflect.Indirect(reflect.ValueOf(dst)).Kind() != reflect.Struct {
		return nil
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			f := verrs[0]
			return fmt.Errorf("%w: %s failed %q", orders.ErrInvalidArgument, f.Namespace(), f.Tag())
		}
		return fmt.Errorf("%w: %v", orders.ErrInvalidArgument, err)
	}
	return nil
}

// writeError maps ledger errors onto status codes.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var stock *orders.StockError
	switch {
	case errors.As(err, &stock):
		writeJSON(w, http.StatusConflict, errorResp{Error: err.Error(), Details: stock})
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp{Error: err.Error()})
	case errors.Is(err, orders.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
	case errors.Is(err, orders.ErrProductInUse):
		writeJSON(w, http.StatusConflict, errorResp{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorResp{Error: "timeout"})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "internal error"})
	}
}

// requestContext carries the request id onto emitted events and bounds the call.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := ledger.WithTraceID(r.Context(), middleware.GetReqID(r.Context()))
	return context.WithTimeout(ctx, 5*time.Second)
}
