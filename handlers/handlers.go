// Package handlers is the JSON API surface. Handlers narrow raw input
// against the entity allow-lists, then hand validated filters to the store;
// storage failures panic and are turned into responses by the recovery
// middleware.
package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/jermspeaks/slowtube/internal/ctxclock"
	"github.com/jermspeaks/slowtube/internal/ctxdb"
	"github.com/jermspeaks/slowtube/internal/sqlq"
	"github.com/jermspeaks/slowtube/internal/store"
)

// page is the envelope every list endpoint returns. Total counts everything
// matching the filters, not just the returned slice.
type page struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}

type idBody struct {
	ID int64 `json:"id"`
}

func getDB(r *http.Request) *sql.DB {
	return ctxdb.GetDB(r.Context())
}

func getNow(r *http.Request) time.Time {
	t, err := ctxclock.Now(r.Context())
	if err != nil {
		panic(err)
	}

	return t
}

func pathInt64(r *http.Request, name string) (int64, bool) {
	n, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}

// narrowSort rejects sort keys outside the entity's allow-list before
// anything reaches the store.
func narrowSort(cfg sqlq.SortConfig, key, order string) (store.Sort, error) {
	if key != "" && !cfg.Allows(key) {
		return store.Sort{}, fmt.Errorf("unknown sort key %q", key)
	}

	switch strings.ToLower(order) {
	case "", sqlq.OrderAsc, sqlq.OrderDesc:
	default:
		return store.Sort{}, fmt.Errorf("order must be %q or %q", sqlq.OrderAsc, sqlq.OrderDesc)
	}

	return store.Sort{Key: key, Order: order}, nil
}

// narrowPage rejects non-positive page or limit values before they reach
// the store's limit/offset rendering, which trusts its inputs.
func narrowPage(page, limit *int64) (store.Pagination, error) {
	if page != nil && *page < 1 {
		return store.Pagination{}, fmt.Errorf("page must be a positive integer")
	}
	if limit != nil && *limit < 1 {
		return store.Pagination{}, fmt.Errorf("limit must be a positive integer")
	}

	return store.Pagination{Page: page, Limit: limit}, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q; want YYYY-MM-DD", s)
	}

	return &t, nil
}
