package handlers

import (
	"context"
	"net/http"

	"github.com/jermspeaks/slowtube/internal/ctxconfig"
	"github.com/jermspeaks/slowtube/internal/ctxdb"
	"github.com/jermspeaks/slowtube/internal/ctxlogger"
	"github.com/jermspeaks/slowtube/internal/enricher"
	"github.com/jermspeaks/slowtube/internal/httputil"
	"github.com/jermspeaks/slowtube/internal/store"
)

const defaultEnrichLimit = 10

type enrichResult struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Remaining int64 `json:"remaining"`
}

type pendingFunc func(ctx context.Context, q store.Querier, limit int64) ([]int64, int64, error)

// Enrich synchronously fetches metadata for up to limit pending items of
// each kind, oldest first, and reports how many are still waiting. A failed
// item is recorded on its row and logged, never fatal to the batch.
func Enrich(rw http.ResponseWriter, r *http.Request) {
	var input struct {
		Limit int64 `json:"limit"`
	}
	if r.ContentLength != 0 {
		if err := httputil.DecodeBody(r, &input); err != nil {
			httputil.BadRequest(rw, err.Error())
			return
		}
	}
	if input.Limit <= 0 {
		input.Limit = defaultEnrichLimit
	}

	ctx := r.Context()
	now := getNow(r)
	apiKey := ctxconfig.GetConfig(ctx).TMDBAPIKey

	videos, err := enrichBatch(ctx, input.Limit, store.PendingVideoIDs, func(id int64) error {
		_, err := enricher.Video(ctx, getDB(r), id, now)
		return err
	})
	if err != nil {
		panic(err)
	}

	shows, err := enrichBatch(ctx, input.Limit, store.PendingShowIDs, func(id int64) error {
		_, err := enricher.Show(ctx, getDB(r), id, apiKey, now)
		return err
	})
	if err != nil {
		panic(err)
	}

	movies, err := enrichBatch(ctx, input.Limit, store.PendingMovieIDs, func(id int64) error {
		_, err := enricher.Movie(ctx, getDB(r), id, apiKey, now)
		return err
	})
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, map[string]interface{}{
		"videos": videos,
		"shows":  shows,
		"movies": movies,
	})
}

func enrichBatch(ctx context.Context, limit int64, pending pendingFunc, enrich func(id int64) error) (enrichResult, error) {
	ids, remaining, err := pending(ctx, ctxdb.GetDB(ctx), limit)
	if err != nil {
		return enrichResult{}, err
	}

	res := enrichResult{Remaining: remaining}

	for _, id := range ids {
		if err := enrich(id); err != nil {
			ctxlogger.GetLogger(ctx).WithError(err).WithField("id", id).Warn("handlers.Enrich: item failed")
			res.Failed++
			continue
		}

		res.Processed++
	}

	return res, nil
}
