package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/jermspeaks/slowtube/internal/ctxdb"
	"github.com/jermspeaks/slowtube/internal/ctxjobqueue"
	"github.com/jermspeaks/slowtube/internal/httputil"
	"github.com/jermspeaks/slowtube/internal/jobqueue"
	"github.com/jermspeaks/slowtube/internal/queuenames"
	"github.com/jermspeaks/slowtube/internal/store"
)

func Shows(rw http.ResponseWriter, r *http.Request) {
	var input struct {
		Q               string `query:"q"`
		Started         bool   `query:"started"`
		HideCompleted   bool   `query:"hideCompleted"`
		IncludeArchived bool   `query:"includeArchived"`
		Sort            string `query:"sort"`
		Order           string `query:"order"`
		Page            *int64 `query:"page"`
		Limit           *int64 `query:"limit"`
	}

	if err := httputil.DecodeQuery(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	sort, err := narrowSort(store.ShowSorts, input.Sort, input.Order)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	pg, err := narrowPage(input.Page, input.Limit)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	shows, total, err := store.ListShows(r.Context(), getDB(r), store.ShowFilters{
		Search:          input.Q,
		StartedOnly:     input.Started,
		HideCompleted:   input.HideCompleted,
		IncludeArchived: input.IncludeArchived,
	}, sort, pg)
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, page{Items: shows, Total: total})
}

// ShowCreate registers a show by TMDB id and queues an episode refresh.
// Adding a show that already exists just re-queues the refresh.
func ShowCreate(rw http.ResponseWriter, r *http.Request) {
	var input struct {
		TMDBID int64 `json:"tmdbId"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}
	if input.TMDBID <= 0 {
		httputil.BadRequest(rw, "tmdbId is required")
		return
	}

	var id int64

	if err := ctxdb.UsingTx(r.Context(), nil, func(ctx context.Context, tx *sql.Tx) error {
		now := getNow(r)

		if err := store.EnsureShow(ctx, tx, input.TMDBID, now); err != nil {
			return err
		}

		var err error
		id, err = store.ShowIDForTMDBID(ctx, tx, input.TMDBID)
		if err != nil {
			return err
		}

		return ctxjobqueue.Add(ctx, tx, &jobqueue.Job{
			QueueName: queuenames.ShowRefreshEpisodes,
			Payload:   strconv.FormatInt(id, 10),
		})
	}); err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusAccepted, idBody{ID: id})
}

func Show(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	show, err := store.GetShow(r.Context(), getDB(r), id)
	if err != nil {
		if err == sql.ErrNoRows {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, show)
}

func ShowState(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	var input struct {
		Archived *bool `json:"archived"`
		Started  *bool `json:"started"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	if input.Archived == nil && input.Started == nil {
		httputil.BadRequest(rw, "no flags to change")
		return
	}

	n, err := store.SetShowFlags(r.Context(), getDB(r), id, store.ShowFlagChanges{
		Archived: input.Archived,
		Started:  input.Started,
	}, getNow(r))
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func ShowEpisodes(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	if _, err := store.GetShow(r.Context(), getDB(r), id); err != nil {
		if err == sql.ErrNoRows {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	var input struct {
		Unwatched bool   `query:"unwatched"`
		Sort      string `query:"sort"`
		Order     string `query:"order"`
		Page      *int64 `query:"page"`
		Limit     *int64 `query:"limit"`
	}

	if err := httputil.DecodeQuery(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	sort, err := narrowSort(store.EpisodeSorts, input.Sort, input.Order)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	pg, err := narrowPage(input.Page, input.Limit)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	episodes, total, err := store.ListEpisodes(r.Context(), getDB(r), id, store.EpisodeFilters{
		UnwatchedOnly: input.Unwatched,
	}, sort, pg)
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, page{Items: episodes, Total: total})
}

func EpisodeWatched(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	var input struct {
		Watched bool `json:"watched"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	n, err := store.SetEpisodeWatched(r.Context(), getDB(r), id, input.Watched, getNow(r))
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}
