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

func Movies(rw http.ResponseWriter, r *http.Request) {
	var input struct {
		Archived     *bool  `query:"archived"`
		Starred      *bool  `query:"starred"`
		Watched      *bool  `query:"watched"`
		Q            string `query:"q"`
		DateStart    string `query:"dateStart"`
		DateEnd      string `query:"dateEnd"`
		Unplaylisted bool   `query:"unplaylisted"`
		Sort         string `query:"sort"`
		Order        string `query:"order"`
		Page         *int64 `query:"page"`
		Limit        *int64 `query:"limit"`
	}

	if err := httputil.DecodeQuery(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	sort, err := narrowSort(store.MovieSorts, input.Sort, input.Order)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	pg, err := narrowPage(input.Page, input.Limit)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	dateStart, err := parseDate(input.DateStart)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}
	dateEnd, err := parseDate(input.DateEnd)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	movies, total, err := store.ListMovies(r.Context(), getDB(r), store.MovieFilters{
		Archived:         input.Archived,
		Starred:          input.Starred,
		Watched:          input.Watched,
		Search:           input.Q,
		DateStart:        dateStart,
		DateEnd:          dateEnd,
		NotInAnyPlaylist: input.Unplaylisted,
	}, sort, pg)
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, page{Items: movies, Total: total})
}

// MovieCreate registers a movie by TMDB id and queues a metadata fetch.
func MovieCreate(rw http.ResponseWriter, r *http.Request) {
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

		if err := store.EnsureMovie(ctx, tx, input.TMDBID, now); err != nil {
			return err
		}

		var err error
		id, err = store.MovieIDForTMDBID(ctx, tx, input.TMDBID)
		if err != nil {
			return err
		}

		return ctxjobqueue.Add(ctx, tx, &jobqueue.Job{
			QueueName: queuenames.MovieFetchMetadata,
			Payload:   strconv.FormatInt(id, 10),
		})
	}); err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusAccepted, idBody{ID: id})
}

func Movie(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	movie, err := store.GetMovie(r.Context(), getDB(r), id)
	if err != nil {
		if err == sql.ErrNoRows {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, movie)
}

func MovieFlags(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	var input struct {
		Archived *bool `json:"archived"`
		Starred  *bool `json:"starred"`
		Watched  *bool `json:"watched"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	if input.Archived == nil && input.Starred == nil && input.Watched == nil {
		httputil.BadRequest(rw, "no flags to change")
		return
	}

	n, err := store.SetMovieFlags(r.Context(), getDB(r), id, store.MovieFlagChanges{
		Archived: input.Archived,
		Starred:  input.Starred,
		Watched:  input.Watched,
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
