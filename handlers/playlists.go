package handlers

import (
	"database/sql"
	"net/http"

	"github.com/jermspeaks/slowtube/internal/httputil"
	"github.com/jermspeaks/slowtube/internal/store"
)

func Playlists(rw http.ResponseWriter, r *http.Request) {
	playlists, err := store.ListMoviePlaylists(r.Context(), getDB(r))
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, playlists)
}

func PlaylistCreate(rw http.ResponseWriter, r *http.Request) {
	var input struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}
	if input.Name == "" {
		httputil.BadRequest(rw, "name is required")
		return
	}

	id, err := store.CreateMoviePlaylist(r.Context(), getDB(r), input.Name, input.Color, getNow(r))
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusCreated, idBody{ID: id})
}

func Playlist(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	playlist, err := store.GetMoviePlaylist(r.Context(), getDB(r), id)
	if err != nil {
		if err == sql.ErrNoRows {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, playlist)
}

func PlaylistUpdate(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	var input struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}
	if input.Name == "" {
		httputil.BadRequest(rw, "name is required")
		return
	}

	n, err := store.UpdateMoviePlaylist(r.Context(), getDB(r), id, input.Name, input.Color)
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func PlaylistDelete(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	n, err := store.DeleteMoviePlaylist(r.Context(), getDB(r), id)
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func PlaylistMovies(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	if _, err := store.GetMoviePlaylist(r.Context(), getDB(r), id); err != nil {
		if err == sql.ErrNoRows {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	var input struct {
		Archived *bool  `query:"archived"`
		Starred  *bool  `query:"starred"`
		Watched  *bool  `query:"watched"`
		Q        string `query:"q"`
		Sort     string `query:"sort"`
		Order    string `query:"order"`
		Page     *int64 `query:"page"`
		Limit    *int64 `query:"limit"`
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

	movies, total, err := store.ListPlaylistMovies(r.Context(), getDB(r), id, store.MovieFilters{
		Archived: input.Archived,
		Starred:  input.Starred,
		Watched:  input.Watched,
		Search:   input.Q,
	}, sort, pg)
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, page{Items: movies, Total: total})
}

func PlaylistMovieAdd(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	var input struct {
		MovieIDs []int64 `json:"movieIds"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}
	if len(input.MovieIDs) == 0 {
		httputil.BadRequest(rw, "movieIds is required")
		return
	}

	added, err := store.AddMoviesToPlaylist(r.Context(), getDB(r), id, input.MovieIDs, getNow(r))
	if err != nil {
		if store.IsConstraintViolation(err) {
			httputil.BadRequest(rw, "unknown playlist or movie")
			return
		}

		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, map[string]interface{}{"added": added})
}

func PlaylistMovieRemove(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	movieID, ok := pathInt64(r, "movieID")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	n, err := store.RemoveMovieFromPlaylist(r.Context(), getDB(r), id, movieID)
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func PlaylistOrder(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	var input struct {
		MovieIDs []int64 `json:"movieIds"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	if err := store.ReorderMoviePlaylist(r.Context(), getDB(r), id, input.MovieIDs, getNow(r)); err != nil {
		if store.IsConstraintViolation(err) {
			httputil.BadRequest(rw, "unknown playlist or movie in ordering")
			return
		}

		panic(err)
	}

	rw.WriteHeader(http.StatusNoContent)
}
