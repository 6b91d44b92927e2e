package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jermspeaks/slowtube/internal/httputil"
	"github.com/jermspeaks/slowtube/internal/store"
	"github.com/jermspeaks/slowtube/models"
)

func Lists(rw http.ResponseWriter, r *http.Request) {
	lists, err := store.ListChannelLists(r.Context(), getDB(r))
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, lists)
}

func ListCreate(rw http.ResponseWriter, r *http.Request) {
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

	id, err := store.CreateChannelList(r.Context(), getDB(r), input.Name, input.Color, getNow(r))
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusCreated, idBody{ID: id})
}

func List(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	list, err := store.GetChannelList(r.Context(), getDB(r), id)
	if err != nil {
		if err == sql.ErrNoRows {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, list)
}

func ListUpdate(rw http.ResponseWriter, r *http.Request) {
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

	n, err := store.UpdateChannelList(r.Context(), getDB(r), id, input.Name, input.Color)
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func ListDelete(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	n, err := store.DeleteChannelList(r.Context(), getDB(r), id)
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

// ListVideos is the list's "watch later" view. Archived videos stay hidden
// unless asked for explicitly.
func ListVideos(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	if _, err := store.GetChannelList(r.Context(), getDB(r), id); err != nil {
		if err == sql.ErrNoRows {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	var input struct {
		State           string `query:"state"`
		Q               string `query:"q"`
		Latest          bool   `query:"latest"`
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

	if input.State != "" && !models.ValidVideoState(input.State) {
		httputil.BadRequest(rw, "unknown state "+input.State)
		return
	}

	sort, err := narrowSort(store.VideoSorts, input.Sort, input.Order)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	pg, err := narrowPage(input.Page, input.Limit)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	videos, total, err := store.ListChannelListVideos(r.Context(), getDB(r), id, store.VideoFilters{
		State:           input.State,
		Search:          input.Q,
		Latest:          input.Latest,
		ExcludeArchived: !input.IncludeArchived,
	}, sort, pg)
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, page{Items: videos, Total: total})
}

func ListChannels(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	if _, err := store.GetChannelList(r.Context(), getDB(r), id); err != nil {
		if err == sql.ErrNoRows {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	channels, err := store.ListChannelListChannels(r.Context(), getDB(r), id)
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, channels)
}

func ListChannelAdd(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	var input struct {
		ChannelIDs []string `json:"channelIds"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}
	if len(input.ChannelIDs) == 0 {
		httputil.BadRequest(rw, "channelIds is required")
		return
	}

	added, err := store.AddChannelsToList(r.Context(), getDB(r), id, input.ChannelIDs, getNow(r))
	if err != nil {
		if store.IsConstraintViolation(err) {
			httputil.BadRequest(rw, "unknown list or channel")
			return
		}

		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, map[string]interface{}{"added": added})
}

func ListChannelRemove(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	n, err := store.RemoveChannelFromList(r.Context(), getDB(r), id, mux.Vars(r)["channelID"])
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

// ListOrder replaces the list's ordering wholesale. The store applies it
// atomically, so a bad member id leaves the previous order in place.
func ListOrder(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	var input struct {
		ChannelIDs []string `json:"channelIds"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	if err := store.ReorderChannelList(r.Context(), getDB(r), id, input.ChannelIDs, getNow(r)); err != nil {
		if store.IsConstraintViolation(err) {
			httputil.BadRequest(rw, "unknown list or channel in ordering")
			return
		}

		panic(err)
	}

	rw.WriteHeader(http.StatusNoContent)
}
