package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jermspeaks/slowtube/internal/httputil"
	"github.com/jermspeaks/slowtube/internal/store"
	"github.com/jermspeaks/slowtube/models"
)

func Channels(rw http.ResponseWriter, r *http.Request) {
	var input struct {
		Q          string `query:"q"`
		Subscribed bool   `query:"subscribed"`
		Unlisted   bool   `query:"unlisted"`
		Sort       string `query:"sort"`
		Order      string `query:"order"`
		Page       *int64 `query:"page"`
		Limit      *int64 `query:"limit"`
	}

	if err := httputil.DecodeQuery(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	sort, err := narrowSort(store.ChannelSorts, input.Sort, input.Order)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	pg, err := narrowPage(input.Page, input.Limit)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	channels, total, err := store.ListChannels(r.Context(), getDB(r), store.ChannelFilters{
		Search:         input.Q,
		SubscribedOnly: input.Subscribed,
		NotInAnyList:   input.Unlisted,
	}, sort, pg)
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, page{Items: channels, Total: total})
}

// ChannelVideos lists one channel's videos, addressed by the channel's
// external id.
func ChannelVideos(rw http.ResponseWriter, r *http.Request) {
	externalID := mux.Vars(r)["id"]

	var input struct {
		State string `query:"state"`
		Q     string `query:"q"`
		Sort  string `query:"sort"`
		Order string `query:"order"`
		Page  *int64 `query:"page"`
		Limit *int64 `query:"limit"`
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

	videos, total, err := store.ListVideos(r.Context(), getDB(r), store.VideoFilters{
		State:              input.State,
		Search:             input.Q,
		ChannelExternalIDs: []string{externalID},
	}, sort, pg)
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, page{Items: videos, Total: total})
}

func ChannelSubscription(rw http.ResponseWriter, r *http.Request) {
	externalID := mux.Vars(r)["id"]

	var input struct {
		Subscribed bool `json:"subscribed"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	n, err := store.SetChannelSubscription(r.Context(), getDB(r), externalID, input.Subscribed, getNow(r))
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}
