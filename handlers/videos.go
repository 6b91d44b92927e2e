package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jermspeaks/slowtube/internal/httputil"
	"github.com/jermspeaks/slowtube/internal/store"
	"github.com/jermspeaks/slowtube/models"
)

func Videos(rw http.ResponseWriter, r *http.Request) {
	var input struct {
		State           string   `query:"state"`
		Q               string   `query:"q"`
		Channel         []string `query:"channel"`
		DateField       string   `query:"dateField"`
		DateStart       string   `query:"dateStart"`
		DateEnd         string   `query:"dateEnd"`
		Latest          bool     `query:"latest"`
		ExcludeArchived bool     `query:"excludeArchived"`
		Sort            string   `query:"sort"`
		Order           string   `query:"order"`
		Page            *int64   `query:"page"`
		Limit           *int64   `query:"limit"`
	}

	if err := httputil.DecodeQuery(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	if input.State != "" && !models.ValidVideoState(input.State) {
		httputil.BadRequest(rw, "unknown state "+input.State)
		return
	}

	if input.DateField != "" {
		if _, ok := store.VideoDateFields[input.DateField]; !ok {
			httputil.BadRequest(rw, "unknown date field "+input.DateField)
			return
		}
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

	videos, total, err := store.ListVideos(r.Context(), getDB(r), store.VideoFilters{
		State:           input.State,
		Search:          input.Q,
		ChannelTitles:   input.Channel,
		DateField:       input.DateField,
		DateStart:       dateStart,
		DateEnd:         dateEnd,
		Latest:          input.Latest,
		ExcludeArchived: input.ExcludeArchived,
	}, sort, pg)
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, page{Items: videos, Total: total})
}

func Video(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	video, err := store.GetVideo(r.Context(), getDB(r), id)
	if err != nil {
		if err == sql.ErrNoRows {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	tags, err := store.ListTags(r.Context(), getDB(r), id)
	if err != nil {
		panic(err)
	}

	comments, err := store.ListComments(r.Context(), getDB(r), id)
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, map[string]interface{}{
		"video":    video,
		"tags":     tags,
		"comments": comments,
	})
}

func VideoState(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	var input struct {
		State string `json:"state"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	if !models.ValidVideoState(input.State) {
		httputil.BadRequest(rw, "unknown state "+input.State)
		return
	}

	n, err := store.SetVideoState(r.Context(), getDB(r), id, input.State, getNow(r))
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func VideoTags(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	tags, err := store.ListTags(r.Context(), getDB(r), id)
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, tags)
}

func VideoTagCreate(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}
	if input.Name == "" {
		httputil.BadRequest(rw, "name is required")
		return
	}

	created, err := store.AddTag(r.Context(), getDB(r), id, input.Name, getNow(r))
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, map[string]interface{}{"created": created})
}

func VideoTagDelete(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	n, err := store.DeleteTag(r.Context(), getDB(r), id, mux.Vars(r)["name"])
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func VideoComments(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	comments, err := store.ListComments(r.Context(), getDB(r), id)
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusOK, comments)
}

func VideoCommentCreate(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}
	if input.Content == "" {
		httputil.BadRequest(rw, "content is required")
		return
	}

	commentID, err := store.AddComment(r.Context(), getDB(r), id, input.Content, getNow(r))
	if err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusCreated, idBody{ID: commentID})
}

func CommentUpdate(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}
	if input.Content == "" {
		httputil.BadRequest(rw, "content is required")
		return
	}

	n, err := store.UpdateComment(r.Context(), getDB(r), id, input.Content, getNow(r))
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func CommentDelete(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		httputil.NotFound(rw, r)
		return
	}

	n, err := store.DeleteComment(r.Context(), getDB(r), id)
	if err != nil {
		panic(err)
	}
	if n == 0 {
		httputil.NotFound(rw, r)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}
