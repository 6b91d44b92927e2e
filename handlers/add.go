package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jermspeaks/slowtube/internal/ctxdb"
	"github.com/jermspeaks/slowtube/internal/ctxjobqueue"
	"github.com/jermspeaks/slowtube/internal/httputil"
	"github.com/jermspeaks/slowtube/internal/jobqueue"
	"github.com/jermspeaks/slowtube/internal/queuenames"
	"github.com/jermspeaks/slowtube/internal/store"
	"github.com/jermspeaks/slowtube/internal/ytutil"
)

// Add takes pasted YouTube URLs or bare ids, one per whitespace-separated
// token, registers placeholder rows, and queues metadata fetches. Everything
// lands in one transaction with the queued jobs, so a row never exists
// without its fetch job.
func Add(rw http.ResponseWriter, r *http.Request) {
	var input struct {
		Input string `json:"input"`
	}
	if err := httputil.DecodeBody(r, &input); err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}

	ids, err := ytutil.ExtractAndIdentifyIDs(input.Input, false)
	if err != nil {
		httputil.BadRequest(rw, err.Error())
		return
	}
	if len(ids) == 0 {
		httputil.BadRequest(rw, "no ids found in input")
		return
	}

	now := getNow(r)

	if err := ctxdb.UsingTx(r.Context(), nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, id := range ids {
			switch id.Type {
			case ytutil.VideoID:
				if err := store.EnsureVideo(ctx, tx, id.Value, now); err != nil {
					return err
				}

				videoID, err := store.VideoIDForYouTubeID(ctx, tx, id.Value)
				if err != nil {
					return err
				}

				if err := ctxjobqueue.Add(ctx, tx, &jobqueue.Job{
					QueueName: queuenames.VideoFetchMetadata,
					Payload:   strconv.FormatInt(videoID, 10),
				}); err != nil {
					return err
				}
			case ytutil.ChannelID:
				if err := ctxjobqueue.Add(ctx, tx, &jobqueue.Job{
					QueueName: queuenames.ChannelRefreshMetadata,
					Payload:   id.Value,
				}); err != nil {
					return err
				}
			default:
				return fmt.Errorf("no queue for id type %s", id.Type)
			}
		}

		return nil
	}); err != nil {
		panic(err)
	}

	httputil.WriteJSON(rw, http.StatusAccepted, map[string]interface{}{"queued": len(ids)})
}
