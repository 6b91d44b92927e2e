package handlers

import (
	"net/http"
	"time"

	"github.com/jermspeaks/slowtube/internal/httputil"
	"github.com/jermspeaks/slowtube/internal/jobqueue"
)

type jobView struct {
	ID                int        `json:"id"`
	CreatedAt         time.Time  `json:"createdAt"`
	QueueName         string     `json:"queueName"`
	Payload           string     `json:"payload"`
	RunAfter          time.Time  `json:"runAfter"`
	AttemptsRemaining int        `json:"attemptsRemaining"`
	ReservedAt        *time.Time `json:"reservedAt"`
	ErrorMessages     []string   `json:"errorMessages"`
}

func Jobs(rw http.ResponseWriter, r *http.Request) {
	jobs, err := jobqueue.ListUnfinished(r.Context(), getDB(r), 1500)
	if err != nil {
		panic(err)
	}

	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, jobView{
			ID:                j.ID,
			CreatedAt:         j.CreatedAt,
			QueueName:         j.QueueName,
			Payload:           j.Payload,
			RunAfter:          j.RunAfter,
			AttemptsRemaining: j.AttemptsRemaining,
			ReservedAt:        j.ReservedAt,
			ErrorMessages:     j.ErrorMessages,
		})
	}

	httputil.WriteJSON(rw, http.StatusOK, page{Items: views, Total: int64(len(views))})
}
