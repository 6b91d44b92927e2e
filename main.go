package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/tdewolff/minify"
	"github.com/tdewolff/minify/json"
	"github.com/urfave/negroni/v2"
	"go.etcd.io/bbolt"

	"github.com/jermspeaks/slowtube/handlers"
	"github.com/jermspeaks/slowtube/internal/config"
	"github.com/jermspeaks/slowtube/internal/configreader"
	"github.com/jermspeaks/slowtube/internal/ctxclock"
	"github.com/jermspeaks/slowtube/internal/ctxconfig"
	"github.com/jermspeaks/slowtube/internal/ctxdb"
	"github.com/jermspeaks/slowtube/internal/ctxhttpclient"
	"github.com/jermspeaks/slowtube/internal/ctxjobqueue"
	"github.com/jermspeaks/slowtube/internal/ctxlogger"
	"github.com/jermspeaks/slowtube/internal/ctxtimer"
	"github.com/jermspeaks/slowtube/internal/enricher"
	"github.com/jermspeaks/slowtube/internal/httpcache"
	"github.com/jermspeaks/slowtube/internal/jobqueue"
	"github.com/jermspeaks/slowtube/internal/logrusstackhook"
	"github.com/jermspeaks/slowtube/internal/queuenames"
	"github.com/jermspeaks/slowtube/internal/sqlitelogger"
	"github.com/jermspeaks/slowtube/models"
)

var cfg = config.Config{
	LogLevel:             logrus.InfoLevel,
	LogDebugLevels:       config.LevelList{logrus.DebugLevel, logrus.TraceLevel},
	LogQueries:           config.LogQueries{Enabled: true, SlowerThan: time.Millisecond * 100},
	ApplicationAddr:      ":8080",
	ApplicationDatabase:  "database.db",
	ApplicationCachePath: "cache.db",
	ApplicationMinify:    true,
	BackgroundWorkers:    1,
}

func init() {
	for _, configPath := range []string{"config.toml", "config.yaml", "config.yml"} {
		if st, err := os.Stat(configPath); err == nil && st != nil && !st.IsDir() {
			cfg.Config = configPath
		}
	}
}

func main() {
	ctx := context.Background()

	if err := configreader.Read(os.Args[0], os.Args[1:], os.Environ(), &cfg); err != nil {
		panic(err)
	}

	ctx = ctxconfig.WithConfig(ctx, cfg)
	ctx = ctxclock.WithClock(ctx, ctxclock.NewRealClock())

	logger := logrus.New()

	logger.SetLevel(cfg.LogLevel)
	if len(cfg.LogDebugLevels) > 0 {
		logger.AddHook(logrusstackhook.NewStackHook(nil, cfg.LogDebugLevels, nil))
	}

	logger.WithFields(logrus.Fields{
		"config.config":                 cfg.Config,
		"config.log_level":              cfg.LogLevel,
		"config.log_debug_levels":       cfg.LogDebugLevels,
		"config.log_queries":            cfg.LogQueries,
		"config.application_addr":       cfg.ApplicationAddr,
		"config.application_cache_path": cfg.ApplicationCachePath,
		"config.application_database":   cfg.ApplicationDatabase,
		"config.application_minify":     cfg.ApplicationMinify,
		"config.background_workers":     cfg.BackgroundWorkers,
	}).Info("program starting")

	ctx = ctxlogger.WithLogger(ctx, logger)

	dbDriver := "sqlite3"

	if !cfg.LogQueries.IsZero() {
		dbDriver = "sqlite3:logged"

		sql.Register(dbDriver, sqlitelogger.New(
			dbDriver,
			&sqlite3.SQLiteDriver{},
			&sqlitelogger.BasicFilter{
				LogSlowerThan: cfg.LogQueries.SlowerThan,
				IgnorePackageStackFrames: []string{
					// standard library
					"database/sql",
					"net/http",
					"runtime",
					// libraries
					"github.com/gorilla/mux",
					"github.com/shogo82148/go-sql-proxy",
					"github.com/urfave/negroni/v2",
					// middleware
					"github.com/jermspeaks/slowtube/internal/ctxclock",
					"github.com/jermspeaks/slowtube/internal/ctxdb",
					"github.com/jermspeaks/slowtube/internal/ctxjobqueue",
					"github.com/jermspeaks/slowtube/internal/ctxlogger",
					"github.com/jermspeaks/slowtube/internal/ctxtimer",
					"github.com/jermspeaks/slowtube/internal/sqlitelogger",
					// main
					"main",
				},
				IgnoreFunctionQueries: []string{
					"github.com/jermspeaks/slowtube/internal/jobqueue.(*Worker).Run",
				},
			},
		))
	}

	// _foreign_keys=on applies to every connection the pool opens; a plain
	// pragma would only cover one of them.
	db, err := sql.Open(dbDriver, fmt.Sprintf("file:%s?_foreign_keys=on", cfg.ApplicationDatabase))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	if err := models.Migrate(ctx, db); err != nil {
		panic(err)
	}

	ctx = ctxdb.WithDB(ctx, db)

	cacheDB, err := bbolt.Open(cfg.ApplicationCachePath, 0600, nil)
	if err != nil {
		panic(err)
	}
	defer cacheDB.Close()

	ctx = ctxhttpclient.WithHTTPClient(ctx, &http.Client{
		Transport: httpcache.NewTransport(nil, httpcache.NewBBoltStorage(cacheDB), 0),
	})

	ctx = ctxjobqueue.WithWorker(ctx, jobqueue.NewWorker(nil))

	if err := registerJobQueueWorkerFunctions(ctx); err != nil {
		panic(err)
	}

	workers := []worker{
		{
			name: "application",
			run: func(ctx context.Context) error {
				return runApplicationWorker(ctx, cfg.ApplicationAddr)
			},
		},
	}

	for i := 0; i < cfg.BackgroundWorkers; i++ {
		workers = append(workers, worker{
			name: fmt.Sprintf("job_queue.%d", i),
			run: func(ctx context.Context) error {
				return runJobQueueWorker(ctx)
			},
		})
	}

	if err := runAllWorkers(ctx, workers); err != nil {
		panic(err)
	}
}

type worker struct {
	name string
	run  func(ctx context.Context) error
}

func runAllWorkers(ctx context.Context, workers []worker) error {
	done := make(chan error, len(workers))
	cancellers := make([]context.CancelCauseFunc, len(workers))

	var rw sync.RWMutex

	for id, w := range workers {
		go func(id int, w worker) {
			for {
				l := ctxlogger.GetLogger(ctx).WithFields(logrus.Fields{
					"worker.id":   id + 1,
					"worker.name": w.name,
				})

				ctx, cancel := context.WithCancelCause(ctxlogger.WithLogger(ctx, l))

				rw.Lock()
				cancellers[id] = cancel
				rw.Unlock()

				if err := w.run(ctx); err != nil {
					l.WithError(err).Error("worker failed")

					rw.RLock()
					for _, fn := range cancellers {
						if fn == nil {
							continue
						}

						fn(fmt.Errorf("worker %d (%s) failed: %w", id+1, w.name, err))
					}
					rw.RUnlock()
				} else {
					l.Info("worker restarted")
				}

				time.Sleep(time.Second)
			}
		}(id, w)
	}

	var errs []error
	for err := range done {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func runApplicationWorker(ctx context.Context, addr string) error {
	l := ctxlogger.GetLogger(ctx)

	l.WithFields(logrus.Fields{
		"args.addr": addr,
	}).Info("running application worker")

	m := mux.NewRouter()

	m.Methods(http.MethodPost).Path("/api/add").HandlerFunc(handlers.Add)
	m.Methods(http.MethodPost).Path("/api/enrich").HandlerFunc(handlers.Enrich)
	m.Methods(http.MethodGet).Path("/api/jobs").HandlerFunc(handlers.Jobs)

	m.Methods(http.MethodGet).Path("/api/videos").HandlerFunc(handlers.Videos)
	m.Methods(http.MethodGet).Path("/api/videos/{id}").HandlerFunc(handlers.Video)
	m.Methods(http.MethodPut).Path("/api/videos/{id}/state").HandlerFunc(handlers.VideoState)
	m.Methods(http.MethodGet).Path("/api/videos/{id}/tags").HandlerFunc(handlers.VideoTags)
	m.Methods(http.MethodPost).Path("/api/videos/{id}/tags").HandlerFunc(handlers.VideoTagCreate)
	m.Methods(http.MethodDelete).Path("/api/videos/{id}/tags/{name}").HandlerFunc(handlers.VideoTagDelete)
	m.Methods(http.MethodGet).Path("/api/videos/{id}/comments").HandlerFunc(handlers.VideoComments)
	m.Methods(http.MethodPost).Path("/api/videos/{id}/comments").HandlerFunc(handlers.VideoCommentCreate)
	m.Methods(http.MethodPatch).Path("/api/comments/{id}").HandlerFunc(handlers.CommentUpdate)
	m.Methods(http.MethodDelete).Path("/api/comments/{id}").HandlerFunc(handlers.CommentDelete)

	m.Methods(http.MethodGet).Path("/api/channels").HandlerFunc(handlers.Channels)
	m.Methods(http.MethodGet).Path("/api/channels/{id}/videos").HandlerFunc(handlers.ChannelVideos)
	m.Methods(http.MethodPut).Path("/api/channels/{id}/subscription").HandlerFunc(handlers.ChannelSubscription)

	m.Methods(http.MethodGet).Path("/api/shows").HandlerFunc(handlers.Shows)
	m.Methods(http.MethodPost).Path("/api/shows").HandlerFunc(handlers.ShowCreate)
	m.Methods(http.MethodGet).Path("/api/shows/{id}").HandlerFunc(handlers.Show)
	m.Methods(http.MethodPut).Path("/api/shows/{id}/state").HandlerFunc(handlers.ShowState)
	m.Methods(http.MethodGet).Path("/api/shows/{id}/episodes").HandlerFunc(handlers.ShowEpisodes)
	m.Methods(http.MethodPut).Path("/api/episodes/{id}/watched").HandlerFunc(handlers.EpisodeWatched)

	m.Methods(http.MethodGet).Path("/api/movies").HandlerFunc(handlers.Movies)
	m.Methods(http.MethodPost).Path("/api/movies").HandlerFunc(handlers.MovieCreate)
	m.Methods(http.MethodGet).Path("/api/movies/{id}").HandlerFunc(handlers.Movie)
	m.Methods(http.MethodPut).Path("/api/movies/{id}/flags").HandlerFunc(handlers.MovieFlags)

	m.Methods(http.MethodGet).Path("/api/lists").HandlerFunc(handlers.Lists)
	m.Methods(http.MethodPost).Path("/api/lists").HandlerFunc(handlers.ListCreate)
	m.Methods(http.MethodGet).Path("/api/lists/{id}").HandlerFunc(handlers.List)
	m.Methods(http.MethodPatch).Path("/api/lists/{id}").HandlerFunc(handlers.ListUpdate)
	m.Methods(http.MethodDelete).Path("/api/lists/{id}").HandlerFunc(handlers.ListDelete)
	m.Methods(http.MethodGet).Path("/api/lists/{id}/videos").HandlerFunc(handlers.ListVideos)
	m.Methods(http.MethodGet).Path("/api/lists/{id}/channels").HandlerFunc(handlers.ListChannels)
	m.Methods(http.MethodPost).Path("/api/lists/{id}/channels").HandlerFunc(handlers.ListChannelAdd)
	m.Methods(http.MethodDelete).Path("/api/lists/{id}/channels/{channelID}").HandlerFunc(handlers.ListChannelRemove)
	m.Methods(http.MethodPut).Path("/api/lists/{id}/order").HandlerFunc(handlers.ListOrder)

	m.Methods(http.MethodGet).Path("/api/playlists").HandlerFunc(handlers.Playlists)
	m.Methods(http.MethodPost).Path("/api/playlists").HandlerFunc(handlers.PlaylistCreate)
	m.Methods(http.MethodGet).Path("/api/playlists/{id}").HandlerFunc(handlers.Playlist)
	m.Methods(http.MethodPatch).Path("/api/playlists/{id}").HandlerFunc(handlers.PlaylistUpdate)
	m.Methods(http.MethodDelete).Path("/api/playlists/{id}").HandlerFunc(handlers.PlaylistDelete)
	m.Methods(http.MethodGet).Path("/api/playlists/{id}/movies").HandlerFunc(handlers.PlaylistMovies)
	m.Methods(http.MethodPost).Path("/api/playlists/{id}/movies").HandlerFunc(handlers.PlaylistMovieAdd)
	m.Methods(http.MethodDelete).Path("/api/playlists/{id}/movies/{movieID}").HandlerFunc(handlers.PlaylistMovieRemove)
	m.Methods(http.MethodPut).Path("/api/playlists/{id}/order").HandlerFunc(handlers.PlaylistOrder)

	min := minify.New()
	min.Add("application/json", json.DefaultMinifier)

	n := negroni.New()
	n.Use(negroni.NewRecovery())
	n.UseFunc(ctxlogger.Register(l))
	n.UseFunc(ctxtimer.Register(nil))
	n.UseFunc(ctxclock.Register(ctxclock.GetClock(ctx)))
	n.UseFunc(ctxdb.Register(ctxdb.GetDB(ctx)))
	n.UseFunc(ctxconfig.Register(cfg))
	n.UseFunc(ctxhttpclient.Register(ctxhttpclient.GetHTTPClient(ctx)))
	n.UseFunc(ctxjobqueue.Register(ctxjobqueue.GetWorker(ctx)))
	n.UseFunc(ctxtimer.AddLoggerHooks())
	n.UseFunc(ctxclock.AddLoggerHooks())
	n.UseFunc(ctxlogger.Log())

	if cfg.ApplicationMinify {
		n.UseFunc(func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
			if strings.ToLower(r.Header.Get("connection")) != "upgrade" {
				mw := min.ResponseWriter(rw, r)
				defer mw.Close()
				rw = mw
			}

			next(rw, r)
		})
	}

	n.UseHandler(m)

	s := &http.Server{
		Addr:        addr,
		Handler:     n,
		BaseContext: func(l net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		l.Info("starting server")
		errs <- s.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return s.Shutdown(ctx)
	}
}

func registerJobQueueWorkerFunctions(ctx context.Context) error {
	l := ctxlogger.GetLogger(ctx)

	l.Info("registering job queue worker functions")

	w := ctxjobqueue.GetWorker(ctx)
	if w == nil {
		return fmt.Errorf("job queue worker not available in context")
	}

	return w.RegisterAll(map[string]jobqueue.WorkerFunction{
		queuenames.ChannelRefreshMetadata: func(ctx context.Context, w *jobqueue.Worker, j *jobqueue.Job) (string, error) {
			externalID, _, err := jobqueue.ParsePayload(j.Payload)
			if err != nil {
				return "", err
			}

			now, err := ctxclock.Now(ctx)
			if err != nil {
				return "", err
			}

			var output string

			if err := ctxdb.UsingTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
				s, err := enricher.Channel(ctx, tx, externalID, now)
				output = s
				return err
			}); err != nil {
				return "", err
			}

			return output, nil
		},
		queuenames.VideoFetchMetadata: func(ctx context.Context, w *jobqueue.Worker, j *jobqueue.Job) (string, error) {
			id, err := parseIDPayload(j.Payload)
			if err != nil {
				return "", err
			}

			now, err := ctxclock.Now(ctx)
			if err != nil {
				return "", err
			}

			var output string

			if err := ctxdb.UsingTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
				s, err := enricher.Video(ctx, tx, id, now)
				output = s
				return err
			}); err != nil {
				return "", err
			}

			return output, nil
		},
		queuenames.ShowRefreshEpisodes: func(ctx context.Context, w *jobqueue.Worker, j *jobqueue.Job) (string, error) {
			id, err := parseIDPayload(j.Payload)
			if err != nil {
				return "", err
			}

			now, err := ctxclock.Now(ctx)
			if err != nil {
				return "", err
			}

			var output string

			if err := ctxdb.UsingTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
				s, err := enricher.Show(ctx, tx, id, ctxconfig.GetConfig(ctx).TMDBAPIKey, now)
				output = s
				return err
			}); err != nil {
				return "", err
			}

			return output, nil
		},
		queuenames.MovieFetchMetadata: func(ctx context.Context, w *jobqueue.Worker, j *jobqueue.Job) (string, error) {
			id, err := parseIDPayload(j.Payload)
			if err != nil {
				return "", err
			}

			now, err := ctxclock.Now(ctx)
			if err != nil {
				return "", err
			}

			var output string

			if err := ctxdb.UsingTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
				s, err := enricher.Movie(ctx, tx, id, ctxconfig.GetConfig(ctx).TMDBAPIKey, now)
				output = s
				return err
			}); err != nil {
				return "", err
			}

			return output, nil
		},
	})
}

func parseIDPayload(payload string) (int64, error) {
	s, _, err := jobqueue.ParsePayload(payload)
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parseIDPayload: %w", err)
	}

	return id, nil
}

func runJobQueueWorker(ctx context.Context) error {
	l := ctxlogger.GetLogger(ctx)

	l.Info("running job queue worker")

	w := ctxjobqueue.GetWorker(ctx)
	if w == nil {
		return fmt.Errorf("job queue worker not available in context")
	}

	return w.Run(ctx)
}
