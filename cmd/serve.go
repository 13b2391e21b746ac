package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roadmap-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest feed over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func newRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeAPI(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/feed", func(w http.ResponseWriter, r *http.Request) {
		snap, err := st.LatestSnapshot(r.Context())
		if err != nil {
			apiError(w, http.StatusInternalServerError, err)
			return
		}
		if snap == nil {
			apiError(w, http.StatusNotFound, eris.New("no snapshot available"))
			return
		}
		writeAPI(w, http.StatusOK, snap)
	})

	r.Get("/api/features/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			apiError(w, http.StatusBadRequest, eris.New("feature id must be numeric"))
			return
		}
		snap, err := st.LatestSnapshot(r.Context())
		if err != nil {
			apiError(w, http.StatusInternalServerError, err)
			return
		}
		if snap != nil {
			for _, rec := range snap.Records {
				if rec.ID == id {
					writeAPI(w, http.StatusOK, rec)
					return
				}
			}
		}
		apiError(w, http.StatusNotFound, eris.Errorf("feature %d not in latest feed", id))
	})

	r.Get("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		runs, err := st.ListRuns(r.Context(), 20)
		if err != nil {
			apiError(w, http.StatusInternalServerError, err)
			return
		}
		writeAPI(w, http.StatusOK, runs)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, dashboardHTML)
	})

	return r
}

func writeAPI(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func apiError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		zap.L().Error("api error", zap.Error(err))
	}
	writeAPI(w, status, map[string]string{"error": err.Error()})
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>M365 Roadmap Feed</title>
<style>
body { font-family: "Segoe UI", sans-serif; margin: 2rem; color: #222; }
h1 { border-bottom: 2px solid #0078d4; padding-bottom: .3rem; }
table { border-collapse: collapse; width: 100%; font-size: .85rem; }
th, td { border: 1px solid #ddd; padding: .4rem .6rem; text-align: left; }
th { background: #0078d4; color: #fff; }
tr:nth-child(even) { background: #f6f8fa; }
#meta { color: #666; margin-bottom: 1rem; }
</style>
</head>
<body>
<h1>M365 Roadmap Feed</h1>
<p id="meta">Loading…</p>
<table id="feed"><thead><tr>
<th>ID</th><th>Title</th><th>Product</th><th>Status</th><th>Phase</th><th>Dates</th><th>Clouds</th>
</tr></thead><tbody></tbody></table>
<script>
fetch('/api/feed').then(function (r) {
  if (!r.ok) { throw new Error('no snapshot yet'); }
  return r.json();
}).then(function (snap) {
  document.getElementById('meta').textContent =
    snap.record_count + ' features, snapshot ' + snap.created_at;
  var tbody = document.querySelector('#feed tbody');
  snap.records.forEach(function (rec) {
    var tr = document.createElement('tr');
    [rec.id, rec.title, rec.product_workload, rec.status, rec.release_phase,
     rec.targeted_dates, (rec.cloud_instances || []).join(', ')].forEach(function (v) {
      var td = document.createElement('td');
      td.textContent = v === undefined || v === null ? '' : v;
      tr.appendChild(td);
    });
    tbody.appendChild(tr);
  });
}).catch(function (e) {
  document.getElementById('meta').textContent = e.message;
});
</script>
</body>
</html>
`

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
