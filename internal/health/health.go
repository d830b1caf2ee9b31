package health

import (
	"context"
	"net/http"
	"time"

	"inventario/internal/models"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// RegisterRoutes: только liveness.
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		models.WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
}

// RegisterRoutesWithDB добавляет /readyz с пингом БД.
func RegisterRoutesWithDB(r *mux.Router, db *gorm.DB) {
	RegisterRoutes(r)
	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			models.WriteProblem(w, http.StatusServiceUnavailable, "storage_unavailable", "", "database not reachable")
			return
		}
		models.WriteData(w, http.StatusOK, map[string]string{"status": "ready"})
	}).Methods(http.MethodGet)
}
