// Package router arma el chi.Router con todos los módulos montados.
package router

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "vet-clinic-api/docs"
	"vet-clinic-api/internal/adapters/storage/memory"
	"vet-clinic-api/internal/adapters/storage/postgres"
	"vet-clinic-api/internal/domain/appointments"
	"vet-clinic-api/internal/domain/auth"
	"vet-clinic-api/internal/domain/catalog"
	"vet-clinic-api/internal/domain/pets"
	"vet-clinic-api/internal/domain/store"
	"vet-clinic-api/internal/domain/users"
	"vet-clinic-api/internal/middleware"
	"vet-clinic-api/internal/platform/logger"
	authport "vet-clinic-api/internal/ports/auth"
	"vet-clinic-api/internal/ports/oauth"
)

// Options agrupa las dependencias externas del router. Con DB nil los
// repositorios corren en memoria.
type Options struct {
	Log      logger.Logger
	DB       *sql.DB
	Verifier authport.AuthVerifier
	Issuer   authport.TokenIssuer
	Provider oauth.Provider
}

func New(opts Options) http.Handler {
	var (
		usersRepo   users.Repository
		catalogRepo catalog.Repository
		petsRepo    pets.Repository
		apptsRepo   appointments.Repository
		storeRepo   store.Repository
	)

	if opts.DB != nil {
		usersRepo = postgres.NewUsersRepo(opts.DB)
		catalogRepo = postgres.NewCatalogRepo(opts.DB)
		petsRepo = postgres.NewPetsRepo(opts.DB)
		apptsRepo = postgres.NewAppointmentsRepo(opts.DB)
		storeRepo = postgres.NewStoreRepo(opts.DB)
	} else {
		usersRepo = memory.NewUsersRepo()
		catalogRepo = memory.NewCatalogRepo()
		petsRepo = memory.NewPetsRepo()
		apptsRepo = memory.NewAppointmentsRepo()
		storeRepo = memory.NewStoreRepo()
	}

	apptsSvc := appointments.NewService(apptsRepo)
	usersSvc := users.NewService(usersRepo, apptsSvc)
	catalogSvc := catalog.NewService(catalogRepo, petsRepo)
	petsSvc := pets.NewService(petsRepo)
	storeSvc := store.NewService(storeRepo)
	authSvc := auth.NewService(usersSvc, opts.Provider, opts.Issuer, opts.Log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AuthContext(opts.Verifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	auth.RegisterRoutes(r, authSvc)
	users.RegisterRoutes(r, usersSvc)
	catalog.RegisterRoutes(r, catalogSvc)
	pets.RegisterRoutes(r, petsSvc, catalogSvc)
	appointments.RegisterRoutes(r, apptsSvc, petsSvc, usersSvc)
	store.RegisterRoutes(r, storeSvc)

	return r
}
