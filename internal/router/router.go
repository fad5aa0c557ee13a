package router

import (
	"database/sql"
	"net/http"

	"pet-care-api/internal/adapters/auth/jwtcodec"
	"pet-care-api/internal/adapters/crypto/argon2id"
	"pet-care-api/internal/adapters/revocation"
	mem "pet-care-api/internal/adapters/storage/memory"
	pg "pet-care-api/internal/adapters/storage/postgres"
	"pet-care-api/internal/domain/pets"
	"pet-care-api/internal/domain/sessions"
	"pet-care-api/internal/domain/users"
	"pet-care-api/internal/domain/vaccines"
	"pet-care-api/internal/middleware"
	"pet-care-api/internal/platform/config"
	"pet-care-api/internal/platform/logger"
	"pet-care-api/internal/platform/metrics"
	"pet-care-api/internal/ports/auth"

	_ "pet-care-api/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Config config.Config

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: si viene, las revocaciones viven en Redis (compartidas entre réplicas).
	Redis redis.UniversalClient

	Logger  logger.Logger    // nil => Nop
	Metrics *metrics.Metrics // nil => registry propio
}

func NewRouter(opts Options) (http.Handler, error) {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	var (
		userRepo    users.Repository
		petRepo     pets.Repository
		vaccineRepo vaccines.Repository
		revocations auth.RevocationStore
	)

	if opts.DB != nil {
		userRepo = pg.NewUsersRepo(opts.DB)
		petRepo = pg.NewPetsRepo(opts.DB)
		vaccineRepo = pg.NewVaccinesRepo(opts.DB)
	} else {
		userRepo = mem.NewUserRepo()
		petRepo = mem.NewPetRepo()
		vaccineRepo = mem.NewVaccineRepo(petRepo)
	}

	if opts.Redis != nil {
		revocations = revocation.NewRedisStore(opts.Redis)
	} else {
		revocations = revocation.NewMemoryStore()
	}

	codec, err := jwtcodec.New(jwtcodec.Config{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer})
	if err != nil {
		return nil, err
	}
	hasher := argon2id.New(argon2id.Params{
		MemoryKB:    cfg.Auth.Argon2.MemoryKB,
		Iterations:  cfg.Auth.Argon2.Iterations,
		Parallelism: cfg.Auth.Argon2.Parallelism,
	})

	// Services por módulo
	sessionsSvc := sessions.NewService(userRepo, hasher, codec, revocations, sessions.Options{
		TokenTTL:              cfg.Auth.TokenTTL,
		Metrics:               m,
		Logger:                log,
		AllowPrivilegedSignup: cfg.Auth.AllowPrivilegedSignup,
	})
	petsSvc := pets.NewService(petRepo, users.NewOwnerDirectory(userRepo))
	vaccinesSvc := vaccines.NewService(vaccineRepo, petsSvc)
	usersSvc := users.NewService(userRepo, petsSvc, sessionsSvc)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log, m))
	r.Use(middleware.Recover(log))

	r.Use(middleware.AuthContext(sessionsSvc, cfg.Auth.DebugHeaders))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Rutas por módulo
	sessions.RegisterRoutes(r, sessionsSvc)
	users.RegisterRoutes(r, usersSvc)
	pets.RegisterRoutes(r, petsSvc)
	vaccines.RegisterRoutes(r, vaccinesSvc)

	return r, nil
}
