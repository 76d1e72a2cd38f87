package services

import (
	"log"
	"net/http"
	"os"

	"agriportal/portal/auth"
	"agriportal/portal/session"
	"agriportal/portal/store"
	"agriportal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

// Portal aggregates the role-scoped services behind a single router.
type Portal struct {
	user   UserService
	farmer FarmerService
	admin  AdminService

	db *gorm.DB
}

func NewPortal(db *gorm.DB, userAuth auth.IdentityProvider) Portal {
	gateway := store.NewGateway(db)
	sessions := session.NewManager()

	return Portal{
		user:   UserService{db: db, store: gateway, sessions: sessions, userAuth: userAuth},
		farmer: FarmerService{db: db, store: gateway, sessions: sessions, userAuth: userAuth},
		admin:  AdminService{db: db, store: gateway, sessions: sessions, userAuth: userAuth},
		db:     db,
	}
}

func (p *Portal) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	r.Mount("/user", p.user.Routes())
	r.Mount("/farmer", p.farmer.Routes())
	r.Mount("/admin", p.admin.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w)
	})

	return r
}
