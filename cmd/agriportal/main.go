package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"agriportal/portal/auth"
	"agriportal/portal/schema"
	"agriportal/portal/seed"
	"agriportal/portal/services"
	"agriportal/portal/store"

	"github.com/caarlos0/env/v10"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type portalEnv struct {
	DatabaseUri string `env:"DATABASE_URI,required"`

	PublicHostname string `env:"PUBLIC_HOSTNAME" envDefault:"localhost"`
	LogDir         string `env:"LOG_DIR" envDefault:"logs"`

	AdminName     string `env:"ADMIN_NAME,required"`
	AdminEmail    string `env:"ADMIN_EMAIL,required"`
	AdminPassword string `env:"ADMIN_PASSWORD,required"`

	IdentityProvider string `env:"IDENTITY_PROVIDER" envDefault:"basic"`

	// Required for the basic identity provider.
	JwtSecret string `env:"JWT_SECRET"`

	// Required for the keycloak identity provider.
	KeycloakServerUrl     string `env:"KEYCLOAK_SERVER_URL"`
	KeycloakAdminUsername string `env:"KEYCLOAK_ADMIN_USER"`
	KeycloakAdminPassword string `env:"KEYCLOAK_ADMIN_PASSWORD"`
	UseSslInLogin         bool   `env:"USE_SSL_IN_LOGIN"`
}

func loadEnvFile(envFile string) {
	slog.Info(fmt.Sprintf("loading env from file %v", envFile))
	err := godotenv.Load(envFile)
	if err != nil {
		log.Fatalf("error loading .env file '%v': %v", envFile, err)
	}
}

func loadEnv() portalEnv {
	var cfg portalEnv
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error loading config from environment: %v", err)
	}

	switch cfg.IdentityProvider {
	case "basic":
		if cfg.JwtSecret == "" {
			log.Fatal("JWT_SECRET must be set when using the basic identity provider")
		}
	case "keycloak":
		if cfg.KeycloakServerUrl == "" || cfg.KeycloakAdminUsername == "" || cfg.KeycloakAdminPassword == "" {
			log.Fatal("KEYCLOAK_SERVER_URL, KEYCLOAK_ADMIN_USER, and KEYCLOAK_ADMIN_PASSWORD must be set when using the keycloak identity provider")
		}
	default:
		log.Fatalf("unknown identity provider '%v', expected 'basic' or 'keycloak'", cfg.IdentityProvider)
	}

	return cfg
}

func postgresDsn(uri string) string {
	parts, err := url.Parse(uri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func initLogging(logFile *os.File) {
	log.SetFlags(log.Lshortfile | log.Ltime | log.Ldate)
	log.SetOutput(io.MultiWriter(logFile, os.Stderr))
	slog.Info("logging initialized", "log_file", logFile.Name())
}

func initDb(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	err = db.AutoMigrate(
		&schema.UserProfile{}, &schema.CropInterest{},
		&schema.Crop{}, &schema.CropInput{}, &schema.Scheme{},
		&schema.Application{},
		&schema.Notification{}, &schema.NotificationReceipt{},
	)
	if err != nil {
		log.Fatalf("error migrating db schema: %v", err)
	}

	return db
}

func main() {
	envFile := flag.String("env", "", "File to load env variables from. If not specified will just load them from the environment variables already defined.")
	seedFile := flag.String("seed", "", "Optional yaml catalog of crops and schemes to create at startup.")
	port := flag.Int("port", 8000, "Port to run server on")

	flag.Parse()

	if *envFile != "" {
		loadEnvFile(*envFile)
	}
	cfg := loadEnv()

	err := os.MkdirAll(cfg.LogDir, 0777)
	if err != nil {
		log.Fatalf("error creating log dir: %v", err)
	}

	logFile, err := os.OpenFile(filepath.Join(cfg.LogDir, "agriportal.log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer logFile.Close()

	auditLog, err := os.OpenFile(filepath.Join(cfg.LogDir, "audit.log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		log.Fatalf("error opening audit log file: %v", err)
	}
	defer auditLog.Close()

	initLogging(logFile)

	db := initDb(postgresDsn(cfg.DatabaseUri))

	var identityProvider auth.IdentityProvider
	if cfg.IdentityProvider == "keycloak" {
		identityProvider, err = auth.NewKeycloakIdentityProvider(
			db,
			auth.NewAuditLogger(auditLog),
			auth.KeycloakArgs{
				KeycloakServerUrl:     cfg.KeycloakServerUrl,
				KeycloakAdminUsername: cfg.KeycloakAdminUsername,
				KeycloakAdminPassword: cfg.KeycloakAdminPassword,
				AdminName:             cfg.AdminName,
				AdminEmail:            cfg.AdminEmail,
				AdminPassword:         cfg.AdminPassword,
				PublicHostname:        cfg.PublicHostname,
				SslLogin:              cfg.UseSslInLogin,
			},
		)
		if err != nil {
			log.Fatalf("error creating keycloak identity provider: %v", err)
		}
	} else {
		identityProvider, err = auth.NewBasicIdentityProvider(
			db,
			auth.NewAuditLogger(auditLog),
			auth.BasicProviderArgs{
				Secret:        []byte(cfg.JwtSecret),
				AdminName:     cfg.AdminName,
				AdminEmail:    cfg.AdminEmail,
				AdminPassword: cfg.AdminPassword,
			},
		)
		if err != nil {
			log.Fatalf("error creating basic identity provider: %v", err)
		}
	}

	if *seedFile != "" {
		catalog, err := seed.LoadCatalog(*seedFile)
		if err != nil {
			log.Fatalf("error loading seed catalog: %v", err)
		}
		if err := seed.Apply(catalog, store.NewGateway(db)); err != nil {
			log.Fatalf("error applying seed catalog: %v", err)
		}
	}

	portal := services.NewPortal(db, identityProvider)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.PublicHostname},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/api/v1", portal.Routes())

	slog.Info("starting server", "port", *port)
	err = http.ListenAndServe(fmt.Sprintf(":%d", *port), r)
	if err != nil {
		log.Fatalf("listen and serve returned error: %v", err.Error())
	}
}
