package main

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/viper"

	"github.com/preesha73/chathub/server/adaptor"
	"github.com/preesha73/chathub/server/domain"
	"github.com/preesha73/chathub/server/repository"
	"github.com/preesha73/chathub/server/usecase"
)

const (
	listenAddrKey    = "listen_addr"
	dbPathKey        = "db_path"
	jwtSecretKey     = "jwt_secret"
	typingTTLKey     = "typing_ttl"
	presenceScopeKey = "presence_scope"
	historyLimitKey  = "history_limit"
)

func loadConfig() {
	viper.SetDefault(listenAddrKey, ":8080")
	viper.SetDefault(dbPathKey, "./chathub.db")
	viper.SetDefault(typingTTLKey, domain.DefaultTypingTTL)
	viper.SetDefault(presenceScopeKey, string(domain.PresenceGlobal))
	viper.SetDefault(historyLimitKey, 1000)

	viper.SetEnvPrefix("CHATHUB")
	viper.AutomaticEnv()

	viper.SetConfigName("chathub")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("error reading config file: %v", err)
		}
	}
}

func main() {
	loadConfig()

	secret := viper.GetString(jwtSecretKey)
	if secret == "" {
		log.Fatal("jwt_secret is required (set CHATHUB_JWT_SECRET or chathub.yaml)")
	}

	db, err := sql.Open("sqlite3", viper.GetString(dbPathKey))
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("failed to migrate db: %v", err)
	}

	repo := repository.New(db)
	uc := usecase.New(repo, secret)
	ingest := usecase.NewIngest(repo)

	presence := domain.NewPresenceRegistry()
	rooms := domain.NewMembership()
	hub := domain.NewHub(
		presence,
		rooms,
		ingest,
		viper.GetDuration(typingTTLKey),
		domain.PresenceScope(viper.GetString(presenceScopeKey)),
	)

	handler := adaptor.New(uc, hub, presence, viper.GetInt(historyLimitKey))

	addr := viper.GetString(listenAddrKey)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("chathub listening on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
