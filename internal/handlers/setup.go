package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/EliasObeid9-02/ChatLite/internal/models"
	"github.com/EliasObeid9-02/ChatLite/internal/store"
)

var sugar *zap.SugaredLogger
var chatStore *store.Store
var validate = validator.New()

func Setup(isHttps bool, cfg *models.ConfigFile, _sugar *zap.SugaredLogger, _chatStore *store.Store) error {
	sugar = _sugar
	chatStore = _chatStore

	r := chi.NewRouter()

	if cfg.PrintHttpRequests {
		r.Use(middleware.Logger)
	}
	if cfg.Cors {
		r.Use(AllowCors)
	}

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(r chi.Router) {
			r.Post("/login", Login)
			r.Post("/register", Register)
			r.With(UserVerifier).Get("/newSession", NewSession)
			r.With(UserVerifier).Get("/isLoggedIn", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		})

		api.Route("/channel", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Post("/create", CreateChannel)
			r.Post("/join", JoinChannel)
			r.Get("/fetch", GetChannelList)
			r.Get("/{channelID}", GetChannelDetails)
			r.Post("/{channelID}/rotateInvite", RotateInviteCode)
			r.Get("/{channelID}/messages", GetMessageList)
		})
	})

	if !cfg.BehindNginx {
		r.Handle("/cdn/*", http.StripPrefix("/cdn/", http.FileServer(http.Dir("./public"))))
		r.Handle("/*", http.FileServer(http.Dir("./public/static")))
	}

	r.With(UserVerifier).Get("/ws/{channelID}", HandleWebSocket)

	address := fmt.Sprintf("%s:%s", cfg.Address, cfg.Port)

	if isHttps {
		return http.ListenAndServeTLS(address, cfg.TlsCert, cfg.TlsKey, r)
	}
	return http.ListenAndServe(address, r)
}
