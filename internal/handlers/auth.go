package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/EliasObeid9-02/ChatLite/internal/jwt"
	"github.com/EliasObeid9-02/ChatLite/internal/models"
	"github.com/EliasObeid9-02/ChatLite/internal/snowflake"
	"github.com/EliasObeid9-02/ChatLite/internal/store"
)

func Login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	var login LoginRequest
	err := json.NewDecoder(r.Body).Decode(&login)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	user, err := chatStore.UserByUsername(r.Context(), login.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sugar.Debug(err)
			http.Error(w, "", http.StatusUnauthorized)
		} else {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
		}
		return
	}

	err = bcrypt.CompareHashAndPassword(user.Password, []byte(login.Password))
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusUnauthorized)
		return
	}

	cookie, err := jwt.CreateToken(r.URL.Query().Get("rememberMe") == "true", user.ID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &cookie)
}

func Register(w http.ResponseWriter, r *http.Request) {
	type Registration struct {
		Username        string `json:"username" validate:"required,min=3,max=32"`
		Email           string `json:"email" validate:"required,email"`
		Password        string `json:"password" validate:"eqfield=ConfirmPassword,min=6"`
		ConfirmPassword string `json:"confirmPassword"`
	}

	var registration Registration
	err := json.NewDecoder(r.Body).Decode(&registration)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	err = validate.Struct(registration)
	if err != nil {
		var validateErrs validator.ValidationErrors
		if !errors.As(err, &validateErrs) {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}

		registerErrors := make(map[string]string)
		for _, e := range validateErrs {
			registerErrors[e.Field()] = e.Tag()
		}

		// sends back 400 with the form field errors
		w.WriteHeader(http.StatusBadRequest)
		encodeErr := json.NewEncoder(w).Encode(registerErrors)
		if encodeErr != nil {
			sugar.Error(encodeErr)
		}
		return
	}

	_, err = chatStore.UserByUsername(r.Context(), registration.Username)
	if err == nil {
		http.Error(w, "Username is already taken", http.StatusBadRequest)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	userID, err := snowflake.Generate()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	passwordBytes, err := bcrypt.GenerateFromPassword([]byte(registration.Password), 12)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	user := models.User{
		ID:          userID,
		Username:    registration.Username,
		Email:       registration.Email,
		DisplayName: registration.Username,
		Password:    passwordBytes,
	}

	// account and profile fields land in one statement, there is no
	// second step that can be missed
	err = chatStore.CreateUser(r.Context(), user)
	if err != nil {
		// a racing registration can slip past the availability check
		// above and hit the unique constraint instead
		if errors.Is(err, store.ErrValidation) {
			sugar.Debug(err)
			http.Error(w, "Username is already taken", http.StatusBadRequest)
			return
		}
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	cookie, err := jwt.CreateToken(false, userID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &cookie)
	w.WriteHeader(http.StatusCreated)
}

// NewSession hands out the session cookie the websocket hub keys its
// client registry on.
func NewSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := snowflake.Generate()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	sessionCookie := http.Cookie{
		Name:     "session",
		Value:    fmt.Sprint(sessionID),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, &sessionCookie)
}
