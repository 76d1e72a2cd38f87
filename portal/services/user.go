package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"agriportal/portal/auth"
	"agriportal/portal/schema"
	"agriportal/portal/session"
	"agriportal/portal/store"
	"agriportal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	store    *store.Gateway
	sessions *session.Manager
	userAuth auth.IdentityProvider
}

func (s *UserService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if s.userAuth.AllowDirectSignup() {
			r.Post("/signup", s.Signup)
		}

		r.Get("/login", s.LoginWithEmail)
		r.Post("/login-with-token", s.LoginWithToken)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Post("/logout", s.Logout)
		r.Get("/info", s.Info)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly())

		r.Get("/list", s.List)
		r.Post("/create", s.CreateUser)
	})

	return r
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	Name          string   `json:"name"`
	Region        string   `json:"region"`
	CropInterests []string `json:"crop_interests"`
}

type signupResponse struct {
	UserId uuid.UUID `json:"user_id"`
}

func (s *UserService) Signup(w http.ResponseWriter, r *http.Request) {
	var params signupRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	// Self registration always produces a farmer. Admins are created at
	// startup or through the admin-only create endpoint.
	userId, err := s.userAuth.CreateUser(params.Email, params.Password, auth.ProfileSeed{
		Name:          params.Name,
		Role:          schema.RoleFarmer,
		Region:        params.Region,
		CropInterests: params.CropInterests,
	})
	if err != nil {
		responseCode := http.StatusInternalServerError
		if errors.Is(err, auth.ErrEmailAlreadyInUse) {
			responseCode = http.StatusConflict
		}
		http.Error(w, err.Error(), responseCode)
		return
	}

	utils.WriteJsonResponse(w, signupResponse{UserId: userId})
}

type loginResponse struct {
	UserId      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"access_token"`
}

// beginSession starts a fresh session for the user, discarding any previous
// tab or draft state.
func (s *UserService) beginSession(userId uuid.UUID) {
	user, err := schema.GetUser(userId, s.db)
	if err != nil {
		slog.Error("error loading profile to start session", "user_id", userId, "error", err)
		return
	}
	s.sessions.Begin(user)
}

func (s *UserService) LoginWithEmail(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
		return
	}

	login, err := s.userAuth.LoginWithEmail(email, password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrUserNotFoundWithEmail):
			responseCode = http.StatusNotFound
		case errors.Is(err, auth.ErrInvalidCredentials):
			responseCode = http.StatusUnauthorized
		}
		http.Error(w, fmt.Sprintf("login failed: %v", err), responseCode)
		return
	}

	s.beginSession(login.UserId)

	utils.WriteJsonResponse(w, loginResponse{UserId: login.UserId, AccessToken: login.AccessToken})
}

type loginWithTokenRequest struct {
	AccessToken string `json:"access_token"`
}

func (s *UserService) LoginWithToken(w http.ResponseWriter, r *http.Request) {
	var params loginWithTokenRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	login, err := s.userAuth.LoginWithToken(params.AccessToken)
	if err != nil {
		http.Error(w, fmt.Sprintf("login failed: %v", err), http.StatusInternalServerError)
		return
	}

	s.beginSession(login.UserId)

	utils.WriteJsonResponse(w, loginResponse{UserId: login.UserId, AccessToken: login.AccessToken})
}

func (s *UserService) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.sessions.End(user.Id)
	utils.WriteSuccess(w)
}

type userInfoResponse struct {
	Id            uuid.UUID `json:"user_id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	Region        string    `json:"region"`
	CropInterests []string  `json:"crop_interests"`
}

func newUserInfoResponse(user schema.UserProfile) userInfoResponse {
	return userInfoResponse{
		Id:            user.Id,
		Email:         user.Email,
		Name:          user.Name,
		Role:          user.Role,
		Region:        user.Region,
		CropInterests: user.Interests(),
	}
}

func (s *UserService) Info(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	utils.WriteJsonResponse(w, newUserInfoResponse(user))
}

func (s *UserService) List(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers()
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing users: %v", err), storeErrorCode(err))
		return
	}

	res := make([]userInfoResponse, 0, len(users))
	for _, user := range users {
		res = append(res, newUserInfoResponse(user))
	}
	utils.WriteJsonResponse(w, res)
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	Name          string   `json:"name"`
	Role          string   `json:"role"`
	Region        string   `json:"region"`
	CropInterests []string `json:"crop_interests"`
}

func (s *UserService) CreateUser(w http.ResponseWriter, r *http.Request) {
	var params createUserRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Role != "" && params.Role != schema.RoleFarmer && params.Role != schema.RoleAdmin {
		http.Error(w, fmt.Sprintf("invalid role '%v'", params.Role), http.StatusUnprocessableEntity)
		return
	}

	userId, err := s.userAuth.CreateUser(params.Email, params.Password, auth.ProfileSeed{
		Name:          params.Name,
		Role:          params.Role,
		Region:        params.Region,
		CropInterests: params.CropInterests,
	})
	if err != nil {
		responseCode := http.StatusInternalServerError
		if errors.Is(err, auth.ErrEmailAlreadyInUse) {
			responseCode = http.StatusConflict
		}
		http.Error(w, err.Error(), responseCode)
		return
	}

	utils.WriteJsonResponse(w, signupResponse{UserId: userId})
}
