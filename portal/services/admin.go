package services

import (
	"fmt"
	"net/http"
	"strings"

	"agriportal/portal/auth"
	"agriportal/portal/schema"
	"agriportal/portal/session"
	"agriportal/portal/store"
	"agriportal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type AdminService struct {
	db       *gorm.DB
	store    *store.Gateway
	sessions *session.Manager
	userAuth auth.IdentityProvider
}

func (s *AdminService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)
	r.Use(auth.AdminOnly())

	r.Get("/dashboard", s.Dashboard)
	r.Get("/applications", s.Applications)
	r.Get("/users", s.Users)

	r.Post("/tab", s.SetTab)
	r.Post("/applications/{application_id}/status", s.SetApplicationStatus)
	r.Post("/crops", s.CreateCrop)
	r.Post("/schemes", s.CreateScheme)
	r.Post("/notifications", s.SendNotification)

	r.Delete("/users/{user_id}", s.DeactivateUser)

	return r
}

func (s *AdminService) session(user schema.UserProfile) session.Session {
	sess, err := s.sessions.Get(user.Id)
	if err != nil {
		s.sessions.Begin(user)
		sess, _ = s.sessions.Get(user.Id)
	}
	return sess
}

type adminDashboardResponse struct {
	TotalFarmers  int `json:"total_farmers"`
	TotalCrops    int `json:"total_crops"`
	ActiveSchemes int `json:"active_schemes"`

	PendingApplications  int `json:"pending_applications"`
	ApprovedApplications int `json:"approved_applications"`
	RejectedApplications int `json:"rejected_applications"`
	TotalApplications    int `json:"total_applications"`
}

func (s *AdminService) Dashboard(w http.ResponseWriter, r *http.Request) {
	var users []schema.UserProfile
	var crops []schema.Crop
	var schemes []schema.Scheme
	var applications []schema.Application

	var group errgroup.Group
	group.Go(func() error {
		var err error
		users, err = s.store.ListUsers()
		return err
	})
	group.Go(func() error {
		var err error
		crops, err = s.store.ListCrops()
		return err
	})
	group.Go(func() error {
		var err error
		schemes, err = s.store.ListSchemes()
		return err
	})
	group.Go(func() error {
		var err error
		applications, err = s.store.ListApplications(nil)
		return err
	})

	if err := group.Wait(); err != nil {
		http.Error(w, fmt.Sprintf("error loading dashboard: %v", err), storeErrorCode(err))
		return
	}

	res := adminDashboardResponse{
		TotalCrops:        len(crops),
		TotalApplications: len(applications),
	}
	for _, user := range users {
		if user.Role == schema.RoleFarmer {
			res.TotalFarmers++
		}
	}
	for _, scheme := range schemes {
		if scheme.Status == schema.SchemeActive {
			res.ActiveSchemes++
		}
	}
	for _, app := range applications {
		switch app.Status {
		case schema.Pending:
			res.PendingApplications++
		case schema.Approved:
			res.ApprovedApplications++
		case schema.Rejected:
			res.RejectedApplications++
		}
	}

	utils.WriteJsonResponse(w, res)
}

func (s *AdminService) Applications(w http.ResponseWriter, r *http.Request) {
	applications, err := s.store.ListApplications(nil)
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing applications: %v", err), storeErrorCode(err))
		return
	}

	res := make([]applicationResponse, 0, len(applications))
	for _, app := range applications {
		res = append(res, newApplicationResponse(app))
	}
	utils.WriteJsonResponse(w, res)
}

type farmerRosterEntry struct {
	Id               uuid.UUID `json:"user_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Region           string    `json:"region"`
	CropInterests    []string  `json:"crop_interests"`
	ApplicationCount int       `json:"application_count"`
}

func (s *AdminService) Users(w http.ResponseWriter, r *http.Request) {
	var users []schema.UserProfile
	var applications []schema.Application

	var group errgroup.Group
	group.Go(func() error {
		var err error
		users, err = s.store.ListUsers()
		return err
	})
	group.Go(func() error {
		var err error
		applications, err = s.store.ListApplications(nil)
		return err
	})

	if err := group.Wait(); err != nil {
		http.Error(w, fmt.Sprintf("error listing users: %v", err), storeErrorCode(err))
		return
	}

	applicationCounts := make(map[uuid.UUID]int)
	for _, app := range applications {
		applicationCounts[app.FarmerId]++
	}

	search := strings.ToLower(r.URL.Query().Get("search"))

	res := make([]farmerRosterEntry, 0, len(users))
	for _, user := range users {
		if user.Role != schema.RoleFarmer {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(user.Name), search) &&
			!strings.Contains(strings.ToLower(user.Email), search) {
			continue
		}
		res = append(res, farmerRosterEntry{
			Id:               user.Id,
			Name:             user.Name,
			Email:            user.Email,
			Region:           user.Region,
			CropInterests:    user.Interests(),
			ApplicationCount: applicationCounts[user.Id],
		})
	}
	utils.WriteJsonResponse(w, res)
}

func (s *AdminService) SetTab(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params setTabRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	s.session(user)
	if err := s.sessions.SetAdminTab(user.Id, params.Tab); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	utils.WriteSuccess(w)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (s *AdminService) SetApplicationStatus(w http.ResponseWriter, r *http.Request) {
	applicationId, err := utils.URLParamUUID(r, "application_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params setStatusRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if err := s.store.SetApplicationStatus(applicationId, params.Status); err != nil {
		http.Error(w, fmt.Sprintf("error updating application status: %v", err), storeErrorCode(err))
		return
	}
	utils.WriteSuccess(w)
}

type createCropRequest struct {
	Name        string   `json:"name"`
	Season      string   `json:"season"`
	Region      string   `json:"region"`
	Description string   `json:"description"`
	Pesticides  []string `json:"pesticides"`
	Fertilizers []string `json:"fertilizers"`
}

type createCropResponse struct {
	CropId uuid.UUID `json:"crop_id"`
}

func (s *AdminService) CreateCrop(w http.ResponseWriter, r *http.Request) {
	var params createCropRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	cropId, err := s.store.CreateCrop(schema.Crop{
		Name:        params.Name,
		Season:      params.Season,
		Region:      params.Region,
		Description: params.Description,
	}, params.Pesticides, params.Fertilizers)
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating crop: %v", err), storeErrorCode(err))
		return
	}
	utils.WriteJsonResponse(w, createCropResponse{CropId: cropId})
}

type createSchemeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Eligibility string `json:"eligibility"`
	Benefits    string `json:"benefits"`
	Deadline    string `json:"deadline"`
	Status      string `json:"status"`
}

type createSchemeResponse struct {
	SchemeId uuid.UUID `json:"scheme_id"`
}

func (s *AdminService) CreateScheme(w http.ResponseWriter, r *http.Request) {
	var params createSchemeRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	schemeId, err := s.store.CreateScheme(schema.Scheme{
		Title:       params.Title,
		Description: params.Description,
		Eligibility: params.Eligibility,
		Benefits:    params.Benefits,
		Status:      params.Status,
	}, params.Deadline)
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating scheme: %v", err), storeErrorCode(err))
		return
	}
	utils.WriteJsonResponse(w, createSchemeResponse{SchemeId: schemeId})
}

type sendNotificationRequest struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type sendNotificationResponse struct {
	NotificationId uuid.UUID `json:"notification_id"`
	Recipients     int       `json:"recipients"`
}

func (s *AdminService) SendNotification(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params sendNotificationRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if strings.TrimSpace(params.Message) == "" {
		http.Error(w, "notification message cannot be empty", http.StatusUnprocessableEntity)
		return
	}
	if params.Type == "" {
		params.Type = "info"
	}

	users, err := s.store.ListUsers()
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing notification recipients: %v", err), storeErrorCode(err))
		return
	}

	// Recipients are the farmers that exist right now. Farmers registered
	// later never receive this notification.
	recipients := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		if u.Role == schema.RoleFarmer {
			recipients = append(recipients, u.Id)
		}
	}

	notificationId, err := s.store.CreateNotification(schema.Notification{
		Message: params.Message,
		Type:    params.Type,
		SentBy:  user.Id.String(),
	}, recipients)
	if err != nil {
		http.Error(w, fmt.Sprintf("error sending notification: %v", err), storeErrorCode(err))
		return
	}

	utils.WriteJsonResponse(w, sendNotificationResponse{
		NotificationId: notificationId,
		Recipients:     len(recipients),
	})
}

func (s *AdminService) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The identity account must go first. If the profile were deleted and
	// the provider call then failed, the surviving account could log back
	// in and be issued a fresh default profile.
	if err := s.userAuth.DeleteUser(userId); err != nil {
		http.Error(w, fmt.Sprintf("error deleting user %v from identity provider: %v", userId, err), http.StatusInternalServerError)
		return
	}

	if err := s.store.DeactivateUser(userId); err != nil {
		http.Error(w, fmt.Sprintf("error deactivating user %v: %v", userId, err), storeErrorCode(err))
		return
	}

	s.sessions.End(userId)

	utils.WriteSuccess(w)
}
