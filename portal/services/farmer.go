package services

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

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

type FarmerService struct {
	db       *gorm.DB
	store    *store.Gateway
	sessions *session.Manager
	userAuth auth.IdentityProvider
}

func (s *FarmerService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)
	r.Use(auth.FarmerOnly())

	r.Get("/dashboard", s.Dashboard)
	r.Get("/crops", s.Crops)
	r.Get("/schemes", s.Schemes)
	r.Get("/apply", s.ApplyForm)
	r.Get("/applications", s.Applications)

	r.Post("/tab", s.SetTab)
	r.Post("/apply-now", s.ApplyNow)
	r.Post("/applications", s.SubmitApplication)
	r.Post("/notifications/{notification_id}/read", s.MarkNotificationRead)

	return r
}

// session returns the caller's session, starting one if needed. A valid
// token can outlive the in-memory session, e.g. across a server restart.
func (s *FarmerService) session(user schema.UserProfile) session.Session {
	sess, err := s.sessions.Get(user.Id)
	if err != nil {
		s.sessions.Begin(user)
		sess, _ = s.sessions.Get(user.Id)
	}
	return sess
}

type cropResponse struct {
	Id          uuid.UUID `json:"crop_id"`
	Name        string    `json:"name"`
	Season      string    `json:"season"`
	Region      string    `json:"region"`
	Description string    `json:"description"`
	Pesticides  []string  `json:"pesticides"`
	Fertilizers []string  `json:"fertilizers"`
}

func newCropResponse(crop schema.Crop) cropResponse {
	return cropResponse{
		Id:          crop.Id,
		Name:        crop.Name,
		Season:      crop.Season,
		Region:      crop.Region,
		Description: crop.Description,
		Pesticides:  crop.InputNames(schema.CropInputPesticide),
		Fertilizers: crop.InputNames(schema.CropInputFertilizer),
	}
}

type schemeResponse struct {
	Id          uuid.UUID `json:"scheme_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Eligibility string    `json:"eligibility"`
	Benefits    string    `json:"benefits"`
	Deadline    string    `json:"deadline"`
	Status      string    `json:"status"`
}

func newSchemeResponse(scheme schema.Scheme) schemeResponse {
	return schemeResponse{
		Id:          scheme.Id,
		Title:       scheme.Title,
		Description: scheme.Description,
		Eligibility: scheme.Eligibility,
		Benefits:    scheme.Benefits,
		Deadline:    scheme.Deadline.Format("2006-01-02"),
		Status:      scheme.Status,
	}
}

type applicationResponse struct {
	Id         uuid.UUID `json:"application_id"`
	FarmerId   uuid.UUID `json:"farmer_id"`
	FarmerName string    `json:"farmer_name"`
	SchemeId   uuid.UUID `json:"scheme_id"`
	SchemeName string    `json:"scheme_name"`
	Status     string    `json:"status"`
	LandSize   float64   `json:"land_size"`
	CropType   string    `json:"crop_type"`
	Details    string    `json:"details"`
	AppliedAt  time.Time `json:"applied_at"`
}

func newApplicationResponse(app schema.Application) applicationResponse {
	return applicationResponse{
		Id:         app.Id,
		FarmerId:   app.FarmerId,
		FarmerName: app.FarmerName,
		SchemeId:   app.SchemeId,
		SchemeName: app.SchemeName,
		Status:     app.Status,
		LandSize:   app.LandSize,
		CropType:   app.CropType,
		Details:    app.Details,
		AppliedAt:  app.AppliedAt,
	}
}

type notificationResponse struct {
	Id        uuid.UUID `json:"notification_id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	SentBy    string    `json:"sent_by"`
	Timestamp time.Time `json:"timestamp"`
}

func newNotificationResponse(n schema.Notification) notificationResponse {
	return notificationResponse{
		Id:        n.Id,
		Message:   n.Message,
		Type:      n.Type,
		SentBy:    n.SentBy,
		Timestamp: n.Timestamp,
	}
}

type regionWeather struct {
	Region      string `json:"region"`
	Temperature string `json:"temperature"`
	Condition   string `json:"condition"`
	Humidity    string `json:"humidity"`
	Wind        string `json:"wind"`
}

var regionTemperatures = map[string]string{
	"Punjab": "28°C", "Haryana": "30°C", "UP": "31°C", "MP": "29°C",
	"Rajasthan": "35°C", "Maharashtra": "27°C", "Gujarat": "32°C",
}

var weatherConditions = []string{"Sunny", "Partly Cloudy", "Light Rain"}

// simulatedWeather is a placeholder insight, not a forecast integration.
func simulatedWeather(region string) regionWeather {
	temp, ok := regionTemperatures[region]
	if !ok {
		temp = "29°C"
	}
	return regionWeather{
		Region:      region,
		Temperature: temp,
		Condition:   weatherConditions[rand.Intn(len(weatherConditions))],
		Humidity:    fmt.Sprintf("%d%%", rand.Intn(30)+60),
		Wind:        fmt.Sprintf("%d km/h", rand.Intn(10)+5),
	}
}

var eligibilitySplit = regexp.MustCompile(`\W+`)

// recommendSchemes returns up to two schemes whose eligibility text contains
// one of the farmer's crop interests as a whole word, preserving the input
// (title) order.
func recommendSchemes(schemes []schema.Scheme, interests []string) []schema.Scheme {
	if len(interests) == 0 {
		return []schema.Scheme{}
	}

	recommended := make([]schema.Scheme, 0, 2)
	for _, scheme := range schemes {
		keywords := eligibilitySplit.Split(strings.ToLower(scheme.Eligibility), -1)
		match := false
		for _, interest := range interests {
			interest = strings.ToLower(interest)
			for _, keyword := range keywords {
				if keyword == interest {
					match = true
					break
				}
			}
			if match {
				break
			}
		}
		if match {
			recommended = append(recommended, scheme)
			if len(recommended) == 2 {
				break
			}
		}
	}
	return recommended
}

type farmerDashboardResponse struct {
	UnreadNotifications []notificationResponse `json:"unread_notifications"`
	RecommendedSchemes  []schemeResponse       `json:"recommended_schemes"`
	TotalCrops          int                    `json:"total_crops"`
	TotalSchemes        int                    `json:"total_schemes"`
	TotalApplications   int                    `json:"total_applications"`
	Weather             regionWeather          `json:"weather"`
}

func (s *FarmerService) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var notifications []schema.Notification
	var schemes []schema.Scheme
	var crops []schema.Crop
	var applications []schema.Application

	var group errgroup.Group
	group.Go(func() error {
		var err error
		notifications, err = s.store.ListNotifications()
		return err
	})
	group.Go(func() error {
		var err error
		schemes, err = s.store.ListSchemes()
		return err
	})
	group.Go(func() error {
		var err error
		crops, err = s.store.ListCrops()
		return err
	})
	group.Go(func() error {
		var err error
		applications, err = s.store.ListApplications(&user.Id)
		return err
	})

	if err := group.Wait(); err != nil {
		http.Error(w, fmt.Sprintf("error loading dashboard: %v", err), storeErrorCode(err))
		return
	}

	unread := make([]notificationResponse, 0)
	for _, n := range notifications {
		if n.UnreadBy(user.Id) {
			unread = append(unread, newNotificationResponse(n))
		}
	}

	recommended := make([]schemeResponse, 0, 2)
	for _, scheme := range recommendSchemes(schemes, user.Interests()) {
		recommended = append(recommended, newSchemeResponse(scheme))
	}

	utils.WriteJsonResponse(w, farmerDashboardResponse{
		UnreadNotifications: unread,
		RecommendedSchemes:  recommended,
		TotalCrops:          len(crops),
		TotalSchemes:        len(schemes),
		TotalApplications:   len(applications),
		Weather:             simulatedWeather(user.Region),
	})
}

func (s *FarmerService) Crops(w http.ResponseWriter, r *http.Request) {
	crops, err := s.store.ListCrops()
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing crops: %v", err), storeErrorCode(err))
		return
	}

	res := make([]cropResponse, 0, len(crops))
	for _, crop := range crops {
		res = append(res, newCropResponse(crop))
	}
	utils.WriteJsonResponse(w, res)
}

func (s *FarmerService) Schemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := s.store.ListSchemes()
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing schemes: %v", err), storeErrorCode(err))
		return
	}

	res := make([]schemeResponse, 0, len(schemes))
	for _, scheme := range schemes {
		res = append(res, newSchemeResponse(scheme))
	}
	utils.WriteJsonResponse(w, res)
}

type applyFormResponse struct {
	Schemes []schemeResponse         `json:"schemes"`
	Crops   []cropResponse           `json:"crops"`
	Draft   session.ApplicationDraft `json:"draft"`
}

func (s *FarmerService) ApplyForm(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var schemes []schema.Scheme
	var crops []schema.Crop

	var group errgroup.Group
	group.Go(func() error {
		var err error
		schemes, err = s.store.ListSchemes()
		return err
	})
	group.Go(func() error {
		var err error
		crops, err = s.store.ListCrops()
		return err
	})

	if err := group.Wait(); err != nil {
		http.Error(w, fmt.Sprintf("error loading application form: %v", err), storeErrorCode(err))
		return
	}

	res := applyFormResponse{
		Schemes: make([]schemeResponse, 0, len(schemes)),
		Crops:   make([]cropResponse, 0, len(crops)),
		Draft:   s.session(user).Draft,
	}
	for _, scheme := range schemes {
		res.Schemes = append(res.Schemes, newSchemeResponse(scheme))
	}
	for _, crop := range crops {
		res.Crops = append(res.Crops, newCropResponse(crop))
	}
	utils.WriteJsonResponse(w, res)
}

func (s *FarmerService) Applications(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	applications, err := s.store.ListApplications(&user.Id)
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing applications: %v", err), storeErrorCode(err))
		return
	}

	// The filtered query gives no order, sort newest first here.
	sort.Slice(applications, func(i, j int) bool {
		return applications[i].AppliedAt.After(applications[j].AppliedAt)
	})

	res := make([]applicationResponse, 0, len(applications))
	for _, app := range applications {
		res = append(res, newApplicationResponse(app))
	}
	utils.WriteJsonResponse(w, res)
}

type setTabRequest struct {
	Tab string `json:"tab"`
}

func (s *FarmerService) SetTab(w http.ResponseWriter, r *http.Request) {
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
	if err := s.sessions.SetFarmerTab(user.Id, params.Tab); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	utils.WriteSuccess(w)
}

type applyNowRequest struct {
	SchemeId uuid.UUID `json:"scheme_id"`
}

func (s *FarmerService) ApplyNow(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params applyNowRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if _, err := schema.GetScheme(params.SchemeId, s.db); err != nil {
		if errors.Is(err, schema.ErrSchemeNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.session(user)
	if err := s.sessions.PrefillScheme(user.Id, params.SchemeId); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	utils.WriteSuccess(w)
}

type submitApplicationRequest struct {
	SchemeId uuid.UUID `json:"scheme_id"`
	LandSize float64   `json:"land_size"`
	CropType string    `json:"crop_type"`
	Details  string    `json:"details"`
}

type submitApplicationResponse struct {
	ApplicationId uuid.UUID `json:"application_id"`
}

func (s *FarmerService) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params submitApplicationRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	scheme, err := schema.GetScheme(params.SchemeId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrSchemeNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	applicationId, err := s.store.CreateApplication(schema.Application{
		FarmerId:   user.Id,
		FarmerName: user.Name,
		SchemeId:   scheme.Id,
		SchemeName: scheme.Title,
		Status:     schema.Pending,
		LandSize:   params.LandSize,
		CropType:   params.CropType,
		Details:    params.Details,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error submitting application: %v", err), storeErrorCode(err))
		return
	}

	s.session(user)
	if err := s.sessions.ResetDraft(user.Id); err != nil {
		slog.Error("error resetting application draft", "user_id", user.Id, "error", err)
	}
	if err := s.sessions.SetFarmerTab(user.Id, "applications"); err != nil {
		slog.Error("error switching tab after application submit", "user_id", user.Id, "error", err)
	}

	utils.WriteJsonResponse(w, submitApplicationResponse{ApplicationId: applicationId})
}

func (s *FarmerService) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	notificationId, err := utils.URLParamUUID(r, "notification_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.MarkNotificationRead(notificationId, user.Id); err != nil {
		http.Error(w, fmt.Sprintf("error marking notification as read: %v", err), storeErrorCode(err))
		return
	}
	utils.WriteSuccess(w)
}
