package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
	login    *loginInfo
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
		headers:  nil,
		json:     nil,
		body:     nil,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Login(email, password string) *httpTestRequest {
	r.login = &loginInfo{Email: email, Password: password}
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

// response body will be parsed into result, passing nil indicates that no result is returned.
func (r *httpTestRequest) Do(result interface{}) error {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	if r.headers != nil {
		for k, v := range r.headers {
			req.Header.Add(k, v)
		}
	}

	if r.login != nil {
		req.SetBasicAuth(r.login.Email, r.login.Password)
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		if res.StatusCode == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		if res.StatusCode == http.StatusForbidden {
			return ErrForbidden
		}
		return fmt.Errorf("%v request to endpoint %v returned status %d, content '%v'", r.method, r.endpoint, res.StatusCode, w.Body.String())
	}

	if result != nil {
		err := json.NewDecoder(res.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type client struct {
	api       chi.Router
	authToken string
	userId    string
}

func (c *client) Get(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "GET", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Post(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "POST", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Delete(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "DELETE", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupArgs struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	Region        string   `json:"region"`
	CropInterests []string `json:"crop_interests"`
}

func (c *client) signup(args signupArgs) (loginInfo, error) {
	err := c.Post("/user/signup").Json(args).Do(nil)
	if err != nil {
		return loginInfo{}, err
	}

	return loginInfo{Email: args.Email, Password: args.Password}, nil
}

func (c *client) login(login loginInfo) error {
	var res map[string]string
	err := c.Get("/user/login").Login(login.Email, login.Password).Do(&res)
	if err != nil {
		return err
	}

	c.authToken = res["access_token"]
	c.userId = res["user_id"]

	return nil
}

func (c *client) logout() error {
	return c.Post("/user/logout").Do(nil)
}

type application struct {
	Id         string  `json:"application_id"`
	FarmerId   string  `json:"farmer_id"`
	FarmerName string  `json:"farmer_name"`
	SchemeId   string  `json:"scheme_id"`
	SchemeName string  `json:"scheme_name"`
	Status     string  `json:"status"`
	LandSize   float64 `json:"land_size"`
	CropType   string  `json:"crop_type"`
	Details    string  `json:"details"`
	AppliedAt  string  `json:"applied_at"`
}

type scheme struct {
	Id          string `json:"scheme_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Eligibility string `json:"eligibility"`
	Benefits    string `json:"benefits"`
	Deadline    string `json:"deadline"`
	Status      string `json:"status"`
}

type crop struct {
	Id          string   `json:"crop_id"`
	Name        string   `json:"name"`
	Season      string   `json:"season"`
	Region      string   `json:"region"`
	Description string   `json:"description"`
	Pesticides  []string `json:"pesticides"`
	Fertilizers []string `json:"fertilizers"`
}

type notification struct {
	Id        string `json:"notification_id"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	SentBy    string `json:"sent_by"`
	Timestamp string `json:"timestamp"`
}

type farmerDashboard struct {
	UnreadNotifications []notification `json:"unread_notifications"`
	RecommendedSchemes  []scheme       `json:"recommended_schemes"`
	TotalCrops          int            `json:"total_crops"`
	TotalSchemes        int            `json:"total_schemes"`
	TotalApplications   int            `json:"total_applications"`
}

type adminDashboard struct {
	TotalFarmers  int `json:"total_farmers"`
	TotalCrops    int `json:"total_crops"`
	ActiveSchemes int `json:"active_schemes"`

	PendingApplications  int `json:"pending_applications"`
	ApprovedApplications int `json:"approved_applications"`
	RejectedApplications int `json:"rejected_applications"`
	TotalApplications    int `json:"total_applications"`
}

type rosterEntry struct {
	Id               string   `json:"user_id"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Region           string   `json:"region"`
	CropInterests    []string `json:"crop_interests"`
	ApplicationCount int      `json:"application_count"`
}

type applyForm struct {
	Schemes []scheme `json:"schemes"`
	Crops   []crop   `json:"crops"`
	Draft   struct {
		SchemeId *string `json:"scheme_id"`
		Name     string  `json:"name"`
		LandSize string  `json:"land_size"`
		CropType string  `json:"crop_type"`
		Details  string  `json:"details"`
	} `json:"draft"`
}

func (c *client) createScheme(args map[string]interface{}) (string, error) {
	var res map[string]string
	if err := c.Post("/admin/schemes").Json(args).Do(&res); err != nil {
		return "", err
	}
	return res["scheme_id"], nil
}

func (c *client) createCrop(args map[string]interface{}) (string, error) {
	var res map[string]string
	if err := c.Post("/admin/crops").Json(args).Do(&res); err != nil {
		return "", err
	}
	return res["crop_id"], nil
}

func (c *client) sendNotification(message, notificationType string) (string, error) {
	var res struct {
		NotificationId string `json:"notification_id"`
		Recipients     int    `json:"recipients"`
	}
	err := c.Post("/admin/notifications").
		Json(map[string]string{"message": message, "type": notificationType}).
		Do(&res)
	if err != nil {
		return "", err
	}
	return res.NotificationId, nil
}

func (c *client) submitApplication(schemeId string, landSize float64, cropType, details string) (string, error) {
	var res map[string]string
	err := c.Post("/farmer/applications").Json(map[string]interface{}{
		"scheme_id": schemeId, "land_size": landSize, "crop_type": cropType, "details": details,
	}).Do(&res)
	if err != nil {
		return "", err
	}
	return res["application_id"], nil
}

func (c *client) setApplicationStatus(applicationId, status string) error {
	return c.Post(fmt.Sprintf("/admin/applications/%v/status", applicationId)).
		Json(map[string]string{"status": status}).
		Do(nil)
}

func (c *client) farmerApplications() ([]application, error) {
	var apps []application
	err := c.Get("/farmer/applications").Do(&apps)
	return apps, err
}

func (c *client) adminApplications() ([]application, error) {
	var apps []application
	err := c.Get("/admin/applications").Do(&apps)
	return apps, err
}
