package auth

import (
	"fmt"
	"net/http"

	"agriportal/portal/schema"
)

func AdminOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if user.Role != schema.RoleAdmin {
				http.Error(w, fmt.Sprintf("user %v is not an admin", user.Id), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

func FarmerOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if user.Role != schema.RoleFarmer {
				http.Error(w, fmt.Sprintf("user %v is not a farmer", user.Id), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
