package httpx

import "net/http"

// OwnerExtractor resolves the owner identity of the resource a request
// targets, typically via a store lookup on a path parameter.
type OwnerExtractor func(*http.Request) (string, error)

// RequireOwner rejects requests whose authenticated user is not the owner of
// the targeted resource. Must run after AuthnMiddleware.
//
// A mismatch answers 401, not 403. That status predates this package and is
// what existing clients key off, so it stays.
func RequireOwner(owner OwnerExtractor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID, err := owner(r)
			if err != nil {
				WriteMsg(w, http.StatusInternalServerError, "Server error")
				return
			}

			if ownerID == "" || ownerID != UserIDFromCtx(r.Context()) {
				WriteMsg(w, http.StatusUnauthorized, "User not authorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
