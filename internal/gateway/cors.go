package gateway

import "net/http"

// HandleOptions answers OPTIONS requests. A request carrying both an Origin
// header and an Access-Control-Request-Method header is a CORS preflight and
// is answered with the allowed methods plus an echo of the requested headers.
// Anything else is a bare OPTIONS probe and gets a plain Allow header.
func HandleOptions(w http.ResponseWriter, r *http.Request) {
	headers := r.Header

	if headers.Get("Origin") != "" && headers.Get("Access-Control-Request-Method") != "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", headers.Get("Access-Control-Request-Headers"))
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Allow", "GET, POST, HEAD, OPTIONS")
	w.WriteHeader(http.StatusOK)
}

// SetCORSHeaders adds the fixed CORS header set carried by every non-OPTIONS
// response, success or error. Headers are written fresh per response; there is
// no shared header state between requests.
func SetCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "*")
}
