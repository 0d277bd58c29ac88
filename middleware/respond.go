package middleware

import (
	"encoding/json"
	"net/http"

	authcore "github.com/veilmail/authcore"
)

type errorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func writeRejection(w http.ResponseWriter, rej *authcore.Rejection) {
	writeError(w, rej.HTTPStatus(), rej.Code, rej.Message, string(rej.Severity))
}

func writeError(w http.ResponseWriter, status int, code, message, severity string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Success: false,
		Error:   errorBody{Code: code, Message: message, Severity: severity},
	})
}
