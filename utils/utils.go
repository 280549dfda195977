package utils

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	apperrors "github.com/nijaru/yt-summary/errors"
)

// WantsJSON reports whether the client asked for a JSON response.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func HandleError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RespondWithError writes err as plain text, or as JSON for JSON clients.
// Anything that is not an AppError is reported with the generic message.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal("RespondWithError", err, apperrors.GenericMessage)
	}

	if WantsJSON(r) {
		HandleError(w, appErr.Message, appErr.Code)
		return
	}
	RespondWithText(w, appErr.Code, appErr.Message)
}

func RespondWithText(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	w.Write([]byte(message))
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
		HandleError(w, apperrors.GenericMessage, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(body, '\n'))
}

// FormatText puts every sentence on its own line. A terminator only ends a
// sentence when whitespace or the end of the text follows it, so "3.14"
// stays intact.
func FormatText(text string) string {
	runes := []rune(strings.TrimSpace(text))
	var builder strings.Builder
	for i := 0; i < len(runes); i++ {
		builder.WriteRune(runes[i])
		switch runes[i] {
		case '.', '!', '?':
		default:
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			i++
		}
		if i+1 < len(runes) {
			builder.WriteRune('\n')
		}
	}
	return builder.String()
}
