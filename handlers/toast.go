package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"github.com/pocketbase/pocketbase/core"
)

// SetToast queues a toast notification for the client by writing an HX-Trigger
// response header carrying a showToast event. JSON API consumers can ignore
// the header entirely. An existing HX-Trigger value is treated as a JSON event
// map and the toast is merged into it; anything unparsable is overwritten.
// A short-lived flash cookie carries the same payload across redirects, where
// response headers are lost.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	payload := map[string]string{
		"message": message,
		"type":    toastType,
	}

	events := map[string]any{}
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &events); err != nil {
			log.Printf("toast: existing HX-Trigger is not valid JSON, overwriting: %v", err)
			events = map[string]any{}
		}
	}
	events["showToast"] = payload

	data, err := json.Marshal(events)
	if err != nil {
		log.Printf("toast: failed to marshal HX-Trigger JSON: %v", err)
		return
	}
	e.Response.Header().Set("HX-Trigger", string(data))

	cookieVal, err := json.Marshal(payload)
	if err == nil {
		http.SetCookie(e.Response, &http.Cookie{
			Name:     "flash_toast",
			Value:    url.QueryEscape(string(cookieVal)),
			Path:     "/",
			MaxAge:   10,
			HttpOnly: false, // JS needs to read it
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ErrorToast reports a failed request: it queues an error toast, sets
// HX-Reswap: none so toast-aware clients leave the page alone, and returns
// the message as a structured JSON error body.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, "error", message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.JSON(statusCode, map[string]string{"error": message})
}
