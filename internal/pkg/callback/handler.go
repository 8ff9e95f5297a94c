package callback

import (
	"encoding/json"
	"net/http"

	"github.com/jake-scott/gira-x1/internal/pkg/logging"
)

// Event is one value change pushed by the gateway
type Event struct {
	UID   string `json:"uid"`
	Value string `json:"value"`
}

// Notification is the body of a value callback
type Notification struct {
	Token    string  `json:"token"`
	Events   []Event `json:"events"`
	Failures *int    `json:"failures,omitempty"`
}

// Handler relays the events of each value callback onto a channel, in the
// order they appear in the body
type Handler struct {
	events     chan<- Event
	tokenCheck func(string) bool
}

func NewHandler(events chan<- Event) *Handler {
	return &Handler{events: events}
}

// WithTokenCheck rejects callbacks whose token fails check
func (h *Handler) WithTokenCheck(check func(token string) bool) *Handler {
	nh := *h
	nh.tokenCheck = check
	return &nh
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logging.Logger(r.Context())

	var n Notification
	if err := decodeJSONBody(w, r, &n); err != nil {
		ctxLogger.WithError(err).Error("decoding value callback")
		http.Error(w, "unable to parse JSON", http.StatusBadRequest)
		return
	}

	if err := n.Validate(formats); err != nil {
		ctxLogger.WithError(err).Error("value callback validation failure")
		http.Error(w, "input validation failed", http.StatusBadRequest)
		return
	}

	if h.tokenCheck != nil && !h.tokenCheck(n.Token) {
		ctxLogger.Warn("value callback with an unknown token")
		http.Error(w, "unknown token", http.StatusForbidden)
		return
	}

	if n.Failures != nil && *n.Failures > 0 {
		ctxLogger.Warnf("gateway reports %d failed callback deliveries", *n.Failures)
	}

	for i, ev := range n.Events {
		select {
		case h.events <- ev:
		case <-r.Context().Done():
			ctxLogger.WithError(r.Context().Err()).Errorf("dropped %d of %d events", len(n.Events)-i, len(n.Events))
			return
		}
	}

	ctxLogger.Debugf("relayed %d events", len(n.Events))
	w.WriteHeader(http.StatusOK)
}

// Health answers GET / so the listener can be probed
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		logging.Logger(r.Context()).WithError(err).Error("sending json response")
	}
}
