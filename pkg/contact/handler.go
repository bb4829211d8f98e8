package contact

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/klog/v2"
)

// maxBody bounds the size of a submission.
const maxBody = 64 << 10

// Handler serves POST /api/contact.
type Handler struct {
	sink      Sink
	validator *Validator
	now       func() time.Time
	outcomes  *prometheus.CounterVec
}

// NewHandler returns a handler passing accepted submissions to sink.
// Metrics are registered with reg when it is non-nil.
func NewHandler(sink Sink, reg prometheus.Registerer) *Handler {
	h := &Handler{
		sink:      sink,
		validator: NewValidator(),
		now:       time.Now,
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tiburon",
			Subsystem: "contact",
			Name:      "submissions_total",
			Help:      "Contact form submissions by outcome",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(h.outcomes)
	}
	return h
}

type response struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if p := recover(); p != nil {
			klog.Errorf("contact form error: %v", p)
			h.reply(w, http.StatusInternalServerError, response{Error: MsgInternal}, "error")
		}
	}()

	var s Submission
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(&s); err != nil {
		klog.V(1).Infof("contact form: bad body: %v", err)
		h.reply(w, http.StatusBadRequest, response{Error: MsgBadBody}, "invalid")
		return
	}

	if err := h.validator.Validate(&s); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			klog.V(1).Infof("contact form rejected: %v", ve)
			h.reply(w, http.StatusBadRequest, response{Error: ve.Message}, "invalid")
			return
		}
		klog.Errorf("contact form validation: %v", err)
		h.reply(w, http.StatusInternalServerError, response{Error: MsgInternal}, "error")
		return
	}

	s.ID = uuid.NewString()
	s.Received = h.now().UTC()

	if err := h.sink.Submit(r.Context(), s); err != nil {
		klog.Errorf("contact form error: %v", err)
		h.reply(w, http.StatusInternalServerError, response{Error: MsgInternal}, "error")
		return
	}

	h.reply(w, http.StatusOK, response{Success: true, Message: MsgAccepted}, "accepted")
}

func (h *Handler) reply(w http.ResponseWriter, code int, body response, outcome string) {
	h.outcomes.WithLabelValues(outcome).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		klog.Warningf("write response: %v", err)
	}
}
