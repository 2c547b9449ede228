package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fluxrules/ruleflow/internal/eval"
	"github.com/fluxrules/ruleflow/internal/metrics"
	"github.com/fluxrules/ruleflow/internal/monitor"
	"github.com/fluxrules/ruleflow/internal/render"
	"github.com/fluxrules/ruleflow/internal/rule"
	"github.com/fluxrules/ruleflow/internal/store"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	store   *store.Store
	manager *monitor.Manager
	mux     *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(st *store.Store, mgr *monitor.Manager) http.Handler {
	h := &Handler{store: st, manager: mgr, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/rules", h.createRule)
	h.mux.HandleFunc("GET /v1/rules", h.listRules)
	h.mux.HandleFunc("GET /v1/rules/{id}", h.getRule)
	h.mux.HandleFunc("PUT /v1/rules/{id}", h.updateRule)
	h.mux.HandleFunc("DELETE /v1/rules/{id}", h.deleteRule)
	h.mux.HandleFunc("POST /v1/rules/evaluate", h.evaluateAdhoc)
	h.mux.HandleFunc("POST /v1/rules/{id}/evaluate", h.evaluateRule)
	h.mux.HandleFunc("GET /v1/rules/{id}/render", h.renderRule)
	h.mux.HandleFunc("GET /v1/rules/{id}/variables", h.ruleVariables)
	h.mux.HandleFunc("POST /v1/monitors/{ruleID}/start", h.startMonitor)
	h.mux.HandleFunc("POST /v1/monitors/{ruleID}/stop", h.stopMonitor)
	h.mux.HandleFunc("GET /v1/monitors", h.listMonitors)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// prepare fills derived fields before a rule document is stored: validation
// verdict, rendered summary, and an acyclicity check that rejects the save
// outright (a cyclic graph would loop the evaluator without its guard).
func prepare(r *rule.Rule) error {
	if err := rule.CheckAcyclic(r.Nodes, r.Edges); err != nil {
		return err
	}
	v := rule.Validate(r)
	r.IsValid = v.IsValid
	r.NaturalLanguage = render.NaturalLanguage(r.Nodes, r.Edges)
	return nil
}

// POST /v1/rules — create a rule document.
func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var doc rule.Rule
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if doc.Name == "" {
		writeError(w, http.StatusBadRequest, "rule name is required")
		return
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if err := prepare(&doc); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if err := h.store.Create(r.Context(), &doc); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, &doc)
}

// GET /v1/rules — list rules, optionally filtered by ?user=.
func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.store.List(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rules == nil {
		rules = []*rule.Rule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules, "count": len(rules)})
}

func (h *Handler) loadRule(w http.ResponseWriter, r *http.Request, id string) *rule.Rule {
	doc, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("rule %s not found", id))
		return nil
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	return doc
}

// GET /v1/rules/{id}
func (h *Handler) getRule(w http.ResponseWriter, r *http.Request) {
	if doc := h.loadRule(w, r, r.PathValue("id")); doc != nil {
		writeJSON(w, http.StatusOK, doc)
	}
}

// PUT /v1/rules/{id}
func (h *Handler) updateRule(w http.ResponseWriter, r *http.Request) {
	var doc rule.Rule
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	doc.ID = r.PathValue("id")
	if err := prepare(&doc); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	existing, err := h.store.Get(r.Context(), doc.ID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("rule %s not found", doc.ID))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	doc.CreatedAt = existing.CreatedAt
	err = h.store.Update(r.Context(), &doc)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("rule %s not found", doc.ID))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Running monitors pick up the new document on their next tick.
	h.manager.UpdateRule(&doc)
	writeJSON(w, http.StatusOK, &doc)
}

// DELETE /v1/rules/{id}
func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("rule %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

type evaluateRequest struct {
	Rule   *rule.Rule  `json:"rule,omitempty"`
	Inputs eval.Inputs `json:"inputs"`
}

// POST /v1/rules/{id}/evaluate — evaluate a stored rule against manual inputs.
func (h *Handler) evaluateRule(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	doc := h.loadRule(w, r, r.PathValue("id"))
	if doc == nil {
		return
	}
	writeJSON(w, http.StatusOK, evaluate(doc, req.Inputs))
}

// evaluate wraps the pure engine call with metrics.
func evaluate(doc *rule.Rule, inputs eval.Inputs) eval.Result {
	start := time.Now()
	res := eval.EvaluateRule(doc, inputs)
	metrics.EvaluationsTotal.Inc()
	metrics.EvaluationDuration.Observe(float64(time.Since(start).Microseconds()))
	if res.Matched {
		metrics.RuleMatches.WithLabelValues(doc.ID).Inc()
	}
	return res
}

// POST /v1/rules/evaluate — evaluate an ad hoc document without storing it.
func (h *Handler) evaluateAdhoc(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Rule == nil {
		writeError(w, http.StatusBadRequest, "rule document is required")
		return
	}
	writeJSON(w, http.StatusOK, evaluate(req.Rule, req.Inputs))
}

// GET /v1/rules/{id}/render — both textual views of a rule.
func (h *Handler) renderRule(w http.ResponseWriter, r *http.Request) {
	doc := h.loadRule(w, r, r.PathValue("id"))
	if doc == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"naturalLanguage": render.NaturalLanguage(doc.Nodes, doc.Edges),
		"pseudocode":      render.Pseudocode(doc.Nodes, doc.Edges),
	})
}

// GET /v1/rules/{id}/variables — distinct condition fields, insertion order.
func (h *Handler) ruleVariables(w http.ResponseWriter, r *http.Request) {
	doc := h.loadRule(w, r, r.PathValue("id"))
	if doc == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"variables": rule.InputVariables(doc)})
}

type startMonitorRequest struct {
	IntervalMs int         `json:"interval_ms,omitempty"`
	Schedule   string      `json:"schedule,omitempty"`
	Inputs     eval.Inputs `json:"inputs,omitempty"` // static sampler override
}

// POST /v1/monitors/{ruleID}/start
func (h *Handler) startMonitor(w http.ResponseWriter, r *http.Request) {
	var req startMonitorRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
			return
		}
	}
	doc := h.loadRule(w, r, r.PathValue("ruleID"))
	if doc == nil {
		return
	}
	opts := monitor.Options{
		Interval: time.Duration(req.IntervalMs) * time.Millisecond,
		Schedule: req.Schedule,
	}
	if req.Inputs != nil {
		opts.Sampler = monitor.NewStaticSampler(req.Inputs)
	}
	if err := h.manager.Start(doc, opts); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"started": doc.ID})
}

// POST /v1/monitors/{ruleID}/stop
func (h *Handler) stopMonitor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("ruleID")
	if err := h.manager.Stop(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stopped": id})
}

// GET /v1/monitors
func (h *Handler) listMonitors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"monitors": h.manager.List()})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 when the store is unreachable.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
