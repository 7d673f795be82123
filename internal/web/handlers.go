package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"signalpanel/internal/domain"
	"signalpanel/internal/forms"
	"signalpanel/internal/panels"
	"signalpanel/internal/ports"
)

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.StateView())
}

func (s *Server) getChart(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.ChartView())
}

func (s *Server) getFreshness(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.FreshnessView())
}

func (s *Server) getTrades(c *gin.Context) {
	view := s.svc.TradesView()
	if !view.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "trade view not available for this account"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) getQuickBalance(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.QuickBalanceView())
}

func (s *Server) getEquity(c *gin.Context) {
	view := s.svc.EquityView()
	if !view.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "equity view not available for this account"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) getOverview(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.OverviewView())
}

func (s *Server) getSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": s.svc.KnownSymbols()})
}

func (s *Server) postSymbol(c *gin.Context) {
	var req struct {
		Symbol string `json:"symbol" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	if err := s.svc.SetActiveSymbol(c.Request.Context(), req.Symbol); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.svc.StateView())
}

func (s *Server) postPreferences(c *gin.Context) {
	var req struct {
		Theme             string `json:"theme"`
		LocaleMode        string `json:"locale_mode"`
		RefreshIntervalMS int64  `json:"refresh_interval_ms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preferences payload"})
		return
	}

	current := s.svc.Preferences()
	prefs := current
	if req.Theme != "" {
		prefs.Theme = domain.Theme(req.Theme)
	}
	if req.LocaleMode != "" {
		prefs.LocaleMode = domain.LocaleMode(req.LocaleMode)
	}
	if req.RefreshIntervalMS > 0 {
		prefs.RefreshInterval = time.Duration(req.RefreshIntervalMS) * time.Millisecond
	}

	if err := s.svc.UpdatePreferences(c.Request.Context(), prefs); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.svc.StateView())
}

func (s *Server) postReferralVerify(c *gin.Context) {
	backend := s.svc.Backend()
	if backend == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no backend configured"})
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	code, err := forms.ValidateReferralCode(req.Code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "referral code must look like XXXX-XXXX-XXXX"})
		return
	}
	if err := backend.VerifyReferral(c.Request.Context(), code); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "code": code})
}

// postReferralAssignment validates the admin assignment form and
// reports the submit gate plus the chosen download format. The actual
// assignment happens on the dashboard backend.
func (s *Server) postReferralAssignment(c *gin.Context) {
	var form forms.AssignmentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment payload"})
		return
	}
	download := "csv"
	if form.DownloadZIP {
		download = "zip"
	}
	c.JSON(http.StatusOK, gin.H{
		"can_submit": form.CanSubmit(),
		"code":       forms.NormalizeReferralCode(form.Code),
		"download":   download,
	})
}

func (s *Server) postWebhookTest(c *gin.Context) {
	backend := s.svc.Backend()
	if backend == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no backend configured"})
		return
	}

	var req struct {
		Raw  string            `json:"raw"`
		Form *forms.SignalForm `json:"form"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook test payload"})
		return
	}

	var payload json.RawMessage
	var err error
	switch {
	case req.Raw != "":
		payload, err = forms.ParseRawPayload(req.Raw)
	case req.Form != nil:
		if missing := req.Form.Validate(); len(missing) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields", "fields": missing})
			return
		}
		payload, err = req.Form.BuildPayload(time.Now())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "either raw or form payload is required"})
		return
	}
	if err != nil {
		s.handleError(c, err)
		return
	}

	outcome, err := forms.SendSignal(c.Request.Context(), backend, payload)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) getTestStatus(c *gin.Context) {
	backend := s.svc.Backend()
	if backend == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no backend configured"})
		return
	}
	ts, err := backend.TestStatus(c.Request.Context())
	if err != nil {
		// the badge degrades instead of erroring
		c.JSON(http.StatusOK, panels.BuildTestStatusBadge(nil))
		return
	}
	c.JSON(http.StatusOK, panels.BuildTestStatusBadge(ts))
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) getStatus(c *gin.Context) {
	statuses := s.svc.PollerStatuses()
	out := make([]gin.H, 0, len(statuses))
	for _, st := range statuses {
		entry := gin.H{
			"name":         st.Name,
			"runs":         st.Runs,
			"failures":     st.Failures,
			"skips":        st.Skips,
			"last_run":     st.LastRun,
			"last_success": st.LastSuccess,
		}
		if st.LastErr != nil {
			entry["last_error"] = st.LastErr.Error()
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"pollers": out})
}

// handleError maps application errors to HTTP statuses.
func (s *Server) handleError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, ports.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, ports.ErrAuthRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, ports.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, ports.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ports.ErrTimeout):
		status = http.StatusGatewayTimeout
	}
	requestID, _ := c.Get(RequestIDContextKey)
	s.logger.Warn(c.Request.Context(), "request failed", map[string]interface{}{
		"path": c.FullPath(), "status": status, "request_id": requestID, "error": err.Error(),
	})
	c.JSON(status, gin.H{"error": err.Error()})
}
