package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ramorimdias/cwtlogger/internal/domain"
)

type startRequest struct {
	Mode         string  `json:"mode"`
	Channels     []int   `json:"channels"`
	CurrentLimit float64 `json:"current_limit"`
}

type intervalRequest struct {
	Seconds float64 `json:"seconds"`
}

type windowResponse struct {
	Count  int                   `json:"count"`
	Times  []string              `json:"times"`
	Series map[string][]*float64 `json:"series"`
}

type liveChannel struct {
	Status string   `json:"status"`
	Ohms   *float64 `json:"ohms,omitempty"`
}

type liveResponse struct {
	Time     string                 `json:"time"`
	RelHours float64                `json:"rel_hours"`
	Channels map[string]liveChannel `json:"channels"`
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleSession(ctrl Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ctrl.Session())
	}
}

// handleWindow serves the plotting window. The bound comes from ?since
// (RFC 3339) or ?hours, falling back to the configured span. Readings are
// collapsed to plain values at this boundary: absent and open-circuit both
// serialize as null, so plots draw gaps.
func handleWindow(ctrl Controller, span time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		cutoff, err := windowCutoff(c, span)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		w := ctrl.Window(cutoff)

		resp := windowResponse{
			Count:  w.Len(),
			Times:  make([]string, w.Len()),
			Series: make(map[string][]*float64, domain.NumChannels),
		}
		for i, ts := range w.Times {
			resp.Times[i] = ts.Format(time.RFC3339)
		}
		for ch := 1; ch <= domain.NumChannels; ch++ {
			points := make([]*float64, w.Len())
			for i, v := range w.Series[ch-1] {
				if p := domain.PlotValue(v); !math.IsNaN(p) {
					val := p
					points[i] = &val
				}
			}
			resp.Series[domain.ChannelLabel(ch)] = points
		}

		c.JSON(http.StatusOK, resp)
	}
}

func windowCutoff(c *gin.Context, span time.Duration) (time.Time, error) {
	if since := c.Query("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return time.Time{}, errors.New("since must be RFC 3339")
		}
		return ts, nil
	}
	if hours := c.Query("hours"); hours != "" {
		h, err := strconv.ParseFloat(hours, 64)
		if err != nil || h <= 0 {
			return time.Time{}, errors.New("hours must be a positive number")
		}
		return time.Now().Add(-time.Duration(h * float64(time.Hour))), nil
	}
	return time.Now().Add(-span), nil
}

// handleLive serves the most recent sample with the reading states kept
// distinguishable, unlike the window render.
func handleLive(ctrl Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ctrl.Last()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no samples yet"})
			return
		}

		resp := liveResponse{
			Time:     s.Time.Format(time.RFC3339),
			RelHours: s.RelHours,
			Channels: make(map[string]liveChannel, domain.NumChannels),
		}
		for ch := 1; ch <= domain.NumChannels; ch++ {
			v := s.Reading(ch)
			lc := liveChannel{Status: "ok"}
			switch {
			case domain.Absent(v):
				lc.Status = "absent"
			case domain.Open(v):
				lc.Status = "open"
			default:
				val := v
				lc.Ohms = &val
			}
			resp.Channels[domain.ChannelLabel(ch)] = lc
		}

		c.JSON(http.StatusOK, resp)
	}
}

func handleStart(ctrl Controller, defaultLimit float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}

		limit := req.CurrentLimit
		if limit <= 0 {
			limit = defaultLimit
		}

		var err error
		switch req.Mode {
		case "", string(domain.ModeLogging):
			err = ctrl.StartLogging(c.Request.Context(), req.Channels, limit)
		case "check", string(domain.ModeChecking):
			err = ctrl.StartCheck(c.Request.Context(), req.Channels, limit)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be logging or check"})
			return
		}
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, ctrl.Session())
	}
}

func handleStop(ctrl Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ctrl.Stop(); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, ctrl.Session())
	}
}

func handleExport(ctrl Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		path, err := ctrl.ExportNow(c.Request.Context())
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": path})
	}
}

func handleClear(ctrl Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ctrl.ClearCache(); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cleared"})
	}
}

func handleInterval(ctrl Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req intervalRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Seconds <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seconds must be a positive number"})
			return
		}
		d := time.Duration(req.Seconds * float64(time.Second))
		if err := ctrl.SetInterval(d); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"seconds": ctrl.Interval().Seconds()})
	}
}

// statusFor maps domain sentinels onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAlreadyRunning), errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoChannels),
		errors.Is(err, domain.ErrInvalidChannel),
		errors.Is(err, domain.ErrIntervalTooShort):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDeviceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
