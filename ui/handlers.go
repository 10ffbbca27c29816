package ui

import (
	"fmt"
	"net/http"
	"strconv"

	"ratelab/adapters/plot"
	"ratelab/internal/errors"
	"ratelab/internal/simulator"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// indexView carries the initial dashboard state: the zero-change simulation
// for the first model.
type indexView struct {
	Models    []string
	Selected  string
	Result    *simulator.Result
	MinChange float64
	MaxChange float64
}

func (s *Server) handleIndex(c *gin.Context) {
	selected := s.table.Models[0]
	result, err := s.sim.Simulate(selected, 0, 0)
	if err != nil {
		c.String(http.StatusInternalServerError, "simulation failed: %v", err)
		return
	}

	view := indexView{
		Models:    s.table.Models,
		Selected:  selected,
		Result:    result,
		MinChange: simulator.MinRateChange * 100,
		MaxChange: simulator.MaxRateChange * 100,
	}
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(c.Writer, "dashboard.html", view); err != nil {
		s.logger.Error("render dashboard: %v", err)
	}
}

// handleSimulateFragment answers the apply button with the summary fragment.
func (s *Server) handleSimulateFragment(c *gin.Context) {
	result, err := s.simulateFromRequest(c)
	if err != nil {
		c.String(statusFor(err), err.Error())
		return
	}
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(c.Writer, "summary.html", result); err != nil {
		s.logger.Error("render summary: %v", err)
	}
}

// handleSimulateJSON mirrors the fragment endpoint for programmatic callers.
func (s *Server) handleSimulateJSON(c *gin.Context) {
	result, err := s.simulateFromRequest(c)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": s.table.Models})
}

func (s *Server) handlePremiumChangePlot(c *gin.Context) {
	result, err := s.simulateFromRequest(c)
	if err != nil {
		c.String(statusFor(err), err.Error())
		return
	}
	title := fmt.Sprintf("Premium change per policy (%s, %+.0f%%)", result.Model, result.RateChange*100)
	png, err := plot.PremiumChangeHistogram(result.Histogram, title)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) handleCalibrationPlot(c *gin.Context) {
	result, err := s.simulateFromRequest(c)
	if err != nil {
		c.String(statusFor(err), err.Error())
		return
	}
	title := fmt.Sprintf("Observed vs predicted pure premium by decile (%s)", result.Model)
	png, err := plot.CalibrationScatter(result.Calibration, title)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// handleMethodology renders the embedded Markdown methodology notes.
func (s *Server) handleMethodology(c *gin.Context) {
	raw, err := embeddedFiles.ReadFile("templates/methodology.md")
	if err != nil {
		c.String(http.StatusInternalServerError, "methodology notes unavailable")
		return
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	body := markdown.ToHTML(raw, p, renderer)

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(c.Writer, "methodology.html", map[string]interface{}{
		"Body": templateHTML(body),
	}); err != nil {
		s.logger.Error("render methodology: %v", err)
	}
}

// simulateFromRequest reads model, rate_change (percent in forms, fraction in
// query) and target_lr from either form or query parameters.
func (s *Server) simulateFromRequest(c *gin.Context) (*simulator.Result, error) {
	model := c.DefaultQuery("model", c.PostForm("model"))
	if model == "" {
		model = s.table.Models[0]
	}

	rateChange := 0.0
	if v := firstNonEmpty(c.Query("rate_change"), c.PostForm("rate_change")); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.InvalidInput("rate_change must be a number")
		}
		rateChange = parsed
	}
	// The slider posts whole percents.
	if c.Request.Method == http.MethodPost {
		rateChange /= 100
	}

	targetLR := 0.0
	if v := firstNonEmpty(c.Query("target_lr"), c.PostForm("target_lr")); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.InvalidInput("target_lr must be a number")
		}
		targetLR = parsed
	}

	return s.sim.Simulate(model, rateChange, targetLR)
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
