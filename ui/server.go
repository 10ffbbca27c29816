package ui

import (
	"embed"
	"html/template"
	"strings"

	"ratelab/domain/policy"
	"ratelab/internal"
	"ratelab/internal/simulator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html templates/methodology.md
var embeddedFiles embed.FS

// Server is the rate-simulation dashboard.
type Server struct {
	router    *gin.Engine
	sim       *simulator.Simulator
	table     *policy.ScoredTable
	templates *template.Template
	logger    *internal.Logger
}

// NewServer builds the dashboard around a scored table. The table is
// read-only; every request recomputes aggregates from it.
func NewServer(table *policy.ScoredTable, ginMode string) (*Server, error) {
	gin.SetMode(ginMode)

	funcMap := template.FuncMap{
		"pct":   formatPct,
		"money": formatMoney,
		"mul":   func(a, b float64) float64 { return a * b },
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    gin.Default(),
		sim:       simulator.New(table),
		table:     table,
		templates: tmpl,
		logger:    internal.DefaultLogger,
	}

	s.router.Use(cors.Default())
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/methodology", s.handleMethodology)

	s.router.POST("/simulate", s.handleSimulateFragment)
	s.router.GET("/api/simulate", s.handleSimulateJSON)
	s.router.GET("/api/models", s.handleModels)

	s.router.GET("/plots/premium-change.png", s.handlePremiumChangePlot)
	s.router.GET("/plots/calibration.png", s.handleCalibrationPlot)
}

// Run starts the dashboard on the given port.
func (s *Server) Run(port string) error {
	s.logger.Info("dashboard listening on :%s (%d scored policies, models: %s)",
		port, len(s.table.Records), strings.Join(s.table.Models, ", "))
	return s.router.Run(":" + port)
}
