package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vulnverified/nexus/internal/engine"
	"github.com/vulnverified/nexus/internal/logging"
	"github.com/vulnverified/nexus/internal/render"
)

const noDomainMsg = "No domain provided"

// domainParam returns the validated target, or writes a 400 and returns false.
func domainParam(c *gin.Context) (engine.Target, bool) {
	raw := strings.TrimSpace(c.Query("domain"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": noDomainMsg})
		return engine.Target{}, false
	}
	t, err := engine.ParseTarget(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return engine.Target{}, false
	}
	return t, true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "nexus", "version": s.version})
}

func (s *Server) handleScan(c *gin.Context) {
	t, ok := domainParam(c)
	if !ok {
		return
	}
	disc := s.stages.Discoverer.Discover(c.Request.Context(), t.Host)
	hosts := disc.Hosts
	if hosts == nil {
		hosts = []string{}
	}
	c.JSON(http.StatusOK, hosts)
}

func (s *Server) handleScanPorts(c *gin.Context) {
	t, ok := domainParam(c)
	if !ok {
		return
	}
	results := s.stages.Scanner.Scan(c.Request.Context(), t.Host)
	c.JSON(http.StatusOK, gin.H{"target": t.Host, "scan_results": results})
}

func (s *Server) handleDetectTech(c *gin.Context) {
	t, ok := domainParam(c)
	if !ok {
		return
	}
	_, labels, err := engine.DetectTech(c.Request.Context(), t.URL, s.stages)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"target": t.Host, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"target": t.Host, "technologies": labels})
}

func (s *Server) handleAssessRisk(c *gin.Context) {
	t, ok := domainParam(c)
	if !ok {
		return
	}
	_, a, err := engine.AssessTarget(c.Request.Context(), t.URL, s.stages)

	issues := make([]string, 0, len(a.Findings))
	for _, f := range a.Findings {
		issues = append(issues, f.Description)
	}
	body := gin.H{
		"target":          t.Host,
		"risk_score":      a.Score,
		"risk_level":      a.Level(),
		"issues":          issues,
		"headers_checked": a.HeadersChecked,
	}
	if err != nil {
		body["fetch_error"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleGenerateReport(c *gin.Context) {
	t, ok := domainParam(c)
	if !ok {
		return
	}
	progress := logging.ProgressLogger{Log: s.log.WithField("domain", t.Host)}
	report, err := engine.Build(c.Request.Context(), t.URL, s.stages, progress)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := s.render(&buf, report); err != nil {
		s.log.WithError(err).WithField("domain", t.Host).Error("report rendering failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report rendering failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.FileName(t.Host)))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
