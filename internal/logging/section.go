// ABOUTME: Section detection for request logging.
// ABOUTME: Groups request paths into the api, dashboard and other sections.

package logging

import "strings"

// Section names used in request logs.
const (
	SectionAPI       = "api"
	SectionDashboard = "dashboard"
	SectionOther     = "other"
)

// Sections lists every section in display order.
var Sections = []string{SectionAPI, SectionDashboard, SectionOther}

// GetSectionFromPath determines which section serves a given path
func GetSectionFromPath(path string) string {
	switch {
	case path == "/api" || strings.HasPrefix(path, "/api/"):
		return SectionAPI
	case path == "/" || path == "/dashboard" || strings.HasPrefix(path, "/dashboard/"):
		return SectionDashboard
	default:
		return SectionOther
	}
}
