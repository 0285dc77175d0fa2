// Package templates renders the dashboard and error fragments as templ
// components.
//
//go:generate templ generate
package templates

import (
	"strconv"

	"github.com/JonMunkholm/RedirectMap/internal/core"
)

// slugOptionsID is the datalist shared by every destination input.
const slugOptionsID = "slug-options"

// DashboardParams is everything the dashboard shows for one workspace.
// An empty WorkspaceID renders the landing page.
type DashboardParams struct {
	WorkspaceID  string
	SitemapName  string
	SlugCount    int
	Slugs        []string
	Preview      []string
	MoreSlugs    int
	RedirectName string
	Redirects    []core.RedirectRecord

	// APIKeyRequired replaces the page with a notice. Browser forms cannot
	// send the X-API-Key header.
	APIKeyRequired bool
}

// NewDashboardParams builds the view of ws. A nil ws yields the landing page.
func NewDashboardParams(ws *core.Workspace) DashboardParams {
	if ws == nil {
		return DashboardParams{}
	}
	preview, more := core.PreviewSlugs(ws.Slugs, core.SlugPreviewLimit)
	return DashboardParams{
		WorkspaceID:  ws.ID,
		SitemapName:  ws.SitemapName,
		SlugCount:    len(ws.Slugs),
		Slugs:        ws.Slugs,
		Preview:      preview,
		MoreSlugs:    more,
		RedirectName: ws.RedirectName,
		Redirects:    ws.Redirects,
	}
}

// apiPath joins parts under the workspace's API root.
func (p DashboardParams) apiPath(parts ...string) string {
	path := "/api/workspaces/" + p.WorkspaceID
	for _, part := range parts {
		path += "/" + part
	}
	return path
}

func (p DashboardParams) recordPath(index int) string {
	return p.apiPath("redirects", strconv.Itoa(index))
}

func sitemapStatus(p DashboardParams) string {
	status := core.SitemapStatus(p.SlugCount)
	if p.SitemapName != "" {
		status += " from " + p.SitemapName
	}
	return status
}

func downloadLabel(name string) string {
	return "Download " + core.FormatCSV.FileName(name)
}
