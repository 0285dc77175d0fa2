package core

import "fmt"

// NeedsSitemapStatus is shown while a workspace has no slugs.
const NeedsSitemapStatus = "Upload a sitemap first"

// SitemapStatus is the line reported after a sitemap load.
func SitemapStatus(count int) string {
	return fmt.Sprintf("%d slugs captured", count)
}

// RedirectStatus is the line reported after a redirect table load.
func RedirectStatus(count int) string {
	return fmt.Sprintf("Loaded %d redirects", count)
}
