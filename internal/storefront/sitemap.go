package storefront

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
)

// sitemapDoc decodes both <urlset> and <sitemapindex> documents
type sitemapDoc struct {
	XMLName  xml.Name
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// FetchSitemap returns every page URL listed in /sitemap.xml. Sitemap index
// files are followed one level deep.
func (c *Client) FetchSitemap(ctx context.Context) ([]string, error) {
	return c.fetchSitemap(ctx, "/sitemap.xml", true)
}

func (c *Client) fetchSitemap(ctx context.Context, ref string, followIndex bool) ([]string, error) {
	body, err := c.get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap %s: %w", ref, err)
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse sitemap %s: %w", ref, err)
	}

	var urls []string
	switch doc.XMLName.Local {
	case "urlset":
		for _, u := range doc.URLs {
			if loc := strings.TrimSpace(u.Loc); loc != "" {
				urls = append(urls, loc)
			}
		}
	case "sitemapindex":
		if !followIndex {
			return nil, fmt.Errorf("nested sitemap index in %s", ref)
		}
		for _, s := range doc.Sitemaps {
			loc := strings.TrimSpace(s.Loc)
			if loc == "" {
				continue
			}
			child, err := c.fetchSitemap(ctx, loc, false)
			if err != nil {
				return nil, err
			}
			urls = append(urls, child...)
		}
	default:
		return nil, fmt.Errorf("unexpected sitemap root <%s> in %s", doc.XMLName.Local, ref)
	}

	return urls, nil
}
