package extract

import (
	nurl "net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/loadwire/loadwire/models"
)

// collectImages lists the images on the page with absolute src URLs.
func collectImages(doc *goquery.Document, baseURL string) []models.ImageInfo {
	base, _ := nurl.Parse(baseURL)
	var images []models.ImageInfo
	seen := make(map[string]struct{})
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		src = absolutize(base, src)
		if src == "" {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		img := models.ImageInfo{Src: src}
		img.Alt, _ = s.Attr("alt")
		if w, ok := s.Attr("width"); ok {
			img.Width, _ = strconv.Atoi(w)
		}
		if h, ok := s.Attr("height"); ok {
			img.Height, _ = strconv.Atoi(h)
		}
		images = append(images, img)
	})
	return images
}

// collectLinks lists the hyperlinks on the page with absolute hrefs.
// Fragment-only and javascript: links are skipped.
func collectLinks(doc *goquery.Document, baseURL string) []models.LinkInfo {
	base, _ := nurl.Parse(baseURL)
	var links []models.LinkInfo
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		href = absolutize(base, href)
		if href == "" {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		links = append(links, models.LinkInfo{
			Href: href,
			Text: strings.TrimSpace(s.Text()),
		})
	})
	return links
}

// publishedTime pulls the article publication timestamp from the usual
// metadata spots, first match wins.
func publishedTime(doc *goquery.Document) string {
	metaProps := []string{
		`meta[property="article:published_time"]`,
		`meta[name="article:published_time"]`,
		`meta[property="og:published_time"]`,
		`meta[name="publish-date"]`,
		`meta[name="date"]`,
	}
	for _, sel := range metaProps {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && v != "" {
			return v
		}
	}
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		return v
	}
	return ""
}

// pageTitle prefers og:title over <title>.
func pageTitle(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok && v != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func absolutize(base *nurl.URL, ref string) string {
	u, err := nurl.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
