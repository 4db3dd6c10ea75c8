package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// reloadMarker is the onerror handler the gallery attaches to post images and
// to nothing else (emoticons, ads and thumbnails lack it).
const reloadMarker = "reload_img(this)"

// DCImageExtractor finds post images on a rendered gallery detail page.
type DCImageExtractor struct{}

// ExtractImages returns image URLs in document order, resolved against pageURL.
func (DCImageExtractor) ExtractImages(page, pageURL string) []string {
	doc, err := newDocument(page)
	if err != nil {
		return nil
	}
	base := parseBase(pageURL)

	var links []string
	doc.Find("img[onerror]").Each(func(_ int, img *goquery.Selection) {
		handler, _ := img.Attr("onerror")
		if !strings.Contains(handler, reloadMarker) {
			return
		}
		src, _ := img.Attr("src")
		if strings.TrimSpace(src) == "" {
			return
		}
		links = append(links, resolveLink(base, src))
	})
	return links
}
