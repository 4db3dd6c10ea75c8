package scraper

import (
	"strings"

	"board-watcher/internal/domain/entity"
	"board-watcher/internal/usecase/crawl"

	"github.com/PuerkitoBio/goquery"
)

// FMParser parses best-of listings: div.li blocks with an h3.title link.
// The listing shows no usable date.
type FMParser struct{}

func (FMParser) Parse(page string, pc crawl.ParseContext) (crawl.ParseResult, error) {
	var res crawl.ParseResult

	doc, err := newDocument(page)
	if err != nil {
		return res, err
	}
	base := parseBase(pc.PageURL)

	doc.Find("div.li").Each(func(_ int, block *goquery.Selection) {
		block.Find("h3.title > a").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if strings.TrimSpace(href) == "" {
				res.SkippedLinks = append(res.SkippedLinks, href)
				return
			}
			res.Entries = append(res.Entries, entity.NewEntry(
				entity.TagFM,
				cleanText(a.Text()),
				"",
				resolveLink(base, href),
				pc.Now,
			))
		})
	})

	return res, nil
}
