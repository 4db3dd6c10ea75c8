package scraper

import (
	"strings"

	"board-watcher/internal/domain/entity"
	"board-watcher/internal/usecase/crawl"

	"github.com/PuerkitoBio/goquery"
)

// MPParser parses the full board table (table.tbl_type01).
type MPParser struct{}

func (MPParser) Parse(page string, pc crawl.ParseContext) (crawl.ParseResult, error) {
	var res crawl.ParseResult

	doc, err := newDocument(page)
	if err != nil {
		return res, err
	}
	base := parseBase(pc.PageURL)

	doc.Find("table.tbl_type01").Each(func(_ int, table *goquery.Selection) {
		table.Find("tbody > tr").Each(func(_ int, tr *goquery.Selection) {
			a := tr.Find("td.t_left > a").First()
			date := tr.Find("td > span.date").First()
			href, _ := a.Attr("href")
			if a.Length() == 0 || date.Length() == 0 || strings.TrimSpace(href) == "" {
				// notice and ad rows have neither
				if href != "" {
					res.SkippedLinks = append(res.SkippedLinks, href)
				}
				return
			}
			res.Entries = append(res.Entries, entity.NewEntry(
				entity.TagMP,
				cleanText(a.Text()),
				strings.TrimSpace(date.Text()),
				resolveLink(base, href),
				pc.Now,
			))
		})
	})

	return res, nil
}

// MPLowParser parses the compact "today" widget (div.lists_today_contxt).
// Its entries share the mp bucket.
type MPLowParser struct{}

func (MPLowParser) Parse(page string, pc crawl.ParseContext) (crawl.ParseResult, error) {
	var res crawl.ParseResult

	doc, err := newDocument(page)
	if err != nil {
		return res, err
	}
	base := parseBase(pc.PageURL)

	doc.Find("div.lists_today_contxt").Each(func(_ int, div *goquery.Selection) {
		div.Find("li.items").Each(func(_ int, li *goquery.Selection) {
			a := li.Find("a").First()
			href, _ := a.Attr("href")
			if strings.TrimSpace(href) == "" {
				res.SkippedLinks = append(res.SkippedLinks, href)
				return
			}
			res.Entries = append(res.Entries, entity.NewEntry(
				entity.TagMP,
				cleanText(a.Text()),
				"",
				resolveLink(base, href),
				pc.Now,
			))
		})
	})

	return res, nil
}
