package scraper

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"board-watcher/internal/domain/entity"
	"board-watcher/internal/usecase/crawl"

	"github.com/PuerkitoBio/goquery"
)

// dcDateLayout is the format of the title attribute on td.gall_date.
const dcDateLayout = "2006-01-02 15:04:05"

// kst is the board's local time. Korea has no DST.
var kst = time.FixedZone("KST", 9*60*60)

// ErrNoBoardHost is returned when neither the page nor the configured URL
// yields a host for building post links.
var ErrNoBoardHost = errors.New("board host not found")

// DCParser parses gallery listing pages.
//
// Rows are tr.ub-content. Posts whose board timestamp is ExpireAfter or older
// and posts by excluded nicknames are left out.
type DCParser struct{}

func (DCParser) Parse(page string, pc crawl.ParseContext) (crawl.ParseResult, error) {
	var res crawl.ParseResult

	doc, err := newDocument(page)
	if err != nil {
		return res, err
	}

	host := boardHost(doc, pc.PageURL)
	if host == "" {
		return res, ErrNoBoardHost
	}
	base := &url.URL{Scheme: "https", Host: host}

	excluded := make(map[string]struct{}, len(pc.ExcludedNicknames))
	for _, n := range pc.ExcludedNicknames {
		excluded[n] = struct{}{}
	}

	doc.Find("tr.ub-content").Each(func(_ int, row *goquery.Selection) {
		a := row.Find("td.gall_tit > a").First()
		href, ok := a.Attr("href")
		if a.Length() == 0 || !ok || strings.TrimSpace(href) == "" {
			res.SkippedLinks = append(res.SkippedLinks, href)
			return
		}

		dateCell := row.Find("td.gall_date").First()
		stamp, _ := dateCell.Attr("title")
		posted, err := time.ParseInLocation(dcDateLayout, strings.TrimSpace(stamp), kst)
		if err != nil {
			res.SkippedLinks = append(res.SkippedLinks, href)
			return
		}
		if pc.Now.Sub(posted) >= crawl.ExpireAfter {
			return
		}

		nick, _ := row.Find("td.gall_writer").First().Attr("data-nick")
		if _, skip := excluded[nick]; skip {
			return
		}

		inner, _ := a.Html()
		res.Entries = append(res.Entries, entity.NewEntry(
			entity.TagDC,
			dcTitle(inner),
			strings.TrimSpace(dateCell.Text()),
			resolveLink(base, href),
			pc.Now,
		))
	})

	return res, nil
}

// boardHost prefers the host in input#list_url, which stays correct when the
// configured URL redirects to a mirror.
func boardHost(doc *goquery.Document, pageURL string) string {
	if v, ok := doc.Find("input#list_url").First().Attr("value"); ok {
		if u, err := url.Parse(strings.TrimSpace(v)); err == nil && u.Host != "" {
			return u.Host
		}
	}
	if u := parseBase(pageURL); u != nil {
		return u.Host
	}
	return ""
}

// dcTitle keeps the text after the last </em>; the icons and subject markers
// before it are not part of the title.
func dcTitle(inner string) string {
	if i := strings.LastIndex(inner, "</em>"); i >= 0 {
		inner = inner[i+len("</em>"):]
	}
	return cleanText(stripTags(inner))
}

func stripTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
