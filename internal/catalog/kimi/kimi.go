// Package kimi scrapes the usage meter off the Kimi account page. There is
// no public usage API, so the web-session strategy fetches the HTML and this
// parser digs the meter out of the markup.
package kimi

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/user/quotabar/internal/provider"
)

func Descriptor() *provider.Descriptor {
	return &provider.Descriptor{
		ID:          "kimi",
		DisplayName: "Kimi",
		Hosts:       []string{"www.kimi.com", "kimi.moonshot.cn"},
		Strategies: []provider.StrategyConfig{
			{
				Kind:     provider.StrategyWebSession,
				Endpoint: "https://www.kimi.com/account/usage",
				Headers:  map[string]string{"Accept": "text/html"},
			},
		},
		Parser: Parse,
	}
}

// Parse walks the account page for the usage meter element. The page marks
// it with data-used/data-limit attributes; the plan name sits in a
// .plan-name element. A page without the meter is a layout change, which a
// retry cannot fix.
func Parse(raw *provider.RawResponse) (*provider.UsageRecord, error) {
	doc, err := html.Parse(bytes.NewReader(raw.Body))
	if err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "kimi: parsing account page")
	}

	var used, limit *float64
	var plan string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if hasClass(n, "usage-meter") {
				used = attrFloat(n, "data-used")
				limit = attrFloat(n, "data-limit")
			}
			if hasClass(n, "plan-name") && plan == "" {
				plan = strings.TrimSpace(textOf(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if used == nil && limit == nil {
		return nil, provider.Errorf(provider.ResultPermanent,
			"kimi: account page has no usage meter")
	}

	rec := &provider.UsageRecord{
		ProviderID: raw.ProviderID,
		CapturedAt: raw.FetchedAt,
		Plan:       plan,
		Quota: &provider.Quota{
			Used:  used,
			Limit: limit,
			Unit:  "requests",
		},
	}
	if err := rec.Validate(); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "kimi: invalid usage record")
	}
	return rec, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attrFloat(n *html.Node, key string) *float64 {
	for _, a := range n.Attr {
		if a.Key == key {
			v := strings.ReplaceAll(strings.TrimSpace(a.Val), ",", "")
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
