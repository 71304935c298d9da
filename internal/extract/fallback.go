package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang.org/x/net/html"

	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// fallbackSource labels results produced without an extractor module.
const fallbackSource = "builtin"

// fallbackExtract pulls a price out of structured page data: Open Graph
// and schema.org meta tags first, then JSON-LD product blocks. Returns a
// zero result when the page carries neither.
func fallbackExtract(body []byte) tracklib.ExtractResult {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return tracklib.ExtractResult{}
	}

	var (
		amount    string
		currency  string
		title     string
		jsonBlobs []string
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				key, content := metaAttrs(n)
				switch key {
				case "og:price:amount", "product:price:amount", "price":
					if amount == "" {
						amount = content
					}
				case "og:price:currency", "product:price:currency", "pricecurrency":
					if currency == "" {
						currency = content
					}
				case "og:title":
					if title == "" {
						title = content
					}
				}
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "script":
				if scriptType(n) == "application/ld+json" && n.FirstChild != nil {
					jsonBlobs = append(jsonBlobs, n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if amount == "" {
		for _, blob := range jsonBlobs {
			a, c, name := productFromJSONLD(blob)
			if a != "" {
				amount, currency = a, c
				if title == "" {
					title = name
				}
				break
			}
		}
	}
	if amount == "" {
		return tracklib.ExtractResult{}
	}
	price, err := tracklib.ParsePrice(amount)
	if err != nil {
		return tracklib.ExtractResult{}
	}
	return tracklib.ExtractResult{
		Price:    price,
		Currency: currency,
		Title:    title,
		Source:   fallbackSource,
	}
}

// metaAttrs returns the property/name/itemprop key and content of a meta
// element, with the key lowercased.
func metaAttrs(n *html.Node) (key, content string) {
	for _, a := range n.Attr {
		switch a.Key {
		case "property", "name", "itemprop":
			key = strings.ToLower(a.Val)
		case "content":
			content = a.Val
		}
	}
	return key, content
}

func scriptType(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "type" {
			return strings.ToLower(a.Val)
		}
	}
	return ""
}

// productFromJSONLD digs a Product node out of a JSON-LD blob and returns
// its offer price, currency and name. Handles @graph arrays and offers
// given as either an object or a list.
func productFromJSONLD(blob string) (amount, currency, name string) {
	var data any
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		return "", "", ""
	}
	product := findProduct(data)
	if product == nil {
		return "", "", ""
	}
	name, _ = product["name"].(string)
	offer := firstOffer(product["offers"])
	if offer == nil {
		return "", "", ""
	}
	switch p := offer["price"].(type) {
	case string:
		amount = p
	case float64:
		amount = tracklib.PriceFromFloat(p).String()
	}
	currency, _ = offer["priceCurrency"].(string)
	return amount, currency, name
}

func findProduct(data any) map[string]any {
	switch v := data.(type) {
	case map[string]any:
		if t, _ := v["@type"].(string); strings.EqualFold(t, "Product") {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return findProduct(graph)
		}
	case []any:
		for _, item := range v {
			if p := findProduct(item); p != nil {
				return p
			}
		}
	}
	return nil
}

func firstOffer(offers any) map[string]any {
	switch v := offers.(type) {
	case map[string]any:
		return v
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}
