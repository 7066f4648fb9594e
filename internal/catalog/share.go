package catalog

import (
	"net/url"
	"strings"

	"storefront-service/internal/domain"
)

// ShareLinks holds the public product URL and the social share intents for it.
type ShareLinks struct {
	URL      string `json:"url"`
	WhatsApp string `json:"whatsapp"`
	Facebook string `json:"facebook"`
	Twitter  string `json:"twitter"`
}

// ProductURL is the public page of a product under baseURL.
func ProductURL(baseURL, productID string) string {
	return strings.TrimRight(baseURL, "/") + "/products/" + url.PathEscape(productID)
}

// Share builds the share intents for p as sold by storeName.
func Share(baseURL, storeName string, p domain.Product) ShareLinks {
	link := ProductURL(baseURL, p.ID)
	return ShareLinks{
		URL:      link,
		WhatsApp: "https://wa.me/?text=" + escape("Olha este ativo incrível na "+storeName+": "+p.Title+" - "+link),
		Facebook: "https://www.facebook.com/sharer/sharer.php?u=" + escape(link),
		Twitter: "https://twitter.com/intent/tweet?text=" + escape("Elevando o nível com "+p.Title+" na "+storeName) +
			"&url=" + escape(link),
	}
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
