package feed

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// fallbackImages maps each category to a stock image so the frontend always
// has something to render.
var fallbackImages = map[string]string{
	"política":      "https://images.unsplash.com/photo-1529107386315-e1a2ed48a620?w=800&h=400&fit=crop",
	"economía":      "https://images.unsplash.com/photo-1611974789855-9c2a0a7236a3?w=800&h=400&fit=crop",
	"tecnología":    "https://images.unsplash.com/photo-1518709268805-4e9042af2176?w=800&h=400&fit=crop",
	"internacional": "https://images.unsplash.com/photo-1484807352052-23338990c6c6?w=800&h=400&fit=crop",
	"social":        "https://images.unsplash.com/photo-1544027993-37dbfe43562a?w=800&h=400&fit=crop",
}

const defaultImage = "https://images.unsplash.com/photo-1586339949916-3e9457bef6d3?w=800&h=400&fit=crop"

// FallbackImage returns the stock image for a category.
func FallbackImage(category string) string {
	if img, ok := fallbackImages[strings.ToLower(category)]; ok {
		return img
	}
	return defaultImage
}

// ExtractImage pulls the best candidate image URL from a feed item: media
// enclosures first, then the feed-level image element, then the first <img>
// in the summary/content HTML. Returns "" when nothing valid is found.
func ExtractImage(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && validImageURL(enc.URL) {
			return enc.URL
		}
	}

	if item.Image != nil && validImageURL(item.Image.URL) {
		return item.Image.URL
	}

	for _, html := range []string{item.Description, item.Content} {
		if html == "" {
			continue
		}
		if src := imageFromHTML(html); src != "" {
			return src
		}
	}

	return ""
}

func imageFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if ok && validImageURL(src) {
			found = src
			return false
		}
		return true
	})
	return found
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg"}

var imageHosts = []string{"unsplash.com", "imgur.com", "cloudinary.com", "amazonaws.com"}

// validImageURL filters out non-HTTP links and the feed-XML URLs some outlets
// stuff into media fields.
func validImageURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}

	lower := strings.ToLower(raw)
	if strings.Contains(lower, "<?xml") || strings.Contains(lower, "<rss") ||
		strings.HasSuffix(lower, ".xml") || strings.HasSuffix(lower, ".rss") {
		return false
	}

	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	// Resizer-style query params strongly suggest an image CDN.
	if strings.Contains(lower, "w=") || strings.Contains(lower, "h=") ||
		strings.Contains(lower, "fit=crop") || strings.Contains(lower, "format=") {
		return true
	}
	for _, host := range imageHosts {
		if strings.Contains(strings.ToLower(u.Host), host) {
			return true
		}
	}
	return false
}
