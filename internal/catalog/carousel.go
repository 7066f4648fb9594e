package catalog

import (
	"context"
	"sync"
	"time"

	"storefront-service/internal/domain"
)

const (
	DefaultTransition = 500 * time.Millisecond
	DefaultAutoplay   = 6 * time.Second
)

// Badge marks where a carousel slide came from.
type Badge string

const (
	BadgeSponsored Badge = "sponsored"
	BadgeFeatured  Badge = "featured"
)

// Slide is one carousel entry: an active ad or a featured product.
type Slide struct {
	ID       string  `json:"id"`
	Badge    Badge   `json:"badge"`
	Label    string  `json:"label"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	LinkURL  string  `json:"link_url,omitempty"`
	Price    float64 `json:"price,omitempty"`
}

// BuildSlides lists the active ads followed by the featured products, each group in input order.
func BuildSlides(ads []domain.Ad, products []domain.Product) []Slide {
	slides := make([]Slide, 0, len(ads))
	for _, ad := range ads {
		if !ad.IsActive {
			continue
		}
		slides = append(slides, Slide{
			ID:       ad.ID,
			Badge:    BadgeSponsored,
			Label:    "Publicidade VIP",
			Title:    ad.Title,
			ImageURL: ad.ImageURL,
			LinkURL:  ad.LinkURL,
		})
	}
	for _, p := range Featured(products) {
		slides = append(slides, Slide{
			ID:       p.ID,
			Badge:    BadgeFeatured,
			Label:    "Destaque Elite",
			Title:    p.Title,
			ImageURL: p.CoverURL,
			Price:    p.Price,
		})
	}
	return slides
}

// CarouselView is the rotation state handed to clients.
type CarouselView struct {
	Slides        []Slide `json:"slides"`
	Index         int     `json:"index"`
	Current       *Slide  `json:"current,omitempty"`
	Transitioning bool    `json:"transitioning"`
}

// Carousel is the shared rotation over the slide list. Every move starts a transition window
// during which further moves are ignored.
type Carousel struct {
	mu          sync.Mutex
	slides      []Slide
	index       int
	lockedUntil time.Time

	transition time.Duration
	autoplay   time.Duration
	now        func() time.Time
}

// NewCarousel creates an empty carousel. Non-positive durations fall back to the defaults.
func NewCarousel(transition, autoplay time.Duration) *Carousel {
	if transition <= 0 {
		transition = DefaultTransition
	}
	if autoplay <= 0 {
		autoplay = DefaultAutoplay
	}
	return &Carousel{transition: transition, autoplay: autoplay, now: time.Now}
}

// Reset replaces the slide list, keeping the index when it is still in range.
func (c *Carousel) Reset(slides []Slide) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slides = append([]Slide(nil), slides...)
	if c.index >= len(c.slides) {
		c.index = 0
	}
}

// View returns a copy of the current rotation state.
func (c *Carousel) View() CarouselView {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := CarouselView{
		Slides:        append([]Slide(nil), c.slides...),
		Index:         c.index,
		Transitioning: c.now().Before(c.lockedUntil),
	}
	if len(c.slides) > 0 {
		cur := c.slides[c.index]
		v.Current = &cur
	}
	return v
}

// Len is the number of slides.
func (c *Carousel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slides)
}

// Index is the position of the visible slide.
func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Next moves one slide forward. It reports false when the move was ignored.
func (c *Carousel) Next() bool {
	return c.move(func(i, n int) int { return (i + 1) % n })
}

// Prev moves one slide back.
func (c *Carousel) Prev() bool {
	return c.move(func(i, n int) int { return (i - 1 + n) % n })
}

// Select jumps to slide i. Out-of-range indexes are ignored.
func (c *Carousel) Select(i int) bool {
	return c.move(func(_, n int) int {
		if i < 0 || i >= n {
			return -1
		}
		return i
	})
}

// Advance is the autoplay step. A list of one slide never rotates.
func (c *Carousel) Advance() bool {
	if c.Len() <= 1 {
		return false
	}
	return c.Next()
}

func (c *Carousel) move(step func(i, n int) int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.slides)
	if n == 0 {
		return false
	}
	now := c.now()
	if now.Before(c.lockedUntil) {
		return false
	}
	next := step(c.index, n)
	if next < 0 {
		return false
	}
	c.index = next
	c.lockedUntil = now.Add(c.transition)
	return true
}

// Autoplay advances the rotation on every tick until ctx is cancelled.
func (c *Carousel) Autoplay(ctx context.Context) {
	ticker := time.NewTicker(c.autoplay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Advance()
		}
	}
}
