package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kevinaaaquil/shelfmates/models"
	"github.com/kevinaaaquil/shelfmates/utils"
	"golang.org/x/time/rate"
)

const googleBooksBase = "https://www.googleapis.com/books/v1/volumes"

const maxSearchResults = 40

// googleBooksVolumesResp is the response from GET /volumes?q=...
type googleBooksVolumesResp struct {
	TotalItems int                 `json:"totalItems"`
	Items      []googleBooksVolume `json:"items"`
}

// googleBooksVolume is one search hit, also the response from GET /volumes/{id}.
type googleBooksVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title       string   `json:"title"`
		Subtitle    string   `json:"subtitle"`
		Authors     []string `json:"authors"`
		Description string   `json:"description"`
		// number in the public API, but mirrors and older volumes send strings
		PageCount  json.RawMessage `json:"pageCount"`
		ImageLinks struct {
			SmallThumbnail string `json:"smallThumbnail"`
			Thumbnail      string `json:"thumbnail"`
		} `json:"imageLinks"`
		IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
	} `json:"volumeInfo"`
}

// CatalogCache stores search results by key. Implementations must be safe for
// concurrent use; a miss or a cache fault both report false.
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]models.CatalogBook, bool)
	Set(ctx context.Context, key string, books []models.CatalogBook)
}

type CatalogConfig struct {
	BaseURL string // defaults to the Google Books volumes endpoint
	APIKey  string
	// RPS caps outgoing requests per second; zero means unlimited.
	RPS     float64
	Timeout time.Duration
	Cache   CatalogCache
	Logger  *slog.Logger
}

// Catalog searches the Google Books catalog. Every failure degrades to an empty
// result so callers never have to handle catalog errors.
type Catalog struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	cache   CatalogCache
	logger  *slog.Logger
}

func NewCatalog(cfg CatalogConfig) *Catalog {
	c := &Catalog{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Inf, 0),
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = googleBooksBase
	}
	if cfg.Timeout <= 0 {
		// short so slow/hung responses don't block the request
		c.client.Timeout = 15 * time.Second
	}
	if cfg.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Search runs a free-text query and returns at most limit books.
func (c *Catalog) Search(ctx context.Context, query string, limit int) []models.CatalogBook {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}
	return c.fetch(ctx, "search:"+strconv.Itoa(limit)+":"+strings.ToLower(query), func() ([]models.CatalogBook, error) {
		return c.query(ctx, query, limit)
	})
}

// Lookup finds a single book by ISBN or, for books without one, by catalog
// volume id.
func (c *Catalog) Lookup(ctx context.Context, id string) (models.CatalogBook, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.CatalogBook{}, false
	}
	var books []models.CatalogBook
	if isbn := utils.CleanISBN(id); utils.ValidISBN(isbn) {
		books = c.fetch(ctx, "isbn:"+isbn, func() ([]models.CatalogBook, error) {
			return c.query(ctx, "isbn:"+isbn, 1)
		})
	} else {
		books = c.fetch(ctx, "volume:"+id, func() ([]models.CatalogBook, error) {
			return c.volume(ctx, id)
		})
	}
	if len(books) == 0 {
		return models.CatalogBook{}, false
	}
	return books[0], true
}

func (c *Catalog) fetch(ctx context.Context, cacheKey string, load func() ([]models.CatalogBook, error)) []models.CatalogBook {
	if c.cache != nil {
		if books, ok := c.cache.Get(ctx, cacheKey); ok {
			return books
		}
	}
	books, err := load()
	if err != nil {
		c.logger.Warn("catalog_query_failed", "key", cacheKey, "error", err)
		return nil
	}
	if c.cache != nil {
		c.cache.Set(ctx, cacheKey, books)
	}
	return books
}

func (c *Catalog) query(ctx context.Context, q string, limit int) ([]models.CatalogBook, error) {
	v := url.Values{}
	v.Set("q", q)
	v.Set("maxResults", strconv.Itoa(limit))
	var data googleBooksVolumesResp
	if err := c.get(ctx, c.baseURL, v, &data); err != nil {
		return nil, err
	}
	books := make([]models.CatalogBook, 0, len(data.Items))
	for _, item := range data.Items {
		books = append(books, toCatalogBook(item))
		if len(books) == limit {
			break
		}
	}
	return books, nil
}

func (c *Catalog) volume(ctx context.Context, id string) ([]models.CatalogBook, error) {
	var item googleBooksVolume
	if err := c.get(ctx, c.baseURL+"/"+url.PathEscape(id), url.Values{}, &item); err != nil {
		return nil, err
	}
	if item.ID == "" {
		return []models.CatalogBook{}, nil
	}
	return []models.CatalogBook{toCatalogBook(item)}, nil
}

func (c *Catalog) get(ctx context.Context, endpoint string, v url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if c.apiKey != "" {
		v.Set("key", c.apiKey)
	}
	if len(v) > 0 {
		endpoint += "?" + v.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google books returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toCatalogBook(item googleBooksVolume) models.CatalogBook {
	vi := item.VolumeInfo
	b := models.CatalogBook{
		ID:          item.ID,
		Title:       vi.Title,
		Author:      strings.Join(vi.Authors, ", "),
		Description: strings.TrimSpace(vi.Description),
		PageCount:   parsePageCount(vi.PageCount),
	}
	if vi.Subtitle != "" {
		b.Title = b.Title + ": " + vi.Subtitle
	}
	if isbn := pickISBN(vi.IndustryIdentifiers); isbn != "" {
		b.ID = isbn
	}
	// Open Library covers by ISBN need no captcha; Google image links often do
	if b.ID != item.ID {
		b.CoverURL = openLibraryCoverURL(b.ID, "M")
	} else {
		b.CoverURL = vi.ImageLinks.Thumbnail
	}
	return b
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// pickISBN prefers ISBN-13 over ISBN-10.
func pickISBN(ids []industryIdentifier) string {
	var isbn10 string
	for _, id := range ids {
		switch id.Type {
		case "ISBN_13":
			return utils.CleanISBN(id.Identifier)
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = utils.CleanISBN(id.Identifier)
			}
		}
	}
	return isbn10
}

// parsePageCount keeps the catalog's page count in whatever form it was sent.
func parsePageCount(raw json.RawMessage) models.PageCount {
	if len(raw) == 0 || string(raw) == "null" {
		return models.PageCount{}
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n <= 0 {
			return models.PageCount{}
		}
		return models.NumericPages(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
		return models.TextPages(s)
	}
	return models.PageCount{}
}

// openLibraryCoverURL returns a direct cover image URL by ISBN. Size: S (small), M (medium), L (large).
func openLibraryCoverURL(isbn, size string) string {
	clean := utils.CleanISBN(isbn)
	if clean == "" {
		return ""
	}
	return "https://covers.openlibrary.org/b/isbn/" + url.PathEscape(clean) + "-" + size + ".jpg"
}
