// Package crawler collects forum posts from a cafe-style board search.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/cognicore/korsna/pkg/korsna/internalerr"
)

// RawPost is one crawled post.
type RawPost struct {
	Title string
	Body  string
	URL   string
}

// Combined returns title and body joined by a space.
func (p RawPost) Combined() string {
	return p.Title + " " + p.Body
}

// Source yields posts one at a time. A Source is finite and cannot be
// restarted; Next returns false once it is exhausted.
type Source interface {
	Next(ctx context.Context) (RawPost, bool, error)
}

// SliceSource serves a fixed list of posts.
type SliceSource struct {
	posts []RawPost
	pos   int
}

// NewSliceSource returns a Source over posts.
func NewSliceSource(posts []RawPost) *SliceSource {
	return &SliceSource{posts: posts}
}

func (s *SliceSource) Next(ctx context.Context) (RawPost, bool, error) {
	if err := ctx.Err(); err != nil {
		return RawPost{}, false, err
	}
	if s.pos >= len(s.posts) {
		return RawPost{}, false, nil
	}
	p := s.posts[s.pos]
	s.pos++
	return p, true, nil
}

// Collect drains src.
func Collect(ctx context.Context, src Source) ([]RawPost, error) {
	var out []RawPost
	for {
		p, ok, err := src.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, p)
	}
}

// Options configures a BoardCrawler.
type Options struct {
	BoardURL       string
	Boards         []string // board menu ids; empty searches BoardURL itself
	Keyword        string
	Pages          int
	PerPage        int
	RequestsPerSec float64
	Timeout        time.Duration
	UserAgent      string
	RespectRobots  bool
	ListSelector   string
	TitleSelector  string
	BodySelector   string
	BodyFallback   string

	Client *http.Client
	Logger *log.Logger
}

// BoardCrawler walks the keyword search of each board page by page and
// fetches every listed post.
type BoardCrawler struct {
	opts    Options
	client  *http.Client
	logger  *log.Logger
	limiter *rate.Limiter
	robots  *robotsChecker
	visited *gocache.Cache

	board   int
	page    int
	pending []string
	done    bool
}

// NewBoardCrawler validates opts and returns a crawler.
func NewBoardCrawler(opts Options) (*BoardCrawler, error) {
	if opts.BoardURL == "" || opts.ListSelector == "" || opts.TitleSelector == "" || opts.BodySelector == "" {
		return nil, fmt.Errorf("board url and selectors are required: %w", internalerr.ErrInvalidConfig)
	}
	if opts.Pages <= 0 || opts.RequestsPerSec <= 0 {
		return nil, fmt.Errorf("pages=%d rate=%v: %w", opts.Pages, opts.RequestsPerSec, internalerr.ErrInvalidConfig)
	}
	if _, err := url.Parse(opts.BoardURL); err != nil {
		return nil, fmt.Errorf("board url: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "korsna"
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &BoardCrawler{
		opts:    opts,
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		robots:  newRobotsChecker(client, opts.UserAgent),
		visited: gocache.New(24*time.Hour, time.Hour),
		page:    1,
	}, nil
}

// Next returns the next post. Posts that cannot be fetched or extracted
// are logged and skipped.
func (c *BoardCrawler) Next(ctx context.Context) (RawPost, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return RawPost{}, false, err
		}
		if len(c.pending) == 0 {
			if c.done {
				return RawPost{}, false, nil
			}
			if err := c.nextPage(ctx); err != nil {
				return RawPost{}, false, err
			}
			continue
		}

		link := c.pending[0]
		c.pending = c.pending[1:]
		if _, seen := c.visited.Get(link); seen {
			continue
		}
		c.visited.SetDefault(link, struct{}{})

		post, err := c.fetchPost(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return RawPost{}, false, ctx.Err()
			}
			c.logger.Warn("skipping post", "url", link, "err", err)
			continue
		}
		return post, true, nil
	}
}

// nextPage loads the next search result page into pending, advancing to
// the next board when the page budget is spent or a page lists nothing.
func (c *BoardCrawler) nextPage(ctx context.Context) error {
	boards := c.boards()
	if c.board >= len(boards) {
		c.done = true
		return nil
	}

	pageURL := c.SearchURL(boards[c.board], c.page)
	links, err := c.fetchList(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("skipping board", "url", pageURL, "err", err)
		links = nil
	}
	c.logger.Debug("list page", "board", boards[c.board], "page", c.page, "posts", len(links))

	if len(links) == 0 || c.page >= c.opts.Pages {
		c.board++
		c.page = 1
	} else {
		c.page++
	}
	c.pending = append(c.pending, links...)
	return nil
}

func (c *BoardCrawler) boards() []string {
	if len(c.opts.Boards) == 0 {
		return []string{""}
	}
	return c.opts.Boards
}

// SearchURL returns the keyword search URL of one board page.
func (c *BoardCrawler) SearchURL(board string, page int) string {
	u, err := url.Parse(c.opts.BoardURL)
	if err != nil {
		return c.opts.BoardURL
	}
	q := u.Query()
	if board != "" {
		q.Set("search.menuid", board)
	}
	if c.opts.Keyword != "" {
		q.Set("search.query", c.opts.Keyword)
	}
	q.Set("search.page", strconv.Itoa(page))
	if c.opts.PerPage > 0 {
		q.Set("userDisplay", strconv.Itoa(c.opts.PerPage))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *BoardCrawler) fetchList(ctx context.Context, pageURL string) ([]string, error) {
	doc, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	base, _ := url.Parse(pageURL)

	var links []string
	doc.Find(c.opts.ListSelector).Each(func(_ int, s *goquery.Selection) {
		if c.opts.PerPage > 0 && len(links) >= c.opts.PerPage {
			return
		}
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		links = append(links, base.ResolveReference(ref).String())
	})
	return links, nil
}

func (c *BoardCrawler) fetchPost(ctx context.Context, link string) (RawPost, error) {
	doc, err := c.fetch(ctx, link)
	if err != nil {
		return RawPost{}, err
	}

	title := selectionText(doc.Find(c.opts.TitleSelector).First())
	if title == "" {
		return RawPost{}, fmt.Errorf("title %q not found: %w", c.opts.TitleSelector, internalerr.ErrNotFound)
	}

	body := doc.Find(c.opts.BodySelector).First()
	if body.Length() == 0 && c.opts.BodyFallback != "" {
		body = doc.Find(c.opts.BodyFallback).First()
	}
	if body.Length() == 0 {
		return RawPost{}, fmt.Errorf("body %q not found: %w", c.opts.BodySelector, internalerr.ErrNotFound)
	}

	return RawPost{Title: title, Body: selectionText(body), URL: link}, nil
}

// fetch checks robots.txt, waits for the limiter and parses the page.
func (c *BoardCrawler) fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if c.opts.RespectRobots {
		allowed, delay, err := c.robots.canFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
		}
		if delay > 0 && rate.Every(delay) < c.limiter.Limit() {
			c.limiter.SetLimit(rate.Every(delay))
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}
