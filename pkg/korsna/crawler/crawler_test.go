package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"github.com/cognicore/korsna/pkg/korsna/internalerr"
)

func newBoardServer(t *testing.T) *httptest.Server {
	t.Helper()
	lists := map[string]string{
		"1": `<a class="article" href="/post/1">1</a>
		      <a class="article" href="/post/2">2</a>
		      <a class="article" href="/post/1">1 again</a>
		      <a class="article" href="/private/3">3</a>
		      <a class="article" href="/post/4">4</a>`,
		"2": `<a class="article" href="post/5">5</a>`,
	}
	posts := map[string]string{
		"/post/1": `<h3 class="title">육아휴직 신청</h3><div class="main"><p>회사에 <b>육아휴직</b> 신청했어요</p><p>급여 문의</p></div>`,
		"/post/2": `<h3 class="title">복직 고민</h3><div class="main">복직 후<br>어린이집</div>`,
		"/post/4": `<h3 class="title">본문 없음</h3><div class="other">x</div>`,
		"/post/5": `<h3 class="title">대체 본문</h3><div class="fallback"><script>x()</script>남편 휴직</div>`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
	})
	mux.HandleFunc("/board", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search.query") != "육아휴직" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, "<html><body>%s</body></html>", lists[r.URL.Query().Get("search.page")])
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := posts[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "<html><body>%s</body></html>", body)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(srv *httptest.Server) Options {
	return Options{
		BoardURL:       srv.URL + "/board",
		Keyword:        "육아휴직",
		Pages:          5,
		RequestsPerSec: 1000,
		UserAgent:      "korsna-test/1.0",
		RespectRobots:  true,
		ListSelector:   "a.article",
		TitleSelector:  "h3.title",
		BodySelector:   "div.main",
		BodyFallback:   "div.fallback",
		Client:         srv.Client(),
		Logger:         log.New(io.Discard),
	}
}

func TestBoardCrawler(t *testing.T) {
	srv := newBoardServer(t)
	c, err := NewBoardCrawler(testOptions(srv))
	if err != nil {
		t.Fatalf("NewBoardCrawler: %v", err)
	}

	posts, err := Collect(context.Background(), c)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := []RawPost{
		{Title: "육아휴직 신청", Body: "회사에 육아휴직 신청했어요\n급여 문의", URL: srv.URL + "/post/1"},
		{Title: "복직 고민", Body: "복직 후\n어린이집", URL: srv.URL + "/post/2"},
		{Title: "대체 본문", Body: "남편 휴직", URL: srv.URL + "/post/5"},
	}
	if len(posts) != len(want) {
		t.Fatalf("Got %d posts: %+v", len(posts), posts)
	}
	for i := range want {
		if posts[i] != want[i] {
			t.Errorf("post %d = %+v, want %+v", i, posts[i], want[i])
		}
	}

	// Exhausted sources stay exhausted.
	if _, ok, err := c.Next(context.Background()); ok || err != nil {
		t.Errorf("Next after end: ok=%v err=%v", ok, err)
	}
}

func TestBoardCrawlerPageBudget(t *testing.T) {
	srv := newBoardServer(t)
	opts := testOptions(srv)
	opts.Pages = 1
	opts.PerPage = 2
	c, err := NewBoardCrawler(opts)
	if err != nil {
		t.Fatal(err)
	}
	posts, err := Collect(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 {
		t.Errorf("Expected 2 posts within the budget, got %+v", posts)
	}
}

func TestBoardCrawlerCancelled(t *testing.T) {
	srv := newBoardServer(t)
	c, err := NewBoardCrawler(testOptions(srv))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := c.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNewBoardCrawlerValidates(t *testing.T) {
	if _, err := NewBoardCrawler(Options{}); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestSearchURL(t *testing.T) {
	c, err := NewBoardCrawler(Options{
		BoardURL: "https://cafe.example/ArticleSearchList.nhn?search.clubid=7",
		Keyword:  "육아휴직", Pages: 1, PerPage: 15, RequestsPerSec: 1,
		ListSelector: "a", TitleSelector: "h3", BodySelector: "div",
	})
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(c.SearchURL("135", 3))
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	checks := map[string]string{
		"search.clubid": "7",
		"search.menuid": "135",
		"search.query":  "육아휴직",
		"search.page":   "3",
		"userDisplay":   "15",
	}
	for k, v := range checks {
		if q.Get(k) != v {
			t.Errorf("%s = %q, want %q", k, q.Get(k), v)
		}
	}
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div id="x"><p>첫   줄</p><style>.a{}</style><ul><li>둘</li><li>셋</li></ul>끝</div>`))
	if err != nil {
		t.Fatal(err)
	}
	got := selectionText(doc.Find("#x"))
	if got != "첫 줄\n둘\n셋\n끝" {
		t.Errorf("selectionText = %q", got)
	}
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource([]RawPost{{Title: "a", Body: "b"}})
	posts, err := Collect(context.Background(), src)
	if err != nil || len(posts) != 1 || posts[0].Combined() != "a b" {
		t.Errorf("Collect = %+v, %v", posts, err)
	}
}
