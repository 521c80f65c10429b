package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"tripdig/internal/webcache"
	"tripdig/internal/workerpool"
)

// redirectTransport rewrites every outbound request to point at a fixed
// test server, regardless of the scheme/host links.CreateAPIURL baked
// in, so tests never touch the real network.
type redirectTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return rt.base.RoundTrip(req)
}

func TestClassifyThreadPageBoard(t *testing.T) {
	cases := []struct {
		link string
		want WorkUnit
	}{
		{"/g/res/123", Thread{Board: "g", ID: 123}},
		{"/g/5", Page{Board: "g", Index: 5}},
		{"/g/", Board{Name: "g"}},
		{"http://boards.4chan.org/g/res/999", Thread{Board: "g", ID: 999}},
	}
	for _, c := range cases {
		got, err := Classify(c.link)
		if err != nil {
			t.Fatalf("classify(%q): unexpected error: %v", c.link, err)
		}
		if got != c.want {
			t.Errorf("classify(%q) = %#v, want %#v", c.link, got, c.want)
		}
	}
}

func TestClassifyRejectsUnmatchedInput(t *testing.T) {
	if _, err := Classify("not a path at all ???"); err == nil {
		t.Error("expected an error for unclassifiable input")
	}
}

// TestThreadProcessPropagatesDecodeError asserts that, like
// Board.Process and Page.Process, a malformed thread JSON payload is
// surfaced as an error rather than silently discarded, so callers can
// log it (spec §7: "JSON decode failure … Log; entity produces zero
// children").
func TestThreadProcessPropagatesDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	client := &http.Client{Transport: redirectTransport{target: target, base: http.DefaultTransport}}

	cache := webcache.New(webcache.WithHTTPClient(client))
	env := &Env{Cache: cache}

	th := Thread{Board: "board", ID: 1}
	posts, err := th.Process(context.Background(), env)
	if err == nil {
		t.Fatal("expected a decode error for malformed thread JSON")
	}
	if posts != nil {
		t.Fatalf("expected no posts alongside a decode error, got %v", posts)
	}
}

// TestForkJoinFiveByFourByThree wires the real Board -> Page -> Thread ->
// Post hierarchy through a worker pool against a fake 4chan API: 5
// pages, each with 4 threads, each with 3 tripped posts, for 60 posts
// total.
func TestForkJoinFiveByFourByThree(t *testing.T) {
	const (
		pages       = 5
		threadsPage = 4
		postsThread = 3
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/board/threads.json", func(w http.ResponseWriter, r *http.Request) {
		out := "["
		for p := 0; p < pages; p++ {
			if p > 0 {
				out += ","
			}
			out += fmt.Sprintf(`{"page":%d,"threads":[]}`, p)
		}
		out += "]"
		w.Write([]byte(out))
	})
	for p := 0; p < pages; p++ {
		p := p
		mux.HandleFunc(fmt.Sprintf("/board/%d.json", p), func(w http.ResponseWriter, r *http.Request) {
			out := `{"threads":[`
			for i := 0; i < threadsPage; i++ {
				if i > 0 {
					out += ","
				}
				threadID := p*threadsPage + i + 1
				out += fmt.Sprintf(`{"posts":[{"no":%d}]}`, threadID)
			}
			out += `]}`
			w.Write([]byte(out))
		})
	}
	for p := 0; p < pages; p++ {
		for i := 0; i < threadsPage; i++ {
			threadID := p*threadsPage + i + 1
			mux.HandleFunc(fmt.Sprintf("/board/res/%d.json", threadID), func(w http.ResponseWriter, r *http.Request) {
				out := `{"posts":[`
				for j := 0; j < postsThread; j++ {
					if j > 0 {
						out += ","
					}
					out += fmt.Sprintf(`{"no":%d,"time":1,"name":"anon","trip":"!abcdefghi/"}`, j+1)
				}
				out += `]}`
				w.Write([]byte(out))
			})
		}
	}

	srv := httptest.NewServer(mux)
	defer srv.Close()

	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	client := &http.Client{Transport: redirectTransport{target: target, base: http.DefaultTransport}}

	cache := webcache.New(webcache.WithHTTPClient(client))
	env := &Env{Cache: cache}
	ctx := context.Background()

	pool := workerpool.New(8)
	defer pool.Close()

	var work func(unit any) any
	work = func(unit any) any {
		switch u := unit.(type) {
		case Board:
			pg, err := u.Process(ctx, env)
			if err != nil {
				return nil
			}
			for _, p := range pg {
				pool.Push(work, p)
			}
		case Page:
			threads, err := u.Process(ctx, env)
			if err != nil {
				return nil
			}
			for _, th := range threads {
				pool.Push(work, th)
			}
		case Thread:
			posts, err := u.Process(ctx, env)
			if err != nil {
				return nil
			}
			for _, p := range posts {
				pool.Push(work, p)
			}
		case Post:
			return u
		}
		return nil
	}

	pool.Push(work, Board{Name: "board"})
	pool.Join()

	results := pool.GetResults()
	if len(results) != pages*threadsPage*postsThread {
		t.Fatalf("expected %d posts, got %d", pages*threadsPage*postsThread, len(results))
	}
	for _, r := range results {
		if _, ok := r.(Post); !ok {
			t.Fatalf("expected every result to be a Post, got %T", r)
		}
	}
}
