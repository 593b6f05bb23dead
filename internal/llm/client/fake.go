package llmclient

import (
	"context"
	"sync"
)

// FakeReply is one scripted outcome.
type FakeReply struct {
	Text string
	Err  error
}

// FakeClient replays scripted replies in order for offline runs and tests.
// Once the script is exhausted the last reply repeats; with no script it
// returns CannedReport.
type FakeClient struct {
	mu       sync.Mutex
	replies  []FakeReply
	requests []Request
}

func NewFakeClient(replies ...FakeReply) *FakeClient {
	return &FakeClient{replies: replies}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	var r FakeReply
	switch {
	case len(f.replies) == 0:
		r = FakeReply{Text: CannedReport}
	case n <= len(f.replies):
		r = f.replies[n-1]
	default:
		r = f.replies[len(f.replies)-1]
	}
	f.mu.Unlock()

	if r.Err != nil {
		return Response{}, r.Err
	}
	if r.Text == "" {
		return Response{Model: "fake"}, ErrEmptyResponse
	}
	return Response{
		Text:         r.Text,
		Model:        "fake",
		PromptTokens: CountTokens(req.SystemInstruction) + CountTokens(req.Context) + CountTokens(req.Prompt),
		OutputTokens: CountTokens(r.Text),
	}, nil
}

// Requests returns a copy of every request seen so far.
func (f *FakeClient) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// Calls is the number of Generate invocations.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// CannedReport is a well-formed performance report used when no script is set.
const CannedReport = `{
  "summary": "The request path spends most of its time in the database layer: the order listing issues one query per order and the search endpoint sorts the full catalog in memory on every call. Fixing both removes roughly 400ms from p95 latency.",
  "hotspots": [
    {
      "title": "N+1 query in order listing",
      "location": "src/orders/service.ts:42",
      "description": "listOrders() runs a SELECT for each order inside a for loop.",
      "impact": "120 queries per page load, about 480ms at 4ms per query.",
      "suggestion": "Fetch items with one WHERE order_id IN (...) query and group them in memory.",
      "severity": "critical"
    },
    {
      "title": "Full catalog sort per search",
      "location": "src/search/handler.ts:88",
      "description": "search() sorts all 50,000 products before filtering.",
      "impact": "O(n log n) work on every request, 35ms of CPU per call.",
      "suggestion": "Filter first and sort only the matching page, or use the indexed ORDER BY.",
      "severity": "high"
    },
    {
      "title": "Uncached config read",
      "location": "loadConfig()",
      "description": "loadConfig() reads and parses config.json on every request.",
      "impact": "2ms of synchronous file I/O per request at 300 rps.",
      "suggestion": "Parse the file once at startup and keep the result in memory.",
      "severity": "medium"
    }
  ],
  "bottlenecks": [
    {
      "title": "Serialized downstream calls",
      "location": "src/checkout/flow.ts:120",
      "description": "checkout() awaits pricing, inventory and tax services one after another.",
      "impact": "3 sequential calls of 60ms each add 120ms versus running them concurrently.",
      "suggestion": "Run the three independent calls with Promise.all.",
      "severity": "high"
    },
    {
      "title": "Unbounded in-memory cache",
      "location": "src/cache/store.ts:15",
      "description": "The session cache never evicts entries.",
      "impact": "Heap grows about 40MB per hour under normal traffic.",
      "suggestion": "Replace the map with an LRU bounded to 10,000 entries.",
      "severity": "medium"
    }
  ],
  "codeExample": "BEFORE:\nfor (const order of orders) {\n  order.items = await db.query('SELECT * FROM items WHERE order_id = $1', [order.id])\n}\n\nAFTER:\nconst items = await db.query('SELECT * FROM items WHERE order_id = ANY($1)', [orders.map(o => o.id)])\nconst byOrder = groupBy(items, 'order_id')\nfor (const order of orders) order.items = byOrder[order.id] ?? []"
}`
