package lens

import (
	"regexp"

	"codelens/internal/types"
)

// Descriptor is one analysis module. Descriptors are defined once and never mutated.
type Descriptor struct {
	ID          string
	Name        string
	Priority    int
	Weight      float64
	Detect      Detector
	Instruction string
}

// Ref returns the profile view of the descriptor.
func (d Descriptor) Ref() types.ModuleRef {
	return types.ModuleRef{ID: d.ID, Name: d.Name, Priority: d.Priority, Weight: d.Weight}
}

// Registry is an ordered, read-only catalog. Safe for concurrent use.
type Registry struct {
	entries  []Descriptor
	byID     map[string]int
	fallback Descriptor
}

// NewRegistry builds a registry; ids must be unique, later duplicates are dropped.
func NewRegistry(fallback Descriptor, entries ...Descriptor) *Registry {
	r := &Registry{byID: make(map[string]int, len(entries)), fallback: fallback}
	for _, e := range entries {
		if _, dup := r.byID[e.ID]; dup {
			continue
		}
		r.byID[e.ID] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r
}

// Entries returns the descriptors in registry order.
func (r *Registry) Entries() []Descriptor {
	return append([]Descriptor(nil), r.entries...)
}

// Lookup finds a descriptor (the fallback included) by id.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	if id == r.fallback.ID {
		return r.fallback, true
	}
	i, ok := r.byID[id]
	if !ok {
		return Descriptor{}, false
	}
	return r.entries[i], true
}

// Fallback is the general-purpose module used when nothing is detected.
func (r *Registry) Fallback() Descriptor { return r.fallback }

// Index returns registry position, used as the sort tie-break.
func (r *Registry) Index(id string) int {
	if i, ok := r.byID[id]; ok {
		return i
	}
	return len(r.entries)
}

var defaultRegistry = NewRegistry(generalModule, catalog()...)

// Default returns the shared stock registry.
func Default() *Registry { return defaultRegistry }

var generalModule = Descriptor{
	ID:       "general",
	Name:     "General Performance Review",
	Priority: 1,
	Weight:   0.5,
	Detect:   Never{},
	Instruction: `Review the code for the most expensive operations on the hot path:
repeated work inside loops, blocking I/O on request paths, unbounded collections
and redundant computation. Tie every finding to a concrete file and line.`,
}

func catalog() []Descriptor {
	return []Descriptor{
		{
			ID:       "database",
			Name:     "Database Performance",
			Priority: 9,
			Weight:   0.95,
			Detect: AnyOf{
				Extensions{".sql", ".prisma"},
				PathContains{"migrations/", "models/", "repositories/", "schema.prisma"},
				Content(`(?i)\bselect\s+[\w*, ]+\s+from\b|\binsert\s+into\b|prisma\.\w+\.(find|create|update)|mongoose\.|sequelize|\bgorm\.|knex\(|typeorm|sqlalchemy|\.objects\.(filter|all|get)\(`),
			},
			Instruction: `Inspect every query path. Flag N+1 query patterns (queries issued inside loops
or per-item resolvers), missing indexes implied by WHERE/ORDER BY columns,
SELECT * over wide tables, unbounded result sets without LIMIT/pagination and
transactions held open across network calls. For each finding estimate the
query count or latency per request before and after the fix.`,
		},
		{
			ID:       "api_latency",
			Name:     "API & Request Latency",
			Priority: 8,
			Weight:   0.9,
			Detect: AnyOf{
				PathContains{"routes/", "controllers/", "handlers/", "/api/", "endpoints/"},
				Content(`express\(\)|app\.(get|post|put|delete)\(|router\.(get|post|put|delete)\(|fastapi|@app\.route|flask|http\.HandleFunc|gin\.(Default|New)\(|@(Get|Post)Mapping|@RestController`),
			},
			Instruction: `Trace each request handler end to end. Flag sequential awaits that could run
concurrently, synchronous CPU-heavy work on the request thread, missing
response caching, oversized payloads and chatty downstream calls. Quantify
added latency in milliseconds per request and the affected request volume.`,
		},
		{
			ID:       "frontend_rendering",
			Name:     "Frontend Rendering",
			Priority: 8,
			Weight:   0.85,
			Detect: AnyOf{
				Extensions{".tsx", ".jsx", ".vue", ".svelte"},
				Content(`\buse(State|Effect|Memo|Callback)\(|React\.|from ['"]react['"]|createApp\(|defineComponent\(`),
			},
			Instruction: `Look for unnecessary re-renders (unstable props, inline objects/functions passed
to memoized children, missing keys), effects without dependency arrays,
large lists rendered without virtualization and layout thrashing. Quantify
render counts, frame time in ms or Core Web Vitals impact.`,
		},
		{
			ID:       "algorithmic_complexity",
			Name:     "Algorithmic Complexity",
			Priority: 7,
			Weight:   0.8,
			Detect: MinMatches{
				Pattern: regexp.MustCompile(`\bfor\b|\bwhile\b|\.forEach\(|\.map\(|\.filter\(|\.reduce\(`),
				PerFile: 4,
				Count:   1,
			},
			Instruction: `Identify nested iteration over the same or related collections (O(n^2) or worse),
linear lookups inside loops that a map/set would make O(1), repeated sorting
and recomputation of invariant values. State the current and improved
complexity and the expected speedup at realistic input sizes.`,
		},
		{
			ID:       "async_concurrency",
			Name:     "Async & Concurrency",
			Priority: 7,
			Weight:   0.75,
			Detect: Content(`\basync\s+(def|function|\()|\bawait\b|Promise\.all|\bgo func\(|asyncio|threading\.|ThreadPoolExecutor|CompletableFuture|sync\.WaitGroup`),
			Instruction: `Check for serialized awaits on independent work, unbounded fan-out without a
concurrency limit, blocking calls inside async code, lock contention and
missing cancellation. Quantify wall-clock time saved or throughput gained.`,
		},
		{
			ID:       "memory_management",
			Name:     "Memory Management",
			Priority: 6,
			Weight:   0.7,
			Detect: Content(`setInterval\(|addEventListener\(|new Array\(\d{4,}|Buffer\.(alloc|from)\(|bytearray\(|\bmalloc\(|WeakMap|global\s+cache|static\s+(final\s+)?(Map|List)<`),
			Instruction: `Look for listeners and timers that are never removed, caches without eviction,
large buffers copied on every call and objects retained by closures. Quantify
memory growth in MB per hour or per request and GC pause impact.`,
		},
		{
			ID:       "bundle_size",
			Name:     "Bundle Size & Loading",
			Priority: 6,
			Weight:   0.65,
			Detect: AnyOf{
				PathContains{"package.json", "webpack.config", "vite.config", "rollup.config", "next.config"},
				Content(`import\s+\*\s+as\s+\w+\s+from\s+['"](lodash|moment|rxjs)['"]|require\(['"](lodash|moment)['"]\)`),
			},
			Instruction: `Review dependencies and imports for whole-library imports, missing code splitting
on routes, heavy date/utility libraries with lighter alternatives and assets
shipped uncompressed. Quantify size in KB (gzipped) and load time at 4G speeds.`,
		},
		{
			ID:       "network_io",
			Name:     "Network & I/O",
			Priority: 5,
			Weight:   0.6,
			Detect: Content(`\bfetch\(|axios\.|http\.(Get|Post)\(|requests\.(get|post)\(|XMLHttpRequest|urllib|HttpClient|fs\.readFileSync|open\([^)]*['"]r`),
			Instruction: `Find repeated identical requests, missing timeouts and retries with backoff,
synchronous file I/O on hot paths and responses read fully into memory when
they could be streamed. Quantify calls per operation and latency per call.`,
		},
		{
			ID:       "caching",
			Name:     "Caching Strategy",
			Priority: 5,
			Weight:   0.55,
			Detect: Content(`(?i)\bredis\b|memcache|\blru\b|@cache|@lru_cache|cache\.(get|set)\(|Cache-Control`),
			Instruction: `Evaluate cache keys, TTLs and invalidation. Flag caches that are never hit,
stampedes on expiry, missing caching of expensive pure computations and
unbounded cache growth. Quantify hit-rate change and latency saved per hit.`,
		},
		{
			ID:       "microservices",
			Name:     "Service Topology",
			Priority: 6,
			Weight:   0.6,
			Detect: AnyOf{
				PathContains{"docker-compose", "k8s/", "kubernetes/", "helm/", "microservices"},
				MinMatches{Inner: Extensions{".proto"}, Count: 2},
			},
			Instruction: `Map the synchronous call chains between services. Flag chatty inter-service
calls, missing bulk endpoints, serialized fan-out and absent circuit breakers.
Quantify hop count and cumulative latency per user-facing request.`,
		},
		{
			ID:       "codebase_scale",
			Name:     "Codebase Scale & Structure",
			Priority: 3,
			Weight:   0.4,
			Detect:   MinFiles(20),
			Instruction: `Given the size of the codebase, prioritize findings on shared utilities and
modules imported widely, where one fix has the largest blast radius. State
how many call sites or files each finding affects.`,
		},
	}
}
