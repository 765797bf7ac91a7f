package starlark

import (
	"sync"

	"github.com/leapstack-labs/specmacro/internal/macro"
	"go.starlark.net/starlark"
)

// ThreadPool manages a pool of Starlark threads so concurrent spec parses
// can share one Runner.
type ThreadPool struct {
	mu      sync.Mutex
	threads []*starlark.Thread
	maxSize int
}

// NewThreadPool creates a new thread pool with the specified maximum size.
func NewThreadPool(maxSize int) *ThreadPool {
	if maxSize <= 0 {
		maxSize = 10 // default pool size
	}
	return &ThreadPool{
		threads: make([]*starlark.Thread, 0, maxSize),
		maxSize: maxSize,
	}
}

// Get retrieves a thread from the pool or creates a new one.
// The thread name is used for error reporting.
func (p *ThreadPool) Get(name string) *starlark.Thread {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.threads) > 0 {
		thread := p.threads[len(p.threads)-1]
		p.threads = p.threads[:len(p.threads)-1]
		thread.Name = name
		return thread
	}

	return &starlark.Thread{Name: name}
}

// Put returns a thread to the pool for reuse.
// If the pool is full, the thread is discarded.
func (p *ThreadPool) Put(thread *starlark.Thread) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.threads) < p.maxSize {
		// Clear any state that might leak between uses
		thread.Name = ""
		thread.Print = nil
		p.threads = append(p.threads, thread)
	}
}

// Size returns the current number of threads in the pool.
func (p *ThreadPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.threads)
}

// Runner executes %{starlark:...} scripts. It is safe for concurrent use.
type Runner struct {
	pool     *ThreadPool
	maxSteps uint64
	target   func(host macro.ScriptHost) *TargetInfo
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMaxSteps bounds the number of execution steps a script may take.
func WithMaxSteps(n uint64) RunnerOption {
	return func(r *Runner) {
		r.maxSteps = n
	}
}

// WithPoolSize sets the number of idle threads kept for reuse.
func WithPoolSize(n int) RunnerOption {
	return func(r *Runner) {
		r.pool = NewThreadPool(n)
	}
}

// NewRunner creates a runner. By default scripts see the target from
// %{_target_cpu} and %{_target_os}.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		pool:     NewThreadPool(0),
		maxSteps: 1 << 24,
		target:   targetFromMacros,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes script against host. Its signature matches
// macro.ScriptFunc.
func (r *Runner) Run(host macro.ScriptHost, script string) (string, error) {
	thread := r.pool.Get("starlark")
	defer r.pool.Put(thread)

	// step counters are cumulative per thread
	thread.Uncancel()
	thread.SetMaxExecutionSteps(thread.ExecutionSteps() + r.maxSteps)

	ctx := NewExecutionContext(host, r.target(host))
	return ctx.Exec(thread, "starlark", 0, script)
}

func targetFromMacros(host macro.ScriptHost) *TargetInfo {
	cpu, _ := host.Expand("%{?_target_cpu}")
	osName, _ := host.Expand("%{?_target_os}")
	return &TargetInfo{CPU: cpu, OS: osName}
}
