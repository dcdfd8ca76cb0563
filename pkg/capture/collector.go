package capture

import "sync"

// collector accumulates observer events for a single capture.
type collector struct {
	mu sync.Mutex

	logs  []string
	chain []string
	seen  map[string]struct{}
}

func newCollector() *collector {
	return &collector{
		logs:  []string{},
		chain: []string{},
		seen:  map[string]struct{}{},
	}
}

func (c *collector) OnConsole(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logs = append(c.logs, message)
}

// OnNavigate keeps the first occurrence of every URL. A page that bounces
// back to an earlier URL does not grow the chain.
func (c *collector) OnNavigate(url string) {
	if url == "" || url == "about:blank" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[url]; ok {
		return
	}
	c.seen[url] = struct{}{}
	c.chain = append(c.chain, url)
}

// result returns copies of what was collected so far.
func (c *collector) result() ([]string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string{}, c.logs...), append([]string{}, c.chain...)
}
