// Package cptest provides an in-memory controlplane.Client for tests.
package cptest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/kaz/kaltstart/controlplane"
)

type (
	Client struct {
		PageSize int

		// ListErr, when set, fails the listing of the page at that index.
		ListErr   error
		ListErrAt int

		UpdateErr map[string]error
		InvokeErr map[string]error

		mu          sync.Mutex
		names       []string
		confs       map[string]map[string]string
		invocations map[string]int
		updates     map[string]int
		pages       int
	}
)

func NewClient(names ...string) *Client {
	c := &Client{
		PageSize:    50,
		UpdateErr:   map[string]error{},
		InvokeErr:   map[string]error{},
		confs:       map[string]map[string]string{},
		invocations: map[string]int{},
		updates:     map[string]int{},
	}
	for _, name := range names {
		c.Add(name, map[string]string{})
	}
	return c
}

func (c *Client) Add(name string, conf map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.confs[name]; !ok {
		c.names = append(c.names, name)
	}
	c.confs[name] = copyConf(conf)
}

func (c *Client) ListPage(_ context.Context, marker string) (*controlplane.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := 0
	if marker != "" {
		n, err := strconv.Atoi(marker)
		if err != nil {
			return nil, fmt.Errorf("invalid marker %q", marker)
		}
		start = n
	}

	index := start / c.PageSize
	if c.ListErr != nil && index == c.ListErrAt {
		return nil, c.ListErr
	}
	c.pages++

	end := start + c.PageSize
	if end > len(c.names) {
		end = len(c.names)
	}

	page := &controlplane.Page{}
	for _, name := range c.names[start:end] {
		page.Targets = append(page.Targets, &controlplane.Target{Name: name, Configuration: copyConf(c.confs[name])})
	}
	if end < len(c.names) {
		page.NextMarker = strconv.Itoa(end)
	}
	return page, nil
}

func (c *Client) Configuration(_ context.Context, name string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conf, ok := c.confs[name]
	if !ok {
		return nil, fmt.Errorf("no such target: %v", name)
	}
	return copyConf(conf), nil
}

func (c *Client) UpdateConfiguration(_ context.Context, name string, conf map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.UpdateErr[name]; err != nil {
		return err
	}
	c.confs[name] = copyConf(conf)
	c.updates[name]++
	return nil
}

func (c *Client) InvokeAsync(_ context.Context, name string, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invocations[name]++
	return c.InvokeErr[name]
}

// Invocations returns how many dispatch calls each target received,
// failed ones included.
func (c *Client) Invocations() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	ret := map[string]int{}
	for k, v := range c.invocations {
		ret[k] = v
	}
	return ret
}

func (c *Client) Updates(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updates[name]
}

func (c *Client) Pages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages
}

func (c *Client) Conf(name string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyConf(c.confs[name])
}

func (c *Client) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := append([]string{}, c.names...)
	sort.Strings(names)
	return names
}

func copyConf(conf map[string]string) map[string]string {
	ret := make(map[string]string, len(conf))
	for k, v := range conf {
		ret[k] = v
	}
	return ret
}
