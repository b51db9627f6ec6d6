// Package mock provides a test double for the vision.Provider interface.
//
// Use Provider to return a canned Description and to verify which frames and
// prompt were handed to the backend.
package mock

import (
	"context"
	"sync"

	"github.com/scenevox/scenevox/pkg/provider/vision"
)

// DescribeCall records a single invocation of Describe.
type DescribeCall struct {
	// Ctx is the context passed to Describe.
	Ctx context.Context
	// Req is the request passed to Describe.
	Req vision.Request
}

// Provider is a mock implementation of vision.Provider.
type Provider struct {
	mu sync.Mutex

	// DescribeResult is returned by Describe. May be nil if DescribeErr is set.
	DescribeResult *vision.Description

	// DescribeErr, if non-nil, is returned as the error from Describe.
	DescribeErr error

	// DescribeCalls records every call to Describe in order.
	DescribeCalls []DescribeCall
}

// Describe records the call and returns DescribeResult, DescribeErr.
func (p *Provider) Describe(ctx context.Context, req vision.Request) (*vision.Description, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DescribeCalls = append(p.DescribeCalls, DescribeCall{Ctx: ctx, Req: req})
	return p.DescribeResult, p.DescribeErr
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DescribeCalls = nil
}

// Ensure Provider implements vision.Provider at compile time.
var _ vision.Provider = (*Provider)(nil)
