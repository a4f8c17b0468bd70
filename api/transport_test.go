package api_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/momentics/serbridge/api"
)

func TestTransportInterfaceCompliance(t *testing.T) {
	var _ api.Transport = (*mockTransport)(nil)
}

// mockTransport implements api.Transport for interface checks.
type mockTransport struct{}

func (*mockTransport) Read([]byte) (int, error)  { return 0, api.ErrWouldBlock }
func (*mockTransport) Write([]byte) (int, error) { return 0, api.ErrWouldBlock }
func (*mockTransport) Fd() uintptr               { return 0 }
func (*mockTransport) Kind() api.Kind            { return api.KindStream }
func (*mockTransport) Close() error              { return nil }

func TestInterestHas(t *testing.T) {
	rw := api.Readable | api.Writable
	if !rw.Has(api.Readable) || !rw.Has(api.Writable) {
		t.Fatalf("rw interest missing bits: %v", rw)
	}
	if api.Readable.Has(api.Writable) {
		t.Fatal("readable interest must not report writable")
	}
	if rw.String() != "rw" || api.Readable.String() != "r" {
		t.Errorf("unexpected interest strings: %q %q", rw, api.Readable)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{api.ErrWouldBlock, true},
		{fmt.Errorf("read: %w", api.ErrInterrupted), true},
		{api.ErrTransportFault, false},
		{errors.New("connection reset"), false},
		{nil, false},
	}
	for _, c := range cases {
		if got := api.IsTransient(c.err); got != c.want {
			t.Errorf("IsTransient(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestStructuredErrorMatchesSentinel(t *testing.T) {
	err := api.NewError(api.ErrCodeInvalidArgument, "bad port").WithContext("port", 0)
	if !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("expected %v to match ErrInvalidArgument", err)
	}
	if errors.Is(err, api.ErrNotSupported) {
		t.Fatal("unexpected match with ErrNotSupported")
	}
}
