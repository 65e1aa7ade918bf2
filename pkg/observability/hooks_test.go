package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPlacementHooks{}
	p.OnPlacementStart(ctx, "around")
	p.OnPlacementComplete(ctx, "around", true, time.Millisecond, nil)

	d := NoopDebounceHooks{}
	d.OnSchedule(ctx, "typeahead", 500*time.Millisecond)
	d.OnSupersede(ctx, "typeahead")
	d.OnCancel(ctx, "submenu-close")
	d.OnFire(ctx, "submenu-close", errors.New("boom"))

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/place/around")
	h.OnResponse(ctx, "POST", "/v1/place/around", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Placement().(NoopPlacementHooks); !ok {
		t.Error("Placement() should return NoopPlacementHooks by default")
	}
	if _, ok := Debounce().(NoopDebounceHooks); !ok {
		t.Error("Debounce() should return NoopDebounceHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPlacement := &testPlacementHooks{}
	SetPlacementHooks(customPlacement)
	if Placement() != customPlacement {
		t.Error("SetPlacementHooks should set custom hooks")
	}

	customDebounce := &testDebounceHooks{}
	SetDebounceHooks(customDebounce)
	if Debounce() != customDebounce {
		t.Error("SetDebounceHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Placement().(NoopPlacementHooks); !ok {
		t.Error("Reset() should restore NoopPlacementHooks")
	}
	if _, ok := Debounce().(NoopDebounceHooks); !ok {
		t.Error("Reset() should restore NoopDebounceHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testDebounceHooks{}
	SetDebounceHooks(custom)
	SetDebounceHooks(nil)

	if Debounce() != custom {
		t.Error("SetDebounceHooks(nil) should be ignored")
	}

	Reset()
}

type testPlacementHooks struct{ NoopPlacementHooks }
type testDebounceHooks struct{ NoopDebounceHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
