//go:build darwin

package axapi

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/ebitengine/purego"

	"selection-context/src/accessibility"
)

const (
	kCFStringEncodingUTF8 = 0x08000100
	kCFNumberSInt64Type   = 4

	DefaultCallTimeout = 500 * time.Millisecond
)

var (
	loadOnce sync.Once
	loadErr  error

	appServices uintptr
	coreFound   uintptr

	axIsProcessTrusted             func() bool
	axUIElementCreateSystemWide    func() uintptr
	axUIElementCreateApplication   func(pid int32) uintptr
	axUIElementCopyAttributeValue  func(elem, attr uintptr, out *uintptr) int32
	axUIElementCopyAttributeValues func(elem, attr uintptr, index, maxValues int, out *uintptr) int32
	axUIElementSetMessagingTimeout func(elem uintptr, seconds float32) int32

	cfRelease                         func(ref uintptr)
	cfRetain                          func(ref uintptr) uintptr
	cfGetTypeID                       func(ref uintptr) uint
	cfStringGetTypeID                 func() uint
	cfBooleanGetTypeID                func() uint
	cfNumberGetTypeID                 func() uint
	cfStringCreateWithCString         func(alloc uintptr, s string, enc uint32) uintptr
	cfStringGetLength                 func(s uintptr) int
	cfStringGetMaximumSizeForEncoding func(length int, enc uint32) int
	cfStringGetCString                func(s uintptr, buf *byte, size int, enc uint32) bool
	cfBooleanGetValue                 func(b uintptr) bool
	cfNumberGetValue                  func(n uintptr, typ int, out unsafe.Pointer) bool
	cfArrayGetCount                   func(a uintptr) int
	cfArrayGetValueAtIndex            func(a uintptr, i int) uintptr

	namesMu sync.Mutex
	names   = map[string]uintptr{}
)

func load() error {
	loadOnce.Do(func() {
		var err error
		appServices, err = purego.Dlopen(
			"/System/Library/Frameworks/ApplicationServices.framework/ApplicationServices",
			purego.RTLD_GLOBAL|purego.RTLD_LAZY,
		)
		if err != nil {
			loadErr = fmt.Errorf("dlopen ApplicationServices: %w", err)
			return
		}
		coreFound, err = purego.Dlopen(
			"/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation",
			purego.RTLD_GLOBAL|purego.RTLD_LAZY,
		)
		if err != nil {
			loadErr = fmt.Errorf("dlopen CoreFoundation: %w", err)
			return
		}

		purego.RegisterLibFunc(&axIsProcessTrusted, appServices, "AXIsProcessTrusted")
		purego.RegisterLibFunc(&axUIElementCreateSystemWide, appServices, "AXUIElementCreateSystemWide")
		purego.RegisterLibFunc(&axUIElementCreateApplication, appServices, "AXUIElementCreateApplication")
		purego.RegisterLibFunc(&axUIElementCopyAttributeValue, appServices, "AXUIElementCopyAttributeValue")
		purego.RegisterLibFunc(&axUIElementCopyAttributeValues, appServices, "AXUIElementCopyAttributeValues")
		purego.RegisterLibFunc(&axUIElementSetMessagingTimeout, appServices, "AXUIElementSetMessagingTimeout")

		purego.RegisterLibFunc(&cfRelease, coreFound, "CFRelease")
		purego.RegisterLibFunc(&cfRetain, coreFound, "CFRetain")
		purego.RegisterLibFunc(&cfGetTypeID, coreFound, "CFGetTypeID")
		purego.RegisterLibFunc(&cfStringGetTypeID, coreFound, "CFStringGetTypeID")
		purego.RegisterLibFunc(&cfBooleanGetTypeID, coreFound, "CFBooleanGetTypeID")
		purego.RegisterLibFunc(&cfNumberGetTypeID, coreFound, "CFNumberGetTypeID")
		purego.RegisterLibFunc(&cfStringCreateWithCString, coreFound, "CFStringCreateWithCString")
		purego.RegisterLibFunc(&cfStringGetLength, coreFound, "CFStringGetLength")
		purego.RegisterLibFunc(&cfStringGetMaximumSizeForEncoding, coreFound, "CFStringGetMaximumSizeForEncoding")
		purego.RegisterLibFunc(&cfStringGetCString, coreFound, "CFStringGetCString")
		purego.RegisterLibFunc(&cfBooleanGetValue, coreFound, "CFBooleanGetValue")
		purego.RegisterLibFunc(&cfNumberGetValue, coreFound, "CFNumberGetValue")
		purego.RegisterLibFunc(&cfArrayGetCount, coreFound, "CFArrayGetCount")
		purego.RegisterLibFunc(&cfArrayGetValueAtIndex, coreFound, "CFArrayGetValueAtIndex")
	})
	return loadErr
}

// cfName returns a cached CFString for an attribute name. The strings live
// for the life of the process.
func cfName(s string) uintptr {
	namesMu.Lock()
	defer namesMu.Unlock()
	if ref, ok := names[s]; ok {
		return ref
	}
	ref := cfStringCreateWithCString(0, s, kCFStringEncodingUTF8)
	names[s] = ref
	return ref
}

func goString(ref uintptr) string {
	n := cfStringGetMaximumSizeForEncoding(cfStringGetLength(ref), kCFStringEncodingUTF8) + 1
	buf := make([]byte, n)
	if !cfStringGetCString(ref, &buf[0], n, kCFStringEncodingUTF8) {
		return ""
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

// Provider opens AX sessions. The process must be trusted for accessibility
// in System Settings.
type Provider struct {
	CallTimeout time.Duration
}

func New(callTimeout time.Duration) *Provider {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Provider{CallTimeout: callTimeout}
}

func (p *Provider) Name() string { return "ax" }

func (p *Provider) Trusted() bool {
	if load() != nil {
		return false
	}
	return axIsProcessTrusted()
}

func (p *Provider) Open(context.Context) (accessibility.Session, error) {
	if err := load(); err != nil {
		return nil, fmt.Errorf("%w: %v", accessibility.ErrUnsupported, err)
	}
	return &session{timeout: float32(p.CallTimeout.Seconds())}, nil
}

// session owns every CF reference it hands out and releases them on Close.
type session struct {
	timeout float32

	mu   sync.Mutex
	refs []uintptr
}

func (s *session) own(ref uintptr) uintptr {
	s.mu.Lock()
	s.refs = append(s.refs, ref)
	s.mu.Unlock()
	return ref
}

func (s *session) element(ref uintptr) *node {
	s.own(ref)
	axUIElementSetMessagingTimeout(ref, s.timeout)
	return &node{s: s, ref: ref}
}

func (s *session) FocusedNode() (accessibility.Node, error) {
	wide := s.element(axUIElementCreateSystemWide())
	var out uintptr
	code := axUIElementCopyAttributeValue(wide.ref, cfName(attrFocusedElement), &out)
	if code == axNoValue || (code == axSuccess && out == 0) {
		return nil, accessibility.ErrNoFocus
	}
	if err := errFor(code, attrFocusedElement); err != nil {
		return nil, err
	}
	return s.element(out), nil
}

func (s *session) ApplicationNode(pid int) (accessibility.Node, error) {
	ref := axUIElementCreateApplication(int32(pid))
	if ref == 0 {
		return nil, fmt.Errorf("%w: pid %d", accessibility.ErrNotFound, pid)
	}
	return s.element(ref), nil
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ref := range s.refs {
		cfRelease(ref)
	}
	s.refs = nil
	return nil
}

type node struct {
	s    *session
	ref  uintptr
	role string
}

func (n *node) copy(attr string) (uintptr, error) {
	var out uintptr
	if err := errFor(axUIElementCopyAttributeValue(n.ref, cfName(attr), &out), attr); err != nil {
		return 0, err
	}
	if out == 0 {
		return 0, fmt.Errorf("%s: %w", attr, accessibility.ErrNoValue)
	}
	return n.s.own(out), nil
}

func (n *node) Role() string {
	if n.role != "" {
		return n.role
	}
	n.role = accessibility.RoleUnknown
	if ref, err := n.copy(attrRole); err == nil && cfGetTypeID(ref) == cfStringGetTypeID() {
		n.role = roleFor(goString(ref))
	}
	return n.role
}

func (n *node) Attribute(name string) (accessibility.Value, error) {
	attr, ok := nativeAttributes[name]
	if !ok {
		return accessibility.Value{}, accessibility.ErrAttributeUnsupported
	}
	ref, err := n.copy(attr)
	if err != nil {
		return accessibility.Value{}, err
	}
	switch cfGetTypeID(ref) {
	case cfStringGetTypeID():
		return accessibility.String(goString(ref)), nil
	case cfBooleanGetTypeID():
		return accessibility.Bool(cfBooleanGetValue(ref)), nil
	case cfNumberGetTypeID():
		var v int64
		if !cfNumberGetValue(ref, kCFNumberSInt64Type, unsafe.Pointer(&v)) {
			return accessibility.Value{}, fmt.Errorf("%s: %w", attr, accessibility.ErrNoValue)
		}
		return accessibility.Int(v), nil
	default:
		return accessibility.Value{}, fmt.Errorf("%s: %w", attr, accessibility.ErrNoValue)
	}
}

func (n *node) Children(limit int) ([]accessibility.Node, error) {
	var arr uintptr
	code := axUIElementCopyAttributeValues(n.ref, cfName(attrChildren), 0, limit, &arr)
	if code == axNoValue {
		return nil, nil
	}
	if err := errFor(code, attrChildren); err != nil {
		return nil, err
	}
	if arr == 0 {
		return nil, nil
	}
	defer cfRelease(arr)
	count := cfArrayGetCount(arr)
	out := make([]accessibility.Node, 0, count)
	for i := 0; i < count && i < limit; i++ {
		child := cfArrayGetValueAtIndex(arr, i)
		if child == 0 {
			continue
		}
		out = append(out, n.s.element(cfRetain(child)))
	}
	return out, nil
}
