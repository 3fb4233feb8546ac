//go:build windows

package uia

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/go-ole/go-ole"

	"selection-context/src/accessibility"
)

const DefaultCallTimeout = 500 * time.Millisecond

// maxWindows caps how many top-level windows are scanned for a pid.
const maxWindows = 256

var (
	clsidCUIAutomation = ole.NewGUID("{ff48dba4-60ef-4201-aa87-54103eef594e}")
	iidIUIAutomation   = ole.NewGUID("{30cbe57d-d9d0-452a-ab13-7ac5ac4825ee}")
	iidTextPattern     = ole.NewGUID("{32eba289-3583-42c9-9c59-3b6d9a1e9b6a}")
	iidValuePattern    = ole.NewGUID("{a94cd8b1-0844-4cd6-9d2d-640537ab39e9}")
)

// Vtable slots, counted from IUnknown.
const (
	vtRelease = 2

	autoGetRootElement    = 5
	autoGetFocusedElement = 8
	autoControlViewWalker = 14

	elemGetCurrentPatternAs = 14
	elemProcessID           = 20
	elemControlType         = 21
	elemName                = 23
	elemHasKeyboardFocus    = 26
	elemHelpText            = 31

	walkerGetParent      = 3
	walkerGetFirstChild  = 4
	walkerGetNextSibling = 6

	textGetSelection  = 5
	textDocumentRange = 7
	rangesLength      = 3
	rangesGetElement  = 4
	rangeClone        = 3
	rangeExpandToUnit = 6
	rangeGetText      = 12
	valueCurrentValue = 4
)

var errClosed = errors.New("ui automation session closed")

// Provider opens UI Automation sessions. Each session owns one OS thread
// initialised for the multithreaded apartment; every COM call runs there.
type Provider struct {
	CallTimeout time.Duration
}

func New(callTimeout time.Duration) *Provider {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Provider{CallTimeout: callTimeout}
}

func (p *Provider) Name() string { return "ui-automation" }

// Trusted is always true: UI Automation has no per-process grant. Elements of
// elevated processes fail with E_ACCESSDENIED on read.
func (p *Provider) Trusted() bool { return true }

func (p *Provider) Open(ctx context.Context) (accessibility.Session, error) {
	s := &session{
		ctx:     ctx,
		timeout: p.CallTimeout,
		calls:   make(chan func()),
		done:    make(chan struct{}),
	}
	ready := make(chan error, 1)
	go s.loop(ready)
	select {
	case err := <-ready:
		if err != nil {
			return nil, err
		}
		return s, nil
	case <-ctx.Done():
		s.Close()
		return nil, fmt.Errorf("ui automation start: %w", accessibility.ErrTimeout)
	}
}

// com is a raw interface pointer.
type com uintptr

func (c com) call(slot int, args ...uintptr) uint32 {
	vtbl := *(*uintptr)(unsafe.Pointer(c))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	hr, _, _ := syscall.SyscallN(fn, append([]uintptr{uintptr(c)}, args...)...)
	return uint32(hr)
}

type session struct {
	ctx     context.Context
	timeout time.Duration
	calls   chan func()
	done    chan struct{}
	once    sync.Once

	// Owned by the COM thread.
	auto   com
	walker com
	refs   []com
}

func (s *session) loop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		// S_FALSE: this thread already joined the apartment.
		if oleErr, ok := err.(*ole.OleError); !ok || oleErr.Code() != 0x00000001 {
			ready <- fmt.Errorf("%w: CoInitializeEx: %v", accessibility.ErrUnsupported, err)
			return
		}
	}
	defer ole.CoUninitialize()

	unk, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
	if err != nil {
		ready <- fmt.Errorf("%w: create CUIAutomation: %v", accessibility.ErrUnsupported, err)
		return
	}
	s.auto = com(uintptr(unsafe.Pointer(unk)))
	defer s.auto.call(vtRelease)

	s.walker, err = s.object(s.auto, autoControlViewWalker, "ControlViewWalker")
	if err != nil {
		ready <- err
		return
	}
	ready <- nil

	for {
		select {
		case f := <-s.calls:
			f()
		case <-s.done:
			for i := len(s.refs) - 1; i >= 0; i-- {
				s.refs[i].call(vtRelease)
			}
			s.refs = nil
			return
		}
	}
}

// do runs f on the COM thread, bounded by the call timeout. A call that
// times out still completes on the COM thread and its references are
// released on Close.
func (s *session) do(what string, f func() error) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	errc := make(chan error, 1)
	select {
	case s.calls <- func() { errc <- f() }:
	case <-s.done:
		return errClosed
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", what, accessibility.ErrTimeout)
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", what, accessibility.ErrTimeout)
	}
}

func (s *session) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// The helpers below run on the COM thread only.

func (s *session) object(c com, slot int, what string, args ...uintptr) (com, error) {
	var out uintptr
	hr := c.call(slot, append(args, uintptr(unsafe.Pointer(&out)))...)
	if err := errFor(hr, what); err != nil {
		return 0, err
	}
	if out == 0 {
		return 0, fmt.Errorf("%s: %w", what, accessibility.ErrNotFound)
	}
	s.refs = append(s.refs, com(out))
	return com(out), nil
}

func (s *session) pattern(elem com, id int, iid *ole.GUID, what string) (com, error) {
	p, err := s.object(elem, elemGetCurrentPatternAs, what, uintptr(id), uintptr(unsafe.Pointer(iid)))
	if errors.Is(err, accessibility.ErrNotFound) {
		return 0, fmt.Errorf("%s: %w", what, accessibility.ErrAttributeUnsupported)
	}
	return p, err
}

func bstr(c com, slot int, what string, args ...uintptr) (string, error) {
	var p *uint16
	hr := c.call(slot, append(args, uintptr(unsafe.Pointer(&p)))...)
	if err := errFor(hr, what); err != nil {
		return "", err
	}
	if p == nil {
		return "", nil
	}
	defer ole.SysFreeString((*int16)(unsafe.Pointer(p)))
	return ole.BstrToString(p), nil
}

func int32Prop(c com, slot int, what string) (int32, error) {
	var v int32
	hr := c.call(slot, uintptr(unsafe.Pointer(&v)))
	return v, errFor(hr, what)
}

func (s *session) rangeText(r com) (string, error) {
	maxLength := -1
	return bstr(r, rangeGetText, "GetText", uintptr(maxLength))
}

// FocusedNode climbs from the focused element to the nearest ancestor
// exposing the text pattern, so a caret inside a rich document reports the
// document's selection. Without one the focused element itself is returned.
func (s *session) FocusedNode() (accessibility.Node, error) {
	var n *node
	err := s.do("GetFocusedElement", func() error {
		focused, err := s.object(s.auto, autoGetFocusedElement, "GetFocusedElement")
		if errors.Is(err, accessibility.ErrNotFound) {
			return accessibility.ErrNoFocus
		}
		if err != nil {
			return err
		}
		elem := focused
		for i := 0; i < maxParentClimbs; i++ {
			if tp, err := s.pattern(elem, patternText, iidTextPattern, "TextPattern"); err == nil {
				n = &node{s: s, elem: elem, text: tp}
				return nil
			}
			parent, err := s.object(s.walker, walkerGetParent, "GetParentElement", uintptr(elem))
			if err != nil {
				break
			}
			elem = parent
		}
		n = &node{s: s, elem: focused}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ApplicationNode returns the first top-level window owned by pid.
func (s *session) ApplicationNode(pid int) (accessibility.Node, error) {
	var n *node
	err := s.do("ApplicationNode", func() error {
		root, err := s.object(s.auto, autoGetRootElement, "GetRootElement")
		if err != nil {
			return err
		}
		win, err := s.object(s.walker, walkerGetFirstChild, "GetFirstChildElement", uintptr(root))
		for i := 0; err == nil && i < maxWindows; i++ {
			if owner, perr := int32Prop(win, elemProcessID, "ProcessId"); perr == nil && int(owner) == pid {
				n = &node{s: s, elem: win}
				return nil
			}
			win, err = s.object(s.walker, walkerGetNextSibling, "GetNextSiblingElement", uintptr(win))
		}
		return fmt.Errorf("%w: no window for pid %d", accessibility.ErrNotFound, pid)
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

type node struct {
	s    *session
	elem com
	// text is the element's text pattern, zero when it has none.
	text com
	role string
}

func (n *node) Role() string {
	if n.role != "" {
		return n.role
	}
	var ct int32
	if err := n.s.do("ControlType", func() (err error) {
		ct, err = int32Prop(n.elem, elemControlType, "ControlType")
		return err
	}); err != nil {
		return accessibility.RoleUnknown
	}
	n.role = roleFor(ct)
	return n.role
}

func (n *node) Children(limit int) ([]accessibility.Node, error) {
	var out []accessibility.Node
	err := n.s.do("Children", func() error {
		child, err := n.s.object(n.s.walker, walkerGetFirstChild, "GetFirstChildElement", uintptr(n.elem))
		for err == nil && len(out) < limit {
			out = append(out, &node{s: n.s, elem: child})
			child, err = n.s.object(n.s.walker, walkerGetNextSibling, "GetNextSiblingElement", uintptr(child))
		}
		if err != nil && !errors.Is(err, accessibility.ErrNotFound) && len(out) == 0 {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (n *node) Attribute(name string) (accessibility.Value, error) {
	var (
		s   string
		err error
	)
	switch name {
	case accessibility.AttrSelectedText:
		err = n.s.do("GetSelection", func() (err error) {
			s, err = n.selection()
			return err
		})
	case accessibility.AttrValue:
		err = n.s.do("Value", func() (err error) {
			s, err = n.value()
			return err
		})
	case accessibility.AttrDocument:
		err = n.s.do("DocumentRange", func() (err error) {
			s, err = n.document()
			return err
		})
	case accessibility.AttrTitle:
		err = n.s.do("Name", func() (err error) {
			s, err = bstr(n.elem, elemName, "Name")
			return err
		})
	case accessibility.AttrHelp:
		err = n.s.do("HelpText", func() (err error) {
			s, err = bstr(n.elem, elemHelpText, "HelpText")
			return err
		})
	case accessibility.AttrFocused:
		var focus int32
		if err := n.s.do("HasKeyboardFocus", func() (err error) {
			focus, err = int32Prop(n.elem, elemHasKeyboardFocus, "HasKeyboardFocus")
			return err
		}); err != nil {
			return accessibility.Value{}, err
		}
		return accessibility.Bool(focus != 0), nil
	default:
		return accessibility.Value{}, accessibility.ErrAttributeUnsupported
	}
	if err != nil {
		return accessibility.Value{}, err
	}
	if s == "" {
		return accessibility.Value{}, accessibility.ErrNoValue
	}
	return accessibility.String(s), nil
}

// selectedRange returns the first selected range of the text pattern.
func (n *node) selectedRange() (com, error) {
	if n.text == 0 {
		return 0, accessibility.ErrAttributeUnsupported
	}
	ranges, err := n.s.object(n.text, textGetSelection, "GetSelection")
	if err != nil {
		return 0, err
	}
	count, err := int32Prop(ranges, rangesLength, "Length")
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, accessibility.ErrNoValue
	}
	return n.s.object(ranges, rangesGetElement, "GetElement", 0)
}

func (n *node) selection() (string, error) {
	r, err := n.selectedRange()
	if err != nil {
		return "", err
	}
	return n.s.rangeText(r)
}

func (n *node) document() (string, error) {
	if n.text == 0 {
		return "", accessibility.ErrAttributeUnsupported
	}
	doc, err := n.s.object(n.text, textDocumentRange, "DocumentRange")
	if err != nil {
		return "", err
	}
	return n.s.rangeText(doc)
}

// value is the paragraph around the selection, widened to the whole document
// when the paragraph does not hold the selection. Elements without the text
// pattern fall back to the value pattern.
func (n *node) value() (string, error) {
	if n.text != 0 {
		var sel, para string
		if r, err := n.selectedRange(); err == nil {
			sel, _ = n.s.rangeText(r)
			if wide, err := n.s.object(r, rangeClone, "Clone"); err == nil {
				if errFor(wide.call(rangeExpandToUnit, textUnitPara), "ExpandToEnclosingUnit") == nil {
					para, _ = n.s.rangeText(wide)
				}
			}
		}
		doc, _ := n.document()
		if text, ok := paragraphContext(sel, para, doc); ok {
			return text, nil
		}
	}
	vp, err := n.s.pattern(n.elem, patternValue, iidValuePattern, "ValuePattern")
	if err != nil {
		return "", err
	}
	return bstr(vp, valueCurrentValue, "CurrentValue")
}
