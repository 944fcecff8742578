package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// stealthPreamble masks the usual headless giveaways before any page script
// runs. Sites with anti-automation defenses key on these properties.
const stealthPreamble = `
	Object.defineProperty(navigator, 'webdriver', {
		get: () => undefined,
	});
	Object.defineProperty(navigator, 'plugins', {
		get: () => [1, 2, 3, 4, 5],
	});
	Object.defineProperty(navigator, 'languages', {
		get: () => ['en-US', 'en'],
	});
	window.chrome = {
		runtime: {},
	};
`

const ancestryScript = `() => {
	const out = [];
	let n = this;
	while (n && n.nodeType === 1) {
		let marker = n.id ? '#' + n.id : '';
		if (typeof n.className === 'string' && n.className) {
			marker += ' ' + n.className;
		}
		out.push(marker.trim());
		n = n.parentElement;
	}
	return out;
}`

// RodSessionFactory launches one headless Chromium per session, so
// concurrent queries never share mutable page state.
type RodSessionFactory struct{}

func (f *RodSessionFactory) New(ctx context.Context) (Session, error) {
	s := &rodSession{}
	if err := s.start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func (s *rodSession) start(ctx context.Context) error {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false).
		Logger(io.Discard)

	// Use system Chromium in container environments, auto-detect locally.
	if _, err := os.Stat("/usr/bin/chromium-browser"); err == nil {
		l = l.Bin("/usr/bin/chromium-browser")
	} else if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		browser.Close()
		l.Kill()
		return fmt.Errorf("open page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	}); err != nil {
		browser.Close()
		l.Kill()
		return fmt.Errorf("set viewport: %w", err)
	}

	if _, err := page.EvalOnNewDocument(stealthPreamble); err != nil {
		browser.Close()
		l.Kill()
		return fmt.Errorf("install stealth preamble: %w", err)
	}

	s.launcher = l
	s.browser = browser
	s.page = page
	return nil
}

func (s *rodSession) Navigate(ctx context.Context, url string, opts SettleOptions) error {
	page := s.page.Context(ctx).Timeout(opts.NavigationTimeout)
	if err := page.Navigate(url); err != nil {
		return classifyNavError(err)
	}
	if err := page.WaitLoad(); err != nil {
		return classifyNavError(err)
	}

	// Content-settle is a soft wait: proceed either way.
	settled := s.page.Timeout(opts.SettleTimeout)
	if err := settled.WaitStable(time.Second); err == nil {
		_ = settled.WaitDOMStable(2*time.Second, 0.1)
	}
	return nil
}

func (s *rodSession) QueryAll(selector string) ([]Element, error) {
	els, err := s.page.Elements(selector)
	if err != nil {
		return nil, classifySessionError(err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (s *rodSession) Query(selector string) (Element, error) {
	has, el, err := s.page.Has(selector)
	if err != nil {
		return nil, classifySessionError(err)
	}
	if !has {
		return nil, nil
	}
	return &rodElement{el: el}, nil
}

func (s *rodSession) PageText() (string, error) {
	res, err := s.page.Eval(`() => document.body ? document.body.innerText : ''`)
	if err != nil {
		return "", classifySessionError(err)
	}
	return res.Value.Str(), nil
}

func (s *rodSession) Scroll(ctx context.Context, deltaY int) error {
	if err := s.page.Context(ctx).Mouse.Scroll(0, float64(deltaY), 1); err != nil {
		return classifySessionError(err)
	}
	return nil
}

// Reinitialize discards the dead browser outright and launches a fresh one.
// No in-place repair: the old session identity is gone.
func (s *rodSession) Reinitialize(ctx context.Context) error {
	s.teardown()
	if err := s.start(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	log.Println("Rendering session reinitialized")
	return nil
}

func (s *rodSession) Close() error {
	s.teardown()
	return nil
}

func (s *rodSession) teardown() {
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		_ = s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
		s.launcher = nil
	}
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	// textContent also covers script blocks, which innerText hides.
	res, err := e.el.Eval(`() => this.textContent || ''`)
	if err != nil {
		return "", classifySessionError(err)
	}
	return res.Value.Str(), nil
}

func (e *rodElement) Attribute(name string) (*string, error) {
	attr, err := e.el.Attribute(name)
	if err != nil {
		return nil, classifySessionError(err)
	}
	return attr, nil
}

func (e *rodElement) Visible() (bool, error) {
	visible, err := e.el.Visible()
	if err != nil {
		return false, classifySessionError(err)
	}
	return visible, nil
}

func (e *rodElement) Ancestry() ([]string, error) {
	res, err := e.el.Eval(ancestryScript)
	if err != nil {
		return nil, classifySessionError(err)
	}
	arr := res.Value.Arr()
	markers := make([]string, 0, len(arr))
	for _, v := range arr {
		markers = append(markers, v.Str())
	}
	return markers, nil
}

func classifyNavError(err error) error {
	if err == nil {
		return nil
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
}

func classifySessionError(err error) error {
	if err == nil {
		return nil
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return err
}

// isConnectionError distinguishes a dead CDP connection from the page merely
// lacking data. rod surfaces transport death as websocket/network errors.
func isConnectionError(err error) bool {
	msg := err.Error()
	for _, marker := range []string{
		"websocket",
		"use of closed network connection",
		"connection reset",
		"connection refused",
		"broken pipe",
		"browser has been closed",
		"cdp connection",
		"EOF",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
