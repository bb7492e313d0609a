package pages

import (
	"errors"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

var errNotActionable = errors.New("timeout: element is not attached, visible and enabled")

// fakeBrowser records interactions made through fakePage and fakeLocator and,
// when wizard is set, simulates the onboarding screens.
type fakeBrowser struct {
	actions []string
	waits   []string
	failOn  map[string]error
	wizard  *fakeWizard
}

type wizardStep struct {
	radios, checkboxes, texts int
	next, finish              bool
}

type fakeWizard struct {
	steps   []wizardStep
	started bool
	current int
	done    bool
}

func (w *fakeWizard) onStep() (wizardStep, bool) {
	if !w.started || w.done || w.current >= len(w.steps) {
		return wizardStep{}, false
	}
	return w.steps[w.current], true
}

func newFakePage(b *fakeBrowser) *fakePage {
	if b.failOn == nil {
		b.failOn = map[string]error{}
	}
	return &fakePage{b: b}
}

// The aliases keep the embedded field names from colliding with the
// interfaces' own Locator and Page methods.
type (
	pageAPI    = playwright.Page
	locatorAPI = playwright.Locator
)

type fakePage struct {
	pageAPI
	b *fakeBrowser
}

func (p *fakePage) GetByLabel(text interface{}, options ...playwright.PageGetByLabelOptions) playwright.Locator {
	return p.b.locator("label:" + fmt.Sprint(text))
}

func (p *fakePage) GetByText(text interface{}, options ...playwright.PageGetByTextOptions) playwright.Locator {
	return p.b.locator("text:" + fmt.Sprint(text))
}

func (p *fakePage) GetByRole(role playwright.AriaRole, options ...playwright.PageGetByRoleOptions) playwright.Locator {
	name := ""
	if len(options) > 0 && options[0].Name != nil {
		name = fmt.Sprint(options[0].Name)
	}
	return p.b.locator("role:" + string(role) + ":" + name)
}

func (p *fakePage) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	return p.b.locator("css:" + selector)
}

func (p *fakePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.b.actions = append(p.b.actions, "goto "+url)
	return nil, nil
}

func (p *fakePage) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	return nil
}

func (p *fakePage) WaitForURL(url interface{}, options ...playwright.PageWaitForURLOptions) error {
	p.b.actions = append(p.b.actions, "wait-url "+fmt.Sprint(url))
	return nil
}

func (b *fakeBrowser) locator(desc string) *fakeLocator {
	return &fakeLocator{b: b, desc: desc, index: -1}
}

type fakeLocator struct {
	locatorAPI
	b     *fakeBrowser
	desc  string
	index int
}

func (l *fakeLocator) name() string {
	if l.index >= 0 {
		return fmt.Sprintf("%s#%d", l.desc, l.index)
	}
	return l.desc
}

func (l *fakeLocator) Or(other playwright.Locator) playwright.Locator {
	return l.b.locator(l.desc + "|" + other.(*fakeLocator).desc)
}

func (l *fakeLocator) Nth(index int) playwright.Locator {
	return &fakeLocator{b: l.b, desc: l.desc, index: index}
}

func (l *fakeLocator) First() playwright.Locator {
	return l.Nth(0)
}

// Count mirrors playwright: it never waits. Without a wizard every locator
// resolves to exactly one element.
func (l *fakeLocator) Count() (int, error) {
	w := l.b.wizard
	if w == nil {
		return 1, nil
	}
	if strings.Contains(l.desc, "get started|resume") {
		if w.started {
			return 0, nil
		}
		return 1, nil
	}
	st, ok := w.onStep()
	if !ok {
		return 0, nil
	}
	switch {
	case strings.Contains(l.desc, "radio"):
		return st.radios, nil
	case strings.Contains(l.desc, "checkbox"):
		return st.checkboxes, nil
	case strings.Contains(l.desc, `input[type="text"]`):
		return st.texts, nil
	case strings.Contains(l.desc, "(?i)next|"):
		return boolCount(st.next || st.finish), nil
	case strings.Contains(l.desc, "(?i)next"):
		return boolCount(st.next), nil
	case strings.Contains(l.desc, "finish|complete"):
		return boolCount(st.finish), nil
	}
	return 0, nil
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (l *fakeLocator) actionable() error {
	if err, ok := l.b.failOn[l.desc]; ok {
		return err
	}
	n, _ := l.Count()
	idx := l.index
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		return errNotActionable
	}
	return nil
}

func (l *fakeLocator) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	wait := l.name()
	if len(options) > 0 && options[0].Timeout != nil {
		wait = fmt.Sprintf("%s timeout=%v", wait, *options[0].Timeout)
	}
	l.b.waits = append(l.b.waits, wait)
	return l.actionable()
}

func (l *fakeLocator) Click(options ...playwright.LocatorClickOptions) error {
	if err := l.actionable(); err != nil {
		return err
	}
	l.b.actions = append(l.b.actions, "click "+l.name())
	if w := l.b.wizard; w != nil {
		switch {
		case strings.Contains(l.desc, "get started|resume"):
			w.started = true
		case strings.Contains(l.desc, "(?i)next"):
			w.current++
		case strings.Contains(l.desc, "finish|complete"):
			w.done = true
		}
	}
	return nil
}

func (l *fakeLocator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	if err := l.actionable(); err != nil {
		return err
	}
	l.b.actions = append(l.b.actions, "fill "+l.name()+"="+value)
	return nil
}
