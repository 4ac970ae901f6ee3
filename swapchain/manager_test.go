package swapchain

import (
	"strings"
	"testing"

	"GPU_renderbase/common"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

// fakePlatform serves canned surface data and records every allocation. Handles are all nil, so allocations are
// told apart by the order of events instead.
type fakePlatform struct {
	caps         vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
	imageCount   int

	queryErr   map[string]error
	createErr  error
	imagesErr  error
	destroyErr error

	events  []string
	created []Config
	live    int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		caps: unboundedCaps(2, 0),
		formats: []vk.SurfaceFormat{
			sf(vk.FormatR8g8b8a8Unorm, vk.ColorSpaceSrgbNonlinear),
			sf(vk.FormatB8g8r8a8Srgb, vk.ColorSpaceSrgbNonlinear),
		},
		presentModes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
		imageCount:   3,
		queryErr:     map[string]error{},
	}
}

func (f *fakePlatform) SurfaceCapabilities() (vk.SurfaceCapabilities, error) {
	return f.caps, f.queryErr["caps"]
}

func (f *fakePlatform) SurfaceFormats() ([]vk.SurfaceFormat, error) {
	return f.formats, f.queryErr["formats"]
}

func (f *fakePlatform) SurfacePresentModes() ([]vk.PresentMode, error) {
	return f.presentModes, f.queryErr["modes"]
}

func (f *fakePlatform) CreateSwapchain(cfg Config) (vk.Swapchain, error) {
	if f.createErr != nil {
		f.events = append(f.events, "create failed")
		return nil, f.createErr
	}
	f.events = append(f.events, "create")
	f.created = append(f.created, cfg)
	f.live++
	return nil, nil
}

func (f *fakePlatform) SwapchainImages(sc vk.Swapchain) ([]vk.Image, error) {
	if f.imagesErr != nil {
		return nil, f.imagesErr
	}
	return make([]vk.Image, f.imageCount), nil
}

func (f *fakePlatform) DestroySwapchain(sc vk.Swapchain) error {
	f.events = append(f.events, "destroy")
	f.live--
	return f.destroyErr
}

func (f *fakePlatform) eventLog() string {
	return strings.Join(f.events, ",")
}

var requested = vk.Extent2D{Width: 800, Height: 600}

func createdManager(t *testing.T, p *fakePlatform) *Manager {
	t.Helper()
	m := NewManager(p, Options{})
	if err := m.Create(common.NewQueueFamilyIndices(0, 1), requested); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return m
}

func TestManagerCreate(t *testing.T) {
	p := newFakePlatform()
	m := NewManager(p, Options{})
	if m.State() != Uninitialized || m.Generation() != 0 {
		t.Fatalf("new manager is %s at generation %d", m.State(), m.Generation())
	}
	if err := m.Create(common.NewQueueFamilyIndices(0, 1), requested); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if m.State() != Created {
		t.Errorf("state = %s, want created", m.State())
	}
	if m.Generation() != 1 {
		t.Errorf("generation = %d, want 1", m.Generation())
	}

	images, err := m.Images()
	if err != nil || len(images) != 3 {
		t.Errorf("Images = %d images, %v, want 3 images", len(images), err)
	}
	format, err := m.Format()
	if err != nil || format != vk.FormatB8g8r8a8Srgb {
		t.Errorf("Format = %s, %v, want B8G8R8A8_SRGB", common.ToStringFormat(format), err)
	}
	extent, err := m.Extent()
	if err != nil || extent.Width != 800 || extent.Height != 600 {
		t.Errorf("Extent = %dx%d, %v, want 800x600", extent.Width, extent.Height, err)
	}
	if _, err := m.Handle(); err != nil {
		t.Errorf("Handle returned error: %v", err)
	}
	cfg, err := m.Config()
	if err != nil {
		t.Fatalf("Config returned error: %v", err)
	}
	if cfg.PresentMode != vk.PresentModeMailbox || cfg.ImageCount != 3 || cfg.SharingMode != vk.SharingModeConcurrent {
		t.Errorf("Config = %s", cfg)
	}
	if len(p.created) != 1 || p.created[0].String() != cfg.String() {
		t.Errorf("platform received %d configs, want exactly the manager's config", len(p.created))
	}

	if err := m.Create(common.NewQueueFamilyIndices(0, 1), requested); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Create error = %v, want ErrInvalidState", err)
	}
	if p.live != 1 {
		t.Errorf("%d live swap chains after second Create, want 1", p.live)
	}
}

func TestManagerAccessorsReturnCopies(t *testing.T) {
	m := createdManager(t, newFakePlatform())

	cfg, _ := m.Config()
	cfg.QueueFamilies[0] = 42
	again, _ := m.Config()
	if again.QueueFamilies[0] != 0 {
		t.Errorf("Config queue families were modified through a returned copy")
	}

	images, _ := m.Images()
	_ = append(images[:0], images[1:]...)
	if again, _ := m.Images(); len(again) != 3 {
		t.Errorf("Images length changed through a returned copy: %d", len(again))
	}
}

func TestManagerRecreateScenario(t *testing.T) {
	p := newFakePlatform()
	m := createdManager(t, p)

	if err := m.MarkInvalidated(); err != nil {
		t.Fatalf("MarkInvalidated returned error: %v", err)
	}
	if m.State() != Invalidated {
		t.Fatalf("state = %s, want invalidated", m.State())
	}
	if err := m.MarkInvalidated(); err != nil {
		t.Errorf("second MarkInvalidated returned error: %v", err)
	}

	if err := m.Recreate(vk.Extent2D{Width: 1024, Height: 768}); err != nil {
		t.Fatalf("Recreate returned error: %v", err)
	}
	if m.State() != Created {
		t.Errorf("state = %s, want created", m.State())
	}
	extent, err := m.Extent()
	if err != nil || extent.Width != 1024 || extent.Height != 768 {
		t.Errorf("Extent = %dx%d, %v, want 1024x768", extent.Width, extent.Height, err)
	}
	if got, want := p.eventLog(), "create,destroy,create"; got != want {
		t.Errorf("platform events = %q, want %q", got, want)
	}
	if p.live != 1 {
		t.Errorf("%d live swap chains, want 1", p.live)
	}
	if m.Generation() != 2 {
		t.Errorf("generation = %d, want 2", m.Generation())
	}
}

func TestManagerRecreateFromCreated(t *testing.T) {
	p := newFakePlatform()
	m := createdManager(t, p)
	for i := 0; i < 3; i++ {
		if err := m.Recreate(requested); err != nil {
			t.Fatalf("Recreate %d returned error: %v", i, err)
		}
	}
	if m.Generation() != 4 {
		t.Errorf("generation = %d, want 4", m.Generation())
	}
	if p.live != 1 {
		t.Errorf("%d live swap chains, want 1", p.live)
	}
}

func TestManagerRecreateUsesFreshCapabilities(t *testing.T) {
	p := newFakePlatform()
	m := createdManager(t, p)

	p.caps.CurrentExtent = vk.Extent2D{Width: 1920, Height: 1080}
	p.presentModes = []vk.PresentMode{vk.PresentModeFifo}
	if err := m.Recreate(requested); err != nil {
		t.Fatalf("Recreate returned error: %v", err)
	}
	cfg, _ := m.Config()
	if cfg.Extent.Width != 1920 || cfg.Extent.Height != 1080 || cfg.PresentMode != vk.PresentModeFifo {
		t.Errorf("Config after surface change = %s", cfg)
	}
}

func TestManagerAccessorsOutsideCreated(t *testing.T) {
	check := func(name string, m *Manager) {
		t.Helper()
		if _, err := m.Images(); !errors.Is(err, ErrInvalidState) {
			t.Errorf("%s: Images error = %v, want ErrInvalidState", name, err)
		}
		if _, err := m.Format(); !errors.Is(err, ErrInvalidState) {
			t.Errorf("%s: Format error = %v, want ErrInvalidState", name, err)
		}
		if _, err := m.Extent(); !errors.Is(err, ErrInvalidState) {
			t.Errorf("%s: Extent error = %v, want ErrInvalidState", name, err)
		}
		if _, err := m.Handle(); !errors.Is(err, ErrInvalidState) {
			t.Errorf("%s: Handle error = %v, want ErrInvalidState", name, err)
		}
		if _, err := m.Config(); !errors.Is(err, ErrInvalidState) {
			t.Errorf("%s: Config error = %v, want ErrInvalidState", name, err)
		}
	}

	check("uninitialized", NewManager(newFakePlatform(), Options{}))

	invalidated := createdManager(t, newFakePlatform())
	_ = invalidated.MarkInvalidated()
	check("invalidated", invalidated)

	destroyed := createdManager(t, newFakePlatform())
	_ = destroyed.Destroy()
	check("destroyed", destroyed)
}

func TestManagerForbiddenTransitions(t *testing.T) {
	uninit := NewManager(newFakePlatform(), Options{})
	if err := uninit.Recreate(requested); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Recreate from uninitialized error = %v, want ErrInvalidState", err)
	}
	if err := uninit.MarkInvalidated(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("MarkInvalidated from uninitialized error = %v, want ErrInvalidState", err)
	}
	if uninit.State() != Uninitialized {
		t.Errorf("state = %s, want uninitialized", uninit.State())
	}

	p := newFakePlatform()
	destroyed := createdManager(t, p)
	_ = destroyed.Destroy()
	if err := destroyed.Create(common.NewQueueFamilyIndices(0, 1), requested); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Create from destroyed error = %v, want ErrInvalidState", err)
	}
	if err := destroyed.Recreate(requested); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Recreate from destroyed error = %v, want ErrInvalidState", err)
	}
	if err := destroyed.MarkInvalidated(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("MarkInvalidated from destroyed error = %v, want ErrInvalidState", err)
	}
	if p.live != 0 || destroyed.State() != Destroyed {
		t.Errorf("%d live swap chains in state %s, want 0 in destroyed", p.live, destroyed.State())
	}
}

func TestManagerDestroy(t *testing.T) {
	p := newFakePlatform()
	m := createdManager(t, p)
	if err := m.Destroy(); err != nil {
		t.Fatalf("Destroy returned error: %v", err)
	}
	if err := m.Destroy(); err != nil {
		t.Errorf("second Destroy returned error: %v", err)
	}
	if got, want := p.eventLog(), "create,destroy"; got != want {
		t.Errorf("platform events = %q, want %q", got, want)
	}

	uninit := NewManager(newFakePlatform(), Options{})
	if err := uninit.Destroy(); err != nil || uninit.State() != Destroyed {
		t.Errorf("Destroy from uninitialized = %v in state %s, want nil in destroyed", err, uninit.State())
	}

	invalidated := createdManager(t, newFakePlatform())
	_ = invalidated.MarkInvalidated()
	if err := invalidated.Destroy(); err != nil || invalidated.State() != Destroyed {
		t.Errorf("Destroy from invalidated = %v in state %s, want nil in destroyed", err, invalidated.State())
	}

	failing := newFakePlatform()
	m = createdManager(t, failing)
	failing.destroyErr = errors.New("device lost")
	if err := m.Destroy(); err == nil || errors.Cause(err) != failing.destroyErr {
		t.Errorf("Destroy with failing platform error = %v, want cause %v", err, failing.destroyErr)
	}
	if m.State() != Destroyed {
		t.Errorf("state after failing Destroy = %s, want destroyed", m.State())
	}
}

func TestManagerCreatePrecondition(t *testing.T) {
	p := newFakePlatform()
	m := NewManager(p, Options{})
	graphics := uint32(0)
	err := m.Create(common.QueueFamilyIndices{GraphicsFamily: &graphics}, requested)
	if !errors.Is(err, ErrPrecondition) {
		t.Errorf("Create error = %v, want ErrPrecondition", err)
	}
	if m.State() != Uninitialized {
		t.Errorf("state = %s, want uninitialized", m.State())
	}
	if len(p.events) != 0 {
		t.Errorf("platform was called: %q", p.eventLog())
	}
	if err := m.Create(common.NewQueueFamilyIndices(0, 0), requested); err != nil {
		t.Errorf("Create after precondition failure returned error: %v", err)
	}
}

func TestManagerCreateFailures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(p *fakePlatform)
		kind     error
		wantLog  string
		wantLive int
	}{
		{
			name:    "query",
			setup:   func(p *fakePlatform) { p.queryErr["caps"] = errors.New("surface lost") },
			kind:    ErrQuery,
			wantLog: "",
		},
		{
			name:    "no formats",
			setup:   func(p *fakePlatform) { p.formats = nil },
			kind:    ErrNegotiation,
			wantLog: "",
		},
		{
			name:    "allocation",
			setup:   func(p *fakePlatform) { p.createErr = errors.New("out of device memory") },
			kind:    ErrCreation,
			wantLog: "create failed",
		},
		{
			name:    "image retrieval releases half built chain",
			setup:   func(p *fakePlatform) { p.imagesErr = errors.New("incomplete") },
			kind:    ErrCreation,
			wantLog: "create,destroy",
		},
		{
			name:    "zero extent",
			setup:   func(p *fakePlatform) { p.caps.CurrentExtent = vk.Extent2D{} },
			kind:    ErrCreation,
			wantLog: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakePlatform()
			tt.setup(p)
			m := NewManager(p, Options{})
			err := m.Create(common.NewQueueFamilyIndices(0, 1), requested)
			if !errors.Is(err, tt.kind) {
				t.Errorf("Create error = %v, want %v", err, tt.kind)
			}
			if m.State() != Destroyed {
				t.Errorf("state = %s, want destroyed", m.State())
			}
			if got := p.eventLog(); got != tt.wantLog {
				t.Errorf("platform events = %q, want %q", got, tt.wantLog)
			}
			if p.live != 0 {
				t.Errorf("%d live swap chains, want 0", p.live)
			}
			if m.Generation() != 0 {
				t.Errorf("generation = %d, want 0", m.Generation())
			}
		})
	}
}

func TestManagerRecreateFailure(t *testing.T) {
	p := newFakePlatform()
	m := createdManager(t, p)
	_ = m.MarkInvalidated()

	p.createErr = errors.New("out of device memory")
	err := m.Recreate(vk.Extent2D{Width: 1024, Height: 768})
	if !errors.Is(err, ErrRecreation) {
		t.Errorf("Recreate error = %v, want ErrRecreation", err)
	}
	if !errors.Is(err, ErrCreation) {
		t.Errorf("Recreate error = %v, want it to also match ErrCreation", err)
	}
	if m.State() != Destroyed {
		t.Errorf("state = %s, want destroyed", m.State())
	}
	if p.live != 0 {
		t.Errorf("%d live swap chains, want 0", p.live)
	}
	if got, want := p.eventLog(), "create,destroy,create failed"; got != want {
		t.Errorf("platform events = %q, want %q", got, want)
	}
	if err := m.Destroy(); err != nil {
		t.Errorf("Destroy after failed Recreate returned error: %v", err)
	}
	if got, want := p.eventLog(), "create,destroy,create failed"; got != want {
		t.Errorf("Destroy after failed Recreate touched the platform: %q", got)
	}
}

func TestManagerRecreateReleaseFailure(t *testing.T) {
	p := newFakePlatform()
	m := createdManager(t, p)
	p.destroyErr = errors.New("device lost")

	err := m.Recreate(requested)
	if !errors.Is(err, ErrRecreation) {
		t.Errorf("Recreate error = %v, want ErrRecreation", err)
	}
	if errors.Is(err, ErrCreation) {
		t.Errorf("Recreate error = %v matches ErrCreation, but nothing was created", err)
	}
	if m.State() != Destroyed {
		t.Errorf("state = %s, want destroyed", m.State())
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("VK_ERROR_SURFACE_LOST_KHR")
	err := newError(ErrQuery, "capabilities", cause)
	if !errors.Is(err, ErrQuery) {
		t.Errorf("%v does not match its kind", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("%v does not match its cause", err)
	}
	for _, other := range []error{ErrNegotiation, ErrPrecondition, ErrCreation, ErrRecreation, ErrInvalidState} {
		if errors.Is(err, other) {
			t.Errorf("%v matches unrelated kind %v", err, other)
		}
	}
	if want := "swapchain: surface query failed: capabilities: VK_ERROR_SURFACE_LOST_KHR"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if want := "swapchain: invalid state: images accessed while destroyed"; newError(ErrInvalidState, "images accessed while destroyed", nil).Error() != want {
		t.Errorf("Error() without cause = %q", newError(ErrInvalidState, "images accessed while destroyed", nil).Error())
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		Uninitialized: "uninitialized",
		Created:       "created",
		Invalidated:   "invalidated",
		Destroyed:     "destroyed",
		State(42):     "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
