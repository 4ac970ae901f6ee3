package swapchain

import (
	"GPU_renderbase/common"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

// Platform is the device/surface pair a Manager builds swap chains for. Queries and allocations are synchronous.
type Platform interface {
	SurfaceQuerier

	CreateSwapchain(cfg Config) (vk.Swapchain, error)
	SwapchainImages(sc vk.Swapchain) ([]vk.Image, error)
	DestroySwapchain(sc vk.Swapchain) error
}

// State of a Manager.
type State int

const (
	Uninitialized State = iota
	Created
	Invalidated
	Destroyed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Created:
		return "created"
	case Invalidated:
		return "invalidated"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// chain is the live swap chain. Its images belong to the platform and go away with the handle.
type chain struct {
	handle vk.Swapchain
	images []vk.Image
	cfg    Config
}

// Manager owns the swap chain of one surface and walks it through
//
//	Uninitialized -> Created <-> Invalidated -> Destroyed
//
// Destroyed is terminal and reachable from every other state. A Manager is not safe for concurrent use; all calls
// are expected from the thread orchestrating frames.
//
// Images handed out by Images are borrowed for one frame. They must not be used after Recreate or Destroy, which is
// why every successful build bumps Generation: anything derived from the images (views, framebuffers) is stale once
// the generation it was built for is no longer current.
type Manager struct {
	platform Platform
	opts     Options

	families common.QueueFamilyIndices
	state    State
	chain    *chain
	gen      uint64
}

func NewManager(p Platform, opts Options) *Manager {
	return &Manager{
		platform: p,
		opts:     opts,
		state:    Uninitialized,
	}
}

// Create negotiates a configuration and builds the first swap chain. Missing queue family indices are rejected
// without touching the platform and leave the Manager Uninitialized. Every later failure leaves it Destroyed.
func (m *Manager) Create(qf common.QueueFamilyIndices, requested vk.Extent2D) error {
	if m.state != Uninitialized {
		return newError(ErrInvalidState, "create from "+m.state.String(), nil)
	}
	if !qf.Complete() {
		return newError(ErrPrecondition, "create: "+qf.String(), nil)
	}
	m.families = qf
	if err := m.build(requested); err != nil {
		m.state = Destroyed
		return err
	}
	m.state = Created
	return nil
}

// Recreate replaces the swap chain after a resize or an out of date surface. The caller must make sure no GPU work
// still references the current images (device idle or all frame fences waited on). The old chain is released
// before the new one is requested. On failure the Manager is Destroyed and a new one is required.
func (m *Manager) Recreate(requested vk.Extent2D) error {
	if m.state != Created && m.state != Invalidated {
		return newError(ErrInvalidState, "recreate from "+m.state.String(), nil)
	}
	if err := m.release(); err != nil {
		m.state = Destroyed
		return newError(ErrRecreation, "release previous swap chain", err)
	}
	if err := m.build(requested); err != nil {
		m.state = Destroyed
		return newError(ErrRecreation, "rebuild", err)
	}
	m.state = Created
	return nil
}

// MarkInvalidated records that the surface changed and the next acquire is expected to fail. Nothing is released
// until Recreate or Destroy. Marking an already invalidated chain again is a no-op.
func (m *Manager) MarkInvalidated() error {
	switch m.state {
	case Created:
		m.state = Invalidated
		return nil
	case Invalidated:
		return nil
	default:
		return newError(ErrInvalidState, "invalidate from "+m.state.String(), nil)
	}
}

// Destroy releases the swap chain. It may be called in any state and is a no-op once Destroyed. The Manager ends up
// Destroyed even if the platform reports an error releasing the chain.
func (m *Manager) Destroy() error {
	if m.state == Destroyed {
		return nil
	}
	err := m.release()
	m.state = Destroyed
	return errors.Wrap(err, "swapchain: destroy")
}

func (m *Manager) State() State {
	return m.state
}

// Generation counts successful builds. It is 0 before the first one.
func (m *Manager) Generation() uint64 {
	return m.gen
}

// Images returns the swap chain images in the platform's order. The slice is a copy; the images are not.
func (m *Manager) Images() ([]vk.Image, error) {
	c, err := m.current("images")
	if err != nil {
		return nil, err
	}
	images := make([]vk.Image, len(c.images))
	copy(images, c.images)
	return images, nil
}

func (m *Manager) Format() (vk.Format, error) {
	c, err := m.current("format")
	if err != nil {
		return 0, err
	}
	return c.cfg.Format.Format, nil
}

func (m *Manager) Extent() (vk.Extent2D, error) {
	c, err := m.current("extent")
	if err != nil {
		return vk.Extent2D{}, err
	}
	return vk.Extent2D{Width: c.cfg.Extent.Width, Height: c.cfg.Extent.Height}, nil
}

// Handle is the raw swap chain, needed to acquire and present images.
func (m *Manager) Handle() (vk.Swapchain, error) {
	c, err := m.current("handle")
	if err != nil {
		return nil, err
	}
	return c.handle, nil
}

// Config returns the configuration the current swap chain was built with.
func (m *Manager) Config() (Config, error) {
	c, err := m.current("config")
	if err != nil {
		return Config{}, err
	}
	cfg := c.cfg
	cfg.QueueFamilies = append([]uint32(nil), c.cfg.QueueFamilies...)
	return cfg, nil
}

func (m *Manager) current(accessor string) (*chain, error) {
	if m.state != Created || m.chain == nil {
		return nil, newError(ErrInvalidState, accessor+" accessed while "+m.state.String(), nil)
	}
	return m.chain, nil
}

// build negotiates against freshly queried capabilities and allocates a new chain. On failure nothing is left
// allocated and m.chain stays nil.
func (m *Manager) build(requested vk.Extent2D) error {
	details, err := QueryCapabilities(m.platform)
	if err != nil {
		return err
	}
	cfg, err := Negotiate(details, m.families, requested, m.opts)
	if err != nil {
		return err
	}
	// A minimized window reports a zero sized surface, no swap chain can be created for it.
	if cfg.Extent.Width == 0 || cfg.Extent.Height == 0 {
		return newError(ErrCreation, "zero area extent", nil)
	}

	handle, err := m.platform.CreateSwapchain(cfg)
	if err != nil {
		return newError(ErrCreation, "allocate swap chain: "+cfg.String(), err)
	}
	images, err := m.platform.SwapchainImages(handle)
	if err != nil {
		// The half built chain must not outlive this call.
		_ = m.platform.DestroySwapchain(handle)
		return newError(ErrCreation, "read swap chain images", err)
	}
	m.chain = &chain{
		handle: handle,
		images: images,
		cfg:    cfg,
	}
	m.gen++
	return nil
}

func (m *Manager) release() error {
	if m.chain == nil {
		return nil
	}
	c := m.chain
	m.chain = nil
	return m.platform.DestroySwapchain(c.handle)
}
