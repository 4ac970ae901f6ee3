package swapchain

import (
	"GPU_renderbase/common"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

// VkPlatform is the Vulkan backed Platform for one physical device, logical device and surface. It does not own any
// of the three.
type VkPlatform struct {
	PhysicalDevice vk.PhysicalDevice
	Device         vk.Device
	Surface        vk.Surface

	// PresentFamily is checked for present support before each capability query. Nil skips the check.
	PresentFamily *uint32
}

// NewVkPlatform binds the device context to the window's surface.
func NewVkPlatform(dc *common.Device, w *common.Window) *VkPlatform {
	return &VkPlatform{
		PhysicalDevice: dc.PhysicalDevice,
		Device:         dc.D,
		Surface:        *w.Surf,
		PresentFamily:  dc.QFamilies.PresentFamily,
	}
}

func (p *VkPlatform) SurfaceCapabilities() (vk.SurfaceCapabilities, error) {
	if p.PresentFamily != nil {
		var presentSupport vk.Bool32
		err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(p.PhysicalDevice, *p.PresentFamily, p.Surface, &presentSupport))
		if err != nil {
			return vk.SurfaceCapabilities{}, errors.Wrap(err, "read surface support")
		}
		if presentSupport == vk.False {
			return vk.SurfaceCapabilities{}, errors.Errorf("queue family %d cannot present to surface", *p.PresentFamily)
		}
	}
	return common.ReadSurfaceCapabilities(p.PhysicalDevice, p.Surface)
}

func (p *VkPlatform) SurfaceFormats() ([]vk.SurfaceFormat, error) {
	return common.ReadSurfaceFormats(p.PhysicalDevice, p.Surface)
}

func (p *VkPlatform) SurfacePresentModes() ([]vk.PresentMode, error) {
	return common.ReadSurfacePresentModes(p.PhysicalDevice, p.Surface)
}

func (p *VkPlatform) CreateSwapchain(cfg Config) (vk.Swapchain, error) {
	sc, err := common.VkCreateSwapChain(p.Device, cfg.createInfo(p.Surface), nil)
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateSwapchainKHR")
	}
	return sc, nil
}

func (p *VkPlatform) SwapchainImages(sc vk.Swapchain) ([]vk.Image, error) {
	return common.ReadSwapChainImages(p.Device, sc)
}

// DestroySwapchain cannot fail on the Vulkan side, only a missing handle is reported.
func (p *VkPlatform) DestroySwapchain(sc vk.Swapchain) error {
	if sc == nil {
		return errors.New("destroy swap chain: nil handle")
	}
	vk.DestroySwapchain(p.Device, sc, nil)
	return nil
}
