package swapchain

import (
	"fmt"

	"GPU_renderbase/common"

	vk "github.com/goki/vulkan"
)

// Options are application wishes that survive recreation. They never override what the surface reports.
type Options struct {
	// ExtraImageUsage is or'ed into the color attachment usage, e.g. vk.ImageUsageTransferDstBit to clear or blit
	// into the images directly.
	ExtraImageUsage vk.ImageUsageFlags
}

// SupportDetails is the result of one capability query against a device/surface pair. It is only valid for the
// negotiation it was read for; the surface may report different values on the next frame.
type SupportDetails struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// Config is the negotiated swap chain configuration. It is a value: produced fresh by every negotiation and never
// modified afterward.
type Config struct {
	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	ImageCount  uint32

	// QueueFamilies is only set for vk.SharingModeConcurrent.
	SharingMode   vk.SharingMode
	QueueFamilies []uint32

	PreTransform   vk.SurfaceTransformFlagBits
	CompositeAlpha vk.CompositeAlphaFlagBits
	ImageUsage     vk.ImageUsageFlags
}

func (c Config) String() string {
	return fmt.Sprintf(
		"SwapchainConfig(format: %s/%s, presentMode: %s, extent: %dx%d, images: %d, sharing: %s %v)",
		common.ToStringFormat(c.Format.Format),
		common.ToStringColorSpace(c.Format.ColorSpace),
		common.ToStringPresentMode(c.PresentMode),
		c.Extent.Width,
		c.Extent.Height,
		c.ImageCount,
		common.ToStringSharingMode(c.SharingMode),
		c.QueueFamilies,
	)
}

// createInfo translates the config into the create info for vkCreateSwapchainKHR. The old swap chain is never
// handed over: recreation destroys the previous chain before the new one is requested.
func (c Config) createInfo(surface vk.Surface) *vk.SwapchainCreateInfo {
	return &vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		PNext:                 nil,
		Flags:                 0,
		Surface:               surface,
		MinImageCount:         c.ImageCount,
		ImageFormat:           c.Format.Format,
		ImageColorSpace:       c.Format.ColorSpace,
		ImageExtent:           vk.Extent2D{Width: c.Extent.Width, Height: c.Extent.Height},
		ImageArrayLayers:      1,
		ImageUsage:            c.ImageUsage,
		ImageSharingMode:      c.SharingMode,
		QueueFamilyIndexCount: uint32(len(c.QueueFamilies)),
		PQueueFamilyIndices:   c.QueueFamilies,
		PreTransform:          c.PreTransform,
		CompositeAlpha:        c.CompositeAlpha,
		PresentMode:           c.PresentMode,
		Clipped:               vk.True,
		OldSwapchain:          nil,
	}
}
