package swapchain

import (
	"GPU_renderbase/common"

	vk "github.com/goki/vulkan"
)

// Selection of a swap chain configuration from what a device/surface pair supports. Apart from QueryCapabilities all
// functions are pure: identical input gives identical output.

const (
	preferredFormat      = vk.FormatB8g8r8a8Srgb
	preferredColorSpace  = vk.ColorSpaceSrgbNonlinear
	preferredPresentMode = vk.PresentModeMailbox
)

// extentFollowsWindow is reported as current extent when the window system lets the swap chain decide its size.
const extentFollowsWindow = ^uint32(0)

// SurfaceQuerier is the read-only half of a device/surface pair.
type SurfaceQuerier interface {
	SurfaceCapabilities() (vk.SurfaceCapabilities, error)
	SurfaceFormats() ([]vk.SurfaceFormat, error)
	SurfacePresentModes() ([]vk.PresentMode, error)
}

// QueryCapabilities reads capabilities, formats and present modes. A failure means the surface is invalid or the
// device cannot present to it; retrying without a new surface is pointless.
func QueryCapabilities(q SurfaceQuerier) (SupportDetails, error) {
	caps, err := q.SurfaceCapabilities()
	if err != nil {
		return SupportDetails{}, newError(ErrQuery, "capabilities", err)
	}
	formats, err := q.SurfaceFormats()
	if err != nil {
		return SupportDetails{}, newError(ErrQuery, "formats", err)
	}
	presentModes, err := q.SurfacePresentModes()
	if err != nil {
		return SupportDetails{}, newError(ErrQuery, "present modes", err)
	}
	return SupportDetails{
		Capabilities: caps,
		Formats:      formats,
		PresentModes: presentModes,
	}, nil
}

// ChooseFormat picks 8 bit BGRA sRGB with a non-linear sRGB color space, wherever it is listed. Otherwise the first
// option wins.
func ChooseFormat(options []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(options) == 0 {
		return vk.SurfaceFormat{}, newError(ErrNegotiation, "choose format", nil)
	}
	for _, af := range options {
		if af.Format == preferredFormat && af.ColorSpace == preferredColorSpace {
			return af, nil
		}
	}
	return options[0], nil
}

// ChoosePresentMode picks mailbox if offered, otherwise the first option.
func ChoosePresentMode(options []vk.PresentMode) (vk.PresentMode, error) {
	if len(options) == 0 {
		return 0, newError(ErrNegotiation, "choose present mode", nil)
	}
	for _, pm := range options {
		if pm == preferredPresentMode {
			return pm, nil
		}
	}
	return options[0], nil
}

// ChooseExtent returns the surface's current extent unless the surface reports the "follows window" sentinel on both
// axes. Only then the requested size is used, clamped into the supported range.
func ChooseExtent(caps vk.SurfaceCapabilities, requestedWidth uint32, requestedHeight uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != extentFollowsWindow || caps.CurrentExtent.Height != extentFollowsWindow {
		return vk.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height}
	}
	return vk.Extent2D{
		Width:  clamp(requestedWidth, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(requestedHeight, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum so the application never waits on the driver to release
// an image. A max of 0 means there is no upper limit.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	imgCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imgCount > caps.MaxImageCount {
		imgCount = caps.MaxImageCount
	}
	return imgCount
}

// ChooseSharingMode shares the images concurrently between the graphics and the present family when those differ.
// A single family uses exclusive mode and lists no indices. Both indices must be set.
func ChooseSharingMode(qf common.QueueFamilyIndices) (vk.SharingMode, []uint32, error) {
	if !qf.Complete() {
		return vk.SharingModeExclusive, nil, newError(ErrPrecondition, "choose sharing mode: "+qf.String(), nil)
	}
	if *qf.GraphicsFamily != *qf.PresentFamily {
		return vk.SharingModeConcurrent, []uint32{*qf.GraphicsFamily, *qf.PresentFamily}, nil
	}
	return vk.SharingModeExclusive, nil, nil
}

// ChooseCompositeAlpha prefers opaque composition and otherwise takes the lowest supported bit.
func ChooseCompositeAlpha(caps vk.SurfaceCapabilities) vk.CompositeAlphaFlagBits {
	supported := vk.CompositeAlphaFlagBits(caps.SupportedCompositeAlpha)
	if supported == 0 || supported&vk.CompositeAlphaOpaqueBit != 0 {
		return vk.CompositeAlphaOpaqueBit
	}
	bit := vk.CompositeAlphaFlagBits(1)
	for supported&bit == 0 {
		bit <<= 1
	}
	return bit
}

// Negotiate composes all choices into a single Config.
func Negotiate(details SupportDetails, qf common.QueueFamilyIndices, requested vk.Extent2D, opts Options) (Config, error) {
	sharingMode, families, err := ChooseSharingMode(qf)
	if err != nil {
		return Config{}, err
	}
	format, err := ChooseFormat(details.Formats)
	if err != nil {
		return Config{}, err
	}
	presentMode, err := ChoosePresentMode(details.PresentModes)
	if err != nil {
		return Config{}, err
	}
	caps := details.Capabilities
	return Config{
		Format:         format,
		PresentMode:    presentMode,
		Extent:         ChooseExtent(caps, requested.Width, requested.Height),
		ImageCount:     ChooseImageCount(caps),
		SharingMode:    sharingMode,
		QueueFamilies:  families,
		PreTransform:   caps.CurrentTransform,
		CompositeAlpha: ChooseCompositeAlpha(caps),
		ImageUsage:     vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) | opts.ExtraImageUsage,
	}, nil
}

// clamp saturates v into [lo, hi]. lo wins should a surface ever report lo > hi.
func clamp(v uint32, lo uint32, hi uint32) uint32 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
