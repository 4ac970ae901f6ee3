package common

import (
	"fmt"
	"strconv"
	"strings"

	vk "github.com/goki/vulkan"
)

// ExtensionProperties
func TableStringExtensionProps(ext []vk.ExtensionProperties) string {
	strBuilder := strings.Builder{}
	for i := range ext {
		strBuilder.WriteString(fmt.Sprintf(" %s\n", toStringExtensionPropsTable(ext[i])))
	}
	return strBuilder.String()
}

func toStringExtensionPropsTable(e vk.ExtensionProperties) string {
	return fmt.Sprintf("%-59s%10s", vk.ToString(e.ExtensionName[:]), vk.Version(e.SpecVersion).String())
}

// Physical device
func ToStringPhysicalDeviceTable(pdProps vk.PhysicalDeviceProperties, qFamilies []vk.QueueFamilyProperties) string {
	strBuilder := strings.Builder{}
	for i := range qFamilies {
		if i == len(qFamilies)-1 {
			strBuilder.WriteString(fmt.Sprintf("|_Qfamily[%d] %s\n", i, toStringQueueFamilyPropsTable(qFamilies[i])))
		} else {
			strBuilder.WriteString(fmt.Sprintf("| Qfamily[%d] %s\n", i, toStringQueueFamilyPropsTable(qFamilies[i])))
		}
	}
	return fmt.Sprintf(
		"%s:\n|_%s\n%s",
		vk.ToString(pdProps.DeviceName[:]),
		toStringPhysicalDevicePropsTable(pdProps),
		strBuilder.String(),
	)
}

func asVendorName(v vk.VendorId) string {
	// There seem to only be a handful of vendors and Ids as stated in:
	// https://www.reddit.com/r/vulkan/comments/4ta9nj/is_there_a_comprehensive_list_of_the_names_and/
	switch v {
	case 0x1002:
		return "AMD"
	case 0x1010:
		return "ImgTec"
	case 0x10DE:
		return "NVIDIA"
	case 0x13B5:
		return "ARM"
	case 0x5143:
		return "Qualcomm"
	case 0x8086:
		return "INTEL"
	case 0x10005:
		return "Mesa"
	default:
		return "unknown"
	}
}

func toStringPhysicalDevicePropsTable(pdProps vk.PhysicalDeviceProperties) string {
	return fmt.Sprintf("api: %s, vendorId: %d (%s), deviceId: %d, deviceType: %d (%s)",
		vk.Version(pdProps.ApiVersion).String(),
		vk.VendorId(pdProps.VendorID),
		asVendorName(vk.VendorId(pdProps.VendorID)),
		pdProps.DeviceID,
		pdProps.DeviceType,
		toStringDeviceType(pdProps.DeviceType),
	)
}

func toStringDeviceType(dt vk.PhysicalDeviceType) string {
	switch dt {
	case vk.PhysicalDeviceTypeOther:
		return "other"
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated Gpu"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete Gpu"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual Gpu"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	default:
		return "unknown"
	}
}

// QueueFamilyProperties
func toStringQueueFamilyPropsTable(q vk.QueueFamilyProperties) string {
	return fmt.Sprintf(
		"Count: %2d, Valid ts bits: %d, ImageGranularity: (%d,%d,%d), Flags: %v",
		q.QueueCount,
		q.TimestampValidBits,
		q.MinImageTransferGranularity.Width,
		q.MinImageTransferGranularity.Height,
		q.MinImageTransferGranularity.Depth,
		toStringQueueFlags(q.QueueFlags),
	)
}

// QueueFlags
func toStringQueueFlags(bits vk.QueueFlags) []string {
	var properties []string
	flags := vk.QueueFlagBits(bits)
	if flags&vk.QueueGraphicsBit > 0 {
		properties = append(properties, "VK_QUEUE_GRAPHICS_BIT")
	}
	if flags&vk.QueueComputeBit > 0 {
		properties = append(properties, "VK_QUEUE_COMPUTE_BIT")
	}
	if flags&vk.QueueTransferBit > 0 {
		properties = append(properties, "VK_QUEUE_TRANSFER_BIT")
	}
	if flags&vk.QueueSparseBindingBit > 0 {
		properties = append(properties, "VK_QUEUE_SPARSE_BINDING_BIT")
	}
	if flags&vk.QueueProtectedBit > 0 {
		properties = append(properties, "VK_QUEUE_PROTECTED_BIT")
	}
	return properties
}

// Surface negotiation values. Only the handful of values a desktop surface usually reports get a name, everything
// else falls back to its numeric value.

func ToStringFormat(f vk.Format) string {
	switch f {
	case vk.FormatB8g8r8a8Srgb:
		return "B8G8R8A8_SRGB"
	case vk.FormatB8g8r8a8Unorm:
		return "B8G8R8A8_UNORM"
	case vk.FormatR8g8b8a8Srgb:
		return "R8G8B8A8_SRGB"
	case vk.FormatR8g8b8a8Unorm:
		return "R8G8B8A8_UNORM"
	case vk.FormatA2b10g10r10UnormPack32:
		return "A2B10G10R10_UNORM_PACK32"
	case vk.FormatR16g16b16a16Sfloat:
		return "R16G16B16A16_SFLOAT"
	default:
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
}

func ToStringColorSpace(cs vk.ColorSpace) string {
	switch cs {
	case vk.ColorSpaceSrgbNonlinear:
		return "SRGB_NONLINEAR"
	default:
		return "ColorSpace(" + strconv.Itoa(int(cs)) + ")"
	}
}

func ToStringPresentMode(pm vk.PresentMode) string {
	switch pm {
	case vk.PresentModeImmediate:
		return "IMMEDIATE"
	case vk.PresentModeMailbox:
		return "MAILBOX"
	case vk.PresentModeFifo:
		return "FIFO"
	case vk.PresentModeFifoRelaxed:
		return "FIFO_RELAXED"
	default:
		return "PresentMode(" + strconv.Itoa(int(pm)) + ")"
	}
}

func ToStringSharingMode(sm vk.SharingMode) string {
	switch sm {
	case vk.SharingModeExclusive:
		return "EXCLUSIVE"
	case vk.SharingModeConcurrent:
		return "CONCURRENT"
	default:
		return "SharingMode(" + strconv.Itoa(int(sm)) + ")"
	}
}

func optIndexString(idx *uint32) string {
	if idx == nil {
		return "unset"
	}
	return strconv.FormatUint(uint64(*idx), 10)
}
