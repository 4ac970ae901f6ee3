package common

import (
	"log"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

// QueueFamilyIndices holds the queue family indices used for rendering and presentation. Either index may be unset
// (nil) while a physical device is being evaluated. Both are required before a swap chain can be created.
type QueueFamilyIndices struct {
	GraphicsFamily *uint32
	PresentFamily  *uint32
}

// NewQueueFamilyIndices returns a complete set of indices. Mostly useful when the families are already known.
func NewQueueFamilyIndices(graphics uint32, present uint32) QueueFamilyIndices {
	return QueueFamilyIndices{
		GraphicsFamily: &graphics,
		PresentFamily:  &present,
	}
}

// FindQueueFamilies resolves the first graphics capable family and the first family able to present to surf.
func FindQueueFamilies(pd vk.PhysicalDevice, surf vk.Surface) (*QueueFamilyIndices, error) {
	indices := &QueueFamilyIndices{
		GraphicsFamily: nil,
		PresentFamily:  nil,
	}
	qFamilies := ReadQueueFamilies(pd)

	for i := range qFamilies {
		if indices.GraphicsFamily == nil && isBitSet(qFamilies[i], vk.QueueGraphicsBit) {
			indices.GraphicsFamily = new(uint32)
			*indices.GraphicsFamily = uint32(i)
		}
		if indices.PresentFamily == nil {
			var presentSupport vk.Bool32
			vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), surf, &presentSupport)
			if presentSupport > 0 {
				indices.PresentFamily = new(uint32)
				*indices.PresentFamily = uint32(i)
			}
		}
		if indices.Complete() {
			break
		}
	}
	if indices.GraphicsFamily == nil {
		return nil, errors.New("unable to find graphics capable queue family")
	}
	if indices.PresentFamily == nil {
		return nil, errors.New("unable to find present capable queue family for given surface")
	}
	return indices, nil
}

func isBitSet(qFamily vk.QueueFamilyProperties, bit vk.QueueFlagBits) bool {
	return vk.QueueFlagBits(qFamily.QueueFlags)&bit > 0
}

// Complete reports whether both the graphics and the present family are known.
func (q QueueFamilyIndices) Complete() bool {
	return q.GraphicsFamily != nil && q.PresentFamily != nil
}

// Shared is true when a single family serves both graphics and presentation.
func (q QueueFamilyIndices) Shared() bool {
	return q.Complete() && *q.GraphicsFamily == *q.PresentFamily
}

// UniqueIndices lists the distinct family indices in graphics, present order.
func (q QueueFamilyIndices) UniqueIndices() []uint32 {
	var uniqIndices []uint32
	if q.GraphicsFamily != nil && !inList(*q.GraphicsFamily, uniqIndices) {
		uniqIndices = append(uniqIndices, *q.GraphicsFamily)
	}
	if q.PresentFamily != nil && !inList(*q.PresentFamily, uniqIndices) {
		uniqIndices = append(uniqIndices, *q.PresentFamily)
	}
	return uniqIndices
}

func (q QueueFamilyIndices) String() string {
	return "QueueFamilies(graphics: " + optIndexString(q.GraphicsFamily) + ", present: " + optIndexString(q.PresentFamily) + ")"
}

func (q QueueFamilyIndices) toQueueCreateInfos() []vk.DeviceQueueCreateInfo {
	if !q.Complete() {
		log.Panicf("Failed to access queue family indices, incomplete: %s", q)
	}
	uniqIndices := q.UniqueIndices()
	infos := make([]vk.DeviceQueueCreateInfo, len(uniqIndices))
	for i := range uniqIndices {
		infos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			PNext:            nil,
			Flags:            0,
			QueueFamilyIndex: uniqIndices[i],
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}
	return infos
}

func inList(e uint32, l []uint32) bool {
	for i := range l {
		if l[i] == e {
			return true
		}
	}
	return false
}
