package common

import (
	"log"

	vk "github.com/goki/vulkan"
)

var VALIDATION_LAYERS = []string{
	"VK_LAYER_KHRONOS_validation",
}

var DEVICE_EXTENSIONS = []string{
	"VK_KHR_swapchain",
}

// Device represents the interfacing objects between the SDL window, the Hardware running Vulkan
// and the rest of the rendering engine. Its main purpose is to encapsulate the corresponding objects
// to make the initialization and teardown of a given application neater.
type Device struct {
	PhysicalDevice vk.PhysicalDevice
	PdProps        vk.PhysicalDeviceProperties
	QFamilies      QueueFamilyIndices

	D         vk.Device
	GraphicsQ vk.Queue
	PresentQ  vk.Queue

	validation bool
}

// NewDevice selects a physical device able to render to and present on the window's surface and creates the logical
// device for it. Discrete GPUs are preferred, any other suitable device is accepted as fallback.
func NewDevice(w *Window, enableValidation bool) *Device {
	dc := &Device{validation: enableValidation}
	dc.selectPhysicalDevice(w.Inst, w.Surf)
	dc.createLogicalDevice()
	return dc
}

// Destroy all objects created by itself. It does not destroy the sdl.window object provided for instantiation.
func (dc *Device) Destroy() {
	vk.DestroyDevice(dc.D, nil)
}

// WaitIdle blocks until the device has finished all submitted work. This is what makes it legal to destroy
// resources that are still referenced by in-flight frames, e.g. the swap chain during recreation.
func (dc *Device) WaitIdle() error {
	return vk.Error(vk.DeviceWaitIdle(dc.D))
}

func (dc *Device) selectPhysicalDevice(in *vk.Instance, su *vk.Surface) {
	availableDevices := ReadPhysicalDevices(*in)
	var pd vk.PhysicalDevice
	var fallback vk.PhysicalDevice
	for i := range availableDevices {
		discrete, suitable := isDeviceSuitable(availableDevices[i], su)
		if !suitable {
			continue
		}
		if discrete {
			pd = availableDevices[i]
			break
		}
		if fallback == nil {
			fallback = availableDevices[i]
		}
	}
	if pd == nil {
		pd = fallback
	}
	if pd == nil {
		log.Panicf("No suitable physical device (GPU) found")
	}
	dc.PhysicalDevice = pd

	// Also set related member variables for dc.PhysicalDevice as they are needed later
	qf, err := FindQueueFamilies(dc.PhysicalDevice, *su)
	if err != nil {
		log.Panicf("Failed to read queue families from selected device due to: %s", err)
	}
	dc.QFamilies = *qf
	dc.PdProps = ReadPhysicalDeviceProperties(dc.PhysicalDevice)
	log.Printf("Selected device \"%s\" with %s", vk.ToString(dc.PdProps.DeviceName[:]), dc.QFamilies)
}

func isDeviceSuitable(pd vk.PhysicalDevice, su *vk.Surface) (discrete bool, suitable bool) {
	pdProps := ReadPhysicalDeviceProperties(pd)
	pdQueueFams := ReadQueueFamilies(pd)

	log.Printf("Physical device\n%s", ToStringPhysicalDeviceTable(pdProps, pdQueueFams))

	indices, err := FindQueueFamilies(pd, *su)
	if err != nil {
		log.Printf("Failed to get required queue families: %s", err)
		return false, false
	}

	extensionsSupported := checkDeviceExtensionSupport(pd, DEVICE_EXTENSIONS)
	isSwapChainAdequate := false
	if extensionsSupported {
		isSwapChainAdequate = checkSwapChainAdequacy(pd, *su)
	}

	discrete = pdProps.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu
	return discrete, indices.Complete() && extensionsSupported && isSwapChainAdequate
}

func (dc *Device) createLogicalDevice() {
	queueInfos := dc.QFamilies.toQueueCreateInfos()
	deviceCreatInfo := &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		PNext:                   nil,
		Flags:                   0,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledLayerCount:       0,
		PpEnabledLayerNames:     nil,
		EnabledExtensionCount:   uint32(len(DEVICE_EXTENSIONS)),
		PpEnabledExtensionNames: TerminatedStrs(DEVICE_EXTENSIONS),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}
	if dc.validation {
		deviceCreatInfo.EnabledLayerCount = uint32(len(VALIDATION_LAYERS))
		deviceCreatInfo.PpEnabledLayerNames = TerminatedStrs(VALIDATION_LAYERS)
	}

	var err error
	dc.D, err = VkCreateDevice(dc.PhysicalDevice, deviceCreatInfo, nil)
	if err != nil {
		log.Panicf("Failed create logical device due to: %s", err)
	}
	dc.GraphicsQ, err = VkGetDeviceQueue(dc.D, dc.QFamilies.GraphicsFamily, 0)
	if err != nil {
		log.Panicf("Failed to get 'graphics' device queue: %s", err)
	}
	dc.PresentQ, err = VkGetDeviceQueue(dc.D, dc.QFamilies.PresentFamily, 0)
	if err != nil {
		log.Panicf("Failed to get 'present' device queue: %s", err)
	}
}
