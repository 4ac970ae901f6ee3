package common

import (
	"log"

	vk "github.com/goki/vulkan"
)

// Provides validation functions to ensure support and availability of requirements of layers/extensions and so on.

func checkInstanceExtensionSupport(requiredInstanceExt []string) {
	supportedExtNames := ReadInstanceExtensionPropertyNames()
	log.Printf("Required instance extensions: %v", requiredInstanceExt)
	log.Printf("Available extensions (%d): %v", len(supportedExtNames), supportedExtNames)

	if !AllOfAinB(requiredInstanceExt, supportedExtNames) {
		log.Panicf("At least one required instance extension is not supported")
	} else {
		log.Println("Success - All required instance extensions are supported")
	}
}

func checkValidationLayerSupport(requiredLayers []string) {
	supportedLayerNames := ReadInstanceLayerPropertyNames()
	log.Printf("Desired validation layers: %v", requiredLayers)
	log.Printf("Supported layers (%d): %v", len(supportedLayerNames), supportedLayerNames)

	if !AllOfAinB(requiredLayers, supportedLayerNames) {
		log.Panicf("At least one desired layer is not supported")
	} else {
		log.Println("Success - All desired validation layers are supported")
	}
}

func checkDeviceExtensionSupport(pd vk.PhysicalDevice, requiredDeviceExt []string) bool {
	supportedExt := ReadDeviceExtensionProperties(pd)
	log.Printf("Required device extensions: %v", requiredDeviceExt)
	supportedExtNames := make([]string, len(supportedExt))
	for i, ext := range supportedExt {
		supportedExtNames[i] = vk.ToString(ext.ExtensionName[:])
	}
	if !AllOfAinB(requiredDeviceExt, supportedExtNames) {
		log.Printf("Available device extensions (%d):\n%v", len(supportedExt), TableStringExtensionProps(supportedExt))
		return false
	}
	log.Printf("Available device extensions (%d) [...]", len(supportedExt))
	return true
}

// checkSwapChainAdequacy only asks whether any swap chain can be built for the surface at all. Picking the
// configuration is the swapchain package's job.
func checkSwapChainAdequacy(pd vk.PhysicalDevice, surface vk.Surface) bool {
	formats, err := ReadSurfaceFormats(pd, surface)
	if err != nil {
		log.Printf("Failed to read surface formats: %v", err)
		return false
	}
	presentModes, err := ReadSurfacePresentModes(pd, surface)
	if err != nil {
		log.Printf("Failed to read present modes: %v", err)
		return false
	}
	log.Printf("Surface offers %d formats and %d present modes", len(formats), len(presentModes))
	return len(formats) > 0 && len(presentModes) > 0
}
