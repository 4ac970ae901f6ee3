package renderer

import (
	"log"

	com "GPU_renderbase/common"

	vk "github.com/goki/vulkan"
)

// These functions create and destroy the objects a Core holds. Unlike the VKS functions in vk_simplifications.go they
// are tied to the Core struct and panic on failure, as none of them can fail once the device is up and running.

func (c *Core) createRenderPass() {
	format, err := c.swapChain.Format()
	if err != nil {
		log.Panicf("Failed to read swap chain format for render pass: %v", err)
	}
	colorAttachment := vk.AttachmentDescription{
		Flags:          0,
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	colorAttachmentRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		Flags:                   0,
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		InputAttachmentCount:    0,
		PInputAttachments:       nil,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vk.AttachmentReference{colorAttachmentRef},
		PResolveAttachments:     nil,
		PDepthStencilAttachment: nil,
		PreserveAttachmentCount: 0,
		PPreserveAttachments:    nil,
	}
	dependency := vk.SubpassDependency{
		SrcSubpass:      vk.SubpassExternal,
		DstSubpass:      0,
		SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask:   0,
		DstAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		DependencyFlags: 0,
	}
	renderPassInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		PNext:           nil,
		Flags:           0,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
	c.renderPass, err = com.VkCreateRenderPass(c.device.D, &renderPassInfo, nil)
	if err != nil {
		log.Panicf("Failed create render pass due to: %v", err)
	}
	c.renderPassFormat = format
	log.Printf("Successfully created render pass for %s", com.ToStringFormat(format))
}

func (c *Core) createCommandPool() {
	commandPool, err := com.VKSCreateCommandPool(
		c.device.D,
		vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		*c.device.QFamilies.GraphicsFamily,
	)
	if err != nil {
		log.Panicf("Failed to create command pool: %v", err)
	}
	log.Printf("Successfully created command pool")
	c.commandPool = commandPool
}

func (c *Core) createCommandBuffers() {
	buffers, err := com.VKAllocateCommandBuffersPrimary(c.device.D, c.commandPool, uint32(MAX_FRAMES_IN_FLIGHT))
	if err != nil {
		log.Panicf("Failed to allocate command buffers: %v", err)
	}
	log.Printf("Successfully allocated %d command buffers", len(buffers))
	c.commandBuffers = buffers
}

func (c *Core) createSyncObjects() {
	c.imageAvailableSems = make([]vk.Semaphore, MAX_FRAMES_IN_FLIGHT)
	c.renderFinishedSems = make([]vk.Semaphore, MAX_FRAMES_IN_FLIGHT)
	c.inFlightFens = make([]vk.Fence, MAX_FRAMES_IN_FLIGHT)
	var err error
	for i := 0; i < MAX_FRAMES_IN_FLIGHT; i++ {
		if c.imageAvailableSems[i], err = com.VKSCreateSemaphore(c.device.D); err != nil {
			log.Panicf("Failed to create image available semaphore: %v", err)
		}
		if c.renderFinishedSems[i], err = com.VKSCreateSemaphore(c.device.D); err != nil {
			log.Panicf("Failed to create render finished semaphore: %v", err)
		}
		// Signalled, so the very first wait of each frame returns immediately
		if c.inFlightFens[i], err = com.VKSCreateFence(c.device.D, true); err != nil {
			log.Panicf("Failed to create in flight fence: %v", err)
		}
	}
}

// createSwapChainDerivatives builds one image view and framebuffer per swap chain image and remembers the
// generation they belong to. A format change replaces the render pass as well.
func (c *Core) createSwapChainDerivatives() {
	format, err := c.swapChain.Format()
	if err != nil {
		log.Panicf("Failed to read swap chain format: %v", err)
	}
	if format != c.renderPassFormat {
		vk.DestroyRenderPass(c.device.D, c.renderPass, nil)
		c.createRenderPass()
	}
	extent, err := c.swapChain.Extent()
	if err != nil {
		log.Panicf("Failed to read swap chain extent: %v", err)
	}
	images, err := c.swapChain.Images()
	if err != nil {
		log.Panicf("Failed to read swap chain images: %v", err)
	}

	c.imageViews = make([]vk.ImageView, len(images))
	c.frameBuffers = make([]vk.Framebuffer, len(images))
	for i := range images {
		c.imageViews[i], err = com.VKSCreateImageView2D(c.device.D, images[i], format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			log.Panicf("Failed to create image view %d: %v", i, err)
		}
		framebufferInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			PNext:           nil,
			Flags:           0,
			RenderPass:      c.renderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{c.imageViews[i]},
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}
		c.frameBuffers[i], err = com.VkCreateFrameBuffer(c.device.D, &framebufferInfo, nil)
		if err != nil {
			log.Panicf("Failed to create framebuffer %d: %v", i, err)
		}
	}
	c.extent = extent
	c.chainGen = c.swapChain.Generation()
	log.Printf("Created %d image views and framebuffers (%dx%d) for generation %d", len(images), extent.Width, extent.Height, c.chainGen)
}

func (c *Core) destroySwapChainDerivatives() {
	for i := range c.frameBuffers {
		vk.DestroyFramebuffer(c.device.D, c.frameBuffers[i], nil)
	}
	for i := range c.imageViews {
		vk.DestroyImageView(c.device.D, c.imageViews[i], nil)
	}
	c.frameBuffers = nil
	c.imageViews = nil
}
