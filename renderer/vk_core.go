package renderer

import (
	"log"
	"math"
	"time"

	com "GPU_renderbase/common"
	"GPU_renderbase/swapchain"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"
)

const PROGRAM_NAME = "GPU renderbase"
const WINDOW_WIDTH, WINDOW_HEIGHT int32 = 1280, 720
const MAX_FRAMES_IN_FLIGHT = 3

type Core struct {
	// OS/Window level
	Win    *com.Window
	device *com.Device

	// Target level
	platform  *swapchain.VkPlatform
	swapChain *swapchain.Manager

	// Drawing infrastructure level
	renderPass       vk.RenderPass
	renderPassFormat vk.Format
	commandPool      vk.CommandPool

	// Swap chain derivatives, only valid while chainGen matches the manager's generation
	chainGen     uint64
	extent       vk.Extent2D
	imageViews   []vk.ImageView
	frameBuffers []vk.Framebuffer

	// Frame level
	commandBuffers     []vk.CommandBuffer
	currentFrameIdx    int
	imageAvailableSems []vk.Semaphore
	renderFinishedSems []vk.Semaphore
	inFlightFens       []vk.Fence

	ClearColor [4]float32
}

// Externally facing functions

// NewCore opens the window, selects a device and creates the first swap chain with everything derived from it.
// Setup failures are not recoverable and panic.
func NewCore(title string, width int32, height int32, validation bool) *Core {
	c := &Core{ClearColor: [4]float32{0.01, 0.01, 0.01, 1}}
	var layers []string
	if validation {
		layers = com.VALIDATION_LAYERS
	}
	c.Win = com.NewWindow(title, width, height, layers)
	c.device = com.NewDevice(c.Win, validation)

	c.platform = swapchain.NewVkPlatform(c.device, c.Win)
	c.swapChain = swapchain.NewManager(c.platform, swapchain.Options{})
	if err := c.swapChain.Create(c.device.QFamilies, c.Win.DrawableSize()); err != nil {
		log.Panicf("Failed to create swap chain: %v", err)
	}
	c.logSwapChain()

	c.createRenderPass()
	c.createCommandPool()
	c.createCommandBuffers()
	c.createSyncObjects()
	c.createSwapChainDerivatives()
	return c
}

type drawHandler func(time.Duration, *Core)

// Loop this function represents the event-loop for user interaction and currently also contains
// the primary draw call that renders each frame. It returns when the window is closed, after maxFrames frames (0
// means no limit) or with an error once the swap chain cannot be recreated anymore.
func (c *Core) Loop(maxFrames int, dh drawHandler) error {
	t0 := time.Now()
	frames := 0
	c.Win.Close = false
	for !c.Win.Close {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			if c.Win.HandleEvent(event) {
				c.invalidate("window resized")
			}
		}
		if c.Win.Minimized {
			// Sleep until new events change c.Win.Minimized
			if event := sdl.WaitEvent(); event != nil && c.Win.HandleEvent(event) {
				c.invalidate("window restored")
			}
			continue
		}
		if dh != nil {
			dh(time.Since(t0), c)
		}
		if err := c.drawFrame(); err != nil {
			return err
		}
		frames++
		if maxFrames > 0 && frames >= maxFrames {
			break
		}
	}
	dt := time.Since(t0)
	log.Printf("Elapsed: %v, frames: %d, rough avg fps: %v fps", dt, frames, float64(frames)/dt.Seconds())
	return nil
}

func (c *Core) Destroy() {
	// We need to wait for the last asynchronous call to finish before tear down
	if err := c.device.WaitIdle(); err != nil {
		log.Printf("Failed to wait for device idle before tear down: %v", err)
	}
	c.destroySwapChainDerivatives()
	if err := c.swapChain.Destroy(); err != nil {
		log.Printf("Failed to destroy swap chain: %v", err)
	}

	// Destroy all infrastructure up to the sdl window
	for i := 0; i < MAX_FRAMES_IN_FLIGHT; i++ {
		vk.DestroySemaphore(c.device.D, c.imageAvailableSems[i], nil)
		vk.DestroySemaphore(c.device.D, c.renderFinishedSems[i], nil)
		vk.DestroyFence(c.device.D, c.inFlightFens[i], nil)
	}
	vk.DestroyCommandPool(c.device.D, c.commandPool, nil)
	vk.DestroyRenderPass(c.device.D, c.renderPass, nil)

	c.device.Destroy()
	c.Win.Destroy()
}

// SwapChainGeneration reports how often the swap chain has been built so far.
func (c *Core) SwapChainGeneration() uint64 {
	return c.swapChain.Generation()
}

func (c *Core) drawFrame() error {
	if c.swapChain.State() == swapchain.Invalidated {
		if err := c.recreateSwapChain(); err != nil {
			return err
		}
		if c.swapChain.State() != swapchain.Created {
			// Nothing to draw on yet, the drawable has no area
			return nil
		}
	}
	if c.chainGen != c.swapChain.Generation() {
		c.destroySwapChainDerivatives()
		c.createSwapChainDerivatives()
	}
	handle, err := c.swapChain.Handle()
	if err != nil {
		return err
	}

	// Wait for frame to be ready - signalled by the inFlightFens
	fence := []vk.Fence{c.inFlightFens[c.currentFrameIdx]}
	if err := vk.Error(vk.WaitForFences(c.device.D, 1, fence, vk.True, math.MaxUint64)); err != nil {
		return errors.Wrap(err, "wait for in flight fence")
	}

	var imgIdx uint32
	result := vk.AcquireNextImage(c.device.D, handle, math.MaxUint64, c.imageAvailableSems[c.currentFrameIdx], nil, &imgIdx)
	// React on surface changes and other possible causes for failure (e.g.: Window resizing)
	if result == vk.ErrorOutOfDate {
		c.invalidate("acquire reported out of date")
		return nil
	} else if result != vk.Success && result != vk.Suboptimal {
		return errors.Wrap(vk.Error(result), "acquire next image")
	}

	// Reset the fence only if we are actually going to execute work that will put the fence into the signalled state
	vk.ResetFences(c.device.D, 1, fence)

	vk.ResetCommandBuffer(c.commandBuffers[c.currentFrameIdx], 0)
	if err := c.recordDrawCommands(c.commandBuffers[c.currentFrameIdx], imgIdx); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		PNext:              nil,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{c.imageAvailableSems[c.currentFrameIdx]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{c.commandBuffers[c.currentFrameIdx]},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{c.renderFinishedSems[c.currentFrameIdx]},
	}
	if err := vk.Error(vk.QueueSubmit(c.device.GraphicsQ, 1, []vk.SubmitInfo{submitInfo}, c.inFlightFens[c.currentFrameIdx])); err != nil {
		return errors.Wrap(err, "submit command buffer")
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		PNext:              nil,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{c.renderFinishedSems[c.currentFrameIdx]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{handle},
		PImageIndices:      []uint32{imgIdx},
		PResults:           nil,
	}
	result = vk.QueuePresent(c.device.PresentQ, &presentInfo)
	c.currentFrameIdx = (c.currentFrameIdx + 1) % MAX_FRAMES_IN_FLIGHT

	// React on surface changes and other possible causes for failure (e.g.: Window resizing)
	if presentNeedsRecreate(result, c.Win.Resized) {
		c.invalidate("present reported a changed surface")
		return nil
	}
	if result != vk.Success {
		return errors.Wrap(vk.Error(result), "present image")
	}
	return nil
}

// presentNeedsRecreate decides after presenting whether the swap chain no longer matches the surface.
func presentNeedsRecreate(result vk.Result, resized bool) bool {
	return result == vk.ErrorOutOfDate || result == vk.Suboptimal || resized
}

func (c *Core) invalidate(reason string) {
	if c.swapChain.State() != swapchain.Created {
		return
	}
	if err := c.swapChain.MarkInvalidated(); err != nil {
		log.Printf("Failed to invalidate swap chain: %v", err)
		return
	}
	log.Printf("Swap chain invalidated: %s", reason)
}

// recreateSwapChain rebuilds an invalidated swap chain. A drawable without area is skipped and the chain stays
// invalidated until the window has a size again.
func (c *Core) recreateSwapChain() error {
	size := c.Win.DrawableSize()
	if size.Width == 0 || size.Height == 0 {
		return nil
	}
	// The old images may still be referenced by in flight frames
	if err := c.device.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for device idle before recreation")
	}
	c.destroySwapChainDerivatives()
	if err := c.swapChain.Recreate(size); err != nil {
		return err
	}
	c.Win.Resized = false
	c.logSwapChain()
	c.createSwapChainDerivatives()
	return nil
}

func (c *Core) logSwapChain() {
	cfg, err := c.swapChain.Config()
	if err != nil {
		log.Printf("Swap chain has no configuration: %v", err)
		return
	}
	log.Printf("Created swap chain generation %d: %s", c.swapChain.Generation(), cfg)
}

func (c *Core) recordDrawCommands(buffer vk.CommandBuffer, imageIdx uint32) error {
	// Begin recording
	if err := com.VKBeginOneTimeCommands(buffer); err != nil {
		return errors.Wrap(err, "begin recording command buffer")
	}

	// Start render pass
	renderArea := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: c.extent,
	}
	clearValues := []vk.ClearValue{
		vk.NewClearValue(c.ClearColor[:]),
	}
	renderPassInfo := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		PNext:           nil,
		RenderPass:      c.renderPass,
		Framebuffer:     c.frameBuffers[imageIdx],
		RenderArea:      renderArea,
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(buffer, &renderPassInfo, vk.SubpassContentsInline)
	vk.CmdEndRenderPass(buffer)

	if err := vk.Error(vk.EndCommandBuffer(buffer)); err != nil {
		return errors.Wrap(err, "record command buffer")
	}
	return nil
}

// PulseColor is a slowly cycling clear color, enough to see that frames keep being presented.
func PulseColor(elapsed time.Duration) [4]float32 {
	s := elapsed.Seconds()
	return [4]float32{
		float32(0.5 + 0.5*math.Sin(s)),
		float32(0.5 + 0.5*math.Sin(s+2*math.Pi/3)),
		float32(0.5 + 0.5*math.Sin(s+4*math.Pi/3)),
		1,
	}
}
